package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRecordFloatCoercion(t *testing.T) {
	r := Record{
		"int":      7,
		"float":    2.5,
		"number":   json.Number("12.25"),
		"string":   " 40 ",
		"comma":    "12,5",
		"negative": -3,
		"text":     "n/a",
		"nil":      nil,
	}

	cases := map[string]float64{
		"int":      7,
		"float":    2.5,
		"number":   12.25,
		"string":   40,
		"comma":    12.5,
		"negative": 0,
		"text":     0,
		"nil":      0,
		"missing":  0,
	}
	for key, want := range cases {
		if got := r.Float(key); got != want {
			t.Errorf("Float(%q)=%v, want %v", key, got, want)
		}
	}
}

func TestRecordIDFallsBackToUnderscoreID(t *testing.T) {
	if got := (Record{"_id": "abc"}).ID(); got != "abc" {
		t.Fatalf("ID()=%q, want abc", got)
	}
	if got := (Record{"id": "x", "_id": "abc"}).ID(); got != "x" {
		t.Fatalf("ID()=%q, want x", got)
	}
}

func TestRecordTimeRejectsZeroAndNonDates(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r := Record{"ok": now, "ptr": &now, "zero": time.Time{}, "str": "2026-03-01"}

	if _, ok := r.Time("ok"); !ok {
		t.Error("expected time.Time to be accepted")
	}
	if _, ok := r.Time("ptr"); !ok {
		t.Error("expected *time.Time to be accepted")
	}
	if _, ok := r.Time("zero"); ok {
		t.Error("expected zero time to be rejected")
	}
	if _, ok := r.Time("str"); ok {
		t.Error("expected raw string to be rejected before normalization")
	}
}

func TestWarehouseItemMinStockFallback(t *testing.T) {
	item := WarehouseItemFromRecord(Record{"quantity": 4, "minQuantity": 5})
	if item.MinStock != 5 || !item.LowStock() {
		t.Fatalf("unexpected item %+v", item)
	}

	item = WarehouseItemFromRecord(Record{"quantity": 4, "minStock": 2, "minQuantity": 9})
	if item.MinStock != 2 || item.LowStock() {
		t.Fatalf("minStock should win over minQuantity, got %+v", item)
	}
}

func TestTopAlerts(t *testing.T) {
	alerts := []Alert{{Title: "a"}, {Title: "b"}, {Title: "c"}, {Title: "d"}}
	if got := TopAlerts(alerts, 3); len(got) != 3 || got[0].Title != "a" {
		t.Fatalf("TopAlerts=%v", got)
	}
	if got := TopAlerts(alerts[:2], 3); len(got) != 2 {
		t.Fatalf("TopAlerts should not pad, got %v", got)
	}
}

func TestOrderField(t *testing.T) {
	if OrderField(CollectionTasks) != "dueDate" || OrderField(CollectionTransactions) != "date" || OrderField(CollectionAnimals) != "" {
		t.Error("unexpected sort fields")
	}
}
