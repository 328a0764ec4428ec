package models

import (
	"strings"
	"time"
)

// TransactionType distinguishes income from expense entries.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Animal health values as stored by the dashboard forms.
const (
	HealthHealthy    = "zdrowy"
	HealthSick       = "chory"
	HealthTreatment  = "w leczeniu"
	HealthQuarantine = "w kwarantannie"
	HealthCritical   = "krytyczny"
)

// Equipment status values that need attention.
const (
	EquipmentMaintenance  = "maintenance"
	EquipmentNeedsService = "needs_service"
)

// Transaction is a typed view of a transactions record.
type Transaction struct {
	ID          string
	Type        TransactionType
	Category    string
	Amount      float64
	Description string
	Date        time.Time
	HasDate     bool
}

// TransactionFromRecord builds a Transaction from a normalized record.
func TransactionFromRecord(r Record) Transaction {
	date, ok := r.Time("date")
	return Transaction{
		ID:          r.ID(),
		Type:        TransactionType(strings.ToLower(r.String("type"))),
		Category:    r.String("category"),
		Amount:      r.Float("amount"),
		Description: r.String("description"),
		Date:        date,
		HasDate:     ok,
	}
}

// Field is a typed view of a fields record.
type Field struct {
	ID     string
	Name   string
	Area   float64
	Crop   string
	Soil   string
	Status string
}

// FieldFromRecord builds a Field from a normalized record.
func FieldFromRecord(r Record) Field {
	return Field{
		ID:     r.ID(),
		Name:   r.String("name"),
		Area:   r.Float("area"),
		Crop:   r.String("crop"),
		Soil:   r.String("soil"),
		Status: strings.ToLower(r.String("status")),
	}
}

// FieldYield captures a harvest entry for one field.
type FieldYield struct {
	FieldID string
	Crop    string
	Amount  float64
	Date    time.Time
	HasDate bool
}

// FieldYieldFromRecord accepts "amount", "yield" or "quantity" as the harvested amount.
func FieldYieldFromRecord(r Record) FieldYield {
	date, ok := r.Time("date")
	amount := r.Float("amount")
	if amount == 0 {
		amount = r.Float("yield")
	}
	if amount == 0 {
		amount = r.Float("quantity")
	}
	return FieldYield{
		FieldID: r.String("fieldId"),
		Crop:    r.String("crop"),
		Amount:  amount,
		Date:    date,
		HasDate: ok,
	}
}

// FieldStatusEntry records a status change of a field.
type FieldStatusEntry struct {
	FieldID string
	Status  string
	Date    time.Time
	HasDate bool
}

// FieldStatusFromRecord builds a FieldStatusEntry from a normalized record.
func FieldStatusFromRecord(r Record) FieldStatusEntry {
	date, ok := r.Time("date")
	if !ok {
		date, ok = r.Time("createdAt")
	}
	return FieldStatusEntry{
		FieldID: r.String("fieldId"),
		Status:  strings.ToLower(r.String("status")),
		Date:    date,
		HasDate: ok,
	}
}

// FieldCost is an operating cost booked against a field.
type FieldCost struct {
	FieldID  string
	Category string
	Amount   float64
	Date     time.Time
	HasDate  bool
}

// FieldCostFromRecord builds a FieldCost from a normalized record.
func FieldCostFromRecord(r Record) FieldCost {
	date, ok := r.Time("date")
	return FieldCost{
		FieldID:  r.String("fieldId"),
		Category: r.String("category"),
		Amount:   r.Float("amount"),
		Date:     date,
		HasDate:  ok,
	}
}

// Animal is a typed view of an animals record.
type Animal struct {
	ID     string
	Type   string
	Health string
	Status string
	Weight float64
}

// AnimalFromRecord builds an Animal from a normalized record.
func AnimalFromRecord(r Record) Animal {
	return Animal{
		ID:     r.ID(),
		Type:   r.String("type"),
		Health: strings.ToLower(r.String("health")),
		Status: strings.ToLower(r.String("status")),
		Weight: r.Float("weight"),
	}
}

// WarehouseItem is a typed view of a warehouse record.
type WarehouseItem struct {
	ID       string
	Name     string
	Category string
	Quantity float64
	MinStock float64
	Price    float64
}

// WarehouseItemFromRecord reads minStock, falling back to minQuantity.
func WarehouseItemFromRecord(r Record) WarehouseItem {
	minStock := r.Float("minStock")
	if _, ok := r["minStock"]; !ok {
		minStock = r.Float("minQuantity")
	}
	return WarehouseItem{
		ID:       r.ID(),
		Name:     r.String("name"),
		Category: r.String("category"),
		Quantity: r.Float("quantity"),
		MinStock: minStock,
		Price:    r.Float("price"),
	}
}

// LowStock reports whether the on-hand quantity is at or below the minimum.
func (w WarehouseItem) LowStock() bool {
	return w.Quantity <= w.MinStock
}

// Equipment is a typed view of an equipment record.
type Equipment struct {
	ID             string
	Name           string
	Status         string
	NextService    time.Time
	HasNextService bool
}

// EquipmentFromRecord builds an Equipment from a normalized record.
func EquipmentFromRecord(r Record) Equipment {
	next, ok := r.Time("nextService")
	return Equipment{
		ID:             r.ID(),
		Name:           r.String("name"),
		Status:         strings.ToLower(r.String("status")),
		NextService:    next,
		HasNextService: ok,
	}
}

// Task is a typed view of a tasks record.
type Task struct {
	ID          string
	Title       string
	Status      string
	DueDate     time.Time
	HasDueDate  bool
	CompletedAt time.Time
}

// Completed reports whether the task is done.
func (t Task) Completed() bool {
	return t.Status == "completed" || t.Status == "done" || !t.CompletedAt.IsZero()
}

// TaskFromRecord builds a Task from a normalized record.
func TaskFromRecord(r Record) Task {
	due, ok := r.Time("dueDate")
	completed, _ := r.Time("completedAt")
	return Task{
		ID:          r.ID(),
		Title:       r.String("title"),
		Status:      strings.ToLower(r.String("status")),
		DueDate:     due,
		HasDueDate:  ok,
		CompletedAt: completed,
	}
}
