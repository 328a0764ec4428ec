package reporting

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

var digestNow = time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC)

type stubNarrator struct {
	text  string
	err   error
	calls int
}

func (n *stubNarrator) Summarize(ctx context.Context, digest string) (string, error) {
	n.calls++
	return n.text, n.err
}

func readyState() models.AnalyticsState {
	return models.AnalyticsState{
		Financial: &models.FinancialMetrics{
			TotalRevenue: 10000, TotalExpenses: 9000, NetProfit: 1000, ProfitMargin: 10, MonthlyBalance: -250,
		},
		Field:     &models.FieldMetrics{TotalArea: 40, FieldUtilization: models.FieldUtilization{UtilizationRate: 75}},
		Animal:    &models.AnimalMetrics{TotalAnimals: 20, Health: models.AnimalHealth{HealthIndex: 90}},
		Warehouse: &models.WarehouseMetrics{StockLevels: models.StockLevels{LowStock: 2}},
		Alerts: []models.Alert{
			{Severity: models.SeverityDanger, Title: "Profit margin below floor", Message: "a"},
			{Severity: models.SeverityWarning, Title: "Land under-utilized", Message: "b"},
			{Severity: models.SeverityWarning, Title: "Restock needed", Message: "c"},
			{Severity: models.SeverityInfo, Title: "Fourth", Message: "d"},
		},
	}
}

func TestFormatDigest(t *testing.T) {
	text := FormatDigest(readyState(), digestNow)

	for _, want := range []string{
		"Farm digest 2026-10-14",
		"Revenue: 10000.00 | Expenses: 9000.00",
		"Net profit: 1000.00 (margin 10.0%)",
		"This month: -250.00",
		"Land utilization: 75.0% of 40.0 ha",
		"Herd health: 90.0% of 20 animals",
		"Low stock items: 2",
		"[DANGER] Profit margin below floor: a",
		"[WARNING] Restock needed: c",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("digest missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Fourth") {
		t.Error("digest should list only the top alerts")
	}
}

func TestFormatDigestNotReady(t *testing.T) {
	msg := "store unreachable"
	if got := FormatDigest(models.AnalyticsState{Error: &msg}, digestNow); !strings.Contains(got, msg) {
		t.Errorf("got %q", got)
	}
	if got := FormatDigest(models.AnalyticsState{Loading: true}, digestNow); !strings.Contains(got, "loading") {
		t.Errorf("got %q", got)
	}
}

func TestBuildDigestNarrative(t *testing.T) {
	n := &stubNarrator{text: "Margins are thin."}
	svc := NewService(n, time.UTC, nil)

	got := svc.BuildDigest(context.Background(), readyState(), digestNow)
	if !strings.HasSuffix(got, "\n\nMargins are thin.") {
		t.Errorf("got %q", got)
	}
}

func TestBuildDigestNarrativeFailureIgnored(t *testing.T) {
	n := &stubNarrator{err: errors.New("timeout")}
	svc := NewService(n, time.UTC, nil)

	got := svc.BuildDigest(context.Background(), readyState(), digestNow)
	if got != FormatDigest(readyState(), digestNow) {
		t.Errorf("got %q", got)
	}

	svc.BuildDigest(context.Background(), models.AnalyticsState{}, digestNow)
	if n.calls != 1 {
		t.Errorf("narrator called %d times, want no call for an empty state", n.calls)
	}
}

func TestFormatStock(t *testing.T) {
	got := FormatStock(models.WarehouseMetrics{
		TotalItems: 3, InventoryValue: 120,
		StockLevels:   models.StockLevels{LowStock: 2, OutOfStock: 1},
		LowStockItems: []string{"Diesel", "Seed"},
	})
	if !strings.Contains(got, "Low: 2 | Out: 1") || !strings.Contains(got, "Restock: Diesel, Seed") {
		t.Errorf("got %q", got)
	}
}

func TestExportWorkbook(t *testing.T) {
	svc := NewService(nil, time.UTC, nil)
	snap := &models.Snapshot{
		CycleID:    "c1",
		ComputedAt: digestNow,
		Metrics: models.MetricsBundle{
			Financial: models.FinancialMetrics{
				TotalRevenue:  500,
				Trend:         []models.PeriodAmount{{Period: "2026-01", Revenue: 500, Expenses: 100, Profit: 400}},
				CostStructure: []models.CategoryAmount{{Category: "fuel", Amount: 100, Share: 100}},
			},
		},
		Alerts: []models.Alert{{Severity: models.SeverityInfo, Title: "Land fully utilized", Message: "m"}},
	}

	data, err := svc.ExportWorkbook(snap)
	if err != nil {
		t.Fatalf("ExportWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetSummary, SheetTrend, SheetCosts, SheetRevenue, SheetAlerts}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v", sheets)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Fatalf("sheets = %v, want %v", sheets, want)
		}
	}

	trend, err := f.GetRows(SheetTrend)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(trend) != 2 || trend[1][0] != "2026-01" || trend[1][3] != "400" {
		t.Errorf("trend = %v", trend)
	}

	alerts, _ := f.GetRows(SheetAlerts)
	if len(alerts) != 2 || alerts[1][1] != "Land fully utilized" {
		t.Errorf("alerts = %v", alerts)
	}

	revenue, _ := f.GetRows(SheetRevenue)
	if len(revenue) != 1 {
		t.Errorf("revenue should hold only the header row: %v", revenue)
	}
}

func TestExportWorkbookNilSnapshot(t *testing.T) {
	if _, err := NewService(nil, nil, nil).ExportWorkbook(nil); err == nil {
		t.Fatal("expected error")
	}
}
