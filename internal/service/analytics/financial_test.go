package analytics

import (
	"testing"
	"time"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

var testNow = time.Date(2026, time.October, 14, 10, 0, 0, 0, time.UTC)

func tx(kind models.TransactionType, category string, amount float64, date time.Time) models.Transaction {
	return models.Transaction{Type: kind, Category: category, Amount: amount, Date: date, HasDate: true}
}

func TestAnalyzeFinancial_MarginBelowFloor(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TransactionIncome, "zboże", 1000, testNow),
		tx(models.TransactionExpense, "paliwo", 900, testNow),
	}

	m := AnalyzeFinancial(txs, testNow)

	if m.NetProfit != 100 {
		t.Errorf("NetProfit=%v, want 100", m.NetProfit)
	}
	if m.ProfitMargin != 10.0 {
		t.Errorf("ProfitMargin=%v, want 10.0", m.ProfitMargin)
	}
	if m.MonthlyBalance != 100 || m.MonthlyRevenue != 1000 || m.MonthlyExpenses != 900 {
		t.Errorf("monthly figures wrong: %+v", m)
	}

	alerts := GenerateAlerts(m, models.FieldMetrics{}, models.AnimalMetrics{}, models.WarehouseMetrics{})
	if len(alerts) == 0 || alerts[0].Severity != models.SeverityDanger || alerts[0].Title != "Profit margin below floor" {
		t.Fatalf("expected margin floor danger alert first, got %+v", alerts)
	}
}

func TestAnalyzeFinancial_NetProfitIdentity(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TransactionIncome, "a", 0.1, testNow),
		tx(models.TransactionIncome, "a", 0.2, testNow),
		tx(models.TransactionExpense, "b", 0.3, testNow.AddDate(0, -2, 0)),
		tx(models.TransactionExpense, "b", 1234.56, testNow.AddDate(0, -1, 0)),
	}

	m := AnalyzeFinancial(txs, testNow)

	if m.TotalRevenue-m.TotalExpenses != m.NetProfit {
		t.Fatalf("identity broken: %v - %v != %v", m.TotalRevenue, m.TotalExpenses, m.NetProfit)
	}
	if m.TotalRevenue != 0.3 {
		t.Errorf("TotalRevenue=%v, want exact 0.3", m.TotalRevenue)
	}
}

func TestAnalyzeFinancial_ZeroRevenueMargin(t *testing.T) {
	m := AnalyzeFinancial([]models.Transaction{tx(models.TransactionExpense, "x", 500, testNow)}, testNow)
	if m.ProfitMargin != 0 {
		t.Fatalf("ProfitMargin=%v, want 0", m.ProfitMargin)
	}
	if m.NetProfit != -500 {
		t.Fatalf("NetProfit=%v, want -500", m.NetProfit)
	}
}

func TestAnalyzeFinancial_PeriodsAndUndatedTransactions(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TransactionIncome, "mleko", 100, testNow),
		tx(models.TransactionIncome, "mleko", 50, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)),
		tx(models.TransactionIncome, "mleko", 999, time.Date(2025, time.October, 14, 0, 0, 0, 0, time.UTC)),
		{Type: models.TransactionIncome, Amount: 777},
	}

	m := AnalyzeFinancial(txs, testNow)

	if m.TotalRevenue != 150 {
		t.Errorf("TotalRevenue=%v, want 150", m.TotalRevenue)
	}
	if m.MonthlyRevenue != 100 {
		t.Errorf("MonthlyRevenue=%v, want 100", m.MonthlyRevenue)
	}
	if m.TransactionCount != 2 {
		t.Errorf("TransactionCount=%d, want 2", m.TransactionCount)
	}
	if len(m.Trend) != 10 {
		t.Fatalf("len(Trend)=%d, want 10", len(m.Trend))
	}
	if m.Trend[2].Period != "2026-03" || m.Trend[2].Revenue != 50 {
		t.Errorf("March trend=%+v", m.Trend[2])
	}
}

func TestAnalyzeFinancial_RankedBreakdowns(t *testing.T) {
	txs := []models.Transaction{
		tx(models.TransactionExpense, "pasza", 300, testNow),
		tx(models.TransactionExpense, "paliwo", 100, testNow),
		tx(models.TransactionExpense, "pasza", 100, testNow),
		tx(models.TransactionExpense, "", 100, testNow),
		tx(models.TransactionIncome, "zboże", 200, testNow),
		tx(models.TransactionIncome, "mleko", 800, testNow),
	}

	m := AnalyzeFinancial(txs, testNow)

	if len(m.CostStructure) != 3 {
		t.Fatalf("CostStructure=%+v", m.CostStructure)
	}
	if first := m.CostStructure[0]; first.Category != "pasza" || first.Amount != 400 || first.Share != 66.7 {
		t.Errorf("first cost=%+v", first)
	}
	if m.CostStructure[1].Category != "other" || m.CostStructure[2].Category != "paliwo" {
		t.Errorf("ties must sort by name: %+v", m.CostStructure)
	}
	if m.CategoryPerformance[0].Category != "mleko" || m.CategoryPerformance[0].Share != 80 {
		t.Errorf("CategoryPerformance=%+v", m.CategoryPerformance)
	}
}
