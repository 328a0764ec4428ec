package reporting

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

// Workbook sheet names.
const (
	SheetSummary = "Summary"
	SheetTrend   = "Trend"
	SheetCosts   = "Costs"
	SheetRevenue = "Revenue"
	SheetAlerts  = "Alerts"
)

// ExportWorkbook renders snap as an XLSX workbook.
func (s *Service) ExportWorkbook(snap *models.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("no snapshot to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetTrend, SheetCosts, SheetRevenue, SheetAlerts} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	m := snap.Metrics
	summary := [][]any{
		{"Metric", "Value"},
		{"Computed at", snap.ComputedAt.In(s.loc).Format("2006-01-02 15:04")},
		{"Total revenue", m.Financial.TotalRevenue},
		{"Total expenses", m.Financial.TotalExpenses},
		{"Net profit", m.Financial.NetProfit},
		{"Profit margin %", m.Financial.ProfitMargin},
		{"Monthly balance", m.Financial.MonthlyBalance},
		{"Total area ha", m.Field.TotalArea},
		{"Utilization %", m.Field.FieldUtilization.UtilizationRate},
		{"Animals", m.Animal.TotalAnimals},
		{"Health index %", m.Animal.Health.HealthIndex},
		{"Inventory value", m.Warehouse.InventoryValue},
		{"Low stock items", m.Warehouse.StockLevels.LowStock},
		{"Equipment availability %", m.Equipment.AvailabilityRate},
		{"Task completion %", m.Tasks.CompletionRate},
	}
	if err := writeRows(f, SheetSummary, summary); err != nil {
		return nil, err
	}

	trend := [][]any{{"Period", "Revenue", "Expenses", "Profit"}}
	for _, p := range m.Financial.Trend {
		trend = append(trend, []any{p.Period, p.Revenue, p.Expenses, p.Profit})
	}
	if err := writeRows(f, SheetTrend, trend); err != nil {
		return nil, err
	}

	if err := writeRows(f, SheetCosts, categoryRows(m.Financial.CostStructure)); err != nil {
		return nil, err
	}
	if err := writeRows(f, SheetRevenue, categoryRows(m.Financial.CategoryPerformance)); err != nil {
		return nil, err
	}

	alerts := [][]any{{"Severity", "Title", "Message"}}
	for _, a := range snap.Alerts {
		alerts = append(alerts, []any{string(a.Severity), a.Title, a.Message})
	}
	if err := writeRows(f, SheetAlerts, alerts); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func categoryRows(items []models.CategoryAmount) [][]any {
	rows := [][]any{{"Category", "Amount", "Share %"}}
	for _, c := range items {
		rows = append(rows, []any{c.Category, c.Amount, c.Share})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
