package analytics

import (
	"fmt"
	"strings"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

// Alert thresholds.
const (
	MarginFloor          = 15.0
	MarginTarget         = 25.0
	OverspendRatio       = 1.1
	UtilizationFloor     = 80.0
	UtilizationCeiling   = 95.0
	HealthIndexFloor     = 85.0
	LowStockAlertMinimum = 3
)

// GenerateAlerts evaluates every threshold rule and returns the alerts in
// priority order, danger first. Truncation for display is left to callers.
func GenerateAlerts(financial models.FinancialMetrics, field models.FieldMetrics, animal models.AnimalMetrics, warehouse models.WarehouseMetrics) []models.Alert {
	alerts := []models.Alert{}

	hasTransactions := financial.TransactionCount > 0
	margin := financial.ProfitMargin

	if hasTransactions && margin < MarginFloor {
		alerts = append(alerts, models.Alert{
			Severity: models.SeverityDanger,
			Title:    "Profit margin below floor",
			Message:  fmt.Sprintf("Profit margin is %.1f%%, below the %.0f%% minimum.", margin, MarginFloor),
		})
	}

	if hasTransactions && financial.TotalRevenue > 0 {
		ratio := financial.TotalExpenses / financial.TotalRevenue
		if ratio > OverspendRatio {
			alerts = append(alerts, models.Alert{
				Severity: models.SeverityDanger,
				Title:    "Expenses exceed revenue",
				Message:  fmt.Sprintf("Expenses are %.0f%% of revenue this year.", ratio*100),
			})
		}
	}

	if hasTransactions && margin >= MarginFloor && margin < MarginTarget {
		alerts = append(alerts, models.Alert{
			Severity: models.SeverityWarning,
			Title:    "Profit margin below target",
			Message:  fmt.Sprintf("Profit margin is %.1f%%, target is %.0f%%.", margin, MarginTarget),
		})
	}

	hasLand := field.TotalArea > 0
	rate := field.FieldUtilization.UtilizationRate

	if hasLand && rate < UtilizationFloor {
		alerts = append(alerts, models.Alert{
			Severity: models.SeverityWarning,
			Title:    "Land under-utilized",
			Message:  fmt.Sprintf("Only %.1f%% of %.1f ha is under crop.", rate, field.TotalArea),
		})
	}

	if animal.TotalAnimals > 0 && animal.Health.HealthIndex < HealthIndexFloor {
		alerts = append(alerts, models.Alert{
			Severity: models.SeverityWarning,
			Title:    "Herd health concern",
			Message: fmt.Sprintf("%.1f%% of %d animals are healthy (%d sick, %d in treatment).",
				animal.Health.HealthIndex, animal.TotalAnimals, animal.Health.Sick, animal.Health.InTreatment),
		})
	}

	if low := warehouse.StockLevels.LowStock; low >= LowStockAlertMinimum {
		alerts = append(alerts, models.Alert{
			Severity: models.SeverityWarning,
			Title:    "Restock needed",
			Message:  fmt.Sprintf("%d items are at or below minimum stock%s.", low, itemList(warehouse.LowStockItems, 3)),
		})
	}

	if hasLand && rate > UtilizationCeiling {
		alerts = append(alerts, models.Alert{
			Severity: models.SeverityInfo,
			Title:    "Land fully utilized",
			Message:  fmt.Sprintf("%.1f%% of the land is under crop; plan rotation and fallow periods.", rate),
		})
	}

	return alerts
}

func itemList(names []string, limit int) string {
	if len(names) == 0 {
		return ""
	}
	if len(names) > limit {
		return fmt.Sprintf(": %s and %d more", strings.Join(names[:limit], ", "), len(names)-limit)
	}
	return ": " + strings.Join(names, ", ")
}
