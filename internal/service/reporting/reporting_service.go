package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

const dateLayout = "2006-01-02"

// DigestAlerts is how many alerts the digest lists.
const DigestAlerts = 3

// Narrator writes a short narrative for a digest. Optional.
type Narrator interface {
	Summarize(ctx context.Context, digest string) (string, error)
}

// Service renders analytics state for messaging and export.
type Service struct {
	narrator Narrator
	logger   *zap.Logger
	loc      *time.Location
}

// NewService wires a new reporting service instance. narrator may be nil.
func NewService(narrator Narrator, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{narrator: narrator, logger: logger, loc: loc}
}

// BuildDigest formats the daily KPI digest. The AI narrative is appended
// when a narrator is configured; its failures never fail the digest.
func (s *Service) BuildDigest(ctx context.Context, state models.AnalyticsState, now time.Time) string {
	text := FormatDigest(state, now.In(s.loc))
	if !state.Ready() || s.narrator == nil {
		return text
	}

	narrative, err := s.narrator.Summarize(ctx, text)
	if err != nil || strings.TrimSpace(narrative) == "" {
		s.logger.Debug("digest narrative unavailable", zap.Error(err))
		return text
	}
	return text + "\n\n" + strings.TrimSpace(narrative)
}

// FormatDigest renders the digest without a narrative.
func FormatDigest(state models.AnalyticsState, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Farm digest %s\n", now.Format(dateLayout))

	if !state.Ready() {
		if state.Error != nil {
			fmt.Fprintf(&b, "Analytics unavailable: %s", *state.Error)
		} else {
			b.WriteString("Analytics are still loading.")
		}
		return b.String()
	}

	b.WriteString(FormatFinance(*state.Financial))
	b.WriteString("\n")
	if state.Field != nil {
		fmt.Fprintf(&b, "Land utilization: %.1f%% of %.1f ha\n",
			state.Field.FieldUtilization.UtilizationRate, state.Field.TotalArea)
	}
	if state.Animal != nil {
		fmt.Fprintf(&b, "Herd health: %.1f%% of %d animals\n",
			state.Animal.Health.HealthIndex, state.Animal.TotalAnimals)
	}
	if state.Warehouse != nil {
		fmt.Fprintf(&b, "Low stock items: %d\n", state.Warehouse.StockLevels.LowStock)
	}
	b.WriteString(FormatAlerts(models.TopAlerts(state.Alerts, DigestAlerts)))

	return strings.TrimRight(b.String(), "\n")
}

// FormatFinance renders the yearly and monthly money lines.
func FormatFinance(f models.FinancialMetrics) string {
	return fmt.Sprintf("Revenue: %.2f | Expenses: %.2f\nNet profit: %.2f (margin %.1f%%)\nThis month: %.2f",
		f.TotalRevenue, f.TotalExpenses, f.NetProfit, f.ProfitMargin, f.MonthlyBalance)
}

// FormatAlerts renders one line per alert.
func FormatAlerts(alerts []models.Alert) string {
	if len(alerts) == 0 {
		return "No alerts."
	}
	var b strings.Builder
	b.WriteString("Alerts:")
	for _, a := range alerts {
		fmt.Fprintf(&b, "\n[%s] %s: %s", strings.ToUpper(string(a.Severity)), a.Title, a.Message)
	}
	return b.String()
}

// FormatStock renders warehouse levels and the low-stock names.
func FormatStock(w models.WarehouseMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Warehouse: %d items worth %.2f\nLow: %d | Out: %d | Adequate: %d",
		w.TotalItems, w.InventoryValue, w.StockLevels.LowStock, w.StockLevels.OutOfStock, w.StockLevels.Adequate)
	if len(w.LowStockItems) > 0 {
		fmt.Fprintf(&b, "\nRestock: %s", strings.Join(w.LowStockItems, ", "))
	}
	return b.String()
}
