package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

// Fetch cycle outcomes.
const (
	OutcomeCompleted  = "completed"
	OutcomeSuppressed = "suppressed"
	OutcomeFailed     = "failed"
	OutcomeDiscarded  = "discarded"
)

// Recorder publishes fetch cycle and KPI metrics. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	cycles             *prometheus.CounterVec
	collectionFailures *prometheus.CounterVec
	cycleDuration      prometheus.Histogram
	kpi                *prometheus.GaugeVec
	activeAlerts       *prometheus.GaugeVec
}

// NewRecorder registers the collectors on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmdash",
			Name:      "fetch_cycles_total",
			Help:      "Analytics fetch cycles by outcome.",
		}, []string{"outcome"}),
		collectionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmdash",
			Name:      "collection_fetch_failures_total",
			Help:      "Failed collection reads, per collection.",
		}, []string{"collection"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "farmdash",
			Name:      "fetch_cycle_duration_seconds",
			Help:      "Duration of completed fetch cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		kpi: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "farmdash",
			Name:      "kpi",
			Help:      "Latest computed dashboard KPIs.",
		}, []string{"name"}),
		activeAlerts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "farmdash",
			Name:      "active_alerts",
			Help:      "Alerts in the latest snapshot by severity.",
		}, []string{"severity"}),
	}

	for _, c := range []prometheus.Collector{r.cycles, r.collectionFailures, r.cycleDuration, r.kpi, r.activeAlerts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Cycle counts one fetch cycle outcome.
func (r *Recorder) Cycle(outcome string) {
	if r == nil {
		return
	}
	r.cycles.WithLabelValues(outcome).Inc()
}

// CollectionFailed counts a failed read of collection.
func (r *Recorder) CollectionFailed(collection string) {
	if r == nil {
		return
	}
	r.collectionFailures.WithLabelValues(collection).Inc()
}

// Snapshot publishes the KPIs and alert counts of a completed cycle.
func (r *Recorder) Snapshot(s *models.Snapshot, took time.Duration) {
	if r == nil || s == nil {
		return
	}
	r.cycleDuration.Observe(took.Seconds())

	m := s.Metrics
	for name, v := range map[string]float64{
		"total_revenue":    m.Financial.TotalRevenue,
		"total_expenses":   m.Financial.TotalExpenses,
		"net_profit":       m.Financial.NetProfit,
		"profit_margin":    m.Financial.ProfitMargin,
		"monthly_balance":  m.Financial.MonthlyBalance,
		"total_area":       m.Field.TotalArea,
		"utilization_rate": m.Field.FieldUtilization.UtilizationRate,
		"total_animals":    float64(m.Animal.TotalAnimals),
		"health_index":     m.Animal.Health.HealthIndex,
		"inventory_value":  m.Warehouse.InventoryValue,
		"low_stock_items":  float64(m.Warehouse.StockLevels.LowStock),
		"equipment_due":    float64(m.Equipment.NeedsService),
		"tasks_overdue":    float64(m.Tasks.Overdue),
	} {
		r.kpi.WithLabelValues(name).Set(v)
	}

	counts := map[models.Severity]float64{
		models.SeverityDanger:  0,
		models.SeverityWarning: 0,
		models.SeverityInfo:    0,
	}
	for _, a := range s.Alerts {
		counts[a.Severity]++
	}
	for sev, n := range counts {
		r.activeAlerts.WithLabelValues(string(sev)).Set(n)
	}
}
