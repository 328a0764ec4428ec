package models

import "time"

// CategoryAmount is one row of a ranked category breakdown.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Share    float64 `json:"share"`
}

// PeriodAmount is one point of the monthly trend series.
type PeriodAmount struct {
	Period   string  `json:"period"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
}

// FinancialMetrics summarises the current year and month of transactions.
type FinancialMetrics struct {
	TotalRevenue        float64          `json:"totalRevenue"`
	TotalExpenses       float64          `json:"totalExpenses"`
	NetProfit           float64          `json:"netProfit"`
	ProfitMargin        float64          `json:"profitMargin"`
	MonthlyRevenue      float64          `json:"monthlyRevenue"`
	MonthlyExpenses     float64          `json:"monthlyExpenses"`
	MonthlyBalance      float64          `json:"monthlyBalance"`
	TransactionCount    int              `json:"transactionCount"`
	Trend               []PeriodAmount   `json:"trend"`
	CostStructure       []CategoryAmount `json:"costStructure"`
	CategoryPerformance []CategoryAmount `json:"categoryPerformance"`
}

// CropPerformance aggregates the fields sown with one crop.
type CropPerformance struct {
	Crop            string  `json:"crop"`
	Fields          int     `json:"fields"`
	Area            float64 `json:"area"`
	TotalYield      float64 `json:"totalYield"`
	YieldPerHectare float64 `json:"yieldPerHectare"`
}

// SoilEfficiency aggregates yields per soil type.
type SoilEfficiency struct {
	Soil            string  `json:"soil"`
	Area            float64 `json:"area"`
	TotalYield      float64 `json:"totalYield"`
	YieldPerHectare float64 `json:"yieldPerHectare"`
}

// FieldUtilization describes how much of the land is under crop.
type FieldUtilization struct {
	ActiveArea      float64 `json:"activeArea"`
	IdleArea        float64 `json:"idleArea"`
	UtilizationRate float64 `json:"utilizationRate"`
}

// FieldProductivity summarises the current year's harvest.
type FieldProductivity struct {
	TotalYield      float64 `json:"totalYield"`
	YieldPerHectare float64 `json:"yieldPerHectare"`
	FieldsReporting int     `json:"fieldsReporting"`
}

// FieldOperations summarises status history and field costs.
type FieldOperations struct {
	StatusCounts   map[string]int `json:"statusCounts"`
	TotalCosts     float64        `json:"totalCosts"`
	CostPerHectare float64        `json:"costPerHectare"`
}

// FieldMetrics is the Field Analyzer output.
type FieldMetrics struct {
	TotalFields      int               `json:"totalFields"`
	TotalArea        float64           `json:"totalArea"`
	ActiveCrops      int               `json:"activeCrops"`
	CropPerformance  []CropPerformance `json:"cropPerformance"`
	FieldUtilization FieldUtilization  `json:"fieldUtilization"`
	Productivity     FieldProductivity `json:"productivity"`
	SoilEfficiency   []SoilEfficiency  `json:"soilEfficiency"`
	Operations       FieldOperations   `json:"operations"`
}

// AnimalHealth breaks the herd down by health value.
type AnimalHealth struct {
	Healthy     int     `json:"healthy"`
	Sick        int     `json:"sick"`
	InTreatment int     `json:"inTreatment"`
	Quarantine  int     `json:"quarantine"`
	Critical    int     `json:"critical"`
	Unknown     int     `json:"unknown"`
	HealthIndex float64 `json:"healthIndex"`
}

// AnimalCosts holds the yearly animal-related spend.
type AnimalCosts struct {
	Total     float64 `json:"total"`
	PerAnimal float64 `json:"perAnimal"`
}

// AnimalMetrics is the Animal Analyzer output.
type AnimalMetrics struct {
	TotalAnimals  int            `json:"totalAnimals"`
	ByType        map[string]int `json:"byType"`
	ByStatus      map[string]int `json:"byStatus"`
	Health        AnimalHealth   `json:"health"`
	AverageWeight float64        `json:"averageWeight"`
	Costs         AnimalCosts    `json:"costs"`
}

// StockLevels counts items by stock condition.
type StockLevels struct {
	LowStock   int `json:"lowStock"`
	OutOfStock int `json:"outOfStock"`
	Adequate   int `json:"adequate"`
}

// CategoryStock aggregates warehouse items of one category.
type CategoryStock struct {
	Items    int     `json:"items"`
	Quantity float64 `json:"quantity"`
	Value    float64 `json:"value"`
}

// WarehouseMetrics is the Warehouse Analyzer output.
type WarehouseMetrics struct {
	TotalItems     int                      `json:"totalItems"`
	InventoryValue float64                  `json:"inventoryValue"`
	StockLevels    StockLevels              `json:"stockLevels"`
	ByCategory     map[string]CategoryStock `json:"byCategory"`
	LowStockItems  []string                 `json:"lowStockItems"`
}

// EquipmentMetrics is the Equipment Analyzer output.
type EquipmentMetrics struct {
	Total            int            `json:"total"`
	ByStatus         map[string]int `json:"byStatus"`
	NeedsService     int            `json:"needsService"`
	OverdueService   int            `json:"overdueService"`
	AvailabilityRate float64        `json:"availabilityRate"`
}

// TaskMetrics summarises the task board.
type TaskMetrics struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completionRate"`
}

// MetricsBundle is one immutable computation result. It is replaced as a
// whole on every fetch cycle and never patched.
type MetricsBundle struct {
	Financial FinancialMetrics `json:"financial"`
	Field     FieldMetrics     `json:"field"`
	Animal    AnimalMetrics    `json:"animal"`
	Warehouse WarehouseMetrics `json:"warehouse"`
	Equipment EquipmentMetrics `json:"equipment"`
	Tasks     TaskMetrics      `json:"tasks"`
}

// Snapshot pairs a bundle with its alerts and cycle metadata.
type Snapshot struct {
	CycleID           string        `json:"cycleId"`
	ComputedAt        time.Time     `json:"computedAt"`
	FailedCollections []string      `json:"failedCollections,omitempty"`
	Metrics           MetricsBundle `json:"metrics"`
	Alerts            []Alert       `json:"alerts"`
}

// AnalyticsState is the read-only accessor consumed by the dashboard.
type AnalyticsState struct {
	Loading           bool              `json:"loading"`
	Error             *string           `json:"error"`
	CycleID           string            `json:"cycleId,omitempty"`
	ComputedAt        *time.Time        `json:"computedAt,omitempty"`
	FailedCollections []string          `json:"failedCollections,omitempty"`
	Financial         *FinancialMetrics `json:"financial"`
	Field             *FieldMetrics     `json:"field"`
	Animal            *AnimalMetrics    `json:"animal"`
	Warehouse         *WarehouseMetrics `json:"warehouse"`
	Equipment         *EquipmentMetrics `json:"equipment"`
	Tasks             *TaskMetrics      `json:"tasks"`
	Alerts            []Alert           `json:"alerts"`
}

// Ready reports whether a snapshot has been published.
func (s AnalyticsState) Ready() bool {
	return s.Financial != nil
}
