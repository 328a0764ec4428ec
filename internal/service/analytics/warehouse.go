package analytics

import (
	"sort"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

// AnalyzeWarehouse values the inventory and counts stock conditions.
func AnalyzeWarehouse(items []models.WarehouseItem) models.WarehouseMetrics {
	var value float64
	var levels models.StockLevels
	byCategory := map[string]models.CategoryStock{}
	low := []string{}

	for _, item := range items {
		itemValue := item.Quantity * item.Price
		value += itemValue

		switch {
		case item.LowStock():
			levels.LowStock++
			low = append(low, labelOr(item.Name, item.ID))
		default:
			levels.Adequate++
		}
		if item.Quantity == 0 {
			levels.OutOfStock++
		}

		cat := byCategory[categoryKey(item.Category)]
		cat.Items++
		cat.Quantity += item.Quantity
		cat.Value += itemValue
		byCategory[categoryKey(item.Category)] = cat
	}
	sort.Strings(low)

	return models.WarehouseMetrics{
		TotalItems:     len(items),
		InventoryValue: round2(value),
		StockLevels:    levels,
		ByCategory:     byCategory,
		LowStockItems:  low,
	}
}
