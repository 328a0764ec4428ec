package analytics

import (
	"strings"
	"time"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

var animalCostCategories = map[string]struct{}{
	"pasza":      {},
	"weterynarz": {},
	"zwierzęta":  {},
	"feed":       {},
	"veterinary": {},
	"livestock":  {},
	"animals":    {},
}

// IsAnimalCategory reports whether an expense category is animal related.
func IsAnimalCategory(category string) bool {
	_, ok := animalCostCategories[strings.ToLower(strings.TrimSpace(category))]
	return ok
}

// AnalyzeAnimals computes herd composition, health and the current year's
// animal-related spend.
func AnalyzeAnimals(animals []models.Animal, transactions []models.Transaction, now time.Time) models.AnimalMetrics {
	byType := map[string]int{}
	byStatus := map[string]int{}
	var health models.AnimalHealth
	var weightSum float64
	weighed := 0

	for _, a := range animals {
		byType[labelOr(a.Type, "unknown")]++
		byStatus[labelOr(a.Status, "unknown")]++
		if a.Weight > 0 {
			weightSum += a.Weight
			weighed++
		}

		switch a.Health {
		case models.HealthHealthy:
			health.Healthy++
		case models.HealthSick:
			health.Sick++
		case models.HealthTreatment:
			health.InTreatment++
		case models.HealthQuarantine:
			health.Quarantine++
		case models.HealthCritical:
			health.Critical++
		default:
			health.Unknown++
		}
	}

	total := len(animals)
	health.HealthIndex = percent(float64(health.Healthy), float64(total))

	var costs float64
	for _, tx := range transactions {
		if tx.Type != models.TransactionExpense || !tx.HasDate || !sameYear(tx.Date, now) {
			continue
		}
		if IsAnimalCategory(tx.Category) {
			costs += tx.Amount
		}
	}

	var perAnimal, avgWeight float64
	if total > 0 {
		perAnimal = round2(costs / float64(total))
	}
	if weighed > 0 {
		avgWeight = round1(weightSum / float64(weighed))
	}

	return models.AnimalMetrics{
		TotalAnimals:  total,
		ByType:        byType,
		ByStatus:      byStatus,
		Health:        health,
		AverageWeight: avgWeight,
		Costs: models.AnimalCosts{
			Total:     round2(costs),
			PerAnimal: perAnimal,
		},
	}
}

func labelOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}
