package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

var fallowStatuses = map[string]struct{}{
	"fallow": {},
	"ugór":   {},
	"ugor":   {},
}

func isFallow(status string) bool {
	_, ok := fallowStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

func cropName(crop string) string {
	return strings.ToLower(strings.TrimSpace(crop))
}

// AnalyzeFields computes land, crop and yield metrics. Only yields dated in
// now's year count towards productivity; fields without yields contribute 0.
func AnalyzeFields(fields []models.Field, yields []models.FieldYield, now time.Time) models.FieldMetrics {
	yieldByField := map[string]float64{}
	for _, y := range yields {
		if y.FieldID == "" || !y.HasDate || !sameYear(y.Date, now) {
			continue
		}
		yieldByField[y.FieldID] += y.Amount
	}

	var totalArea, activeArea, totalYield float64
	reporting := 0
	crops := map[string]*models.CropPerformance{}
	soils := map[string]*models.SoilEfficiency{}

	for _, f := range fields {
		totalArea += f.Area
		fieldYield := yieldByField[f.ID]
		totalYield += fieldYield
		if fieldYield > 0 {
			reporting++
		}

		if name := cropName(f.Crop); name != "" {
			if !isFallow(f.Status) {
				activeArea += f.Area
			}
			cp, ok := crops[name]
			if !ok {
				cp = &models.CropPerformance{Crop: name}
				crops[name] = cp
			}
			cp.Fields++
			cp.Area += f.Area
			cp.TotalYield += fieldYield
		}

		soil := strings.ToLower(strings.TrimSpace(f.Soil))
		if soil == "" {
			soil = "unknown"
		}
		se, ok := soils[soil]
		if !ok {
			se = &models.SoilEfficiency{Soil: soil}
			soils[soil] = se
		}
		se.Area += f.Area
		se.TotalYield += fieldYield
	}

	performance := make([]models.CropPerformance, 0, len(crops))
	for _, cp := range crops {
		cp.YieldPerHectare = perHectare(cp.TotalYield, cp.Area)
		performance = append(performance, *cp)
	}
	sort.Slice(performance, func(i, j int) bool {
		if performance[i].Area != performance[j].Area {
			return performance[i].Area > performance[j].Area
		}
		return performance[i].Crop < performance[j].Crop
	})

	efficiency := make([]models.SoilEfficiency, 0, len(soils))
	for _, se := range soils {
		se.YieldPerHectare = perHectare(se.TotalYield, se.Area)
		efficiency = append(efficiency, *se)
	}
	sort.Slice(efficiency, func(i, j int) bool {
		if efficiency[i].YieldPerHectare != efficiency[j].YieldPerHectare {
			return efficiency[i].YieldPerHectare > efficiency[j].YieldPerHectare
		}
		return efficiency[i].Soil < efficiency[j].Soil
	})

	return models.FieldMetrics{
		TotalFields:     len(fields),
		TotalArea:       totalArea,
		ActiveCrops:     len(performance),
		CropPerformance: performance,
		FieldUtilization: models.FieldUtilization{
			ActiveArea:      activeArea,
			IdleArea:        totalArea - activeArea,
			UtilizationRate: percent(activeArea, totalArea),
		},
		Productivity: models.FieldProductivity{
			TotalYield:      totalYield,
			YieldPerHectare: perHectare(totalYield, totalArea),
			FieldsReporting: reporting,
		},
		SoilEfficiency: efficiency,
	}
}

// AnalyzeFieldOperations summarises the latest status of each field and the
// current year's field costs.
func AnalyzeFieldOperations(fields []models.Field, statuses []models.FieldStatusEntry, costs []models.FieldCost, now time.Time) models.FieldOperations {
	latest := map[string]models.FieldStatusEntry{}
	for _, s := range statuses {
		if s.FieldID == "" || s.Status == "" {
			continue
		}
		prev, seen := latest[s.FieldID]
		if !seen || (s.HasDate && (!prev.HasDate || s.Date.After(prev.Date))) {
			latest[s.FieldID] = s
		}
	}

	counts := map[string]int{}
	var totalArea float64
	for _, f := range fields {
		totalArea += f.Area
		status := f.Status
		if entry, ok := latest[f.ID]; ok {
			status = entry.Status
		}
		if status == "" {
			status = "unknown"
		}
		counts[status]++
	}

	var total float64
	for _, c := range costs {
		if !c.HasDate || !sameYear(c.Date, now) {
			continue
		}
		total += c.Amount
	}

	return models.FieldOperations{
		StatusCounts:   counts,
		TotalCosts:     round2(total),
		CostPerHectare: perHectare(total, totalArea),
	}
}

func perHectare(amount, area float64) float64 {
	if area <= 0 {
		return 0
	}
	return round2(amount / area)
}
