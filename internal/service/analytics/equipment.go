package analytics

import (
	"time"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

// AnalyzeEquipment counts machines by status and overdue service.
func AnalyzeEquipment(equipment []models.Equipment, now time.Time) models.EquipmentMetrics {
	byStatus := map[string]int{}
	var needsService, overdue, available int

	for _, e := range equipment {
		byStatus[labelOr(e.Status, "unknown")]++
		switch e.Status {
		case models.EquipmentMaintenance, models.EquipmentNeedsService:
			needsService++
		case "active", "available":
			available++
		}
		if e.HasNextService && e.NextService.Before(now) {
			overdue++
		}
	}

	return models.EquipmentMetrics{
		Total:            len(equipment),
		ByStatus:         byStatus,
		NeedsService:     needsService,
		OverdueService:   overdue,
		AvailabilityRate: percent(float64(available), float64(len(equipment))),
	}
}

// AnalyzeTasks counts completed and overdue tasks.
func AnalyzeTasks(tasks []models.Task, now time.Time) models.TaskMetrics {
	var completed, overdue int
	for _, t := range tasks {
		if t.Completed() {
			completed++
			continue
		}
		if t.HasDueDate && t.DueDate.Before(now) {
			overdue++
		}
	}

	return models.TaskMetrics{
		Total:          len(tasks),
		Completed:      completed,
		Overdue:        overdue,
		CompletionRate: percent(float64(completed), float64(len(tasks))),
	}
}
