package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

const otherCategory = "other"

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// percent returns part/total*100 rounded to one decimal, or 0 for an empty total.
func percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return round1(part / total * 100)
}

func sameYear(t, now time.Time) bool {
	return t.In(now.Location()).Year() == now.Year()
}

func sameMonth(t, now time.Time) bool {
	local := t.In(now.Location())
	return local.Year() == now.Year() && local.Month() == now.Month()
}

func categoryKey(category string) string {
	c := strings.TrimSpace(category)
	if c == "" {
		return otherCategory
	}
	return c
}

// rankCategories turns subtotals into a list sorted by descending amount.
func rankCategories(totals map[string]float64) []models.CategoryAmount {
	var sum float64
	for _, v := range totals {
		sum += v
	}

	out := make([]models.CategoryAmount, 0, len(totals))
	for category, amount := range totals {
		out = append(out, models.CategoryAmount{
			Category: category,
			Amount:   round2(amount),
			Share:    percent(amount, sum),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Category < out[j].Category
	})
	return out
}
