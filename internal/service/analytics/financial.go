package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/farmdash/internal/domain/models"
)

type monthTotals struct {
	revenue  decimal.Decimal
	expenses decimal.Decimal
}

// AnalyzeFinancial computes the yearly and monthly money KPIs. Transactions
// without a valid date belong to neither period.
func AnalyzeFinancial(transactions []models.Transaction, now time.Time) models.FinancialMetrics {
	var (
		revenue, expenses               decimal.Decimal
		monthlyRevenue, monthlyExpenses decimal.Decimal
		count                           int
	)
	months := make([]monthTotals, int(now.Month()))
	costs := map[string]float64{}
	income := map[string]float64{}

	for _, tx := range transactions {
		if !tx.HasDate || !sameYear(tx.Date, now) {
			continue
		}
		count++

		amount := decimal.NewFromFloat(tx.Amount)
		month := int(tx.Date.In(now.Location()).Month()) - 1
		inMonth := sameMonth(tx.Date, now)

		switch tx.Type {
		case models.TransactionIncome:
			revenue = revenue.Add(amount)
			income[categoryKey(tx.Category)] += tx.Amount
			if month < len(months) {
				months[month].revenue = months[month].revenue.Add(amount)
			}
			if inMonth {
				monthlyRevenue = monthlyRevenue.Add(amount)
			}
		case models.TransactionExpense:
			expenses = expenses.Add(amount)
			costs[categoryKey(tx.Category)] += tx.Amount
			if month < len(months) {
				months[month].expenses = months[month].expenses.Add(amount)
			}
			if inMonth {
				monthlyExpenses = monthlyExpenses.Add(amount)
			}
		}
	}

	totalRevenue := revenue.InexactFloat64()
	totalExpenses := expenses.InexactFloat64()
	netProfit := totalRevenue - totalExpenses

	var margin float64
	if totalRevenue > 0 {
		margin = round1(netProfit / totalRevenue * 100)
	}

	mRevenue := monthlyRevenue.InexactFloat64()
	mExpenses := monthlyExpenses.InexactFloat64()

	return models.FinancialMetrics{
		TotalRevenue:        totalRevenue,
		TotalExpenses:       totalExpenses,
		NetProfit:           netProfit,
		ProfitMargin:        margin,
		MonthlyRevenue:      mRevenue,
		MonthlyExpenses:     mExpenses,
		MonthlyBalance:      mRevenue - mExpenses,
		TransactionCount:    count,
		Trend:               buildTrend(months, now),
		CostStructure:       rankCategories(costs),
		CategoryPerformance: rankCategories(income),
	}
}

func buildTrend(months []monthTotals, now time.Time) []models.PeriodAmount {
	trend := make([]models.PeriodAmount, 0, len(months))
	for i, m := range months {
		trend = append(trend, models.PeriodAmount{
			Period:   fmt.Sprintf("%04d-%02d", now.Year(), i+1),
			Revenue:  m.revenue.InexactFloat64(),
			Expenses: m.expenses.InexactFloat64(),
			Profit:   m.revenue.Sub(m.expenses).InexactFloat64(),
		})
	}
	return trend
}
