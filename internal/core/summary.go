package core

import "math"

// MonthlySummary aggregates one user's transactions for a year+month.
type MonthlySummary struct {
	Year         int
	Month        int // 1-12
	TotalIncome  Money
	TotalExpense Money
	Balance      Money // income minus expense, may be negative
}

// CategorySpend is one category's share of a month's expenses.
type CategorySpend struct {
	Category   string
	TotalSpent Money
	Percentage float64 // share of the month's total expense, 2 decimal places
}

// CategorySpending breaks a month's expenses down by category.
type CategorySpending struct {
	Year         int
	Month        int
	TotalExpense Money
	Categories   []CategorySpend
}

// MonthlyReport bundles the summary and the per-category breakdown.
type MonthlyReport struct {
	Summary  MonthlySummary
	Spending CategorySpending
}

// SpendingPercentage computes 100 * part / total rounded to two decimal
// places, or 0 when total is zero.
func SpendingPercentage(part, total Money) float64 {
	if total.Cents == 0 {
		return 0
	}
	return math.Round(float64(part.Cents)/float64(total.Cents)*10000) / 100
}
