package reports

import (
	"context"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/remote"
)

// SampleSource serves a fixed August 2023 dataset, so reports work without
// an account.
type SampleSource struct{}

func (SampleSource) ListExpenses(context.Context) ([]core.Expense, error) {
	return SampleExpenses(), nil
}

// SampleExpenses returns a fresh copy of the demo dataset.
func SampleExpenses() []core.Expense {
	return []core.Expense{
		sample("1", 150, core.Food, "Grocery shopping", 15),
		sample("2", 50, core.Transportation, "Gas", 14),
		sample("3", 200, core.Education, "Books", 10),
		sample("4", 100, core.Entertainment, "Movie night", 8),
		sample("5", 75, core.Shopping, "Clothes", 5),
		sample("6", 120, core.Food, "Dining out", 3),
		sample("7", 60, core.Bills, "Internet bill", 1),
	}
}

func sample(id string, amount float64, cat core.Category, desc string, day int) core.Expense {
	return core.Expense{
		ID:          id,
		Amount:      core.MoneyFromFloat(amount),
		Category:    cat,
		Description: desc,
		Date:        core.NewDate(2023, 8, day),
	}
}

var _ remote.ExpenseLister = SampleSource{}
