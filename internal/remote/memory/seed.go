package memory

import (
	"time"

	"budgetbuddy/internal/core"
)

// Demo account created by SeedDemo.
const (
	DemoName     = "Demo User"
	DemoEmail    = "demo@budgetbuddy.local"
	DemoPassword = "demo1234"
)

type seedExpense struct {
	amount      float64
	category    core.Category
	description string
	daysAgo     int
}

var demoExpenses = []seedExpense{
	{1200, core.Bills, "Rent share", 14},
	{450, core.Food, "Weekly groceries", 6},
	{180, core.Transportation, "Metro card top-up", 5},
	{300, core.Entertainment, "Concert tickets", 3},
	{95, core.Food, "Lunch with team", 1},
}

// SeedDemo registers the demo account with a budget and a few recent
// expenses dated relative to now.
func SeedDemo(b *Backend, now time.Time) error {
	token, err := b.Register(DemoName, DemoEmail, DemoPassword)
	if err != nil {
		return err
	}
	if _, err := b.UpsertBudget(token, core.NewMonthlyBudget(core.MoneyFromFloat(5000))); err != nil {
		return err
	}
	today := core.Today(now)
	for _, s := range demoExpenses {
		e := core.Expense{
			Amount:      core.MoneyFromFloat(s.amount),
			Category:    s.category,
			Description: s.description,
			Date:        core.Date{Time: today.AddDate(0, 0, -s.daysAgo)},
		}
		if _, err := b.AddExpense(token, e); err != nil {
			return err
		}
	}
	b.Revoke(token)
	return nil
}
