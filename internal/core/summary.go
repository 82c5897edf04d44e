package core

import "time"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   Money
}

// MonthBuckets holds one total per calendar month, January first.
type MonthBuckets [12]Money

// MonthLabels are the fixed labels of the monthly buckets.
var MonthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Sum adds up the amounts of all expenses.
func Sum(expenses []Expense) Money {
	var total Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// TotalsByCategory aggregates amounts per category, preserving first-seen order.
func TotalsByCategory(expenses []Expense) []CategoryAmount {
	idx := map[Category]int{}
	var out []CategoryAmount
	for _, e := range expenses {
		i, ok := idx[e.Category]
		if !ok {
			idx[e.Category] = len(out)
			out = append(out, CategoryAmount{Category: e.Category})
			i = len(out) - 1
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

// TotalsByMonth buckets amounts by calendar month regardless of year.
func TotalsByMonth(expenses []Expense) MonthBuckets {
	var b MonthBuckets
	for _, e := range expenses {
		if e.Date.IsZero() {
			continue
		}
		i := int(e.Date.Time.Month()) - 1
		b[i] = b[i].Add(e.Amount)
	}
	return b
}

// Highest returns the category with the largest total.
// Only positive totals qualify and ties keep the earlier entry; ok is false
// when nothing qualifies.
func Highest(totals []CategoryAmount) (CategoryAmount, bool) {
	var best CategoryAmount
	found := false
	for _, t := range totals {
		if t.Amount.GreaterThan(best.Amount.Decimal) {
			best = t
			found = true
		}
	}
	return best, found
}

// InMonth reports whether d falls in the same calendar month as now.
func InMonth(d Date, now time.Time) bool {
	return d.Year() == now.Year() && d.Time.Month() == now.Month()
}

// InYear reports whether d falls in the same calendar year as now.
func InYear(d Date, now time.Time) bool {
	return d.Year() == now.Year()
}
