package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"budgetbuddy/internal/view"
)

func (m *Model) dashboardKey(msg tea.KeyMsg) tea.Cmd {
	if m.dash.View().Editing {
		switch msg.String() {
		case "enter":
			return m.do(m.dash.Save)
		case "esc":
			m.dash.CancelEdit()
			return nil
		}
		if v, ok := editText(m.dash.View().BudgetInput, msg); ok {
			m.dash.SetInput(v)
		}
		return nil
	}

	switch msg.String() {
	case "b":
		m.dash.BeginEdit()
	case "r":
		return m.load(view.RouteDashboard, m.dash.Load)
	case "a":
		return m.goTo(view.RouteAddExpense)
	case "v":
		return m.goTo(view.RouteExpenses)
	}
	return nil
}

func (m *Model) dashboardView() string {
	d := m.dash.View()
	if d.Loading {
		return mutedStyle.Render("Loading...")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(d.Greeting))
	b.WriteString("\n\n")

	budget := fmt.Sprintf("%s %s", labelStyle.Render("Monthly Budget"), d.Budget)
	if d.Editing {
		budget = field("Monthly Budget", d.BudgetInput, true, false) +
			helpStyle.Render("  enter: save · esc: cancel")
	}
	summary := strings.Join([]string{
		budget,
		fmt.Sprintf("%s %s", labelStyle.Render("Total Spent"), d.TotalSpent),
		fmt.Sprintf("%s %s", labelStyle.Render("Remaining"), d.Remaining),
		"",
		bar(d.BarPercent, 40, levelColors[d.Level]) + " " + d.PercentLabel + " of budget used",
	}, "\n")
	b.WriteString(boxStyle.Render(summary))
	b.WriteString("\n")

	if d.Warning != "" {
		b.WriteString(warningStyle.Render("⚠ " + d.Warning))
		b.WriteString("\n")
	}
	if msg := joinNonEmpty(renderError(d.Error), renderNotice(d.Alert)); msg != "" {
		b.WriteString(msg)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Recent Expenses"))
	b.WriteString("\n")
	if d.Empty != "" {
		b.WriteString(mutedStyle.Render(d.Empty))
		b.WriteString("\n")
	}
	for _, r := range d.Recent {
		fmt.Fprintf(&b, "%s %-14s %-28s %-12s %10s\n", r.Icon, r.Category, r.Description, r.Date, r.Amount)
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("b: edit budget · a: add expense · v: view all · r: refresh"))
	return b.String()
}
