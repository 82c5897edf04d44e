package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"budgetbuddy/internal/view"
	"budgetbuddy/internal/view/reports"
)

func (m *Model) reportsKey(msg tea.KeyMsg) tea.Cmd {
	r := m.report.View()
	switch msg.String() {
	case "t":
		next := reports.Ranges[0]
		for i, rng := range reports.Ranges {
			if rng == r.Range {
				next = reports.Ranges[(i+1)%len(reports.Ranges)]
			}
		}
		m.report.SetRange(next)
		m.sliceCursor = 0
	case "c":
		if r.Chart == reports.ChartPie {
			m.report.SetChart(reports.ChartBar)
		} else {
			m.report.SetChart(reports.ChartPie)
		}
	case "up", "k":
		if m.sliceCursor > 0 {
			m.sliceCursor--
		}
	case "down", "j":
		if m.sliceCursor < len(r.Categories)-1 {
			m.sliceCursor++
		}
	case "enter":
		if r.Chart == reports.ChartPie {
			m.report.SelectSlice(m.sliceCursor)
		}
	case "x":
		m.report.SelectCategory("")
	case "e":
		if r.CanExport {
			return m.do(m.report.Export)
		}
	case "r":
		return m.load(view.RouteReports, m.report.Load)
	}
	return nil
}

func (m *Model) reportsView() string {
	r := m.report.View()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Expense Reports"))
	b.WriteString("  ")
	for _, rng := range reports.Ranges {
		if rng == r.Range {
			b.WriteString(activeTab.Render(rng.Label()))
		} else {
			b.WriteString(tabStyle.Render(rng.Label()))
		}
	}
	b.WriteString("\n\n")

	if r.Loading {
		b.WriteString(mutedStyle.Render(reports.MsgLoading))
		return b.String()
	}
	if msg := joinNonEmpty(renderError(r.Error), renderNotice(r.Notice)); msg != "" {
		b.WriteString(msg)
		b.WriteString("\n")
	}

	stats := strings.Join([]string{
		fmt.Sprintf("%s %s", labelStyle.Render("Total"), r.Stats.Total.Format()),
		fmt.Sprintf("%s %s", labelStyle.Render("Average"), r.Stats.Average.Format()),
		fmt.Sprintf("%s %s (%s)", labelStyle.Render("Top Category"), r.Stats.HighestCategory, r.Stats.HighestAmount.Format()),
	}, "\n")
	b.WriteString(boxStyle.Render(stats))
	b.WriteString("\n\n")

	if r.Selected != "" {
		fmt.Fprintf(&b, "%s %s  %s\n", mutedStyle.Render("Showing data for:"), r.Selected, helpStyle.Render("x: clear filter"))
	}

	if r.Chart == reports.ChartPie {
		b.WriteString(m.categoryChart(r))
	} else {
		b.WriteString(monthlyChart(r))
	}

	b.WriteString("\n")
	help := "t: time range · c: chart type · ↑/↓ enter: select category · r: refresh"
	if r.CanExport {
		help += " · e: export"
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (m *Model) categoryChart(r reports.Model) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Expenses by Category"))
	b.WriteString("\n")
	if len(r.Categories) == 0 {
		b.WriteString(mutedStyle.Render("No expenses in this period."))
		b.WriteString("\n")
		return b.String()
	}
	for i, s := range r.Categories {
		line := fmt.Sprintf("%s %-14s %s %3d%% %10s",
			s.Icon, s.Category, bar(float64(s.Share), 30, lipgloss.Color(s.Color)), s.Share, s.Amount.Format())
		if i == m.sliceCursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(r.Hint))
	b.WriteString("\n")
	return b.String()
}

func monthlyChart(r reports.Model) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.MonthlyTitle))
	b.WriteString("\n")
	top := r.Monthly[0].Amount
	for _, m := range r.Monthly {
		if m.Amount.GreaterThan(top.Decimal) {
			top = m.Amount
		}
	}
	for _, m := range r.Monthly {
		fmt.Fprintf(&b, "%s %s %10s\n", m.Label, bar(m.Amount.PercentOf(top), 40, lipgloss.Color("#36A2EB")), m.Amount.Format())
	}
	return b.String()
}
