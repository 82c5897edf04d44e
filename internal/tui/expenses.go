package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/view"
	"budgetbuddy/internal/view/expenselist"
)

func filterOptions() []string {
	out := []string{expenselist.FilterAll}
	for _, c := range core.Categories {
		out = append(out, string(c))
	}
	return out
}

func (m *Model) expensesKey(msg tea.KeyMsg) tea.Cmd {
	l := m.list.View()

	if l.Confirm != nil {
		if l.Busy {
			return nil
		}
		switch msg.String() {
		case "y", "enter":
			return m.do(m.list.ConfirmDelete)
		case "n", "esc":
			m.list.CancelDelete()
		}
		return nil
	}

	if m.searching {
		switch msg.String() {
		case "enter", "esc":
			m.searching = false
			return nil
		}
		if v, ok := editText(l.Search, msg); ok {
			m.list.SetSearch(v)
			m.listCursor = 0
		}
		return nil
	}

	switch msg.String() {
	case "/":
		m.searching = true
	case "f":
		opts := filterOptions()
		next := 0
		for i, o := range opts {
			if o == l.Filter {
				next = (i + 1) % len(opts)
			}
		}
		m.list.SetFilter(opts[next])
		m.listCursor = 0
	case "1", "2", "3", "4":
		m.list.ToggleSort(expenselist.Columns[int(msg.String()[0]-'1')])
	case "up", "k":
		if m.listCursor > 0 {
			m.listCursor--
		}
	case "down", "j":
		if m.listCursor < len(l.Rows)-1 {
			m.listCursor++
		}
	case "d", "delete":
		if m.listCursor < len(l.Rows) {
			_ = m.list.RequestDelete(l.Rows[m.listCursor].ID)
		}
	case "r":
		return m.load(view.RouteExpenses, m.list.Load)
	case "a":
		return m.goTo(view.RouteAddExpense)
	}
	return nil
}

var columnTitles = map[expenselist.Column]string{
	expenselist.ColumnDate:        "Date",
	expenselist.ColumnCategory:    "Category",
	expenselist.ColumnDescription: "Description",
	expenselist.ColumnAmount:      "Amount",
}

func (m *Model) expensesView() string {
	l := m.list.View()
	var b strings.Builder
	b.WriteString(titleStyle.Render("Expense History"))
	b.WriteString("\n\n")

	search := l.Search
	if m.searching {
		search = focusStyle.Render(search + "▌")
	}
	fmt.Fprintf(&b, "%s %s   %s %s\n\n",
		labelStyle.Render("Search"), search,
		mutedStyle.Render("Category:"), l.Filter)

	if l.Loading {
		b.WriteString(mutedStyle.Render("Loading expenses..."))
		return b.String()
	}
	if msg := joinNonEmpty(renderError(l.Error), renderNotice(l.Notice)); msg != "" {
		b.WriteString(msg)
		b.WriteString("\n")
	}

	heads := make([]string, 0, len(expenselist.Columns))
	for i, c := range expenselist.Columns {
		heads = append(heads, fmt.Sprintf("%d:%s%s", i+1, columnTitles[c], l.Indicators[c]))
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("   %-14s %-18s %-30s %12s", heads[0], heads[1], heads[2], heads[3])))
	b.WriteString("\n")

	if l.Empty != "" {
		b.WriteString(mutedStyle.Render(l.Empty))
		b.WriteString("\n")
	}
	for i, r := range l.Rows {
		line := fmt.Sprintf("%s %-14s %-18s %-30s %12s", r.Icon, r.Date, r.Category, r.Description, r.Amount)
		if i == m.listCursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%s %s (%d)\n", labelStyle.Render("Total"), l.Total, l.Count)

	if c := l.Confirm; c != nil {
		help := "y: delete · n: cancel"
		if l.Busy {
			help = "Deleting..."
		}
		b.WriteString("\n")
		b.WriteString(modalStyle.Render(strings.Join([]string{
			"Confirm Delete",
			"Are you sure you want to delete this expense?",
			fmt.Sprintf("%s %s · %s · %s", c.Icon, c.Description, c.Amount, c.Date),
			helpStyle.Render(help),
		}, "\n")))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("/: search · f: category · 1-4: sort · ↑/↓: select · d: delete · a: add · r: refresh"))
	return b.String()
}
