package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"budgetbuddy/internal/view/expenseform"
)

var formFields = []struct {
	name  string
	label string
}{
	{expenseform.FieldAmount, "Amount (₹)"},
	{expenseform.FieldCategory, "Category"},
	{expenseform.FieldDescription, "Description"},
	{expenseform.FieldDate, "Date"},
}

func valueOf(v expenseform.Values, name string) string {
	switch name {
	case expenseform.FieldAmount:
		return v.Amount
	case expenseform.FieldCategory:
		return v.Category
	case expenseform.FieldDescription:
		return v.Description
	default:
		return v.Date
	}
}

func (m *Model) formKey(msg tea.KeyMsg) tea.Cmd {
	f := m.form.View()
	switch f.State {
	case expenseform.Previewing:
		switch msg.String() {
		case "enter", "y":
			return m.do(m.form.Confirm)
		case "esc", "e":
			m.form.Edit()
		}
		return nil
	case expenseform.Submitting, expenseform.Succeeded:
		return nil
	}

	name := formFields[m.formFocus].name
	switch msg.String() {
	case "tab", "down":
		m.formFocus = (m.formFocus + 1) % len(formFields)
		return nil
	case "shift+tab", "up":
		m.formFocus = (m.formFocus + len(formFields) - 1) % len(formFields)
		return nil
	case "esc":
		m.form.Cancel()
		return nil
	case "enter":
		m.form.Preview()
		return nil
	}

	if name == expenseform.FieldCategory {
		switch msg.String() {
		case "left", "right":
			step := 1
			if msg.String() == "left" {
				step = -1
			}
			_ = m.form.SetField(name, cycleOption(f.Categories, f.Values.Category, step))
		}
		return nil
	}
	if v, ok := editText(valueOf(f.Values, name), msg); ok {
		_ = m.form.SetField(name, v)
	}
	return nil
}

func cycleOption(opts []expenseform.Option, current string, step int) string {
	i := 0
	for j, o := range opts {
		if o.Value == current {
			i = j
		}
	}
	i = (i + step + len(opts)) % len(opts)
	return opts[i].Value
}

func optionLabel(opts []expenseform.Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

func (m *Model) formView() string {
	f := m.form.View()
	lines := []string{titleStyle.Render("Add New Expense"), ""}

	if f.Success != "" {
		lines = append(lines, successStyle.Render("✓ "+f.Success), mutedStyle.Render("Redirecting to expenses..."))
		return boxStyle.Render(strings.Join(lines, "\n"))
	}

	if p := f.Preview; p != nil {
		lines = append(lines,
			titleStyle.Render("Confirm Expense Details"),
			field("Amount", p.Amount, false, false),
			field("Category", p.Icon+" "+p.Category, false, false),
			field("Description", p.Description, false, false),
			field("Date", p.Date, false, false),
			"",
		)
		if f.Busy {
			lines = append(lines, mutedStyle.Render("Saving..."))
		} else {
			lines = append(lines, helpStyle.Render("enter: confirm · esc: edit"))
		}
		return boxStyle.Render(strings.Join(lines, "\n"))
	}

	if f.Busy {
		lines = append(lines, mutedStyle.Render("Saving..."))
	}
	for i, ff := range formFields {
		value := valueOf(f.Values, ff.name)
		if ff.name == expenseform.FieldCategory {
			value = "‹ " + optionLabel(f.Categories, value) + " ›"
		}
		lines = append(lines, field(ff.label, value, i == m.formFocus, false))
		if msg, ok := f.Errors[ff.name]; ok {
			lines = append(lines, labelStyle.Render("")+"  "+errorStyle.Render(msg))
		}
	}
	lines = append(lines, "")
	if f.Error != "" {
		lines = append(lines, renderError(f.Error))
	}
	lines = append(lines, helpStyle.Render("tab: next field · ←/→: category · enter: preview · esc: cancel"))
	return boxStyle.Render(strings.Join(lines, "\n"))
}
