package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/view"
)

const (
	authName = iota
	authEmail
	authPassword
)

type authState struct {
	values [3]string
	focus  int
	busy   bool
}

func (a *authState) reset() {
	*a = authState{focus: authEmail}
}

// fields lists the inputs shown for the route; registration asks for a name.
func authFields(r view.Route) []int {
	if r == view.RouteRegister {
		return []int{authName, authEmail, authPassword}
	}
	return []int{authEmail, authPassword}
}

func (m *Model) authKey(msg tea.KeyMsg) tea.Cmd {
	if m.auth.busy {
		return nil
	}
	fields := authFields(m.route)
	pos := 0
	for i, f := range fields {
		if f == m.auth.focus {
			pos = i
		}
	}

	switch msg.String() {
	case "tab", "down":
		m.auth.focus = fields[(pos+1)%len(fields)]
		return nil
	case "shift+tab", "up":
		m.auth.focus = fields[(pos+len(fields)-1)%len(fields)]
		return nil
	case "ctrl+n":
		if m.route == view.RouteLogin {
			return m.goTo(view.RouteRegister)
		}
		return m.goTo(view.RouteLogin)
	case "enter":
		if pos < len(fields)-1 {
			m.auth.focus = fields[pos+1]
			return nil
		}
		return m.submitAuth()
	}

	if v, ok := editText(m.auth.values[m.auth.focus], msg); ok {
		m.auth.values[m.auth.focus] = v
	}
	return nil
}

func (m *Model) submitAuth() tea.Cmd {
	m.auth.busy = true
	v := m.auth.values
	email := strings.TrimSpace(v[authEmail])
	if m.route == view.RouteRegister {
		reg := core.Registration{Name: strings.TrimSpace(v[authName]), Email: email, Password: v[authPassword]}
		return func() tea.Msg {
			return authDoneMsg{ok: m.deps.Session.Register(m.ctx, reg)}
		}
	}
	creds := core.Credentials{Email: email, Password: v[authPassword]}
	return func() tea.Msg {
		return authDoneMsg{ok: m.deps.Session.Login(m.ctx, creds)}
	}
}

func (m *Model) authView() string {
	title := "Login"
	toggleHint := "ctrl+n: create an account"
	if m.route == view.RouteRegister {
		title = "Register"
		toggleHint = "ctrl+n: back to login"
	}
	labels := map[int]string{authName: "Name", authEmail: "Email", authPassword: "Password"}

	lines := []string{titleStyle.Render(title), ""}
	for _, f := range authFields(m.route) {
		lines = append(lines, field(labels[f], m.auth.values[f], m.auth.focus == f, f == authPassword))
	}
	lines = append(lines, "")

	s := m.deps.Session.Snapshot()
	switch {
	case m.auth.busy || s.Loading:
		lines = append(lines, mutedStyle.Render("Signing in..."))
	case s.Error != "":
		lines = append(lines, renderError(s.Error))
	}
	lines = append(lines, helpStyle.Render("tab: next field · enter: submit · "+toggleHint))
	return boxStyle.Render(strings.Join(lines, "\n"))
}
