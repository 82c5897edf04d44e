// Package tui is the terminal front-end. It owns the bubbletea event loop
// and drives the view models; it holds no business rules of its own.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"budgetbuddy/internal/log"
	"budgetbuddy/internal/remote"
	"budgetbuddy/internal/session"
	"budgetbuddy/internal/view"
	"budgetbuddy/internal/view/dashboard"
	"budgetbuddy/internal/view/expenseform"
	"budgetbuddy/internal/view/expenselist"
	"budgetbuddy/internal/view/reports"
)

// ExpenseStore is what the expense screens call.
type ExpenseStore interface {
	remote.ExpenseLister
	remote.ExpenseCreator
	remote.ExpenseDeleter
}

// BudgetStore is what the dashboard calls for the budget.
type BudgetStore interface {
	remote.BudgetReader
	remote.BudgetWriter
}

// Deps are the collaborators of the front-end.
type Deps struct {
	Session  *session.Service
	Expenses ExpenseStore
	Budgets  BudgetStore
	// Reports reads from here; nil means the sample dataset.
	ReportsSource remote.ExpenseLister
	// Exporter enables report export when set.
	Exporter  reports.Exporter
	Scheduler view.Scheduler
	Clock     func() time.Time
	Logger    *log.Logger
}

type (
	routeMsg       struct{ route view.Route }
	refreshMsg     struct{}
	sessionMsg     struct{ s session.Session }
	sessionInitMsg struct{ err error }
	authDoneMsg    struct{ ok bool }
	loadedMsg      struct {
		route view.Route
		err   error
	}
	actionDoneMsg struct{ err error }
)

// bridge hands view navigation to the event loop.
type bridge struct{ send func(tea.Msg) }

func (b bridge) Navigate(r view.Route) { b.send(routeMsg{route: r}) }

var protected = map[view.Route]bool{
	view.RouteDashboard:  true,
	view.RouteAddExpense: true,
	view.RouteExpenses:   true,
	view.RouteReports:    true,
}

var tabs = []struct {
	key   string
	route view.Route
	title string
}{
	{"f1", view.RouteDashboard, "Dashboard"},
	{"f2", view.RouteAddExpense, "Add Expense"},
	{"f3", view.RouteExpenses, "Expenses"},
	{"f4", view.RouteReports, "Reports"},
}

type Model struct {
	ctx    context.Context
	deps   Deps
	logger *log.Logger
	send   func(tea.Msg)
	unsubs []func()

	route view.Route
	ready bool
	width int

	auth   authState
	dash   *dashboard.View
	list   *expenselist.View
	form   *expenseform.Flow
	report *reports.View

	formUnsub func()

	formFocus   int
	listCursor  int
	searching   bool
	sliceCursor int
}

// New wires the screens. send delivers messages to the running program and
// must not block the caller.
func New(ctx context.Context, deps Deps, send func(tea.Msg)) *Model {
	if deps.Scheduler == nil {
		deps.Scheduler = view.RealScheduler
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	m := &Model{
		ctx:    ctx,
		deps:   deps,
		logger: deps.Logger.WithComponent(log.ComponentTUI),
		send:   send,
		route:  view.RouteLogin,
	}

	m.dash = dashboard.New(dashboard.Sources{Expenses: deps.Expenses, Budgets: deps.Budgets},
		dashboard.WithUsers(deps.Session),
		dashboard.WithExpirer(deps.Session),
		dashboard.WithScheduler(deps.Scheduler),
		dashboard.WithLogger(deps.Logger))
	m.list = expenselist.New(deps.Expenses,
		expenselist.WithExpirer(deps.Session),
		expenselist.WithScheduler(deps.Scheduler),
		expenselist.WithLogger(deps.Logger))
	reportOpts := []reports.Option{
		reports.WithClock(deps.Clock),
		reports.WithExpirer(deps.Session),
		reports.WithScheduler(deps.Scheduler),
		reports.WithLogger(deps.Logger),
	}
	if deps.Exporter != nil {
		reportOpts = append(reportOpts, reports.WithExporter(deps.Exporter))
	}
	m.report = reports.New(deps.ReportsSource, reportOpts...)

	refresh := func() { m.send(refreshMsg{}) }
	m.unsubs = append(m.unsubs,
		m.dash.Subscribe(refresh),
		m.list.Subscribe(refresh),
		m.report.Subscribe(refresh),
		deps.Session.Subscribe(func(s session.Session) { m.send(sessionMsg{s: s}) }),
	)
	return m
}

// Close drops subscriptions and pending timers.
func (m *Model) Close() {
	for _, u := range m.unsubs {
		u()
	}
	m.unsubs = nil
	m.closeForm()
}

func (m *Model) closeForm() {
	if m.form == nil {
		return
	}
	m.form.Close()
	m.formUnsub()
	m.form, m.formUnsub = nil, nil
}

func (m *Model) Route() view.Route { return m.route }

func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		return sessionInitMsg{err: m.deps.Session.Init(m.ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case sessionInitMsg:
		m.ready = true
		if msg.err != nil {
			m.logger.Warn("Session restore failed", log.FieldError, msg.err)
		}
		if m.deps.Session.Snapshot().IsAuthenticated {
			return m, m.goTo(view.RouteDashboard)
		}
		return m, m.goTo(view.RouteLogin)
	case sessionMsg:
		// msg may be stale; act on the current state.
		if !m.deps.Session.Snapshot().IsAuthenticated && protected[m.route] {
			return m, m.goTo(view.RouteLogin)
		}
		return m, nil
	case routeMsg:
		return m, m.goTo(msg.route)
	case authDoneMsg:
		m.auth.busy = false
		if msg.ok {
			return m, m.goTo(view.RouteDashboard)
		}
		return m, nil
	case loadedMsg, actionDoneMsg, refreshMsg:
		m.clampCursors()
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "ctrl+l":
		if m.deps.Session.Snapshot().IsAuthenticated {
			m.deps.Session.Logout()
			return m.goTo(view.RouteLogin)
		}
		return nil
	}
	if protected[m.route] {
		for _, t := range tabs {
			if msg.String() == t.key {
				return m.goTo(t.route)
			}
		}
	}

	switch m.route {
	case view.RouteLogin, view.RouteRegister:
		return m.authKey(msg)
	case view.RouteDashboard:
		return m.dashboardKey(msg)
	case view.RouteAddExpense:
		return m.formKey(msg)
	case view.RouteExpenses:
		return m.expensesKey(msg)
	case view.RouteReports:
		return m.reportsKey(msg)
	}
	return nil
}

// goTo switches screens, sending unauthenticated users to the login screen.
func (m *Model) goTo(r view.Route) tea.Cmd {
	if protected[r] && !m.deps.Session.Snapshot().IsAuthenticated {
		r = view.RouteLogin
	}
	if m.route == view.RouteAddExpense && r != view.RouteAddExpense {
		m.closeForm()
	}
	m.route = r
	m.logger.Debug("Navigate", log.FieldView, string(r))

	switch r {
	case view.RouteLogin, view.RouteRegister:
		m.auth.reset()
		return nil
	case view.RouteDashboard:
		return m.load(r, m.dash.Load)
	case view.RouteAddExpense:
		m.openForm()
		return nil
	case view.RouteExpenses:
		m.searching = false
		return m.load(r, m.list.Load)
	case view.RouteReports:
		return m.load(r, m.report.Load)
	}
	return nil
}

func (m *Model) load(r view.Route, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{route: r, err: fn(m.ctx)}
	}
}

func (m *Model) do(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: fn(m.ctx)}
	}
}

func (m *Model) openForm() {
	m.closeForm()
	m.form = expenseform.New(m.deps.Expenses,
		expenseform.WithNavigator(bridge{send: m.send}),
		expenseform.WithScheduler(m.deps.Scheduler),
		expenseform.WithClock(m.deps.Clock),
		expenseform.WithExpirer(m.deps.Session),
		expenseform.WithLogger(m.deps.Logger))
	m.formFocus = 0
	m.formUnsub = m.form.Subscribe(func() { m.send(refreshMsg{}) })
}

func (m *Model) clampCursors() {
	if n := len(m.list.View().Rows); m.listCursor >= n {
		m.listCursor = max(n-1, 0)
	}
	if n := len(m.report.View().Categories); m.sliceCursor >= n {
		m.sliceCursor = max(n-1, 0)
	}
}

func (m *Model) View() string {
	if !m.ready {
		return titleStyle.Render("BudgetBuddy") + "\n\n" + mutedStyle.Render("Loading...")
	}
	var body string
	switch m.route {
	case view.RouteLogin, view.RouteRegister:
		body = m.authView()
	case view.RouteDashboard:
		body = m.dashboardView()
	case view.RouteAddExpense:
		body = m.formView()
	case view.RouteExpenses:
		body = m.expensesView()
	case view.RouteReports:
		body = m.reportsView()
	}
	return m.header() + "\n\n" + body + "\n"
}

func (m *Model) header() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("💰 BudgetBuddy"))
	s := m.deps.Session.Snapshot()
	if !s.IsAuthenticated {
		return b.String()
	}
	b.WriteString("  ")
	for _, t := range tabs {
		label := fmt.Sprintf("%s %s", strings.ToUpper(t.key), t.title)
		if t.route == m.route {
			b.WriteString(activeTab.Render(label))
		} else {
			b.WriteString(tabStyle.Render(label))
		}
	}
	if s.User != nil {
		b.WriteString(mutedStyle.Render("  " + s.User.Name))
	}
	b.WriteString(helpStyle.Render("  ctrl+l logout · ctrl+c quit"))
	return b.String()
}

// Run starts the program and blocks until it exits.
func Run(ctx context.Context, deps Deps) error {
	var p *tea.Program
	ready := make(chan struct{})
	send := func(msg tea.Msg) {
		go func() {
			<-ready
			p.Send(msg)
		}()
	}
	m := New(ctx, deps, send)
	defer m.Close()

	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	close(ready)
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// editText applies a key press to a text input. It reports false for keys
// that are not text editing.
func editText(s string, msg tea.KeyMsg) (string, bool) {
	switch msg.Type {
	case tea.KeyRunes:
		return s + string(msg.Runes), true
	case tea.KeySpace:
		return s + " ", true
	case tea.KeyBackspace:
		r := []rune(s)
		if len(r) == 0 {
			return s, true
		}
		return string(r[:len(r)-1]), true
	}
	return s, false
}
