package tui_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbuddy/internal/remote/memory"
	"budgetbuddy/internal/session"
	"budgetbuddy/internal/tokenstore"
	"budgetbuddy/internal/tui"
	"budgetbuddy/internal/view"
	"budgetbuddy/internal/view/viewtest"
)

var now = time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)

type harness struct {
	t       *testing.T
	backend *memory.Backend
	sess    *session.Service
	sched   *viewtest.Scheduler
	m       *tui.Model

	mu    sync.Mutex
	queue []tea.Msg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, backend: memory.NewBackend(), sched: viewtest.New()}
	require.NoError(t, memory.SeedDemo(h.backend, now))

	tokens := tokenstore.NewCache(tokenstore.NewMemory())
	r := memory.New(h.backend, tokens)
	h.sess = session.New(r, tokens)
	h.m = tui.New(context.Background(), tui.Deps{
		Session:   h.sess,
		Expenses:  r,
		Budgets:   r,
		Scheduler: h.sched,
		Clock:     func() time.Time { return now },
	}, h.enqueue)
	t.Cleanup(h.m.Close)

	h.run(h.m.Init())
	return h
}

func (h *harness) enqueue(msg tea.Msg) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = append(h.queue, msg)
}

func (h *harness) drain() []tea.Msg {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.queue
	h.queue = nil
	return out
}

// dispatch feeds msg to the model, running every returned command and
// every message the views sent, until nothing is left.
func (h *harness) dispatch(msg tea.Msg) {
	pending := []tea.Msg{msg}
	for len(pending) > 0 {
		msg := pending[0]
		pending = pending[1:]
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				if c != nil {
					pending = append(pending, c())
				}
			}
			continue
		}
		_, cmd := h.m.Update(msg)
		if cmd != nil {
			pending = append(pending, cmd())
		}
		pending = append(pending, h.drain()...)
	}
}

func (h *harness) run(cmd tea.Cmd) {
	if cmd != nil {
		h.dispatch(cmd())
	}
	h.flush()
}

func (h *harness) flush() {
	for _, msg := range h.drain() {
		h.dispatch(msg)
	}
}

func (h *harness) key(t tea.KeyType) { h.dispatch(tea.KeyMsg{Type: t}) }

func (h *harness) typeText(s string) {
	h.dispatch(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) login(email, password string) {
	h.typeText(email)
	h.key(tea.KeyTab)
	h.typeText(password)
	h.key(tea.KeyEnter)
}

func (h *harness) loginDemo() {
	h.t.Helper()
	h.login(memory.DemoEmail, memory.DemoPassword)
	require.Equal(h.t, view.RouteDashboard, h.m.Route())
}

func (h *harness) screen() string { return h.m.View() }

func TestStartsAtLoginWithoutToken(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, view.RouteLogin, h.m.Route())
	assert.Contains(t, h.screen(), "Login")

	h.key(tea.KeyF3)
	assert.Equal(t, view.RouteLogin, h.m.Route(), "screens need a session")
}

func TestLoginReachesDashboard(t *testing.T) {
	h := newHarness(t)
	h.loginDemo()

	s := h.screen()
	assert.Contains(t, s, "Welcome, Demo User!")
	assert.Contains(t, s, "₹5000.00")
	assert.Contains(t, s, "Lunch with team")
}

func TestLoginFailureStaysOnLogin(t *testing.T) {
	h := newHarness(t)
	h.login(memory.DemoEmail, "wrong")

	assert.Equal(t, view.RouteLogin, h.m.Route())
	assert.Contains(t, h.screen(), "Invalid Credentials")
	assert.False(t, h.sess.Snapshot().IsAuthenticated)
}

func TestRegisterScreen(t *testing.T) {
	h := newHarness(t)
	h.dispatch(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(t, view.RouteRegister, h.m.Route())

	h.key(tea.KeyShiftTab)
	h.typeText("Asha")
	h.key(tea.KeyTab)
	h.login("asha@example.com", "secret1")

	assert.Equal(t, view.RouteDashboard, h.m.Route())
	assert.Contains(t, h.screen(), "Welcome, Asha!")
	assert.Contains(t, h.screen(), "No expenses recorded yet.")
}

func TestAddExpenseFlow(t *testing.T) {
	h := newHarness(t)
	h.loginDemo()

	h.key(tea.KeyF2)
	require.Equal(t, view.RouteAddExpense, h.m.Route())

	h.key(tea.KeyEnter)
	assert.Contains(t, h.screen(), "Please enter a valid amount")

	h.typeText("42.50")
	h.key(tea.KeyTab)
	h.key(tea.KeyRight)
	h.key(tea.KeyTab)
	h.typeText("Team pizza")
	h.key(tea.KeyEnter)
	require.Contains(t, h.screen(), "Confirm Expense Details")

	h.key(tea.KeyEnter)
	assert.Contains(t, h.screen(), "Expense added successfully!")

	h.sched.Advance(view.RedirectDelay)
	h.flush()
	assert.Equal(t, view.RouteExpenses, h.m.Route())
	assert.Contains(t, h.screen(), "Team pizza")
	assert.Contains(t, h.screen(), "(6)")
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.loginDemo()
	h.key(tea.KeyF3)
	require.Contains(t, h.screen(), "(5)")

	h.typeText("d")
	assert.Contains(t, h.screen(), "Confirm Delete")
	h.typeText("n")
	assert.NotContains(t, h.screen(), "Confirm Delete")
	assert.Contains(t, h.screen(), "(5)")

	h.typeText("d")
	h.typeText("y")
	s := h.screen()
	assert.NotContains(t, s, "Confirm Delete")
	assert.Contains(t, s, "(4)")
	assert.Contains(t, s, "Expense deleted successfully")
}

func TestSearchAndFilter(t *testing.T) {
	h := newHarness(t)
	h.loginDemo()
	h.key(tea.KeyF3)

	h.typeText("/")
	h.typeText("metro")
	h.key(tea.KeyEnter)
	s := h.screen()
	assert.Contains(t, s, "Metro card top-up")
	assert.NotContains(t, s, "Rent share")

	h.key(tea.KeyBackspace) // not searching any more
	assert.Contains(t, h.screen(), "Metro card top-up")
}

func TestBudgetEdit(t *testing.T) {
	h := newHarness(t)
	h.loginDemo()

	h.typeText("b")
	for range len("5000.00") {
		h.key(tea.KeyBackspace)
	}
	h.typeText("6000")
	h.key(tea.KeyEnter)

	s := h.screen()
	assert.Contains(t, s, "Budget updated successfully!")
	assert.Contains(t, s, "₹6000.00")
}

func TestReportsScreen(t *testing.T) {
	h := newHarness(t)
	h.loginDemo()
	h.key(tea.KeyF4)
	require.Equal(t, view.RouteReports, h.m.Route())

	// sample data is from August 2023: nothing this month or this year
	assert.Contains(t, h.screen(), "No expenses in this period.")
	h.typeText("t")
	h.typeText("t")
	s := h.screen()
	assert.Contains(t, s, "₹755.00")
	assert.Contains(t, s, "Food")

	h.key(tea.KeyEnter)
	assert.Contains(t, h.screen(), "Showing data for: Food")
	h.typeText("c")
	assert.Contains(t, h.screen(), "Food Expenses")
	h.typeText("x")
	assert.Contains(t, h.screen(), "Monthly Expenses")
	assert.NotContains(t, h.screen(), "e: export")
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.loginDemo()

	h.dispatch(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, view.RouteLogin, h.m.Route())
	assert.False(t, h.sess.Snapshot().IsAuthenticated)
	assert.False(t, strings.Contains(h.screen(), "F1 Dashboard"))
}

func TestRevokedTokenExpiresSession(t *testing.T) {
	h := newHarness(t)
	h.loginDemo()
	h.backend.Revoke(h.sess.Snapshot().Token)

	h.key(tea.KeyF3)
	assert.Equal(t, view.RouteLogin, h.m.Route())
	assert.Contains(t, h.screen(), session.MsgSessionExpired)
}
