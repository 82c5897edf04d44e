// Package dashboard summarises spending against the monthly budget.
package dashboard

import (
	"context"
	"math"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/remote"
	"budgetbuddy/internal/session"
	"budgetbuddy/internal/view"
)

const (
	MsgLoadFailed    = "Failed to load data"
	MsgInvalidBudget = "Please enter a valid budget amount"
	MsgBudgetSaved   = "Budget updated successfully!"
	MsgBudgetFailed  = "Failed to update budget. Please try again."
	MsgOverBudget    = "You've exceeded your budget!"
	MsgNoExpenses    = "No expenses recorded yet."

	// RecentCount is how many expenses the recent list shows.
	RecentCount = 5
)

// Level colours the progress bar.
type Level int

const (
	LevelOK Level = iota
	LevelCaution
	LevelDanger
)

func (l Level) String() string {
	switch l {
	case LevelCaution:
		return "caution"
	case LevelDanger:
		return "danger"
	default:
		return "ok"
	}
}

// LevelFor maps a spent percentage to a level: above 80 is danger, above 60
// caution.
func LevelFor(percent float64) Level {
	switch {
	case percent > 80:
		return LevelDanger
	case percent > 60:
		return LevelCaution
	default:
		return LevelOK
	}
}

// Summary is the budget arithmetic for a set of expenses.
type Summary struct {
	Budget       core.Money
	TotalSpent   core.Money
	Remaining    core.Money
	PercentSpent float64
	BarPercent   float64
	Level        Level
	OverBudget   bool
}

// Summarize totals every expense given. It does not window by date.
func Summarize(expenses []core.Expense, budget core.Money) Summary {
	total := core.Sum(expenses)
	remaining := budget.Sub(total)
	pct := total.PercentOf(budget)
	return Summary{
		Budget:       budget,
		TotalSpent:   total,
		Remaining:    remaining,
		PercentSpent: pct,
		BarPercent:   math.Min(pct, 100),
		Level:        LevelFor(pct),
		OverBudget:   remaining.IsNegative(),
	}
}

// Recent returns the n latest expenses by date.
func Recent(expenses []core.Expense, n int) []core.Expense {
	out := slices.Clone(expenses)
	slices.SortStableFunc(out, func(a, b core.Expense) int {
		return b.Date.Compare(a.Date.Time)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

type RecentRow struct {
	Icon        string
	Category    string
	Description string
	Date        string
	Amount      string
}

type Model struct {
	Loading      bool
	Error        string
	Greeting     string
	Budget       string
	TotalSpent   string
	Remaining    string
	PercentLabel string
	PercentSpent float64
	BarPercent   float64
	Level        Level
	Warning      string
	Recent       []RecentRow
	Empty        string
	Editing      bool
	BudgetInput  string
	Alert        *view.Notice
}

// Sources are the backend calls the dashboard makes.
type Sources struct {
	Expenses remote.ExpenseLister
	Budgets  interface {
		remote.BudgetReader
		remote.BudgetWriter
	}
}

// UserSource supplies the signed-in user; implemented by session.Service.
type UserSource interface {
	Snapshot() session.Session
}

type View struct {
	src     Sources
	users   UserSource
	expirer view.Expirer
	logger  *log.Logger
	alert   *view.Flash
	changes view.Notifier

	mu       sync.Mutex
	loading  bool
	errMsg   string
	expenses []core.Expense
	budget   core.Money
	editing  bool
	input    string
}

type Option func(*View)

func WithScheduler(s view.Scheduler) Option {
	return func(v *View) { v.alert = view.NewFlash(s, v.changes.Notify) }
}
func WithUsers(u UserSource) Option     { return func(v *View) { v.users = u } }
func WithExpirer(e view.Expirer) Option { return func(v *View) { v.expirer = e } }
func WithLogger(l *log.Logger) Option   { return func(v *View) { v.logger = l } }

func New(src Sources, opts ...Option) *View {
	v := &View{src: src, logger: log.Discard()}
	for _, opt := range opts {
		opt(v)
	}
	if v.alert == nil {
		v.alert = view.NewFlash(view.RealScheduler, v.changes.Notify)
	}
	v.logger = v.logger.WithComponent(log.ComponentDashboard)
	return v
}

func (v *View) Subscribe(fn func()) func() { return v.changes.Subscribe(fn) }

// Load fetches expenses and the budget concurrently. Whatever arrived is
// kept; any failure sets the load error.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()
	v.changes.Notify()

	var (
		expenses []core.Expense
		budget   core.Budget
		expErr   error
		budErr   error
	)
	var g errgroup.Group
	g.Go(func() error {
		expenses, expErr = v.src.Expenses.ListExpenses(ctx)
		return expErr
	})
	g.Go(func() error {
		budget, budErr = v.src.Budgets.Budget(ctx)
		return budErr
	})
	err := g.Wait()

	v.mu.Lock()
	v.loading = false
	if expErr == nil {
		v.expenses = expenses
	}
	if budErr == nil {
		v.budget = budget.Amount
	}
	if err != nil {
		v.errMsg = MsgLoadFailed
	} else {
		v.errMsg = ""
	}
	v.mu.Unlock()

	if err != nil {
		v.logger.ErrorContext(ctx, "Failed to load dashboard", log.FieldError, err)
		view.ExpireOnUnauthorized(err, v.expirer)
	}
	v.changes.Notify()
	return err
}

// Summary computes the figures for what was last loaded.
func (v *View) Summary() Summary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Summarize(v.expenses, v.budget)
}

// BeginEdit opens the budget editor prefilled with the current amount.
func (v *View) BeginEdit() {
	v.mu.Lock()
	v.editing = true
	v.input = v.budget.StringFixed(2)
	if v.budget.IsZero() {
		v.input = ""
	}
	v.mu.Unlock()
	v.changes.Notify()
}

func (v *View) SetInput(s string) {
	v.mu.Lock()
	v.input = s
	v.mu.Unlock()
	v.changes.Notify()
}

func (v *View) CancelEdit() {
	v.mu.Lock()
	v.editing = false
	v.input = ""
	v.mu.Unlock()
	v.changes.Notify()
}

// Save validates the input and stores it as the monthly budget.
func (v *View) Save(ctx context.Context) error {
	v.mu.Lock()
	input := v.input
	v.mu.Unlock()

	amount, err := core.ParseMoney(input)
	if err == nil {
		err = amount.Validate()
	}
	if err != nil {
		v.alert.Show(view.NoticeError, MsgInvalidBudget, view.NoticeDuration)
		return err
	}

	saved, err := v.src.Budgets.SetBudget(ctx, core.NewMonthlyBudget(amount))
	if err != nil {
		v.logger.ErrorContext(ctx, "Failed to update budget", log.FieldOperation, log.OpUpdate, log.FieldError, err)
		v.alert.Show(view.NoticeError, remote.MessageOf(err, MsgBudgetFailed), view.NoticeDuration)
		view.ExpireOnUnauthorized(err, v.expirer)
		return err
	}

	v.mu.Lock()
	v.budget = amount
	if saved.Amount.IsPositive() {
		v.budget = saved.Amount
	}
	v.editing = false
	v.input = ""
	v.mu.Unlock()
	v.alert.Show(view.NoticeSuccess, MsgBudgetSaved, view.NoticeDuration)
	return nil
}

// View projects the current state.
func (v *View) View() Model {
	v.mu.Lock()
	s := Summarize(v.expenses, v.budget)
	recent := Recent(v.expenses, RecentCount)
	m := Model{
		Loading:      v.loading,
		Error:        v.errMsg,
		Budget:       s.Budget.Format(),
		TotalSpent:   s.TotalSpent.Format(),
		Remaining:    s.Remaining.Format(),
		PercentSpent: s.PercentSpent,
		PercentLabel: percentLabel(s.PercentSpent),
		BarPercent:   s.BarPercent,
		Level:        s.Level,
		Editing:      v.editing,
		BudgetInput:  v.input,
	}
	v.mu.Unlock()

	if s.OverBudget {
		m.Warning = MsgOverBudget
	}
	m.Recent = make([]RecentRow, 0, len(recent))
	for _, e := range recent {
		m.Recent = append(m.Recent, RecentRow{
			Icon:        e.Category.Icon(),
			Category:    string(e.Category),
			Description: e.Description,
			Date:        e.Date.Display(),
			Amount:      e.Amount.Format(),
		})
	}
	if len(m.Recent) == 0 && !m.Loading {
		m.Empty = MsgNoExpenses
	}
	m.Greeting = "Welcome!"
	if v.users != nil {
		if u := v.users.Snapshot().User; u != nil && u.Name != "" {
			m.Greeting = "Welcome, " + u.Name + "!"
		}
	}
	if n, ok := v.alert.Current(); ok {
		m.Alert = &n
	}
	return m
}

func percentLabel(p float64) string {
	return strconv.Itoa(int(math.Round(p))) + "%"
}
