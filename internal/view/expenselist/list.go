// Package expenselist is the expense table: search, filter, sort and delete.
package expenselist

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/remote"
	"budgetbuddy/internal/view"
)

type Column string

const (
	ColumnDate        Column = "date"
	ColumnAmount      Column = "amount"
	ColumnCategory    Column = "category"
	ColumnDescription Column = "description"
)

// Columns in table order.
var Columns = []Column{ColumnDate, ColumnCategory, ColumnDescription, ColumnAmount}

type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// FilterAll disables the category filter.
const FilterAll = "all"

const (
	MsgLoadFailed   = "Failed to load expenses"
	MsgDeleteFailed = "Failed to delete expense"
	MsgDeleted      = "Expense deleted successfully"
	MsgEmpty        = "No expenses found."
	MsgConfirm      = "Are you sure you want to delete this expense? This action cannot be undone."
)

var (
	ErrUnknownExpense  = errors.New("unknown expense")
	ErrNoPendingDelete = errors.New("no delete awaiting confirmation")
	ErrDeleteInFlight  = errors.New("delete already in progress")
)

// Store is what the list needs from the backend.
type Store interface {
	remote.ExpenseLister
	remote.ExpenseDeleter
}

// Row is one rendered table line.
type Row struct {
	ID          string
	Icon        string
	Category    string
	Description string
	Date        string
	Amount      string
}

type Model struct {
	Loading    bool
	Error      string
	Notice     *view.Notice
	Search     string
	Filter     string
	SortBy     Column
	SortDir    Direction
	Indicators map[Column]string
	Rows       []Row
	Count      int
	Total      string
	Empty      string
	Confirm    *Row // pending delete
	Busy       bool // confirmed delete in flight
}

// View holds the fetched expenses and the table controls.
type View struct {
	store   Store
	expirer view.Expirer
	logger  *log.Logger
	flash   *view.Flash
	changes view.Notifier

	mu       sync.Mutex
	all      []core.Expense
	loading  bool
	errMsg   string
	search   string
	filter   string
	sortBy   Column
	sortDir  Direction
	pending  *core.Expense
	deleting bool
}

type Option func(*View)

func WithScheduler(s view.Scheduler) Option {
	return func(v *View) { v.flash = view.NewFlash(s, v.changes.Notify) }
}
func WithExpirer(e view.Expirer) Option { return func(v *View) { v.expirer = e } }
func WithLogger(l *log.Logger) Option   { return func(v *View) { v.logger = l } }

func New(store Store, opts ...Option) *View {
	v := &View{
		store:   store,
		logger:  log.Discard(),
		filter:  FilterAll,
		sortBy:  ColumnDate,
		sortDir: Desc,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.flash == nil {
		v.flash = view.NewFlash(view.RealScheduler, v.changes.Notify)
	}
	v.logger = v.logger.WithComponent(log.ComponentExpense).With(log.FieldView, string(view.RouteExpenses))
	return v
}

func (v *View) Subscribe(fn func()) func() { return v.changes.Subscribe(fn) }

// Load fetches every expense, replacing what was shown.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()
	v.changes.Notify()

	list, err := v.store.ListExpenses(ctx)

	v.mu.Lock()
	v.loading = false
	if err != nil {
		v.errMsg = MsgLoadFailed
	} else {
		v.all = list
		v.errMsg = ""
	}
	v.mu.Unlock()

	if err != nil {
		v.logger.ErrorContext(ctx, "Failed to load expenses", log.FieldOperation, log.OpList, log.FieldError, err)
		view.ExpireOnUnauthorized(err, v.expirer)
	}
	v.changes.Notify()
	return err
}

func (v *View) SetSearch(s string) {
	v.mu.Lock()
	v.search = s
	v.mu.Unlock()
	v.changes.Notify()
}

// SetFilter takes a category name or FilterAll.
func (v *View) SetFilter(f string) {
	if strings.TrimSpace(f) == "" {
		f = FilterAll
	}
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
	v.changes.Notify()
}

// ToggleSort flips the direction on the active column, or switches to col
// ascending.
func (v *View) ToggleSort(col Column) {
	v.mu.Lock()
	if v.sortBy == col {
		if v.sortDir == Asc {
			v.sortDir = Desc
		} else {
			v.sortDir = Asc
		}
	} else {
		v.sortBy = col
		v.sortDir = Asc
	}
	v.mu.Unlock()
	v.changes.Notify()
}

// SortIndicator is ↑ or ↓ on the active column and "" elsewhere.
func (v *View) SortIndicator(col Column) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return indicator(col, v.sortBy, v.sortDir)
}

func indicator(col, active Column, dir Direction) string {
	if col != active {
		return ""
	}
	if dir == Asc {
		return "↑"
	}
	return "↓"
}

// Expenses returns the filtered, sorted subset.
func (v *View) Expenses() []core.Expense {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visibleLocked()
}

// Total sums the filtered subset.
func (v *View) Total() core.Money {
	return core.Sum(v.Expenses())
}

func (v *View) visibleLocked() []core.Expense {
	return Sort(Filter(v.all, v.search, v.filter), v.sortBy, v.sortDir)
}

// RequestDelete opens the confirmation for id. Nothing is deleted yet.
func (v *View) RequestDelete(id string) error {
	v.mu.Lock()
	defer v.changes.Notify()
	defer v.mu.Unlock()
	if v.deleting {
		return ErrDeleteInFlight
	}
	for i := range v.all {
		if v.all[i].ID == id {
			e := v.all[i]
			v.pending = &e
			return nil
		}
	}
	return ErrUnknownExpense
}

func (v *View) CancelDelete() {
	v.mu.Lock()
	if v.deleting {
		v.mu.Unlock()
		return
	}
	v.pending = nil
	v.mu.Unlock()
	v.changes.Notify()
}

// ConfirmDelete deletes the pending expense and reloads the list once. On
// failure the confirmation stays open. A second confirmation while the first
// is in flight returns ErrDeleteInFlight.
func (v *View) ConfirmDelete(ctx context.Context) error {
	v.mu.Lock()
	if v.deleting {
		v.mu.Unlock()
		return ErrDeleteInFlight
	}
	if v.pending == nil {
		v.mu.Unlock()
		return ErrNoPendingDelete
	}
	id := v.pending.ID
	v.deleting = true
	v.mu.Unlock()
	v.changes.Notify()

	if err := v.store.DeleteExpense(ctx, id); err != nil {
		v.mu.Lock()
		v.errMsg = MsgDeleteFailed
		v.deleting = false
		v.mu.Unlock()
		v.logger.ErrorContext(ctx, "Failed to delete expense",
			log.FieldOperation, log.OpDelete, log.FieldExpenseID, id, log.FieldError, err)
		view.ExpireOnUnauthorized(err, v.expirer)
		v.changes.Notify()
		return err
	}

	// A failed reload is reported by Load itself; the delete still happened.
	_ = v.Load(ctx)

	v.mu.Lock()
	v.pending = nil
	v.deleting = false
	v.mu.Unlock()
	v.flash.Show(view.NoticeSuccess, MsgDeleted, view.NoticeDuration)
	return nil
}

// View projects the current state.
func (v *View) View() Model {
	v.mu.Lock()
	visible := v.visibleLocked()
	m := Model{
		Loading: v.loading,
		Error:   v.errMsg,
		Search:  v.search,
		Filter:  v.filter,
		SortBy:  v.sortBy,
		SortDir: v.sortDir,
		Count:   len(visible),
		Total:   core.Sum(visible).Format(),
	}
	m.Indicators = make(map[Column]string, len(Columns))
	for _, c := range Columns {
		m.Indicators[c] = indicator(c, v.sortBy, v.sortDir)
	}
	if v.pending != nil {
		r := rowOf(*v.pending)
		m.Confirm = &r
	}
	m.Busy = v.deleting
	v.mu.Unlock()

	m.Rows = make([]Row, 0, len(visible))
	for _, e := range visible {
		m.Rows = append(m.Rows, rowOf(e))
	}
	if len(m.Rows) == 0 && !m.Loading {
		m.Empty = MsgEmpty
	}
	if n, ok := v.flash.Current(); ok {
		m.Notice = &n
	}
	return m
}

func rowOf(e core.Expense) Row {
	return Row{
		ID:          e.ID,
		Icon:        e.Category.Icon(),
		Category:    string(e.Category),
		Description: e.Description,
		Date:        e.Date.Display(),
		Amount:      e.Amount.Format(),
	}
}

// Filter keeps expenses whose description contains search (ignoring case)
// and whose category matches filter, or every category for FilterAll. The
// input order is preserved.
func Filter(in []core.Expense, search, filter string) []core.Expense {
	needle := strings.ToLower(search)
	out := make([]core.Expense, 0, len(in))
	for _, e := range in {
		if needle != "" && !strings.Contains(strings.ToLower(e.Description), needle) {
			continue
		}
		if filter != FilterAll && !strings.EqualFold(string(e.Category), filter) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Sort returns a stably sorted copy. Text columns use locale-aware
// collation.
func Sort(in []core.Expense, by Column, dir Direction) []core.Expense {
	out := slices.Clone(in)
	col := collate.New(language.English)

	cmp := func(a, b core.Expense) int {
		switch by {
		case ColumnAmount:
			return a.Amount.Cmp(b.Amount.Decimal)
		case ColumnCategory:
			return col.CompareString(string(a.Category), string(b.Category))
		case ColumnDescription:
			return col.CompareString(a.Description, b.Description)
		default:
			return a.Date.Compare(b.Date.Time)
		}
	}
	if dir == Desc {
		slices.SortStableFunc(out, func(a, b core.Expense) int { return cmp(b, a) })
	} else {
		slices.SortStableFunc(out, cmp)
	}
	return out
}
