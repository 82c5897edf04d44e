// Package expenseform is the add-expense flow: edit, preview, confirm.
package expenseform

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/remote"
	"budgetbuddy/internal/view"
)

type State int

const (
	Editing State = iota
	Previewing
	Submitting
	Succeeded
)

func (s State) String() string {
	switch s {
	case Previewing:
		return "previewing"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	default:
		return "editing"
	}
}

// Form fields.
const (
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDescription = "description"
	FieldDate        = "date"
)

// Messages shown by the form.
const (
	MsgInvalidAmount    = "Please enter a valid amount"
	MsgSelectCategory   = "Please select a category"
	MsgEnterDesc        = "Please enter a description"
	MsgSelectDate       = "Please select a date"
	MsgFutureDate       = "Date cannot be in the future"
	MsgCreated          = "Expense added successfully!"
	MsgCreateFailed     = "Failed to add expense"
	CategoryPlaceholder = "Select a category"
)

var (
	ErrNotEditing    = errors.New("form is not being edited")
	ErrNotPreviewing = errors.New("form is not in preview")
	ErrUnknownField  = errors.New("unknown form field")
)

// Values are the raw inputs as typed.
type Values struct {
	Amount      string
	Category    string
	Description string
	Date        string // YYYY-MM-DD
}

// Preview is the confirmation summary.
type Preview struct {
	Icon        string
	Category    string
	Date        string
	Amount      string
	Description string
}

// Option is one entry of the category picker.
type Option struct {
	Value string
	Label string
}

// Model is everything the front-end needs to draw the form.
type Model struct {
	State      State
	Values     Values
	Errors     map[string]string
	Preview    *Preview
	Error      string
	Success    string
	Categories []Option
	Busy       bool
}

// Flow drives one add-expense form.
type Flow struct {
	creator remote.ExpenseCreator
	nav     view.Navigator
	sched   view.Scheduler
	now     func() time.Time
	expirer view.Expirer
	logger  *log.Logger
	changes view.Notifier

	mu      sync.Mutex
	state   State
	values  Values
	errs    core.ValidationErrors
	preview *Preview
	errMsg  string
	success string
	timer   view.Timer
}

type FlowOption func(*Flow)

func WithNavigator(n view.Navigator) FlowOption { return func(f *Flow) { f.nav = n } }
func WithScheduler(s view.Scheduler) FlowOption { return func(f *Flow) { f.sched = s } }
func WithClock(now func() time.Time) FlowOption { return func(f *Flow) { f.now = now } }
func WithExpirer(e view.Expirer) FlowOption     { return func(f *Flow) { f.expirer = e } }
func WithLogger(l *log.Logger) FlowOption       { return func(f *Flow) { f.logger = l } }

func New(creator remote.ExpenseCreator, opts ...FlowOption) *Flow {
	f := &Flow{
		creator: creator,
		nav:     view.NopNavigator,
		sched:   view.RealScheduler,
		now:     time.Now,
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.WithComponent(log.ComponentExpense).With(log.FieldView, string(view.RouteAddExpense))
	f.values = f.blank()
	f.errs = core.ValidationErrors{}
	return f
}

func (f *Flow) blank() Values {
	return Values{Date: core.Today(f.now()).String()}
}

// Subscribe registers fn for state changes.
func (f *Flow) Subscribe(fn func()) func() { return f.changes.Subscribe(fn) }

// SetField updates one input and clears its error.
func (f *Flow) SetField(field, value string) error {
	f.mu.Lock()
	if f.state != Editing {
		f.mu.Unlock()
		return ErrNotEditing
	}
	switch field {
	case FieldAmount:
		f.values.Amount = value
	case FieldCategory:
		f.values.Category = value
	case FieldDescription:
		f.values.Description = value
	case FieldDate:
		f.values.Date = value
	default:
		f.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	delete(f.errs, field)
	f.mu.Unlock()
	f.changes.Notify()
	return nil
}

// Preview validates the inputs and, when they pass, shows the summary. No
// request is made.
func (f *Flow) Preview() bool {
	f.mu.Lock()
	if f.state != Editing {
		f.mu.Unlock()
		return false
	}
	e, errs := Validate(f.values, core.Today(f.now()))
	f.errs = errs
	ok := len(errs) == 0
	if ok {
		f.state = Previewing
		f.preview = previewOf(e)
		f.errMsg = ""
	}
	f.mu.Unlock()
	f.changes.Notify()
	return ok
}

// Edit leaves the preview with every value intact.
func (f *Flow) Edit() {
	f.mu.Lock()
	if f.state != Previewing {
		f.mu.Unlock()
		return
	}
	f.state = Editing
	f.preview = nil
	f.mu.Unlock()
	f.changes.Notify()
}

// Confirm submits the previewed expense with exactly one create call.
func (f *Flow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	if f.state != Previewing {
		f.mu.Unlock()
		return ErrNotPreviewing
	}
	e, errs := Validate(f.values, core.Today(f.now()))
	if len(errs) > 0 {
		f.state = Editing
		f.preview = nil
		f.errs = errs
		f.mu.Unlock()
		f.changes.Notify()
		return errs
	}
	f.state = Submitting
	f.errMsg = ""
	f.mu.Unlock()
	f.changes.Notify()

	created, err := f.creator.CreateExpense(ctx, e)

	f.mu.Lock()
	if err != nil {
		f.state = Editing
		f.preview = nil
		f.errMsg = remote.MessageOf(err, MsgCreateFailed)
		f.mu.Unlock()
		f.logger.ErrorContext(ctx, "Failed to add expense", log.FieldError, err)
		view.ExpireOnUnauthorized(err, f.expirer)
		f.changes.Notify()
		return err
	}
	f.state = Succeeded
	f.success = MsgCreated
	f.values = f.blank()
	f.errs = core.ValidationErrors{}
	f.preview = nil
	f.timer = f.sched.AfterFunc(view.RedirectDelay, f.finish)
	f.mu.Unlock()

	f.logger.InfoContext(ctx, "Expense added", log.NewFields().
		WithOperation(log.OpCreate).
		WithExpense(created.ID, created.Description, created.Amount.String(), string(created.Category)).
		ToSlice()...)
	f.changes.Notify()
	return nil
}

// finish ends the success window and moves to the expense list.
func (f *Flow) finish() {
	f.mu.Lock()
	if f.state != Succeeded {
		f.mu.Unlock()
		return
	}
	f.state = Editing
	f.success = ""
	f.timer = nil
	f.mu.Unlock()
	f.changes.Notify()
	f.nav.Navigate(view.RouteExpenses)
}

// Cancel abandons the form and shows the expense list.
func (f *Flow) Cancel() {
	f.mu.Lock()
	if f.state == Submitting {
		f.mu.Unlock()
		return
	}
	f.state = Editing
	f.preview = nil
	f.mu.Unlock()
	f.changes.Notify()
	f.nav.Navigate(view.RouteExpenses)
}

// Close stops a pending redirect.
func (f *Flow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// View projects the current state.
func (f *Flow) View() Model {
	f.mu.Lock()
	defer f.mu.Unlock()

	m := Model{
		State:      f.state,
		Values:     f.values,
		Errors:     make(map[string]string, len(f.errs)),
		Error:      f.errMsg,
		Success:    f.success,
		Categories: categoryOptions(),
		Busy:       f.state == Submitting,
	}
	for field, err := range f.errs {
		m.Errors[field] = Message(field, err)
	}
	if f.preview != nil {
		p := *f.preview
		m.Preview = &p
	}
	return m
}

// Validate checks every field and returns the expense they describe. The
// error map is empty when all rules pass.
func Validate(v Values, today core.Date) (core.Expense, core.ValidationErrors) {
	errs := core.ValidationErrors{}
	var e core.Expense

	amount, err := core.ParseMoney(v.Amount)
	if err == nil {
		err = amount.Validate()
	}
	if err != nil {
		errs[FieldAmount] = err
	}
	e.Amount = amount

	cat, err := core.ParseCategory(v.Category)
	if err != nil {
		errs[FieldCategory] = err
	}
	e.Category = cat

	if err := core.ValidateDescription(v.Description); err != nil {
		errs[FieldDescription] = err
	}
	e.Description = v.Description

	if v.Date == "" {
		errs[FieldDate] = core.ErrMissingDate
	} else if d, err := core.ParseDate(v.Date); err != nil {
		errs[FieldDate] = core.ErrMissingDate
	} else if err := d.Validate(today); err != nil {
		errs[FieldDate] = err
	} else {
		e.Date = d
	}

	return e, errs
}

// Message is the text shown under a field for err.
func Message(field string, err error) string {
	switch {
	case errors.Is(err, core.ErrFutureDate):
		return MsgFutureDate
	case field == FieldAmount:
		return MsgInvalidAmount
	case field == FieldCategory:
		return MsgSelectCategory
	case field == FieldDescription:
		return MsgEnterDesc
	case field == FieldDate:
		return MsgSelectDate
	}
	return err.Error()
}

func previewOf(e core.Expense) *Preview {
	return &Preview{
		Icon:        e.Category.Icon(),
		Category:    string(e.Category),
		Date:        e.Date.Display(),
		Amount:      e.Amount.Format(),
		Description: e.Description,
	}
}

func categoryOptions() []Option {
	out := make([]Option, 0, len(core.Categories)+1)
	out = append(out, Option{Value: "", Label: CategoryPlaceholder})
	for _, c := range core.Categories {
		out = append(out, Option{Value: string(c), Label: c.Icon() + " " + string(c)})
	}
	return out
}
