// Package reports turns an expense set into chart-ready projections.
package reports

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/remote"
	"budgetbuddy/internal/view"
)

type TimeRange string

const (
	RangeMonth TimeRange = "month"
	RangeYear  TimeRange = "year"
	RangeAll   TimeRange = "all"
)

// Ranges in picker order.
var Ranges = []TimeRange{RangeMonth, RangeYear, RangeAll}

func (r TimeRange) Label() string {
	switch r {
	case RangeMonth:
		return "This Month"
	case RangeYear:
		return "This Year"
	default:
		return "All Time"
	}
}

// Contains reports whether d falls in the window relative to now.
func (r TimeRange) Contains(d core.Date, now time.Time) bool {
	switch r {
	case RangeMonth:
		return core.InMonth(d, now)
	case RangeYear:
		return core.InYear(d, now)
	default:
		return true
	}
}

type ChartType string

const (
	ChartPie ChartType = "pie"
	ChartBar ChartType = "bar"
)

const (
	MsgLoading      = "Loading expense data..."
	MsgLoadFailed   = "Failed to load expenses"
	MsgExportFailed = "Failed to export report"
	MsgExported     = "Report exported"
	NoneLabel       = "None"
	ChartHint       = "Click on a category to filter the monthly chart"
)

var ErrNoExporter = errors.New("report export is not configured")

// Slice is one category of the pie.
type Slice struct {
	Category core.Category
	Icon     string
	Color    string
	Amount   core.Money
	Share    int // rounded percentage of the window total
}

// Bar is one month of the bar chart.
type Bar struct {
	Label  string
	Amount core.Money
}

type Stats struct {
	Total           core.Money
	Average         core.Money
	Count           int
	HighestCategory string // NoneLabel when nothing was spent
	HighestAmount   core.Money
}

// Report is a complete projection, also used for export.
type Report struct {
	Range        TimeRange
	RangeLabel   string
	Selected     core.Category
	MonthlyTitle string
	Categories   []Slice
	Monthly      []Bar
	Stats        Stats
	GeneratedAt  time.Time
}

// Exporter writes a report somewhere outside the client.
type Exporter interface {
	ExportReport(ctx context.Context, r Report) error
}

type Model struct {
	Report
	Loading   bool
	Error     string
	Chart     ChartType
	Hint      string
	Notice    *view.Notice
	CanExport bool
}

type View struct {
	src      remote.ExpenseLister
	exporter Exporter
	now      func() time.Time
	expirer  view.Expirer
	logger   *log.Logger
	flash    *view.Flash
	changes  view.Notifier

	mu       sync.Mutex
	expenses []core.Expense
	loading  bool
	errMsg   string
	rng      TimeRange
	chart    ChartType
	selected core.Category
}

type Option func(*View)

func WithClock(now func() time.Time) Option { return func(v *View) { v.now = now } }
func WithExporter(e Exporter) Option        { return func(v *View) { v.exporter = e } }
func WithExpirer(e view.Expirer) Option     { return func(v *View) { v.expirer = e } }
func WithLogger(l *log.Logger) Option       { return func(v *View) { v.logger = l } }
func WithScheduler(s view.Scheduler) Option {
	return func(v *View) { v.flash = view.NewFlash(s, v.changes.Notify) }
}

// New builds the view over src; nil means the sample dataset.
func New(src remote.ExpenseLister, opts ...Option) *View {
	if src == nil {
		src = SampleSource{}
	}
	v := &View{
		src:    src,
		now:    time.Now,
		logger: log.Discard(),
		rng:    RangeMonth,
		chart:  ChartPie,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.flash == nil {
		v.flash = view.NewFlash(view.RealScheduler, v.changes.Notify)
	}
	v.logger = v.logger.WithComponent(log.ComponentReports)
	return v
}

func (v *View) Subscribe(fn func()) func() { return v.changes.Subscribe(fn) }

func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()
	v.changes.Notify()

	list, err := v.src.ListExpenses(ctx)

	v.mu.Lock()
	v.loading = false
	if err != nil {
		v.errMsg = MsgLoadFailed
	} else {
		v.expenses = list
		v.errMsg = ""
	}
	v.mu.Unlock()

	if err != nil {
		v.logger.ErrorContext(ctx, "Failed to load report data", log.FieldError, err)
		view.ExpireOnUnauthorized(err, v.expirer)
	}
	v.changes.Notify()
	return err
}

func (v *View) SetRange(r TimeRange) {
	v.mu.Lock()
	v.rng = r
	v.mu.Unlock()
	v.changes.Notify()
}

func (v *View) SetChart(c ChartType) {
	v.mu.Lock()
	v.chart = c
	v.mu.Unlock()
	v.changes.Notify()
}

// SelectCategory narrows the monthly projection; "" clears it.
func (v *View) SelectCategory(c core.Category) {
	v.mu.Lock()
	v.selected = c
	v.mu.Unlock()
	v.changes.Notify()
}

// SelectSlice selects the i-th pie slice. An index outside the pie clears
// the selection, like a click on empty space.
func (v *View) SelectSlice(i int) {
	slices := v.Report().Categories
	if i < 0 || i >= len(slices) {
		v.SelectCategory("")
		return
	}
	v.SelectCategory(slices[i].Category)
}

// Report computes every projection for the current window and selection.
func (v *View) Report() Report {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Build(v.expenses, v.rng, v.selected, v.now())
}

// Build is the pure projection behind Report.
func Build(expenses []core.Expense, rng TimeRange, selected core.Category, now time.Time) Report {
	window := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if rng.Contains(e.Date, now) {
			window = append(window, e)
		}
	}

	r := Report{
		Range:        rng,
		RangeLabel:   rng.Label(),
		Selected:     selected,
		MonthlyTitle: "Monthly Expenses",
		GeneratedAt:  now,
	}

	totals := core.TotalsByCategory(window)
	sum := core.Sum(window)
	r.Categories = make([]Slice, 0, len(totals))
	for _, t := range totals {
		r.Categories = append(r.Categories, Slice{
			Category: t.Category,
			Icon:     t.Category.Icon(),
			Color:    t.Category.Color(),
			Amount:   t.Amount,
			Share:    int(math.Round(t.Amount.PercentOf(sum))),
		})
	}

	monthly := window
	if selected != "" {
		r.MonthlyTitle = string(selected) + " Expenses"
		monthly = make([]core.Expense, 0, len(window))
		for _, e := range window {
			if e.Category == selected {
				monthly = append(monthly, e)
			}
		}
	}
	buckets := core.TotalsByMonth(monthly)
	r.Monthly = make([]Bar, len(buckets))
	for i, amt := range buckets {
		r.Monthly[i] = Bar{Label: core.MonthLabels[i], Amount: amt}
	}

	r.Stats = Stats{
		Total:           sum,
		Average:         sum.DivInt(len(window)),
		Count:           len(window),
		HighestCategory: NoneLabel,
	}
	if best, ok := core.Highest(totals); ok {
		r.Stats.HighestCategory = string(best.Category)
		r.Stats.HighestAmount = best.Amount
	}
	return r
}

// Export sends the current report to the configured exporter.
func (v *View) Export(ctx context.Context) error {
	if v.exporter == nil {
		return ErrNoExporter
	}
	r := v.Report()
	if err := v.exporter.ExportReport(ctx, r); err != nil {
		v.logger.ErrorContext(ctx, "Failed to export report", log.FieldOperation, log.OpExport, log.FieldError, err)
		v.flash.Show(view.NoticeError, MsgExportFailed, view.NoticeDuration)
		return err
	}
	v.logger.InfoContext(ctx, "Report exported", log.FieldOperation, log.OpExport, "range", string(r.Range))
	v.flash.Show(view.NoticeSuccess, MsgExported, view.NoticeDuration)
	return nil
}

// View projects the current state.
func (v *View) View() Model {
	v.mu.Lock()
	m := Model{
		Report:    Build(v.expenses, v.rng, v.selected, v.now()),
		Loading:   v.loading,
		Error:     v.errMsg,
		Chart:     v.chart,
		CanExport: v.exporter != nil,
	}
	v.mu.Unlock()
	if m.Chart == ChartPie {
		m.Hint = ChartHint
	}
	if n, ok := v.flash.Current(); ok {
		m.Notice = &n
	}
	return m
}
