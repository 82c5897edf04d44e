package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	Food           Category = "Food"
	Transportation Category = "Transportation"
	Entertainment  Category = "Entertainment"
	Education      Category = "Education"
	Shopping       Category = "Shopping"
	Bills          Category = "Bills"
	Other          Category = "Other"
)

const (
	BudgetPeriodMonthly = "monthly"
	BudgetCategoryAll   = "all"
)

type (
	Category string

	Date struct {
		time.Time
	}

	Expense struct {
		ID          string   `json:"_id,omitempty"`
		Amount      Money    `json:"amount"`
		Category    Category `json:"category"`
		Description string   `json:"description"`
		Date        Date     `json:"date"`
	}

	Budget struct {
		ID       string `json:"_id,omitempty"`
		Amount   Money  `json:"amount"`
		Period   string `json:"period"`
		Category string `json:"category"`
	}

	User struct {
		ID    string `json:"_id,omitempty"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	Registration struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	// AuthToken is the body returned by the login and register endpoints.
	AuthToken struct {
		Token string `json:"token"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingDate      = errors.New("missing date")
	ErrFutureDate       = errors.New("date is in the future")
)

// Categories lists the fixed category set in display order.
var Categories = []Category{Food, Transportation, Entertainment, Education, Shopping, Bills, Other}

var categoryIcons = map[Category]string{
	Food:           "🍔",
	Transportation: "🚗",
	Entertainment:  "🎬",
	Education:      "📚",
	Shopping:       "🛍️",
	Bills:          "📄",
	Other:          "📌",
}

var categoryColors = map[Category]string{
	Food:           "#FF6384",
	Transportation: "#36A2EB",
	Entertainment:  "#FFCE56",
	Education:      "#4BC0C0",
	Shopping:       "#9966FF",
	Bills:          "#FF9F40",
	Other:          "#C9CBCF",
}

// ParseCategory matches s against the fixed set, ignoring case and surrounding spaces.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

func (c Category) Validate() error {
	if _, ok := categoryIcons[c]; !ok {
		return ErrInvalidCategory
	}
	return nil
}

func (c Category) Icon() string {
	return categoryIcons[c]
}

// Color returns the chart colour used for the category, grey for unknown ones.
func (c Category) Color() string {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return categoryColors[Other]
}

func (c Category) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the calendar date of now.
func Today(now time.Time) Date {
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// Validate checks the date is set and not after today.
func (d Date) Validate(today Date) error {
	if d.IsZero() {
		return ErrMissingDate
	}
	if d.After(today.Time) {
		return ErrFutureDate
	}
	return nil
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

// Display formats the date for humans, e.g. "Aug 15, 2023".
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("Jan 2, 2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339))
}

// UnmarshalJSON accepts RFC 3339 timestamps (with or without fractional
// seconds) and plain YYYY-MM-DD dates. The time of day is dropped.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse(time.DateOnly, s)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", s, err)
		}
	}
	t = t.UTC()
	*d = NewDate(t.Year(), int(t.Month()), t.Day())
	return nil
}

// ValidateDescription rejects blank descriptions.
func ValidateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyDescription
	}
	return nil
}

// Validate returns the first rule the expense breaks.
func (e Expense) Validate(today Date) error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	if err := ValidateDescription(e.Description); err != nil {
		return err
	}
	return e.Date.Validate(today)
}

// UnmarshalJSON accepts either "_id" or "id" for the identifier.
func (e *Expense) UnmarshalJSON(b []byte) error {
	type plain Expense
	aux := struct {
		*plain
		AltID string `json:"id"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = aux.AltID
	}
	return nil
}

// UnmarshalJSON accepts either "_id" or "id" for the identifier.
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	aux := struct {
		*plain
		AltID string `json:"id"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = aux.AltID
	}
	return nil
}

// NewMonthlyBudget builds the single monthly, all-category budget record.
func NewMonthlyBudget(amount Money) Budget {
	return Budget{Amount: amount, Period: BudgetPeriodMonthly, Category: BudgetCategoryAll}
}

func (b Budget) Validate() error {
	return b.Amount.Validate()
}

// ValidationErrors maps a form field to the rule it failed.
type ValidationErrors map[string]error

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %v", f, v[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
