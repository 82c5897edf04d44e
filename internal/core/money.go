// Package core provides money parsing and handling utilities.
//
// Amounts are kept as decimals end to end so totals and budget arithmetic do
// not drift; they only become floats when a percentage is displayed.
package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every formatted amount.
const CurrencySymbol = "₹"

type Money struct {
	decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// grouped matches digit grouping in the Western (1,234,567) or Indian
// (12,34,567) style.
var grouped = regexp.MustCompile(`^-?\d{1,3}(,\d{2,3})*,\d{3}(\.\d+)?$`)

// NewMoney wraps a decimal.
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MoneyFromFloat is a convenience for literals in tests and fixtures.
func MoneyFromFloat(f float64) Money {
	return Money{Decimal: decimal.NewFromFloat(f)}
}

// ParseMoney parses user input such as "12.34", "1,500" or "1,50,000.75".
// Commas are only accepted as thousands separators.
//
// It does not enforce positivity; call Validate for that. Returns
// ErrInvalidAmount for blank or non-numeric input.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		if !grouped.MatchString(s) {
			return Money{}, ErrInvalidAmount
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{Decimal: d}, nil
}

func (m Money) Validate() error {
	if !m.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

func (m Money) Sub(o Money) Money {
	return Money{Decimal: m.Decimal.Sub(o.Decimal)}
}

// DivInt divides by a count, returning zero for n <= 0.
func (m Money) DivInt(n int) Money {
	if n <= 0 {
		return Money{}
	}
	return Money{Decimal: m.Decimal.Div(decimal.NewFromInt(int64(n)))}
}

// PercentOf returns m as a percentage of whole, or 0 when whole is not positive.
func (m Money) PercentOf(whole Money) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return m.Decimal.Div(whole.Decimal).Mul(hundred).InexactFloat64()
}

func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

// Format renders the amount with the currency symbol and two decimals,
// e.g. "₹12.50" or "-₹3.00".
func (m Money) Format() string {
	if m.IsNegative() {
		return "-" + CurrencySymbol + m.Neg().StringFixed(2)
	}
	return CurrencySymbol + m.StringFixed(2)
}

func (m Money) String() string {
	return m.Format()
}

// MarshalJSON writes the amount as a bare JSON number, which is what the API expects.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// UnmarshalJSON accepts numbers and numeric strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Decimal.UnmarshalJSON(b)
}
