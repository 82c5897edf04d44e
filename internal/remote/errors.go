package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// Op names a remote operation; each has a fallback message used when the
// server does not supply one.
type Op string

const (
	OpListExpenses  Op = "list expenses"
	OpCreateExpense Op = "create expense"
	OpUpdateExpense Op = "update expense"
	OpDeleteExpense Op = "delete expense"
	OpGetBudget     Op = "get budget"
	OpSetBudget     Op = "set budget"
	OpRegister      Op = "register"
	OpLogin         Op = "login"
	OpCurrentUser   Op = "current user"
)

var fallbacks = map[Op]string{
	OpListExpenses:  "Error fetching expenses",
	OpCreateExpense: "Error adding expense",
	OpUpdateExpense: "Error updating expense",
	OpDeleteExpense: "Error deleting expense",
	OpGetBudget:     "Error fetching budget",
	OpSetBudget:     "Error updating budget",
	OpRegister:      "Error registering user",
	OpLogin:         "Error logging in",
	OpCurrentUser:   "Error fetching user data",
}

// Fallback returns the generic message for the operation.
func (o Op) Fallback() string {
	if m, ok := fallbacks[o]; ok {
		return m
	}
	return "Request failed"
}

// RequestError is returned for any non-success response or transport failure.
// Message is always human-readable: the server's message, or the
// operation's fallback.
type RequestError struct {
	Op      Op
	Status  int // 0 for transport failures
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError builds a RequestError, using the fallback when msg is empty.
func NewRequestError(op Op, status int, msg string, cause error) *RequestError {
	if msg == "" {
		msg = op.Fallback()
	}
	return &RequestError{Op: op, Status: status, Message: msg, Err: cause}
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status == http.StatusUnauthorized
}

// MessageOf returns the user-facing message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var re *RequestError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return fallback
}
