// Package memory is an in-process stand-in for the BudgetBuddy API. It backs
// the offline demo mode and the fake HTTP server used in tests.
package memory

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/remote"
)

// Error is a rejection with the HTTP status the real API would use.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	errNoToken      = &Error{Status: http.StatusUnauthorized, Message: "No token, authorization denied"}
	errBadToken     = &Error{Status: http.StatusUnauthorized, Message: "Token is not valid"}
	errBadLogin     = &Error{Status: http.StatusBadRequest, Message: "Invalid Credentials"}
	errUserExists   = &Error{Status: http.StatusBadRequest, Message: "User already exists"}
	errNotFound     = &Error{Status: http.StatusNotFound, Message: "Expense not found"}
	errMissingField = &Error{Status: http.StatusBadRequest, Message: "Please include all fields"}
)

type account struct {
	user     core.User
	password string
	expenses []core.Expense
	budgets  []core.Budget
}

// Backend holds accounts, tokens, expenses and budgets.
type Backend struct {
	mu       sync.Mutex
	accounts map[string]*account // by email
	tokens   map[string]string   // token -> email
	newID    func() string
}

func NewBackend() *Backend {
	return &Backend{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
		newID:    uuid.NewString,
	}
}

func (b *Backend) Register(name, email, password string) (string, error) {
	name, email = strings.TrimSpace(name), normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return "", errMissingField
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.accounts[email]; ok {
		return "", errUserExists
	}
	b.accounts[email] = &account{
		user:     core.User{ID: b.newID(), Name: name, Email: email},
		password: password,
	}
	return b.issue(email), nil
}

func (b *Backend) Login(email, password string) (string, error) {
	email = normalizeEmail(email)
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[email]
	if !ok || acc.password != password {
		return "", errBadLogin
	}
	return b.issue(email), nil
}

// Revoke invalidates a token, as an expired JWT would be.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

func (b *Backend) User(token string) (core.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, err := b.account(token)
	if err != nil {
		return core.User{}, err
	}
	return acc.user, nil
}

func (b *Backend) Expenses(token string) ([]core.Expense, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, err := b.account(token)
	if err != nil {
		return nil, err
	}
	return append([]core.Expense{}, acc.expenses...), nil
}

func (b *Backend) AddExpense(token string, e core.Expense) (core.Expense, error) {
	if err := checkExpense(e); err != nil {
		return core.Expense{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, err := b.account(token)
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = b.newID()
	acc.expenses = append(acc.expenses, e)
	return e, nil
}

func (b *Backend) UpdateExpense(token, id string, e core.Expense) (core.Expense, error) {
	if err := checkExpense(e); err != nil {
		return core.Expense{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, err := b.account(token)
	if err != nil {
		return core.Expense{}, err
	}
	for i := range acc.expenses {
		if acc.expenses[i].ID == id {
			e.ID = id
			acc.expenses[i] = e
			return e, nil
		}
	}
	return core.Expense{}, errNotFound
}

func (b *Backend) DeleteExpense(token, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, err := b.account(token)
	if err != nil {
		return err
	}
	for i := range acc.expenses {
		if acc.expenses[i].ID == id {
			acc.expenses = append(acc.expenses[:i], acc.expenses[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (b *Backend) Budgets(token string) ([]core.Budget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, err := b.account(token)
	if err != nil {
		return nil, err
	}
	return append([]core.Budget{}, acc.budgets...), nil
}

// UpsertBudget replaces the first budget record or creates it.
func (b *Backend) UpsertBudget(token string, bud core.Budget) (core.Budget, error) {
	if bud.Amount.Validate() != nil {
		return core.Budget{}, &Error{Status: http.StatusBadRequest, Message: "Budget amount must be positive"}
	}
	if bud.Period == "" {
		bud.Period = core.BudgetPeriodMonthly
	}
	if bud.Category == "" {
		bud.Category = core.BudgetCategoryAll
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, err := b.account(token)
	if err != nil {
		return core.Budget{}, err
	}
	if len(acc.budgets) == 0 {
		bud.ID = b.newID()
		acc.budgets = append(acc.budgets, bud)
		return bud, nil
	}
	bud.ID = acc.budgets[0].ID
	acc.budgets[0] = bud
	return bud, nil
}

func (b *Backend) issue(email string) string {
	tok := b.newID()
	b.tokens[tok] = email
	return tok
}

// account must be called with mu held.
func (b *Backend) account(token string) (*account, error) {
	if token == "" {
		return nil, errNoToken
	}
	email, ok := b.tokens[token]
	if !ok {
		return nil, errBadToken
	}
	acc, ok := b.accounts[email]
	if !ok {
		return nil, errBadToken
	}
	return acc, nil
}

func checkExpense(e core.Expense) error {
	if e.Amount.Validate() != nil || e.Category.Validate() != nil ||
		core.ValidateDescription(e.Description) != nil || e.Date.IsZero() {
		return errMissingField
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Remote adapts a Backend to the remote ports, reading the credential from a
// TokenSource the same way the REST client does.
type Remote struct {
	backend *Backend
	tokens  remote.TokenSource
}

func New(b *Backend, tokens remote.TokenSource) *Remote {
	return &Remote{backend: b, tokens: tokens}
}

func (r *Remote) token() string {
	if r.tokens == nil {
		return ""
	}
	return r.tokens.Token()
}

func (r *Remote) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(remote.OpListExpenses, err)
	}
	out, err := r.backend.Expenses(r.token())
	return out, wrap(remote.OpListExpenses, err)
}

func (r *Remote) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return core.Expense{}, wrap(remote.OpCreateExpense, err)
	}
	out, err := r.backend.AddExpense(r.token(), e)
	return out, wrap(remote.OpCreateExpense, err)
}

func (r *Remote) UpdateExpense(ctx context.Context, id string, e core.Expense) (core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return core.Expense{}, wrap(remote.OpUpdateExpense, err)
	}
	out, err := r.backend.UpdateExpense(r.token(), id, e)
	return out, wrap(remote.OpUpdateExpense, err)
}

func (r *Remote) DeleteExpense(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return wrap(remote.OpDeleteExpense, err)
	}
	return wrap(remote.OpDeleteExpense, r.backend.DeleteExpense(r.token(), id))
}

func (r *Remote) Budget(ctx context.Context) (core.Budget, error) {
	if err := ctx.Err(); err != nil {
		return core.Budget{}, wrap(remote.OpGetBudget, err)
	}
	list, err := r.backend.Budgets(r.token())
	if err != nil {
		return core.Budget{}, wrap(remote.OpGetBudget, err)
	}
	if len(list) == 0 {
		return core.Budget{}, nil
	}
	return list[0], nil
}

func (r *Remote) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := ctx.Err(); err != nil {
		return core.Budget{}, wrap(remote.OpSetBudget, err)
	}
	out, err := r.backend.UpsertBudget(r.token(), b)
	return out, wrap(remote.OpSetBudget, err)
}

func (r *Remote) Register(ctx context.Context, reg core.Registration) (core.AuthToken, error) {
	if err := ctx.Err(); err != nil {
		return core.AuthToken{}, wrap(remote.OpRegister, err)
	}
	tok, err := r.backend.Register(reg.Name, reg.Email, reg.Password)
	return core.AuthToken{Token: tok}, wrap(remote.OpRegister, err)
}

func (r *Remote) Login(ctx context.Context, c core.Credentials) (core.AuthToken, error) {
	if err := ctx.Err(); err != nil {
		return core.AuthToken{}, wrap(remote.OpLogin, err)
	}
	tok, err := r.backend.Login(c.Email, c.Password)
	return core.AuthToken{Token: tok}, wrap(remote.OpLogin, err)
}

func (r *Remote) CurrentUser(ctx context.Context) (core.User, error) {
	if err := ctx.Err(); err != nil {
		return core.User{}, wrap(remote.OpCurrentUser, err)
	}
	u, err := r.backend.User(r.token())
	return u, wrap(remote.OpCurrentUser, err)
}

func wrap(op remote.Op, err error) error {
	if err == nil {
		return nil
	}
	var me *Error
	if errors.As(err, &me) {
		return remote.NewRequestError(op, me.Status, me.Message, err)
	}
	return remote.NewRequestError(op, 0, "", err)
}

var _ remote.Remote = (*Remote)(nil)
