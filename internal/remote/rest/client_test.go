package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbuddy/internal/apitest"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/remote"
	"budgetbuddy/internal/remote/rest"
)

type tokenBox struct{ tok string }

func (b *tokenBox) Token() string { return b.tok }

func newClient(t *testing.T, srv *apitest.Server, tokens remote.TokenSource) *rest.Client {
	t.Helper()
	c, err := rest.New(srv.BaseURL(), tokens, rest.WithLogger(log.Discard()))
	require.NoError(t, err)
	return c
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := rest.New("ftp://example.com/api", nil)
	assert.Error(t, err)

	_, err = rest.New("://nope", nil)
	assert.Error(t, err)
}

func TestLoginThenCurrentUser(t *testing.T) {
	srv := apitest.New(t)
	srv.SignUp(t, "Asha", "asha@example.com", "secret")

	box := &tokenBox{}
	c := newClient(t, srv, box)
	ctx := context.Background()

	tok, err := c.Login(ctx, core.Credentials{Email: "asha@example.com", Password: "secret"})
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	box.tok = tok.Token
	u, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Asha", u.Name)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.NotEmpty(t, u.ID)

	calls := srv.Log()
	require.Len(t, calls, 2)
	assert.Empty(t, calls[0].Token, "no token before login")
	assert.Equal(t, tok.Token, calls[1].Token)
	assert.NotEmpty(t, calls[1].RequestID)
}

func TestRegisterDuplicateUsesServerMessage(t *testing.T) {
	srv := apitest.New(t)
	srv.SignUp(t, "Asha", "asha@example.com", "secret")
	c := newClient(t, srv, nil)

	_, err := c.Register(context.Background(), core.Registration{Name: "A", Email: "asha@example.com", Password: "x"})
	require.Error(t, err)

	var re *remote.RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, remote.OpRegister, re.Op)
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t, "User already exists", re.Message)
}

func TestExpenseLifecycle(t *testing.T) {
	srv := apitest.New(t)
	box := &tokenBox{tok: srv.SignUp(t, "Asha", "asha@example.com", "secret")}
	c := newClient(t, srv, box)
	ctx := context.Background()

	list, err := c.ListExpenses(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	created, err := c.CreateExpense(ctx, core.Expense{
		ID:          "ignored",
		Amount:      core.MoneyFromFloat(150),
		Category:    core.Food,
		Description: "Groceries",
		Date:        core.NewDate(2023, 8, 15),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "ignored", created.ID)
	assert.True(t, created.Amount.Equal(core.MoneyFromFloat(150)))
	assert.Equal(t, core.NewDate(2023, 8, 15), created.Date)

	updated, err := c.UpdateExpense(ctx, created.ID, core.Expense{
		Amount:      core.MoneyFromFloat(175.5),
		Category:    core.Food,
		Description: "Groceries and snacks",
		Date:        core.NewDate(2023, 8, 15),
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Groceries and snacks", updated.Description)

	list, err = c.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Amount.Equal(core.MoneyFromFloat(175.5)))

	require.NoError(t, c.DeleteExpense(ctx, created.ID))
	err = c.DeleteExpense(ctx, created.ID)
	var re *remote.RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusNotFound, re.Status)
	assert.Equal(t, "Expense not found", re.Message)
}

func TestBudgetFirstEntryAndUpsert(t *testing.T) {
	srv := apitest.New(t)
	box := &tokenBox{tok: srv.SignUp(t, "Asha", "asha@example.com", "secret")}
	c := newClient(t, srv, box)
	ctx := context.Background()

	b, err := c.Budget(ctx)
	require.NoError(t, err)
	assert.True(t, b.Amount.IsZero())

	saved, err := c.SetBudget(ctx, core.NewMonthlyBudget(core.MoneyFromFloat(1000)))
	require.NoError(t, err)
	assert.Equal(t, core.BudgetPeriodMonthly, saved.Period)
	assert.Equal(t, core.BudgetCategoryAll, saved.Category)

	_, err = c.SetBudget(ctx, core.NewMonthlyBudget(core.MoneyFromFloat(2500)))
	require.NoError(t, err)

	all, err := c.ListBudgets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	b, err = c.Budget(ctx)
	require.NoError(t, err)
	assert.True(t, b.Amount.Equal(core.MoneyFromFloat(2500)))
}

func TestUnauthorized(t *testing.T) {
	srv := apitest.New(t)
	c := newClient(t, srv, &tokenBox{tok: "stale"})

	_, err := c.ListExpenses(context.Background())
	require.Error(t, err)
	assert.True(t, remote.IsUnauthorized(err))
	assert.Equal(t, "Token is not valid", remote.MessageOf(err, "fallback"))

	c = newClient(t, srv, nil)
	_, err = c.Budget(context.Background())
	assert.True(t, remote.IsUnauthorized(err))
	assert.Equal(t, "No token, authorization denied", remote.MessageOf(err, "fallback"))
}

func TestErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"message field", map[string]any{"message": "Budget too small"}, "Budget too small"},
		{"msg field", map[string]any{"msg": "Invalid Credentials"}, "Invalid Credentials"},
		{"error field", map[string]any{"error": "boom"}, "boom"},
		{"message wins over msg", map[string]any{"message": "first", "msg": "second"}, "first"},
		{"validation array", map[string]any{"errors": []map[string]string{{"msg": "Please include a valid email"}}}, "Please include a valid email"},
		{"no message falls back", map[string]any{"status": "bad"}, "Error logging in"},
		{"empty errors array falls back", map[string]any{"errors": []any{}}, "Error logging in"},
		{"non-string message falls back", map[string]any{"message": 42}, "Error logging in"},
		{"plain text falls back", "not json", "Error logging in"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := apitest.New(t)
			srv.Override(http.MethodPost, "/auth/login", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				if s, ok := tt.body.(string); ok {
					_, _ = w.Write([]byte(s))
					return
				}
				_ = json.NewEncoder(w).Encode(tt.body)
			})
			c := newClient(t, srv, nil)

			_, err := c.Login(context.Background(), core.Credentials{Email: "a@b.c", Password: "x"})
			require.Error(t, err)
			assert.Equal(t, tt.want, remote.MessageOf(err, "unused"))
		})
	}
}

func TestTransportFailureUsesFallback(t *testing.T) {
	srv := apitest.New(t)
	base := srv.BaseURL()
	srv.Close()

	c, err := rest.New(base, nil)
	require.NoError(t, err)

	_, err = c.ListExpenses(context.Background())
	var re *remote.RequestError
	require.ErrorAs(t, err, &re)
	assert.Zero(t, re.Status)
	assert.Equal(t, "Error fetching expenses", re.Message)
	assert.NotNil(t, errors.Unwrap(err))
	assert.False(t, remote.IsUnauthorized(err))
}

func TestSingleAttemptPerCall(t *testing.T) {
	srv := apitest.New(t)
	srv.Fail(http.MethodGet, "/expenses", http.StatusInternalServerError, map[string]string{})
	c := newClient(t, srv, &tokenBox{tok: "t"})

	_, err := c.ListExpenses(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Error fetching expenses", remote.MessageOf(err, ""))
	assert.Equal(t, 1, srv.Calls(http.MethodGet, "/expenses"))
}

func TestRequestIDGenerator(t *testing.T) {
	srv := apitest.New(t)
	c, err := rest.New(srv.BaseURL(), nil, rest.WithRequestIDs(func() string { return "fixed-id" }))
	require.NoError(t, err)

	_, _ = c.Login(context.Background(), core.Credentials{Email: "nobody@example.com", Password: "x"})
	calls := srv.Log()
	require.Len(t, calls, 1)
	assert.Equal(t, "fixed-id", calls[0].RequestID)
}
