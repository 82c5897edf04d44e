package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/events"
	"budgetbuddy/internal/remote"
	"budgetbuddy/internal/remote/memory"
)

type recorder struct {
	got []events.Event
	err error
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.got = append(r.got, e)
	return r.err
}

func newRemote(t *testing.T) *memory.Remote {
	t.Helper()
	b := memory.NewBackend()
	tok, err := b.Register("Asha", "asha@example.com", "pw")
	require.NoError(t, err)
	return memory.New(b, remote.StaticToken(tok))
}

func lunch() core.Expense {
	return core.Expense{
		Amount:      core.MoneyFromFloat(12.5),
		Category:    core.Food,
		Description: "Lunch",
		Date:        core.NewDate(2024, 6, 1),
	}
}

func TestNewExpenseServiceDefaults(t *testing.T) {
	service := NewExpenseService(nil, nil, nil)
	require.NotNil(t, service)
	assert.NotNil(t, service.publisher)
	assert.NotNil(t, service.logger)
}

func TestExpenseService_CreatePublishes(t *testing.T) {
	rec := &recorder{}
	service := NewExpenseService(newRemote(t), rec, nil)

	created, err := service.CreateExpense(context.Background(), lunch())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	require.Len(t, rec.got, 1)
	ev := rec.got[0]
	assert.Equal(t, events.ExpenseCreated, ev.Kind)
	assert.Equal(t, created.ID, ev.ExpenseID)
	assert.Equal(t, "12.50", ev.Amount)
	assert.Equal(t, "Food", ev.Category)
}

func TestExpenseService_PublishFailureIsNotFatal(t *testing.T) {
	rec := &recorder{err: errors.New("broker down")}
	service := NewExpenseService(newRemote(t), rec, nil)
	ctx := context.Background()

	created, err := service.CreateExpense(ctx, lunch())
	require.NoError(t, err)

	require.NoError(t, service.DeleteExpense(ctx, created.ID))
	assert.Len(t, rec.got, 2)
}

func TestExpenseService_RemoteFailureSkipsEvent(t *testing.T) {
	rec := &recorder{}
	service := NewExpenseService(memory.New(memory.NewBackend(), nil), rec, nil)

	_, err := service.CreateExpense(context.Background(), lunch())
	require.Error(t, err)
	assert.True(t, remote.IsUnauthorized(err), "wrapping keeps the request error reachable")
	assert.Empty(t, rec.got)
}

func TestExpenseService_UpdateAndDelete(t *testing.T) {
	rec := &recorder{}
	service := NewExpenseService(newRemote(t), rec, nil)
	ctx := context.Background()

	created, err := service.CreateExpense(ctx, lunch())
	require.NoError(t, err)

	changed := lunch()
	changed.Description = "Team lunch"
	updated, err := service.UpdateExpense(ctx, created.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, "Team lunch", updated.Description)

	require.NoError(t, service.DeleteExpense(ctx, created.ID))

	list, err := service.ListExpenses(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	kinds := make([]events.Kind, 0, len(rec.got))
	for _, e := range rec.got {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []events.Kind{events.ExpenseCreated, events.ExpenseUpdated, events.ExpenseDeleted}, kinds)
}

func TestBudgetService(t *testing.T) {
	rec := &recorder{}
	service := NewBudgetService(newRemote(t), rec, nil)
	ctx := context.Background()

	b, err := service.Budget(ctx)
	require.NoError(t, err)
	assert.True(t, b.Amount.IsZero())

	saved, err := service.SetBudget(ctx, core.NewMonthlyBudget(core.MoneyFromFloat(900)))
	require.NoError(t, err)
	assert.True(t, saved.Amount.Equal(core.MoneyFromFloat(900)))

	require.Len(t, rec.got, 1)
	assert.Equal(t, events.BudgetUpdated, rec.got[0].Kind)
	assert.Equal(t, "900.00", rec.got[0].Amount)
}
