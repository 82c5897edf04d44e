package expenselist_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbuddy/internal/apitest"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/remote"
	"budgetbuddy/internal/remote/rest"
	"budgetbuddy/internal/view"
	"budgetbuddy/internal/view/expenselist"
	"budgetbuddy/internal/view/viewtest"
)

func exp(id string, amount float64, cat core.Category, desc string, day int) core.Expense {
	return core.Expense{
		ID:          id,
		Amount:      core.MoneyFromFloat(amount),
		Category:    cat,
		Description: desc,
		Date:        core.NewDate(2023, 8, day),
	}
}

func sample() []core.Expense {
	return []core.Expense{
		exp("1", 150, core.Food, "Grocery shopping", 15),
		exp("2", 50, core.Transportation, "Gas", 14),
		exp("3", 200, core.Education, "Books", 10),
		exp("4", 100, core.Entertainment, "Movie night", 8),
		exp("5", 120, core.Food, "Dining out", 3),
	}
}

func ids(list []core.Expense) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.ID
	}
	return out
}

func TestSortDefaultsAndToggling(t *testing.T) {
	v := expenselist.New(nil)
	m := v.View()
	assert.Equal(t, expenselist.ColumnDate, m.SortBy)
	assert.Equal(t, expenselist.Desc, m.SortDir)
	assert.Equal(t, "↓", m.Indicators[expenselist.ColumnDate])
	assert.Equal(t, "", m.Indicators[expenselist.ColumnAmount])

	v.ToggleSort(expenselist.ColumnDate)
	assert.Equal(t, "↑", v.SortIndicator(expenselist.ColumnDate))

	v.ToggleSort(expenselist.ColumnAmount)
	assert.Equal(t, "↑", v.SortIndicator(expenselist.ColumnAmount), "new column starts ascending")
	assert.Equal(t, "", v.SortIndicator(expenselist.ColumnDate))

	v.ToggleSort(expenselist.ColumnAmount)
	assert.Equal(t, "↓", v.SortIndicator(expenselist.ColumnAmount))
}

func TestSortColumns(t *testing.T) {
	list := sample()
	tests := []struct {
		by   expenselist.Column
		dir  expenselist.Direction
		want []string
	}{
		{expenselist.ColumnDate, expenselist.Desc, []string{"1", "2", "3", "4", "5"}},
		{expenselist.ColumnDate, expenselist.Asc, []string{"5", "4", "3", "2", "1"}},
		{expenselist.ColumnAmount, expenselist.Asc, []string{"2", "4", "5", "1", "3"}},
		{expenselist.ColumnAmount, expenselist.Desc, []string{"3", "1", "5", "4", "2"}},
		{expenselist.ColumnDescription, expenselist.Asc, []string{"3", "5", "2", "1", "4"}},
		// Equal categories keep fetch order in both directions.
		{expenselist.ColumnCategory, expenselist.Asc, []string{"3", "4", "1", "5", "2"}},
		{expenselist.ColumnCategory, expenselist.Desc, []string{"2", "1", "5", "4", "3"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.by)+"_"+tt.dir.String(), func(t *testing.T) {
			got := expenselist.Sort(list, tt.by, tt.dir)
			assert.Equal(t, tt.want, ids(got))
		})
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(list), "input untouched")
}

func TestSortIsCaseInsensitiveForText(t *testing.T) {
	list := []core.Expense{
		exp("a", 1, core.Other, "banana", 1),
		exp("b", 1, core.Other, "Apple", 1),
		exp("c", 1, core.Other, "cherry", 1),
	}
	got := expenselist.Sort(list, expenselist.ColumnDescription, expenselist.Asc)
	assert.Equal(t, []string{"b", "a", "c"}, ids(got))
}

func TestFilter(t *testing.T) {
	list := sample()
	assert.Equal(t, []string{"1", "5"}, ids(expenselist.Filter(list, "", "food")))
	assert.Equal(t, []string{"1"}, ids(expenselist.Filter(list, "GROC", expenselist.FilterAll)))
	assert.Equal(t, []string{"4"}, ids(expenselist.Filter(list, "night", "Entertainment")))
	assert.Empty(t, expenselist.Filter(list, "books", "Food"))
	assert.Len(t, expenselist.Filter(list, "", expenselist.FilterAll), 5)
}

type env struct {
	srv   *apitest.Server
	sched *viewtest.Scheduler
	exp   *viewtest.Expirer
	view  *expenselist.View
	saved []core.Expense
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := apitest.New(t)
	tok := srv.SignUp(t, "Asha", "asha@example.com", "pw")
	saved := srv.Seed(t, tok, sample()...)

	client, err := rest.New(srv.BaseURL(), remote.StaticToken(tok))
	require.NoError(t, err)

	e := &env{srv: srv, sched: viewtest.New(), exp: &viewtest.Expirer{}, saved: saved}
	e.view = expenselist.New(client, expenselist.WithScheduler(e.sched), expenselist.WithExpirer(e.exp))
	return e
}

func TestLoadAndProject(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.view.Load(context.Background()))

	e.view.SetFilter("Food")
	m := e.view.View()
	require.Len(t, m.Rows, 2)
	assert.Equal(t, "Grocery shopping", m.Rows[0].Description, "date descending")
	assert.Equal(t, "Aug 15, 2023", m.Rows[0].Date)
	assert.Equal(t, "₹150.00", m.Rows[0].Amount)
	assert.Equal(t, "🍔", m.Rows[0].Icon)
	assert.Equal(t, "₹270.00", m.Total, "total covers the filtered subset")
	assert.True(t, e.view.Total().Equal(core.MoneyFromFloat(270)))

	e.view.SetSearch("zzz")
	m = e.view.View()
	assert.Empty(t, m.Rows)
	assert.Equal(t, expenselist.MsgEmpty, m.Empty)
	assert.Equal(t, "₹0.00", m.Total)

	e.view.SetFilter("")
	assert.Equal(t, expenselist.FilterAll, e.view.View().Filter)
}

func TestLoadFailure(t *testing.T) {
	e := newEnv(t)
	e.srv.Fail(http.MethodGet, "/expenses", http.StatusInternalServerError, map[string]string{"msg": "Server Error"})

	require.Error(t, e.view.Load(context.Background()))
	m := e.view.View()
	assert.Equal(t, expenselist.MsgLoadFailed, m.Error)
	assert.False(t, m.Loading)
	assert.Zero(t, e.exp.Count())
}

func TestLoadUnauthorizedExpiresSession(t *testing.T) {
	e := newEnv(t)
	e.srv.Fail(http.MethodGet, "/expenses", http.StatusUnauthorized, map[string]string{"msg": "Token is not valid"})

	require.Error(t, e.view.Load(context.Background()))
	assert.Equal(t, 1, e.exp.Count())
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.view.Load(ctx))
	target := e.saved[1].ID

	require.NoError(t, e.view.RequestDelete(target))
	m := e.view.View()
	require.NotNil(t, m.Confirm)
	assert.Equal(t, "Gas", m.Confirm.Description)

	e.view.CancelDelete()
	assert.Nil(t, e.view.View().Confirm)
	assert.Zero(t, e.srv.Calls(http.MethodDelete, "/expenses/{id}"), "no delete without confirmation")

	assert.ErrorIs(t, e.view.ConfirmDelete(ctx), expenselist.ErrNoPendingDelete)
	assert.ErrorIs(t, e.view.RequestDelete("missing"), expenselist.ErrUnknownExpense)
	assert.Zero(t, e.srv.Calls(http.MethodDelete, "/expenses/{id}"))
}

func TestConfirmedDeleteRefetchesOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.view.Load(ctx))
	listCalls := e.srv.Calls(http.MethodGet, "/expenses")

	require.NoError(t, e.view.RequestDelete(e.saved[1].ID))
	require.NoError(t, e.view.ConfirmDelete(ctx))

	assert.Equal(t, 1, e.srv.Calls(http.MethodDelete, "/expenses/{id}"))
	assert.Equal(t, listCalls+1, e.srv.Calls(http.MethodGet, "/expenses"), "exactly one re-fetch")

	m := e.view.View()
	assert.Nil(t, m.Confirm)
	assert.Len(t, m.Rows, 4)
	require.NotNil(t, m.Notice)
	assert.Equal(t, expenselist.MsgDeleted, m.Notice.Text)

	e.sched.Advance(view.NoticeDuration - time.Millisecond)
	assert.NotNil(t, e.view.View().Notice)
	e.sched.Advance(time.Millisecond)
	assert.Nil(t, e.view.View().Notice)
}

func TestDeleteFailureKeepsModalOpen(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.view.Load(ctx))
	listCalls := e.srv.Calls(http.MethodGet, "/expenses")
	e.srv.Fail(http.MethodDelete, "/expenses/{id}", http.StatusInternalServerError, map[string]string{})

	require.NoError(t, e.view.RequestDelete(e.saved[0].ID))
	require.Error(t, e.view.ConfirmDelete(ctx))

	m := e.view.View()
	assert.Equal(t, expenselist.MsgDeleteFailed, m.Error)
	assert.NotNil(t, m.Confirm)
	assert.Nil(t, m.Notice)
	assert.Len(t, m.Rows, 5)
	assert.Equal(t, listCalls, e.srv.Calls(http.MethodGet, "/expenses"), "no re-fetch after a failed delete")
}

// gatedStore holds each delete until release is closed.
type gatedStore struct {
	started chan struct{}
	release chan struct{}
	deletes atomic.Int32
	lists   atomic.Int32
}

func (g *gatedStore) ListExpenses(context.Context) ([]core.Expense, error) {
	g.lists.Add(1)
	return sample(), nil
}

func (g *gatedStore) DeleteExpense(context.Context, string) error {
	g.deletes.Add(1)
	g.started <- struct{}{}
	<-g.release
	return nil
}

func TestSecondConfirmWhileDeletingIsRejected(t *testing.T) {
	store := &gatedStore{started: make(chan struct{}, 2), release: make(chan struct{})}
	v := expenselist.New(store, expenselist.WithScheduler(viewtest.New()))
	ctx := context.Background()
	require.NoError(t, v.Load(ctx))
	require.NoError(t, v.RequestDelete("2"))

	var wg sync.WaitGroup
	var first error
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = v.ConfirmDelete(ctx)
	}()
	<-store.started

	m := v.View()
	assert.True(t, m.Busy)
	require.NotNil(t, m.Confirm)
	assert.ErrorIs(t, v.ConfirmDelete(ctx), expenselist.ErrDeleteInFlight)
	assert.ErrorIs(t, v.RequestDelete("3"), expenselist.ErrDeleteInFlight)
	v.CancelDelete()
	assert.NotNil(t, v.View().Confirm, "cancel ignored while deleting")

	close(store.release)
	wg.Wait()
	require.NoError(t, first)

	assert.EqualValues(t, 1, store.deletes.Load())
	assert.EqualValues(t, 2, store.lists.Load(), "initial load plus one re-fetch")
	m = v.View()
	assert.False(t, m.Busy)
	assert.Nil(t, m.Confirm)
	assert.ErrorIs(t, v.ConfirmDelete(ctx), expenselist.ErrNoPendingDelete)
}
