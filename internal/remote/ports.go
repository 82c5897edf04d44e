package remote

import (
	"context"

	"budgetbuddy/internal/core"
)

// Ports for the remote expense API.
type (
	ExpenseLister interface {
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}

	ExpenseCreator interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	}

	// ExpenseUpdater replaces an existing expense. No view calls it today.
	ExpenseUpdater interface {
		UpdateExpense(ctx context.Context, id string, e core.Expense) (core.Expense, error)
	}

	ExpenseDeleter interface {
		DeleteExpense(ctx context.Context, id string) error
	}

	// BudgetReader returns the active budget: the first record the API lists,
	// or a zero budget when there is none.
	BudgetReader interface {
		Budget(ctx context.Context) (core.Budget, error)
	}

	BudgetWriter interface {
		SetBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	}

	Authenticator interface {
		Register(ctx context.Context, r core.Registration) (core.AuthToken, error)
		Login(ctx context.Context, c core.Credentials) (core.AuthToken, error)
		CurrentUser(ctx context.Context) (core.User, error)
	}

	Expenses interface {
		ExpenseLister
		ExpenseCreator
		ExpenseUpdater
		ExpenseDeleter
	}

	Budgets interface {
		BudgetReader
		BudgetWriter
	}

	// Remote is everything the client needs from the backend.
	Remote interface {
		Expenses
		Budgets
		Authenticator
	}

	// TokenSource supplies the credential attached to each request; an empty
	// string means no credential.
	TokenSource interface {
		Token() string
	}
)

// StaticToken is a fixed TokenSource.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }
