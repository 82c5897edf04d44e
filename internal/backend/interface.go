package backend

import (
	"context"

	"budgetbuddy/internal/events"
	"budgetbuddy/internal/remote"
	"budgetbuddy/internal/services"
)

// CleanupFunc releases resources opened by the factory.
type CleanupFunc func() error

// BackendResult bundles everything the front-end talks to.
type BackendResult struct {
	// Remote is the raw API (or offline stand-in). Auth calls go through it.
	Remote remote.Remote
	// Expenses and Budgets wrap Remote and announce changes on Events.
	Expenses *services.ExpenseService
	Budgets  *services.BudgetService
	Events   *events.Bus
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, cfg Config, tokens remote.TokenSource) (*BackendResult, error)
}
