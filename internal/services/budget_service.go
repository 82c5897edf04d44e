package services

import (
	"context"
	"fmt"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/events"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/remote"
)

// BudgetService mirrors ExpenseService for the single monthly budget.
type BudgetService struct {
	remote    remote.Budgets
	publisher events.Publisher
	logger    *log.Logger
}

func NewBudgetService(r remote.Budgets, publisher events.Publisher, logger *log.Logger) *BudgetService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &BudgetService{
		remote:    r,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentBudget),
	}
}

func (s *BudgetService) Budget(ctx context.Context) (core.Budget, error) {
	b, err := s.remote.Budget(ctx)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *BudgetService) SetBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	saved, err := s.remote.SetBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("set budget: %w", err)
	}

	s.logger.InfoContext(ctx, "Budget updated",
		log.FieldOperation, log.OpUpdate, log.FieldAmount, saved.Amount.StringFixed(2))

	ev := events.New(events.BudgetUpdated)
	ev.Amount = saved.Amount.StringFixed(2)
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			log.FieldEvent, string(ev.Kind), log.FieldError, err)
	}
	return saved, nil
}

var _ remote.Budgets = (*BudgetService)(nil)
