package services

import (
	"context"
	"fmt"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/events"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/remote"
)

// ExpenseService calls the remote API and then announces the change. The
// remote call decides success; a failed announcement is only logged.
type ExpenseService struct {
	remote    remote.Expenses
	publisher events.Publisher
	logger    *log.Logger
}

func NewExpenseService(r remote.Expenses, publisher events.Publisher, logger *log.Logger) *ExpenseService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		remote:    r,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentExpense),
	}
}

func (s *ExpenseService) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	list, err := s.remote.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return list, nil
}

func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	created, err := s.remote.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense created", log.NewFields().
		WithOperation(log.OpCreate).
		WithExpense(created.ID, created.Description, created.Amount.String(), string(created.Category)).
		ToSlice()...)

	s.publish(ctx, expenseEvent(events.ExpenseCreated, created))
	return created, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, id string, e core.Expense) (core.Expense, error) {
	updated, err := s.remote.UpdateExpense(ctx, id, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", id, err)
	}
	if updated.ID == "" {
		updated.ID = id
	}
	s.publish(ctx, expenseEvent(events.ExpenseUpdated, updated))
	return updated, nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.remote.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Expense deleted",
		log.FieldOperation, log.OpDelete, log.FieldExpenseID, id)

	ev := events.New(events.ExpenseDeleted)
	ev.ExpenseID = id
	s.publish(ctx, ev)
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			log.FieldEvent, string(e.Kind), log.FieldError, err)
	}
}

func expenseEvent(kind events.Kind, e core.Expense) events.Event {
	ev := events.New(kind)
	ev.ExpenseID = e.ID
	ev.Amount = e.Amount.StringFixed(2)
	ev.Category = string(e.Category)
	ev.Description = e.Description
	return ev
}

var _ remote.Expenses = (*ExpenseService)(nil)
