package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expensetracker/internal/core"
)

// Store is the persistence the service drives.
type Store interface {
	Create(ctx context.Context, e core.NewExpense) (core.Expense, error)
	List(ctx context.Context) ([]core.Expense, error)
	DeleteByID(ctx context.Context, id int64) error
	SummarizeByCategory(ctx context.Context) ([]core.CategoryTotal, error)
	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher announces committed writes to other processes.
type EventPublisher interface {
	PublishExpenseCreated(ctx context.Context, e core.Expense) error
	PublishExpenseDeleted(ctx context.Context, id int64) error
	Close() error
}

// ExpenseService orchestrates expense operations across the store and AMQP.
// Publishing is best effort: a write that reached the store is never
// reported as failed because the broker is unavailable.
type ExpenseService struct {
	store     Store
	publisher EventPublisher
}

// NewExpenseService builds a service; publisher may be nil.
func NewExpenseService(store Store, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
	}
}

// Create stores the expense and publishes an expense.created event.
func (s *ExpenseService) Create(ctx context.Context, e core.NewExpense) (core.Expense, error) {
	created, err := s.store.Create(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseCreated(ctx, created); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense event",
				"type", "expense.created", "expense_id", created.ID, "error", err)
		}
	}

	return created, nil
}

// List returns every expense, newest date first.
func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	expenses, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Delete removes id if present. The event is published either way so
// mirrors converge even if they missed the create.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishExpenseDeleted(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish expense event",
				"type", "expense.deleted", "expense_id", id, "error", err)
		}
	}

	return nil
}

// Summary totals amounts per category.
func (s *ExpenseService) Summary(ctx context.Context) ([]core.CategoryTotal, error) {
	totals, err := s.store.SummarizeByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize expenses: %w", err)
	}
	return totals, nil
}

func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close closes both storage and AMQP connections
func (s *ExpenseService) Close() error {
	var errs []error

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
