package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/sheets/memory"
)

func TestMirrorWorker_CreateThenDelete(t *testing.T) {
	mirror := memory.New()
	w := NewMirrorWorker(mirror, nil)
	ctx := context.Background()

	e := core.Expense{
		ID:          4,
		Amount:      decimal.RequireFromString("9.99"),
		Description: core.StringPtr("lunch"),
		Date:        core.NewDate(2024, 6, 1),
	}

	require.NoError(t, w.HandleEvent(ctx, amqp.NewExpenseCreatedEvent(e)))
	require.NoError(t, w.HandleEvent(ctx, amqp.NewExpenseCreatedEvent(e)))
	require.Len(t, mirror.Rows(), 1)
	assert.Equal(t, []string{"4", "2024-06-01", "9.99", "", "lunch"}, mirror.Rows()[0])

	require.NoError(t, w.HandleEvent(ctx, amqp.NewExpenseDeletedEvent(4)))
	assert.Empty(t, mirror.Rows())
}

func TestMirrorWorker_UnknownTypeIsAcked(t *testing.T) {
	w := NewMirrorWorker(memory.New(), nil)
	err := w.HandleEvent(context.Background(), &amqp.ExpenseEvent{Type: "expense.updated", ID: 1})
	assert.NoError(t, err)
}

type failingMirror struct{}

func (failingMirror) AppendExpense(context.Context, core.Expense) (string, error) {
	return "", errors.New("quota exceeded")
}

func (failingMirror) DeleteExpense(context.Context, int64) error {
	return errors.New("quota exceeded")
}

func TestMirrorWorker_PropagatesMirrorErrors(t *testing.T) {
	w := NewMirrorWorker(failingMirror{}, nil)
	ctx := context.Background()

	err := w.HandleEvent(ctx, amqp.NewExpenseCreatedEvent(core.Expense{ID: 1}))
	assert.ErrorContains(t, err, "quota exceeded")

	err = w.HandleEvent(ctx, amqp.NewExpenseDeletedEvent(1))
	assert.ErrorContains(t, err, "quota exceeded")
}
