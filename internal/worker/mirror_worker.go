// Package worker applies expense events to the spreadsheet mirror.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/sheets"
)

// MirrorWorker keeps a sheets.Mirror in step with the expense table.
type MirrorWorker struct {
	mirror sheets.Mirror
	logger *slog.Logger
}

func NewMirrorWorker(mirror sheets.Mirror, logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorWorker{mirror: mirror, logger: logger}
}

// HandleEvent is an amqp.EventHandler. Errors cause the event to be
// redelivered, which is safe because mirror writes are idempotent.
func (w *MirrorWorker) HandleEvent(ctx context.Context, evt *amqp.ExpenseEvent) error {
	switch evt.Type {
	case amqp.EventExpenseCreated:
		ref, err := w.mirror.AppendExpense(ctx, evt.Expense.CoreExpense())
		if err != nil {
			return fmt.Errorf("mirror expense %d: %w", evt.ID, err)
		}
		w.logger.InfoContext(ctx, "Mirrored expense",
			"expense_id", evt.ID,
			"row", ref,
			"occurred_at", evt.OccurredAt)

	case amqp.EventExpenseDeleted:
		if err := w.mirror.DeleteExpense(ctx, evt.ID); err != nil {
			return fmt.Errorf("remove mirrored expense %d: %w", evt.ID, err)
		}
		w.logger.InfoContext(ctx, "Removed mirrored expense",
			"expense_id", evt.ID,
			"occurred_at", evt.OccurredAt)

	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event type", "type", evt.Type, "expense_id", evt.ID)
	}
	return nil
}
