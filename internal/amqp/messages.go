package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// EventType names what happened to an expense.
type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseDeleted EventType = "expense.deleted"
)

// ExpensePayload is the wire form of a stored expense.
type ExpensePayload struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    *string         `json:"category"`
	Description *string         `json:"description"`
	Date        core.Date       `json:"date"`
}

// ExpenseEvent is published after a successful write. Created events carry
// the full row so consumers never need to read the database; deleted
// events carry only the id.
type ExpenseEvent struct {
	Type       EventType       `json:"type"`
	ID         int64           `json:"id"`
	Expense    *ExpensePayload `json:"expense"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// NewExpenseCreatedEvent snapshots a stored expense.
func NewExpenseCreatedEvent(e core.Expense) *ExpenseEvent {
	return &ExpenseEvent{
		Type: EventExpenseCreated,
		ID:   e.ID,
		Expense: &ExpensePayload{
			ID:          e.ID,
			Amount:      e.Amount,
			Category:    e.Category,
			Description: e.Description,
			Date:        e.Date,
		},
		OccurredAt: time.Now().UTC(),
	}
}

// NewExpenseDeletedEvent announces a delete by id.
func NewExpenseDeletedEvent(id int64) *ExpenseEvent {
	return &ExpenseEvent{
		Type:       EventExpenseDeleted,
		ID:         id,
		OccurredAt: time.Now().UTC(),
	}
}

// CoreExpense converts the payload back to the domain type.
func (p *ExpensePayload) CoreExpense() core.Expense {
	return core.Expense{
		ID:          p.ID,
		Amount:      p.Amount,
		Category:    p.Category,
		Description: p.Description,
		Date:        p.Date,
	}
}

// ToJSON converts the event to JSON bytes
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON decodes and sanity-checks an event.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var evt ExpenseEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	switch evt.Type {
	case EventExpenseCreated:
		if evt.Expense == nil {
			return nil, fmt.Errorf("%s event %d has no expense payload", evt.Type, evt.ID)
		}
	case EventExpenseDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", evt.Type)
	}
	return &evt, nil
}
