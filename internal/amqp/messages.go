package amqp

import (
	"encoding/json"
	"time"

	"kopilka/internal/core"
)

// Event kinds published on the expense events queue.
const (
	KindExpenseRecorded = "expense.recorded"
	KindExpenseDeleted  = "expense.deleted"
)

// ExpenseEvent is a lightweight notification for downstream consumers (the
// chat layer, audit tooling). It carries ids only; consumers fetch details
// from storage if they need them.
type ExpenseEvent struct {
	Kind      string       `json:"kind"`
	ID        int64        `json:"id"`
	Group     core.GroupID `json:"group"`
	Timestamp time.Time    `json:"timestamp"`
}

func NewExpenseRecordedEvent(id int64, group core.GroupID) *ExpenseEvent {
	return &ExpenseEvent{
		Kind:      KindExpenseRecorded,
		ID:        id,
		Group:     group,
		Timestamp: time.Now(),
	}
}

func NewExpenseDeletedEvent(id int64, group core.GroupID) *ExpenseEvent {
	return &ExpenseEvent{
		Kind:      KindExpenseDeleted,
		ID:        id,
		Group:     group,
		Timestamp: time.Now(),
	}
}

func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var e ExpenseEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
