package services

import (
	"log/slog"
	"sync"

	"kopilka/internal/amqp"
)

// EventAuditor consumes expense lifecycle events and writes an audit trail to
// the log. It is the handler behind the worker binary's consume loop.
type EventAuditor struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewEventAuditor() *EventAuditor {
	return &EventAuditor{counts: make(map[string]int)}
}

// Handle processes one event. Unknown kinds are logged and dropped rather
// than requeued; requeueing them would loop forever.
func (a *EventAuditor) Handle(event *amqp.ExpenseEvent) error {
	switch event.Kind {
	case amqp.KindExpenseRecorded, amqp.KindExpenseDeleted:
		slog.Info("Expense event",
			"kind", event.Kind,
			"id", event.ID,
			"group", event.Group,
			"at", event.Timestamp)
	default:
		slog.Warn("Unknown expense event kind", "kind", event.Kind, "id", event.ID)
	}

	a.mu.Lock()
	a.counts[event.Kind]++
	a.mu.Unlock()
	return nil
}

// Counts returns a snapshot of how many events of each kind were handled.
func (a *EventAuditor) Counts() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]int, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}
