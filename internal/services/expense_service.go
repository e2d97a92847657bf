// Package services orchestrates expense mutations across the storage backend
// and the event publisher.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"kopilka/internal/amqp"
	"kopilka/internal/core"
	"kopilka/internal/report"
	"kopilka/internal/storage"
)

// ExpenseService writes expenses through the ledger and publishes lifecycle
// events. The publisher is optional: with a nil client everything still
// works, events are just skipped.
type ExpenseService struct {
	ledger storage.Ledger
	events *amqp.Client
}

func NewExpenseService(ledger storage.Ledger, events *amqp.Client) *ExpenseService {
	return &ExpenseService{
		ledger: ledger,
		events: events,
	}
}

// RecordExpense validates and persists an expense, then publishes a recorded
// event. A publish failure is logged, never surfaced: the expense is already
// saved.
func (s *ExpenseService) RecordExpense(ctx context.Context, e core.Expense) (int64, error) {
	e.Comment = strings.TrimSpace(e.Comment)
	if err := e.Validate(); err != nil {
		return 0, fmt.Errorf("validate expense: %w", err)
	}

	id, err := s.ledger.InsertExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"group", e.Group,
		"user", e.User,
		"category", e.Category.ID,
		"amount", e.Amount.Units)

	s.publish(ctx, amqp.NewExpenseRecordedEvent(id, e.Group))
	return id, nil
}

// DeleteExpense removes an expense by storage id and publishes a deleted
// event.
func (s *ExpenseService) DeleteExpense(ctx context.Context, group core.GroupID, id int64) error {
	if err := s.ledger.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id, "group", group)
	s.publish(ctx, amqp.NewExpenseDeletedEvent(id, group))
	return nil
}

// MoveExpense reassigns an expense to another category.
func (s *ExpenseService) MoveExpense(ctx context.Context, id int64, newCategory core.CategoryID) error {
	if err := s.ledger.MoveExpense(ctx, id, newCategory); err != nil {
		return fmt.Errorf("move expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense moved", "id", id, "category", newCategory)
	return nil
}

// DeleteBySequence deletes the expenses behind the given sequence numbers of
// a previously rendered list report. Stale or unknown references are skipped
// and reported in skipped; they never abort the remaining deletions. The
// index map must come from the most recent list render.
func (s *ExpenseService) DeleteBySequence(ctx context.Context, group core.GroupID, index report.IndexMap, seqs []int) (deleted, skipped []int, err error) {
	for _, seq := range seqs {
		id, ok := index.Resolve(seq)
		if !ok {
			slog.WarnContext(ctx, "Sequence number not in current report", "seq", seq)
			skipped = append(skipped, seq)
			continue
		}
		if err := s.DeleteExpense(ctx, group, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				slog.WarnContext(ctx, "Expense already gone", "seq", seq, "id", id)
				skipped = append(skipped, seq)
				continue
			}
			return deleted, skipped, err
		}
		deleted = append(deleted, seq)
	}
	return deleted, skipped, nil
}

// MoveBySequence recategorizes one expense referenced by sequence number.
// Returns storage.ErrNotFound for a stale reference.
func (s *ExpenseService) MoveBySequence(ctx context.Context, index report.IndexMap, seq int, newCategory core.CategoryID) error {
	id, ok := index.Resolve(seq)
	if !ok {
		return fmt.Errorf("sequence %d: %w", seq, storage.ErrNotFound)
	}
	return s.MoveExpense(ctx, id, newCategory)
}

func (s *ExpenseService) publish(ctx context.Context, event *amqp.ExpenseEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishExpenseEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"kind", event.Kind,
			"id", event.ID,
			"error", err)
	}
}

// Close closes storage and the event publisher.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}
	return nil
}
