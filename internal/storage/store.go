// Package storage defines the query contract the reporting core requires
// from a persistence backend. The abstraction allows swapping backends
// (SQLite, PostgreSQL) without touching the aggregation or service layers.
package storage

import (
	"context"
	"errors"
	"time"

	"kopilka/internal/core"
)

// ErrNotFound is returned by mutations and lookups that reference a row that
// does not exist (or no longer exists).
var ErrNotFound = errors.New("not found")

// CategoryTotal is one row of a per-category aggregate, already summed and
// ordered by the backend.
type CategoryTotal struct {
	Amount   core.Money
	Category core.Category
}

// Item is one unaggregated expense row, carrying the storage id so a later
// command can delete or recategorize it.
type Item struct {
	ID       int64
	Amount   core.Money
	Category core.Category
	User     core.UserID
	Comment  string
}

// DayRow is a per-calendar-day, per-category, per-user total used by the
// trend report, which re-buckets days into billing months itself.
type DayRow struct {
	Date     time.Time
	Amount   core.Money
	Category core.Category
	User     core.UserID
}

// Ledger is the read/write contract for expense rows. Every operation is
// scoped to a single group; returning another group's rows is a correctness
// bug, not a missing filter. Reads honor req.All: false restricts rows to
// req.User, true returns the whole group.
type Ledger interface {
	// InsertExpense persists a new expense and returns the assigned id.
	// The creation timestamp is assigned by the backend.
	InsertExpense(ctx context.Context, e core.Expense) (int64, error)

	// DeleteExpense removes an expense by id. Returns ErrNotFound if no such
	// row exists.
	DeleteExpense(ctx context.Context, id int64) error

	// MoveExpense reassigns an expense to another category. Returns
	// ErrNotFound if no such row exists.
	MoveExpense(ctx context.Context, id int64, newCategory core.CategoryID) error

	// TotalsByCategory returns per-category sums for expenses created on or
	// after start, ordered by req.Ordering.
	TotalsByCategory(ctx context.Context, start time.Time, req core.ReportRequest) ([]CategoryTotal, error)

	// Itemized returns every matching expense row created on or after start,
	// ordered by req.Ordering. Row order is the display order.
	Itemized(ctx context.Context, start time.Time, req core.ReportRequest) ([]Item, error)

	// DailyTotals returns the group's full history as per-day, per-category,
	// per-user sums in ascending calendar order. It is deliberately not
	// time-filtered: trend bucketing needs every month ever recorded.
	DailyTotals(ctx context.Context, group core.GroupID) ([]DayRow, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Directory is the user/group/category bookkeeping collaborators use to
// resolve display names and memberships. The aggregation engine never calls
// it.
type Directory interface {
	// RegisterUser records a user id on first contact. Idempotent.
	RegisterUser(ctx context.Context, user core.UserID) error

	// CreateGroup creates a group and adds the creator as its first member.
	CreateGroup(ctx context.Context, creator core.UserID, name string) (core.GroupID, error)

	// DeleteGroup soft-deletes a group. Its expenses and categories are kept
	// for history but the group disappears from UserGroups.
	DeleteGroup(ctx context.Context, id core.GroupID) error

	// AddMember and RemoveMember maintain the user/group relation.
	AddMember(ctx context.Context, group core.GroupID, user core.UserID) error
	RemoveMember(ctx context.Context, group core.GroupID, user core.UserID) error

	// UserGroups lists the active groups a user belongs to.
	UserGroups(ctx context.Context, user core.UserID) ([]core.Group, error)

	// InsertCategory creates a category, reactivating and replacing an
	// existing one with the same name in the group.
	InsertCategory(ctx context.Context, group core.GroupID, name string) error

	// DeleteCategory soft-deletes a category, preserving the links of
	// historical expenses.
	DeleteCategory(ctx context.Context, id core.CategoryID, group core.GroupID) error

	// Categories lists the group's active categories.
	Categories(ctx context.Context, group core.GroupID) ([]core.Category, error)
}

// Store is the full backend surface: one conforming implementation per
// storage technology.
type Store interface {
	Ledger
	Directory
}
