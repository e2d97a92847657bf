package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kopilka/internal/core"
	"kopilka/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func mustCategory(t *testing.T, store *SQLiteStore, group core.GroupID, name string) core.Category {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.InsertCategory(ctx, group, name))
	cats, err := store.Categories(ctx, group)
	require.NoError(t, err)
	for _, c := range cats {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("category %q not found after insert", name)
	return core.Category{}
}

func seedGroup(t *testing.T, store *SQLiteStore) core.GroupID {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.RegisterUser(ctx, 1))
	require.NoError(t, store.RegisterUser(ctx, 2))
	group, err := store.CreateGroup(ctx, 1, "family")
	require.NoError(t, err)
	require.NoError(t, store.AddMember(ctx, group, 2))
	return group
}

// since is a query window that always includes rows created during the test.
var since = time.Now().AddDate(0, 0, -1)

func TestDirectory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("register user is idempotent", func(t *testing.T) {
		require.NoError(t, store.RegisterUser(ctx, 1))
		require.NoError(t, store.RegisterUser(ctx, 1))
	})

	t.Run("create group adds creator as member", func(t *testing.T) {
		group, err := store.CreateGroup(ctx, 1, "trip")
		require.NoError(t, err)

		groups, err := store.UserGroups(ctx, 1)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, group, groups[0].ID)
		assert.Equal(t, "trip", groups[0].Name)
	})

	t.Run("soft-deleted group disappears from listings", func(t *testing.T) {
		group, err := store.CreateGroup(ctx, 1, "old")
		require.NoError(t, err)
		require.NoError(t, store.DeleteGroup(ctx, group))

		groups, err := store.UserGroups(ctx, 1)
		require.NoError(t, err)
		for _, g := range groups {
			assert.NotEqual(t, group, g.ID)
		}
	})

	t.Run("removed member no longer lists the group", func(t *testing.T) {
		require.NoError(t, store.RegisterUser(ctx, 5))
		group, err := store.CreateGroup(ctx, 1, "shared")
		require.NoError(t, err)
		require.NoError(t, store.AddMember(ctx, group, 5))
		require.NoError(t, store.RemoveMember(ctx, group, 5))

		groups, err := store.UserGroups(ctx, 5)
		require.NoError(t, err)
		assert.Empty(t, groups)
	})

	t.Run("empty group name rejected", func(t *testing.T) {
		_, err := store.CreateGroup(ctx, 1, "  ")
		assert.ErrorIs(t, err, core.ErrEmptyName)
	})
}

func TestCategories(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store)

	food := mustCategory(t, store, group, "food")
	mustCategory(t, store, group, "transport")

	t.Run("soft delete hides from active set", func(t *testing.T) {
		require.NoError(t, store.DeleteCategory(ctx, food.ID, group))

		cats, err := store.Categories(ctx, group)
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, "transport", cats[0].Name)
	})

	t.Run("insert same name reactivates instead of duplicating", func(t *testing.T) {
		require.NoError(t, store.InsertCategory(ctx, group, "food"))

		cats, err := store.Categories(ctx, group)
		require.NoError(t, err)
		require.Len(t, cats, 2)
	})

	t.Run("delete unknown category", func(t *testing.T) {
		err := store.DeleteCategory(ctx, 9999, group)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestExpenseQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := seedGroup(t, store)

	food := mustCategory(t, store, group, "food")
	rent := mustCategory(t, store, group, "rent")

	insert := func(amount int64, cat core.Category, user core.UserID, comment string) int64 {
		id, err := store.InsertExpense(ctx, core.Expense{
			Amount:   core.Money{Units: amount},
			Category: cat,
			User:     user,
			Group:    group,
			Comment:  comment,
		})
		require.NoError(t, err)
		return id
	}

	foodID := insert(100, food, 1, "groceries")
	insert(150, food, 1, "")
	insert(900, rent, 2, "")

	// A second group to prove scoping: its rows must never leak.
	other, err := store.CreateGroup(ctx, 2, "other")
	require.NoError(t, err)
	otherCat := mustCategory(t, store, other, "food")
	_, err = store.InsertExpense(ctx, core.Expense{
		Amount:   core.Money{Units: 7777},
		Category: otherCat,
		User:     2,
		Group:    other,
	})
	require.NoError(t, err)

	t.Run("totals for the whole group", func(t *testing.T) {
		totals, err := store.TotalsByCategory(ctx, since, core.ReportRequest{
			User: 1, Group: group, All: true, Ordering: core.OrderByCategory,
		})
		require.NoError(t, err)
		require.Len(t, totals, 2)
		// Ordered by category name.
		assert.Equal(t, "food", totals[0].Category.Name)
		assert.Equal(t, int64(250), totals[0].Amount.Units)
		assert.Equal(t, "rent", totals[1].Category.Name)
		assert.Equal(t, int64(900), totals[1].Amount.Units)
	})

	t.Run("own totals exclude other members", func(t *testing.T) {
		totals, err := store.TotalsByCategory(ctx, since, core.ReportRequest{
			User: 1, Group: group, All: false, Ordering: core.OrderByCategory,
		})
		require.NoError(t, err)
		require.Len(t, totals, 1)
		assert.Equal(t, "food", totals[0].Category.Name)
		assert.Equal(t, int64(250), totals[0].Amount.Units)
	})

	t.Run("itemized carries ids and comments", func(t *testing.T) {
		items, err := store.Itemized(ctx, since, core.ReportRequest{
			User: 1, Group: group, All: false, Ordering: core.OrderByDate,
		})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, foodID, items[0].ID)
		assert.Equal(t, "groceries", items[0].Comment)
		assert.Equal(t, core.UserID(1), items[0].User)
	})

	t.Run("own itemized never references other members", func(t *testing.T) {
		items, err := store.Itemized(ctx, since, core.ReportRequest{
			User: 2, Group: group, All: false, Ordering: core.OrderByDate,
		})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "rent", items[0].Category.Name)
	})

	t.Run("daily totals cover the group only", func(t *testing.T) {
		days, err := store.DailyTotals(ctx, group)
		require.NoError(t, err)
		require.NotEmpty(t, days)
		var sum int64
		for _, d := range days {
			sum += d.Amount.Units
		}
		assert.Equal(t, int64(1150), sum)
		for i := 1; i < len(days); i++ {
			assert.False(t, days[i].Date.Before(days[i-1].Date), "dates must ascend")
		}
	})

	t.Run("move reassigns category", func(t *testing.T) {
		require.NoError(t, store.MoveExpense(ctx, foodID, rent.ID))

		totals, err := store.TotalsByCategory(ctx, since, core.ReportRequest{
			User: 1, Group: group, All: true, Ordering: core.OrderByCategory,
		})
		require.NoError(t, err)
		require.Len(t, totals, 2)
		assert.Equal(t, int64(150), totals[0].Amount.Units)  // food
		assert.Equal(t, int64(1000), totals[1].Amount.Units) // rent
	})

	t.Run("delete removes from subsequent queries", func(t *testing.T) {
		require.NoError(t, store.DeleteExpense(ctx, foodID))

		items, err := store.Itemized(ctx, since, core.ReportRequest{
			User: 1, Group: group, All: true, Ordering: core.OrderByDate,
		})
		require.NoError(t, err)
		for _, it := range items {
			assert.NotEqual(t, foodID, it.ID)
		}
	})

	t.Run("delete unknown expense", func(t *testing.T) {
		err := store.DeleteExpense(ctx, 99999)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("invalid expense rejected", func(t *testing.T) {
		_, err := store.InsertExpense(ctx, core.Expense{Group: group, User: 1})
		assert.ErrorIs(t, err, core.ErrInvalidAmount)
	})
}
