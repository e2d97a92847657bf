package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kopilka/internal/core"
	"kopilka/internal/storage"
)

// Runs only against a real database, pointed at by TEST_POSTGRES_DSN.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	store, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RegisterUser(ctx, 1))
	group, err := store.CreateGroup(ctx, 1, "pg-roundtrip")
	require.NoError(t, err)
	t.Cleanup(func() { store.DeleteGroup(ctx, group) })

	require.NoError(t, store.InsertCategory(ctx, group, "food"))
	cats, err := store.Categories(ctx, group)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	id, err := store.InsertExpense(ctx, core.Expense{
		Amount:   core.Money{Units: 250},
		Category: cats[0],
		User:     1,
		Group:    group,
		Comment:  "lunch",
	})
	require.NoError(t, err)

	since := time.Now().AddDate(0, 0, -1)
	req := core.ReportRequest{User: 1, Group: group, All: true, Ordering: core.OrderByDate}

	totals, err := store.TotalsByCategory(ctx, since, req)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, int64(250), totals[0].Amount.Units)

	items, err := store.Itemized(ctx, since, req)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, "lunch", items[0].Comment)

	days, err := store.DailyTotals(ctx, group)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, int64(250), days[0].Amount.Units)

	require.NoError(t, store.DeleteExpense(ctx, id))
	err = store.DeleteExpense(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
