package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kopilka/internal/core"
	"kopilka/internal/storage"
)

var asOf = time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)

func TestFormatTotals(t *testing.T) {
	totals := NewTotals([]storage.CategoryTotal{
		{Amount: core.Money{Units: 1500}, Category: cat("food")},
		{Amount: core.Money{Units: 300}, Category: cat("transport")},
	})

	text, series := FormatTotals(totals, true, 10, asOf)

	// Totals stay in raw units.
	assert.Contains(t, text, "food: 1500\n")
	assert.Contains(t, text, "transport: 300\n")
	assert.Contains(t, text, "Total spent: 1800")
	assert.Contains(t, text, "Spent together since day 10 of the month through 05-03-2024")

	require.Len(t, series, 2)
	assert.Equal(t, 1500.0, series["food"])
}

func TestFormatTotalsEmpty(t *testing.T) {
	text, series := FormatTotals(NewTotals(nil), false, 10, asOf)

	assert.Contains(t, text, "Total spent: 0")
	assert.Contains(t, text, "You spent since day 10")
	assert.Empty(t, series)
}

func TestFormatList(t *testing.T) {
	list := NewIndexedList([]storage.Item{
		{ID: 7, Amount: core.Money{Units: 1500}, Category: cat("food"), Comment: "groceries"},
		{ID: 9, Amount: core.Money{Units: 250}, Category: cat("transport")},
	})

	text := FormatList(list, false, 10, asOf)

	// Itemized amounts render in thousands.
	assert.Contains(t, text, "001. food: 1.5k (groceries)\n")
	assert.Contains(t, text, "002. transport: 0.3k\n")
	assert.Contains(t, text, "You spent since day 10")
}

func TestFormatListEmpty(t *testing.T) {
	text := FormatList(NewIndexedList(nil), true, 10, asOf)
	assert.Contains(t, text, "Spent together since day 10")
}

func TestFormatTrend(t *testing.T) {
	rows := []storage.DayRow{
		{Date: time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), Amount: core.Money{Units: 100}, Category: cat("A"), User: 1},
		{Date: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), Amount: core.Money{Units: 200}, Category: cat("A"), User: 1},
	}
	trend := BuildTrend(rows, 10, core.ReportRequest{User: 1, Group: 1, All: true})

	text := FormatTrend(trend, true, 10, asOf)

	assert.Contains(t, text, "0: 0.1k\n")
	assert.Contains(t, text, "current: 0.2k\n")
}
