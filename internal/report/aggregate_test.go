package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kopilka/internal/core"
	"kopilka/internal/storage"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cat(name string) core.Category {
	return core.Category{ID: 1, Name: name, Group: 1}
}

func TestNewIndexedListDenseNumbering(t *testing.T) {
	// Storage ids have gaps; sequence numbers must not.
	items := []storage.Item{
		{ID: 7, Amount: core.Money{Units: 100}, Category: cat("food")},
		{ID: 19, Amount: core.Money{Units: 200}, Category: cat("rent")},
		{ID: 104, Amount: core.Money{Units: 300}, Category: cat("fun")},
	}

	list := NewIndexedList(items)

	require.Len(t, list.Items, 3)
	for i, it := range list.Items {
		assert.Equal(t, i+1, it.Seq)
	}

	id, ok := list.Index.Resolve(2)
	require.True(t, ok)
	assert.Equal(t, int64(19), id)
}

func TestIndexMapResolveUnknown(t *testing.T) {
	list := NewIndexedList([]storage.Item{{ID: 7}})

	_, ok := list.Index.Resolve(99)
	assert.False(t, ok)
	_, ok = list.Index.Resolve(0)
	assert.False(t, ok)
}

func TestNewIndexedListEmpty(t *testing.T) {
	list := NewIndexedList(nil)
	assert.Empty(t, list.Items)
	assert.Empty(t, list.Index)
}

func TestBuildTrendReferenceScenario(t *testing.T) {
	// Cutoff 10: Jan 15 opens a period (closing the partial pre-cutoff
	// bucket with label "0"), Feb 12 opens the next, the remainder is
	// "current". This replicates the historical boundary behavior, partial
	// first bucket included.
	rows := []storage.DayRow{
		{Date: day(2024, time.January, 5), Amount: core.Money{Units: 100}, Category: cat("A"), User: 1},
		{Date: day(2024, time.January, 15), Amount: core.Money{Units: 200}, Category: cat("A"), User: 1},
		{Date: day(2024, time.February, 12), Amount: core.Money{Units: 50}, Category: cat("B"), User: 1},
	}

	trend := BuildTrend(rows, 10, core.ReportRequest{User: 1, Group: 1, All: true})

	require.Equal(t, []string{"0", "1", "current"}, trend.Labels)
	require.Len(t, trend.Buckets, 3)
	assert.Equal(t, int64(100), trend.Buckets[0]["A"])
	assert.Equal(t, int64(200), trend.Buckets[1]["A"])
	assert.Equal(t, int64(50), trend.Buckets[2]["B"])
	assert.Equal(t, []string{"A", "B"}, trend.Categories)
}

func TestBuildTrendPreservesTotalAmount(t *testing.T) {
	rows := []storage.DayRow{
		{Date: day(2023, time.November, 2), Amount: core.Money{Units: 40}, Category: cat("A"), User: 1},
		{Date: day(2023, time.November, 20), Amount: core.Money{Units: 60}, Category: cat("B"), User: 1},
		{Date: day(2023, time.December, 1), Amount: core.Money{Units: 10}, Category: cat("A"), User: 1},
		{Date: day(2023, time.December, 15), Amount: core.Money{Units: 25}, Category: cat("C"), User: 1},
		{Date: day(2024, time.January, 3), Amount: core.Money{Units: 5}, Category: cat("B"), User: 1},
	}

	var want int64
	for _, r := range rows {
		want += r.Amount.Units
	}

	trend := BuildTrend(rows, 10, core.ReportRequest{User: 1, Group: 1, All: true})

	var got int64
	for i := range trend.Buckets {
		got += trend.BucketTotal(i)
	}
	assert.Equal(t, want, got, "no amount may be lost or double-counted across bucket boundaries")
}

func TestBuildTrendSeriesIsDense(t *testing.T) {
	rows := []storage.DayRow{
		{Date: day(2024, time.January, 5), Amount: core.Money{Units: 100}, Category: cat("A"), User: 1},
		{Date: day(2024, time.February, 12), Amount: core.Money{Units: 50}, Category: cat("B"), User: 1},
	}

	trend := BuildTrend(rows, 10, core.ReportRequest{User: 1, Group: 1, All: true})
	series := trend.Series()

	require.Len(t, series, len(trend.Categories))
	for _, s := range series {
		assert.Len(t, s.Values, len(trend.Buckets),
			"every category needs a value in every bucket, zero-filled")
	}
}

func TestBuildTrendOwnFilter(t *testing.T) {
	// User 2's rows still register their category (the chart needs the
	// series slot) but contribute no amounts to user 1's own view.
	rows := []storage.DayRow{
		{Date: day(2024, time.March, 12), Amount: core.Money{Units: 100}, Category: cat("A"), User: 1},
		{Date: day(2024, time.March, 12), Amount: core.Money{Units: 900}, Category: cat("B"), User: 2},
	}

	trend := BuildTrend(rows, 10, core.ReportRequest{User: 1, Group: 1, All: false})

	assert.Equal(t, []string{"2", "current"}, trend.Labels)
	assert.Equal(t, []string{"A", "B"}, trend.Categories)
	assert.Equal(t, int64(100), trend.BucketTotal(1))
	for _, b := range trend.Buckets {
		assert.Zero(t, b["B"])
	}
}

func TestBuildTrendEmpty(t *testing.T) {
	trend := BuildTrend(nil, 10, core.ReportRequest{User: 1, Group: 1, All: true})

	require.Equal(t, []string{"current"}, trend.Labels)
	require.Len(t, trend.Buckets, 1)
	assert.Zero(t, trend.BucketTotal(0))
	assert.Empty(t, trend.Categories)
}
