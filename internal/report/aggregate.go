// Package report turns ledger query results into report artifacts: totals by
// category, itemized lists with stable sequence numbers, and billing-month
// trend series, each rendered as text and chart-ready data.
package report

import (
	"sort"
	"strconv"
	"time"

	"kopilka/internal/core"
	"kopilka/internal/storage"
)

// Totals is the per-category aggregate view. It is a passthrough of the
// ledger rows so the formatter has one stable input shape regardless of
// backend.
type Totals struct {
	Rows []storage.CategoryTotal
}

func NewTotals(rows []storage.CategoryTotal) Totals {
	return Totals{Rows: rows}
}

// Sum returns the grand total in raw units.
func (t Totals) Sum() int64 {
	var sum int64
	for _, r := range t.Rows {
		sum += r.Amount.Units
	}
	return sum
}

// IndexMap resolves the 1-based sequence numbers shown to users back to
// storage ids. It is valid only for the report view that produced it: a later
// view must regenerate it, never reuse it.
type IndexMap map[int]int64

// Resolve returns the storage id behind a sequence number. ok is false for
// stale or unknown references.
func (m IndexMap) Resolve(seq int) (id int64, ok bool) {
	id, ok = m[seq]
	return id, ok
}

// IndexedItem is one display row of the itemized view.
type IndexedItem struct {
	Seq  int
	Item storage.Item
}

// IndexedList is the itemized view: rows in display order with dense 1-based
// sequence numbers, plus the reverse lookup for follow-up delete/move
// commands.
type IndexedList struct {
	Items []IndexedItem
	Index IndexMap
}

// NewIndexedList numbers items in their given order. Numbering is dense and
// contiguous regardless of gaps in the underlying storage ids.
func NewIndexedList(items []storage.Item) IndexedList {
	list := IndexedList{
		Items: make([]IndexedItem, 0, len(items)),
		Index: make(IndexMap, len(items)),
	}
	for i, it := range items {
		seq := i + 1
		list.Items = append(list.Items, IndexedItem{Seq: seq, Item: it})
		list.Index[seq] = it.ID
	}
	return list
}

// Trend is the billing-month view: one bucket per billing period from the
// oldest recorded expense to the in-progress "current" period, plus the set
// of every category observed anywhere in the history.
type Trend struct {
	Labels     []string
	Buckets    []map[string]int64 // category name -> accumulated raw units
	Categories []string           // sorted for deterministic series order
}

// BuildTrend folds per-day rows into billing-period buckets.
//
// The fold replicates the historical boundary behavior exactly: a new period
// opens on the first date with day >= cutoffDay in a calendar month greater
// than the month that opened the previous period (sentinel 0 before any
// period has opened). The closed bucket is labeled with the number of the
// month that is ending, so the very first close-out can carry label "0" and
// cover only partial data. Callers wanting calendar-accurate buckets must
// take this up with the product owner, not this function.
//
// Rows from other users still register their categories (charts need a
// series slot for every category in the group) but only rows matching the
// own/all filter contribute amounts.
func BuildTrend(rows []storage.DayRow, cutoffDay int, req core.ReportRequest) Trend {
	seen := make(map[string]struct{})
	bucket := make(map[string]int64)
	var (
		labels   []string
		buckets  []map[string]int64
		curMonth int
		prevDay  time.Time
	)

	for i, r := range rows {
		if i == 0 || !sameDay(r.Date, prevDay) {
			month, day := int(r.Date.Month()), r.Date.Day()
			if day >= cutoffDay && month > curMonth {
				buckets = append(buckets, bucket)
				labels = append(labels, strconv.Itoa(month-1))
				bucket = make(map[string]int64)
				curMonth = month
			}
			prevDay = r.Date
		}
		seen[r.Category.Name] = struct{}{}
		if req.All || r.User == req.User {
			bucket[r.Category.Name] += r.Amount.Units
		}
	}

	buckets = append(buckets, bucket)
	labels = append(labels, "current")

	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	return Trend{Labels: labels, Buckets: buckets, Categories: cats}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CategorySeries is one chart series: a category's value in every bucket,
// aligned to Trend.Labels and scaled to thousands.
type CategorySeries struct {
	Category string
	Values   []float64
}

// Series returns one dense series per observed category. Every series has a
// value for every bucket, zero where the category had no spend that period;
// the chart and table renderers assume rectangular data.
func (t Trend) Series() []CategorySeries {
	out := make([]CategorySeries, 0, len(t.Categories))
	for _, c := range t.Categories {
		vals := make([]float64, len(t.Buckets))
		for i, b := range t.Buckets {
			vals[i] = float64(b[c]) / 1000.0
		}
		out = append(out, CategorySeries{Category: c, Values: vals})
	}
	return out
}

// BucketTotal returns bucket i's total spend in raw units.
func (t Trend) BucketTotal(i int) int64 {
	var sum int64
	for _, v := range t.Buckets[i] {
		sum += v
	}
	return sum
}
