package report

import (
	"fmt"
	"strings"
	"time"
)

// header states the reporting window and whether the report covers the whole
// group or only the caller's own expenses.
func header(all bool, cutoffDay int, today time.Time) string {
	if all {
		return fmt.Sprintf("Spent together since day %d of the month through %s:\n\n",
			cutoffDay, today.Format("02-01-2006"))
	}
	return fmt.Sprintf("You spent since day %d of the month through %s:\n\n",
		cutoffDay, today.Format("02-01-2006"))
}

// FormatTotals renders the per-category totals as text and as the label-to-value
// series for pie rendering. Totals stay in raw units; only itemized and trend
// views use thousands. That mix is inherited policy, kept as-is.
func FormatTotals(t Totals, all bool, cutoffDay int, today time.Time) (string, map[string]float64) {
	var b strings.Builder
	b.WriteString(header(all, cutoffDay, today))

	series := make(map[string]float64, len(t.Rows))
	for _, r := range t.Rows {
		fmt.Fprintf(&b, "%s: %d\n", r.Category.Name, r.Amount.Units)
		series[r.Category.Name] = float64(r.Amount.Units)
	}
	fmt.Fprintf(&b, "\nTotal spent: %d", t.Sum())

	return b.String(), series
}

// FormatList renders the itemized view, one numbered line per expense with
// the amount in thousands and the comment appended when present.
func FormatList(l IndexedList, all bool, cutoffDay int, today time.Time) string {
	var b strings.Builder
	b.WriteString(header(all, cutoffDay, today))

	for _, it := range l.Items {
		if it.Item.Comment != "" {
			fmt.Fprintf(&b, "%03d. %s: %.1fk (%s)\n",
				it.Seq, it.Item.Category.Name, it.Item.Amount.Thousands(), it.Item.Comment)
		} else {
			fmt.Fprintf(&b, "%03d. %s: %.1fk\n",
				it.Seq, it.Item.Category.Name, it.Item.Amount.Thousands())
		}
	}

	return b.String()
}

// FormatTrend renders one summary line per billing-period bucket, amounts in
// thousands.
func FormatTrend(t Trend, all bool, cutoffDay int, today time.Time) string {
	var b strings.Builder
	b.WriteString(header(all, cutoffDay, today))

	for i, label := range t.Labels {
		fmt.Fprintf(&b, "%s: %.1fk\n", label, float64(t.BucketTotal(i))/1000.0)
	}

	return b.String()
}
