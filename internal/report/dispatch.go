package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kopilka/internal/core"
	"kopilka/internal/storage"
)

// ChartRenderer is the rendering sink boundary. Implementations turn series
// into an opaque image blob; the report layer never inspects the bytes.
type ChartRenderer interface {
	// Pie renders a label-to-value chart for the totals view.
	Pie(values map[string]float64) ([]byte, error)

	// StackedBars renders the per-category series as one bar per bucket
	// label, in label order. Implementations keep a slot for every bucket,
	// empty ones included, so the image lines up with the text report.
	StackedBars(buckets []string, series []CategorySeries) ([]byte, error)
}

// Artifact is a finished report. Chart is nil when no renderer is configured
// or the report kind has no chart. Index is set only for list reports and is
// valid only until the next report renders.
type Artifact struct {
	Text  string
	Chart []byte
	Index IndexMap
}

// Dispatcher maps a report kind to its query, aggregate and format pipeline,
// threading the own/all filter through every stage.
type Dispatcher struct {
	ledger    storage.Ledger
	charts    ChartRenderer
	cutoffDay int
	now       func() time.Time
}

// NewDispatcher wires a dispatcher to a ledger backend and an optional chart
// renderer (nil disables charts).
func NewDispatcher(ledger storage.Ledger, charts ChartRenderer, cutoffDay int) (*Dispatcher, error) {
	if cutoffDay < 1 || cutoffDay > 31 {
		return nil, core.ErrInvalidCutoffDay
	}
	return &Dispatcher{
		ledger:    ledger,
		charts:    charts,
		cutoffDay: cutoffDay,
		now:       time.Now,
	}, nil
}

// Run computes the requested report. The kind enum is closed: an
// unrecognized value is a programming error and panics rather than being
// silently defaulted.
func (d *Dispatcher) Run(ctx context.Context, kind core.ReportKind, req core.ReportRequest) (Artifact, error) {
	var (
		artifact Artifact
		err      error
	)
	switch kind {
	case core.ReportList:
		artifact, err = d.list(ctx, req)
	case core.ReportTotal:
		artifact, err = d.total(ctx, req)
	case core.ReportTrend:
		artifact, err = d.trend(ctx, req)
	default:
		panic(fmt.Sprintf("report: unknown kind %v", kind))
	}
	if err != nil {
		return Artifact{}, err
	}

	slog.DebugContext(ctx, "Report generated",
		"kind", kind.String(),
		"group", req.Group,
		"user", req.User,
		"all", req.All)
	return artifact, nil
}

func (d *Dispatcher) list(ctx context.Context, req core.ReportRequest) (Artifact, error) {
	now := d.now()
	start := core.BillingPeriodStart(now, d.cutoffDay)

	items, err := d.ledger.Itemized(ctx, start, req)
	if err != nil {
		return Artifact{}, fmt.Errorf("itemized query: %w", err)
	}

	list := NewIndexedList(items)
	return Artifact{
		Text:  FormatList(list, req.All, d.cutoffDay, now),
		Index: list.Index,
	}, nil
}

func (d *Dispatcher) total(ctx context.Context, req core.ReportRequest) (Artifact, error) {
	now := d.now()
	start := core.BillingPeriodStart(now, d.cutoffDay)

	rows, err := d.ledger.TotalsByCategory(ctx, start, req)
	if err != nil {
		return Artifact{}, fmt.Errorf("totals query: %w", err)
	}

	totals := NewTotals(rows)
	text, series := FormatTotals(totals, req.All, d.cutoffDay, now)

	artifact := Artifact{Text: text}
	if d.charts != nil && len(series) > 0 {
		artifact.Chart, err = d.charts.Pie(series)
		if err != nil {
			return Artifact{}, fmt.Errorf("render pie chart: %w", err)
		}
	}
	return artifact, nil
}

func (d *Dispatcher) trend(ctx context.Context, req core.ReportRequest) (Artifact, error) {
	rows, err := d.ledger.DailyTotals(ctx, req.Group)
	if err != nil {
		return Artifact{}, fmt.Errorf("daily totals query: %w", err)
	}

	trend := BuildTrend(rows, d.cutoffDay, req)
	artifact := Artifact{Text: FormatTrend(trend, req.All, d.cutoffDay, d.now())}

	var total int64
	for i := range trend.Buckets {
		total += trend.BucketTotal(i)
	}
	if d.charts != nil && len(trend.Categories) > 0 && total > 0 {
		artifact.Chart, err = d.charts.StackedBars(trend.Labels, trend.Series())
		if err != nil {
			return Artifact{}, fmt.Errorf("render trend chart: %w", err)
		}
	}
	return artifact, nil
}
