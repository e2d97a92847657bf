// Package charts renders report series as PNG images. It is the default
// implementation of the report.ChartRenderer sink; callers with their own
// rendering can swap it out without touching the report layer.
package charts

import (
	"bytes"
	"fmt"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"kopilka/internal/report"
)

var _ report.ChartRenderer = (*Renderer)(nil)

// Renderer draws pie charts for totals and stacked bars for trends.
type Renderer struct {
	Width  int
	Height int
}

// New returns a renderer with the default canvas size.
func New() *Renderer {
	return &Renderer{Width: 900, Height: 600}
}

// Pie renders a label-to-value pie chart. Labels are sorted so the same data
// always produces the same image.
func (r *Renderer) Pie(values map[string]float64) ([]byte, error) {
	labels := make([]string, 0, len(values))
	var total float64
	for label, v := range values {
		labels = append(labels, label)
		total += v
	}
	if len(labels) == 0 || total == 0 {
		return nil, fmt.Errorf("pie chart: no data")
	}
	sort.Strings(labels)

	chartValues := make([]chart.Value, 0, len(labels))
	for _, label := range labels {
		if values[label] == 0 {
			continue
		}
		chartValues = append(chartValues, chart.Value{
			Label: label,
			Value: values[label],
		})
	}

	pie := chart.PieChart{
		Width:  r.Width,
		Height: r.Height,
		Values: chartValues,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render pie: %w", err)
	}
	return buf.Bytes(), nil
}

// StackedBars renders one bar per bucket label, stacking the per-category
// series. Every bucket keeps its slot so the bar sequence lines up with the
// labels of the text report; the chart library cannot draw a bar with zero
// total, so an empty bucket gets an invisible placeholder instead.
func (r *Renderer) StackedBars(buckets []string, series []report.CategorySeries) ([]byte, error) {
	if len(buckets) == 0 || len(series) == 0 {
		return nil, fmt.Errorf("trend chart: no data")
	}

	var anyData bool
	bars := make([]chart.StackedBar, 0, len(buckets))
	for i, label := range buckets {
		var (
			values []chart.Value
			total  float64
		)
		for _, s := range series {
			if i >= len(s.Values) || s.Values[i] == 0 {
				continue
			}
			values = append(values, chart.Value{
				Label: s.Category,
				Value: s.Values[i],
			})
			total += s.Values[i]
		}
		if total == 0 {
			values = []chart.Value{placeholderValue()}
		} else {
			anyData = true
		}
		bars = append(bars, chart.StackedBar{
			Name:   label,
			Values: values,
		})
	}
	if !anyData {
		return nil, fmt.Errorf("trend chart: no data")
	}

	sbc := chart.StackedBarChart{
		Width:        r.Width,
		Height:       r.Height,
		BarSpacing:   40,
		IsHorizontal: false,
		XAxis:        chart.Style{},
		YAxis:        chart.Style{},
		Bars:         bars,
	}

	var buf bytes.Buffer
	if err := sbc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render stacked bars: %w", err)
	}
	return buf.Bytes(), nil
}

// placeholderValue fills an empty bucket's slot without painting anything.
func placeholderValue() chart.Value {
	return chart.Value{
		Value: 1,
		Style: chart.Style{
			FillColor:   drawing.ColorTransparent,
			StrokeColor: drawing.ColorTransparent,
			FontColor:   drawing.ColorTransparent,
		},
	}
}
