// Package render turns report series into PNG charts sent alongside the
// text replies.
package render

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"codewars-tracker/internal/domain"
)

const (
	chartWidth  = 900
	chartHeight = 500
)

// Progress renders a line chart of the given series over the date axis,
// one line per series. Used for both personal progress and the group
// weekly chart.
func Progress(title string, dates []string, series []domain.Series) ([]byte, error) {
	if len(dates) == 0 || len(series) == 0 {
		return nil, fmt.Errorf("nothing to chart")
	}

	xs := make([]float64, len(dates))
	for i := range dates {
		xs[i] = float64(i)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				f, ok := v.(float64)
				if !ok {
					return ""
				}
				i := int(f)
				if i < 0 || i >= len(dates) || f != float64(i) {
					return ""
				}
				return dates[i]
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: chart.IntValueFormatter,
		},
	}

	for _, s := range series {
		if len(s.Points) != len(dates) {
			return nil, fmt.Errorf("series %q has %d points for %d dates", s.Label, len(s.Points), len(dates))
		}
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    s.Label,
			XValues: xs,
			YValues: s.Points,
		})
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	buf := &bytes.Buffer{}
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// Comparison renders side-by-side bars for two metrics over the same
// labels, one bar pair per label. Used for the group katas-vs-honor and
// today-vs-yesterday charts.
func Comparison(title string, labels []string, a, b domain.Series) ([]byte, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("nothing to chart")
	}
	if len(a.Points) != len(labels) || len(b.Points) != len(labels) {
		return nil, fmt.Errorf("series do not match %d labels", len(labels))
	}

	styleA := chart.Style{FillColor: chart.ColorBlue, StrokeColor: chart.ColorBlue}
	styleB := chart.Style{FillColor: chart.ColorAlternateGreen, StrokeColor: chart.ColorAlternateGreen}

	bars := make([]chart.Value, 0, 2*len(labels))
	max := 0.0
	for i, label := range labels {
		if a.Points[i] > max {
			max = a.Points[i]
		}
		if b.Points[i] > max {
			max = b.Points[i]
		}
		bars = append(bars,
			chart.Value{Label: fmt.Sprintf("%s %s", label, a.Label), Value: a.Points[i], Style: styleA},
			chart.Value{Label: fmt.Sprintf("%s %s", label, b.Label), Value: b.Points[i], Style: styleB},
		)
	}
	if max == 0 {
		return nil, fmt.Errorf("nothing to chart")
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: 40,
		YAxis: chart.YAxis{
			ValueFormatter: chart.IntValueFormatter,
		},
		Bars: bars,
	}

	buf := &bytes.Buffer{}
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}
