// Package charts renders spend summaries as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"finstress/internal/core"
)

// ErrNoData is returned when a summary holds no spending to draw.
var ErrNoData = errors.New("no spending to chart")

// minShare hides slices below this percentage of total spend.
const minShare = 1.0

type Options struct {
	Width  int
	Height int
	// ByBucket draws essential/variable/other instead of individual categories.
	ByBucket bool
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 1200
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	return o
}

// SpendPie renders the debits of a summary as a pie chart.
func SpendPie(s core.SpendSummary, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	values := pieValues(s, opts.ByBucket)
	if len(values) == 0 {
		return nil, ErrNoData
	}

	pie := chart.PieChart{
		Title:  fmt.Sprintf("Spending %04d-%02d", s.Year, s.Month),
		Width:  opts.Width,
		Height: opts.Height,
		Values: values,
		Background: chart.Style{
			Padding:   chart.Box{Top: 50, Left: 50, Right: 50, Bottom: 50},
			FillColor: chart.ColorWhite,
		},
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render spend pie: %w", err)
	}
	return buf.Bytes(), nil
}

func pieValues(s core.SpendSummary, byBucket bool) []chart.Value {
	total := float64(s.TotalSpent.Cents)
	if total <= 0 {
		return nil
	}

	type slice struct {
		label string
		cents int64
	}
	var slices []slice
	if byBucket {
		for _, b := range []core.Bucket{core.BucketEssential, core.BucketVariable, core.BucketOther} {
			slices = append(slices, slice{label: string(b), cents: s.BucketTotal(b).Cents})
		}
	} else {
		for _, ca := range s.ByCategory {
			slices = append(slices, slice{label: ca.Name, cents: ca.Amount.Cents})
		}
	}

	values := make([]chart.Value, 0, len(slices))
	for _, sl := range slices {
		share := float64(sl.cents) / total * 100
		if share <= minShare {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", sl.label, core.Money{Cents: sl.cents}, share),
			Value: float64(sl.cents),
		})
	}
	return values
}
