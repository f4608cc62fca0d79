package pricing

import (
	"context"
	"fmt"
	"time"
)

// ChartFeed returns every assembly chart known to the ERP, across
// both prepared-item and dish recipe classes.
type ChartFeed interface {
	AssemblyCharts(ctx context.Context) ([]RecipeChart, error)
}

// ChartLoader selects, per output item, the chart effective on a date.
type ChartLoader struct {
	feed ChartFeed
}

func NewChartLoader(feed ChartFeed) *ChartLoader {
	return &ChartLoader{feed: feed}
}

// LoadEffectiveCharts returns the authoritative chart per output item
// as of the given date: among charts whose window covers asOf, the one
// with the latest effective_from wins. Charts with no ingredient lines
// are kept — their output costs 0, which is different from having no
// chart at all.
func (l *ChartLoader) LoadEffectiveCharts(
	ctx context.Context,
	asOf time.Time,
) (map[string]RecipeChart, error) {

	all, err := l.feed.AssemblyCharts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch assembly charts: %w", err)
	}

	effective := make(map[string]RecipeChart)

	for _, chart := range all {
		if chart.OutputItemID == "" || !chart.Covers(asOf) {
			continue
		}

		current, ok := effective[chart.OutputItemID]
		if !ok || chart.EffectiveFrom.After(current.EffectiveFrom) {
			effective[chart.OutputItemID] = chart
		}
	}

	return effective, nil
}
