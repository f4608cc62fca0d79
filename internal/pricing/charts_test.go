package pricing

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockChartFeed struct {
	charts []RecipeChart
	err    error
}

func (m *mockChartFeed) AssemblyCharts(ctx context.Context) ([]RecipeChart, error) {
	return m.charts, m.err
}

func datePtr(t time.Time) *time.Time { return &t }

func TestLoadEffectiveChartsLatestFromWins(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	feed := &mockChartFeed{charts: []RecipeChart{
		{OutputItemID: "soup", EffectiveFrom: day(1), BatchYield: 1},
		{OutputItemID: "soup", EffectiveFrom: day(10), BatchYield: 2},
		{OutputItemID: "soup", EffectiveFrom: day(20), BatchYield: 3}, // future
	}}

	loader := NewChartLoader(feed)
	charts, err := loader.LoadEffectiveCharts(context.Background(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := charts["soup"].BatchYield; got != 2 {
		t.Errorf("expected chart from day 10 (yield 2), got yield %v", got)
	}
}

func TestLoadEffectiveChartsExpiredExcluded(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	feed := &mockChartFeed{charts: []RecipeChart{
		{OutputItemID: "old", EffectiveFrom: day(1), EffectiveTo: datePtr(day(5))},
	}}

	loader := NewChartLoader(feed)
	charts, err := loader.LoadEffectiveCharts(context.Background(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := charts["old"]; ok {
		t.Error("expected expired chart excluded")
	}
}

func TestLoadEffectiveChartsOpenEndedIncluded(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	feed := &mockChartFeed{charts: []RecipeChart{
		{OutputItemID: "cur", EffectiveFrom: day(1)},
	}}

	loader := NewChartLoader(feed)
	charts, err := loader.LoadEffectiveCharts(context.Background(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := charts["cur"]; !ok {
		t.Error("expected open-ended chart included")
	}
}

func TestLoadEffectiveChartsEmptyIngredientsKept(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	feed := &mockChartFeed{charts: []RecipeChart{
		{OutputItemID: "water", EffectiveFrom: day(1), BatchYield: 1},
	}}

	loader := NewChartLoader(feed)
	charts, err := loader.LoadEffectiveCharts(context.Background(), asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chart, ok := charts["water"]
	if !ok {
		t.Fatal("expected empty-ingredient chart kept")
	}
	if len(chart.Ingredients) != 0 {
		t.Errorf("expected no ingredients, got %d", len(chart.Ingredients))
	}
}

func TestLoadEffectiveChartsFeedErrorPropagates(t *testing.T) {
	boom := errors.New("erp down")
	loader := NewChartLoader(&mockChartFeed{err: boom})

	if _, err := loader.LoadEffectiveCharts(context.Background(), time.Now()); !errors.Is(err, boom) {
		t.Errorf("expected feed error propagated, got %v", err)
	}
}
