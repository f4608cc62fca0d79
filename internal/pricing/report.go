package pricing

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// UnresolvedReason is the diagnostic bucket for an item without a cost.
type UnresolvedReason string

const (
	// ReasonNoChart: the item is referenced as an ingredient but has
	// neither a primitive cost nor a chart of its own.
	ReasonNoChart UnresolvedReason = "NO_CHART"

	// ReasonUnpriced: the item has a chart, but its ingredients never
	// produced a positive total.
	ReasonUnpriced UnresolvedReason = "UNPRICED_INGREDIENTS"

	// ReasonCycle: the item's chart depends, directly or through other
	// unresolved charts, on itself. It can never resolve regardless of
	// how many passes run.
	ReasonCycle UnresolvedReason = "CYCLE"
)

// SyncReport is the operator-facing summary of one cost sync run.
// The three-way priced/unpriced breakdown is the actionable signal
// the whole pipeline exists to produce.
type SyncReport struct {
	RunID      string    `json:"run_id"`
	AsOf       time.Time `json:"as_of"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	PricedFromStock    int `json:"priced_from_stock"`
	PricedFromReceipts int `json:"priced_from_receipts"`
	PricedFromRecipes  int `json:"priced_from_recipes"`

	NoChart             []string `json:"no_chart"`
	UnpricedIngredients []string `json:"unpriced_ingredients"`
	Cycles              []string `json:"cycles"`
}

// BuildReport classifies every item touched by the run: priced items
// by source, unresolved chart outputs by reason, and referenced
// ingredients with neither price nor chart.
func BuildReport(primitive, resolved CostMap, charts map[string]RecipeChart) *SyncReport {
	r := &SyncReport{}

	merged := MergeCosts(primitive, resolved)

	for _, uc := range merged {
		switch uc.Source {
		case SourceStockAvg:
			r.PricedFromStock++
		case SourceLastReceipt:
			r.PricedFromReceipts++
		case SourceRecipe:
			r.PricedFromRecipes++
		}
	}

	noChart := make(map[string]bool)
	for _, chart := range charts {
		for _, line := range chart.Ingredients {
			if line.Quantity == 0 {
				continue
			}
			if _, priced := merged[line.ItemID]; priced {
				continue
			}
			if _, charted := charts[line.ItemID]; charted {
				continue
			}
			noChart[line.ItemID] = true
		}
	}
	for itemID := range noChart {
		r.NoChart = append(r.NoChart, itemID)
	}

	for outputID := range charts {
		if _, ok := resolved[outputID]; ok {
			continue
		}
		if onCycle(outputID, charts, merged, map[string]bool{}) {
			r.Cycles = append(r.Cycles, outputID)
		} else {
			r.UnpricedIngredients = append(r.UnpricedIngredients, outputID)
		}
	}

	sort.Strings(r.NoChart)
	sort.Strings(r.UnpricedIngredients)
	sort.Strings(r.Cycles)

	return r
}

// onCycle walks the unresolved dependency edges out of itemID and
// reports whether the walk re-enters an item already on the path.
// Only charted, still-unpriced ingredients are edges; everything else
// is a leaf. The unresolved remainder is small, so a plain DFS with
// path marking is enough.
func onCycle(
	itemID string,
	charts map[string]RecipeChart,
	priced CostMap,
	path map[string]bool,
) bool {

	if path[itemID] {
		return true
	}

	chart, ok := charts[itemID]
	if !ok {
		return false
	}

	path[itemID] = true
	defer delete(path, itemID)

	for _, line := range chart.Ingredients {
		if line.Quantity == 0 {
			continue
		}
		if _, done := priced[line.ItemID]; done {
			continue
		}
		if _, charted := charts[line.ItemID]; !charted {
			continue
		}
		if onCycle(line.ItemID, charts, priced, path) {
			return true
		}
	}

	return false
}

// Render formats the report as plain text for operators.
func (r *SyncReport) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Cost sync %s (as of %s)\n", r.RunID, r.AsOf.Format("2006-01-02"))
	fmt.Fprintf(&b, "Priced via stock average: %d\n", r.PricedFromStock)
	fmt.Fprintf(&b, "Priced via last receipt:  %d\n", r.PricedFromReceipts)
	fmt.Fprintf(&b, "Priced via recipe:        %d\n", r.PricedFromRecipes)

	writeBucket(&b, "No price source and no chart", r.NoChart)
	writeBucket(&b, "Chart found, ingredients unpriced", r.UnpricedIngredients)
	writeBucket(&b, "Cyclic recipes, will never resolve", r.Cycles)

	return b.String()
}

func writeBucket(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n", title, len(items))
	for _, itemID := range items {
		fmt.Fprintf(b, "  - %s\n", itemID)
	}
}
