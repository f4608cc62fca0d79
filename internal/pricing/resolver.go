package pricing

import "math"

// maxPasses bounds the fixed-point loop. Real recipe nesting tops out
// around five levels (dish -> prepared -> prepared -> raw), so ten
// passes is ample; anything still unresolved after that is either
// missing data or a cycle.
const maxPasses = 10

// ResolveCosts computes a unit cost for every item that has an
// effective chart, by bounded fixed-point iteration over the implicit
// ingredient dependency graph.
//
// The feed may deliver charts in any order, including a dish before
// the prepared items it references, and nothing guarantees the graph
// is acyclic. Iterating until a pass makes no progress tolerates both
// without recursion or explicit topological sorting.
//
// Seeding: primitive costs are kept for raw goods and for items with
// no chart of their own. An item that has a chart and is not a raw
// good is always recomputed from the chart, even when a primitive
// cost exists — the recipe is authoritative for computed items.
//
// The returned map covers only charted items; callers merge it with
// the primitive map for a catalog-wide view.
func ResolveCosts(
	primitive CostMap,
	charts map[string]RecipeChart,
	kinds map[string]ItemKind,
) CostMap {

	known := make(CostMap, len(primitive)+len(charts))

	for itemID, uc := range primitive {
		if _, charted := charts[itemID]; charted && kinds[itemID] != KindRawGood {
			continue
		}
		known[itemID] = uc
	}

	for pass := 0; pass < maxPasses; pass++ {
		progress := false

		for outputID, chart := range charts {
			if _, done := known[outputID]; done {
				continue
			}

			if len(chart.Ingredients) == 0 {
				// An empty chart is a real chart: its output costs 0.
				known[outputID] = UnitCost{ItemID: outputID, Source: SourceRecipe}
				progress = true
				continue
			}

			total, ready := chartTotal(chart, charts, known)
			if !ready || total <= 0 {
				continue
			}

			known[outputID] = UnitCost{
				ItemID: outputID,
				Cost:   round4(total / chart.Yield()),
				Source: SourceRecipe,
			}
			progress = true
		}

		if !progress {
			break
		}
	}

	resolved := make(CostMap, len(charts))
	for outputID := range charts {
		if uc, ok := known[outputID]; ok {
			resolved[outputID] = uc
		}
	}

	return resolved
}

// chartTotal sums quantity * unit cost over the chart's lines.
//
// A missing ingredient that has its own chart defers the whole chart
// to a later pass. A missing ingredient with no chart is a true data
// gap and contributes 0 — one untraceable ingredient must not block
// the rest of the recipe.
func chartTotal(
	chart RecipeChart,
	charts map[string]RecipeChart,
	known CostMap,
) (total float64, ready bool) {

	for _, line := range chart.Ingredients {
		if line.Quantity == 0 {
			continue
		}

		uc, ok := known[line.ItemID]
		if !ok {
			if _, charted := charts[line.ItemID]; charted {
				return 0, false
			}
			continue
		}

		total += line.Quantity * uc.Cost
	}

	return total, true
}

// round4 suppresses floating-point noise from chained division.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// MergeCosts overlays resolved recipe costs onto the primitive map,
// producing the complete catalog-wide cost map handed to the price
// sheet. Resolved entries win for their items.
func MergeCosts(primitive, resolved CostMap) CostMap {
	merged := make(CostMap, len(primitive)+len(resolved))
	for itemID, uc := range primitive {
		merged[itemID] = uc
	}
	for itemID, uc := range resolved {
		merged[itemID] = uc
	}
	return merged
}
