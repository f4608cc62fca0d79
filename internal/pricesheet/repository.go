package pricesheet

import "context"

// Repository defines the persisted price sheet operations.
type Repository interface {

	// All rows, ordered by name.
	ListRows(ctx context.Context) ([]PriceRow, error)

	// Atomically write computed cost columns for a batch of items.
	// Must never touch distributor prices or min levels.
	UpsertComputedCosts(ctx context.Context, costs []ComputedCost) error

	// Persist operator-entered distributor prices.
	SaveManualEdits(ctx context.Context, edits []ManualEdit) error

	// Persist per-item minimum stock levels.
	SaveMinLevels(ctx context.Context, levels map[string]float64) error
}
