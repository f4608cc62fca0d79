package pricing

import "time"

// ItemKind is the catalog taxonomy for a product.
type ItemKind string

const (
	KindRawGood  ItemKind = "RAW_GOOD"
	KindPrepared ItemKind = "PREPARED"
	KindDish     ItemKind = "DISH"
)

// CostSource records which signal produced a unit cost.
type CostSource string

const (
	SourceStockAvg    CostSource = "STOCK_WEIGHTED_AVG"
	SourceLastReceipt CostSource = "LAST_RECEIPT"
	SourceRecipe      CostSource = "COMPUTED_FROM_RECIPE"
)

// UnitCost is one authoritative per-unit cost for an item.
// Cost is always >= 0; entries with non-positive observed prices
// are discarded at collection time, never stored as zero.
type UnitCost struct {
	ItemID string     `json:"item_id"`
	Cost   float64    `json:"cost"`
	Source CostSource `json:"source"`
}

// CostMap is the primary output shape of the pipeline: one cost per item.
type CostMap map[string]UnitCost

// IngredientLine is a single line of an assembly chart.
// Quantity 0 means "skip contribution" and is distinct from
// "no price found" for the ingredient.
type IngredientLine struct {
	ItemID   string  `json:"item_id"`
	Quantity float64 `json:"quantity"`
}

// RecipeChart is one assembly chart for an output item, valid
// within its effective date window.
type RecipeChart struct {
	OutputItemID  string           `json:"output_item_id"`
	EffectiveFrom time.Time        `json:"effective_from"`
	EffectiveTo   *time.Time       `json:"effective_to,omitempty"`
	BatchYield    float64          `json:"batch_yield"`
	Ingredients   []IngredientLine `json:"ingredients"`
}

// Yield returns the batch yield with the defensive floor applied:
// a missing, zero or negative yield divides by 1, never by zero.
func (c RecipeChart) Yield() float64 {
	if c.BatchYield <= 0 {
		return 1.0
	}
	return c.BatchYield
}

// Covers reports whether the chart's effective window contains asOf.
func (c RecipeChart) Covers(asOf time.Time) bool {
	if c.EffectiveFrom.After(asOf) {
		return false
	}
	if c.EffectiveTo != nil && c.EffectiveTo.Before(asOf) {
		return false
	}
	return true
}

// StockBalance is one stock-balance record from the ERP feed.
type StockBalance struct {
	LocationID string
	ItemID     string
	Amount     float64
	Value      float64
}

// ReceiptLine is one priced line of an incoming-goods receipt.
type ReceiptLine struct {
	ItemID    string
	UnitPrice float64
}

// Receipt is one incoming-goods receipt with its date.
type Receipt struct {
	Date  time.Time
	Lines []ReceiptLine
}
