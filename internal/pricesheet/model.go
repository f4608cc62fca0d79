package pricesheet

import "time"

// PriceRow is one line of the two-way-editable price sheet: our
// computed cost column plus manually entered distributor prices.
// The computed columns belong to the sync; the distributor map
// belongs to the operators and is never overwritten by a push.
type PriceRow struct {
	ItemID            string             `json:"item_id"`
	Name              string             `json:"name"`
	Unit              string             `json:"unit"`
	ComputedCost      *float64           `json:"computed_cost,omitempty"`
	CostSource        string             `json:"cost_source,omitempty"`
	MinLevel          *float64           `json:"min_level,omitempty"`
	DistributorPrices map[string]float64 `json:"distributor_prices,omitempty"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// ComputedCost is the slice of a row the sync is allowed to write.
type ComputedCost struct {
	ItemID string
	Name   string
	Unit   string
	Cost   float64
	Source string
}

// ManualEdit is one operator-entered distributor price pulled back
// from an uploaded workbook.
type ManualEdit struct {
	ItemID      string
	Distributor string
	Price       float64
}
