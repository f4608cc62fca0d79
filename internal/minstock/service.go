package minstock

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"rasoi/internal/pricesheet"
	"rasoi/internal/pricing"
)

// Alert is one item whose total stock fell below its minimum level.
type Alert struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Amount   float64 `json:"amount"`
	MinLevel float64 `json:"min_level"`
}

// SheetReader provides the price rows carrying min stock levels.
type SheetReader interface {
	Rows(ctx context.Context) ([]pricesheet.PriceRow, error)
}

// Service compares live stock balances against the minimum levels
// operators keep on the price sheet.
type Service struct {
	balances pricing.BalanceFeed
	sheet    SheetReader
}

func NewService(balances pricing.BalanceFeed, sheet SheetReader) *Service {
	return &Service{balances: balances, sheet: sheet}
}

// Alerts returns every item below its minimum, sorted by name.
// Items without a configured min level never alert.
func (s *Service) Alerts(ctx context.Context) ([]Alert, error) {
	rows, err := s.sheet.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load price rows: %w", err)
	}

	balances, err := s.balances.StockBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch stock balances: %w", err)
	}

	totals := make(map[string]float64)
	for _, b := range balances {
		totals[b.ItemID] += b.Amount
	}

	var alerts []Alert
	for _, row := range rows {
		if row.MinLevel == nil || *row.MinLevel <= 0 {
			continue
		}
		amount := totals[row.ItemID]
		if amount >= *row.MinLevel {
			continue
		}
		alerts = append(alerts, Alert{
			ItemID:   row.ItemID,
			Name:     row.Name,
			Amount:   amount,
			MinLevel: *row.MinLevel,
		})
	}

	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Name < alerts[j].Name })

	return alerts, nil
}

// Render formats alerts as plain text for operators.
func Render(alerts []Alert) string {
	if len(alerts) == 0 {
		return "All stocks above minimum.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Below minimum stock (%d):\n", len(alerts))
	for _, a := range alerts {
		fmt.Fprintf(&b, "  - %s: %.3f (min %.3f)\n", a.Name, a.Amount, a.MinLevel)
	}
	return b.String()
}
