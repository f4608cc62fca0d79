package minstock

import (
	"context"
	"strings"
	"testing"

	"rasoi/internal/pricesheet"
	"rasoi/internal/pricing"
)

type stubBalances struct {
	balances []pricing.StockBalance
}

func (s *stubBalances) StockBalances(ctx context.Context) ([]pricing.StockBalance, error) {
	return s.balances, nil
}

type stubSheet struct {
	rows []pricesheet.PriceRow
}

func (s *stubSheet) Rows(ctx context.Context) ([]pricesheet.PriceRow, error) {
	return s.rows, nil
}

func level(v float64) *float64 { return &v }

func TestAlertsBelowMinimum(t *testing.T) {
	balances := &stubBalances{balances: []pricing.StockBalance{
		{LocationID: "w1", ItemID: "flour", Amount: 3},
		{LocationID: "w2", ItemID: "flour", Amount: 4},
		{LocationID: "w1", ItemID: "salt", Amount: 50},
	}}
	sheet := &stubSheet{rows: []pricesheet.PriceRow{
		{ItemID: "flour", Name: "Wheat flour", MinLevel: level(10)}, // 7 < 10
		{ItemID: "salt", Name: "Salt", MinLevel: level(20)},         // 50 >= 20
		{ItemID: "oil", Name: "Oil"},                                // no min set
	}}

	service := NewService(balances, sheet)

	alerts, err := service.Alerts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(alerts) != 1 {
		t.Fatalf("expected one alert, got %v", alerts)
	}
	if alerts[0].ItemID != "flour" || alerts[0].Amount != 7 {
		t.Errorf("unexpected alert: %+v", alerts[0])
	}
}

func TestAlertsItemWithNoStockAtAll(t *testing.T) {
	sheet := &stubSheet{rows: []pricesheet.PriceRow{
		{ItemID: "rice", Name: "Rice", MinLevel: level(5)},
	}}

	service := NewService(&stubBalances{}, sheet)

	alerts, err := service.Alerts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(alerts) != 1 || alerts[0].Amount != 0 {
		t.Fatalf("expected zero-stock alert, got %v", alerts)
	}
}

func TestRenderListsItems(t *testing.T) {
	text := Render([]Alert{{ItemID: "flour", Name: "Wheat flour", Amount: 7, MinLevel: 10}})

	if !strings.Contains(text, "Wheat flour") {
		t.Errorf("expected item name in alert text, got %q", text)
	}

	if got := Render(nil); !strings.Contains(got, "above minimum") {
		t.Errorf("expected all-clear text, got %q", got)
	}
}
