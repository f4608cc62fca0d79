package pricing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// BalanceFeed returns current stock balances across storage locations.
type BalanceFeed interface {
	StockBalances(ctx context.Context) ([]StockBalance, error)
}

// ReceiptFeed returns incoming-goods receipts within a date range.
type ReceiptFeed interface {
	Receipts(ctx context.Context, from, to time.Time) ([]Receipt, error)
}

// Collector gathers primitive per-unit costs for raw goods from the
// two independent price signals: weighted-average stock balance cost
// and most-recent receipt price.
type Collector struct {
	balances BalanceFeed
	receipts ReceiptFeed
}

func NewCollector(balances BalanceFeed, receipts ReceiptFeed) *Collector {
	return &Collector{balances: balances, receipts: receipts}
}

type costTally struct {
	valueSum  float64
	amountSum float64
}

// CollectPrimitiveCosts builds the primitive cost map.
//
// Precedence per item: within-scope weighted average, then
// organization-wide weighted average, then latest positive receipt
// price within the lookback window. A department's own storages often
// lack stock for items it doesn't purchase directly, hence the
// three-tier fallback. Non-positive observed prices are discarded.
//
// Both upstream fetches are read-only and independent, so they run
// concurrently; either failing fails the whole collection.
func (c *Collector) CollectPrimitiveCosts(
	ctx context.Context,
	lookbackDays int,
	storageScope map[string]bool,
) (CostMap, error) {

	var (
		balances []StockBalance
		receipts []Receipt
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		balances, err = c.balances.StockBalances(gctx)
		if err != nil {
			return fmt.Errorf("fetch stock balances: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		to := time.Now()
		from := to.AddDate(0, 0, -lookbackDays)

		var err error
		receipts, err = c.receipts.Receipts(gctx, from, to)
		if err != nil {
			return fmt.Errorf("fetch receipts: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	scoped := make(map[string]*costTally)
	orgWide := make(map[string]*costTally)

	for _, b := range balances {
		tally(orgWide, b)
		if storageScope != nil && storageScope[b.LocationID] {
			tally(scoped, b)
		}
	}

	costs := make(CostMap)

	for itemID, t := range orgWide {
		if s, ok := scoped[itemID]; ok && s.amountSum > 0 {
			t = s
		}
		if t.amountSum <= 0 {
			continue
		}
		avg := t.valueSum / t.amountSum
		if avg <= 0 {
			continue
		}
		costs[itemID] = UnitCost{ItemID: itemID, Cost: avg, Source: SourceStockAvg}
	}

	// Receipt fallback: oldest first so later receipts overwrite,
	// leaving the most recent positive price per item.
	sort.Slice(receipts, func(i, j int) bool {
		return receipts[i].Date.Before(receipts[j].Date)
	})

	lastPrice := make(map[string]float64)
	for _, r := range receipts {
		for _, line := range r.Lines {
			if line.UnitPrice <= 0 {
				continue
			}
			lastPrice[line.ItemID] = line.UnitPrice
		}
	}

	for itemID, price := range lastPrice {
		if _, ok := costs[itemID]; ok {
			continue
		}
		costs[itemID] = UnitCost{ItemID: itemID, Cost: price, Source: SourceLastReceipt}
	}

	return costs, nil
}

func tally(m map[string]*costTally, b StockBalance) {
	t, ok := m[b.ItemID]
	if !ok {
		t = &costTally{}
		m[b.ItemID] = t
	}
	t.valueSum += b.Value
	t.amountSum += b.Amount
}
