package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// --------------------------------------------------
// Mock collaborators
// --------------------------------------------------

type mockCatalog struct {
	kinds map[string]ItemKind
	err   error
}

func (m *mockCatalog) ItemKinds(ctx context.Context) (map[string]ItemKind, error) {
	return m.kinds, m.err
}

type mockSheet struct {
	mu     sync.Mutex
	pushed []CostMap
	err    error
}

func (m *mockSheet) PushComputedCosts(ctx context.Context, costs CostMap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.pushed = append(m.pushed, costs)
	return nil
}

type mockRunRepo struct {
	saved []*SyncReport
}

func (m *mockRunRepo) SaveRun(ctx context.Context, report *SyncReport) error {
	m.saved = append(m.saved, report)
	return nil
}

func (m *mockRunRepo) LatestRun(ctx context.Context) (*SyncReport, error) {
	if len(m.saved) == 0 {
		return nil, ErrNoRuns
	}
	return m.saved[len(m.saved)-1], nil
}

type blockingBalanceFeed struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingBalanceFeed) StockBalances(ctx context.Context) ([]StockBalance, error) {
	b.once.Do(func() { close(b.entered) })
	select {
	case <-b.release:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newTestService(balances BalanceFeed, receipts ReceiptFeed, charts ChartFeed, sheet SheetSync, repo Repository) *Service {
	return NewService(
		NewCollector(balances, receipts),
		NewChartLoader(charts),
		&mockCatalog{kinds: map[string]ItemKind{}},
		sheet,
		repo,
		NewLocalLocker(),
		30,
		nil,
	)
}

// --------------------------------------------------
// TESTS
// --------------------------------------------------

func TestSyncPricesPushesCompleteMap(t *testing.T) {
	balances := &mockBalanceFeed{balances: []StockBalance{
		{LocationID: "w1", ItemID: "flour", Amount: 10, Value: 5},
	}}
	charts := &mockChartFeed{charts: []RecipeChart{
		chart("dough", 1.0, line("flour", 2)),
	}}
	sheet := &mockSheet{}
	repo := &mockRunRepo{}

	service := newTestService(balances, &mockReceiptFeed{}, charts, sheet, repo)

	report, err := service.SyncPrices(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sheet.pushed) != 1 {
		t.Fatalf("expected exactly one sheet push, got %d", len(sheet.pushed))
	}

	pushed := sheet.pushed[0]
	if pushed["flour"].Cost != 0.5 {
		t.Errorf("expected flour=0.5 in pushed map, got %v", pushed["flour"])
	}
	if pushed["dough"].Cost != 1.0 {
		t.Errorf("expected dough=1.0 in pushed map, got %v", pushed["dough"])
	}

	if report.RunID == "" {
		t.Error("expected run id assigned")
	}
	if len(repo.saved) != 1 {
		t.Errorf("expected run recorded, got %d", len(repo.saved))
	}
}

func TestSyncPricesUpstreamFailureWritesNothing(t *testing.T) {
	boom := errors.New("erp down")
	sheet := &mockSheet{}

	service := newTestService(
		&mockBalanceFeed{err: boom},
		&mockReceiptFeed{},
		&mockChartFeed{},
		sheet,
		&mockRunRepo{},
	)

	if _, err := service.SyncPrices(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}

	if len(sheet.pushed) != 0 {
		t.Error("sheet must not be written on upstream failure")
	}
}

func TestSyncPricesSerialized(t *testing.T) {
	feed := &blockingBalanceFeed{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	sheet := &mockSheet{}

	service := newTestService(
		feed,
		&mockReceiptFeed{},
		&mockChartFeed{},
		sheet,
		&mockRunRepo{},
	)

	firstDone := make(chan error, 1)
	go func() {
		_, err := service.SyncPrices(context.Background())
		firstDone <- err
	}()

	// Once the feed is called, the first sync holds the lock.
	select {
	case <-feed.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first sync never started fetching")
	}

	if _, err := service.SyncPrices(context.Background()); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}

	close(feed.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first sync failed: %v", err)
	}

	// Lock released; a new sync may run again.
	if _, err := service.SyncPrices(context.Background()); err != nil {
		t.Fatalf("sync after release failed: %v", err)
	}
}

func TestSyncPricesSheetFailureSurfaces(t *testing.T) {
	boom := errors.New("sheet gone")

	service := newTestService(
		&mockBalanceFeed{},
		&mockReceiptFeed{},
		&mockChartFeed{},
		&mockSheet{err: boom},
		&mockRunRepo{},
	)

	if _, err := service.SyncPrices(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected sheet error surfaced, got %v", err)
	}
}

func TestLatestReportNoRuns(t *testing.T) {
	service := newTestService(
		&mockBalanceFeed{},
		&mockReceiptFeed{},
		&mockChartFeed{},
		&mockSheet{},
		&mockRunRepo{},
	)

	if _, err := service.LatestReport(context.Background()); !errors.Is(err, ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns, got %v", err)
	}
}
