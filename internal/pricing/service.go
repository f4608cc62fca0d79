package pricing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const syncLockName = "price-sync"

// ErrSyncInProgress is returned when another sync holds the lock.
var ErrSyncInProgress = errors.New("price sync already in progress")

// Catalog resolves item kinds for the whole product catalog.
type Catalog interface {
	ItemKinds(ctx context.Context) (map[string]ItemKind, error)
}

// SheetSync pushes the complete computed cost map into the external
// price sheet. Implementations own the read-merge-write discipline
// that keeps manually entered distributor prices intact.
type SheetSync interface {
	PushComputedCosts(ctx context.Context, costs CostMap) error
}

// Service runs the full cost sync: collect and load in parallel,
// resolve, push to the sheet, record the run.
type Service struct {
	collector *Collector
	charts    *ChartLoader
	catalog   Catalog
	sheet     SheetSync
	repo      Repository
	locker    Locker

	lookbackDays int
	storageScope map[string]bool
}

func NewService(
	collector *Collector,
	charts *ChartLoader,
	catalog Catalog,
	sheet SheetSync,
	repo Repository,
	locker Locker,
	lookbackDays int,
	storageScope map[string]bool,
) *Service {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &Service{
		collector:    collector,
		charts:       charts,
		catalog:      catalog,
		sheet:        sheet,
		repo:         repo,
		locker:       locker,
		lookbackDays: lookbackDays,
		storageScope: storageScope,
	}
}

// SyncPrices runs one complete cost sync and returns its report.
//
// The whole run is a single logical operation: nothing is written to
// the sheet until the merged cost map is complete, and concurrent
// invocations are rejected with ErrSyncInProgress rather than queued.
func (s *Service) SyncPrices(ctx context.Context) (*SyncReport, error) {
	ok, err := s.locker.TryLock(ctx, syncLockName)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return nil, ErrSyncInProgress
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), syncLockName); err != nil {
			log.Printf("SYNC_UNLOCK_FAILED err=%v", err)
		}
	}()

	started := time.Now()
	asOf := started

	var (
		primitive CostMap
		charts    map[string]RecipeChart
		kinds     map[string]ItemKind
	)

	// The three feeds are independent reads; fetch them together.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		primitive, err = s.collector.CollectPrimitiveCosts(gctx, s.lookbackDays, s.storageScope)
		return err
	})

	g.Go(func() error {
		var err error
		charts, err = s.charts.LoadEffectiveCharts(gctx, asOf)
		return err
	})

	g.Go(func() error {
		var err error
		kinds, err = s.catalog.ItemKinds(gctx)
		if err != nil {
			return fmt.Errorf("fetch item kinds: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	resolved := ResolveCosts(primitive, charts, kinds)
	merged := MergeCosts(primitive, resolved)

	report := BuildReport(primitive, resolved, charts)
	report.RunID = uuid.New().String()
	report.AsOf = asOf
	report.StartedAt = started

	if err := s.sheet.PushComputedCosts(ctx, merged); err != nil {
		return nil, fmt.Errorf("push costs to price sheet: %w", err)
	}

	report.FinishedAt = time.Now()

	if err := s.repo.SaveRun(ctx, report); err != nil {
		// The sheet is already consistent; losing run history is
		// worth a warning, not a failed sync.
		log.Printf("SYNC_RUN_SAVE_FAILED run=%s err=%v", report.RunID, err)
	}

	log.Printf("SYNC_DONE run=%s stock=%d receipt=%d recipe=%d no_chart=%d unpriced=%d cycles=%d",
		report.RunID,
		report.PricedFromStock,
		report.PricedFromReceipts,
		report.PricedFromRecipes,
		len(report.NoChart),
		len(report.UnpricedIngredients),
		len(report.Cycles),
	)

	return report, nil
}

// Costs returns the current catalog-wide cost map without touching
// the price sheet. Used by read-only API queries.
func (s *Service) Costs(ctx context.Context) (CostMap, error) {
	var (
		primitive CostMap
		charts    map[string]RecipeChart
		kinds     map[string]ItemKind
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		primitive, err = s.collector.CollectPrimitiveCosts(gctx, s.lookbackDays, s.storageScope)
		return err
	})

	g.Go(func() error {
		var err error
		charts, err = s.charts.LoadEffectiveCharts(gctx, time.Now())
		return err
	})

	g.Go(func() error {
		var err error
		kinds, err = s.catalog.ItemKinds(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return MergeCosts(primitive, ResolveCosts(primitive, charts, kinds)), nil
}

// LatestReport returns the most recent persisted sync report.
func (s *Service) LatestReport(ctx context.Context) (*SyncReport, error) {
	return s.repo.LatestRun(ctx)
}
