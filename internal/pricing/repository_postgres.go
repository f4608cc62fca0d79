package pricing

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ErrNoRuns is returned when no sync has been recorded yet.
var ErrNoRuns = errors.New("no sync runs recorded")

type unresolvedDoc struct {
	NoChart             []string `json:"no_chart"`
	UnpricedIngredients []string `json:"unpriced_ingredients"`
	Cycles              []string `json:"cycles"`
}

func (r *PostgresRepository) SaveRun(ctx context.Context, report *SyncReport) error {
	doc, err := json.Marshal(unresolvedDoc{
		NoChart:             report.NoChart,
		UnpricedIngredients: report.UnpricedIngredients,
		Cycles:              report.Cycles,
	})
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO sync_runs (
			id,
			as_of,
			started_at,
			finished_at,
			priced_stock,
			priced_receipt,
			priced_recipe,
			unresolved
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		report.RunID,
		report.AsOf,
		report.StartedAt,
		report.FinishedAt,
		report.PricedFromStock,
		report.PricedFromReceipts,
		report.PricedFromRecipes,
		doc,
	)

	return err
}

func (r *PostgresRepository) LatestRun(ctx context.Context) (*SyncReport, error) {
	var (
		report SyncReport
		raw    []byte
	)

	err := r.db.QueryRow(ctx, `
		SELECT
			id,
			as_of,
			started_at,
			finished_at,
			priced_stock,
			priced_receipt,
			priced_recipe,
			unresolved
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(
		&report.RunID,
		&report.AsOf,
		&report.StartedAt,
		&report.FinishedAt,
		&report.PricedFromStock,
		&report.PricedFromReceipts,
		&report.PricedFromRecipes,
		&raw,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRuns
		}
		return nil, err
	}

	var doc unresolvedDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	report.NoChart = doc.NoChart
	report.UnpricedIngredients = doc.UnpricedIngredients
	report.Cycles = doc.Cycles

	return &report, nil
}
