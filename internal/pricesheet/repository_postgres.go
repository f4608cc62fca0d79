package pricesheet

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// --------------------------------------------------
// LIST ROWS
// --------------------------------------------------
func (r *PostgresRepository) ListRows(ctx context.Context) ([]PriceRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT
			item_id,
			name,
			unit,
			computed_cost,
			cost_source,
			min_level,
			distributor_prices,
			updated_at
		FROM price_rows
		ORDER BY name, item_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PriceRow

	for rows.Next() {
		var (
			row PriceRow
			raw []byte
		)
		if err := rows.Scan(
			&row.ItemID,
			&row.Name,
			&row.Unit,
			&row.ComputedCost,
			&row.CostSource,
			&row.MinLevel,
			&raw,
			&row.UpdatedAt,
		); err != nil {
			return nil, err
		}

		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &row.DistributorPrices); err != nil {
				return nil, err
			}
		}

		result = append(result, row)
	}

	return result, rows.Err()
}

// --------------------------------------------------
// UPSERT COMPUTED COSTS (ATOMIC, NEVER TOUCHES MANUAL COLUMNS)
// --------------------------------------------------
func (r *PostgresRepository) UpsertComputedCosts(ctx context.Context, costs []ComputedCost) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, c := range costs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO price_rows (
				item_id,
				name,
				unit,
				computed_cost,
				cost_source,
				distributor_prices,
				updated_at
			)
			VALUES ($1, $2, $3, $4, $5, '{}', now())
			ON CONFLICT (item_id) DO UPDATE
			SET name = EXCLUDED.name,
			    unit = EXCLUDED.unit,
			    computed_cost = EXCLUDED.computed_cost,
			    cost_source = EXCLUDED.cost_source,
			    updated_at = now()
		`, c.ItemID, c.Name, c.Unit, c.Cost, c.Source); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// --------------------------------------------------
// SAVE MANUAL DISTRIBUTOR PRICES
// --------------------------------------------------
func (r *PostgresRepository) SaveManualEdits(ctx context.Context, edits []ManualEdit) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, e := range edits {
		if _, err := tx.Exec(ctx, `
			UPDATE price_rows
			SET distributor_prices = jsonb_set(
			        COALESCE(distributor_prices, '{}'::jsonb),
			        ARRAY[$2],
			        to_jsonb($3::float8)
			    ),
			    updated_at = now()
			WHERE item_id = $1
		`, e.ItemID, e.Distributor, e.Price); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// --------------------------------------------------
// SAVE MIN LEVELS
// --------------------------------------------------
func (r *PostgresRepository) SaveMinLevels(ctx context.Context, levels map[string]float64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for itemID, level := range levels {
		if _, err := tx.Exec(ctx, `
			UPDATE price_rows
			SET min_level = $2,
			    updated_at = now()
			WHERE item_id = $1
		`, itemID, level); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
