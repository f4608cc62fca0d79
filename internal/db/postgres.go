package db

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func ConnectPostgres() *pgxpool.Pool {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatal(err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		log.Fatal(err)
	}

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal("Postgres connection failed:", err)
	}

	log.Println("✅ Connected to PostgreSQL")

	// Initialize schema
	if err := initSchema(db); err != nil {
		log.Fatal("Failed to initialize schema:", err)
	}

	return db
}

// initSchema creates or updates the database schema
func initSchema(db *pgxpool.Pool) error {
	ctx := context.Background()

	// -------------------------------
	// PRICE ROWS (mirror of the editable price sheet)
	// -------------------------------
	priceRowsSQL := `
		CREATE TABLE IF NOT EXISTS price_rows (
			item_id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL DEFAULT '',
			unit VARCHAR(32) NOT NULL DEFAULT '',
			computed_cost DOUBLE PRECISION NULL,
			cost_source VARCHAR(50) NOT NULL DEFAULT '',
			min_level DOUBLE PRECISION NULL,
			distributor_prices JSONB NOT NULL DEFAULT '{}',
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(ctx, priceRowsSQL); err != nil {
		return err
	}

	// -------------------------------
	// SYNC RUNS
	// -------------------------------
	syncRunsSQL := `
		CREATE TABLE IF NOT EXISTS sync_runs (
			id VARCHAR(36) PRIMARY KEY,
			as_of TIMESTAMP NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			priced_stock INT NOT NULL DEFAULT 0,
			priced_receipt INT NOT NULL DEFAULT 0,
			priced_recipe INT NOT NULL DEFAULT 0,
			unresolved JSONB NOT NULL DEFAULT '{}'
		)
	`
	if _, err := db.Exec(ctx, syncRunsSQL); err != nil {
		return err
	}

	log.Println("✅ Schema initialized successfully")
	return nil
}
