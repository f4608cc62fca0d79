package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"rasoi/internal/db"
	"rasoi/internal/erp"
	"rasoi/internal/pricesheet"
	"rasoi/internal/pricing"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, using environment variables")
	}

	log.Println("💰 Cost worker starting...")

	for _, k := range []string{"DATABASE_URL", "ERP_BASE_URL", "ERP_LOGIN", "ERP_PASSWORD"} {
		if os.Getenv(k) == "" {
			log.Fatalf("❌ Missing env var: %s", k)
		}
	}

	// Database connection
	pgDB := db.ConnectPostgres()
	defer pgDB.Close()

	// Lock: redis when available, in-process otherwise
	var locker pricing.Locker = pricing.NewLocalLocker()
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal("❌ Redis connection failed:", err)
		}
		locker = pricing.NewRedisLocker(rdb, 10*time.Minute)
	}

	erpClient := erp.NewClient(
		os.Getenv("ERP_BASE_URL"),
		os.Getenv("ERP_LOGIN"),
		os.Getenv("ERP_PASSWORD"),
	)

	sheetRepo := pricesheet.NewPostgresRepository(pgDB)
	sheetService := pricesheet.NewService(sheetRepo, erpClient, nil)

	service := pricing.NewService(
		pricing.NewCollector(erpClient, erpClient),
		pricing.NewChartLoader(erpClient),
		erpClient,
		sheetService,
		pricing.NewPostgresRepository(pgDB),
		locker,
		lookbackDays(),
		storageScope(),
	)

	interval := syncInterval()

	log.Printf("✅ Cost worker running, syncing every %s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce(service)
	for range ticker.C {
		runOnce(service)
	}
}

func runOnce(service *pricing.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := service.SyncPrices(ctx)
	if err != nil {
		if errors.Is(err, pricing.ErrSyncInProgress) {
			log.Println("⏭  Sync already running elsewhere, skipping")
			return
		}
		log.Printf("⚠️  Sync failed: %v", err)
		return
	}

	log.Print(report.Render())
}

func syncInterval() time.Duration {
	v := os.Getenv("SYNC_INTERVAL_MINUTES")
	if v == "" {
		return 60 * time.Minute
	}
	minutes, err := strconv.Atoi(v)
	if err != nil || minutes <= 0 {
		log.Fatalf("❌ Invalid SYNC_INTERVAL_MINUTES: %q", v)
	}
	return time.Duration(minutes) * time.Minute
}

func lookbackDays() int {
	v := os.Getenv("RECEIPT_LOOKBACK_DAYS")
	if v == "" {
		return 30
	}
	days, err := strconv.Atoi(v)
	if err != nil || days <= 0 {
		log.Fatalf("❌ Invalid RECEIPT_LOOKBACK_DAYS: %q", v)
	}
	return days
}

func storageScope() map[string]bool {
	v := os.Getenv("STORAGE_SCOPE")
	if v == "" {
		return nil
	}

	scope := make(map[string]bool)
	for _, id := range strings.Split(v, ",") {
		if id = strings.TrimSpace(id); id != "" {
			scope[id] = true
		}
	}
	return scope
}
