package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"rasoi/internal/db"
	"rasoi/internal/erp"
	"rasoi/internal/minstock"
	"rasoi/internal/pricesheet"
	"rasoi/internal/pricing"
	"rasoi/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {

	// ───────────────────────── ENV ─────────────────────────
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	required := []string{
		"DATABASE_URL",
		"ERP_BASE_URL",
		"ERP_LOGIN",
		"ERP_PASSWORD",
	}

	for _, k := range required {
		if os.Getenv(k) == "" {
			log.Fatalf("❌ Missing env var: %s", k)
		}
	}

	// ───────────────────────── DB ─────────────────────────
	pgDB := db.ConnectPostgres()
	defer pgDB.Close()

	// ───────────────────────── LOCKING ─────────────────────────
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
		log.Println("✅ Redis sync lock enabled")
	}

	// ───────────────────────── STORAGE ─────────────────────────
	var uploader pricesheet.Uploader

	if os.Getenv("R2_ENDPOINT") != "" {
		r2Client, err := storage.NewR2Client(context.Background())
		if err != nil {
			log.Fatal("❌ R2 init failed:", err)
		}
		uploader = r2Client
	}

	// ───────────────────────── ERP ─────────────────────────
	erpClient := erp.NewClient(
		os.Getenv("ERP_BASE_URL"),
		os.Getenv("ERP_LOGIN"),
		os.Getenv("ERP_PASSWORD"),
	)

	// ───────────────────────── SERVICES ─────────────────────────
	sheetRepo := pricesheet.NewPostgresRepository(pgDB)
	sheetService := pricesheet.NewService(sheetRepo, erpClient, uploader)

	runRepo := pricing.NewPostgresRepository(pgDB)
	pricingService := pricing.NewService(
		pricing.NewCollector(erpClient, erpClient),
		pricing.NewChartLoader(erpClient),
		erpClient,
		sheetService,
		runRepo,
		locker,
		lookbackDays(),
		storageScope(),
	)

	minstockService := minstock.NewService(erpClient, sheetService)

	// ───────────────────────── HANDLERS ─────────────────────────
	pricingHandler := pricing.NewHandler(pricingService)
	sheetHandler := pricesheet.NewHandler(sheetService)
	minstockHandler := minstock.NewHandler(minstockService)

	// ───────────────────────── GIN ─────────────────────────
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/sync/prices", pricingHandler.Sync)
	r.GET("/costs", pricingHandler.Costs)
	r.GET("/reports/latest", pricingHandler.LatestReport)

	sheet := r.Group("/pricesheet")
	{
		sheet.GET("/rows", sheetHandler.Rows)
		sheet.GET("/export", sheetHandler.Export)
		sheet.POST("/publish", sheetHandler.Publish)
		sheet.POST("/import", sheetHandler.Import)
	}

	r.GET("/alerts/minstock", minstockHandler.Alerts)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 API listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
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
