package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/folioview/folio-backend/internal/api"
	"github.com/folioview/folio-backend/internal/config"
	"github.com/folioview/folio-backend/internal/database"
	"github.com/folioview/folio-backend/internal/eastmoney"
	"github.com/folioview/folio-backend/internal/repository"
	"github.com/folioview/folio-backend/internal/scheduler"
	"github.com/folioview/folio-backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database: %s", cfg.Database.Path)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	assetRepo := repository.NewAssetRepository(db)
	dealRepo := repository.NewDealRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	// Create services
	systemService := service.NewSystemService(db)
	pricingService := service.NewPricingService(priceRepo, dealRepo)
	snapshotService := service.NewSnapshotService(dealRepo, snapshotRepo)
	historyService := service.NewHistoryService(
		snapshotRepo,
		dealRepo,
		priceRepo,
		assetRepo,
		historyRepo,
		pricingService,
		cfg.Analytics.CutoffHour,
	)
	summaryService := service.NewSummaryService(
		historyRepo,
		snapshotRepo,
		dealRepo,
		assetRepo,
		pricingService,
	)
	refreshService := service.NewRefreshService(dealRepo, snapshotService, historyService)
	priceService := service.NewPriceService(
		dealRepo,
		assetRepo,
		priceRepo,
		eastmoney.NewFundClient(),
		cfg.Fetch.Concurrency,
	)

	// Create router
	router := api.NewRouter(api.Services{
		System:  systemService,
		Summary: summaryService,
		Refresh: refreshService,
		Assets:  assetRepo,
		Prices:  priceRepo,
		Deals:   dealRepo,
	}, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Nightly refresh scheduler
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	var sched *scheduler.Scheduler
	if cfg.Schedule.Enabled {
		sched = scheduler.New(schedCtx, priceService, refreshService)
		if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
			log.Fatalf("Failed to register scheduler: %v", err)
		}
		sched.Start()
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	if sched != nil {
		sched.Stop()
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
