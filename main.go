package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kaspi-seller-dashboard/config"
	"kaspi-seller-dashboard/internal/analytics"
	"kaspi-seller-dashboard/internal/api"
	"kaspi-seller-dashboard/internal/auth"
	"kaspi-seller-dashboard/internal/cache"
	"kaspi-seller-dashboard/internal/dashboard"
	"kaspi-seller-dashboard/internal/database"
	"kaspi-seller-dashboard/internal/events"
	"kaspi-seller-dashboard/internal/ingest"
	"kaspi-seller-dashboard/internal/kaspi"
	"kaspi-seller-dashboard/internal/logging"
	"kaspi-seller-dashboard/internal/marketing"
	"kaspi-seller-dashboard/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Setup(cfg.LoggingConfig)

	if cfg.AuthConfig.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET must be set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := database.NewDB(cfg.DatabaseConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(ctx, 30*time.Second)
	if err := db.RunMigrations(migrateCtx); err != nil {
		migrateCancel()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	migrateCancel()

	repo := database.NewRepository(db)

	// Report snapshot cache (optional)
	var reportCache *cache.ReportCache
	if cfg.RedisConfig.Enabled {
		reportCache, err = cache.NewReportCache(cfg.RedisConfig)
		if err != nil {
			log.Printf("[MAIN] Report cache disabled: %v", err)
			reportCache = nil
		} else {
			defer reportCache.Close()
		}
	}

	// Merchant credential store
	vaultClient, err := vault.NewClient(cfg.VaultConfig)
	if err != nil {
		log.Fatalf("Failed to create vault client: %v", err)
	}

	// Event bus feeds the websocket hub
	eventBus := events.NewEventBus()

	// Marketplace and campaign clients
	kaspiFactory := kaspi.NewClientFactory(cfg.KaspiConfig, vaultClient)
	marketingClient := marketing.NewClient(cfg.MarketingConfig)

	storeSettings := analytics.StoreSettings{
		CommissionRate: cfg.StoreConfig.CommissionRate,
		TaxRate:        cfg.StoreConfig.TaxRate,
	}

	// Ingest pipeline
	ingestService := ingest.NewService(repo, kaspiFactory, eventBus, storeSettings)
	scheduler := ingest.NewScheduler(ingestService, repo, cfg.SyncConfig)
	go scheduler.Start(ctx)

	// Dashboard orchestrator
	var snapshots dashboard.SnapshotCache
	if reportCache != nil {
		snapshots = reportCache
	}
	dashboardService := dashboard.NewService(repo, marketingClient, snapshots, eventBus)

	// Auth
	jwtManager := auth.NewJWTManager(cfg.AuthConfig.JWTSecret,
		cfg.AuthConfig.AccessTokenDuration, cfg.AuthConfig.RefreshTokenDuration)
	passwords := auth.NewPasswordManager(cfg.AuthConfig.BcryptCost, cfg.AuthConfig.MinPasswordLength)
	authService := auth.NewService(repo, jwtManager, passwords)

	// HTTP server
	server := api.NewServer(
		cfg.ServerConfig,
		cfg.StoreConfig,
		repo,
		eventBus,
		authService,
		jwtManager,
		vaultClient,
		dashboardService,
		ingestService,
		kaspiFactory,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("[MAIN] Received signal %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			log.Printf("[MAIN] Server error: %v", err)
		}
	}

	cancel()
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[MAIN] Shutdown error: %v", err)
	}
	log.Println("[MAIN] Shutdown complete")
}
