package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"

	"github.com/getdryv/checkout-service/internal/config"
	"github.com/getdryv/checkout-service/internal/infrastructure/database"
	httpServer "github.com/getdryv/checkout-service/internal/infrastructure/http"
	stripeProvider "github.com/getdryv/checkout-service/internal/infrastructure/provider/stripe"
	"github.com/getdryv/checkout-service/internal/usecase"
)

func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Service.StripeSecretKey == "" {
		logger.Fatal("STRIPE_SECRET_KEY is not configured")
	}
	stripe.Key = cfg.Service.StripeSecretKey

	// Build and check the offer catalog before serving anything
	catalog := config.Catalog(cfg.Offers)
	if err := catalog.Validate(); err != nil {
		logger.Fatal("Offer catalog failed integrity check", zap.Error(err))
	}
	logger.Info("Offer catalog loaded", zap.Int("offers", catalog.Len()))

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	repos := database.NewRepositories(db, logger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := stripeProvider.NewProvider(logger)

	// Cancellation outbox worker
	worker := usecase.NewCancellationWorker(
		repos.CancellationTask,
		provider,
		logger,
		cfg.Worker.PollInterval,
		cfg.Worker.BatchSize,
		cfg.Worker.CallTimeout,
	)
	go worker.Run(ctx)

	// Initialize HTTP server
	httpSrv := httpServer.NewServer(cfg, logger, catalog, repos, provider)

	go func() {
		if err := httpSrv.Start(); err != nil {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()

	if err := httpSrv.Shutdown(context.Background()); err != nil {
		logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	logger.Info("Server shut down successfully")
}
