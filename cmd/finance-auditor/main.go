package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Sypoo1/finance/internal/amqp"
	"github.com/Sypoo1/finance/internal/config"
	"github.com/Sypoo1/finance/internal/log"
	"github.com/Sypoo1/finance/internal/storage"
	"github.com/Sypoo1/finance/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentAuditor)
	log.SetDefault(logger)

	logger.Info("Starting finance-auditor")

	// Load configuration
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the auditor")
		os.Exit(1)
	}

	// Initialize the ledger store
	var (
		repo *storage.Repository
		err  error
	)
	switch cfg.DataBackend {
	case "postgres":
		repo, err = storage.NewPostgresRepository(cfg.PostgresURL)
	default:
		repo, err = storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	}
	if err != nil {
		logger.Error("Failed to initialize repository", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer repo.Close()

	// Initialize AMQP client for consuming ledger events
	events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer events.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rec := worker.NewReconciler(repo)

	// Snapshot stored balances before consuming, so the first pass has a baseline
	if err := rec.Seed(ctx); err != nil {
		logger.Error("Failed to seed reconciler", log.FieldError, err)
		os.Exit(1)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return events.ConsumeEvents(ctx, rec.HandleEvent)
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.ReconcileInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				drifts, err := rec.Reconcile(ctx)
				if err != nil {
					logger.Error("Reconcile pass failed", log.FieldError, err)
					continue
				}
				logger.Info("Reconcile pass completed", "drifts", len(drifts))
			}
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Auditor stopped", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Auditor stopped gracefully")
}
