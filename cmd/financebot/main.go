package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Sypoo1/finance/internal/amqp"
	"github.com/Sypoo1/finance/internal/bot"
	"github.com/Sypoo1/finance/internal/config"
	apphttp "github.com/Sypoo1/finance/internal/http"
	"github.com/Sypoo1/finance/internal/ledger"
	"github.com/Sypoo1/finance/internal/log"
	"github.com/Sypoo1/finance/internal/storage"
	"github.com/Sypoo1/finance/internal/telegram"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	// Load configuration
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	if cfg.TelegramToken == "" {
		logger.Error("TELEGRAM_TOKEN is required")
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
	logger.Info("Repository initialized", "backend", cfg.DataBackend)

	// Initialize AMQP client for publishing ledger events (optional)
	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP event publishing disabled - no AMQP_URL provided")
	}

	svc := ledger.NewService(repo, events)
	defer svc.Close()

	router := bot.NewRouter(svc)
	sender := telegram.NewClient(cfg.TelegramToken, nil)

	srv := apphttp.NewServer(":"+cfg.Port, router, sender, cfg.WebhookSecret)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting financebot server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
