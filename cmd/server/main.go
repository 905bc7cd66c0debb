package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"papertrade/internal/auth"
	"papertrade/internal/config"
	"papertrade/internal/database"
	"papertrade/internal/ledger"
	"papertrade/internal/logger"
	"papertrade/internal/quote"
	"papertrade/internal/web"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Optional quote cache; a missing redis only costs extra API lookups.
	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := cache.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis unreachable, quote caching disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			cache = nil
		} else {
			log.Info("Quote cache connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	quotes := quote.NewClient(&cfg.Quote, cache, log)
	authSvc := auth.NewService(db, log, decimal.NewFromFloat(cfg.Trading.StartingCash))
	ledgerSvc := ledger.NewService(db, log)
	srv := web.NewServer(log, authSvc, ledgerSvc, quotes, cfg.Session.Secret)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Handler(),
	}

	// Setup graceful shutdown
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	log.Info("Starting web server", zap.String("address", httpServer.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Web server failed", zap.Error(err))
	}

	log.Info("Server has been shut down.")
}
