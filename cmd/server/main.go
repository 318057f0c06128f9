package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/factures-api/internal/config"
	"github.com/diewo77/factures-api/internal/db"
	"github.com/diewo77/factures-api/internal/server"
	"github.com/joho/godotenv"
)

var migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(newLogger(cfg.Log))

	dbConn, err := db.Open(cfg.Database.URL)
	if err != nil {
		fatal("failed to connect to database", err)
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn); err != nil {
			fatal("migration failed", err)
		}
		slog.Info("migrations completed successfully")
		return
	}

	// Run migrations on startup if enabled
	if cfg.Database.Migrations {
		if err := db.Migrate(dbConn); err != nil {
			fatal("migration failed", err)
		}
		slog.Info("migrations completed")
	}

	ctx := context.Background()
	store, closeStore, err := newStore(ctx, cfg.Storage)
	if err != nil {
		fatal("failed to initialize blob storage", err)
	}
	defer closeStore()

	extractor, err := newExtractor(cfg.OCR)
	if err != nil {
		fatal("failed to initialize ocr", err)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.New(cfg, server.Deps{DB: dbConn, Store: store, Extractor: extractor}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "blob_backend", cfg.Storage.Backend, "ocr_provider", cfg.OCR.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
	slog.Info("server stopped gracefully")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
