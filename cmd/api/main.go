// Command api is the WoDaGOAT Data admin API server.
//
// Usage:
//
//	wodagoat-api
//	API_PORT=8080 STORE_DRIVER=sqlite wodagoat-api

// @title WoDaGOAT Data Admin API
// @version 1.0.0
// @description Admin API for the athlete enrichment and CSV reconciliation pipelines.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @contact.name WoDaGOAT
// @license.name MIT
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/wodagoat/wodagoat-data/internal/api"
	"github.com/wodagoat/wodagoat-data/internal/api/handler"
	"github.com/wodagoat/wodagoat-data/internal/auth"
	"github.com/wodagoat/wodagoat-data/internal/cache"
	"github.com/wodagoat/wodagoat-data/internal/config"
	"github.com/wodagoat/wodagoat-data/internal/enrich"
	"github.com/wodagoat/wodagoat-data/internal/external"
	"github.com/wodagoat/wodagoat-data/internal/metrics"
	"github.com/wodagoat/wodagoat-data/internal/store"

	_ "github.com/wodagoat/wodagoat-data/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Connect to the record store
	logger.Info("Opening record store...", "driver", cfg.StoreDriver)
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	defer appCache.Close()
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	m := metrics.New()

	// Enrichment pipeline
	extractor := enrich.DefaultExtractor()
	if cfg.RulesFile != "" {
		if extractor, err = enrich.LoadExtractorFile(cfg.RulesFile); err != nil {
			return fmt.Errorf("load extraction rules: %w", err)
		}
		logger.Info("Extraction rules loaded", "file", cfg.RulesFile, "rules", len(extractor.Rules()))
	}
	lookup := external.NewWikipediaClient(external.WikipediaOptions{
		BaseURL:           cfg.WikipediaBaseURL,
		UserAgent:         cfg.WikipediaUserAgent,
		Timeout:           cfg.LookupTimeout,
		RequestsPerMinute: cfg.LookupRPM,
		Cache:             appCache,
		CacheTTL:          cfg.LookupCacheTTL,
		Metrics:           m,
		Logger:            logger,
	})
	svc := enrich.NewService(st, lookup, extractor, m, logger)

	// Caller verification
	tokens := auth.ParseTokens(cfg.AdminAPITokens)
	if len(tokens) == 0 {
		if cfg.IsProduction() {
			return fmt.Errorf("ADMIN_API_TOKENS must be set in production")
		}
		logger.Warn("No ADMIN_API_TOKENS configured; admin routes will reject every request")
	}
	verifier := auth.NewVerifier(tokens, st)

	h := handler.New(handler.Deps{
		Store:    st,
		Importer: st,
		Enricher: svc,
		Cache:    appCache,
		Metrics:  m,
		Logger:   logger,
	})
	router := api.NewRouter(h, verifier, m.Handler(), cfg, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // a full scan performs up to 20 sequential lookups
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting WoDaGOAT Data API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down...")

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
