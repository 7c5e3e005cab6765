package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wodagoat/wodagoat-data/internal/config"
	"github.com/wodagoat/wodagoat-data/internal/db"
)

// Open connects the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("SQLite store opened", "path", cfg.SQLitePath)
		return s, nil
	case config.DriverPostgres, "":
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
		return NewPostgres(pool, logger), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
