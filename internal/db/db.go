// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wodagoat/wodagoat-data/internal/config"
)

// Prepared statement names shared with the store package.
const (
	StmtHealthCheck        = "health_check"
	StmtAthleteByID        = "athlete_by_id"
	StmtAthletesByIDs      = "athletes_by_ids"
	StmtAthletesIncomplete = "athletes_incomplete"
	StmtAthleteIDsByName   = "athlete_ids_by_name"
	StmtUserIsAdmin        = "user_is_admin"
)

// AthleteColumns is the select list every athlete read scans, in order.
const AthleteColumns = `id::text, name, country_of_origin, nationality, positions,
	profile_picture_url, to_char(date_of_birth, 'YYYY-MM-DD'), to_char(date_of_death, 'YYYY-MM-DD'),
	is_active, career_start_year, career_end_year, clubs, updated_at`

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, StmtHealthCheck).Scan(&n)
}

// registerPreparedStatements registers the fixed-shape statements the store
// uses. Dynamic statements (partial updates, upserts) are sent unprepared.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		StmtHealthCheck: "SELECT 1",

		// Enrichment: target resolution
		StmtAthleteByID: "SELECT " + AthleteColumns + " FROM athletes WHERE id::text = $1",
		StmtAthletesByIDs: "SELECT " + AthleteColumns + " FROM athletes WHERE id::text = ANY($1) " +
			"ORDER BY array_position($1, id::text) LIMIT $2",
		StmtAthletesIncomplete: "SELECT " + AthleteColumns + " FROM athletes " +
			"WHERE NULLIF(TRIM(country_of_origin), '') IS NULL OR NULLIF(TRIM(nationality), '') IS NULL " +
			"OR COALESCE(cardinality(positions), 0) = 0 OR NULLIF(TRIM(profile_picture_url), '') IS NULL " +
			"ORDER BY name LIMIT $1",

		// Import: duplicate detection by exact name
		StmtAthleteIDsByName: "SELECT id::text, name FROM athletes WHERE name = ANY($1) ORDER BY created_at",

		// Authorization
		StmtUserIsAdmin: "SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role = $2)",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
