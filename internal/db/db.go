// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/statledger/statledger/internal/config"
)

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
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the API and merge
// layers use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Merge: inputs
		"facts_by_season": `SELECT player_name, height, college, country,
			draft_year, draft_round, draft_number,
			season, games_played, points, rebounds, assists
			FROM ` + config.FactsTable + ` WHERE season = $1 ORDER BY player_name`,

		"snapshots_by_season": `SELECT player_name, height, college, country,
			draft_year, draft_round, draft_number,
			season_stats, scoring_class, years_since_last_season, season
			FROM ` + config.SnapshotsTable + ` WHERE season = $1 ORDER BY player_name`,

		// API: single-player lookups
		"snapshot_by_player": `SELECT player_name, height, college, country,
			draft_year, draft_round, draft_number,
			season_stats, scoring_class, years_since_last_season, season
			FROM ` + config.SnapshotsTable + ` WHERE season = $1 AND player_name = $2`,

		// API: season discovery
		"snapshot_seasons":       "SELECT DISTINCT season FROM " + config.SnapshotsTable + " ORDER BY season",
		"latest_snapshot_season": "SELECT COALESCE(MAX(season), 0) FROM " + config.SnapshotsTable,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
