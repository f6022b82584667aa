// Package store persists season facts and cumulative player snapshots in
// Postgres. The vendor array-of-composite history column is represented as a
// JSONB array of season entries; the store owns that encoding so the domain
// package stays storage-free.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/statledger/statledger/internal/config"
	"github.com/statledger/statledger/internal/snapshot"
)

// ErrNotFound means the requested snapshot row does not exist.
var ErrNotFound = errors.New("snapshot not found")

// ReplaceChannel is the pg_notify channel fired when a season's snapshot set
// is replaced.
const ReplaceChannel = "snapshot_replaced"

// ReplaceEvent is the JSON payload sent on ReplaceChannel.
type ReplaceEvent struct {
	Season    int   `json:"season"`
	Players   int   `json:"players"`
	Timestamp int64 `json:"ts"`
}

// Store provides fact-source and snapshot-store access over a shared pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --------------------------------------------------------------------------
// Facts (merge input / ingestion output)
// --------------------------------------------------------------------------

// Facts reads all season facts for one season, ordered by player name.
func (s *Store) Facts(ctx context.Context, season int) ([]snapshot.PlayerSeasonFact, error) {
	rows, err := s.pool.Query(ctx, "facts_by_season", season)
	if err != nil {
		return nil, fmt.Errorf("query facts for season %d: %w", season, err)
	}
	defer rows.Close()

	var facts []snapshot.PlayerSeasonFact
	for rows.Next() {
		var (
			f                               snapshot.PlayerSeasonFact
			height, college, country        *string
			draftYear, draftRound, draftNum *string
		)
		if err := rows.Scan(
			&f.Name, &height, &college, &country,
			&draftYear, &draftRound, &draftNum,
			&f.Season, &f.GamesPlayed, &f.Points, &f.Rebounds, &f.Assists,
		); err != nil {
			return nil, fmt.Errorf("scan fact row: %w", err)
		}
		f.Height = deref(height)
		f.College = deref(college)
		f.Country = deref(country)
		f.DraftYear = deref(draftYear)
		f.DraftRound = deref(draftRound)
		f.DraftNumber = deref(draftNum)
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// UpsertFact writes one season fact, keyed on (player_name, season).
// Descriptive attributes follow last-known-value-wins: an unknown value in
// the incoming fact never clears a previously stored one.
func (s *Store) UpsertFact(ctx context.Context, f snapshot.PlayerSeasonFact) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+config.FactsTable+` (
			player_name, height, college, country,
			draft_year, draft_round, draft_number,
			season, games_played, points, rebounds, assists
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (player_name, season) DO UPDATE SET
			height = COALESCE(EXCLUDED.height, `+config.FactsTable+`.height),
			college = COALESCE(EXCLUDED.college, `+config.FactsTable+`.college),
			country = COALESCE(EXCLUDED.country, `+config.FactsTable+`.country),
			draft_year = COALESCE(EXCLUDED.draft_year, `+config.FactsTable+`.draft_year),
			draft_round = COALESCE(EXCLUDED.draft_round, `+config.FactsTable+`.draft_round),
			draft_number = COALESCE(EXCLUDED.draft_number, `+config.FactsTable+`.draft_number),
			games_played = EXCLUDED.games_played,
			points = EXCLUDED.points,
			rebounds = EXCLUDED.rebounds,
			assists = EXCLUDED.assists,
			updated_at = NOW()`,
		f.Name, nilEmpty(f.Height), nilEmpty(f.College), nilEmpty(f.Country),
		nilEmpty(f.DraftYear), nilEmpty(f.DraftRound), nilEmpty(f.DraftNumber),
		f.Season, f.GamesPlayed, f.Points, f.Rebounds, f.Assists,
	)
	return err
}

// --------------------------------------------------------------------------
// Snapshots
// --------------------------------------------------------------------------

// Snapshots reads the full snapshot set for one as-of season.
func (s *Store) Snapshots(ctx context.Context, season int) ([]snapshot.PlayerSnapshot, error) {
	rows, err := s.pool.Query(ctx, "snapshots_by_season", season)
	if err != nil {
		return nil, fmt.Errorf("query snapshots for season %d: %w", season, err)
	}
	defer rows.Close()

	var out []snapshot.PlayerSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Snapshot reads one player's snapshot for one as-of season.
func (s *Store) Snapshot(ctx context.Context, season int, player string) (snapshot.PlayerSnapshot, error) {
	row := s.pool.QueryRow(ctx, "snapshot_by_player", season, player)
	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return snapshot.PlayerSnapshot{}, ErrNotFound
	}
	return snap, err
}

// Seasons lists all as-of seasons with at least one snapshot row.
func (s *Store) Seasons(ctx context.Context) ([]int, error) {
	rows, err := s.pool.Query(ctx, "snapshot_seasons")
	if err != nil {
		return nil, fmt.Errorf("query snapshot seasons: %w", err)
	}
	defer rows.Close()

	var seasons []int
	for rows.Next() {
		var season int
		if err := rows.Scan(&season); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		seasons = append(seasons, season)
	}
	return seasons, rows.Err()
}

// LatestSeason returns the most recent as-of season, 0 when no snapshots exist.
func (s *Store) LatestSeason(ctx context.Context) (int, error) {
	var season int
	if err := s.pool.QueryRow(ctx, "latest_snapshot_season").Scan(&season); err != nil {
		return 0, fmt.Errorf("query latest season: %w", err)
	}
	return season, nil
}

// ReplaceSnapshots atomically replaces the snapshot set for one as-of season.
// Readers see either the complete old set or the complete new one, never a
// mix; a failed write leaves the prior rows untouched.
func (s *Store) ReplaceSnapshots(ctx context.Context, season int, snaps []snapshot.PlayerSnapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM "+config.SnapshotsTable+" WHERE season = $1", season); err != nil {
		return fmt.Errorf("clear season %d: %w", season, err)
	}

	batch := &pgx.Batch{}
	for _, snap := range snaps {
		history, err := json.Marshal(snap.SeasonStats)
		if err != nil {
			return fmt.Errorf("encode history for %q: %w", snap.Name, err)
		}
		batch.Queue(`
			INSERT INTO `+config.SnapshotsTable+` (
				player_name, height, college, country,
				draft_year, draft_round, draft_number,
				season_stats, scoring_class, years_since_last_season, season
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			snap.Name, nilEmpty(snap.Height), nilEmpty(snap.College), nilEmpty(snap.Country),
			nilEmpty(snap.DraftYear), nilEmpty(snap.DraftRound), nilEmpty(snap.DraftNumber),
			history, snap.ScoringClass.String(), snap.YearsSinceLastSeason, snap.Season,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert snapshots for season %d: %w", season, err)
	}

	// Tell listeners (API cache invalidation) the season was replaced.
	// Delivered on commit, so consumers never see the event before the rows.
	payload, _ := json.Marshal(ReplaceEvent{
		Season:    season,
		Players:   len(snaps),
		Timestamp: time.Now().Unix(),
	})
	if _, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", ReplaceChannel, string(payload)); err != nil {
		return fmt.Errorf("notify season %d: %w", season, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit season %d: %w", season, err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Scanning helpers
// --------------------------------------------------------------------------

func scanSnapshot(row pgx.Row) (snapshot.PlayerSnapshot, error) {
	var (
		snap                            snapshot.PlayerSnapshot
		height, college, country        *string
		draftYear, draftRound, draftNum *string
		history                         []byte
		class                           string
	)
	if err := row.Scan(
		&snap.Name, &height, &college, &country,
		&draftYear, &draftRound, &draftNum,
		&history, &class, &snap.YearsSinceLastSeason, &snap.Season,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snapshot.PlayerSnapshot{}, err
		}
		return snapshot.PlayerSnapshot{}, fmt.Errorf("scan snapshot row: %w", err)
	}
	snap.Height = deref(height)
	snap.College = deref(college)
	snap.Country = deref(country)
	snap.DraftYear = deref(draftYear)
	snap.DraftRound = deref(draftRound)
	snap.DraftNumber = deref(draftNum)

	if err := json.Unmarshal(history, &snap.SeasonStats); err != nil {
		return snapshot.PlayerSnapshot{}, fmt.Errorf("decode history for %q: %w", snap.Name, err)
	}
	parsed, err := snapshot.ParseClass(class)
	if err != nil {
		return snapshot.PlayerSnapshot{}, fmt.Errorf("snapshot for %q: %w", snap.Name, err)
	}
	snap.ScoringClass = parsed
	return snap, nil
}

// nilEmpty returns nil for empty strings (maps to SQL NULL).
func nilEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
