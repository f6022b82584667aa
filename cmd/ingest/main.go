// Command ingest is the Statledger fact ingestion and merge CLI.
//
// Usage:
//
//	statledger-ingest facts fetch --season 2025
//	statledger-ingest facts load --file facts_2025.json
//	statledger-ingest merge run --season 2025
//	statledger-ingest merge backfill --from 1996 --to 2025
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/statledger/statledger/internal/config"
	"github.com/statledger/statledger/internal/db"
	"github.com/statledger/statledger/internal/ingest"
	"github.com/statledger/statledger/internal/merge"
	"github.com/statledger/statledger/internal/provider/bdl"
	"github.com/statledger/statledger/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "statledger-ingest",
		Short: "Statledger fact ingestion and merge CLI",
	}

	root.AddCommand(factsCmd())
	root.AddCommand(mergeCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// facts command
// --------------------------------------------------------------------------

func factsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Load season facts into the facts table",
	}
	cmd.AddCommand(factsFetchCmd())
	cmd.AddCommand(factsLoadCmd())
	return cmd
}

func factsFetchCmd() *cobra.Command {
	var season int
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch season facts from BallDontLie",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDB(func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				if cfg.BDLAPIKey == "" {
					return fmt.Errorf("BALLDONTLIE_API_KEY is required")
				}
				handler := bdl.NewSeasonHandler(cfg.BDLAPIKey, logger)
				start := time.Now()
				result := ingest.FetchSeason(ctx, st, handler, season, logger)
				logger.Info("Fact fetch finished", "season", season,
					"duration", time.Since(start).Round(time.Second), "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("ingest error", "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", config.CurrentSeason, "Season year")
	return cmd
}

func factsLoadCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load season facts from a local JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			return runDB(func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				start := time.Now()
				result, err := ingest.LoadFile(ctx, st, file, logger)
				if err != nil {
					return err
				}
				logger.Info("Fact load finished", "file", file,
					"duration", time.Since(start).Round(time.Second), "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("ingest error", "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to a JSON array of season facts")
	return cmd
}

// --------------------------------------------------------------------------
// merge command
// --------------------------------------------------------------------------

func mergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge season facts into cumulative snapshots",
	}
	cmd.AddCommand(mergeRunCmd())
	cmd.AddCommand(mergeBackfillCmd())
	return cmd
}

func mergeRunCmd() *cobra.Command {
	var season int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Merge one season into the snapshot table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDB(func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				if season == 0 {
					latest, err := st.LatestSeason(ctx)
					if err != nil {
						return err
					}
					if latest == 0 {
						return fmt.Errorf("no snapshots yet; pass --season for the bootstrap merge")
					}
					season = latest + 1
					logger.Info("No season given, merging next season", "season", season)
				}
				start := time.Now()
				result, err := merge.Run(ctx, st, season, logger)
				if err != nil {
					return err
				}
				logger.Info("Merge finished", "season", season,
					"duration", time.Since(start).Round(time.Second), "summary", result.Summary())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "Season year (default: latest snapshot season + 1)")
	return cmd
}

func mergeBackfillCmd() *cobra.Command {
	var from, to int
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Merge a consecutive range of seasons in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == 0 || to == 0 {
				return fmt.Errorf("--from and --to are required")
			}
			return runDB(func(ctx context.Context, cfg *config.Config, st *store.Store) error {
				start := time.Now()
				result, err := merge.Backfill(ctx, st, from, to, logger)
				if err != nil {
					return err
				}
				logger.Info("Backfill finished", "from", from, "to", to,
					"duration", time.Since(start).Round(time.Second), "summary", result.Summary())
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "First season to merge")
	cmd.Flags().IntVar(&to, "to", 0, "Last season to merge (inclusive)")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runDB handles config loading, DB connection, and context cancellation.
func runDB(fn func(ctx context.Context, cfg *config.Config, st *store.Store) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, store.New(pool.Pool))
}
