package merge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/statledger/statledger/internal/snapshot"
	"github.com/statledger/statledger/internal/store"
)

// Run merges one season: snapshots as of season-1 plus facts for season
// become the snapshot set as of season. The write is a single atomic
// replacement; any validation or storage error leaves the prior season's
// output untouched.
func Run(ctx context.Context, st *store.Store, season int, logger *slog.Logger) (Result, error) {
	var result Result

	yesterday, err := st.Snapshots(ctx, season-1)
	if err != nil {
		return result, fmt.Errorf("load snapshots for season %d: %w", season-1, err)
	}
	today, err := st.Facts(ctx, season)
	if err != nil {
		return result, fmt.Errorf("load facts for season %d: %w", season, err)
	}
	if len(yesterday) == 0 && len(today) == 0 {
		return result, fmt.Errorf("season %d: no facts and no prior snapshot to merge", season)
	}
	logger.Info("Merging season", "season", season,
		"prior_snapshots", len(yesterday), "facts", len(today))

	merged, err := snapshot.Merge(yesterday, today)
	if err != nil {
		return result, fmt.Errorf("merge season %d: %w", season, err)
	}

	active := make(map[string]bool, len(today))
	for _, f := range today {
		active[f.Name] = true
	}
	prior := make(map[string]bool, len(yesterday))
	for _, s := range yesterday {
		prior[s.Name] = true
	}
	for _, s := range merged {
		switch {
		case active[s.Name] && prior[s.Name]:
			result.Continuing++
		case active[s.Name]:
			result.NewPlayers++
		default:
			result.Inactive++
		}
	}

	if err := st.ReplaceSnapshots(ctx, season, merged); err != nil {
		return result, fmt.Errorf("write snapshots for season %d: %w", season, err)
	}
	result.Seasons = 1
	result.SnapshotsWritten = len(merged)

	logger.Info("Season merged", "season", season, "summary", result.Summary())
	return result, nil
}

// Backfill runs consecutive seasons in order, aborting on the first failure.
// Each season's write commits before the next season starts, so a partial
// backfill leaves a consistent prefix.
func Backfill(ctx context.Context, st *store.Store, from, to int, logger *slog.Logger) (Result, error) {
	var total Result
	if from > to {
		return total, fmt.Errorf("backfill range %d..%d is empty", from, to)
	}
	for season := from; season <= to; season++ {
		result, err := Run(ctx, st, season, logger)
		total.Add(result)
		if err != nil {
			return total, fmt.Errorf("backfill stopped at season %d: %w", season, err)
		}
	}
	logger.Info("Backfill complete", "from", from, "to", to, "summary", total.Summary())
	return total, nil
}
