// Package ingest loads season facts into Postgres, either streamed from an
// external provider or from a local JSON batch file. Facts are the merge's
// input; ingestion never touches snapshot rows.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/statledger/statledger/internal/provider"
	"github.com/statledger/statledger/internal/snapshot"
	"github.com/statledger/statledger/internal/store"
)

// Result tracks counts and errors from a fact load.
type Result struct {
	FactsUpserted int
	Rejected      int
	Errors        []string
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the load.
func (r *Result) Summary() string {
	return fmt.Sprintf("facts=%d rejected=%d errors=%d", r.FactsUpserted, r.Rejected, len(r.Errors))
}

// Source streams canonical season records for one season.
type Source interface {
	GetSeasonFacts(ctx context.Context, season int, fn func(provider.PlayerSeason) error) error
}

// FetchSeason streams one season's records from a provider into the facts
// table. Bad records are rejected individually and reported, never coerced.
func FetchSeason(ctx context.Context, st *store.Store, src Source, season int, logger *slog.Logger) Result {
	var result Result

	logger.Info("Fetching season facts...", "season", season)
	count := 0
	err := src.GetSeasonFacts(ctx, season, func(ps provider.PlayerSeason) error {
		fact := ps.Fact()
		if err := snapshot.ValidateFact(fact); err != nil {
			result.Rejected++
			result.AddErrorf("reject fact: %v", err)
			return nil
		}
		if err := st.UpsertFact(ctx, fact); err != nil {
			result.AddErrorf("upsert fact %q: %v", fact.Name, err)
			return nil
		}
		result.FactsUpserted++
		count++
		if count%50 == 0 {
			logger.Info("Season fact progress", "season", season, "processed", count)
		}
		return nil
	})
	if err != nil {
		result.AddErrorf("fetch season %d: %v", season, err)
	}

	logger.Info("Season facts done", "season", season, "summary", result.Summary())
	return result
}

// LoadFile loads a JSON array of season facts from disk into the facts
// table. Used for fixtures and for seasons no provider serves anymore.
func LoadFile(ctx context.Context, st *store.Store, path string, logger *slog.Logger) (Result, error) {
	var result Result

	data, err := os.ReadFile(path)
	if err != nil {
		return result, fmt.Errorf("read fact file: %w", err)
	}
	var facts []snapshot.PlayerSeasonFact
	if err := json.Unmarshal(data, &facts); err != nil {
		return result, fmt.Errorf("decode fact file %s: %w", path, err)
	}

	logger.Info("Loading fact file", "path", path, "facts", len(facts))
	for _, fact := range facts {
		if err := snapshot.ValidateFact(fact); err != nil {
			result.Rejected++
			result.AddErrorf("reject fact: %v", err)
			continue
		}
		if err := st.UpsertFact(ctx, fact); err != nil {
			result.AddErrorf("upsert fact %q: %v", fact.Name, err)
			continue
		}
		result.FactsUpserted++
	}

	logger.Info("Fact file done", "path", path, "summary", result.Summary())
	return result, nil
}
