package snapshot

import (
	"fmt"
	"math"
	"sort"
)

// Merge reconciles yesterday's cumulative snapshots with today's new facts
// and returns the snapshot set for the new season. It is the full outer join
// on player name, written as an explicit key-set union with a three-way
// branch so the control flow is testable without a storage engine:
//
//  1. fact only: new player, history of one entry.
//  2. fact and snapshot: history appended, attributes coalesced (fact wins
//     when it carries a value), scoring class recomputed.
//  3. snapshot only: carried forward unchanged, inactivity counter bumped.
//
// Merge validates both inputs first and never returns a partial result: any
// duplicate player or malformed fact rejects the whole batch.
func Merge(yesterday []PlayerSnapshot, today []PlayerSeasonFact) ([]PlayerSnapshot, error) {
	facts, season, err := indexFacts(today)
	if err != nil {
		return nil, err
	}
	prior, priorSeason, err := indexSnapshots(yesterday)
	if err != nil {
		return nil, err
	}
	if len(facts) > 0 && len(prior) > 0 && season != priorSeason+1 {
		return nil, fmt.Errorf("%w: facts are for season %d but prior snapshot is as of season %d",
			ErrMalformedFact, season, priorSeason)
	}

	names := make([]string, 0, len(facts)+len(prior))
	for name := range facts {
		names = append(names, name)
	}
	for name := range prior {
		if _, ok := facts[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]PlayerSnapshot, 0, len(names))
	for _, name := range names {
		fact, active := facts[name]
		prev, known := prior[name]

		switch {
		case active && !known:
			out = append(out, PlayerSnapshot{
				Name:         fact.Name,
				Height:       fact.Height,
				College:      fact.College,
				Country:      fact.Country,
				DraftYear:    fact.DraftYear,
				DraftRound:   fact.DraftRound,
				DraftNumber:  fact.DraftNumber,
				SeasonStats:  []SeasonStat{fact.Stat()},
				ScoringClass: Classify(fact.Points),
				Season:       fact.Season,
			})

		case active && known:
			history := make([]SeasonStat, len(prev.SeasonStats), len(prev.SeasonStats)+1)
			copy(history, prev.SeasonStats)
			history = append(history, fact.Stat())
			out = append(out, PlayerSnapshot{
				Name:         prev.Name,
				Height:       coalesce(fact.Height, prev.Height),
				College:      coalesce(fact.College, prev.College),
				Country:      coalesce(fact.Country, prev.Country),
				DraftYear:    coalesce(fact.DraftYear, prev.DraftYear),
				DraftRound:   coalesce(fact.DraftRound, prev.DraftRound),
				DraftNumber:  coalesce(fact.DraftNumber, prev.DraftNumber),
				SeasonStats:  history,
				ScoringClass: Classify(fact.Points),
				Season:       fact.Season,
			})

		default: // inactive this season
			next := prev
			next.YearsSinceLastSeason = prev.YearsSinceLastSeason + 1
			next.Season = prev.Season + 1
			out = append(out, next)
		}
	}
	return out, nil
}

// indexFacts validates a fact batch and returns it keyed by player name,
// along with the batch's single season.
func indexFacts(facts []PlayerSeasonFact) (map[string]PlayerSeasonFact, int, error) {
	byName := make(map[string]PlayerSeasonFact, len(facts))
	season := 0
	for _, f := range facts {
		if err := ValidateFact(f); err != nil {
			return nil, 0, err
		}
		if _, dup := byName[f.Name]; dup {
			return nil, 0, fmt.Errorf("%w: player %q appears twice in fact batch", ErrDuplicateKey, f.Name)
		}
		if season == 0 {
			season = f.Season
		} else if f.Season != season {
			return nil, 0, &MalformedFactError{
				Player: f.Name,
				Field:  "season",
				Reason: fmt.Sprintf("batch mixes seasons %d and %d", season, f.Season),
			}
		}
		byName[f.Name] = f
	}
	return byName, season, nil
}

// indexSnapshots keys the prior snapshot set by player name and returns its
// as-of season.
func indexSnapshots(snapshots []PlayerSnapshot) (map[string]PlayerSnapshot, int, error) {
	byName := make(map[string]PlayerSnapshot, len(snapshots))
	season := 0
	for _, s := range snapshots {
		if _, dup := byName[s.Name]; dup {
			return nil, 0, fmt.Errorf("%w: player %q appears twice in prior snapshot", ErrDuplicateKey, s.Name)
		}
		if season == 0 {
			season = s.Season
		}
		byName[s.Name] = s
	}
	return byName, season, nil
}

// ValidateFact checks a fact's required fields. Ingestion rejects bad facts
// one at a time; Merge rejects the whole batch on the first bad fact.
func ValidateFact(f PlayerSeasonFact) error {
	switch {
	case f.Name == "":
		return &MalformedFactError{Field: "player_name", Reason: "missing"}
	case f.Season <= 0:
		return &MalformedFactError{Player: f.Name, Field: "season", Reason: fmt.Sprintf("must be positive, got %d", f.Season)}
	case f.GamesPlayed < 0:
		return &MalformedFactError{Player: f.Name, Field: "games_played", Reason: fmt.Sprintf("must be non-negative, got %d", f.GamesPlayed)}
	}
	for field, v := range map[string]float64{
		"points":   f.Points,
		"rebounds": f.Rebounds,
		"assists":  f.Assists,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &MalformedFactError{Player: f.Name, Field: field, Reason: "not a finite number"}
		}
	}
	return nil
}

// coalesce prefers the fresh value unless it is unknown.
func coalesce(fresh, prior string) string {
	if fresh != "" {
		return fresh
	}
	return prior
}
