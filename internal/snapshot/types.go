// Package snapshot implements the cumulative player snapshot model: merging
// one season of new facts into the running per-player history, plus the
// read-side helpers that unpack it. Everything here is pure and storage-free;
// persistence lives in internal/store.
package snapshot

import (
	"encoding/json"
	"fmt"
)

// SeasonStat is one historical entry in a player's cumulative history.
type SeasonStat struct {
	Season      int     `json:"season"`
	GamesPlayed int     `json:"games_played"`
	Points      float64 `json:"points"`
	Rebounds    float64 `json:"rebounds"`
	Assists     float64 `json:"assists"`
}

// PlayerSeasonFact is one source observation: a player's season averages plus
// whatever descriptive attributes the provider knew at the time. Empty string
// means unknown; unknown values never overwrite previously known ones.
type PlayerSeasonFact struct {
	Name        string  `json:"player_name"`
	Height      string  `json:"height"`
	College     string  `json:"college"`
	Country     string  `json:"country"`
	DraftYear   string  `json:"draft_year"`
	DraftRound  string  `json:"draft_round"`
	DraftNumber string  `json:"draft_number"`
	Season      int     `json:"season"`
	GamesPlayed int     `json:"games_played"`
	Points      float64 `json:"points"`
	Rebounds    float64 `json:"rebounds"`
	Assists     float64 `json:"assists"`
}

// Stat returns the fact's metrics as a history entry.
func (f PlayerSeasonFact) Stat() SeasonStat {
	return SeasonStat{
		Season:      f.Season,
		GamesPlayed: f.GamesPlayed,
		Points:      f.Points,
		Rebounds:    f.Rebounds,
		Assists:     f.Assists,
	}
}

// PlayerSnapshot is the cumulative state of one player as of one season.
// Identity is (Name, Season); each merge produces a new row set keyed by the
// new season rather than updating rows in place.
type PlayerSnapshot struct {
	Name                 string       `json:"player_name"`
	Height               string       `json:"height"`
	College              string       `json:"college"`
	Country              string       `json:"country"`
	DraftYear            string       `json:"draft_year"`
	DraftRound           string       `json:"draft_round"`
	DraftNumber          string       `json:"draft_number"`
	SeasonStats          []SeasonStat `json:"season_stats"`
	ScoringClass         ScoringClass `json:"scoring_class"`
	YearsSinceLastSeason int          `json:"years_since_last_season"`
	Season               int          `json:"season"`
}

// --------------------------------------------------------------------------
// Scoring class
// --------------------------------------------------------------------------

// ScoringClass is a coarse performance tier derived from points per game.
type ScoringClass int

const (
	ClassBad ScoringClass = iota
	ClassAverage
	ClassGood
	ClassStar
)

// Classify maps a points-per-game average onto a scoring class. Thresholds
// are strict: exactly 20.0 is good, not star.
func Classify(points float64) ScoringClass {
	switch {
	case points > 20:
		return ClassStar
	case points > 15:
		return ClassGood
	case points > 10:
		return ClassAverage
	default:
		return ClassBad
	}
}

var classNames = map[ScoringClass]string{
	ClassBad:     "bad",
	ClassAverage: "average",
	ClassGood:    "good",
	ClassStar:    "star",
}

func (c ScoringClass) String() string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return fmt.Sprintf("ScoringClass(%d)", int(c))
}

// MarshalJSON encodes the class as its lowercase tag.
func (c ScoringClass) MarshalJSON() ([]byte, error) {
	s, ok := classNames[c]
	if !ok {
		return nil, fmt.Errorf("invalid scoring class %d", int(c))
	}
	return json.Marshal(s)
}

// UnmarshalJSON decodes a lowercase tag, rejecting unknown values.
func (c *ScoringClass) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	class, err := ParseClass(s)
	if err != nil {
		return err
	}
	*c = class
	return nil
}

// ParseClass maps a lowercase tag back onto a ScoringClass.
func ParseClass(s string) (ScoringClass, error) {
	for class, name := range classNames {
		if name == s {
			return class, nil
		}
	}
	return 0, fmt.Errorf("unknown scoring class %q", s)
}
