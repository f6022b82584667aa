// Package provider defines the canonical season record that all providers
// normalize into. Providers output these, the ingest runner writes them to
// Postgres; adding a provider never touches the schema or the merge.
package provider

import "github.com/statledger/statledger/internal/snapshot"

// PlayerSeason is one player's season averages plus the bio attributes the
// provider knows. Empty strings mean the provider did not supply the value.
type PlayerSeason struct {
	Name        string  `json:"name"`
	Height      string  `json:"height,omitempty"`
	College     string  `json:"college,omitempty"`
	Country     string  `json:"country,omitempty"`
	DraftYear   string  `json:"draft_year,omitempty"`
	DraftRound  string  `json:"draft_round,omitempty"`
	DraftNumber string  `json:"draft_number,omitempty"`
	Season      int     `json:"season"`
	GamesPlayed int     `json:"games_played"`
	Points      float64 `json:"points"`
	Rebounds    float64 `json:"rebounds"`
	Assists     float64 `json:"assists"`
}

// Fact converts the canonical record into the merge-side fact shape.
func (p PlayerSeason) Fact() snapshot.PlayerSeasonFact {
	return snapshot.PlayerSeasonFact{
		Name:        p.Name,
		Height:      p.Height,
		College:     p.College,
		Country:     p.Country,
		DraftYear:   p.DraftYear,
		DraftRound:  p.DraftRound,
		DraftNumber: p.DraftNumber,
		Season:      p.Season,
		GamesPlayed: p.GamesPlayed,
		Points:      p.Points,
		Rebounds:    p.Rebounds,
		Assists:     p.Assists,
	}
}
