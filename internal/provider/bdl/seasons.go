package bdl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/statledger/statledger/internal/provider"
)

const defaultBaseURL = "https://api.balldontlie.io/v1"

// playersPerBatch is BDL's maximum page size, reused as the season-averages
// batch size so every player page needs exactly one averages request.
const playersPerBatch = 100

// SeasonHandler fetches and normalizes NBA season averages from BallDontLie.
type SeasonHandler struct {
	client *Client
	logger *slog.Logger
}

// NewSeasonHandler creates a season handler with the given API key.
func NewSeasonHandler(apiKey string, logger *slog.Logger) *SeasonHandler {
	return &SeasonHandler{
		client: NewClient(defaultBaseURL, apiKey, 600, logger),
		logger: logger,
	}
}

// --------------------------------------------------------------------------
// Raw BDL shapes
// --------------------------------------------------------------------------

type bdlPlayerRaw struct {
	ID          int    `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Height      string `json:"height"`
	College     string `json:"college"`
	Country     string `json:"country"`
	DraftYear   *int   `json:"draft_year"`
	DraftRound  *int   `json:"draft_round"`
	DraftNumber *int   `json:"draft_number"`
}

type bdlSeasonAvgRaw struct {
	PlayerID    int     `json:"player_id"`
	Season      int     `json:"season"`
	GamesPlayed int     `json:"games_played"`
	Points      float64 `json:"pts"`
	Rebounds    float64 `json:"reb"`
	Assists     float64 `json:"ast"`
}

// --------------------------------------------------------------------------
// Season facts (players cursor + season averages per batch)
// --------------------------------------------------------------------------

// GetSeasonFacts iterates every NBA player via cursor pagination, fetches
// the batch's season averages, and calls fn once per player who logged the
// season. Players with no averages for the season are skipped.
func (h *SeasonHandler) GetSeasonFacts(ctx context.Context, season int, fn func(provider.PlayerSeason) error) error {
	params := url.Values{"per_page": {strconv.Itoa(playersPerBatch)}}

	for {
		resp, err := h.client.get(ctx, "/players", params)
		if err != nil {
			return fmt.Errorf("fetch players: %w", err)
		}

		var raw []bdlPlayerRaw
		if err := json.Unmarshal(resp.Data, &raw); err != nil {
			return fmt.Errorf("decode players: %w", err)
		}

		if err := h.emitBatch(ctx, season, raw, fn); err != nil {
			return err
		}

		if resp.Meta.NextCursor == nil {
			return nil
		}
		params.Set("cursor", strconv.Itoa(*resp.Meta.NextCursor))
	}
}

// emitBatch fetches season averages for one page of players and emits the
// joined canonical records.
func (h *SeasonHandler) emitBatch(ctx context.Context, season int, players []bdlPlayerRaw, fn func(provider.PlayerSeason) error) error {
	if len(players) == 0 {
		return nil
	}

	params := url.Values{"season": {strconv.Itoa(season)}}
	for _, p := range players {
		params.Add("player_ids[]", strconv.Itoa(p.ID))
	}

	resp, err := h.client.get(ctx, "/season_averages", params)
	if err != nil {
		return fmt.Errorf("fetch season averages: %w", err)
	}

	var averages []bdlSeasonAvgRaw
	if err := json.Unmarshal(resp.Data, &averages); err != nil {
		return fmt.Errorf("decode season averages: %w", err)
	}

	byID := make(map[int]bdlSeasonAvgRaw, len(averages))
	for _, avg := range averages {
		byID[avg.PlayerID] = avg
	}

	for _, p := range players {
		avg, played := byID[p.ID]
		if !played {
			continue
		}
		if err := fn(normalizeSeason(p, avg)); err != nil {
			return err
		}
	}
	return nil
}

func normalizeSeason(p bdlPlayerRaw, avg bdlSeasonAvgRaw) provider.PlayerSeason {
	return provider.PlayerSeason{
		Name:        strings.TrimSpace(p.FirstName + " " + p.LastName),
		Height:      p.Height,
		College:     p.College,
		Country:     p.Country,
		DraftYear:   intStr(p.DraftYear),
		DraftRound:  intStr(p.DraftRound),
		DraftNumber: intStr(p.DraftNumber),
		Season:      avg.Season,
		GamesPlayed: avg.GamesPlayed,
		Points:      avg.Points,
		Rebounds:    avg.Rebounds,
		Assists:     avg.Assists,
	}
}

// intStr renders an optional numeric bio field as free-form text, "" when
// the provider omitted it (undrafted players have no draft fields).
func intStr(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
