package bdl

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statledger/statledger/internal/provider"
)

func testHandler(t *testing.T, srv *httptest.Server) *SeasonHandler {
	t.Helper()
	return &SeasonHandler{
		client: NewClient(srv.URL, "test-key", 60000, nil),
	}
}

func TestGetSeasonFacts(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/players":
			if r.URL.Query().Get("cursor") == "" {
				// First page: two players, more to come.
				fmt.Fprint(w, `{
					"data": [
						{"id": 1, "first_name": "Tim", "last_name": "Duncan", "height": "6-11",
						 "college": "Wake Forest", "country": "USA",
						 "draft_year": 1997, "draft_round": 1, "draft_number": 1},
						{"id": 2, "first_name": "Ben", "last_name": "Wallace", "height": "6-9",
						 "college": "Virginia Union", "country": "USA"}
					],
					"meta": {"next_cursor": 2}
				}`)
				return
			}
			// Last page: one player who did not log the season.
			fmt.Fprint(w, `{
				"data": [{"id": 3, "first_name": "Nobody", "last_name": "Rookie"}],
				"meta": {}
			}`)
		case "/season_averages":
			assert.Equal(t, "2003", r.URL.Query().Get("season"))
			ids := r.URL.Query()["player_ids[]"]
			if len(ids) == 2 {
				fmt.Fprint(w, `{
					"data": [
						{"player_id": 1, "season": 2003, "games_played": 69, "pts": 22.3, "reb": 12.4, "ast": 3.2},
						{"player_id": 2, "season": 2003, "games_played": 81, "pts": 9.5, "reb": 12.4, "ast": 1.7}
					],
					"meta": {}
				}`)
				return
			}
			fmt.Fprint(w, `{"data": [], "meta": {}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h := testHandler(t, srv)
	var facts []provider.PlayerSeason
	err := h.GetSeasonFacts(context.Background(), 2003, func(ps provider.PlayerSeason) error {
		facts = append(facts, ps)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotAuth)

	// Player 3 never logged the season, so only two facts come out.
	require.Len(t, facts, 2)
	assert.Equal(t, provider.PlayerSeason{
		Name: "Tim Duncan", Height: "6-11", College: "Wake Forest", Country: "USA",
		DraftYear: "1997", DraftRound: "1", DraftNumber: "1",
		Season: 2003, GamesPlayed: 69, Points: 22.3, Rebounds: 12.4, Assists: 3.2,
	}, facts[0])

	// Undrafted player: draft fields stay empty rather than "0".
	assert.Equal(t, "Ben Wallace", facts[1].Name)
	assert.Equal(t, "", facts[1].DraftYear)
}

func TestGetSeasonFactsStopsOnCallbackError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/players":
			fmt.Fprint(w, `{"data": [{"id": 1, "first_name": "A", "last_name": "B"}], "meta": {"next_cursor": 5}}`)
		case "/season_averages":
			fmt.Fprint(w, `{"data": [{"player_id": 1, "season": 2003, "games_played": 1, "pts": 1, "reb": 1, "ast": 1}], "meta": {}}`)
		}
	}))
	defer srv.Close()

	h := testHandler(t, srv)
	wantErr := fmt.Errorf("stop")
	calls := 0
	err := h.GetSeasonFacts(context.Background(), 2003, func(provider.PlayerSeason) error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
}

func TestGetSeasonFactsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	h := testHandler(t, srv)
	err := h.GetSeasonFacts(context.Background(), 2003, func(provider.PlayerSeason) error {
		t.Fatal("callback should not run")
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
