package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/statledger/statledger/internal/api/respond"
	"github.com/statledger/statledger/internal/cache"
	"github.com/statledger/statledger/internal/config"
	"github.com/statledger/statledger/internal/snapshot"
	"github.com/statledger/statledger/internal/store"
)

// GetSeasons lists all as-of seasons that have snapshot rows.
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	h.cached(w, r, cache.TTLSeasonList, func() (interface{}, error) {
		seasons, err := h.store.Seasons(r.Context())
		if err != nil {
			return nil, err
		}
		if seasons == nil {
			seasons = []int{}
		}
		return map[string]interface{}{"seasons": seasons}, nil
	})
}

// GetSeasonSnapshots returns the full snapshot set for one as-of season.
func (h *Handler) GetSeasonSnapshots(w http.ResponseWriter, r *http.Request) {
	season, ok := seasonParam(w, r)
	if !ok {
		return
	}
	h.cached(w, r, ttlForSeason(season), func() (interface{}, error) {
		snaps, err := h.store.Snapshots(r.Context(), season)
		if err != nil {
			return nil, err
		}
		if snaps == nil {
			snaps = []snapshot.PlayerSnapshot{}
		}
		return map[string]interface{}{"season": season, "snapshots": snaps}, nil
	})
}

// GetPlayerSnapshot returns one player's snapshot for one as-of season.
func (h *Handler) GetPlayerSnapshot(w http.ResponseWriter, r *http.Request) {
	season, player, ok := h.snapshotParams(w, r)
	if !ok {
		return
	}
	h.cached(w, r, ttlForSeason(season), func() (interface{}, error) {
		return h.store.Snapshot(r.Context(), season, player)
	})
}

// GetPlayerHistory unpacks one snapshot's cumulative history into per-season
// rows.
func (h *Handler) GetPlayerHistory(w http.ResponseWriter, r *http.Request) {
	season, player, ok := h.snapshotParams(w, r)
	if !ok {
		return
	}
	h.cached(w, r, ttlForSeason(season), func() (interface{}, error) {
		snap, err := h.store.Snapshot(r.Context(), season, player)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"player_name": snap.Name,
			"season":      snap.Season,
			"history":     snapshot.Expand(snap),
		}, nil
	})
}

// GetPlayerGrowth returns the latest-over-first points ratio for one
// snapshot. A snapshot with no history is a 422, not a 500.
func (h *Handler) GetPlayerGrowth(w http.ResponseWriter, r *http.Request) {
	season, player, ok := h.snapshotParams(w, r)
	if !ok {
		return
	}
	snap, err := h.store.Snapshot(r.Context(), season, player)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	ratio, err := snapshot.GrowthRatio(snap)
	if errors.Is(err, snapshot.ErrEmptyHistory) {
		respond.WriteError(w, http.StatusUnprocessableEntity, "EMPTY_HISTORY",
			"Snapshot has no season history")
		return
	}
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to compute growth ratio")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"player_name":  snap.Name,
		"season":       snap.Season,
		"growth_ratio": ratio,
	})
}

// --------------------------------------------------------------------------
// Shared plumbing
// --------------------------------------------------------------------------

// cached serves a response through the TTL cache with ETag revalidation.
func (h *Handler) cached(w http.ResponseWriter, r *http.Request, ttl time.Duration, load func() (interface{}, error)) {
	key := r.URL.RequestURI()
	ifNoneMatch := r.Header.Get("If-None-Match")

	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(ifNoneMatch, etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	v, err := load()
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to encode response")
		return
	}
	etag := h.cache.Set(key, data, ttl)
	if cache.CheckETagMatch(ifNoneMatch, etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Snapshot not found")
		return
	}
	respond.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Database query failed")
}

func seasonParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	season, err := strconv.Atoi(chi.URLParam(r, "season"))
	if err != nil || season <= 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_SEASON", "Season must be a positive integer")
		return 0, false
	}
	return season, true
}

func (h *Handler) snapshotParams(w http.ResponseWriter, r *http.Request) (int, string, bool) {
	season, ok := seasonParam(w, r)
	if !ok {
		return 0, "", false
	}
	player := chi.URLParam(r, "player")
	if player == "" {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_PLAYER", "Player name is required")
		return 0, "", false
	}
	return season, player, true
}

// ttlForSeason caches the season being actively merged for a shorter window
// than immutable historical seasons.
func ttlForSeason(season int) time.Duration {
	if season >= config.CurrentSeason {
		return cache.TTLCurrentSeason
	}
	return cache.TTLHistorical
}
