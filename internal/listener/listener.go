// Package listener provides a Postgres LISTEN/NOTIFY consumer that keeps the
// API's response cache honest. It holds a dedicated pgx connection (not from
// the pool) listening on the snapshot_replaced channel.
//
// A merge run replaces one season's snapshot rows and fires pg_notify inside
// the same transaction; this consumer receives the event and drops every
// cached response built from that season.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/statledger/statledger/internal/cache"
	"github.com/statledger/statledger/internal/store"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Start opens a dedicated connection and listens on the snapshot_replaced
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, appCache *cache.Cache, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, appCache, logger)
		if ctx.Err() != nil {
			logger.Info("Snapshot listener stopped (context cancelled)")
			return
		}

		logger.Error("Snapshot listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, appCache *cache.Cache, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+store.ReplaceChannel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", store.ReplaceChannel, err)
	}
	logger.Info("Snapshot listener connected", "channel", store.ReplaceChannel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		var event store.ReplaceEvent
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			logger.Warn("Failed to parse snapshot event",
				"payload", notification.Payload, "error", err)
			continue
		}

		dropped := appCache.InvalidatePrefix(fmt.Sprintf("/api/v1/snapshots/%d", event.Season))
		dropped += appCache.InvalidatePrefix("/api/v1/seasons")
		logger.Info("Season snapshots replaced, cache invalidated",
			"season", event.Season, "players", event.Players, "dropped_keys", dropped)
	}
}
