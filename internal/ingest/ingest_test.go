package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func writeFactFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "facts.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(context.Background(), nil, "/nonexistent/facts.json", testLogger)
	assert.Error(t, err)
}

func TestLoadFileBadJSON(t *testing.T) {
	path := writeFactFile(t, `{"not": "an array"}`)
	_, err := LoadFile(context.Background(), nil, path, testLogger)
	assert.Error(t, err)
}

func TestLoadFileRejectsMalformedFacts(t *testing.T) {
	// Every fact is invalid, so the store is never touched.
	path := writeFactFile(t, `[
		{"player_name": "", "season": 2001, "games_played": 10, "points": 5, "rebounds": 2, "assists": 1},
		{"player_name": "No Season", "season": 0, "games_played": 10, "points": 5, "rebounds": 2, "assists": 1}
	]`)

	result, err := LoadFile(context.Background(), nil, path, testLogger)
	require.NoError(t, err)
	assert.Equal(t, 0, result.FactsUpserted)
	assert.Equal(t, 2, result.Rejected)
	assert.Len(t, result.Errors, 2)
	assert.Equal(t, "facts=0 rejected=2 errors=2", result.Summary())
}
