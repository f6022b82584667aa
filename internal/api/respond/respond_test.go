package respond

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, []byte(`{"ok":true}`), `W/"abc"`, time.Minute, true)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `W/"abc"`, rec.Header().Get("ETag"))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "public, max-age=60, stale-while-revalidate=30", rec.Header().Get("Cache-Control"))
	assert.Equal(t, `{"ok":true}`, rec.Body.String())
}

func TestWriteNotModified(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteNotModified(rec, `W/"abc"`)

	assert.Equal(t, 304, rec.Code)
	assert.Equal(t, `W/"abc"`, rec.Header().Get("ETag"))
	assert.Empty(t, rec.Body.String())
}

func TestWriteErrorShape(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 404, "NOT_FOUND", "Snapshot not found")

	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "Snapshot not found", resp.Error.Message)
	assert.Empty(t, resp.Error.Detail)
}
