package api

import (
	"encoding/json/v2"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagesync/pagesync-server/internal/domain"
	"github.com/pagesync/pagesync-server/internal/service"
)

// pushSnapshot seeds a device sync through the public endpoint.
func (ts *testServer) pushSnapshot(t *testing.T, username, password string, body map[string]any) {
	t.Helper()

	rec := ts.doSync(t, http.MethodPut, "/syncs/progress", body, authHeaders(username, password))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestListBooksEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "alice", "s3cret")

	ts.pushSnapshot(t, "alice", "s3cret", map[string]any{
		"document":   "doc-1",
		"progress":   "12",
		"percentage": 0.3,
		"device":     "Kindle1",
		"timestamp":  int64(1700000000000),
		"title":      "Dune",
		"authors":    "Frank Herbert",
	})

	resp := ts.api.Get("/api/books")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var books []service.BookSummary
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &books))
	require.Len(t, books, 1)
	assert.Equal(t, "doc-1", books[0].DocumentHash)
	assert.Equal(t, int64(1700000000000), books[0].LastSynced)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, "Frank Herbert", books[0].Authors)
	assert.Equal(t, 0.3, books[0].Percentage)
	assert.Equal(t, "Kindle1", books[0].Device)
}

func TestEditBookEndpoint_MetadataOnly(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "alice", "s3cret")
	ts.pushSnapshot(t, "alice", "s3cret", map[string]any{
		"document": "doc-1",
		"progress": "12",
		"device":   "Kindle1",
	})

	resp := ts.api.Put("/api/books/doc-1", map[string]any{
		"title": "Dune Messiah",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body service.EditBookResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "updated", body.Status)
	assert.Equal(t, "Dune Messiah", body.Metadata.Title)
	assert.False(t, body.NewProgress)

	// The device's progress is untouched.
	rec := ts.doSync(t, http.MethodGet, "/syncs/progress/doc-1", nil, authHeaders("alice", "s3cret"))
	require.Equal(t, http.StatusOK, rec.Code)

	var pull pullResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pull))
	assert.Equal(t, "12", pull.Progress)
	assert.Equal(t, "Kindle1", pull.Device)
}

func TestEditBookEndpoint_PercentageOverride(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "alice", "s3cret")
	ts.pushSnapshot(t, "alice", "s3cret", map[string]any{
		"document":   "doc-1",
		"progress":   "12",
		"percentage": 0.3,
		"device":     "Kindle1",
	})

	resp := ts.api.Put("/api/books/doc-1", map[string]any{
		"percentage": 80,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body service.EditBookResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.True(t, body.NewProgress)

	// Devices pull the override.
	rec := ts.doSync(t, http.MethodGet, "/syncs/progress/doc-1", nil, authHeaders("alice", "s3cret"))
	require.Equal(t, http.StatusOK, rec.Code)

	var pull pullResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pull))
	assert.Equal(t, 0.8, pull.Percentage)
	assert.Equal(t, domain.AdminDeviceName, pull.Device)

	// The dashboard keeps showing real device activity.
	listResp := ts.api.Get("/api/books")
	require.Equal(t, http.StatusOK, listResp.Code)

	var books []service.BookSummary
	require.NoError(t, json.Unmarshal(listResp.Body.Bytes(), &books))
	require.Len(t, books, 1)
	assert.Equal(t, "Kindle1", books[0].Device)
	assert.Equal(t, 0.3, books[0].Percentage)
}

func TestEditBookEndpoint_NoFields(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "alice", "s3cret")
	ts.pushSnapshot(t, "alice", "s3cret", map[string]any{
		"document": "doc-1",
		"progress": "12",
	})

	resp := ts.api.Put("/api/books/doc-1", map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	assertErrorBody(t, resp.Body.Bytes(), "no fields to update")
}

func TestEditBookEndpoint_UnknownDocument(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Put("/api/books/nope", map[string]any{
		"title": "Dune",
	})
	require.Equal(t, http.StatusNotFound, resp.Code)
	assertErrorBody(t, resp.Body.Bytes(), "book not found")
}

func TestDeleteBookEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "alice", "s3cret")
	ts.pushSnapshot(t, "alice", "s3cret", map[string]any{
		"document": "doc-1",
		"progress": "12",
	})

	resp := ts.api.Delete("/api/books/doc-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body service.DeleteBookResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "deleted", body.Status)
	assert.Equal(t, int64(1), body.Changes)

	// Deleting again is a 404; the ledger has nothing left to remove.
	resp = ts.api.Delete("/api/books/doc-1")
	require.Equal(t, http.StatusNotFound, resp.Code)

	rec := ts.doSync(t, http.MethodGet, "/syncs/progress/doc-1", nil, authHeaders("alice", "s3cret"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "{}", strings.TrimSpace(rec.Body.String()))
}

func TestRenameDeviceEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "alice", "s3cret")
	ts.pushSnapshot(t, "alice", "s3cret", map[string]any{
		"document": "doc-1",
		"progress": "12",
		"device":   "Kindle1",
	})

	resp := ts.api.Put("/api/devices/rename", map[string]any{
		"old_name": "Kindle1",
		"new_name": "Kobo",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var body service.RenameDeviceResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "updated", body.Status)
	assert.Equal(t, int64(1), body.Changes)

	rec := ts.doSync(t, http.MethodGet, "/syncs/progress/doc-1", nil, authHeaders("alice", "s3cret"))
	var pull pullResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pull))
	assert.Equal(t, "Kobo", pull.Device)
}

func TestRenameDeviceEndpoint_MissingNames(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Put("/api/devices/rename", map[string]any{
		"old_name": "Kindle1",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
}

func TestRenameDeviceEndpoint_ReservedName(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Put("/api/devices/rename", map[string]any{
		"old_name": "Kindle1",
		"new_name": domain.AdminDeviceName,
	})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assertErrorBody(t, resp.Body.Bytes(), domain.AdminDeviceName+" is a reserved device name")
}

func TestDebugFetchEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "alice", "s3cret")
	ts.pushSnapshot(t, "alice", "s3cret", map[string]any{
		"document":   "doc-1",
		"progress":   "12",
		"percentage": 0.3,
		"device":     "Kindle1",
	})

	resp := ts.api.Get("/api/debug/fetch/doc-1")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var snap domain.ProgressSnapshot
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &snap))
	assert.Equal(t, "doc-1", snap.DocumentHash)
	assert.Equal(t, "12", snap.Progress)
	assert.Equal(t, domain.SourceDevice, snap.Source)
}

func TestDebugFetchEndpoint_Unknown(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/debug/fetch/nope")
	require.Equal(t, http.StatusNotFound, resp.Code)
	assertErrorBody(t, resp.Body.Bytes(), "no data found")
}
