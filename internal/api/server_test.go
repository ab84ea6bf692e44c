package api

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagesync/pagesync-server/internal/service"
	"github.com/pagesync/pagesync-server/internal/sse"
	"github.com/pagesync/pagesync-server/internal/store/sqlite"
)

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer creates a fully wired server on a throwaway sqlite store.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := sqlite.Open(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.DiscardHandler)

	manager := sse.NewManager(logger)
	st.SetEventEmitter(manager)

	services := &Services{
		Auth:  service.NewAuthService(st, logger),
		Sync:  service.NewSyncService(st, logger),
		Admin: service.NewAdminService(st, logger),
	}

	s := NewServer(st, services, sse.NewHandler(manager, logger), logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

// registerTestUser creates an account via the public endpoint and returns
// its ID.
func (ts *testServer) registerTestUser(t *testing.T, username, password string) string {
	t.Helper()

	resp := ts.api.Post("/users/create", map[string]any{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, resp.Code, "registration failed: %s", resp.Body.String())

	var body service.RegisterResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body.ID
}

func TestCredentialRateLimit(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "alice", "s3cret")

	limited := false
	for i := 0; i < 40; i++ {
		resp := ts.api.Post("/users/auth", map[string]any{
			"username": "alice",
			"password": "s3cret",
		})
		if resp.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "credential endpoint never rate limited")
}

func TestSyncNotRateLimited(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerTestUser(t, "alice", "s3cret")

	for i := 0; i < 40; i++ {
		rec := ts.doSync(t, http.MethodPut, "/syncs/progress", map[string]any{
			"document": "doc-1",
			"progress": "12",
		}, authHeaders("alice", "s3cret"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Components["database"].Status)
	assert.Equal(t, "healthy", body.Components["sse"].Status)
}

func TestHealthCheck_ClosedDatabase(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
}
