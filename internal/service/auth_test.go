package service

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	domainerrors "github.com/pagesync/pagesync-server/internal/errors"
	"github.com/pagesync/pagesync-server/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupServices builds the full service stack on a throwaway sqlite store.
func setupServices(t *testing.T) (*AuthService, *SyncService, *AdminService, *sqlite.Store) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	testStore, err := sqlite.Open(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { testStore.Close() })

	logger := slog.New(slog.DiscardHandler)
	return NewAuthService(testStore, logger),
		NewSyncService(testStore, logger),
		NewAdminService(testStore, logger),
		testStore
}

func TestRegister(t *testing.T) {
	authSvc, _, _, _ := setupServices(t)
	ctx := context.Background()

	resp, err := authSvc.Register(ctx, RegisterRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, "User created successfully", resp.Message)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	authSvc, _, _, _ := setupServices(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, RegisterRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	_, err = authSvc.Register(ctx, RegisterRequest{Username: "alice", Password: "other"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrConflict), "got %v", err)
}

func TestRegister_MissingFields(t *testing.T) {
	authSvc, _, _, _ := setupServices(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, RegisterRequest{Username: "alice"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)

	_, err = authSvc.Register(ctx, RegisterRequest{Password: "s3cret"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)
}

func TestAuthenticate(t *testing.T) {
	authSvc, _, _, _ := setupServices(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, RegisterRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	user, err := authSvc.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestAuthenticate_Failures(t *testing.T) {
	authSvc, _, _, _ := setupServices(t)
	ctx := context.Background()

	_, err := authSvc.Register(ctx, RegisterRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	cases := []struct {
		name     string
		username string
		key      string
	}{
		{"missing credentials", "", ""},
		{"missing key", "alice", ""},
		{"unknown user", "bob", "s3cret"},
		{"wrong key", "alice", "wrong"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := authSvc.Authenticate(ctx, tc.username, tc.key)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrUnauthorized), "got %v", err)
		})
	}
}

func TestCheck(t *testing.T) {
	authSvc, _, _, _ := setupServices(t)
	ctx := context.Background()

	reg, err := authSvc.Register(ctx, RegisterRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)

	resp, err := authSvc.Check(ctx, CheckRequest{Username: "alice", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, reg.ID, resp.ID)
	assert.Equal(t, "alice", resp.Username)
	assert.True(t, resp.Authorized)
}

func TestCheck_MissingFieldsIsValidation(t *testing.T) {
	authSvc, _, _, _ := setupServices(t)

	_, err := authSvc.Check(context.Background(), CheckRequest{Username: "alice"})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)
}
