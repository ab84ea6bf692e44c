package api

import (
	"github.com/pagesync/pagesync-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth  *service.AuthService
	Sync  *service.SyncService
	Admin *service.AdminService
}
