package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pagesync/pagesync-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createUser",
		Method:        http.MethodPost,
		Path:          "/users/create",
		Summary:       "Create user",
		Description:   "Registers a new sync account",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "checkAuth",
		Method:      http.MethodPost,
		Path:        "/users/auth",
		Summary:     "Check credentials",
		Description: "Verifies a username and password pair",
		Tags:        []string{"Users"},
	}, s.handleCheckAuth)

	huma.Register(s.api, huma.Operation{
		OperationID: "checkAuthHeaders",
		Method:      http.MethodGet,
		Path:        "/users/auth",
		Summary:     "Check credentials (headers)",
		Description: "Verifies credentials carried in sync auth headers",
		Tags:        []string{"Users"},
	}, s.handleCheckAuthHeaders)
}

// === DTOs ===

// CreateUserRequest is the request body for registering an account.
// Presence is validated in the service so missing fields surface as the
// legacy 400 error body rather than a schema error.
type CreateUserRequest struct {
	Username string `json:"username,omitempty" doc:"Account name"`
	Password string `json:"password,omitempty" doc:"Shared secret, usually a digest of the real password"`
}

// CreateUserInput wraps the registration request for Huma.
type CreateUserInput struct {
	Body CreateUserRequest
}

// CreateUserOutput wraps the registration response for Huma.
type CreateUserOutput struct {
	Body service.RegisterResponse
}

// CheckAuthRequest is the request body for an explicit credential check.
type CheckAuthRequest struct {
	Username string `json:"username,omitempty" doc:"Account name"`
	Password string `json:"password,omitempty" doc:"Shared secret"`
}

// CheckAuthInput wraps the credential check request for Huma.
type CheckAuthInput struct {
	Body CheckAuthRequest
}

// CheckAuthHeadersInput carries the sync credential headers.
type CheckAuthHeadersInput struct {
	AuthUser      string `header:"X-Auth-User"`
	AuthKey       string `header:"X-Auth-Key"`
	Authorization string `header:"Authorization"`
}

// CheckAuthOutput wraps the credential check response for Huma.
type CheckAuthOutput struct {
	Body service.CheckResponse
}

// === Handlers ===

func (s *Server) handleCreateUser(ctx context.Context, input *CreateUserInput) (*CreateUserOutput, error) {
	resp, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Username: input.Body.Username,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &CreateUserOutput{Body: *resp}, nil
}

func (s *Server) handleCheckAuth(ctx context.Context, input *CheckAuthInput) (*CheckAuthOutput, error) {
	resp, err := s.services.Auth.Check(ctx, service.CheckRequest{
		Username: input.Body.Username,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}

	return &CheckAuthOutput{Body: *resp}, nil
}

// handleCheckAuthHeaders serves the header-based variant devices poke
// before their first sync. Missing or malformed credentials are an
// authentication failure here, not a validation error.
func (s *Server) handleCheckAuthHeaders(ctx context.Context, input *CheckAuthHeadersInput) (*CheckAuthOutput, error) {
	username, key := extractCredentials(input.AuthUser, input.AuthKey, input.Authorization)

	user, err := s.services.Auth.Authenticate(ctx, username, key)
	if err != nil {
		return nil, err
	}

	return &CheckAuthOutput{
		Body: service.CheckResponse{
			ID:         user.ID,
			Username:   user.Username,
			Authorized: true,
		},
	}, nil
}
