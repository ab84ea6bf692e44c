// Package service implements the application logic between the HTTP
// handlers and the sqlite store.
package service

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pagesync/pagesync-server/internal/auth"
	"github.com/pagesync/pagesync-server/internal/domain"
	domainerrors "github.com/pagesync/pagesync-server/internal/errors"
	"github.com/pagesync/pagesync-server/internal/id"
	"github.com/pagesync/pagesync-server/internal/store"
	"github.com/pagesync/pagesync-server/internal/store/sqlite"
)

// validate is a shared validator instance for request validation.
var validate = func() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove any options (like omitempty, -)
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}()

// AuthService verifies caller identity and registers accounts.
type AuthService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store *sqlite.Store, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:  store,
		logger: logger,
	}
}

// RegisterRequest contains account registration data.
//
// Sync clients usually send a digest of the real password rather than the
// password itself; the server treats the value as an opaque shared secret
// either way.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=1024"`
}

// RegisterResponse contains the result of a registration request.
type RegisterResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Register creates a new account. The username must be unused; registration
// under an existing name is a conflict, never an update.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, domainerrors.Validationf("invalid password: %v", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           userID,
		Username:     req.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("username already exists")
		}
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username))

	return &RegisterResponse{
		ID:       user.ID,
		Username: user.Username,
		Message:  "User created successfully",
	}, nil
}

// Authenticate verifies a username and shared secret against the stored
// hash. Every failure mode collapses to Unauthorized; the response never
// reveals whether the username exists.
func (s *AuthService) Authenticate(ctx context.Context, username, key string) (*domain.User, error) {
	if username == "" || key == "" {
		// No lookup on missing credentials.
		return nil, domainerrors.Unauthorized("no authorization provided")
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("invalid credentials")
		}
		return nil, err
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Debug("credential mismatch", slog.String("username", username))
		return nil, domainerrors.Unauthorized("invalid credentials")
	}

	return user, nil
}

// CheckRequest contains credentials for an explicit credential check.
type CheckRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CheckResponse mirrors the legacy credential-check body.
type CheckResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Authorized bool   `json:"authorized"`
}

// Check verifies credentials on the explicit auth endpoints. Unlike the
// per-request gate, missing fields here are a validation error rather than
// an authentication failure.
func (s *AuthService) Check(ctx context.Context, req CheckRequest) (*CheckResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	return &CheckResponse{
		ID:         user.ID,
		Username:   user.Username,
		Authorized: true,
	}, nil
}

// formatValidationError converts validator errors to user-friendly domain errors.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		// Return first validation error as a domain error
		for _, e := range validationErrs {
			field := e.Field()
			switch e.Tag() {
			case "required":
				return domainerrors.Validationf("%s is required", field)
			case "min":
				return domainerrors.Validationf("%s must be at least %s", field, e.Param())
			case "max":
				return domainerrors.Validationf("%s exceeds maximum of %s", field, e.Param())
			default:
				return domainerrors.Validationf("%s is invalid", field)
			}
		}
	}
	return err
}
