package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pagesync/pagesync-server/internal/domain"
	"github.com/pagesync/pagesync-server/internal/http/response"
	"github.com/pagesync/pagesync-server/internal/service"
)

// setupSyncRoutes registers the device sync protocol directly on chi. The
// protocol fixes its wire shapes, notably "{} or a full snapshot object"
// on pull, which doesn't fit a single response schema.
func (s *Server) setupSyncRoutes() {
	s.router.Put("/syncs/progress", s.handlePushProgress)
	s.router.Get("/syncs/progress/{document}", s.handlePullProgress)
	s.router.Get("/api/events", s.sseHandler.ServeHTTP)
}

// pullResponse is the legacy pull body for a document with recorded
// progress. A document without progress gets a bare "{}" instead.
type pullResponse struct {
	Document   string  `json:"document"`
	Progress   string  `json:"progress"`
	Percentage float64 `json:"percentage"`
	Device     string  `json:"device"`
	Timestamp  int64   `json:"timestamp"`
	Page       string  `json:"page,omitempty"`
	EpubCFI    string  `json:"epub_cfi,omitempty"`
}

// authenticateDevice resolves the request's credentials through the
// credential gate. On failure it writes the error response and returns nil.
func (s *Server) authenticateDevice(w http.ResponseWriter, r *http.Request) *domain.User {
	username, key := extractCredentials(
		r.Header.Get("X-Auth-User"),
		r.Header.Get("X-Auth-Key"),
		r.Header.Get("Authorization"),
	)

	user, err := s.services.Auth.Authenticate(r.Context(), username, key)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return nil
	}
	return user
}

func (s *Server) handlePushProgress(w http.ResponseWriter, r *http.Request) {
	user := s.authenticateDevice(w, r)
	if user == nil {
		return
	}

	var req service.PushRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return
	}

	resp, err := s.services.Sync.Push(r.Context(), user, req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, resp, s.logger)
}

func (s *Server) handlePullProgress(w http.ResponseWriter, r *http.Request) {
	user := s.authenticateDevice(w, r)
	if user == nil {
		return
	}

	document := chi.URLParam(r, "document")
	if document == "" {
		response.BadRequest(w, "document is required", s.logger)
		return
	}

	snap, err := s.services.Sync.Pull(r.Context(), user, document)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	// A document never synced is an empty object, not an error. Devices
	// treat "{}" as "no progress recorded yet".
	if snap == nil {
		response.Success(w, struct{}{}, s.logger)
		return
	}

	response.Success(w, pullResponse{
		Document:   snap.DocumentHash,
		Progress:   snap.Progress,
		Percentage: snap.Percentage,
		Device:     snap.Device,
		Timestamp:  snap.Timestamp,
		Page:       snap.Page,
		EpubCFI:    snap.EpubCFI,
	}, s.logger)
}
