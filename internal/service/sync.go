package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pagesync/pagesync-server/internal/domain"
	"github.com/pagesync/pagesync-server/internal/id"
	"github.com/pagesync/pagesync-server/internal/store"
	"github.com/pagesync/pagesync-server/internal/store/sqlite"
)

// SyncService handles device push and pull of reading progress.
type SyncService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewSyncService creates a new sync service.
func NewSyncService(store *sqlite.Store, logger *slog.Logger) *SyncService {
	return &SyncService{
		store:  store,
		logger: logger,
	}
}

// PushRequest is a device progress push. Timestamp is optional; the server
// assigns the current time when a device omits it. The metadata fields are
// accepted but devices do not normally send them.
type PushRequest struct {
	Document   string  `json:"document" validate:"required"`
	Progress   string  `json:"progress"`
	Timestamp  int64   `json:"timestamp"`
	Device     string  `json:"device"`
	Percentage float64 `json:"percentage" validate:"min=0,max=1"`
	Page       string  `json:"page"`
	EpubCFI    string  `json:"epub_cfi"`
	Title      string  `json:"title"`
	Authors    string  `json:"authors"`
	CoverURL   string  `json:"cover_url"`
}

// PushResponse is the legacy acknowledgement body.
type PushResponse struct {
	Document  string `json:"document"`
	Timestamp int64  `json:"timestamp"`
	Status    string `json:"status"`
}

// Push appends a progress snapshot for the authenticated user. Prior
// metadata for the document carries forward inside the append transaction.
func (s *SyncService) Push(ctx context.Context, user *domain.User, req PushRequest) (*PushResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	ts := req.Timestamp
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	snapID, err := id.Generate("snap")
	if err != nil {
		return nil, err
	}

	snap := &domain.ProgressSnapshot{
		ID:           snapID,
		UserID:       user.ID,
		DocumentHash: req.Document,
		Progress:     req.Progress,
		Timestamp:    ts,
		Device:       req.Device,
		Source:       domain.SourceForDevice(req.Device),
		Percentage:   req.Percentage,
		Page:         req.Page,
		EpubCFI:      req.EpubCFI,
		Metadata: domain.Metadata{
			Title:    req.Title,
			Authors:  req.Authors,
			CoverURL: req.CoverURL,
		},
		CreatedAt: time.Now(),
	}

	if err := s.store.AppendSnapshot(ctx, snap); err != nil {
		return nil, err
	}

	s.logger.Info("progress pushed",
		slog.String("user_id", user.ID),
		slog.String("document", req.Document),
		slog.String("device", req.Device),
		slog.Float64("percentage", req.Percentage))

	return &PushResponse{
		Document:  req.Document,
		Timestamp: ts,
		Status:    "updated",
	}, nil
}

// Pull returns the user's current progress for a document, or nil when the
// document has no history. A fresh document is not an error; syncing a
// book for the first time is the normal case.
//
// The lookup is unrestricted: an admin override, when newer, is exactly
// what the device should resume from.
func (s *SyncService) Pull(ctx context.Context, user *domain.User, documentHash string) (*domain.ProgressSnapshot, error) {
	snap, err := s.store.LatestSnapshot(ctx, user.ID, documentHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return snap, nil
}
