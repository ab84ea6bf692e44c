package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pagesync/pagesync-server/internal/domain"
	domainerrors "github.com/pagesync/pagesync-server/internal/errors"
	"github.com/pagesync/pagesync-server/internal/store"
	"github.com/pagesync/pagesync-server/internal/store/sqlite"
)

// AdminService backs the dashboard: listing documents, correcting metadata
// and progress, deleting documents, and renaming devices.
type AdminService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(store *sqlite.Store, logger *slog.Logger) *AdminService {
	return &AdminService{
		store:  store,
		logger: logger,
	}
}

// BookSummary is one dashboard row: the most recent device-originated sync
// for a document, with the document's current metadata overlaid.
type BookSummary struct {
	DocumentHash string  `json:"document_hash"`
	LastSynced   int64   `json:"last_synced"`
	Title        string  `json:"title,omitempty"`
	Authors      string  `json:"authors,omitempty"`
	CoverURL     string  `json:"cover_url,omitempty"`
	Percentage   float64 `json:"percentage"`
	Device       string  `json:"device"`
}

// ListBooks returns one row per document, newest sync first. Admin-
// synthesized snapshots are excluded from the listing so the dashboard
// shows what real devices are doing, but metadata set by a later admin edit
// still overlays each row: the edit may have landed on an admin snapshot
// the listing never selects.
func (s *AdminService) ListBooks(ctx context.Context) ([]BookSummary, error) {
	snaps, err := s.store.ListLatestPerDocument(ctx, domain.SourceAdmin)
	if err != nil {
		return nil, err
	}

	books := make([]BookSummary, 0, len(snaps))
	for _, snap := range snaps {
		meta := snap.Metadata
		if overall, err := s.store.LatestSnapshotForDocument(ctx, snap.DocumentHash); err == nil {
			meta = meta.Merge(overall.Metadata)
		}

		books = append(books, BookSummary{
			DocumentHash: snap.DocumentHash,
			LastSynced:   snap.Timestamp,
			Title:        meta.Title,
			Authors:      meta.Authors,
			CoverURL:     meta.CoverURL,
			Percentage:   snap.Percentage,
			Device:       snap.Device,
		})
	}
	return books, nil
}

// EditBookRequest is a dashboard correction. Every field is optional, but
// at least one must be present. Percentage is the human-facing 0-100 scale.
type EditBookRequest struct {
	Title      string   `json:"title"`
	Authors    string   `json:"authors"`
	CoverURL   string   `json:"cover_url"`
	Percentage *float64 `json:"percentage" validate:"omitempty,min=0,max=100"`
}

// EditBookResponse mirrors the legacy dashboard edit acknowledgement.
type EditBookResponse struct {
	Status      string          `json:"status"`
	Metadata    domain.Metadata `json:"metadata"`
	NewProgress bool            `json:"new_progress,omitempty"`
}

// EditBook merges the supplied metadata onto the document's latest snapshot
// and, only when a percentage is supplied, appends an override snapshot
// that devices will pick up on their next sync. A metadata-only edit never
// grows the ledger.
func (s *AdminService) EditBook(ctx context.Context, documentHash string, req EditBookRequest) (*EditBookResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if req.Title == "" && req.Authors == "" && req.CoverURL == "" && req.Percentage == nil {
		return nil, domainerrors.Validation("no fields to update")
	}

	patch := domain.Metadata{
		Title:    req.Title,
		Authors:  req.Authors,
		CoverURL: req.CoverURL,
	}

	var fraction *float64
	if req.Percentage != nil {
		f := *req.Percentage / 100
		fraction = &f
	}

	merged, overrideCreated, err := s.store.EditDocument(ctx, documentHash, patch, fraction)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, err
	}

	s.logger.Info("book edited",
		slog.String("document", documentHash),
		slog.Bool("override", overrideCreated))

	return &EditBookResponse{
		Status:      "updated",
		Metadata:    merged,
		NewProgress: overrideCreated,
	}, nil
}

// DeleteBookResponse mirrors the legacy delete acknowledgement.
type DeleteBookResponse struct {
	Status  string `json:"status"`
	Changes int64  `json:"changes"`
}

// DeleteBook removes every snapshot for a document across all users.
func (s *AdminService) DeleteBook(ctx context.Context, documentHash string) (*DeleteBookResponse, error) {
	removed, err := s.store.DeleteDocumentSnapshots(ctx, documentHash)
	if err != nil {
		return nil, err
	}
	if removed == 0 {
		return nil, domainerrors.NotFound("book not found")
	}

	s.logger.Info("book deleted",
		slog.String("document", documentHash),
		slog.Int64("removed", removed))

	return &DeleteBookResponse{
		Status:  "deleted",
		Changes: removed,
	}, nil
}

// RenameDeviceRequest renames a device across the whole ledger.
type RenameDeviceRequest struct {
	OldName string `json:"old_name" validate:"required"`
	NewName string `json:"new_name" validate:"required"`
}

// RenameDeviceResponse mirrors the legacy rename acknowledgement.
type RenameDeviceResponse struct {
	Status  string `json:"status"`
	Changes int64  `json:"changes"`
}

// RenameDevice bulk-renames the device field on every matching snapshot.
// The reserved admin name is refused on both sides: renaming onto it would
// forge admin rows, and renaming away from it would orphan them.
func (s *AdminService) RenameDevice(ctx context.Context, req RenameDeviceRequest) (*RenameDeviceResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	if req.OldName == domain.AdminDeviceName || req.NewName == domain.AdminDeviceName {
		return nil, domainerrors.Validationf("%s is a reserved device name", domain.AdminDeviceName)
	}

	changed, err := s.store.RenameDevice(ctx, req.OldName, req.NewName)
	if err != nil {
		return nil, err
	}

	s.logger.Info("device renamed",
		slog.String("old_name", req.OldName),
		slog.String("new_name", req.NewName),
		slog.Int64("changed", changed))

	return &RenameDeviceResponse{
		Status:  "updated",
		Changes: changed,
	}, nil
}

// DebugFetch returns the raw latest snapshot for a document, unfiltered,
// for operator inspection.
func (s *AdminService) DebugFetch(ctx context.Context, documentHash string) (*domain.ProgressSnapshot, error) {
	snap, err := s.store.LatestSnapshotForDocument(ctx, documentHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("no data found")
		}
		return nil, err
	}
	return snap, nil
}
