package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pagesync/pagesync-server/internal/domain"
	"github.com/pagesync/pagesync-server/internal/service"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/books",
		Summary:     "List books",
		Description: "Returns the latest device sync per document with metadata overlaid",
		Tags:        []string{"Dashboard"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "editBook",
		Method:      http.MethodPut,
		Path:        "/api/books/{document_hash}",
		Summary:     "Edit book",
		Description: "Updates document metadata and optionally overrides reading progress",
		Tags:        []string{"Dashboard"},
	}, s.handleEditBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/books/{document_hash}",
		Summary:     "Delete book",
		Description: "Removes every snapshot for a document across all users",
		Tags:        []string{"Dashboard"},
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "renameDevice",
		Method:      http.MethodPut,
		Path:        "/api/devices/rename",
		Summary:     "Rename device",
		Description: "Renames a device across the whole ledger",
		Tags:        []string{"Dashboard"},
	}, s.handleRenameDevice)

	huma.Register(s.api, huma.Operation{
		OperationID: "debugFetch",
		Method:      http.MethodGet,
		Path:        "/api/debug/fetch/{document_hash}",
		Summary:     "Fetch raw snapshot",
		Description: "Returns the raw latest snapshot for a document, unfiltered",
		Tags:        []string{"Dashboard"},
	}, s.handleDebugFetch)
}

// === DTOs ===

// ListBooksOutput wraps the dashboard listing. The legacy dashboard expects
// a bare array.
type ListBooksOutput struct {
	Body []service.BookSummary
}

// EditBookRequest is the request body for a dashboard edit. All fields are
// optional on the wire; the service rejects a body with nothing to apply.
type EditBookRequest struct {
	Title      string   `json:"title,omitempty" doc:"Book title"`
	Authors    string   `json:"authors,omitempty" doc:"Author names"`
	CoverURL   string   `json:"cover_url,omitempty" doc:"Cover image URL"`
	Percentage *float64 `json:"percentage,omitempty" doc:"Progress override, 0-100"`
}

// EditBookInput wraps the edit request for Huma.
type EditBookInput struct {
	DocumentHash string `path:"document_hash" doc:"Document hash"`
	Body         EditBookRequest
}

// EditBookOutput wraps the edit acknowledgement for Huma.
type EditBookOutput struct {
	Body service.EditBookResponse
}

// DeleteBookInput contains parameters for deleting a book.
type DeleteBookInput struct {
	DocumentHash string `path:"document_hash" doc:"Document hash"`
}

// DeleteBookOutput wraps the delete acknowledgement for Huma.
type DeleteBookOutput struct {
	Body service.DeleteBookResponse
}

// RenameDeviceRequest is the request body for a device rename.
type RenameDeviceRequest struct {
	OldName string `json:"old_name,omitempty" doc:"Current device name"`
	NewName string `json:"new_name,omitempty" doc:"New device name"`
}

// RenameDeviceInput wraps the rename request for Huma.
type RenameDeviceInput struct {
	Body RenameDeviceRequest
}

// RenameDeviceOutput wraps the rename acknowledgement for Huma.
type RenameDeviceOutput struct {
	Body service.RenameDeviceResponse
}

// DebugFetchInput contains parameters for the raw snapshot fetch.
type DebugFetchInput struct {
	DocumentHash string `path:"document_hash" doc:"Document hash"`
}

// DebugFetchOutput wraps the raw snapshot for Huma.
type DebugFetchOutput struct {
	Body *domain.ProgressSnapshot
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*ListBooksOutput, error) {
	books, err := s.services.Admin.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	return &ListBooksOutput{Body: books}, nil
}

func (s *Server) handleEditBook(ctx context.Context, input *EditBookInput) (*EditBookOutput, error) {
	resp, err := s.services.Admin.EditBook(ctx, input.DocumentHash, service.EditBookRequest{
		Title:      input.Body.Title,
		Authors:    input.Body.Authors,
		CoverURL:   input.Body.CoverURL,
		Percentage: input.Body.Percentage,
	})
	if err != nil {
		return nil, err
	}

	return &EditBookOutput{Body: *resp}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *DeleteBookInput) (*DeleteBookOutput, error) {
	resp, err := s.services.Admin.DeleteBook(ctx, input.DocumentHash)
	if err != nil {
		return nil, err
	}

	return &DeleteBookOutput{Body: *resp}, nil
}

func (s *Server) handleRenameDevice(ctx context.Context, input *RenameDeviceInput) (*RenameDeviceOutput, error) {
	resp, err := s.services.Admin.RenameDevice(ctx, service.RenameDeviceRequest{
		OldName: input.Body.OldName,
		NewName: input.Body.NewName,
	})
	if err != nil {
		return nil, err
	}

	return &RenameDeviceOutput{Body: *resp}, nil
}

func (s *Server) handleDebugFetch(ctx context.Context, input *DebugFetchInput) (*DebugFetchOutput, error) {
	snap, err := s.services.Admin.DebugFetch(ctx, input.DocumentHash)
	if err != nil {
		return nil, err
	}

	return &DebugFetchOutput{Body: snap}, nil
}
