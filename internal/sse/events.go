// Package sse implements Server-Sent Events for live admin dashboard updates.
package sse

import (
	"time"

	"github.com/pagesync/pagesync-server/internal/domain"
)

// The dashboard is the only SSE consumer. The original web UI polled the
// book list; pushing ledger changes over a stream keeps it current without
// the polling loop.

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventProgressUpdated fires when a snapshot is appended to the ledger,
	// whether by a device push or an admin percentage override.
	EventProgressUpdated EventType = "progress.updated"
	// EventMetadataUpdated fires when an admin edit refreshes a document's
	// metadata without touching progress.
	EventMetadataUpdated EventType = "metadata.updated"
	// EventDocumentDeleted fires when all snapshots for a document are removed.
	EventDocumentDeleted EventType = "document.deleted"
	// EventDeviceRenamed fires after a bulk device rename.
	EventDeviceRenamed EventType = "device.renamed"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct
// deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// ProgressUpdatedData is the payload for progress events.
type ProgressUpdatedData struct {
	DocumentHash string          `json:"document_hash"`
	Device       string          `json:"device"`
	Source       domain.Source   `json:"source"`
	Percentage   float64         `json:"percentage"`
	SyncedAt     int64           `json:"synced_at"`
	Metadata     domain.Metadata `json:"metadata"`
}

// MetadataUpdatedData is the payload for metadata events.
type MetadataUpdatedData struct {
	DocumentHash string          `json:"document_hash"`
	Metadata     domain.Metadata `json:"metadata"`
}

// DocumentDeletedData is the payload for delete events.
type DocumentDeletedData struct {
	DocumentHash string `json:"document_hash"`
	Removed      int64  `json:"removed"`
}

// DeviceRenamedData is the payload for rename events.
type DeviceRenamedData struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
	Changed int64  `json:"changed"`
}

// NewProgressUpdatedEvent creates an event for an appended snapshot.
func NewProgressUpdatedEvent(snap *domain.ProgressSnapshot) Event {
	return Event{
		Type:      EventProgressUpdated,
		Timestamp: time.Now(),
		Data: ProgressUpdatedData{
			DocumentHash: snap.DocumentHash,
			Device:       snap.Device,
			Source:       snap.Source,
			Percentage:   snap.Percentage,
			SyncedAt:     snap.Timestamp,
			Metadata:     snap.Metadata,
		},
	}
}

// NewMetadataUpdatedEvent creates an event for an in-place metadata refresh.
func NewMetadataUpdatedEvent(documentHash string, metadata domain.Metadata) Event {
	return Event{
		Type:      EventMetadataUpdated,
		Timestamp: time.Now(),
		Data: MetadataUpdatedData{
			DocumentHash: documentHash,
			Metadata:     metadata,
		},
	}
}

// NewDocumentDeletedEvent creates an event for a document wipe.
func NewDocumentDeletedEvent(documentHash string, removed int64) Event {
	return Event{
		Type:      EventDocumentDeleted,
		Timestamp: time.Now(),
		Data: DocumentDeletedData{
			DocumentHash: documentHash,
			Removed:      removed,
		},
	}
}

// NewDeviceRenamedEvent creates an event for a bulk device rename.
func NewDeviceRenamedEvent(oldName, newName string, changed int64) Event {
	return Event{
		Type:      EventDeviceRenamed,
		Timestamp: time.Now(),
		Data: DeviceRenamedData{
			OldName: oldName,
			NewName: newName,
			Changed: changed,
		},
	}
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Timestamp: time.Now(),
	}
}
