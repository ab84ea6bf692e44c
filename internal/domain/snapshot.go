package domain

import "time"

// Source tags who contributed a snapshot: a real reading device or the
// admin dashboard. Carried explicitly on every snapshot instead of being
// inferred from the device name at query time.
type Source string

const (
	SourceDevice Source = "device"
	SourceAdmin  Source = "admin"
)

// AdminDeviceName is the reserved device name for snapshots synthesized by
// the admin dashboard. Sync clients never use it; the rename operation
// refuses it on both sides.
const AdminDeviceName = "WebAdmin"

// SourceForDevice maps a device name to its contributor source.
// Older clients of the protocol identify the dashboard only by the reserved
// device name, so ingest normalizes that to SourceAdmin.
func SourceForDevice(device string) Source {
	if device == AdminDeviceName {
		return SourceAdmin
	}
	return SourceDevice
}

// ProgressSnapshot is the atomic, immutable record of reading progress.
// The ledger of snapshots is append-only; current state derives from it.
//
// The only permitted in-place mutations, both administrative, are the bulk
// device rename (Device field only) and the metadata update on the latest
// row during an admin edit.
type ProgressSnapshot struct {
	// Seq is the ledger insertion order, assigned by storage. It breaks
	// timestamp ties deterministically: later insert wins.
	Seq int64 `json:"-"`

	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	DocumentHash string `json:"document_hash"`

	// Progress is the opaque position token supplied by the device.
	// Its format belongs to the reader software; the server never parses it.
	Progress string `json:"progress"`

	// Timestamp is milliseconds since epoch, caller-supplied or assigned by
	// the server when the push omits it.
	Timestamp int64 `json:"timestamp"`

	Device string `json:"device"`
	Source Source `json:"source"`

	// Percentage is the completion fraction in [0,1].
	Percentage float64 `json:"percentage"`

	// Page and EpubCFI are optional fine-grained locators.
	Page    string `json:"page,omitempty"`
	EpubCFI string `json:"epub_cfi,omitempty"`

	Metadata Metadata `json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
}
