package domain

import "encoding/json/v2"

// Metadata is the display information known about a document. Every field
// is optional: device pushes never carry metadata, and admin edits may
// supply any subset.
type Metadata struct {
	Title    string `json:"title,omitempty"`
	Authors  string `json:"authors,omitempty"`
	CoverURL string `json:"cover_url,omitempty"`
}

// IsZero reports whether no field is known.
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// Merge overlays patch onto m and returns the result. Known fields carry
// forward; a field in patch replaces the prior value only when non-empty.
// An empty patch value is "no opinion", never an erase.
//
// This policy exists because neither writer ever has the full picture:
// device pushes carry no metadata at all, and admin edits may set a single
// field. Forward-copy-then-overlay is the only merge that loses nothing.
func (m Metadata) Merge(patch Metadata) Metadata {
	out := m
	if patch.Title != "" {
		out.Title = patch.Title
	}
	if patch.Authors != "" {
		out.Authors = patch.Authors
	}
	if patch.CoverURL != "" {
		out.CoverURL = patch.CoverURL
	}
	return out
}

// ParseMetadata decodes a stored metadata blob. Metadata is best-effort
// display data, so a malformed blob degrades to empty rather than failing
// the request that read it.
func ParseMetadata(raw string) Metadata {
	if raw == "" {
		return Metadata{}
	}
	var m Metadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Metadata{}
	}
	return m
}

// EncodeMetadata serializes metadata for storage. Returns "" for an empty
// record so the column stays NULL for metadata-free snapshots.
func EncodeMetadata(m Metadata) string {
	if m.IsZero() {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
