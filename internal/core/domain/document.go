package domain

import "time"

// Document MIME types handled by the locator.
const (
	MimeTypePDF       = "application/pdf"
	MimeTypeGoogleDoc = "application/vnd.google-apps.document"
)

// DocumentCandidate is a stored file that may contain a patient's notes.
type DocumentCandidate struct {
	// ID is the store's opaque identifier.
	ID string `json:"id"`

	// Name is the display filename.
	Name string `json:"name"`

	// MimeType is the file's content type.
	MimeType string `json:"mime_type,omitempty"`

	// IsAmbiguousMatch is true when the candidate came from the
	// similarity fallback rather than an exact name match.
	IsAmbiguousMatch bool `json:"is_ambiguous_match,omitempty"`

	// Similarity is the name similarity score in [0,1] for ambiguous matches.
	Similarity float64 `json:"similarity,omitempty"`
}

// CommentEntry is a comment or reply attached to a document.
// Replies are flattened into the same sequence, directly after their parent.
type CommentEntry struct {
	ID        string
	Content   string
	CreatedAt time.Time
}

// SearchQuery describes a document store name search.
type SearchQuery struct {
	// Terms must all appear in the filename. The store's own matching is
	// case sensitive for some backends, so callers issue case variants.
	Terms []string

	// MimeTypes restricts results to these content types. Empty means any.
	MimeTypes []string
}
