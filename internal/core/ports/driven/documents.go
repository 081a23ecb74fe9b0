package driven

import (
	"context"
	"io"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// DocumentSearcher finds patient documents by filename.
type DocumentSearcher interface {
	// Search returns documents whose name contains every query term.
	// Case sensitivity is backend-defined.
	Search(ctx context.Context, query domain.SearchQuery) ([]domain.DocumentCandidate, error)

	// ListAll returns every non-trashed document of the given types.
	// Used only by the similarity fallback.
	ListAll(ctx context.Context, mimeTypes []string) ([]domain.DocumentCandidate, error)
}

// CommentReader lists comments attached to a document.
type CommentReader interface {
	// ListComments returns every comment in creation order, each
	// followed directly by its replies.
	ListComments(ctx context.Context, documentID string) ([]domain.CommentEntry, error)
}

// SignatureImage is an inline image appended to a signed document.
type SignatureImage struct {
	URI          string
	WidthPoints  float64
	HeightPoints float64
}

// NoteDocuments are editable note documents awaiting signature.
type NoteDocuments interface {
	// ListNoteDocuments returns the editable documents in the notes
	// folder, most recently modified first.
	ListNoteDocuments(ctx context.Context) ([]domain.SignableDocument, error)

	// ReadText returns the plain-text body of a document.
	ReadText(ctx context.Context, documentID string) (string, error)

	// AppendSignature appends text and an optional image at the end of the body.
	AppendSignature(ctx context.Context, documentID, text string, image *SignatureImage) error
}

// SignatureAssets locates clinician signature images.
type SignatureAssets interface {
	// FindSignature returns an image URI for the named asset.
	// Returns domain.ErrNotFound if no such asset exists.
	FindSignature(ctx context.Context, assetName string) (string, error)
}

// DocumentExporter renders note documents to PDF and retires them.
type DocumentExporter interface {
	// ExportPDF returns the PDF rendering of a document. Callers close the reader.
	ExportPDF(ctx context.Context, documentID string) (io.ReadCloser, error)

	// Trash moves a document to the store's trash.
	Trash(ctx context.Context, documentID string) error
}
