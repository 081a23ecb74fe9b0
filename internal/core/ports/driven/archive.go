package driven

import (
	"context"
	"io"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// Archive is the hierarchical long-term store that holds one folder per patient.
// Paths use forward slashes and are rooted at the archive root.
type Archive interface {
	// List returns the direct children of a folder.
	// Returns domain.ErrNotFound if the folder does not exist.
	List(ctx context.Context, path string) ([]domain.ArchiveEntry, error)

	// Exists reports whether a file or folder exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// CreateFolder creates a folder. An existing folder is not an error.
	CreateFolder(ctx context.Context, path string) error

	// Move renames a file. Returns domain.ErrAlreadyExists if to exists.
	Move(ctx context.Context, from, to string) error

	// Upload writes a new file. Returns domain.ErrAlreadyExists if path exists.
	Upload(ctx context.Context, path string, r io.Reader) error
}
