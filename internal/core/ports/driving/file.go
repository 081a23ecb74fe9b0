package driving

import (
	"context"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// Filer moves finished notes into the patient archive.
type Filer interface {
	// Publish exports signed note documents to PDF, uploads them into the
	// archive inbox and trashes the source documents.
	Publish(ctx context.Context) (*domain.PublishSummary, error)

	// Organize files every PDF in the archive inbox into its patient folder.
	Organize(ctx context.Context, dryRun bool) (*domain.FilingSummary, error)

	// FindMisplaced scans patient folders for files that belong elsewhere.
	FindMisplaced(ctx context.Context) ([]domain.MisplacedFile, error)

	// FixMisplaced moves the given files to their expected folders.
	FixMisplaced(ctx context.Context, files []domain.MisplacedFile) (*domain.FilingSummary, error)

	// Inventory lists every PDF in the patient archive, sorted by client.
	Inventory(ctx context.Context) ([]domain.InventoryRow, error)
}
