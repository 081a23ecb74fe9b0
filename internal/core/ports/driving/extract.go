package driving

import (
	"context"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// ExtractOptions controls an extraction run.
type ExtractOptions struct {
	// StartRow is the first 1-based sheet row to process. Zero means the
	// configured default.
	StartRow int

	// DryRun skips writing notes back to the sheet.
	DryRun bool

	// SkipNotify suppresses the report notification.
	SkipNotify bool
}

// Extractor runs a batch extraction over the appointment sheet.
type Extractor interface {
	// Run processes every eligible appointment and returns the report.
	// A cancelled context stops the run between records; the partial
	// report is still returned alongside ctx.Err().
	Run(ctx context.Context, opts ExtractOptions) (*domain.ReportSnapshot, error)
}

// ReportReader reads persisted run reports.
type ReportReader interface {
	// Latest returns the most recent run report.
	Latest(ctx context.Context) (*domain.ReportSnapshot, error)

	// Get returns a run report by ID.
	Get(ctx context.Context, runID string) (*domain.ReportSnapshot, error)

	// List returns recent run headers.
	List(ctx context.Context, limit int) ([]domain.RunRecord, error)
}
