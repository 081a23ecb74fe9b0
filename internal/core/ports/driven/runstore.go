package driven

import (
	"context"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// RunStore persists run report snapshots.
type RunStore interface {
	// SaveRun creates or replaces a snapshot keyed by RunID.
	SaveRun(ctx context.Context, snapshot *domain.ReportSnapshot) error

	// GetRun returns a snapshot by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetRun(ctx context.Context, runID string) (*domain.ReportSnapshot, error)

	// LatestRun returns the most recently started snapshot.
	// Returns domain.ErrNotFound if no run has been saved.
	LatestRun(ctx context.Context) (*domain.ReportSnapshot, error)

	// ListRuns returns run headers, most recent first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}
