package driving

import (
	"context"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// Scheduler runs the daily workflow on a cron schedule.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// History returns the most recent daily workflow runs, newest first.
	History(ctx context.Context, limit int) ([]domain.TaskResult, error)
}
