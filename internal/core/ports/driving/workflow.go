package driving

import "context"

// Workflow runs the full daily pipeline: extract, sign, publish, organise.
type Workflow interface {
	RunDaily(ctx context.Context) error
}
