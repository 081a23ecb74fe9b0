package driven

import "context"

// Notifier delivers a plain-text report to the practice.
type Notifier interface {
	Send(ctx context.Context, subject, body string) error
}
