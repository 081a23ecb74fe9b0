package gmail

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/google"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// Notifier sends run reports from the authenticated account.
type Notifier struct {
	svc     *gmail.Service
	limiter *google.RateLimiter
	from    string
	to      []string
}

var _ driven.Notifier = (*Notifier)(nil)

// New creates a Gmail notifier. from may be empty to use the account address.
func New(svc *gmail.Service, from string, to []string) (*Notifier, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("%w: gmail notifier needs at least one recipient", domain.ErrConfigInvalid)
	}
	return &Notifier{
		svc:     svc,
		limiter: google.NewRateLimiter(google.ServiceGmail),
		from:    from,
		to:      to,
	}, nil
}

// Send implements driven.Notifier.
func (n *Notifier) Send(ctx context.Context, subject, body string) error {
	raw, err := BuildRaw(n.from, n.to, subject, body)
	if err != nil {
		return err
	}

	var sent *gmail.Message
	err = n.limiter.Do(ctx, func() error {
		var err error
		sent, err = n.svc.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}

	logger.L().Info("report sent", zap.String("id", sent.Id), zap.Strings("to", n.to))
	return nil
}
