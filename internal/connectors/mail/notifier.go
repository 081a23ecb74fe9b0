// Package mail delivers run reports over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Notifier implements driven.Notifier with an SMTP relay.
type Notifier struct {
	dialer sender
	from   string
	to     []string
}

var _ driven.Notifier = (*Notifier)(nil)

// New creates an SMTP notifier.
func New(cfg Config) (*Notifier, error) {
	switch {
	case cfg.Host == "":
		return nil, fmt.Errorf("%w: smtp host is required", domain.ErrConfigInvalid)
	case cfg.From == "":
		return nil, fmt.Errorf("%w: smtp sender address is required", domain.ErrConfigInvalid)
	case len(cfg.To) == 0:
		return nil, fmt.Errorf("%w: smtp notifier needs at least one recipient", domain.ErrConfigInvalid)
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &Notifier{
		dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		from:   cfg.From,
		to:     cfg.To,
	}, nil
}

// Send implements driven.Notifier. gomail does not take a context, so
// cancellation is only observed before dialling.
func (n *Notifier) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.dialer.DialAndSend(Message(n.from, n.to, subject, body)); err != nil {
		return fmt.Errorf("smtp send: %w", wrapError(err))
	}
	logger.L().Info("report sent", zap.String("via", "smtp"), zap.Strings("to", n.to))
	return nil
}

// Message builds a plain-text report message.
func Message(from string, to []string, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return m
}

// wrapError marks network failures and 4xx SMTP replies as transient.
// 5xx replies are permanent.
func wrapError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrTransientIO, err)
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch {
		case protoErr.Code == 535:
			return fmt.Errorf("%w: %v", domain.ErrAuthInvalid, err)
		case protoErr.Code >= 400 && protoErr.Code < 500:
			return fmt.Errorf("%w: %v", domain.ErrTransientIO, err)
		}
	}
	return err
}
