package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driving"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// Signature image size in points.
const (
	SignatureWidthPoints  = 200
	SignatureHeightPoints = 60
)

// SigningConfig tunes the signing pass.
type SigningConfig struct {
	// Pace is the wait between documents to stay under write quotas.
	Pace  time.Duration
	Retry RetryPolicy
}

// SigningService appends the attributed clinician's signature block to
// note documents that do not yet carry one.
type SigningService struct {
	docs       driven.NoteDocuments
	assets     driven.SignatureAssets
	attributor *ClinicianAttributor
	cfg        SigningConfig
}

var _ driving.Signer = (*SigningService)(nil)

// NewSigningService creates a signing service. assets may be nil, in which
// case documents are signed with text only.
func NewSigningService(
	docs driven.NoteDocuments,
	assets driven.SignatureAssets,
	attributor *ClinicianAttributor,
	cfg SigningConfig,
) *SigningService {
	return &SigningService{docs: docs, assets: assets, attributor: attributor, cfg: cfg}
}

// IsSigned reports whether a note already carries a signature block.
func IsSigned(text string) bool {
	return strings.Contains(text, "Therapist:") && strings.Contains(text, "NPI:")
}

// SignatureBlock is the text appended to a note for a clinician.
func SignatureBlock(c domain.ClinicianRecord) string {
	return fmt.Sprintf("\n\nTherapist: %s  NPI: %s", c.Name, c.License)
}

// SignPending implements driving.Signer.
func (s *SigningService) SignPending(ctx context.Context) (*domain.SigningSummary, error) {
	logger.Section("Signing")

	docs, err := RetryValue(ctx, s.cfg.Retry, "list note documents",
		func(ctx context.Context) ([]domain.SignableDocument, error) {
			return s.docs.ListNoteDocuments(ctx)
		})
	if err != nil {
		return nil, fmt.Errorf("list note documents: %w", err)
	}

	summary := &domain.SigningSummary{}
	for i, d := range docs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if i > 0 && s.cfg.Pace > 0 {
			if err := sleep(ctx, s.cfg.Pace); err != nil {
				return summary, err
			}
		}

		r := s.signOne(ctx, d)
		summary.Add(r)
		logger.Info("%s: %s %s", d.Name, r.Status, r.Clinician)
	}

	return summary, nil
}

func (s *SigningService) signOne(ctx context.Context, d domain.SignableDocument) domain.SigningResult {
	r := domain.SigningResult{DocumentID: d.ID, Name: d.Name}

	text, err := RetryValue(ctx, s.cfg.Retry, "read document",
		func(ctx context.Context) (string, error) {
			return s.docs.ReadText(ctx, d.ID)
		})
	if err != nil {
		r.Status = domain.SigningFailed
		r.Err = err.Error()
		return r
	}

	if IsSigned(text) {
		r.Status = domain.SigningAlreadySigned
		return r
	}

	attr, ok := s.attributor.Attribute(text)
	if !ok {
		r.Status = domain.SigningUnattributed
		return r
	}
	r.Clinician = attr.Clinician.Name
	logger.Debug("%s attributed to %s via %s on %q", d.Name, attr.Clinician.Name, attr.Pattern, attr.Line)

	image, err := s.signatureImage(ctx, attr.Clinician)
	if err != nil {
		r.Status = domain.SigningFailed
		r.Err = err.Error()
		return r
	}

	// Appending is not idempotent, so it is attempted once.
	if err := s.docs.AppendSignature(ctx, d.ID, SignatureBlock(attr.Clinician), image); err != nil {
		r.Status = domain.SigningFailed
		r.Err = err.Error()
		return r
	}

	r.Status = domain.SigningSigned
	return r
}

func (s *SigningService) signatureImage(ctx context.Context, c domain.ClinicianRecord) (*driven.SignatureImage, error) {
	if s.assets == nil || c.SignatureAsset == "" {
		return nil, nil
	}

	uri, err := RetryValue(ctx, s.cfg.Retry, "find signature",
		func(ctx context.Context) (string, error) {
			return s.assets.FindSignature(ctx, c.SignatureAsset)
		})
	if errors.Is(err, domain.ErrNotFound) {
		logger.Warn("signature %s for %s not found, signing with text only", c.SignatureAsset, c.Name)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find signature %s: %w", c.SignatureAsset, err)
	}

	return &driven.SignatureImage{
		URI:          uri,
		WidthPoints:  SignatureWidthPoints,
		HeightPoints: SignatureHeightPoints,
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
