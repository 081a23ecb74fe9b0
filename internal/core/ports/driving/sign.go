package driving

import (
	"context"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// Signer appends clinician signatures to unsigned note documents.
type Signer interface {
	SignPending(ctx context.Context) (*domain.SigningSummary, error)
}
