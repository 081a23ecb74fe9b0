package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driving"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// WorkflowService chains the daily stages. A failing stage is logged and
// the remaining stages still run.
type WorkflowService struct {
	extractor driving.Extractor
	signer    driving.Signer
	filer     driving.Filer
}

var _ driving.Workflow = (*WorkflowService)(nil)

// NewWorkflowService creates the daily workflow. Any stage may be nil to skip it.
func NewWorkflowService(extractor driving.Extractor, signer driving.Signer, filer driving.Filer) *WorkflowService {
	return &WorkflowService{extractor: extractor, signer: signer, filer: filer}
}

// RunDaily implements driving.Workflow.
func (w *WorkflowService) RunDaily(ctx context.Context) error {
	var errs []error

	if w.extractor != nil {
		if _, err := w.extractor.Run(ctx, driving.ExtractOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("extract: %w", err))
			logger.Error("extract: %v", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(append(errs, err)...)
	}

	if w.signer != nil {
		if _, err := w.signer.SignPending(ctx); err != nil {
			errs = append(errs, fmt.Errorf("sign: %w", err))
			logger.Error("sign: %v", err)
		}
	}

	if w.filer != nil {
		if _, err := w.filer.Publish(ctx); err != nil {
			errs = append(errs, fmt.Errorf("publish: %w", err))
			logger.Error("publish: %v", err)
		}
		if _, err := w.filer.Organize(ctx, false); err != nil {
			errs = append(errs, fmt.Errorf("organise: %w", err))
			logger.Error("organise: %v", err)
		}
	}

	return errors.Join(errs...)
}
