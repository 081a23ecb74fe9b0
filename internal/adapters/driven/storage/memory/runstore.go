// Package memory provides in-memory stores for dry runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]domain.ReportSnapshot
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]domain.ReportSnapshot),
	}
}

// SaveRun stores or replaces a snapshot.
func (s *RunStore) SaveRun(_ context.Context, snapshot *domain.ReportSnapshot) error {
	if snapshot == nil || snapshot.RunID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[snapshot.RunID] = cloneSnapshot(*snapshot)
	return nil
}

// GetRun retrieves a snapshot by ID.
func (s *RunStore) GetRun(_ context.Context, runID string) (*domain.ReportSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.runs[runID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneSnapshot(snap)
	return &out, nil
}

// LatestRun returns the most recently started snapshot.
func (s *RunStore) LatestRun(_ context.Context) (*domain.ReportSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := s.sorted()
	if len(sorted) == 0 {
		return nil, domain.ErrNotFound
	}
	out := cloneSnapshot(sorted[0])
	return &out, nil
}

// ListRuns returns run headers, most recent first.
func (s *RunStore) ListRuns(_ context.Context, limit int) ([]domain.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := s.sorted()
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]domain.RunRecord, len(sorted))
	for i, snap := range sorted {
		out[i] = domain.RunRecord{
			RunID:      snap.RunID,
			StartedAt:  snap.StartedAt,
			FinishedAt: snap.FinishedAt,
			Summary:    snap.Summary,
		}
	}
	return out, nil
}

// sorted returns snapshots by start time descending. Callers hold mu.
func (s *RunStore) sorted() []domain.ReportSnapshot {
	out := make([]domain.ReportSnapshot, 0, len(s.runs))
	for _, snap := range s.runs {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func cloneSnapshot(s domain.ReportSnapshot) domain.ReportSnapshot {
	s.Outcomes = append([]domain.ExtractionOutcome(nil), s.Outcomes...)
	if s.ByClinician != nil {
		by := make(map[string][]domain.ExtractionOutcome, len(s.ByClinician))
		for k, v := range s.ByClinician {
			by[k] = append([]domain.ExtractionOutcome(nil), v...)
		}
		s.ByClinician = by
	}
	return s
}
