package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
)

// runTimeLayout is fixed-width so stored timestamps sort as text.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z"

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// SaveRun creates or replaces a snapshot keyed by RunID.
func (s *runStore) SaveRun(ctx context.Context, snapshot *domain.ReportSnapshot) error {
	if snapshot == nil || snapshot.RunID == "" {
		return domain.ErrInvalidInput
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshalling snapshot: %w", err)
	}

	sum := snapshot.Summary
	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at, finished_at, cancelled, total, extracted,
			no_document_found, no_note_found, errors, ambiguous, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			cancelled = excluded.cancelled,
			total = excluded.total,
			extracted = excluded.extracted,
			no_document_found = excluded.no_document_found,
			no_note_found = excluded.no_note_found,
			errors = excluded.errors,
			ambiguous = excluded.ambiguous,
			snapshot = excluded.snapshot
	`, snapshot.RunID, formatRunTime(snapshot.StartedAt), nullRunTime(snapshot.FinishedAt),
		boolToInt(snapshot.Cancelled), sum.Total, sum.Extracted,
		sum.NoDocumentFound, sum.NoNoteFound, sum.Errors, sum.Ambiguous, string(data))

	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// GetRun returns a snapshot by ID.
func (s *runStore) GetRun(ctx context.Context, runID string) (*domain.ReportSnapshot, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT snapshot FROM runs WHERE run_id = ?", runID)
	return scanSnapshot(row)
}

// LatestRun returns the most recently started snapshot.
func (s *runStore) LatestRun(ctx context.Context) (*domain.ReportSnapshot, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT snapshot FROM runs ORDER BY started_at DESC LIMIT 1")
	return scanSnapshot(row)
}

// ListRuns returns run headers, most recent first. A limit of zero or
// less returns every run.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at, total, extracted,
			no_document_found, no_note_found, errors, ambiguous
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var records []domain.RunRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.RunRecord
		var startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&r.RunID, &startedAt, &finishedAt,
			&r.Summary.Total, &r.Summary.Extracted, &r.Summary.NoDocumentFound,
			&r.Summary.NoNoteFound, &r.Summary.Errors, &r.Summary.Ambiguous); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = parseRunTime(startedAt)
		if finishedAt.Valid {
			r.FinishedAt = parseRunTime(finishedAt.String)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return records, nil
}

func scanSnapshot(row *sql.Row) (*domain.ReportSnapshot, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	var snap domain.ReportSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("unmarshalling snapshot: %w", err)
	}
	return &snap, nil
}

func formatRunTime(t time.Time) string {
	return t.UTC().Format(runTimeLayout)
}

func nullRunTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return formatRunTime(t)
}

func parseRunTime(s string) time.Time {
	t, err := time.Parse(runTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
