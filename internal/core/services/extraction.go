package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driving"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// ExtractionConfig holds batch settings for an extraction run.
type ExtractionConfig struct {
	// StartRow is the default first 1-based sheet row. Row 1 is the header.
	StartRow int

	// LookbackDays skips appointments older than this. Zero disables the check.
	LookbackDays int

	// Location is used for date comparisons. Nil means time.Local.
	Location *time.Location

	Retry       RetryPolicy
	NotifyRetry RetryPolicy
}

// DefaultExtractionConfig returns the production defaults.
func DefaultExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		StartRow:     2,
		LookbackDays: DefaultLookbackDays,
		Retry:        DefaultRetryPolicy(),
		NotifyRetry:  NotifyRetryPolicy(),
	}
}

// ExtractionService walks the appointment sheet, finds each appointment's
// dated note in the document store and writes it back to the sheet.
type ExtractionService struct {
	sheet    driven.AppointmentSheet
	locator  *DocumentLocator
	comments driven.CommentReader
	dates    *DateTagExtractor
	runs     driven.RunStore
	notifier driven.Notifier
	cfg      ExtractionConfig

	now   func() time.Time
	newID func() string
}

var _ driving.Extractor = (*ExtractionService)(nil)

// NewExtractionService creates the extraction service. runs and notifier may be nil.
func NewExtractionService(
	sheet driven.AppointmentSheet,
	locator *DocumentLocator,
	comments driven.CommentReader,
	runs driven.RunStore,
	notifier driven.Notifier,
	cfg ExtractionConfig,
) *ExtractionService {
	if cfg.StartRow < 2 {
		cfg.StartRow = 2
	}
	return &ExtractionService{
		sheet:    sheet,
		locator:  locator,
		comments: comments,
		dates:    NewDateTagExtractor(cfg.Location),
		runs:     runs,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Run implements driving.Extractor.
func (s *ExtractionService) Run(ctx context.Context, opts driving.ExtractOptions) (*domain.ReportSnapshot, error) {
	startRow := opts.StartRow
	if startRow < 2 {
		startRow = s.cfg.StartRow
	}

	logger.Section("Extraction")

	records, err := RetryValue(ctx, s.cfg.Retry, "read appointments",
		func(ctx context.Context) ([]domain.AppointmentRecord, error) {
			return s.sheet.ReadAppointments(ctx, startRow)
		})
	if err != nil {
		return nil, fmt.Errorf("read appointments: %w", err)
	}

	report := NewRunReport(s.newID(), s.now())
	eligibility := Eligibility{
		LookbackDays: s.cfg.LookbackDays,
		Now:          s.now,
		Location:     s.cfg.Location,
	}

	logger.Info("read %d appointment rows from row %d", len(records), startRow)

	var runErr error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		date, reason := eligibility.Check(rec)
		if reason != SkipNone {
			if reason == SkipBadDate {
				logger.Warn("row %d: skipping %q: unparseable date %q", rec.Row, rec.PatientName, rec.Date)
			} else {
				logger.Debug("row %d: skipping: %s", rec.Row, reason)
			}
			continue
		}

		outcome := s.processRecord(ctx, rec, date, opts.DryRun)
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		report.Record(outcome)
		logger.Info("row %d: %s: %s", rec.Row, rec.PatientName, outcome.Kind)
	}

	snap := report.Snapshot(s.now())
	snap.Cancelled = runErr != nil

	// A cancelled run still persists and reports what it managed.
	bg := context.WithoutCancel(ctx)
	s.persist(bg, snap)
	if !opts.SkipNotify {
		s.notify(bg, snap)
	}

	logger.Info("extraction finished: %d extracted, %d no note, %d no document, %d errors",
		snap.Summary.Extracted, snap.Summary.NoNoteFound, snap.Summary.NoDocumentFound, snap.Summary.Errors)

	return snap, runErr
}

// processRecord locates candidates, finds the dated note and writes it back.
// Failures are folded into the returned outcome.
func (s *ExtractionService) processRecord(
	ctx context.Context, rec domain.AppointmentRecord, date domain.CalendarDate, dryRun bool,
) domain.ExtractionOutcome {
	out := domain.ExtractionOutcome{
		Row:            rec.Row,
		PatientName:    rec.PatientName,
		Date:           rec.Date,
		ClinicianLabel: rec.ClinicianLabel,
	}

	candidates, err := s.locator.FindCandidates(ctx, rec.PatientName)
	if err != nil {
		return failed(out, err)
	}
	if len(candidates) == 0 {
		out.Kind = domain.OutcomeNoDocumentFound
		return out
	}

	for _, c := range candidates {
		if c.IsAmbiguousMatch {
			out.Ambiguous = true
			out.Candidates = append(out.Candidates, c)
		}
	}

	for _, c := range candidates {
		comments, err := RetryValue(ctx, s.cfg.Retry, "list comments",
			func(ctx context.Context) ([]domain.CommentEntry, error) {
				return s.comments.ListComments(ctx, c.ID)
			})
		if err != nil {
			return failed(out, fmt.Errorf("comments for %s: %w", c.Name, err))
		}
		out.CandidatesChecked = append(out.CandidatesChecked, c.Name)

		note, ok := s.dates.ExtractNote(comments, date)
		if !ok {
			continue
		}

		if !dryRun {
			err := Retry(ctx, s.cfg.Retry, "write note", func(ctx context.Context) error {
				return s.sheet.WriteNote(ctx, rec.Row, note)
			})
			if err != nil {
				return failed(out, fmt.Errorf("write note: %w", err))
			}
		}

		out.Kind = domain.OutcomeExtracted
		out.Note = note
		out.SourceDocument = c.Name
		out.CandidatesChecked = nil
		return out
	}

	out.Kind = domain.OutcomeNoNoteFound
	return out
}

func failed(out domain.ExtractionOutcome, err error) domain.ExtractionOutcome {
	out.Kind = domain.OutcomeError
	out.Message = err.Error()
	out.CandidatesChecked = nil
	return out
}

func (s *ExtractionService) persist(ctx context.Context, snap *domain.ReportSnapshot) {
	if s.runs == nil {
		return
	}
	if err := s.runs.SaveRun(ctx, snap); err != nil {
		logger.Error("save run %s: %v", snap.RunID, err)
	}
}

func (s *ExtractionService) notify(ctx context.Context, snap *domain.ReportSnapshot) {
	if s.notifier == nil {
		logger.Debug("no notifier configured, report not sent")
		return
	}
	err := Retry(ctx, s.cfg.NotifyRetry, "send report", func(ctx context.Context) error {
		return s.notifier.Send(ctx, ReportSubject(snap), FormatReport(snap))
	})
	if err != nil {
		logger.Error("send report: %v", err)
	}
}

// ReportService reads persisted run reports.
type ReportService struct {
	runs driven.RunStore
}

var _ driving.ReportReader = (*ReportService)(nil)

// NewReportService creates a report reader over a run store.
func NewReportService(runs driven.RunStore) *ReportService {
	return &ReportService{runs: runs}
}

// Latest implements driving.ReportReader.
func (s *ReportService) Latest(ctx context.Context) (*domain.ReportSnapshot, error) {
	snap, err := s.runs.LatestRun(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("no runs recorded yet: %w", err)
	}
	return snap, err
}

// Get implements driving.ReportReader.
func (s *ReportService) Get(ctx context.Context, runID string) (*domain.ReportSnapshot, error) {
	return s.runs.GetRun(ctx, runID)
}

// List implements driving.ReportReader.
func (s *ReportService) List(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	return s.runs.ListRuns(ctx, limit)
}
