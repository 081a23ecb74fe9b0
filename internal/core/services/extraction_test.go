package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driving"
)

var extractionNow = time.Date(2025, 6, 7, 6, 0, 0, 0, time.UTC)

func newTestExtraction(
	sheet *fakeSheet, searcher *fakeSearcher, comments driven.CommentReader,
	runs driven.RunStore, notifier driven.Notifier,
) *ExtractionService {
	cfg := DefaultExtractionConfig()
	cfg.Location = time.UTC
	cfg.Retry = noRetry()
	cfg.NotifyRetry = RetryPolicy{Attempts: 3, RetryIf: func(error) bool { return true }}

	locator := NewDocumentLocator(NewExactStrategy(searcher, 2, noRetry()))
	svc := NewExtractionService(sheet, locator, comments, runs, notifier, cfg)
	svc.now = func() time.Time { return extractionNow }
	svc.newID = func() string { return "run-1" }
	return svc
}

func janeDoeRow() domain.AppointmentRecord {
	return domain.AppointmentRecord{Row: 2, Date: "6/6/2025", ClaimDate: "6/6", ClinicianLabel: "CS", PatientName: "Jane Doe"}
}

func TestExtractionService_EndToEnd(t *testing.T) {
	note := "CS 6/6/25 Patient reports reduced shoulder tension."
	sheet := &fakeSheet{rows: []domain.AppointmentRecord{janeDoeRow()}}
	searcher := newFakeSearcher("Jane Doe.pdf")
	comments := &fakeComments{byDoc: map[string][]domain.CommentEntry{
		"doc-1": {
			{ID: "c1", Content: "CS 5/30/25 earlier visit", CreatedAt: time.Date(2025, 5, 30, 15, 0, 0, 0, time.UTC)},
			{ID: "c2", Content: note, CreatedAt: time.Date(2025, 6, 6, 18, 0, 0, 0, time.UTC)},
		},
	}}
	runs := &fakeRunStore{}
	notifier := &fakeNotifier{}

	svc := newTestExtraction(sheet, searcher, comments, runs, notifier)
	snap, err := svc.Run(context.Background(), driving.ExtractOptions{})
	require.NoError(t, err)

	require.Len(t, snap.Outcomes, 1)
	out := snap.Outcomes[0]
	assert.Equal(t, domain.OutcomeExtracted, out.Kind)
	assert.Equal(t, note, out.Note)
	assert.Equal(t, "Jane Doe.pdf", out.SourceDocument)
	assert.Equal(t, note, sheet.written[2])

	attribution, ok := NewClinicianAttributor(testDirectory(t), DefaultAttributionLines).Attribute(out.Note)
	require.True(t, ok)
	assert.Equal(t, "Catie Stevens", attribution.Clinician.Name)

	require.Len(t, runs.saved, 1)
	assert.Equal(t, "run-1", runs.saved[0].RunID)
	assert.False(t, runs.saved[0].Cancelled)

	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0], "SOAP Notes Extraction Report - 6/7/2025")
}

func TestExtractionService_OutcomeKinds(t *testing.T) {
	sheet := &fakeSheet{rows: []domain.AppointmentRecord{
		janeDoeRow(),
		{Row: 3, Date: "6/6/2025", ClaimDate: "6/6", ClinicianLabel: "LG", PatientName: "Bob Stone"},
		{Row: 4, Date: "6/5/2025", ClaimDate: "6/5", ClinicianLabel: "MM", PatientName: "Ana Lopez"},
		{Row: 5, Date: "6/5/2025", ClaimDate: "6/5", PatientName: "Pat Jones"},
	}}
	searcher := newFakeSearcher("Jane Doe.pdf", "Ana Lopez.pdf", "Pat Jones.pdf")
	comments := &fakeComments{
		byDoc: map[string][]domain.CommentEntry{
			"doc-1": {{Content: "CS 6/6/25 ok"}},
			"doc-2": {{Content: "MM 6/1/25 other visit", CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}},
		},
		errs: map[string]error{"doc-3": errors.New("permission denied")},
	}

	svc := newTestExtraction(sheet, searcher, comments, nil, nil)
	snap, err := svc.Run(context.Background(), driving.ExtractOptions{})
	require.NoError(t, err)

	require.Len(t, snap.Outcomes, 4)
	assert.Equal(t, domain.OutcomeExtracted, snap.Outcomes[0].Kind)
	assert.Equal(t, domain.OutcomeNoDocumentFound, snap.Outcomes[1].Kind)

	assert.Equal(t, domain.OutcomeNoNoteFound, snap.Outcomes[2].Kind)
	assert.Equal(t, []string{"Ana Lopez.pdf"}, snap.Outcomes[2].CandidatesChecked)

	assert.Equal(t, domain.OutcomeError, snap.Outcomes[3].Kind)
	assert.Contains(t, snap.Outcomes[3].Message, "permission denied")

	assert.Equal(t, domain.Summary{Total: 4, Extracted: 1, NoDocumentFound: 1, NoNoteFound: 1, Errors: 1}, snap.Summary)
	assert.Len(t, sheet.written, 1)
}

func TestExtractionService_SkipsIneligibleRows(t *testing.T) {
	sheet := &fakeSheet{rows: []domain.AppointmentRecord{
		{Row: 2, Date: "6/6/2025", ClaimDate: "6/6", PatientName: "Jane Doe", ExistingNote: "already"},
		{Row: 3, Date: "6/6/2025", PatientName: "Jane Doe"},
		{Row: 4, Date: "1/6/2025", ClaimDate: "1/6", PatientName: "Jane Doe"},
		{Row: 5, Date: "next week", ClaimDate: "6/6", PatientName: "Jane Doe"},
		{Row: 6, ClaimDate: "6/6", PatientName: "Jane Doe"},
	}}
	searcher := newFakeSearcher("Jane Doe.pdf")

	svc := newTestExtraction(sheet, searcher, &fakeComments{}, nil, nil)
	snap, err := svc.Run(context.Background(), driving.ExtractOptions{})
	require.NoError(t, err)

	assert.Empty(t, snap.Outcomes)
	assert.Zero(t, searcher.queryCount())
}

func TestExtractionService_StartRow(t *testing.T) {
	second := janeDoeRow()
	second.Row = 9
	sheet := &fakeSheet{rows: []domain.AppointmentRecord{janeDoeRow(), second}}
	searcher := newFakeSearcher("Jane Doe.pdf")
	comments := &fakeComments{byDoc: map[string][]domain.CommentEntry{"doc-1": {{Content: "CS 6/6/25 ok"}}}}

	svc := newTestExtraction(sheet, searcher, comments, nil, nil)
	snap, err := svc.Run(context.Background(), driving.ExtractOptions{StartRow: 5})
	require.NoError(t, err)

	require.Len(t, snap.Outcomes, 1)
	assert.Equal(t, 9, snap.Outcomes[0].Row)
}

func TestExtractionService_DryRun(t *testing.T) {
	sheet := &fakeSheet{rows: []domain.AppointmentRecord{janeDoeRow()}}
	searcher := newFakeSearcher("Jane Doe.pdf")
	comments := &fakeComments{byDoc: map[string][]domain.CommentEntry{"doc-1": {{Content: "CS 6/6/25 ok"}}}}

	svc := newTestExtraction(sheet, searcher, comments, nil, nil)
	snap, err := svc.Run(context.Background(), driving.ExtractOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeExtracted, snap.Outcomes[0].Kind)
	assert.Empty(t, sheet.written)
}

func TestExtractionService_WriteFailureIsRecorded(t *testing.T) {
	sheet := &fakeSheet{rows: []domain.AppointmentRecord{janeDoeRow()}, writeErr: domain.ErrAuthInvalid}
	searcher := newFakeSearcher("Jane Doe.pdf")
	comments := &fakeComments{byDoc: map[string][]domain.CommentEntry{"doc-1": {{Content: "CS 6/6/25 ok"}}}}

	svc := newTestExtraction(sheet, searcher, comments, nil, nil)
	snap, err := svc.Run(context.Background(), driving.ExtractOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeError, snap.Outcomes[0].Kind)
	assert.Contains(t, snap.Outcomes[0].Message, "write note")
}

func TestExtractionService_ReadFailureIsFatal(t *testing.T) {
	sheet := &fakeSheet{readErr: domain.ErrAuthRequired}
	runs := &fakeRunStore{}

	svc := newTestExtraction(sheet, newFakeSearcher(), &fakeComments{}, runs, nil)
	snap, err := svc.Run(context.Background(), driving.ExtractOptions{})

	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Nil(t, snap)
	assert.Empty(t, runs.saved)
}

// cancellingComments cancels the run while serving the first document.
type cancellingComments struct {
	cancel context.CancelFunc
}

func (c *cancellingComments) ListComments(_ context.Context, _ string) ([]domain.CommentEntry, error) {
	c.cancel()
	return []domain.CommentEntry{{Content: "CS 6/6/25 ok"}}, nil
}

func TestExtractionService_CancelledRunStillReports(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	second := janeDoeRow()
	second.Row = 3
	sheet := &fakeSheet{rows: []domain.AppointmentRecord{janeDoeRow(), second}}
	runs := &fakeRunStore{}
	notifier := &fakeNotifier{}

	svc := newTestExtraction(sheet, newFakeSearcher("Jane Doe.pdf"), &cancellingComments{cancel: cancel}, runs, notifier)
	snap, err := svc.Run(ctx, driving.ExtractOptions{})

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, snap)
	assert.True(t, snap.Cancelled)
	assert.Empty(t, snap.Outcomes, "the interrupted record is not reported")
	assert.Empty(t, sheet.written)
	require.Len(t, runs.saved, 1)
	assert.True(t, runs.saved[0].Cancelled)
	assert.Len(t, notifier.sent, 1)
}

func TestExtractionService_NotifierRetries(t *testing.T) {
	sheet := &fakeSheet{}
	notifier := &fakeNotifier{failures: 2}

	svc := newTestExtraction(sheet, newFakeSearcher(), &fakeComments{}, nil, notifier)
	_, err := svc.Run(context.Background(), driving.ExtractOptions{})
	require.NoError(t, err)

	assert.Equal(t, 3, notifier.attempts)
	assert.Len(t, notifier.sent, 1)
}

func TestExtractionService_NotifierFailureIsNotFatal(t *testing.T) {
	notifier := &fakeNotifier{failures: 10}

	svc := newTestExtraction(&fakeSheet{}, newFakeSearcher(), &fakeComments{}, nil, notifier)
	snap, err := svc.Run(context.Background(), driving.ExtractOptions{})
	require.NoError(t, err)

	assert.NotNil(t, snap)
	assert.Equal(t, 3, notifier.attempts)
	assert.Empty(t, notifier.sent)
}

func TestExtractionService_SkipNotify(t *testing.T) {
	notifier := &fakeNotifier{}

	svc := newTestExtraction(&fakeSheet{}, newFakeSearcher(), &fakeComments{}, nil, notifier)
	_, err := svc.Run(context.Background(), driving.ExtractOptions{SkipNotify: true})
	require.NoError(t, err)

	assert.Zero(t, notifier.attempts)
}

func TestReportService(t *testing.T) {
	runs := &fakeRunStore{}
	svc := NewReportService(runs)

	_, err := svc.Latest(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	runs.saved = append(runs.saved, &domain.ReportSnapshot{RunID: "a"}, &domain.ReportSnapshot{RunID: "b"})

	latest, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", latest.RunID)

	got, err := svc.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.RunID)

	list, err := svc.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
