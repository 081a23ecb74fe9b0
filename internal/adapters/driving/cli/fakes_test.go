package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driving"
)

type mockExtractor struct {
	opts driving.ExtractOptions
	snap *domain.ReportSnapshot
	err  error
}

func (m *mockExtractor) Run(_ context.Context, opts driving.ExtractOptions) (*domain.ReportSnapshot, error) {
	m.opts = opts
	return m.snap, m.err
}

type mockReports struct {
	latest *domain.ReportSnapshot
	byID   map[string]*domain.ReportSnapshot
	runs   []domain.RunRecord
	limit  int
}

func (m *mockReports) Latest(_ context.Context) (*domain.ReportSnapshot, error) {
	if m.latest == nil {
		return nil, domain.ErrNotFound
	}
	return m.latest, nil
}

func (m *mockReports) Get(_ context.Context, id string) (*domain.ReportSnapshot, error) {
	if s, ok := m.byID[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockReports) List(_ context.Context, limit int) ([]domain.RunRecord, error) {
	m.limit = limit
	return m.runs, nil
}

type mockSigner struct {
	summary *domain.SigningSummary
	err     error
}

func (m *mockSigner) SignPending(_ context.Context) (*domain.SigningSummary, error) {
	return m.summary, m.err
}

type mockFiler struct {
	publish   *domain.PublishSummary
	organize  *domain.FilingSummary
	dryRun    bool
	misplaced []domain.MisplacedFile
	fixed     []domain.MisplacedFile
	rows      []domain.InventoryRow
}

func (m *mockFiler) Publish(_ context.Context) (*domain.PublishSummary, error) {
	return m.publish, nil
}

func (m *mockFiler) Organize(_ context.Context, dryRun bool) (*domain.FilingSummary, error) {
	m.dryRun = dryRun
	return m.organize, nil
}

func (m *mockFiler) FindMisplaced(_ context.Context) ([]domain.MisplacedFile, error) {
	return m.misplaced, nil
}

func (m *mockFiler) FixMisplaced(_ context.Context, files []domain.MisplacedFile) (*domain.FilingSummary, error) {
	m.fixed = files
	return &domain.FilingSummary{Moved: len(files)}, nil
}

func (m *mockFiler) Inventory(_ context.Context) ([]domain.InventoryRow, error) {
	return m.rows, nil
}

type mockWorkflow struct {
	calls int
	err   error
}

func (m *mockWorkflow) RunDaily(_ context.Context) error {
	m.calls++
	return m.err
}

type mockScheduler struct {
	started bool
	history []domain.TaskResult
	limit   int
}

func (m *mockScheduler) Start(_ context.Context) error {
	m.started = true
	return nil
}

func (m *mockScheduler) Stop() error { return nil }

func (m *mockScheduler) History(_ context.Context, limit int) ([]domain.TaskResult, error) {
	m.limit = limit
	return m.history, nil
}

type mockInventoryWriter struct {
	rows []domain.InventoryRow
}

func (m *mockInventoryWriter) WriteInventory(_ context.Context, rows []domain.InventoryRow) error {
	m.rows = rows
	return nil
}

// setupCLITest resets the command state and restores it after the test.
func setupCLITest(t *testing.T, s *Services) {
	t.Helper()
	reset := func() {
		setServices(&Services{})
		bootstrap = Bootstrap{}
		configPath = ""
		verbose = false
		extractStartRow, extractDryRun, extractNoNotify = 0, false, false
		reportList = 0
		organizeDryRun, organizeWatch, fixMisplaced = false, false, false
		inventoryOut = ""
		configForce = false
		authManual = false
		scheduleHistory = 0
	}
	reset()
	if s != nil {
		setServices(s)
	}
	t.Cleanup(reset)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, nil, args...)
}

func executeWithInput(t *testing.T, in io.Reader, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(in)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

var _ driven.InventoryWriter = (*mockInventoryWriter)(nil)
