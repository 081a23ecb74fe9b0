package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
)

// --- Fake implementations of the driven ports ---

// fakeSearcher matches query terms against filenames case-sensitively,
// like a store whose name predicate is case-sensitive.
type fakeSearcher struct {
	mu      sync.Mutex
	docs    []domain.DocumentCandidate
	err     error
	queries []domain.SearchQuery
	listed  int
}

func newFakeSearcher(filenames ...string) *fakeSearcher {
	s := &fakeSearcher{}
	for i, name := range filenames {
		s.docs = append(s.docs, domain.DocumentCandidate{
			ID:       fmt.Sprintf("doc-%d", i+1),
			Name:     name,
			MimeType: domain.MimeTypePDF,
		})
	}
	return s
}

func (s *fakeSearcher) Search(_ context.Context, q domain.SearchQuery) ([]domain.DocumentCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}

	var out []domain.DocumentCandidate
	for _, d := range s.docs {
		match := true
		for _, t := range q.Terms {
			if !strings.Contains(d.Name, t) {
				match = false
				break
			}
		}
		if match {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeSearcher) ListAll(_ context.Context, _ []string) ([]domain.DocumentCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listed++
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.DocumentCandidate(nil), s.docs...), nil
}

func (s *fakeSearcher) queryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// fakeComments returns canned comments per document ID.
type fakeComments struct {
	byDoc map[string][]domain.CommentEntry
	errs  map[string]error
	calls int
}

func (c *fakeComments) ListComments(_ context.Context, id string) ([]domain.CommentEntry, error) {
	c.calls++
	if err := c.errs[id]; err != nil {
		return nil, err
	}
	return c.byDoc[id], nil
}

// fakeSheet serves fixed rows and records writes.
type fakeSheet struct {
	rows     []domain.AppointmentRecord
	readErr  error
	writeErr error
	written  map[int]string
}

func (s *fakeSheet) ReadAppointments(_ context.Context, startRow int) ([]domain.AppointmentRecord, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []domain.AppointmentRecord
	for _, r := range s.rows {
		if r.Row >= startRow {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeSheet) WriteNote(_ context.Context, row int, note string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	if s.written == nil {
		s.written = make(map[int]string)
	}
	s.written[row] = note
	return nil
}

// fakeRunStore keeps snapshots in memory.
type fakeRunStore struct {
	saved []*domain.ReportSnapshot
}

func (s *fakeRunStore) SaveRun(_ context.Context, snap *domain.ReportSnapshot) error {
	s.saved = append(s.saved, snap)
	return nil
}

func (s *fakeRunStore) GetRun(_ context.Context, id string) (*domain.ReportSnapshot, error) {
	for _, snap := range s.saved {
		if snap.RunID == id {
			return snap, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeRunStore) LatestRun(_ context.Context) (*domain.ReportSnapshot, error) {
	if len(s.saved) == 0 {
		return nil, domain.ErrNotFound
	}
	return s.saved[len(s.saved)-1], nil
}

func (s *fakeRunStore) ListRuns(_ context.Context, _ int) ([]domain.RunRecord, error) {
	var out []domain.RunRecord
	for _, snap := range s.saved {
		out = append(out, domain.RunRecord{RunID: snap.RunID, Summary: snap.Summary})
	}
	return out, nil
}

// fakeNotifier records sends and fails the first failures calls.
type fakeNotifier struct {
	failures int
	sent     []string
	attempts int
}

func (n *fakeNotifier) Send(_ context.Context, subject, body string) error {
	n.attempts++
	if n.attempts <= n.failures {
		return fmt.Errorf("smtp: connection refused")
	}
	n.sent = append(n.sent, subject+"\n"+body)
	return nil
}

// fakeNoteDocs is an in-memory editable document store.
type fakeNoteDocs struct {
	docs      []domain.SignableDocument
	text      map[string]string
	appended  map[string]string
	images    map[string]*driven.SignatureImage
	appendErr error
}

func (d *fakeNoteDocs) ListNoteDocuments(_ context.Context) ([]domain.SignableDocument, error) {
	return d.docs, nil
}

func (d *fakeNoteDocs) ReadText(_ context.Context, id string) (string, error) {
	t, ok := d.text[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return t, nil
}

func (d *fakeNoteDocs) AppendSignature(_ context.Context, id, text string, image *driven.SignatureImage) error {
	if d.appendErr != nil {
		return d.appendErr
	}
	if d.appended == nil {
		d.appended = make(map[string]string)
		d.images = make(map[string]*driven.SignatureImage)
	}
	d.appended[id] += text
	d.images[id] = image
	d.text[id] += text
	return nil
}

type fakeAssets map[string]string

func (a fakeAssets) FindSignature(_ context.Context, name string) (string, error) {
	uri, ok := a[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return uri, nil
}

type fakeExporter struct {
	trashed []string
}

func (e *fakeExporter) ExportPDF(_ context.Context, id string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewBufferString("%PDF-" + id)), nil
}

func (e *fakeExporter) Trash(_ context.Context, id string) error {
	e.trashed = append(e.trashed, id)
	return nil
}

// fakeArchive is an in-memory folder tree keyed by clean path.
type fakeArchive struct {
	files       map[string][]byte
	folders     map[string]bool
	createCalls int
	createFails int // CreateFolder calls left to fail
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{files: map[string][]byte{}, folders: map[string]bool{"/": true}}
}

func (a *fakeArchive) addFolder(p string) {
	p = path.Clean(p)
	for p != "/" && p != "." {
		a.folders[p] = true
		p = path.Dir(p)
	}
}

func (a *fakeArchive) addFile(p string, data string) {
	p = path.Clean(p)
	a.addFolder(path.Dir(p))
	a.files[p] = []byte(data)
}

func (a *fakeArchive) List(_ context.Context, dir string) ([]domain.ArchiveEntry, error) {
	dir = path.Clean(dir)
	if !a.folders[dir] {
		return nil, domain.ErrNotFound
	}
	var out []domain.ArchiveEntry
	for f := range a.folders {
		if f != dir && path.Dir(f) == dir {
			out = append(out, domain.ArchiveEntry{Name: path.Base(f), Path: f, IsFolder: true})
		}
	}
	for f, data := range a.files {
		if path.Dir(f) == dir {
			out = append(out, domain.ArchiveEntry{Name: path.Base(f), Path: f, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (a *fakeArchive) Exists(_ context.Context, p string) (bool, error) {
	p = path.Clean(p)
	_, isFile := a.files[p]
	return isFile || a.folders[p], nil
}

func (a *fakeArchive) CreateFolder(_ context.Context, p string) error {
	a.createCalls++
	if a.createFails > 0 {
		a.createFails--
		return domain.ErrTransientIO
	}
	a.addFolder(p)
	return nil
}

func (a *fakeArchive) Move(_ context.Context, from, to string) error {
	from, to = path.Clean(from), path.Clean(to)
	data, ok := a.files[from]
	if !ok {
		return domain.ErrNotFound
	}
	if _, exists := a.files[to]; exists {
		return domain.ErrAlreadyExists
	}
	if !a.folders[path.Dir(to)] {
		return domain.ErrNotFound
	}
	delete(a.files, from)
	a.files[to] = data
	return nil
}

func (a *fakeArchive) Upload(_ context.Context, p string, r io.Reader) error {
	p = path.Clean(p)
	if _, exists := a.files[p]; exists {
		return domain.ErrAlreadyExists
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	a.addFile(p, string(data))
	return nil
}

// noRetry keeps tests fast.
func noRetry() RetryPolicy {
	return RetryPolicy{Attempts: 1}
}

// quickRetry retries without waiting.
func quickRetry(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts}
}
