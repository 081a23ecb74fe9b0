package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driving"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// FilingConfig locates the archive folders.
type FilingConfig struct {
	// InboxPath receives freshly exported notes.
	InboxPath string

	// PatientsPath holds one folder per patient.
	PatientsPath string

	Retry RetryPolicy
}

// FilingService exports signed notes into the archive and keeps the
// patient folders tidy.
type FilingService struct {
	archive  driven.Archive
	docs     driven.NoteDocuments
	exporter driven.DocumentExporter
	cfg      FilingConfig
}

var _ driving.Filer = (*FilingService)(nil)

// NewFilingService creates a filing service. docs and exporter are only
// needed by Publish and may be nil otherwise.
func NewFilingService(
	archive driven.Archive,
	docs driven.NoteDocuments,
	exporter driven.DocumentExporter,
	cfg FilingConfig,
) *FilingService {
	return &FilingService{archive: archive, docs: docs, exporter: exporter, cfg: cfg}
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9.\-]`)

// SafeFilename replaces characters that are awkward in archive paths.
func SafeFilename(name string) string {
	return unsafeFilename.ReplaceAllString(name, "_")
}

// Publish implements driving.Filer.
func (s *FilingService) Publish(ctx context.Context) (*domain.PublishSummary, error) {
	if s.docs == nil || s.exporter == nil {
		return nil, fmt.Errorf("publish: %w: document store not configured", domain.ErrNotImplemented)
	}

	logger.Section("Publish")

	docs, err := RetryValue(ctx, s.cfg.Retry, "list note documents",
		func(ctx context.Context) ([]domain.SignableDocument, error) {
			return s.docs.ListNoteDocuments(ctx)
		})
	if err != nil {
		return nil, fmt.Errorf("list note documents: %w", err)
	}

	summary := &domain.PublishSummary{}
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		text, err := RetryValue(ctx, s.cfg.Retry, "read document",
			func(ctx context.Context) (string, error) {
				return s.docs.ReadText(ctx, d.ID)
			})
		if err != nil {
			logger.Error("%s: read: %v", d.Name, err)
			summary.Failed++
			continue
		}
		if !IsSigned(text) {
			continue
		}

		if err := s.publishOne(ctx, d, summary); err != nil {
			logger.Error("%s: %v", d.Name, err)
			summary.Failed++
		}
	}

	return summary, nil
}

func (s *FilingService) publishOne(ctx context.Context, d domain.SignableDocument, summary *domain.PublishSummary) error {
	dest := path.Join(s.cfg.InboxPath, SafeFilename(d.Name)+".pdf")

	err := Retry(ctx, s.cfg.Retry, "upload pdf", func(ctx context.Context) error {
		pdf, err := s.exporter.ExportPDF(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		defer pdf.Close()
		return s.archive.Upload(ctx, dest, pdf)
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		logger.Info("%s already archived", dest)
		summary.Existing++
	case err != nil:
		return fmt.Errorf("upload %s: %w", dest, err)
	default:
		logger.Info("uploaded %s", dest)
		summary.Uploaded++
	}

	if err := Retry(ctx, s.cfg.Retry, "trash document", func(ctx context.Context) error {
		return s.exporter.Trash(ctx, d.ID)
	}); err != nil {
		return fmt.Errorf("trash: %w", err)
	}
	summary.Trashed++
	return nil
}

// Organize implements driving.Filer.
func (s *FilingService) Organize(ctx context.Context, dryRun bool) (*domain.FilingSummary, error) {
	logger.Section("Organise")

	inbox, err := s.list(ctx, s.cfg.InboxPath)
	if err != nil {
		return nil, err
	}
	folders, err := s.patientFolders(ctx)
	if err != nil {
		return nil, err
	}

	resolver := NewPatientFolderResolver(folders)
	summary := &domain.FilingSummary{}

	for _, entry := range inbox {
		if entry.IsFolder || !isPDF(entry.Name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		r := s.fileOne(ctx, resolver, entry, dryRun)
		addFiling(summary, r)
	}

	return summary, nil
}

func (s *FilingService) fileOne(
	ctx context.Context, resolver *PatientFolderResolver, entry domain.ArchiveEntry, dryRun bool,
) domain.FilingResult {
	r := domain.FilingResult{File: entry.Name}

	patient := ExtractPatientName(entry.Name)
	res, ok, err := resolver.Lookup(patient)
	if err != nil {
		r.Err = fmt.Sprintf("resolve %q: %v", patient, err)
		return r
	}
	if !ok {
		// Registered with the resolver only once the folder exists.
		res = domain.FolderResolution{Target: strings.Join(strings.Fields(patient), " "), Created: true}
	}
	r.Folder = res.Target
	r.Created = res.Created
	r.Ambiguous = res.Ambiguous
	if res.Ambiguous {
		logger.Warn("%s: %d folders match %q, using %s", entry.Name, len(res.Candidates), patient, res.Target)
	}

	folder := path.Join(s.cfg.PatientsPath, res.Target)
	dest := path.Join(folder, entry.Name)

	if dryRun {
		if res.Created {
			resolver.Add(res.Target)
		}
		logger.Info("[dry run] %s -> %s", entry.Path, dest)
		return r
	}

	if res.Created {
		if err := Retry(ctx, s.cfg.Retry, "create folder", func(ctx context.Context) error {
			return s.archive.CreateFolder(ctx, folder)
		}); err != nil {
			r.Err = fmt.Sprintf("create folder %s: %v", folder, err)
			return r
		}
		resolver.Add(res.Target)
		logger.Info("created folder %s", folder)
	}

	if err := s.move(ctx, entry.Path, dest); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			r.Skipped = true
			return r
		}
		r.Err = err.Error()
		return r
	}

	logger.Info("%s -> %s", entry.Name, folder)
	return r
}

// move renames from to to unless to already exists.
func (s *FilingService) move(ctx context.Context, from, to string) error {
	exists, err := RetryValue(ctx, s.cfg.Retry, "check destination",
		func(ctx context.Context) (bool, error) {
			return s.archive.Exists(ctx, to)
		})
	if err != nil {
		return fmt.Errorf("check %s: %w", to, err)
	}
	if exists {
		logger.Info("%s already exists, leaving %s in place", to, from)
		return fmt.Errorf("%s: %w", to, domain.ErrAlreadyExists)
	}

	if err := Retry(ctx, s.cfg.Retry, "move file", func(ctx context.Context) error {
		return s.archive.Move(ctx, from, to)
	}); err != nil {
		return fmt.Errorf("move %s: %w", from, err)
	}
	return nil
}

func addFiling(summary *domain.FilingSummary, r domain.FilingResult) {
	summary.Results = append(summary.Results, r)
	switch {
	case r.Err != "":
		summary.Errors++
	case r.Skipped:
		summary.Skipped++
	default:
		summary.Moved++
	}
	if r.Created && r.Err == "" {
		summary.FoldersCreated++
	}
}

// FindMisplaced implements driving.Filer.
func (s *FilingService) FindMisplaced(ctx context.Context) ([]domain.MisplacedFile, error) {
	logger.Section("Misplaced scan")

	folders, err := s.patientFolders(ctx)
	if err != nil {
		return nil, err
	}
	resolver := NewPatientFolderResolver(folders)

	var misplaced []domain.MisplacedFile
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return misplaced, err
		}

		entries, err := s.list(ctx, path.Join(s.cfg.PatientsPath, folder))
		if err != nil {
			logger.Warn("skipping %s: %v", folder, err)
			continue
		}

		for _, e := range entries {
			if e.IsFolder || !isPDF(e.Name) {
				continue
			}
			patient := ExtractPatientName(e.Name)
			res, ok, err := resolver.Lookup(patient)
			if err != nil || !ok || res.Ambiguous {
				continue
			}
			if res.Target != folder {
				misplaced = append(misplaced, domain.MisplacedFile{
					Path:           e.Path,
					CurrentFolder:  folder,
					ExpectedFolder: res.Target,
					PatientName:    patient,
				})
			}
		}
	}

	return misplaced, nil
}

// FixMisplaced implements driving.Filer.
func (s *FilingService) FixMisplaced(ctx context.Context, files []domain.MisplacedFile) (*domain.FilingSummary, error) {
	summary := &domain.FilingSummary{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		name := path.Base(f.Path)
		r := domain.FilingResult{File: name, Folder: f.ExpectedFolder}
		dest := path.Join(s.cfg.PatientsPath, f.ExpectedFolder, name)

		if err := s.move(ctx, f.Path, dest); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				r.Skipped = true
			} else {
				r.Err = err.Error()
			}
		} else {
			logger.Info("moved %s from %s to %s", name, f.CurrentFolder, f.ExpectedFolder)
		}
		addFiling(summary, r)
	}
	return summary, nil
}

var filenameDate = regexp.MustCompile(`(\d{1,2})_(\d{1,2})_(\d{4})`)

// Inventory implements driving.Filer.
func (s *FilingService) Inventory(ctx context.Context) ([]domain.InventoryRow, error) {
	var rows []domain.InventoryRow

	inbox, err := s.list(ctx, s.cfg.InboxPath)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	for _, e := range inbox {
		if !e.IsFolder && isPDF(e.Name) {
			rows = append(rows, inventoryRow(ExtractPatientName(e.Name), e))
		}
	}

	folders, err := s.patientFolders(ctx)
	if err != nil {
		return nil, err
	}
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := s.list(ctx, path.Join(s.cfg.PatientsPath, folder))
		if err != nil {
			logger.Warn("skipping %s: %v", folder, err)
			continue
		}
		for _, e := range entries {
			if !e.IsFolder && isPDF(e.Name) {
				rows = append(rows, inventoryRow(folder, e))
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ci, cj := strings.ToLower(rows[i].ClientName), strings.ToLower(rows[j].ClientName)
		if ci != cj {
			return ci < cj
		}
		return rows[i].Filename < rows[j].Filename
	})
	return rows, nil
}

func inventoryRow(client string, e domain.ArchiveEntry) domain.InventoryRow {
	var date string
	if m := filenameDate.FindStringSubmatch(e.Name); m != nil {
		date = fmt.Sprintf("%s/%s/%s", strings.TrimLeft(m[1], "0"), strings.TrimLeft(m[2], "0"), m[3])
	}
	return domain.InventoryRow{
		ClientName: client,
		Date:       date,
		Filename:   e.Name,
		SizeKB:     math.Round(float64(e.Size)/1024*100) / 100,
		Path:       e.Path,
	}
}

func (s *FilingService) list(ctx context.Context, dir string) ([]domain.ArchiveEntry, error) {
	entries, err := RetryValue(ctx, s.cfg.Retry, "list archive",
		func(ctx context.Context) ([]domain.ArchiveEntry, error) {
			return s.archive.List(ctx, dir)
		})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	return entries, nil
}

// patientFolders lists folder names under the patients path, skipping
// hidden entries.
func (s *FilingService) patientFolders(ctx context.Context) ([]string, error) {
	entries, err := s.list(ctx, s.cfg.PatientsPath)
	if err != nil {
		return nil, err
	}
	var folders []string
	for _, e := range entries {
		if !e.IsFolder || strings.HasPrefix(e.Name, ".") {
			continue
		}
		folders = append(folders, e.Name)
	}
	return folders, nil
}

func isPDF(name string) bool {
	return strings.EqualFold(path.Ext(name), ".pdf")
}
