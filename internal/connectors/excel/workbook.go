// Package excel reads the appointment sheet from, and writes inventories
// to, local .xlsx workbooks. It serves practices that keep their
// appointment sheet as a synced Excel file rather than a Google Sheet.
package excel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/tabular"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// Config locates the appointment workbook.
type Config struct {
	Path string

	// SheetName defaults to the first sheet in the workbook.
	SheetName string

	Columns tabular.Columns
}

// Workbook implements driven.AppointmentSheet on an .xlsx file. The file
// is opened for every call so edits made between runs are picked up.
type Workbook struct {
	cfg Config
	mu  sync.Mutex
}

var _ driven.AppointmentSheet = (*Workbook)(nil)

// New creates a workbook adapter. The file must already exist.
func New(cfg Config) (*Workbook, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: workbook path is required", domain.ErrConfigInvalid)
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("%w: workbook: %v", domain.ErrConfigInvalid, err)
	}
	if cfg.Columns == (tabular.Columns{}) {
		cfg.Columns = tabular.DefaultColumns()
	}
	if err := cfg.Columns.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}
	return &Workbook{cfg: cfg}, nil
}

// ReadAppointments implements driven.AppointmentSheet.
func (w *Workbook) ReadAppointments(ctx context.Context, startRow int) ([]domain.AppointmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if startRow < 1 {
		startRow = 1
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, sheet, err := w.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheet, err)
	}

	var out []domain.AppointmentRecord
	for i := startRow - 1; i < len(rows); i++ {
		out = append(out, w.cfg.Columns.Record(i+1, rows[i]))
	}
	logger.L().Debug("read appointment workbook",
		zap.String("path", w.cfg.Path), zap.String("sheet", sheet), zap.Int("rows", len(out)))
	return out, nil
}

// WriteNote implements driven.AppointmentSheet.
func (w *Workbook) WriteNote(ctx context.Context, row int, note string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, sheet, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	cell := tabular.A1("", w.cfg.Columns.Note, row)
	if err := f.SetCellValue(sheet, cell, note); err != nil {
		return fmt.Errorf("write %s: %w", cell, err)
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save %s: %w", w.cfg.Path, err)
	}
	return nil
}

func (w *Workbook) open() (*excelize.File, string, error) {
	f, err := excelize.OpenFile(w.cfg.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("open workbook: %w: %v", domain.ErrNotFound, err)
		}
		return nil, "", fmt.Errorf("open workbook: %w", err)
	}

	sheet := w.cfg.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		_ = f.Close()
		return nil, "", fmt.Errorf("%w: sheet %q in %s", domain.ErrNotFound, sheet, w.cfg.Path)
	}
	return f, sheet, nil
}
