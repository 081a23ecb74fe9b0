package excel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/tabular"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// DefaultInventorySheet is the tab the inventory is written to.
const DefaultInventorySheet = "Inventory"

// InventoryFile implements driven.InventoryWriter by writing an .xlsx
// workbook. An existing workbook keeps its other sheets.
type InventoryFile struct {
	path  string
	sheet string
}

var _ driven.InventoryWriter = (*InventoryFile)(nil)

// NewInventoryFile creates an inventory writer for path.
func NewInventoryFile(path, sheet string) *InventoryFile {
	if sheet == "" {
		sheet = DefaultInventorySheet
	}
	return &InventoryFile{path: path, sheet: sheet}
}

// WriteInventory implements driven.InventoryWriter.
func (w *InventoryFile) WriteInventory(ctx context.Context, rows []domain.InventoryRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := w.replaceSheet(f); err != nil {
		return err
	}

	header := make([]any, len(tabular.InventoryHeader))
	for i, h := range tabular.InventoryHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(w.sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		cells := tabular.InventoryRow(r)
		if err := f.SetSheetRow(w.sheet, tabular.A1("", "A", i+2), &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	_ = f.SetColWidth(w.sheet, "A", "A", 28)
	_ = f.SetColWidth(w.sheet, "C", "C", 40)
	_ = f.SetColWidth(w.sheet, "E", "E", 60)

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save %s: %w", w.path, err)
	}
	logger.L().Info("inventory written", zap.String("path", w.path), zap.Int("rows", len(rows)))
	return nil
}

func (w *InventoryFile) open() (*excelize.File, error) {
	if _, err := os.Stat(w.path); errors.Is(err, fs.ErrNotExist) {
		f := excelize.NewFile()
		if err := f.SetSheetName(f.GetSheetName(0), w.sheet); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("name sheet: %w", err)
		}
		return f, nil
	}
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", w.path, err)
	}
	return f, nil
}

// replaceSheet leaves an empty sheet named w.sheet in f.
func (w *InventoryFile) replaceSheet(f *excelize.File) error {
	idx, err := f.GetSheetIndex(w.sheet)
	if err != nil {
		return fmt.Errorf("find sheet: %w", err)
	}
	if idx >= 0 {
		rows, err := f.GetRows(w.sheet)
		if err != nil {
			return fmt.Errorf("read sheet: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		// A workbook cannot lose its last sheet, so swap in a fresh one.
		const tmp = "__inventory"
		if _, err := f.NewSheet(tmp); err != nil {
			return fmt.Errorf("add sheet: %w", err)
		}
		if err := f.DeleteSheet(w.sheet); err != nil {
			return fmt.Errorf("delete sheet: %w", err)
		}
		if err := f.SetSheetName(tmp, w.sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	} else if _, err := f.NewSheet(w.sheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	idx, err = f.GetSheetIndex(w.sheet)
	if err != nil {
		return fmt.Errorf("find sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	return nil
}
