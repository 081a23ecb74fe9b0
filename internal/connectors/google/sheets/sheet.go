// Package sheets reads the appointment sheet and publishes inventories
// through the Google Sheets API.
package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/sheets/v4"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/google"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/tabular"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// DefaultInventorySheet is the tab the archive inventory is written to.
const DefaultInventorySheet = "SOAP Notes in Dropbox"

// Config locates the spreadsheet.
type Config struct {
	SpreadsheetID  string
	SheetName      string
	Columns        tabular.Columns
	InventorySheet string
}

// Sheet implements driven.AppointmentSheet and driven.InventoryWriter.
type Sheet struct {
	svc     *sheets.Service
	limiter *google.RateLimiter
	cfg     Config
}

var (
	_ driven.AppointmentSheet = (*Sheet)(nil)
	_ driven.InventoryWriter  = (*Sheet)(nil)
)

// New creates a Sheets adapter.
func New(svc *sheets.Service, cfg Config) (*Sheet, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: spreadsheet id is required", domain.ErrConfigInvalid)
	}
	if cfg.Columns == (tabular.Columns{}) {
		cfg.Columns = tabular.DefaultColumns()
	}
	if err := cfg.Columns.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}
	if cfg.InventorySheet == "" {
		cfg.InventorySheet = DefaultInventorySheet
	}
	return &Sheet{
		svc:     svc,
		limiter: google.NewRateLimiter(google.ServiceSheets),
		cfg:     cfg,
	}, nil
}

// ReadAppointments implements driven.AppointmentSheet.
func (s *Sheet) ReadAppointments(ctx context.Context, startRow int) ([]domain.AppointmentRecord, error) {
	rng := s.readRange(startRow)

	var vr *sheets.ValueRange
	err := s.limiter.Do(ctx, func() error {
		var err error
		vr, err = s.svc.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, rng).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	records := Records(vr.Values, startRow, s.cfg.Columns)
	logger.L().Debug("read appointment sheet", zap.String("range", rng), zap.Int("rows", len(records)))
	return records, nil
}

// WriteNote implements driven.AppointmentSheet.
func (s *Sheet) WriteNote(ctx context.Context, row int, note string) error {
	cell := tabular.A1(s.cfg.SheetName, s.cfg.Columns.Note, row)
	vr := &sheets.ValueRange{Values: [][]any{{note}}}

	err := s.limiter.Do(ctx, func() error {
		_, err := s.svc.Spreadsheets.Values.Update(s.cfg.SpreadsheetID, cell, vr).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", cell, err)
	}
	return nil
}

// WriteInventory implements driven.InventoryWriter. The inventory tab is
// created when missing and cleared before writing.
func (s *Sheet) WriteInventory(ctx context.Context, rows []domain.InventoryRow) error {
	tab := s.cfg.InventorySheet
	if err := s.ensureTab(ctx, tab); err != nil {
		return err
	}

	err := s.limiter.Do(ctx, func() error {
		_, err := s.svc.Spreadsheets.Values.Clear(s.cfg.SpreadsheetID, tabular.QuoteSheet(tab), &sheets.ClearValuesRequest{}).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("clear %s: %w", tab, err)
	}

	vr := &sheets.ValueRange{Values: InventoryValues(rows)}
	err = s.limiter.Do(ctx, func() error {
		_, err := s.svc.Spreadsheets.Values.Update(s.cfg.SpreadsheetID, tabular.A1(tab, "A", 1), vr).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", tab, err)
	}

	logger.L().Info("inventory written", zap.String("sheet", tab), zap.Int("rows", len(rows)))
	return nil
}

func (s *Sheet) ensureTab(ctx context.Context, tab string) error {
	var ss *sheets.Spreadsheet
	err := s.limiter.Do(ctx, func() error {
		var err error
		ss, err = s.svc.Spreadsheets.Get(s.cfg.SpreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
		AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: tab}},
	}}}
	err = s.limiter.Do(ctx, func() error {
		_, err := s.svc.Spreadsheets.BatchUpdate(s.cfg.SpreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("add sheet %s: %w", tab, err)
	}
	return nil
}

func (s *Sheet) readRange(startRow int) string {
	if startRow < 1 {
		startRow = 1
	}
	return fmt.Sprintf("%s:%s", tabular.A1(s.cfg.SheetName, "A", startRow), s.cfg.Columns.LastColumn())
}

// Records converts a values response starting at startRow into
// appointment records.
func Records(values [][]any, startRow int, cols tabular.Columns) []domain.AppointmentRecord {
	out := make([]domain.AppointmentRecord, 0, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		out = append(out, cols.Record(startRow+i, cells))
	}
	return out
}

// InventoryValues renders the inventory with its header row.
func InventoryValues(rows []domain.InventoryRow) [][]any {
	header := make([]any, len(tabular.InventoryHeader))
	for i, h := range tabular.InventoryHeader {
		header[i] = h
	}
	values := [][]any{header}
	for _, r := range rows {
		values = append(values, tabular.InventoryRow(r))
	}
	return values
}
