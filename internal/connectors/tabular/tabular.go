// Package tabular maps spreadsheet rows to appointment records and
// inventory rows to spreadsheet rows. The Google Sheets and Excel
// connectors share it.
package tabular

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// Columns names the spreadsheet column letter of each appointment field.
type Columns struct {
	Date      string `toml:"date" default:"A"`
	ClaimDate string `toml:"claim_date" default:"B"`
	Clinician string `toml:"clinician" default:"D"`
	Patient   string `toml:"patient" default:"F"`
	Note      string `toml:"note" default:"P"`
}

// DefaultColumns is the practice's appointment sheet layout.
func DefaultColumns() Columns {
	return Columns{Date: "A", ClaimDate: "B", Clinician: "D", Patient: "F", Note: "P"}
}

// Validate checks every column is a letter reference.
func (c Columns) Validate() error {
	for name, col := range map[string]string{
		"date": c.Date, "claim_date": c.ClaimDate, "clinician": c.Clinician,
		"patient": c.Patient, "note": c.Note,
	} {
		if _, err := ColumnIndex(col); err != nil {
			return fmt.Errorf("column %s: %w", name, err)
		}
	}
	return nil
}

// LastColumn returns the right-most referenced column letter.
func (c Columns) LastColumn() string {
	last, lastIdx := c.Date, -1
	for _, col := range []string{c.Date, c.ClaimDate, c.Clinician, c.Patient, c.Note} {
		if i, err := ColumnIndex(col); err == nil && i > lastIdx {
			last, lastIdx = strings.ToUpper(col), i
		}
	}
	return last
}

// ColumnIndex converts a column letter reference ("A", "P", "AB") to a
// zero-based index.
func ColumnIndex(col string) (int, error) {
	col = strings.ToUpper(strings.TrimSpace(col))
	if col == "" {
		return 0, fmt.Errorf("%w: empty column", domain.ErrInvalidInput)
	}
	n := 0
	for _, r := range col {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("%w: column %q", domain.ErrInvalidInput, col)
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1, nil
}

// Record maps one sheet row to an appointment. Cells past the end of a
// ragged row read as "".
func (c Columns) Record(row int, cells []string) domain.AppointmentRecord {
	return domain.AppointmentRecord{
		Row:            row,
		Date:           cell(cells, c.Date),
		ClaimDate:      cell(cells, c.ClaimDate),
		ClinicianLabel: cell(cells, c.Clinician),
		PatientName:    cell(cells, c.Patient),
		ExistingNote:   cell(cells, c.Note),
	}
}

func cell(cells []string, col string) string {
	i, err := ColumnIndex(col)
	if err != nil || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// A1 builds an A1 reference, quoting the sheet name when needed.
func A1(sheet, col string, row int) string {
	ref := strings.ToUpper(col)
	if row > 0 {
		ref += strconv.Itoa(row)
	}
	if sheet == "" {
		return ref
	}
	return QuoteSheet(sheet) + "!" + ref
}

// QuoteSheet quotes a sheet name for use in a range.
func QuoteSheet(sheet string) string {
	plain := true
	for _, r := range sheet {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			plain = false
			break
		}
	}
	if plain {
		return sheet
	}
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// InventoryHeader is the header row of an inventory table.
var InventoryHeader = []string{"Client Name", "Date", "Filename", "File Size (KB)", "Path"}

// InventoryRow renders an inventory row as cells in InventoryHeader order.
func InventoryRow(r domain.InventoryRow) []any {
	return []any{r.ClientName, r.Date, r.Filename, r.SizeKB, r.Path}
}
