package driven

import (
	"context"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// AppointmentSheet is the practice's appointment spreadsheet.
type AppointmentSheet interface {
	// ReadAppointments returns every row from startRow (1-based) to the
	// end of the sheet. Ragged rows are padded so every field is set.
	ReadAppointments(ctx context.Context, startRow int) ([]domain.AppointmentRecord, error)

	// WriteNote stores note in the note column of the given 1-based row.
	WriteNote(ctx context.Context, row int, note string) error
}
