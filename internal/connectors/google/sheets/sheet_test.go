package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/tabular"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

func TestRecords(t *testing.T) {
	values := [][]any{
		{"6/6/2025", "6/6", "", "CS", "", "Jane Doe"},
		{},
		{"6/7/2025", nil, "", "LG", "", "Ana Lopez", "", "", "", "", "", "", "", "", "", "existing"},
	}

	recs := Records(values, 2, tabular.DefaultColumns())

	require.Len(t, recs, 3)
	assert.Equal(t, domain.AppointmentRecord{Row: 2, Date: "6/6/2025", ClaimDate: "6/6", ClinicianLabel: "CS", PatientName: "Jane Doe"}, recs[0])
	assert.Equal(t, domain.AppointmentRecord{Row: 3}, recs[1])
	assert.Equal(t, 4, recs[2].Row)
	assert.Empty(t, recs[2].ClaimDate)
	assert.Equal(t, "existing", recs[2].ExistingNote)
}

func TestReadRange(t *testing.T) {
	s, err := New(nil, Config{SpreadsheetID: "id", SheetName: "Sheet1"})
	require.NoError(t, err)
	assert.Equal(t, "Sheet1!A2:P", s.readRange(2))

	s, err = New(nil, Config{SpreadsheetID: "id", SheetName: "Appointments 2025"})
	require.NoError(t, err)
	assert.Equal(t, "'Appointments 2025'!A1:P", s.readRange(0))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Config{})
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)

	cols := tabular.DefaultColumns()
	cols.Patient = "?"
	_, err = New(nil, Config{SpreadsheetID: "id", Columns: cols})
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestInventoryValues(t *testing.T) {
	values := InventoryValues([]domain.InventoryRow{{ClientName: "Jane Doe", Filename: "a.pdf", SizeKB: 2}})

	require.Len(t, values, 2)
	assert.Equal(t, "Client Name", values[0][0])
	assert.Equal(t, "Jane Doe", values[1][0])
	assert.Equal(t, 2.0, values[1][3])
}
