package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

func TestReportCmd_Use(t *testing.T) {
	assert.Equal(t, "report [run-id]", reportCmd.Use)
	assert.Equal(t, "Show a stored extraction report", reportCmd.Short)
}

func TestReportCmd(t *testing.T) {
	older := sampleSnapshot()
	older.RunID = "run-0"
	older.Summary.Extracted = 7

	tests := []struct {
		name     string
		reports  *mockReports
		args     []string
		contains string
	}{
		{
			name:     "latest",
			reports:  &mockReports{latest: sampleSnapshot()},
			args:     []string{"report"},
			contains: "Run: run-1",
		},
		{
			name:     "by id",
			reports:  &mockReports{byID: map[string]*domain.ReportSnapshot{"run-0": older}},
			args:     []string{"report", "run-0"},
			contains: "Notes extracted:       7",
		},
		{
			name:     "nothing stored",
			reports:  &mockReports{},
			args:     []string{"report"},
			contains: "No report found.",
		},
		{
			name:     "unknown id",
			reports:  &mockReports{},
			args:     []string{"report", "missing"},
			contains: "No report found.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCLITest(t, &Services{Reports: tt.reports})

			out, err := execute(t, tt.args...)

			require.NoError(t, err)
			assert.Contains(t, out, tt.contains)
		})
	}
}

func TestReportCmd_List(t *testing.T) {
	m := &mockReports{runs: []domain.RunRecord{{
		RunID:     "run-9",
		StartedAt: time.Date(2025, 6, 7, 6, 0, 0, 0, time.UTC),
		Summary:   domain.Summary{Extracted: 12, NoNoteFound: 3},
	}}}
	setupCLITest(t, &Services{Reports: m})

	out, err := execute(t, "report", "--list", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, m.limit)
	assert.Contains(t, out, "run-9  2025-06-07 06:00  extracted=12 missing=3")
}

func TestReportCmd_ListEmpty(t *testing.T) {
	setupCLITest(t, &Services{Reports: &mockReports{}})

	out, err := execute(t, "report", "--list", "3")

	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}
