package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

const minimalConfig = `
[sheet]
spreadsheet_id = "sheet-123"

[archive]
backend = "local"
root = "/srv/dropbox/Team"

[notify]
to = ["owner@example.com"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, 2, c.Sheet.StartRow)
	assert.Equal(t, 60, c.Sheet.LookbackDays)
	assert.Equal(t, "P", c.Sheet.Columns.Note)
	assert.Equal(t, "soap notes for vets", c.Drive.NotesFolder)
	assert.Equal(t, "exact", c.Matching.Strategy)
	assert.Equal(t, []string{"float", "facial"}, c.Matching.Deprioritised)
	assert.Equal(t, "/Soap Notes", c.Archive.InboxPath)
	assert.Equal(t, "/Veterans soap", c.Archive.PatientsPath)
	assert.Equal(t, "gmail", c.Notify.Backend)
	assert.Equal(t, "0 6 * * *", c.Schedule.Cron)
}

func TestLoad_Minimal(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", c.Sheet.SpreadsheetID)
	assert.Equal(t, 2, c.Sheet.StartRow)
	assert.Equal(t, "local", c.Archive.Backend)
	assert.Equal(t, []string{"owner@example.com"}, c.Notify.To)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "credentials.json"), c.Google.CredentialsFile)
	assert.Equal(t, filepath.Join(dir, "soapnotes.db"), c.Store.Path)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
[matching]
strategy = "fuzzy"
threshold = 0.85

[sheet.columns]
note = "Q"

[schedule]
cron = "30 5 * * 1-5"
timezone = "UTC"
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fuzzy", c.Matching.Strategy)
	assert.InDelta(t, 0.85, c.Matching.Threshold, 1e-9)
	assert.InDelta(t, 0.8, c.Matching.TokenThreshold, 1e-9)
	assert.Equal(t, "Q", c.Sheet.Columns.Note)
	assert.Equal(t, "A", c.Sheet.Columns.Date)
	assert.Equal(t, "30 5 * * 1-5", c.Schedule.Cron)
	assert.Equal(t, "UTC", c.Location().String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDropboxToken, "dbx-token")
	t.Setenv(EnvSMTPPassword, "secret")
	path := writeConfig(t, `
[sheet]
spreadsheet_id = "sheet-123"

[notify]
backend = "smtp"
host = "smtp.example.com"
from = "clinic@example.com"
to = ["owner@example.com"]
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dropbox", c.Archive.Backend)
	assert.Equal(t, "dbx-token", c.Archive.DropboxToken)
	assert.Equal(t, "secret", c.Notify.Password)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no sheet", "[archive]\nbackend = \"none\"\n[notify]\nbackend = \"none\"\n"},
		{"bad strategy", minimalConfig + "[matching]\nstrategy = \"nearest\"\n"},
		{"local archive without root", "[sheet]\nspreadsheet_id = \"s\"\n[archive]\nbackend = \"local\"\n[notify]\nbackend = \"none\"\n"},
		{"bad recipient", "[sheet]\nspreadsheet_id = \"s\"\n[archive]\nbackend = \"none\"\n[notify]\nto = [\"not-an-address\"]\n"},
		{"bad column", minimalConfig + "[sheet.columns]\nnote = \"P1\"\n"},
		{"clinician without alias", minimalConfig + "[[clinicians]]\nname = \"Jo Bloggs\"\nlicense = \"1\"\n"},
		{"bad toml", "[sheet\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, domain.ErrConfigInvalid)
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvDropboxToken, "")
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestRead_SkipsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[google]\ncredentials_file = \"client.json\"\n"), 0o600))

	c, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "client.json"), c.Google.CredentialsFile)
	assert.Empty(t, c.Sheet.SpreadsheetID)
}

func TestDirectory(t *testing.T) {
	t.Run("default roster", func(t *testing.T) {
		dir, err := Default().Directory()
		require.NoError(t, err)

		rec, ok := dir.Lookup("CS")
		require.True(t, ok)
		assert.Equal(t, domain.ClinicianRecord{Name: "Catie Stevens", License: "1962211730", SignatureAsset: "Catie.jpg"}, rec)

		aliases := dir.Aliases()
		assert.Equal(t, "GH", aliases[0].Alias)
		assert.Equal(t, "Gemma", aliases[1].Alias)
		assert.Len(t, dir.Clinicians(), 10)
	})

	t.Run("configured clinicians", func(t *testing.T) {
		c, err := Load(writeConfig(t, minimalConfig+`
[[clinicians]]
name = "Jo Bloggs"
license = "123"
signature = "Jo.png"
aliases = ["JB", "Jo"]
`))
		require.NoError(t, err)

		dir, err := c.Directory()
		require.NoError(t, err)
		assert.Equal(t, 2, dir.Len())
		_, ok := dir.Lookup("CS")
		assert.False(t, ok)
	})

	t.Run("duplicate alias", func(t *testing.T) {
		c := Default()
		c.Clinicians = []ClinicianConfig{
			{Name: "A", License: "1", Aliases: []string{"X"}},
			{Name: "B", License: "2", Aliases: []string{"X"}},
		}
		_, err := c.Directory()
		assert.ErrorIs(t, err, domain.ErrConfigInvalid)
	})
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	c := Default()
	c.Sheet.SpreadsheetID = "sheet-123"
	c.Archive.Backend = "none"
	c.Notify.Backend = "none"

	require.NoError(t, c.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sheet-123", loaded.Sheet.SpreadsheetID)
	assert.Equal(t, c.Matching, loaded.Matching)
}
