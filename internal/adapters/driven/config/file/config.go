package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/tabular"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
)

// Environment variables that override secrets in the file.
const (
	EnvSMTPPassword = "SOAPNOTES_SMTP_PASSWORD"
	EnvDropboxToken = "SOAPNOTES_DROPBOX_TOKEN"
	EnvConfigPath   = "SOAPNOTES_CONFIG"
)

// Config is the full soapnotes configuration.
type Config struct {
	Google     GoogleConfig      `toml:"google"`
	Sheet      SheetConfig       `toml:"sheet"`
	Drive      DriveConfig       `toml:"drive"`
	Matching   MatchingConfig    `toml:"matching"`
	Archive    ArchiveConfig     `toml:"archive"`
	Notify     NotifyConfig      `toml:"notify"`
	Clinicians []ClinicianConfig `toml:"clinicians" validate:"dive"`
	Schedule   ScheduleConfig    `toml:"schedule"`
	Store      StoreConfig       `toml:"store"`
}

// GoogleConfig holds Google API credentials. Either an OAuth client
// (credentials_file plus token_file) or a service account key is used.
type GoogleConfig struct {
	CredentialsFile   string `toml:"credentials_file" default:"credentials.json"`
	TokenFile         string `toml:"token_file" default:"token.json"`
	ServiceAccountKey string `toml:"service_account_key"`
}

// SheetConfig locates the appointment sheet.
type SheetConfig struct {
	SpreadsheetID string          `toml:"spreadsheet_id" validate:"required_without=XLSXPath"`
	Name          string          `toml:"name"`
	XLSXPath      string          `toml:"xlsx_path"`
	StartRow      int             `toml:"start_row" default:"2" validate:"min=2"`
	LookbackDays  int             `toml:"lookback_days" default:"60" validate:"min=0"`
	Columns       tabular.Columns `toml:"columns"`
	Inventory     string          `toml:"inventory_sheet" default:"SOAP Notes in Dropbox"`
}

// DriveConfig tunes document store access.
type DriveConfig struct {
	NotesFolder       string `toml:"notes_folder" default:"soap notes for vets"`
	SignaturesFolder  string `toml:"signatures_folder" default:"signatures"`
	SearchConcurrency int    `toml:"search_concurrency" default:"3" validate:"min=1,max=10"`
	PageSize          int64  `toml:"page_size" default:"100" validate:"min=1,max=1000"`
	SignPaceMillis    int    `toml:"sign_pace_ms" default:"1000" validate:"min=0"`
}

// MatchingConfig selects how patient documents are located.
type MatchingConfig struct {
	Strategy         string   `toml:"strategy" default:"exact" validate:"oneof=exact fuzzy"`
	Threshold        float64  `toml:"threshold" default:"0.9" validate:"gt=0,lte=1"`
	TokenThreshold   float64  `toml:"token_threshold" default:"0.8" validate:"gt=0,lte=1"`
	PreferredKeyword string   `toml:"preferred_keyword" default:"massage"`
	Deprioritised    []string `toml:"deprioritised" default:"[\"float\",\"facial\"]"`
	MaxResults       int      `toml:"max_results" default:"5" validate:"min=1"`
}

// ArchiveConfig selects the patient archive.
type ArchiveConfig struct {
	Backend      string `toml:"backend" default:"dropbox" validate:"oneof=local dropbox none"`
	Root         string `toml:"root" validate:"required_if=Backend local"`
	DropboxToken string `toml:"dropbox_token" validate:"required_if=Backend dropbox"`
	InboxPath    string `toml:"inbox_path" default:"/Soap Notes"`
	PatientsPath string `toml:"patients_path" default:"/Veterans soap"`
}

// NotifyConfig selects how run reports are delivered.
type NotifyConfig struct {
	Backend      string   `toml:"backend" default:"gmail" validate:"oneof=smtp gmail none"`
	Host         string   `toml:"host" validate:"required_if=Backend smtp"`
	Port         int      `toml:"port" default:"587" validate:"min=1,max=65535"`
	Username     string   `toml:"username"`
	Password     string   `toml:"password"`
	From         string   `toml:"from" validate:"omitempty,email"`
	To           []string `toml:"to" validate:"required_unless=Backend none,dive,email"`
	Attempts     int      `toml:"attempts" default:"3" validate:"min=1"`
	DelaySeconds int      `toml:"delay_seconds" default:"5" validate:"min=0"`
}

// ClinicianConfig is one clinician and the shorthands used for them in notes.
type ClinicianConfig struct {
	Name      string   `toml:"name" validate:"required"`
	License   string   `toml:"license" validate:"required"`
	Signature string   `toml:"signature"`
	Aliases   []string `toml:"aliases" validate:"min=1,dive,required"`
}

// ScheduleConfig configures the daily workflow.
type ScheduleConfig struct {
	Cron     string `toml:"cron" default:"0 6 * * *"`
	Timezone string `toml:"timezone"`
}

// StoreConfig selects run persistence.
type StoreConfig struct {
	Backend string `toml:"backend" default:"sqlite" validate:"oneof=sqlite memory"`
	Path    string `toml:"path"`
}

// DefaultDir returns ~/.soapnotes.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".soapnotes"), nil
}

// DefaultPath returns the config file location: $SOAPNOTES_CONFIG or
// ~/.soapnotes/config.toml.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	// Tags are static, so Set cannot fail.
	_ = defaults.Set(c)
	return c
}

// Load reads the file at path and validates it. A missing file yields the
// defaults, which then fail validation unless the environment supplies
// what is required.
func Load(path string) (*Config, error) {
	c, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Read is Load without validation, for commands that must run before the
// configuration is complete. Relative file references are resolved
// against the file's directory.
func Read(path string) (*Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrConfigInvalid, path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Fill fields the file left empty.
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	c.applyEnv()
	c.resolvePaths(filepath.Dir(path))
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSMTPPassword); v != "" {
		c.Notify.Password = v
	}
	if v := os.Getenv(EnvDropboxToken); v != "" {
		c.Archive.DropboxToken = v
	}
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{
		&c.Google.CredentialsFile, &c.Google.TokenFile, &c.Google.ServiceAccountKey,
		&c.Sheet.XLSXPath, &c.Store.Path,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(base, "soapnotes.db")
	}
}

// Validate checks the configuration, reporting every failed field.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", domain.ErrConfigInvalid, strings.Join(msgs, "; "))
	}
	if err := c.Sheet.Columns.Validate(); err != nil {
		return fmt.Errorf("%w: sheet: %v", domain.ErrConfigInvalid, err)
	}
	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			return fmt.Errorf("%w: schedule timezone: %v", domain.ErrConfigInvalid, err)
		}
	}
	return nil
}

// Location returns the practice time zone, time.Local when unset.
func (c *Config) Location() *time.Location {
	if c.Schedule.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Directory builds the clinician directory. Without configured
// clinicians the practice roster is used.
func (c *Config) Directory() (*domain.ClinicianDirectory, error) {
	clinicians := c.Clinicians
	if len(clinicians) == 0 {
		clinicians = DefaultClinicians()
	}

	var aliases []domain.ClinicianAlias
	for _, cl := range clinicians {
		rec := domain.ClinicianRecord{Name: cl.Name, License: cl.License, SignatureAsset: cl.Signature}
		for _, a := range cl.Aliases {
			aliases = append(aliases, domain.ClinicianAlias{Alias: a, Clinician: rec})
		}
	}
	dir, err := domain.NewClinicianDirectory(aliases)
	if err != nil {
		return nil, fmt.Errorf("%w: clinicians: %v", domain.ErrConfigInvalid, err)
	}
	return dir, nil
}

// Save writes c to path with owner-only permissions, since it may hold
// secrets.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// DefaultClinicians is the practice roster. Aliases are listed in
// priority order.
func DefaultClinicians() []ClinicianConfig {
	return []ClinicianConfig{
		{Name: "Gemma Hernandez", License: "1336958990", Signature: "Gemma.png", Aliases: []string{"GH", "Gemma"}},
		{Name: "Catie Stevens", License: "1962211730", Signature: "Catie.jpg", Aliases: []string{"CS", "Catie"}},
		{Name: "Lili Gutierrez", License: "1982482113", Signature: "Lili.jpeg", Aliases: []string{"LG", "Lili"}},
		{Name: "Paula Reyes", License: "1831950021", Signature: "Paula.png", Aliases: []string{"Paula", "PR", "paula"}},
		{Name: "Brittany Coy", License: "1477395093", Signature: "Brittany.jpeg", Aliases: []string{"Brittany"}},
		{Name: "Marco Martinez", License: "1750191185", Signature: "Marco.png", Aliases: []string{"MM", "Marco"}},
		{Name: "Robert Martinez", License: "1396554432", Signature: "Robert.png", Aliases: []string{"RM", "Robert"}},
		{Name: "Alan Infante", License: "1932999778", Signature: "Alan.png", Aliases: []string{"Alan"}},
		{Name: "Julia Flores", License: "1427930429", Signature: "Julia.png", Aliases: []string{"JF", "Julia"}},
		{Name: "Bianca Ingram", License: "1770466443", Signature: "Bianca.png", Aliases: []string{"BI", "Bianca"}},
	}
}
