package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/adapters/driven/config/file"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/adapters/driven/oauth"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/adapters/driven/storage/memory"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/adapters/driven/storage/sqlite"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/adapters/driving/cli"
	consent "github.com/floatandcalm-cmd/soap-notes-extractor/internal/adapters/driving/oauth"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/dropbox"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/excel"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/filesystem"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/google"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/google/docs"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/google/drive"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/google/gmail"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/google/sheets"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/connectors/mail"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/domain"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driving"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/services"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// loadServices builds every service from the config file at path.
func loadServices(ctx context.Context, path string) (*cli.Services, error) {
	cfg, err := file.Load(path)
	if err != nil {
		return nil, err
	}
	logger.L().Debug("config loaded",
		zap.String("path", path),
		zap.String("archive", cfg.Archive.Backend),
		zap.String("notify", cfg.Notify.Backend),
		zap.String("store", cfg.Store.Backend),
		zap.String("matching", cfg.Matching.Strategy))

	provider, err := tokenProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ts := google.NewTokenSource(ctx, provider)

	driveSvc, err := google.NewDriveService(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	docsSvc, err := google.NewDocsService(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("docs service: %w", err)
	}
	driveClient := drive.New(driveSvc, drive.Config{
		NotesFolder:      cfg.Drive.NotesFolder,
		SignaturesFolder: cfg.Drive.SignaturesFolder,
		PageSize:         cfg.Drive.PageSize,
	})
	documents := docs.New(driveClient, docsSvc)

	sheet, inventory, err := appointmentSheet(ctx, cfg, ts)
	if err != nil {
		return nil, err
	}

	runs, schedStore, closeStore, err := stores(cfg)
	if err != nil {
		return nil, err
	}

	notifier, err := reportNotifier(ctx, cfg, ts)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	dir, err := cfg.Directory()
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	retry := services.DefaultRetryPolicy()

	exact := services.NewExactStrategy(driveClient, cfg.Drive.SearchConcurrency, retry)
	var strategy services.MatchStrategy = exact
	if cfg.Matching.Strategy == "fuzzy" {
		strategy = services.NewFuzzyStrategy(exact, driveClient, services.FuzzyConfig{
			Threshold:        cfg.Matching.Threshold,
			TokenThreshold:   cfg.Matching.TokenThreshold,
			PreferredKeyword: cfg.Matching.PreferredKeyword,
			Deprioritised:    cfg.Matching.Deprioritised,
			MaxResults:       cfg.Matching.MaxResults,
		}, retry)
	}

	extraction := services.DefaultExtractionConfig()
	extraction.StartRow = cfg.Sheet.StartRow
	extraction.LookbackDays = cfg.Sheet.LookbackDays
	extraction.Location = cfg.Location()
	extraction.NotifyRetry.Attempts = cfg.Notify.Attempts
	extraction.NotifyRetry.Delay = time.Duration(cfg.Notify.DelaySeconds) * time.Second

	extractor := services.NewExtractionService(
		sheet, services.NewDocumentLocator(strategy), driveClient, runs, notifier, extraction)

	signer := services.NewSigningService(documents, driveClient, services.NewClinicianAttributor(dir, 0),
		services.SigningConfig{
			Pace:  time.Duration(cfg.Drive.SignPaceMillis) * time.Millisecond,
			Retry: retry,
		})

	archive, local, err := patientArchive(cfg)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	var filer driving.Filer
	var watch func(ctx context.Context) error
	if archive != nil {
		filing := services.NewFilingService(archive, documents, driveClient, services.FilingConfig{
			InboxPath:    cfg.Archive.InboxPath,
			PatientsPath: cfg.Archive.PatientsPath,
			Retry:        retry,
		})
		filer = filing
		if local != nil {
			watch = inboxWatcher(local.Local(cfg.Archive.InboxPath), filing)
		}
	}

	workflow := services.NewWorkflowService(extractor, signer, filer)
	scheduler, err := services.NewScheduler(cfg.Schedule.Cron, schedStore, workflow)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	return &cli.Services{
		Extractor: extractor,
		Reports:   services.NewReportService(runs),
		Signer:    signer,
		Filer:     filer,
		Workflow:  workflow,
		Scheduler: scheduler,
		Inventory: inventory,
		InventoryFile: func(path string) driven.InventoryWriter {
			return excel.NewInventoryFile(path, excel.DefaultInventorySheet)
		},
		Watch: watch,
		Close: closeStore,
	}, nil
}

func tokenProvider(ctx context.Context, cfg *file.Config) (*oauth.TokenProvider, error) {
	if cfg.Google.ServiceAccountKey != "" {
		return oauth.NewServiceAccountProvider(ctx, cfg.Google.ServiceAccountKey, google.Scopes)
	}
	client, err := oauth.ClientConfig(cfg.Google.CredentialsFile, google.Scopes)
	if err != nil {
		return nil, err
	}
	provider, err := oauth.NewUserTokenProvider(ctx, client, cfg.Google.TokenFile)
	if errors.Is(err, domain.ErrAuthRequired) {
		return nil, fmt.Errorf("%w: run `soapnotes auth` first", err)
	}
	return provider, err
}

// appointmentSheet returns the sheet adapter and the inventory writer
// that shares its workbook.
func appointmentSheet(ctx context.Context, cfg *file.Config, ts oauth2.TokenSource) (driven.AppointmentSheet, driven.InventoryWriter, error) {
	if cfg.Sheet.XLSXPath != "" {
		wb, err := excel.New(excel.Config{
			Path:      cfg.Sheet.XLSXPath,
			SheetName: cfg.Sheet.Name,
			Columns:   cfg.Sheet.Columns,
		})
		if err != nil {
			return nil, nil, err
		}
		return wb, excel.NewInventoryFile(cfg.Sheet.XLSXPath, cfg.Sheet.Inventory), nil
	}

	svc, err := google.NewSheetsService(ctx, ts)
	if err != nil {
		return nil, nil, fmt.Errorf("sheets service: %w", err)
	}
	s, err := sheets.New(svc, sheets.Config{
		SpreadsheetID:  cfg.Sheet.SpreadsheetID,
		SheetName:      cfg.Sheet.Name,
		Columns:        cfg.Sheet.Columns,
		InventorySheet: cfg.Sheet.Inventory,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}

func stores(cfg *file.Config) (driven.RunStore, driven.SchedulerStore, func() error, error) {
	if cfg.Store.Backend == "memory" {
		return memory.NewRunStore(), memory.NewSchedulerStore(), func() error { return nil }, nil
	}
	store, err := sqlite.NewStore(cfg.Store.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}
	return store.RunStore(), store.SchedulerStore(), store.Close, nil
}

func reportNotifier(ctx context.Context, cfg *file.Config, ts oauth2.TokenSource) (driven.Notifier, error) {
	n := cfg.Notify
	switch n.Backend {
	case "smtp":
		return mail.New(mail.Config{
			Host:     n.Host,
			Port:     n.Port,
			Username: n.Username,
			Password: n.Password,
			From:     n.From,
			To:       n.To,
		})
	case "gmail":
		svc, err := google.NewGmailService(ctx, ts)
		if err != nil {
			return nil, fmt.Errorf("gmail service: %w", err)
		}
		return gmail.New(svc, n.From, n.To)
	}
	return nil, nil
}

// patientArchive opens the configured archive. local is set when the
// archive is a directory on this machine.
func patientArchive(cfg *file.Config) (driven.Archive, *filesystem.Archive, error) {
	switch cfg.Archive.Backend {
	case "dropbox":
		a, err := dropbox.New(cfg.Archive.DropboxToken)
		if err != nil {
			return nil, nil, err
		}
		return a, nil, nil
	case "local":
		a, err := filesystem.New(cfg.Archive.Root)
		if err != nil {
			return nil, nil, err
		}
		return a, a, nil
	}
	return nil, nil, nil
}

func inboxWatcher(dir string, filer driving.Filer) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		w := filesystem.NewInboxWatcher(dir, func(ctx context.Context) {
			s, err := filer.Organize(ctx, false)
			if err != nil {
				logger.Error("organise inbox: %v", err)
				return
			}
			logger.Info("filed %d notes (%d skipped, %d errors)", s.Moved, s.Skipped, s.Errors)
		})
		return w.Run(ctx)
	}
}

func initConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s (use --force to overwrite)", domain.ErrAlreadyExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return file.Default().Save(path)
}

func showConfig(path string, w io.Writer) error {
	cfg, err := file.Read(path)
	if err != nil {
		return err
	}
	if cfg.Notify.Password != "" {
		cfg.Notify.Password = "********"
	}
	if cfg.Archive.DropboxToken != "" {
		cfg.Archive.DropboxToken = "********"
	}
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "\n# %v\n", err)
	}
	return nil
}

func authorize(ctx context.Context, path string, manual bool, in io.Reader, out io.Writer) error {
	cfg, err := file.Read(path)
	if err != nil {
		return err
	}
	client, err := oauth.ClientConfig(cfg.Google.CredentialsFile, google.Scopes)
	if err != nil {
		return err
	}
	if manual {
		return oauth.Authorize(ctx, client, cfg.Google.TokenFile, in, out)
	}

	tok, err := consent.Consent(ctx, client, out, true)
	if err != nil {
		return err
	}
	if err := oauth.SaveToken(cfg.Google.TokenFile, tok); err != nil {
		return err
	}
	fmt.Fprintf(out, "Token saved to %s\n", cfg.Google.TokenFile)
	return nil
}
