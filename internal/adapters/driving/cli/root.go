// Package cli provides the soapnotes command line.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driven"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/core/ports/driving"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Services are the application services the commands drive.
type Services struct {
	Extractor driving.Extractor
	Reports   driving.ReportReader
	Signer    driving.Signer
	Filer     driving.Filer
	Workflow  driving.Workflow
	Scheduler driving.Scheduler

	// Inventory writes the inventory to the configured spreadsheet.
	Inventory driven.InventoryWriter

	// InventoryFile returns a writer for a local workbook at path.
	InventoryFile func(path string) driven.InventoryWriter

	// Watch organises the inbox as files arrive until ctx is done. Nil
	// unless the archive is on the local filesystem.
	Watch func(ctx context.Context) error

	Close func() error
}

// Bootstrap builds services from configuration and handles the commands
// that must work before a valid configuration exists.
type Bootstrap struct {
	// DefaultConfigPath is used when --config is not given.
	DefaultConfigPath func() (string, error)

	// Load builds the services from the config file at path.
	Load func(ctx context.Context, path string) (*Services, error)

	// InitConfig writes a default config file to path.
	InitConfig func(path string, force bool) error

	// ShowConfig writes the effective configuration to w.
	ShowConfig func(path string, w io.Writer) error

	// Authorize runs the interactive OAuth consent flow. manual selects
	// the copy-and-paste flow instead of the browser callback.
	Authorize func(ctx context.Context, path string, manual bool, in io.Reader, out io.Writer) error
}

var (
	configPath string
	verbose    bool

	bootstrap Bootstrap

	extractor      driving.Extractor
	reportReader   driving.ReportReader
	signer         driving.Signer
	filer          driving.Filer
	workflow       driving.Workflow
	scheduler      driving.Scheduler
	inventorySheet driven.InventoryWriter
	inventoryFile  func(path string) driven.InventoryWriter
	inboxWatch     func(ctx context.Context) error
	closeServices  func() error
)

// skipLoad marks commands that run without building services.
const skipLoad = "skip-load"

var rootCmd = &cobra.Command{
	Use:   "soapnotes",
	Short: "Extract, sign and file SOAP notes",
	Long: `soapnotes fills the appointment sheet with treatment notes taken from
patient documents, signs finished notes on behalf of the treating
clinician and files exported notes into the patient archive.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadServices,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if closeServices == nil {
			return nil
		}
		err := closeServices()
		closeServices = nil
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.soapnotes/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute(b Bootstrap) error {
	bootstrap = b

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = logger.Sync() }()

	return rootCmd.ExecuteContext(ctx)
}

func loadServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[skipLoad] == "true" || bootstrap.Load == nil {
		return nil
	}

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	svc, err := bootstrap.Load(cmd.Context(), path)
	if err != nil {
		return err
	}
	setServices(svc)
	return nil
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	if bootstrap.DefaultConfigPath == nil {
		return "", errors.New("no config file given")
	}
	return bootstrap.DefaultConfigPath()
}

func setServices(s *Services) {
	extractor = s.Extractor
	reportReader = s.Reports
	signer = s.Signer
	filer = s.Filer
	workflow = s.Workflow
	scheduler = s.Scheduler
	inventorySheet = s.Inventory
	inventoryFile = s.InventoryFile
	inboxWatch = s.Watch
	closeServices = s.Close
}
