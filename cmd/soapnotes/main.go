// Command soapnotes extracts treatment notes into the appointment sheet,
// signs finished notes and files them into the patient archive.
package main

import (
	"os"

	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/adapters/driven/config/file"
	"github.com/floatandcalm-cmd/soap-notes-extractor/internal/adapters/driving/cli"
)

func main() {
	err := cli.Execute(cli.Bootstrap{
		DefaultConfigPath: file.DefaultPath,
		Load:              loadServices,
		InitConfig:        initConfig,
		ShowConfig:        showConfig,
		Authorize:         authorize,
	})
	if err != nil {
		os.Exit(1)
	}
}
