package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var authManual bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorise access to Google Drive, Docs, Sheets and Gmail",
	Long: `Opens the Google consent page in a browser and stores the resulting
token in the configured token file. With --manual, prints the consent URL
and reads the authorisation code from standard input instead.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipLoad: "true"},
	RunE:        runAuth,
}

func init() {
	authCmd.Flags().BoolVar(&authManual, "manual", false, "paste the authorisation code instead of using a browser callback")
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, _ []string) error {
	if bootstrap.Authorize == nil {
		return errors.New("authorisation not configured")
	}
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if err := bootstrap.Authorize(cmd.Context(), path, authManual, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
		return err
	}
	cmd.Println("Authorisation saved.")
	return nil
}
