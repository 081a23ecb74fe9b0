package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign finished notes for the treating clinician",
	Long: `Appends the treating clinician's signature block to every note
document that does not carry one yet. The clinician is identified from
the shorthand in the note text.`,
	Args: cobra.NoArgs,
	RunE: runSign,
}

func init() {
	rootCmd.AddCommand(signCmd)
}

func runSign(cmd *cobra.Command, _ []string) error {
	if signer == nil {
		return errors.New("signing service not configured")
	}

	summary, err := signer.SignPending(cmd.Context())
	if summary != nil {
		renderSigning(cmd.OutOrStdout(), summary)
	}
	if err != nil {
		return fmt.Errorf("signing failed: %w", err)
	}
	return nil
}
