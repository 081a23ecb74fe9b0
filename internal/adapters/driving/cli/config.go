package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a default configuration file",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipLoad: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if bootstrap.InitConfig == nil {
			return errors.New("configuration not available")
		}
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		if err := bootstrap.InitConfig(path, configForce); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		cmd.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective configuration",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipLoad: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if bootstrap.ShowConfig == nil {
			return errors.New("configuration not available")
		}
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		return bootstrap.ShowConfig(path, cmd.OutOrStdout())
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
