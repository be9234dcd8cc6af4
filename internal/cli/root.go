// Package cli implements the command-line interface.
package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/collectionsync/internal/config"
	"github.com/aidanlsb/collectionsync/internal/logging"
)

var (
	// Global flags
	configPathFlag string
	verbose        bool

	// Resolved values
	cfg *config.Config
	log *logrus.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "csync",
	Short: "Sync external content sources into a local collection",
	Long: `csync synchronizes records from an external content source (a Notion
database, an Airtable table, or a Google Sheets worksheet) into a local
collection, reconciling schema differences and applying per-field mappings.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logging.New(verbose)

		// Commands that work without a config file
		switch cmd.Name() {
		case "init", "version", "help", "completion":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		var err error
		if configPathFlag != "" {
			cfg, err = config.LoadFrom(configPathFlag)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug output")
}
