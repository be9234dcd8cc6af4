package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/collectionsync/internal/config"
	"github.com/aidanlsb/collectionsync/internal/ui"
)

const configTemplate = `# csync configuration
#
# source selects the adapter: "notion", "airtable", or "sheets".
# API tokens come from the environment (or a .env file):
#   NOTION_TOKEN, AIRTABLE_TOKEN, SHEETS_TOKEN

source = "notion"
collection = "collection.db"
# mapping = "mapping.yaml"

[notion]
database_id = ""

[airtable]
base_id = ""
table_id = ""

[sheets]
spreadsheet_id = ""
sheet_id = ""
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPathFlag
		if path == "" {
			path = config.DefaultPath()
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
		}
		if err := os.WriteFile(path, []byte(configTemplate), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Println(ui.Successf("Wrote %s", path))
		fmt.Println(ui.Hint("Edit it to point at your source, then run 'csync fields'."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
