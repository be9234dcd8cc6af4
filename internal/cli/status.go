package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/collectionsync/internal/syncer"
	"github.com/aidanlsb/collectionsync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the collection's sync bookkeeping",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		col, err := openCollection(cfg)
		if err != nil {
			return err
		}
		defer col.Close()

		name, err := col.PluginData(ctx, syncer.KeyDatabaseName)
		if err != nil {
			return err
		}
		integration, err := col.PluginData(ctx, syncer.KeyIntegrationID)
		if err != nil {
			return err
		}
		lastSynced, err := col.PluginData(ctx, syncer.KeyLastSyncedTime)
		if err != nil {
			return err
		}
		slugField, err := col.PluginData(ctx, syncer.KeySlugFieldID)
		if err != nil {
			return err
		}
		ids, err := col.ItemIDs(ctx)
		if err != nil {
			return err
		}
		fields, err := col.Fields(ctx)
		if err != nil {
			return err
		}

		if lastSynced == "" {
			fmt.Println(ui.Info("Never synced"))
			return nil
		}

		fmt.Printf("%s %s\n", ui.Header("Source:"), sourceLabel(integration, name))
		fmt.Printf("%s %s\n", ui.Header("Last synced:"), lastSynced)
		fmt.Printf("%s %s\n", ui.Header("Slug field:"), ui.Identifier(slugField))
		fmt.Printf("%s %d items, %d fields\n", ui.Header("Contents:"), len(ids), len(fields))
		ui.RenderFields(cmd.OutOrStdout(), fields)
		return nil
	},
}

func sourceLabel(integration, name string) string {
	if name == "" {
		return integration
	}
	return fmt.Sprintf("%s (%s)", name, integration)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
