package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/collectionsync/internal/mapping"
	"github.com/aidanlsb/collectionsync/internal/source"
	"github.com/aidanlsb/collectionsync/internal/syncer"
	"github.com/aidanlsb/collectionsync/internal/ui"
)

var syncFull bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a full synchronization pass",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src, err := openSource(cfg)
		if err != nil {
			return err
		}
		col, err := openCollection(cfg)
		if err != nil {
			return err
		}
		defer col.Close()

		sess := source.NewSession(src)
		schema, err := src.FetchSchema(ctx)
		if err != nil {
			return fmt.Errorf("fetch schema: %w", err)
		}

		existing, err := col.Fields(ctx)
		if err != nil {
			return err
		}
		doc, err := loadMappingDoc(cfg)
		if err != nil {
			return err
		}

		isUpdate := len(existing) > 0
		if isUpdate && mapping.ConfigurationChanged(src, schema, existing, doc.Disabled) {
			log.Warn("field configuration changed since the last sync; the collection schema will be rewritten")
		}
		if syncFull {
			// Clearing the sync timestamp forces page content to refetch.
			if err := col.SetPluginData(ctx, syncer.KeyLastSyncedTime, ""); err != nil {
				return err
			}
		}

		configs, err := mapping.Build(ctx, sess, schema, existing, doc.Disabled, isUpdate)
		if err != nil {
			return fmt.Errorf("build field configuration: %w", err)
		}
		plan, err := mapping.ResolvePlan(src, configs, doc, persistedFieldSettings(ctx, col))
		if err != nil {
			return err
		}

		result, err := syncer.New(src, col, log).Synchronize(ctx, sess, schema, plan)
		if result != nil {
			count := 0
			if ids, idsErr := col.ItemIDs(ctx); idsErr == nil {
				count = len(ids)
			}
			ui.RenderResult(os.Stdout, result, count)
		}
		return err
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "Refetch everything, including unchanged page content")
	rootCmd.AddCommand(syncCmd)
}
