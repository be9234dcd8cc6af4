package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/collectionsync/internal/mapping"
	"github.com/aidanlsb/collectionsync/internal/source"
	"github.com/aidanlsb/collectionsync/internal/ui"
)

var fieldsWritePath string

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the source's fields and how they would import",
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

		configs, err := mapping.Build(ctx, sess, schema, existing, doc.Disabled, len(existing) > 0)
		if err != nil {
			return fmt.Errorf("build field configuration: %w", err)
		}

		slugFieldID := doc.SlugField
		if slugFieldID == "" {
			if candidates := mapping.PossibleSlugFields(src, configs); len(candidates) > 0 {
				slugFieldID = candidates[0].Property.ID
			}
		}

		ui.RenderFieldConfigs(os.Stdout, src, configs, slugFieldID)

		if fieldsWritePath != "" {
			if err := writeMappingDoc(fieldsWritePath, configs, slugFieldID, doc); err != nil {
				return err
			}
			fmt.Println(ui.Successf("Wrote mapping to %s", fieldsWritePath))
		}
		return nil
	},
}

// writeMappingDoc emits a mapping document seeded with every supported field
// at its default type, for the user to edit.
func writeMappingDoc(path string, configs []mapping.FieldConfig, slugFieldID string, doc *mapping.Mapping) error {
	out := &mapping.Mapping{
		SlugField: slugFieldID,
		Disabled:  doc.Disabled,
	}
	for _, cfg := range configs {
		if cfg.Unsupported || cfg.AutoDisabled {
			continue
		}
		dest := cfg.ConversionTypes[0]
		if cfg.AutoType != "" {
			dest = cfg.AutoType
		}
		out.Rules = append(out.Rules, mapping.FieldRule{
			Field: cfg.Property.ID,
			Name:  cfg.Name,
			Type:  dest,
		})
	}
	return out.Save(path)
}

func init() {
	fieldsCmd.Flags().StringVar(&fieldsWritePath, "write", "", "Write a mapping document seeded with the defaults")
	rootCmd.AddCommand(fieldsCmd)
}
