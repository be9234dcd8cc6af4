package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/mapping"
	"github.com/aidanlsb/collectionsync/internal/source"
	"github.com/aidanlsb/collectionsync/internal/syncer"
)

// RenderResult writes a synchronization result: one summary line, then every
// status entry grouped by severity.
func RenderResult(w io.Writer, result *syncer.Result, itemCount int) {
	switch result.Status {
	case syncer.StatusSuccess:
		fmt.Fprintln(w, Successf("Synced %d items", itemCount))
	case syncer.StatusCompletedWithErrors:
		fmt.Fprintln(w, Warning(fmt.Sprintf("Sync completed %s",
			ErrorWarningCounts(len(result.Errors), len(result.Warnings)))))
	case syncer.StatusError:
		fmt.Fprintln(w, Error("Sync failed"))
	}

	for _, entry := range result.Errors {
		fmt.Fprintln(w, "  "+Error(formatEntry(entry)))
	}
	for _, entry := range result.Warnings {
		fmt.Fprintln(w, "  "+Warning(formatEntry(entry)))
	}
	for _, entry := range result.Info {
		fmt.Fprintln(w, "  "+Info(formatEntry(entry)))
	}
}

func formatEntry(entry syncer.ItemResult) string {
	msg := entry.Message
	if entry.Locator != "" {
		msg += " " + Hint("("+entry.Locator+")")
	}
	return msg
}

// RenderFieldConfigs writes the field mapping table shown by `csync fields`:
// one row per source property with its kind, the destination types it can
// produce, and unsupported/new markers.
func RenderFieldConfigs(w io.Writer, src source.Source, configs []mapping.FieldConfig, slugFieldID string) {
	nameWidth := len("Field")
	for _, cfg := range configs {
		if len(cfg.Name) > nameWidth {
			nameWidth = len(cfg.Name)
		}
	}

	fmt.Fprintf(w, "%-*s  %-20s  %s\n", nameWidth, Header("Field"), Header("Kind"), Header("Imports as"))
	for _, cfg := range configs {
		kind := src.KindDisplayName(cfg.Property)
		if cfg.PageLevel {
			kind = "page"
		}

		var types string
		switch {
		case cfg.Unsupported:
			types = Hint("unsupported")
		default:
			names := make([]string, len(cfg.ConversionTypes))
			for i, t := range cfg.ConversionTypes {
				names[i] = string(t)
			}
			if cfg.AutoType != "" {
				names[0] = string(cfg.AutoType) + " (detected)"
			}
			types = strings.Join(names, ", ")
		}

		name := cfg.Name
		if cfg.Property.ID == slugFieldID {
			name += " *"
		}
		if cfg.IsNew {
			types += " " + Hint("(new)")
		}
		fmt.Fprintf(w, "%-*s  %-20s  %s\n", nameWidth, Identifier(name), kind, types)
	}
}

// RenderFields writes the destination schema currently stored in the
// collection, collapsing array-expanded siblings.
func RenderFields(w io.Writer, fields []cms.Field) {
	byID := cms.FieldsByID(fields)
	seen := make(map[string]bool, len(byID))
	for _, field := range fields {
		logical := cms.LogicalFieldID(field.ID)
		if seen[logical] {
			continue
		}
		seen[logical] = true
		collapsed := byID[logical]
		fmt.Fprintf(w, "%s  %s\n", Identifier(collapsed.Name), Hint(string(collapsed.Type)))
	}
}
