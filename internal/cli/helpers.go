package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/cms/sqlitestore"
	"github.com/aidanlsb/collectionsync/internal/config"
	"github.com/aidanlsb/collectionsync/internal/mapping"
	"github.com/aidanlsb/collectionsync/internal/settings"
	"github.com/aidanlsb/collectionsync/internal/source"
	"github.com/aidanlsb/collectionsync/internal/source/airtable"
	"github.com/aidanlsb/collectionsync/internal/source/notion"
	"github.com/aidanlsb/collectionsync/internal/source/sheets"
	"github.com/aidanlsb/collectionsync/internal/syncer"
)

// openSource builds the configured source adapter with its API token.
func openSource(cfg *config.Config) (source.Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	token, err := cfg.Token()
	if err != nil {
		return nil, err
	}

	switch cfg.Source {
	case "notion":
		return notion.New(cfg.Notion.DatabaseID, token), nil
	case "airtable":
		return airtable.New(cfg.Airtable.BaseID, cfg.Airtable.TableID, token), nil
	case "sheets":
		return sheets.New(cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetID, token), nil
	}
	return nil, fmt.Errorf("unknown source %q", cfg.Source)
}

// openCollection opens the destination collection database.
func openCollection(cfg *config.Config) (*sqlitestore.Store, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("collection path is required")
	}
	return sqlitestore.Open(cfg.Collection)
}

// loadMappingDoc reads the user's mapping document, or an empty one when no
// path is configured.
func loadMappingDoc(cfg *config.Config) (*mapping.Mapping, error) {
	if cfg.Mapping == "" {
		return &mapping.Mapping{}, nil
	}
	return mapping.Load(cfg.Mapping)
}

// persistedFieldSettings reads the per-field settings saved by the previous
// sync. Missing or malformed bookkeeping yields nil; the defaults cover it.
func persistedFieldSettings(ctx context.Context, col cms.Collection) map[string]settings.Settings {
	raw, err := col.PluginData(ctx, syncer.KeyFieldSettings)
	if err != nil || raw == "" {
		return nil
	}
	var out map[string]settings.Settings
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
