// Package config handles global csync configuration.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/aidanlsb/collectionsync/internal/atomicfile"
)

// Config represents one sync setup: which source to pull from, where the
// destination collection lives, and where the field mapping document is.
type Config struct {
	// Source selects the adapter: "notion", "airtable", or "sheets".
	Source string `toml:"source"`

	// Collection is the path of the destination collection database.
	Collection string `toml:"collection"`

	// Mapping is the path of the YAML field-mapping document. Empty means
	// the default mapping (everything enabled, default types).
	Mapping string `toml:"mapping"`

	Notion   NotionConfig   `toml:"notion"`
	Airtable AirtableConfig `toml:"airtable"`
	Sheets   SheetsConfig   `toml:"sheets"`
}

// NotionConfig identifies a Notion database.
type NotionConfig struct {
	DatabaseID string `toml:"database_id"`
}

// AirtableConfig identifies an Airtable table.
type AirtableConfig struct {
	BaseID  string `toml:"base_id"`
	TableID string `toml:"table_id"`
}

// SheetsConfig identifies one sheet of a Google spreadsheet.
type SheetsConfig struct {
	SpreadsheetID string `toml:"spreadsheet_id"`
	SheetID       string `toml:"sheet_id"`
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	if dir := os.Getenv("CSYNC_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "config.toml")
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(configDir, "csync", "config.toml")
}

// Load loads the configuration from the default location. Returns an empty
// config if the file doesn't exist.
func Load() (*Config, error) {
	path := DefaultPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &config, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks that the config names a known source with its required ids.
func (c *Config) Validate() error {
	switch c.Source {
	case "notion":
		if c.Notion.DatabaseID == "" {
			return fmt.Errorf("notion.database_id is required")
		}
	case "airtable":
		if c.Airtable.BaseID == "" || c.Airtable.TableID == "" {
			return fmt.Errorf("airtable.base_id and airtable.table_id are required")
		}
	case "sheets":
		if c.Sheets.SpreadsheetID == "" || c.Sheets.SheetID == "" {
			return fmt.Errorf("sheets.spreadsheet_id and sheets.sheet_id are required")
		}
	case "":
		return fmt.Errorf("no source configured")
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if c.Collection == "" {
		return fmt.Errorf("collection path is required")
	}
	return nil
}

// tokenEnvVars maps each source to the environment variable holding its API
// token.
var tokenEnvVars = map[string]string{
	"notion":   "NOTION_TOKEN",
	"airtable": "AIRTABLE_TOKEN",
	"sheets":   "SHEETS_TOKEN",
}

// Token returns the API token for the configured source. A .env file in the
// working directory is loaded first; real environment variables win over it.
func (c *Config) Token() (string, error) {
	// Ignore a missing .env; the environment may carry the token directly.
	_ = godotenv.Load()

	envVar, ok := tokenEnvVars[c.Source]
	if !ok {
		return "", fmt.Errorf("unknown source %q", c.Source)
	}
	token := os.Getenv(envVar)
	if token == "" {
		return "", fmt.Errorf("%s is not set", envVar)
	}
	return token, nil
}
