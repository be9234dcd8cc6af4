package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	original := &Config{
		Source:     "notion",
		Collection: "site.db",
		Mapping:    "mapping.yaml",
		Notion:     NotionConfig{DatabaseID: "db123"},
	}
	if err := original.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Source != "notion" || loaded.Notion.DatabaseID != "db123" || loaded.Collection != "site.db" {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CSYNC_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source != "" {
		t.Fatalf("missing config should load empty, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid notion", Config{Source: "notion", Collection: "c.db", Notion: NotionConfig{DatabaseID: "db1"}}, false},
		{"valid airtable", Config{Source: "airtable", Collection: "c.db", Airtable: AirtableConfig{BaseID: "app1", TableID: "tbl1"}}, false},
		{"valid sheets", Config{Source: "sheets", Collection: "c.db", Sheets: SheetsConfig{SpreadsheetID: "s1", SheetID: "0"}}, false},
		{"no source", Config{Collection: "c.db"}, true},
		{"unknown source", Config{Source: "rss", Collection: "c.db"}, true},
		{"notion without database", Config{Source: "notion", Collection: "c.db"}, true},
		{"airtable without table", Config{Source: "airtable", Collection: "c.db", Airtable: AirtableConfig{BaseID: "app1"}}, true},
		{"no collection", Config{Source: "notion", Notion: NotionConfig{DatabaseID: "db1"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestToken(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "secret")

	cfg := &Config{Source: "notion"}
	token, err := cfg.Token()
	if err != nil {
		t.Fatal(err)
	}
	if token != "secret" {
		t.Fatalf("got %q", token)
	}

	os.Unsetenv("NOTION_TOKEN")
	if _, err := cfg.Token(); err == nil {
		t.Fatal("expected an error when the token is unset")
	}
}
