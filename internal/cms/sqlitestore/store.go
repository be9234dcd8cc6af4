// Package sqlitestore implements cms.Collection on a local SQLite database.
// It is the concrete destination the CLI syncs into; the engine itself only
// sees the cms.Collection interface.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/aidanlsb/collectionsync/internal/cms"
)

// Store is a SQLite-backed destination collection.
type Store struct {
	db *sql.DB
}

// Open opens or creates the collection database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create collection directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fields (
		position INTEGER NOT NULL,
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		cases TEXT,
		allowed_file_types TEXT
	);

	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL,
		field_data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_slug ON items(slug);

	CREATE TABLE IF NOT EXISTS plugin_data (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Fields returns the collection's field schema in its stored order.
func (s *Store) Fields(ctx context.Context) ([]cms.Field, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, type, cases, allowed_file_types FROM fields ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer rows.Close()

	var fields []cms.Field
	for rows.Next() {
		var field cms.Field
		var cases, allowed sql.NullString
		if err := rows.Scan(&field.ID, &field.Name, &field.Type, &cases, &allowed); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		if cases.Valid && cases.String != "" {
			if err := json.Unmarshal([]byte(cases.String), &field.Cases); err != nil {
				return nil, fmt.Errorf("failed to decode cases for field %s: %w", field.ID, err)
			}
		}
		if allowed.Valid && allowed.String != "" {
			if err := json.Unmarshal([]byte(allowed.String), &field.AllowedFileTypes); err != nil {
				return nil, fmt.Errorf("failed to decode file types for field %s: %w", field.ID, err)
			}
		}
		fields = append(fields, field)
	}
	return fields, rows.Err()
}

// SetFields replaces the field schema with the given list.
func (s *Store) SetFields(ctx context.Context, fields []cms.Field) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM fields"); err != nil {
		return fmt.Errorf("failed to clear fields: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO fields (position, id, name, type, cases, allowed_file_types) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare field insert: %w", err)
	}
	defer stmt.Close()

	for i, field := range fields {
		var cases, allowed any
		if len(field.Cases) > 0 {
			data, err := json.Marshal(field.Cases)
			if err != nil {
				return fmt.Errorf("failed to encode cases for field %s: %w", field.ID, err)
			}
			cases = string(data)
		}
		if field.AllowedFileTypes != nil {
			data, err := json.Marshal(field.AllowedFileTypes)
			if err != nil {
				return fmt.Errorf("failed to encode file types for field %s: %w", field.ID, err)
			}
			allowed = string(data)
		}
		if _, err := stmt.ExecContext(ctx, i, field.ID, field.Name, string(field.Type), cases, allowed); err != nil {
			return fmt.Errorf("failed to insert field %s: %w", field.ID, err)
		}
	}

	return tx.Commit()
}

// ItemIDs returns the ids of all stored items.
func (s *Store) ItemIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM items ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query item ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RemoveItems deletes the items with the given ids. Unknown ids are ignored.
func (s *Store) RemoveItems(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM items WHERE id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare item delete: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("failed to delete item %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// AddItems inserts or replaces the given items.
func (s *Store) AddItems(ctx context.Context, items []cms.Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (id, slug, field_data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET slug = excluded.slug, field_data = excluded.field_data`)
	if err != nil {
		return fmt.Errorf("failed to prepare item upsert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		data, err := json.Marshal(item.FieldData)
		if err != nil {
			return fmt.Errorf("failed to encode item %s: %w", item.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, item.ID, item.Slug, string(data)); err != nil {
			return fmt.Errorf("failed to upsert item %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}

// Item returns one stored item by id.
func (s *Store) Item(ctx context.Context, id string) (cms.Item, error) {
	var item cms.Item
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, slug, field_data FROM items WHERE id = ?", id).
		Scan(&item.ID, &item.Slug, &data)
	if err != nil {
		return cms.Item{}, fmt.Errorf("failed to load item %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(data), &item.FieldData); err != nil {
		return cms.Item{}, fmt.Errorf("failed to decode item %s: %w", id, err)
	}
	return item, nil
}

// Items returns all stored items ordered by slug.
func (s *Store) Items(ctx context.Context) ([]cms.Item, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, slug, field_data FROM items ORDER BY slug")
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []cms.Item
	for rows.Next() {
		var item cms.Item
		var data string
		if err := rows.Scan(&item.ID, &item.Slug, &data); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &item.FieldData); err != nil {
			return nil, fmt.Errorf("failed to decode item %s: %w", item.ID, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// PluginData returns the bookkeeping value for key, or "" when unset.
func (s *Store) PluginData(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM plugin_data WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load plugin data %s: %w", key, err)
	}
	return value, nil
}

// SetPluginData stores one bookkeeping entry.
func (s *Store) SetPluginData(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plugin_data (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to store plugin data %s: %w", key, err)
	}
	return nil
}
