// Package cms defines the destination collection model: fields, items, and
// the Collection interface the sync engine writes through.
package cms

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// FieldType is the destination type tag of a collection field.
type FieldType string

const (
	TypeBoolean       FieldType = "boolean"
	TypeString        FieldType = "string"
	TypeNumber        FieldType = "number"
	TypeDate          FieldType = "date"
	TypeLink          FieldType = "link"
	TypeImage         FieldType = "image"
	TypeFile          FieldType = "file"
	TypeEnum          FieldType = "enum"
	TypeFormattedText FieldType = "formattedText"
	TypeColor         FieldType = "color"
)

// NoneOptionID is the synthetic enum case used whenever no real option can be
// resolved. It must never collide with a real option id.
const NoneOptionID = "##NONE##"

// EnumCase is one selectable case of an enum field.
type EnumCase struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Field is one field of the destination collection schema.
type Field struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Type FieldType `json:"type"`

	// Cases is the case list for enum fields.
	Cases []EnumCase `json:"cases,omitempty"`
	// AllowedFileTypes restricts file fields to the listed extensions.
	AllowedFileTypes []string `json:"allowedFileTypes,omitempty"`
}

// Item is one destination collection item.
type Item struct {
	ID        string         `json:"id"`
	Slug      string         `json:"slug"`
	FieldData map[string]any `json:"fieldData"`
}

// Collection is the destination collaborator. Implementations own storage,
// transport, and auth; the engine only issues CRUD and bookkeeping calls.
type Collection interface {
	Fields(ctx context.Context) ([]Field, error)
	SetFields(ctx context.Context, fields []Field) error
	ItemIDs(ctx context.Context) ([]string, error)
	RemoveItems(ctx context.Context, ids []string) error
	AddItems(ctx context.Context, items []Item) error
	PluginData(ctx context.Context, key string) (string, error)
	SetPluginData(ctx context.Context, key, value string) error
}

// DefaultValue returns the backfill value for a field type. The destination
// never receives an undefined value; gaps are filled with these.
func DefaultValue(t FieldType) any {
	switch t {
	case TypeEnum:
		return NoneOptionID
	case TypeNumber:
		return float64(0)
	case TypeBoolean:
		return false
	case TypeDate:
		return nil
	default:
		return ""
	}
}

var arrayFieldIDPattern = regexp.MustCompile(`-\[\[\d+\]\]$`)

// ArrayFieldID returns the physical field id for slot i of an array-expanded
// logical field.
func ArrayFieldID(fieldID string, i int) string {
	return fmt.Sprintf("%s-[[%d]]", fieldID, i)
}

// ArrayFieldName returns the display name for slot i of an array-expanded
// logical field. Slots are numbered from 1.
func ArrayFieldName(name string, i int) string {
	return fmt.Sprintf("%s %d", name, i+1)
}

// IsArrayFieldID reports whether id carries an array slot suffix.
func IsArrayFieldID(id string) bool {
	return arrayFieldIDPattern.MatchString(id)
}

// LogicalFieldID strips the array slot suffix, if present.
func LogicalFieldID(id string) string {
	last := strings.LastIndex(id, "-[[")
	if last == -1 {
		return id
	}
	return id[:last]
}

// FieldsByID indexes fields by their logical id, collapsing array-expanded
// siblings back to one logical field. The slot number is dropped from the id
// and the trailing " N" from the name.
func FieldsByID(fields []Field) map[string]Field {
	byID := make(map[string]Field, len(fields))
	for _, field := range fields {
		if IsArrayFieldID(field.ID) {
			logical := field
			logical.ID = LogicalFieldID(field.ID)
			logical.Name = trimLastWord(field.Name)
			byID[logical.ID] = logical
		} else {
			byID[field.ID] = field
		}
	}
	return byID
}

func trimLastWord(s string) string {
	last := strings.LastIndex(s, " ")
	if last == -1 {
		return s
	}
	return s[:last]
}
