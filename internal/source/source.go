// Package source defines the adapter-neutral model of an external content
// source: its schema, its records, and the capability set every adapter
// implements for the sync engine.
package source

import (
	"context"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/settings"
)

// Kind is a source property's declared type tag. Each adapter owns its own
// kind vocabulary; the engine never interprets kinds directly, only through
// the adapter's conversion table.
type Kind string

// Option is one choice of an enumeration property.
type Option struct {
	ID   string
	Name string
}

// Property is one column/field of the source schema, immutable for the
// duration of one sync.
type Property struct {
	ID   string
	Name string
	Kind Kind

	// Result is the resolved result of a computed property (formula,
	// rollup, lookup); nil for plain properties.
	Result *Property

	// Options is the case list of enumeration properties.
	Options []Option

	// Formatting hints carried by some properties.
	Precision      int    // currency decimal places
	Symbol         string // currency symbol prefix
	DurationFormat string // duration display format
	Reversed       bool   // attachment order is reversed
}

// Record is one raw source record. Values are the decoded wire values keyed
// by property id; their concrete shape is adapter-specific.
type Record struct {
	ID      string
	Locator string // url or row reference used in status entries
	Values  map[string]any

	// LastEdited is the source's last-edited timestamp (ISO 8601) when the
	// source tracks one; empty otherwise.
	LastEdited string
}

// Schema is a snapshot of the source's schema.
type Schema struct {
	ID         string
	Name       string
	Properties []Property
}

// Source is the uniform capability set the engine consumes per adapter.
type Source interface {
	// Name identifies the adapter ("notion", "airtable", "sheets").
	Name() string

	// FetchSchema retrieves the source schema snapshot.
	FetchSchema(ctx context.Context) (*Schema, error)

	// FetchRecords retrieves all records of the schema, following
	// pagination to completion.
	FetchRecords(ctx context.Context, schemaID string) ([]Record, error)

	// ConversionTypes returns the ordered destination types the property
	// can produce; the first entry is the default. An empty list marks the
	// property unsupported.
	ConversionTypes(p Property) []cms.FieldType

	// EffectiveKind resolves computed-property indirection: a computed
	// property's apparent kind is the kind of its resolved result.
	EffectiveKind(p Property) Kind

	// Convert projects one raw value to the chosen destination type under
	// the given settings. A nil result means the value is absent.
	Convert(p Property, raw any, dest cms.FieldType, st settings.Settings) any

	// Field builds the destination field descriptor for a property mapped
	// to the given type (enum case lists, file type allow-lists).
	Field(p Property, name string, dest cms.FieldType, st settings.Settings) cms.Field

	// DetectFieldType inspects sampled records and suggests a destination
	// type (and settings) for the property. ok is false when the samples
	// give no signal.
	DetectFieldType(p Property, records []Record) (t cms.FieldType, st settings.Settings, ok bool)

	// SlugKinds returns the property kinds usable as slug sources, in
	// display preference order.
	SlugKinds() []Kind

	// KindDisplayName renders a property's kind for human-facing listings,
	// resolving computed indirection ("Formula (Number)").
	KindDisplayName(p Property) string
}

// PageField describes one field synthesized from document-level metadata.
// Types is the ordered list of destination types it can map to; the first
// entry is the default.
type PageField struct {
	ID    string
	Name  string
	Types []cms.FieldType
}

// PageLevelSource is implemented by adapters that synthesize fields from
// document-level metadata (body content, cover image, icon) rather than
// literal columns.
type PageLevelSource interface {
	// PageFields lists the synthesized fields.
	PageFields() []PageField

	// IsPageLevelFieldID reports whether a field id names a synthesized
	// field.
	IsPageLevelFieldID(id string) bool

	// PageFieldAuto inspects sampled records and suggests a destination
	// type for the field; disabled reports that no sampled record carries
	// the metadata at all.
	PageFieldAuto(id string, records []Record) (t cms.FieldType, disabled bool)

	// PageValues resolves the synthesized values for one record. want
	// returns the mapped destination field for an id, if enabled.
	// skipContent suppresses the (expensive) body content fetch.
	PageValues(ctx context.Context, rec Record, want func(id string) (cms.Field, bool), skipContent bool) (map[string]any, error)
}
