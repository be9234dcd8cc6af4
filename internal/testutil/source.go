// Package testutil provides in-memory fakes for sync engine tests.
package testutil

import (
	"context"
	"fmt"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/settings"
	"github.com/aidanlsb/collectionsync/internal/source"
)

// FakeSource is a configurable in-memory source adapter. The zero value via
// NewFakeSource converts every property to its declared conversion types with
// identity semantics, which keeps engine tests independent of any real
// adapter's conversion rules.
type FakeSource struct {
	SourceName string
	Schema     *source.Schema
	Records    []source.Record
	SchemaErr  error
	RecordsErr error

	// Types maps property kinds to conversion type lists; kinds without an
	// entry are unsupported.
	Types map[source.Kind][]cms.FieldType

	// Slugs lists the kinds usable as slug sources, in preference order.
	Slugs []source.Kind

	// ConvertFn overrides value conversion; the default passes raw through.
	ConvertFn func(p source.Property, raw any, dest cms.FieldType, st settings.Settings) any

	// DetectFn overrides sampling-based type detection; the default gives
	// no signal.
	DetectFn func(p source.Property, records []source.Record) (cms.FieldType, settings.Settings, bool)

	FetchCount int
}

// NewFakeSource creates a fake with a simple kind vocabulary: "text" maps to
// string-first, "number" to number, "flag" to boolean, and "tags" to enum.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		SourceName: "fake",
		Types: map[source.Kind][]cms.FieldType{
			"text":   {cms.TypeString, cms.TypeFormattedText},
			"number": {cms.TypeNumber},
			"flag":   {cms.TypeBoolean},
			"tags":   {cms.TypeEnum, cms.TypeString},
			"link":   {cms.TypeLink},
		},
		Slugs: []source.Kind{"text"},
	}
}

// WithSchema sets the schema the fake serves.
func (f *FakeSource) WithSchema(id, name string, properties ...source.Property) *FakeSource {
	f.Schema = &source.Schema{ID: id, Name: name, Properties: properties}
	return f
}

// WithRecords sets the records the fake serves.
func (f *FakeSource) WithRecords(records ...source.Record) *FakeSource {
	f.Records = records
	return f
}

func (f *FakeSource) Name() string { return f.SourceName }

func (f *FakeSource) FetchSchema(ctx context.Context) (*source.Schema, error) {
	if f.SchemaErr != nil {
		return nil, f.SchemaErr
	}
	if f.Schema == nil {
		return nil, fmt.Errorf("fake source has no schema")
	}
	return f.Schema, nil
}

func (f *FakeSource) FetchRecords(ctx context.Context, schemaID string) ([]source.Record, error) {
	f.FetchCount++
	if f.RecordsErr != nil {
		return nil, f.RecordsErr
	}
	return f.Records, nil
}

func (f *FakeSource) ConversionTypes(p source.Property) []cms.FieldType {
	return f.Types[p.Kind]
}

func (f *FakeSource) EffectiveKind(p source.Property) source.Kind {
	return p.Kind
}

func (f *FakeSource) Convert(p source.Property, raw any, dest cms.FieldType, st settings.Settings) any {
	if f.ConvertFn != nil {
		return f.ConvertFn(p, raw, dest, st)
	}
	return raw
}

func (f *FakeSource) Field(p source.Property, name string, dest cms.FieldType, st settings.Settings) cms.Field {
	field := cms.Field{ID: p.ID, Name: name, Type: dest}
	if dest == cms.TypeEnum {
		field.Cases = []cms.EnumCase{{ID: cms.NoneOptionID, Name: "None"}}
		for _, option := range p.Options {
			field.Cases = append(field.Cases, cms.EnumCase{ID: option.ID, Name: option.Name})
		}
	}
	return field
}

func (f *FakeSource) DetectFieldType(p source.Property, records []source.Record) (cms.FieldType, settings.Settings, bool) {
	if f.DetectFn != nil {
		return f.DetectFn(p, records)
	}
	return "", nil, false
}

func (f *FakeSource) SlugKinds() []source.Kind {
	return f.Slugs
}

func (f *FakeSource) KindDisplayName(p source.Property) string {
	return string(p.Kind)
}
