package notion

import (
	"reflect"
	"testing"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/settings"
	"github.com/aidanlsb/collectionsync/internal/source"
)

func prop(kind string, value any) map[string]any {
	return map[string]any{"id": "prop1", "type": kind, kind: value}
}

func span(text string) map[string]any {
	return map[string]any{"plain_text": text, "annotations": map[string]any{"color": "default"}}
}

func TestConvertScalars(t *testing.T) {
	src := New("db1", "")
	st := settings.Defaults()

	tests := []struct {
		name string
		raw  map[string]any
		dest cms.FieldType
		want any
	}{
		{"checkbox", prop("checkbox", true), cms.TypeBoolean, true},
		{"number", prop("number", 4.5), cms.TypeNumber, 4.5},
		{"url", prop("url", "https://x.io"), cms.TypeLink, "https://x.io"},
		{"email", prop("email", "a@b.c"), cms.TypeString, "a@b.c"},
		{"title", prop("title", []any{span("Hello "), span("world")}), cms.TypeString, "Hello world"},
		{"created time", prop("created_time", "2024-04-26T10:00:00Z"), cms.TypeDate, "2024-04-26"},
		{"date", prop("date", map[string]any{"start": "2024-04-26T10:00:00Z"}), cms.TypeDate, "2024-04-26"},
		{"empty date", prop("date", nil), cms.TypeDate, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := src.Convert(source.Property{}, tt.raw, tt.dest, st); got != tt.want {
				t.Fatalf("Convert = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertSelect(t *testing.T) {
	src := New("db1", "")
	st := settings.Defaults()

	set := prop("select", map[string]any{"id": "o1", "name": "Red"})
	if got := src.Convert(source.Property{}, set, cms.TypeEnum, st); got != "o1" {
		t.Fatalf("select as enum = %v", got)
	}
	if got := src.Convert(source.Property{}, set, cms.TypeString, st); got != "Red" {
		t.Fatalf("select as string = %v", got)
	}

	// An unset select maps to the sentinel case, not to nothing.
	unset := prop("select", nil)
	if got := src.Convert(source.Property{}, unset, cms.TypeEnum, st); got != cms.NoneOptionID {
		t.Fatalf("unset select = %v, want sentinel", got)
	}
	if got := src.Convert(source.Property{}, unset, cms.TypeString, st); got != nil {
		t.Fatalf("unset select as string = %v", got)
	}

	// Unset status yields nothing; it has no sentinel case.
	if got := src.Convert(source.Property{}, prop("status", nil), cms.TypeEnum, st); got != nil {
		t.Fatalf("unset status = %v", got)
	}
}

func TestConvertMultiSelect(t *testing.T) {
	src := New("db1", "")
	raw := prop("multi_select", []any{
		map[string]any{"id": "o1", "name": "A"},
		map[string]any{"id": "o2", "name": "B"},
	})

	got := src.Convert(source.Property{}, raw, cms.TypeEnum, settings.Defaults())
	if !reflect.DeepEqual(got, []any{"o1", "o2"}) {
		t.Fatalf("multi-select fan-out = %v", got)
	}

	single := settings.Defaults().With(settings.KeyMultipleFields, false)
	if got := src.Convert(source.Property{}, raw, cms.TypeString, single); got != "A" {
		t.Fatalf("multi-select first name = %v", got)
	}
}

func TestConvertRichText(t *testing.T) {
	src := New("db1", "")
	bold := map[string]any{
		"plain_text":  "bold",
		"annotations": map[string]any{"bold": true, "color": "default"},
	}
	raw := prop("rich_text", []any{span("plain "), bold})

	got := src.Convert(source.Property{}, raw, cms.TypeFormattedText, settings.Defaults())
	if got != "<p>plain <strong>bold</strong></p>" {
		t.Fatalf("default format = %v", got)
	}

	asHTML := settings.Defaults().With(settings.KeyDefaultFormat, "html")
	if got := src.Convert(source.Property{}, raw, cms.TypeFormattedText, asHTML); got != "plain bold" {
		t.Fatalf("html format = %v", got)
	}

	if got := src.Convert(source.Property{}, raw, cms.TypeString, settings.Defaults()); got != "plain bold" {
		t.Fatalf("plain text = %v", got)
	}

	empty := prop("rich_text", []any{})
	if got := src.Convert(source.Property{}, empty, cms.TypeFormattedText, settings.Defaults()); got != nil {
		t.Fatalf("empty rich text = %v", got)
	}
}

func TestConvertFormula(t *testing.T) {
	src := New("db1", "")
	st := settings.Defaults()

	number := prop("formula", map[string]any{"type": "number", "number": 42.0})
	if got := src.Convert(source.Property{}, number, cms.TypeNumber, st); got != 42.0 {
		t.Fatalf("formula number = %v", got)
	}
	if got := src.Convert(source.Property{}, number, cms.TypeString, st); got != "42" {
		t.Fatalf("formula number as string = %v", got)
	}

	// A non-date result cannot produce a date.
	if got := src.Convert(source.Property{}, number, cms.TypeDate, st); got != nil {
		t.Fatalf("formula number as date = %v", got)
	}

	date := prop("formula", map[string]any{
		"type": "date",
		"date": map[string]any{"start": "2024-04-26T10:00:00Z"},
	})
	if got := src.Convert(source.Property{}, date, cms.TypeDate, st); got != "2024-04-26" {
		t.Fatalf("formula date = %v", got)
	}

	boolean := prop("formula", map[string]any{"type": "boolean", "boolean": true})
	if got := src.Convert(source.Property{}, boolean, cms.TypeBoolean, st); got != true {
		t.Fatalf("formula boolean = %v", got)
	}
}

func TestConvertRollup(t *testing.T) {
	src := New("db1", "")
	st := settings.Defaults()

	number := prop("rollup", map[string]any{"type": "number", "number": 7.0})
	if got := src.Convert(source.Property{}, number, cms.TypeNumber, st); got != 7.0 {
		t.Fatalf("rollup number = %v", got)
	}

	// Array rollups resolve through their first element.
	array := prop("rollup", map[string]any{
		"type":  "array",
		"array": []any{prop("title", []any{span("First")}), prop("title", []any{span("Second")})},
	})
	if got := src.Convert(source.Property{}, array, cms.TypeString, st); got != "First" {
		t.Fatalf("rollup array = %v", got)
	}

	empty := prop("rollup", map[string]any{"type": "array", "array": []any{}})
	if got := src.Convert(source.Property{}, empty, cms.TypeString, st); got != nil {
		t.Fatalf("empty rollup array = %v", got)
	}
}

func TestConvertFiles(t *testing.T) {
	src := New("db1", "")
	raw := prop("files", []any{
		map[string]any{"type": "file", "file": map[string]any{"url": "https://x.io/a.pdf"}},
		map[string]any{"type": "external", "external": map[string]any{"url": "https://x.io/b.pdf"}},
	})

	got := src.Convert(source.Property{}, raw, cms.TypeFile, settings.Defaults())
	if !reflect.DeepEqual(got, []any{"https://x.io/a.pdf", "https://x.io/b.pdf"}) {
		t.Fatalf("files fan-out = %v", got)
	}

	single := settings.Defaults().With(settings.KeyMultipleFields, false)
	if got := src.Convert(source.Property{}, raw, cms.TypeFile, single); got != "https://x.io/a.pdf" {
		t.Fatalf("first file = %v", got)
	}
}

func TestConvertUniqueID(t *testing.T) {
	src := New("db1", "")
	st := settings.Defaults()

	prefixed := prop("unique_id", map[string]any{"prefix": "TASK", "number": 12.0})
	if got := src.Convert(source.Property{}, prefixed, cms.TypeString, st); got != "TASK-12" {
		t.Fatalf("prefixed id = %v", got)
	}
	if got := src.Convert(source.Property{}, prefixed, cms.TypeNumber, st); got != 12.0 {
		t.Fatalf("id as number = %v", got)
	}

	bare := prop("unique_id", map[string]any{"prefix": nil, "number": 12.0})
	if got := src.Convert(source.Property{}, bare, cms.TypeString, st); got != "12" {
		t.Fatalf("bare id = %v", got)
	}
}

func TestFieldCases(t *testing.T) {
	src := New("db1", "")
	options := []source.Option{{ID: "o1", Name: "A"}}

	sel := src.Field(source.Property{ID: "p1", Kind: kindSelect, Options: options}, "Pick", cms.TypeEnum, settings.Defaults())
	if len(sel.Cases) != 2 || sel.Cases[0].ID != cms.NoneOptionID {
		t.Fatalf("select cases = %v", sel.Cases)
	}

	status := src.Field(source.Property{ID: "p2", Kind: kindStatus, Options: options}, "State", cms.TypeEnum, settings.Defaults())
	if len(status.Cases) != 1 || status.Cases[0].ID != "o1" {
		t.Fatalf("status cases = %v", status.Cases)
	}
}

func TestConversionTypesAndSlugKinds(t *testing.T) {
	src := New("db1", "")

	if got := src.ConversionTypes(source.Property{Kind: kindTitle}); len(got) != 1 || got[0] != cms.TypeString {
		t.Fatalf("title conversion types = %v", got)
	}
	if got := src.ConversionTypes(source.Property{Kind: kindRelation}); len(got) != 0 {
		t.Fatalf("relation should be unsupported, got %v", got)
	}
	if got := src.SlugKinds(); got[0] != kindTitle {
		t.Fatalf("slug kinds = %v", got)
	}
}
