package airtable

import (
	"reflect"
	"testing"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/settings"
	"github.com/aidanlsb/collectionsync/internal/source"
)

func defaults() settings.Settings {
	return settings.Defaults()
}

func TestConvertScalars(t *testing.T) {
	src := New("app1", "tbl1", "")

	tests := []struct {
		name string
		prop source.Property
		raw  any
		dest cms.FieldType
		st   settings.Settings
		want any
	}{
		{"checkbox", source.Property{Kind: kindCheckbox}, true, cms.TypeBoolean, defaults(), true},
		{"number", source.Property{Kind: kindNumber}, 4.5, cms.TypeNumber, defaults(), 4.5},
		{"email", source.Property{Kind: kindEmail}, "a@b.c", cms.TypeString, defaults(), "a@b.c"},
		{"barcode", source.Property{Kind: kindBarcode}, map[string]any{"text": "123"}, cms.TypeString, defaults(), "123"},
		{"button", source.Property{Kind: kindButton}, map[string]any{"url": "https://x.io"}, cms.TypeLink, defaults(), "https://x.io"},
		{"collaborator", source.Property{Kind: kindSingleCollaborator}, map[string]any{"name": "Ada"}, cms.TypeString, defaults(), "Ada"},
		{"record links unsupported", source.Property{Kind: kindMultipleRecordLinks}, map[string]any{}, cms.TypeString, defaults(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := src.Convert(tt.prop, tt.raw, tt.dest, tt.st); got != tt.want {
				t.Fatalf("Convert = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertDateTruncation(t *testing.T) {
	src := New("app1", "tbl1", "")
	prop := source.Property{Kind: kindDateTime}

	got := src.Convert(prop, "2024-04-26T15:30:00Z", cms.TypeDate, defaults())
	if got != "2024-04-26" {
		t.Fatalf("date without time = %v, want 2024-04-26", got)
	}

	withTime := defaults().With(settings.KeyTime, true)
	got = src.Convert(prop, "2024-04-26T15:30:00Z", cms.TypeDate, withTime)
	if got != "2024-04-26T15:30:00Z" {
		t.Fatalf("date with time = %v", got)
	}
}

func TestConvertCurrency(t *testing.T) {
	src := New("app1", "tbl1", "")
	prop := source.Property{Kind: kindCurrency, Precision: 2, Symbol: "$"}

	if got := src.Convert(prop, 12.5, cms.TypeString, defaults()); got != "$12.50" {
		t.Fatalf("currency as string = %v", got)
	}
	if got := src.Convert(prop, 12.5, cms.TypeNumber, defaults()); got != 12.5 {
		t.Fatalf("currency as number = %v", got)
	}
}

func TestConvertDuration(t *testing.T) {
	src := New("app1", "tbl1", "")

	tests := []struct {
		format  string
		seconds float64
		want    string
	}{
		{"h:mm", 3661, "1:01"},
		{"h:mm:ss", 3661, "1:01:01"},
		{"h:mm:ss", 45296, "12:34:56"},
		{"h:mm:ss.S", 3661.75, "1:01:01.8"},
		{"h:mm:ss.SS", 3661.75, "1:01:01.75"},
		{"h:mm:ss.SSS", 3661.125, "1:01:01.125"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			prop := source.Property{Kind: kindDuration, DurationFormat: tt.format}
			if got := src.Convert(prop, tt.seconds, cms.TypeString, defaults()); got != tt.want {
				t.Fatalf("duration(%v, %s) = %v, want %v", tt.seconds, tt.format, got, tt.want)
			}
		})
	}
}

func TestConvertSelectEnum(t *testing.T) {
	src := New("app1", "tbl1", "")
	prop := source.Property{
		Kind:    kindSingleSelect,
		Options: []source.Option{{ID: "sel1", Name: "Red"}, {ID: "sel2", Name: "Blue"}},
	}

	if got := src.Convert(prop, "Blue", cms.TypeEnum, defaults()); got != "sel2" {
		t.Fatalf("enum resolve = %v, want sel2", got)
	}
	if got := src.Convert(prop, "Green", cms.TypeEnum, defaults()); got != cms.NoneOptionID {
		t.Fatalf("unknown option = %v, want sentinel", got)
	}
	if got := src.Convert(prop, "Blue", cms.TypeString, defaults()); got != "Blue" {
		t.Fatalf("enum as string = %v, want Blue", got)
	}
}

func TestConvertMultiSelect(t *testing.T) {
	src := New("app1", "tbl1", "")
	prop := source.Property{
		Kind:    kindMultipleSelects,
		Options: []source.Option{{ID: "o1", Name: "A"}, {ID: "o2", Name: "B"}},
	}
	raw := []any{"A", "B"}

	got := src.Convert(prop, raw, cms.TypeEnum, defaults())
	if !reflect.DeepEqual(got, []any{"o1", "o2"}) {
		t.Fatalf("multi-select with importMultiple = %v", got)
	}

	single := defaults().With(settings.KeyMultipleFields, false)
	if got := src.Convert(prop, raw, cms.TypeEnum, single); got != "o1" {
		t.Fatalf("multi-select without importMultiple = %v, want o1", got)
	}
}

func TestConvertAttachmentsReversed(t *testing.T) {
	src := New("app1", "tbl1", "")
	prop := source.Property{Kind: kindMultipleAttachments, Reversed: true}
	raw := []any{
		map[string]any{"url": "https://x.io/a.png"},
		map[string]any{"url": "https://x.io/b.png"},
	}

	got := src.Convert(prop, raw, cms.TypeImage, defaults())
	if !reflect.DeepEqual(got, []any{"https://x.io/b.png", "https://x.io/a.png"}) {
		t.Fatalf("reversed attachments = %v", got)
	}

	// Reversal happens before truncation.
	single := defaults().With(settings.KeyMultipleFields, false)
	if got := src.Convert(prop, raw, cms.TypeImage, single); got != "https://x.io/b.png" {
		t.Fatalf("reversed first attachment = %v", got)
	}
}

func TestConvertComputedRecursion(t *testing.T) {
	src := New("app1", "tbl1", "")
	result := source.Property{
		Kind:    kindMultipleSelects,
		Options: []source.Option{{ID: "o1", Name: "A"}, {ID: "o2", Name: "B"}},
	}
	prop := source.Property{Kind: kindRollup, Result: &result}

	// Computed kinds force single-value import for the recursive call.
	got := src.Convert(prop, []any{"B", "A"}, cms.TypeEnum, defaults())
	if got != "o2" {
		t.Fatalf("computed multi-select = %v, want o2", got)
	}
}

func TestConvertRichText(t *testing.T) {
	src := New("app1", "tbl1", "")
	prop := source.Property{Kind: kindRichText}

	got := src.Convert(prop, "# Title\nbody", cms.TypeFormattedText, defaults())
	if got != "<h1>Title</h1>\n<p>body</p>" {
		t.Fatalf("rich text as formatted = %v", got)
	}
	if got := src.Convert(prop, "**bold**", cms.TypeString, defaults()); got != "bold" {
		t.Fatalf("rich text as plain = %v", got)
	}
}

func TestEffectiveKindAndConversionTypes(t *testing.T) {
	src := New("app1", "tbl1", "")

	plain := source.Property{Kind: kindNumber}
	if got := src.EffectiveKind(plain); got != kindNumber {
		t.Fatalf("plain effective kind = %v", got)
	}

	result := source.Property{Kind: kindNumber}
	computed := source.Property{Kind: kindFormula, Result: &result}
	if got := src.EffectiveKind(computed); got != kindNumber {
		t.Fatalf("computed effective kind = %v", got)
	}
	if got := src.ConversionTypes(computed); len(got) == 0 || got[0] != cms.TypeNumber {
		t.Fatalf("computed conversion types = %v", got)
	}

	// Computed rich text is a deliberate unsupported case.
	richResult := source.Property{Kind: kindRichText}
	richComputed := source.Property{Kind: kindRollup, Result: &richResult}
	if got := src.ConversionTypes(richComputed); len(got) != 0 {
		t.Fatalf("computed rich text should be unsupported, got %v", got)
	}
	// Plain rich text stays supported.
	if got := src.ConversionTypes(source.Property{Kind: kindRichText}); len(got) == 0 {
		t.Fatal("plain rich text should be supported")
	}
}

func TestDetectFieldType(t *testing.T) {
	src := New("app1", "tbl1", "")
	prop := source.Property{ID: "fldA", Kind: kindMultipleAttachments}

	images := []source.Record{
		{ID: "r1", Values: map[string]any{"fldA": []any{map[string]any{"type": "image/png"}}}},
		{ID: "r2", Values: map[string]any{"fldA": []any{map[string]any{"type": "image/jpeg"}}}},
	}
	if got, _, ok := src.DetectFieldType(prop, images); !ok || got != cms.TypeImage {
		t.Fatalf("all-image column = (%v, %v)", got, ok)
	}

	mixed := append(images, source.Record{
		ID: "r3", Values: map[string]any{"fldA": []any{map[string]any{"type": "application/pdf"}}},
	})
	if got, _, ok := src.DetectFieldType(prop, mixed); !ok || got != cms.TypeFile {
		t.Fatalf("mixed column = (%v, %v)", got, ok)
	}

	empty := []source.Record{{ID: "r1", Values: map[string]any{}}}
	if _, _, ok := src.DetectFieldType(prop, empty); ok {
		t.Fatal("column without attachments should give no signal")
	}

	other := source.Property{ID: "fldB", Kind: kindNumber}
	if _, _, ok := src.DetectFieldType(other, images); ok {
		t.Fatal("non-attachment kinds should give no signal")
	}
}

func TestFieldEnumCases(t *testing.T) {
	src := New("app1", "tbl1", "")
	prop := source.Property{
		ID:      "fldS",
		Kind:    kindSingleSelect,
		Options: []source.Option{{ID: "o1", Name: "A"}},
	}

	field := src.Field(prop, "Status", cms.TypeEnum, defaults())
	if len(field.Cases) != 2 {
		t.Fatalf("cases = %v", field.Cases)
	}
	if field.Cases[0].ID != cms.NoneOptionID || field.Cases[0].Name != "None" {
		t.Fatalf("first case should be the sentinel, got %v", field.Cases[0])
	}

	labeled := defaults().With(settings.KeyNoneOption, "Unset")
	field = src.Field(prop, "Status", cms.TypeEnum, labeled)
	if field.Cases[0].Name != "Unset" {
		t.Fatalf("none label = %q", field.Cases[0].Name)
	}
}
