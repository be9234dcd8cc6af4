package notion

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/markup"
	"github.com/aidanlsb/collectionsync/internal/settings"
	"github.com/aidanlsb/collectionsync/internal/source"
)

const (
	kindCheckbox       source.Kind = "checkbox"
	kindCreatedBy      source.Kind = "created_by"
	kindCreatedTime    source.Kind = "created_time"
	kindDate           source.Kind = "date"
	kindEmail          source.Kind = "email"
	kindFiles          source.Kind = "files"
	kindFormula        source.Kind = "formula"
	kindLastEditedBy   source.Kind = "last_edited_by"
	kindLastEditedTime source.Kind = "last_edited_time"
	kindMultiSelect    source.Kind = "multi_select"
	kindNumber         source.Kind = "number"
	kindPeople         source.Kind = "people"
	kindPhoneNumber    source.Kind = "phone_number"
	kindRelation       source.Kind = "relation"
	kindRichText       source.Kind = "rich_text"
	kindRollup         source.Kind = "rollup"
	kindSelect         source.Kind = "select"
	kindStatus         source.Kind = "status"
	kindTitle          source.Kind = "title"
	kindUniqueID       source.Kind = "unique_id"
	kindURL            source.Kind = "url"
)

// conversionTable maps each property type to the ordered destination types it
// can produce; the first entry is the default. Formula and rollup values only
// reveal their result type per cell, so they stay convertible to every scalar
// type and resolve at conversion time.
var conversionTable = map[source.Kind][]cms.FieldType{
	kindCheckbox:       {cms.TypeBoolean},
	kindTitle:          {cms.TypeString},
	kindMultiSelect:    {cms.TypeEnum, cms.TypeString},
	kindPhoneNumber:    {cms.TypeString},
	kindEmail:          {cms.TypeString},
	kindCreatedTime:    {cms.TypeDate},
	kindDate:           {cms.TypeDate},
	kindLastEditedTime: {cms.TypeDate},
	kindFiles:          {cms.TypeFile, cms.TypeImage},
	kindNumber:         {cms.TypeNumber},
	kindRichText:       {cms.TypeFormattedText, cms.TypeString},
	kindSelect:         {cms.TypeEnum, cms.TypeString},
	kindStatus:         {cms.TypeEnum, cms.TypeString},
	kindURL:            {cms.TypeLink, cms.TypeString, cms.TypeFile},
	kindUniqueID:       {cms.TypeString, cms.TypeNumber},
	kindFormula:        {cms.TypeString, cms.TypeNumber, cms.TypeBoolean, cms.TypeDate, cms.TypeLink, cms.TypeImage, cms.TypeFile},
	kindRollup:         {cms.TypeString, cms.TypeNumber, cms.TypeBoolean, cms.TypeDate, cms.TypeLink, cms.TypeImage, cms.TypeFile},
	kindCreatedBy:      {},
	kindLastEditedBy:   {},
	kindPeople:         {},
	kindRelation:       {},
}

var kindNames = map[source.Kind]string{
	kindCheckbox: "Checkbox", kindCreatedBy: "Created by",
	kindCreatedTime: "Created time", kindDate: "Date", kindEmail: "Email",
	kindFiles: "Files & media", kindFormula: "Formula",
	kindLastEditedBy: "Last edited by", kindLastEditedTime: "Last edited time",
	kindMultiSelect: "Multi-select", kindNumber: "Number", kindPeople: "People",
	kindPhoneNumber: "Phone", kindRelation: "Relation", kindRichText: "Text",
	kindRollup: "Rollup", kindSelect: "Select", kindStatus: "Status",
	kindTitle: "Title", kindUniqueID: "ID", kindURL: "URL",
}

// EffectiveKind implements source.Source. Notion properties carry no schema
// level indirection; formula and rollup results resolve per value.
func (s *Source) EffectiveKind(p source.Property) source.Kind {
	return p.Kind
}

// ConversionTypes implements source.Source.
func (s *Source) ConversionTypes(p source.Property) []cms.FieldType {
	return conversionTable[p.Kind]
}

// SlugKinds implements source.Source.
func (s *Source) SlugKinds() []source.Kind {
	return []source.Kind{kindTitle, kindRichText, kindUniqueID, kindFormula, kindRollup}
}

// KindDisplayName implements source.Source.
func (s *Source) KindDisplayName(p source.Property) string {
	if name, ok := kindNames[p.Kind]; ok {
		return name
	}
	return string(p.Kind)
}

// DetectFieldType implements source.Source. Notion property types map
// directly, so sampling adds no signal.
func (s *Source) DetectFieldType(p source.Property, records []source.Record) (cms.FieldType, settings.Settings, bool) {
	return "", nil, false
}

// Field implements source.Source. Select and multi-select get a synthetic
// "None" case for unset values; status properties always hold one of their
// own options, so they keep their option list as-is.
func (s *Source) Field(p source.Property, name string, dest cms.FieldType, st settings.Settings) cms.Field {
	field := cms.Field{ID: p.ID, Name: name, Type: dest}

	switch dest {
	case cms.TypeEnum:
		if p.Kind == kindSelect || p.Kind == kindMultiSelect {
			noneLabel := st.String(settings.KeyNoneOption)
			if noneLabel == "" {
				noneLabel = "None"
			}
			field.Cases = []cms.EnumCase{{ID: cms.NoneOptionID, Name: noneLabel}}
		}
		for _, option := range p.Options {
			field.Cases = append(field.Cases, cms.EnumCase{ID: option.ID, Name: option.Name})
		}
	case cms.TypeFile:
		field.AllowedFileTypes = []string{}
	}

	return field
}

// Convert implements source.Source. The raw value is the full wire property
// object; the payload sits under the key named by its "type" tag, which for
// formula and rollup is the only place the result type is revealed.
func (s *Source) Convert(p source.Property, raw any, dest cms.FieldType, st settings.Settings) any {
	prop, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	return propertyValue(prop, dest, st)
}

func propertyValue(prop map[string]any, dest cms.FieldType, st settings.Settings) any {
	kind, _ := prop["type"].(string)
	value := prop[kind]

	switch source.Kind(kind) {
	case kindCheckbox, kindURL, kindNumber, kindPhoneNumber, kindEmail:
		return value

	case kindCreatedTime, kindLastEditedTime:
		return dateValue(asString(value), st)

	case kindTitle:
		return richTextToPlainText(asSpans(value))

	case kindRichText:
		return richTextValue(asSpans(value), dest, st)

	case kindCreatedBy, kindLastEditedBy:
		if m, ok := value.(map[string]any); ok {
			return m["id"]
		}
		return nil

	case kindMultiSelect:
		return multiSelectValue(value, dest, st)

	case kindPeople:
		people, _ := value.([]any)
		ids := make([]string, 0, len(people))
		for _, person := range people {
			if m, ok := person.(map[string]any); ok {
				ids = append(ids, asString(m["id"]))
			}
		}
		return strings.Join(ids, ", ")

	case kindFormula:
		return formulaValue(value, dest, st)

	case kindRollup:
		return rollupValue(value, dest, st)

	case kindDate:
		if m, ok := value.(map[string]any); ok {
			return dateValue(asString(m["start"]), st)
		}
		return nil

	case kindFiles:
		return filesValue(value, st)

	case kindSelect:
		option, _ := value.(map[string]any)
		if dest == cms.TypeEnum {
			if option == nil {
				return cms.NoneOptionID
			}
			return option["id"]
		}
		if option == nil {
			return nil
		}
		return option["name"]

	case kindStatus:
		option, _ := value.(map[string]any)
		if option == nil {
			return nil
		}
		if dest == cms.TypeEnum {
			return option["id"]
		}
		return option["name"]

	case kindUniqueID:
		return uniqueIDValue(value, dest)
	}

	return nil
}

// richTextValue renders a rich text property for the mapped type. For
// formatted text the import format decides: "default" keeps the source's
// inline formatting, "html" treats the plain text as raw HTML, and "markdown"
// runs the plain text through the markdown converter.
func richTextValue(spans []any, dest cms.FieldType, st settings.Settings) any {
	if dest != cms.TypeFormattedText {
		return richTextToPlainText(spans)
	}

	switch st.String(settings.KeyDefaultFormat) {
	case "html":
		return richTextToPlainText(spans)
	case "markdown":
		return markup.MarkdownToHTML(richTextToPlainText(spans))
	default:
		html := richTextToHTML(spans)
		if html == "" {
			return nil
		}
		return "<p>" + html + "</p>"
	}
}

func multiSelectValue(value any, dest cms.FieldType, st settings.Settings) any {
	options, _ := value.([]any)

	optionValue := func(option any) any {
		m, ok := option.(map[string]any)
		if !ok {
			return nil
		}
		if dest == cms.TypeEnum {
			return m["id"]
		}
		return m["name"]
	}

	if !st.Bool(settings.KeyMultipleFields) {
		if len(options) == 0 {
			return nil
		}
		return optionValue(options[0])
	}

	out := make([]any, 0, len(options))
	for _, option := range options {
		out = append(out, optionValue(option))
	}
	return out
}

// formulaValue coerces a formula result to the mapped type. The result's own
// type tag wins: a non-date result mapped to a date yields nothing rather
// than a junk timestamp.
func formulaValue(value any, dest cms.FieldType, st settings.Settings) any {
	result, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	resultType, _ := result["type"].(string)
	resultValue := result[resultType]

	switch dest {
	case cms.TypeString, cms.TypeLink, cms.TypeImage, cms.TypeFile:
		return asString(resultValue)
	case cms.TypeNumber:
		return asNumber(resultValue)
	case cms.TypeDate:
		if resultType != "date" {
			return nil
		}
		if m, ok := resultValue.(map[string]any); ok {
			return dateValue(asString(m["start"]), st)
		}
		return dateValue(asString(resultValue), st)
	case cms.TypeBoolean:
		if resultType == "boolean" {
			return resultValue
		}
		return resultValue != nil
	}
	return nil
}

// rollupValue resolves a rollup result. Array rollups take their first
// element, which is itself a full property object.
func rollupValue(value any, dest cms.FieldType, st settings.Settings) any {
	result, ok := value.(map[string]any)
	if !ok {
		return nil
	}

	switch result["type"] {
	case "array":
		items, _ := result["array"].([]any)
		if len(items) == 0 {
			return nil
		}
		if item, ok := items[0].(map[string]any); ok {
			return propertyValue(item, dest, st)
		}
		return nil
	case "number":
		return result["number"]
	case "date":
		if m, ok := result["date"].(map[string]any); ok {
			return dateValue(asString(m["start"]), st)
		}
		return dateValue(asString(result["date"]), st)
	}
	return nil
}

func filesValue(value any, st settings.Settings) any {
	files, _ := value.([]any)

	fileURL := func(file any) string {
		m, ok := file.(map[string]any)
		if !ok {
			return ""
		}
		fileType, _ := m["type"].(string)
		if payload, ok := m[fileType].(map[string]any); ok {
			return asString(payload["url"])
		}
		return ""
	}

	if !st.Bool(settings.KeyMultipleFields) {
		if len(files) == 0 {
			return ""
		}
		return fileURL(files[0])
	}

	out := make([]any, 0, len(files))
	for _, file := range files {
		out = append(out, fileURL(file))
	}
	return out
}

func uniqueIDValue(value any, dest cms.FieldType) any {
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	number := asNumber(m["number"])

	if dest == cms.TypeString {
		if prefix := asString(m["prefix"]); prefix != "" {
			return fmt.Sprintf("%s-%d", prefix, int64(number))
		}
		return fmt.Sprintf("%d", int64(number))
	}
	return number
}

// richTextToPlainText joins the plain text of all spans.
func richTextToPlainText(spans []any) string {
	var out strings.Builder
	for _, span := range spans {
		if m, ok := span.(map[string]any); ok {
			out.WriteString(asString(m["plain_text"]))
		}
	}
	return out.String()
}

func asSpans(value any) []any {
	spans, _ := value.([]any)
	return spans
}

// dateValue truncates an ISO timestamp to its date portion unless the field
// keeps time of day.
func dateValue(value string, st settings.Settings) any {
	if value == "" {
		return nil
	}
	if !st.Bool(settings.KeyTime) {
		return strings.SplitN(value, "T", 2)[0]
	}
	return value
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	case bool:
		return fmt.Sprintf("%t", s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}
