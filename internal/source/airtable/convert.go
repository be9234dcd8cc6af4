package airtable

import (
	"fmt"
	"math"
	"strings"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/markup"
	"github.com/aidanlsb/collectionsync/internal/settings"
	"github.com/aidanlsb/collectionsync/internal/source"
)

const (
	kindAIText                source.Kind = "aiText"
	kindMultipleAttachments   source.Kind = "multipleAttachments"
	kindAutoNumber            source.Kind = "autoNumber"
	kindBarcode               source.Kind = "barcode"
	kindButton                source.Kind = "button"
	kindCheckbox              source.Kind = "checkbox"
	kindSingleCollaborator    source.Kind = "singleCollaborator"
	kindCount                 source.Kind = "count"
	kindCreatedBy             source.Kind = "createdBy"
	kindCreatedTime           source.Kind = "createdTime"
	kindCurrency              source.Kind = "currency"
	kindDate                  source.Kind = "date"
	kindDateTime              source.Kind = "dateTime"
	kindDuration              source.Kind = "duration"
	kindEmail                 source.Kind = "email"
	kindFormula               source.Kind = "formula"
	kindLastModifiedBy        source.Kind = "lastModifiedBy"
	kindLastModifiedTime      source.Kind = "lastModifiedTime"
	kindMultilineText         source.Kind = "multilineText"
	kindMultipleCollaborators source.Kind = "multipleCollaborators"
	kindMultipleLookupValues  source.Kind = "multipleLookupValues"
	kindMultipleRecordLinks   source.Kind = "multipleRecordLinks"
	kindMultipleSelects       source.Kind = "multipleSelects"
	kindNumber                source.Kind = "number"
	kindPercent               source.Kind = "percent"
	kindPhoneNumber           source.Kind = "phoneNumber"
	kindRating                source.Kind = "rating"
	kindRichText              source.Kind = "richText"
	kindRollup                source.Kind = "rollup"
	kindSingleLineText        source.Kind = "singleLineText"
	kindSingleSelect          source.Kind = "singleSelect"
	kindExternalSyncSource    source.Kind = "externalSyncSource"
	kindURL                   source.Kind = "url"
)

// conversionTable maps each kind to the ordered destination types it can
// produce; the first entry is the default. An absent or empty entry marks
// the kind unsupported.
var conversionTable = map[source.Kind][]cms.FieldType{
	kindAIText:                {cms.TypeString, cms.TypeFormattedText},
	kindMultipleAttachments:   {cms.TypeFile, cms.TypeImage},
	kindAutoNumber:            {cms.TypeNumber},
	kindBarcode:               {cms.TypeString},
	kindButton:                {cms.TypeLink},
	kindCheckbox:              {cms.TypeBoolean},
	kindSingleCollaborator:    {cms.TypeString},
	kindCount:                 {cms.TypeNumber},
	kindCreatedBy:             {cms.TypeString},
	kindCreatedTime:           {cms.TypeDate},
	kindCurrency:              {cms.TypeNumber, cms.TypeString},
	kindDate:                  {cms.TypeDate},
	kindDateTime:              {cms.TypeDate},
	kindDuration:              {cms.TypeString},
	kindEmail:                 {cms.TypeString},
	kindLastModifiedBy:        {cms.TypeString},
	kindLastModifiedTime:      {cms.TypeDate},
	kindMultilineText:         {cms.TypeString, cms.TypeFormattedText},
	kindMultipleCollaborators: {cms.TypeString},
	kindMultipleSelects:       {cms.TypeEnum, cms.TypeString},
	kindNumber:                {cms.TypeNumber},
	kindPercent:               {cms.TypeNumber},
	kindPhoneNumber:           {cms.TypeString},
	kindRating:                {cms.TypeNumber},
	kindRichText:              {cms.TypeFormattedText, cms.TypeString},
	kindSingleLineText:        {cms.TypeString, cms.TypeFormattedText},
	kindSingleSelect:          {cms.TypeEnum, cms.TypeString},
	kindExternalSyncSource:    {cms.TypeString},
	kindURL:                   {cms.TypeLink, cms.TypeString},
	kindMultipleRecordLinks:   {},
}

// computedKinds derive their value from other cells; their effective kind is
// the kind of their resolved result.
var computedKinds = map[source.Kind]bool{
	kindFormula:              true,
	kindMultipleLookupValues: true,
	kindRollup:               true,
}

var kindNames = map[source.Kind]string{
	kindAIText: "AI Text", kindMultipleAttachments: "Attachments",
	kindAutoNumber: "Auto number", kindBarcode: "Barcode", kindButton: "Button",
	kindCheckbox: "Checkbox", kindSingleCollaborator: "User", kindCount: "Count",
	kindCreatedBy: "Created by", kindCreatedTime: "Created time",
	kindCurrency: "Currency", kindDate: "Date", kindDateTime: "Date and time",
	kindDuration: "Duration", kindEmail: "Email", kindFormula: "Formula",
	kindLastModifiedBy: "Last modified by", kindLastModifiedTime: "Last modified time",
	kindMultipleRecordLinks: "Link to another record", kindMultilineText: "Long text",
	kindMultipleLookupValues: "Lookup", kindMultipleCollaborators: "Multiple users",
	kindMultipleSelects: "Multiple select", kindNumber: "Number",
	kindPercent: "Percent", kindPhoneNumber: "Phone", kindRating: "Rating",
	kindRichText: "Rich text", kindRollup: "Rollup", kindSingleLineText: "Text",
	kindSingleSelect: "Single select", kindExternalSyncSource: "Sync source",
	kindURL: "URL",
}

// EffectiveKind implements source.Source.
func (s *Source) EffectiveKind(p source.Property) source.Kind {
	if computedKinds[p.Kind] && p.Result != nil {
		return p.Result.Kind
	}
	return p.Kind
}

// ConversionTypes implements source.Source.
//
// A computed property whose resolved result is rich text has no conversion
// types: the Airtable API does not expose the formatted value for those, so
// the property is deliberately unsupported rather than silently degraded.
func (s *Source) ConversionTypes(p source.Property) []cms.FieldType {
	effective := s.EffectiveKind(p)
	if computedKinds[p.Kind] && effective == kindRichText {
		return nil
	}
	return conversionTable[effective]
}

// SlugKinds implements source.Source.
func (s *Source) SlugKinds() []source.Kind {
	return []source.Kind{kindSingleLineText, kindMultilineText, kindAutoNumber, kindAIText}
}

// KindDisplayName implements source.Source.
func (s *Source) KindDisplayName(p source.Property) string {
	name := kindNames[p.Kind]
	if name == "" {
		name = string(p.Kind)
	}
	if computedKinds[p.Kind] && p.Result != nil {
		if resultName, ok := kindNames[p.Result.Kind]; ok {
			return fmt.Sprintf("%s (%s)", name, resultName)
		}
	}
	return name
}

// Field implements source.Source.
func (s *Source) Field(p source.Property, name string, dest cms.FieldType, st settings.Settings) cms.Field {
	field := cms.Field{ID: p.ID, Name: name, Type: dest}

	switch dest {
	case cms.TypeEnum:
		noneLabel := st.String(settings.KeyNoneOption)
		if noneLabel == "" {
			noneLabel = "None"
		}
		field.Cases = []cms.EnumCase{{ID: cms.NoneOptionID, Name: noneLabel}}
		for _, option := range enumOptions(p) {
			field.Cases = append(field.Cases, cms.EnumCase{ID: option.ID, Name: option.Name})
		}
	case cms.TypeFile:
		field.AllowedFileTypes = []string{}
	}

	return field
}

// enumOptions returns the option list, resolving computed indirection.
func enumOptions(p source.Property) []source.Option {
	if computedKinds[p.Kind] && p.Result != nil {
		return p.Result.Options
	}
	return p.Options
}

// Convert implements source.Source.
func (s *Source) Convert(p source.Property, raw any, dest cms.FieldType, st settings.Settings) any {
	return convertValue(p, raw, dest, st)
}

func convertValue(p source.Property, raw any, dest cms.FieldType, st settings.Settings) any {
	if raw == nil {
		return nil
	}

	// Computed properties resolve through their result kind and never fan out
	// into multiple fields, even when the underlying kind would.
	if computedKinds[p.Kind] {
		if p.Result == nil {
			return nil
		}
		return convertValue(*p.Result, raw, dest, st.With(settings.KeyMultipleFields, false))
	}

	arr, isArray := raw.([]any)
	if !isArray {
		return convertOne(p, raw, dest, st)
	}

	// Reversal applies before truncation so "first element" means the first
	// element of the user-visible order.
	if p.Kind == kindMultipleAttachments && p.Reversed {
		reversed := make([]any, len(arr))
		for i, v := range arr {
			reversed[len(arr)-1-i] = v
		}
		arr = reversed
	}

	if !st.Bool(settings.KeyMultipleFields) {
		if len(arr) == 0 {
			return nil
		}
		return convertOne(p, arr[0], dest, st)
	}

	out := make([]any, 0, len(arr))
	for _, v := range arr {
		out = append(out, convertOne(p, v, dest, st))
	}
	return out
}

func convertOne(p source.Property, value any, dest cms.FieldType, st settings.Settings) any {
	switch p.Kind {
	case kindEmail, kindAutoNumber, kindCount, kindCheckbox, kindNumber,
		kindPercent, kindPhoneNumber, kindRating, kindURL:
		return value

	case kindSingleLineText, kindMultilineText, kindAIText:
		text := asString(value)
		if p.Kind == kindAIText {
			if m, ok := value.(map[string]any); ok {
				text = asString(m["value"])
			}
		}
		if st.String(settings.KeyImportFormat) == "markdown" {
			return markup.ToHTML(text)
		}
		return text

	case kindCurrency:
		if dest == cms.TypeString {
			return fmt.Sprintf("%s%.*f", p.Symbol, p.Precision, asNumber(value))
		}
		return asNumber(value)

	case kindDate, kindDateTime, kindCreatedTime, kindLastModifiedTime:
		return dateValue(asString(value), st)

	case kindRichText:
		if dest == cms.TypeFormattedText {
			return markup.ToHTML(asString(value))
		}
		return markup.ToPlainText(asString(value))

	case kindMultipleAttachments:
		if m, ok := value.(map[string]any); ok {
			return asString(m["url"])
		}
		return ""

	case kindMultipleRecordLinks:
		return nil

	case kindBarcode:
		if m, ok := value.(map[string]any); ok {
			return asString(m["text"])
		}
		return ""

	case kindButton:
		if m, ok := value.(map[string]any); ok {
			if url := asString(m["url"]); url != "" {
				return url
			}
		}
		return nil

	case kindSingleCollaborator, kindCreatedBy, kindLastModifiedBy:
		if m, ok := value.(map[string]any); ok {
			return asString(m["name"])
		}
		return ""

	case kindMultipleCollaborators, kindMultipleSelects:
		name := asString(value)
		if name == "" {
			return nil
		}
		if dest == cms.TypeEnum {
			return optionIDForName(p, name)
		}
		return name

	case kindSingleSelect:
		if dest == cms.TypeEnum {
			return optionIDForName(p, asString(value))
		}
		return value

	case kindExternalSyncSource:
		if m, ok := value.(map[string]any); ok {
			return asString(m["name"])
		}
		return nil

	case kindDuration:
		return formatDuration(asNumber(value), p.DurationFormat)
	}

	return nil
}

// optionIDForName resolves an option name to its stable id, falling back to
// the sentinel "None" id when the name is unknown.
func optionIDForName(p source.Property, name string) string {
	if name == "" {
		return cms.NoneOptionID
	}
	for _, option := range enumOptions(p) {
		if option.Name == name {
			return option.ID
		}
	}
	return cms.NoneOptionID
}

// dateValue truncates an ISO timestamp to its date portion unless the field
// keeps time of day. The truncation is textual, never timezone-aware, so the
// calendar day cannot shift.
func dateValue(value string, st settings.Settings) any {
	if value == "" {
		return nil
	}
	if !st.Bool(settings.KeyTime) {
		return strings.SplitN(value, "T", 2)[0]
	}
	return value
}

// formatDuration renders a seconds count as h:mm[:ss[.fraction]] per the
// property's duration format. Hours are not zero-padded.
func formatDuration(totalSeconds float64, format string) string {
	hours := int(totalSeconds) / 3600
	minutes := (int(totalSeconds) % 3600) / 60
	remaining := math.Mod(totalSeconds, 60)
	seconds := int(remaining)
	fraction := remaining - math.Floor(remaining)

	result := fmt.Sprintf("%d:%02d", hours, minutes)
	switch format {
	case "h:mm:ss":
		result += fmt.Sprintf(":%02d", seconds)
	case "h:mm:ss.S":
		result += fmt.Sprintf(":%02d.%s", seconds, fractionDigits(fraction, 1))
	case "h:mm:ss.SS":
		result += fmt.Sprintf(":%02d.%s", seconds, fractionDigits(fraction, 2))
	case "h:mm:ss.SSS":
		result += fmt.Sprintf(":%02d.%s", seconds, fractionDigits(fraction, 3))
	}
	return result
}

func fractionDigits(fraction float64, digits int) string {
	s := fmt.Sprintf("%.*f", digits, fraction)
	return s[2:] // strip "0."
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return formatNumber(s)
	case bool:
		return fmt.Sprintf("%t", s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}
