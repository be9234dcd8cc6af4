package sheets

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/markup"
	"github.com/aidanlsb/collectionsync/internal/settings"
	"github.com/aidanlsb/collectionsync/internal/source"
)

const (
	kindBoolean   source.Kind = "BOOLEAN"
	kindText      source.Kind = "TEXT"
	kindFormula   source.Kind = "FORMULA"
	kindNumber    source.Kind = "NUMBER"
	kindDate      source.Kind = "DATE"
	kindTime      source.Kind = "TIME"
	kindDateTime  source.Kind = "DATE_TIME"
	kindImage     source.Kind = "IMAGE"
	kindHyperlink source.Kind = "HYPERLINK"
)

// Days between the spreadsheet serial epoch (1899-12-30) and the Unix epoch.
const serialEpochOffsetDays = 25569

// conversionTable maps each column kind to the ordered destination types it
// can produce; the first entry is the default. Text columns convert to almost
// anything because a sheet cell carries no schema of its own.
var conversionTable = map[source.Kind][]cms.FieldType{
	kindBoolean:   {cms.TypeBoolean, cms.TypeString},
	kindText:      {cms.TypeString, cms.TypeFormattedText, cms.TypeBoolean, cms.TypeNumber, cms.TypeLink, cms.TypeImage, cms.TypeFile, cms.TypeDate},
	kindFormula:   {cms.TypeString, cms.TypeFormattedText, cms.TypeBoolean, cms.TypeNumber, cms.TypeLink, cms.TypeImage, cms.TypeFile, cms.TypeDate},
	kindNumber:    {cms.TypeNumber, cms.TypeString},
	kindDate:      {cms.TypeDate, cms.TypeString},
	kindTime:      {cms.TypeString},
	kindDateTime:  {cms.TypeDate, cms.TypeString},
	kindImage:     {cms.TypeImage, cms.TypeLink, cms.TypeFile, cms.TypeString},
	kindHyperlink: {cms.TypeLink, cms.TypeString, cms.TypeImage, cms.TypeFile},
}

var kindNames = map[source.Kind]string{
	kindBoolean: "Checkbox", kindText: "Text", kindFormula: "Formula",
	kindNumber: "Number", kindDate: "Date", kindTime: "Time",
	kindDateTime: "Date and time", kindImage: "Image", kindHyperlink: "Hyperlink",
}

// EffectiveKind implements source.Source.
func (s *Source) EffectiveKind(p source.Property) source.Kind {
	return p.Kind
}

// ConversionTypes implements source.Source.
func (s *Source) ConversionTypes(p source.Property) []cms.FieldType {
	return conversionTable[p.Kind]
}

// SlugKinds implements source.Source.
func (s *Source) SlugKinds() []source.Kind {
	return []source.Kind{kindText, kindNumber, kindFormula}
}

// KindDisplayName implements source.Source.
func (s *Source) KindDisplayName(p source.Property) string {
	if name, ok := kindNames[p.Kind]; ok {
		return name
	}
	return string(p.Kind)
}

// Field implements source.Source. Sheet columns carry no option lists or
// type metadata beyond their kind.
func (s *Source) Field(p source.Property, name string, dest cms.FieldType, st settings.Settings) cms.Field {
	return cms.Field{ID: p.ID, Name: name, Type: dest}
}

// Convert implements source.Source. An empty cell yields the destination
// type's zero value rather than nothing: a sheet has no notion of an unset
// cell distinct from an empty one.
func (s *Source) Convert(p source.Property, raw any, dest cms.FieldType, st settings.Settings) any {
	c, _ := raw.(*cell)
	return coerce(cellValue(c, dest, st), dest)
}

func cellValue(c *cell, dest cms.FieldType, st settings.Settings) any {
	if c == nil {
		return defaultFor(dest)
	}

	var value any

	switch {
	case c.EffectiveValue != nil && c.EffectiveValue.BoolValue != nil:
		b := *c.EffectiveValue.BoolValue
		if dest == cms.TypeBoolean {
			value = b
		} else {
			value = strconv.FormatBool(b)
		}

	case c.EffectiveValue != nil && c.EffectiveValue.NumberValue != nil:
		n := *c.EffectiveValue.NumberValue
		switch c.EffectiveFormat.NumberFormat.Type {
		case "DATE", "DATE_TIME":
			value = serialToISO(n)
		case "TIME":
			value = serialToClock(n)
		default:
			if dest == cms.TypeNumber {
				value = n
			} else {
				value = formatNumber(n)
			}
		}

	case c.EffectiveValue != nil && c.EffectiveValue.StringValue != nil:
		str := *c.EffectiveValue.StringValue
		if dest == cms.TypeDate {
			value = toISO(str)
		} else {
			value = str
		}

	case c.FormattedValue != "":
		switch dest {
		case cms.TypeNumber:
			parsed, err := strconv.ParseFloat(c.FormattedValue, 64)
			if err != nil {
				parsed = 0
			}
			value = parsed
		case cms.TypeBoolean:
			lower := strings.ToLower(c.FormattedValue)
			value = lower == "true" || lower == "yes"
		case cms.TypeDate:
			value = toISO(c.FormattedValue)
		default:
			value = c.FormattedValue
		}
	}

	// An =IMAGE() formula exposes its URL to image-capable destinations.
	if c.EffectiveValue != nil && c.EffectiveValue.FormulaValue != nil && typeIn(conversionTable[kindImage], dest) {
		if imageURL := imageFormulaURL(*c.EffectiveValue.FormulaValue); imageURL != "" {
			value = imageURL
		}
	}

	// Cell-level hyperlinks win over the cell text for link-capable
	// destinations.
	if typeIn(conversionTable[kindHyperlink], dest) {
		if c.Hyperlink != "" {
			value = c.Hyperlink
		} else {
			for _, run := range c.TextFormatRuns {
				if run.Format.Link != nil {
					value = run.Format.Link.URI
					break
				}
			}
		}
	}

	if value == nil {
		return defaultFor(dest)
	}

	if dest == cms.TypeFormattedText {
		if st.String(settings.KeyImportFormat) == "markdown" {
			return markup.MarkdownToHTML(asString(value))
		}
		return value
	}

	return value
}

// coerce pins the converted value to the destination type's value space.
func coerce(value any, dest cms.FieldType) any {
	missing := value == nil

	switch dest {
	case cms.TypeString:
		if missing {
			return ""
		}
		return asString(value)
	case cms.TypeNumber:
		if missing {
			return 0.0
		}
		return asNumber(value)
	case cms.TypeBoolean:
		if missing {
			return false
		}
		return asBool(value)
	case cms.TypeLink, cms.TypeImage, cms.TypeFile:
		if str, ok := value.(string); ok && isValidURL(str) {
			return str
		}
		return nil
	}
	return value
}

func defaultFor(dest cms.FieldType) any {
	switch dest {
	case cms.TypeNumber:
		return 0.0
	case cms.TypeBoolean:
		return false
	case cms.TypeDate:
		return nil
	default:
		return ""
	}
}

var imageFormulaPrefix = `=IMAGE("`

func imageFormulaURL(formula string) string {
	if !strings.HasPrefix(formula, imageFormulaPrefix) || !strings.HasSuffix(formula, `")`) {
		return ""
	}
	return formula[len(imageFormulaPrefix) : len(formula)-2]
}

// serialToISO converts a spreadsheet date serial number to an ISO timestamp.
func serialToISO(serial float64) string {
	seconds := (serial - serialEpochOffsetDays) * 86400
	return time.Unix(int64(math.Round(seconds)), 0).UTC().Format("2006-01-02T15:04:05.000Z")
}

// serialToClock converts a time-of-day serial fraction to hh:mm:ss.
func serialToClock(serial float64) string {
	totalSeconds := int(serial * 86400)
	return fmt.Sprintf("%02d:%02d:%02d", totalSeconds/3600, (totalSeconds%3600)/60, totalSeconds%60)
}

// toISO normalizes a textual date to an ISO timestamp, passing through
// anything it cannot parse.
func toISO(value string) string {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"1/2/2006",
		"01/02/2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC().Format("2006-01-02T15:04:05.000Z")
		}
	}
	return value
}

func typeIn(types []cms.FieldType, t cms.FieldType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func isValidURL(value string) bool {
	u, err := url.Parse(value)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return formatNumber(s)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return parsed
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b != ""
	case float64:
		return b != 0
	default:
		return false
	}
}
