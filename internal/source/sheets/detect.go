package sheets

import (
	"regexp"
	"strings"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/markup"
	"github.com/aidanlsb/collectionsync/internal/settings"
	"github.com/aidanlsb/collectionsync/internal/source"
)

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var imageFileExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
	"svg": true, "avif": true, "bmp": true, "tiff": true, "ico": true,
}

// inferColumnKind derives a column's kind from its cells. A column whose
// non-empty cells disagree degrades to TEXT.
func inferColumnKind(rows [][]cell, col int) source.Kind {
	var kind source.Kind

	for _, row := range rows {
		if col >= len(row) || row[col].EffectiveValue == nil {
			continue
		}
		current := cellKind(&row[col])
		if kind == "" {
			kind = current
		} else if kind != current {
			return kindText
		}
	}

	if kind == "" {
		return kindText
	}
	return kind
}

func cellKind(c *cell) source.Kind {
	if format := c.EffectiveFormat.NumberFormat.Type; format != "" {
		if _, ok := conversionTable[source.Kind(format)]; ok {
			return source.Kind(format)
		}
	}
	if c.EffectiveValue.NumberValue != nil {
		return kindNumber
	}
	if c.EffectiveValue.BoolValue != nil {
		return kindBoolean
	}
	if c.EffectiveValue.StringValue != nil && isoDatePattern.MatchString(*c.EffectiveValue.StringValue) {
		return kindDate
	}
	if c.Hyperlink != "" {
		return kindHyperlink
	}
	for _, run := range c.TextFormatRuns {
		if run.Format.Link != nil {
			return kindHyperlink
		}
	}
	if c.EffectiveValue.FormulaValue != nil && imageFormulaURL(*c.EffectiveValue.FormulaValue) != "" {
		return kindImage
	}
	return kindText
}

// DetectFieldType implements source.Source. A text column where most
// non-empty cells look like HTML or markdown is suggested as formatted text,
// with the import format decided by majority. A hyperlink column whose links
// all carry image extensions is suggested as an image field.
func (s *Source) DetectFieldType(p source.Property, records []source.Record) (cms.FieldType, settings.Settings, bool) {
	switch p.Kind {
	case kindText:
		return detectFormattedText(p.ID, records)
	case kindHyperlink:
		return detectImageLinks(p.ID, records)
	}
	return "", nil, false
}

func detectFormattedText(columnID string, records []source.Record) (cms.FieldType, settings.Settings, bool) {
	nonEmpty, htmlCount, markdownCount := 0, 0, 0

	for _, rec := range records {
		c, ok := rec.Values[columnID].(*cell)
		if !ok || c.EffectiveValue == nil {
			continue
		}
		nonEmpty++

		if c.EffectiveValue.StringValue == nil {
			continue
		}
		text := strings.TrimSpace(*c.EffectiveValue.StringValue)
		if text == "" {
			continue
		}
		if markup.LooksLikeHTML(text) {
			htmlCount++
		} else if markup.LooksLikeMarkdown(text) {
			markdownCount++
		}
	}

	if htmlCount+markdownCount <= nonEmpty/2 {
		return "", nil, false
	}

	format := "markdown"
	if htmlCount > markdownCount {
		format = "html"
	}
	return cms.TypeFormattedText, settings.Settings{settings.KeyImportFormat: format}, true
}

func detectImageLinks(columnID string, records []source.Record) (cms.FieldType, settings.Settings, bool) {
	images := 0

	for _, rec := range records {
		c, ok := rec.Values[columnID].(*cell)
		if !ok || c.EffectiveValue == nil || c.EffectiveValue.StringValue == nil {
			continue
		}
		link := strings.ToLower(strings.TrimSpace(*c.EffectiveValue.StringValue))
		extension := link[strings.LastIndex(link, ".")+1:]
		if !imageFileExtensions[extension] {
			return "", nil, false
		}
		images++
	}

	if images == 0 {
		return "", nil, false
	}
	return cms.TypeImage, nil, true
}
