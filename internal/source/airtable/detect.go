package airtable

import (
	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/settings"
	"github.com/aidanlsb/collectionsync/internal/source"
)

// imageMIMETypes is the allow-list used to decide whether an attachment
// column holds only images.
var imageMIMETypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
	"image/avif":    true,
	"image/bmp":     true,
	"image/tiff":    true,
}

// DetectFieldType implements source.Source. An attachment column whose
// observed MIME types are all images is suggested as an image field; any
// other observed attachment makes it a file field. Columns with no observed
// attachments give no signal.
func (s *Source) DetectFieldType(p source.Property, records []source.Record) (cms.FieldType, settings.Settings, bool) {
	if s.EffectiveKind(p) != kindMultipleAttachments {
		return "", nil, false
	}

	seen := 0
	allImages := true
	for _, rec := range records {
		files, ok := rec.Values[p.ID].([]any)
		if !ok {
			continue
		}
		for _, f := range files {
			m, ok := f.(map[string]any)
			if !ok {
				continue
			}
			mimeType, _ := m["type"].(string)
			if mimeType == "" {
				continue
			}
			seen++
			if !imageMIMETypes[mimeType] {
				allImages = false
			}
		}
	}

	if seen == 0 {
		return "", nil, false
	}
	if allImages {
		return cms.TypeImage, nil, true
	}
	return cms.TypeFile, nil, true
}
