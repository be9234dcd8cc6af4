package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/mapping"
	"github.com/aidanlsb/collectionsync/internal/settings"
	"github.com/aidanlsb/collectionsync/internal/source"
)

// projector turns one raw source record into one destination item under the
// resolved plan. It is shared across the concurrent projection goroutines
// and holds only immutable lookups plus the (internally locked) seen set.
type projector struct {
	src           source.Source
	pageLevel     source.PageLevelSource // nil when the adapter has none
	propByID      map[string]source.Property
	fieldsByID    map[string]cms.Field
	slugFieldID   string
	fieldSettings map[string]settings.Settings
	lastSynced    string
	seen          *seenSet
}

func newProjector(src source.Source, schema *source.Schema, plan *mapping.Plan, seen *seenSet, lastSynced string) *projector {
	propByID := make(map[string]source.Property, len(schema.Properties))
	for _, prop := range schema.Properties {
		propByID[prop.ID] = prop
	}
	fieldsByID := make(map[string]cms.Field, len(plan.Fields))
	for _, field := range plan.Fields {
		fieldsByID[field.ID] = field
	}

	p := &projector{
		src:           src,
		propByID:      propByID,
		fieldsByID:    fieldsByID,
		slugFieldID:   plan.SlugFieldID,
		fieldSettings: plan.FieldSettings,
		lastSynced:    lastSynced,
		seen:          seen,
	}
	if pls, ok := src.(source.PageLevelSource); ok {
		p.pageLevel = pls
	}
	return p
}

// project returns the destination item for rec, or ok=false when the record
// has no resolvable slug. The record is marked seen before anything else, so
// even a dropped record is never proposed for deletion. A returned error is
// fatal to the whole sync.
func (p *projector) project(ctx context.Context, rec source.Record, status *Status) (cms.Item, bool, error) {
	p.seen.markSeen(rec.ID)

	slug := p.resolveSlug(rec)

	skipContent := unchangedSinceLastSync(rec.LastEdited, p.lastSynced)
	if skipContent {
		status.Info(rec.Locator, "", fmt.Sprintf(
			"Skipping page content import. last updated: %s, last synced: %s",
			rec.LastEdited, p.lastSynced))
	}

	fieldData := make(map[string]any)
	for id, raw := range rec.Values {
		prop, ok := p.propByID[id]
		if !ok {
			// Not a schema property (page-level metadata rides along in
			// Values under reserved ids).
			continue
		}
		field, mapped := p.fieldsByID[prop.ID]
		if !mapped {
			continue
		}

		value := p.src.Convert(prop, raw, field.Type, p.fieldSettings[prop.ID])
		if missingValue(value) {
			status.Warn(rec.Locator, field.ID, "Value is missing for field "+field.Name)
			continue
		}
		fieldData[field.ID] = value
	}

	// A checkbox absent from the record means false, not missing.
	for id := range p.fieldsByID {
		if _, done := fieldData[id]; done {
			continue
		}
		prop, ok := p.propByID[id]
		if !ok {
			continue
		}
		if types := p.src.ConversionTypes(prop); len(types) > 0 && types[0] == cms.TypeBoolean {
			fieldData[id] = false
		}
	}

	if p.pageLevel != nil {
		want := func(id string) (cms.Field, bool) {
			field, ok := p.fieldsByID[id]
			return field, ok
		}
		values, err := p.pageLevel.PageValues(ctx, rec, want, skipContent)
		if err != nil {
			return cms.Item{}, false, fmt.Errorf("resolve page-level values: %w", err)
		}
		for id, value := range values {
			fieldData[id] = value
		}
	}

	if slug == "" {
		status.Warn(rec.Locator, "", "Slug property is missing. Skipping item.")
		return cms.Item{}, false, nil
	}

	return cms.Item{ID: rec.ID, Slug: slug, FieldData: fieldData}, true, nil
}

// resolveSlug projects the slug field's value to a string with default
// settings; array values contribute their first element.
func (p *projector) resolveSlug(rec source.Record) string {
	raw, present := rec.Values[p.slugFieldID]
	if !present {
		return ""
	}
	prop, ok := p.propByID[p.slugFieldID]
	if !ok {
		return ""
	}

	value := p.src.Convert(prop, raw, cms.TypeString, settings.Defaults())
	if arr, ok := value.([]any); ok {
		if len(arr) == 0 {
			return ""
		}
		value = arr[0]
	}
	s, _ := value.(string)
	return s
}

// missingValue reports whether a converted value counts as absent: nil, an
// empty string, or an empty array. Zero and false are real values.
func missingValue(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return value == ""
	case []any:
		return len(value) == 0
	}
	return false
}

// unchangedSinceLastSync reports whether the record's page content can be
// skipped. The source rounds last-edited times to the minute, so the synced
// time is rounded the same way before comparing.
func unchangedSinceLastSync(lastEdited, lastSynced string) bool {
	if lastEdited == "" || lastSynced == "" {
		return false
	}
	edited, err := time.Parse(time.RFC3339, lastEdited)
	if err != nil {
		return false
	}
	synced, err := time.Parse(time.RFC3339, lastSynced)
	if err != nil {
		return false
	}
	return synced.Truncate(time.Minute).After(edited)
}
