package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gosimple/slug"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/mapping"
	"github.com/aidanlsb/collectionsync/internal/source"
)

// applyToCollection reconciles the projected items against the destination.
// The steps are strictly ordered: array expansion and default backfill on the
// items, schema push, bookkeeping, slug de-duplication, deletions, then
// insertions, and finally the last-synced timestamp.
func (s *Syncer) applyToCollection(ctx context.Context, schema *source.Schema, plan *mapping.Plan, items []cms.Item, toDelete []string) error {
	fieldsByID := make(map[string]cms.Field, len(plan.Fields))
	for _, field := range plan.Fields {
		fieldsByID[field.ID] = field
	}

	arrayLengths := surveyArrayLengths(items)
	backfillDefaults(items, fieldsByID)
	materializeArrays(items, fieldsByID, arrayLengths)

	fields := expandFields(plan.Fields, arrayLengths)
	if err := s.col.SetFields(ctx, fields); err != nil {
		return fmt.Errorf("set collection fields: %w", err)
	}

	if err := s.persistBookkeeping(ctx, schema, plan); err != nil {
		return err
	}

	dedupeSlugs(items)

	if len(toDelete) > 0 {
		s.log.WithField("count", len(toDelete)).Debug("removing unseen items")
		if err := s.col.RemoveItems(ctx, toDelete); err != nil {
			return fmt.Errorf("remove items: %w", err)
		}
	}

	s.log.WithField("count", len(items)).Debug("adding items")
	if err := s.col.AddItems(ctx, items); err != nil {
		return fmt.Errorf("add items: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := s.col.SetPluginData(ctx, KeyLastSyncedTime, now); err != nil {
		return fmt.Errorf("persist last synced time: %w", err)
	}
	return nil
}

// surveyArrayLengths finds, per logical field, the maximum array length
// observed across all items, capped at maxArrayFields. Fields never seen as
// arrays are absent from the result.
func surveyArrayLengths(items []cms.Item) map[string]int {
	lengths := make(map[string]int)
	for _, item := range items {
		for id, value := range item.FieldData {
			arr, ok := value.([]any)
			if !ok {
				continue
			}
			n := len(arr)
			if n > maxArrayFields {
				n = maxArrayFields
			}
			if n > lengths[id] {
				lengths[id] = n
			}
		}
	}
	return lengths
}

// backfillDefaults replaces nil values with the type default so the
// destination never receives an undefined value.
func backfillDefaults(items []cms.Item, fieldsByID map[string]cms.Field) {
	for _, item := range items {
		for id, value := range item.FieldData {
			if value != nil {
				continue
			}
			if field, ok := fieldsByID[id]; ok {
				item.FieldData[id] = cms.DefaultValue(field.Type)
			}
		}
	}
}

// materializeArrays flattens array values. A field whose maximum observed
// length is 1 collapses to a scalar; longer fields split into per-slot
// sibling keys, padded with the type default where an item's own array falls
// short.
func materializeArrays(items []cms.Item, fieldsByID map[string]cms.Field, lengths map[string]int) {
	for id, maxLen := range lengths {
		field, ok := fieldsByID[id]
		if !ok {
			continue
		}
		for _, item := range items {
			arr, ok := item.FieldData[id].([]any)
			if !ok {
				continue
			}
			if maxLen <= 1 {
				item.FieldData[id] = slotValue(arr, 0, field.Type)
				continue
			}
			delete(item.FieldData, id)
			for i := 0; i < maxLen; i++ {
				item.FieldData[cms.ArrayFieldID(id, i)] = slotValue(arr, i, field.Type)
			}
		}
	}
}

func slotValue(arr []any, i int, t cms.FieldType) any {
	if i < len(arr) && arr[i] != nil {
		return arr[i]
	}
	return cms.DefaultValue(t)
}

// expandFields returns the physical field list: array-valued fields longer
// than one slot become numbered siblings, everything else passes through.
func expandFields(fields []cms.Field, lengths map[string]int) []cms.Field {
	out := make([]cms.Field, 0, len(fields))
	for _, field := range fields {
		maxLen := lengths[field.ID]
		if maxLen <= 1 {
			out = append(out, field)
			continue
		}
		for i := 0; i < maxLen; i++ {
			sibling := field
			sibling.ID = cms.ArrayFieldID(field.ID, i)
			sibling.Name = cms.ArrayFieldName(field.Name, i)
			out = append(out, sibling)
		}
	}
	return out
}

// dedupeSlugs normalizes every item's slug and resolves collisions in item
// order by appending -2, -3, and so on.
func dedupeSlugs(items []cms.Item) {
	taken := make(map[string]bool, len(items))
	for i := range items {
		base := slug.Make(items[i].Slug)
		unique := base
		for counter := 2; taken[unique]; counter++ {
			unique = fmt.Sprintf("%s-%d", base, counter)
		}
		taken[unique] = true
		items[i].Slug = unique
	}
}

// integrationData is the source-identifying bookkeeping blob persisted
// against the collection.
type integrationData struct {
	Source   string `json:"source"`
	SchemaID string `json:"schemaId"`
}

func (s *Syncer) persistBookkeeping(ctx context.Context, schema *source.Schema, plan *mapping.Plan) error {
	disabledIDs := plan.Disabled
	if disabledIDs == nil {
		disabledIDs = []string{}
	}
	disabled, err := json.Marshal(disabledIDs)
	if err != nil {
		return fmt.Errorf("encode disabled field ids: %w", err)
	}
	integration, err := json.Marshal(integrationData{Source: s.src.Name(), SchemaID: schema.ID})
	if err != nil {
		return fmt.Errorf("encode integration data: %w", err)
	}
	fieldSettings, err := json.Marshal(plan.FieldSettings)
	if err != nil {
		return fmt.Errorf("encode field settings: %w", err)
	}

	entries := []struct {
		key   string
		value string
	}{
		{KeyIntegrationID, s.src.Name()},
		{KeyDisabledFieldIDs, string(disabled)},
		{KeyIntegrationData, string(integration)},
		{KeySlugFieldID, plan.SlugFieldID},
		{KeyDatabaseName, schema.Name},
		{KeyFieldSettings, string(fieldSettings)},
	}
	for _, entry := range entries {
		if err := s.col.SetPluginData(ctx, entry.key, entry.value); err != nil {
			return fmt.Errorf("persist %s: %w", entry.key, err)
		}
	}
	return nil
}
