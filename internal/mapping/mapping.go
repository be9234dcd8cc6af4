// Package mapping builds the field configuration between a source schema and
// a destination collection, and resolves a user mapping document against it.
package mapping

import (
	"context"
	"sort"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/settings"
	"github.com/aidanlsb/collectionsync/internal/source"
)

// FieldConfig is one mappable source property with its destination choices.
type FieldConfig struct {
	// Property is the source property; synthetic for page-level fields.
	Property source.Property

	// Name is the source-side display name.
	Name string

	// ConversionTypes are the destination types the property can map to, in
	// preference order. Empty means the property is unsupported.
	ConversionTypes []cms.FieldType

	Unsupported bool
	PageLevel   bool

	// IsNew marks a property that appeared after the last sync and is not
	// explicitly disabled.
	IsNew bool

	// AutoDisabled marks a page-level field that no sampled record carries.
	AutoDisabled bool

	// AutoType and AutoSettings are sampling-derived suggestions that
	// override the default conversion type when the user makes no explicit
	// choice.
	AutoType     cms.FieldType
	AutoSettings settings.Settings
}

// Build lists every mappable field of the schema: page-level fields first,
// then the schema's properties, with unsupported properties sorted to the
// bottom. Records are sampled through the session for type auto-detection.
func Build(ctx context.Context, sess *source.Session, schema *source.Schema, existing []cms.Field, disabled []string, isUpdate bool) ([]FieldConfig, error) {
	src := sess.Source()

	// An unavailable record sample means "nothing to map", not a failure:
	// callers render an empty list and the sync itself will surface the
	// transport error when it fetches.
	records, err := sess.Records(ctx, schema.ID)
	if err != nil {
		return nil, nil
	}

	existingByID := cms.FieldsByID(existing)
	disabledSet := make(map[string]bool, len(disabled))
	for _, id := range disabled {
		disabledSet[id] = true
	}

	isNew := func(id string) bool {
		if !isUpdate {
			return false
		}
		_, exists := existingByID[id]
		return !exists && !disabledSet[id]
	}

	var configs []FieldConfig

	if pls, ok := src.(source.PageLevelSource); ok {
		for _, pf := range pls.PageFields() {
			autoType, autoDisabled := pls.PageFieldAuto(pf.ID, records)
			configs = append(configs, FieldConfig{
				Property:        source.Property{ID: pf.ID, Name: pf.Name, Kind: source.Kind(pf.ID)},
				Name:            pf.Name,
				ConversionTypes: pf.Types,
				PageLevel:       true,
				IsNew:           isNew(pf.ID),
				AutoDisabled:    autoDisabled,
				AutoType:        autoType,
			})
		}
	}

	for _, p := range schema.Properties {
		types := src.ConversionTypes(p)
		cfg := FieldConfig{
			Property:        p,
			Name:            p.Name,
			ConversionTypes: types,
			Unsupported:     len(types) == 0,
			IsNew:           isNew(p.ID),
		}
		if t, st, ok := src.DetectFieldType(p, records); ok {
			cfg.AutoType = t
			cfg.AutoSettings = st
		}
		configs = append(configs, cfg)
	}

	sort.SliceStable(configs, func(i, j int) bool {
		return !configs[i].Unsupported && configs[j].Unsupported
	})
	return configs, nil
}

// PossibleSlugFields returns the configs usable as the slug source, ordered
// by the adapter's slug kind preference.
func PossibleSlugFields(src source.Source, configs []FieldConfig) []FieldConfig {
	kinds := src.SlugKinds()
	orderIndex := func(k source.Kind) int {
		for i, candidate := range kinds {
			if candidate == k {
				return i
			}
		}
		return len(kinds)
	}

	var out []FieldConfig
	for _, cfg := range configs {
		if cfg.PageLevel || cfg.Unsupported {
			continue
		}
		if orderIndex(src.EffectiveKind(cfg.Property)) < len(kinds) {
			out = append(out, cfg)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return orderIndex(src.EffectiveKind(out[i].Property)) < orderIndex(src.EffectiveKind(out[j].Property))
	})
	return out
}

// ConfigurationChanged reports whether the stored collection fields no longer
// match the source schema: a property was added or removed, or a mapped field
// holds a type its property can no longer convert to. Page-level fields are
// excluded from the comparison.
func ConfigurationChanged(src source.Source, schema *source.Schema, current []cms.Field, disabled []string) bool {
	isPageLevel := func(string) bool { return false }
	if pls, ok := src.(source.PageLevelSource); ok {
		isPageLevel = pls.IsPageLevelFieldID
	}

	disabledSet := make(map[string]bool, len(disabled))
	for _, id := range disabled {
		disabledSet[id] = true
	}

	currentByID := make(map[string]cms.Field)
	for id, field := range cms.FieldsByID(current) {
		if !isPageLevel(id) {
			currentByID[id] = field
		}
	}

	var properties []source.Property
	for _, p := range schema.Properties {
		if !disabledSet[p.ID] && len(src.ConversionTypes(p)) > 0 {
			properties = append(properties, p)
		}
	}

	if len(properties) != len(currentByID) {
		return true
	}

	for _, p := range properties {
		field, ok := currentByID[p.ID]
		if !ok {
			continue
		}
		if !typeIn(src.ConversionTypes(p), field.Type) {
			return true
		}
	}
	return false
}

func typeIn(types []cms.FieldType, t cms.FieldType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
