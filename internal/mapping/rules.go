package mapping

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aidanlsb/collectionsync/internal/atomicfile"
	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/settings"
	"github.com/aidanlsb/collectionsync/internal/source"
)

// FieldRule is one user choice in a mapping document.
type FieldRule struct {
	// Field is the source property id (or page-level field id) the rule
	// applies to.
	Field string `yaml:"field"`

	// Name overrides the destination field name.
	Name string `yaml:"name,omitempty"`

	// Type overrides the destination type; must be one of the property's
	// conversion types.
	Type cms.FieldType `yaml:"type,omitempty"`

	// Settings are explicit per-field settings; they win over auto-detected
	// and persisted values.
	Settings map[string]any `yaml:"settings,omitempty"`
}

// Mapping is the user's persisted mapping document.
type Mapping struct {
	SlugField string      `yaml:"slugField,omitempty"`
	Disabled  []string    `yaml:"disabled,omitempty"`
	Rules     []FieldRule `yaml:"fields,omitempty"`
}

// Load reads a mapping document. A missing file yields an empty mapping, so
// first syncs work without one.
func Load(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Mapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	return &m, nil
}

// Save writes the mapping document.
func (m *Mapping) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	if err := atomicfile.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}

// Plan is a fully resolved mapping, ready for the sync engine.
type Plan struct {
	SlugFieldID   string
	Fields        []cms.Field
	FieldSettings map[string]settings.Settings
	Disabled      []string
}

// ResolvePlan applies the mapping document to the built field configs.
// persisted carries per-field settings from the previous sync; explicit rule
// settings win over them, which win over auto-detected ones. Auto-disabled
// fields stay out of the plan unless a rule names them.
func ResolvePlan(src source.Source, configs []FieldConfig, m *Mapping, persisted map[string]settings.Settings) (*Plan, error) {
	ruleByID := make(map[string]FieldRule, len(m.Rules))
	for _, rule := range m.Rules {
		ruleByID[rule.Field] = rule
	}
	disabledSet := make(map[string]bool, len(m.Disabled))
	for _, id := range m.Disabled {
		disabledSet[id] = true
	}

	plan := &Plan{
		FieldSettings: make(map[string]settings.Settings),
		Disabled:      append([]string(nil), m.Disabled...),
	}

	for _, cfg := range configs {
		if cfg.Unsupported || disabledSet[cfg.Property.ID] {
			continue
		}
		rule, hasRule := ruleByID[cfg.Property.ID]
		if cfg.AutoDisabled && !hasRule {
			continue
		}

		dest := cfg.ConversionTypes[0]
		if cfg.AutoType != "" {
			dest = cfg.AutoType
		}
		if rule.Type != "" {
			if !typeIn(cfg.ConversionTypes, rule.Type) {
				return nil, fmt.Errorf("field %q cannot be imported as %s", cfg.Name, rule.Type)
			}
			dest = rule.Type
		}

		name := cfg.Name
		if rule.Name != "" {
			name = rule.Name
		}

		st := settings.Resolve(cfg.AutoSettings, persisted[cfg.Property.ID], toSettings(rule.Settings))
		plan.FieldSettings[cfg.Property.ID] = st

		if cfg.PageLevel {
			plan.Fields = append(plan.Fields, cms.Field{ID: cfg.Property.ID, Name: name, Type: dest})
		} else {
			plan.Fields = append(plan.Fields, src.Field(cfg.Property, name, dest, st))
		}
	}

	plan.SlugFieldID = m.SlugField
	if plan.SlugFieldID == "" {
		candidates := PossibleSlugFields(src, configs)
		if len(candidates) == 0 {
			return nil, fmt.Errorf("no property is usable as a slug source")
		}
		plan.SlugFieldID = candidates[0].Property.ID
	}

	return plan, nil
}

func toSettings(m map[string]any) settings.Settings {
	if len(m) == 0 {
		return nil
	}
	out := make(settings.Settings, len(m))
	for k, v := range m {
		out[settings.Key(k)] = v
	}
	return out
}
