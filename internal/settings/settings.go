// Package settings defines the per-field option bag and its merge rules.
//
// Settings come from three layers: auto-detected values from sampled records,
// values persisted against the collection from a previous sync, and explicit
// user choices. Later layers win; the central defaults sit underneath all
// three.
package settings

// Key identifies one per-field setting.
type Key string

const (
	// KeyTime controls whether date values keep their time of day.
	KeyTime Key = "time"
	// KeyMultipleFields controls whether array-valued properties fan out
	// into multiple destination fields or keep only their first element.
	KeyMultipleFields Key = "multipleFields"
	// KeyNoneOption is the display label for the synthetic "None" enum case.
	KeyNoneOption Key = "noneOption"
	// KeyImportFormat chooses the import mode for formatted text:
	// "html" or "markdown".
	KeyImportFormat Key = "importMarkdownOrHTML"
	// KeyDefaultFormat chooses the renderer for rich text whose source has a
	// native default: "default", "html", or "markdown".
	KeyDefaultFormat Key = "importDefaultMarkdownOrHTML"
)

// Settings is a typed bag of per-field options.
type Settings map[Key]any

// Defaults returns the central default for every setting key.
func Defaults() Settings {
	return Settings{
		KeyTime:           false,
		KeyMultipleFields: true,
		KeyNoneOption:     "",
		KeyImportFormat:   "html",
		KeyDefaultFormat:  "default",
	}
}

// Bool returns the boolean value for key, or false when unset or mistyped.
func (s Settings) Bool(key Key) bool {
	if s == nil {
		return false
	}
	v, _ := s[key].(bool)
	return v
}

// String returns the string value for key, or "" when unset or mistyped.
func (s Settings) String(key Key) string {
	if s == nil {
		return ""
	}
	v, _ := s[key].(string)
	return v
}

// Clone returns a shallow copy of s.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// With returns a copy of s with key set to value.
func (s Settings) With(key Key, value any) Settings {
	out := s.Clone()
	out[key] = value
	return out
}

// Merge overlays the given layers left to right; later layers win. A nil
// layer is skipped.
func Merge(layers ...Settings) Settings {
	out := make(Settings)
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}

// Resolve computes the effective settings for one field: defaults, overlaid
// with auto-detected values, then persisted values, then explicit user
// choices, in that precedence order.
func Resolve(auto, persisted, explicit Settings) Settings {
	return Merge(Defaults(), auto, persisted, explicit)
}
