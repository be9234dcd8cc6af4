package settings

import "testing"

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.Bool(KeyTime) {
		t.Error("time should default to false")
	}
	if !d.Bool(KeyMultipleFields) {
		t.Error("multipleFields should default to true")
	}
	if d.String(KeyImportFormat) != "html" {
		t.Errorf("importMarkdownOrHTML default = %q, want html", d.String(KeyImportFormat))
	}
	if d.String(KeyDefaultFormat) != "default" {
		t.Errorf("importDefaultMarkdownOrHTML default = %q, want default", d.String(KeyDefaultFormat))
	}
}

func TestResolvePrecedence(t *testing.T) {
	auto := Settings{KeyImportFormat: "markdown", KeyTime: true}
	persisted := Settings{KeyImportFormat: "html"}
	explicit := Settings{KeyMultipleFields: false}

	got := Resolve(auto, persisted, explicit)

	// Persisted overrides auto-detected.
	if got.String(KeyImportFormat) != "html" {
		t.Errorf("importMarkdownOrHTML = %q, want html", got.String(KeyImportFormat))
	}
	// Auto-detected survives when nothing above it sets the key.
	if !got.Bool(KeyTime) {
		t.Error("time should come from the auto-detected layer")
	}
	// Explicit is highest precedence.
	if got.Bool(KeyMultipleFields) {
		t.Error("multipleFields should come from the explicit layer")
	}
	// Defaults fill everything else.
	if got.String(KeyNoneOption) != "" {
		t.Errorf("noneOption = %q, want empty default", got.String(KeyNoneOption))
	}
}

func TestAccessorsOnNil(t *testing.T) {
	var s Settings
	if s.Bool(KeyTime) || s.String(KeyImportFormat) != "" {
		t.Error("nil settings should read as zero values")
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	base := Defaults()
	derived := base.With(KeyMultipleFields, false)
	if !base.Bool(KeyMultipleFields) {
		t.Error("With mutated the receiver")
	}
	if derived.Bool(KeyMultipleFields) {
		t.Error("With did not set the value on the copy")
	}
}
