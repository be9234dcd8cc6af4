package syncer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/mapping"
	"github.com/aidanlsb/collectionsync/internal/settings"
	"github.com/aidanlsb/collectionsync/internal/source"
	"github.com/aidanlsb/collectionsync/internal/testutil"
)

func newPlan(slugFieldID string, fields ...cms.Field) *mapping.Plan {
	return &mapping.Plan{
		SlugFieldID:   slugFieldID,
		Fields:        fields,
		FieldSettings: map[string]settings.Settings{},
	}
}

func record(id string, values map[string]any) source.Record {
	return source.Record{ID: id, Locator: "https://example.com/" + id, Values: values}
}

func run(t *testing.T, src *testutil.FakeSource, col *testutil.FakeCollection, plan *mapping.Plan) *Result {
	t.Helper()
	sess := source.NewSession(src)
	result, err := New(src, col, nil).Synchronize(context.Background(), sess, src.Schema, plan)
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestSynchronizeEndToEnd(t *testing.T) {
	src := testutil.NewFakeSource().
		WithSchema("sch1", "Tasks",
			source.Property{ID: "p1", Name: "Title", Kind: "text"},
			source.Property{ID: "p2", Name: "Done", Kind: "flag"},
		).
		WithRecords(
			record("r1", map[string]any{"p1": "First", "p2": true}),
			record("r2", map[string]any{"p1": "Second"}),
		)
	col := testutil.NewFakeCollection()
	plan := newPlan("p1",
		cms.Field{ID: "p1", Name: "Title", Type: cms.TypeString},
		cms.Field{ID: "p2", Name: "Done", Type: cms.TypeBoolean},
	)

	result := run(t, src, col, plan)
	if result.Status != StatusSuccess {
		t.Fatalf("status = %s, warnings = %v", result.Status, result.Warnings)
	}
	if col.ItemCount() != 2 {
		t.Fatalf("got %d items", col.ItemCount())
	}

	first, ok := col.Item("r1")
	if !ok || first.Slug != "first" || first.FieldData["p1"] != "First" || first.FieldData["p2"] != true {
		t.Fatalf("unexpected item: %+v", first)
	}

	// A checkbox absent from the record means false, not missing.
	second, _ := col.Item("r2")
	if second.FieldData["p2"] != false {
		t.Fatalf("missing checkbox should backfill to false, got %v", second.FieldData["p2"])
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", result.Warnings)
	}
}

func TestSynchronizeIdempotence(t *testing.T) {
	src := testutil.NewFakeSource().
		WithSchema("sch1", "Tasks", source.Property{ID: "p1", Name: "Title", Kind: "text"}).
		WithRecords(
			record("r1", map[string]any{"p1": "One"}),
			record("r2", map[string]any{"p1": "Two"}),
		)
	col := testutil.NewFakeCollection()
	plan := newPlan("p1", cms.Field{ID: "p1", Name: "Title", Type: cms.TypeString})

	run(t, src, col, plan)

	col.Calls = nil
	result := run(t, src, col, plan)
	if result.Status != StatusSuccess {
		t.Fatalf("status = %s", result.Status)
	}
	for _, call := range col.Calls {
		if call == "removeItems" {
			t.Fatal("second run with unchanged data should delete nothing")
		}
	}
	if col.ItemCount() != 2 {
		t.Fatalf("got %d items after second run", col.ItemCount())
	}
}

func TestSynchronizeDeletesUnseenBeforeInserting(t *testing.T) {
	src := testutil.NewFakeSource().
		WithSchema("sch1", "Tasks", source.Property{ID: "p1", Name: "Title", Kind: "text"}).
		WithRecords(record("r1", map[string]any{"p1": "Kept"}))
	col := testutil.NewFakeCollection().WithItems(
		cms.Item{ID: "stale", Slug: "stale", FieldData: map[string]any{}},
	)
	plan := newPlan("p1", cms.Field{ID: "p1", Name: "Title", Type: cms.TypeString})

	run(t, src, col, plan)

	if _, ok := col.Item("stale"); ok {
		t.Fatal("unseen item should be deleted")
	}
	var order []string
	for _, call := range col.Calls {
		if call == "setFields" || call == "removeItems" || call == "addItems" {
			order = append(order, call)
		}
	}
	want := []string{"setFields", "removeItems", "addItems"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Fatalf("call order = %v", order)
	}
}

func TestSynchronizeMissingSlug(t *testing.T) {
	src := testutil.NewFakeSource().
		WithSchema("sch1", "Tasks", source.Property{ID: "p1", Name: "Title", Kind: "text"}).
		WithRecords(
			record("r1", map[string]any{"p1": "Good"}),
			record("r2", map[string]any{}),
		)
	// The slugless record already exists in the collection; it must be
	// neither re-added nor deleted.
	col := testutil.NewFakeCollection().WithItems(
		cms.Item{ID: "r2", Slug: "old", FieldData: map[string]any{}},
	)
	plan := newPlan("p1", cms.Field{ID: "p1", Name: "Title", Type: cms.TypeString})

	result := run(t, src, col, plan)
	if result.Status != StatusSuccess {
		t.Fatalf("status = %s", result.Status)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Message != "Slug property is missing. Skipping item." {
		t.Fatalf("warnings = %v", result.Warnings)
	}
	if _, ok := col.Item("r2"); !ok {
		t.Fatal("slugless record was deleted; it was seen and must survive")
	}
}

func TestSynchronizeSlugDeduplication(t *testing.T) {
	src := testutil.NewFakeSource().
		WithSchema("sch1", "Tasks", source.Property{ID: "p1", Name: "Title", Kind: "text"}).
		WithRecords(
			record("r1", map[string]any{"p1": "Foo"}),
			record("r2", map[string]any{"p1": "Foo"}),
			record("r3", map[string]any{"p1": "Foo"}),
		)
	col := testutil.NewFakeCollection()
	plan := newPlan("p1", cms.Field{ID: "p1", Name: "Title", Type: cms.TypeString})

	run(t, src, col, plan)

	want := map[string]string{"r1": "foo", "r2": "foo-2", "r3": "foo-3"}
	for id, slug := range want {
		item, _ := col.Item(id)
		if item.Slug != slug {
			t.Errorf("item %s slug = %q, want %q", id, item.Slug, slug)
		}
	}
}

func TestSynchronizeArrayExpansion(t *testing.T) {
	src := testutil.NewFakeSource().
		WithSchema("sch1", "Tasks",
			source.Property{ID: "p1", Name: "Title", Kind: "text"},
			source.Property{ID: "p2", Name: "Link", Kind: "link"},
		).
		WithRecords(
			record("r1", map[string]any{"p1": "One", "p2": []any{"a"}}),
			record("r2", map[string]any{"p1": "Two", "p2": []any{"b", "c", "d"}}),
			record("r3", map[string]any{"p1": "Three", "p2": []any{"e", "f"}}),
		)
	col := testutil.NewFakeCollection()
	plan := newPlan("p1",
		cms.Field{ID: "p1", Name: "Title", Type: cms.TypeString},
		cms.Field{ID: "p2", Name: "Link", Type: cms.TypeLink},
	)

	run(t, src, col, plan)

	// Max observed length is 3, so the logical field becomes 3 siblings.
	var names []string
	for _, field := range col.StoredFields() {
		if cms.LogicalFieldID(field.ID) == "p2" {
			names = append(names, field.Name)
		}
	}
	if strings.Join(names, ",") != "Link 1,Link 2,Link 3" {
		t.Fatalf("expanded fields = %v", names)
	}

	one, _ := col.Item("r1")
	if _, stillThere := one.FieldData["p2"]; stillThere {
		t.Fatal("logical field key should be replaced by slot keys")
	}
	if one.FieldData[cms.ArrayFieldID("p2", 0)] != "a" {
		t.Fatalf("slot 0 = %v", one.FieldData[cms.ArrayFieldID("p2", 0)])
	}
	// Shorter arrays pad with the type default.
	if one.FieldData[cms.ArrayFieldID("p2", 2)] != "" {
		t.Fatalf("slot 2 = %v", one.FieldData[cms.ArrayFieldID("p2", 2)])
	}
}

func TestSynchronizeEnumSlotsPadWithNone(t *testing.T) {
	src := testutil.NewFakeSource().
		WithSchema("sch1", "Tasks",
			source.Property{ID: "p1", Name: "Title", Kind: "text"},
			source.Property{ID: "p2", Name: "Tags", Kind: "tags"},
		).
		WithRecords(
			record("r1", map[string]any{"p1": "One", "p2": []any{"opt1"}}),
			record("r2", map[string]any{"p1": "Two", "p2": []any{"opt1", "opt2"}}),
		)
	col := testutil.NewFakeCollection()
	plan := newPlan("p1",
		cms.Field{ID: "p1", Name: "Title", Type: cms.TypeString},
		cms.Field{ID: "p2", Name: "Tags", Type: cms.TypeEnum},
	)

	run(t, src, col, plan)

	one, _ := col.Item("r1")
	if one.FieldData[cms.ArrayFieldID("p2", 1)] != cms.NoneOptionID {
		t.Fatalf("missing enum slot should pad with the None sentinel, got %v",
			one.FieldData[cms.ArrayFieldID("p2", 1)])
	}
}

func TestSynchronizeMissingValueWarning(t *testing.T) {
	src := testutil.NewFakeSource().
		WithSchema("sch1", "Tasks",
			source.Property{ID: "p1", Name: "Title", Kind: "text"},
			source.Property{ID: "p2", Name: "Website", Kind: "link"},
		).
		WithRecords(record("r1", map[string]any{"p1": "One", "p2": ""}))
	col := testutil.NewFakeCollection()
	plan := newPlan("p1",
		cms.Field{ID: "p1", Name: "Title", Type: cms.TypeString},
		cms.Field{ID: "p2", Name: "Website", Type: cms.TypeLink},
	)

	result := run(t, src, col, plan)
	if result.Status != StatusSuccess {
		t.Fatalf("warnings must not downgrade the status, got %s", result.Status)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Message != "Value is missing for field Website" {
		t.Fatalf("warnings = %v", result.Warnings)
	}
	if result.Warnings[0].FieldID != "p2" {
		t.Fatalf("warning field = %q", result.Warnings[0].FieldID)
	}

	item, _ := col.Item("r1")
	if item.FieldData["p2"] != nil {
		t.Fatalf("missing value should stay unset, got %v", item.FieldData["p2"])
	}
}

func TestSynchronizeSkipsUnchangedPageContent(t *testing.T) {
	src := testutil.NewFakeSource().
		WithSchema("sch1", "Tasks", source.Property{ID: "p1", Name: "Title", Kind: "text"})
	src.Records = []source.Record{{
		ID:         "r1",
		Locator:    "https://example.com/r1",
		Values:     map[string]any{"p1": "One"},
		LastEdited: "2024-01-01T10:00:00Z",
	}}
	col := testutil.NewFakeCollection().WithPluginData(KeyLastSyncedTime, "2024-02-01T00:00:30Z")
	plan := newPlan("p1", cms.Field{ID: "p1", Name: "Title", Type: cms.TypeString})

	result := run(t, src, col, plan)
	if len(result.Info) != 1 || !strings.HasPrefix(result.Info[0].Message, "Skipping page content import.") {
		t.Fatalf("info = %v", result.Info)
	}
}

func TestSynchronizePersistsBookkeeping(t *testing.T) {
	src := testutil.NewFakeSource().
		WithSchema("sch1", "Tasks", source.Property{ID: "p1", Name: "Title", Kind: "text"}).
		WithRecords(record("r1", map[string]any{"p1": "One"}))
	col := testutil.NewFakeCollection()
	plan := newPlan("p1", cms.Field{ID: "p1", Name: "Title", Type: cms.TypeString})
	plan.Disabled = []string{"p9"}

	run(t, src, col, plan)

	checks := map[string]string{
		KeyIntegrationID:    "fake",
		KeySlugFieldID:      "p1",
		KeyDatabaseName:     "Tasks",
		KeyDisabledFieldIDs: `["p9"]`,
	}
	for key, want := range checks {
		if got := col.StoredPluginData(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if !strings.Contains(col.StoredPluginData(KeyIntegrationData), `"schemaId":"sch1"`) {
		t.Errorf("integrationData = %q", col.StoredPluginData(KeyIntegrationData))
	}
	if col.StoredPluginData(KeyLastSyncedTime) == "" {
		t.Error("lastSyncedTime not persisted")
	}
}

func TestSynchronizeApplyFailure(t *testing.T) {
	src := testutil.NewFakeSource().
		WithSchema("sch1", "Tasks", source.Property{ID: "p1", Name: "Title", Kind: "text"}).
		WithRecords(record("r1", map[string]any{"p1": "One"}))
	col := testutil.NewFakeCollection()
	col.AddItemsErr = errors.New("write refused")
	plan := newPlan("p1", cms.Field{ID: "p1", Name: "Title", Type: cms.TypeString})

	sess := source.NewSession(src)
	result, err := New(src, col, nil).Synchronize(context.Background(), sess, src.Schema, plan)
	if err == nil {
		t.Fatal("expected an error")
	}
	if result.Status != StatusError {
		t.Fatalf("status = %s", result.Status)
	}
}

func TestSynchronizeRequiresSlugField(t *testing.T) {
	src := testutil.NewFakeSource().
		WithSchema("sch1", "Tasks", source.Property{ID: "p1", Name: "Title", Kind: "text"})
	col := testutil.NewFakeCollection()

	sess := source.NewSession(src)
	_, err := New(src, col, nil).Synchronize(context.Background(), sess, src.Schema, newPlan(""))
	if !errors.Is(err, ErrNoSlugField) {
		t.Fatalf("err = %v", err)
	}
}

func TestUnchangedSinceLastSync(t *testing.T) {
	tests := []struct {
		name       string
		lastEdited string
		lastSynced string
		want       bool
	}{
		{"never synced", "2024-01-01T10:00:00Z", "", false},
		{"no edit time", "", "2024-01-01T10:00:00Z", false},
		{"edited after sync", "2024-02-01T10:00:00Z", "2024-01-01T10:00:30Z", false},
		{"synced after edit", "2024-01-01T10:00:00Z", "2024-02-01T10:00:30Z", true},
		// The sync time rounds down to the minute before comparing.
		{"same minute", "2024-01-01T10:00:00Z", "2024-01-01T10:00:45Z", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unchangedSinceLastSync(tt.lastEdited, tt.lastSynced); got != tt.want {
				t.Fatalf("unchangedSinceLastSync(%q, %q) = %v", tt.lastEdited, tt.lastSynced, got)
			}
		})
	}
}
