package testutil

import (
	"context"
	"sync"

	"github.com/aidanlsb/collectionsync/internal/cms"
)

// FakeCollection is an in-memory cms.Collection that records the order of
// mutating calls for assertions.
type FakeCollection struct {
	mu sync.Mutex

	fields     []cms.Field
	items      map[string]cms.Item
	pluginData map[string]string

	// Calls lists the mutating calls in the order they arrived
	// ("setFields", "removeItems", "addItems", "setPluginData:<key>").
	Calls []string

	SetFieldsErr error
	AddItemsErr  error
}

// NewFakeCollection creates an empty collection.
func NewFakeCollection() *FakeCollection {
	return &FakeCollection{
		items:      make(map[string]cms.Item),
		pluginData: make(map[string]string),
	}
}

// WithItems seeds the collection with existing items.
func (c *FakeCollection) WithItems(items ...cms.Item) *FakeCollection {
	for _, item := range items {
		c.items[item.ID] = item
	}
	return c
}

// WithPluginData seeds a bookkeeping entry.
func (c *FakeCollection) WithPluginData(key, value string) *FakeCollection {
	c.pluginData[key] = value
	return c
}

func (c *FakeCollection) Fields(ctx context.Context) ([]cms.Field, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]cms.Field(nil), c.fields...), nil
}

func (c *FakeCollection) SetFields(ctx context.Context, fields []cms.Field) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, "setFields")
	if c.SetFieldsErr != nil {
		return c.SetFieldsErr
	}
	c.fields = append([]cms.Field(nil), fields...)
	return nil
}

func (c *FakeCollection) ItemIDs(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *FakeCollection) RemoveItems(ctx context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, "removeItems")
	for _, id := range ids {
		delete(c.items, id)
	}
	return nil
}

func (c *FakeCollection) AddItems(ctx context.Context, items []cms.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, "addItems")
	if c.AddItemsErr != nil {
		return c.AddItemsErr
	}
	for _, item := range items {
		c.items[item.ID] = item
	}
	return nil
}

func (c *FakeCollection) PluginData(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pluginData[key], nil
}

func (c *FakeCollection) SetPluginData(ctx context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, "setPluginData:"+key)
	c.pluginData[key] = value
	return nil
}

// Item returns the stored item, if present.
func (c *FakeCollection) Item(id string) (cms.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[id]
	return item, ok
}

// ItemCount returns the number of stored items.
func (c *FakeCollection) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// StoredFields returns the last field schema written.
func (c *FakeCollection) StoredFields() []cms.Field {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]cms.Field(nil), c.fields...)
}

// StoredPluginData returns the bookkeeping value for key, or "".
func (c *FakeCollection) StoredPluginData(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pluginData[key]
}
