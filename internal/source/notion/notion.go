// Package notion implements the Notion database source adapter.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/source"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"
)

// Reserved field ids for values synthesized from page-level metadata rather
// than database properties.
const (
	PageContentFieldID = "page-content"
	PageCoverFieldID   = "page-cover"
	PageIconFieldID    = "page-icon"
)

// Source syncs one Notion database.
type Source struct {
	databaseID string
	token      string
	baseURL    string
	client     *http.Client
}

// Option configures a Source.
type Option func(*Source)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(u string) Option {
	return func(s *Source) { s.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) { s.client = c }
}

// New creates an adapter for the given database.
func New(databaseID, token string, opts ...Option) *Source {
	s := &Source{
		databaseID: databaseID,
		token:      token,
		baseURL:    defaultBaseURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements source.Source.
func (s *Source) Name() string { return "notion" }

type wireProperty struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Select      *wireOptionList `json:"select"`
	MultiSelect *wireOptionList `json:"multi_select"`
	Status      *wireOptionList `json:"status"`
}

type wireOptionList struct {
	Options []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"options"`
}

// FetchSchema implements source.Source.
func (s *Source) FetchSchema(ctx context.Context) (*source.Schema, error) {
	var payload struct {
		ID         string                  `json:"id"`
		Title      []json.RawMessage       `json:"title"`
		Properties map[string]wireProperty `json:"properties"`
	}
	if err := s.call(ctx, http.MethodGet, "databases/"+s.databaseID, nil, &payload); err != nil {
		return nil, fmt.Errorf("fetch database schema: %w", err)
	}

	schema := &source.Schema{ID: payload.ID, Name: titleText(payload.Title)}
	for _, prop := range payload.Properties {
		p := source.Property{
			ID:   prop.ID,
			Name: prop.Name,
			Kind: source.Kind(prop.Type),
		}
		for _, list := range []*wireOptionList{prop.Select, prop.MultiSelect, prop.Status} {
			if list == nil {
				continue
			}
			for _, option := range list.Options {
				p.Options = append(p.Options, source.Option{ID: option.ID, Name: option.Name})
			}
		}
		schema.Properties = append(schema.Properties, p)
	}
	return schema, nil
}

func titleText(spans []json.RawMessage) string {
	var out string
	for _, span := range spans {
		var item struct {
			PlainText string `json:"plain_text"`
		}
		if json.Unmarshal(span, &item) == nil {
			out += item.PlainText
		}
	}
	return out
}

// FetchRecords implements source.Source, following cursor pagination to
// completion. Property values are re-keyed by property id, and page-level
// metadata (cover, icon) is carried under the reserved field ids.
func (s *Source) FetchRecords(ctx context.Context, schemaID string) ([]source.Record, error) {
	var records []source.Record
	cursor := ""

	for {
		body := map[string]any{}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		var page struct {
			Results []struct {
				ID             string                    `json:"id"`
				URL            string                    `json:"url"`
				LastEditedTime string                    `json:"last_edited_time"`
				Cover          map[string]any            `json:"cover"`
				Icon           map[string]any            `json:"icon"`
				Properties     map[string]map[string]any `json:"properties"`
			} `json:"results"`
			NextCursor string `json:"next_cursor"`
			HasMore    bool   `json:"has_more"`
		}
		if err := s.call(ctx, http.MethodPost, "databases/"+schemaID+"/query", body, &page); err != nil {
			return nil, fmt.Errorf("query database: %w", err)
		}

		for _, result := range page.Results {
			values := make(map[string]any, len(result.Properties)+2)
			for _, prop := range result.Properties {
				if id, ok := prop["id"].(string); ok {
					values[id] = prop
				}
			}
			if result.Cover != nil {
				values[PageCoverFieldID] = result.Cover
			}
			if result.Icon != nil {
				values[PageIconFieldID] = result.Icon
			}
			records = append(records, source.Record{
				ID:         result.ID,
				Locator:    result.URL,
				Values:     values,
				LastEdited: result.LastEditedTime,
			})
		}

		if !page.HasMore {
			return records, nil
		}
		cursor = page.NextCursor
	}
}

// PageFields implements source.PageLevelSource. The icon field can also be
// mapped to a string to import emoji icons.
func (s *Source) PageFields() []source.PageField {
	return []source.PageField{
		{ID: PageContentFieldID, Name: "Content", Types: []cms.FieldType{cms.TypeFormattedText}},
		{ID: PageCoverFieldID, Name: "Cover Image", Types: []cms.FieldType{cms.TypeImage}},
		{ID: PageIconFieldID, Name: "Icon", Types: []cms.FieldType{cms.TypeImage, cms.TypeString}},
	}
}

// PageFieldAuto implements source.PageLevelSource. Cover and icon fields are
// auto-disabled when no sampled page carries them; the icon's suggested type
// follows the majority icon flavor (emoji imports as string, uploaded or
// external icons as images).
func (s *Source) PageFieldAuto(id string, records []source.Record) (cms.FieldType, bool) {
	switch id {
	case PageCoverFieldID:
		for _, rec := range records {
			if _, ok := rec.Values[PageCoverFieldID]; ok {
				return "", false
			}
		}
		return "", true

	case PageIconFieldID:
		emoji, image := 0, 0
		for _, rec := range records {
			icon, ok := rec.Values[PageIconFieldID].(map[string]any)
			if !ok {
				continue
			}
			if icon["type"] == "emoji" {
				emoji++
			} else {
				image++
			}
		}
		if emoji == 0 && image == 0 {
			return "", true
		}
		if emoji > image {
			return cms.TypeString, false
		}
		return cms.TypeImage, false
	}

	return "", false
}

// IsPageLevelFieldID implements source.PageLevelSource.
func (s *Source) IsPageLevelFieldID(id string) bool {
	return id == PageContentFieldID || id == PageCoverFieldID || id == PageIconFieldID
}

// PageValues implements source.PageLevelSource.
func (s *Source) PageValues(ctx context.Context, rec source.Record, want func(id string) (cms.Field, bool), skipContent bool) (map[string]any, error) {
	out := make(map[string]any)

	if _, ok := want(PageContentFieldID); ok && !skipContent {
		html, err := s.pageContentHTML(ctx, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch page content: %w", err)
		}
		out[PageContentFieldID] = html
	}

	if _, ok := want(PageCoverFieldID); ok {
		if cover, ok := rec.Values[PageCoverFieldID].(map[string]any); ok {
			if cover["type"] == "external" {
				if external, ok := cover["external"].(map[string]any); ok {
					if url, ok := external["url"].(string); ok {
						out[PageCoverFieldID] = url
					}
				}
			}
		}
	}

	if field, ok := want(PageIconFieldID); ok {
		if icon, ok := rec.Values[PageIconFieldID].(map[string]any); ok {
			if value := iconValue(icon, field.Type); value != "" {
				out[PageIconFieldID] = value
			}
		}
	}

	return out, nil
}

// iconValue resolves a page icon against the mapped field type: emoji icons
// only import as strings, uploaded or external icons only as images.
func iconValue(icon map[string]any, dest cms.FieldType) string {
	iconType, _ := icon["type"].(string)

	switch dest {
	case cms.TypeString:
		if iconType == "emoji" {
			emoji, _ := icon["emoji"].(string)
			return emoji
		}
	case cms.TypeImage:
		if payload, ok := icon[iconType].(map[string]any); ok {
			url, _ := payload["url"].(string)
			return url
		}
	}
	return ""
}

// pageContentHTML fetches a page's block children and renders them to HTML.
func (s *Source) pageContentHTML(ctx context.Context, pageID string) (string, error) {
	var blocks []map[string]any
	cursor := ""

	for {
		path := "blocks/" + pageID + "/children"
		if cursor != "" {
			path += "?start_cursor=" + cursor
		}

		var page struct {
			Results    []map[string]any `json:"results"`
			NextCursor string           `json:"next_cursor"`
			HasMore    bool             `json:"has_more"`
		}
		if err := s.call(ctx, http.MethodGet, path, nil, &page); err != nil {
			return "", err
		}
		blocks = append(blocks, page.Results...)

		if !page.HasMore {
			return blocksToHTML(blocks), nil
		}
		cursor = page.NextCursor
	}
}

func (s *Source) call(ctx context.Context, method, path string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(encoded)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/"+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notion API returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
