// Package airtable implements the Airtable source adapter.
package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aidanlsb/collectionsync/internal/source"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Source syncs one table of one Airtable base.
type Source struct {
	baseID  string
	tableID string
	token   string
	baseURL string
	client  *http.Client
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

// New creates an adapter for the given base and table.
func New(baseID, tableID, token string, opts ...Option) *Source {
	s := &Source{
		baseID:  baseID,
		tableID: tableID,
		token:   token,
		baseURL: defaultBaseURL,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements source.Source.
func (s *Source) Name() string { return "airtable" }

type tableSchema struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Fields []wireField `json:"fields"`
}

type wireField struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Options json.RawMessage `json:"options"`
}

type wireOptions struct {
	Choices []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"choices"`
	Precision      int    `json:"precision"`
	Symbol         string `json:"symbol"`
	DurationFormat string `json:"durationFormat"`
	IsReversed     bool   `json:"isReversed"`
	Result         *struct {
		Type    string          `json:"type"`
		Options json.RawMessage `json:"options"`
	} `json:"result"`
}

// FetchSchema implements source.Source.
func (s *Source) FetchSchema(ctx context.Context) (*source.Schema, error) {
	var payload struct {
		Tables []tableSchema `json:"tables"`
	}
	if err := s.get(ctx, fmt.Sprintf("meta/bases/%s/tables", s.baseID), nil, &payload); err != nil {
		return nil, fmt.Errorf("fetch base schema: %w", err)
	}

	for _, table := range payload.Tables {
		if table.ID != s.tableID {
			continue
		}
		schema := &source.Schema{ID: table.ID, Name: table.Name}
		for _, field := range table.Fields {
			schema.Properties = append(schema.Properties, decodeProperty(field))
		}
		return schema, nil
	}

	return nil, fmt.Errorf("table %q not found in base %q", s.tableID, s.baseID)
}

func decodeProperty(field wireField) source.Property {
	p := source.Property{
		ID:   field.ID,
		Name: field.Name,
		Kind: source.Kind(field.Type),
	}
	if len(field.Options) == 0 {
		return p
	}

	var opts wireOptions
	if err := json.Unmarshal(field.Options, &opts); err != nil {
		return p
	}

	for _, choice := range opts.Choices {
		p.Options = append(p.Options, source.Option{ID: choice.ID, Name: choice.Name})
	}
	p.Precision = opts.Precision
	p.Symbol = opts.Symbol
	p.DurationFormat = opts.DurationFormat
	p.Reversed = opts.IsReversed

	if opts.Result != nil {
		result := decodeProperty(wireField{
			ID:      field.ID,
			Name:    field.Name,
			Type:    opts.Result.Type,
			Options: opts.Result.Options,
		})
		p.Result = &result
	}

	return p
}

// FetchRecords implements source.Source, following offset pagination to
// completion.
func (s *Source) FetchRecords(ctx context.Context, schemaID string) ([]source.Record, error) {
	var records []source.Record
	offset := ""

	for {
		params := url.Values{
			"cellFormat":            {"json"},
			"returnFieldsByFieldId": {"true"},
		}
		if offset != "" {
			params.Set("offset", offset)
		}

		var page struct {
			Records []struct {
				ID     string         `json:"id"`
				Fields map[string]any `json:"fields"`
			} `json:"records"`
			Offset string `json:"offset"`
		}
		if err := s.get(ctx, fmt.Sprintf("%s/%s", s.baseID, schemaID), params, &page); err != nil {
			return nil, fmt.Errorf("fetch records: %w", err)
		}

		for _, rec := range page.Records {
			records = append(records, source.Record{
				ID:      rec.ID,
				Locator: fmt.Sprintf("https://airtable.com/%s/%s/%s", s.baseID, schemaID, rec.ID),
				Values:  rec.Fields,
			})
		}

		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

func (s *Source) get(ctx context.Context, path string, params url.Values, out any) error {
	u := s.baseURL + "/" + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("airtable API returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
