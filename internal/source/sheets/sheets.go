// Package sheets implements the Google Sheets source adapter. One worksheet
// maps to one collection: the header row supplies the columns and every
// following non-empty row becomes a record.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"unicode/utf16"

	"github.com/aidanlsb/collectionsync/internal/source"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// Source syncs one worksheet of one spreadsheet.
type Source struct {
	spreadsheetID string
	sheetID       string
	token         string
	baseURL       string
	client        *http.Client

	mu   sync.Mutex
	grid *grid
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

// New creates an adapter for the given spreadsheet and worksheet.
func New(spreadsheetID, sheetID, token string, opts ...Option) *Source {
	s := &Source{
		spreadsheetID: spreadsheetID,
		sheetID:       sheetID,
		token:         token,
		baseURL:       defaultBaseURL,
		client:        http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements source.Source.
func (s *Source) Name() string { return "sheets" }

// cell is one decoded grid cell; the zero value is an empty cell.
type cell struct {
	EffectiveFormat struct {
		NumberFormat struct {
			Type string `json:"type"`
		} `json:"numberFormat"`
	} `json:"effectiveFormat"`
	EffectiveValue *effectiveValue `json:"effectiveValue"`
	FormattedValue string          `json:"formattedValue"`
	Hyperlink      string `json:"hyperlink"`
	TextFormatRuns []struct {
		Format struct {
			Link *struct {
				URI string `json:"uri"`
			} `json:"link"`
		} `json:"format"`
	} `json:"textFormatRuns"`
}

type effectiveValue struct {
	BoolValue    *bool    `json:"boolValue"`
	NumberValue  *float64 `json:"numberValue"`
	StringValue  *string  `json:"stringValue"`
	FormulaValue *string  `json:"formulaValue"`
}

// grid is a fetched worksheet: the sheet name, the header row, and the data
// rows with empty rows already dropped.
type grid struct {
	title  string
	header []cell
	rows   [][]cell
}

// FetchSchema implements source.Source. Column ids are content hashes of the
// header text, so a column keeps its identity when it moves but not when it
// is renamed.
func (s *Source) FetchSchema(ctx context.Context) (*source.Schema, error) {
	g, err := s.fetchGrid(ctx)
	if err != nil {
		return nil, err
	}

	schema := &source.Schema{ID: s.sheetID, Name: g.title}
	for i, header := range g.header {
		if header.FormattedValue == "" {
			continue
		}
		schema.Properties = append(schema.Properties, source.Property{
			ID:   ColumnID(header.FormattedValue),
			Name: header.FormattedValue,
			Kind: inferColumnKind(g.rows, i),
		})
	}
	return schema, nil
}

// FetchRecords implements source.Source. Record ids are positional row
// indices over the non-empty rows, matching the ids persisted by previous
// syncs of the same sheet.
func (s *Source) FetchRecords(ctx context.Context, schemaID string) ([]source.Record, error) {
	g, err := s.fetchGrid(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]source.Record, 0, len(g.rows))
	for i, row := range g.rows {
		values := make(map[string]any, len(row))
		for col, c := range row {
			if col >= len(g.header) || g.header[col].FormattedValue == "" {
				continue
			}
			c := c
			values[ColumnID(g.header[col].FormattedValue)] = &c
		}
		records = append(records, source.Record{
			ID:      strconv.Itoa(i),
			Locator: fmt.Sprintf("row %d", i+2),
			Values:  values,
		})
	}
	return records, nil
}

// fetchGrid fetches the worksheet grid once per adapter instance.
func (s *Source) fetchGrid(ctx context.Context) (*grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grid != nil {
		return s.grid, nil
	}

	title, err := s.sheetTitle(ctx)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Sheets []struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
			Data []struct {
				RowData []struct {
					Values []cell `json:"values"`
				} `json:"rowData"`
			} `json:"data"`
		} `json:"sheets"`
	}
	params := url.Values{
		"ranges":          {title},
		"includeGridData": {"true"},
		"fields":          {"sheets(properties,data)"},
	}
	if err := s.get(ctx, s.spreadsheetID+"?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("fetch sheet grid: %w", err)
	}
	if len(payload.Sheets) == 0 || len(payload.Sheets[0].Data) == 0 {
		return nil, fmt.Errorf("sheet %q has no grid data", title)
	}

	rowData := payload.Sheets[0].Data[0].RowData
	if len(rowData) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", title)
	}

	g := &grid{title: payload.Sheets[0].Properties.Title, header: rowData[0].Values}
	for _, row := range rowData[1:] {
		if rowHasContent(row.Values) {
			g.rows = append(g.rows, row.Values)
		}
	}

	s.grid = g
	return g, nil
}

func rowHasContent(row []cell) bool {
	for _, c := range row {
		if c.FormattedValue != "" {
			return true
		}
	}
	return false
}

// sheetTitle resolves the worksheet id to its title, which the grid fetch
// needs as a range.
func (s *Source) sheetTitle(ctx context.Context) (string, error) {
	var payload struct {
		Sheets []struct {
			Properties struct {
				SheetID json.Number `json:"sheetId"`
				Title   string      `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := s.get(ctx, s.spreadsheetID+"?fields=sheets.properties(title,sheetId)", &payload); err != nil {
		return "", fmt.Errorf("fetch spreadsheet metadata: %w", err)
	}

	for _, sheet := range payload.Sheets {
		if sheet.Properties.SheetID.String() == s.sheetID {
			return sheet.Properties.Title, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found in spreadsheet %q", s.sheetID, s.spreadsheetID)
}

func (s *Source) get(ctx context.Context, pathAndQuery string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+pathAndQuery, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sheets API returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ColumnID derives a stable 32-hex-digit id from a header cell's text. The
// hash runs over UTF-16 code units with wrapping 32-bit arithmetic so ids
// stay identical to those persisted by earlier syncs.
func ColumnID(header string) string {
	if header == "" {
		return ""
	}

	var hash int32
	for _, unit := range utf16.Encode([]rune(header)) {
		hash = hash*31 + int32(unit)
	}
	magnitude := int64(hash)
	if magnitude < 0 {
		magnitude = -magnitude
	}
	return fmt.Sprintf("%032x", magnitude)
}

// ColumnLetter renders a zero-based column index in A1 notation.
func ColumnLetter(index int) string {
	letter := ""
	for index >= 0 {
		letter = string(rune('A'+index%26)) + letter
		index = index/26 - 1
	}
	return letter
}
