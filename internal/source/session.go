package source

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Session carries the per-sync caches that would otherwise live in package
// globals. Records fetched for one schema are served from the cache for the
// rest of the session; a new session starts with a cold cache, so samples
// never leak across syncs.
type Session struct {
	ID  string
	src Source

	mu      sync.Mutex
	records map[string][]Record
}

// NewSession creates a session for one sync run against src.
func NewSession(src Source) *Session {
	return &Session{
		ID:      uuid.NewString(),
		src:     src,
		records: make(map[string][]Record),
	}
}

// Source returns the session's adapter.
func (s *Session) Source() Source {
	return s.src
}

// Records fetches all records for the schema, serving repeat calls from the
// session cache.
func (s *Session) Records(ctx context.Context, schemaID string) ([]Record, error) {
	s.mu.Lock()
	cached, ok := s.records[schemaID]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	records, err := s.src.FetchRecords(ctx, schemaID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.records[schemaID] = records
	s.mu.Unlock()
	return records, nil
}

// Invalidate drops all cached records.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.records = make(map[string][]Record)
	s.mu.Unlock()
}
