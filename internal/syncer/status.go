package syncer

import "sync"

// ItemResult is one status entry produced while projecting or applying a
// record. Locator points at the source record (url or row reference).
type ItemResult struct {
	Locator string `json:"locator,omitempty"`
	FieldID string `json:"fieldId,omitempty"`
	Message string `json:"message"`
}

// Status accumulates errors, warnings, and info entries across concurrent
// record projections. It is a report, not a control signal: appending never
// aborts the batch.
type Status struct {
	mu       sync.Mutex
	errors   []ItemResult
	warnings []ItemResult
	info     []ItemResult
}

func (s *Status) Error(locator, fieldID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, ItemResult{Locator: locator, FieldID: fieldID, Message: message})
}

func (s *Status) Warn(locator, fieldID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, ItemResult{Locator: locator, FieldID: fieldID, Message: message})
}

func (s *Status) Info(locator, fieldID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = append(s.info, ItemResult{Locator: locator, FieldID: fieldID, Message: message})
}

// Errors returns a copy of the accumulated error entries.
func (s *Status) Errors() []ItemResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ItemResult(nil), s.errors...)
}

// Warnings returns a copy of the accumulated warning entries.
func (s *Status) Warnings() []ItemResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ItemResult(nil), s.warnings...)
}

// Info returns a copy of the accumulated info entries.
func (s *Status) InfoEntries() []ItemResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ItemResult(nil), s.info...)
}
