// Package syncer runs the synchronization pipeline: it projects every source
// record through the resolved field mapping under a bounded concurrency
// limit, then reconciles the projected items against the destination
// collection.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/aidanlsb/collectionsync/internal/cms"
	"github.com/aidanlsb/collectionsync/internal/mapping"
	"github.com/aidanlsb/collectionsync/internal/source"
)

// concurrencyLimit bounds in-flight record projections. Five keeps the
// engine inside the rate limits of every supported source API.
const concurrencyLimit = 5

// maxArrayFields caps how many physical sibling fields an array-valued
// property may expand into.
const maxArrayFields = 10

// Bookkeeping keys persisted against the destination collection.
const (
	KeyIntegrationID    = "integrationId"
	KeyIntegrationData  = "integrationData"
	KeyDisabledFieldIDs = "disabledFieldIds"
	KeyLastSyncedTime   = "lastSyncedTime"
	KeySlugFieldID      = "slugFieldId"
	KeyDatabaseName     = "databaseName"
	KeyFieldSettings    = "fieldSettings"
)

// ResultStatus is the overall outcome of one synchronization run.
type ResultStatus string

const (
	StatusSuccess             ResultStatus = "success"
	StatusCompletedWithErrors ResultStatus = "completed_with_errors"
	StatusError               ResultStatus = "error"
)

// Result is what one synchronization run reports back. Warnings and info
// never downgrade the status; only a non-empty error list does.
type Result struct {
	Status   ResultStatus `json:"status"`
	Errors   []ItemResult `json:"errors"`
	Warnings []ItemResult `json:"warnings"`
	Info     []ItemResult `json:"info"`
}

// ErrNoSlugField reports a plan without a chosen slug field. This is a
// programmer error: ResolvePlan never produces such a plan.
var ErrNoSlugField = errors.New("synchronize: no slug field chosen")

// Syncer drives one source adapter against one destination collection.
type Syncer struct {
	src source.Source
	col cms.Collection
	log *logrus.Logger
}

// New creates a syncer. A nil logger discards all output.
func New(src source.Source, col cms.Collection, log *logrus.Logger) *Syncer {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Syncer{src: src, col: col, log: log}
}

// Synchronize runs one full reconciliation pass: fetch all records, project
// them through the plan, and apply the resulting delta to the collection.
// Per-record problems land in the result's status lists; a failure while
// applying aborts the remaining steps and surfaces as StatusError alongside
// the partial status accumulated so far.
func (s *Syncer) Synchronize(ctx context.Context, sess *source.Session, schema *source.Schema, plan *mapping.Plan) (*Result, error) {
	if plan.SlugFieldID == "" {
		return nil, ErrNoSlugField
	}

	lastSynced, err := s.col.PluginData(ctx, KeyLastSyncedTime)
	if err != nil {
		return nil, fmt.Errorf("read last synced time: %w", err)
	}

	existingIDs, err := s.col.ItemIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collection items: %w", err)
	}
	unseen := newSeenSet(existingIDs)

	records, err := sess.Records(ctx, schema.ID)
	if err != nil {
		return &Result{Status: StatusError}, fmt.Errorf("fetch records: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"schema":  schema.ID,
		"records": len(records),
		"items":   len(existingIDs),
	}).Debug("projecting records")

	items, status, err := s.processAll(ctx, schema, records, plan, unseen, lastSynced)
	if err != nil {
		return result(StatusError, status), err
	}

	if err := s.applyToCollection(ctx, schema, plan, items, unseen.remaining()); err != nil {
		return result(StatusError, status), err
	}

	if len(status.Errors()) > 0 {
		return result(StatusCompletedWithErrors, status), nil
	}
	return result(StatusSuccess, status), nil
}

func result(rs ResultStatus, status *Status) *Result {
	return &Result{
		Status:   rs,
		Errors:   status.Errors(),
		Warnings: status.Warnings(),
		Info:     status.InfoEntries(),
	}
}

// processAll projects every record with at most concurrencyLimit in flight.
// Each record's outcome is independent; the output preserves record order so
// slug de-duplication downstream is deterministic.
func (s *Syncer) processAll(ctx context.Context, schema *source.Schema, records []source.Record, plan *mapping.Plan, unseen *seenSet, lastSynced string) ([]cms.Item, *Status, error) {
	proj := newProjector(s.src, schema, plan, unseen, lastSynced)
	status := &Status{}

	projected := make([]*cms.Item, len(records))
	errs := make([]error, len(records))

	sem := make(chan struct{}, concurrencyLimit)
	var wg sync.WaitGroup
	for i, rec := range records {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, rec source.Record) {
			defer wg.Done()
			defer func() { <-sem }()
			item, ok, err := proj.project(ctx, rec, status)
			if err != nil {
				errs[i] = err
				return
			}
			if ok {
				projected[i] = &item
			}
		}(i, rec)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, status, err
		}
	}

	items := make([]cms.Item, 0, len(projected))
	for _, item := range projected {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, status, nil
}

// seenSet tracks destination item ids not yet revisited this run. Removals
// arrive from concurrent projections, so they serialize behind one mutex.
type seenSet struct {
	mu  sync.Mutex
	ids map[string]bool
}

func newSeenSet(ids []string) *seenSet {
	set := &seenSet{ids: make(map[string]bool, len(ids))}
	for _, id := range ids {
		set.ids[id] = true
	}
	return set
}

func (s *seenSet) markSeen(id string) {
	s.mu.Lock()
	delete(s.ids, id)
	s.mu.Unlock()
}

// remaining returns the ids never marked seen, sorted for deterministic
// deletion order. Call only after the projection pass completes.
func (s *seenSet) remaining() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
