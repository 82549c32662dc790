// Package mem is an in-memory EventStore/SnapshotStore/UnitOfWork
// implementation. It is concurrency-safe and suitable for tests,
// prototypes, and local runs; state is lost on process restart.
package mem

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	es "github.com/userevents/core"
)

type streamKey struct {
	kind es.AggregateKind
	id   string
}

// Store is an in-memory implementation of es.EventStore, es.SnapshotStore,
// and es.UnitOfWork combined.
type Store struct {
	mu        sync.Mutex
	streams   map[streamKey][]es.StoredEvent
	snapshots map[streamKey]es.Snapshot
	eventIDs  map[string]struct{}
	onEnqueue func(ctx context.Context, events []es.StoredEvent) error
}

// Option configures a Store.
type Option func(*Store)

// WithEnqueuer routes outbox enqueues to fn instead of the default no-op,
// letting tests wire a real dispatch.Queue (e.g. the in-process channel
// queue) straight onto the in-memory store.
func WithEnqueuer(fn func(ctx context.Context, events []es.StoredEvent) error) Option {
	return func(s *Store) { s.onEnqueue = fn }
}

// New creates an empty in-memory Store.
func New(opts ...Option) *Store {
	s := &Store{
		streams:   make(map[streamKey][]es.StoredEvent),
		snapshots: make(map[streamKey]es.Snapshot),
		eventIDs:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin starts a Unit of Work. The returned Tx holds the store's lock for
// its entire lifetime, so exactly one Tx may be open at a time — the
// simplest possible honoring of "the UoW is single-threaded; nesting is
// forbidden".
func (s *Store) Begin(_ context.Context) (es.Tx, error) {
	s.mu.Lock()
	return &tx{store: s}, nil
}

type tx struct {
	store *Store
	done  bool
}

func (t *tx) Commit(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *tx) GetStream(_ context.Context, kind es.AggregateKind, aggregateID string, filter es.StreamFilter) ([]es.StoredEvent, error) {
	return t.store.getStream(kind, aggregateID, filter), nil
}

func (t *tx) HeadRevision(_ context.Context, kind es.AggregateKind, aggregateID string) (int64, error) {
	return t.store.headRevision(kind, aggregateID), nil
}

func (t *tx) Search(_ context.Context, kind es.AggregateKind, field, value string) ([]es.StoredEvent, error) {
	return t.store.search(kind, field, value), nil
}

func (t *tx) Append(ctx context.Context, kind es.AggregateKind, aggregateID string, expectedRevision int64, events []es.Event, md es.Metadata) (int64, error) {
	revision, staged, err := t.store.append(kind, aggregateID, expectedRevision, events, md)
	if err != nil {
		return 0, err
	}
	if len(staged) > 0 {
		if err := t.Enqueue(ctx, staged); err != nil {
			return 0, err
		}
	}
	return revision, nil
}

func (t *tx) Get(_ context.Context, kind es.AggregateKind, aggregateID string) (es.Snapshot, error) {
	return t.store.getSnapshot(kind, aggregateID), nil
}

func (t *tx) Put(_ context.Context, kind es.AggregateKind, aggregateID string, snap es.Snapshot) error {
	t.store.putSnapshot(kind, aggregateID, snap)
	return nil
}

func (t *tx) Enqueue(ctx context.Context, events []es.StoredEvent) error {
	if t.store.onEnqueue == nil {
		return nil
	}
	return t.store.onEnqueue(ctx, events)
}

var (
	_ es.Tx         = (*tx)(nil)
	_ es.UnitOfWork = (*Store)(nil)
)

// The unlocked helpers below assume the caller already holds s.mu — always
// true, since they're only reachable through a tx and Begin holds the lock
// for the Tx's entire lifetime.

func (s *Store) headRevision(kind es.AggregateKind, aggregateID string) int64 {
	seq := s.streams[streamKey{kind, aggregateID}]
	if len(seq) == 0 {
		return 0
	}
	return seq[len(seq)-1].Revision
}

func (s *Store) append(kind es.AggregateKind, aggregateID string, expectedRevision int64, events []es.Event, md es.Metadata) (int64, []es.StoredEvent, error) {
	key := streamKey{kind, aggregateID}
	seq := s.streams[key]
	current := s.headRevision(kind, aggregateID)
	if current != expectedRevision {
		return 0, nil, &es.ConcurrencyConflictError{
			AggregateID:      aggregateID,
			ExpectedRevision: expectedRevision,
			ActualRevision:   current,
		}
	}
	if len(events) == 0 {
		return expectedRevision, nil, nil
	}

	now := time.Now().UTC()
	staged := make([]es.StoredEvent, 0, len(events))
	for _, e := range events {
		id := uuid.NewString()
		current++
		staged = append(staged, es.StoredEvent{
			EventID:       id,
			AggregateID:   aggregateID,
			AggregateKind: kind,
			EventKindTag:  es.EventKind(e),
			SchemaVer:     es.SchemaVersion(e),
			Revision:      current,
			Timestamp:     now,
			Data:          e,
			Metadata:      md,
		})
	}
	for _, se := range staged {
		s.eventIDs[se.EventID] = struct{}{}
	}
	s.streams[key] = append(seq, staged...)
	return current, staged, nil
}

func (s *Store) getStream(kind es.AggregateKind, aggregateID string, filter es.StreamFilter) []es.StoredEvent {
	seq := s.streams[streamKey{kind, aggregateID}]
	out := make([]es.StoredEvent, 0, len(seq))
	for _, se := range seq {
		if se.Revision <= filter.FromRevision {
			continue
		}
		if filter.ToRevision > 0 && se.Revision > filter.ToRevision {
			continue
		}
		if !filter.FromTime.IsZero() && se.Timestamp.Before(filter.FromTime) {
			continue
		}
		if !filter.ToTime.IsZero() && !se.Timestamp.Before(filter.ToTime) {
			continue
		}
		out = append(out, se)
	}
	return out
}

func (s *Store) search(kind es.AggregateKind, field, value string) []es.StoredEvent {
	var out []es.StoredEvent
	for key, seq := range s.streams {
		if key.kind != kind {
			continue
		}
		for _, se := range seq {
			if fieldMatches(se.Data, field, value) {
				out = append(out, se)
			}
		}
	}
	return out
}

// fielder is implemented by event payloads that expose searchable string
// fields (e.g. user.Created's username/email). The mem store is a test
// double; rather than reflect generically over every payload shape it asks
// payloads to opt in, mirroring how stores/pgx indexes specific JSONB paths.
type fielder interface {
	SearchField(name string) (string, bool)
}

func fieldMatches(data es.Event, field, value string) bool {
	f, ok := data.(fielder)
	if !ok {
		return false
	}
	v, ok := f.SearchField(field)
	return ok && strings.EqualFold(v, value)
}

func (s *Store) getSnapshot(kind es.AggregateKind, aggregateID string) es.Snapshot {
	snap, ok := s.snapshots[streamKey{kind, aggregateID}]
	if !ok {
		return es.Snapshot{Found: false}
	}
	return snap
}

func (s *Store) putSnapshot(kind es.AggregateKind, aggregateID string, snap es.Snapshot) {
	key := streamKey{kind, aggregateID}
	now := time.Now().UTC()
	existing, ok := s.snapshots[key]
	snap.Found = true
	if ok {
		snap.CreatedAt = existing.CreatedAt
	} else {
		snap.CreatedAt = now
	}
	snap.UpdatedAt = now
	s.snapshots[key] = snap
}
