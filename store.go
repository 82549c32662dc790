package es

import (
	"context"
	"time"
)

// StreamFilter narrows a GetStream read. FromRevision is exclusive (only
// events with revision > FromRevision are returned); ToRevision is
// inclusive. Time bounds are half-open ([FromTime, ToTime)). A zero value
// of a bound means "unbounded".
type StreamFilter struct {
	FromRevision int64
	ToRevision   int64
	FromTime     time.Time
	ToTime       time.Time
}

// EventReader is the read half of the Event Store (C2): stream reads,
// head-revision lookups, and the narrow uniqueness-search path.
type EventReader interface {
	// GetStream returns events for one aggregate in ascending revision
	// order, restricted by filter.
	GetStream(ctx context.Context, kind AggregateKind, aggregateID string, filter StreamFilter) ([]StoredEvent, error)

	// HeadRevision returns the current head revision for an aggregate, or
	// 0 if the stream is empty.
	HeadRevision(ctx context.Context, kind AggregateKind, aggregateID string) (int64, error)

	// Search returns events of the given kind whose JSON data field
	// matches field=value. It exists only to support uniqueness checks
	// (e.g. "is this username already taken?") and is not a general query
	// path — see the Query Handlers for that.
	Search(ctx context.Context, kind AggregateKind, field, value string) ([]StoredEvent, error)
}

// EventAppender is the write half of the Event Store (C2).
type EventAppender interface {
	// Append writes a batch of events to the stream for (kind, aggregateID).
	//
	// expectedRevision must match the stream's current head revision. On
	// mismatch, implementations return a *ConcurrencyConflictError
	// (errors.Is(err, ErrConcurrencyConflict)). A duplicate event_id
	// returns a *DuplicateError instead. Implementations must be atomic:
	// either every event is appended, or none are.
	Append(ctx context.Context, kind AggregateKind, aggregateID string, expectedRevision int64, events []Event, md Metadata) (int64, error)
}

// EventStore is the full C2 contract: durable, concurrent, append-only
// per-aggregate streams with monotonic revisions and optimistic
// concurrency.
type EventStore interface {
	EventReader
	EventAppender
}

// SnapshotStore is C3: a single-row-per-aggregate cache of folded state.
// Implementations must remain correct if a snapshot is absent, stale, or
// (transiently) ahead of what a concurrent reader has cached.
type SnapshotStore interface {
	// Get returns the latest snapshot for an aggregate. Snapshot.Found is
	// false if none exists.
	Get(ctx context.Context, kind AggregateKind, aggregateID string) (Snapshot, error)

	// Put upserts the snapshot for an aggregate. Implementations should
	// treat failure to write a snapshot as non-fatal to the caller's
	// overall operation wherever that caller can tolerate it.
	Put(ctx context.Context, kind AggregateKind, aggregateID string, snap Snapshot) error
}
