// Package pgx is a PostgreSQL-backed implementation of es.EventStore,
// es.SnapshotStore, and es.UnitOfWork, sharing one pgxpool.Pool with River
// so that an event append, its snapshot write, and its outbox enqueue commit
// or roll back as a single transaction.
package pgx

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	es "github.com/userevents/core"
)

// OutboxJobArgs is the River job payload enqueued for every appended event
// (one job per event). The outbox worker (queue/river.OutboxWorker) decodes
// Data itself using the same Registry.
type OutboxJobArgs struct {
	AggregateKind es.AggregateKind `json:"aggregate_kind"`
	AggregateID   string           `json:"aggregate_id"`
	EventID       string           `json:"event_id"`
	EventKind     string           `json:"event_kind"`
	SchemaVersion string           `json:"schema_version"`
	Revision      int64            `json:"revision"`
	Data          []byte           `json:"data"`
	Metadata      es.Metadata      `json:"metadata,omitempty"`
}

func (OutboxJobArgs) Kind() string { return "event_outbox" }

// OutboxMaxAttempts bounds River's retries of a failing outbox job before it
// moves to the discarded (dead-letter) state.
const OutboxMaxAttempts = 5

// Store is a PostgreSQL-backed EventStore + SnapshotStore + UnitOfWork. One
// Store is shared across every aggregate kind; each kind's stream lives in
// the same tables, partitioned by the aggregate_kind column.
type Store struct {
	pool     *pgxpool.Pool
	registry *es.Registry
	river    *river.Client[pgx.Tx]
	tracer   trace.Tracer
}

// New creates a Store. registry must have every event kind the caller will
// ever append registered before first use; riverClient may be nil, in which
// case Enqueue becomes a no-op (useful for stores that never participate in
// dispatch, e.g. a read replica).
func New(pool *pgxpool.Pool, registry *es.Registry, riverClient *river.Client[pgx.Tx]) *Store {
	return &Store{
		pool:     pool,
		registry: registry,
		river:    riverClient,
		tracer:   otel.Tracer("userevents/stores/pgx"),
	}
}

// Begin opens a Unit of Work backed by a real pgx transaction.
func (s *Store) Begin(ctx context.Context) (es.Tx, error) {
	pgxTx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, &es.StorageError{Op: "begin", Cause: err}
	}
	return &tx{store: s, pgxTx: pgxTx}, nil
}

var _ es.UnitOfWork = (*Store)(nil)

type tx struct {
	store *Store
	pgxTx pgx.Tx
	done  bool
}

var _ es.Tx = (*tx)(nil)

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.pgxTx.Commit(ctx); err != nil {
		return &es.StorageError{Op: "commit", Cause: err}
	}
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.pgxTx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		return &es.StorageError{Op: "rollback", Cause: err}
	}
	return nil
}

func (t *tx) HeadRevision(ctx context.Context, kind es.AggregateKind, aggregateID string) (int64, error) {
	var head int64
	err := t.pgxTx.QueryRow(ctx,
		`SELECT COALESCE(MAX(revision), 0) FROM event_stream WHERE aggregate_kind = $1 AND aggregate_id = $2`,
		kind, aggregateID,
	).Scan(&head)
	if err != nil {
		return 0, &es.StorageError{Op: "head_revision", Cause: err}
	}
	return head, nil
}

func (t *tx) Append(ctx context.Context, kind es.AggregateKind, aggregateID string, expectedRevision int64, events []es.Event, md es.Metadata) (int64, error) {
	ctx, span := t.store.tracer.Start(ctx, "eventstore.append", trace.WithAttributes(
		attribute.String("aggregate.kind", string(kind)),
		attribute.String("aggregate.id", aggregateID),
		attribute.Int64("expected.revision", expectedRevision),
		attribute.Int("event.count", len(events)),
	))
	defer span.End()

	current, err := t.HeadRevision(ctx, kind, aggregateID)
	if err != nil {
		return 0, err
	}
	if current != expectedRevision {
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return 0, &es.ConcurrencyConflictError{AggregateID: aggregateID, ExpectedRevision: expectedRevision, ActualRevision: current}
	}
	if len(events) == 0 {
		return expectedRevision, nil
	}

	now := time.Now().UTC()
	stored := make([]es.StoredEvent, 0, len(events))
	for _, e := range events {
		eventKind, schemaVersion, data, err := t.store.registry.Encode(e)
		if err != nil {
			return 0, err
		}
		current++

		var eventID string
		err = t.pgxTx.QueryRow(ctx,
			`INSERT INTO event_stream
				(aggregate_kind, aggregate_id, revision, event_kind, schema_version, data, metadata, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING event_id::text`,
			kind, aggregateID, current, eventKind, schemaVersion, data, metadataJSON(md), now,
		).Scan(&eventID)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, &es.ConcurrencyConflictError{AggregateID: aggregateID, ExpectedRevision: expectedRevision, ActualRevision: current}
			}
			return 0, &es.StorageError{Op: "append", Cause: err}
		}

		stored = append(stored, es.StoredEvent{
			EventID:       eventID,
			AggregateID:   aggregateID,
			AggregateKind: kind,
			EventKindTag:  eventKind,
			SchemaVer:     schemaVersion,
			Revision:      current,
			Timestamp:     now,
			Data:          e,
			Metadata:      md,
		})
		span.AddEvent("event.appended", trace.WithAttributes(
			attribute.String("event.kind", eventKind),
			attribute.Int64("event.revision", current),
		))
	}

	if err := t.Enqueue(ctx, stored); err != nil {
		return 0, err
	}

	span.SetAttributes(attribute.Bool("append.success", true))
	return current, nil
}

func (t *tx) GetStream(ctx context.Context, kind es.AggregateKind, aggregateID string, filter es.StreamFilter) ([]es.StoredEvent, error) {
	ctx, span := t.store.tracer.Start(ctx, "eventstore.get_stream", trace.WithAttributes(
		attribute.String("aggregate.kind", string(kind)),
		attribute.String("aggregate.id", aggregateID),
	))
	defer span.End()

	query := `SELECT event_id::text, revision, event_kind, schema_version, data, metadata, recorded_at
			  FROM event_stream
			  WHERE aggregate_kind = $1 AND aggregate_id = $2 AND revision > $3`
	args := []any{kind, aggregateID, filter.FromRevision}
	if filter.ToRevision > 0 {
		query += fmt.Sprintf(" AND revision <= $%d", len(args)+1)
		args = append(args, filter.ToRevision)
	}
	if !filter.FromTime.IsZero() {
		query += fmt.Sprintf(" AND recorded_at >= $%d", len(args)+1)
		args = append(args, filter.FromTime)
	}
	if !filter.ToTime.IsZero() {
		query += fmt.Sprintf(" AND recorded_at < $%d", len(args)+1)
		args = append(args, filter.ToTime)
	}
	query += " ORDER BY revision ASC"

	rows, err := t.pgxTx.Query(ctx, query, args...)
	if err != nil {
		return nil, &es.StorageError{Op: "get_stream", Cause: err}
	}
	defer rows.Close()

	out, err := scanEvents(rows, kind, t.store.registry)
	span.SetAttributes(attribute.Int("event.count", len(out)))
	return out, err
}

func (t *tx) Search(ctx context.Context, kind es.AggregateKind, field, value string) ([]es.StoredEvent, error) {
	rows, err := t.pgxTx.Query(ctx,
		`SELECT event_id::text, aggregate_id, revision, event_kind, schema_version, data, metadata, recorded_at
		 FROM event_stream
		 WHERE aggregate_kind = $1 AND data @> jsonb_build_object($2::text, $3::text)
		 ORDER BY recorded_at ASC`,
		kind, field, value,
	)
	if err != nil {
		return nil, &es.StorageError{Op: "search", Cause: err}
	}
	defer rows.Close()

	var out []es.StoredEvent
	for rows.Next() {
		var eventID, aggregateID, eventKind, schemaVersion string
		var data, metaRaw []byte
		var revision int64
		var recordedAt time.Time
		if err := rows.Scan(&eventID, &aggregateID, &revision, &eventKind, &schemaVersion, &data, &metaRaw, &recordedAt); err != nil {
			return nil, &es.StorageError{Op: "search_scan", Cause: err}
		}
		payload, err := t.store.registry.Decode(eventKind, schemaVersion, data)
		if err != nil {
			return nil, err
		}
		out = append(out, es.StoredEvent{
			EventID:       eventID,
			AggregateID:   aggregateID,
			AggregateKind: kind,
			EventKindTag:  eventKind,
			SchemaVer:     schemaVersion,
			Revision:      revision,
			Timestamp:     recordedAt,
			Data:          payload,
			Metadata:      decodeMetadata(metaRaw),
		})
	}
	return out, rows.Err()
}

func (t *tx) Get(ctx context.Context, kind es.AggregateKind, aggregateID string) (es.Snapshot, error) {
	var raw []byte
	var revision int64
	var createdAt, updatedAt time.Time
	err := t.pgxTx.QueryRow(ctx,
		`SELECT state, revision, created_at, updated_at FROM snapshot WHERE aggregate_kind = $1 AND aggregate_id = $2`,
		kind, aggregateID,
	).Scan(&raw, &revision, &createdAt, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return es.Snapshot{Found: false}, nil
		}
		return es.Snapshot{}, &es.StorageError{Op: "get_snapshot", Cause: err}
	}
	var state map[string]any
	if err := unmarshalJSON(raw, &state); err != nil {
		return es.Snapshot{}, &es.StorageError{Op: "decode_snapshot", Cause: err}
	}
	return es.Snapshot{State: state, Revision: revision, Found: true, CreatedAt: createdAt, UpdatedAt: updatedAt}, nil
}

func (t *tx) Put(ctx context.Context, kind es.AggregateKind, aggregateID string, snap es.Snapshot) error {
	data, err := marshalJSON(snap.State)
	if err != nil {
		return &es.StorageError{Op: "encode_snapshot", Cause: err}
	}
	_, err = t.pgxTx.Exec(ctx,
		`INSERT INTO snapshot (aggregate_kind, aggregate_id, revision, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())
		 ON CONFLICT (aggregate_kind, aggregate_id) DO UPDATE
		 SET revision = EXCLUDED.revision, state = EXCLUDED.state, updated_at = now()`,
		kind, aggregateID, snap.Revision, data,
	)
	if err != nil {
		return &es.StorageError{Op: "put_snapshot", Cause: err}
	}
	return nil
}

// Enqueue hands each event to River as an OutboxJobArgs job, inserted via
// InsertTx against this same transaction (ADR pattern: write + enqueue
// commit or roll back together).
func (t *tx) Enqueue(ctx context.Context, events []es.StoredEvent) error {
	if t.store.river == nil {
		return nil
	}
	for _, se := range events {
		data, err := marshalJSON(se.Data)
		if err != nil {
			return &es.StorageError{Op: "encode_outbox", Cause: err}
		}
		if _, err := t.store.river.InsertTx(ctx, t.pgxTx, OutboxJobArgs{
			AggregateKind: se.AggregateKind,
			AggregateID:   se.AggregateID,
			EventID:       se.EventID,
			EventKind:     se.EventKindTag,
			SchemaVersion: se.SchemaVer,
			Revision:      se.Revision,
			Data:          data,
			Metadata:      se.Metadata,
		}, &river.InsertOpts{MaxAttempts: OutboxMaxAttempts}); err != nil {
			return &es.StorageError{Op: "enqueue_outbox", Cause: err}
		}
	}
	return nil
}

func scanEvents(rows pgx.Rows, kind es.AggregateKind, registry *es.Registry) ([]es.StoredEvent, error) {
	var out []es.StoredEvent
	for rows.Next() {
		var eventID, eventKind, schemaVersion string
		var data, metaRaw []byte
		var revision int64
		var recordedAt time.Time
		if err := rows.Scan(&eventID, &revision, &eventKind, &schemaVersion, &data, &metaRaw, &recordedAt); err != nil {
			return nil, &es.StorageError{Op: "scan_event", Cause: err}
		}
		payload, err := registry.Decode(eventKind, schemaVersion, data)
		if err != nil {
			return nil, err
		}
		out = append(out, es.StoredEvent{
			EventID:       eventID,
			AggregateKind: kind,
			EventKindTag:  eventKind,
			SchemaVer:     schemaVersion,
			Revision:      revision,
			Timestamp:     recordedAt,
			Data:          payload,
			Metadata:      decodeMetadata(metaRaw),
		})
	}
	return out, rows.Err()
}
