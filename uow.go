package es

import (
	"context"
)

// OutboxEnqueuer is the narrow interface the Unit of Work uses to hand
// freshly-committed events to the dispatcher's outbox (C7), inside the same
// transaction as the event append and snapshot write.
type OutboxEnqueuer interface {
	Enqueue(ctx context.Context, events []StoredEvent) error
}

// Tx is a single Unit of Work scope (C5): every event append, snapshot
// upsert, and outbox enqueue issued through it shares one transactional
// context. A Tx is single-threaded and must not be used after Commit or
// Rollback; nesting a Tx inside another is forbidden.
type Tx interface {
	EventStore
	SnapshotStore
	OutboxEnqueuer

	// Commit finalizes the transaction. On failure it returns a
	// *StorageError and leaves no partial state.
	Commit(ctx context.Context) error

	// Rollback discards the transaction. It is idempotent: calling it
	// after Commit or after a previous Rollback is a no-op.
	Rollback(ctx context.Context) error
}

// UnitOfWork opens a new transactional scope. Implementations typically
// wrap a pooled database connection.
type UnitOfWork interface {
	Begin(ctx context.Context) (Tx, error)
}

// Reader adapts any UnitOfWork into an EventReader and SnapshotStore,
// opening and rolling back a throwaway Tx for each call. It is for callers
// that need read access outside a command's own Tx — projections
// rehydrating an aggregate, query handlers answering GetUserAt — and would
// otherwise have to hand-roll the same begin/rollback boilerplate.
type Reader struct {
	UoW UnitOfWork
}

func (r Reader) withTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.UoW.Begin(ctx)
	if err != nil {
		return &StorageError{Op: "begin", Cause: err}
	}
	defer tx.Rollback(ctx)
	return fn(tx)
}

func (r Reader) GetStream(ctx context.Context, kind AggregateKind, aggregateID string, filter StreamFilter) ([]StoredEvent, error) {
	var out []StoredEvent
	err := r.withTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.GetStream(ctx, kind, aggregateID, filter)
		return err
	})
	return out, err
}

func (r Reader) HeadRevision(ctx context.Context, kind AggregateKind, aggregateID string) (int64, error) {
	var head int64
	err := r.withTx(ctx, func(tx Tx) error {
		var err error
		head, err = tx.HeadRevision(ctx, kind, aggregateID)
		return err
	})
	return head, err
}

func (r Reader) Search(ctx context.Context, kind AggregateKind, field, value string) ([]StoredEvent, error) {
	var out []StoredEvent
	err := r.withTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.Search(ctx, kind, field, value)
		return err
	})
	return out, err
}

func (r Reader) Get(ctx context.Context, kind AggregateKind, aggregateID string) (Snapshot, error) {
	var snap Snapshot
	err := r.withTx(ctx, func(tx Tx) error {
		var err error
		snap, err = tx.Get(ctx, kind, aggregateID)
		return err
	})
	return snap, err
}

func (r Reader) Put(ctx context.Context, kind AggregateKind, aggregateID string, snap Snapshot) error {
	return r.withTx(ctx, func(tx Tx) error {
		return tx.Put(ctx, kind, aggregateID, snap)
	})
}

var (
	_ EventReader   = Reader{}
	_ SnapshotStore = Reader{}
)

// WithinUnitOfWork runs fn inside a freshly begun Tx, committing on success
// and rolling back on any error or panic escaping fn. This is the
// recommended way to drive the begin -> work -> commit|rollback bracket
// described in spec §4.5; command handlers built on top of it only need to
// supply the "work" closure.
func WithinUnitOfWork(ctx context.Context, uow UnitOfWork, fn func(ctx context.Context, tx Tx) error) (err error) {
	tx, err := uow.Begin(ctx)
	if err != nil {
		return &StorageError{Op: "begin", Cause: err}
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return &StorageError{Op: "commit", Cause: err}
	}
	return nil
}
