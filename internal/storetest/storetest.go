// Package storetest is a compliance suite shared by every EventStore /
// SnapshotStore / UnitOfWork implementation (stores/mem, stores/pgx). A
// store passes it by satisfying the Unit of Work contract alone — GetStream,
// Append, Search, and snapshot Get/Put are all exercised through a Tx.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	es "github.com/userevents/core"
)

const testKind es.AggregateKind = "TestThing"

// Opened and Added are minimal, domain-agnostic events so the suite doesn't
// depend on the user aggregate's event catalogue.
type Opened struct {
	ID string `json:"id"`
}

func (Opened) EventKind() string     { return "Opened" }
func (Opened) SchemaVersion() string { return "1" }

func (e Opened) SearchField(name string) (string, bool) {
	if name == "id" {
		return e.ID, true
	}
	return "", false
}

type Added struct {
	N int `json:"n"`
}

func (Added) EventKind() string     { return "Added" }
func (Added) SchemaVersion() string { return "1" }

// Registry builds the codec registry the pgx store needs to (de)serialize
// Opened/Added — stores/mem doesn't use a Registry since it keeps events as
// live Go values, but stores/pgx round-trips through JSON.
func Registry() *es.Registry {
	reg := es.NewRegistry()
	reg.Register("Opened", "1", es.JSONCodec[Opened]())
	reg.Register("Added", "1", es.JSONCodec[Added]())
	return reg
}

// Factory builds a fresh, isolated UnitOfWork for one subtest.
type Factory func(t *testing.T) es.UnitOfWork

// Run executes the compliance suite against newUoW. Subtests run in
// parallel, so implementations must be concurrency-safe across distinct
// aggregate streams.
func Run(t *testing.T, newUoW Factory) {
	t.Run("append/get_stream/head_revision", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		uow := newUoW(t)
		aggregateID := "agg-1"

		err := es.WithinUnitOfWork(ctx, uow, func(ctx context.Context, tx es.Tx) error {
			rev, err := tx.Append(ctx, testKind, aggregateID, 0, []es.Event{Opened{ID: "1"}}, nil)
			if err != nil {
				return err
			}
			if rev != 1 {
				t.Fatalf("expected revision 1, got %d", rev)
			}
			rev, err = tx.Append(ctx, testKind, aggregateID, rev, []es.Event{Added{N: 5}}, nil)
			if err != nil {
				return err
			}
			if rev != 2 {
				t.Fatalf("expected revision 2, got %d", rev)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unit of work failed: %v", err)
		}

		err = es.WithinUnitOfWork(ctx, uow, func(ctx context.Context, tx es.Tx) error {
			events, err := tx.GetStream(ctx, testKind, aggregateID, es.StreamFilter{})
			if err != nil {
				return err
			}
			if len(events) != 2 {
				t.Fatalf("expected 2 events, got %d", len(events))
			}
			head, err := tx.HeadRevision(ctx, testKind, aggregateID)
			if err != nil {
				return err
			}
			if head != 2 {
				t.Fatalf("expected head revision 2, got %d", head)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unit of work failed: %v", err)
		}
	})

	t.Run("concurrency_conflict", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		uow := newUoW(t)
		aggregateID := "agg-2"

		err := es.WithinUnitOfWork(ctx, uow, func(ctx context.Context, tx es.Tx) error {
			_, err := tx.Append(ctx, testKind, aggregateID, 0, []es.Event{Opened{ID: "2"}}, nil)
			return err
		})
		if err != nil {
			t.Fatalf("setup append failed: %v", err)
		}

		err = es.WithinUnitOfWork(ctx, uow, func(ctx context.Context, tx es.Tx) error {
			_, err := tx.Append(ctx, testKind, aggregateID, 0, []es.Event{Added{N: 1}}, nil)
			return err
		})

		var conflict *es.ConcurrencyConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("expected ConcurrencyConflictError, got %v", err)
		}
		if !errors.Is(err, es.ErrConcurrencyConflict) {
			t.Fatalf("expected errors.Is to match ErrConcurrencyConflict")
		}
	})

	t.Run("stream_filter_by_revision_and_time", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		uow := newUoW(t)
		aggregateID := "agg-3"

		err := es.WithinUnitOfWork(ctx, uow, func(ctx context.Context, tx es.Tx) error {
			_, err := tx.Append(ctx, testKind, aggregateID, 0, []es.Event{Opened{ID: "3"}}, nil)
			if err != nil {
				return err
			}
			_, err = tx.Append(ctx, testKind, aggregateID, 1, []es.Event{Added{N: 1}, Added{N: 2}}, nil)
			return err
		})
		if err != nil {
			t.Fatalf("setup append failed: %v", err)
		}

		err = es.WithinUnitOfWork(ctx, uow, func(ctx context.Context, tx es.Tx) error {
			events, err := tx.GetStream(ctx, testKind, aggregateID, es.StreamFilter{FromRevision: 1})
			if err != nil {
				return err
			}
			if len(events) != 2 {
				t.Fatalf("expected 2 events after revision 1, got %d", len(events))
			}

			events, err = tx.GetStream(ctx, testKind, aggregateID, es.StreamFilter{ToTime: time.Now().Add(-time.Hour)})
			if err != nil {
				return err
			}
			if len(events) != 0 {
				t.Fatalf("expected 0 events before an hour ago, got %d", len(events))
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unit of work failed: %v", err)
		}
	})

	t.Run("search", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		uow := newUoW(t)

		err := es.WithinUnitOfWork(ctx, uow, func(ctx context.Context, tx es.Tx) error {
			_, err := tx.Append(ctx, testKind, "agg-4", 0, []es.Event{Opened{ID: "unique-id"}}, nil)
			return err
		})
		if err != nil {
			t.Fatalf("setup append failed: %v", err)
		}

		err = es.WithinUnitOfWork(ctx, uow, func(ctx context.Context, tx es.Tx) error {
			found, err := tx.Search(ctx, testKind, "id", "unique-id")
			if err != nil {
				return err
			}
			if len(found) != 1 {
				t.Fatalf("expected 1 match, got %d", len(found))
			}

			found, err = tx.Search(ctx, testKind, "id", "does-not-exist")
			if err != nil {
				return err
			}
			if len(found) != 0 {
				t.Fatalf("expected 0 matches, got %d", len(found))
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unit of work failed: %v", err)
		}
	})

	t.Run("snapshot_get_put", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		uow := newUoW(t)
		aggregateID := "agg-5"

		err := es.WithinUnitOfWork(ctx, uow, func(ctx context.Context, tx es.Tx) error {
			snap, err := tx.Get(ctx, testKind, aggregateID)
			if err != nil {
				return err
			}
			if snap.Found {
				t.Fatalf("expected no snapshot before any Put")
			}
			return tx.Put(ctx, testKind, aggregateID, es.Snapshot{State: map[string]any{"n": 1}, Revision: 1})
		})
		if err != nil {
			t.Fatalf("unit of work failed: %v", err)
		}

		err = es.WithinUnitOfWork(ctx, uow, func(ctx context.Context, tx es.Tx) error {
			snap, err := tx.Get(ctx, testKind, aggregateID)
			if err != nil {
				return err
			}
			if !snap.Found {
				t.Fatalf("expected snapshot to be found")
			}
			if snap.Revision != 1 {
				t.Fatalf("expected snapshot revision 1, got %d", snap.Revision)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unit of work failed: %v", err)
		}
	})

	t.Run("enqueue_on_commit", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		uow := newUoW(t)

		err := es.WithinUnitOfWork(ctx, uow, func(ctx context.Context, tx es.Tx) error {
			return tx.Enqueue(ctx, []es.StoredEvent{{EventID: "e1", AggregateKind: testKind}})
		})
		if err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	})
}
