// Package river wires the PostgreSQL event store's transactional outbox
// jobs (stores/pgx.OutboxJobArgs) to the projection runner, giving every
// fanned-out task River's at-least-once delivery and dead-lettering after
// repeated failure (spec §4.7/§4.8).
package river

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	es "github.com/userevents/core"
	"github.com/userevents/core/dispatch"
	pgxstore "github.com/userevents/core/stores/pgx"
)

// OutboxWorker decodes an OutboxJobArgs back into an es.StoredEvent and
// fans it out to every task dispatch.Registry binds to its event kind.
type OutboxWorker struct {
	river.WorkerDefaults[pgxstore.OutboxJobArgs]

	registry *dispatch.Registry
	runner   Runner
	codec    *es.Registry
}

// Runner applies a single (event, registered-tasks) fan-out. projection.Runner
// satisfies this.
type Runner interface {
	Run(ctx context.Context, registry *dispatch.Registry, event es.StoredEvent) error
}

// NewOutboxWorker builds an OutboxWorker. codec must have every event kind
// the store ever appends registered, the same Registry the store itself
// encodes with.
func NewOutboxWorker(registry *dispatch.Registry, runner Runner, codec *es.Registry) *OutboxWorker {
	return &OutboxWorker{registry: registry, runner: runner, codec: codec}
}

func (w *OutboxWorker) Work(ctx context.Context, job *river.Job[pgxstore.OutboxJobArgs]) error {
	args := job.Args
	payload, err := w.codec.Decode(args.EventKind, args.SchemaVersion, args.Data)
	if err != nil {
		return fmt.Errorf("river outbox worker: decode %s/%s: %w", args.EventKind, args.SchemaVersion, err)
	}

	event := es.StoredEvent{
		EventID:       args.EventID,
		AggregateID:   args.AggregateID,
		AggregateKind: args.AggregateKind,
		EventKindTag:  args.EventKind,
		SchemaVer:     args.SchemaVersion,
		Revision:      args.Revision,
		Timestamp:     job.CreatedAt,
		Data:          payload,
		Metadata:      args.Metadata,
	}
	return w.runner.Run(ctx, w.registry, event)
}

var _ river.Worker[pgxstore.OutboxJobArgs] = (*OutboxWorker)(nil)

// Config bundles what NewClient needs beyond the shared pool.
type Config struct {
	MaxWorkers                  int
	CompletedJobRetentionPeriod time.Duration
}

// NewClient builds a River client over pool with worker registered against
// the event_outbox job kind, ready for client.Start.
func NewClient(pool *pgxpool.Pool, worker *OutboxWorker, cfg Config) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	if err := river.AddWorkerSafely[pgxstore.OutboxJobArgs](workers, worker); err != nil {
		return nil, fmt.Errorf("river: register outbox worker: %w", err)
	}

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		},
		Workers:                     workers,
		CompletedJobRetentionPeriod: cfg.CompletedJobRetentionPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("river: new client: %w", err)
	}
	return client, nil
}
