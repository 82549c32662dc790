package dispatch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	es "github.com/userevents/core"
)

// Queue is the narrow transport the Dispatcher hands tasks to. The
// in-process channel queue (queue/chanqueue) implements it; the River path
// (stores/pgx enqueueing outbox jobs, consumed by queue/river) does not go
// through a Queue or a Dispatcher.
type Queue interface {
	Enqueue(ctx context.Context, task string, event es.StoredEvent) error
}

// Dispatcher publishes committed events to every task registered for their
// event kind, retrying a transient Queue failure with exponential backoff
// before giving up (spec §4.7).
type Dispatcher struct {
	registry *Registry
	queue    Queue
}

// New builds a Dispatcher.
func New(registry *Registry, queue Queue) *Dispatcher {
	return &Dispatcher{registry: registry, queue: queue}
}

// Dispatch enqueues every (event, task) pair for events. It returns the
// first error it cannot recover from after retrying; callers should log
// and continue (spec: "failure here is logged but does not fail the
// command — the outbox guarantees eventual publication").
func (d *Dispatcher) Dispatch(ctx context.Context, events []es.StoredEvent) error {
	for _, se := range events {
		for _, task := range d.registry.TasksFor(se.EventKindTag) {
			if err := d.enqueueWithRetry(ctx, task, se); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Dispatcher) enqueueWithRetry(ctx context.Context, task string, se es.StoredEvent) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, d.queue.Enqueue(ctx, task, se)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(5),
		backoff.WithMaxElapsedTime(30*time.Second),
	)
	return err
}
