// Package chanqueue is an in-process dispatch.Queue backed by a buffered
// Go channel — used by tests and any deployment that doesn't need
// cross-process delivery.
package chanqueue

import (
	"context"

	es "github.com/userevents/core"
)

// Job is one enqueued (task, event) pair.
type Job struct {
	Task  string
	Event es.StoredEvent
}

// Queue is a bounded, in-process dispatch.Queue.
type Queue struct {
	jobs chan Job
}

// New builds a Queue with the given channel capacity.
func New(capacity int) *Queue {
	return &Queue{jobs: make(chan Job, capacity)}
}

// Enqueue blocks until there is room in the channel or ctx is done.
func (q *Queue) Enqueue(ctx context.Context, task string, event es.StoredEvent) error {
	select {
	case q.jobs <- Job{Task: task, Event: event}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jobs returns the channel workers receive from.
func (q *Queue) Jobs() <-chan Job {
	return q.jobs
}
