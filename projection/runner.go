package projection

import (
	"context"
	"fmt"

	es "github.com/userevents/core"
	"github.com/userevents/core/dispatch"
)

// Runner dispatches one committed event to every task registered against
// its kind, guarding each task with the Ledger so a redelivery (River
// retry, at-least-once channel replay) is a no-op rather than a double
// apply.
type Runner struct {
	ledger   Ledger
	handlers map[string]Handler
}

// NewRunner builds a Runner over the given ledger and task handlers, keyed
// by the same task name strings used in a dispatch.Registry.
func NewRunner(ledger Ledger, handlers map[string]Handler) *Runner {
	return &Runner{ledger: ledger, handlers: handlers}
}

// RunTask applies a single (task, event) pair, skipping it if the ledger
// already recorded it as processed.
func (r *Runner) RunTask(ctx context.Context, task string, event es.StoredEvent) error {
	handler, ok := r.handlers[task]
	if !ok {
		return fmt.Errorf("projection: no handler registered for task %q", task)
	}

	done, err := r.ledger.AlreadyProcessed(ctx, task, event.EventID)
	if err != nil {
		return err
	}
	if done {
		return nil
	}

	if err := handler.Handle(ctx, event); err != nil {
		return err
	}
	return r.ledger.MarkProcessed(ctx, task, event.EventID)
}

// Run fans a single event out to every task the registry has bound to its
// event kind, used by the outbox worker which only ever sees one event per
// job and must resolve its own task list.
func (r *Runner) Run(ctx context.Context, registry *dispatch.Registry, event es.StoredEvent) error {
	for _, task := range registry.TasksFor(event.EventKindTag) {
		if err := r.RunTask(ctx, task, event); err != nil {
			return fmt.Errorf("projection: task %q: %w", task, err)
		}
	}
	return nil
}
