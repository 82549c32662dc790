// Package projection implements the C8 Projection Workers: idempotent
// per-task handlers for committed events, fed either by River (production)
// or the in-process channel queue (tests).
package projection

import "context"

// Ledger records which (task, event) pairs have already been applied, so a
// redelivered job is a guaranteed no-op (spec §4.8 "idempotent").
type Ledger interface {
	AlreadyProcessed(ctx context.Context, task, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, task, eventID string) error
}
