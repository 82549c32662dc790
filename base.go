package es

// Base is an embeddable helper that implements the bookkeeping half of
// Aggregate. Semantics:
//   - Apply(e): mutate state via applier and bump revision by 1. Does NOT enqueue.
//   - Raise(e): Apply(e) + enqueue to pending (for newly produced events).
//   - Revision(): current revision INCLUDING pending.
//   - Flush(): returns pending and clears it; also returns
//     expectedRevision = currentRevision - len(pending_before).
type Base struct {
	id       string
	kind     AggregateKind
	revision int64
	pending  []Event
	applier  func(Event)
}

// Init sets the aggregate id, kind, and the state mutation function
// (applier).
func (b *Base) Init(id string, kind AggregateKind, applier func(Event)) {
	b.id = id
	b.kind = kind
	b.applier = applier
}

// AggregateID returns the 128-bit identifier of this aggregate.
func (b *Base) AggregateID() string { return b.id }

// AggregateKind returns the closed enumeration tag for this aggregate type.
func (b *Base) AggregateKind() AggregateKind { return b.kind }

// SetAggregateID overrides the id (e.g. when the first event assigns it).
func (b *Base) SetAggregateID(id string) { b.id = id }

// SetApplier replaces the state mutation function.
func (b *Base) SetApplier(applier func(Event)) { b.applier = applier }

// SetRevision forces the current revision (used when restoring from a
// snapshot). No pending events are affected.
func (b *Base) SetRevision(r int64) { b.revision = r }

// Apply mutates state by a single event and advances the revision by 1.
// Used for rehydration (replay) and for confirming newly raised events.
func (b *Base) Apply(e Event) {
	if b.applier != nil {
		b.applier(e)
	}
	b.revision++
}

// Raise records a new domain event: Apply(e) plus enqueueing it into the
// pending buffer. Call Flush to obtain and clear pending events for
// persistence.
func (b *Base) Raise(e Event) {
	b.Apply(e)
	b.pending = append(b.pending, e)
}

// Flush returns all uncommitted events and clears the pending buffer.
// expectedRevision = currentRevision - len(pendingBeforeFlush).
func (b *Base) Flush() (events []Event, expectedRevision int64) {
	events = b.pending
	expectedRevision = b.revision - int64(len(events))
	b.pending = nil
	return
}

// Revision returns the current aggregate revision, including pending
// events.
func (b *Base) Revision() int64 { return b.revision }
