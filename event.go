package es

import (
	"fmt"
	"time"
)

// Event is a semantic alias of `any` that represents a domain event payload.
// Concrete payload types are plain structs; they opt into the dispatch and
// schema machinery by implementing EventKind() and, optionally,
// SchemaVersion().
type Event any

// KindedEvent is implemented by event payloads that carry their own
// canonical event kind tag (e.g. "UserCreated"). Payloads that don't
// implement it fall back to their Go type name, which is fine for tests but
// not recommended for anything that crosses a process boundary.
type KindedEvent interface {
	EventKind() string
}

// VersionedEvent is implemented by event payloads that pin a schema version
// explicitly. Payloads that don't implement it are assumed to be
// schema_version "1".
type VersionedEvent interface {
	SchemaVersion() string
}

const defaultSchemaVersion = "1"

// EventKind returns the canonical kind tag for an event payload.
func EventKind(e Event) string {
	if k, ok := e.(KindedEvent); ok {
		return k.EventKind()
	}
	return fmt.Sprintf("%T", e)
}

// SchemaVersion returns the schema version an event payload was authored
// against. Payloads that don't declare one are treated as version "1".
func SchemaVersion(e Event) string {
	if v, ok := e.(VersionedEvent); ok {
		return v.SchemaVersion()
	}
	return defaultSchemaVersion
}

// AggregateKind is a closed enumeration of aggregate kinds. The initial set
// is {User}; new kinds are added by declaring a new constant and wiring a
// matching table/aggregate, never by repurposing an existing tag.
type AggregateKind string

// StoredEvent is the durable, immutable record of a committed domain event
// (spec "Event"). Once its EventID has been observed, none of its fields
// may change.
type StoredEvent struct {
	EventID       string
	AggregateID   string
	AggregateKind AggregateKind
	EventKindTag  string
	SchemaVer     string
	Revision      int64
	Timestamp     time.Time
	Data          Event
	Metadata      Metadata
}
