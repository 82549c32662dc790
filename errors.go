package es

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against the structured error types
// below. Each structured type that has a sentinel here implements
// Is(target) so callers can write
// errors.Is(err, es.ErrConcurrencyConflict) without caring about the exact
// field values.
var (
	ErrConcurrencyConflict = errors.New("eventstore: concurrency conflict")
	ErrDuplicate           = errors.New("eventstore: duplicate event id")
	ErrNotFound            = errors.New("eventstore: not found")
	ErrSchemaUnknown       = errors.New("eventstore: unknown schema")
	ErrSchemaInvalid       = errors.New("eventstore: invalid schema payload")
)

// ConcurrencyConflictError reports that the expected_revision an append was
// conditioned on no longer matches the stream's head revision.
type ConcurrencyConflictError struct {
	AggregateID     string
	ExpectedRevision int64
	ActualRevision   int64
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict on aggregate %s: expected=%d actual=%d",
		e.AggregateID, e.ExpectedRevision, e.ActualRevision)
}

func (e *ConcurrencyConflictError) Is(target error) bool { return target == ErrConcurrencyConflict }

// DuplicateError reports that an event_id collided with one already
// persisted. Unlike ConcurrencyConflictError this is not retryable: the
// caller asked to write something that already exists verbatim.
type DuplicateError struct {
	EventID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate event id %s", e.EventID)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// ValidationError reports a rejected command input, independent of any
// aggregate state (spec: "command pre-checks").
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %q: %s", e.Field, e.Message)
}

// BusinessRuleViolation reports a command rejected by aggregate.Handle
// because of the aggregate's current state (spec: e.g. "password_unchanged",
// "deleted").
type BusinessRuleViolation struct {
	Rule    string
	Message string
}

func (e *BusinessRuleViolation) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("business rule violated (%s): %s", e.Rule, e.Message)
	}
	return fmt.Sprintf("business rule violated: %s", e.Rule)
}

// NotFoundError reports that an aggregate or read-model row does not exist.
type NotFoundError struct {
	Kind AggregateKind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a uniqueness violation detected via C2's search
// operation (e.g. username or email already taken by a live aggregate).
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s %q already in use", e.Field, e.Value)
}

// SchemaUnknownError reports that no codec is registered for an
// (event_kind, schema_version) pair.
type SchemaUnknownError struct {
	Kind    string
	Version string
}

func (e *SchemaUnknownError) Error() string {
	return fmt.Sprintf("unknown schema for %s@%s", e.Kind, e.Version)
}

func (e *SchemaUnknownError) Is(target error) bool { return target == ErrSchemaUnknown }

// SchemaInvalidError reports that a payload failed to (de)serialize against
// its declared schema.
type SchemaInvalidError struct {
	Kind    string
	Version string
	Cause   error
}

func (e *SchemaInvalidError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("invalid schema payload: %v", e.Cause)
	}
	return fmt.Sprintf("invalid schema payload for %s@%s: %v", e.Kind, e.Version, e.Cause)
}

func (e *SchemaInvalidError) Unwrap() error { return e.Cause }

func (e *SchemaInvalidError) Is(target error) bool { return target == ErrSchemaInvalid }

// StorageError wraps a lower-level storage/network failure (DB down,
// connection reset, context deadline). It is retried with backoff by the
// outermost caller; if retries are exhausted it surfaces unchanged.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// ExternalError wraps a failure from a pluggable provider (hashing, email).
// Projection workers retry it up to a bounded attempt count before
// dead-lettering.
type ExternalError struct {
	Provider string
	Cause    error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("external provider %q failed: %v", e.Provider, e.Cause)
}

func (e *ExternalError) Unwrap() error { return e.Cause }
