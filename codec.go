package es

import (
	"encoding/json"
	"fmt"
)

// EventCodec defines how an event payload is encoded/decoded for
// persistence. Each (event_kind, schema_version) pair registers its own
// codec with a Registry.
type EventCodec interface {
	Encode(v any) ([]byte, error)
	Decode(b []byte) (any, error)
}

// JSONCodec is a generic implementation of EventCodec for JSON-based
// encoding. UTF-8 strings, lower-case hex identifiers, and ISO-8601
// timestamps are the wire shapes the JSON struct tags on payload types are
// expected to produce.
func JSONCodec[T any]() EventCodec {
	return jsonCodec[T]{}
}

type jsonCodec[T any] struct{}

func (jsonCodec[T]) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec[T]) Decode(b []byte) (any, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, &SchemaInvalidError{Cause: err}
	}
	return v, nil
}

// schemaKey identifies a payload schema by its (event_kind, schema_version)
// pair (spec invariant: this pair uniquely determines the payload shape).
type schemaKey struct {
	Kind    string
	Version string
}

// Registry maps (event_kind, schema_version) to the codec that knows how to
// (de)serialize that payload shape. It is the concrete form of C1's schema
// catalogue.
type Registry struct {
	codecs map[schemaKey]EventCodec
}

// NewRegistry creates an empty codec registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[schemaKey]EventCodec)}
}

// Register associates a codec with an (kind, version) pair. Registering the
// same pair twice overwrites the previous codec; callers normally do this
// once at startup.
func (r *Registry) Register(kind, version string, codec EventCodec) {
	r.codecs[schemaKey{kind, version}] = codec
}

// Encode serializes an event payload, looking up its codec by the kind and
// schema version the payload itself declares.
func (r *Registry) Encode(e Event) (kind, version string, data []byte, err error) {
	kind = EventKind(e)
	version = SchemaVersion(e)
	codec, ok := r.codecs[schemaKey{kind, version}]
	if !ok {
		return kind, version, nil, &SchemaUnknownError{Kind: kind, Version: version}
	}
	data, err = codec.Encode(e)
	if err != nil {
		return kind, version, nil, &SchemaInvalidError{Kind: kind, Version: version, Cause: err}
	}
	return kind, version, data, nil
}

// Decode deserializes raw bytes back into an event payload using the codec
// registered for the given (kind, version) pair.
func (r *Registry) Decode(kind, version string, data []byte) (Event, error) {
	codec, ok := r.codecs[schemaKey{kind, version}]
	if !ok {
		return nil, &SchemaUnknownError{Kind: kind, Version: version}
	}
	v, err := codec.Decode(data)
	if err != nil {
		return nil, &SchemaInvalidError{Kind: kind, Version: version, Cause: err}
	}
	return v, nil
}

var _ fmt.Stringer = schemaKey{}

func (k schemaKey) String() string {
	return fmt.Sprintf("%s@%s", k.Kind, k.Version)
}
