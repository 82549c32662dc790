package user

import es "github.com/userevents/core"

// Registry builds the codec registry for every event kind this package
// raises. Callers share one of these across the event store, the outbox
// worker, and anything else that encodes/decodes User events.
func Registry() *es.Registry {
	r := es.NewRegistry()
	r.Register(Created{}.EventKind(), Created{}.SchemaVersion(), es.JSONCodec[Created]())
	r.Register(Updated{}.EventKind(), Updated{}.SchemaVersion(), es.JSONCodec[Updated]())
	r.Register(PasswordChanged{}.EventKind(), PasswordChanged{}.SchemaVersion(), es.JSONCodec[PasswordChanged]())
	r.Register(Deleted{}.EventKind(), Deleted{}.SchemaVersion(), es.JSONCodec[Deleted]())
	return r
}
