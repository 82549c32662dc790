// Package dispatch implements the C7 Event Dispatcher: an event_kind ->
// task-name registry plus a thin retry wrapper around a Queue transport
// (the in-process channel queue implements one). The registry is also used
// by the River outbox worker, which does not use the retry wrapper.
package dispatch

// Registry maps an event kind to the projection task names that must run
// for it. Mirrors the source system's Celery task registry (see DESIGN.md).
type Registry struct {
	tasks map[string][]string
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string][]string)}
}

// Register appends taskNames to the list already registered for eventKind.
func (r *Registry) Register(eventKind string, taskNames ...string) {
	r.tasks[eventKind] = append(r.tasks[eventKind], taskNames...)
}

// TasksFor returns the task names registered for eventKind, or nil if none.
func (r *Registry) TasksFor(eventKind string) []string {
	return r.tasks[eventKind]
}
