package dispatch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	es "github.com/userevents/core"
	"github.com/userevents/core/dispatch"
	"github.com/userevents/core/queue/chanqueue"
)

func TestRegistry_TasksFor(t *testing.T) {
	r := dispatch.NewRegistry()
	r.Register("Created", "read_model", "welcome_email")
	r.Register("Updated", "read_model")

	assert.Equal(t, []string{"read_model", "welcome_email"}, r.TasksFor("Created"))
	assert.Equal(t, []string{"read_model"}, r.TasksFor("Updated"))
	assert.Nil(t, r.TasksFor("Deleted"))
}

func TestDispatcher_Dispatch_EnqueuesEveryRegisteredTask(t *testing.T) {
	r := dispatch.NewRegistry()
	r.Register("Created", "read_model", "welcome_email")

	q := chanqueue.New(4)
	d := dispatch.New(r, q)

	event := es.StoredEvent{EventID: "e1", EventKindTag: "Created"}
	require.NoError(t, d.Dispatch(context.Background(), []es.StoredEvent{event}))

	var tasks []string
	for i := 0; i < 2; i++ {
		job := <-q.Jobs()
		tasks = append(tasks, job.Task)
		assert.Equal(t, event.EventID, job.Event.EventID)
	}
	assert.ElementsMatch(t, []string{"read_model", "welcome_email"}, tasks)
}

func TestDispatcher_Dispatch_NoTasksRegisteredIsNoOp(t *testing.T) {
	r := dispatch.NewRegistry()
	q := chanqueue.New(1)
	d := dispatch.New(r, q)

	event := es.StoredEvent{EventID: "e1", EventKindTag: "Unregistered"}
	require.NoError(t, d.Dispatch(context.Background(), []es.StoredEvent{event}))

	select {
	case job := <-q.Jobs():
		t.Fatalf("expected no enqueued job, got %+v", job)
	default:
	}
}
