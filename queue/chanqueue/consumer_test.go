package chanqueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	es "github.com/userevents/core"
	"github.com/userevents/core/queue/chanqueue"
)

func TestConsume_AppliesEveryJobThenStopsOnCancel(t *testing.T) {
	q := chanqueue.New(4)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "read_model", es.StoredEvent{EventID: "e1"}))
	require.NoError(t, q.Enqueue(ctx, "welcome_email", es.StoredEvent{EventID: "e1"}))

	var seen []string
	done := make(chan error, 1)

	runCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	go func() {
		done <- chanqueue.Consume(runCtx, q, func(_ context.Context, job chanqueue.Job) error {
			seen = append(seen, job.Task)
			if len(seen) == 2 {
				cancel()
			}
			return nil
		})
	}()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.ElementsMatch(t, []string{"read_model", "welcome_email"}, seen)
}

func TestConsume_StopsOnHandlerError(t *testing.T) {
	q := chanqueue.New(1)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, "read_model", es.StoredEvent{EventID: "e1"}))

	boom := assert.AnError
	err := chanqueue.Consume(ctx, q, func(_ context.Context, _ chanqueue.Job) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
