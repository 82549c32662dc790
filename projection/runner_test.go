package projection_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	es "github.com/userevents/core"
	"github.com/userevents/core/dispatch"
	"github.com/userevents/core/projection"
)

type countingHandler struct {
	calls int
}

func (h *countingHandler) Handle(_ context.Context, _ es.StoredEvent) error {
	h.calls++
	return nil
}

func TestRunner_RunTask_SkipsAlreadyProcessed(t *testing.T) {
	ledger := projection.NewMemLedger()
	handler := &countingHandler{}
	runner := projection.NewRunner(ledger, map[string]projection.Handler{
		"read_model": handler,
	})

	event := es.StoredEvent{EventID: "e1"}
	require.NoError(t, runner.RunTask(context.Background(), "read_model", event))
	require.NoError(t, runner.RunTask(context.Background(), "read_model", event))

	assert.Equal(t, 1, handler.calls)
}

func TestRunner_RunTask_UnknownTaskErrors(t *testing.T) {
	runner := projection.NewRunner(projection.NewMemLedger(), map[string]projection.Handler{})
	err := runner.RunTask(context.Background(), "missing", es.StoredEvent{EventID: "e1"})
	assert.Error(t, err)
}

func TestRunner_Run_FansOutToEveryRegisteredTask(t *testing.T) {
	readModel := &countingHandler{}
	welcomeEmail := &countingHandler{}
	runner := projection.NewRunner(projection.NewMemLedger(), map[string]projection.Handler{
		"read_model":    readModel,
		"welcome_email": welcomeEmail,
	})

	registry := dispatch.NewRegistry()
	registry.Register("Created", "read_model", "welcome_email")
	registry.Register("Updated", "read_model")

	require.NoError(t, runner.Run(context.Background(), registry, es.StoredEvent{EventID: "e1", EventKindTag: "Created"}))
	assert.Equal(t, 1, readModel.calls)
	assert.Equal(t, 1, welcomeEmail.calls)

	require.NoError(t, runner.Run(context.Background(), registry, es.StoredEvent{EventID: "e2", EventKindTag: "Updated"}))
	assert.Equal(t, 2, readModel.calls)
	assert.Equal(t, 1, welcomeEmail.calls)
}
