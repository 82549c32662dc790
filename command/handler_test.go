package command_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	es "github.com/userevents/core"
	"github.com/userevents/core/command"
	"github.com/userevents/core/stores/mem"
	"github.com/userevents/core/user"
)

func newHandlers() *command.Handlers {
	return command.New(mem.New(), 0)
}

func TestHandlers_CreateUser(t *testing.T) {
	ctx := context.Background()
	h := newHandlers()

	err := h.CreateUser(ctx, user.CreateUser{
		CommandID:    "cmd-1",
		UserID:       "u1",
		Username:     "ada",
		Email:        "ada@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
}

func TestHandlers_CreateUser_DuplicateUsernameConflicts(t *testing.T) {
	ctx := context.Background()
	h := newHandlers()

	require.NoError(t, h.CreateUser(ctx, user.CreateUser{
		CommandID: "cmd-1", UserID: "u1", Username: "ada", Email: "ada@example.com", PasswordHash: "hash",
	}))

	err := h.CreateUser(ctx, user.CreateUser{
		CommandID: "cmd-2", UserID: "u2", Username: "ada", Email: "other@example.com", PasswordHash: "hash",
	})
	var conflict *es.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "username", conflict.Field)
}

func TestHandlers_CreateUser_SameCommandIDIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHandlers()

	cmd := user.CreateUser{CommandID: "cmd-1", UserID: "u1", Username: "ada", Email: "ada@example.com", PasswordHash: "hash"}
	require.NoError(t, h.CreateUser(ctx, cmd))
	require.NoError(t, h.CreateUser(ctx, cmd))
}

func TestHandlers_UpdateUser_NotFound(t *testing.T) {
	ctx := context.Background()
	h := newHandlers()

	newEmail := "x@example.com"
	err := h.UpdateUser(ctx, user.UpdateUser{CommandID: "cmd-1", UserID: "missing", Email: &newEmail})
	var notFound *es.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestHandlers_DeleteUser_FreesUsernameForReuse(t *testing.T) {
	ctx := context.Background()
	h := newHandlers()

	require.NoError(t, h.CreateUser(ctx, user.CreateUser{
		CommandID: "cmd-1", UserID: "u1", Username: "ada", Email: "ada@example.com", PasswordHash: "hash",
	}))
	require.NoError(t, h.DeleteUser(ctx, user.DeleteUser{CommandID: "cmd-2", UserID: "u1"}))

	err := h.CreateUser(ctx, user.CreateUser{
		CommandID: "cmd-3", UserID: "u2", Username: "ada", Email: "ada2@example.com", PasswordHash: "hash",
	})
	assert.NoError(t, err)
}

func TestHandlers_ChangePassword_RejectsUnchanged(t *testing.T) {
	ctx := context.Background()
	h := newHandlers()

	require.NoError(t, h.CreateUser(ctx, user.CreateUser{
		CommandID: "cmd-1", UserID: "u1", Username: "ada", Email: "ada@example.com", PasswordHash: "hash",
	}))

	err := h.ChangePassword(ctx, user.ChangePassword{CommandID: "cmd-2", UserID: "u1", NewPasswordHash: "hash"})
	var violation *es.BusinessRuleViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "password_unchanged", violation.Rule)
}
