package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	es "github.com/userevents/core"
	"github.com/userevents/core/query"
	"github.com/userevents/core/readmodel"
	"github.com/userevents/core/stores/mem"
	"github.com/userevents/core/user"
)

func TestHandlers_GetUser_NotFound(t *testing.T) {
	rows := readmodel.NewMemRepository()
	h := query.New(rows, es.Reader{UoW: mem.New()})

	_, err := h.GetUser(context.Background(), "missing")
	var notFound *es.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestHandlers_GetUser_ReturnsRow(t *testing.T) {
	rows := readmodel.NewMemRepository()
	require.NoError(t, rows.Upsert(context.Background(), readmodel.User{UserID: "u1", Username: "ada", Revision: 1}))

	h := query.New(rows, es.Reader{UoW: mem.New()})
	row, err := h.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada", row.Username)
}

func TestHandlers_GetUser_SoftDeletedRowIsNotFound(t *testing.T) {
	rows := readmodel.NewMemRepository()
	deletedAt := time.Now()
	require.NoError(t, rows.Upsert(context.Background(), readmodel.User{
		UserID: "u1", Username: "ada", Revision: 2, DeletedAt: &deletedAt,
	}))

	h := query.New(rows, es.Reader{UoW: mem.New()})
	_, err := h.GetUser(context.Background(), "u1")
	var notFound *es.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestHandlers_ListUsers_ClampsPageSize(t *testing.T) {
	rows := readmodel.NewMemRepository()
	h := query.New(rows, es.Reader{UoW: mem.New()})

	page, err := h.ListUsers(context.Background(), 0, 10000, query.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, query.MaxPageSize, page.PageSize)
}

func TestHandlers_GetUserAt_ReconstructsHistoricalState(t *testing.T) {
	store := mem.New()
	ctx := context.Background()

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Append(ctx, user.Kind, "u1", 0, []es.Event{
		user.Created{Username: "ada", Email: "ada@example.com", PasswordHash: "hash"},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	rows := readmodel.NewMemRepository()
	h := query.New(rows, es.Reader{UoW: store})

	u, err := h.GetUserAt(ctx, "u1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username())
}
