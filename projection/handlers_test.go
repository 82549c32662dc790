package projection_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	es "github.com/userevents/core"
	"github.com/userevents/core/projection"
	"github.com/userevents/core/providers/email"
	"github.com/userevents/core/readmodel"
	"github.com/userevents/core/stores/mem"
	"github.com/userevents/core/user"
)

func createTestUser(t *testing.T, store *mem.Store, userID string) es.StoredEvent {
	t.Helper()
	ctx := context.Background()

	var stored []es.StoredEvent
	err := es.WithinUnitOfWork(ctx, store, func(ctx context.Context, tx es.Tx) error {
		rev, err := tx.Append(ctx, user.Kind, userID, 0, []es.Event{
			user.Created{Username: "ada", Email: "ada@example.com", FirstName: "Ada", PasswordHash: "hash"},
		}, nil)
		if err != nil {
			return err
		}
		stored = []es.StoredEvent{{
			EventID:       "e1",
			AggregateID:   userID,
			AggregateKind: user.Kind,
			EventKindTag:  user.Created{}.EventKind(),
			Revision:      rev,
			Data:          user.Created{Username: "ada", Email: "ada@example.com", FirstName: "Ada", PasswordHash: "hash"},
		}}
		return nil
	})
	require.NoError(t, err)
	return stored[0]
}

func TestReadModelHandler_UpsertsFoldedAggregate(t *testing.T) {
	store := mem.New()
	event := createTestUser(t, store, "u1")

	rows := readmodel.NewMemRepository()
	repo := user.NewRepository(es.Reader{UoW: store}, es.Reader{UoW: store})
	handler := projection.NewReadModelHandler(repo, rows)

	require.NoError(t, handler.Handle(context.Background(), event))

	row, ok, err := rows.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ada", row.Username)
}

func TestReadModelHandler_DeletedUserIsSoftDeleted(t *testing.T) {
	store := mem.New()
	createTestUser(t, store, "u1")

	ctx := context.Background()
	err := es.WithinUnitOfWork(ctx, store, func(ctx context.Context, tx es.Tx) error {
		_, err := tx.Append(ctx, user.Kind, "u1", 1, []es.Event{user.Deleted{}}, nil)
		return err
	})
	require.NoError(t, err)

	rows := readmodel.NewMemRepository()
	createdAt := time.Now().Add(-time.Hour)
	require.NoError(t, rows.Upsert(ctx, readmodel.User{UserID: "u1", Username: "ada", Revision: 1, CreatedAt: createdAt}))

	repo := user.NewRepository(es.Reader{UoW: store}, es.Reader{UoW: store})
	handler := projection.NewReadModelHandler(repo, rows)
	deletedEventTime := time.Now()
	require.NoError(t, handler.Handle(ctx, es.StoredEvent{
		AggregateID: "u1", AggregateKind: user.Kind, EventKindTag: user.Deleted{}.EventKind(), Data: user.Deleted{}, Timestamp: deletedEventTime,
	}))

	row, ok, err := rows.Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, row.IsDeleted())
	require.NotNil(t, row.DeletedAt)
	assert.True(t, row.DeletedAt.Equal(deletedEventTime))
	assert.True(t, row.CreatedAt.Equal(createdAt), "CreatedAt must be carried forward from the existing row")
}

type fakeEmailProvider struct {
	err error
}

func (p *fakeEmailProvider) Send(_ context.Context, _ email.Message) error { return p.err }
func (p *fakeEmailProvider) Name() string                                 { return "fake" }
func (p *fakeEmailProvider) Available() bool                              { return p.err == nil }

func TestWelcomeEmailHandler_SendsOnCreated(t *testing.T) {
	provider := &fakeEmailProvider{}
	handler := projection.NewWelcomeEmailHandler(provider, nil)

	err := handler.Handle(context.Background(), es.StoredEvent{
		Data: user.Created{Username: "ada", Email: "ada@example.com", FirstName: "Ada"},
	})
	require.NoError(t, err)
}

func TestWelcomeEmailHandler_IgnoresNonCreatedEvents(t *testing.T) {
	provider := &fakeEmailProvider{err: errors.New("should not be called")}
	handler := projection.NewWelcomeEmailHandler(provider, nil)

	err := handler.Handle(context.Background(), es.StoredEvent{Data: user.Updated{}})
	require.NoError(t, err)
}

func TestWelcomeEmailHandler_ProviderFailureWrapsExternalError(t *testing.T) {
	provider := &fakeEmailProvider{err: errors.New("smtp down")}
	handler := projection.NewWelcomeEmailHandler(provider, nil)

	err := handler.Handle(context.Background(), es.StoredEvent{
		Data: user.Created{Username: "ada", Email: "ada@example.com", FirstName: "Ada"},
	})
	var extErr *es.ExternalError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "fake", extErr.Provider)
}
