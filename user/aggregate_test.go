package user_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	es "github.com/userevents/core"
	"github.com/userevents/core/user"
)

func TestUser_HandleCreate(t *testing.T) {
	u := user.New("u1")

	err := u.HandleCreate(user.CreateUser{
		UserID:       "u1",
		Username:     "ada",
		Email:        "ada@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)

	events, expected := u.Flush()
	require.Len(t, events, 1)
	assert.Equal(t, int64(0), expected)
	assert.Equal(t, user.Created{Username: "ada", Email: "ada@example.com", PasswordHash: "hash", Role: user.RoleUser}, events[0])
	assert.True(t, u.Exists())
	assert.Equal(t, int64(1), u.Revision())
}

func TestUser_HandleCreate_TwiceIsRejected(t *testing.T) {
	u := user.New("u1")
	require.NoError(t, u.HandleCreate(user.CreateUser{UserID: "u1", Username: "ada", Email: "ada@example.com", PasswordHash: "hash"}))
	u.Flush()

	err := u.HandleCreate(user.CreateUser{UserID: "u1", Username: "ada2", Email: "ada2@example.com", PasswordHash: "hash"})
	var violation *es.BusinessRuleViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "already_created", violation.Rule)
}

func TestUser_HandleCreate_RequiresFields(t *testing.T) {
	u := user.New("u1")
	err := u.HandleCreate(user.CreateUser{UserID: "u1"})
	var verr *es.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)
}

func TestUser_HandleUpdate_RejectsEmptyPatch(t *testing.T) {
	u := user.New("u1")
	require.NoError(t, u.HandleCreate(user.CreateUser{UserID: "u1", Username: "ada", Email: "ada@example.com", PasswordHash: "hash"}))
	u.Flush()

	err := u.HandleUpdate(user.UpdateUser{UserID: "u1"})
	var violation *es.BusinessRuleViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "no_fields_to_update", violation.Rule)
}

func TestUser_HandleUpdate_ChangesOnlyGivenFields(t *testing.T) {
	u := user.New("u1")
	require.NoError(t, u.HandleCreate(user.CreateUser{UserID: "u1", Username: "ada", Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", PasswordHash: "hash"}))
	u.Flush()

	newEmail := "ada.new@example.com"
	require.NoError(t, u.HandleUpdate(user.UpdateUser{UserID: "u1", Email: &newEmail}))
	u.Flush()

	assert.Equal(t, newEmail, u.Email())
	assert.Equal(t, "Ada", u.FirstName())
	assert.Equal(t, "Lovelace", u.LastName())
}

func TestUser_HandleDelete_IsIdempotent(t *testing.T) {
	u := user.New("u1")
	require.NoError(t, u.HandleCreate(user.CreateUser{UserID: "u1", Username: "ada", Email: "ada@example.com", PasswordHash: "hash"}))
	u.Flush()

	require.NoError(t, u.HandleDelete(user.DeleteUser{UserID: "u1"}))
	events, _ := u.Flush()
	require.Len(t, events, 1)
	assert.True(t, u.IsDeleted())

	require.NoError(t, u.HandleDelete(user.DeleteUser{UserID: "u1"}))
	events, _ = u.Flush()
	assert.Empty(t, events)
}

func TestUser_HandleUpdate_RejectsDeleted(t *testing.T) {
	u := user.New("u1")
	require.NoError(t, u.HandleCreate(user.CreateUser{UserID: "u1", Username: "ada", Email: "ada@example.com", PasswordHash: "hash"}))
	u.Flush()
	require.NoError(t, u.HandleDelete(user.DeleteUser{UserID: "u1"}))
	u.Flush()

	newEmail := "x@example.com"
	err := u.HandleUpdate(user.UpdateUser{UserID: "u1", Email: &newEmail})
	var violation *es.BusinessRuleViolation
	require.ErrorAs(t, err, &violation)
	assert.Equal(t, "deleted", violation.Rule)
}

func TestUser_FromSnapshot_RoundTrip(t *testing.T) {
	u := user.New("u1")
	require.NoError(t, u.HandleCreate(user.CreateUser{UserID: "u1", Username: "ada", Email: "ada@example.com", FirstName: "Ada", PasswordHash: "hash", Role: user.RoleAdmin}))
	u.Flush()

	snap := user.ToSnapshot(u)
	rehydrated, err := user.FromSnapshot(es.Snapshot{State: snap, Revision: u.Revision(), Found: true})
	require.NoError(t, err)

	assert.Equal(t, u.AggregateID(), rehydrated.AggregateID())
	assert.Equal(t, u.Username(), rehydrated.Username())
	assert.Equal(t, u.Role(), rehydrated.Role())
	assert.Equal(t, u.Revision(), rehydrated.Revision())
}
