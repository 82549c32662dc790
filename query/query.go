// Package query implements the C9 Query Handlers: read-only access to the
// user read model plus historic stream-fold reconstruction.
package query

import (
	"context"
	"time"

	es "github.com/userevents/core"
	"github.com/userevents/core/readmodel"
	"github.com/userevents/core/user"
)

// DefaultPageSize and MaxPageSize bound ListUsers pagination (spec §4.9 /
// the read model's API surface).
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Handlers answers User queries against the read model and, for
// GetUserAt, the raw event stream.
type Handlers struct {
	readModel readmodel.Repository
	events    es.EventReader
}

// New builds a query Handlers.
func New(readModel readmodel.Repository, events es.EventReader) *Handlers {
	return &Handlers{readModel: readModel, events: events}
}

// GetUser returns the current read-model projection of a user. A
// soft-deleted user answers NotFound here, same as before it existed;
// callers that need the deletion timestamp go through the Repository
// directly (the projection worker does, to keep CreatedAt across updates).
func (h *Handlers) GetUser(ctx context.Context, userID string) (readmodel.User, error) {
	row, found, err := h.readModel.Get(ctx, userID)
	if err != nil {
		return readmodel.User{}, err
	}
	if !found || row.IsDeleted() {
		return readmodel.User{}, &es.NotFoundError{Kind: user.Kind, ID: userID}
	}
	return row, nil
}

// ListFilter narrows ListUsers.
type ListFilter struct {
	Username string
	Email    string
}

// ListUsers returns a page of users. Page is 1-based (values below 1 become
// 1); pageSize is capped at MaxPageSize and defaults to DefaultPageSize when
// 0 or negative.
func (h *Handlers) ListUsers(ctx context.Context, page, pageSize int, filter ListFilter) (readmodel.Page, error) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return h.readModel.List(ctx, readmodel.ListParams{
		Page:     page,
		PageSize: pageSize,
		Username: filter.Username,
		Email:    filter.Email,
	})
}

// GetUserAt reconstructs the user's state as of time t by folding only
// events recorded at or before t, ignoring any snapshot (spec's historical
// reconstruction operation). Returns NotFoundError if the aggregate has no
// qualifying events.
func (h *Handlers) GetUserAt(ctx context.Context, userID string, t time.Time) (*user.User, error) {
	repo := user.NewRepository(h.events, nil)
	u, found, err := repo.LoadAt(ctx, userID, es.StreamFilter{ToTime: t.Add(1)})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &es.NotFoundError{Kind: user.Kind, ID: userID}
	}
	return u, nil
}
