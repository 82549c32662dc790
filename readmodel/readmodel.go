// Package readmodel is the read side of the User aggregate (spec §3 "Read
// model (user)"): a mutable table keyed by aggregate_id, maintained
// exclusively by projection workers and never touched by command handlers.
package readmodel

import (
	"context"
	"time"

	"github.com/userevents/core/user"
)

// User is one row of the read_user projection (spec §3: id, username,
// email, first_name, last_name, role, created_at, updated_at, deleted_at).
type User struct {
	UserID    string
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      user.Role
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
	// DeletedAt is nil for a live user and set to the commit time of the
	// UserDeleted event once the aggregate is soft-deleted — the row is
	// never hard-deleted so "when was this user deleted" stays answerable.
	DeletedAt *time.Time
}

// IsDeleted reports whether this row has been soft-deleted.
func (u User) IsDeleted() bool { return u.DeletedAt != nil }

// ListParams narrows and paginates ListUsers. Page is 1-based.
type ListParams struct {
	Page     int
	PageSize int
	Username string
	Email    string
}

// Page is one page of a ListUsers result.
type Page struct {
	Users      []User
	Page       int
	PageSize   int
	TotalCount int
}

// Repository is the read/write contract the query handlers and projection
// workers depend on.
type Repository interface {
	// Get returns the row for userID, found false if it was never
	// projected. A soft-deleted user still returns found=true with
	// DeletedAt set — callers that mean "active users only" must check
	// IsDeleted().
	Get(ctx context.Context, userID string) (u User, found bool, err error)

	// List returns one page matching params.
	List(ctx context.Context, params ListParams) (Page, error)

	// Upsert writes row, replacing any prior projection for the same
	// UserID. Implementations must be safe to call with a stale (lower)
	// Revision than what's already stored — see spec's "idempotent
	// projection" requirement — and should no-op in that case. A
	// UserDeleted projection calls Upsert with DeletedAt set rather than
	// removing the row: the read model is soft-deleted, matching spec's
	// "deleted_at" column.
	Upsert(ctx context.Context, row User) error
}
