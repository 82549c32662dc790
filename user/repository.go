package user

import (
	"context"
	"fmt"

	es "github.com/userevents/core"
)

// Repository rehydrates and persists User aggregates against an
// EventStore/SnapshotStore pair (or a Tx, which satisfies both). It
// implements the rehydration algorithm of spec §4.4: try the snapshot
// first, then fold delta events with revision > snapshot.revision.
type Repository struct {
	events    es.EventReader
	snapshots es.SnapshotStore
}

// NewRepository builds a Repository over the given reader/snapshot pair.
// Command handlers typically pass the Tx they are already holding so reads
// happen inside the same transaction as the eventual append.
func NewRepository(events es.EventReader, snapshots es.SnapshotStore) *Repository {
	return &Repository{events: events, snapshots: snapshots}
}

// Load rehydrates a User by id, returning the aggregate and the stream's
// head revision as observed during the load.
func (r *Repository) Load(ctx context.Context, userID string) (*User, int64, error) {
	snap, err := r.snapshots.Get(ctx, Kind, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("user: load snapshot: %w", err)
	}

	u, err := FromSnapshot(snap)
	if err != nil {
		return nil, 0, err
	}
	if u.AggregateID() == "" {
		u.SetAggregateID(userID)
	}

	events, err := r.events.GetStream(ctx, Kind, userID, es.StreamFilter{FromRevision: u.Revision()})
	if err != nil {
		return nil, 0, fmt.Errorf("user: load stream: %w", err)
	}
	for _, se := range events {
		u.Apply(se.Data)
	}

	head, err := r.events.HeadRevision(ctx, Kind, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("user: head revision: %w", err)
	}
	return u, head, nil
}

// LoadAt reconstructs the User's historical state by folding only the
// events filter selects (query.GetUserAt passes a ToTime just past t, so
// events with timestamp <= t), ignoring snapshots (historical
// reconstruction never uses a cached snapshot since the snapshot's
// creation time isn't bounded by t). Returns (nil, false, nil) if no
// qualifying events exist.
func (r *Repository) LoadAt(ctx context.Context, userID string, filter es.StreamFilter) (*User, bool, error) {
	events, err := r.events.GetStream(ctx, Kind, userID, filter)
	if err != nil {
		return nil, false, fmt.Errorf("user: load stream at time: %w", err)
	}
	if len(events) == 0 {
		return nil, false, nil
	}
	u := New(userID)
	for _, se := range events {
		u.Apply(se.Data)
	}
	return u, true, nil
}
