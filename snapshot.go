package es

import (
	"time"
)

// Snapshot is the cached, folded state of an aggregate up to a given
// revision (spec §3 "Snapshot"). At most one snapshot exists per aggregate;
// a reader reconciles it by folding any events with revision > Revision.
type Snapshot struct {
	State     any       // the deserialized aggregate state
	Revision  int64     // aggregate revision the snapshot was taken at
	Found     bool      // whether a snapshot exists for the aggregate
	CreatedAt time.Time // when the snapshot row was first created
	UpdatedAt time.Time // when the snapshot row was last overwritten
}
