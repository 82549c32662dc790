package user

import (
	"encoding/json"
	"fmt"

	es "github.com/userevents/core"
)

// State is the persisted snapshot shape for a User aggregate (spec §3
// "Snapshot"). It mirrors the aggregate's essential fields exactly; no
// derived caches are snapshotted.
type State struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PasswordHash string `json:"password_hash"`
	Role         Role   `json:"role"`
	Deleted      bool   `json:"deleted"`
}

// ToSnapshot captures the aggregate's current folded state for storage.
func ToSnapshot(u *User) State {
	return State{
		UserID:       u.AggregateID(),
		Username:     u.username,
		Email:        u.email,
		FirstName:    u.firstName,
		LastName:     u.lastName,
		PasswordHash: u.passwordHash,
		Role:         u.role,
		Deleted:      u.deleted,
	}
}

// FromSnapshot rehydrates a User aggregate from a previously captured
// snapshot at the given revision. Events with revision > snap.Revision
// must still be folded on top by the caller.
func FromSnapshot(snap es.Snapshot) (*User, error) {
	u := New("")
	if !snap.Found {
		return u, nil
	}

	var st State
	switch v := snap.State.(type) {
	case State:
		st = v
	case map[string]any:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("user: re-marshal snapshot state: %w", err)
		}
		if err := json.Unmarshal(raw, &st); err != nil {
			return nil, fmt.Errorf("user: decode snapshot state: %w", err)
		}
	default:
		return nil, fmt.Errorf("user: unsupported snapshot state type %T", snap.State)
	}

	u.SetAggregateID(st.UserID)
	u.username = st.Username
	u.email = st.Email
	u.firstName = st.FirstName
	u.lastName = st.LastName
	u.passwordHash = st.PasswordHash
	u.role = st.Role
	u.deleted = st.Deleted
	u.created = st.UserID != ""
	u.SetRevision(snap.Revision)
	return u, nil
}
