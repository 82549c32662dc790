// Package user implements the User aggregate: the write-side domain model,
// its command catalogue, and the events it produces (spec §3, §4.4, §6).
package user

import (
	es "github.com/userevents/core"
)

// Kind is the aggregate kind tag for users, the only member of the closed
// enumeration today.
const Kind es.AggregateKind = "User"

// Role is the closed enumeration of user roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)
