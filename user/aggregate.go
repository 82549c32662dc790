package user

import (
	es "github.com/userevents/core"
)

// User is the write-side aggregate root: essential state folded from its
// event stream, plus the behavior that turns commands into events (spec
// §4.4). Uniqueness rules that span aggregates (username/email conflicts)
// are checked by the command handler before Handle is called — Handle
// itself is a pure function of this aggregate's own state.
type User struct {
	es.Base

	username     string
	email        string
	firstName    string
	lastName     string
	passwordHash string
	role         Role
	created      bool
	deleted      bool
}

var _ es.Aggregate = (*User)(nil)

// New creates an empty User aggregate ready for rehydration or for handling
// its first command.
func New(id string) *User {
	u := &User{}
	u.Init(id, Kind, u.apply)
	return u
}

func (u *User) apply(e es.Event) {
	switch ev := e.(type) {
	case Created:
		u.username = ev.Username
		u.email = ev.Email
		u.firstName = ev.FirstName
		u.lastName = ev.LastName
		u.passwordHash = ev.PasswordHash
		u.role = ev.Role
		u.created = true
	case Updated:
		if ev.FirstName != nil {
			u.firstName = *ev.FirstName
		}
		if ev.LastName != nil {
			u.lastName = *ev.LastName
		}
		if ev.Email != nil {
			u.email = *ev.Email
		}
	case PasswordChanged:
		u.passwordHash = ev.NewPasswordHash
	case Deleted:
		u.deleted = true
	}
}

// Username, Email, FirstName, LastName, PasswordHash, Role, IsDeleted, and
// Exists expose the folded state for command handlers and projections.
func (u *User) Username() string     { return u.username }
func (u *User) Email() string        { return u.email }
func (u *User) FirstName() string    { return u.firstName }
func (u *User) LastName() string     { return u.lastName }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) Role() Role           { return u.role }
func (u *User) IsDeleted() bool      { return u.deleted }
func (u *User) Exists() bool         { return u.created }

// HandleCreate validates and records a CreateUser command. Callers must
// have already checked cross-aggregate username/email uniqueness.
func (u *User) HandleCreate(cmd CreateUser) error {
	if u.created {
		return &es.BusinessRuleViolation{Rule: "already_created", Message: "user already exists"}
	}
	if cmd.Username == "" {
		return &es.ValidationError{Field: "username", Message: "username is required"}
	}
	if cmd.Email == "" {
		return &es.ValidationError{Field: "email", Message: "email is required"}
	}
	if cmd.PasswordHash == "" {
		return &es.ValidationError{Field: "password_hash", Message: "password hash is required"}
	}
	role := cmd.Role
	if role == "" {
		role = RoleUser
	}
	u.Raise(Created{
		Username:     cmd.Username,
		Email:        cmd.Email,
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		PasswordHash: cmd.PasswordHash,
		Role:         role,
	})
	return nil
}

// HandleUpdate validates and records an UpdateUser command.
func (u *User) HandleUpdate(cmd UpdateUser) error {
	if u.deleted {
		return &es.BusinessRuleViolation{Rule: "deleted", Message: "cannot update a deleted user"}
	}
	if cmd.FirstName == nil && cmd.LastName == nil && cmd.Email == nil {
		return &es.BusinessRuleViolation{Rule: "no_fields_to_update", Message: "no fields provided for update"}
	}
	u.Raise(Updated{
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Email:     cmd.Email,
	})
	return nil
}

// HandleChangePassword validates and records a ChangePassword command.
func (u *User) HandleChangePassword(cmd ChangePassword) error {
	if u.deleted {
		return &es.BusinessRuleViolation{Rule: "deleted", Message: "cannot change password of a deleted user"}
	}
	if cmd.NewPasswordHash == u.passwordHash {
		return &es.BusinessRuleViolation{Rule: "password_unchanged", Message: "new password hash matches the current one"}
	}
	u.Raise(PasswordChanged{NewPasswordHash: cmd.NewPasswordHash})
	return nil
}

// HandleDelete records a DeleteUser command. It is idempotent: calling it
// on an already-deleted aggregate raises no events and returns no error.
func (u *User) HandleDelete(_ DeleteUser) error {
	if u.deleted {
		return nil
	}
	u.Raise(Deleted{})
	return nil
}
