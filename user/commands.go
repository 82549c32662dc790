package user

// CreateUser is the intent to register a new user (spec §6 command
// catalogue). CommandID enables handler-level idempotency: two submissions
// with the same CommandID must observe the same outcome.
type CreateUser struct {
	CommandID    string
	UserID       string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         Role
}

func (c CreateUser) AggregateID() string { return c.UserID }

// UpdateUser is the intent to change one or more mutable profile fields.
// Empty optional fields mean "leave unchanged"; all of them empty is a
// NoFieldsToUpdate business rule violation.
type UpdateUser struct {
	CommandID string
	UserID    string
	FirstName *string
	LastName  *string
	Email     *string
}

func (c UpdateUser) AggregateID() string { return c.UserID }

// ChangePassword is the intent to replace the user's password hash.
type ChangePassword struct {
	CommandID       string
	UserID          string
	NewPasswordHash string
}

func (c ChangePassword) AggregateID() string { return c.UserID }

// DeleteUser is the intent to soft-delete a user. Idempotent: replaying it
// against an already-deleted aggregate produces zero events.
type DeleteUser struct {
	CommandID string
	UserID    string
}

func (c DeleteUser) AggregateID() string { return c.UserID }
