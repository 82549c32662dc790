package user

// Created is emitted when a new user is registered. schema_version "1".
type Created struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PasswordHash string `json:"password_hash"`
	Role         Role   `json:"role"`
}

func (Created) EventKind() string     { return "UserCreated" }
func (Created) SchemaVersion() string { return "1" }

// SearchField exposes the fields the username/email uniqueness check
// searches on (stores/mem's Search keys off this; stores/pgx matches the
// same JSON keys with a JSONB containment query).
func (e Created) SearchField(name string) (string, bool) {
	switch name {
	case "username":
		return e.Username, true
	case "email":
		return e.Email, true
	default:
		return "", false
	}
}

// Updated is emitted when mutable profile fields change. Unset pointer
// fields mean "leave unchanged" — the event itself only ever carries the
// fields that actually changed, never a full snapshot of the aggregate.
type Updated struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
}

func (Updated) EventKind() string     { return "UserUpdated" }
func (Updated) SchemaVersion() string { return "1" }

// SearchField supports the email-uniqueness check on update: Email is the
// only field a search would ever need to match against.
func (e Updated) SearchField(name string) (string, bool) {
	if name == "email" && e.Email != nil {
		return *e.Email, true
	}
	return "", false
}

// PasswordChanged is emitted when the user's password hash is replaced.
type PasswordChanged struct {
	NewPasswordHash string `json:"new_password_hash"`
}

func (PasswordChanged) EventKind() string     { return "PasswordChanged" }
func (PasswordChanged) SchemaVersion() string { return "1" }

// Deleted is emitted when the aggregate is soft-deleted. It carries no
// payload fields; its occurrence is the fact.
type Deleted struct{}

func (Deleted) EventKind() string     { return "UserDeleted" }
func (Deleted) SchemaVersion() string { return "1" }
