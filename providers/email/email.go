// Package email is the outbound email boundary used by
// projection.WelcomeEmailHandler. It is an external collaborator: the
// handler depends only on the Provider interface, never on a concrete
// transport.
package email

import "context"

// Message is the content of a single outbound email.
type Message struct {
	To      string
	From    string
	Subject string
	Body    string
}

// Provider sends email. Implementations must be safe for concurrent use.
type Provider interface {
	Send(ctx context.Context, msg Message) error
	Name() string
	Available() bool
}
