package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	es "github.com/userevents/core"
	"github.com/userevents/core/providers/email"
	"github.com/userevents/core/readmodel"
	"github.com/userevents/core/user"
)

// Task names registered in a dispatch.Registry against the user event
// kinds, matching the source system's Celery task names (see DESIGN.md).
const (
	TaskReadModel    = "read_model_projection"
	TaskWelcomeEmail = "welcome_email"
)

// Handler processes one committed event for one task.
type Handler interface {
	Handle(ctx context.Context, event es.StoredEvent) error
}

// ReadModelHandler keeps read_user in sync with the User aggregate's
// current folded state. It always rehydrates the full aggregate rather
// than applying the event's (possibly partial) payload directly, since the
// event store is the source of truth and projections must tolerate being
// replayed out of order by retries.
type ReadModelHandler struct {
	repo *user.Repository
	rows readmodel.Repository
}

// NewReadModelHandler builds a ReadModelHandler.
func NewReadModelHandler(repo *user.Repository, rows readmodel.Repository) *ReadModelHandler {
	return &ReadModelHandler{repo: repo, rows: rows}
}

func (h *ReadModelHandler) Handle(ctx context.Context, event es.StoredEvent) error {
	u, _, err := h.repo.Load(ctx, event.AggregateID)
	if err != nil {
		return err
	}
	if !u.Exists() {
		return nil
	}

	// CreatedAt is stamped from the first event this row is ever projected
	// from and then carried forward on every later Upsert; it is never
	// recomputed from the aggregate, which doesn't track its own creation
	// time.
	createdAt := event.Timestamp
	if existing, found, err := h.rows.Get(ctx, event.AggregateID); err != nil {
		return err
	} else if found {
		createdAt = existing.CreatedAt
	}

	row := readmodel.User{
		UserID:    u.AggregateID(),
		Username:  u.Username(),
		Email:     u.Email(),
		FirstName: u.FirstName(),
		LastName:  u.LastName(),
		Role:      u.Role(),
		Revision:  u.Revision(),
		CreatedAt: createdAt,
	}
	if u.IsDeleted() {
		deletedAt := event.Timestamp
		row.DeletedAt = &deletedAt
	}
	return h.rows.Upsert(ctx, row)
}

var _ Handler = (*ReadModelHandler)(nil)

// WelcomeEmailHandler sends a welcome email on UserCreated. Calls through
// to the EmailProvider are wrapped in a circuit breaker so a failing
// provider trips open instead of being hammered by River's own retries.
type WelcomeEmailHandler struct {
	provider email.Provider
	breaker  *gobreaker.CircuitBreaker[struct{}]
}

// NewWelcomeEmailHandler builds a WelcomeEmailHandler. A nil breaker builds
// one with sensible defaults (open after 5 consecutive failures, half-open
// after 30s).
func NewWelcomeEmailHandler(provider email.Provider, breaker *gobreaker.CircuitBreaker[struct{}]) *WelcomeEmailHandler {
	if breaker == nil {
		breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "welcome_email",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}
	return &WelcomeEmailHandler{provider: provider, breaker: breaker}
}

func (h *WelcomeEmailHandler) Handle(ctx context.Context, event es.StoredEvent) error {
	created, ok := event.Data.(user.Created)
	if !ok {
		return nil
	}

	_, err := h.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, h.provider.Send(ctx, email.Message{
			To:      created.Email,
			Subject: "Welcome!",
			Body:    fmt.Sprintf("Hi %s, your account is ready.", created.FirstName),
		})
	})
	if err != nil {
		return &es.ExternalError{Provider: h.provider.Name(), Cause: err}
	}
	return nil
}

var _ Handler = (*WelcomeEmailHandler)(nil)
