// Package command implements the C6 Command Handlers: one handler per
// command kind, each driving the load -> decide -> append -> publish
// sequence described in spec §4.6 inside a single Unit of Work.
package command

import (
	"context"
	"errors"

	es "github.com/userevents/core"
	"github.com/userevents/core/user"
)

// DefaultMaxAttempts bounds the load-decide-append retry loop on
// ConcurrencyConflict (spec §4.6).
const DefaultMaxAttempts = 3

// Handlers orchestrates every User command against a UnitOfWork.
type Handlers struct {
	uow         es.UnitOfWork
	maxAttempts int
}

// New builds a Handlers. maxAttempts <= 0 uses DefaultMaxAttempts.
func New(uow es.UnitOfWork, maxAttempts int) *Handlers {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Handlers{uow: uow, maxAttempts: maxAttempts}
}

// run retries work against a fresh Tx until it succeeds, a non-conflict
// error occurs, or maxAttempts is exhausted.
func (h *Handlers) run(ctx context.Context, work func(ctx context.Context, tx es.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < h.maxAttempts; attempt++ {
		err := es.WithinUnitOfWork(ctx, h.uow, work)
		if err == nil {
			return nil
		}
		var conflict *es.ConcurrencyConflictError
		if !errors.As(err, &conflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// alreadyHandled reports whether an event carrying this command_id in its
// metadata has already been appended to the aggregate's stream — the
// idempotency check spec §4.6 asks for: "a conflicting command_id at append
// time [is treated] as success".
func alreadyHandled(ctx context.Context, tx es.Tx, kind es.AggregateKind, aggregateID, commandID string) (bool, error) {
	if commandID == "" {
		return false, nil
	}
	events, err := tx.GetStream(ctx, kind, aggregateID, es.StreamFilter{})
	if err != nil {
		return false, err
	}
	for _, se := range events {
		if id, ok := se.Metadata["command_id"]; ok && id == commandID {
			return true, nil
		}
	}
	return false, nil
}

func withCommandID(commandID string) es.Metadata {
	if commandID == "" {
		return nil
	}
	return es.Metadata{"command_id": commandID}
}

// CreateUser handles the CreateUser command: checks username/email
// uniqueness against live (non-deleted) aggregates via the event store's
// Search operation, then hands the command to the aggregate.
func (h *Handlers) CreateUser(ctx context.Context, cmd user.CreateUser) error {
	return h.run(ctx, func(ctx context.Context, tx es.Tx) error {
		done, err := alreadyHandled(ctx, tx, user.Kind, cmd.UserID, cmd.CommandID)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if conflict, err := findLiveConflict(ctx, tx, "username", cmd.Username); err != nil {
			return err
		} else if conflict {
			return &es.ConflictError{Field: "username", Value: cmd.Username}
		}
		if conflict, err := findLiveConflict(ctx, tx, "email", cmd.Email); err != nil {
			return err
		} else if conflict {
			return &es.ConflictError{Field: "email", Value: cmd.Email}
		}

		repo := user.NewRepository(tx, tx)
		u, head, err := repo.Load(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		if err := u.HandleCreate(cmd); err != nil {
			return err
		}
		return h.flush(ctx, tx, u, head, cmd.CommandID)
	})
}

// UpdateUser handles the UpdateUser command.
func (h *Handlers) UpdateUser(ctx context.Context, cmd user.UpdateUser) error {
	return h.run(ctx, func(ctx context.Context, tx es.Tx) error {
		done, err := alreadyHandled(ctx, tx, user.Kind, cmd.UserID, cmd.CommandID)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if cmd.Email != nil {
			if conflict, err := findLiveConflict(ctx, tx, "email", *cmd.Email); err != nil {
				return err
			} else if conflict {
				return &es.ConflictError{Field: "email", Value: *cmd.Email}
			}
		}

		repo := user.NewRepository(tx, tx)
		u, head, err := repo.Load(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		if !u.Exists() {
			return &es.NotFoundError{Kind: user.Kind, ID: cmd.UserID}
		}
		if err := u.HandleUpdate(cmd); err != nil {
			return err
		}
		return h.flush(ctx, tx, u, head, cmd.CommandID)
	})
}

// ChangePassword handles the ChangePassword command.
func (h *Handlers) ChangePassword(ctx context.Context, cmd user.ChangePassword) error {
	return h.run(ctx, func(ctx context.Context, tx es.Tx) error {
		done, err := alreadyHandled(ctx, tx, user.Kind, cmd.UserID, cmd.CommandID)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		repo := user.NewRepository(tx, tx)
		u, head, err := repo.Load(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		if !u.Exists() {
			return &es.NotFoundError{Kind: user.Kind, ID: cmd.UserID}
		}
		if err := u.HandleChangePassword(cmd); err != nil {
			return err
		}
		return h.flush(ctx, tx, u, head, cmd.CommandID)
	})
}

// DeleteUser handles the DeleteUser command. Idempotent at the aggregate
// level (user.HandleDelete) as well as at the command_id level.
func (h *Handlers) DeleteUser(ctx context.Context, cmd user.DeleteUser) error {
	return h.run(ctx, func(ctx context.Context, tx es.Tx) error {
		done, err := alreadyHandled(ctx, tx, user.Kind, cmd.UserID, cmd.CommandID)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		repo := user.NewRepository(tx, tx)
		u, head, err := repo.Load(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		if !u.Exists() {
			return &es.NotFoundError{Kind: user.Kind, ID: cmd.UserID}
		}
		if err := u.HandleDelete(cmd); err != nil {
			return err
		}
		return h.flush(ctx, tx, u, head, cmd.CommandID)
	})
}

// flush appends the aggregate's pending events, updates its snapshot, and
// lets the Tx's own Append implementation enqueue the outbox rows — steps
// 4 through 7 of spec §4.6's handler skeleton.
func (h *Handlers) flush(ctx context.Context, tx es.Tx, u *user.User, head int64, commandID string) error {
	events, expected := u.Flush()
	if len(events) == 0 {
		return nil
	}
	if _, err := tx.Append(ctx, user.Kind, u.AggregateID(), expected, events, withCommandID(commandID)); err != nil {
		return err
	}
	snap := user.ToSnapshot(u)
	return tx.Put(ctx, user.Kind, u.AggregateID(), es.Snapshot{State: snap, Revision: u.Revision()})
}

// findLiveConflict reports whether any non-deleted User aggregate currently
// has the given field set to value. It folds each matching aggregate's
// stream to check the current (not merely historical) value, since a
// username can be freed up again after the owning user is updated or
// deleted.
func findLiveConflict(ctx context.Context, tx es.Tx, field, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	matches, err := tx.Search(ctx, user.Kind, field, value)
	if err != nil {
		return false, err
	}
	seen := map[string]bool{}
	for _, se := range matches {
		if seen[se.AggregateID] {
			continue
		}
		seen[se.AggregateID] = true

		repo := user.NewRepository(tx, tx)
		u, _, err := repo.Load(ctx, se.AggregateID)
		if err != nil {
			return false, err
		}
		if !u.Exists() || u.IsDeleted() {
			continue
		}
		if (field == "username" && u.Username() == value) || (field == "email" && u.Email() == value) {
			return true, nil
		}
	}
	return false, nil
}
