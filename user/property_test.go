package user_test

import (
	"testing"

	"pgregory.net/rapid"

	es "github.com/userevents/core"
	"github.com/userevents/core/user"
)

// patchGen draws a random Update patch touching a random subset of fields.
func patchGen(t *rapid.T) user.UpdateUser {
	patch := user.UpdateUser{UserID: "u1"}
	if rapid.Bool().Draw(t, "touchFirstName") {
		v := rapid.StringMatching(`[a-zA-Z]{1,12}`).Draw(t, "firstName")
		patch.FirstName = &v
	}
	if rapid.Bool().Draw(t, "touchLastName") {
		v := rapid.StringMatching(`[a-zA-Z]{1,12}`).Draw(t, "lastName")
		patch.LastName = &v
	}
	if rapid.Bool().Draw(t, "touchEmail") {
		v := rapid.StringMatching(`[a-z]{1,8}@example\.com`).Draw(t, "email")
		patch.Email = &v
	}
	return patch
}

// TestUser_RevisionIsGaplessAndMatchesEventCount checks spec's gapless
// revision invariant: after any sequence of successful commands, the
// aggregate's revision always equals the number of events it has raised,
// and replaying the same events onto a fresh aggregate reproduces the exact
// same folded state (fold determinism).
func TestUser_RevisionIsGaplessAndMatchesEventCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		u := user.New("u1")
		require := func(ok bool, msg string) {
			if !ok {
				t.Fatal(msg)
			}
		}

		err := u.HandleCreate(user.CreateUser{
			UserID:       "u1",
			Username:     "ada",
			Email:        "ada@example.com",
			PasswordHash: "hash",
		})
		require(err == nil, "create must succeed on a fresh aggregate")

		var allEvents []es.Event
		created, _ := u.Flush()
		allEvents = append(allEvents, created...)

		steps := rapid.IntRange(0, 8).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			patch := patchGen(t)
			if err := u.HandleUpdate(patch); err != nil {
				continue
			}
			events, _ := u.Flush()
			allEvents = append(allEvents, events...)
		}

		if u.Revision() != int64(len(allEvents)) {
			t.Fatalf("revision %d does not match raised event count %d", u.Revision(), len(allEvents))
		}

		replay := user.New("u1")
		for _, e := range allEvents {
			replay.Apply(e)
		}

		if replay.Username() != u.Username() ||
			replay.Email() != u.Email() ||
			replay.FirstName() != u.FirstName() ||
			replay.LastName() != u.LastName() ||
			replay.Revision() != u.Revision() {
			t.Fatalf("replaying events produced different state: got %+v, want %+v", replay, u)
		}
	})
}
