package fetch

import (
	"context"

	"mirror/webuntis/internal/untis"
)

// Target is one auth context paired with the person id to request data for.
type Target struct {
	Auth      *untis.AuthContext
	StudentID int
}

// Targets lists the auth targets for a student: the configured student id
// first, then the session's own person, without duplicates.
func Targets(auth *untis.AuthContext, studentID int) []Target {
	var out []Target
	seen := make(map[int]bool)
	add := func(id int) {
		if id <= 0 || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, Target{Auth: auth, StudentID: id})
	}
	add(studentID)
	if auth != nil {
		add(auth.PersonID)
	}
	if len(out) == 0 {
		out = append(out, Target{Auth: auth})
	}
	return out
}

// Attempt is one strategy for producing a value. ok reports whether the
// value is structurally valid.
type Attempt[T any] func(ctx context.Context) (value T, ok bool)

// FirstValid runs attempts in order and returns the first valid value, or
// fallback when none succeeds. A cancelled context stops further attempts.
func FirstValid[T any](ctx context.Context, attempts []Attempt[T], fallback T) T {
	for _, attempt := range attempts {
		if ctx.Err() != nil {
			break
		}
		if value, ok := attempt(ctx); ok {
			return value
		}
	}
	return fallback
}
