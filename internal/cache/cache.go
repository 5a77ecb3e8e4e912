// Package cache stores built payloads for a short time so repeated fetch
// requests with the same effective settings do not hit the upstream API.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"mirror/webuntis/internal/config"
	"mirror/webuntis/internal/fetch"
	"mirror/webuntis/internal/payload"
)

// ErrMiss is returned by Get for absent or expired entries.
var ErrMiss = errors.New("cache miss")

// Store is a TTL-bounded payload cache keyed by signature. Stored payloads
// carry no requester id.
type Store interface {
	Get(ctx context.Context, signature string) (payload.Payload, error)
	Set(ctx context.Context, signature string, p payload.Payload) error
	// Sweep evicts expired entries and reports how many were removed.
	Sweep(ctx context.Context) (int, error)
}

type windowKey struct {
	Next int `json:"n"`
	Past int `json:"p"`
}

type signatureKey struct {
	Credential        string      `json:"cred"`
	Title             string      `json:"title"`
	StudentID         int         `json:"sid"`
	Flags             fetch.Flags `json:"flags"`
	UseClassTimetable bool        `json:"class"`
	AllowMarkdown     bool        `json:"md"`
	ShowTeacherMode   string      `json:"teacher"`
	Lessons           windowKey   `json:"lessons"`
	Exams             windowKey   `json:"exams"`
	Homework          windowKey   `json:"homework"`
	Absences          windowKey   `json:"absences"`
}

func toWindowKey(w *config.Window) windowKey {
	if w == nil {
		return windowKey{Next: config.DaysUnset, Past: config.DaysUnset}
	}
	return windowKey{Next: w.NextDays, Past: w.PastDays}
}

// Sign derives the cache key of a normalized student from its credential and
// every setting that changes the built payload.
func Sign(s config.Student) (string, error) {
	body, err := json.Marshal(signatureKey{
		Credential:        s.Credential.Key(),
		Title:             s.Title,
		StudentID:         s.StudentID,
		Flags:             fetch.FlagsFromDisplayMode(s.DisplayMode),
		UseClassTimetable: s.UseClassTimetable,
		AllowMarkdown:     s.AllowMarkdown,
		ShowTeacherMode:   s.ShowTeacherMode,
		Lessons:           toWindowKey(s.Lessons),
		Exams:             toWindowKey(s.Exams),
		Homework:          toWindowKey(s.Homework),
		Absences:          toWindowKey(s.Absences),
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
