package untis

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RawItem is one upstream record as decoded from JSON. Field names differ
// between endpoints and server versions, so no fixed struct is imposed here.
type RawItem = map[string]any

// Credential identifies one upstream account. Either QRCode is set, or the
// School/Username/Password/Server quadruple.
type Credential struct {
	QRCode   string `json:"qrcode,omitempty" yaml:"qrcode,omitempty"`
	School   string `json:"school,omitempty" yaml:"school,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Server   string `json:"server,omitempty" yaml:"server,omitempty"`
}

// Key groups students that share one authenticated session.
func (c Credential) Key() string {
	if qr := strings.TrimSpace(c.QRCode); qr != "" {
		return qr
	}
	return fmt.Sprintf("%s@%s/%s", c.Username, c.Server, c.School)
}

func (c Credential) IsQR() bool {
	return strings.TrimSpace(c.QRCode) != ""
}

// Valid reports whether the credential carries enough data to attempt a login.
func (c Credential) Valid() bool {
	if c.IsQR() {
		return true
	}
	return c.School != "" && c.Username != "" && c.Password != "" && c.Server != ""
}

// AuthContext is a resolved session against one server.
type AuthContext struct {
	Server     string
	School     string
	Bearer     string
	Cookies    []*http.Cookie
	PersonID   int
	PersonType int
	ClassID    int
	ExpiresAt  time.Time
}

// Options carries per-student request modifiers.
type Options struct {
	UseClassTimetable bool
	ClassID           int
}

const (
	elementTypeClass   = 1
	elementTypeStudent = 5
)

// Provider is the upstream school-information API as consumed by the fetch
// pipeline. Client implements it against WebUntis. A nil list with a nil
// error means the account has no data of that type.
type Provider interface {
	Authenticate(ctx context.Context, cred Credential) (*AuthContext, error)
	Logout(ctx context.Context, auth *AuthContext) error
	Timetable(ctx context.Context, auth *AuthContext, start, end time.Time, studentID int, opts Options) ([]RawItem, error)
	Exams(ctx context.Context, auth *AuthContext, start, end time.Time, studentID int, opts Options) ([]RawItem, error)
	Homework(ctx context.Context, auth *AuthContext, start, end time.Time, studentID int, opts Options) ([]RawItem, error)
	Absences(ctx context.Context, auth *AuthContext, start, end time.Time, studentID int, opts Options) ([]RawItem, error)
	MessagesOfDay(ctx context.Context, auth *AuthContext, date time.Time, opts Options) ([]RawItem, error)
	Timegrid(ctx context.Context, auth *AuthContext) ([]RawItem, error)
	Holidays(ctx context.Context, auth *AuthContext) ([]RawItem, error)
}
