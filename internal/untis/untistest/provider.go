// Package untistest provides an in-memory untis.Provider for tests.
package untistest

import (
	"context"
	"sync"
	"time"

	"mirror/webuntis/internal/untis"
)

// Call names recorded by Provider.
const (
	Authenticate  = "authenticate"
	Logout        = "logout"
	Timetable     = "timetable"
	Exams         = "exams"
	Homework      = "homework"
	Absences      = "absences"
	MessagesOfDay = "messagesOfDay"
	Timegrid      = "timegrid"
	Holidays      = "holidays"
)

// Provider answers every call from Data, or fails with Errs. A nil entry in
// Data yields an empty list. Delay is applied to every data call.
type Provider struct {
	Auth    *untis.AuthContext
	AuthErr error
	// AuthErrByKey fails Authenticate for one credential key.
	AuthErrByKey map[string]error
	LogoutErr    error
	Data         map[string][]untis.RawItem
	Errs         map[string]error
	// ErrsByStudent fails a data call only for the given student id.
	ErrsByStudent map[int]error
	// NilFor answers the named calls with a nil list and no error.
	NilFor map[string]bool
	Delay  time.Duration
	Panic  string

	mu    sync.Mutex
	calls map[string]int
	ids   map[string][]int
}

func (p *Provider) record(name string, studentID int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = make(map[string]int)
		p.ids = make(map[string][]int)
	}
	p.calls[name]++
	p.ids[name] = append(p.ids[name], studentID)
}

// Calls returns how often name was invoked.
func (p *Provider) Calls(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[name]
}

// StudentIDs returns the student ids passed to name, in call order.
func (p *Provider) StudentIDs(name string) []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]int(nil), p.ids[name]...)
}

func (p *Provider) data(ctx context.Context, name string, studentID int) ([]untis.RawItem, error) {
	p.record(name, studentID)
	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.Panic == name {
		panic(name + " exploded")
	}
	if err, ok := p.ErrsByStudent[studentID]; ok && name != Timegrid && name != Holidays {
		return nil, err
	}
	if err := p.Errs[name]; err != nil {
		return nil, err
	}
	if p.NilFor[name] {
		return nil, nil
	}
	if items := p.Data[name]; items != nil {
		return items, nil
	}
	return []untis.RawItem{}, nil
}

func (p *Provider) Authenticate(_ context.Context, cred untis.Credential) (*untis.AuthContext, error) {
	p.record(Authenticate, 0)
	if p.AuthErr != nil {
		return nil, p.AuthErr
	}
	if err := p.AuthErrByKey[cred.Key()]; err != nil {
		return nil, err
	}
	if p.Auth != nil {
		auth := *p.Auth
		return &auth, nil
	}
	return &untis.AuthContext{Server: cred.Server, School: cred.School, Bearer: "token"}, nil
}

func (p *Provider) Logout(context.Context, *untis.AuthContext) error {
	p.record(Logout, 0)
	return p.LogoutErr
}

func (p *Provider) Timetable(ctx context.Context, _ *untis.AuthContext, _, _ time.Time, studentID int, _ untis.Options) ([]untis.RawItem, error) {
	return p.data(ctx, Timetable, studentID)
}

func (p *Provider) Exams(ctx context.Context, _ *untis.AuthContext, _, _ time.Time, studentID int, _ untis.Options) ([]untis.RawItem, error) {
	return p.data(ctx, Exams, studentID)
}

func (p *Provider) Homework(ctx context.Context, _ *untis.AuthContext, _, _ time.Time, studentID int, _ untis.Options) ([]untis.RawItem, error) {
	return p.data(ctx, Homework, studentID)
}

func (p *Provider) Absences(ctx context.Context, _ *untis.AuthContext, _, _ time.Time, studentID int, _ untis.Options) ([]untis.RawItem, error) {
	return p.data(ctx, Absences, studentID)
}

func (p *Provider) MessagesOfDay(ctx context.Context, _ *untis.AuthContext, _ time.Time, _ untis.Options) ([]untis.RawItem, error) {
	return p.data(ctx, MessagesOfDay, 0)
}

func (p *Provider) Timegrid(ctx context.Context, _ *untis.AuthContext) ([]untis.RawItem, error) {
	return p.data(ctx, Timegrid, 0)
}

func (p *Provider) Holidays(ctx context.Context, _ *untis.AuthContext) ([]untis.RawItem, error) {
	return p.data(ctx, Holidays, 0)
}

var _ untis.Provider = (*Provider)(nil)
