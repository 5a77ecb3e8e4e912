package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror/webuntis/internal/config"
	"mirror/webuntis/internal/payload"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func student() config.Student {
	s := config.Student{
		Title:       "Anna",
		StudentID:   42,
		DisplayMode: "lessons,exams",
		Lessons:     &config.Window{NextDays: 7},
		Exams:       &config.Window{NextDays: 21},
		Homework:    &config.Window{NextDays: config.DaysUnset, PastDays: config.DaysUnset},
		Absences:    &config.Window{NextDays: 7, PastDays: 21},
	}
	s.QRCode = "qr-anna"
	return s
}

func TestMemoryTTL(t *testing.T) {
	c := &clock{t: time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)}
	m := NewMemory(30 * time.Second)
	m.now = c.now
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "sig", payload.Payload{ID: "req-1", Title: "Anna"}))
	got, err := m.Get(ctx, "sig")
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Title)
	assert.Empty(t, got.ID)

	c.t = c.t.Add(31 * time.Second)
	_, err = m.Get(ctx, "sig")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Zero(t, m.Len())
}

func TestMemorySweep(t *testing.T) {
	c := &clock{t: time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC)}
	m := NewMemory(30 * time.Second)
	m.now = c.now
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "old", payload.Payload{}))
	c.t = c.t.Add(20 * time.Second)
	require.NoError(t, m.Set(ctx, "new", payload.Payload{}))
	c.t = c.t.Add(15 * time.Second)

	removed, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, m.Len())
	_, err = m.Get(ctx, "new")
	assert.NoError(t, err)
}

func TestSignDeterministic(t *testing.T) {
	a, err := Sign(student())
	require.NoError(t, err)
	b, err := Sign(student())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	withDump := student()
	withDump.DumpBackendPayloads = true
	c, err := Sign(withDump)
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

func TestSignChangesWithRelevantSettings(t *testing.T) {
	base, err := Sign(student())
	require.NoError(t, err)

	mutations := map[string]func(*config.Student){
		"credential":  func(s *config.Student) { s.QRCode = "qr-other" },
		"class":       func(s *config.Student) { s.UseClassTimetable = true },
		"lessons":     func(s *config.Student) { s.Lessons = &config.Window{NextDays: 3} },
		"exams":       func(s *config.Student) { s.Exams = &config.Window{NextDays: 10} },
		"homework":    func(s *config.Student) { s.Homework = &config.Window{NextDays: 2, PastDays: config.DaysUnset} },
		"absences":    func(s *config.Student) { s.Absences = &config.Window{NextDays: 7, PastDays: 5} },
		"displayMode": func(s *config.Student) { s.DisplayMode = "lessons" },
		"teacher":     func(s *config.Student) { s.ShowTeacherMode = "full" },
		"student":     func(s *config.Student) { s.StudentID = 43 },
	}
	for name, mutate := range mutations {
		s := student()
		mutate(&s)
		sig, err := Sign(s)
		require.NoError(t, err)
		assert.NotEqual(t, base, sig, name)
	}
}

func TestRedisEncodingDropsRequesterID(t *testing.T) {
	data, err := encode(payload.Payload{ID: "req-9", Title: "Anna", Warnings: []string{"w"}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "req-9")

	p, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Anna", p.Title)
	assert.Equal(t, []string{"w"}, p.Warnings)
	assert.Equal(t, "webuntis:payload:abc", payloadKey("abc"))
}

func TestRedisWithoutClient(t *testing.T) {
	r := NewRedis(nil, time.Second)
	_, err := r.Get(context.Background(), "sig")
	assert.Error(t, err)
	assert.Error(t, r.Set(context.Background(), "sig", payload.Payload{}))
}
