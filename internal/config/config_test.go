package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":18090")
	t.Setenv("REDIS_ADDR", "localhost:6380")
	t.Setenv("CACHE_TTL", "45s")
	t.Setenv("CACHE_SWEEP_INTERVAL_SECONDS", "10")
	t.Setenv("UPSTREAM_RATE", "2.5")
	t.Setenv("GROUP_CONCURRENCY", "2")
	t.Setenv("DEBUG_DUMP_ALL", "true")

	cfg := Load()
	if cfg.HTTPAddr != ":18090" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.RedisAddr != "localhost:6380" {
		t.Fatalf("expected REDIS_ADDR override, got %s", cfg.RedisAddr)
	}
	if cfg.CacheTTL != 45*time.Second {
		t.Fatalf("expected CACHE_TTL 45s, got %s", cfg.CacheTTL)
	}
	if cfg.CacheSweepInterval != 10*time.Second {
		t.Fatalf("expected CACHE_SWEEP_INTERVAL 10s, got %s", cfg.CacheSweepInterval)
	}
	if cfg.UpstreamRate != 2.5 {
		t.Fatalf("expected UPSTREAM_RATE 2.5, got %v", cfg.UpstreamRate)
	}
	if cfg.GroupConcurrency != 2 {
		t.Fatalf("expected GROUP_CONCURRENCY 2, got %d", cfg.GroupConcurrency)
	}
	if !cfg.DebugDumpAll {
		t.Fatalf("expected DEBUG_DUMP_ALL true")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CACHE_TTL", "not-a-duration")
	t.Setenv("UPSTREAM_BURST", "many")

	cfg := Load()
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("expected default CACHE_TTL, got %s", cfg.CacheTTL)
	}
	if cfg.UpstreamBurst != 10 {
		t.Fatalf("expected default UPSTREAM_BURST, got %d", cfg.UpstreamBurst)
	}
	if cfg.DebugDumpDir != "debug_dumps" {
		t.Fatalf("expected default dump dir, got %s", cfg.DebugDumpDir)
	}
}

func TestWindowUnmarshalMarksOmittedValues(t *testing.T) {
	var s Student
	if err := json.Unmarshal([]byte(`{"title":"A","homework":{"nextDays":3}}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Homework == nil || s.Homework.NextDays != 3 || s.Homework.PastDays != DaysUnset {
		t.Fatalf("unexpected homework window %+v", s.Homework)
	}
	if s.Lessons != nil {
		t.Fatalf("expected absent lessons block to stay nil")
	}
}

func TestNormalizeDefaultsAndLegacyKeys(t *testing.T) {
	m := Module{
		Defaults: Student{DaysToShow: 5, AllowMarkdown: true},
		Students: []Student{
			{StudentID: 7},
			{Title: "Ben", ExamsDaysAhead: 10},
		},
	}
	m.Defaults.Credential.QRCode = "untis://setschool?url=demo&school=s&user=u&key=K"
	m.Students[1].School = "s"
	m.Students[1].Username = "ben"
	m.Students[1].Password = "pw"
	m.Students[1].Server = "demo.webuntis.com"

	out, warnings := Normalize(m)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings %v", warnings)
	}
	if len(out.Students) != 2 {
		t.Fatalf("expected 2 students, got %d", len(out.Students))
	}

	first := out.Students[0]
	if first.Title != "Student 1" {
		t.Fatalf("expected generated title, got %q", first.Title)
	}
	if !first.IsQR() || !first.AllowMarkdown {
		t.Fatalf("expected module defaults inherited, got %+v", first)
	}
	if first.Lessons.NextDays != 5 || first.Lessons.PastDays != 0 {
		t.Fatalf("expected legacy daysToShow for lessons, got %+v", *first.Lessons)
	}
	if first.Homework.NextDays != DaysUnset || first.Homework.PastDays != DaysUnset {
		t.Fatalf("expected unset homework window, got %+v", *first.Homework)
	}
	if first.Absences.PastDays != 21 || first.Absences.NextDays != 7 {
		t.Fatalf("unexpected absences window %+v", *first.Absences)
	}
	if first.DisplayMode != "lessons,exams" {
		t.Fatalf("expected default display mode, got %q", first.DisplayMode)
	}

	second := out.Students[1]
	if second.IsQR() {
		t.Fatalf("expected own credential to win over defaults")
	}
	if second.Exams.NextDays != 10 {
		t.Fatalf("expected examsDaysAhead 10, got %d", second.Exams.NextDays)
	}
}

func TestNormalizeDropsStudentsWithoutCredentials(t *testing.T) {
	m := Module{Students: []Student{{Title: "Nobody"}}}
	out, warnings := Normalize(m)
	if len(out.Students) != 0 {
		t.Fatalf("expected student to be dropped")
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
}

func TestNormalizeClampsOutOfRange(t *testing.T) {
	s := Student{Title: "C", Lessons: &Window{NextDays: -2, PastDays: 400}}
	s.QRCode = "qr"
	out, warnings := Normalize(Module{Students: []Student{s}})
	if len(warnings) != 2 {
		t.Fatalf("expected two clamp warnings, got %v", warnings)
	}
	if got := *out.Students[0].Lessons; got.NextDays != 0 || got.PastDays != 365 {
		t.Fatalf("unexpected clamped window %+v", got)
	}
}

func TestGroupsKeepFirstSeenOrder(t *testing.T) {
	a := Student{Title: "a"}
	a.QRCode = "qr-1"
	b := Student{Title: "b"}
	b.QRCode = "qr-2"
	c := Student{Title: "c"}
	c.QRCode = "qr-1"

	groups := Groups([]Student{a, b, c})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Key != "qr-1" || len(groups[0].Students) != 2 {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if len(groups[0].Positions) != 2 || groups[0].Positions[1] != 2 {
		t.Fatalf("unexpected positions %v", groups[0].Positions)
	}
	if groups[1].Key != "qr-2" {
		t.Fatalf("unexpected second group key %s", groups[1].Key)
	}
}

func TestLoadModuleFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "module.yaml")
	body := `
defaults:
  displayMode: lessons,homework
students:
  - title: Anna
    studentId: 42
    school: demo
    username: anna
    password: secret
    server: demo.webuntis.com
    homework:
      pastDays: 2
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := LoadModuleFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(m.Students) != 1 {
		t.Fatalf("expected 1 student, got %d", len(m.Students))
	}
	s := m.Students[0]
	if s.Username != "anna" || s.StudentID != 42 {
		t.Fatalf("unexpected student %+v", s)
	}
	if s.Homework == nil || s.Homework.PastDays != 2 || s.Homework.NextDays != DaysUnset {
		t.Fatalf("unexpected homework window %+v", s.Homework)
	}
	if m.Defaults.DisplayMode != "lessons,homework" {
		t.Fatalf("unexpected defaults %+v", m.Defaults)
	}

	if _, err := LoadModuleFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
