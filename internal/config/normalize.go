package config

import (
	"fmt"
	"strings"

	"mirror/webuntis/internal/untis"
)

const (
	defaultDisplayMode  = "lessons,exams"
	defaultLessonDays   = 7
	defaultExamDays     = 21
	defaultAbsencePast  = 21
	defaultAbsenceAhead = 7
	maxDays             = 365
)

// Normalize applies module defaults and built-in defaults to every student.
// Students that cannot authenticate are dropped; the returned warnings say why.
func Normalize(m Module) (Module, []string) {
	var warnings []string
	students := make([]Student, 0, len(m.Students))
	for i, s := range m.Students {
		s = inherit(s, m.Defaults)
		if strings.TrimSpace(s.Title) == "" {
			s.Title = fmt.Sprintf("Student %d", i+1)
		}
		if !s.Credential.Valid() {
			warnings = append(warnings, fmt.Sprintf("Student %q: missing credentials (qrcode or school/username/password/server)", s.Title))
			continue
		}
		if strings.TrimSpace(s.DisplayMode) == "" {
			s.DisplayMode = defaultDisplayMode
		}

		lessons := resolveWindow(s.Lessons, positiveOr(s.DaysToShow, defaultLessonDays), positiveOr(s.PastDaysToShow, 0))
		exams := resolveWindow(s.Exams, positiveOr(s.ExamsDaysAhead, defaultExamDays), 0)
		absences := resolveWindow(s.Absences, defaultAbsenceAhead, defaultAbsencePast)
		homework := resolveWindow(s.Homework, DaysUnset, DaysUnset)

		for _, w := range []struct {
			name   string
			window *Window
		}{
			{"lessons", &lessons},
			{"exams", &exams},
			{"homework", &homework},
			{"absences", &absences},
		} {
			warnings = append(warnings, clampWindow(s.Title, w.name, w.window)...)
		}
		s.Lessons, s.Exams, s.Homework, s.Absences = &lessons, &exams, &homework, &absences
		students = append(students, s)
	}
	m.Students = students
	return m, warnings
}

func inherit(s, d Student) Student {
	if s.Credential == (untis.Credential{}) {
		s.Credential = d.Credential
	}
	if s.DisplayMode == "" {
		s.DisplayMode = d.DisplayMode
	}
	if s.ShowTeacherMode == "" {
		s.ShowTeacherMode = d.ShowTeacherMode
	}
	s.UseClassTimetable = s.UseClassTimetable || d.UseClassTimetable
	s.AllowMarkdown = s.AllowMarkdown || d.AllowMarkdown
	s.DumpBackendPayloads = s.DumpBackendPayloads || d.DumpBackendPayloads
	if s.DaysToShow == 0 {
		s.DaysToShow = d.DaysToShow
	}
	if s.PastDaysToShow == 0 {
		s.PastDaysToShow = d.PastDaysToShow
	}
	if s.ExamsDaysAhead == 0 {
		s.ExamsDaysAhead = d.ExamsDaysAhead
	}
	if s.Lessons == nil {
		s.Lessons = d.Lessons
	}
	if s.Exams == nil {
		s.Exams = d.Exams
	}
	if s.Homework == nil {
		s.Homework = d.Homework
	}
	if s.Absences == nil {
		s.Absences = d.Absences
	}
	return s
}

func resolveWindow(w *Window, next, past int) Window {
	out := unsetWindow()
	if w != nil {
		out = *w
	}
	if out.NextDays == DaysUnset {
		out.NextDays = next
	}
	if out.PastDays == DaysUnset {
		out.PastDays = past
	}
	return out
}

func clampWindow(title, name string, w *Window) []string {
	var warnings []string
	clamp := func(field string, v *int) {
		switch {
		case *v == DaysUnset:
		case *v < 0:
			warnings = append(warnings, fmt.Sprintf("Student %q: %s.%s=%d is negative, using 0", title, name, field, *v))
			*v = 0
		case *v > maxDays:
			warnings = append(warnings, fmt.Sprintf("Student %q: %s.%s=%d exceeds %d, clamped", title, name, field, *v, maxDays))
			*v = maxDays
		}
	}
	clamp("nextDays", &w.NextDays)
	clamp("pastDays", &w.PastDays)
	return warnings
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
