package config

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"mirror/webuntis/internal/untis"
)

// DaysUnset marks a window bound the user did not configure.
const DaysUnset = 999

// Window is a per-widget day range relative to today.
type Window struct {
	NextDays int `json:"nextDays" yaml:"nextDays"`
	PastDays int `json:"pastDays" yaml:"pastDays"`
}

func unsetWindow() Window {
	return Window{NextDays: DaysUnset, PastDays: DaysUnset}
}

func (w *Window) UnmarshalJSON(data []byte) error {
	type plain Window
	decoded := plain(unsetWindow())
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*w = Window(decoded)
	return nil
}

func (w *Window) UnmarshalYAML(node *yaml.Node) error {
	type plain Window
	decoded := plain(unsetWindow())
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*w = Window(decoded)
	return nil
}

// Student is one widget instance: whose data to show and how much of it.
type Student struct {
	Title     string `json:"title" yaml:"title"`
	StudentID int    `json:"studentId,omitempty" yaml:"studentId,omitempty"`

	untis.Credential `json:",inline" yaml:",inline"`

	DisplayMode       string `json:"displayMode,omitempty" yaml:"displayMode,omitempty"`
	UseClassTimetable bool   `json:"useClassTimetable,omitempty" yaml:"useClassTimetable,omitempty"`
	AllowMarkdown     bool   `json:"allowMarkdown,omitempty" yaml:"allowMarkdown,omitempty"`
	ShowTeacherMode   string `json:"showTeacherMode,omitempty" yaml:"showTeacherMode,omitempty"`

	// Legacy day counts, honoured when the matching widget block is absent.
	DaysToShow     int `json:"daysToShow,omitempty" yaml:"daysToShow,omitempty"`
	PastDaysToShow int `json:"pastDaysToShow,omitempty" yaml:"pastDaysToShow,omitempty"`
	ExamsDaysAhead int `json:"examsDaysAhead,omitempty" yaml:"examsDaysAhead,omitempty"`

	Lessons  *Window `json:"lessons,omitempty" yaml:"lessons,omitempty"`
	Exams    *Window `json:"exams,omitempty" yaml:"exams,omitempty"`
	Homework *Window `json:"homework,omitempty" yaml:"homework,omitempty"`
	Absences *Window `json:"absences,omitempty" yaml:"absences,omitempty"`

	DumpBackendPayloads bool `json:"dumpBackendPayloads,omitempty" yaml:"dumpBackendPayloads,omitempty"`
}

// Public returns a copy without credentials, safe to echo to the renderer.
func (s Student) Public() Student {
	s.Credential = untis.Credential{School: s.School, Server: s.Server}
	return s
}

// Module is the full widget configuration sent with a fetch request.
type Module struct {
	Defaults Student   `json:"defaults" yaml:"defaults"`
	Students []Student `json:"students" yaml:"students"`
}

// Group is a set of students sharing one upstream session.
type Group struct {
	Key        string
	Credential untis.Credential
	Students   []Student
	// Positions holds each student's index in the input slice.
	Positions []int
}

// Groups partitions students by credential key, keeping first-seen order.
func Groups(students []Student) []Group {
	index := make(map[string]int)
	var groups []Group
	for pos, student := range students {
		key := student.Credential.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Credential: student.Credential})
		}
		groups[i].Students = append(groups[i].Students, student)
		groups[i].Positions = append(groups[i].Positions, pos)
	}
	return groups
}
