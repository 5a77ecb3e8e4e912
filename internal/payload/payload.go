package payload

import (
	"fmt"
	"time"

	"mirror/webuntis/internal/compact"
	"mirror/webuntis/internal/config"
	"mirror/webuntis/internal/fetch"
	"mirror/webuntis/internal/untis"
)

// Payload is the GOT_DATA message for one student.
type Payload struct {
	ID             string               `json:"id,omitempty"`
	Title          string               `json:"title"`
	StudentID      int                  `json:"studentId"`
	Config         config.Student       `json:"config"`
	TimeUnits      []compact.Item       `json:"timeUnits"`
	TimetableRange []compact.Item       `json:"timetableRange"`
	Exams          []compact.Item       `json:"exams"`
	Homeworks      []compact.Item       `json:"homeworks"`
	Absences       []compact.Item       `json:"absences"`
	MessagesOfDay  []compact.Item       `json:"messagesOfDay"`
	Holidays       []compact.Item       `json:"holidays"`
	HolidayByDate  map[int]compact.Item `json:"holidayByDate"`
	CurrentHoliday compact.Item         `json:"currentHoliday"`
	Warnings       []string             `json:"_warnings"`
}

// WithRequester returns a copy addressed to one requester. The requester's
// config warnings come first, followed by the warnings of the fetch cycle.
func (p Payload) WithRequester(id string, student config.Student, configWarnings []string) Payload {
	p.ID = id
	p.Config = student.Public()
	warnings := fetch.NewWarnings(configWarnings...)
	warnings.Add(p.Warnings...)
	p.Warnings = warnings.List()
	return p
}

// Input is everything the builder combines for one student.
type Input struct {
	Request   fetch.Request
	Result    fetch.Result
	TimeUnits []untis.RawItem
	Holidays  []compact.Item
	Warnings  *fetch.Warnings
}

type Builder struct {
	logger fetch.Logger
	dumper *Dumper
}

// NewBuilder returns a builder. dumper may be nil.
func NewBuilder(logger fetch.Logger, dumper *Dumper) *Builder {
	return &Builder{logger: logger, dumper: dumper}
}

// Build compacts the result and assembles the payload. The payload holds no
// requester data and can be cached as is.
func (b *Builder) Build(in Input) Payload {
	student := in.Request.Student
	flags := in.Request.Flags
	schemas := compact.NewSchemas(student.AllowMarkdown)

	p := Payload{
		Title:          student.Title,
		StudentID:      student.StudentID,
		Config:         student.Public(),
		TimeUnits:      compact.Compact(in.TimeUnits, schemas.TimeUnit),
		TimetableRange: compactIf(flags.Timetable, in.Result.Timetable, schemas.Lesson),
		Exams:          compactIf(flags.Exams, in.Result.Exams, schemas.Exam),
		Homeworks:      compactIf(flags.Homework, in.Result.Homeworks, schemas.Homework),
		Absences:       compactIf(flags.Absences, in.Result.Absences, schemas.Absence),
		MessagesOfDay:  compactIf(flags.MessagesOfDay, in.Result.MessagesOfDay, schemas.Message),
		Holidays:       in.Holidays,
	}
	if p.Holidays == nil {
		p.Holidays = []compact.Item{}
	}

	today := untis.DateInt(in.Request.Now)
	window := in.Request.Ranges.Timetable
	p.HolidayByDate = HolidayByDate(p.Holidays, window.Start, window.End)
	p.CurrentHoliday = HolidayAt(p.Holidays, today)

	warnings := fetch.NewWarnings()
	if in.Warnings != nil {
		warnings.Add(in.Warnings.List()...)
	}
	if flags.Timetable && window.NextDays > 0 && len(p.TimetableRange) == 0 && p.CurrentHoliday == nil {
		warnings.Add(fmt.Sprintf("No lessons found for %s in the next %d days", student.Title, window.NextDays))
	}
	p.Warnings = warnings.List()

	if b.dumper != nil && (student.DumpBackendPayloads || b.dumper.All) {
		b.dumper.Write(p)
	}
	return p
}

func compactIf(enabled bool, raw []untis.RawItem, schema compact.Schema) []compact.Item {
	if !enabled {
		return []compact.Item{}
	}
	return compact.Compact(raw, schema)
}

// HolidayByDate maps every day in [start, end] that falls inside a holiday
// to that holiday.
func HolidayByDate(holidays []compact.Item, start, end time.Time) map[int]compact.Item {
	out := make(map[int]compact.Item)
	if len(holidays) == 0 {
		return out
	}
	first, last := untis.StartOfDay(start), untis.StartOfDay(end)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		n := untis.DateInt(day)
		if h := HolidayAt(holidays, n); h != nil {
			out[n] = h
		}
	}
	return out
}

// HolidayAt returns the first holiday whose [startDate, endDate] contains day.
func HolidayAt(holidays []compact.Item, day int) compact.Item {
	for _, h := range holidays {
		start, _ := h["startDate"].(int)
		end, _ := h["endDate"].(int)
		if end < start {
			end = start
		}
		if start > 0 && day >= start && day <= end {
			return h
		}
	}
	return nil
}
