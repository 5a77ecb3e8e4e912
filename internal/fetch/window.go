package fetch

import (
	"strings"
	"time"

	"mirror/webuntis/internal/config"
	"mirror/webuntis/internal/untis"
)

// homeworkLookaround is the fetch breadth used when the homework widget
// leaves a bound unset. Filtering narrows it afterwards.
const homeworkLookaround = 28

// DateRange is one data type's window. A range with NextDays <= 0 is not
// fetched when it belongs to the timetable.
type DateRange struct {
	Start    time.Time
	End      time.Time
	NextDays int
}

// Ranges holds the computed windows of one student for one fetch cycle.
type Ranges struct {
	Timetable DateRange
	Exams     DateRange
	Homework  DateRange
	Absences  DateRange
	Messages  time.Time
}

// Flags selects which data types are fetched.
type Flags struct {
	Timetable     bool
	Exams         bool
	Homework      bool
	Absences      bool
	MessagesOfDay bool
}

// FlagsFromDisplayMode derives fetch flags from a comma separated widget list.
func FlagsFromDisplayMode(mode string) Flags {
	var f Flags
	for _, part := range strings.Split(mode, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "lessons", "grid":
			f.Timetable = true
		case "exams":
			f.Exams = true
		case "homework":
			f.Homework = true
		case "absences":
			f.Absences = true
		case "messagesofday":
			f.MessagesOfDay = true
		}
	}
	return f
}

func window(w *config.Window) config.Window {
	if w == nil {
		return config.Window{NextDays: config.DaysUnset, PastDays: config.DaysUnset}
	}
	return *w
}

func span(today time.Time, past, next int) DateRange {
	return DateRange{
		Start:    today.AddDate(0, 0, -past),
		End:      today.AddDate(0, 0, next),
		NextDays: next,
	}
}

func orZero(v int) int {
	if v == config.DaysUnset || v < 0 {
		return 0
	}
	return v
}

// ComputeRanges converts a normalized student's widget settings into
// concrete windows relative to now.
func ComputeRanges(now time.Time, s config.Student) Ranges {
	today := untis.StartOfDay(now)

	lessons := window(s.Lessons)
	exams := window(s.Exams)
	absences := window(s.Absences)
	homework := window(s.Homework)

	hwPast := homeworkLookaround
	if homework.PastDays != config.DaysUnset && homework.PastDays > hwPast {
		hwPast = homework.PastDays
	}
	hwNext := homeworkLookaround
	if homework.NextDays != config.DaysUnset && homework.NextDays > hwNext {
		hwNext = homework.NextDays
	}

	return Ranges{
		Timetable: span(today, orZero(lessons.PastDays), orZero(lessons.NextDays)),
		Exams:     span(today, orZero(exams.PastDays), orZero(exams.NextDays)),
		Homework:  span(today, hwPast, hwNext),
		Absences:  span(today, orZero(absences.PastDays), orZero(absences.NextDays)),
		Messages:  today,
	}
}

// HomeworkFilter returns the inclusive YYYYMMDD due-date window for homework
// and whether filtering applies at all. An unset nextDays extends the window
// to the end of the fetched range; an unset pastDays starts it today.
func HomeworkFilter(now time.Time, w *config.Window, fetched DateRange) (start, end int, ok bool) {
	hw := window(w)
	if hw.NextDays == config.DaysUnset && hw.PastDays == config.DaysUnset {
		return 0, 0, false
	}
	today := untis.StartOfDay(now)
	start = untis.DateInt(today.AddDate(0, 0, -orZero(hw.PastDays)))
	if hw.NextDays == config.DaysUnset {
		end = untis.DateInt(fetched.End)
	} else {
		end = untis.DateInt(today.AddDate(0, 0, hw.NextDays))
	}
	return start, end, true
}
