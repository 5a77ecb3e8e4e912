package fetch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"mirror/webuntis/internal/compact"
	"mirror/webuntis/internal/config"
	"mirror/webuntis/internal/metrics"
	"mirror/webuntis/internal/untis"
)

const (
	TypeTimetable     = "timetable"
	TypeExams         = "exams"
	TypeHomework      = "homework"
	TypeAbsences      = "absences"
	TypeMessagesOfDay = "messagesOfDay"
)

// Request is everything the orchestrator needs for one student.
type Request struct {
	Student config.Student
	Ranges  Ranges
	Flags   Flags
	Targets []Target
	Now     time.Time
}

// NewRequest computes ranges, flags and targets for a normalized student.
func NewRequest(now time.Time, student config.Student, auth *untis.AuthContext) Request {
	return Request{
		Student: student,
		Ranges:  ComputeRanges(now, student),
		Flags:   FlagsFromDisplayMode(student.DisplayMode),
		Targets: Targets(auth, student.StudentID),
		Now:     now,
	}
}

// Result holds the raw collections of one student. Every slice is non-nil.
// Failed marks the branches for which no target returned data.
type Result struct {
	Timetable     []untis.RawItem
	Exams         []untis.RawItem
	Homeworks     []untis.RawItem
	Absences      []untis.RawItem
	MessagesOfDay []untis.RawItem
	Failed        Flags
}

// AllFailed reports whether at least one branch was issued and every issued
// branch failed. A timetable skipped for nextDays <= 0 was not issued.
func (r Result) AllFailed(req Request) bool {
	issued, failed := 0, 0
	count := func(enabled, branchFailed bool) {
		if !enabled {
			return
		}
		issued++
		if branchFailed {
			failed++
		}
	}
	count(req.Flags.Timetable && req.Ranges.Timetable.NextDays > 0, r.Failed.Timetable)
	count(req.Flags.Exams, r.Failed.Exams)
	count(req.Flags.Homework, r.Failed.Homework)
	count(req.Flags.Absences, r.Failed.Absences)
	count(req.Flags.MessagesOfDay, r.Failed.MessagesOfDay)
	return issued > 0 && failed == issued
}

type Orchestrator struct {
	provider untis.Provider
	logger   Logger
}

func NewOrchestrator(provider untis.Provider, logger Logger) *Orchestrator {
	return &Orchestrator{provider: provider, logger: logger}
}

type rangeFetch func(ctx context.Context, auth *untis.AuthContext, start, end time.Time, studentID int, opts untis.Options) ([]untis.RawItem, error)

// Fetch issues every enabled data type concurrently and waits for all of
// them. Failures are absorbed into warnings; they never abort other branches.
func (o *Orchestrator) Fetch(ctx context.Context, req Request, warnings *Warnings) Result {
	res := Result{
		Timetable:     []untis.RawItem{},
		Exams:         []untis.RawItem{},
		Homeworks:     []untis.RawItem{},
		Absences:      []untis.RawItem{},
		MessagesOfDay: []untis.RawItem{},
	}

	var g errgroup.Group
	if req.Flags.Timetable {
		if req.Ranges.Timetable.NextDays <= 0 {
			metrics.ObserveFetch(TypeTimetable, metrics.OutcomeSkipped, time.Now())
		} else {
			g.Go(func() error {
				res.Timetable, res.Failed.Timetable = o.ranged(ctx, req, warnings, TypeTimetable, req.Ranges.Timetable, o.provider.Timetable)
				return nil
			})
		}
	}
	if req.Flags.Exams {
		g.Go(func() error {
			res.Exams, res.Failed.Exams = o.ranged(ctx, req, warnings, TypeExams, req.Ranges.Exams, o.provider.Exams)
			return nil
		})
	}
	if req.Flags.Homework {
		g.Go(func() error {
			items, failed := o.ranged(ctx, req, warnings, TypeHomework, req.Ranges.Homework, o.provider.Homework)
			if start, end, ok := HomeworkFilter(req.Now, req.Student.Homework, req.Ranges.Homework); ok {
				items = FilterByDueDate(items, start, end)
			}
			res.Homeworks, res.Failed.Homework = items, failed
			return nil
		})
	}
	if req.Flags.Absences {
		g.Go(func() error {
			res.Absences, res.Failed.Absences = o.ranged(ctx, req, warnings, TypeAbsences, req.Ranges.Absences, o.provider.Absences)
			return nil
		})
	}
	if req.Flags.MessagesOfDay {
		g.Go(func() error {
			res.MessagesOfDay, res.Failed.MessagesOfDay = o.branch(ctx, req, warnings, TypeMessagesOfDay, func(ctx context.Context, t Target) ([]untis.RawItem, error) {
				return o.provider.MessagesOfDay(ctx, t.Auth, req.Ranges.Messages, options(req.Student, t.Auth))
			})
			return nil
		})
	}
	_ = g.Wait()
	return res
}

func (o *Orchestrator) ranged(ctx context.Context, req Request, warnings *Warnings, dataType string, r DateRange, fn rangeFetch) ([]untis.RawItem, bool) {
	return o.branch(ctx, req, warnings, dataType, func(ctx context.Context, t Target) ([]untis.RawItem, error) {
		return fn(ctx, t.Auth, r.Start, r.End, t.StudentID, options(req.Student, t.Auth))
	})
}

// branch tries each target in turn and reports whether all of them failed.
// A target that answers without error is valid even with no items.
func (o *Orchestrator) branch(ctx context.Context, req Request, warnings *Warnings, dataType string, fn func(context.Context, Target) ([]untis.RawItem, error)) ([]untis.RawItem, bool) {
	start := time.Now()
	attempts := make([]Attempt[[]untis.RawItem], 0, len(req.Targets))
	for _, target := range req.Targets {
		target := target
		attempts = append(attempts, func(ctx context.Context) ([]untis.RawItem, bool) {
			ok := false
			items, _ := Wrap(func() ([]untis.RawItem, error) {
				items, err := fn(ctx, target)
				ok = err == nil
				return items, err
			}, WrapOptions[[]untis.RawItem]{
				Logger:   o.logger,
				Context:  fmt.Sprintf("fetch type=%s student=%q server=%s id=%d", dataType, req.Student.Title, server(target.Auth), target.StudentID),
				DataType: dataType,
				Warnings: warnings,
			})
			if ok && items == nil {
				items = []untis.RawItem{}
			}
			return items, ok
		})
	}

	items := FirstValid(ctx, attempts, nil)
	switch {
	case items == nil:
		metrics.ObserveFetch(dataType, metrics.OutcomeFailed, start)
		return []untis.RawItem{}, true
	case len(items) == 0:
		metrics.ObserveFetch(dataType, metrics.OutcomeEmpty, start)
	default:
		metrics.ObserveFetch(dataType, metrics.OutcomeOK, start)
	}
	return items, false
}

// FilterByDueDate keeps items whose dueDate lies in [start, end]. Items
// without a readable dueDate are kept.
func FilterByDueDate(items []untis.RawItem, start, end int) []untis.RawItem {
	out := make([]untis.RawItem, 0, len(items))
	for _, item := range items {
		due, ok := compact.Date(item["dueDate"]).(int)
		if !ok || (due >= start && due <= end) {
			out = append(out, item)
		}
	}
	return out
}

func options(s config.Student, auth *untis.AuthContext) untis.Options {
	opts := untis.Options{UseClassTimetable: s.UseClassTimetable}
	if auth != nil {
		opts.ClassID = auth.ClassID
	}
	return opts
}

func server(auth *untis.AuthContext) string {
	if auth == nil {
		return ""
	}
	return auth.Server
}
