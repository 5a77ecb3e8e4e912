package untis

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

var _ Provider = (*Client)(nil)

func dateParam(t time.Time) string {
	return strconv.Itoa(DateInt(t))
}

// Timetable returns lessons for the student, or for the student's class when
// opts.UseClassTimetable is set and a class id is known.
func (c *Client) Timetable(ctx context.Context, auth *AuthContext, start, end time.Time, studentID int, opts Options) ([]RawItem, error) {
	element := map[string]int{"id": studentID, "type": elementTypeStudent}
	if opts.UseClassTimetable {
		classID := opts.ClassID
		if classID == 0 {
			classID = auth.ClassID
		}
		if classID > 0 {
			element = map[string]int{"id": classID, "type": elementTypeClass}
		}
	}
	params := map[string]any{
		"options": map[string]any{
			"element":          element,
			"startDate":        DateInt(start),
			"endDate":          DateInt(end),
			"showLsText":       true,
			"showStudentgroup": true,
			"showLsNumber":     true,
			"showSubstText":    true,
			"showInfo":         true,
			"showBooking":      true,
			"klasseFields":     []string{"id", "name", "longname"},
			"roomFields":       []string{"id", "name", "longname"},
			"subjectFields":    []string{"id", "name", "longname"},
			"teacherFields":    []string{"id", "name", "longname"},
		},
	}
	var lessons []RawItem
	if err := c.sessionRPC(ctx, auth, "getTimetable", params, &lessons); err != nil {
		return nil, err
	}
	return lessons, nil
}

func (c *Client) Exams(ctx context.Context, auth *AuthContext, start, end time.Time, studentID int, _ Options) ([]RawItem, error) {
	query := url.Values{
		"studentId": {strconv.Itoa(studentID)},
		"klasseId":  {"-1"},
		"startDate": {dateParam(start)},
		"endDate":   {dateParam(end)},
	}
	var resp struct {
		Data struct {
			Exams []RawItem `json:"exams"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, auth, "/WebUntis/api/exams", query, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Exams, nil
}

// Homework joins each homework with the subject of its lesson and the element
// ids of its records.
func (c *Client) Homework(ctx context.Context, auth *AuthContext, start, end time.Time, studentID int, _ Options) ([]RawItem, error) {
	query := url.Values{
		"startDate": {dateParam(start)},
		"endDate":   {dateParam(end)},
	}
	var resp struct {
		Data struct {
			Homeworks []RawItem `json:"homeworks"`
			Lessons   []RawItem `json:"lessons"`
			Records   []RawItem `json:"records"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, auth, "/WebUntis/api/homeworks/lessons", query, &resp); err != nil {
		return nil, err
	}
	if resp.Data.Homeworks == nil {
		return nil, nil
	}

	subjects := make(map[string]any, len(resp.Data.Lessons))
	for _, lesson := range resp.Data.Lessons {
		subjects[idKey(lesson["id"])] = lesson["subject"]
	}
	elements := make(map[string]any, len(resp.Data.Records))
	for _, record := range resp.Data.Records {
		elements[idKey(record["homeworkId"])] = record["elementIds"]
	}

	out := make([]RawItem, 0, len(resp.Data.Homeworks))
	for _, hw := range resp.Data.Homeworks {
		if _, ok := hw["subject"]; !ok {
			if subject, found := subjects[idKey(hw["lessonId"])]; found {
				hw["subject"] = subject
			}
		}
		if ids, found := elements[idKey(hw["id"])]; found {
			hw["elementIds"] = ids
			if studentID > 0 && !containsID(ids, studentID) {
				continue
			}
		}
		out = append(out, hw)
	}
	return out, nil
}

func (c *Client) Absences(ctx context.Context, auth *AuthContext, start, end time.Time, studentID int, _ Options) ([]RawItem, error) {
	query := url.Values{
		"startDate":      {dateParam(start)},
		"endDate":        {dateParam(end)},
		"studentId":      {strconv.Itoa(studentID)},
		"excuseStatusId": {"-1"},
	}
	var resp struct {
		Data struct {
			Absences []RawItem `json:"absences"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, auth, "/WebUntis/api/classreg/absences/students", query, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Absences, nil
}

func (c *Client) MessagesOfDay(ctx context.Context, auth *AuthContext, date time.Time, _ Options) ([]RawItem, error) {
	var resp struct {
		Data struct {
			MessagesOfDay []RawItem `json:"messagesOfDay"`
		} `json:"data"`
	}
	query := url.Values{"date": {dateParam(date)}}
	if err := c.getJSON(ctx, auth, "/WebUntis/api/public/news/newsWidgetData", query, &resp); err != nil {
		return nil, err
	}
	return resp.Data.MessagesOfDay, nil
}

// Timegrid returns the time units of the first school day in the grid.
func (c *Client) Timegrid(ctx context.Context, auth *AuthContext) ([]RawItem, error) {
	var days []struct {
		Day       int       `json:"day"`
		TimeUnits []RawItem `json:"timeUnits"`
	}
	if err := c.sessionRPC(ctx, auth, "getTimegridUnits", map[string]any{}, &days); err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return []RawItem{}, nil
	}
	return days[0].TimeUnits, nil
}

func (c *Client) Holidays(ctx context.Context, auth *AuthContext) ([]RawItem, error) {
	var holidays []RawItem
	if err := c.sessionRPC(ctx, auth, "getHolidays", map[string]any{}, &holidays); err != nil {
		return nil, err
	}
	return holidays, nil
}

func idKey(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatInt(int64(n), 10)
	case string:
		return n
	case int:
		return strconv.Itoa(n)
	}
	return ""
}

func containsID(list any, id int) bool {
	items, ok := list.([]any)
	if !ok {
		return true
	}
	want := strconv.Itoa(id)
	for _, item := range items {
		if idKey(item) == want {
			return true
		}
	}
	return false
}
