package compact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirror/webuntis/internal/untis"
)

func TestNormalizeHHMM(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{"07:50", 750},
		{"14:55", 1455},
		{750, 750},
		{float64(750), 750},
		{470, 750},
		{float64(470), 750},
		{"1455", 1455},
		{0, 0},
		{1439, 1439},
		{90, 130},
		{5000, 5000},
	}
	for _, tc := range cases {
		got, ok := NormalizeHHMM(tc.in)
		require.True(t, ok, "input %v", tc.in)
		assert.Equal(t, tc.want, got, "input %v", tc.in)
	}

	_, ok := NormalizeHHMM("soon")
	assert.False(t, ok)
	_, ok = NormalizeHHMM([]any{})
	assert.False(t, ok)
}

func TestHHMMIsIdempotent(t *testing.T) {
	for _, n := range []int{0, 750, 1455, 2359, 470, 61} {
		once := HHMM(n)
		assert.Equal(t, once, HHMM(once), "value %d", n)
	}
}

func TestSanitizeHTML(t *testing.T) {
	assert.Equal(t, "alert(1) bold", SanitizeHTML(" <script>alert(1)</script> <b>bold</b> ", false))
	assert.Equal(t, "snakecase strong", SanitizeHTML("snake_case **strong**", false))
	assert.Equal(t, "snake_case **strong**", SanitizeHTML("snake_case **strong**", true))
	assert.Equal(t, "", SanitizeHTML("<br/>", true))
}

func TestCompactFallbackChain(t *testing.T) {
	schemas := NewSchemas(false)

	withStart := Compact([]untis.RawItem{{"startDate": float64(20250105)}}, schemas.Absence)
	require.Len(t, withStart, 1)
	assert.Equal(t, 20250105, withStart[0]["date"])

	withString := CompactOne(untis.RawItem{"absenceDate": "2025-01-06"}, schemas.Absence)
	assert.Equal(t, 20250106, withString["date"])

	primaryWins := CompactOne(untis.RawItem{"date": float64(20250107), "startDate": float64(20250101)}, schemas.Absence)
	assert.Equal(t, 20250107, primaryWins["date"])

	neither := CompactOne(untis.RawItem{"reason": "ill"}, schemas.Absence)
	assert.Equal(t, 0, neither["date"])
	assert.Equal(t, "ill", neither["reason"])
	assert.Equal(t, false, neither["excused"])
}

func TestDateRejectsImpossibleDays(t *testing.T) {
	assert.Equal(t, 20240229, Date(float64(20240229)))
	assert.Equal(t, 20250309, Date("2025-03-09"))
	assert.Nil(t, Date(float64(20250230)))
	assert.Nil(t, Date(float64(7)))
	assert.Nil(t, Date("20251301"))

	item := CompactOne(untis.RawItem{"date": float64(20250230)}, NewSchemas(false).Absence)
	assert.Equal(t, 0, item["date"])
}

func TestCompactNullIsMissing(t *testing.T) {
	schemas := NewSchemas(false)
	item := CompactOne(untis.RawItem{"subject": nil, "title": "<p>Closed</p>", "content": "Snow day"}, schemas.Message)
	assert.Equal(t, "Closed", item["subject"])
	assert.Equal(t, "Snow day", item["text"])
}

func TestCompactLesson(t *testing.T) {
	schemas := NewSchemas(false)
	raw := untis.RawItem{
		"id":        float64(17),
		"date":      float64(20250106),
		"startTime": float64(750),
		"endTime":   "09:20",
		"su":        []any{map[string]any{"name": "M", "longname": "Mathematics"}},
		"te":        []any{map[string]any{"name": "SMI", "longname": "Smith"}},
		"code":      "cancelled",
		"substText": "<i>moved</i>",
	}
	item := CompactOne(raw, schemas.Lesson)
	assert.Equal(t, 17, item["id"])
	assert.Equal(t, 20250106, item["date"])
	assert.Equal(t, 750, item["startTime"])
	assert.Equal(t, 920, item["endTime"])
	assert.Equal(t, "M", item["su"])
	assert.Equal(t, "Mathematics", item["suLong"])
	assert.Equal(t, "SMI", item["te"])
	assert.Equal(t, "cancelled", item["code"])
	assert.Equal(t, "moved", item["substText"])
	assert.Equal(t, "", item["lstext"])
}

func TestCompactExamTeachersLimited(t *testing.T) {
	schemas := NewSchemas(false)
	item := CompactOne(untis.RawItem{
		"examDate": float64(20250110),
		"name":     "Test <b>1</b>",
		"teachers": []any{"A", "B", "C"},
	}, schemas.Exam)
	assert.Equal(t, []string{"A", "B"}, item["teachers"])
	assert.Equal(t, "Test 1", item["name"])
	assert.Equal(t, 20250110, item["examDate"])
}

func TestCompactHomeworkDueDateFallback(t *testing.T) {
	schemas := NewSchemas(false)
	item := CompactOne(untis.RawItem{
		"id":         float64(3),
		"date":       float64(20250102),
		"remark":     "page 42",
		"elementIds": []any{float64(11), float64(12)},
		"subject":    map[string]any{"name": "E", "longName": "English"},
	}, schemas.Homework)
	assert.Equal(t, 20250102, item["dueDate"])
	assert.Equal(t, "page 42", item["text"])
	assert.Equal(t, []int{11, 12}, item["elementIds"])
	assert.Equal(t, "English", item["subject"])
}

func TestCompactNeverNil(t *testing.T) {
	got := Compact(nil, NewSchemas(false).Message)
	require.NotNil(t, got)
	assert.Empty(t, got)
}
