package compact

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"mirror/webuntis/internal/untis"
)

var (
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	markdownReplace = strings.NewReplacer("_", "", "*", "")
)

// SanitizeHTML strips tags and surrounding whitespace. Without allowMarkdown
// the markdown emphasis characters are removed as well.
func SanitizeHTML(value string, allowMarkdown bool) string {
	value = tagPattern.ReplaceAllString(value, "")
	if !allowMarkdown {
		value = markdownReplace.Replace(value)
	}
	return strings.TrimSpace(value)
}

// HHMM normalizes n to an HHMM integer. Values that already read as a valid
// HHMM time are kept; otherwise values inside one day are taken as minutes
// since midnight. Anything else is returned unchanged.
func HHMM(n int) int {
	if n >= 0 && n%100 <= 59 && n/100 <= 23 {
		return n
	}
	if n >= 0 && n < 1440 {
		return (n/60)*100 + n%60
	}
	return n
}

// NormalizeHHMM accepts "HH:MM" strings, numeric strings and numbers.
func NormalizeHHMM(value any) (int, bool) {
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(v)
		if hours, minutes, found := strings.Cut(v, ":"); found {
			h, errH := strconv.Atoi(strings.TrimSpace(hours))
			m, errM := strconv.Atoi(strings.TrimSpace(minutes[:min(2, len(minutes))]))
			if errH != nil || errM != nil {
				return 0, false
			}
			return h*100 + m, true
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return HHMM(n), true
	default:
		n, ok := toInt(value)
		if !ok {
			return 0, false
		}
		return HHMM(n), true
	}
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

// Time is the Transform form of NormalizeHHMM.
func Time(value any) any {
	if n, ok := NormalizeHHMM(value); ok {
		return n
	}
	return nil
}

// Date converts numbers and date strings to a YYYYMMDD integer. Values that
// name no calendar day yield nil.
func Date(value any) any {
	var n int
	switch v := value.(type) {
	case string:
		parsed, ok := untis.ParseDateString(v)
		if !ok {
			return nil
		}
		n = parsed
	default:
		parsed, ok := toInt(value)
		if !ok {
			return nil
		}
		n = parsed
	}
	if _, ok := untis.ParseDateInt(n, time.UTC); !ok {
		return nil
	}
	return n
}

func Int(value any) any {
	if n, ok := toInt(value); ok {
		return n
	}
	return nil
}

func Bool(value any) any {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return b
	}
	return nil
}

func String(value any) any {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return nil
}

// Sanitized returns a Transform that stringifies and sanitizes.
func Sanitized(allowMarkdown bool) Transform {
	return func(value any) any {
		s, ok := String(value).(string)
		if !ok {
			return nil
		}
		return SanitizeHTML(s, allowMarkdown)
	}
}

// ElementName reads the short name of an element reference, which is either
// a plain string, an object with name/longname, or a list of such objects.
func ElementName(value any) any {
	return elementField(value, "name", "longname", "longName")
}

// ElementLongName prefers the long name of an element reference.
func ElementLongName(value any) any {
	return elementField(value, "longname", "longName", "name")
}

func elementField(value any, keys ...string) any {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		for _, key := range keys {
			if s, ok := v[key].(string); ok && s != "" {
				return strings.TrimSpace(s)
			}
		}
	case []any:
		for _, entry := range v {
			if s, ok := elementField(entry, keys...).(string); ok && s != "" {
				return s
			}
		}
	}
	return nil
}

// Names returns a Transform collecting at most limit element names.
func Names(limit int) Transform {
	return func(value any) any {
		list, ok := value.([]any)
		if !ok {
			list = []any{value}
		}
		names := make([]string, 0, min(limit, len(list)))
		for _, entry := range list {
			if len(names) == limit {
				break
			}
			if s, ok := elementField(entry, "name", "longname", "longName").(string); ok && s != "" {
				names = append(names, s)
			}
		}
		return names
	}
}

// IDs converts a list of numeric ids.
func IDs(value any) any {
	list, ok := value.([]any)
	if !ok {
		return nil
	}
	ids := make([]int, 0, len(list))
	for _, entry := range list {
		if n, ok := toInt(entry); ok {
			ids = append(ids, n)
		}
	}
	return ids
}
