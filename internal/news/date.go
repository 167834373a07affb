package news

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// layouts tried when dateparse cannot make sense of the input.
var fallbackLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParsePublished parses a free-form publish date. The second return value is
// false when the input is empty or unparseable; the returned time is then the
// zero time, which sorts before every valid date.
func ParsePublished(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if t, err := dateparse.ParseIn(s, time.UTC); err == nil && !t.IsZero() {
		return t.UTC(), true
	}

	if t, err := time.Parse(time.RFC3339, strings.Replace(s, "Z", "+00:00", 1)); err == nil {
		return t.UTC(), true
	}

	head := s
	if len(head) > 19 {
		head = head[:19]
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, head, time.UTC); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
