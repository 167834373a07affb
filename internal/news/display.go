package news

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

type sourceName struct {
	key, name string
}

// Checked in order; the first key contained in the source id wins.
var displayNames = []sourceName{
	{"wsj", "WSJ"}, {"nytimes", "NYT"}, {"washingtonpost", "WaPo"},
	{"bbc", "BBC"}, {"cnn", "CNN"}, {"cnbc", "CNBC"}, {"cbc", "CBC"},
	{"apnews", "AP"}, {"reuters", "Reuters"}, {"bloomberg", "Bloomberg"},
	{"variety", "Variety"}, {"deadline", "Deadline"}, {"hollywoodreporter", "THR"},
	{"theverge", "Verge"}, {"techcrunch", "TechCrunch"}, {"forbes", "Forbes"},
	{"globeandmail", "Globe & Mail"}, {"nationalpost", "National Post"},
	{"seekingalpha", "Seeking Alpha"}, {"marketwatch", "MarketWatch"},
}

const (
	maxSourceNameLen = 20
	maxHeadlineLen   = 120
)

// DisplaySource maps a source id to a short publisher name.
func DisplaySource(sourceID string) string {
	if sourceID == "" {
		return "Unknown"
	}
	lower := strings.ToLower(sourceID)
	for _, s := range displayNames {
		if strings.Contains(lower, s.key) {
			return s.name
		}
	}
	name := strings.ReplaceAll(titleCase(sourceID), "_", " ")
	return truncateRunes(name, maxSourceNameLen)
}

// Headline strips a trailing " | Publisher" style suffix and caps the length.
func Headline(title string) string {
	if title == "" {
		return "Untitled"
	}
	for _, sep := range []string{" | ", " - ", " – ", " — "} {
		if i := strings.Index(title, sep); i >= 0 {
			title = title[:i]
		}
	}
	if utf8.RuneCountInString(title) > maxHeadlineLen {
		return truncateRunes(title, maxHeadlineLen) + "..."
	}
	return title
}

// ShortDate renders t as "Jan 02", or "Unknown" for the zero time.
func ShortDate(t time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("Jan 02")
}

// LongDate renders t as "January 02, 2006", or "Unknown date".
func LongDate(t time.Time) string {
	if t.IsZero() {
		return "Unknown date"
	}
	return t.Format("January 02, 2006")
}

func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
