package news

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// StripMarkup returns the visible text of an HTML fragment. Plain text is
// returned unchanged.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

// ClassifierText builds the case-folded title+description text the pattern
// classifier runs against. Punctuation is kept: several rules match on "$"
// amounts and hyphenated names.
func ClassifierText(title, description string) string {
	text := StripMarkup(title) + " " + StripMarkup(description)
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// NormalizeForSimilarity case-folds s and drops everything that is not a
// letter, digit or space.
func NormalizeForSimilarity(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
