package news

import (
	"net/url"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Similarity returns the Ratcliff/Obershelp ratio of a and b in [0, 1].
// Either input being empty yields 0. The pair is put in canonical order
// first so the result does not depend on argument order.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if b < a {
		a, b = b, a
	}
	m := difflib.NewMatcher(splitChars(a), splitChars(b))
	return m.Ratio()
}

// TitleSimilarity compares two titles after NormalizeForSimilarity.
func TitleSimilarity(a, b string) float64 {
	return Similarity(NormalizeForSimilarity(a), NormalizeForSimilarity(b))
}

// URLPathSimilarity compares the lowercased, slash-trimmed path components
// of two URLs. Malformed URLs and empty paths score 0.
func URLPathSimilarity(a, b string) float64 {
	return Similarity(urlPath(a), urlPath(b))
}

func urlPath(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.Trim(u.Path, "/"))
}

func splitChars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
