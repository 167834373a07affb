package summary

import (
	"strings"
	"time"

	"github.com/deusflow/dealwatch/internal/news"
)

// Selection limits.
const (
	maxRegulatory    = 5
	maxTier1         = 15
	maxTier2         = 5
	maxPriority      = 20
	fallbackPriority = 15
	maxBreakingTop   = 8
	maxBreakingAny   = 5
	BreakingWindow   = 48 * time.Hour
)

// Digest is one numbered source handed to a summary provider.
type Digest struct {
	Number      int    `json:"number"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Source      string `json:"source"`
	URL         string `json:"url"`
}

// PriorityArticles picks regulatory coverage and tier-1/tier-2 sources,
// de-duplicated by link. When nothing qualifies the first articles are used.
func PriorityArticles(articles []news.Annotated) []news.Annotated {
	var regulatory, tier1, tier2 []news.Annotated
	for _, a := range articles {
		if a.Category == news.CategoryRegulatory {
			regulatory = append(regulatory, a)
		}
		switch a.SourceTier {
		case news.TierPremium:
			tier1 = append(tier1, a)
		case news.TierAcceptable:
			tier2 = append(tier2, a)
		}
	}

	var candidates []news.Annotated
	candidates = append(candidates, head(regulatory, maxRegulatory)...)
	candidates = append(candidates, head(tier1, maxTier1)...)
	candidates = append(candidates, head(tier2, maxTier2)...)

	out := uniqueByLink(candidates, maxPriority)
	if len(out) == 0 {
		return head(articles, fallbackPriority)
	}
	return out
}

// Breaking returns the articles published within BreakingWindow of now.
func Breaking(articles []news.Annotated, now time.Time) []news.Annotated {
	cutoff := now.Add(-BreakingWindow)
	var out []news.Annotated
	for _, a := range articles {
		if a.HasDate() && a.Published.After(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

// BreakingPriority prefers tier-1/tier-2 breaking coverage.
func BreakingPriority(breaking []news.Annotated) []news.Annotated {
	var top []news.Annotated
	for _, a := range breaking {
		if a.SourceTier <= news.TierAcceptable {
			top = append(top, a)
		}
	}
	if len(top) > 0 {
		return head(top, maxBreakingTop)
	}
	return head(breaking, maxBreakingAny)
}

// SelectArticles returns breaking coverage followed by priority coverage,
// de-duplicated by link and capped at limit.
func SelectArticles(articles []news.Annotated, now time.Time, limit int) []news.Annotated {
	var combined []news.Annotated
	combined = append(combined, BreakingPriority(Breaking(articles, now))...)
	combined = append(combined, PriorityArticles(articles)...)
	return uniqueByLink(combined, limit)
}

// BuildDigests numbers the articles from 1 and formats them for a prompt.
func BuildDigests(articles []news.Annotated, descMax int) []Digest {
	out := make([]Digest, 0, len(articles))
	for i, a := range articles {
		out = append(out, Digest{
			Number:      i + 1,
			Headline:    news.Headline(a.Title),
			Description: truncate(strings.TrimSpace(news.StripMarkup(a.Description)), descMax),
			Date:        news.LongDate(a.Published),
			Source:      news.DisplaySource(a.SourceID),
			URL:         a.Link,
		})
	}
	return out
}

func head(list []news.Annotated, n int) []news.Annotated {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func uniqueByLink(list []news.Annotated, limit int) []news.Annotated {
	seen := make(map[string]struct{}, len(list))
	var out []news.Annotated
	for _, a := range list {
		if limit > 0 && len(out) >= limit {
			break
		}
		if _, ok := seen[a.Link]; ok {
			continue
		}
		seen[a.Link] = struct{}{}
		out = append(out, a)
	}
	return out
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
