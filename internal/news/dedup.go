package news

import (
	"sort"
	"strings"
)

// Default near-duplicate thresholds. Both comparisons are strict.
const (
	TitleSimilarityThreshold   = 0.75
	URLPathSimilarityThreshold = 0.85
)

// Deduplicator removes near-duplicate articles, preferring higher-tier
// sources when choosing which copy to keep.
type Deduplicator struct {
	Tier           func(sourceID string) int
	TitleThreshold float64
	PathThreshold  float64
}

// NewDeduplicator returns a Deduplicator with the default thresholds.
func NewDeduplicator(tier func(sourceID string) int) *Deduplicator {
	return &Deduplicator{
		Tier:           tier,
		TitleThreshold: TitleSimilarityThreshold,
		PathThreshold:  URLPathSimilarityThreshold,
	}
}

type dedupCandidate struct {
	article Article
	title   string
	tier    int
}

// Unique returns the articles that survive near-duplicate removal, in source
// tier order (stable within a tier). Articles without a usable title are
// dropped. An article is discarded when its normalized title or URL path is
// more similar than the thresholds to an already kept article, or when its
// link exactly matches a kept one.
func (d *Deduplicator) Unique(articles []Article) []Article {
	candidates := make([]dedupCandidate, 0, len(articles))
	for _, a := range articles {
		title := NormalizeForSimilarity(a.Title)
		if title == "" {
			continue
		}
		tier := TierOther
		if d.Tier != nil {
			tier = d.Tier(a.SourceID)
		}
		candidates = append(candidates, dedupCandidate{article: a, title: title, tier: tier})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].tier < candidates[j].tier
	})

	kept := make([]dedupCandidate, 0, len(candidates))
	links := make(map[string]struct{}, len(candidates))
	for _, cand := range candidates {
		link := strings.TrimSpace(cand.article.Link)
		if link != "" {
			if _, dup := links[link]; dup {
				continue
			}
		}
		if d.isDuplicate(cand, kept) {
			continue
		}
		kept = append(kept, cand)
		if link != "" {
			links[link] = struct{}{}
		}
	}

	out := make([]Article, 0, len(kept))
	for _, k := range kept {
		out = append(out, k.article)
	}
	return out
}

func (d *Deduplicator) isDuplicate(cand dedupCandidate, kept []dedupCandidate) bool {
	for _, k := range kept {
		if Similarity(cand.title, k.title) > d.TitleThreshold {
			return true
		}
		if URLPathSimilarity(cand.article.Link, k.article.Link) > d.PathThreshold {
			return true
		}
	}
	return false
}
