package news

import (
	"sort"
	"time"
)

// Article is a raw article record as returned by the live search provider
// and as stored in the archive. JSON names follow the provider/archive field
// names.
type Article struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	PubDate     string `json:"pubDate"`
	Description string `json:"description"`
	SourceID    string `json:"source_id"`
	ImageURL    string `json:"image_url"`
}

// Fields returns the raw values in archive column order.
func (a Article) Fields() []string {
	return []string{a.Title, a.Link, a.PubDate, a.Description, a.SourceID, a.ImageURL}
}

// ArchiveColumns is the fixed field order used when appending to an archive.
var ArchiveColumns = []string{"title", "link", "pubDate", "description", "source_id", "image_url"}

// Category is the topical label assigned to a relevant article.
type Category string

const (
	CategoryDeal       Category = "deal"
	CategoryRegulatory Category = "regulatory"
	CategoryBids       Category = "bids"
	CategoryAnalysis   Category = "analysis"
)

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{CategoryDeal, CategoryRegulatory, CategoryBids, CategoryAnalysis}
}

// Source trust tiers.
const (
	TierPremium    = 1
	TierAcceptable = 2
	TierOther      = 3
)

// Annotated is an article that passed the relevance gate, enriched with the
// pipeline-derived fields.
type Annotated struct {
	Article
	// Published is the zero time when PubDate could not be parsed.
	Published  time.Time `json:"published"`
	Category   Category  `json:"category"`
	Important  bool      `json:"important"`
	SourceTier int       `json:"source_tier"`
}

// HasDate reports whether the publish date was parseable.
func (a Annotated) HasDate() bool {
	return !a.Published.IsZero()
}

// SortNewestFirst orders articles by publish date, newest first. Articles
// without a parseable date go last; ties keep their input order.
func SortNewestFirst(articles []Annotated) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Published.After(articles[j].Published)
	})
}
