package news

import (
	"fmt"
	"regexp"
	"strings"
)

// Classifier applies a compiled RuleSet to articles. It is immutable after
// construction and safe for concurrent use.
type Classifier struct {
	blocked    []string
	trusted    []string
	tier1      []string
	tier2      []string
	irrelevant []*regexp.Regexp
	relevance  []*regexp.Regexp
	importance []*regexp.Regexp

	primary      *regexp.Regexp
	counterparty *regexp.Regexp
	vocabulary   *regexp.Regexp

	categories []compiledCategory
}

type compiledCategory struct {
	category Category
	patterns []*regexp.Regexp
}

// NewClassifier compiles rules. Any invalid pattern is reported with the
// offending expression.
func NewClassifier(rules RuleSet) (*Classifier, error) {
	c := &Classifier{
		blocked: lowerAll(rules.BlockedSources),
		trusted: lowerAll(rules.TrustedEntities),
		tier1:   lowerAll(rules.Tier1Sources),
		tier2:   lowerAll(rules.Tier2Sources),
	}

	var err error
	if c.irrelevant, err = compileAll(rules.Irrelevant); err != nil {
		return nil, err
	}
	if c.relevance, err = compileAll(rules.Relevance); err != nil {
		return nil, err
	}
	if c.importance, err = compileAll(rules.Importance); err != nil {
		return nil, err
	}
	c.primary = compileTokens(rules.Fallback.Primary)
	c.counterparty = compileTokens(rules.Fallback.Counterparty)
	c.vocabulary = compileTokens(rules.Fallback.Vocabulary)

	for _, rule := range rules.Categories {
		patterns, err := compileAll(rule.Patterns)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", rule.Category, err)
		}
		c.categories = append(c.categories, compiledCategory{category: rule.Category, patterns: patterns})
	}
	return c, nil
}

// DefaultClassifier returns a Classifier for DefaultRules.
func DefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultRules())
	if err != nil {
		panic(err)
	}
	return c
}

// IsBlockedSource reports whether the source id contains a blocked entry.
func (c *Classifier) IsBlockedSource(sourceID string) bool {
	return containsAny(strings.ToLower(sourceID), c.blocked)
}

// IsTrustedSource reports whether the source id belongs to the allow-list of
// trusted publishers or deal parties.
func (c *Classifier) IsTrustedSource(sourceID string) bool {
	id := strings.ToLower(sourceID)
	return containsAny(id, c.trusted) || containsAny(id, c.tier1) || containsAny(id, c.tier2)
}

// SourceTier returns 1 for premium, 2 for acceptable and 3 for everything else.
func (c *Classifier) SourceTier(sourceID string) int {
	id := strings.ToLower(sourceID)
	switch {
	case id == "":
		return TierOther
	case containsAny(id, c.tier1):
		return TierPremium
	case containsAny(id, c.tier2):
		return TierAcceptable
	default:
		return TierOther
	}
}

// MatchesIrrelevant reports whether text hits any exclusion pattern.
func (c *Classifier) MatchesIrrelevant(text string) bool {
	return matchAny(text, c.irrelevant)
}

// MatchesRelevance reports whether text hits any explicit relevance pattern.
func (c *Classifier) MatchesRelevance(text string) bool {
	return matchAny(text, c.relevance)
}

// MatchesFallback reports whether text mentions the primary party, the
// counterparty and acquisition vocabulary together.
func (c *Classifier) MatchesFallback(text string) bool {
	if c.primary == nil || c.counterparty == nil || c.vocabulary == nil {
		return false
	}
	return c.primary.MatchString(text) && c.counterparty.MatchString(text) && c.vocabulary.MatchString(text)
}

// IsRelevant runs the relevance gate: blocked sources, trusted-source
// allow-list, exclusion patterns, then relevance patterns or the fallback
// heuristic.
func (c *Classifier) IsRelevant(a Article) bool {
	if c.IsBlockedSource(a.SourceID) {
		return false
	}
	if !c.IsTrustedSource(a.SourceID) {
		return false
	}
	text := ClassifierText(a.Title, a.Description)
	if c.MatchesIrrelevant(text) {
		return false
	}
	return c.MatchesRelevance(text) || c.MatchesFallback(text)
}

// Category returns the first category rule matching text, or CategoryDeal.
func (c *Classifier) Category(text string) Category {
	for _, cat := range c.categories {
		if matchAny(text, cat.patterns) {
			return cat.category
		}
	}
	return CategoryDeal
}

// IsHighImportance reports whether text hits an importance pattern. A
// premium-tier source is important on its own.
func (c *Classifier) IsHighImportance(text string, tier int) bool {
	if tier == TierPremium {
		return true
	}
	return matchAny(text, c.importance)
}

// Annotate derives the date, category, importance and tier of a.
func (c *Classifier) Annotate(a Article) Annotated {
	text := ClassifierText(a.Title, a.Description)
	tier := c.SourceTier(a.SourceID)
	published, _ := ParsePublished(a.PubDate)
	return Annotated{
		Article:    a,
		Published:  published,
		Category:   c.Category(text),
		Important:  c.IsHighImportance(text, tier),
		SourceTier: tier,
	}
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// compileTokens builds a regexp matching any of tokens as a plain substring.
// Returns nil for an empty list.
func compileTokens(tokens []string) *regexp.Regexp {
	quoted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(t)))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
}

func matchAny(text string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	if s == "" {
		return false
	}
	for _, n := range needles {
		if n != "" && strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(strings.TrimSpace(s)))
	}
	return out
}
