package summary

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deusflow/dealwatch/internal/news"
)

// Paragraph is one labeled section of a generated summary.
type Paragraph struct {
	Content   string `json:"content"`
	Citations []int  `json:"citations"`
}

// Structured is the three-paragraph summary returned by providers.
type Structured struct {
	RecentDevelopments Paragraph `json:"recent_developments"`
	RegulatoryStatus   Paragraph `json:"regulatory_status"`
	DealComparison     Paragraph `json:"deal_comparison"`
}

// Paragraph keys in display order.
const (
	KeyRecentDevelopments = "recent_developments"
	KeyRegulatoryStatus   = "regulatory_status"
	KeyDealComparison     = "deal_comparison"
)

// ParseStructured decodes a provider's JSON reply and drops citation numbers
// outside 1..sources. A reply with no paragraph content is an error.
func ParseStructured(raw string, sources int) (Structured, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var s Structured
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Structured{}, fmt.Errorf("%w: decode summary: %v", news.ErrSummarization, err)
	}

	s.RecentDevelopments.Citations = validCitations(s.RecentDevelopments.Citations, sources)
	s.RegulatoryStatus.Citations = validCitations(s.RegulatoryStatus.Citations, sources)
	s.DealComparison.Citations = validCitations(s.DealComparison.Citations, sources)

	if s.RecentDevelopments.Content == "" && s.RegulatoryStatus.Content == "" && s.DealComparison.Content == "" {
		return Structured{}, fmt.Errorf("%w: empty summary", news.ErrSummarization)
	}
	return s, nil
}

func validCitations(in []int, sources int) []int {
	out := make([]int, 0, len(in))
	seen := make(map[int]bool, len(in))
	for _, n := range in {
		if n < 1 || n > sources || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Prompt renders the numbered source list and instructions shared by every
// provider.
func Prompt(digests []Digest) string {
	var b strings.Builder
	b.WriteString("You are a senior M&A analyst preparing a factual briefing on the Netflix and Warner Bros. Discovery transaction.\n\n")
	b.WriteString("SOURCE MATERIALS:\n")
	for _, d := range digests {
		fmt.Fprintf(&b, "[%d] %s (%s): %s\nDescription: %s\nURL: %s\n", d.Number, d.Source, d.Date, d.Headline, d.Description, d.URL)
	}
	fmt.Fprintf(&b, `
Write three paragraphs in neutral, third-person prose with no bullet points:
- %s: offers, board actions and executive statements from the last 48-72 hours.
- %s: status with the DOJ, FTC, European Commission, UK CMA and Canadian Competition Bureau, and any court proceedings.
- %s: comparison of the competing offers, their value, structure and timelines.

Cite sources as [N] where N is between 1 and %d, and list the numbers used in each paragraph's "citations" array.
If information is missing, say "not disclosed in available reporting" once.
Reply with a JSON object with keys %q, %q and %q, each holding {"content": string, "citations": [int]}.`,
		KeyRecentDevelopments, KeyRegulatoryStatus, KeyDealComparison, len(digests),
		KeyRecentDevelopments, KeyRegulatoryStatus, KeyDealComparison)
	return b.String()
}
