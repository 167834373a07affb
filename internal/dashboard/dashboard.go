// Package dashboard turns a pipeline run into the display-ready view served
// by the HTTP API.
package dashboard

import (
	"time"

	"github.com/deusflow/dealwatch/internal/news"
	"github.com/deusflow/dealwatch/internal/pipeline"
	"github.com/deusflow/dealwatch/internal/sec"
	"github.com/deusflow/dealwatch/internal/summary"
)

const (
	RecentWindow   = 7 * 24 * time.Hour
	BreakingWindow = summary.BreakingWindow

	maxTabItems     = 20
	maxArchiveItems = 100
)

// Tab keys in display order.
const (
	TabDeal       = "deal"
	TabRegulatory = "regulatory"
	TabBids       = "bids"
	TabFilings    = "sec"
	TabAnalysis   = "analysis"
)

var tabLabels = map[string]string{
	TabDeal:       "Deal News",
	TabRegulatory: "Regulatory",
	TabBids:       "Bids & Offers",
	TabFilings:    "SEC Filings",
	TabAnalysis:   "Analysis",
}

// Item is one article row.
type Item struct {
	Headline  string `json:"headline"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Date      string `json:"date"`
	Category  string `json:"category"`
	Important bool   `json:"important"`
	Tier      int    `json:"tier"`
	ImageURL  string `json:"image_url,omitempty"`
}

type Stats struct {
	Total       int    `json:"total"`
	Last7Days   int    `json:"last_7_days"`
	Last48Hours int    `json:"last_48_hours"`
	LastUpdated string `json:"last_updated"`
}

// Tab holds either articles or filings. Count is the full count before the
// display cap.
type Tab struct {
	Key      string       `json:"key"`
	Label    string       `json:"label"`
	Count    int          `json:"count"`
	Articles []Item       `json:"articles,omitempty"`
	Filings  []sec.Filing `json:"filings,omitempty"`
}

type Status struct {
	Archived     int    `json:"archived"`
	Displayed    int    `json:"displayed"`
	Filtered     int    `json:"filtered"`
	Duplicates   int    `json:"duplicates"`
	Filings      int    `json:"filings"`
	Saved        int    `json:"saved"`
	ArchiveError string `json:"archive_error,omitempty"`
	FetchError   string `json:"api_error,omitempty"`
	PersistError string `json:"persist_error,omitempty"`
	FilingsError string `json:"filings_error,omitempty"`
}

type View struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Stats       Stats           `json:"stats"`
	Banner      *Item           `json:"banner,omitempty"`
	Summary     summary.Summary `json:"summary"`
	Tabs        []Tab           `json:"tabs"`
	Archive     []Item          `json:"archive"`
	Status      Status          `json:"status"`
	// NoData is the only failure surfaced to readers.
	NoData bool `json:"no_data"`
}

// Build assembles the view. loc controls the "last updated" rendering.
func Build(run pipeline.Result, filings pipeline.FilingsResult, sum summary.Summary, now time.Time, loc *time.Location) View {
	if loc == nil {
		loc = time.UTC
	}
	articles := run.Articles
	recent := Since(articles, now.Add(-RecentWindow))
	breaking := Since(articles, now.Add(-BreakingWindow))

	v := View{
		RunID:       run.RunID,
		GeneratedAt: now,
		Stats: Stats{
			Total:       len(articles),
			Last7Days:   len(recent),
			Last48Hours: len(breaking),
			LastUpdated: now.In(loc).Format("Jan 02, 03:04 PM"),
		},
		Banner:  Banner(breaking),
		Summary: sum,
		Archive: items(articles, maxArchiveItems),
		Status: Status{
			Archived:     run.Stats.Archived,
			Displayed:    len(articles),
			Filtered:     run.Stats.Filtered,
			Duplicates:   run.Stats.Duplicates,
			Filings:      len(filings.Filings),
			Saved:        run.Stats.Saved,
			ArchiveError: run.ArchiveError,
			FetchError:   run.FetchError,
			PersistError: run.PersistError,
			FilingsError: filings.Error,
		},
		NoData: len(articles) == 0,
	}

	byCategory := make(map[news.Category][]news.Annotated, 4)
	for _, a := range recent {
		byCategory[a.Category] = append(byCategory[a.Category], a)
	}
	for _, key := range []string{TabDeal, TabRegulatory, TabBids, TabFilings, TabAnalysis} {
		tab := Tab{Key: key, Label: tabLabels[key]}
		if key == TabFilings {
			tab.Count = len(filings.Filings)
			tab.Filings = capFilings(filings.Filings, maxTabItems)
		} else {
			list := byCategory[news.Category(key)]
			tab.Count = len(list)
			tab.Articles = items(list, maxTabItems)
		}
		v.Tabs = append(v.Tabs, tab)
	}
	return v
}

// Since returns the articles published strictly after cutoff.
func Since(articles []news.Annotated, cutoff time.Time) []news.Annotated {
	var out []news.Annotated
	for _, a := range articles {
		if a.HasDate() && a.Published.After(cutoff) {
			out = append(out, a)
		}
	}
	return out
}

// Banner picks the first tier-1 breaking article, else the first breaking one.
func Banner(breaking []news.Annotated) *Item {
	if len(breaking) == 0 {
		return nil
	}
	pick := breaking[0]
	for _, a := range breaking {
		if a.SourceTier == news.TierPremium {
			pick = a
			break
		}
	}
	it := toItem(pick)
	return &it
}

func items(list []news.Annotated, limit int) []Item {
	if len(list) > limit {
		list = list[:limit]
	}
	out := make([]Item, 0, len(list))
	for _, a := range list {
		out = append(out, toItem(a))
	}
	return out
}

func toItem(a news.Annotated) Item {
	return Item{
		Headline:  news.Headline(a.Title),
		Link:      a.Link,
		Source:    news.DisplaySource(a.SourceID),
		Date:      news.ShortDate(a.Published),
		Category:  string(a.Category),
		Important: a.Important,
		Tier:      a.SourceTier,
		ImageURL:  a.ImageURL,
	}
}

func capFilings(f []sec.Filing, limit int) []sec.Filing {
	if len(f) > limit {
		return f[:limit]
	}
	return f
}
