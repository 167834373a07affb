package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/deusflow/dealwatch/internal/news"
	"github.com/deusflow/dealwatch/internal/pipeline"
	"github.com/deusflow/dealwatch/internal/sec"
	"github.com/deusflow/dealwatch/internal/summary"
)

var now = time.Date(2025, 12, 10, 17, 30, 0, 0, time.UTC)

func annotated(link string, tier int, cat news.Category, age time.Duration) news.Annotated {
	a := news.Annotated{
		Article:    news.Article{Title: "Headline " + link + " | Wire", Link: link, SourceID: "reuters"},
		Category:   cat,
		SourceTier: tier,
	}
	if age >= 0 {
		a.Published = now.Add(-age)
	}
	return a
}

func TestBuild(t *testing.T) {
	run := pipeline.Result{
		RunID: "run-1",
		Articles: []news.Annotated{
			annotated("a", 2, news.CategoryBids, time.Hour),
			annotated("b", 1, news.CategoryRegulatory, 2*time.Hour),
			annotated("c", 1, news.CategoryDeal, 4*24*time.Hour),
			annotated("d", 3, news.CategoryAnalysis, 10*24*time.Hour),
			annotated("e", 3, news.CategoryDeal, -1),
		},
		Stats:      pipeline.Stats{Archived: 4, Filtered: 3, Saved: 1},
		FetchError: "fetch timed out",
	}
	filings := pipeline.FilingsResult{Filings: []sec.Filing{{Form: "425", Date: "2025-12-09"}}}
	loc := time.FixedZone("EST", -5*60*60)

	v := Build(run, filings, summary.Summary{Fallback: "x"}, now, loc)

	if v.Stats.Total != 5 || v.Stats.Last7Days != 3 || v.Stats.Last48Hours != 2 {
		t.Errorf("stats = %+v", v.Stats)
	}
	if v.Stats.LastUpdated != "Dec 10, 12:30 PM" {
		t.Errorf("last updated = %q", v.Stats.LastUpdated)
	}
	if v.Banner == nil || v.Banner.Link != "b" || v.Banner.Headline != "Headline b" {
		t.Errorf("banner = %+v", v.Banner)
	}

	wantCounts := map[string]int{TabDeal: 1, TabRegulatory: 1, TabBids: 1, TabFilings: 1, TabAnalysis: 0}
	var keys []string
	for _, tab := range v.Tabs {
		keys = append(keys, tab.Key)
		if tab.Count != wantCounts[tab.Key] {
			t.Errorf("tab %s count = %d", tab.Key, tab.Count)
		}
	}
	if fmt.Sprint(keys) != "[deal regulatory bids sec analysis]" {
		t.Errorf("tab order = %v", keys)
	}
	if len(v.Archive) != 5 || v.Archive[4].Date != "Unknown" {
		t.Errorf("archive = %+v", v.Archive)
	}
	if v.Status.Archived != 4 || v.Status.Displayed != 5 || v.Status.Filings != 1 || v.Status.FetchError == "" {
		t.Errorf("status = %+v", v.Status)
	}
	if v.NoData {
		t.Error("NoData set with articles present")
	}
}

func TestBuild_CapsAndNoData(t *testing.T) {
	var list []news.Annotated
	for i := 0; i < 130; i++ {
		list = append(list, annotated(fmt.Sprint(i), 3, news.CategoryDeal, time.Minute))
	}
	v := Build(pipeline.Result{Articles: list}, pipeline.FilingsResult{}, summary.Summary{}, now, nil)
	if len(v.Archive) != maxArchiveItems || len(v.Tabs[0].Articles) != maxTabItems || v.Tabs[0].Count != 130 {
		t.Errorf("archive = %d, deal tab = %d/%d", len(v.Archive), len(v.Tabs[0].Articles), v.Tabs[0].Count)
	}
	if v.Banner == nil || v.Banner.Link != "0" {
		t.Errorf("banner without tier-1 = %+v", v.Banner)
	}

	empty := Build(pipeline.Result{}, pipeline.FilingsResult{}, summary.Summary{}, now, nil)
	if !empty.NoData || empty.Banner != nil {
		t.Errorf("empty view = %+v", empty)
	}
}
