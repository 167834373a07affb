package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/deusflow/dealwatch/internal/cache"
	"github.com/deusflow/dealwatch/internal/news"
)

var testNow = time.Date(2025, 12, 10, 12, 0, 0, 0, time.UTC)

type fakeProvider struct {
	calls int
	err   error
	out   Structured
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Summarize(_ context.Context, digests []Digest) (Structured, error) {
	f.calls++
	if f.err != nil {
		return Structured{}, f.err
	}
	return f.out, nil
}

type fakeBudget struct {
	err  error
	hits int
}

func (b *fakeBudget) Use(string) error { return b.err }
func (b *fakeBudget) RecordCacheHit()  { b.hits++ }

func article(title, link, source string, tier int, cat news.Category, published time.Time) news.Annotated {
	return news.Annotated{
		Article:    news.Article{Title: title, Link: link, SourceID: source, Description: "desc"},
		Published:  published,
		Category:   cat,
		SourceTier: tier,
	}
}

func sampleArticles() []news.Annotated {
	return []news.Annotated{
		article("Netflix raises offer", "L1", "reuters", 1, news.CategoryBids, testNow.Add(-2*time.Hour)),
		article("DOJ review widens", "L2", "randomwire", 3, news.CategoryRegulatory, testNow.Add(-72*time.Hour)),
		article("Analysts weigh bids", "L3", "seekingalpha", 2, news.CategoryAnalysis, testNow.Add(-96*time.Hour)),
		article("Blog roundup", "L4", "netflix", 3, news.CategoryDeal, testNow.Add(-time.Hour)),
	}
}

func newTestService(p Provider, b Budget, store cache.Store) *Service {
	s := NewService(p, b, store, Options{TTL: time.Minute}, nil)
	s.now = func() time.Time { return testNow }
	return s
}

func TestSelectArticles(t *testing.T) {
	got := SelectArticles(sampleArticles(), testNow, 15)
	var links []string
	for _, a := range got {
		links = append(links, a.Link)
	}
	// breaking tier<=2 first, then regulatory, tier1, tier2
	if strings.Join(links, ",") != "L1,L2,L3" {
		t.Fatalf("links = %v", links)
	}
}

func TestSelectArticles_FallsBackToFirstArticles(t *testing.T) {
	list := []news.Annotated{
		article("Old blog", "B1", "netflix", 3, news.CategoryDeal, testNow.Add(-100*time.Hour)),
		article("Undated", "B2", "wbd", 3, news.CategoryDeal, time.Time{}),
	}
	got := SelectArticles(list, testNow, 15)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}

func TestBreakingPriority_UsesAnyTierWhenNoTopSources(t *testing.T) {
	var breaking []news.Annotated
	for i := 0; i < 7; i++ {
		breaking = append(breaking, article("x", fmt.Sprint(i), "blog", 3, news.CategoryDeal, testNow))
	}
	if got := BreakingPriority(breaking); len(got) != 5 {
		t.Errorf("len = %d, want 5", len(got))
	}
}

func TestBuildDigests(t *testing.T) {
	a := article("Netflix raises offer | Reuters", "L1", "reuters", 1, news.CategoryBids, testNow)
	a.Description = strings.Repeat("d", 600)
	got := BuildDigests([]news.Annotated{a}, 500)
	if len(got) != 1 {
		t.Fatal("expected one digest")
	}
	d := got[0]
	if d.Number != 1 || d.Headline != "Netflix raises offer" || d.Source != "Reuters" || d.Date != "December 10, 2025" {
		t.Errorf("digest = %+v", d)
	}
	if len(d.Description) != 500 {
		t.Errorf("description len = %d", len(d.Description))
	}
}

func TestFallback(t *testing.T) {
	if Fallback(nil) != NoArticlesText {
		t.Errorf("empty fallback = %q", Fallback(nil))
	}
	digests := []Digest{
		{Number: 1, Headline: "A", Source: "Reuters"},
		{Number: 2, Headline: "B", Source: "CNBC"},
	}
	want := "Latest Coverage: A (Reuters) [1]. B (CNBC) [2]."
	if got := Fallback(digests); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseStructured_DropsInvalidCitations(t *testing.T) {
	raw := "```json\n" + `{"recent_developments":{"content":"Offer raised [1] [9]","citations":[1,9,0,1]},
		"regulatory_status":{"content":"DOJ review [2]","citations":[2]},
		"deal_comparison":{"content":"","citations":[]}}` + "\n```"
	s, err := ParseStructured(raw, 3)
	if err != nil {
		t.Fatalf("ParseStructured: %v", err)
	}
	if fmt.Sprint(s.RecentDevelopments.Citations) != "[1]" {
		t.Errorf("citations = %v", s.RecentDevelopments.Citations)
	}

	if _, err := ParseStructured(`{}`, 3); !errors.Is(err, news.ErrSummarization) {
		t.Errorf("empty summary err = %v", err)
	}
	if _, err := ParseStructured(`not json`, 3); !errors.Is(err, news.ErrSummarization) {
		t.Errorf("bad json err = %v", err)
	}
}

func TestSummarize_UsesProviderAndCaches(t *testing.T) {
	p := &fakeProvider{out: Structured{RecentDevelopments: Paragraph{Content: "ok [1]", Citations: []int{1}}}}
	b := &fakeBudget{}
	store := cache.NewMemory(0)
	defer store.Close()
	s := newTestService(p, b, store)

	first := s.Summarize(context.Background(), sampleArticles())
	if !first.Generated() || first.Cached || first.Provider != "fake" {
		t.Fatalf("first = %+v", first)
	}
	second := s.Summarize(context.Background(), sampleArticles())
	if !second.Cached || p.calls != 1 || b.hits != 1 {
		t.Fatalf("expected cached second call: %+v calls=%d hits=%d", second, p.calls, b.hits)
	}
}

func TestSummarize_Fallbacks(t *testing.T) {
	ctx := context.Background()

	s := newTestService(&fakeProvider{err: fmt.Errorf("%w: boom", news.ErrSummarization)}, nil, nil)
	got := s.Summarize(ctx, sampleArticles())
	if got.Generated() || !strings.HasPrefix(got.Fallback, "Latest Coverage:") || got.Error == "" {
		t.Errorf("provider failure = %+v", got)
	}

	p := &fakeProvider{}
	s = newTestService(p, &fakeBudget{err: errors.New("limit")}, nil)
	got = s.Summarize(ctx, sampleArticles())
	if got.Generated() || p.calls != 0 || !strings.Contains(got.Error, "limit") {
		t.Errorf("budget exhausted = %+v, calls=%d", got, p.calls)
	}

	s = newTestService(nil, nil, nil)
	if got := s.Summarize(ctx, sampleArticles()); got.Generated() || got.Error != "" {
		t.Errorf("no provider = %+v", got)
	}
	if got := s.Summarize(ctx, nil); got.Fallback != NoArticlesText {
		t.Errorf("no articles = %+v", got)
	}
}

func TestPrompt_ListsSources(t *testing.T) {
	p := Prompt([]Digest{{Number: 1, Headline: "A", Source: "Reuters", Date: "December 10, 2025", URL: "L1"}})
	for _, want := range []string{"[1] Reuters (December 10, 2025): A", KeyRegulatoryStatus, "between 1 and 1"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
