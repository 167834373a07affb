package rss

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deusflow/dealwatch/internal/news"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Search</title>
<item>
  <title>Netflix agrees to buy Warner Bros</title>
  <link>https://www.reuters.com/business/netflix-warner</link>
  <description>&lt;p&gt;The deal values WBD at $82.7 billion.&lt;/p&gt;</description>
  <pubDate>Fri, 05 Dec 2025 14:30:00 GMT</pubDate>
</item>
</channel></rss>`

func TestProvider_Search(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	p := New([]Feed{{URL: srv.URL + "/rss?q={query}"}}, "test-agent", time.Second)
	got, err := p.Search(context.Background(), "Netflix WBD")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "Netflix WBD" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	a := got[0]
	if a.SourceID != "reuters" {
		t.Errorf("source id = %q", a.SourceID)
	}
	if a.PubDate != "2025-12-05 14:30:00" {
		t.Errorf("pubDate = %q", a.PubDate)
	}
	if strings.Contains(a.Description, "<p>") {
		t.Errorf("markup not stripped: %q", a.Description)
	}
}

func TestProvider_PartialFailure(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleFeed))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	p := New([]Feed{{URL: bad.URL + "?q={query}"}, {URL: good.URL + "?q={query}", SourceID: "cnbc"}}, "", time.Second)
	got, err := p.Search(context.Background(), "q")
	if !errors.Is(err, news.ErrFetchTransport) {
		t.Errorf("err = %v, want ErrFetchTransport", err)
	}
	if len(got) != 1 || got[0].SourceID != "cnbc" {
		t.Errorf("expected the good feed's article, got %+v", got)
	}
}

func TestLoadFeeds(t *testing.T) {
	dir := t.TempDir()
	ok := filepath.Join(dir, "feeds.yaml")
	_ = os.WriteFile(ok, []byte("feeds:\n  - url: https://x.test/rss?q={query}\n    source_id: x\n"), 0o644)
	feeds, err := LoadFeeds(ok)
	if err != nil || len(feeds) != 1 || feeds[0].SourceID != "x" {
		t.Fatalf("LoadFeeds = %+v, %v", feeds, err)
	}

	bad := filepath.Join(dir, "static.yaml")
	_ = os.WriteFile(bad, []byte("feeds:\n  - url: https://x.test/rss\n"), 0o644)
	if _, err := LoadFeeds(bad); err == nil {
		t.Fatalf("expected error for feed without placeholder")
	}
}

func TestSourceIDFromLink(t *testing.T) {
	cases := map[string]string{
		"https://www.reuters.com/a":    "reuters",
		"https://edition.cnn.com/a":    "cnn",
		"https://www.bbc.co.uk/news/a": "bbc",
		"https://apnews.com/article/x": "apnews",
		"not a url":                    "",
	}
	for in, want := range cases {
		if got := SourceIDFromLink(in); got != want {
			t.Errorf("SourceIDFromLink(%q) = %q, want %q", in, got, want)
		}
	}
}
