// Package rss is a secondary live search provider: RSS/Atom search feeds
// whose URL templates take the query text.
package rss

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/dealwatch/internal/news"
)

// QueryPlaceholder is replaced by the URL-encoded query in feed templates.
const QueryPlaceholder = "{query}"

// Feed is one search feed template.
type Feed struct {
	URL string `yaml:"url"`
	// SourceID overrides the source id derived from each item's link host.
	SourceID string `yaml:"source_id"`
}

// FeedsConfig is YAML config structure
//
//	feeds:
//	  - url: https://news.example.com/rss/search?q={query}
//	    source_id: example
type FeedsConfig struct {
	Feeds []Feed `yaml:"feeds"`
}

// LoadFeeds reads the feed list from a YAML file. Every feed URL must
// contain QueryPlaceholder.
func LoadFeeds(path string) ([]Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse feeds file: %w", err)
	}
	for _, feed := range cfg.Feeds {
		if !strings.Contains(feed.URL, QueryPlaceholder) {
			return nil, fmt.Errorf("feed %q has no %s placeholder", feed.URL, QueryPlaceholder)
		}
	}
	return cfg.Feeds, nil
}

// Provider searches every configured feed for a query.
type Provider struct {
	feeds  []Feed
	parser *gofeed.Parser
}

// New returns a Provider using its own HTTP client with the given timeout.
func New(feeds []Feed, userAgent string, timeout time.Duration) *Provider {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	if userAgent != "" {
		parser.UserAgent = userAgent
	}
	return &Provider{feeds: feeds, parser: parser}
}

// Search fetches every feed for query. Articles from feeds that succeeded
// are returned together with the first failure, if any.
func (p *Provider) Search(ctx context.Context, query string) ([]news.Article, error) {
	var (
		out      []news.Article
		firstErr error
	)
	for _, feed := range p.feeds {
		feedURL := strings.ReplaceAll(feed.URL, QueryPlaceholder, url.QueryEscape(query))
		parsed, err := p.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = classify(err)
			}
			continue
		}
		for _, item := range parsed.Items {
			out = append(out, toArticle(item, feed.SourceID))
		}
	}
	return out, firstErr
}

func classify(err error) error {
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Errorf("%w: feed status %d", news.ErrFetchTransport, httpErr.StatusCode)
	}
	if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
		return fmt.Errorf("%w: %v", news.ErrFetchParse, err)
	}
	return news.ClassifyFetchError(err)
}

func toArticle(item *gofeed.Item, sourceID string) news.Article {
	a := news.Article{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		PubDate:     item.Published,
		Description: news.StripMarkup(item.Description),
		SourceID:    sourceID,
	}
	if item.PublishedParsed != nil {
		a.PubDate = item.PublishedParsed.UTC().Format("2006-01-02 15:04:05")
	}
	if item.Image != nil {
		a.ImageURL = item.Image.URL
	}
	if a.SourceID == "" {
		a.SourceID = SourceIDFromLink(a.Link)
	}
	return a
}

// SourceIDFromLink derives a publisher slug from a link host, e.g.
// "https://www.reuters.com/x" gives "reuters".
func SourceIDFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return host
	}
	name := labels[len(labels)-2]
	// Second-level country domains such as bbc.co.uk.
	if len(labels) >= 3 && len(name) <= 3 && len(labels[len(labels)-1]) == 2 {
		name = labels[len(labels)-3]
	}
	return name
}
