// Package summary produces the executive summary for a pipeline run: it
// selects and numbers source articles, asks an AI provider for a structured
// summary and falls back to a deterministic digest on any failure.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deusflow/dealwatch/internal/cache"
	"github.com/deusflow/dealwatch/internal/news"
)

// Provider generates a structured summary from numbered digests.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, digests []Digest) (Structured, error)
}

// Budget gates provider calls.
type Budget interface {
	Use(provider string) error
	RecordCacheHit()
}

// ErrMissingAPIKey is returned by providers constructed without credentials.
var ErrMissingAPIKey = errors.New("missing API key")

// NoArticlesText is the fallback when there is nothing to summarize.
const NoArticlesText = "No recent articles available for summary."

// fallbackTop is the number of digests listed by the fallback.
const fallbackTop = 5

// Summary is the outcome of one summarization.
type Summary struct {
	// Structured is nil when the fallback was used.
	Structured *Structured `json:"structured,omitempty"`
	Fallback   string      `json:"fallback,omitempty"`
	Digests    []Digest    `json:"digests"`
	Provider   string      `json:"provider,omitempty"`
	Cached     bool        `json:"cached"`
	Error      string      `json:"error,omitempty"`
}

// Generated reports whether the summary came from a provider.
func (s Summary) Generated() bool {
	return s.Structured != nil
}

// Options configure a Service.
type Options struct {
	MaxArticles    int
	DescriptionMax int
	TTL            time.Duration
	Timeout        time.Duration
}

// Service builds summaries. Provider, budget and store are optional.
type Service struct {
	provider Provider
	budget   Budget
	store    cache.Store
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(provider Provider, budget Budget, store cache.Store, opts Options, logger *slog.Logger) *Service {
	if opts.MaxArticles <= 0 {
		opts.MaxArticles = 15
	}
	if opts.DescriptionMax <= 0 {
		opts.DescriptionMax = 500
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		budget:   budget,
		store:    store,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Summarize never fails: every error is reported in Summary.Error and the
// deterministic fallback is returned instead.
func (s *Service) Summarize(ctx context.Context, articles []news.Annotated) Summary {
	selected := SelectArticles(articles, s.now(), s.opts.MaxArticles)
	digests := BuildDigests(selected, s.opts.DescriptionMax)
	if len(digests) == 0 {
		return Summary{Fallback: NoArticlesText, Digests: digests}
	}
	if s.provider == nil {
		return Summary{Fallback: Fallback(digests), Digests: digests}
	}

	name := s.provider.Name()
	key := cache.Fingerprint("summary", append([]string{name}, digestKeys(digests)...)...)
	if s.store != nil {
		var cached Structured
		ok, err := cache.GetJSON(ctx, s.store, key, &cached)
		if err != nil {
			s.logger.Warn("summary cache read failed", "error", err)
		}
		if ok {
			if s.budget != nil {
				s.budget.RecordCacheHit()
			}
			return Summary{Structured: &cached, Digests: digests, Provider: name, Cached: true}
		}
	}

	if s.budget != nil {
		if err := s.budget.Use(name); err != nil {
			return s.fallback(digests, name, fmt.Errorf("%w: %v", news.ErrSummarization, err))
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	structured, err := s.provider.Summarize(callCtx, digests)
	if err != nil {
		return s.fallback(digests, name, err)
	}

	if s.store != nil {
		if err := cache.SetJSON(ctx, s.store, key, structured, s.opts.TTL); err != nil {
			s.logger.Warn("summary cache write failed", "error", err)
		}
	}
	return Summary{Structured: &structured, Digests: digests, Provider: name}
}

func (s *Service) fallback(digests []Digest, provider string, err error) Summary {
	reason := news.Reason(err)
	s.logger.Warn("summary degraded to fallback", "provider", provider, "reason", reason)
	return Summary{Fallback: Fallback(digests), Digests: digests, Provider: provider, Error: reason}
}

// Fallback lists the first digests as "headline (source) [n]".
func Fallback(digests []Digest) string {
	if len(digests) == 0 {
		return NoArticlesText
	}
	top := digests
	if len(top) > fallbackTop {
		top = top[:fallbackTop]
	}
	parts := make([]string, 0, len(top))
	for _, d := range top {
		parts = append(parts, fmt.Sprintf("%s (%s) [%d]", d.Headline, d.Source, d.Number))
	}
	return "Latest Coverage: " + strings.Join(parts, ". ") + "."
}

func digestKeys(digests []Digest) []string {
	out := make([]string, 0, len(digests))
	for _, d := range digests {
		out = append(out, d.URL+"|"+d.Headline+"|"+d.Date)
	}
	return out
}
