package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/deusflow/dealwatch/internal/cache"
	"github.com/deusflow/dealwatch/internal/config"
	"github.com/deusflow/dealwatch/internal/metrics"
	"github.com/deusflow/dealwatch/internal/news"
	"github.com/deusflow/dealwatch/internal/pipeline"
	"github.com/deusflow/dealwatch/internal/sec"
	"github.com/deusflow/dealwatch/internal/storage"
	"github.com/deusflow/dealwatch/internal/summary"
	"github.com/deusflow/dealwatch/internal/workpool"
)

type countingSearcher struct {
	calls    int32
	delay    time.Duration
	articles []news.Article
	err      error
}

func (s *countingSearcher) Search(ctx context.Context, _ string) ([]news.Article, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.articles, s.err
}

type noFilings struct{}

func (noFilings) Fetch(context.Context, sec.Entity) ([]sec.Filing, error) { return nil, nil }

func newTestService(t *testing.T, searcher *countingSearcher, m *metrics.Metrics) *Service {
	t.Helper()
	store := cache.NewMemory(0)
	t.Cleanup(func() { store.Close() })

	pool := workpool.New(2, time.Second, 100*time.Millisecond)
	archive := storage.NewFileArchive(t.TempDir() + "/archive.json")
	pipe := pipeline.New([]pipeline.Source{{Name: "fake", Searcher: searcher}}, archive, nil, pool, nil,
		pipeline.Options{Queries: []string{"q"}, DataTTL: time.Hour}, nil)
	filings := pipeline.NewFilings(noFilings{}, nil, pool, nil, time.Hour, nil)

	return NewService(Deps{
		Pipeline:   pipe,
		Filings:    filings,
		Summarizer: summary.NewService(nil, nil, nil, summary.Options{}, nil),
		Store:      store,
		Metrics:    m,
		DataTTL:    time.Hour,
	})
}

func TestDashboard_CachesUntilRefresh(t *testing.T) {
	searcher := &countingSearcher{articles: []news.Article{{
		Title:    "Netflix reaches deal to buy Warner Bros",
		Link:     "https://www.reuters.com/business/netflix-deal",
		PubDate:  time.Now().UTC().Add(-time.Hour).Format("2006-01-02 15:04:05"),
		SourceID: "reuters",
	}}}
	m := metrics.New()
	s := newTestService(t, searcher, m)
	ctx := context.Background()

	v, err := s.Dashboard(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.NoData || v.Stats.Total != 1 || v.Status.Saved != 1 {
		t.Fatalf("view = %+v", v)
	}
	if v.Summary.Fallback == "" {
		t.Errorf("expected fallback summary without a provider")
	}
	if v.Banner == nil {
		t.Errorf("expected breaking banner")
	}

	if _, err := s.Dashboard(ctx); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&searcher.calls); n != 1 {
		t.Fatalf("calls = %d, want cached snapshot", n)
	}

	s.Refresh()
	v, _ = s.Dashboard(ctx)
	if n := atomic.LoadInt32(&searcher.calls); n != 2 {
		t.Fatalf("calls after refresh = %d, want 2", n)
	}
	if v.Status.Saved != 0 || v.Status.Archived != 1 {
		t.Errorf("second run status = %+v", v.Status)
	}
	if !m.Healthy() || m.GetStats()["refreshes"] != int64(1) {
		t.Errorf("metrics = %v", m.GetStats())
	}
}

func TestDashboard_CallerCancelDoesNotPoisonSnapshot(t *testing.T) {
	searcher := &countingSearcher{
		delay: 50 * time.Millisecond,
		articles: []news.Article{{
			Title:    "Netflix reaches deal to buy Warner Bros",
			Link:     "https://www.reuters.com/business/netflix-deal",
			PubDate:  time.Now().UTC().Add(-time.Hour).Format("2006-01-02 15:04:05"),
			SourceID: "reuters",
		}},
	}
	m := metrics.New()
	s := newTestService(t, searcher, m)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := s.Dashboard(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	v, err := s.Dashboard(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v.NoData || v.Status.FetchError != "" || v.Stats.Total != 1 {
		t.Fatalf("view = %+v", v)
	}
	if n := atomic.LoadInt32(&searcher.calls); n != 1 {
		t.Errorf("calls = %d, want the abandoned build to be reused", n)
	}
	if !m.Healthy() {
		t.Error("expected healthy after the shared build completed")
	}
}

func TestDashboard_NoDataMarksUnhealthy(t *testing.T) {
	m := metrics.New()
	s := newTestService(t, &countingSearcher{err: errors.New("dial tcp: refused")}, m)

	v, err := s.Dashboard(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !v.NoData || v.Status.FetchError == "" {
		t.Fatalf("view = %+v", v)
	}
	if m.Healthy() {
		t.Error("expected unhealthy after an empty run")
	}
}

func TestNewProvider_MissingKeyDisables(t *testing.T) {
	cfg := config.Default()
	p, closeFn, err := NewProvider(context.Background(), cfg, noopLogger())
	if err != nil || p != nil || closeFn != nil {
		t.Fatalf("p = %v, close = %v, err = %v", p, closeFn != nil, err)
	}

	cfg.SummaryProvider = "openai"
	cfg.OpenAIAPIKey = "k"
	p, _, err = NewProvider(context.Background(), cfg, noopLogger())
	if err != nil || p == nil || p.Name() != "openai" {
		t.Fatalf("openai provider = %v, %v", p, err)
	}
}

func TestOpenArchive_Drivers(t *testing.T) {
	cfg := config.Default()
	cfg.ArchiveFilePath = t.TempDir() + "/a.json"
	a, err := OpenArchive(context.Background(), cfg, noopLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := a.(*storage.FileArchive); !ok {
		t.Errorf("file driver = %T", a)
	}

	cfg.ArchiveDriver = "none"
	if a, _ = OpenArchive(context.Background(), cfg, noopLogger()); a != (storage.Nop{}) {
		t.Errorf("none driver = %T", a)
	}
}

func noopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
