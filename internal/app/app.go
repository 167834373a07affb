// Package app wires the pipeline, filings, summary and dashboard into one
// service with snapshot caching and explicit refresh.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/deusflow/dealwatch/internal/cache"
	"github.com/deusflow/dealwatch/internal/dashboard"
	"github.com/deusflow/dealwatch/internal/metrics"
	"github.com/deusflow/dealwatch/internal/pipeline"
	"github.com/deusflow/dealwatch/internal/summary"
)

// Deps are the collaborators of a Service. Store and Metrics may be nil.
type Deps struct {
	Pipeline   *pipeline.Pipeline
	Filings    *pipeline.Filings
	Summarizer *summary.Service
	Store      cache.Store
	Metrics    *metrics.Metrics
	Location   *time.Location
	DataTTL    time.Duration
	Logger     *slog.Logger
	// Closers run on Close in order.
	Closers []func() error
}

type Service struct {
	deps       Deps
	generation atomic.Uint64
	group      singleflight.Group
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(deps Deps) *Service {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Global
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps, logger: deps.Logger, now: time.Now}
}

// Refresh invalidates cached snapshots and fetches; the next Dashboard call
// runs the pipeline again. It returns the new generation.
func (s *Service) Refresh() uint64 {
	s.deps.Metrics.IncrementRefreshes()
	gen := s.generation.Add(1)
	s.logger.Info("refresh requested", "generation", gen)
	return gen
}

// Dashboard returns the cached snapshot for the current generation and time
// bucket, building it on a miss. Concurrent misses share one build, which
// runs to completion even if the caller gives up waiting.
func (s *Service) Dashboard(ctx context.Context) (dashboard.View, error) {
	gen := s.generation.Load()
	key := cache.Key("dashboard", s.now(), s.deps.DataTTL, fmt.Sprint(gen))

	if s.deps.Store != nil {
		var cached dashboard.View
		ok, err := cache.GetJSON(ctx, s.deps.Store, key, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", "error", err)
		}
		if ok {
			return cached, nil
		}
	}

	// The build is shared by every caller waiting on key, so it must not
	// inherit the first caller's cancellation. Pool and summary timeouts
	// bound it instead.
	buildCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		view := s.build(buildCtx, gen)
		if s.deps.Store != nil {
			if err := cache.SetJSON(buildCtx, s.deps.Store, key, view, s.deps.DataTTL); err != nil {
				s.logger.Warn("dashboard cache write failed", "error", err)
			}
		}
		return view, nil
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return dashboard.View{}, r.Err
		}
		return r.Val.(dashboard.View), nil
	case <-ctx.Done():
		return dashboard.View{}, ctx.Err()
	}
}

// Filings returns the filing list for the current generation.
func (s *Service) Filings(ctx context.Context) pipeline.FilingsResult {
	return s.deps.Filings.Fetch(ctx, s.generation.Load())
}

// build runs the pipeline and the filing lookup side by side, then the
// summary over the pipeline's articles.
func (s *Service) build(ctx context.Context, gen uint64) dashboard.View {
	var (
		wg      sync.WaitGroup
		run     pipeline.Result
		filings pipeline.FilingsResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		run = s.deps.Pipeline.Run(ctx, gen)
	}()
	go func() {
		defer wg.Done()
		filings = s.deps.Filings.Fetch(ctx, gen)
	}()
	wg.Wait()

	sum := s.deps.Summarizer.Summarize(ctx, run.Articles)
	view := dashboard.Build(run, filings, sum, s.now(), s.deps.Location)
	s.record(run, sum, view)
	return view
}

func (s *Service) record(run pipeline.Result, sum summary.Summary, view dashboard.View) {
	m := s.deps.Metrics
	m.RecordRun(len(run.Articles), run.Stats.Saved, run.Stats.Duplicates)
	m.RecordProcessingTime(run.Duration)
	if run.FetchError != "" {
		m.IncrementFetchFailures()
	}
	if run.ArchiveError != "" || run.PersistError != "" {
		m.IncrementArchiveFailures()
	}
	if len(sum.Digests) > 0 {
		m.IncrementSummaries(sum.Generated())
	}

	if view.NoData {
		reason := "no data available"
		if run.FetchError != "" {
			reason += ": " + run.FetchError
		} else if run.ArchiveError != "" {
			reason += ": " + run.ArchiveError
		}
		m.SetError(reason)
		s.logger.Warn("pipeline produced no data", "run_id", run.RunID, "reason", reason)
		return
	}
	m.SetLastRun()
}

// Close releases backends.
func (s *Service) Close() error {
	var first error
	for _, c := range s.deps.Closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
