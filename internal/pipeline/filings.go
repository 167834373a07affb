package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/deusflow/dealwatch/internal/cache"
	"github.com/deusflow/dealwatch/internal/news"
	"github.com/deusflow/dealwatch/internal/sec"
	"github.com/deusflow/dealwatch/internal/workpool"
)

// FilingFetcher looks up recent filings for one entity.
type FilingFetcher interface {
	Fetch(ctx context.Context, e sec.Entity) ([]sec.Filing, error)
}

// FilingsResult holds the merged filings of all tracked entities.
type FilingsResult struct {
	Filings []sec.Filing `json:"filings"`
	Error   string       `json:"error,omitempty"`
	Cached  bool         `json:"cached"`
}

// Filings fetches filings for every tracked entity on the worker pool.
type Filings struct {
	fetcher  FilingFetcher
	entities []sec.Entity
	pool     workpool.Pool
	store    cache.Store
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewFilings(fetcher FilingFetcher, entities []sec.Entity, pool workpool.Pool, store cache.Store, ttl time.Duration, logger *slog.Logger) *Filings {
	if len(entities) == 0 {
		entities = sec.DefaultEntities
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Filings{
		fetcher:  fetcher,
		entities: entities,
		pool:     pool,
		store:    store,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Fetch returns filings newest first. Entities that fail contribute nothing;
// the first failure is reported in the result. Only complete results are
// cached.
func (f *Filings) Fetch(ctx context.Context, generation uint64) FilingsResult {
	key := cache.Key("filings", f.now(), f.ttl, fmt.Sprint(generation))
	if f.store != nil {
		var cached []sec.Filing
		if ok, err := cache.GetJSON(ctx, f.store, key, &cached); err == nil && ok {
			return FilingsResult{Filings: cached, Cached: true}
		}
	}

	jobs := make([]workpool.Job[[]sec.Filing], len(f.entities))
	for i, e := range f.entities {
		jobs[i] = func(ctx context.Context) ([]sec.Filing, error) {
			return f.fetcher.Fetch(ctx, e)
		}
	}

	var (
		out   []sec.Filing
		first error
	)
	for _, r := range workpool.Run(ctx, f.pool, jobs) {
		if r.Err != nil {
			err := r.Err
			if errors.Is(err, workpool.ErrDeadline) {
				err = fmt.Errorf("%w: %w", news.ErrFetchTimeout, err)
			}
			if first == nil {
				first = err
			}
			f.logger.Warn("filing fetch degraded", "entity", f.entities[r.Index].Name, "reason", news.Reason(err))
			continue
		}
		out = append(out, r.Value...)
	}
	sec.SortFilings(out)

	res := FilingsResult{Filings: out}
	if first != nil {
		res.Error = news.Reason(first)
		return res
	}
	if f.store != nil {
		if err := cache.SetJSON(ctx, f.store, key, out, f.ttl); err != nil {
			f.logger.Debug("filings cache write failed", "error", err)
		}
	}
	return res
}
