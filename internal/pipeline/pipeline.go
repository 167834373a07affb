// Package pipeline sequences one batch run: fetch live articles, merge them
// with the archive, filter, deduplicate, annotate and sort.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deusflow/dealwatch/internal/cache"
	"github.com/deusflow/dealwatch/internal/news"
	"github.com/deusflow/dealwatch/internal/storage"
	"github.com/deusflow/dealwatch/internal/workpool"
)

// Searcher is a live article provider.
type Searcher interface {
	Search(ctx context.Context, query string) ([]news.Article, error)
}

// Source names a Searcher for logging and cache keys.
type Source struct {
	Name     string
	Searcher Searcher
}

// Stats are the diagnostic counters of a run.
type Stats struct {
	Total       int `json:"total_raw"`
	Filtered    int `json:"filtered_out"`
	Duplicates  int `json:"duplicates"`
	NewRelevant int `json:"new_count"`
	Archived    int `json:"archived_count"`
	Fetched     int `json:"api_fetched"`
	Saved       int `json:"saved_count"`
}

// Result is the display-ready output of a run.
type Result struct {
	RunID        string           `json:"run_id"`
	StartedAt    time.Time        `json:"started_at"`
	Duration     time.Duration    `json:"duration"`
	Articles     []news.Annotated `json:"articles"`
	Stats        Stats            `json:"stats"`
	FetchError   string           `json:"api_error,omitempty"`
	ArchiveError string           `json:"archive_error,omitempty"`
	PersistError string           `json:"persist_error,omitempty"`
}

// Options configure a Pipeline.
type Options struct {
	Queries []string
	// DataTTL sizes the time bucket of cached fetch results.
	DataTTL time.Duration
}

type Pipeline struct {
	sources    []Source
	archive    storage.Archive
	classifier *news.Classifier
	dedup      *news.Deduplicator
	pool       workpool.Pool
	store      cache.Store
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
}

// New builds a Pipeline. archive and store may be nil.
func New(sources []Source, archive storage.Archive, classifier *news.Classifier, pool workpool.Pool, store cache.Store, opts Options, logger *slog.Logger) *Pipeline {
	if archive == nil {
		archive = storage.Nop{}
	}
	if classifier == nil {
		classifier = news.DefaultClassifier()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		sources:    sources,
		archive:    archive,
		classifier: classifier,
		dedup:      news.NewDeduplicator(classifier.SourceTier),
		pool:       pool,
		store:      store,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one batch. It never fails: provider and archive errors are
// recorded in the result and the run continues with whatever data it has.
// Archive calls share the fetch budget of the pool. Nothing is appended
// when the archive could not be read.
// generation is mixed into cache keys so an explicit refresh refetches.
func (p *Pipeline) Run(ctx context.Context, generation uint64) Result {
	started := p.now()
	res := Result{RunID: uuid.New().String(), StartedAt: started}
	log := p.logger.With("run_id", res.RunID)

	var (
		archived []news.Article
		readErr  error
	)
	archiveDone := make(chan struct{})
	go func() {
		defer close(archiveDone)
		archived, readErr = archiveCall(ctx, p.pool, p.archive.ReadAll)
	}()

	fetched, fetchErr := p.fetchAll(ctx, log, generation)
	<-archiveDone

	if readErr != nil {
		if !errors.Is(readErr, news.ErrArchiveRead) {
			readErr = fmt.Errorf("%w: %w", news.ErrArchiveRead, readErr)
		}
		res.ArchiveError = news.Reason(readErr)
		log.Warn("archive read degraded to empty", "reason", res.ArchiveError)
		archived = nil
	}
	if fetchErr != nil {
		res.FetchError = news.Reason(fetchErr)
	}

	merge := news.Merge(archived, fetched)
	switch {
	case len(merge.New) == 0:
	case readErr != nil:
		// Without the archive contents every fetched link looks new.
		log.Warn("archive append skipped after failed read", "new", len(merge.New))
	default:
		saved, err := archiveCall(ctx, p.pool, func(ctx context.Context) (int, error) {
			return p.archive.Append(ctx, merge.New)
		})
		if err != nil {
			if !errors.Is(err, news.ErrArchivePersist) {
				err = fmt.Errorf("%w: %w", news.ErrArchivePersist, err)
			}
			res.PersistError = news.Reason(err)
			log.Warn("archive append failed", "new", len(merge.New), "reason", res.PersistError)
			saved = 0
		}
		res.Stats.Saved = saved
	}

	relevant := make([]news.Article, 0, len(merge.Merged))
	for _, a := range merge.Merged {
		if p.classifier.IsRelevant(a) {
			relevant = append(relevant, a)
		}
	}
	for _, a := range merge.New {
		if p.classifier.IsRelevant(a) {
			res.Stats.NewRelevant++
		}
	}
	unique := p.dedup.Unique(relevant)

	annotated := make([]news.Annotated, 0, len(unique))
	for _, a := range unique {
		annotated = append(annotated, p.classifier.Annotate(a))
	}
	news.SortNewestFirst(annotated)

	res.Articles = annotated
	res.Stats.Total = len(merge.Merged)
	res.Stats.Filtered = len(merge.Merged) - len(relevant)
	res.Stats.Duplicates = len(relevant) - len(unique)
	res.Stats.Archived = len(archived)
	res.Stats.Fetched = len(fetched)
	res.Duration = p.now().Sub(started)

	log.Info("pipeline run complete",
		"articles", len(annotated),
		"archived", res.Stats.Archived,
		"fetched", res.Stats.Fetched,
		"saved", res.Stats.Saved,
		"filtered", res.Stats.Filtered,
		"duplicates", res.Stats.Duplicates,
		"duration", res.Duration)
	return res
}

// archiveCall runs one archive operation under the pool's call budget. A
// backend that ignores ctx is abandoned once CallTimeout + Grace passes.
func archiveCall[T any](ctx context.Context, pool workpool.Pool, call func(context.Context) (T, error)) (T, error) {
	r := workpool.Run(ctx, pool, []workpool.Job[T]{call})[0]
	return r.Value, r.Err
}

type fetchJob struct {
	source Source
	query  string
}

// fetchAll runs one job per (source, query) pair and merges the results by
// link in job order, so the first job to report a link wins regardless of
// completion order. The returned error joins the per-job failures.
func (p *Pipeline) fetchAll(ctx context.Context, log *slog.Logger, generation uint64) ([]news.Article, error) {
	var pairs []fetchJob
	for _, s := range p.sources {
		for _, q := range p.opts.Queries {
			pairs = append(pairs, fetchJob{source: s, query: q})
		}
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	jobs := make([]workpool.Job[[]news.Article], len(pairs))
	for i, pair := range pairs {
		jobs[i] = func(ctx context.Context) ([]news.Article, error) {
			return p.fetchOne(ctx, pair, generation)
		}
	}
	results := workpool.Run(ctx, p.pool, jobs)

	seen := make(map[string]struct{})
	var (
		out      []news.Article
		failures []string
		first    error
	)
	for _, r := range results {
		pair := pairs[r.Index]
		if r.Err != nil {
			err := r.Err
			if errors.Is(err, workpool.ErrDeadline) {
				err = fmt.Errorf("%w: %w", news.ErrFetchTimeout, err)
			}
			if first == nil {
				first = err
			}
			failures = append(failures, pair.source.Name)
			log.Warn("fetch degraded", "source", pair.source.Name, "query", pair.query, "reason", news.Reason(err))
		}
		for _, a := range r.Value {
			link := strings.TrimSpace(a.Link)
			if link == "" {
				continue
			}
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			out = append(out, a)
		}
	}
	if first != nil {
		return out, fmt.Errorf("%d of %d fetches failed: %w", len(failures), len(pairs), first)
	}
	return out, nil
}

// fetchOne serves a (source, query) pair from the cache when possible.
// Only complete, error-free results are cached.
func (p *Pipeline) fetchOne(ctx context.Context, pair fetchJob, generation uint64) ([]news.Article, error) {
	key := cache.Key("fetch", p.now(), p.opts.DataTTL, pair.source.Name, pair.query, fmt.Sprint(generation))
	if p.store != nil {
		var cached []news.Article
		if ok, err := cache.GetJSON(ctx, p.store, key, &cached); err == nil && ok {
			return cached, nil
		}
	}

	articles, err := pair.source.Searcher.Search(ctx, pair.query)
	if err != nil {
		return articles, news.ClassifyFetchError(err)
	}
	if p.store != nil {
		if err := cache.SetJSON(ctx, p.store, key, articles, p.opts.DataTTL); err != nil {
			p.logger.Debug("fetch cache write failed", "source", pair.source.Name, "error", err)
		}
	}
	return articles, nil
}
