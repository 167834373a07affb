package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deusflow/dealwatch/internal/cache"
	"github.com/deusflow/dealwatch/internal/config"
	"github.com/deusflow/dealwatch/internal/gemini"
	"github.com/deusflow/dealwatch/internal/metrics"
	"github.com/deusflow/dealwatch/internal/news"
	"github.com/deusflow/dealwatch/internal/newsdata"
	"github.com/deusflow/dealwatch/internal/openai"
	"github.com/deusflow/dealwatch/internal/pipeline"
	"github.com/deusflow/dealwatch/internal/ratelimit"
	"github.com/deusflow/dealwatch/internal/retry"
	"github.com/deusflow/dealwatch/internal/rss"
	"github.com/deusflow/dealwatch/internal/sec"
	"github.com/deusflow/dealwatch/internal/storage"
	"github.com/deusflow/dealwatch/internal/summary"
	"github.com/deusflow/dealwatch/internal/workpool"
)

const feedUserAgent = "dealwatch/1.0 (+https://github.com/deusflow/dealwatch)"

// Build constructs a Service from configuration. Only configuration errors
// and unreachable backends are fatal; missing API keys disable the
// corresponding provider.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	classifier, err := newClassifier(cfg)
	if err != nil {
		return nil, err
	}

	var closers []func() error
	fail := func(err error) (*Service, error) {
		for _, c := range closers {
			_ = c()
		}
		return nil, err
	}

	archive, err := OpenArchive(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, archive.Close)

	store, err := OpenCache(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, store.Close)

	sources, err := newSources(cfg, logger)
	if err != nil {
		return fail(err)
	}

	pool := workpool.New(cfg.FetchWorkers, cfg.RequestTimeout, cfg.OverallGrace)
	pipe := pipeline.New(sources, archive, classifier, pool, store,
		pipeline.Options{Queries: cfg.Queries, DataTTL: cfg.DataTTL},
		logger.With("component", "pipeline"))

	secClient := sec.New(cfg.SECBaseURL, cfg.SECUserAgent, cfg.SECWindowDays, cfg.SECRatePerSecond, cfg.SECTimeout)
	secPool := workpool.New(cfg.FetchWorkers, cfg.SECTimeout, cfg.OverallGrace)
	filings := pipeline.NewFilings(secClient, sec.DefaultEntities, secPool, store, cfg.SECTTL,
		logger.With("component", "sec"))

	provider, closeProvider, err := NewProvider(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	if closeProvider != nil {
		closers = append(closers, closeProvider)
	}
	var budget summary.Budget
	if provider != nil {
		budget = ratelimit.NewAIBudget(map[string]int{provider.Name(): cfg.MaxAIRequests}, cfg.MaxAIRequests,
			logger.With("component", "ai_budget"))
	}
	summarizer := summary.NewService(provider, budget, store, summary.Options{
		MaxArticles:    cfg.SummaryMaxArticles,
		DescriptionMax: cfg.DescriptionMaxChars,
		TTL:            cfg.SummaryTTL,
	}, logger.With("component", "summary"))

	return NewService(Deps{
		Pipeline:   pipe,
		Filings:    filings,
		Summarizer: summarizer,
		Store:      store,
		Metrics:    metrics.Global,
		Location:   cfg.Location(),
		DataTTL:    cfg.DataTTL,
		Logger:     logger,
		Closers:    closers,
	}), nil
}

func newClassifier(cfg *config.Config) (*news.Classifier, error) {
	rules := news.DefaultRules()
	if cfg.RulesPath != "" {
		loaded, err := news.LoadRules(cfg.RulesPath)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	return news.NewClassifier(rules)
}

func newSources(cfg *config.Config, logger *slog.Logger) ([]pipeline.Source, error) {
	var sources []pipeline.Source
	if cfg.NewsDataAPIKey != "" {
		sources = append(sources, pipeline.Source{
			Name:     "newsdata",
			Searcher: newsdata.New(cfg.NewsDataURL, cfg.NewsDataAPIKey, cfg.Language, cfg.PageSize, cfg.RequestTimeout),
		})
	} else {
		logger.Warn("NEWSDATA_API_KEY not set, live search disabled")
	}
	if cfg.FeedsConfigPath != "" {
		feeds, err := rss.LoadFeeds(cfg.FeedsConfigPath)
		if err != nil {
			return nil, err
		}
		sources = append(sources, pipeline.Source{
			Name:     "rss",
			Searcher: rss.New(feeds, feedUserAgent, cfg.RequestTimeout),
		})
	}
	return sources, nil
}

func retryConfig(cfg *config.Config, name string) retry.RetryConfig {
	return retry.RetryConfig{
		MaxAttempts: cfg.RetryAttempts,
		Delay:       cfg.RetryDelay,
		Backoff:     true,
		Name:        name,
	}
}

// OpenArchive connects the configured archive backend, retrying the initial
// connection.
func OpenArchive(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Archive, error) {
	switch cfg.ArchiveDriver {
	case "file":
		logger.Info("using file archive", "path", cfg.ArchiveFilePath)
		return storage.NewFileArchive(cfg.ArchiveFilePath), nil
	case "postgres":
		a, err := retry.Do(ctx, retryConfig(cfg, "postgres"), func(ctx context.Context) (*storage.PostgresArchive, error) {
			return storage.NewPostgresArchive(ctx, cfg.DatabaseURL)
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres archive: %w", err)
		}
		logger.Info("using postgres archive")
		return a, nil
	case "mongo":
		a, err := retry.Do(ctx, retryConfig(cfg, "mongo"), func(ctx context.Context) (*storage.MongoArchive, error) {
			return storage.NewMongoArchive(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		})
		if err != nil {
			return nil, fmt.Errorf("connect mongo archive: %w", err)
		}
		logger.Info("using mongo archive", "database", cfg.MongoDatabase, "collection", cfg.MongoCollection)
		return a, nil
	case "none":
		logger.Warn("archive disabled, nothing will be persisted")
		return storage.Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.ArchiveDriver)
	}
}

// OpenCache connects the configured cache store.
func OpenCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Store, error) {
	switch cfg.CacheDriver {
	case "memory":
		return cache.NewMemory(5 * time.Minute), nil
	case "redis":
		r, err := retry.Do(ctx, retryConfig(cfg, "redis"), func(ctx context.Context) (*cache.Redis, error) {
			return cache.NewRedis(ctx, cfg.RedisURL, "dealwatch:")
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		logger.Info("using redis cache")
		return r, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.CacheDriver)
	}
}

// NewProvider returns the configured summary provider, or nil when the
// provider is disabled or has no API key.
func NewProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (summary.Provider, func() error, error) {
	switch cfg.SummaryProvider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			logger.Warn("GEMINI_API_KEY not set, summaries use the fallback")
			return nil, nil, nil
		}
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return c, func() error { c.Close(); return nil }, nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			logger.Warn("OPENAI_API_KEY not set, summaries use the fallback")
			return nil, nil, nil
		}
		c, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, "")
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	default:
		return nil, nil, nil
	}
}
