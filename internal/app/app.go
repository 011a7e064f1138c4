// Package app initializes and holds long-lived application services, acting as
// a dependency injection container for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/kalaam-crawler/internal/api"
	"github.com/JakeFAU/kalaam-crawler/internal/archive"
	"github.com/JakeFAU/kalaam-crawler/internal/clock"
	"github.com/JakeFAU/kalaam-crawler/internal/config"
	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
	"github.com/JakeFAU/kalaam-crawler/internal/discovery"
	"github.com/JakeFAU/kalaam-crawler/internal/dispatcher"
	"github.com/JakeFAU/kalaam-crawler/internal/extract"
	collyfetcher "github.com/JakeFAU/kalaam-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/kalaam-crawler/internal/phonetic"
	"github.com/JakeFAU/kalaam-crawler/internal/policy/ratelimit"
	queueMemory "github.com/JakeFAU/kalaam-crawler/internal/queue/memory"
	"github.com/JakeFAU/kalaam-crawler/internal/storage/local"
	"github.com/JakeFAU/kalaam-crawler/internal/storage/memory"
	"github.com/JakeFAU/kalaam-crawler/internal/storage/postgres"
	"github.com/JakeFAU/kalaam-crawler/internal/worker"
)

// App holds the shared, long-lived services for one CLI invocation.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	store      crawler.RecordStore
	closeStore func()
	clock      crawler.Clock
	fetcher    crawler.Fetcher
}

// Summary reports what a crawl did.
type Summary struct {
	Discovery discovery.Result `json:"discovery"`
	Pages     worker.Snapshot  `json:"pages"`
	Elapsed   time.Duration    `json:"elapsed"`
}

// New creates an App from cfg. A non-empty db.dsn selects Postgres, otherwise
// records live in memory for the lifetime of the process.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DB.DSN == "" {
		logger.Info("using in-memory record store; records are discarded on exit")
		return NewWithStore(cfg, logger, memory.NewRecordStore()), nil
	}

	store, err := postgres.NewRecordStore(ctx, postgres.Config{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.Table,
		MaxConns: cfg.DB.MaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("init record store: %w", err)
	}
	if cfg.DB.Migrate {
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	logger.Info("connected to postgres", zap.String("table", cfg.DB.Table))
	a := NewWithStore(cfg, logger, store)
	a.closeStore = store.Close
	return a, nil
}

// NewWithStore creates an App around an existing record store.
func NewWithStore(cfg config.Config, logger *zap.Logger, store crawler.RecordStore) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		clock:   clock.System{},
		fetcher: newFetcher(cfg, logger),
	}
}

func newFetcher(cfg config.Config, logger *zap.Logger) crawler.Fetcher {
	base := collyfetcher.New(collyfetcher.Config{
		UserAgent:      cfg.Crawler.UserAgent,
		Timeout:        cfg.FetchTimeout(),
		MaxRetries:     cfg.HTTP.MaxRetries,
		BackoffInitial: time.Duration(cfg.HTTP.BackoffInitialMs) * time.Millisecond,
		BackoffMax:     time.Duration(cfg.HTTP.BackoffMaxMs) * time.Millisecond,
	}, logger.Named("fetcher"))
	limiter := ratelimit.New(ratelimit.Config{
		RPS:   cfg.Crawler.FetchRPS,
		Burst: cfg.Crawler.FetchBurst,
	})
	return ratelimit.NewFetcher(base, limiter)
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store returns the record store.
func (a *App) Store() crawler.RecordStore {
	return a.store
}

// Server builds the HTTP API over the record store.
func (a *App) Server() *api.Server {
	return api.NewServer(a.store, a.cfg, a.logger)
}

// Crawl discovers detail pages from the configured start URL and runs them
// through the worker pool until discovery finishes and the queue drains.
func (a *App) Crawl(ctx context.Context) (Summary, error) {
	start := a.clock.Now()
	extractor, err := extract.New(a.cfg.Extract)
	if err != nil {
		return Summary{}, fmt.Errorf("init extractor: %w", err)
	}
	archiver, err := a.archiver()
	if err != nil {
		return Summary{}, err
	}

	queue := queueMemory.NewQueue(a.cfg.Crawler.QueueDepth)
	stats := &worker.Stats{}
	workers := make([]*worker.Worker, 0, a.cfg.Crawler.Concurrency)
	for i := 0; i < a.cfg.Crawler.Concurrency; i++ {
		workers = append(workers, worker.New(worker.Deps{
			Queue:     queue,
			Fetcher:   a.fetcher,
			Extractor: extractor,
			Store:     a.store,
			Archiver:  archiver,
			Clock:     a.clock,
			Stats:     stats,
		}, a.logger.Named("worker").With(zap.Int("index", i))))
	}
	dispatch := dispatcher.New(queue, a.clock, workers)

	done := make(chan struct{})
	go func() {
		defer close(done)
		dispatch.Run(ctx)
	}()

	var result discovery.Result
	disc, err := discovery.New(a.discoveryConfig(), dispatch, a.logger.Named("discovery"))
	if err == nil {
		result, err = disc.Run(ctx)
	}
	queue.Close()
	<-done

	summary := Summary{
		Discovery: result,
		Pages:     stats.Snapshot(),
		Elapsed:   a.clock.Now().Sub(start),
	}
	if err != nil {
		return summary, fmt.Errorf("discovery: %w", err)
	}
	return summary, nil
}

// Extract fetches one detail page and runs it through the extractor without
// storing it. category stands in for the listing the page would have been
// discovered on.
func (a *App) Extract(ctx context.Context, rawURL, category string) (extract.Assembly, error) {
	normalized, err := crawler.NormalizeURL(rawURL)
	if err != nil {
		return extract.Assembly{}, err
	}
	target := crawler.Target{URL: normalized, Category: category}
	extractor, err := extract.New(a.cfg.Extract)
	if err != nil {
		return extract.Assembly{}, fmt.Errorf("init extractor: %w", err)
	}
	resp, err := a.fetcher.Fetch(ctx, crawler.FetchRequest{URL: target.URL})
	if err != nil {
		return extract.Assembly{}, fmt.Errorf("fetch %s: %w", target.URL, err)
	}
	return extractor.Extract(crawler.PageFromTarget(target, resp))
}

// Search looks up records whose title sounds like text.
func (a *App) Search(ctx context.Context, text string, limit int) ([]crawler.Record, error) {
	key := phonetic.Key(text)
	if key == "" {
		return nil, errors.New("search text has no searchable characters")
	}
	if limit <= 0 {
		limit = a.cfg.Search.DefaultLimit
	}
	if maxLimit := a.cfg.Search.MaxLimit; maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	records, err := a.store.Search(ctx, key, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", key, err)
	}
	return records, nil
}

// Close releases the record store and flushes the logger.
func (a *App) Close() {
	if a.closeStore != nil {
		a.closeStore()
	}
	// Sync fails on stderr/stdout for most terminals; nothing useful to do.
	_ = a.logger.Sync()
}

func (a *App) archiver() (worker.Archiver, error) {
	if !a.cfg.Archive.Enabled {
		return nil, nil
	}
	blobs, err := local.New(local.Config{BaseDir: a.cfg.Archive.Dir})
	if err != nil {
		return nil, fmt.Errorf("init archive: %w", err)
	}
	a.logger.Info("archiving raw pages", zap.String("dir", a.cfg.Archive.Dir))
	return archive.New(blobs, a.cfg.Archive.ContentType), nil
}

func (a *App) discoveryConfig() discovery.Config {
	cfg := discovery.DefaultConfig()
	cfg.StartURL = a.cfg.Crawler.StartURL
	cfg.AllowedDomains = a.cfg.Crawler.AllowedDomains
	cfg.UserAgent = a.cfg.Crawler.UserAgent
	cfg.Parallelism = a.cfg.Crawler.Parallelism
	cfg.Delay = a.cfg.Delay()
	cfg.Timeout = a.cfg.FetchTimeout()
	cfg.MaxTargets = a.cfg.Crawler.MaxTargets
	return cfg
}
