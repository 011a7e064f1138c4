// Package worker implements the detail page pipeline execution loop.
package worker

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
	"github.com/JakeFAU/kalaam-crawler/internal/extract"
	"github.com/JakeFAU/kalaam-crawler/internal/metrics"
)

// Extractor turns a fetched page into a record.
type Extractor interface {
	Extract(page crawler.RawPage) (extract.Assembly, error)
}

// Archiver retains raw pages.
type Archiver interface {
	Archive(ctx context.Context, page crawler.RawPage) (string, error)
}

// Stats counts page outcomes across every worker sharing it.
type Stats struct {
	stored      atomic.Int64
	dropped     atomic.Int64
	noLyrics    atomic.Int64
	fetchFailed atomic.Int64
	storeFailed atomic.Int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Stored      int64 `json:"stored"`
	Dropped     int64 `json:"dropped"`
	NoLyrics    int64 `json:"no_lyrics"`
	FetchFailed int64 `json:"fetch_failed"`
	StoreFailed int64 `json:"store_failed"`
}

// Snapshot returns the current counts.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Stored:      s.stored.Load(),
		Dropped:     s.dropped.Load(),
		NoLyrics:    s.noLyrics.Load(),
		FetchFailed: s.fetchFailed.Load(),
		StoreFailed: s.storeFailed.Load(),
	}
}

// Total is the number of pages that reached an outcome.
func (s Snapshot) Total() int64 {
	return s.Stored + s.Dropped + s.NoLyrics + s.FetchFailed + s.StoreFailed
}

// Worker consumes targets and runs fetch, archive, extract and upsert.
type Worker struct {
	queue     crawler.Queue
	fetcher   crawler.Fetcher
	extractor Extractor
	store     crawler.RecordStore
	archiver  Archiver
	clock     crawler.Clock
	stats     *Stats
	logger    *zap.Logger
}

// Deps bundles a Worker's collaborators. Archiver may be nil.
type Deps struct {
	Queue     crawler.Queue
	Fetcher   crawler.Fetcher
	Extractor Extractor
	Store     crawler.RecordStore
	Archiver  Archiver
	Clock     crawler.Clock
	Stats     *Stats
}

// New constructs a Worker.
func New(deps Deps, logger *zap.Logger) *Worker {
	metrics.Init()
	if logger == nil {
		logger = zap.NewNop()
	}
	stats := deps.Stats
	if stats == nil {
		stats = &Stats{}
	}
	return &Worker{
		queue:     deps.Queue,
		fetcher:   deps.Fetcher,
		extractor: deps.Extractor,
		store:     deps.Store,
		archiver:  deps.Archiver,
		clock:     deps.Clock,
		stats:     stats,
		logger:    logger,
	}
}

// Run blocks, consuming targets until the queue is closed and drained or the
// context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, crawler.ErrQueueClosed) {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.logger.Debug("dequeued target", zap.String("url", item.Target.URL))
		w.process(ctx, item.Target)
	}
}

func (w *Worker) process(ctx context.Context, target crawler.Target) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	outcome := w.handle(ctx, target)
	metrics.ObservePage(target.URL, outcome)
	switch outcome {
	case metrics.OutcomeStored:
		w.stats.stored.Add(1)
	case metrics.OutcomeDropped:
		w.stats.dropped.Add(1)
	case metrics.OutcomeNoLyrics:
		w.stats.noLyrics.Add(1)
	case metrics.OutcomeFetchError:
		w.stats.fetchFailed.Add(1)
	case metrics.OutcomeStoreError:
		w.stats.storeFailed.Add(1)
	}
}

func (w *Worker) handle(ctx context.Context, target crawler.Target) string {
	log := w.logger.With(zap.String("url", target.URL))

	resp, err := w.fetcher.Fetch(ctx, crawler.FetchRequest{URL: target.URL})
	if err != nil {
		log.Warn("fetch failed", zap.Error(err))
		return metrics.OutcomeFetchError
	}
	metrics.ObserveFetch(target.URL, len(resp.Body), resp.Duration)

	page := crawler.PageFromTarget(target, resp)
	if w.archiver != nil {
		if uri, err := w.archiver.Archive(ctx, page); err != nil {
			log.Warn("archive page failed", zap.Error(err))
		} else {
			log.Debug("page archived", zap.String("uri", uri))
		}
	}

	assembly, err := w.extractor.Extract(page)
	if err != nil {
		if extract.IsDrop(err) {
			log.Warn("page dropped", zap.Error(err))
		} else {
			log.Error("extract failed", zap.Error(err))
		}
		return metrics.OutcomeDropped
	}
	for _, warning := range assembly.Warnings {
		metrics.ObserveWarning(string(warning))
	}

	record := assembly.Record
	if err := w.store.Upsert(ctx, record, w.clock.Now()); err != nil {
		if errors.Is(err, crawler.ErrNoLyrics) {
			log.Warn("record has no lyrics", zap.Int64("id", record.ID))
			return metrics.OutcomeNoLyrics
		}
		log.Error("upsert failed", zap.Int64("id", record.ID), zap.Error(err))
		return metrics.OutcomeStoreError
	}
	log.Info("record stored", zap.Int64("id", record.ID), zap.String("title", record.Title))
	return metrics.OutcomeStored
}
