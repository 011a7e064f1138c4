// Package discovery walks the category index and listing pages and emits one
// target per detail page.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
	"github.com/JakeFAU/kalaam-crawler/internal/metrics"
)

const (
	ctxKind     = "kind"
	ctxCategory = "category"

	kindIndex   = "index"
	kindListing = "listing"
)

// Config controls discovery.
type Config struct {
	StartURL       string
	AllowedDomains []string
	UserAgent      string
	Parallelism    int
	Delay          time.Duration
	Timeout        time.Duration
	// MaxTargets bounds how many targets a run emits; 0 means unlimited.
	MaxTargets int

	CategorySelector string
	RowSelector      string
	DetailSelector   string
	ReciterSelector  string
	NextSelector     string
}

// DefaultConfig matches the nohayonline.com site layout.
func DefaultConfig() Config {
	return Config{
		StartURL:         "https://nohayonline.com/details_masaib.php",
		AllowedDomains:   []string{"nohayonline.com"},
		Parallelism:      2,
		Timeout:          15 * time.Second,
		CategorySelector: `a[href*="details_mb.php?text="]`,
		RowSelector:      "table tr",
		DetailSelector:   `a[href*="details_content.php?id="]`,
		ReciterSelector:  "td:nth-child(2)",
		NextSelector:     `a[href*="page="]`,
	}
}

// Sink receives discovered targets.
type Sink interface {
	Submit(ctx context.Context, target crawler.Target) error
}

// Result summarizes a discovery run.
type Result struct {
	Categories int `json:"categories"`
	Listings   int `json:"listings"`
	Targets    int `json:"targets"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// Discoverer runs link discovery with colly.
type Discoverer struct {
	cfg    Config
	sink   Sink
	logger *zap.Logger

	mu     sync.Mutex
	seen   map[string]struct{}
	result Result
	full   bool
}

// New validates cfg and builds a Discoverer. Unset selectors take their
// defaults.
func New(cfg Config, sink Sink, logger *zap.Logger) (*Discoverer, error) {
	if strings.TrimSpace(cfg.StartURL) == "" {
		return nil, fmt.Errorf("discovery start url is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("discovery sink is required")
	}
	if cfg.MaxTargets < 0 {
		return nil, fmt.Errorf("max targets must be >= 0")
	}
	def := DefaultConfig()
	cfg.CategorySelector = orDefault(cfg.CategorySelector, def.CategorySelector)
	cfg.RowSelector = orDefault(cfg.RowSelector, def.RowSelector)
	cfg.DetailSelector = orDefault(cfg.DetailSelector, def.DetailSelector)
	cfg.ReciterSelector = orDefault(cfg.ReciterSelector, def.ReciterSelector)
	cfg.NextSelector = orDefault(cfg.NextSelector, def.NextSelector)
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = def.Parallelism
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Discoverer{
		cfg:    cfg,
		sink:   sink,
		logger: logger.Named("discovery"),
		seen:   make(map[string]struct{}),
	}, nil
}

// Run walks the site from the start URL and blocks until every reachable
// listing has been visited, MaxTargets is reached or ctx ends.
func (d *Discoverer) Run(ctx context.Context) (Result, error) {
	collector, err := d.newCollector(ctx)
	if err != nil {
		return Result{}, err
	}

	start := colly.NewContext()
	start.Put(ctxKind, kindIndex)
	if err := collector.Request("GET", d.cfg.StartURL, nil, start, nil); err != nil {
		return Result{}, fmt.Errorf("visit start url: %w", err)
	}
	collector.Wait()

	d.mu.Lock()
	result := d.result
	d.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("discovery canceled: %w", err)
	}
	return result, nil
}

func (d *Discoverer) newCollector(ctx context.Context) (*colly.Collector, error) {
	opts := []colly.CollectorOption{colly.Async(true)}
	if len(d.cfg.AllowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(d.cfg.AllowedDomains...))
	}
	if d.cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(d.cfg.UserAgent))
	}
	collector := colly.NewCollector(opts...)
	collector.SetRequestTimeout(d.cfg.Timeout)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: d.cfg.Parallelism,
		Delay:       d.cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("set collector limits: %w", err)
	}

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil || d.isFull() {
			r.Abort()
		}
	})
	collector.OnHTML("html", func(e *colly.HTMLElement) {
		switch e.Request.Ctx.Get(ctxKind) {
		case kindIndex:
			d.handleIndex(collector, e)
		case kindListing:
			d.handleListing(ctx, e)
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		d.mu.Lock()
		d.result.Errors++
		d.mu.Unlock()
		d.logger.Warn("discovery request failed",
			zap.String("url", r.Request.URL.String()),
			zap.Int("status_code", r.StatusCode),
			zap.Error(err),
		)
	})
	return collector, nil
}

func (d *Discoverer) handleIndex(collector *colly.Collector, e *colly.HTMLElement) {
	e.DOM.Find(d.cfg.CategorySelector).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		category := strings.TrimSpace(a.Text())
		listing := colly.NewContext()
		listing.Put(ctxKind, kindListing)
		listing.Put(ctxCategory, category)
		if err := collector.Request("GET", e.Request.AbsoluteURL(href), nil, listing, nil); err != nil {
			d.logger.Debug("skip category", zap.String("href", href), zap.Error(err))
			return
		}
		d.mu.Lock()
		d.result.Categories++
		d.mu.Unlock()
	})
}

func (d *Discoverer) handleListing(ctx context.Context, e *colly.HTMLElement) {
	d.mu.Lock()
	d.result.Listings++
	d.mu.Unlock()

	category := e.Request.Ctx.Get(ctxCategory)
	rows := e.DOM.Find(d.cfg.RowSelector)
	if rows.Length() > 1 {
		// the first row is the table header
		rows.Slice(1, goquery.ToEnd).EachWithBreak(func(_ int, tr *goquery.Selection) bool {
			return d.handleRow(ctx, e, category, tr)
		})
	}

	if d.isFull() || ctx.Err() != nil {
		return
	}
	if next, ok := e.DOM.Find(d.cfg.NextSelector).First().Attr("href"); ok && strings.TrimSpace(next) != "" {
		if err := e.Request.Visit(next); err != nil {
			d.logger.Debug("skip pagination", zap.String("href", next), zap.Error(err))
		}
	}
}

func (d *Discoverer) handleRow(ctx context.Context, e *colly.HTMLElement, category string, tr *goquery.Selection) bool {
	a := tr.Find(d.cfg.DetailSelector).First()
	href, ok := a.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return true
	}
	target := crawler.Target{
		URL:         e.Request.AbsoluteURL(href),
		Category:    category,
		ReciterHint: strings.TrimSpace(tr.Find(d.cfg.ReciterSelector).First().Text()),
		TitleHint:   strings.TrimSpace(a.Text()),
	}
	if id, found, err := crawler.ParseDetailID(target.URL); found && err == nil {
		target.IDCandidate = id
	}
	return d.emit(ctx, target)
}

// emit submits target once per normalized URL. It reports whether discovery
// should continue.
func (d *Discoverer) emit(ctx context.Context, target crawler.Target) bool {
	key, err := crawler.NormalizeURL(target.URL)
	if err != nil {
		d.logger.Debug("skip unparseable detail url", zap.String("url", target.URL), zap.Error(err))
		return true
	}

	d.mu.Lock()
	if d.full {
		d.mu.Unlock()
		return false
	}
	if _, dup := d.seen[key]; dup {
		d.result.Duplicates++
		d.mu.Unlock()
		return true
	}
	d.seen[key] = struct{}{}
	d.result.Targets++
	if d.cfg.MaxTargets > 0 && d.result.Targets >= d.cfg.MaxTargets {
		d.full = true
	}
	d.mu.Unlock()

	if err := d.sink.Submit(ctx, target); err != nil {
		d.mu.Lock()
		d.result.Targets--
		d.mu.Unlock()
		d.logger.Warn("submit target failed", zap.String("url", target.URL), zap.Error(err))
		return ctx.Err() == nil && !errors.Is(err, crawler.ErrQueueClosed)
	}
	metrics.ObserveTarget(target.URL)
	return !d.isFull()
}

func (d *Discoverer) isFull() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.full
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
