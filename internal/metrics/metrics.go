// Package metrics exposes Prometheus collectors for the crawler service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Page outcomes recorded by ObservePage.
const (
	OutcomeStored     = "stored"
	OutcomeDropped    = "dropped"
	OutcomeNoLyrics   = "no_lyrics"
	OutcomeFetchError = "fetch_error"
	OutcomeStoreError = "store_error"
)

var (
	pagesTotal                 *prometheus.CounterVec
	fetchBytesTotal            *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	targetsDiscoveredTotal     *prometheus.CounterVec
	extractWarningsTotal       *prometheus.CounterVec
	activeWorkers              prometheus.Gauge
	rateLimitDelaySeconds      *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kalaam_pages_total",
				Help: "Detail pages processed, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kalaam_fetch_bytes_total",
				Help: "Bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kalaam_fetch_duration_seconds",
				Help:    "Detail page fetch latency, labeled by site.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"site"},
		)

		targetsDiscoveredTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kalaam_targets_discovered_total",
				Help: "Detail targets emitted by link discovery, labeled by site.",
			},
			[]string{"site"},
		)

		extractWarningsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kalaam_extract_warnings_total",
				Help: "Extraction warnings, labeled by warning.",
			},
			[]string{"warning"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kalaam_active_workers",
				Help: "Number of workers currently processing a target.",
			},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kalaam_rate_limit_delay_seconds",
				Help:    "Time detail fetches spent waiting on the per-site rate limiter.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"site"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePage counts one processed detail page.
func ObservePage(pageURL, outcome string) {
	pagesTotal.WithLabelValues(SanitizeSite(pageURL), outcome).Inc()
}

// ObserveFetch records the size and latency of a successful fetch.
func ObserveFetch(pageURL string, bytesFetched int, duration time.Duration) {
	site := SanitizeSite(pageURL)
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(site).Add(float64(bytesFetched))
	}
	fetchDurationSeconds.WithLabelValues(site).Observe(duration.Seconds())
}

// ObserveTarget counts a target emitted by discovery.
func ObserveTarget(pageURL string) {
	targetsDiscoveredTotal.WithLabelValues(SanitizeSite(pageURL)).Inc()
}

// ObserveWarning counts an extraction warning.
func ObserveWarning(warning string) {
	extractWarningsTotal.WithLabelValues(warning).Inc()
}

// ObserveRateLimitDelay records how long a fetch waited for a rate limit token.
func ObserveRateLimitDelay(site string, delay time.Duration) {
	rateLimitDelaySeconds.WithLabelValues(site).Observe(delay.Seconds())
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	activeWorkers.Dec()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
