// Package cmd defines the CLI commands for the kalaam-crawler executable.
//
// Architecture overview:
//   - Discovery: internal/discovery walks the category index and every
//     paginated listing with Colly, turning each listing row into a
//     crawler.Target (URL, category, reciter hint, id candidate).
//   - Dispatcher & queue: targets flow through a bounded in-memory queue sized
//     by crawler.queue_depth and are fanned out to a fixed worker pool sized by
//     crawler.concurrency.
//   - Worker pipeline: fetch the detail page (Colly fetcher with retry and
//     backoff), optionally archive the raw HTML on local disk, extract the
//     record, and upsert it into the record store.
//   - Persistence: Postgres via pgx when db.dsn is set, with pg_trgm indexes
//     backing fuzzy title search; otherwise an in-memory store.
//   - Configuration & plumbing: Viper populates config from a file and
//     KALAAM_* env vars; zap provides structured logging; Prometheus metrics
//     are exported from /metrics by the serve command.
//
// Commands:
//   - crawl: run discovery and the worker pool to completion.
//   - serve: expose records over HTTP until SIGINT/SIGTERM.
//   - extract <url>: fetch and extract one detail page, printing JSON.
//   - normalize <text>: print the phonetic title key.
//   - search <text>: look up stored records by phonetic title key.
package cmd
