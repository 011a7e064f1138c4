// Package api hosts the HTTP server, middleware, and REST handlers for reading
// crawled kalaam. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/kalaam/{id} for a single record.
//   - GET /v1/kalaam/search?q=&limit= for fuzzy title search over the
//     phonetic title key.
package api
