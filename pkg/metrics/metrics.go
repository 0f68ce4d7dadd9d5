// Package metrics exposes the Prometheus registry shared by the report,
// listings and cache packages. Metrics are defined next to the code that
// records them; this package serves them and documents what exists.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by all packages.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects the metrics served by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Report Metrics (pkg/report):
//   - agency_report_runs_total{outcome} (Counter): Report runs by outcome (success, failed)
//   - agency_report_run_duration_seconds (Histogram): Report run duration
//   - agency_report_pages_total{status} (Counter): Pages by status (ok, failed, skipped)
//   - agency_report_records_total (Counter): Agency records classified by successful runs
//
// Request Metrics (pkg/listings):
//   - listings_requests_total{status} (Counter): Requests by HTTP status or network_error
//   - listings_request_duration_seconds (Histogram): Page fetch duration including retries
//   - listings_errors_total{class} (Counter): Failed page fetches by class (client, server, network, decode)
//
// Retry Metrics (pkg/listings):
//   - listings_retries_total{class} (Counter): Retry attempts by error class
//   - listings_retry_backoff_seconds{class} (Histogram): Backoff duration by error class
//   - listings_retry_exhausted_total{class} (Counter): Fetches that exhausted max attempts
//
// Cache Metrics (pkg/cache):
//   - listings_cache_hits_total{freshness} (Counter): Cache hits (fresh, stale)
//   - listings_cache_misses_total (Counter): Cache misses
//   - listings_cache_errors_total{operation} (Counter): Cache operation errors
//   - listings_conditional_requests_total (Counter): Revalidation requests sent
//   - listings_304_responses_total (Counter): 304 Not Modified responses
//
// HTTP Metrics (internal/api):
//   - agency_report_http_requests_total{route, status} (Counter): Served API requests
//
// Example Prometheus Queries:
//
//   # Run failure rate
//   rate(agency_report_runs_total{outcome="failed"}[1h]) / rate(agency_report_runs_total[1h])
//
//   # Cache Hit Rate
//   sum(rate(listings_cache_hits_total[5m])) /
//   (sum(rate(listings_cache_hits_total[5m])) + sum(rate(listings_cache_misses_total[5m])))
//
//   # Skipped pages
//   increase(agency_report_pages_total{status="skipped"}[1d])
//
//   # P95 Page Fetch Latency
//   histogram_quantile(0.95, rate(listings_request_duration_seconds_bucket[5m]))
