// Package metrics provides Prometheus instrumentation for the video-relay service.
//
// This package defines and exposes various metrics that can be scraped by Prometheus
// to monitor the health, performance, and behavior of the service. All metrics
// are prefixed with "video_relay_" to avoid naming collisions with other applications.
//
// # Metric Categories
//
// The metrics are organized into the following categories:
//
// ## HTTP Metrics
//
// Track HTTP request performance and error rates:
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Pipeline Metrics
//
// Track end-to-end processing runs:
//   - PipelineRunsTotal: Counter of runs by status and failure category
//   - PipelineRunsInProgress: Gauge of runs currently executing
//   - PipelineStageDuration: Histogram of per-stage duration (download/transcode/publish)
//   - RepublishCacheHits / RepublishCacheMisses: Counters for the prior-run shortcut
//
// ## Download Metrics
//
// Monitor the strategy fallback chain:
//   - DownloadAttemptsTotal: Counter of attempts by strategy and outcome
//   - DownloadBytesTotal: Counter of source bytes fetched
//
// ## Transcode Metrics
//
// Monitor encoder subprocesses:
//   - TranscodeJobsTotal: Counter by outcome (success/failure/timeout)
//   - TranscodeDuration: Histogram of job duration
//   - TranscodeJobsInProgress: Gauge of running encoders
//   - TranscodeGateWait: Histogram of time spent queued for an encoder slot
//   - TranscodeOutputBytes: Histogram of output file sizes
//
// ## Publish Metrics
//
// Monitor storage uploads:
//   - PublishAttemptsTotal: Counter of uploads by outcome
//   - PublishDuration: Histogram of upload duration
//   - PublishedBytesTotal: Counter of bytes uploaded
//   - PublishRetries: Counter of retried uploads
//
// ## History Store Metrics
//
// Monitor run-history persistence:
//   - StoreQueriesTotal: Counter of queries by operation and status
//   - StoreQueryDuration: Histogram of query duration by operation
//   - StoreSizeBytes: Gauge of SQLite file sizes (main, WAL, SHM)
//   - HistoryRuns: Gauge of recorded runs by status
//   - HistoryPublishedBytes: Gauge of total published bytes on record
//
// ## Workspace Metrics
//
// Watch scratch-space behavior:
//   - WorkspaceBytes: Gauge of bytes held under the scratch root
//   - WorkspaceDirs: Gauge of live request workspaces
//
// ## Application Info
//
// Expose build information:
//   - AppInfo: Gauge with version, commit, and Go version labels
//
// # Usage
//
// Metrics are automatically registered with the default Prometheus registry
// using promauto. To expose them, mount the promhttp.Handler() on your
// metrics endpoint:
//
//	import "github.com/prometheus/client_golang/prometheus/promhttp"
//
//	mux.Handle("/metrics", promhttp.Handler())
//
// # Recording Metrics
//
// To record metrics from other packages, import this package and use the
// exported metric variables:
//
//	import "video-relay/internal/metrics"
//
//	// Increment a counter
//	metrics.DownloadAttemptsTotal.WithLabelValues("best_quality", "success").Inc()
//
//	// Observe a histogram value
//	metrics.PipelineStageDuration.WithLabelValues("transcode").Observe(42.5)
//
// # Collector
//
// The package provides a [Collector] type that periodically gathers
// statistics from a [StatsProvider] and updates the corresponding gauges,
// along with SQLite file sizes and scratch-space usage:
//
//	collector := metrics.NewCollector(store, dbPath, workRoot, 1*time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Example PromQL queries for common use cases:
//
// Success rate of pipeline runs:
//
//	sum(rate(video_relay_pipeline_runs_total{status="success"}[1h])) /
//	sum(rate(video_relay_pipeline_runs_total[1h]))
//
// Failure breakdown by category:
//
//	sum(rate(video_relay_pipeline_runs_total{status="failure"}[1h])) by (category)
//
// Which strategies actually rescue downloads:
//
//	sum(rate(video_relay_download_attempts_total{outcome="success"}[6h])) by (strategy)
//
// P95 transcode time:
//
//	histogram_quantile(0.95, sum(rate(video_relay_transcode_duration_seconds_bucket[1h])) by (le))
//
// Scratch-space leak watch (should return to zero between requests):
//
//	max_over_time(video_relay_workspace_bytes[10m])
package metrics
