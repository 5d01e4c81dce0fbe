package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_relay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_relay_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_relay_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Pipeline metrics
var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_relay_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"status", "category"},
	)

	PipelineRunsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_relay_pipeline_runs_in_progress",
			Help: "Number of pipeline runs currently executing",
		},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_relay_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800},
		},
		[]string{"stage"},
	)

	RepublishCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_relay_republish_cache_hits_total",
			Help: "Requests answered from a prior successful run",
		},
	)

	RepublishCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_relay_republish_cache_misses_total",
			Help: "Requests that required a fresh pipeline run",
		},
	)
)

// Download metrics
var (
	DownloadAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_relay_download_attempts_total",
			Help: "Total number of download strategy attempts",
		},
		[]string{"strategy", "outcome"},
	)

	DownloadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_relay_download_bytes_total",
			Help: "Total bytes of source media downloaded",
		},
	)
)

// Transcode metrics
var (
	TranscodeJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_relay_transcode_jobs_total",
			Help: "Total number of transcode jobs by outcome",
		},
		[]string{"status"},
	)

	TranscodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_relay_transcode_duration_seconds",
			Help:    "Transcode job duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800},
		},
	)

	TranscodeJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_relay_transcode_jobs_in_progress",
			Help: "Number of encoder subprocesses currently running",
		},
	)

	TranscodeGateWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_relay_transcode_gate_wait_seconds",
			Help:    "Time spent waiting for an encoder slot",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	TranscodeOutputBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_relay_transcode_output_bytes",
			Help:    "Size of transcoded output files in bytes",
			Buckets: []float64{1e6, 5e6, 1e7, 2.5e7, 5e7, 1e8, 2.5e8, 5e8},
		},
	)
)

// Publish metrics
var (
	PublishAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_relay_publish_attempts_total",
			Help: "Total number of storage uploads by outcome",
		},
		[]string{"status"},
	)

	PublishDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_relay_publish_duration_seconds",
			Help:    "Storage upload duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	PublishedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_relay_published_bytes_total",
			Help: "Total bytes uploaded to storage",
		},
	)

	PublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_relay_publish_retries_total",
			Help: "Upload attempts beyond the first, across all runs",
		},
	)
)

// History store metrics
var (
	StoreQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_relay_store_queries_total",
			Help: "Total number of history store queries",
		},
		[]string{"operation", "status"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_relay_store_query_duration_seconds",
			Help:    "History store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	StoreSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_relay_store_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)

	HistoryRuns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_relay_history_runs",
			Help: "Recorded pipeline runs by final status",
		},
		[]string{"status"},
	)

	HistoryPublishedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_relay_history_published_bytes",
			Help: "Total bytes published across all recorded runs",
		},
	)
)

// Workspace metrics
var (
	WorkspaceBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_relay_workspace_bytes",
			Help: "Bytes currently held under the scratch root",
		},
	)

	WorkspaceDirs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_relay_workspace_dirs",
			Help: "Active request workspaces under the scratch root",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_relay_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
