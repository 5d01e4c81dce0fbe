package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- Download attempts (per strategy × outcome) ---
	strategies := []string{
		"best_quality", "cookie_auth", "mobile_client", "geo_bypass",
		"worst_quality", "legacy_formats", "audio_only",
	}
	for _, s := range strategies {
		DownloadAttemptsTotal.WithLabelValues(s, "success")
		DownloadAttemptsTotal.WithLabelValues(s, "failure")
	}

	// --- Pipeline outcomes ---
	categories := []string{
		"invalid_url", "bot_detection", "geo_restricted", "age_restricted",
		"format_unavailable", "network_timeout", "rate_limited",
		"processing_timeout", "processing_failed", "publish_failed", "unknown",
	}
	PipelineRunsTotal.WithLabelValues("success", "none")
	for _, c := range categories {
		PipelineRunsTotal.WithLabelValues("failure", c)
	}

	// --- Stage durations ---
	for _, stage := range []string{"download", "transcode", "publish"} {
		PipelineStageDuration.WithLabelValues(stage)
	}

	// --- Transcode outcomes ---
	for _, status := range []string{"success", "failure", "timeout"} {
		TranscodeJobsTotal.WithLabelValues(status)
	}

	// --- Publish outcomes ---
	for _, status := range []string{"success", "error"} {
		PublishAttemptsTotal.WithLabelValues(status)
	}

	// --- History store operations ---
	storeOps := []string{
		"init_schema", "record_run", "recent", "latest_by_video",
		"find_published", "stats", "ping", "prune_runs",
	}
	for _, op := range storeOps {
		StoreQueriesTotal.WithLabelValues(op, "success")
		StoreQueriesTotal.WithLabelValues(op, "error")
		StoreQueryDuration.WithLabelValues(op)
	}

	// --- SQLite storage files ---
	for _, file := range []string{"main", "wal", "shm"} {
		StoreSizeBytes.WithLabelValues(file)
	}

	// --- Run history gauges ---
	for _, status := range []string{"success", "failure"} {
		HistoryRuns.WithLabelValues(status)
	}
}
