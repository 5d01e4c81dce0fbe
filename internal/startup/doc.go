// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides consistent
// logging throughout the application lifecycle.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - PORT: HTTP server port (default: 8080)
//   - WORK_DIR: Scratch root for per-request workspaces (default: <os temp>/video-relay)
//   - DATA_DIR: Directory for the run-history database (default: ./data)
//   - COOKIES_FILE: Optional downloader cookie file (default: ./cookies.txt)
//   - YTDLP_PATH, FFMPEG_PATH, FFPROBE_PATH: External tool binaries (default: PATH lookup)
//   - DOWNLOAD_TIMEOUT: Per-strategy download budget (default: 10m)
//   - TRANSCODE_TIMEOUT: Encoder wall-clock budget (default: 30m)
//   - STRATEGY_DELAY: Fixed pause between download strategies (default: 3s)
//   - MAX_VIDEO_SIZE_MB: Largest artifact accepted for transcode/publish (default: 500)
//   - STORAGE_ENDPOINT, STORAGE_ACCESS_KEY, STORAGE_SECRET_KEY: Object storage (required)
//   - STORAGE_BUCKET: Destination bucket (default: video-relay)
//   - STORAGE_FOLDER: Object key prefix (default: youtube_hevc_720p)
//   - STORAGE_USE_SSL: TLS to the storage endpoint (default: true)
//   - PUBLIC_BASE_URL: Override for returned URLs, e.g. a CDN hostname (default: endpoint-derived)
//   - REPUBLISH_CACHE: Return stored URLs for already-published videos (default: true)
//   - HISTORY_LIMIT: Default page size for the history API (default: 50)
//   - TRANSCODE_WORKERS: Concurrent encoder cap, 0 = one per CPU (default: 0)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: false)
//   - METRICS_ENABLED: Expose Prometheus metrics (default: true)
//
// # External Tools
//
// LoadConfig resolves and version-probes yt-dlp, ffmpeg, and ffprobe once,
// including a libx265 capability scan of the encoder. The resulting
// [ToolsReport] rides on the Config; the health handlers and the preflight
// binary reuse it instead of re-spawning version checks per request.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogHistoryInit]: Run-history store initialization timing
//   - [LogWorkspaceInit]: Scratch root preparation and stale sweep results
//   - [LogPublisherInit]: Storage client construction and reachability
//   - [LogPipelineInit]: Strategy count and transcode slots
//   - [LogHTTPRoutes]: Registered HTTP routes (debug level)
//   - [LogServerStarted]: Server endpoints and startup duration
//   - [LogShutdownInitiated]: Graceful shutdown start
//   - [LogShutdownComplete]: Shutdown completion
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//
//	// Initialize components...
//	startup.LogHistoryInit(time.Since(storeStart), config.DatabasePath)
//
//	// Start server...
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
//
//	// On shutdown...
//	startup.LogShutdownInitiated("SIGTERM")
//	// ... cleanup ...
//	startup.LogShutdownComplete()
package startup
