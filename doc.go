// Package main provides the entry point for the video relay service.
//
// Video relay is a self-hosted HTTP service that accepts a video page
// URL, acquires the source media through an ordered set of download
// strategies, transcodes it to a size-bounded HEVC MP4, publishes the
// result to S3-compatible object storage, and answers with a stable
// public URL.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Memory Configuration: Sets GOMEMLIMIT from environment or container limits
//  2. Configuration Loading: Reads environment variables and validates directories
//  3. History Store Initialization: Opens the SQLite run-history database
//  4. Component Initialization:
//     - Workspace Manager: Prepares the scratch root and sweeps leftovers
//     - Download Orchestrator: Builds the ordered strategy set
//     - Transcode Runner: Sets up FFmpeg-based HEVC transcoding
//     - Publish Client: Connects to S3-compatible object storage
//     - Pipeline Controller: Chains the stages behind a transcode gate
//     - Metrics Collector: Gathers Prometheus metrics
//  5. HTTP Server Setup: Configures routes, middleware, and starts server
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # HTTP Surface
//
// A single server (default port 8080) carries the whole surface:
//
//   - POST /api/process: synchronous download, transcode, publish
//   - GET /api/history: recent run records
//   - GET /api/history/{video_id}: latest run for one video
//   - GET /health, /healthz: dependency health report
//   - GET|HEAD /livez, GET /readyz: orchestrator probes
//   - GET /version: build information
//   - GET /metrics: Prometheus metrics (when enabled)
//   - GET /: service description
//
// Processing is deliberately synchronous. The caller holds the
// connection while the pipeline runs, so the server's write timeout is
// disabled and shutdown drains in-flight requests before anything else
// stops.
//
// # Environment Variables
//
// Configuration is primarily through environment variables:
//
//   - PORT: HTTP server port (default: 8080)
//   - WORK_DIR: Scratch directory for per-request workspaces
//   - DATA_DIR: Directory for the SQLite run-history database
//   - COOKIES_FILE: Netscape cookie export for authenticated downloads
//   - YTDLP_PATH, FFMPEG_PATH, FFPROBE_PATH: tool overrides
//   - DOWNLOAD_TIMEOUT: Per-strategy download budget (default: 10m)
//   - TRANSCODE_TIMEOUT: Transcode budget (default: 30m)
//   - STRATEGY_DELAY: Pause between download strategies (default: 3s)
//   - MAX_VIDEO_SIZE_MB: Output size cap (default: 500)
//   - STORAGE_ENDPOINT, STORAGE_ACCESS_KEY, STORAGE_SECRET_KEY: required
//   - STORAGE_BUCKET, STORAGE_FOLDER, STORAGE_USE_SSL, PUBLIC_BASE_URL
//   - REPUBLISH_CACHE: Serve already-published videos without rework
//   - HISTORY_LIMIT: Default history page size (default: 50)
//   - TRANSCODE_WORKERS: Concurrent transcode slots (default: CPU count)
//   - METRICS_ENABLED: Expose /metrics (default: true)
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//   - GOMEMLIMIT, MEMORY_LIMIT, MEMORY_RATIO: heap sizing, see internal/memory
//
// # Graceful Shutdown
//
// The application handles SIGINT and SIGTERM signals gracefully:
//
//  1. Shutdown HTTP server (30s timeout, drains in-flight pipelines)
//  2. Kill any encoder processes that outlived their requests
//  3. Stop metrics collector
//  4. Close the history database
//
// # Build Requirements
//
// The application requires CGO for SQLite. yt-dlp, ffmpeg (built with
// libx265), and ffprobe must be present on PATH at runtime; the
// cmd/preflight binary verifies a host before deployment.
//
// # Related Packages
//
//   - [video-relay/internal/pipeline]: stage orchestration and transcode gate
//   - [video-relay/internal/downloader]: yt-dlp strategy ladder
//   - [video-relay/internal/transcoder]: FFmpeg HEVC transcoding
//   - [video-relay/internal/publisher]: object storage uploads
//   - [video-relay/internal/classify]: failure taxonomy
//   - [video-relay/internal/store]: SQLite run history
//   - [video-relay/internal/handlers]: HTTP request handlers
//   - [video-relay/internal/middleware]: HTTP middleware (logging, metrics, recovery, gzip)
//   - [video-relay/internal/startup]: configuration and initialization
package main
