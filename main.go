package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"video-relay/internal/downloader"
	"video-relay/internal/handlers"
	"video-relay/internal/logging"
	"video-relay/internal/memory"
	"video-relay/internal/metrics"
	"video-relay/internal/middleware"
	"video-relay/internal/pipeline"
	"video-relay/internal/publisher"
	"video-relay/internal/startup"
	"video-relay/internal/store"
	"video-relay/internal/transcoder"
	"video-relay/internal/workers"
	"video-relay/internal/workspace"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Cap the Go heap below the container limit so the downloader and
	// encoder children keep their headroom
	memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize history store
	storeStart := time.Now()
	history, err := store.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize history store: %v", err)
	}
	defer history.Close()
	startup.LogHistoryInit(time.Since(storeStart), config.DatabasePath)

	// Initialize the scratch workspace, clearing leftovers from any
	// previous process that died mid-run
	workspaces, err := workspace.NewManager(config.WorkDir)
	if err != nil {
		startup.LogFatal("Failed to initialize workspace root: %v", err)
	}
	swept := workspaces.Sweep()
	startup.LogWorkspaceInit(workspaces.Root(), swept)

	// Pipeline stages
	dl := downloader.New(downloader.Config{
		BinPath:        config.YtdlpPath,
		CookiesFile:    config.CookiesFile,
		AttemptTimeout: config.DownloadTimeout,
		StrategyDelay:  config.StrategyDelay,
	})

	tc := transcoder.New(transcoder.Config{
		FFmpegPath:     config.FFmpegPath,
		FFprobePath:    config.FFprobePath,
		Timeout:        config.TranscodeTimeout,
		MaxOutputBytes: config.MaxVideoSizeBytes(),
	})

	pub, err := publisher.New(publisher.Config{
		Endpoint:      config.StorageEndpoint,
		AccessKey:     config.StorageAccessKey,
		SecretKey:     config.StorageSecretKey,
		Bucket:        config.StorageBucket,
		Folder:        config.StorageFolder,
		UseSSL:        config.StorageUseSSL,
		PublicBaseURL: config.PublicBaseURL,
	}, metrics.NewPublishObserver())
	if err != nil {
		startup.LogFatal("Failed to initialize storage client: %v", err)
	}

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	reachable := pub.Ping(pingCtx) == nil
	cancelPing()
	startup.LogPublisherInit(config.StorageEndpoint, config.StorageBucket, reachable)

	transcodeSlots := config.TranscodeWorkers
	if transcodeSlots < 1 {
		transcodeSlots = workers.ForCPU(0)
	}

	controller := pipeline.New(pipeline.Config{
		RepublishCache:   config.RepublishCache,
		TranscodeWorkers: transcodeSlots,
	}, workspaces, dl, tc, pub, history)
	startup.LogPipelineInit(len(downloader.DefaultStrategies()), transcodeSlots)

	// Metrics
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	collector := metrics.NewCollector(history, config.DatabasePath, workspaces.Root(), 30*time.Second)
	collector.Start()

	// Initialize handlers
	h := handlers.New(config, controller, history, pub, workspaces)

	// Setup router
	router := setupRouter(h, config.MetricsEnabled)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Recovery sits innermost so panic responses still pass through
	// the metrics, logging and compression wrappers.
	recovered := middleware.Recovery()(router)

	metered := middleware.Metrics(middleware.DefaultMetricsConfig())(recovered)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	logged := middleware.Logger(loggingConfig)(metered)

	handler := middleware.Compression(middleware.DefaultCompressionConfig())(logged)

	// Create server. WriteTimeout stays 0: a synchronous process call
	// can legitimately hold the connection for the full transcode.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, tc, collector)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Processing and history API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/process", h.ProcessVideo).Methods("POST")
	api.HandleFunc("/history", h.GetHistory).Methods("GET")
	api.HandleFunc("/history/{video_id}", h.GetHistoryEntry).Methods("GET")

	if metricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	}

	// Service info
	r.HandleFunc("/", h.ServiceInfo).Methods("GET")

	return r
}

func handleShutdown(srv *http.Server, tc *transcoder.Transcoder, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Drain in-flight requests first; encoder processes belonging to
	// them get to finish inside the drain window.
	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Cleaning up encoder processes")
	tc.Cleanup()
	startup.LogShutdownStepComplete("Encoder cleanup complete")

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownComplete()
}
