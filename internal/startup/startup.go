package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"video-relay/internal/logging"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// ToolCheck records the availability of one external binary.
type ToolCheck struct {
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	OK      bool   `json:"ok"`
	Detail  string `json:"detail,omitempty"`
}

// ToolsReport holds the startup availability checks for every external
// tool the pipeline shells out to.
type ToolsReport struct {
	Downloader ToolCheck `json:"downloader"`
	Encoder    ToolCheck `json:"encoder"`
	Prober     ToolCheck `json:"prober"`
	HEVC       ToolCheck `json:"hevc"`
}

// Ready reports whether the pipeline can run at all: it needs the
// downloader and an encoder with HEVC support.
func (r ToolsReport) Ready() bool {
	return r.Downloader.OK && r.Encoder.OK && r.HEVC.OK
}

// Config holds all application configuration
type Config struct {
	Port        string
	WorkDir     string
	DataDir     string
	CookiesFile string

	YtdlpPath   string
	FFmpegPath  string
	FFprobePath string

	DownloadTimeout  time.Duration
	TranscodeTimeout time.Duration
	StrategyDelay    time.Duration
	MaxVideoSizeMB   int

	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageFolder    string
	StorageUseSSL    bool
	PublicBaseURL    string

	RepublishCache   bool
	HistoryLimit     int
	TranscodeWorkers int
	LogHealthChecks  bool
	MetricsEnabled   bool

	// Derived paths
	DatabasePath string

	// Tool availability, resolved once at startup
	Tools ToolsReport
}

// MaxVideoSizeBytes converts the configured size cap to bytes.
func (c *Config) MaxVideoSizeBytes() int64 {
	return int64(c.MaxVideoSizeMB) * 1024 * 1024
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	port := getEnv("PORT", "8080")
	workDir := getEnv("WORK_DIR", filepath.Join(os.TempDir(), "video-relay"))
	dataDir := getEnv("DATA_DIR", "./data")
	cookiesFile := getEnv("COOKIES_FILE", "./cookies.txt")

	ytdlpPath := getEnv("YTDLP_PATH", "yt-dlp")
	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")
	ffprobePath := getEnv("FFPROBE_PATH", "ffprobe")

	downloadTimeout := getEnvDuration("DOWNLOAD_TIMEOUT", 10*time.Minute)
	transcodeTimeout := getEnvDuration("TRANSCODE_TIMEOUT", 30*time.Minute)
	strategyDelay := getEnvDuration("STRATEGY_DELAY", 3*time.Second)
	maxVideoSizeMB := getEnvInt("MAX_VIDEO_SIZE_MB", 500)

	storageEndpoint := getEnv("STORAGE_ENDPOINT", "")
	storageAccessKey := getEnv("STORAGE_ACCESS_KEY", "")
	storageSecretKey := getEnv("STORAGE_SECRET_KEY", "")
	storageBucket := getEnv("STORAGE_BUCKET", "video-relay")
	storageFolder := getEnv("STORAGE_FOLDER", "youtube_hevc_720p")
	storageUseSSL := getEnvBool("STORAGE_USE_SSL", true)
	publicBaseURL := getEnv("PUBLIC_BASE_URL", "")

	republishCache := getEnvBool("REPUBLISH_CACHE", true)
	historyLimit := getEnvInt("HISTORY_LIMIT", 50)
	transcodeWorkers := getEnvInt("TRANSCODE_WORKERS", 0)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", false)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	logging.Info("  PORT:                %s", port)
	logging.Info("  WORK_DIR:            %s", workDir)
	logging.Info("  DATA_DIR:            %s", dataDir)
	logging.Info("  COOKIES_FILE:        %s", cookiesFile)
	logging.Info("  YTDLP_PATH:          %s", ytdlpPath)
	logging.Info("  FFMPEG_PATH:         %s", ffmpegPath)
	logging.Info("  FFPROBE_PATH:        %s", ffprobePath)
	logging.Info("  DOWNLOAD_TIMEOUT:    %v", downloadTimeout)
	logging.Info("  TRANSCODE_TIMEOUT:   %v", transcodeTimeout)
	logging.Info("  STRATEGY_DELAY:      %v", strategyDelay)
	logging.Info("  MAX_VIDEO_SIZE_MB:   %d", maxVideoSizeMB)
	logging.Info("  STORAGE_ENDPOINT:    %s", valueOrUnset(storageEndpoint))
	logging.Info("  STORAGE_BUCKET:      %s", storageBucket)
	logging.Info("  STORAGE_FOLDER:      %s", storageFolder)
	logging.Info("  STORAGE_USE_SSL:     %v", storageUseSSL)
	logging.Info("  PUBLIC_BASE_URL:     %s", valueOrUnset(publicBaseURL))
	logging.Info("  REPUBLISH_CACHE:     %v", republishCache)
	logging.Info("  HISTORY_LIMIT:       %d", historyLimit)
	logging.Info("  TRANSCODE_WORKERS:   %s", autoOrValue(transcodeWorkers))
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	var missing []string
	if storageEndpoint == "" {
		missing = append(missing, "STORAGE_ENDPOINT")
	}
	if storageAccessKey == "" {
		missing = append(missing, "STORAGE_ACCESS_KEY")
	}
	if storageSecretKey == "" {
		missing = append(missing, "STORAGE_SECRET_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if maxVideoSizeMB <= 0 {
		return nil, fmt.Errorf("MAX_VIDEO_SIZE_MB must be positive, got %d", maxVideoSizeMB)
	}

	// Resolve paths
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve work directory path: %w", err)
	}
	logging.Info("  Work directory (absolute): %s", workDir)

	dataDir, err = filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	logging.Info("  Data directory (absolute): %s", dataDir)

	if err := ensureDirectory(dataDir, "data"); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}

	logging.Debug("  Testing data directory write access...")
	if err := testWriteAccess(dataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable (required for run history): %w", err)
	}
	logging.Info("  [OK] Data directory is writable")

	logCookieState(cookiesFile)

	config := &Config{
		Port:             port,
		WorkDir:          workDir,
		DataDir:          dataDir,
		CookiesFile:      cookiesFile,
		YtdlpPath:        ytdlpPath,
		FFmpegPath:       ffmpegPath,
		FFprobePath:      ffprobePath,
		DownloadTimeout:  downloadTimeout,
		TranscodeTimeout: transcodeTimeout,
		StrategyDelay:    strategyDelay,
		MaxVideoSizeMB:   maxVideoSizeMB,
		StorageEndpoint:  storageEndpoint,
		StorageAccessKey: storageAccessKey,
		StorageSecretKey: storageSecretKey,
		StorageBucket:    storageBucket,
		StorageFolder:    storageFolder,
		StorageUseSSL:    storageUseSSL,
		PublicBaseURL:    publicBaseURL,
		RepublishCache:   republishCache,
		HistoryLimit:     historyLimit,
		TranscodeWorkers: transcodeWorkers,
		LogHealthChecks:  logHealthChecks,
		MetricsEnabled:   metricsEnabled,
		DatabasePath:     filepath.Join(dataDir, "relay.db"),
	}

	config.Tools = checkTools(config)

	return config, nil
}

// ProbeTools resolves and version-probes every external binary the
// pipeline shells out to.
func ProbeTools(ytdlpPath, ffmpegPath, ffprobePath string) ToolsReport {
	report := ToolsReport{
		Downloader: checkTool("yt-dlp", ytdlpPath, "--version"),
		Encoder:    checkTool("ffmpeg", ffmpegPath, "-version"),
		Prober:     checkTool("ffprobe", ffprobePath, "-version"),
	}

	if report.Encoder.OK {
		report.HEVC = checkHEVCSupport(ffmpegPath)
	} else {
		report.HEVC = ToolCheck{Name: "libx265", Detail: "encoder unavailable"}
	}

	return report
}

// checkTools probes the configured binaries and logs the outcome.
func checkTools(config *Config) ToolsReport {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("EXTERNAL TOOLS")
	logging.Info("------------------------------------------------------------")

	report := ProbeTools(config.YtdlpPath, config.FFmpegPath, config.FFprobePath)

	logToolCheck(report.Downloader)
	logToolCheck(report.Encoder)
	logToolCheck(report.Prober)
	logToolCheck(report.HEVC)

	if !report.Ready() {
		logging.Warn("  Pipeline tools incomplete; /readyz will report not ready")
	}

	return report
}

// checkTool verifies a binary is on PATH and answers a version query.
func checkTool(name, path, versionFlag string) ToolCheck {
	check := ToolCheck{Name: name}

	resolved, err := exec.LookPath(path)
	if err != nil {
		check.Detail = fmt.Sprintf("%s not found in PATH", path)
		return check
	}
	check.Path = resolved

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, resolved, versionFlag).Output()
	if err != nil {
		check.Detail = fmt.Sprintf("version query failed: %v", err)
		return check
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		check.Version = strings.TrimSpace(lines[0])
	}
	check.OK = true
	return check
}

// checkHEVCSupport scans the encoder list for libx265.
func checkHEVCSupport(ffmpegPath string) ToolCheck {
	check := ToolCheck{Name: "libx265"}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").Output()
	if err != nil {
		check.Detail = fmt.Sprintf("encoder list query failed: %v", err)
		return check
	}

	if !strings.Contains(string(output), "libx265") {
		check.Detail = "ffmpeg built without libx265"
		return check
	}

	check.OK = true
	check.Detail = "HEVC encoding available"
	return check
}

func logToolCheck(check ToolCheck) {
	if check.OK {
		if check.Version != "" {
			logging.Info("  [OK] %s (%s)", check.Name, check.Version)
		} else {
			logging.Info("  [OK] %s: %s", check.Name, check.Detail)
		}
		logging.Debug("       path: %s", check.Path)
	} else {
		logging.Warn("  [MISSING] %s: %s", check.Name, check.Detail)
	}
}

// logCookieState reports whether downloader cookie auth is usable.
func logCookieState(path string) {
	info, err := os.Stat(path)
	switch {
	case err != nil:
		logging.Info("  Cookie file: absent (cookie strategies degrade to no-auth)")
	case info.Size() <= 100:
		logging.Info("  Cookie file: present but trivially small (%s), treated as absent",
			humanize.Bytes(uint64(info.Size())))
	default:
		logging.Info("  Cookie file: present (%s)", humanize.Bytes(uint64(info.Size())))
	}
}

// LogHistoryInit logs run-history store initialization
func LogHistoryInit(duration time.Duration, path string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("RUN HISTORY STORE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Store initialized in %v (%s)", duration, path)
}

// LogWorkspaceInit logs scratch-root preparation
func LogWorkspaceInit(root string, swept int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("WORKSPACE MANAGER")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Scratch root: %s", root)
	if swept > 0 {
		logging.Info("  [OK] Swept %d stale workspace(s)", swept)
	} else {
		logging.Info("  [OK] No stale workspaces found")
	}
}

// LogPublisherInit logs storage client construction
func LogPublisherInit(endpoint, bucket string, reachable bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("PUBLISH CLIENT")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Endpoint: %s", endpoint)
	logging.Info("  Bucket:   %s", bucket)
	if reachable {
		logging.Info("  [OK] Storage reachable")
	} else {
		logging.Warn("  Storage unreachable at startup; uploads will be retried per request")
	}
}

// LogPipelineInit logs pipeline controller construction
func LogPipelineInit(strategies, transcodeSlots int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("PIPELINE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Download strategies:   %d", strategies)
	logging.Info("  Transcode slots:       %d", transcodeSlots)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		// Group routes by prefix for cleaner output
		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			groupRoutes := groups[group]
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groupRoutes {
				methodPadded := fmt.Sprintf("%-6s", route.Method)
				logging.Debug("    %s %s", methodPadded, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	logging.Info("    Process API:   http://0.0.0.0:%s/api/process", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.Port)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
   _    ___     __           ____       __
  | |  / (_)___/ /__  ____  / __ \___  / /___ ___  __
  | | / / / __  / _ \/ __ \/ /_/ / _ \/ / __ '/ / / /
  | |/ / / /_/ /  __/ /_/ / _, _/  __/ / /_/ / /_/ /
  |___/_/\__,_/\___/\____/_/ |_|\___/_/\__,_/\__, /
                                            /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Write access was confirmed, leftover probe file is harmless
	}
	return nil
}

func valueOrUnset(value string) string {
	if value == "" {
		return "(unset)"
	}
	return value
}

func autoOrValue(value int) string {
	if value <= 0 {
		return "auto"
	}
	return strconv.Itoa(value)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
