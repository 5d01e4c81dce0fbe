package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"video-relay/internal/downloader"
	"video-relay/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"

	dependencyCheckTimeout = 5 * time.Second
)

// CheckResult reports the state of one dependency.
type CheckResult struct {
	OK     bool   `json:"ok"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse contains the health check response
type HealthResponse struct {
	Status   string                 `json:"status"`
	Service  string                 `json:"service"`
	Version  string                 `json:"version"`
	Uptime   string                 `json:"uptime"`
	Ready    bool                   `json:"ready"`
	Checks   map[string]CheckResult `json:"checks"`
	Warnings []string               `json:"warnings,omitempty"`

	// System info
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
}

// HealthCheck reports the state of every dependency the pipeline needs:
// the external binaries, the scratch directory, the cookie store, the
// object store and the history database. A missing cookie file is a
// warning, not a failure; everything else degrades the service.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dependencyCheckTimeout)
	defer cancel()

	checks := map[string]CheckResult{
		"downloader": toolCheckResult(h.cfg.Tools.Downloader),
		"encoder":    toolCheckResult(h.cfg.Tools.Encoder),
		"prober":     toolCheckResult(h.cfg.Tools.Prober),
		"hevc":       toolCheckResult(h.cfg.Tools.HEVC),
		"workspace":  h.checkWorkspace(),
		"storage":    h.checkStorage(ctx),
		"history":    h.checkHistory(ctx),
		"cookies":    h.checkCookies(),
	}

	var warnings []string
	if !checks["cookies"].OK {
		warnings = append(warnings, "Configure the cookie file for age-restricted and bot-heavy content")
	}
	if !checks["prober"].OK {
		warnings = append(warnings, "Probe binary missing; duration metadata will be absent from results")
	}

	// Cookies and the prober are advisory. Everything else is load-bearing.
	healthy := true
	for name, check := range checks {
		if name == "cookies" || name == "prober" {
			continue
		}
		if !check.OK {
			healthy = false
		}
	}

	response := HealthResponse{
		Service:      "video-relay",
		Version:      startup.Version,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Ready:        h.cfg.Tools.Ready(),
		Checks:       checks,
		Warnings:     warnings,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if healthy {
		response.Status = statusHealthy
		writeJSONWith(w, http.StatusOK, response)
	} else {
		response.Status = statusDegraded
		writeJSONWith(w, http.StatusServiceUnavailable, response)
	}
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	// For HEAD requests, only send headers (no body)
	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSONStatus(w, http.StatusOK, "alive")
}

// ReadinessCheck returns 200 only when the startup tool checks passed
// and the pipeline can accept work.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.cfg.Tools.Ready() {
		writeJSONStatus(w, http.StatusOK, "ready")
	} else {
		writeJSONStatus(w, http.StatusServiceUnavailable, "not_ready")
	}
}

func toolCheckResult(check startup.ToolCheck) CheckResult {
	if check.OK {
		detail := check.Version
		if detail == "" {
			detail = check.Detail
		}
		return CheckResult{OK: true, Status: "available", Detail: detail}
	}
	return CheckResult{Status: "missing", Detail: check.Detail}
}

func (h *Handlers) checkWorkspace() CheckResult {
	if h.workspaces == nil {
		return CheckResult{Status: "not_configured"}
	}

	probe := filepath.Join(h.workspaces.Root(), ".healthprobe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return CheckResult{Status: "not_writable", Detail: err.Error()}
	}
	os.Remove(probe)
	return CheckResult{OK: true, Status: "writable", Detail: h.workspaces.Root()}
}

func (h *Handlers) checkStorage(ctx context.Context) CheckResult {
	if h.storage == nil {
		return CheckResult{Status: "not_configured"}
	}

	if err := h.storage.Ping(ctx); err != nil {
		return CheckResult{Status: "unreachable", Detail: err.Error()}
	}
	return CheckResult{OK: true, Status: "reachable", Detail: fmt.Sprintf("bucket %s", h.storage.Bucket())}
}

func (h *Handlers) checkHistory(ctx context.Context) CheckResult {
	if h.history == nil {
		return CheckResult{Status: "not_configured"}
	}

	if err := h.history.Ping(ctx); err != nil {
		return CheckResult{Status: "unreachable", Detail: err.Error()}
	}
	return CheckResult{OK: true, Status: "ok"}
}

func (h *Handlers) checkCookies() CheckResult {
	if downloader.CookieUsable(h.cfg.CookiesFile) {
		return CheckResult{OK: true, Status: "configured", Detail: h.cfg.CookiesFile}
	}
	return CheckResult{Status: "not_configured", Detail: "cookie strategies fall back to anonymous access"}
}
