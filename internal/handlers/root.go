package handlers

import (
	"net/http"

	"video-relay/internal/startup"
)

// ServiceInfoResponse describes the service for GET /.
type ServiceInfoResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Features  []string          `json:"features"`
	Endpoints map[string]string `json:"endpoints"`
}

// ServiceInfo returns the service name, version and a feature summary.
func (h *Handlers) ServiceInfo(w http.ResponseWriter, _ *http.Request) {
	status := "ready"
	if !h.cfg.Tools.Ready() {
		status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ServiceInfoResponse{
		Service: "video-relay",
		Version: startup.Version,
		Status:  status,
		Features: []string{
			"Seven-stage download strategy ladder with cookie and geo fallbacks",
			"HEVC/libx265 encoding capped at 720p",
			"S3-compatible publishing with stable public URLs",
			"Run history with republish cache",
		},
		Endpoints: map[string]string{
			"POST /api/process":           "Process a video URL",
			"GET /api/history":            "Recent pipeline runs",
			"GET /api/history/{video_id}": "Latest run for one video",
			"GET /health":                 "Dependency health report",
			"GET /version":                "Build information",
			"GET /metrics":                "Prometheus metrics",
		},
	})
}
