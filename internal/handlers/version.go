package handlers

import (
	"net/http"

	"video-relay/internal/startup"
)

// VersionResponse couples the service build info with the resolved
// versions of the external binaries the pipeline shells out to.
type VersionResponse struct {
	Service    string            `json:"service"`
	Build      startup.BuildInfo `json:"build"`
	Downloader string            `json:"downloader_version,omitempty"`
	Encoder    string            `json:"encoder_version,omitempty"`
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONWith(w, http.StatusOK, VersionResponse{
		Service:    "video-relay",
		Build:      startup.GetBuildInfo(),
		Downloader: h.cfg.Tools.Downloader.Version,
		Encoder:    h.cfg.Tools.Encoder.Version,
	})
}
