package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"video-relay/internal/classify"
	"video-relay/internal/downloader"
	"video-relay/internal/logging"
	"video-relay/internal/pipeline"
)

// ProcessRequest is the body of POST /api/process.
type ProcessRequest struct {
	URL string `json:"url"`
}

// ProcessingInfo carries stage metadata in both success and failure
// payloads.
type ProcessingInfo struct {
	Message             string `json:"message,omitempty"`
	Resolution          string `json:"resolution,omitempty"`
	Codec               string `json:"codec,omitempty"`
	AttemptedStrategies string `json:"attempted_strategies,omitempty"`
	CommonIssues        string `json:"common_issues,omitempty"`
}

// ProcessResponse is the outcome payload for POST /api/process.
// Exactly one of the success fields (public_url et al.) or the failure
// fields (error, error_category) is populated.
type ProcessResponse struct {
	Status         string          `json:"status"`
	PublicURL      string          `json:"public_url,omitempty"`
	Duration       float64         `json:"duration,omitempty"`
	Filesize       int64           `json:"filesize,omitempty"`
	VideoID        string          `json:"video_id,omitempty"`
	Title          string          `json:"title,omitempty"`
	Error          string          `json:"error,omitempty"`
	ErrorCategory  string          `json:"error_category,omitempty"`
	ProcessingInfo *ProcessingInfo `json:"processing_info,omitempty"`
}

// ProcessVideo accepts a source URL and runs it through the full
// download, transcode and publish pipeline. The call is synchronous;
// the response carries either the public URL or a classified failure.
// Only malformed requests and invalid URLs get a non-200 status.
func (h *Handlers) ProcessVideo(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.Debug("Rejecting unparseable process request: %v", err)
		writeProcessFailure(w, http.StatusBadRequest, classify.InvalidURL,
			"request body must be JSON with a url field", nil)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeProcessFailure(w, http.StatusBadRequest, classify.InvalidURL,
			"url field is required", nil)
		return
	}

	result := h.processor.Process(r.Context(), req.URL)

	if result.Succeeded() {
		writeJSONWith(w, http.StatusOK, ProcessResponse{
			Status:    "success",
			PublicURL: result.PublicURL,
			Duration:  result.Duration,
			Filesize:  result.SizeBytes,
			VideoID:   result.VideoID,
			Title:     result.Title,
			ProcessingInfo: &ProcessingInfo{
				Message:    result.Message,
				Resolution: pipeline.ResolutionLabel,
				Codec:      pipeline.CodecLabel,
			},
		})
		return
	}

	status := http.StatusOK
	if result.Category == classify.InvalidURL {
		status = http.StatusBadRequest
	}
	writeProcessFailure(w, status, result.Category, result.Error, result.Attempts)
}

func writeProcessFailure(w http.ResponseWriter, status int, category classify.Category, message string, attempts []downloader.Attempt) {
	writeJSONWith(w, status, ProcessResponse{
		Status:        "failure",
		Error:         message,
		ErrorCategory: string(category),
		ProcessingInfo: &ProcessingInfo{
			AttemptedStrategies: summarizeAttempts(attempts),
			CommonIssues:        classify.Suggestion(category),
		},
	})
}

// summarizeAttempts renders the strategy ladder outcome as one line for
// the failure payload.
func summarizeAttempts(attempts []downloader.Attempt) string {
	if len(attempts) == 0 {
		return "no download strategies were attempted"
	}

	names := make([]string, len(attempts))
	for i, a := range attempts {
		names[i] = a.Strategy
	}
	if len(names) == 1 {
		return "1 strategy attempted: " + names[0]
	}
	return fmt.Sprintf("%d strategies attempted: %s", len(names), strings.Join(names, ", "))
}
