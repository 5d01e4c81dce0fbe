package handlers

import (
	"net/http"
	"strconv"

	"video-relay/internal/logging"

	"github.com/gorilla/mux"
)

// HistoryResponse wraps the run listing returned by GET /api/history.
type HistoryResponse struct {
	Count int         `json:"count"`
	Runs  interface{} `json:"runs"`
}

// GetHistory returns the most recent pipeline runs, newest first.
// An optional limit query parameter overrides the configured default.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := h.cfg.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		logging.Error("History listing failed: %v", err)
		writeJSONError(w, "failed to read run history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, HistoryResponse{Count: len(runs), Runs: runs})
}

// GetHistoryEntry returns the latest run for a single video id.
func (h *Handlers) GetHistoryEntry(w http.ResponseWriter, r *http.Request) {
	videoID := mux.Vars(r)["video_id"]
	if videoID == "" {
		writeJSONError(w, "video id is required", http.StatusBadRequest)
		return
	}

	run, err := h.history.LatestByVideoID(r.Context(), videoID)
	if err != nil {
		logging.Error("History lookup for %s failed: %v", videoID, err)
		writeJSONError(w, "failed to read run history", http.StatusInternalServerError)
		return
	}
	if run == nil {
		writeJSONError(w, "no runs recorded for this video id", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, run)
}
