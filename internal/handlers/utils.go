package handlers

import (
	"encoding/json"
	"net/http"

	"video-relay/internal/logging"
)

// writeJSON encodes v onto an already-prepared response. Encode and
// write errors are logged; the status line is gone by the time they
// surface, so nothing can be resent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONWith sets the content type, writes the status line and
// encodes v as the body.
func writeJSONWith(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONWith(w, statusCode, map[string]string{"error": message})
}

// writeJSONStatus writes a bare status body, used by the probe endpoints.
func writeJSONStatus(w http.ResponseWriter, status int, state string) {
	writeJSONWith(w, status, map[string]string{"status": state})
}
