package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"video-relay/internal/classify"
	"video-relay/internal/logging"
)

// Recovery returns a middleware that converts handler panics into JSON
// 500 responses instead of dropped connections. http.ErrAbortHandler is
// re-raised so the server's own abort path still works.
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logging.Error("Panic handling %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				//nolint:errcheck // nothing left to do if the connection is gone
				json.NewEncoder(w).Encode(map[string]string{
					"status":         "failure",
					"error":          "internal server error",
					"error_category": string(classify.Unknown),
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
