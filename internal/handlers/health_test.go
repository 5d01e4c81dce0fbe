package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"video-relay/internal/startup"
)

func getHealth(t *testing.T, h *Handlers) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	req := httptest.NewRequest("GET", "/health", http.NoBody)
	w := httptest.NewRecorder()
	h.HealthCheck(w, req)

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	return w, resp
}

func TestHealthCheckHealthy(t *testing.T) {
	h := newTestHandlers(t, &fakeProcessor{}, &fakeHistory{}, &fakeStorage{bucket: "video-relay"})

	w, resp := getHealth(t, h)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if resp.Status != statusHealthy {
		t.Errorf("Expected status healthy, got %s", resp.Status)
	}
	if !resp.Ready {
		t.Error("Expected ready true")
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", resp.Warnings)
	}

	for _, name := range []string{"downloader", "encoder", "prober", "hevc", "workspace", "storage", "history", "cookies"} {
		check, ok := resp.Checks[name]
		if !ok {
			t.Errorf("Expected a %s check", name)
			continue
		}
		if !check.OK {
			t.Errorf("Expected %s check to pass, got %s: %s", name, check.Status, check.Detail)
		}
	}

	if resp.Checks["storage"].Detail != "bucket video-relay" {
		t.Errorf("Expected bucket detail, got %s", resp.Checks["storage"].Detail)
	}
	if resp.Uptime == "" {
		t.Error("Expected uptime to be set")
	}
	if resp.GoVersion == "" {
		t.Error("Expected go version to be set")
	}
}

func TestHealthCheckStorageUnreachable(t *testing.T) {
	h := newTestHandlers(t, &fakeProcessor{}, &fakeHistory{},
		&fakeStorage{pingErr: errors.New("connection refused")})

	w, resp := getHealth(t, h)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}
	if resp.Status != statusDegraded {
		t.Errorf("Expected status degraded, got %s", resp.Status)
	}

	storage := resp.Checks["storage"]
	if storage.OK {
		t.Error("Expected storage check to fail")
	}
	if storage.Status != "unreachable" {
		t.Errorf("Expected unreachable, got %s", storage.Status)
	}
	if storage.Detail != "connection refused" {
		t.Errorf("Expected error detail, got %s", storage.Detail)
	}
}

func TestHealthCheckHistoryUnreachable(t *testing.T) {
	h := newTestHandlers(t, &fakeProcessor{},
		&fakeHistory{pingErr: errors.New("database is locked")}, &fakeStorage{})

	w, resp := getHealth(t, h)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}
	if resp.Checks["history"].OK {
		t.Error("Expected history check to fail")
	}
}

func TestHealthCheckMissingTools(t *testing.T) {
	h := newTestHandlers(t, &fakeProcessor{}, &fakeHistory{}, &fakeStorage{})
	h.cfg.Tools = startup.ToolsReport{
		Downloader: startup.ToolCheck{Name: "yt-dlp", Detail: "not found in PATH"},
		Encoder:    startup.ToolCheck{Name: "ffmpeg", OK: true},
		Prober:     startup.ToolCheck{Name: "ffprobe", OK: true},
		HEVC:       startup.ToolCheck{Name: "libx265", OK: true},
	}

	w, resp := getHealth(t, h)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", w.Code)
	}
	if resp.Ready {
		t.Error("Expected ready false without the downloader")
	}

	dl := resp.Checks["downloader"]
	if dl.OK {
		t.Error("Expected downloader check to fail")
	}
	if dl.Status != "missing" {
		t.Errorf("Expected missing, got %s", dl.Status)
	}
	if dl.Detail != "not found in PATH" {
		t.Errorf("Expected failure detail, got %s", dl.Detail)
	}
}

func TestHealthCheckCookieWarningOnly(t *testing.T) {
	h := newTestHandlers(t, &fakeProcessor{}, &fakeHistory{}, &fakeStorage{bucket: "video-relay"})
	h.cfg.CookiesFile = "/nonexistent/cookies.txt"

	w, resp := getHealth(t, h)

	if w.Code != http.StatusOK {
		t.Fatalf("A missing cookie file must not degrade health, got %d", w.Code)
	}
	if resp.Status != statusHealthy {
		t.Errorf("Expected status healthy, got %s", resp.Status)
	}
	if resp.Checks["cookies"].OK {
		t.Error("Expected cookies check to report not configured")
	}
	if len(resp.Warnings) == 0 {
		t.Error("Expected a cookie warning")
	}
}

func TestHealthCheckMissingProberIsWarning(t *testing.T) {
	h := newTestHandlers(t, &fakeProcessor{}, &fakeHistory{}, &fakeStorage{bucket: "video-relay"})
	h.cfg.Tools.Prober = startup.ToolCheck{Name: "ffprobe", Detail: "not found in PATH"}

	w, resp := getHealth(t, h)

	if w.Code != http.StatusOK {
		t.Fatalf("A missing prober must not degrade health, got %d", w.Code)
	}
	if len(resp.Warnings) == 0 {
		t.Error("Expected a prober warning")
	}
}

func TestLivenessCheck(t *testing.T) {
	h := newTestHandlers(t, &fakeProcessor{}, &fakeHistory{}, &fakeStorage{})

	t.Run("GET returns body", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/livez", http.NoBody)
		w := httptest.NewRecorder()

		h.LivenessCheck(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if body["status"] != "alive" {
			t.Errorf("Expected status alive, got %s", body["status"])
		}
	})

	t.Run("HEAD omits body", func(t *testing.T) {
		req := httptest.NewRequest("HEAD", "/livez", http.NoBody)
		w := httptest.NewRecorder()

		h.LivenessCheck(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.Len() != 0 {
			t.Errorf("Expected empty body for HEAD, got %d bytes", w.Body.Len())
		}
	})
}

func TestReadinessCheck(t *testing.T) {
	h := newTestHandlers(t, &fakeProcessor{}, &fakeHistory{}, &fakeStorage{})

	t.Run("ready", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/readyz", http.NoBody)
		w := httptest.NewRecorder()

		h.ReadinessCheck(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("not ready", func(t *testing.T) {
		h.cfg.Tools = startup.ToolsReport{}

		req := httptest.NewRequest("GET", "/readyz", http.NoBody)
		w := httptest.NewRecorder()

		h.ReadinessCheck(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if body["status"] != "not_ready" {
			t.Errorf("Expected status not_ready, got %s", body["status"])
		}
	})
}

func TestToolCheckResult(t *testing.T) {
	tests := []struct {
		name           string
		check          startup.ToolCheck
		expectOK       bool
		expectStatus   string
		expectedDetail string
	}{
		{
			name:           "available with version",
			check:          startup.ToolCheck{Name: "yt-dlp", Version: "2025.06.09", OK: true},
			expectOK:       true,
			expectStatus:   "available",
			expectedDetail: "2025.06.09",
		},
		{
			name:           "available with detail only",
			check:          startup.ToolCheck{Name: "libx265", OK: true, Detail: "encoder listed"},
			expectOK:       true,
			expectStatus:   "available",
			expectedDetail: "encoder listed",
		},
		{
			name:           "missing",
			check:          startup.ToolCheck{Name: "ffmpeg", Detail: "not found in PATH"},
			expectOK:       false,
			expectStatus:   "missing",
			expectedDetail: "not found in PATH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toolCheckResult(tt.check)
			if got.OK != tt.expectOK {
				t.Errorf("Expected OK %v, got %v", tt.expectOK, got.OK)
			}
			if got.Status != tt.expectStatus {
				t.Errorf("Expected status %s, got %s", tt.expectStatus, got.Status)
			}
			if got.Detail != tt.expectedDetail {
				t.Errorf("Expected detail %q, got %q", tt.expectedDetail, got.Detail)
			}
		})
	}
}
