package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// TestPrintUsage tests that printUsage doesn't panic
func TestPrintUsage(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("printUsage panicked: %v", r)
		}
	}()

	printUsage()
}

// TestSanitizeCommand tests the sanitizeCommand function with various inputs
func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase letters",
			input:    "tools",
			expected: "tools",
		},
		{
			name:     "mixed case with digits",
			input:    "Check123",
			expected: "Check123",
		},
		{
			name:     "hyphens and underscores kept",
			input:    "my-check_v2",
			expected: "my-check_v2",
		},
		{
			name:     "spaces replaced",
			input:    "my check",
			expected: "my_check",
		},
		{
			name:     "shell metacharacters replaced",
			input:    "tools; rm -rf /",
			expected: "tools__rm_-rf__",
		},
		{
			name:     "newlines replaced",
			input:    "tools\nfake log line",
			expected: "tools_fake_log_line",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeCommand(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

// TestEnvOr tests environment lookup with defaults
func TestEnvOr(t *testing.T) {
	t.Setenv("PREFLIGHT_TEST_VAR", "configured")
	if got := envOr("PREFLIGHT_TEST_VAR", "fallback"); got != "configured" {
		t.Errorf("Expected configured, got %q", got)
	}

	t.Setenv("PREFLIGHT_TEST_VAR", "")
	if got := envOr("PREFLIGHT_TEST_VAR", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %q", got)
	}
}

// TestEnvOrBool tests boolean environment parsing
func TestEnvOrBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback bool
		expected bool
	}{
		{name: "true value", value: "true", fallback: false, expected: true},
		{name: "false value", value: "false", fallback: true, expected: false},
		{name: "numeric true", value: "1", fallback: false, expected: true},
		{name: "empty uses fallback", value: "", fallback: true, expected: true},
		{name: "garbage uses fallback", value: "maybe", fallback: true, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PREFLIGHT_TEST_BOOL", tt.value)
			if got := envOrBool("PREFLIGHT_TEST_BOOL", tt.fallback); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// fakeTool writes an executable shell script that echoes the given
// output for any invocation.
func fakeTool(t *testing.T, dir, name, output string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	script := "#!/bin/sh\necho \"" + output + "\"\n"
	if err := os.WriteFile(path, []byte(script), 0o700); err != nil {
		t.Fatalf("Failed to write fake %s: %v", name, err)
	}
	return path
}

// TestCheckToolsAllPresent tests the tools check against fake binaries
func TestCheckToolsAllPresent(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("YTDLP_PATH", fakeTool(t, dir, "yt-dlp", "2024.08.06"))
	t.Setenv("FFMPEG_PATH", fakeTool(t, dir, "ffmpeg", "ffmpeg version 6.1.1 with libx265"))
	t.Setenv("FFPROBE_PATH", fakeTool(t, dir, "ffprobe", "ffprobe version 6.1.1"))

	if !checkTools() {
		t.Error("Expected tools check to pass with all fake binaries present")
	}
}

// TestCheckToolsMissingDownloader tests that an absent downloader fails the check
func TestCheckToolsMissingDownloader(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("YTDLP_PATH", filepath.Join(dir, "no-such-binary"))
	t.Setenv("FFMPEG_PATH", fakeTool(t, dir, "ffmpeg", "ffmpeg version 6.1.1 with libx265"))
	t.Setenv("FFPROBE_PATH", fakeTool(t, dir, "ffprobe", "ffprobe version 6.1.1"))

	if checkTools() {
		t.Error("Expected tools check to fail without a downloader binary")
	}
}

// TestCheckToolsMissingProberStillPasses tests that ffprobe absence is advisory
func TestCheckToolsMissingProberStillPasses(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("YTDLP_PATH", fakeTool(t, dir, "yt-dlp", "2024.08.06"))
	t.Setenv("FFMPEG_PATH", fakeTool(t, dir, "ffmpeg", "ffmpeg version 6.1.1 with libx265"))
	t.Setenv("FFPROBE_PATH", filepath.Join(dir, "no-such-binary"))

	if !checkTools() {
		t.Error("Expected tools check to pass with only ffprobe missing")
	}
}

// TestCheckWorkspace tests the workspace writability probe
func TestCheckWorkspace(t *testing.T) {
	t.Setenv("WORK_DIR", t.TempDir())

	if !checkWorkspace() {
		t.Error("Expected workspace check to pass for a writable directory")
	}
}

// TestCheckWorkspaceUncreatable tests failure when the work dir cannot be created
func TestCheckWorkspaceUncreatable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("file"), 0o600); err != nil {
		t.Fatalf("Failed to write blocker file: %v", err)
	}

	// A path below a regular file can never be created
	t.Setenv("WORK_DIR", filepath.Join(blocker, "work"))

	if checkWorkspace() {
		t.Error("Expected workspace check to fail when the directory cannot be created")
	}
}

// TestCheckCookies tests that the advisory cookie check never panics
func TestCheckCookies(t *testing.T) {
	t.Run("absent file", func(t *testing.T) {
		t.Setenv("COOKIES_FILE", filepath.Join(t.TempDir(), "missing.txt"))
		checkCookies()
	})

	t.Run("usable file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cookies.txt")
		content := "# Netscape HTTP Cookie File\n"
		for len(content) <= 100 {
			content += ".example.com\tTRUE\t/\tFALSE\t0\tname\tvalue\n"
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("Failed to write cookie file: %v", err)
		}
		t.Setenv("COOKIES_FILE", path)
		checkCookies()
	})
}

// TestCheckStorageUnconfigured tests the optional and required storage modes
func TestCheckStorageUnconfigured(t *testing.T) {
	t.Setenv("STORAGE_ENDPOINT", "")
	t.Setenv("STORAGE_ACCESS_KEY", "")
	t.Setenv("STORAGE_SECRET_KEY", "")

	if !checkStorage(context.Background(), false) {
		t.Error("Expected unconfigured storage to pass when not required")
	}
	if checkStorage(context.Background(), true) {
		t.Error("Expected unconfigured storage to fail when required")
	}
}

// TestCheckStoragePartialConfig tests that partial credentials fail the check
func TestCheckStoragePartialConfig(t *testing.T) {
	t.Setenv("STORAGE_ENDPOINT", "storage.example.com")
	t.Setenv("STORAGE_ACCESS_KEY", "")
	t.Setenv("STORAGE_SECRET_KEY", "")

	if checkStorage(context.Background(), false) {
		t.Error("Expected storage check to fail with an endpoint but no credentials")
	}
}

// TestCheckStorageUnreachable tests that a dead endpoint fails the check
func TestCheckStorageUnreachable(t *testing.T) {
	// Port 1 is privileged and unbound, so the dial is refused immediately
	t.Setenv("STORAGE_ENDPOINT", "127.0.0.1:1")
	t.Setenv("STORAGE_ACCESS_KEY", "preflight")
	t.Setenv("STORAGE_SECRET_KEY", "preflight")
	t.Setenv("STORAGE_USE_SSL", "false")

	if checkStorage(context.Background(), true) {
		t.Error("Expected storage check to fail against an unreachable endpoint")
	}
}
