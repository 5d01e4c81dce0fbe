package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"video-relay/internal/store"
)

// =============================================================================
// Unit Tests
// =============================================================================

// TestPrintUsage tests that printUsage doesn't panic and outputs expected text
func TestPrintUsage(t *testing.T) {
	// Should not panic
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("printUsage panicked: %v", r)
		}
	}()

	printUsage()
}

// TestDefaultTimeout verifies the default timeout constant
func TestDefaultTimeout(t *testing.T) {
	expected := 30 * time.Second
	if defaultTimeout != expected {
		t.Errorf("defaultTimeout = %v, want %v", defaultTimeout, expected)
	}
}

// TestParseCount tests parsing of numeric CLI arguments
func TestParseCount(t *testing.T) {
	tests := []struct {
		name      string
		arg       string
		minimum   int
		expected  int
		expectErr bool
	}{
		{
			name:     "valid count",
			arg:      "5",
			minimum:  1,
			expected: 5,
		},
		{
			name:     "zero allowed when minimum is zero",
			arg:      "0",
			minimum:  0,
			expected: 0,
		},
		{
			name:      "zero rejected when minimum is one",
			arg:       "0",
			minimum:   1,
			expectErr: true,
		},
		{
			name:      "negative rejected",
			arg:       "-3",
			minimum:   0,
			expectErr: true,
		},
		{
			name:      "not a number",
			arg:       "abc",
			minimum:   0,
			expectErr: true,
		},
		{
			name:      "trailing garbage",
			arg:       "12abc",
			minimum:   0,
			expectErr: true,
		},
		{
			name:      "empty string",
			arg:       "",
			minimum:   0,
			expectErr: true,
		},
		{
			name:     "large count",
			arg:      "500",
			minimum:  1,
			expected: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := parseCount(tt.arg, tt.minimum)
			if tt.expectErr {
				if err == nil {
					t.Errorf("parseCount(%q, %d) = %d, expected error", tt.arg, tt.minimum, n)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCount(%q, %d) failed: %v", tt.arg, tt.minimum, err)
			}
			if n != tt.expected {
				t.Errorf("parseCount(%q, %d) = %d, want %d", tt.arg, tt.minimum, n, tt.expected)
			}
		})
	}
}

// TestTruncateTitle tests single-line title shortening
func TestTruncateTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{
			name:     "short title unchanged",
			input:    "Test Video",
			max:      48,
			expected: "Test Video",
		},
		{
			name:     "exact length unchanged",
			input:    "abcde",
			max:      5,
			expected: "abcde",
		},
		{
			name:     "long title truncated with ellipsis",
			input:    "abcdefghij",
			max:      8,
			expected: "abcde...",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			max:      48,
			expected: "",
		},
		{
			name:     "multibyte characters not split",
			input:    "日本語のタイトルです",
			max:      5,
			expected: "日本...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncateTitle(tt.input, tt.max)
			if result != tt.expected {
				t.Errorf("truncateTitle(%q, %d) = %q, want %q", tt.input, tt.max, result, tt.expected)
			}
			if runes := len([]rune(result)); runes > tt.max {
				t.Errorf("truncateTitle(%q, %d) produced %d runes", tt.input, tt.max, runes)
			}
		})
	}
}

// TestSanitizeCommand tests the sanitizeCommand function with various inputs
func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		// Passthrough cases: valid characters should be unchanged
		{
			name:     "lowercase letters",
			input:    "prune",
			expected: "prune",
		},
		{
			name:     "mixed case letters",
			input:    "PrUnE",
			expected: "PrUnE",
		},
		{
			name:     "digits",
			input:    "command123",
			expected: "command123",
		},
		{
			name:     "hyphens and underscores",
			input:    "my-command_v2",
			expected: "my-command_v2",
		},

		// Replacement cases: disallowed characters become underscores
		{
			name:     "spaces replaced",
			input:    "my command",
			expected: "my_command",
		},
		{
			name:     "semicolons replaced",
			input:    "cmd;evil",
			expected: "cmd_evil",
		},
		{
			name:     "newlines replaced",
			input:    "cmd\nevil",
			expected: "cmd_evil",
		},
		{
			name:     "slashes replaced",
			input:    "../../etc/passwd",
			expected: "______etc_passwd",
		},
		{
			name:     "dollar signs replaced",
			input:    "$PATH",
			expected: "_PATH",
		},

		// Unicode and multi-byte characters
		{
			name:     "unicode letters replaced",
			input:    "café",
			expected: "caf_",
		},
		{
			name:     "emoji replaced",
			input:    "cmd🚀",
			expected: "cmd_",
		},

		// Edge cases
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "all invalid characters",
			input:    "!@#$%^&*()",
			expected: "__________",
		},

		// Injection attempt patterns
		{
			name:     "shell injection attempt",
			input:    "prune; rm -rf /",
			expected: "prune__rm_-rf__",
		},
		{
			name:     "command substitution attempt",
			input:    "$(whoami)",
			expected: "__whoami_",
		},
		{
			name:     "ANSI escape sequence",
			input:    "\x1b[31mred\x1b[0m",
			expected: "__31mred__0m",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeCommand(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestSanitizeCommandIdempotent verifies that sanitizing an already-sanitized
// string produces the same result (the function is idempotent).
func TestSanitizeCommandIdempotent(t *testing.T) {
	inputs := []string{
		"prune",
		"<script>alert('xss')</script>",
		"cmd; rm -rf /",
		"hello world!",
		"",
		"already-clean_input",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first := sanitizeCommand(input)
			second := sanitizeCommand(first)
			if first != second {
				t.Errorf("sanitizeCommand is not idempotent for %q: first=%q, second=%q",
					input, first, second)
			}
		})
	}
}

// TestSanitizeCommandOnlyContainsAllowedChars verifies the output never contains
// characters outside the allowlist.
func TestSanitizeCommandOnlyContainsAllowedChars(t *testing.T) {
	inputs := []string{
		"normal",
		"'; DROP TABLE runs; --",
		"cmd\x00\x01\x02\x03",
		"hello\nworld\r\n",
		string([]byte{0xff, 0xfe, 0xfd}),
		"$(cat /etc/passwd)",
		"`id`",
	}

	isAllowed := func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			result := sanitizeCommand(input)
			for i, r := range result {
				if !isAllowed(r) {
					t.Errorf("sanitizeCommand(%q) contains disallowed rune %q at index %d in result %q",
						input, r, i, result)
				}
			}
		})
	}
}

// =============================================================================
// Integration Tests
// =============================================================================

// setupTestStore creates a run-history store backed by a temporary database.
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "relay.db")
	s, err := store.New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	return s
}

// testRun builds a plausible run record for tests.
func testRun(videoID, status string) *store.Run {
	return &store.Run{
		VideoID:    videoID,
		Title:      "Test Video",
		SourceURL:  "https://www.youtube.com/watch?v=" + videoID,
		Status:     status,
		PublicURL:  "https://storage.example.com/video-relay/youtube_hevc_720p/" + videoID + ".mp4",
		SizeBytes:  1024 * 1024,
		Duration:   212.5,
		Resolution: "720p max",
		Codec:      "libx265",
		Strategy:   "best_quality",
		Attempts:   1,
		ElapsedMS:  45000,
	}
}

// TestShowRecentEmptyIntegration tests showRecent against an empty history
func TestShowRecentEmptyIntegration(t *testing.T) {
	s := setupTestStore(t)

	if !showRecent(context.Background(), s, defaultRecentLimit) {
		t.Error("Expected showRecent to succeed on an empty history")
	}
}

// TestShowRecentWithRunsIntegration tests showRecent with mixed outcomes
func TestShowRecentWithRunsIntegration(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.RecordRun(ctx, testRun("dQw4w9WgXcQ", store.StatusSuccess)); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	failed := testRun("failedvideo", store.StatusFailure)
	failed.ErrorCategory = "bot_detection"
	failed.PublicURL = ""
	failed.SizeBytes = 0
	failed.Attempts = 7
	if err := s.RecordRun(ctx, failed); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	// Should not panic and should report success
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("showRecent panicked: %v", r)
		}
	}()

	if !showRecent(ctx, s, 10) {
		t.Error("Expected showRecent to succeed with recorded runs")
	}
}

// TestShowRecentCanceledContextIntegration tests showRecent with a canceled context
func TestShowRecentCanceledContextIntegration(t *testing.T) {
	s := setupTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("showRecent panicked with canceled context: %v", r)
		}
	}()

	if showRecent(ctx, s, 10) {
		t.Error("Expected showRecent to fail with canceled context")
	}
}

// TestShowStatsIntegration tests showStats with and without runs
func TestShowStatsIntegration(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// Should not panic on an empty history
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("showStats panicked: %v", r)
		}
	}()

	showStats(s)

	if err := s.RecordRun(ctx, testRun("dQw4w9WgXcQ", store.StatusSuccess)); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	if err := s.RecordRun(ctx, testRun("failedvideo", store.StatusFailure)); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	showStats(s)

	// Verify the counters showStats reads
	stats := s.GetStats()
	if stats.TotalRuns != 2 {
		t.Errorf("Expected 2 total runs, got %d", stats.TotalRuns)
	}
	if stats.Succeeded != 1 {
		t.Errorf("Expected 1 succeeded run, got %d", stats.Succeeded)
	}
	if stats.Failed != 1 {
		t.Errorf("Expected 1 failed run, got %d", stats.Failed)
	}
}

// TestPruneRunsIntegration tests pruning down to a retention count
func TestPruneRunsIntegration(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ids := []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc", "ddddddddddd"}
	for _, id := range ids {
		if err := s.RecordRun(ctx, testRun(id, store.StatusSuccess)); err != nil {
			t.Fatalf("RecordRun() failed: %v", err)
		}
	}

	if !pruneRuns(ctx, s, 2) {
		t.Error("Expected pruneRuns to succeed")
	}

	runs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 surviving runs, got %d", len(runs))
	}
	if runs[0].VideoID != "ddddddddddd" {
		t.Errorf("Expected newest run to survive, got %s", runs[0].VideoID)
	}
}

// TestPruneRunsNothingToDoIntegration tests pruning when under the retention count
func TestPruneRunsNothingToDoIntegration(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.RecordRun(ctx, testRun("dQw4w9WgXcQ", store.StatusSuccess)); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	if !pruneRuns(ctx, s, defaultPruneKeep) {
		t.Error("Expected pruneRuns to succeed when there is nothing to remove")
	}

	runs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Expected 1 surviving run, got %d", len(runs))
	}
}

// TestPruneRunsKeepZeroIntegration tests emptying the history entirely
func TestPruneRunsKeepZeroIntegration(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"aaaaaaaaaaa", "bbbbbbbbbbb"} {
		if err := s.RecordRun(ctx, testRun(id, store.StatusSuccess)); err != nil {
			t.Fatalf("RecordRun() failed: %v", err)
		}
	}

	if !pruneRuns(ctx, s, 0) {
		t.Error("Expected pruneRuns to succeed with keep 0")
	}

	runs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("Expected empty history after full prune, got %d runs", len(runs))
	}
}

// TestPruneRunsCanceledContextIntegration tests pruneRuns with a canceled context
func TestPruneRunsCanceledContextIntegration(t *testing.T) {
	s := setupTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("pruneRuns panicked with canceled context: %v", r)
		}
	}()

	if pruneRuns(ctx, s, 0) {
		t.Error("Expected pruneRuns to fail with canceled context")
	}
}

// TestHistorySurvivesReopenIntegration tests that runs persist across close and reopen
func TestHistorySurvivesReopenIntegration(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "relay.db")
	ctx := context.Background()

	first, err := store.New(ctx, dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := first.RecordRun(ctx, testRun("dQw4w9WgXcQ", store.StatusSuccess)); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	// Reopen the database the way the CLI does
	second, err := store.New(ctx, dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer func() {
		if err := second.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	}()

	if !showRecent(ctx, second, 10) {
		t.Error("Expected showRecent to succeed on a reopened store")
	}

	runs, err := second.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Run was lost after closing and reopening the store, got %d runs", len(runs))
	}
}

// =============================================================================
// Database Path and Environment Tests
// =============================================================================

// TestDataDirFromEnvironmentIntegration tests reading DATA_DIR from env
func TestDataDirFromEnvironmentIntegration(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("DATA_DIR", tempDir)

	dataDir := os.Getenv("DATA_DIR")
	if dataDir != tempDir {
		t.Fatalf("DATA_DIR = %q, want %q", dataDir, tempDir)
	}

	dbPath := filepath.Join(dataDir, "relay.db")

	// Try to create the store at this path
	s, err := store.New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("failed to create store at custom path: %v", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	}()

	// Verify the database file exists where the CLI would look for it
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created at expected path: %v", err)
	}
}

// TestEmptyDataDirUsesDefault tests default path when env var is empty
func TestEmptyDataDirUsesDefault(t *testing.T) {
	t.Setenv("DATA_DIR", "")

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = defaultDataDir
	}

	if dataDir != defaultDataDir {
		t.Errorf("dataDir = %q, want %q", dataDir, defaultDataDir)
	}
}
