package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"video-relay/internal/store"

	"github.com/dustin/go-humanize"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default data directory path
	defaultDataDir = "./data"
	// Default number of runs shown by the recent command
	defaultRecentLimit = 20
	// Default number of runs kept by the prune command
	defaultPruneKeep = 50
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	if command == "help" || command == "-h" || command == "--help" {
		printUsage()
		return
	}

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	// Get data directory from env or default
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	dbPath := filepath.Join(dataDir, "relay.db")

	// Opening the store would create an empty database at a wrong path,
	// so require the file to exist first.
	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: No run history found at %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Make sure DATA_DIR is set correctly (current: %s)\n", dataDir)
		os.Exit(1)
	}

	s, err := store.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open run history: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := s.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close run history: %v\n", err)
		}
	}()

	switch command {
	case "recent":
		limit := defaultRecentLimit
		if len(os.Args) > 2 {
			limit, err = parseCount(os.Args[2], 1)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: Invalid limit: %v\n", err)
				os.Exit(1)
			}
		}
		if !showRecent(ctx, s, limit) {
			os.Exit(1)
		}
	case "stats":
		showStats(s)
	case "prune":
		keep := defaultPruneKeep
		if len(os.Args) > 2 {
			keep, err = parseCount(os.Args[2], 0)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: Invalid keep count: %v\n", err)
				os.Exit(1)
			}
		}
		if !pruneRuns(ctx, s, keep) {
			os.Exit(1)
		}
	default:
		// Sanitize command input using allowlist to break taint chain
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized) //nolint:gosec // G705 - input is sanitized via allowlist in sanitizeCommand; only [a-zA-Z0-9_-] characters pass through
		printUsage()
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// parseCount parses a numeric CLI argument and enforces a lower bound.
func parseCount(arg string, minimum int) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("not a number: %s", sanitizeCommand(arg))
	}
	if n < minimum {
		return 0, fmt.Errorf("must be at least %d, got %d", minimum, n)
	}
	return n, nil
}

func printUsage() {
	fmt.Println("Video Relay History Management")
	fmt.Println("")
	fmt.Println("Usage: relayctl <command> [args]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Printf("  recent [limit]  - Show the most recent runs (default: %d)\n", defaultRecentLimit)
	fmt.Println("  stats           - Show aggregate run statistics")
	fmt.Printf("  prune [keep]    - Delete all but the newest runs (default keep: %d)\n", defaultPruneKeep)
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATA_DIR - Path to data directory (default: %s)\n", defaultDataDir)
}

func showRecent(ctx context.Context, s *store.Store, limit int) bool {
	// Add timeout to context for database operations
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	runs, err := s.Recent(ctx, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to load run history: %v\n", err)
		return false
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return true
	}

	for _, run := range runs {
		// Successes show the strategy that worked, failures the category.
		detail := run.Strategy
		if run.Status == store.StatusFailure {
			detail = run.ErrorCategory
		}
		fmt.Printf("%s  %-11s  %-7s  %9s  %-19s  %s\n",
			run.CreatedAt.Format("2006-01-02 15:04"),
			run.VideoID,
			run.Status,
			humanize.IBytes(uint64(run.SizeBytes)),
			detail,
			truncateTitle(run.Title, 48),
		)
	}
	return true
}

func showStats(s *store.Store) {
	stats := s.GetStats()

	fmt.Println("Run history statistics:")
	fmt.Printf("  Total runs: %d\n", stats.TotalRuns)
	fmt.Printf("  Succeeded:  %d\n", stats.Succeeded)
	fmt.Printf("  Failed:     %d\n", stats.Failed)
	if stats.TotalRuns > 0 {
		rate := float64(stats.Succeeded) / float64(stats.TotalRuns) * 100
		fmt.Printf("  Success rate: %.1f%%\n", rate)
	}
	fmt.Printf("  Published:  %s\n", humanize.IBytes(uint64(stats.PublishedBytes)))
}

func pruneRuns(ctx context.Context, s *store.Store, keep int) bool {
	// Add timeout to context for database operations
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	removed, err := s.PruneRuns(ctx, keep)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to prune runs: %v\n", err)
		return false
	}

	if removed == 0 {
		fmt.Printf("Nothing to prune, history is already at or below %d runs.\n", keep)
		return true
	}

	noun := "runs"
	if removed == 1 {
		noun = "run"
	}
	fmt.Printf("Removed %d %s, kept the newest %d.\n", removed, noun, keep)
	return true
}

// truncateTitle shortens a title for single-line display without
// splitting a multibyte character.
func truncateTitle(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
