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

	"video-relay/internal/downloader"
	"video-relay/internal/publisher"
	"video-relay/internal/startup"

	"github.com/dustin/go-humanize"
)

// Timeout for the storage reachability probe
const storageTimeout = 10 * time.Second

func main() {
	command := "all"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted")
		cancel()
	}()

	var ok bool
	switch command {
	case "all":
		ok = checkAll(ctx)
	case "tools":
		ok = checkTools()
	case "storage":
		ok = checkStorage(ctx, true)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		// Sanitize command input using allowlist to break taint chain
		sanitized := sanitizeCommand(command)
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitized) //nolint:gosec // G705 - input is sanitized via allowlist in sanitizeCommand; only [a-zA-Z0-9_-] characters pass through
		printUsage()
		os.Exit(1)
	}

	if ok {
		fmt.Println("Preflight passed.")
		return
	}
	fmt.Fprintln(os.Stderr, "Preflight failed.")
	os.Exit(1)
}

// sanitizeCommand returns a safe representation of a command string for
// display. It uses an allowlist approach, replacing any character that is
// not alphanumeric, a hyphen, or an underscore with '_'.
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

func printUsage() {
	fmt.Println("Video Relay Preflight Checks")
	fmt.Println("")
	fmt.Println("Usage: preflight [command]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  all      - Run every check (default)")
	fmt.Println("  tools    - Check external binaries only")
	fmt.Println("  storage  - Check object storage reachability only")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Println("  Reads the same variables as the server: YTDLP_PATH,")
	fmt.Println("  FFMPEG_PATH, FFPROBE_PATH, WORK_DIR, COOKIES_FILE and")
	fmt.Println("  the STORAGE_* family.")
}

func checkAll(ctx context.Context) bool {
	ok := checkTools()
	if !checkWorkspace() {
		ok = false
	}
	checkCookies()
	if !checkStorage(ctx, false) {
		ok = false
	}
	return ok
}

// checkTools probes the pipeline binaries. ffprobe is reported as a
// warning rather than a failure because output validation degrades
// without it while the pipeline keeps working.
func checkTools() bool {
	fmt.Println("External tools:")

	report := startup.ProbeTools(
		envOr("YTDLP_PATH", "yt-dlp"),
		envOr("FFMPEG_PATH", "ffmpeg"),
		envOr("FFPROBE_PATH", "ffprobe"),
	)

	printCheck(report.Downloader)
	printCheck(report.Encoder)
	if report.Prober.OK {
		printCheck(report.Prober)
	} else {
		fmt.Printf("  [WARN] %s: %s (output validation degrades)\n", report.Prober.Name, report.Prober.Detail)
	}
	printCheck(report.HEVC)

	return report.Ready()
}

func printCheck(check startup.ToolCheck) {
	switch {
	case check.OK && check.Version != "":
		fmt.Printf("  [OK] %s (%s)\n", check.Name, check.Version)
	case check.OK:
		fmt.Printf("  [OK] %s: %s\n", check.Name, check.Detail)
	default:
		fmt.Printf("  [FAIL] %s: %s\n", check.Name, check.Detail)
	}
}

func checkWorkspace() bool {
	fmt.Println("Workspace:")

	dir := envOr("WORK_DIR", filepath.Join(os.TempDir(), "video-relay"))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		fmt.Printf("  [FAIL] %s: %v\n", dir, err)
		return false
	}

	probe := filepath.Join(dir, ".preflight")
	if err := os.WriteFile(probe, []byte("probe"), 0o600); err != nil {
		fmt.Printf("  [FAIL] %s is not writable: %v\n", dir, err)
		return false
	}
	if err := os.Remove(probe); err != nil {
		fmt.Printf("  [WARN] failed to remove probe file %s: %v\n", probe, err)
	}

	fmt.Printf("  [OK] %s is writable\n", dir)
	return true
}

// checkCookies is advisory only; the downloader degrades its cookie
// strategies to unauthenticated requests when no usable file exists.
func checkCookies() {
	fmt.Println("Cookies:")

	path := envOr("COOKIES_FILE", "./cookies.txt")
	if !downloader.CookieUsable(path) {
		fmt.Printf("  [WARN] %s absent or trivially small; cookie strategies run without auth\n", path)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("  [WARN] %s: %v\n", path, err)
		return
	}
	fmt.Printf("  [OK] %s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
}

func checkStorage(ctx context.Context, required bool) bool {
	fmt.Println("Storage:")

	endpoint := os.Getenv("STORAGE_ENDPOINT")
	accessKey := os.Getenv("STORAGE_ACCESS_KEY")
	secretKey := os.Getenv("STORAGE_SECRET_KEY")

	if endpoint == "" && accessKey == "" && secretKey == "" {
		if required {
			fmt.Println("  [FAIL] STORAGE_ENDPOINT, STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are not set")
			return false
		}
		fmt.Println("  [SKIP] not configured")
		return true
	}

	pub, err := publisher.New(publisher.Config{
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Bucket:    envOr("STORAGE_BUCKET", "video-relay"),
		UseSSL:    envOrBool("STORAGE_USE_SSL", true),
	}, nil)
	if err != nil {
		fmt.Printf("  [FAIL] %v\n", err)
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, storageTimeout)
	defer cancel()
	if err := pub.Ping(pingCtx); err != nil {
		fmt.Printf("  [FAIL] %v\n", err)
		return false
	}

	fmt.Printf("  [OK] bucket %s is reachable\n", pub.Bucket())
	return true
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envOrBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
