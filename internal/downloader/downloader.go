package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"video-relay/internal/artifact"
	"video-relay/internal/classify"
	"video-relay/internal/logging"
	"video-relay/internal/metrics"

	"github.com/dustin/go-humanize"
)

const (
	// sourceBase is the fixed output basename inside the workspace; the
	// tool appends whatever container extension it settled on.
	sourceBase = "source"

	// minCookieBytes is the threshold at or below which a cookie export
	// is treated as empty. Signed-out browsers export header-only files.
	minCookieBytes = 100

	// minArtifactBytes rejects husk downloads; a fetch under 1 KiB is
	// an error page or an empty container, not media.
	minArtifactBytes = 1024

	// toolOutputCap bounds captured subprocess output per stream.
	toolOutputCap = 8 * 1024

	// attemptErrorCap bounds the error text stored per attempt.
	attemptErrorCap = 1024
)

// Outcome labels for the attempt log.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Attempt records one strategy execution for a single request.
type Attempt struct {
	Ordinal  int               `json:"ordinal"`
	Strategy string            `json:"strategy"`
	Outcome  string            `json:"outcome"`
	Category classify.Category `json:"category,omitempty"`
	Error    string            `json:"error,omitempty"`
	Elapsed  time.Duration     `json:"elapsed"`
}

// Config carries the orchestrator's tunables.
type Config struct {
	// BinPath is the downloader binary, resolved via PATH when bare.
	BinPath string
	// CookiesFile is an optional Netscape-format cookie export.
	CookiesFile string
	// AttemptTimeout bounds each strategy's subprocess.
	AttemptTimeout time.Duration
	// StrategyDelay is the fixed pause between attempts.
	StrategyDelay time.Duration
}

// Orchestrator drives the ordered strategy set against the downloader
// binary until one attempt produces a usable media artifact.
type Orchestrator struct {
	cfg        Config
	strategies []Strategy

	// execute is swapped in tests to exercise the fallback loop
	// without a downloader binary on the machine.
	execute func(ctx context.Context, s Strategy, rawURL, dir string) (*artifact.Artifact, error)
}

// New creates an orchestrator over the default strategy set.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		strategies: DefaultStrategies(),
	}
	o.execute = o.runStrategy
	return o
}

// Strategies returns the ordered profile set.
func (o *Orchestrator) Strategies() []Strategy {
	return o.strategies
}

// Download acquires the media behind rawURL into dir, trying each
// strategy in order. It returns the artifact of the first success
// together with the attempt log. When every strategy fails, the error
// carries the classification of the final attempt; the attempt log
// then holds one entry per defined strategy.
func (o *Orchestrator) Download(ctx context.Context, rawURL, dir string) (*artifact.Artifact, []Attempt, error) {
	attempts := make([]Attempt, 0, len(o.strategies))
	lastCategory := classify.Unknown
	lastMessage := "no download strategies configured"

	for i, s := range o.strategies {
		if err := ctx.Err(); err != nil {
			return nil, attempts, classify.NewError(classify.NetworkTimeout, "download canceled: %v", err)
		}
		if i > 0 && o.cfg.StrategyDelay > 0 {
			select {
			case <-time.After(o.cfg.StrategyDelay):
			case <-ctx.Done():
				return nil, attempts, classify.NewError(classify.NetworkTimeout, "download canceled while waiting to retry")
			}
		}

		logging.Info("Download strategy %d/%d: %s", s.Ordinal, len(o.strategies), s.Name)

		start := time.Now()
		art, err := o.execute(ctx, s, rawURL, dir)
		elapsed := time.Since(start)

		if err == nil {
			attempts = append(attempts, Attempt{
				Ordinal:  s.Ordinal,
				Strategy: s.Name,
				Outcome:  OutcomeSuccess,
				Elapsed:  elapsed,
			})
			metrics.DownloadAttemptsTotal.WithLabelValues(s.Name, OutcomeSuccess).Inc()
			logging.Info("Strategy %s succeeded in %s: %s (%s)",
				s.Name, elapsed.Round(time.Millisecond), filepath.Base(art.Path), humanize.IBytes(uint64(art.SizeBytes)))
			return art, attempts, nil
		}

		category := classify.CategoryOf(err)
		lastCategory = category
		lastMessage = err.Error()
		attempts = append(attempts, Attempt{
			Ordinal:  s.Ordinal,
			Strategy: s.Name,
			Outcome:  OutcomeFailure,
			Category: category,
			Error:    truncate(err.Error(), attemptErrorCap),
			Elapsed:  elapsed,
		})
		metrics.DownloadAttemptsTotal.WithLabelValues(s.Name, OutcomeFailure).Inc()
		logging.Warn("Strategy %s failed after %s (%s): %s",
			s.Name, elapsed.Round(time.Millisecond), category, truncate(lastMessage, 200))

		clearSourceFiles(dir)
	}

	return nil, attempts, classify.NewError(lastCategory,
		"all %d download strategies failed: %s", len(o.strategies), lastMessage)
}

// runStrategy executes one downloader subprocess and validates what it
// left in the workspace.
func (o *Orchestrator) runStrategy(ctx context.Context, s Strategy, rawURL, dir string) (*artifact.Artifact, error) {
	attemptCtx := ctx
	if o.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, o.cfg.AttemptTimeout)
		defer cancel()
	}

	args := o.buildArgs(s, rawURL, dir)
	cmd := exec.CommandContext(attemptCtx, o.cfg.BinPath, args...)

	stdout := newCappedBuffer(toolOutputCap)
	stderr := newCappedBuffer(toolOutputCap)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logging.Debug("Running %s %s", o.cfg.BinPath, strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		if attemptCtx.Err() != nil {
			return nil, classify.NewError(classify.NetworkTimeout,
				"download killed after %s", o.cfg.AttemptTimeout)
		}
		combined := stderr.String() + "\n" + stdout.String()
		return nil, classify.NewError(classify.ToolOutput(combined), "%s", firstErrorLine(combined, err))
	}

	return collectArtifact(dir, s)
}

// buildArgs assembles the downloader argv for one strategy.
func (o *Orchestrator) buildArgs(s Strategy, rawURL, dir string) []string {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--no-progress",
		"--newline",
		"--socket-timeout", "30",
		"--retries", "3",
		"--fragment-retries", "3",
		"--write-info-json",
		"-o", filepath.Join(dir, sourceBase+".%(ext)s"),
	}
	if s.QualitySelector != "" {
		args = append(args, "-f", s.QualitySelector)
	}
	if s.UserAgent != "" {
		args = append(args, "--user-agent", s.UserAgent)
	}
	if s.AuthMode == AuthCookieFile && CookieUsable(o.cfg.CookiesFile) {
		args = append(args, "--cookies", o.cfg.CookiesFile)
	}
	if s.GeoBypass {
		args = append(args, "--geo-bypass", "--geo-bypass-country", "US")
	}
	return append(args, rawURL)
}

// CookieUsable reports whether the cookie export at path holds real
// content. Anything at or under minCookieBytes degrades cookie
// strategies to anonymous access instead of failing them.
func CookieUsable(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Size() > minCookieBytes
}

// sourceInfo is the subset of the tool's info-json sidecar we keep.
type sourceInfo struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// collectArtifact locates the media file a successful subprocess left
// in dir and wraps it with sidecar metadata. Exit code zero does not
// guarantee media: the tool happily saves thumbnail snapshots and
// zero-length husks.
func collectArtifact(dir string, s Strategy) (*artifact.Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, classify.NewError(classify.Unknown, "cannot read workspace: %v", err)
	}

	var thumbnailOnly bool
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, sourceBase+".") {
			continue
		}
		if strings.HasSuffix(name, ".info.json") || strings.HasSuffix(name, ".part") {
			continue
		}

		path := filepath.Join(dir, name)
		kind := artifact.KindOf(path)
		switch kind {
		case artifact.KindVideo, artifact.KindAudio:
			fi, err := e.Info()
			if err != nil {
				return nil, classify.NewError(classify.Unknown, "cannot stat %s: %v", name, err)
			}
			if fi.Size() < minArtifactBytes {
				return nil, classify.NewError(classify.Unknown,
					"downloaded file is only %d bytes, discarding as corrupt", fi.Size())
			}
			info := readSourceInfo(dir)
			return &artifact.Artifact{
				Path:      path,
				SizeBytes: fi.Size(),
				Duration:  info.Duration,
				VideoID:   info.ID,
				Title:     info.Title,
				AudioOnly: s.AudioOnly || kind == artifact.KindAudio,
			}, nil
		case artifact.KindThumbnail:
			thumbnailOnly = true
		}
	}

	if thumbnailOnly {
		return nil, classify.NewError(classify.FormatUnavailable,
			"only a thumbnail snapshot was available, no media stream")
	}
	return nil, classify.NewError(classify.Unknown,
		"downloader exited cleanly but produced no media file")
}

// readSourceInfo parses the tool's info-json sidecar. Best-effort:
// metadata gaps degrade to empty fields, never to a failed attempt.
func readSourceInfo(dir string) sourceInfo {
	data, err := os.ReadFile(filepath.Join(dir, sourceBase+".info.json"))
	if err != nil {
		return sourceInfo{}
	}
	var info sourceInfo
	if err := json.Unmarshal(data, &info); err != nil {
		logging.Debug("Unparseable info sidecar: %v", err)
		return sourceInfo{}
	}
	return info
}

// clearSourceFiles removes output left by a failed attempt so the next
// strategy starts clean.
func clearSourceFiles(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), sourceBase+".") {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			logging.Warn("Failed to remove partial download %s: %v", e.Name(), err)
		}
	}
}

// cappedBuffer retains the first limit bytes written and drops the
// rest. A long fetch emits per-fragment noise forever; the useful
// diagnostics come first.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if remain := b.limit - b.buf.Len(); remain > 0 {
		if n > remain {
			b.buf.Write(p[:remain])
		} else {
			b.buf.Write(p)
		}
	}
	return n, nil
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}

// firstErrorLine pulls the most useful line out of tool output for the
// attempt log: the first line carrying an error marker, else the last
// non-empty line, else the exec error itself.
func firstErrorLine(output string, fallback error) string {
	var lastNonEmpty string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lastNonEmpty = line
		if strings.Contains(strings.ToLower(line), "error") {
			return line
		}
	}
	if lastNonEmpty != "" {
		return lastNonEmpty
	}
	return fallback.Error()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
