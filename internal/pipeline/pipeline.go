package pipeline

import (
	"context"
	"fmt"
	"time"

	"video-relay/internal/artifact"
	"video-relay/internal/classify"
	"video-relay/internal/downloader"
	"video-relay/internal/logging"
	"video-relay/internal/metrics"
	"video-relay/internal/publisher"
	"video-relay/internal/store"
	"video-relay/internal/workspace"
)

// Labels stamped on every successful run.
const (
	ResolutionLabel = "720p max"
	CodecLabel      = "libx265"
)

// outputName is the transcoded file name inside a workspace.
const outputName = "output.mp4"

// State identifies where a pipeline run currently is.
type State string

const (
	StateIdle        State = "idle"
	StateAcquiring   State = "acquiring"
	StateTranscoding State = "transcoding"
	StatePublishing  State = "publishing"
	StateDone        State = "done"
)

// Downloader fetches the source media for a URL into a directory.
type Downloader interface {
	Download(ctx context.Context, rawURL, dir string) (*artifact.Artifact, []downloader.Attempt, error)
}

// Transcoder converts a downloaded artifact into the target format.
type Transcoder interface {
	Transcode(ctx context.Context, art *artifact.Artifact, outPath string) (*artifact.Artifact, error)
}

// Publisher uploads the final artifact to object storage.
type Publisher interface {
	Publish(ctx context.Context, art *artifact.Artifact) (*publisher.Result, error)
}

// Recorder persists run history and answers republish lookups.
type Recorder interface {
	RecordRun(ctx context.Context, run *store.Run) error
	FindPublished(ctx context.Context, videoID string) (*store.Run, error)
}

// Config holds the controller settings.
type Config struct {
	// RepublishCache short-circuits videos that already have a
	// published copy.
	RepublishCache bool
	// TranscodeWorkers bounds concurrent encoder subprocesses.
	TranscodeWorkers int
}

// Result is the externally visible outcome of one run. Exactly one of
// the success fields (PublicURL et al.) or the failure fields
// (Error, Category) is populated.
type Result struct {
	Status    string
	PublicURL string
	Duration  float64
	SizeBytes int64
	VideoID   string
	Title     string
	Message   string
	Error     string
	Category  classify.Category
	Attempts  []downloader.Attempt
	Strategy  string
	Elapsed   time.Duration
	FromCache bool
}

// Succeeded reports whether the run produced a public URL.
func (r *Result) Succeeded() bool {
	return r.Status == store.StatusSuccess
}

// Controller composes download, transcode and publish into one
// request-scoped operation.
type Controller struct {
	cfg        Config
	workspaces *workspace.Manager
	download   Downloader
	transcode  Transcoder
	publish    Publisher
	history    Recorder
	gate       chan struct{}
}

// New creates a pipeline controller.
func New(cfg Config, workspaces *workspace.Manager, dl Downloader, tc Transcoder, pub Publisher, history Recorder) *Controller {
	workers := cfg.TranscodeWorkers
	if workers < 1 {
		workers = 1
	}

	return &Controller{
		cfg:        cfg,
		workspaces: workspaces,
		download:   dl,
		transcode:  tc,
		publish:    pub,
		history:    history,
		gate:       make(chan struct{}, workers),
	}
}

// Process runs the full pipeline for one URL. It never returns an
// error; failures come back as a Result with a classified category.
// The workspace is removed on every exit path before Process returns.
func (c *Controller) Process(ctx context.Context, rawURL string) *Result {
	start := time.Now()

	metrics.PipelineRunsInProgress.Inc()
	defer metrics.PipelineRunsInProgress.Dec()

	videoID, err := downloader.ExtractVideoID(rawURL)
	if err != nil {
		return c.fail(rawURL, "", nil, start, err)
	}

	if cached := c.republished(ctx, videoID, start); cached != nil {
		return cached
	}

	logging.Debug("Pipeline state %s for %s", StateAcquiring, videoID)

	ws, err := c.workspaces.Acquire()
	if err != nil {
		return c.fail(rawURL, videoID, nil, start,
			classify.NewError(classify.Unknown, "failed to allocate scratch space: %v", err))
	}
	defer func() {
		if err := ws.Release(); err != nil {
			logging.Warn("Failed to release workspace %s: %v", ws.Dir(), err)
		}
	}()

	dlStart := time.Now()
	art, attempts, err := c.download.Download(ctx, rawURL, ws.Dir())
	metrics.PipelineStageDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())
	if err != nil {
		return c.fail(rawURL, videoID, attempts, start, err)
	}
	metrics.DownloadBytesTotal.Add(float64(art.SizeBytes))

	logging.Debug("Pipeline state %s for %s", StateTranscoding, videoID)

	if err := c.acquireGate(ctx); err != nil {
		return c.fail(rawURL, videoID, attempts, start, err)
	}

	tcStart := time.Now()
	out, err := func() (*artifact.Artifact, error) {
		defer c.releaseGate()
		return c.transcode.Transcode(ctx, art, ws.Path(outputName))
	}()
	metrics.PipelineStageDuration.WithLabelValues("transcode").Observe(time.Since(tcStart).Seconds())
	if err != nil {
		return c.fail(rawURL, videoID, attempts, start, err)
	}

	logging.Debug("Pipeline state %s for %s", StatePublishing, videoID)

	pubStart := time.Now()
	pubRes, err := c.publish.Publish(ctx, out)
	metrics.PipelineStageDuration.WithLabelValues("publish").Observe(time.Since(pubStart).Seconds())
	if err != nil {
		return c.fail(rawURL, videoID, attempts, start, err)
	}

	var strategy string
	if n := len(attempts); n > 0 {
		strategy = attempts[n-1].Strategy
	}

	result := &Result{
		Status:    store.StatusSuccess,
		PublicURL: pubRes.PublicURL,
		Duration:  out.Duration,
		SizeBytes: pubRes.SizeBytes,
		VideoID:   videoID,
		Title:     out.Title,
		Message:   fmt.Sprintf("Video processed successfully using the %s strategy", strategy),
		Attempts:  attempts,
		Strategy:  strategy,
		Elapsed:   time.Since(start),
	}

	metrics.PipelineRunsTotal.WithLabelValues(store.StatusSuccess, "none").Inc()
	c.record(rawURL, result)

	logging.Debug("Pipeline state %s for %s", StateDone, videoID)
	logging.Info("Pipeline finished for %s in %s: %s", videoID,
		result.Elapsed.Round(time.Second), result.PublicURL)

	return result
}

// republished answers from the history store when the cache is enabled
// and the video already has a published copy. Lookup errors degrade to
// a cache miss.
func (c *Controller) republished(ctx context.Context, videoID string, start time.Time) *Result {
	if !c.cfg.RepublishCache || c.history == nil {
		return nil
	}

	prior, err := c.history.FindPublished(ctx, videoID)
	if err != nil {
		logging.Warn("Republish lookup for %s failed: %v", videoID, err)
		return nil
	}
	if prior == nil {
		metrics.RepublishCacheMisses.Inc()
		return nil
	}

	metrics.RepublishCacheHits.Inc()
	logging.Info("Republish cache hit for %s: %s", videoID, prior.PublicURL)

	return &Result{
		Status:    store.StatusSuccess,
		PublicURL: prior.PublicURL,
		Duration:  prior.Duration,
		SizeBytes: prior.SizeBytes,
		VideoID:   videoID,
		Title:     prior.Title,
		Message:   "Video was already published; returning the stored URL",
		Strategy:  prior.Strategy,
		Elapsed:   time.Since(start),
		FromCache: true,
	}
}

func (c *Controller) fail(rawURL, videoID string, attempts []downloader.Attempt, start time.Time, err error) *Result {
	category := classify.CategoryOf(err)

	result := &Result{
		Status:   store.StatusFailure,
		VideoID:  videoID,
		Error:    err.Error(),
		Category: category,
		Attempts: attempts,
		Elapsed:  time.Since(start),
	}

	metrics.PipelineRunsTotal.WithLabelValues(store.StatusFailure, string(category)).Inc()
	c.record(rawURL, result)

	logging.Warn("Pipeline failed for %q after %s (%s): %v",
		rawURL, result.Elapsed.Round(time.Millisecond), category, err)

	return result
}

// record writes the run to the history store. Best-effort: a full
// history must never fail a run, and a canceled request must still
// leave a record, so this uses a fresh context.
func (c *Controller) record(rawURL string, result *Result) {
	if c.history == nil {
		return
	}

	run := &store.Run{
		VideoID:   result.VideoID,
		Title:     result.Title,
		SourceURL: rawURL,
		Status:    result.Status,
		Attempts:  len(result.Attempts),
		ElapsedMS: result.Elapsed.Milliseconds(),
	}
	if result.Succeeded() {
		run.PublicURL = result.PublicURL
		run.SizeBytes = result.SizeBytes
		run.Duration = result.Duration
		run.Resolution = ResolutionLabel
		run.Codec = CodecLabel
		run.Strategy = result.Strategy
	} else {
		run.ErrorCategory = string(result.Category)
	}

	if err := c.history.RecordRun(context.Background(), run); err != nil {
		logging.Warn("Failed to record run for %q: %v", rawURL, err)
	}
}

// acquireGate takes a transcode slot, waiting if all encoder slots are
// busy. Waiting respects the request context.
func (c *Controller) acquireGate(ctx context.Context) error {
	gateStart := time.Now()
	select {
	case c.gate <- struct{}{}:
		metrics.TranscodeGateWait.Observe(time.Since(gateStart).Seconds())
		return nil
	case <-ctx.Done():
		return classify.NewError(classify.ProcessingTimeout,
			"canceled while waiting for a transcode slot: %v", ctx.Err())
	}
}

func (c *Controller) releaseGate() {
	<-c.gate
}
