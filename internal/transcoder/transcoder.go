package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"video-relay/internal/artifact"
	"video-relay/internal/classify"
	"video-relay/internal/logging"
	"video-relay/internal/metrics"
)

// minOutputBytes is the smallest plausible encode result. Anything
// smaller is a container header with no media and is discarded.
const minOutputBytes = 1024

// Config holds the encoder invocation settings.
type Config struct {
	FFmpegPath  string
	FFprobePath string
	// Timeout is the wall-clock budget for one encode. Zero disables it.
	Timeout time.Duration
	// MaxOutputBytes rejects outputs larger than this. Zero disables it.
	MaxOutputBytes int64
}

// Transcoder runs ffmpeg encodes as bounded subprocesses.
type Transcoder struct {
	cfg       Config
	processes map[string]*exec.Cmd
	processMu sync.Mutex
}

// MediaInfo contains probe results for a media file.
type MediaInfo struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Codec    string  `json:"codec"`
	HasVideo bool    `json:"hasVideo"`
	HasAudio bool    `json:"hasAudio"`
}

// New creates a new Transcoder instance.
func New(cfg Config) *Transcoder {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}

	return &Transcoder{
		cfg:       cfg,
		processes: make(map[string]*exec.Cmd),
	}
}

// Probe retrieves duration, codec and dimension information via ffprobe.
func (t *Transcoder) Probe(ctx context.Context, filePath string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, t.cfg.FFprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}

	return parseProbe(stdout.Bytes())
}

type probeOutput struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

func parseProbe(data []byte) (*MediaInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("ffprobe output: %w", err)
	}

	info := &MediaInfo{}
	info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			info.HasVideo = true
			if s.Width > info.Width {
				info.Width = s.Width
				info.Height = s.Height
				info.Codec = s.CodecName
			}
		case "audio":
			info.HasAudio = true
		}
	}

	return info, nil
}

// Transcode encodes the artifact into an HEVC MP4 at outPath and
// returns a new artifact describing the result. The source file is
// removed once the transcoded file exists. Audio-only sources are
// rendered onto a static black canvas so the output is always playable
// video.
func (t *Transcoder) Transcode(ctx context.Context, art *artifact.Artifact, outPath string) (*artifact.Artifact, error) {
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	metrics.TranscodeJobsInProgress.Inc()
	defer metrics.TranscodeJobsInProgress.Dec()

	info, err := t.Probe(ctx, art.Path)
	if err != nil {
		logging.Warn("Probe of %s failed, continuing without media info: %v", art.Path, err)
		info = &MediaInfo{}
	}

	duration := art.Duration
	if duration == 0 {
		duration = info.Duration
	}

	var args []string
	if art.AudioOnly {
		logging.Info("Rendering audio-only source for %s onto a black canvas", art.VideoID)
		args = buildAudioCanvasArgs(art.Path, outPath)
	} else {
		logging.Info("Transcoding %s (%s %dx%d, %.0fs) to HEVC", art.VideoID, info.Codec, info.Width, info.Height, duration)
		args = buildVideoArgs(art.Path, outPath)
	}

	start := time.Now()
	err = t.run(ctx, art.Path, args)
	metrics.TranscodeDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() != nil {
			metrics.TranscodeJobsTotal.WithLabelValues("timeout").Inc()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, classify.NewError(classify.ProcessingTimeout,
					"transcoding did not finish within %s", t.cfg.Timeout)
			}
			return nil, classify.NewError(classify.ProcessingTimeout, "transcoding canceled: %v", ctx.Err())
		}
		metrics.TranscodeJobsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	size, err := t.validateOutput(outPath)
	if err != nil {
		metrics.TranscodeJobsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}

	// The source is dead weight once the transcoded file exists.
	if err := os.Remove(art.Path); err != nil {
		logging.Warn("Failed to remove source file %s: %v", art.Path, err)
	}

	metrics.TranscodeJobsTotal.WithLabelValues("success").Inc()
	metrics.TranscodeOutputBytes.Observe(float64(size))

	logging.Info("Transcoded %s in %s: %s", art.VideoID,
		time.Since(start).Round(time.Second), humanize.IBytes(uint64(size)))

	return &artifact.Artifact{
		Path:      outPath,
		SizeBytes: size,
		Duration:  duration,
		VideoID:   art.VideoID,
		Title:     art.Title,
		AudioOnly: art.AudioOnly,
	}, nil
}

// buildVideoArgs produces the encoder invocation for a video source:
// HEVC at CRF 28, scaled so the height never exceeds 720 while widths
// stay even, AAC audio, and a faststart container for instant playback.
func buildVideoArgs(inPath, outPath string) []string {
	return []string{
		"-y",
		"-i", inPath,
		"-c:v", "libx265",
		"-crf", "28",
		"-preset", "medium",
		"-vf", "scale=-2:'min(720,ih)'",
		"-c:a", "aac",
		"-b:a", "96k",
		"-movflags", "+faststart",
		"-avoid_negative_ts", "make_zero",
		"-nostats",
		outPath,
	}
}

// buildAudioCanvasArgs produces the encoder invocation for an
// audio-only source: a 1fps black 720p canvas muxed with the audio
// track, trimmed to the shorter of the two.
func buildAudioCanvasArgs(inPath, outPath string) []string {
	return []string{
		"-y",
		"-f", "lavfi",
		"-i", "color=c=black:s=1280x720:r=1",
		"-i", inPath,
		"-c:v", "libx265",
		"-crf", "28",
		"-preset", "medium",
		"-c:a", "aac",
		"-b:a", "96k",
		"-shortest",
		"-movflags", "+faststart",
		"-nostats",
		outPath,
	}
}

// run executes ffmpeg while tracking the process so Cleanup can kill it
// during shutdown.
func (t *Transcoder) run(ctx context.Context, sourcePath string, args []string) error {
	cmd := exec.CommandContext(ctx, t.cfg.FFmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	t.processMu.Lock()
	t.processes[sourcePath] = cmd
	t.processMu.Unlock()

	defer func() {
		t.processMu.Lock()
		delete(t.processes, sourcePath)
		t.processMu.Unlock()
	}()

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return err
		}
		logging.Error("FFmpeg stderr: %s", stderr.String())
		return classify.NewError(classify.ProcessingFailed, "encoder failed: %s", lastUsefulLine(stderr.String()))
	}

	return nil
}

// validateOutput checks the encode result before it is handed to the
// publisher.
func (t *Transcoder) validateOutput(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, classify.NewError(classify.ProcessingFailed, "encoder exited cleanly but produced no output file")
	}

	size := info.Size()
	if size < minOutputBytes {
		return 0, classify.NewError(classify.ProcessingFailed, "transcoded file is only %d bytes, discarding as corrupt", size)
	}
	if t.cfg.MaxOutputBytes > 0 && size > t.cfg.MaxOutputBytes {
		return 0, classify.NewError(classify.ProcessingFailed, "transcoded file is %s, over the %s limit",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(t.cfg.MaxOutputBytes)))
	}

	return size, nil
}

// lastUsefulLine condenses encoder stderr down to the line that usually
// carries the actual failure reason.
func lastUsefulLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" {
			return line
		}
	}
	return "no encoder output"
}

// Cleanup stops all active encoder processes.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for path, cmd := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing encoder process for: %s", path)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill encoder process for %s: %v", path, err)
			}
		}
	}
}
