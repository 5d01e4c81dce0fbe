// Package publisher uploads transcoded artifacts to S3-compatible object
// storage and builds the public URLs handed back to callers.
package publisher

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"video-relay/internal/artifact"
	"video-relay/internal/classify"
	"video-relay/internal/logging"
)

// Observer receives upload telemetry. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveUpload(durationSeconds float64, sizeBytes int64, err error)
	ObserveRetry()
}

// Config holds the object storage connection settings.
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Folder        string
	UseSSL        bool
	PublicBaseURL string
}

// RetryConfig configures retry behavior for uploads.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for transient object
// storage failures.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     5 * time.Second,
	}
}

// objectStore is the slice of the minio client the publisher needs.
type objectStore interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
}

// Result describes one completed upload.
type Result struct {
	PublicURL string
	Key       string
	SizeBytes int64
}

// Client publishes artifacts into a single bucket/folder. The same video
// id always maps to the same object key, so republishing overwrites.
type Client struct {
	cfg      Config
	retry    RetryConfig
	store    objectStore
	observer Observer
}

// New creates a client for the configured endpoint. The observer may be
// nil. No network traffic happens here; use Ping to verify reachability.
func New(cfg Config, observer Observer) (*Client, error) {
	cfg.Endpoint = trimScheme(cfg.Endpoint)
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	return &Client{
		cfg:      cfg,
		retry:    DefaultRetryConfig(),
		store:    mc,
		observer: observer,
	}, nil
}

// Ping verifies the configured bucket exists and is reachable.
func (c *Client) Ping(ctx context.Context) error {
	exists, err := c.store.BucketExists(ctx, c.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("storage unreachable: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", c.cfg.Bucket)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.cfg.Bucket
}

// Publish uploads the artifact and returns its public URL.
func (c *Client) Publish(ctx context.Context, art *artifact.Artifact) (*Result, error) {
	key := c.objectKey(art.VideoID)

	info, err := os.Stat(art.Path)
	if err != nil {
		return nil, classify.NewError(classify.PublishFailed, "artifact missing before upload: %v", err)
	}
	size := info.Size()

	logging.Info("Uploading %s (%s) to bucket %s", key, humanize.IBytes(uint64(size)), c.cfg.Bucket)

	start := time.Now()
	err = c.upload(ctx, key, art.Path)
	elapsed := time.Since(start)

	if c.observer != nil {
		c.observer.ObserveUpload(elapsed.Seconds(), size, err)
	}
	if err != nil {
		return nil, classify.NewError(classify.PublishFailed, "upload failed after %d attempts: %v", c.retry.MaxAttempts, err)
	}

	url := c.PublicURL(key)
	logging.Info("Published %s in %.1fs: %s", key, elapsed.Seconds(), url)

	return &Result{PublicURL: url, Key: key, SizeBytes: size}, nil
}

// upload runs the FPutObject call with capped exponential backoff.
// Context cancellation stops the retry loop immediately.
func (c *Client) upload(ctx context.Context, key, path string) error {
	opts := minio.PutObjectOptions{ContentType: "video/mp4"}

	var lastErr error
	backoff := c.retry.InitialBackoff

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		_, err := c.store.FPutObject(ctx, c.cfg.Bucket, key, path, opts)
		if err == nil {
			if attempt > 1 {
				logging.Info("Upload of %s succeeded on attempt %d", key, attempt)
			}
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return lastErr
		}
		if attempt == c.retry.MaxAttempts {
			break
		}

		if c.observer != nil {
			c.observer.ObserveRetry()
		}
		logging.Warn("Upload of %s failed (attempt %d/%d), retrying in %v: %v",
			key, attempt, c.retry.MaxAttempts, backoff, err)

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > c.retry.MaxBackoff {
			backoff = c.retry.MaxBackoff
		}
	}

	return lastErr
}

// unsafeKeyChars matches anything outside the characters allowed in an
// object key segment. Video ids are already restricted to this set, so
// replacement only fires on hostile input.
var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func (c *Client) objectKey(videoID string) string {
	id := unsafeKeyChars.ReplaceAllString(videoID, "_")
	if id == "" {
		id = "video"
	}
	folder := strings.Trim(c.cfg.Folder, "/")
	if folder == "" {
		return id + ".mp4"
	}
	return folder + "/" + id + ".mp4"
}

// PublicURL builds the externally reachable URL for an object key. A
// configured public base URL replaces the storage endpoint, which lets a
// CDN front the bucket.
func (c *Client) PublicURL(key string) string {
	if c.cfg.PublicBaseURL != "" {
		return strings.TrimRight(c.cfg.PublicBaseURL, "/") + "/" + c.cfg.Bucket + "/" + key
	}
	scheme := "http"
	if c.cfg.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + c.cfg.Endpoint + "/" + c.cfg.Bucket + "/" + key
}

func trimScheme(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimRight(endpoint, "/")
}
