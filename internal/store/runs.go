package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"video-relay/internal/logging"
	"video-relay/internal/metrics"
)

// Run statuses as stored in the history table.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Default and maximum page sizes for history queries.
const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Run is one recorded pipeline outcome.
type Run struct {
	ID            string    `json:"id"`
	VideoID       string    `json:"video_id"`
	Title         string    `json:"title,omitempty"`
	SourceURL     string    `json:"source_url"`
	Status        string    `json:"status"`
	ErrorCategory string    `json:"error_category,omitempty"`
	PublicURL     string    `json:"public_url,omitempty"`
	SizeBytes     int64     `json:"size_bytes,omitempty"`
	Duration      float64   `json:"duration,omitempty"`
	Resolution    string    `json:"resolution,omitempty"`
	Codec         string    `json:"codec,omitempty"`
	Strategy      string    `json:"strategy,omitempty"`
	Attempts      int       `json:"attempts"`
	ElapsedMS     int64     `json:"elapsed_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

const runColumns = `id, video_id, title, source_url, status, error_category,
	public_url, size_bytes, duration, resolution, codec, strategy,
	attempts, elapsed_ms, created_at`

// RecordRun inserts one run record. A missing ID is generated.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("record_run", start, err) }()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, video_id, title, source_url, status, error_category,
			public_url, size_bytes, duration, resolution, codec, strategy,
			attempts, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.VideoID, run.Title, run.SourceURL, run.Status, run.ErrorCategory,
		run.PublicURL, run.SizeBytes, run.Duration, run.Resolution, run.Codec, run.Strategy,
		run.Attempts, run.ElapsedMS,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns the newest runs, most recent first. A non-positive
// limit falls back to the default page size.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("recent", start, err) }()

	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			err = scanErr
			return nil, err
		}
		runs = append(runs, *run)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}

	return runs, nil
}

// LatestByVideoID returns the most recent run for one video, or nil
// when the video has never been processed.
func (s *Store) LatestByVideoID(ctx context.Context, videoID string) (*Run, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("latest_by_video", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE video_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, videoID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, nil
	}
	return run, err
}

// FindPublished returns the most recent successful run with a public
// URL for one video, or nil when none exists. This backs the republish
// cache.
func (s *Store) FindPublished(ctx context.Context, videoID string) (*Run, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("find_published", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE video_id = ? AND status = ? AND public_url != ''
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, videoID, StatusSuccess)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, nil
	}
	return run, err
}

// GetStats returns the aggregate run counters. It satisfies the metrics
// collector's StatsProvider and therefore swallows query errors,
// logging them instead.
func (s *Store) GetStats() metrics.Stats {
	start := time.Now()
	var err error
	defer func() { recordQuery("stats", start, err) }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var stats metrics.Stats
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN size_bytes ELSE 0 END), 0)
		FROM runs`, StatusSuccess, StatusFailure, StatusSuccess,
	).Scan(&stats.TotalRuns, &stats.Succeeded, &stats.Failed, &stats.PublishedBytes)
	if err != nil {
		logging.Warn("failed to query run stats: %v", err)
		return metrics.Stats{}
	}

	return stats
}

// PruneRuns deletes all but the newest keep runs and returns how many
// rows were removed.
func (s *Store) PruneRuns(ctx context.Context, keep int) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("prune_runs", start, err) }()

	if keep < 0 {
		keep = 0
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs
		WHERE id NOT IN (
			SELECT id FROM runs
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned runs: %w", err)
	}
	return removed, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var createdAt int64

	err := sc.Scan(
		&run.ID, &run.VideoID, &run.Title, &run.SourceURL, &run.Status,
		&run.ErrorCategory, &run.PublicURL, &run.SizeBytes, &run.Duration,
		&run.Resolution, &run.Codec, &run.Strategy, &run.Attempts,
		&run.ElapsedMS, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	run.CreatedAt = time.Unix(createdAt, 0)
	return &run, nil
}
