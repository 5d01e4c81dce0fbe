package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"video-relay/internal/logging"
)

// StatsProvider supplies run-history totals for the gauges.
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current run-history statistics.
type Stats struct {
	TotalRuns      int
	Succeeded      int
	Failed         int
	PublishedBytes int64
}

// Collector periodically refreshes the gauges that describe persistent
// state: run-history totals, SQLite file sizes, and scratch-space usage.
type Collector struct {
	statsProvider StatsProvider
	dbPath        string
	workRoot      string
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector. dbPath and workRoot may
// be empty; the matching gauges are then skipped.
func NewCollector(provider StatsProvider, dbPath, workRoot string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		dbPath:        dbPath,
		workRoot:      workRoot,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	c.collectDBSize()
	c.collectWorkspaceUsage()

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	HistoryRuns.WithLabelValues("success").Set(float64(stats.Succeeded))
	HistoryRuns.WithLabelValues("failure").Set(float64(stats.Failed))
	HistoryPublishedBytes.Set(float64(stats.PublishedBytes))

	logging.Debug("Metrics collected: runs=%d, succeeded=%d, failed=%d, published=%d bytes",
		stats.TotalRuns, stats.Succeeded, stats.Failed, stats.PublishedBytes)
}

// collectDBSize reports the sizes of the SQLite main, WAL and shared
// memory files.
func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}

	files := map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	}

	for label, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			StoreSizeBytes.WithLabelValues(label).Set(0)
			continue
		}
		StoreSizeBytes.WithLabelValues(label).Set(float64(info.Size()))
	}
}

// collectWorkspaceUsage reports how much scratch space live request
// workspaces are holding. A climbing value between requests means a
// cleanup path is leaking.
func (c *Collector) collectWorkspaceUsage() {
	if c.workRoot == "" {
		return
	}

	entries, err := os.ReadDir(c.workRoot)
	if err != nil {
		return
	}

	var dirs int
	var total int64
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "job-") {
			continue
		}
		dirs++
		size, err := dirSize(filepath.Join(c.workRoot, e.Name()))
		if err != nil {
			continue
		}
		total += size
	}

	WorkspaceDirs.Set(float64(dirs))
	WorkspaceBytes.Set(float64(total))
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
