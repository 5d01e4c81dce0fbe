package handlers

import (
	"context"
	"time"

	"video-relay/internal/pipeline"
	"video-relay/internal/startup"
	"video-relay/internal/store"
	"video-relay/internal/workspace"
)

// Processor runs one source URL through download, transcode and publish.
type Processor interface {
	Process(ctx context.Context, rawURL string) *pipeline.Result
}

// HistoryStore is the slice of the run store the API reads from.
type HistoryStore interface {
	Recent(ctx context.Context, limit int) ([]store.Run, error)
	LatestByVideoID(ctx context.Context, videoID string) (*store.Run, error)
	Ping(ctx context.Context) error
}

// StoragePinger verifies the object store is reachable.
type StoragePinger interface {
	Ping(ctx context.Context) error
	Bucket() string
}

type Handlers struct {
	cfg        *startup.Config
	processor  Processor
	history    HistoryStore
	storage    StoragePinger
	workspaces *workspace.Manager
	started    time.Time
}

func New(cfg *startup.Config, proc Processor, history HistoryStore, storage StoragePinger, workspaces *workspace.Manager) *Handlers {
	return &Handlers{
		cfg:        cfg,
		processor:  proc,
		history:    history,
		storage:    storage,
		workspaces: workspaces,
		started:    time.Now(),
	}
}
