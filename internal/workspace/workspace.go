package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"video-relay/internal/logging"

	"github.com/google/uuid"
)

const jobPrefix = "job-"

// Manager hands out request-scoped scratch directories under a single
// configured root.
type Manager struct {
	root string
}

// NewManager creates the scratch root if needed and verifies it is
// writable.
func NewManager(root string) (*Manager, error) {
	if root == "" {
		return nil, fmt.Errorf("workspace root not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root %s: %w", root, err)
	}

	probe := filepath.Join(root, ".write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return nil, fmt.Errorf("workspace root %s is not writable: %w", root, err)
	}
	os.Remove(probe)

	return &Manager{root: root}, nil
}

// Root returns the scratch root directory.
func (m *Manager) Root() string {
	return m.root
}

// Acquire creates a fresh uniquely named directory for one request.
// The caller owns the returned handle and must Release it; Release is
// safe on every exit path and safe to call more than once.
func (m *Manager) Acquire() (*Workspace, error) {
	dir := filepath.Join(m.root, jobPrefix+uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	logging.Debug("Workspace acquired: %s", dir)
	return &Workspace{dir: dir}, nil
}

// Sweep removes leftover job directories from previous runs of the
// process. Entries not created by Acquire are left alone.
func (m *Manager) Sweep() int {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		logging.Warn("Workspace sweep failed to read %s: %v", m.root, err)
		return 0
	}

	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), jobPrefix) {
			continue
		}
		stale := filepath.Join(m.root, e.Name())
		if err := os.RemoveAll(stale); err != nil {
			logging.Warn("Failed to remove stale workspace %s: %v", stale, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		logging.Info("Swept %d stale workspace(s) from %s", removed, m.root)
	}
	return removed
}

// Workspace is one request's scratch directory.
type Workspace struct {
	dir string

	mu       sync.Mutex
	released bool
}

// Dir returns the workspace directory path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins a file name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Release removes the directory and everything under it. Idempotent:
// repeated calls after the first are no-ops.
func (w *Workspace) Release() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.released {
		return nil
	}
	w.released = true

	if err := os.RemoveAll(w.dir); err != nil {
		logging.Error("Failed to remove workspace %s: %v", w.dir, err)
		return err
	}
	logging.Debug("Workspace released: %s", w.dir)
	return nil
}
