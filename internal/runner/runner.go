// Package runner executes one agent run per project as a single
// load, run and save transaction.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/CageChen/workset/internal/agent"
	"github.com/CageChen/workset/internal/preview"
	"github.com/CageChen/workset/internal/storage"
	"github.com/CageChen/workset/internal/tools"
	"github.com/CageChen/workset/internal/vfs"
)

// ErrProjectBusy is returned when a project already has a run in flight.
var ErrProjectBusy = errors.New("project has a run in progress")

// Request starts a run.
type Request struct {
	ProjectID string
	Prompt    string
	Model     agent.Model
	MaxSteps  int
	OnEvent   agent.Callback
}

// Result summarizes a persisted run.
type Result struct {
	ProjectID  string           `json:"project_id"`
	Transcript []agent.Message  `json:"transcript"`
	Steps      int              `json:"steps"`
	Reason     agent.StopReason `json:"reason"`
	Version    uint64           `json:"version"`
	Snapshot   vfs.Snapshot     `json:"-"`
	Preview    *preview.Bundle  `json:"preview,omitempty"`
}

// Runner serializes runs per project.
type Runner struct {
	store    storage.Store
	registry *tools.Registry
	previews *preview.Manager
	logger   *slog.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// New creates a runner. previews may be nil, in which case no preview is
// refreshed after a run.
func New(store storage.Store, registry *tools.Registry, previews *preview.Manager, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		store:    store,
		registry: registry,
		previews: previews,
		logger:   logger,
		active:   make(map[string]struct{}),
	}
}

func (r *Runner) acquire(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.active[id]; busy {
		return false
	}
	r.active[id] = struct{}{}
	return true
}

func (r *Runner) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

// Busy reports whether a project has a run in flight.
func (r *Runner) Busy(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, busy := r.active[id]
	return busy
}

// Load reconstructs a project's tree and transcript. A project that was
// never saved starts empty.
func (r *Runner) Load(ctx context.Context, projectID string) (*vfs.FS, []agent.Message, error) {
	rec, ok, err := r.store.Get(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return vfs.New(), nil, nil
	}
	fsys, err := vfs.Deserialize(rec.Snapshot)
	if err != nil {
		return nil, nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	return fsys, rec.Transcript, nil
}

// Run loads the project, drives the loop and persists the outcome. A
// transport failure persists nothing, leaving the previous snapshot in place.
// Cancellation still persists every round that completed.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if err := storage.ValidateProjectID(req.ProjectID); err != nil {
		return nil, err
	}
	if !r.acquire(req.ProjectID) {
		return nil, fmt.Errorf("%w: %s", ErrProjectBusy, req.ProjectID)
	}
	defer r.release(req.ProjectID)

	logger := r.logger.With("project", req.ProjectID)

	fsys, transcript, err := r.Load(ctx, req.ProjectID)
	if err != nil {
		logger.Error("failed to load project", "error", err)
		return nil, err
	}
	transcript = append(transcript, agent.Message{Role: agent.RoleUser, Content: req.Prompt})

	loop := agent.NewLoop(req.Model, r.registry, req.MaxSteps, logger)
	if req.OnEvent != nil {
		loop.OnEvent(req.OnEvent)
	}
	logger.Info("run started", "max_steps", loop.MaxSteps(), "nodes", fsys.Len())

	res, err := loop.Run(ctx, fsys, transcript)
	if err != nil {
		logger.Warn("run aborted, nothing persisted", "error", err)
		return nil, err
	}

	snap := vfs.Serialize(fsys)
	// Saving must not be skipped when the caller's context is what stopped the run.
	saveCtx := context.WithoutCancel(ctx)
	if err := r.store.Put(saveCtx, req.ProjectID, snap, res.Transcript); err != nil {
		logger.Error("failed to save project", "error", err)
		return nil, fmt.Errorf("failed to save project %s: %w", req.ProjectID, err)
	}

	out := &Result{
		ProjectID:  req.ProjectID,
		Transcript: res.Transcript,
		Steps:      res.Steps,
		Reason:     res.Reason,
		Version:    res.Version,
		Snapshot:   snap,
	}
	if r.previews != nil {
		b, err := r.previews.Refresh(req.ProjectID, snap, res.Version)
		if err != nil {
			logger.Warn("preview refresh failed", "error", err)
		} else {
			out.Preview = b
		}
	}
	logger.Info("run saved", "steps", res.Steps, "reason", res.Reason, "version", res.Version)
	return out, nil
}
