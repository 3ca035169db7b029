package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/workset/internal/agent"
	"github.com/CageChen/workset/internal/preview"
	"github.com/CageChen/workset/internal/runner"
	"github.com/CageChen/workset/internal/vfs"
)

// Models picks the model and budget for a run.
type Models struct {
	Live      agent.Model
	LiveSteps int
	Mock      agent.Model
	MockSteps int
}

// RunRequest starts a run on a project
type RunRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Mock   bool   `json:"mock"`
}

// RunResponse summarizes a saved run
type RunResponse struct {
	ProjectID     string           `json:"project_id"`
	Reason        agent.StopReason `json:"reason"`
	Steps         int              `json:"steps"`
	Version       uint64           `json:"version"`
	EntryPoint    string           `json:"entry_point,omitempty"`
	HasEntryPoint bool             `json:"has_entry_point"`
	PreviewID     string           `json:"preview_id,omitempty"`
	Transcript    []agent.Message  `json:"transcript"`
}

// ProjectHandler handles runs and project state requests
type ProjectHandler struct {
	store    Store
	runner   *runner.Runner
	previews *preview.Manager
	models   Models
	ws       *WSHandler
	logger   *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(store Store, r *runner.Runner, previews *preview.Manager, models Models, ws *WSHandler, logger *slog.Logger) *ProjectHandler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ProjectHandler{
		store:    store,
		runner:   r,
		previews: previews,
		models:   models,
		ws:       ws,
		logger:   logger,
	}
}

// ListProjects returns the IDs of every stored project
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	ids, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"projects": ids})
}

// Run executes one agent run and returns its summary. The run stops at the
// next round boundary if the client goes away.
func (h *ProjectHandler) Run(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "prompt is required",
		})
		return
	}

	model, steps := h.models.Mock, h.models.MockSteps
	if !req.Mock {
		model, steps = h.models.Live, h.models.LiveSteps
	}
	if model == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "no model endpoint configured, retry with mock enabled",
		})
		return
	}

	id := c.Param("id")
	var onEvent agent.Callback
	if h.ws != nil {
		onEvent = h.ws.OnRunEvent(id)
	}

	res, err := h.runner.Run(c.Request.Context(), runner.Request{
		ProjectID: id,
		Prompt:    req.Prompt,
		Model:     model,
		MaxSteps:  steps,
		OnEvent:   onEvent,
	})
	if err != nil {
		h.logger.Warn("run failed", "project", id, "error", err)
		respondError(c, err)
		return
	}

	resp := RunResponse{
		ProjectID:  res.ProjectID,
		Reason:     res.Reason,
		Steps:      res.Steps,
		Version:    res.Version,
		Transcript: res.Transcript,
	}
	if res.Preview != nil {
		resp.EntryPoint = res.Preview.EntryPoint
		resp.HasEntryPoint = res.Preview.HasEntryPoint
		resp.PreviewID = res.Preview.ID
	}
	c.JSON(http.StatusOK, resp)
}

// GetSnapshot returns the stored snapshot in its persisted form
func (h *ProjectHandler) GetSnapshot(c *gin.Context) {
	rec, ok, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, rec.Snapshot)
}

// GetTranscript returns the stored transcript
func (h *ProjectHandler) GetTranscript(c *gin.Context) {
	rec, ok, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	transcript := rec.Transcript
	if transcript == nil {
		transcript = []agent.Message{}
	}
	c.JSON(http.StatusOK, transcript)
}

// GetPreview returns the live preview bundle, building one from the stored
// snapshot when the project has no session yet
func (h *ProjectHandler) GetPreview(c *gin.Context) {
	id := c.Param("id")
	if b, ok := h.previews.Current(id); ok {
		c.JSON(http.StatusOK, b)
		return
	}

	fsys, _, ok := loadTree(c, h.store)
	if !ok {
		return
	}
	b, err := h.previews.Refresh(id, vfs.Serialize(fsys), fsys.Version())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DeletePreview ends the project's preview session
func (h *ProjectHandler) DeletePreview(c *gin.Context) {
	if !h.previews.Close(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no preview session"})
		return
	}
	c.Status(http.StatusNoContent)
}
