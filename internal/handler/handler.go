// Package handler provides HTTP handlers for the Workset REST API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/workset/internal/agent"
	"github.com/CageChen/workset/internal/runner"
	"github.com/CageChen/workset/internal/storage"
	"github.com/CageChen/workset/internal/vfs"
)

// Store is the persistence the handlers read from.
type Store interface {
	storage.Store
	List(ctx context.Context) ([]string, error)
}

// errorStatus maps an error onto the response status clients see.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrInvalidProject), errors.Is(err, vfs.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, vfs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, runner.ErrProjectBusy):
		return http.StatusConflict
	case errors.Is(err, vfs.ErrCorruptState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, agent.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	if code := vfs.Code(err); code != "" {
		body["code"] = code
	}
	c.JSON(errorStatus(err), body)
}

// loadTree reads a stored project into a fresh tree. It responds and
// returns false when the project cannot be served.
func loadTree(c *gin.Context, store storage.Store) (*vfs.FS, []agent.Message, bool) {
	id := c.Param("id")
	rec, ok, err := store.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return nil, nil, false
	}
	fsys, err := vfs.Deserialize(rec.Snapshot)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	return fsys, rec.Transcript, true
}

// Register mounts every API route on api.
func Register(api gin.IRouter, projects *ProjectHandler, tree *TreeHandler, files *FileHandler, ws *WSHandler) {
	api.GET("/projects", projects.ListProjects)
	api.POST("/projects/:id/runs", projects.Run)
	api.GET("/projects/:id/snapshot", projects.GetSnapshot)
	api.GET("/projects/:id/transcript", projects.GetTranscript)
	api.GET("/projects/:id/preview", projects.GetPreview)
	api.DELETE("/projects/:id/preview", projects.DeletePreview)

	api.GET("/projects/:id/tree", tree.GetTree)
	api.GET("/projects/:id/files/*path", files.GetFile)
	api.GET("/projects/:id/raw/*path", files.GetRaw)
	api.GET("/style.css", files.GetStyle)

	api.GET("/ws", ws.HandleWS)
}
