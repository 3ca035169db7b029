package handler

import (
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/CageChen/workset/internal/render"
)

// FileHandler handles file content requests
type FileHandler struct {
	store    Store
	renderer *render.Renderer
}

// NewFileHandler creates a new file handler
func NewFileHandler(store Store, renderer *render.Renderer) *FileHandler {
	return &FileHandler{
		store:    store,
		renderer: renderer,
	}
}

// GetFile returns a file rendered to HTML: Markdown with its table of
// contents, anything else as highlighted source
func (h *FileHandler) GetFile(c *gin.Context) {
	fsys, _, ok := loadTree(c, h.store)
	if !ok {
		return
	}

	doc, err := h.renderer.File(fsys, c.Param("path"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// GetRaw returns the file content as stored
func (h *FileHandler) GetRaw(c *gin.Context) {
	fsys, _, ok := loadTree(c, h.store)
	if !ok {
		return
	}

	content, err := fsys.ReadFile(c.Param("path"))
	if err != nil {
		respondError(c, err)
		return
	}
	data := []byte(content)
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

// GetStyle returns the stylesheet for highlighted source
func (h *FileHandler) GetStyle(c *gin.Context) {
	css, err := h.renderer.CSS()
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/css; charset=utf-8", []byte(css))
}
