package handler

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/workset/internal/config"
	"github.com/CageChen/workset/internal/langdetect"
	"github.com/CageChen/workset/internal/vfs"
)

// TreeNode represents a file or directory in the tree
type TreeNode struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Path     string      `json:"path"`
	Children []*TreeNode `json:"children,omitempty"`
	Size     int64       `json:"size,omitempty"`
	Language string      `json:"language,omitempty"`
	Vendored bool        `json:"vendored,omitempty"`
}

// TreeHandler handles project tree requests
type TreeHandler struct {
	cfg   *config.Config
	store Store
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(cfg *config.Config, store Store) *TreeHandler {
	return &TreeHandler{cfg: cfg, store: store}
}

// GetTree returns the nested tree of a project
func (h *TreeHandler) GetTree(c *gin.Context) {
	fsys, _, ok := loadTree(c, h.store)
	if !ok {
		return
	}

	tree, err := h.buildTree(fsys, vfs.Root)
	if err != nil {
		respondError(c, err)
		return
	}
	tree.Name = c.Param("id")
	c.JSON(http.StatusOK, gin.H{
		"version": fsys.Version(),
		"tree":    tree,
	})
}

func (h *TreeHandler) buildTree(r vfs.Reader, p string) (*TreeNode, error) {
	info, err := r.Stat(p)
	if err != nil {
		return nil, err
	}

	node := &TreeNode{
		Name: info.Name,
		Path: info.Path,
	}

	if !info.IsDir {
		node.Type = string(vfs.TypeFile)
		node.Size = info.Size
		node.Language = langdetect.Detect(info.Path, "")
		node.Vendored = langdetect.IsVendor(info.Path)
		return node, nil
	}

	node.Type = string(vfs.TypeDirectory)
	entries, err := r.List(p)
	if err != nil {
		return nil, err
	}

	// Sort: directories first, then files, both alphabetically
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	for _, entry := range entries {
		if h.cfg != nil && h.cfg.IsExcluded(entry.Name) {
			continue
		}
		child, err := h.buildTree(r, entry.Path)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}
