// Package preview prepares what the client-side compiler consumes: the
// file contents of a project and the entry point it should start from.
package preview

import (
	"sort"

	"github.com/google/uuid"

	"github.com/CageChen/workset/internal/langdetect"
	"github.com/CageChen/workset/internal/vfs"
)

// DefaultEntryPoints are probed in order when no candidates are configured.
var DefaultEntryPoints = []string{"/App.jsx", "/App.tsx", "/index.jsx", "/index.tsx"}

// Bundle is one compiled-module handle's worth of input.
type Bundle struct {
	ID            string            `json:"id"`
	Version       uint64            `json:"version"`
	Files         map[string]string `json:"files"`
	EntryPoint    string            `json:"entry_point,omitempty"`
	HasEntryPoint bool              `json:"has_entry_point"`
	Languages     map[string]string `json:"languages"`
}

// Paths returns the bundle's file paths, sorted.
func (b *Bundle) Paths() []string {
	paths := make([]string, 0, len(b.Files))
	for p := range b.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// DetectEntryPoint returns the first candidate present in files.
func DetectEntryPoint(files map[string]string, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		candidates = DefaultEntryPoints
	}
	for _, c := range candidates {
		p, err := vfs.Normalize(c)
		if err != nil {
			continue
		}
		if _, ok := files[p]; ok {
			return p, true
		}
	}
	return "", false
}

// NewBundle builds a bundle from a snapshot. Directories are dropped.
func NewBundle(snap vfs.Snapshot, version uint64, candidates []string) *Bundle {
	files := snap.Files()
	b := &Bundle{
		ID:        uuid.NewString(),
		Version:   version,
		Files:     files,
		Languages: make(map[string]string, len(files)),
	}
	b.EntryPoint, b.HasEntryPoint = DetectEntryPoint(files, candidates)
	for p, content := range files {
		if lang := langdetect.Detect(p, content); lang != "" {
			b.Languages[p] = lang
		}
	}
	return b
}
