// Package vfs provides the in-memory file tree an agent run edits, and its snapshot form.
package vfs

import "sort"

// NodeType distinguishes files from directories.
type NodeType string

// Node types.
const (
	TypeFile      NodeType = "file"
	TypeDirectory NodeType = "directory"
)

// Node is a copy of one tree entry.
type Node struct {
	Path     string
	Type     NodeType
	Content  string   // empty for directories
	Children []string // immediate child paths, sorted; directories only
}

// IsDir reports whether the node is a directory.
func (n Node) IsDir() bool {
	return n.Type == TypeDirectory
}

// FileInfo holds node metadata.
type FileInfo struct {
	Name  string
	Path  string
	IsDir bool
	Size  int64
}

// DirEntry represents a single directory entry.
type DirEntry struct {
	Name  string
	Path  string
	IsDir bool
}

// Reader is the read-only view of a tree used by the HTTP layer and the preview.
type Reader interface {
	ReadFile(path string) (string, error)
	Stat(path string) (FileInfo, error)
	List(path string) ([]DirEntry, error)
}

// entry is the arena record behind a Node. Children are keyed by full path.
type entry struct {
	typ      NodeType
	content  string
	children map[string]struct{}
}

func newDir() *entry {
	return &entry{typ: TypeDirectory, children: make(map[string]struct{})}
}

func newFile(content string) *entry {
	return &entry{typ: TypeFile, content: content}
}

func (e *entry) node(path string) Node {
	n := Node{Path: path, Type: e.typ, Content: e.content}
	if e.typ == TypeDirectory {
		n.Children = make([]string, 0, len(e.children))
		for c := range e.children {
			n.Children = append(n.Children, c)
		}
		sort.Strings(n.Children)
	}
	return n
}
