package vfs

import (
	"sort"
	"strings"
)

// FS is an in-memory file tree. Nodes live in one arena keyed by normalized
// path. An FS belongs to a single run and is not safe for concurrent use.
type FS struct {
	nodes   map[string]*entry
	version uint64
}

// New creates a tree holding only the root directory.
func New() *FS {
	return &FS{nodes: map[string]*entry{Root: newDir()}}
}

// Version returns the mutation counter. It grows by one per successful
// mutating call, however many nodes the call touched.
func (fs *FS) Version() uint64 {
	return fs.version
}

// Len returns the number of nodes, root included.
func (fs *FS) Len() int {
	return len(fs.nodes)
}

func (fs *FS) resolve(op, raw string) (string, *entry, error) {
	p, err := normalize(raw)
	if err != nil {
		return "", nil, newError(op, raw, err)
	}
	return p, fs.nodes[p], nil
}

// checkAncestors fails if any ancestor of p exists as a file.
func (fs *FS) checkAncestors(op, p string) error {
	for _, a := range ancestors(p) {
		if e, ok := fs.nodes[a]; ok && e.typ != TypeDirectory {
			return newError(op, p, detail(ErrPathConflict, "ancestor %s is a file", a))
		}
	}
	return nil
}

// materialize creates the missing ancestors of p. Callers run checkAncestors first.
func (fs *FS) materialize(p string) {
	for _, a := range ancestors(p) {
		if _, ok := fs.nodes[a]; ok {
			continue
		}
		fs.nodes[a] = newDir()
		fs.link(a)
	}
}

func (fs *FS) link(p string) {
	fs.nodes[Parent(p)].children[p] = struct{}{}
}

// subtree returns p and all of its descendants.
func (fs *FS) subtree(p string) []string {
	out := []string{p}
	for i := 0; i < len(out); i++ {
		for c := range fs.nodes[out[i]].children {
			out = append(out, c)
		}
	}
	return out
}

// CreateFile writes content at path, replacing an existing file. Missing
// ancestor directories are created.
func (fs *FS) CreateFile(path, content string) error {
	p, e, err := fs.resolve(OpCreate, path)
	if err != nil {
		return err
	}
	if e != nil && e.typ == TypeDirectory {
		return newError(OpCreate, p, detail(ErrPathConflict, "a directory exists at this path"))
	}
	if err := fs.checkAncestors(OpCreate, p); err != nil {
		return err
	}

	fs.materialize(p)
	if e != nil {
		e.content = content
	} else {
		fs.nodes[p] = newFile(content)
		fs.link(p)
	}
	fs.version++
	return nil
}

// MakeDir creates a directory and any missing ancestors. An existing
// directory at path is left as is.
func (fs *FS) MakeDir(path string) error {
	p, e, err := fs.resolve(OpMkdir, path)
	if err != nil {
		return err
	}
	if e != nil && e.typ != TypeDirectory {
		return newError(OpMkdir, p, detail(ErrPathConflict, "a file exists at this path"))
	}
	if err := fs.checkAncestors(OpMkdir, p); err != nil {
		return err
	}

	fs.materialize(p)
	if e == nil {
		fs.nodes[p] = newDir()
		fs.link(p)
	}
	fs.version++
	return nil
}

// ReadFile returns the content of the file at path.
func (fs *FS) ReadFile(path string) (string, error) {
	p, e, err := fs.resolve(OpRead, path)
	if err != nil {
		return "", err
	}
	if e == nil {
		return "", newError(OpRead, p, detail(ErrNotFound, "no such file"))
	}
	if e.typ != TypeFile {
		return "", newError(OpRead, p, detail(ErrNotFound, "path is a directory"))
	}
	return e.content, nil
}

// ReplaceInFile swaps the single occurrence of oldText for newText. An anchor
// that is missing or occurs more than once leaves the file unchanged.
func (fs *FS) ReplaceInFile(path, oldText, newText string) error {
	p, e, err := fs.resolve(OpReplace, path)
	if err != nil {
		return err
	}
	if e == nil || e.typ != TypeFile {
		return newError(OpReplace, p, detail(ErrNotFound, "no such file"))
	}
	if oldText == "" {
		return newError(OpReplace, p, detail(ErrNotFound, "empty anchor text"))
	}

	switch n := strings.Count(e.content, oldText); n {
	case 1:
	case 0:
		return newError(OpReplace, p, detail(ErrNotFound, "anchor text not found"))
	default:
		return newError(OpReplace, p, detail(ErrNotFound, "anchor text occurs %d times", n))
	}

	e.content = strings.Replace(e.content, oldText, newText, 1)
	fs.version++
	return nil
}

// InsertAt inserts text as a new line before the 0-indexed line boundary.
// A boundary past the last line appends.
func (fs *FS) InsertAt(path string, line int, text string) error {
	p, e, err := fs.resolve(OpInsert, path)
	if err != nil {
		return err
	}
	if e == nil || e.typ != TypeFile {
		return newError(OpInsert, p, detail(ErrNotFound, "no such file"))
	}

	lines, trailing := splitLines(e.content)
	if line < 0 || line > len(lines)+1 {
		return newError(OpInsert, p, detail(ErrOutOfRange, "line %d outside 0..%d", line, len(lines)))
	}
	if line > len(lines) {
		line = len(lines)
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:line]...)
	out = append(out, text)
	out = append(out, lines[line:]...)
	content := strings.Join(out, "\n")
	if trailing {
		content += "\n"
	}
	e.content = content
	fs.version++
	return nil
}

// LineCount returns the number of lines in content. A trailing newline does
// not start a new line.
func LineCount(content string) int {
	lines, _ := splitLines(content)
	return len(lines)
}

func splitLines(content string) ([]string, bool) {
	if content == "" {
		return nil, false
	}
	trailing := strings.HasSuffix(content, "\n")
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n"), trailing
}

// DeleteNode removes the node at path, with all descendants for a directory.
func (fs *FS) DeleteNode(path string) error {
	p, e, err := fs.resolve(OpDelete, path)
	if err != nil {
		return err
	}
	if p == Root {
		return newError(OpDelete, p, detail(ErrInvalidPath, "root cannot be deleted"))
	}
	if e == nil {
		return newError(OpDelete, p, detail(ErrNotFound, "no such file or directory"))
	}

	for _, d := range fs.subtree(p) {
		delete(fs.nodes, d)
	}
	delete(fs.nodes[Parent(p)].children, p)
	fs.version++
	return nil
}

// RenameNode moves the node at oldPath to newPath. Directory descendants move
// with it. Every collision is detected before the tree is touched, so a
// failed rename leaves no trace.
func (fs *FS) RenameNode(oldPath, newPath string) error {
	from, src, err := fs.resolve(OpRename, oldPath)
	if err != nil {
		return err
	}
	to, dst, err := fs.resolve(OpRename, newPath)
	if err != nil {
		return err
	}
	if from == Root {
		return newError(OpRename, from, detail(ErrInvalidPath, "root cannot be renamed"))
	}
	if src == nil {
		return newError(OpRename, from, detail(ErrNotFound, "no such file or directory"))
	}
	if dst != nil {
		return newError(OpRename, to, detail(ErrPathConflict, "target already exists"))
	}
	if IsWithin(to, from) {
		return newError(OpRename, to, detail(ErrInvalidPath, "cannot move %s inside itself", from))
	}
	if err := fs.checkAncestors(OpRename, to); err != nil {
		return err
	}

	paths := fs.subtree(from)
	moved := make(map[string]*entry, len(paths))
	for _, p := range paths {
		np := to + p[len(from):]
		if _, taken := fs.nodes[np]; taken {
			return newError(OpRename, np, detail(ErrPathConflict, "target already exists"))
		}
		moved[np] = fs.nodes[p]
	}

	for _, e := range moved {
		if e.typ != TypeDirectory {
			continue
		}
		children := make(map[string]struct{}, len(e.children))
		for c := range e.children {
			children[to+c[len(from):]] = struct{}{}
		}
		e.children = children
	}
	for _, p := range paths {
		delete(fs.nodes, p)
	}
	delete(fs.nodes[Parent(from)].children, from)

	fs.materialize(to)
	for np, e := range moved {
		fs.nodes[np] = e
	}
	fs.link(to)
	fs.version++
	return nil
}

// List returns the immediate children of the directory at path, sorted by name.
func (fs *FS) List(path string) ([]DirEntry, error) {
	p, e, err := fs.resolve(OpList, path)
	if err != nil {
		return nil, err
	}
	if e == nil || e.typ != TypeDirectory {
		return nil, newError(OpList, p, detail(ErrNotFound, "no such directory"))
	}

	entries := make([]DirEntry, 0, len(e.children))
	for c := range e.children {
		entries = append(entries, DirEntry{
			Name:  Base(c),
			Path:  c,
			IsDir: fs.nodes[c].typ == TypeDirectory,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// Stat returns metadata for the node at path.
func (fs *FS) Stat(path string) (FileInfo, error) {
	p, e, err := fs.resolve(OpStat, path)
	if err != nil {
		return FileInfo{}, err
	}
	if e == nil {
		return FileInfo{}, newError(OpStat, p, detail(ErrNotFound, "no such file or directory"))
	}
	return FileInfo{
		Name:  Base(p),
		Path:  p,
		IsDir: e.typ == TypeDirectory,
		Size:  int64(len(e.content)),
	}, nil
}

// ListAll returns a copy of every node keyed by path.
func (fs *FS) ListAll() map[string]Node {
	out := make(map[string]Node, len(fs.nodes))
	for p, e := range fs.nodes {
		out[p] = e.node(p)
	}
	return out
}

var _ Reader = (*FS)(nil)
