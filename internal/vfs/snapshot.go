package vfs

import (
	"sort"
)

// Entry is the persisted form of one node. Content is nil for directories.
type Entry struct {
	Type    NodeType `json:"type"`
	Content *string  `json:"content"`
}

// Snapshot is the flat persisted form of a tree, keyed by absolute path.
// encoding/json writes map keys in sorted order, so encoded snapshots are
// stable across runs.
type Snapshot map[string]Entry

// Paths returns the snapshot keys in lexicographic order.
func (s Snapshot) Paths() []string {
	paths := make([]string, 0, len(s))
	for p := range s {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Files returns path to content for file entries only.
func (s Snapshot) Files() map[string]string {
	files := make(map[string]string)
	for p, e := range s {
		if e.Type == TypeFile && e.Content != nil {
			files[p] = *e.Content
		}
	}
	return files
}

// Serialize flattens the tree into a snapshot.
func Serialize(fs *FS) Snapshot {
	snap := make(Snapshot, len(fs.nodes))
	for p, e := range fs.nodes {
		if e.typ == TypeDirectory {
			snap[p] = Entry{Type: TypeDirectory}
			continue
		}
		content := e.content
		snap[p] = Entry{Type: TypeFile, Content: &content}
	}
	return snap
}

// Deserialize rebuilds a tree from a snapshot. Directories implied by file
// paths are recreated even when the snapshot omits them. A snapshot that
// cannot describe a valid tree fails with ErrCorruptState and is never patched
// up. The returned tree starts at version zero.
func Deserialize(snap Snapshot) (*FS, error) {
	merged := make(map[string]Entry, len(snap))
	for _, raw := range snap.Paths() {
		e := snap[raw]
		p, err := normalize(raw)
		if err != nil {
			return nil, newError(OpDeserialize, raw, detail(ErrCorruptState, "%v", err))
		}
		if err := checkEntry(e); err != nil {
			return nil, newError(OpDeserialize, raw, err)
		}
		if prev, dup := merged[p]; dup && !sameEntry(prev, e) {
			return nil, newError(OpDeserialize, p, detail(ErrCorruptState, "conflicting entries for one path"))
		}
		merged[p] = e
	}
	if root, ok := merged[Root]; ok && root.Type != TypeDirectory {
		return nil, newError(OpDeserialize, Root, detail(ErrCorruptState, "root recorded as a file"))
	}

	paths := make([]string, 0, len(merged))
	for p := range merged {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fs := New()
	for _, p := range paths {
		e := merged[p]
		var err error
		if e.Type == TypeDirectory {
			err = fs.MakeDir(p)
		} else {
			err = fs.CreateFile(p, *e.Content)
		}
		if err != nil {
			return nil, newError(OpDeserialize, p, detail(ErrCorruptState, "%v", err))
		}
	}
	fs.version = 0
	return fs, nil
}

func checkEntry(e Entry) error {
	switch e.Type {
	case TypeDirectory:
		if e.Content != nil {
			return detail(ErrCorruptState, "directory with content")
		}
	case TypeFile:
		if e.Content == nil {
			return detail(ErrCorruptState, "file without content")
		}
	default:
		return detail(ErrCorruptState, "unknown node type %q", e.Type)
	}
	return nil
}

func sameEntry(a, b Entry) bool {
	if a.Type != b.Type {
		return false
	}
	if a.Content == nil || b.Content == nil {
		return a.Content == b.Content
	}
	return *a.Content == *b.Content
}
