// Package storage persists each project's snapshot and transcript as opaque
// JSON blobs.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"sort"
	"sync"

	"github.com/spf13/afero"

	"github.com/CageChen/workset/internal/agent"
	"github.com/CageChen/workset/internal/vfs"
)

// Blob file names inside a project directory.
const (
	SnapshotFile   = "snapshot.json"
	TranscriptFile = "transcript.json"
)

// ErrInvalidProject is returned for project IDs that cannot name a directory.
var ErrInvalidProject = errors.New("invalid project id")

var projectIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateProjectID checks that id is safe to use as a directory name.
func ValidateProjectID(id string) error {
	if !projectIDRe.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidProject, id)
	}
	return nil
}

// Record is what a project has persisted.
type Record struct {
	Snapshot   vfs.Snapshot
	Transcript []agent.Message
}

// Store loads and saves project records.
type Store interface {
	Get(ctx context.Context, projectID string) (Record, bool, error)
	Put(ctx context.Context, projectID string, snap vfs.Snapshot, transcript []agent.Message) error
}

// BlobStore keeps records under root/<project>/ on an afero filesystem.
type BlobStore struct {
	fs   afero.Afero
	root string
	mu   sync.Mutex
}

// NewBlobStore creates a store backed by the OS filesystem.
func NewBlobStore(root string) (*BlobStore, error) {
	return NewBlobStoreFs(afero.NewOsFs(), root)
}

// NewMemoryStore creates a store that never touches disk.
func NewMemoryStore() *BlobStore {
	s, _ := NewBlobStoreFs(afero.NewMemMapFs(), "/projects")
	return s
}

// NewBlobStoreFs creates a store on an arbitrary afero filesystem.
func NewBlobStoreFs(fs afero.Fs, root string) (*BlobStore, error) {
	a := afero.Afero{Fs: fs}
	if err := a.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &BlobStore{fs: a, root: root}, nil
}

// Root returns the storage directory.
func (s *BlobStore) Root() string {
	return s.root
}

// Get loads a project record. A project without a snapshot does not exist.
// A snapshot that is not valid JSON is reported as vfs.ErrCorruptState.
func (s *BlobStore) Get(ctx context.Context, projectID string) (Record, bool, error) {
	if err := ValidateProjectID(projectID); err != nil {
		return Record{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}

	dir := path.Join(s.root, projectID)
	data, err := s.fs.ReadFile(path.Join(dir, SnapshotFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec.Snapshot); err != nil {
		return Record{}, false, fmt.Errorf("%w: project %s: %v", vfs.ErrCorruptState, projectID, err)
	}

	data, err = s.fs.ReadFile(path.Join(dir, TranscriptFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Record{}, false, fmt.Errorf("failed to read transcript: %w", err)
	default:
		if err := json.Unmarshal(data, &rec.Transcript); err != nil {
			return Record{}, false, fmt.Errorf("%w: project %s transcript: %v", vfs.ErrCorruptState, projectID, err)
		}
	}
	return rec, true, nil
}

// Put replaces a project record. Each blob is written to a temporary file
// and renamed into place, the transcript last.
func (s *BlobStore) Put(ctx context.Context, projectID string, snap vfs.Snapshot, transcript []agent.Message) error {
	if err := ValidateProjectID(projectID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if transcript == nil {
		transcript = []agent.Message{}
	}

	snapData, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	transcriptData, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := path.Join(s.root, projectID)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	if err := s.writeAtomic(path.Join(dir, SnapshotFile), snapData); err != nil {
		return err
	}
	return s.writeAtomic(path.Join(dir, TranscriptFile), transcriptData)
}

func (s *BlobStore) writeAtomic(name string, data []byte) error {
	tmp := name + ".tmp"
	if err := s.fs.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path.Base(name), err)
	}
	if err := s.fs.Rename(tmp, name); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to commit %s: %w", path.Base(name), err)
	}
	return nil
}

// List returns the IDs of every stored project, sorted.
func (s *BlobStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := s.fs.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	var ids []string
	for _, info := range infos {
		if !info.IsDir() || ValidateProjectID(info.Name()) != nil {
			continue
		}
		if ok, _ := s.fs.Exists(path.Join(s.root, info.Name(), SnapshotFile)); ok {
			ids = append(ids, info.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

var _ Store = (*BlobStore)(nil)
