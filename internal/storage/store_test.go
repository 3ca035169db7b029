package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"

	"github.com/CageChen/workset/internal/agent"
	"github.com/CageChen/workset/internal/vfs"
)

func sampleSnapshot(t *testing.T) vfs.Snapshot {
	t.Helper()
	fsys := vfs.New()
	if err := fsys.CreateFile("/App.jsx", "export default function App(){return null}"); err != nil {
		t.Fatal(err)
	}
	return vfs.Serialize(fsys)
}

func TestBlobStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	snap := sampleSnapshot(t)
	transcript := []agent.Message{
		{Role: agent.RoleUser, Content: "hello"},
		{Role: agent.RoleAssistant, Content: "hi"},
	}

	if err := store.Put(ctx, "demo", snap, transcript); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	rec, ok, err := store.Get(ctx, "demo")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if len(rec.Snapshot) != len(snap) || *rec.Snapshot["/App.jsx"].Content != *snap["/App.jsx"].Content {
		t.Errorf("snapshot mismatch: %+v", rec.Snapshot)
	}
	if len(rec.Transcript) != 2 || rec.Transcript[1].Content != "hi" {
		t.Errorf("transcript mismatch: %+v", rec.Transcript)
	}

	fsys, err := vfs.Deserialize(rec.Snapshot)
	if err != nil {
		t.Fatalf("stored snapshot does not load: %v", err)
	}
	if _, err := fsys.ReadFile("/App.jsx"); err != nil {
		t.Error(err)
	}
}

func TestBlobStore_Missing(t *testing.T) {
	_, ok, err := NewMemoryStore().Get(context.Background(), "nope")
	if err != nil || ok {
		t.Errorf("expected a clean miss, got %v, %v", ok, err)
	}
}

func TestBlobStore_InvalidProject(t *testing.T) {
	store := NewMemoryStore()
	for _, id := range []string{"", "../etc", "a/b", "with space"} {
		if _, _, err := store.Get(context.Background(), id); !errors.Is(err, ErrInvalidProject) {
			t.Errorf("Get(%q): expected ErrInvalidProject, got %v", id, err)
		}
		if err := store.Put(context.Background(), id, nil, nil); !errors.Is(err, ErrInvalidProject) {
			t.Errorf("Put(%q): expected ErrInvalidProject, got %v", id, err)
		}
	}
}

func TestBlobStore_CorruptBlob(t *testing.T) {
	mem := afero.NewMemMapFs()
	store, err := NewBlobStoreFs(mem, "/data")
	if err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(mem, "/data/broken/snapshot.json", []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := store.Get(context.Background(), "broken"); !errors.Is(err, vfs.ErrCorruptState) {
		t.Errorf("expected ErrCorruptState, got %v", err)
	}
}

func TestBlobStore_OverwriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBlobStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := store.Put(ctx, "p1", sampleSnapshot(t), nil); err != nil {
			t.Fatalf("Put %d failed: %v", i, err)
		}
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "p1", "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
	rec, ok, err := store.Get(ctx, "p1")
	if err != nil || !ok || rec.Transcript == nil {
		t.Errorf("Get = %+v, %v, %v", rec, ok, err)
	}
}

func TestBlobStore_List(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"zeta", "alpha"} {
		if err := store.Put(ctx, id, sampleSnapshot(t), nil); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "alpha" || ids[1] != "zeta" {
		t.Errorf("List = %v", ids)
	}
}
