// Package watcher monitors the storage directory for project blobs written
// outside this process and broadcasts events via callbacks.
package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/CageChen/workset/internal/storage"
)

// EventType represents the type of blob change
type EventType int

// Blob change event types.
const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "update"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event represents a change to one project's stored blob
type Event struct {
	Type      EventType
	ProjectID string
	Blob      string
}

// Callback is a function called when a blob changes
type Callback func(Event)

// Watcher monitors the storage root and every project directory in it
type Watcher struct {
	watcher   *fsnotify.Watcher
	root      string
	logger    *slog.Logger
	callbacks []Callback
	mu        sync.RWMutex
	done      chan struct{}
}

// New creates a watcher for the storage directory root
func New(root string, logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Watcher{
		watcher: w,
		root:    filepath.Clean(root),
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// OnChange registers a callback for blob change events
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching the root and the project directories already in it
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.root); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() && storage.ValidateProjectID(entry.Name()) == nil {
			w.watchProject(filepath.Join(w.root, entry.Name()))
		}
	}

	go w.eventLoop()
	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) watchProject(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("cannot watch project", "dir", dir, "error", err)
	}
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	dir, name := filepath.Split(filepath.Clean(event.Name))
	dir = filepath.Clean(dir)

	// A new project directory appears directly under the root.
	if dir == w.root {
		if event.Op&fsnotify.Create == fsnotify.Create && isDir(event.Name) &&
			storage.ValidateProjectID(name) == nil {
			w.watchProject(event.Name)
		}
		return
	}

	if filepath.Dir(dir) != w.root || !isBlob(name) {
		return
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreate
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventWrite
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		eventType = EventRemove
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		eventType = EventRename
	default:
		return
	}

	w.dispatch(Event{
		Type:      eventType,
		ProjectID: filepath.Base(dir),
		Blob:      name,
	})
}

func (w *Watcher) dispatch(e Event) {
	w.mu.RLock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

// isBlob skips the temporary files a store writes before renaming.
func isBlob(name string) bool {
	return name == storage.SnapshotFile || name == storage.TranscriptFile
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
