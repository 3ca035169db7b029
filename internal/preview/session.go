package preview

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/CageChen/workset/internal/vfs"
)

// ErrClosed is returned when refreshing a closed session.
var ErrClosed = errors.New("preview session closed")

// Compiler loads bundles into compiled-module handles and releases them.
type Compiler interface {
	Load(b *Bundle) error
	Release(id string)
}

// Cache is an in-process Compiler that keeps loaded bundles by ID.
type Cache struct {
	mu      sync.RWMutex
	bundles map[string]*Bundle
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{bundles: make(map[string]*Bundle)}
}

// Load stores b under its ID.
func (c *Cache) Load(b *Bundle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bundles[b.ID] = b
	return nil
}

// Release drops a handle. Unknown IDs are ignored.
func (c *Cache) Release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bundles, id)
}

// Get returns a loaded bundle.
func (c *Cache) Get(id string) (*Bundle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.bundles[id]
	return b, ok
}

// Len reports how many handles are live.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bundles)
}

// Session owns the live handle for one project. Refreshing supersedes the
// previous handle, which is released once the new one has loaded.
type Session struct {
	compiler   Compiler
	candidates []string

	mu      sync.Mutex
	current *Bundle
	closed  bool
}

// NewSession creates a session probing candidates for the entry point.
func NewSession(compiler Compiler, candidates []string) *Session {
	return &Session{compiler: compiler, candidates: candidates}
}

// Refresh builds and loads a bundle for snap and releases the one it replaces.
func (s *Session) Refresh(snap vfs.Snapshot, version uint64) (*Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	b := NewBundle(snap, version, s.candidates)
	if err := s.compiler.Load(b); err != nil {
		return nil, err
	}
	if s.current != nil {
		s.compiler.Release(s.current.ID)
	}
	s.current = b
	return b, nil
}

// Current returns the live bundle, if any.
func (s *Session) Current() (*Bundle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != nil
}

// Close releases the live handle. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.current != nil {
		s.compiler.Release(s.current.ID)
		s.current = nil
	}
}

// Manager keeps one session per project.
type Manager struct {
	compiler   Compiler
	candidates []string
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager. A nil logger discards output.
func NewManager(compiler Compiler, candidates []string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{
		compiler:   compiler,
		candidates: candidates,
		logger:     logger,
		sessions:   make(map[string]*Session),
	}
}

// Refresh rebuilds the project's preview, opening a session if needed.
func (m *Manager) Refresh(projectID string, snap vfs.Snapshot, version uint64) (*Bundle, error) {
	m.mu.Lock()
	sess, ok := m.sessions[projectID]
	if !ok {
		sess = NewSession(m.compiler, m.candidates)
		m.sessions[projectID] = sess
	}
	m.mu.Unlock()

	b, err := sess.Refresh(snap, version)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("preview refreshed", "project", projectID, "bundle", b.ID, "entry", b.EntryPoint, "files", len(b.Files))
	return b, nil
}

// Current returns the project's live bundle, if any.
func (m *Manager) Current(projectID string) (*Bundle, bool) {
	m.mu.Lock()
	sess, ok := m.sessions[projectID]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	return sess.Current()
}

// Close ends a project's session and releases its handle.
func (m *Manager) Close(projectID string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[projectID]
	delete(m.sessions, projectID)
	m.mu.Unlock()
	if ok {
		sess.Close()
		m.logger.Debug("preview closed", "project", projectID)
	}
	return ok
}

// CloseAll ends every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}
}
