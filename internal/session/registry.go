// internal/session/registry.go
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/ashkett/quill/internal/buffer"
	"github.com/ashkett/quill/internal/clipboard"
	"github.com/ashkett/quill/internal/config"
	"github.com/ashkett/quill/internal/event"
	"github.com/ashkett/quill/internal/history"
	"github.com/ashkett/quill/internal/logger"
)

// Advisory signals routed back to the caller for a decision. Neither is a
// fault; test with errors.Is.
var (
	// ErrUnsavedChanges reports a close attempt on a dirty session.
	ErrUnsavedChanges = errors.New("session has unsaved changes")
	// ErrNotOpen reports an operation on a session the registry doesn't hold.
	ErrNotOpen = errors.New("session is not open")
)

// Registry owns the set of open sessions. Paths are unique keys; unsaved
// documents are keyed by a synthetic identifier. Insertion order is kept for
// tab ordering. Open/close serialize against concurrent enumeration.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string

	events     *event.Manager
	clip       *clipboard.Manager
	maxHistory int
}

// NewRegistry creates a registry wired to the shared event manager.
func NewRegistry(cfg *config.Config, events *event.Manager) *Registry {
	if events == nil {
		events = event.NewManager()
	}
	maxHistory := config.DefaultMaxHistory
	systemClip := false
	if cfg != nil {
		maxHistory = cfg.Editor.MaxHistory
		systemClip = cfg.Editor.SystemClipboard
	}
	return &Registry{
		sessions:   make(map[string]*Session),
		events:     events,
		clip:       clipboard.NewManager(systemClip),
		maxHistory: maxHistory,
	}
}

// Events returns the registry's event manager.
func (r *Registry) Events() *event.Manager { return r.events }

// Open loads path into a new session, or returns the existing session when
// the path is already open (alreadyOpen true; an advisory, not a fault).
// A missing or unreadable file fails; NewFile is the path-less document case.
func (r *Registry) Open(path string) (s *Session, alreadyOpen bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false, fmt.Errorf("cannot resolve path '%s': %w", path, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[abs]; ok {
		logger.Debugf("Registry: '%s' already open as session %s", abs, existing.id)
		return existing, true, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read '%s': %w", abs, err)
	}
	buf := buffer.NewLineBuffer()
	if err := buf.Load(data, ""); err != nil {
		return nil, false, fmt.Errorf("failed to open '%s': %w", abs, err)
	}

	s = r.attachLocked(abs, abs, buf)

	r.events.Dispatch(event.TypeBufferLoaded, event.BufferLoadedData{
		SessionID: s.id,
		Path:      abs,
		Encoding:  buf.Encoding(),
	})
	logger.Infof("Registry: opened '%s' as session %s (encoding=%s)", abs, s.id, buf.Encoding())
	return s, false, nil
}

// NewFile creates an unsaved session keyed by a synthetic identifier.
func (r *Registry) NewFile() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	s := r.attachLocked(id, "", buffer.NewLineBuffer())
	logger.Infof("Registry: created unsaved session %s", s.id)
	return s
}

func (r *Registry) attachLocked(key, path string, buf *buffer.LineBuffer) *Session {
	s := &Session{
		id:               uuid.NewString(),
		key:              key,
		path:             path,
		buf:              buf,
		hist:             history.NewManager(r.maxHistory),
		events:           r.events,
		clip:             r.clip,
		savedFingerprint: buf.Fingerprint(),
	}
	r.sessions[key] = s
	r.order = append(r.order, key)
	r.events.Dispatch(event.TypeSessionOpened, event.SessionData{SessionID: s.id, Path: path})
	return s
}

// Close removes a session from the registry. A dirty session refuses with
// ErrUnsavedChanges unless force is set; the caller decides whether to
// discard or prompt for a save first.
func (r *Registry) Close(s *Session, force bool) error {
	if s == nil {
		return ErrNotOpen
	}
	if s.Dirty() && !force {
		return fmt.Errorf("%w: %s", ErrUnsavedChanges, s.displayName())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.key]; !ok {
		return ErrNotOpen
	}
	delete(r.sessions, s.key)
	for i, key := range r.order {
		if key == s.key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.events.Dispatch(event.TypeSessionClosed, event.SessionData{SessionID: s.id, Path: s.path})
	logger.Infof("Registry: closed session %s", s.id)
	return nil
}

// SaveAs binds an unsaved or re-targeted session to path, re-keys the
// registry entry, and saves.
func (r *Registry) SaveAs(s *Session, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve path '%s': %w", path, err)
	}

	r.mu.Lock()
	if _, ok := r.sessions[s.key]; !ok {
		r.mu.Unlock()
		return ErrNotOpen
	}
	if abs != s.key {
		if _, taken := r.sessions[abs]; taken {
			r.mu.Unlock()
			return fmt.Errorf("'%s' is already open in another session", abs)
		}
		delete(r.sessions, s.key)
		r.sessions[abs] = s
		for i, key := range r.order {
			if key == s.key {
				r.order[i] = abs
				break
			}
		}
		s.mu.Lock()
		s.key = abs
		s.path = abs
		s.mu.Unlock()
	}
	r.mu.Unlock()

	return s.Save()
}

// Get returns the session for an open path.
func (r *Registry) Get(path string) (*Session, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[abs]
	return s, ok
}

// Sessions enumerates open sessions in tab order.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.order))
	for _, key := range r.order {
		if s, ok := r.sessions[key]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (s *Session) displayName() string {
	if s.path != "" {
		return s.path
	}
	return "untitled (" + s.id[:8] + ")"
}
