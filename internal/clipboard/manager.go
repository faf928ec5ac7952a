// Package clipboard manages copy/cut/paste text, backed by the system
// clipboard when enabled and an internal register otherwise.
package clipboard

import (
	"sync"

	"github.com/atotto/clipboard"

	"github.com/ashkett/quill/internal/logger"
)

// Manager holds the clipboard state shared across sessions.
type Manager struct {
	mu       sync.Mutex
	system   bool
	register string
}

// NewManager creates a clipboard manager. With system set, text is mirrored
// to the OS clipboard; the internal register remains the fallback when the
// OS clipboard is unavailable (headless environments).
func NewManager(system bool) *Manager {
	return &Manager{system: system}
}

// Write stores text.
func (m *Manager) Write(text string) {
	m.mu.Lock()
	m.register = text
	m.mu.Unlock()

	if m.system {
		if err := clipboard.WriteAll(text); err != nil {
			logger.Warnf("Clipboard: system write failed, keeping internal register: %v", err)
		}
	}
}

// Read returns the stored text, preferring the system clipboard when enabled.
func (m *Manager) Read() string {
	if m.system {
		if text, err := clipboard.ReadAll(); err == nil {
			return text
		} else {
			logger.Warnf("Clipboard: system read failed, using internal register: %v", err)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.register
}
