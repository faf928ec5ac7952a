// Package history provides grouped undo/redo for a single buffer.
package history

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ashkett/quill/internal/logger"
	"github.com/ashkett/quill/internal/types"
)

const DefaultMaxHistory = 100

// Applier is the mutation surface the history manager needs from the buffer.
type Applier interface {
	ApplyEdit(e types.Edit) (types.Edit, error)
}

// Manager holds two ordered stacks of edit groups. A group is one or more
// edits committed and reverted as a single atomic unit (replace-all, patch
// application). Replaying the done stack against the initial snapshot always
// reproduces the current buffer; pushing a new group clears the undone stack,
// so there is no branching redo history.
type Manager struct {
	mu         sync.Mutex
	done       [][]types.Edit
	undone     [][]types.Edit
	maxHistory int

	// savedDepth is the done-stack size at the last save; -1 after the save
	// point has been evicted or undone past.
	savedDepth int
}

// NewManager creates a history manager.
func NewManager(maxHistory int) *Manager {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Manager{
		done:       make([][]types.Edit, 0, maxHistory),
		maxHistory: maxHistory,
	}
}

// PushGroup records an already-applied group of edits, clearing the redo
// stack. Empty groups are never recorded.
func (m *Manager) PushGroup(edits []types.Edit) {
	if len(edits) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pushLocked(edits)
}

func (m *Manager) pushLocked(edits []types.Edit) {
	if m.savedDepth > len(m.done) {
		// The save point lives on the redo branch being discarded; the saved
		// state is no longer reachable, same as after eviction.
		m.savedDepth = -1
	}
	m.done = append(m.done, edits)
	m.undone = m.undone[:0]

	if len(m.done) > m.maxHistory {
		evicted := len(m.done) - m.maxHistory
		m.done = m.done[evicted:]
		if m.savedDepth >= 0 {
			m.savedDepth -= evicted
			if m.savedDepth < 0 {
				m.savedDepth = -1 // save point evicted, session stays dirty
			}
		}
	}
	logger.Debugf("History: recorded group of %d edit(s), depth=%d", len(edits), len(m.done))
}

// PushEdit records a single edit as its own group, coalescing consecutive
// single-rune insertions into the previous group when they are contiguous.
// Coalescing never crosses the save boundary.
func (m *Manager) PushEdit(edit types.Edit) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.canCoalesce(edit) {
		top := m.done[len(m.done)-1]
		prev := top[len(top)-1]
		prev.NewText += edit.NewText
		top[len(top)-1] = prev
		m.undone = m.undone[:0]
		logger.Debugf("History: coalesced insert, group now %d byte(s)", len(prev.NewText))
		return
	}
	m.pushLocked([]types.Edit{edit})
}

// canCoalesce reports whether edit extends the top group's trailing insert.
func (m *Manager) canCoalesce(edit types.Edit) bool {
	if edit.Kind != types.EditInsert || len([]rune(edit.NewText)) != 1 || edit.NewText == "\n" {
		return false
	}
	if len(m.done) == 0 || len(m.undone) > 0 {
		return false
	}
	if m.savedDepth == len(m.done) {
		// Top group is the save point; merging would hide the boundary.
		return false
	}
	top := m.done[len(m.done)-1]
	if len(top) != 1 {
		return false
	}
	prev := top[0]
	if prev.Kind != types.EditInsert || strings.HasSuffix(prev.NewText, "\n") {
		// A newline ends the typing run on both sides.
		return false
	}
	return types.Advance(prev.Span.Start, prev.NewText) == edit.Span.Start
}

// Undo reverts the most recent group. The second return is false when there
// is nothing to undo.
func (m *Manager) Undo(buf Applier) ([]types.Edit, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.done) == 0 {
		return nil, false, nil
	}
	group := m.done[len(m.done)-1]

	// Apply inverses in LIFO order within the group.
	for i := len(group) - 1; i >= 0; i-- {
		if _, err := buf.ApplyEdit(group[i].Invert()); err != nil {
			// Roll the partially-undone records forward again so the buffer
			// matches the history state.
			for j := i + 1; j < len(group); j++ {
				if _, reerr := buf.ApplyEdit(group[j]); reerr != nil {
					return nil, false, fmt.Errorf("undo failed and rollback failed: %v (after %w)", reerr, err)
				}
			}
			return nil, false, fmt.Errorf("undo failed: %w", err)
		}
	}

	m.done = m.done[:len(m.done)-1]
	m.undone = append(m.undone, group)
	return group, true, nil
}

// Redo reapplies the most recently undone group. The second return is false
// when there is nothing to redo.
func (m *Manager) Redo(buf Applier) ([]types.Edit, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.undone) == 0 {
		return nil, false, nil
	}
	group := m.undone[len(m.undone)-1]

	for i := 0; i < len(group); i++ {
		if _, err := buf.ApplyEdit(group[i]); err != nil {
			for j := i - 1; j >= 0; j-- {
				if _, reerr := buf.ApplyEdit(group[j].Invert()); reerr != nil {
					return nil, false, fmt.Errorf("redo failed and rollback failed: %v (after %w)", reerr, err)
				}
			}
			return nil, false, fmt.Errorf("redo failed: %w", err)
		}
	}

	m.undone = m.undone[:len(m.undone)-1]
	m.done = append(m.done, group)
	return group, true, nil
}

// Depth returns the current done-stack size.
func (m *Manager) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.done)
}

// MarkSaved records the current depth as the save point.
func (m *Manager) MarkSaved() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savedDepth = len(m.done)
}

// IsDirty reports whether the done-stack size differs from the save point.
func (m *Manager) IsDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.savedDepth != len(m.done)
}

// Clear resets both stacks. Call on load.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = m.done[:0]
	m.undone = m.undone[:0]
	m.savedDepth = 0
}
