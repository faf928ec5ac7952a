// Package session binds one buffer, its undo history, and dirty/saved
// metadata to one open document, and owns the registry of open documents.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashkett/quill/internal/buffer"
	"github.com/ashkett/quill/internal/clipboard"
	"github.com/ashkett/quill/internal/event"
	"github.com/ashkett/quill/internal/history"
	"github.com/ashkett/quill/internal/logger"
	"github.com/ashkett/quill/internal/patch"
	"github.com/ashkett/quill/internal/search"
	"github.com/ashkett/quill/internal/types"
)

// ErrNoPath reports a save attempt on a document that was never given a path.
var ErrNoPath = errors.New("no file path specified for saving")

// Session is the unit a tab represents. All mutations (typing, replace,
// patch application, save) serialize on the session mutex; no two edit
// operations on the same session interleave at the record level.
type Session struct {
	id   string
	key  string // registry key: absolute path, or the id for unsaved docs
	path string // "" for unsaved documents

	mu     sync.Mutex
	buf    *buffer.LineBuffer
	hist   *history.Manager
	events *event.Manager
	clip   *clipboard.Manager

	savedFingerprint string
}

// ID returns the session's stable identity.
func (s *Session) ID() string { return s.id }

// Path returns the backing file path, empty for unsaved documents.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Dirty reports whether the session has unsaved changes: the done-stack size
// differs from its size at the last save, or the content fingerprint no
// longer matches the one recorded when the file was loaded or saved.
func (s *Session) Dirty() bool {
	if s.hist.IsDirty() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Fingerprint() != s.savedFingerprint
}

// Snapshot returns the logical buffer content.
func (s *Session) Snapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Text()
}

// Fingerprint returns the current content hash.
func (s *Session) Fingerprint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Fingerprint()
}

// Read extracts the text covered by span.
func (s *Session) Read(span types.Span) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Read(span)
}

// Insert applies a typing insertion at pos and records it, coalescing
// consecutive single-rune insertions into one undo group.
func (s *Session) Insert(pos types.Position, text string) (types.Edit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.buf.ApplyEdit(types.NewInsert(pos, text))
	if err != nil {
		return types.Edit{}, err
	}
	applied := inv.Invert()
	s.hist.PushEdit(applied)
	s.dispatchAction(event.TypeEditApplied, 1)
	return applied, nil
}

// Delete removes the span's text and records the edit.
func (s *Session) Delete(span types.Span) (types.Edit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.buf.ApplyEdit(types.Edit{Kind: types.EditDelete, Span: span})
	if err != nil {
		return types.Edit{}, err
	}
	applied := inv.Invert()
	s.hist.PushEdit(applied)
	s.dispatchAction(event.TypeEditApplied, 1)
	return applied, nil
}

// Undo reverts the most recent undo group. Returns false when there is
// nothing to undo.
func (s *Session) Undo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok, err := s.hist.Undo(s.buf)
	if err != nil || !ok {
		return ok, err
	}
	s.events.Dispatch(event.TypeUndoPerformed, s.actionData(len(group)))
	return true, nil
}

// Redo reapplies the most recently undone group. Returns false when there is
// nothing to redo.
func (s *Session) Redo() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok, err := s.hist.Redo(s.buf)
	if err != nil || !ok {
		return ok, err
	}
	s.events.Dispatch(event.TypeRedoPerformed, s.actionData(len(group)))
	return true, nil
}

// Find returns matches over the current content starting at byte offset
// from, honoring the wrap-around option for find-next semantics.
func (s *Session) Find(pattern string, opts search.Options, from int) ([]search.Match, error) {
	return search.Find(s.Snapshot(), pattern, opts, from)
}

// ReplaceOne replaces a single previously-found match and records it as its
// own undo group.
func (s *Session) ReplaceOne(m search.Match, pattern, replacement string, opts search.Options) (types.Edit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edit, err := search.ReplaceOne(s.buf.Text(), m, pattern, replacement, opts)
	if err != nil {
		return types.Edit{}, err
	}
	inv, err := s.buf.ApplyEdit(edit)
	if err != nil {
		return types.Edit{}, err
	}
	applied := inv.Invert()
	s.hist.PushGroup([]types.Edit{applied})
	s.dispatchAction(event.TypeEditApplied, 1)
	return applied, nil
}

// ReplaceAll scans the whole document exactly once against an immutable
// snapshot, applies every replacement as one atomic group, and returns the
// number of replacements. A single undo reverts the entire pass.
func (s *Session) ReplaceAll(pattern string, opts search.Options, template string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	edits, err := search.ReplaceAllEdits(s.buf.Text(), pattern, opts, template)
	if err != nil {
		return 0, err
	}
	if len(edits) == 0 {
		return 0, nil
	}
	if err := s.commitGroupLocked(edits); err != nil {
		return 0, err
	}
	s.dispatchAction(event.TypeReplaceAll, len(edits))
	return len(edits), nil
}

// ApplyPatch validates and applies an externally-proposed patch. Acceptance
// commits one undo group; rejection leaves the session exactly as it was.
func (s *Session) ApplyPatch(p patch.ProposedPatch) (*patch.AppliedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := patch.Apply(lockedTarget{s}, p)
	if err != nil {
		var rejected *patch.RejectedError
		if errors.As(err, &rejected) {
			s.events.Dispatch(event.TypePatchRejected, event.PatchRejectedData{
				ActionData: s.actionData(len(p.Edits)),
				Reason:     "stale-content",
				Conflicts:  len(rejected.Conflicts),
			})
		}
		return nil, err
	}
	s.dispatchAction(event.TypePatchApplied, len(res.Group))
	return res, nil
}

// lockedTarget adapts a session whose mutex is already held to patch.Target.
type lockedTarget struct{ s *Session }

func (t lockedTarget) Fingerprint() string { return t.s.buf.Fingerprint() }

func (t lockedTarget) Read(span types.Span) (string, error) { return t.s.buf.Read(span) }

func (t lockedTarget) CommitGroup(edits []types.Edit) error {
	return t.s.commitGroupLocked(edits)
}

// commitGroupLocked applies edits in order and records them as one group.
// On a mid-group failure the already-applied records are rolled back so the
// buffer matches the history.
func (s *Session) commitGroupLocked(edits []types.Edit) error {
	applied := make([]types.Edit, 0, len(edits))
	for _, e := range edits {
		inv, err := s.buf.ApplyEdit(e)
		if err != nil {
			for i := len(applied) - 1; i >= 0; i-- {
				if _, reerr := s.buf.ApplyEdit(applied[i].Invert()); reerr != nil {
					return fmt.Errorf("group apply failed and rollback failed: %v (after %w)", reerr, err)
				}
			}
			return err
		}
		applied = append(applied, inv.Invert())
	}
	s.hist.PushGroup(applied)
	return nil
}

// Save serializes the buffer and writes it atomically (temp file plus rename
// in the target directory), so a crash mid-write never leaves a partial
// file. On success the dirty flag clears and the fingerprint is recomputed.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Session) saveLocked() error {
	if s.path == "" {
		return ErrNoPath
	}
	data, err := s.buf.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize '%s': %w", s.path, err)
	}
	if err := atomicWrite(s.path, data); err != nil {
		return err
	}

	s.hist.MarkSaved()
	s.savedFingerprint = s.buf.Fingerprint()
	s.events.Dispatch(event.TypeBufferSaved, event.BufferSavedData{
		SessionID: s.id,
		Path:      s.path,
		Bytes:     len(data),
	})
	logger.Infof("Session %s: saved %d bytes to %s", s.id, len(data), s.path)
	return nil
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".quill-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in '%s': %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write '%s': %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close '%s': %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod '%s': %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename into '%s': %w", path, err)
	}
	return nil
}

// Copy stores the span's text on the clipboard.
func (s *Session) Copy(span types.Span) (string, error) {
	text, err := s.Read(span)
	if err != nil {
		return "", err
	}
	s.clip.Write(text)
	return text, nil
}

// Cut copies the span's text then deletes it as one undo group.
func (s *Session) Cut(span types.Span) (string, error) {
	text, err := s.Copy(span)
	if err != nil {
		return "", err
	}
	if _, err := s.Delete(span); err != nil {
		return "", err
	}
	return text, nil
}

// Paste inserts the clipboard content at pos.
func (s *Session) Paste(pos types.Position) (types.Edit, error) {
	text := s.clip.Read()
	if text == "" {
		return types.Edit{}, nil
	}
	return s.Insert(pos, text)
}

func (s *Session) actionData(groupSize int) event.ActionData {
	return event.ActionData{
		SessionID: s.id,
		Path:      s.path,
		Time:      time.Now(),
		GroupSize: groupSize,
	}
}

func (s *Session) dispatchAction(t event.Type, groupSize int) {
	s.events.Dispatch(t, s.actionData(groupSize))
}
