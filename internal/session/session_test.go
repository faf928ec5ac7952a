package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashkett/quill/internal/event"
	"github.com/ashkett/quill/internal/patch"
	"github.com/ashkett/quill/internal/search"
	"github.com/ashkett/quill/internal/types"
)

func newSession(t *testing.T, content string) *Session {
	t.Helper()
	r := NewRegistry(nil, nil)
	s := r.NewFile()
	if content != "" {
		_, err := s.Insert(types.Position{}, content)
		require.NoError(t, err)
	}
	return s
}

func TestTypingCoalescesIntoOneUndoGroup(t *testing.T) {
	s := newSession(t, "")

	for i, r := range "abc" {
		_, err := s.Insert(types.Position{Line: 0, Col: i}, string(r))
		require.NoError(t, err)
	}
	require.Equal(t, "abc", s.Snapshot())

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "", s.Snapshot())

	ok, err = s.Redo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "abc", s.Snapshot())
}

func TestDeleteAndUndo(t *testing.T) {
	s := newSession(t, "hello world")

	_, err := s.Delete(types.Span{
		Start: types.Position{Line: 0, Col: 5},
		End:   types.Position{Line: 0, Col: 11},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", s.Snapshot())

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hello world", s.Snapshot())
}

func TestReplaceAllIsOneUndoGroup(t *testing.T) {
	s := newSession(t, "a1 a2 a3")
	opts := search.Options{Mode: search.ModeRegex, CaseSensitive: true}

	count, err := s.ReplaceAll(`a(\d)`, opts, "x$1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, "x1 x2 x3", s.Snapshot())

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a1 a2 a3", s.Snapshot(), "one undo reverts the whole pass")
}

func TestReplaceAllZeroMatchesLeavesHistoryUntouched(t *testing.T) {
	s := newSession(t, "nothing to see")

	count, err := s.ReplaceAll("xyz", search.Options{Mode: search.ModeLiteral, CaseSensitive: true}, "!")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Only the seeding insert is undoable.
	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Undo()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplaceAllInvalidTemplate(t *testing.T) {
	s := newSession(t, "a1")
	opts := search.Options{Mode: search.ModeRegex, CaseSensitive: true}

	_, err := s.ReplaceAll(`a(\d)`, opts, "x$9")
	assert.ErrorIs(t, err, search.ErrTemplate)
	assert.Equal(t, "a1", s.Snapshot(), "no edit applied once validation fails")
}

func TestReplaceOne(t *testing.T) {
	s := newSession(t, "foo bar foo")
	opts := search.Options{Mode: search.ModeLiteral, CaseSensitive: true}

	matches, err := s.Find("foo", opts, 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	_, err = s.ReplaceOne(matches[0], "foo", "qux", opts)
	require.NoError(t, err)
	assert.Equal(t, "qux bar foo", s.Snapshot())

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "foo bar foo", s.Snapshot())
}

func TestApplyPatchAccepted(t *testing.T) {
	s := newSession(t, "one\ntwo\nthree\n")

	snapshot := s.Snapshot()
	revised := "one\n2\nthree\n"
	p := patch.ProposedPatch{
		BaseFingerprint: s.Fingerprint(),
		Edits:           patch.DeriveEdits(snapshot, revised),
	}

	res, err := s.ApplyPatch(p)
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, revised, s.Snapshot())

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snapshot, s.Snapshot(), "accepted patch is one undo group")
}

func TestApplyPatchDegraded(t *testing.T) {
	s := newSession(t, "alpha\nbeta\n")
	p := patch.ProposedPatch{
		BaseFingerprint: s.Fingerprint(),
		Edits:           patch.DeriveEdits(s.Snapshot(), "alpha\ndelta\n"),
	}

	// Typing outside the patched range invalidates the fingerprint only.
	_, err := s.Insert(types.Position{Line: 0, Col: 5}, "!")
	require.NoError(t, err)

	res, err := s.ApplyPatch(p)
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	assert.Equal(t, "alpha!\ndelta\n", s.Snapshot())
}

func TestApplyPatchRejectedWhenStale(t *testing.T) {
	s := newSession(t, "alpha\nbeta\n")
	p := patch.ProposedPatch{
		BaseFingerprint: s.Fingerprint(),
		Edits:           patch.DeriveEdits(s.Snapshot(), "alpha\ndelta\n"),
	}

	var rejections int
	s.events.Subscribe(event.TypePatchRejected, func(e event.Event) bool {
		rejections++
		data, ok := e.Data.(event.PatchRejectedData)
		require.True(t, ok)
		assert.Equal(t, "stale-content", data.Reason)
		assert.Equal(t, 1, data.Conflicts)
		return false
	})

	// The user rewrote the line the patch targets.
	_, err := s.ReplaceAll("beta", search.Options{Mode: search.ModeLiteral, CaseSensitive: true}, "BETA")
	require.NoError(t, err)
	before := s.Snapshot()

	res, err := s.ApplyPatch(p)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, patch.ErrStaleContent)
	assert.Equal(t, before, s.Snapshot(), "rejection leaves the buffer untouched")
	assert.Equal(t, 1, rejections)
}

func TestDirtyAfterNewEditsReplaceSavedState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

	r := NewRegistry(nil, nil)
	s, _, err := r.Open(path)
	require.NoError(t, err)

	_, err = s.Insert(types.Position{}, "A")
	require.NoError(t, err)
	require.NoError(t, s.Save())
	require.False(t, s.Dirty())

	ok, err := s.Undo()
	require.NoError(t, err)
	require.True(t, ok)

	// Typing here discards the redo branch that held the saved state.
	_, err = s.Insert(types.Position{}, "B")
	require.NoError(t, err)

	require.Equal(t, "B", s.Snapshot())
	assert.True(t, s.Dirty(),
		"content diverged from the saved file; closing must still warn")
	assert.ErrorIs(t, r.Close(s, false), ErrUnsavedChanges)
}

func TestCutPasteUsesSharedClipboard(t *testing.T) {
	s := newSession(t, "hello world")

	text, err := s.Cut(types.Span{
		Start: types.Position{Line: 0, Col: 0},
		End:   types.Position{Line: 0, Col: 6},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello ", text)
	assert.Equal(t, "world", s.Snapshot())

	_, err = s.Paste(types.Position{Line: 0, Col: 5})
	require.NoError(t, err)
	assert.Equal(t, "worldhello ", s.Snapshot())
}

func TestEditEventsCarryActionData(t *testing.T) {
	r := NewRegistry(nil, nil)
	s := r.NewFile()

	var applied []event.ActionData
	r.Events().Subscribe(event.TypeEditApplied, func(e event.Event) bool {
		data, ok := e.Data.(event.ActionData)
		require.True(t, ok)
		applied = append(applied, data)
		return false
	})

	_, err := s.Insert(types.Position{}, "hi")
	require.NoError(t, err)

	require.Len(t, applied, 1)
	assert.Equal(t, s.ID(), applied[0].SessionID)
	assert.Equal(t, 1, applied[0].GroupSize)
	assert.False(t, applied[0].Time.IsZero())
}

func TestReadSpan(t *testing.T) {
	s := newSession(t, "one\ntwo")

	got, err := s.Read(types.Span{
		Start: types.Position{Line: 0, Col: 1},
		End:   types.Position{Line: 1, Col: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "ne\ntw", got)
}
