// internal/event/event.go
package event

import "time"

// Type identifies the kind of event.
type Type int

// Define specific event types.
const (
	TypeUnknown Type = iota

	// Core editing events
	TypeBufferLoaded   // Fired after a buffer is successfully loaded
	TypeBufferSaved    // Fired after a buffer is successfully saved
	TypeEditApplied    // Fired when an edit group reaches the buffer
	TypeReplaceAll     // Fired after a replace-all commits its group
	TypePatchApplied   // Fired when a proposed patch is accepted
	TypePatchRejected  // Fired when a proposed patch is rejected as stale
	TypeUndoPerformed  // Fired after an undo reverts a group
	TypeRedoPerformed  // Fired after a redo reapplies a group

	// Session lifecycle events
	TypeSessionOpened
	TypeSessionClosed
)

// Event is the structure passed through the event bus.
type Event struct {
	Type Type
	Data interface{}
}

// ActionData is the shared payload for discrete action events. Every action
// carries the session identity, a timestamp, and the size of the edit group
// involved, per the action-log boundary.
type ActionData struct {
	SessionID string
	Path      string
	Time      time.Time
	GroupSize int
}

// PatchRejectedData describes a rejected patch.
type PatchRejectedData struct {
	ActionData
	Reason    string
	Conflicts int
}

// BufferLoadedData contains info about the loaded buffer.
type BufferLoadedData struct {
	SessionID string
	Path      string
	Encoding  string
}

// BufferSavedData contains info about the saved buffer.
type BufferSavedData struct {
	SessionID string
	Path      string
	Bytes     int
}

// SessionData accompanies session open/close events.
type SessionData struct {
	SessionID string
	Path      string
}
