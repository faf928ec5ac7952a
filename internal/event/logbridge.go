// internal/event/logbridge.go
package event

import "github.com/ashkett/quill/internal/logger"

// AttachLogBridge subscribes a structured-logging sink to the discrete action
// events the core emits. Formatting and rotation stay with the logger; the
// bridge only translates events into records.
func AttachLogBridge(m *Manager) {
	m.Subscribe(TypeEditApplied, func(e Event) bool {
		if d, ok := e.Data.(ActionData); ok {
			logger.Infof("action=edit-applied session=%s path=%s group_size=%d at=%s",
				d.SessionID, d.Path, d.GroupSize, d.Time.Format("15:04:05.000"))
		}
		return false
	})
	m.Subscribe(TypeReplaceAll, func(e Event) bool {
		if d, ok := e.Data.(ActionData); ok {
			logger.Infof("action=replace-all session=%s path=%s group_size=%d at=%s",
				d.SessionID, d.Path, d.GroupSize, d.Time.Format("15:04:05.000"))
		}
		return false
	})
	m.Subscribe(TypePatchApplied, func(e Event) bool {
		if d, ok := e.Data.(ActionData); ok {
			logger.Infof("action=patch-applied session=%s path=%s group_size=%d at=%s",
				d.SessionID, d.Path, d.GroupSize, d.Time.Format("15:04:05.000"))
		}
		return false
	})
	m.Subscribe(TypePatchRejected, func(e Event) bool {
		if d, ok := e.Data.(PatchRejectedData); ok {
			logger.Warnf("action=patch-rejected session=%s path=%s reason=%s conflicts=%d",
				d.SessionID, d.Path, d.Reason, d.Conflicts)
		}
		return false
	})
}
