// internal/patch/applier.go
package patch

import (
	"sort"

	"github.com/ashkett/quill/internal/logger"
	"github.com/ashkett/quill/internal/types"
)

// Target is the session surface the applier needs. CommitGroup applies the
// edits in the given order through the buffer and pushes them as one undo
// group; it is only called once the whole patch has been accepted.
type Target interface {
	Fingerprint() string
	Read(span types.Span) (string, error)
	CommitGroup(edits []types.Edit) error
}

// Apply validates patch against the target's current content and commits it
// as a single undo group, or rejects it whole. Partial application is
// forbidden: either every record lands or none does.
//
// When the base fingerprint still matches, the records are valid by
// construction and are applied directly. When it differs, each record is
// positionally re-validated: the buffer is re-read at the record's stated
// range and must still contain the expected removed text. One failed record
// rejects the entire patch with the conflicting records listed.
func Apply(t Target, p ProposedPatch) (*AppliedResult, error) {
	if len(p.Edits) == 0 {
		return &AppliedResult{}, nil
	}

	current := t.Fingerprint()
	degraded := current != p.BaseFingerprint

	if degraded {
		var conflicts []types.Edit
		for _, e := range p.Edits {
			got, err := t.Read(e.Span)
			if err != nil || got != e.OldText {
				conflicts = append(conflicts, e)
			}
		}
		if len(conflicts) > 0 {
			logger.Debugf("Patch: rejected, %d of %d record(s) stale", len(conflicts), len(p.Edits))
			return nil, &RejectedError{Conflicts: conflicts}
		}
		logger.Debugf("Patch: base fingerprint diverged but all %d record(s) re-validated", len(p.Edits))
	}

	group := orderForApply(p.Edits)
	if err := t.CommitGroup(group); err != nil {
		return nil, err
	}
	return &AppliedResult{Group: group, Degraded: degraded}, nil
}

// orderForApply sorts records from the end of the document toward the start,
// so each record's pre-edit span stays valid as the group is applied.
func orderForApply(edits []types.Edit) []types.Edit {
	group := make([]types.Edit, len(edits))
	copy(group, edits)
	sort.SliceStable(group, func(i, j int) bool {
		return group[j].Span.Start.Before(group[i].Span.Start)
	})
	return group
}
