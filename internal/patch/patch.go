// Package patch validates and applies externally-proposed edit groups
// against a live buffer, detecting staleness before committing anything.
package patch

import (
	"errors"
	"fmt"

	"github.com/ashkett/quill/internal/types"
)

// ErrStaleContent reports a patch that conflicts with local edits made since
// the proposal was computed. Test with errors.Is; the concrete *RejectedError
// carries the conflicting records.
var ErrStaleContent = errors.New("patch conflicts with local edits")

// ProposedPatch is the external input from the AI collaborator: the target
// file identity, a fingerprint of the content the proposal was computed
// against, and the proposed edit records. A patch is consumed exactly once:
// accepted it becomes one undo group, rejected it is discarded whole.
type ProposedPatch struct {
	TargetPath      string
	BaseFingerprint string
	Edits           []types.Edit
}

// AppliedResult reports a committed patch. Degraded is set when the base
// fingerprint no longer matched and the patch passed positional
// re-validation instead.
type AppliedResult struct {
	Group    []types.Edit
	Degraded bool
}

// RejectedError reports a rejected patch together with the records whose
// target ranges no longer hold the expected text. The buffer is unchanged.
type RejectedError struct {
	Conflicts []types.Edit
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%v: %d conflicting record(s)", ErrStaleContent, len(e.Conflicts))
}

func (e *RejectedError) Unwrap() error {
	return ErrStaleContent
}
