// internal/patch/derive.go
package patch

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/ashkett/quill/internal/types"
)

// DeriveEdits computes a minimal edit sequence turning oldText into newText,
// diffed at line granularity. Spans address oldText (the pre-edit buffer);
// the records are disjoint and in document order, ready to carry inside a
// ProposedPatch. Returns nil when the texts are identical.
func DeriveEdits(oldText, newText string) []types.Edit {
	if oldText == newText {
		return nil
	}

	dmp := diffmatchpatch.New()
	rOld, rNew, lineArray := dmp.DiffLinesToRunes(oldText, newText)
	diffs := dmp.DiffMainRunes(rOld, rNew, false)
	diffs = dmp.DiffCleanupMerge(diffs)

	// Decode the rune-encoded diff text back to original lines.
	decode := func(s string) string {
		var sb strings.Builder
		for _, r := range s {
			idx := int(r)
			if idx >= 0 && idx < len(lineArray) {
				sb.WriteString(lineArray[idx])
			}
		}
		return sb.String()
	}

	var edits []types.Edit
	pos := types.Position{}

	i := 0
	for i < len(diffs) {
		d := diffs[i]
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos = types.Advance(pos, decode(d.Text))
			i++

		case diffmatchpatch.DiffDelete:
			removed := decode(d.Text)
			span := types.Span{Start: pos, End: types.Advance(pos, removed)}

			// A directly following insert pairs up into a replace.
			inserted := ""
			if i+1 < len(diffs) && diffs[i+1].Type == diffmatchpatch.DiffInsert {
				inserted = decode(diffs[i+1].Text)
				i++
			}
			if inserted == "" {
				edits = append(edits, types.NewDelete(span, removed))
			} else {
				edits = append(edits, types.NewReplace(span, removed, inserted))
			}
			pos = span.End
			i++

		case diffmatchpatch.DiffInsert:
			edits = append(edits, types.NewInsert(pos, decode(d.Text)))
			i++
		}
	}
	return edits
}
