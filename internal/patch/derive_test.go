package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashkett/quill/internal/types"
)

// applyDerived runs the derived edits through the applier against a buffer
// holding oldText and returns the resulting content.
func applyDerived(t *testing.T, oldText, newText string) string {
	t.Helper()
	target := newStubTarget(oldText)
	p := ProposedPatch{
		BaseFingerprint: target.Fingerprint(),
		Edits:           DeriveEdits(oldText, newText),
	}
	_, err := Apply(target, p)
	require.NoError(t, err)
	return target.buf.Text()
}

func TestDeriveEditsRoundTrip(t *testing.T) {
	cases := []struct {
		name     string
		oldText  string
		newText  string
	}{
		{"line changed", "one\ntwo\nthree\n", "one\n2\nthree\n"},
		{"line appended", "one\ntwo\n", "one\ntwo\nthree\n"},
		{"line removed", "one\ntwo\nthree\n", "one\nthree\n"},
		{"leading insert", "body\n", "header\nbody\n"},
		{"rewrite", "completely\ndifferent\n", "nothing\nshared\nat all\n"},
		{"from empty", "", "fresh content\n"},
		{"to empty", "doomed\ncontent\n", ""},
		{"no trailing newline", "a\nb", "a\nb\nc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := applyDerived(t, tc.oldText, tc.newText)
			assert.Equal(t, tc.newText, got)
		})
	}
}

func TestDeriveEditsIdenticalTexts(t *testing.T) {
	assert.Nil(t, DeriveEdits("same\ncontent\n", "same\ncontent\n"))
	assert.Nil(t, DeriveEdits("", ""))
}

func TestDeriveEditsSpansAddressOldText(t *testing.T) {
	oldText := "keep\nchange me\nkeep too\n"
	newText := "keep\nchanged\nkeep too\n"

	edits := DeriveEdits(oldText, newText)
	require.Len(t, edits, 1)

	e := edits[0]
	assert.Equal(t, types.EditReplace, e.Kind)
	assert.Equal(t, 1, e.Span.Start.Line)
	assert.Equal(t, "change me\n", e.OldText)
	assert.Equal(t, "changed\n", e.NewText)
}

func TestDeriveEditsAreDisjointAndOrdered(t *testing.T) {
	oldText := "a\nb\nc\nd\ne\n"
	newText := "a\nB\nc\nD\ne\n"

	edits := DeriveEdits(oldText, newText)
	require.GreaterOrEqual(t, len(edits), 2)

	for i := 1; i < len(edits); i++ {
		prevEnd := edits[i-1].Span.End
		start := edits[i].Span.Start
		assert.False(t, start.Before(prevEnd), "edit %d overlaps its predecessor", i)
	}
}
