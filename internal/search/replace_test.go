package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashkett/quill/internal/buffer"
	"github.com/ashkett/quill/internal/types"
)

func TestReplaceAllEditsRegexGroups(t *testing.T) {
	text := "a1 a2 a3"
	opts := Options{Mode: ModeRegex, CaseSensitive: true}

	edits, err := ReplaceAllEdits(text, `a(\d)`, opts, "x$1")
	require.NoError(t, err)
	require.Len(t, edits, 3)

	// Ordered end-of-document first so earlier spans stay valid.
	assert.Equal(t, types.Position{Line: 0, Col: 6}, edits[0].Span.Start)
	assert.Equal(t, types.Position{Line: 0, Col: 0}, edits[2].Span.Start)

	buf := buffer.NewFromString(text)
	for _, e := range edits {
		_, err := buf.ApplyEdit(e)
		require.NoError(t, err)
	}
	assert.Equal(t, "x1 x2 x3", buf.Text())
}

func TestReplaceAllEditsLiteral(t *testing.T) {
	edits, err := ReplaceAllEdits("foo bar foo", "foo",
		Options{Mode: ModeLiteral, CaseSensitive: true}, "qux")
	require.NoError(t, err)
	require.Len(t, edits, 2)

	buf := buffer.NewFromString("foo bar foo")
	for _, e := range edits {
		_, err := buf.ApplyEdit(e)
		require.NoError(t, err)
	}
	assert.Equal(t, "qux bar qux", buf.Text())
}

func TestReplaceAllEditsZeroMatches(t *testing.T) {
	edits, err := ReplaceAllEdits("nothing here", "xyz",
		Options{Mode: ModeLiteral, CaseSensitive: true}, "!")
	require.NoError(t, err)
	assert.Nil(t, edits)
}

func TestReplaceAllEditsRejectsBadTemplate(t *testing.T) {
	opts := Options{Mode: ModeRegex, CaseSensitive: true}

	_, err := ReplaceAllEdits("a1", `a(\d)`, opts, "x$2")
	assert.ErrorIs(t, err, ErrTemplate)

	_, err = ReplaceAllEdits("a1", `a(\d)`, opts, "$name")
	assert.ErrorIs(t, err, ErrTemplate)
}

func TestReplaceOneLiteral(t *testing.T) {
	text := "foo bar"
	opts := Options{Mode: ModeLiteral, CaseSensitive: true}
	matches, err := FindAll(text, "foo", opts)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	edit, err := ReplaceOne(text, matches[0], "foo", "baz", opts)
	require.NoError(t, err)
	assert.Equal(t, "foo", edit.OldText)
	assert.Equal(t, "baz", edit.NewText)

	buf := buffer.NewFromString(text)
	_, err = buf.ApplyEdit(edit)
	require.NoError(t, err)
	assert.Equal(t, "baz bar", buf.Text())
}

func TestReplaceOneRegexExpansion(t *testing.T) {
	text := "date: 2026-08-25"
	opts := Options{Mode: ModeRegex, CaseSensitive: true}
	matches, err := FindAll(text, `(\d{4})-(\d{2})-(\d{2})`, opts)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	edit, err := ReplaceOne(text, matches[0], `(\d{4})-(\d{2})-(\d{2})`, "$3/$2/$1", opts)
	require.NoError(t, err)
	assert.Equal(t, "25/08/2026", edit.NewText)
}

func TestValidateTemplate(t *testing.T) {
	re, err := Compile(`(?P<year>\d{4})-(\d{2})`, Options{Mode: ModeRegex, CaseSensitive: true})
	require.NoError(t, err)

	assert.NoError(t, ValidateTemplate(re, "plain text"))
	assert.NoError(t, ValidateTemplate(re, "$1 and $2"))
	assert.NoError(t, ValidateTemplate(re, "${year}"))
	assert.NoError(t, ValidateTemplate(re, "100$$"))

	assert.ErrorIs(t, ValidateTemplate(re, "$3"), ErrTemplate)
	assert.ErrorIs(t, ValidateTemplate(re, "$month"), ErrTemplate)
	assert.ErrorIs(t, ValidateTemplate(re, "${year"), ErrTemplate)
	assert.ErrorIs(t, ValidateTemplate(re, "trailing $"), ErrTemplate)
}

func TestParseSubstitute(t *testing.T) {
	pattern, repl, global, err := ParseSubstitute("/foo/bar/g")
	require.NoError(t, err)
	assert.Equal(t, "foo", pattern)
	assert.Equal(t, "bar", repl)
	assert.True(t, global)

	pattern, repl, global, err = ParseSubstitute("/foo/bar/")
	require.NoError(t, err)
	assert.Equal(t, "foo", pattern)
	assert.Equal(t, "bar", repl)
	assert.False(t, global)

	_, _, _, err = ParseSubstitute("foo/bar/g")
	assert.Error(t, err, "must start with a delimiter")

	_, _, _, err = ParseSubstitute("//repl/")
	assert.Error(t, err, "empty pattern")
}
