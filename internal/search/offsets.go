// internal/search/offsets.go
package search

import (
	"strings"
	"unicode/utf8"

	"github.com/ashkett/quill/internal/types"
)

// LineStarts returns the byte offset of each line start in text. Index i is
// the offset where line i begins.
func LineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); {
		idx := strings.IndexByte(text[i:], '\n')
		if idx < 0 {
			break
		}
		i += idx + 1
		starts = append(starts, i)
	}
	return starts
}

// PositionAt converts a byte offset into a line/column position using a
// precomputed LineStarts table. Col is a rune index within the line.
func PositionAt(text string, starts []int, offset int) types.Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(text) {
		offset = len(text)
	}
	// Binary search for the containing line.
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return types.Position{
		Line: lo,
		Col:  utf8.RuneCountInString(text[starts[lo]:offset]),
	}
}

// SpanAt converts byte offsets [start, end) into a Span.
func SpanAt(text string, starts []int, start, end int) types.Span {
	return types.Span{
		Start: PositionAt(text, starts, start),
		End:   PositionAt(text, starts, end),
	}
}
