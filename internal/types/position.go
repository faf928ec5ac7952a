// internal/types/position.go
package types

import "strings"

// Position represents a text position within a buffer.
// Line is the 0-based line index.
// Col is the 0-based column (rune) index within the line.
// Using rune index keeps multi-byte characters addressable as single columns.
type Position struct {
	Line int
	Col  int // Rune index
}

// Compare returns -1 if p is before other, 0 if equal, 1 if after.
func (p Position) Compare(other Position) int {
	if p.Line != other.Line {
		if p.Line < other.Line {
			return -1
		}
		return 1
	}
	if p.Col != other.Col {
		if p.Col < other.Col {
			return -1
		}
		return 1
	}
	return 0
}

// Before reports whether p comes before other.
func (p Position) Before(other Position) bool {
	return p.Compare(other) < 0
}

// Span is a half-open range [Start, End) within a buffer.
type Span struct {
	Start Position
	End   Position
}

// IsEmpty reports whether the span covers no text.
func (s Span) IsEmpty() bool {
	return s.Start == s.End
}

// Normalize returns a copy of the span with Start <= End.
func (s Span) Normalize() Span {
	if s.End.Before(s.Start) {
		return Span{Start: s.End, End: s.Start}
	}
	return s
}

// Advance returns the position reached by walking text forward from start.
// Newlines advance the line and reset the column; other runes advance the column.
func Advance(start Position, text string) Position {
	pos := start
	for {
		idx := strings.IndexByte(text, '\n')
		if idx < 0 {
			pos.Col += len([]rune(text))
			return pos
		}
		pos.Line++
		pos.Col = 0
		text = text[idx+1:]
	}
}
