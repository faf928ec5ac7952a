// internal/types/edit.go
package types

import "fmt"

// EditKind tags the variant of an Edit. Every place that interprets an edit
// (apply, invert, log) switches over this exhaustively.
type EditKind uint8

const (
	EditInsert EditKind = iota
	EditDelete
	EditReplace
)

// String returns the action-log name for the kind.
func (k EditKind) String() string {
	switch k {
	case EditInsert:
		return "insert"
	case EditDelete:
		return "delete"
	case EditReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Edit is a single reversible unit of change. Span addresses the *pre-edit*
// buffer; OldText is the text removed from that span and NewText the text
// inserted in its place. Applying the inverse (swapped texts, post-edit span)
// restores the prior buffer state exactly.
type Edit struct {
	Kind    EditKind
	Span    Span
	OldText string
	NewText string
}

// NewInsert creates an Edit inserting text at a position.
func NewInsert(at Position, text string) Edit {
	return Edit{
		Kind:    EditInsert,
		Span:    Span{Start: at, End: at},
		NewText: text,
	}
}

// NewDelete creates an Edit removing the given span containing oldText.
func NewDelete(span Span, oldText string) Edit {
	return Edit{
		Kind:    EditDelete,
		Span:    span.Normalize(),
		OldText: oldText,
	}
}

// NewReplace creates an Edit swapping oldText in span for newText.
func NewReplace(span Span, oldText, newText string) Edit {
	return Edit{
		Kind:    EditReplace,
		Span:    span.Normalize(),
		OldText: oldText,
		NewText: newText,
	}
}

// IsNoOp reports whether the edit changes nothing.
func (e Edit) IsNoOp() bool {
	return e.OldText == "" && e.NewText == ""
}

// PostSpan returns the span the edit's NewText occupies after application.
func (e Edit) PostSpan() Span {
	return Span{Start: e.Span.Start, End: Advance(e.Span.Start, e.NewText)}
}

// Invert returns the edit that undoes this one. Its span addresses the
// post-edit buffer, so inverses must be applied in LIFO order.
func (e Edit) Invert() Edit {
	inv := Edit{
		Span:    e.PostSpan(),
		OldText: e.NewText,
		NewText: e.OldText,
	}
	switch e.Kind {
	case EditInsert:
		inv.Kind = EditDelete
	case EditDelete:
		inv.Kind = EditInsert
	case EditReplace:
		inv.Kind = EditReplace
	}
	return inv
}

// String returns a compact description for logs.
func (e Edit) String() string {
	return fmt.Sprintf("%s@%d:%d(-%d+%d)", e.Kind, e.Span.Start.Line, e.Span.Start.Col, len(e.OldText), len(e.NewText))
}
