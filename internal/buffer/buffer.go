// internal/buffer/buffer.go
package buffer

import (
	"errors"

	"github.com/ashkett/quill/internal/types"
)

// Sentinel errors surfaced by buffer operations. Callers are expected to
// test with errors.Is; both leave the buffer untouched.
var (
	// ErrRange reports an edit or read outside current content bounds.
	ErrRange = errors.New("range outside buffer bounds")
	// ErrDecode reports bytes that no candidate encoding could decode.
	ErrDecode = errors.New("undecodable byte sequence")
)

// Buffer defines the interface for text buffer operations. A Buffer owns one
// document's content; all access to it is routed through a single session.
type Buffer interface {
	// Load replaces the content with decoded bytes. declaredEncoding may be
	// empty, in which case the fallback chain decides.
	Load(data []byte, declaredEncoding string) error
	// Serialize produces the on-disk bytes: recorded line endings, recorded
	// encoding, original BOM if any. Byte-identical to the loaded bytes when
	// the buffer is unmodified.
	Serialize() ([]byte, error)

	Line(index int) (string, error)
	LineCount() int
	// Text returns the logical content: lines joined with "\n" regardless of
	// the recorded line-ending style. Search, fingerprints, and patches all
	// operate on this form.
	Text() string
	// Read extracts the text covered by span.
	Read(span types.Span) (string, error)

	// ApplyEdit removes the span's text and inserts the edit's NewText,
	// returning the inverse edit for undo.
	ApplyEdit(e types.Edit) (types.Edit, error)

	// Fingerprint is a content hash used to detect whether the buffer has
	// changed since a reference point.
	Fingerprint() string

	LineEnding() LineEnding
	Encoding() string
}
