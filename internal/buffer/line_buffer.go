// internal/buffer/line_buffer.go
package buffer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ashkett/quill/internal/types"
)

// LineBuffer is the line-slice Buffer implementation. Lines never contain a
// terminator character; endings[i] holds the terminator written after
// lines[i] at serialize time (empty for an unterminated final line). When the
// loaded content mixes ending styles the original per-line terminators are
// preserved verbatim; new terminators always take the majority style.
type LineBuffer struct {
	lines   []string
	endings []string
	eol     LineEnding
	mixed   bool
	enc     string
	bom     []byte
}

// NewLineBuffer creates an empty buffer with a single empty line.
func NewLineBuffer() *LineBuffer {
	return &LineBuffer{
		lines:   []string{""},
		endings: []string{""},
		eol:     EndingLF,
		enc:     EncUTF8,
	}
}

// NewFromString creates a UTF-8 buffer from in-memory text. Used for unsaved
// documents and tests; terminators in text are honored like loaded content.
func NewFromString(text string) *LineBuffer {
	b := NewLineBuffer()
	b.setText(text)
	return b
}

// Load replaces the content with decoded bytes.
func (b *LineBuffer) Load(data []byte, declaredEncoding string) error {
	text, enc, bom, err := decodeContent(data, declaredEncoding)
	if err != nil {
		return err
	}
	b.setText(text)
	b.enc = enc
	b.bom = bom
	return nil
}

func (b *LineBuffer) setText(text string) {
	b.eol, b.mixed = DetectLineEnding(text)
	b.lines, b.endings = splitLines(text)
}

// Serialize produces the on-disk byte form.
func (b *LineBuffer) Serialize() ([]byte, error) {
	var sb strings.Builder
	for i := range b.lines {
		sb.WriteString(b.lines[i])
		sb.WriteString(b.endings[i])
	}
	return encodeContent(sb.String(), b.enc, b.bom)
}

// Line returns the content of one line, without its terminator.
func (b *LineBuffer) Line(index int) (string, error) {
	if index < 0 || index >= len(b.lines) {
		return "", fmt.Errorf("%w: line %d of %d", ErrRange, index, len(b.lines))
	}
	return b.lines[index], nil
}

// LineCount returns the number of lines.
func (b *LineBuffer) LineCount() int {
	return len(b.lines)
}

// Text returns the logical content, lines joined with "\n".
func (b *LineBuffer) Text() string {
	return strings.Join(b.lines, "\n")
}

// LineEnding returns the recorded majority terminator style.
func (b *LineBuffer) LineEnding() LineEnding {
	return b.eol
}

// Encoding returns the recorded encoding tag.
func (b *LineBuffer) Encoding() string {
	return b.enc
}

// Fingerprint returns the SHA-256 hash of the logical content.
func (b *LineBuffer) Fingerprint() string {
	sum := sha256.Sum256([]byte(b.Text()))
	return hex.EncodeToString(sum[:])
}

// Read extracts the text covered by span, with logical "\n" separators.
func (b *LineBuffer) Read(span types.Span) (string, error) {
	span = span.Normalize()
	if err := b.validatePosition(span.Start); err != nil {
		return "", err
	}
	if err := b.validatePosition(span.End); err != nil {
		return "", err
	}
	return b.extract(span), nil
}

// ApplyEdit removes the span's current text and inserts the edit's NewText,
// returning the inverse edit. The edit's stated kind is advisory; the inverse
// is classified from what actually changed.
func (b *LineBuffer) ApplyEdit(e types.Edit) (types.Edit, error) {
	span := e.Span.Normalize()
	if err := b.validatePosition(span.Start); err != nil {
		return types.Edit{}, err
	}
	if err := b.validatePosition(span.End); err != nil {
		return types.Edit{}, err
	}

	removed := b.extract(span)
	newText := normalizeNewlines(e.NewText)

	b.deleteSpan(span)
	b.insertAt(span.Start, newText)

	applied := types.Edit{
		Kind:    classify(removed, newText),
		Span:    span,
		OldText: removed,
		NewText: newText,
	}
	return applied.Invert(), nil
}

func classify(removed, inserted string) types.EditKind {
	switch {
	case removed == "":
		return types.EditInsert
	case inserted == "":
		return types.EditDelete
	default:
		return types.EditReplace
	}
}

// normalizeNewlines maps CRLF and lone CR in inserted text to logical "\n"
// so no terminator byte can end up embedded in a line.
func normalizeNewlines(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func (b *LineBuffer) validatePosition(pos types.Position) error {
	if pos.Line < 0 || pos.Line >= len(b.lines) {
		return fmt.Errorf("%w: line %d of %d", ErrRange, pos.Line, len(b.lines))
	}
	if pos.Col < 0 || pos.Col > len([]rune(b.lines[pos.Line])) {
		return fmt.Errorf("%w: col %d on line %d", ErrRange, pos.Col, pos.Line)
	}
	return nil
}

// extract assumes span is normalized and validated.
func (b *LineBuffer) extract(span types.Span) string {
	s, t := span.Start, span.End
	if s.Line == t.Line {
		r := []rune(b.lines[s.Line])
		return string(r[s.Col:t.Col])
	}

	var sb strings.Builder
	first := []rune(b.lines[s.Line])
	sb.WriteString(string(first[s.Col:]))
	for line := s.Line + 1; line < t.Line; line++ {
		sb.WriteByte('\n')
		sb.WriteString(b.lines[line])
	}
	last := []rune(b.lines[t.Line])
	sb.WriteByte('\n')
	sb.WriteString(string(last[:t.Col]))
	return sb.String()
}

func (b *LineBuffer) deleteSpan(span types.Span) {
	s, t := span.Start, span.End
	if s == t {
		return
	}
	if s.Line == t.Line {
		r := []rune(b.lines[s.Line])
		b.lines[s.Line] = string(r[:s.Col]) + string(r[t.Col:])
		return
	}

	rs := []rune(b.lines[s.Line])
	rt := []rune(b.lines[t.Line])
	b.lines[s.Line] = string(rs[:s.Col]) + string(rt[t.Col:])
	// The merged line keeps the end line's terminator.
	b.endings[s.Line] = b.endings[t.Line]
	b.lines = append(b.lines[:s.Line+1], b.lines[t.Line+1:]...)
	b.endings = append(b.endings[:s.Line+1], b.endings[t.Line+1:]...)
}

func (b *LineBuffer) insertAt(pos types.Position, text string) {
	if text == "" {
		return
	}
	r := []rune(b.lines[pos.Line])
	head := string(r[:pos.Col])
	tail := string(r[pos.Col:])

	parts := strings.Split(text, "\n")
	if len(parts) == 1 {
		b.lines[pos.Line] = head + text + tail
		return
	}

	// Newly created terminators take the buffer's majority style; the final
	// inserted line inherits the split line's original terminator.
	origEnding := b.endings[pos.Line]
	defEnding := b.eol.String()

	b.lines[pos.Line] = head + parts[0]
	b.endings[pos.Line] = defEnding

	newLines := make([]string, 0, len(parts)-1)
	newEndings := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts)-1; i++ {
		newLines = append(newLines, parts[i])
		newEndings = append(newEndings, defEnding)
	}
	newLines = append(newLines, parts[len(parts)-1]+tail)
	newEndings = append(newEndings, origEnding)

	b.lines = append(b.lines[:pos.Line+1], append(newLines, b.lines[pos.Line+1:]...)...)
	b.endings = append(b.endings[:pos.Line+1], append(newEndings, b.endings[pos.Line+1:]...)...)
}

// Ensure LineBuffer satisfies the Buffer interface.
var _ Buffer = (*LineBuffer)(nil)
