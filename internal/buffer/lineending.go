// internal/buffer/lineending.go
package buffer

// LineEnding identifies a line terminator style.
type LineEnding uint8

const (
	EndingLF   LineEnding = iota // Unix (\n)
	EndingCRLF                   // Windows (\r\n)
	EndingCR                     // old Mac (\r)
)

// String returns the terminator bytes for the style.
func (le LineEnding) String() string {
	switch le {
	case EndingCRLF:
		return "\r\n"
	case EndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// DetectLineEnding returns the majority line ending in text plus whether the
// text mixes styles. Returns EndingLF when no terminators are found.
func DetectLineEnding(text string) (LineEnding, bool) {
	var lfCount, crlfCount, crCount int

	i := 0
	for i < len(text) {
		if i+1 < len(text) && text[i] == '\r' && text[i+1] == '\n' {
			crlfCount++
			i += 2
		} else if text[i] == '\r' {
			crCount++
			i++
		} else if text[i] == '\n' {
			lfCount++
			i++
		} else {
			i++
		}
	}

	styles := 0
	for _, n := range []int{lfCount, crlfCount, crCount} {
		if n > 0 {
			styles++
		}
	}
	mixed := styles > 1

	// Majority vote; ties resolved CRLF > LF > CR to keep detection stable.
	if crlfCount > 0 && crlfCount >= lfCount && crlfCount >= crCount {
		return EndingCRLF, mixed
	}
	if crCount > 0 && crCount > lfCount {
		return EndingCR, mixed
	}
	return EndingLF, mixed
}

// splitLines breaks text into lines and their trailing terminators. The last
// line's terminator is "" when the text does not end with one; a trailing
// terminator yields a final empty line, so joining reproduces text exactly.
func splitLines(text string) (lines []string, endings []string) {
	start := 0
	i := 0
	for i < len(text) {
		if i+1 < len(text) && text[i] == '\r' && text[i+1] == '\n' {
			lines = append(lines, text[start:i])
			endings = append(endings, "\r\n")
			i += 2
			start = i
		} else if text[i] == '\r' || text[i] == '\n' {
			lines = append(lines, text[start:i])
			endings = append(endings, text[i:i+1])
			i++
			start = i
		} else {
			i++
		}
	}
	lines = append(lines, text[start:])
	endings = append(endings, "")
	return lines, endings
}
