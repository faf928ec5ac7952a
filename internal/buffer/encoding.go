// internal/buffer/encoding.go
package buffer

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// Encoding names accepted as a declared encoding and recorded on the buffer.
const (
	EncUTF8     = "utf-8"
	EncUTF8BOM  = "utf-8-sig"
	EncUTF16LE  = "utf-16le"
	EncUTF16BE  = "utf-16be"
	EncShiftJIS = "shift-jis" // cp932
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// fallbackChain mirrors the decode order the editor has always used: declared
// encoding first, then UTF-8 variants, UTF-16 variants, and finally cp932.
var fallbackChain = []string{EncUTF8, EncUTF8BOM, EncUTF16LE, EncUTF16BE, EncShiftJIS}

// decodeContent tries the declared encoding and then the fallback chain,
// returning the decoded text, the encoding that succeeded, and the BOM
// consumed from the input (kept for byte-identical serialization).
func decodeContent(data []byte, declared string) (text string, enc string, bom []byte, err error) {
	candidates := make([]string, 0, len(fallbackChain)+1)
	if declared != "" {
		candidates = append(candidates, strings.ToLower(declared))
	}
	candidates = append(candidates, fallbackChain...)

	tried := make(map[string]bool, len(candidates))
	for _, name := range candidates {
		if tried[name] {
			continue
		}
		tried[name] = true

		text, bom, err = decodeAs(data, name)
		if err == nil {
			return text, name, bom, nil
		}
	}
	return "", "", nil, fmt.Errorf("%w: no candidate encoding decoded the content", ErrDecode)
}

// decodeAs decodes data strictly as one named encoding.
func decodeAs(data []byte, name string) (string, []byte, error) {
	switch name {
	case EncUTF8:
		if !utf8.Valid(data) {
			return "", nil, ErrDecode
		}
		if bytes.HasPrefix(data, bomUTF8) {
			// A BOM-prefixed file is utf-8-sig territory.
			return "", nil, ErrDecode
		}
		return string(data), nil, nil

	case EncUTF8BOM:
		if !bytes.HasPrefix(data, bomUTF8) {
			return "", nil, ErrDecode
		}
		rest := data[len(bomUTF8):]
		if !utf8.Valid(rest) {
			return "", nil, ErrDecode
		}
		return string(rest), bomUTF8, nil

	case EncUTF16LE:
		body, bom := data, []byte(nil)
		if bytes.HasPrefix(data, bomUTF16LE) {
			body, bom = data[2:], bomUTF16LE
		}
		dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		text, err := dec.String(string(body))
		if err != nil || strings.ContainsRune(text, utf8.RuneError) {
			return "", nil, ErrDecode
		}
		return text, bom, nil

	case EncUTF16BE:
		body, bom := data, []byte(nil)
		if bytes.HasPrefix(data, bomUTF16BE) {
			body, bom = data[2:], bomUTF16BE
		}
		dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
		text, err := dec.String(string(body))
		if err != nil || strings.ContainsRune(text, utf8.RuneError) {
			return "", nil, ErrDecode
		}
		return text, bom, nil

	case EncShiftJIS:
		dec := japanese.ShiftJIS.NewDecoder()
		text, err := dec.String(string(data))
		// The decoder substitutes U+FFFD rather than failing; treat any
		// substitution as an undecodable input.
		if err != nil || strings.ContainsRune(text, utf8.RuneError) {
			return "", nil, ErrDecode
		}
		return text, nil, nil

	default:
		return "", nil, fmt.Errorf("%w: unknown encoding %q", ErrDecode, name)
	}
}

// encodeContent converts text back to the bytes of the named encoding,
// re-attaching the BOM captured at load.
func encodeContent(text, name string, bom []byte) ([]byte, error) {
	var body []byte
	switch name {
	case EncUTF8, EncUTF8BOM, "":
		body = []byte(text)
	case EncUTF16LE:
		enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
		out, err := enc.String(text)
		if err != nil {
			return nil, fmt.Errorf("utf-16le encode: %w", err)
		}
		body = []byte(out)
	case EncUTF16BE:
		enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
		out, err := enc.String(text)
		if err != nil {
			return nil, fmt.Errorf("utf-16be encode: %w", err)
		}
		body = []byte(out)
	case EncShiftJIS:
		enc := japanese.ShiftJIS.NewEncoder()
		out, err := enc.String(text)
		if err != nil {
			return nil, fmt.Errorf("shift-jis encode: %w", err)
		}
		body = []byte(out)
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}

	if len(bom) == 0 {
		return body, nil
	}
	result := make([]byte, 0, len(bom)+len(body))
	result = append(result, bom...)
	return append(result, body...), nil
}
