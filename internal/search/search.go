// Package search implements literal and regex matching plus the replace
// engine over a buffer snapshot.
package search

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/rivo/uniseg"
)

// Sentinel errors. Both are surfaced inline to the caller; neither is fatal
// to the session and no edit is applied once either is returned.
var (
	// ErrPattern reports invalid search pattern syntax.
	ErrPattern = errors.New("invalid search pattern")
	// ErrTemplate reports an unresolved group reference in a replacement template.
	ErrTemplate = errors.New("invalid replacement template")
)

// Mode selects how a pattern is interpreted.
type Mode uint8

const (
	ModeLiteral Mode = iota // pattern is an exact substring
	ModeRegex               // pattern is a regular expression
)

// Options control one search call.
type Options struct {
	Mode          Mode
	CaseSensitive bool
	WholeWord     bool
	// WrapAround continues a cursor-relative search from the top of the
	// document once the end is reached. Wrapped matches sort after the
	// pre-wrap matches, matching find-next semantics. Replace-all ignores
	// this: it always scans the whole document exactly once.
	WrapAround bool
}

// Match is one found occurrence. Offsets are byte offsets into the logical
// snapshot text. Submatch holds the pair-indices of captured groups as
// produced by the regexp package, for template expansion.
type Match struct {
	Start    int
	End      int
	Text     string
	Groups   []string
	Submatch []int
}

// Compile builds the matcher for pattern under opts. Invalid regex syntax is
// reported as ErrPattern.
func Compile(pattern string, opts Options) (*regexp.Regexp, error) {
	expr := pattern
	if opts.Mode == ModeLiteral {
		expr = regexp.QuoteMeta(pattern)
	}
	if !opts.CaseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPattern, err)
	}
	return re, nil
}

// Find returns all matches of pattern in text, in document order
// (top-to-bottom, left-to-right), starting at byte offset from. Matches never
// overlap: after a match the scan resumes at its end offset. With WrapAround
// set, matches before from are appended after the forward matches.
func Find(text, pattern string, opts Options, from int) ([]Match, error) {
	re, err := Compile(pattern, opts)
	if err != nil {
		return nil, err
	}
	if from < 0 {
		from = 0
	}

	all := findAll(re, text, opts)

	if from == 0 {
		return all, nil
	}
	var forward, wrapped []Match
	for _, m := range all {
		if m.Start >= from {
			forward = append(forward, m)
		} else {
			wrapped = append(wrapped, m)
		}
	}
	if opts.WrapAround {
		return append(forward, wrapped...), nil
	}
	return forward, nil
}

// FindAll scans the entire document exactly once, ignoring WrapAround.
// This is the sequence replace-all consumes.
func FindAll(text, pattern string, opts Options) ([]Match, error) {
	re, err := Compile(pattern, opts)
	if err != nil {
		return nil, err
	}
	return findAll(re, text, opts), nil
}

func findAll(re *regexp.Regexp, text string, opts Options) []Match {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	var boundaries map[int]bool
	if opts.WholeWord {
		boundaries = wordBoundaries(text)
	}

	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if opts.WholeWord && !(boundaries[start] && boundaries[end]) {
			continue
		}
		m := Match{
			Start:    start,
			End:      end,
			Text:     text[start:end],
			Submatch: loc,
		}
		if len(loc) > 2 {
			m.Groups = make([]string, 0, len(loc)/2-1)
			for g := 2; g < len(loc); g += 2 {
				if loc[g] < 0 {
					m.Groups = append(m.Groups, "")
				} else {
					m.Groups = append(m.Groups, text[loc[g]:loc[g+1]])
				}
			}
		}
		matches = append(matches, m)
	}
	return matches
}

// wordBoundaries returns the byte offsets at which a word segment starts or
// ends, per Unicode word segmentation.
func wordBoundaries(text string) map[int]bool {
	boundaries := make(map[int]bool)
	offset := 0
	state := -1
	boundaries[0] = true
	rest := text
	for len(rest) > 0 {
		var word string
		word, rest, state = uniseg.FirstWordInString(rest, state)
		offset += len(word)
		boundaries[offset] = true
	}
	return boundaries
}
