// internal/search/replace.go
package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ashkett/quill/internal/types"
)

// ReplaceOne builds the edit replacing a single match. For regex mode the
// replacement may reference captured groups; the template is validated before
// any edit is produced.
func ReplaceOne(text string, m Match, pattern, replacement string, opts Options) (types.Edit, error) {
	re, err := Compile(pattern, opts)
	if err != nil {
		return types.Edit{}, err
	}

	repl := replacement
	if opts.Mode == ModeRegex {
		if err := ValidateTemplate(re, replacement); err != nil {
			return types.Edit{}, err
		}
		repl = string(re.ExpandString(nil, replacement, text, m.Submatch))
	}

	starts := LineStarts(text)
	span := SpanAt(text, starts, m.Start, m.End)
	return types.NewReplace(span, m.Text, repl), nil
}

// ReplaceAllEdits computes the full edit group for a replace-all pass. The
// match list is taken against the immutable snapshot before any edit exists;
// the returned edits are ordered from the end of the document toward the
// start so earlier spans stay valid while the group is applied in sequence.
// A zero-match pass returns an empty group.
func ReplaceAllEdits(text, pattern string, opts Options, template string) ([]types.Edit, error) {
	re, err := Compile(pattern, opts)
	if err != nil {
		return nil, err
	}
	if opts.Mode == ModeRegex {
		if err := ValidateTemplate(re, template); err != nil {
			return nil, err
		}
	}

	matches := findAll(re, text, opts)
	if len(matches) == 0 {
		return nil, nil
	}

	starts := LineStarts(text)
	edits := make([]types.Edit, 0, len(matches))
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		repl := template
		if opts.Mode == ModeRegex {
			repl = string(re.ExpandString(nil, template, text, m.Submatch))
		}
		span := SpanAt(text, starts, m.Start, m.End)
		edits = append(edits, types.NewReplace(span, m.Text, repl))
	}
	return edits, nil
}

// ValidateTemplate checks every $-reference in template against the groups
// the compiled pattern actually captures. Unresolved references are reported
// as ErrTemplate before any edit is applied.
func ValidateTemplate(re *regexp.Regexp, template string) error {
	names := re.SubexpNames()
	byName := make(map[string]bool, len(names))
	for _, n := range names {
		if n != "" {
			byName[n] = true
		}
	}

	for i := 0; i < len(template); {
		if template[i] != '$' {
			i++
			continue
		}
		i++
		if i >= len(template) {
			return fmt.Errorf("%w: dangling '$' at end of template", ErrTemplate)
		}
		if template[i] == '$' { // $$ is a literal dollar
			i++
			continue
		}
		braced := false
		if template[i] == '{' {
			braced = true
			i++
		}
		start := i
		for i < len(template) && isNameByte(template[i]) {
			i++
		}
		name := template[start:i]
		if braced {
			if i >= len(template) || template[i] != '}' {
				return fmt.Errorf("%w: unterminated '${' reference", ErrTemplate)
			}
			i++
		}
		if name == "" {
			return fmt.Errorf("%w: empty group reference", ErrTemplate)
		}
		if num, err := strconv.Atoi(name); err == nil {
			if num > re.NumSubexp() {
				return fmt.Errorf("%w: group $%d not captured by pattern", ErrTemplate, num)
			}
			continue
		}
		if !byName[name] {
			return fmt.Errorf("%w: unknown group $%s", ErrTemplate, name)
		}
	}
	return nil
}

func isNameByte(b byte) bool {
	return b == '_' ||
		('0' <= b && b <= '9') ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z')
}

// ParseSubstitute parses a /pattern/replacement/[g] command string.
func ParseSubstitute(cmdStr string) (pattern, replacement string, global bool, err error) {
	// Simple parsing, doesn't handle escaped delimiters yet
	parts := strings.SplitN(cmdStr, "/", 4)
	if len(parts) < 3 || parts[0] != "" { // Must start with '/'
		err = fmt.Errorf("invalid format: use /pattern/replacement/[g]")
		return
	}

	pattern = parts[1]
	replacement = parts[2]

	if pattern == "" {
		err = fmt.Errorf("search pattern cannot be empty")
		return
	}

	if len(parts) > 3 && strings.Contains(parts[3], "g") {
		global = true
	}

	return
}
