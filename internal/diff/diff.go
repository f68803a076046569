// Package diff parses unified diff patches far enough to know which new-side
// lines a pull request review comment can anchor to. GitHub rejects inline
// comments on lines outside the diff hunks, so the orchestrator consults this
// index before placing them.
package diff

import (
	"strconv"
	"strings"
)

// Lines is the set of new-side line numbers a patch touches, covering both
// added and context lines inside hunks.
type Lines map[int]bool

// Contains reports whether a comment can anchor to the given line.
func (l Lines) Contains(line int) bool {
	return l[line]
}

// NewSideLines parses a unified diff patch and collects every line number
// that exists on the new side of a hunk. An empty patch yields an empty set.
func NewSideLines(patch string) Lines {
	lines := make(Lines)
	if patch == "" {
		return lines
	}

	inHunk := false
	current := 0

	for _, raw := range strings.Split(patch, "\n") {
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "diff --git") ||
			strings.HasPrefix(raw, "index ") ||
			strings.HasPrefix(raw, "--- ") ||
			strings.HasPrefix(raw, "+++ ") ||
			strings.HasPrefix(raw, "\\ ") {
			continue
		}

		if strings.HasPrefix(raw, "@@") {
			start, ok := newStart(raw)
			if !ok {
				inHunk = false
				continue
			}
			inHunk = true
			current = start
			continue
		}

		if !inHunk {
			continue
		}

		switch raw[0] {
		case '+', ' ':
			lines[current] = true
			current++
		case '-':
			// Deletions have no new-side line number.
		default:
			// Some producers omit the leading space on context lines.
			lines[current] = true
			current++
		}
	}

	return lines
}

// newStart extracts the new-side start line from a hunk header such as
// "@@ -10,7 +10,8 @@ func main()".
func newStart(header string) (int, bool) {
	parts := strings.Split(header, "@@")
	if len(parts) < 2 {
		return 0, false
	}

	for _, field := range strings.Fields(strings.TrimSpace(parts[1])) {
		if !strings.HasPrefix(field, "+") {
			continue
		}
		spec := strings.TrimPrefix(field, "+")
		if idx := strings.Index(spec, ","); idx >= 0 {
			spec = spec[:idx]
		}
		start, err := strconv.Atoi(spec)
		if err != nil {
			return 0, false
		}
		return start, true
	}

	return 0, false
}
