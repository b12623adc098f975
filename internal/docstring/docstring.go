// Package docstring prepares raw documentation strings for rendering and
// separates inline metadata fields from the visible text.
package docstring

import (
	"strings"
)

// Prepare converts a raw docstring into a list of stripped lines. Leading
// indentation common to every line after the first is removed, tabs expand
// to tabWidth spaces, and trailing blank lines are dropped; a single
// terminating blank line is appended so consumers can concatenate blocks.
func Prepare(doc string, tabWidth int) []string {
	if tabWidth <= 0 {
		tabWidth = 8
	}
	lines := strings.Split(expandTabs(doc, tabWidth), "\n")

	// Find the minimum indentation of all lines after the first.
	margin := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}
	out := make([]string, 0, len(lines)+1)
	for i, line := range lines {
		if i > 0 && margin > 0 && len(line) >= margin {
			line = line[margin:]
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	if len(out) > 0 {
		out = append(out, "")
	}
	return out
}

func expandTabs(s string, width int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := width - col%width
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}

// SeparateMetadata extracts ":meta name: value" fields from a docstring.
// It returns the docstring with those lines removed and the collected
// metadata. Field names are the part after "meta"; a bare ":meta private:"
// yields metadata["private"] == "".
func SeparateMetadata(doc string) (string, map[string]string) {
	metadata := map[string]string{}
	if doc == "" {
		return doc, metadata
	}
	var kept []string
	for _, line := range strings.Split(doc, "\n") {
		name, value, ok := parseMetaField(line)
		if ok {
			metadata[name] = value
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), metadata
}

func parseMetaField(line string) (name, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ":meta ") {
		return "", "", false
	}
	rest := strings.TrimPrefix(trimmed, ":meta ")
	end := strings.Index(rest, ":")
	if end < 0 {
		return "", "", false
	}
	name = strings.TrimSpace(rest[:end])
	if name == "" {
		return "", "", false
	}
	value = strings.TrimSpace(rest[end+1:])
	return name, value, true
}
