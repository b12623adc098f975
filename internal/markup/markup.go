// Package markup holds the structured output of documentation generation:
// attributed text lines produced by documenters, and reference nodes
// produced by the cross-reference resolver. Rendering those structures to a
// final format is a separate concern.
package markup

import "strings"

// Line is one line of generated markup with its origin attached.
type Line struct {
	Text   string
	Source string
	Number int
}

// Content is an append-only sequence of attributed lines.
type Content struct {
	lines []Line
}

// NewContent builds content from plain lines with a single source.
func NewContent(source string, texts ...string) *Content {
	c := &Content{}
	for i, t := range texts {
		c.Append(t, source, i)
	}
	return c
}

// Append adds one line. Blank-ish text collapses to an empty line.
func (c *Content) Append(text, source string, number int) {
	if strings.TrimSpace(text) == "" {
		text = ""
	}
	c.lines = append(c.lines, Line{Text: text, Source: source, Number: number})
}

// Lines returns the collected lines.
func (c *Content) Lines() []Line {
	if c == nil {
		return nil
	}
	return c.lines
}

// Texts returns just the text of each line.
func (c *Content) Texts() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.lines))
	for i, l := range c.lines {
		out[i] = l.Text
	}
	return out
}

// String joins the lines for display.
func (c *Content) String() string {
	return strings.Join(c.Texts(), "\n")
}

// Len reports the number of lines.
func (c *Content) Len() int {
	if c == nil {
		return 0
	}
	return len(c.lines)
}

// Reference is a resolved cross-reference: a link to a location in this or
// an external documentation set.
type Reference struct {
	// Text is the visible link text.
	Text string
	// URI is the link target, relative to the referring document unless
	// absolute.
	URI string
	// Title is the hover text, e.g. "(in Pkg v2.0)".
	Title string
	// Internal marks references into the current project.
	Internal bool
}
