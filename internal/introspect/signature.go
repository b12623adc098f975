// Package introspect models callable signatures and their textual form.
//
// Signatures are extracted from the object graph by the object package and
// from static source analysis by the analyzer package; this package only
// defines the shared model and its rendering rules.
package introspect

import (
	"errors"
	"strings"
)

// ErrNoSignature reports that an object has no retrievable signature.
// This is an expected condition for many builtin objects and callers
// fall back to an empty signature without warning.
var ErrNoSignature = errors.New("object has no signature")

// ErrInvalidSignature reports that signature metadata was present but
// structurally unusable. Callers warn before falling back.
var ErrInvalidSignature = errors.New("invalid signature metadata")

// ParamKind mirrors the parameter kinds of a general callable surface.
type ParamKind int

const (
	PositionalOrKeyword ParamKind = iota
	PositionalOnly
	VarPositional
	KeywordOnly
	VarKeyword
)

// Param is a single formal parameter. Annotation and Default are already
// rendered to text; empty means absent.
type Param struct {
	Name       string
	Annotation string
	Default    string
	Kind       ParamKind
}

// Signature is a callable surface: ordered parameters plus an optional
// return annotation.
type Signature struct {
	Params []Param
	Return string
}

// Clone returns a deep copy. Formatting helpers mutate parameter lists and
// must never alias the graph's shared signature values.
func (s *Signature) Clone() *Signature {
	if s == nil {
		return nil
	}
	c := &Signature{Return: s.Return}
	c.Params = append([]Param(nil), s.Params...)
	return c
}

// DropFirst returns a copy of s without its first parameter, used when a
// bound method hides its receiver. A nil or empty signature is returned
// unchanged.
func (s *Signature) DropFirst() *Signature {
	if s == nil || len(s.Params) == 0 {
		return s
	}
	c := s.Clone()
	c.Params = c.Params[1:]
	return c
}

// StringifyOptions control signature rendering.
type StringifyOptions struct {
	// ShowAnnotations includes parameter and return annotations.
	ShowAnnotations bool
	// ShowReturn includes the "-> ret" suffix when a return annotation
	// exists. Ignored unless ShowAnnotations is set.
	ShowReturn bool
	// Unqualified strips dotted package qualifiers from annotations.
	Unqualified bool
}

// DefaultStringify renders with annotations and the return arrow.
var DefaultStringify = StringifyOptions{ShowAnnotations: true, ShowReturn: true}

// Stringify renders a signature as "(a: int, b=1) -> str". The star
// separator is inserted before the first keyword-only parameter when no
// *args parameter precedes it, and a lone "/" follows positional-only
// parameters, mirroring the grammar the rest of the system parses.
func Stringify(sig *Signature, opts StringifyOptions) string {
	if sig == nil {
		return ""
	}
	var parts []string
	lastKind := ParamKind(-1)
	for _, p := range sig.Params {
		if lastKind == PositionalOnly && p.Kind != PositionalOnly {
			parts = append(parts, "/")
		}
		if p.Kind == KeywordOnly && lastKind != KeywordOnly && lastKind != VarPositional {
			parts = append(parts, "*")
		}
		parts = append(parts, stringifyParam(p, opts))
		lastKind = p.Kind
	}
	if lastKind == PositionalOnly {
		parts = append(parts, "/")
	}
	out := "(" + strings.Join(parts, ", ") + ")"
	if opts.ShowAnnotations && opts.ShowReturn && sig.Return != "" {
		out += " -> " + renderAnnotation(sig.Return, opts)
	}
	return out
}

func stringifyParam(p Param, opts StringifyOptions) string {
	var b strings.Builder
	switch p.Kind {
	case VarPositional:
		b.WriteString("*")
	case VarKeyword:
		b.WriteString("**")
	}
	b.WriteString(p.Name)
	annotated := false
	if opts.ShowAnnotations && p.Annotation != "" {
		b.WriteString(": ")
		b.WriteString(renderAnnotation(p.Annotation, opts))
		annotated = true
	}
	if p.Default != "" {
		if annotated {
			b.WriteString(" = ")
		} else {
			b.WriteString("=")
		}
		b.WriteString(p.Default)
	}
	return b.String()
}

// renderAnnotation applies the display mode to one annotation string.
func renderAnnotation(ann string, opts StringifyOptions) string {
	if !opts.Unqualified {
		return ann
	}
	return ShortenAnnotation(ann)
}

// ShortenAnnotation strips dotted qualifiers from every identifier in an
// annotation, so "typing.Optional[collections.abc.Sequence]" renders as
// "Optional[Sequence]". Bracket structure and punctuation are preserved.
func ShortenAnnotation(ann string) string {
	var b strings.Builder
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		ident := ann[start:end]
		if i := strings.LastIndexByte(ident, '.'); i >= 0 {
			ident = ident[i+1:]
		}
		b.WriteString(ident)
		start = -1
	}
	for i := 0; i < len(ann); i++ {
		c := ann[i]
		if isIdentByte(c) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
		b.WriteByte(c)
	}
	flush(len(ann))
	return b.String()
}

func isIdentByte(c byte) bool {
	return c == '.' || c == '_' || (c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// ApplyAliases rewrites annotations through a type-alias table, returning a
// copy when any rewrite applies. Whole-annotation matches only; alias
// evaluation inside compound annotations is the analyzer's concern.
func ApplyAliases(sig *Signature, aliases map[string]string) *Signature {
	if sig == nil || len(aliases) == 0 {
		return sig
	}
	changed := false
	c := sig.Clone()
	for i, p := range c.Params {
		if alias, ok := aliases[p.Annotation]; ok && p.Annotation != "" {
			c.Params[i].Annotation = alias
			changed = true
		}
	}
	if alias, ok := aliases[c.Return]; ok && c.Return != "" {
		c.Return = alias
		changed = true
	}
	if !changed {
		return sig
	}
	return c
}

// MergeDefaults copies concrete default values from the implementation
// signature onto overload parameters whose declared default is the
// placeholder ellipsis.
func MergeDefaults(impl, overload *Signature) *Signature {
	if impl == nil || overload == nil {
		return overload
	}
	byName := make(map[string]Param, len(impl.Params))
	for _, p := range impl.Params {
		byName[p.Name] = p
	}
	c := overload.Clone()
	for i, p := range c.Params {
		if p.Default == "..." {
			if actual, ok := byName[p.Name]; ok {
				c.Params[i].Default = actual.Default
			}
		}
	}
	return c
}
