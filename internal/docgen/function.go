package docgen

import (
	"errors"
	"strings"

	"github.com/turky/sphinx/internal/introspect"
	"github.com/turky/sphinx/internal/object"
)

func functionKind() *Kind {
	return &Kind{
		Name:               "function",
		Scope:              ScopeModuleLevel,
		Priority:           0,
		MemberOrder:        30,
		ContentIndent:      "   ",
		Leaf:               true,
		DocstringSignature: true,
		CanDocument: func(member *object.Object, name string, isAttr bool, parent *Documenter) bool {
			if member == nil || object.IsSentinel(member) {
				return false
			}
			if member.Kind == object.KindFunction {
				return true
			}
			// bound methods exported at the module level
			return member.IsRoutine() && parent != nil && parent.kind.Name == "module"
		},
		FormatArgs: func(d *Documenter) (string, error) {
			return d.formatCallableArgs(d.obj, false)
		},
		FormatSignature: functionFormatSignature,
		Header:          functionHeader,
	}
}

func decoratorKind() *Kind {
	k := functionKind()
	k.Name = "decorator"
	k.Priority = -1
	// only claimed explicitly, never for discovered members
	k.CanDocument = func(*object.Object, string, bool, *Documenter) bool { return false }
	k.FormatArgs = func(d *Documenter) (string, error) {
		args, err := d.formatCallableArgs(d.obj, false)
		if err != nil {
			return "", err
		}
		sig, err := object.SignatureOf(d.obj, false)
		if err != nil || len(sig.Params) < 2 {
			// a decorator taking only the decorated callable shows no
			// signature at all
			return "", nil
		}
		return args, nil
	}
	return k
}

func functionHeader(d *Documenter, sig string) {
	d.headerDefault(sig)
	if d.obj.Is(object.FlagAsync) {
		d.addLine("   :async:", d.sourceName())
	}
}

// functionFormatSignature renders the signature, substituting recorded
// overload variants for the implementation when typehints are shown, and
// appending the registered variants of a dispatch function.
func functionFormatSignature(d *Documenter) (string, error) {
	overloads := d.overloadsFor(strings.Join(d.objpath, "."))

	var sigs []string
	if len(overloads) == 0 {
		sig, err := d.formatSignatureDefault()
		if err != nil {
			return "", err
		}
		sigs = append(sigs, sig)
	}

	for _, entry := range d.obj.Dispatch {
		if v := d.dispatchSignature(entry.Func, entry.TypeName, 0, false); v != "" {
			sigs = append(sigs, v)
		}
	}

	if len(overloads) > 0 {
		sigs = append(sigs, d.stringifyOverloads(overloads, d.obj, false)...)
	}
	return strings.Join(sigs, "\n"), nil
}

// overloadsFor returns the recorded overload variants for a source path,
// empty when typehints are suppressed.
func (d *Documenter) overloadsFor(path string) []*introspect.Signature {
	if d.analysis == nil || d.env.Config.Typehints == TypehintsNone {
		return nil
	}
	return d.analysis.Overloads[path]
}

// stringifyOverloads renders overload variants, filling placeholder
// defaults from the implementation signature. Bound renderings drop the
// receiver parameter.
func (d *Documenter) stringifyOverloads(overloads []*introspect.Signature, impl *object.Object, dropFirst bool) []string {
	actual, err := object.SignatureOf(impl, false)
	if err != nil {
		actual = nil
	}
	var sigs []string
	for _, ov := range overloads {
		merged := introspect.MergeDefaults(actual, ov)
		if dropFirst {
			merged = merged.DropFirst()
		}
		merged = introspect.ApplyAliases(merged, d.env.Config.TypeAliases)
		sigs = append(sigs, introspect.Stringify(merged, d.stringifyOpts(true)))
	}
	return sigs
}

// dispatchSignature renders one registered variant of a dispatch callable,
// annotating the dispatch type onto the deciding parameter when it carries
// no annotation of its own.
func (d *Documenter) dispatchSignature(fn *object.Object, typeName string, annotateAt int, dropFirst bool) string {
	sig, err := object.SignatureOf(fn, false)
	if err != nil {
		if !errors.Is(err, introspect.ErrNoSignature) {
			d.env.Logger.Warn("failed to get a function signature",
				"name", d.fullname, "err", err)
		}
		return ""
	}
	if len(sig.Params) <= annotateAt {
		return ""
	}
	sig = sig.Clone()
	if sig.Params[annotateAt].Annotation == "" {
		sig.Params[annotateAt].Annotation = typeName
	}
	if dropFirst {
		sig = sig.DropFirst()
	}
	sig = introspect.ApplyAliases(sig, d.env.Config.TypeAliases)
	return introspect.Stringify(sig, d.stringifyOpts(true))
}
