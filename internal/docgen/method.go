package docgen

import (
	"strings"

	"github.com/turky/sphinx/internal/docstring"
	"github.com/turky/sphinx/internal/object"
)

func methodKind() *Kind {
	return &Kind{
		Name:               "method",
		Scope:              ScopeClassLevel,
		Priority:           1,
		MemberOrder:        50,
		ContentIndent:      "   ",
		Leaf:               true,
		DocstringSignature: true,
		CanDocument: func(member *object.Object, name string, isAttr bool, parent *Documenter) bool {
			if member == nil || object.IsSentinel(member) {
				return false
			}
			return member.IsRoutine() && !(parent != nil && parent.kind.Name == "module")
		},
		FormatArgs:      methodFormatArgs,
		FormatSignature: methodFormatSignature,
		Header:          methodHeader,
		GetDoc:          methodGetDoc,
	}
}

// isStatic reports whether the documented routine is a static method.
func (d *Documenter) isStatic() bool {
	return d.obj.Is(object.FlagStaticMethod)
}

// isDefaultInit reports whether the method is the root object type's own
// constructor, inherited rather than defined by the parent class.
func (d *Documenter) isDefaultInit() bool {
	return d.obj.Is(object.FlagBuiltin) && d.obj.QualName == "object.__init__" &&
		d.parent != nil && d.parent.Name != "object"
}

func methodFormatArgs(d *Documenter) (string, error) {
	if d.isDefaultInit() {
		// a class without its own constructor takes no arguments; the
		// inherited catch-all (self, /, *args, **kwargs) only confuses
		return "()", nil
	}
	return d.formatCallableArgs(d.obj, !d.isStatic())
}

func methodHeader(d *Documenter, sig string) {
	d.headerDefault(sig)

	src := d.sourceName()
	obj := d.obj
	if d.parent != nil {
		if own, ok := d.parent.OwnAttr(d.objectName); ok {
			obj = own
		}
	}
	if obj.Is(object.FlagAbstract) {
		d.addLine("   :abstractmethod:", src)
	}
	if obj.Is(object.FlagAsync) {
		d.addLine("   :async:", src)
	}
	if obj.Is(object.FlagClassMethod) {
		d.addLine("   :classmethod:", src)
	}
	if obj.Is(object.FlagStaticMethod) {
		d.addLine("   :staticmethod:", src)
	}
	if d.analysis != nil && d.analysis.Finals[strings.Join(d.objpath, ".")] {
		d.addLine("   :final:", src)
	}
}

func methodFormatSignature(d *Documenter) (string, error) {
	overloads := d.overloadsFor(strings.Join(d.objpath, "."))

	var sigs []string
	if len(overloads) == 0 {
		sig, err := d.formatSignatureDefault()
		if err != nil {
			return "", err
		}
		sigs = append(sigs, sig)
	}

	// registered variants of a dispatch method, looked up on the defining
	// class
	if d.parent != nil {
		if meth, ok := d.parent.OwnAttr(d.objpath[len(d.objpath)-1]); ok {
			for _, entry := range meth.Dispatch {
				if v := d.dispatchSignature(entry.Func, entry.TypeName, 1, true); v != "" {
					sigs = append(sigs, v)
				}
			}
		}
	}

	if len(overloads) > 0 {
		sigs = append(sigs, d.stringifyOverloads(overloads, d.obj, !d.isStatic())...)
	}
	return strings.Join(sigs, "\n"), nil
}

func methodGetDoc(d *Documenter) ([][]string, bool) {
	if d.newDocstrings != nil {
		return d.newDocstrings, true
	}
	name := d.objpath[len(d.objpath)-1]
	if name == "__init__" || name == "__new__" {
		doc := object.Doc(d.obj, d.parent, d.objectName, d.env.Config.InheritDocstrings)
		if doc != "" && d.parent != nil && doc == rootObjectDoc(d.parent, name) {
			// the boilerplate constructor docstring is not documentation
			doc = ""
		}
		if doc == "" {
			return [][]string{}, true
		}
		return [][]string{docstring.Prepare(doc, d.env.TabWidth)}, true
	}
	return d.getDocDefault()
}
