package docgen

import (
	"github.com/turky/sphinx/internal/object"
)

func propertyKind() *Kind {
	return &Kind{
		Name:          "property",
		Scope:         ScopeClassLevel,
		Priority:      11,
		MemberOrder:   60,
		ContentIndent: "   ",
		Leaf:          true,
		// a docstring signature documents the getter, not a call surface
		DocstringSignature: true,
		StripSignature:     true,
		CanDocument: func(member *object.Object, name string, isAttr bool, parent *Documenter) bool {
			if parent == nil || (parent.kind.Name != "class" && parent.kind.Name != "exception") {
				return false
			}
			return member.IsProperty()
		},
		Import:      propertyImport,
		RealModname: parentRealModname,
		FormatArgs:  propertyFormatArgs,
		Header:      propertyHeader,
	}
}

func propertyImport(d *Documenter) (bool, error) {
	im, err := object.ImportProperty(d.env.Importer, d.modname, d.objpath, d.env.Config.MockImports)
	if err != nil {
		return false, err
	}
	if im == nil {
		// resolved to something that is not a property; another kind may
		// claim it on a later pass
		return false, nil
	}
	d.module = im.Module
	d.parent = im.Parent
	d.obj = im.Object
	d.objectName = im.ObjectName
	d.isClassMethod = im.IsClassMethod
	return true, nil
}

func propertyFormatArgs(d *Documenter) (string, error) {
	if d.obj.Getter == nil {
		return "", nil
	}
	// handlers may rewrite the getter's annotations before the type line
	// is derived from them
	d.env.Hooks.Emit(EventBeforeProcessSignature, d.obj.Getter, false)
	return "", nil
}

func propertyHeader(d *Documenter, sig string) {
	d.headerDefault(sig)

	src := d.sourceName()
	if d.obj.Is(object.FlagAbstract) {
		d.addLine("   :abstractmethod:", src)
	}
	if d.isClassMethod {
		d.addLine("   :classmethod:", src)
	}

	getter := d.obj.Getter
	if getter == nil || d.env.Config.Typehints == TypehintsNone {
		return
	}
	if getter.Signature != nil && getter.Signature.Return != "" {
		d.addLine("   :type: "+d.renderAnnotationText(getter.Signature.Return), src)
	}
}
