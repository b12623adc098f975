package docgen

import (
	"github.com/turky/sphinx/internal/analyzer"
	"github.com/turky/sphinx/internal/docstring"
	"github.com/turky/sphinx/internal/markup"
	"github.com/turky/sphinx/internal/object"
)

func attributeKind() *Kind {
	return &Kind{
		Name:          "attribute",
		Scope:         ScopeClassLevel,
		Priority:      10,
		MemberOrder:   60,
		ContentIndent: "   ",
		Leaf:          true,
		// a docstring signature on an attribute value is stripped, never
		// shown
		DocstringSignature: true,
		StripSignature:     true,
		CanDocument: func(member *object.Object, name string, isAttr bool, parent *Documenter) bool {
			if parent != nil && parent.kind.Name == "module" {
				return false
			}
			if member.Is(object.FlagDataDescriptor) {
				return true
			}
			if object.IsSentinel(member) {
				return true
			}
			return member != nil && !member.IsRoutine() && !member.IsClass()
		},
		Import:      attributeImport,
		RealModname: parentRealModname,
		Header:      attributeHeader,
		GetDoc:      attributeGetDoc,
		AddContent:  attributeAddContent,
	}
}

func attributeImport(d *Documenter) (bool, error) {
	im, err := object.ImportAttribute(d.env.Importer, d.modname, d.objpath, d.env.Config.MockImports)
	if err != nil {
		return false, err
	}
	d.module = im.Module
	d.parent = im.Parent
	d.obj = im.Object
	d.objectName = im.ObjectName
	return true, nil
}

// suppressAttributeValue hides the value line for placeholder attributes
// and descriptors whose repr is not the attribute's value.
func (d *Documenter) suppressAttributeValue() bool {
	switch d.obj {
	case object.SlotsAttr, object.RuntimeInstanceAttr, object.UninitializedAttr:
		return true
	}
	if d.obj.Is(object.FlagDataDescriptor) || d.obj.Is(object.FlagGenericAlias) {
		return true
	}
	return d.suppressValueHeader()
}

// classAnnotations collects the annotation table visible on a class,
// including annotations the analyzer found in each ancestor's source.
func (d *Documenter) classAnnotations(cls *object.Object) map[string]string {
	annotations := map[string]string{}
	if cls == nil {
		return annotations
	}
	for name, ann := range cls.Annotations {
		annotations[name] = ann
	}
	for _, ancestor := range cls.Ancestry() {
		a, err := d.env.Analyzers.ForModule(ancestor.Module)
		if err != nil {
			continue
		}
		for key, ann := range a.Annotations {
			if key.Namespace != ancestor.QualName {
				continue
			}
			if _, ok := annotations[key.Name]; !ok {
				annotations[key.Name] = ann
			}
		}
	}
	return annotations
}

func attributeHeader(d *Documenter, sig string) {
	d.headerDefault(sig)

	src := d.sourceName()
	switch {
	case d.opts.SuppressAnnotation || d.obj.Is(object.FlagGenericAlias):
	case d.opts.Annotation != "":
		d.addLine("   :annotation: "+d.opts.Annotation, src)
	default:
		if d.env.Config.Typehints != TypehintsNone {
			annotations := d.classAnnotations(d.parent)
			if ann, ok := annotations[d.objpath[len(d.objpath)-1]]; ok {
				d.addLine("   :type: "+d.renderAnnotationText(ann), src)
			}
		}
		if d.opts.NoValue || d.suppressAttributeValue() || d.obj.Is(object.FlagMocked) {
			return
		}
		if d.obj != nil && d.obj.HasValue {
			d.addLine("   :value: "+d.obj.Value, src)
		}
	}
}

// attributeComment finds the source comment at the attribute's assignment,
// searching every class the attribute could be defined on.
func (d *Documenter) attributeComment(parent *object.Object, attrname string) []string {
	if parent == nil {
		return nil
	}
	classes := parent.Ancestry()
	if classes == nil {
		classes = []*object.Object{parent}
	}
	for _, cls := range classes {
		a, err := d.env.Analyzers.ForModule(cls.Module)
		if err != nil {
			continue
		}
		key := analyzer.Key{Namespace: cls.QualName, Name: attrname}
		if lines, ok := a.AttrDocs[key]; ok {
			return lines
		}
	}
	return nil
}

func attributeGetDoc(d *Documenter) ([][]string, bool) {
	attrname := d.objpath[len(d.objpath)-1]
	if comment := d.attributeComment(d.parent, attrname); comment != nil {
		return [][]string{comment}, true
	}

	switch d.obj {
	case object.SlotsAttr:
		if d.parent != nil {
			if doc := d.parent.Slots[attrname]; doc != "" {
				return [][]string{docstring.Prepare(doc, d.env.TabWidth)}, true
			}
		}
		return [][]string{}, true
	case object.RuntimeInstanceAttr, object.UninitializedAttr:
		// nothing to show, and the hook must not run on a placeholder
		return nil, false
	}

	if d.newDocstrings != nil {
		return d.newDocstrings, true
	}
	// never inherit here: the value's class docstring is not this
	// attribute's documentation
	doc := object.Doc(d.obj, d.parent, d.objectName, false)
	if doc != "" {
		return [][]string{docstring.Prepare(doc, d.env.TabWidth)}, true
	}
	return nil, true
}

func attributeAddContent(d *Documenter, more *markup.Content) {
	// the assignment comment is handled by getDoc
	d.analysis = nil

	if d.obj.Is(object.FlagGenericAlias) {
		if more == nil {
			more = markup.NewContent("")
		}
		more.Append("alias of "+d.renderClassName(d.obj), "", 0)
		more.Append("", "", 0)
	}
	d.addContentDefault(more)
}
