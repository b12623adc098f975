package docgen

import (
	"strings"

	"github.com/turky/sphinx/internal/analyzer"
	"github.com/turky/sphinx/internal/docstring"
	"github.com/turky/sphinx/internal/introspect"
	"github.com/turky/sphinx/internal/markup"
	"github.com/turky/sphinx/internal/object"
)

func dataKind() *Kind {
	return &Kind{
		Name:                 "data",
		Scope:                ScopeModuleLevel,
		Priority:             -10,
		MemberOrder:          40,
		ContentIndent:        "   ",
		Leaf:                 true,
		UninitializedGlobals: true,
		CanDocument: func(member *object.Object, name string, isAttr bool, parent *Documenter) bool {
			return parent != nil && parent.kind.Name == "module" && isAttr
		},
		Import:      dataImport,
		RealModname: parentRealModname,
		Header:      dataHeader,
		GetDoc:      dataGetDoc,
		AddContent:  dataAddContent,
	}
}

func dataImport(d *Documenter) (bool, error) {
	im, err := object.ImportData(d.env.Importer, d.modname, d.objpath, d.env.Config.MockImports)
	if err != nil {
		return false, err
	}
	d.module = im.Module
	d.parent = im.Parent
	d.obj = im.Object
	d.objectName = im.ObjectName
	return true, nil
}

// parentRealModname locates assignments through their enclosing object,
// since the value itself rarely records where it was assigned.
func parentRealModname(d *Documenter) string {
	src := d.parent
	if src == nil {
		src = d.obj
	}
	if src != nil && !object.IsSentinel(src) && src.Module != "" {
		return src.Module
	}
	return d.modname
}

// suppressValueHeader hides the value line for uninitialized targets and
// docstrings carrying hide-value metadata.
func (d *Documenter) suppressValueHeader() bool {
	if d.obj == object.UninitializedAttr {
		return true
	}
	docs, _ := d.getDoc()
	var flat []string
	for _, block := range docs {
		flat = append(flat, block...)
	}
	_, metadata := docstring.SeparateMetadata(strings.Join(flat, "\n"))
	_, hide := metadata["hide-value"]
	return hide
}

// renderAnnotationText applies the alias table and display format to one
// annotation string.
func (d *Documenter) renderAnnotationText(ann string) string {
	if alias, ok := d.env.Config.TypeAliases[ann]; ok {
		ann = alias
	}
	if d.env.Config.TypehintsFormat == "short" {
		return introspect.ShortenAnnotation(ann)
	}
	return ann
}

// annotationLines emits the :type: and :value: option lines shared by data
// and attribute headers. annotations is the table the target's type is
// looked up in.
func (d *Documenter) annotationLines(annotations map[string]string, src string) {
	switch {
	case d.opts.SuppressAnnotation || d.obj.Is(object.FlagGenericAlias):
	case d.opts.Annotation != "":
		d.addLine("   :annotation: "+d.opts.Annotation, src)
	default:
		if d.env.Config.Typehints != TypehintsNone {
			if ann, ok := annotations[d.objpath[len(d.objpath)-1]]; ok {
				d.addLine("   :type: "+d.renderAnnotationText(ann), src)
			}
		}
		if d.opts.NoValue || d.suppressValueHeader() || d.obj.Is(object.FlagMocked) {
			return
		}
		if d.obj != nil && d.obj.HasValue {
			d.addLine("   :value: "+d.obj.Value, src)
		}
	}
}

func dataHeader(d *Documenter, sig string) {
	d.headerDefault(sig)
	annotations := map[string]string{}
	if d.parent != nil {
		for name, ann := range d.parent.Annotations {
			annotations[name] = ann
		}
	}
	// assignments annotated in source only are still typed
	if a, err := d.env.Analyzers.ForModule(d.modname); err == nil {
		for key, ann := range a.Annotations {
			if key.Namespace == "" {
				if _, ok := annotations[key.Name]; !ok {
					annotations[key.Name] = ann
				}
			}
		}
	}
	d.annotationLines(annotations, d.sourceName())
}

// moduleComment returns the source comment at the module-level assignment.
func (d *Documenter) moduleComment(attrname string) []string {
	a, err := d.env.Analyzers.ForModule(d.modname)
	if err != nil {
		return nil
	}
	if lines, ok := a.AttrDocs[analyzer.Key{Name: attrname}]; ok {
		return lines
	}
	return nil
}

func dataGetDoc(d *Documenter) ([][]string, bool) {
	if comment := d.moduleComment(d.objpath[len(d.objpath)-1]); comment != nil {
		return [][]string{comment}, true
	}
	return d.getDocDefault()
}

func dataAddContent(d *Documenter, more *markup.Content) {
	// the assignment comment is handled by getDoc, not the generic
	// comment lookup
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
