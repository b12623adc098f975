package docgen

import (
	"errors"
	"slices"
	"sort"
	"strings"

	"github.com/turky/sphinx/internal/analyzer"
	"github.com/turky/sphinx/internal/docstring"
	"github.com/turky/sphinx/internal/introspect"
	"github.com/turky/sphinx/internal/markup"
	"github.com/turky/sphinx/internal/object"
)

func classKind() *Kind {
	return &Kind{
		Name:                 "class",
		Scope:                ScopeModuleLevel,
		Priority:             15,
		MemberOrder:          20,
		ContentIndent:        "   ",
		ClassLike:            true,
		DocstringSignature:   true,
		StripDocstringReturn: true,
		IgnoreRealModname:    true,
		InitOptions:          classInitOptions,
		CanDocument: func(member *object.Object, name string, isAttr bool, parent *Documenter) bool {
			if member == nil || object.IsSentinel(member) {
				return false
			}
			// type-variable-like objects are classes when documented as
			// attributes
			return member.IsClass() || (isAttr && member.Is(object.FlagTypeVarLike))
		},
		Import:          classImport,
		FormatArgs:      classFormatArgs,
		FormatSignature: classFormatSignature,
		Header:          classHeader,
		GetDoc:          classGetDoc,
		AddContent:      classAddContent,
		GetMembers:      classMembers,
	}
}

func exceptionKind() *Kind {
	k := classKind()
	k.Name = "exception"
	k.Priority = 20
	k.MemberOrder = 10
	k.CanDocument = func(member *object.Object, name string, isAttr bool, parent *Documenter) bool {
		return member != nil && !object.IsSentinel(member) &&
			member.IsClass() && member.Is(object.FlagException)
	}
	return k
}

func classInitOptions(d *Documenter) {
	opts := *d.opts
	if d.env.Config.ClassSignature == ClassSignatureSeparated {
		// show the constructors as their own entries
		if opts.SpecialMembers == nil {
			opts.SpecialMembers = MemberNames("__new__", "__init__")
		} else if !opts.SpecialMembers.All {
			names := append([]string{}, opts.SpecialMembers.Names...)
			opts.SpecialMembers = &MemberList{Names: append(names, "__new__", "__init__")}
		}
	}
	d.opts = opts.mergeMemberOptions()
}

func classImport(d *Documenter) (bool, error) {
	im, err := object.ImportClass(d.env.Importer, d.modname, d.objpath, d.env.Config.MockImports)
	if err != nil {
		return false, err
	}
	d.module = im.Module
	d.parent = im.Parent
	d.obj = im.Object
	d.objectName = im.ObjectName
	d.docAsAttr = im.DocAsAttr
	return true, nil
}

// constructorSignature finds the signature a class is called with: an
// explicit recorded signature, a user-defined metaclass __call__, a
// user-defined __new__, a user-defined __init__, then the class itself.
// The class and method name the chosen signature came from are recorded
// for overload lookup.
func (d *Documenter) constructorSignature() (*introspect.Signature, error) {
	if d.obj.Is(object.FlagTypeVarLike) || d.obj.Is(object.FlagGenericAlias) {
		return nil, nil
	}

	if d.obj.Signature != nil {
		if d.obj.Is(object.FlagInvalidSignature) {
			return nil, introspect.ErrInvalidSignature
		}
		return d.obj.Signature, nil
	}

	if call := userDefinedMethod(d.obj.Metaclass, "__call__"); call != nil {
		if !slices.Contains(d.env.Config.MetaclassCallBlocklist, call.FullName()) {
			d.env.Hooks.Emit(EventBeforeProcessSignature, call, true)
			sig, err := object.SignatureOf(call, true)
			if err == nil {
				d.sigClass = d.obj.Metaclass
				d.sigMethodName = "__call__"
				return sig, nil
			}
			if errors.Is(err, introspect.ErrInvalidSignature) {
				return nil, err
			}
		}
	}

	if newFn := userDefinedMethod(d.obj, "__new__"); newFn != nil {
		if !slices.Contains(d.env.Config.ClassNewBlocklist, newFn.FullName()) {
			d.env.Hooks.Emit(EventBeforeProcessSignature, newFn, true)
			sig, err := object.SignatureOf(newFn, true)
			if err == nil {
				d.sigClass = d.obj
				d.sigMethodName = "__new__"
				return sig, nil
			}
			if errors.Is(err, introspect.ErrInvalidSignature) {
				return nil, err
			}
		}
	}

	if init := userDefinedMethod(d.obj, "__init__"); init != nil {
		d.env.Hooks.Emit(EventBeforeProcessSignature, init, true)
		sig, err := object.SignatureOf(init, true)
		if err == nil {
			d.sigClass = d.obj
			d.sigMethodName = "__init__"
			return sig, nil
		}
		if errors.Is(err, introspect.ErrInvalidSignature) {
			return nil, err
		}
	}

	d.env.Hooks.Emit(EventBeforeProcessSignature, d.obj, false)
	sig, err := object.SignatureOf(d.obj, false)
	if err == nil {
		return sig, nil
	}
	if errors.Is(err, introspect.ErrInvalidSignature) {
		return nil, err
	}
	return nil, nil
}

// userDefinedMethod resolves a method through the ancestry, skipping
// builtin implementations.
func userDefinedMethod(cls *object.Object, name string) *object.Object {
	if cls == nil {
		return nil
	}
	m, ok := cls.Get(name)
	if !ok || !m.IsRoutine() || m.Is(object.FlagBuiltin) {
		return nil
	}
	return m
}

func classFormatArgs(d *Documenter) (string, error) {
	d.sigClass = nil
	d.sigMethodName = ""
	sig, err := d.constructorSignature()
	if err != nil {
		return "", err
	}
	if sig == nil {
		return "", nil
	}
	sig = introspect.ApplyAliases(sig, d.env.Config.TypeAliases)
	return introspect.Stringify(sig, d.stringifyOpts(false)), nil
}

func classFormatSignature(d *Documenter) (string, error) {
	if d.docAsAttr {
		return "", nil
	}
	if d.env.Config.ClassSignature == ClassSignatureSeparated {
		// constructors documented separately, the class line stays bare
		return "", nil
	}

	sig, err := d.formatSignatureDefault()
	if err != nil {
		d.env.Logger.Warn("failed to get a constructor signature",
			"name", d.fullname, "err", err)
		return "", nil
	}

	overloads := d.constructorOverloads()
	if len(overloads) == 0 || d.env.Config.Typehints == TypehintsNone {
		return sig, nil
	}

	var sigs []string
	for _, ov := range overloads {
		// the receiver and the return annotation never show on a class line
		ov = ov.DropFirst().Clone()
		ov.Return = ""
		ov = introspect.ApplyAliases(ov, d.env.Config.TypeAliases)
		sigs = append(sigs, introspect.Stringify(ov, d.stringifyOpts(false)))
	}
	return strings.Join(sigs, "\n"), nil
}

// constructorOverloads looks up recorded overloads for the constructor the
// signature came from, walking its defining class's ancestry. A class that
// defines the constructor without overloading it ends the walk.
func (d *Documenter) constructorOverloads() []*introspect.Signature {
	if d.sigClass == nil || d.sigMethodName == "" {
		return nil
	}
	for _, cls := range d.sigClass.Ancestry() {
		a, err := d.env.Analyzers.ForModule(cls.Module)
		if err != nil {
			continue
		}
		qualname := cls.QualName + "." + d.sigMethodName
		if overloads, ok := a.Overloads[qualname]; ok {
			return overloads
		}
		if _, ok := a.TagOrder[qualname]; ok {
			return nil
		}
	}
	return nil
}

func (d *Documenter) canonicalFullName() string {
	if d.obj.Module == "" || d.obj.QualName == "" {
		return ""
	}
	if strings.Contains(d.obj.QualName, "<locals>") {
		return ""
	}
	return d.obj.Module + "." + d.obj.QualName
}

func classHeader(d *Documenter, sig string) {
	if d.docAsAttr {
		d.directiveType = "attribute"
	}
	d.headerDefault(sig)

	if d.obj.Is(object.FlagTypeVarLike) || d.obj.Is(object.FlagGenericAlias) {
		return
	}
	src := d.sourceName()

	if d.analysis != nil && d.analysis.Finals[strings.Join(d.objpath, ".")] {
		d.addLine("   :final:", src)
	}

	if canonical := d.canonicalFullName(); !d.docAsAttr && canonical != "" && canonical != d.fullname {
		d.addLine("   :canonical: "+canonical, src)
	}

	if !d.docAsAttr && d.opts.ShowInheritance {
		bases := append([]*object.Object{}, d.obj.Bases...)
		d.env.Hooks.Emit(EventProcessBases, d.fullname, d.obj, d.opts, &bases)

		names := make([]string, 0, len(bases))
		for _, base := range bases {
			names = append(names, d.renderClassName(base))
		}
		d.addLine("", src)
		d.addLine("   Bases: "+strings.Join(names, ", "), src)
	}
}

func (d *Documenter) renderClassName(cls *object.Object) string {
	name := cls.FullName()
	if d.env.Config.TypehintsFormat == "short" {
		return introspect.ShortenAnnotation(name)
	}
	return name
}

func classMembers(d *Documenter, wantAll bool) (bool, []*ObjectMember) {
	byName := object.ClassMembers(d.obj)

	toMember := func(cm *object.ClassMember) *ObjectMember {
		return &ObjectMember{Name: cm.Name, Object: cm.Object, Class: cm.Class, Docstring: cm.Docstring}
	}

	if !wantAll {
		var wanted []string
		if d.opts.Members != nil {
			wanted = d.opts.Members.Names
		}
		var members []*ObjectMember
		for _, name := range wanted {
			if cm, ok := byName[name]; ok {
				members = append(members, toMember(cm))
			} else {
				d.env.Logger.Warn("missing attribute in object",
					"attribute", name, "name", d.fullname)
			}
		}
		return false, members
	}

	names := sortedKeys(byName)
	var members []*ObjectMember
	for _, name := range names {
		cm := byName[name]
		if len(d.opts.InheritedMembers) == 0 && cm.Class != d.obj {
			continue
		}
		members = append(members, toMember(cm))
	}
	return false, members
}

func classGetDoc(d *Documenter) ([][]string, bool) {
	if d.docAsAttr {
		// an alias shows its assignment comment, never the class docstring
		if d.variableComment() != nil {
			return [][]string{}, true
		}
		return nil, false
	}

	if d.newDocstrings != nil {
		return d.newDocstrings, true
	}

	docFrom := d.opts.ClassDocFrom
	if docFrom == "" {
		docFrom = d.env.Config.ClassDocFrom
	}

	var docstrings []string
	if d.obj.Doc != "" {
		docstrings = append(docstrings, d.obj.Doc)
	}

	if docFrom == ClassDocBoth || docFrom == ClassDocInit {
		initDoc := d.constructorDoc("__init__")
		if initDoc == "" {
			initDoc = d.constructorDoc("__new__")
		}
		if initDoc != "" {
			if docFrom == ClassDocInit {
				docstrings = []string{initDoc}
			} else {
				docstrings = append(docstrings, initDoc)
			}
		}
	}

	blocks := make([][]string, 0, len(docstrings))
	for _, doc := range docstrings {
		blocks = append(blocks, docstring.Prepare(doc, d.env.TabWidth))
	}
	return blocks, true
}

// constructorDoc returns the docstring of a constructor, suppressing the
// boilerplate inherited from the root object type.
func (d *Documenter) constructorDoc(name string) string {
	ctor, ok := d.obj.Get(name)
	if !ok {
		return ""
	}
	doc := object.Doc(ctor, d.obj, name, d.env.Config.InheritDocstrings)
	if doc != "" && doc == rootObjectDoc(d.obj, name) {
		return ""
	}
	return doc
}

// rootObjectDoc finds the docstring the root base class ships for name.
func rootObjectDoc(cls *object.Object, name string) string {
	for _, ancestor := range cls.Ancestry() {
		if ancestor.Name == "object" && ancestor.Is(object.FlagBuiltin) {
			if m, ok := ancestor.OwnAttr(name); ok {
				return m.Doc
			}
			return ""
		}
	}
	return ""
}

// variableComment returns the source comment at the alias assignment.
func (d *Documenter) variableComment() []string {
	modname := d.realModuleName()
	if d.docAsAttr {
		modname = d.modname
	}
	a, err := d.env.Analyzers.ForModule(modname)
	if err != nil {
		return nil
	}
	key := analyzer.Key{Name: strings.Join(d.objpath, ".")}
	if lines, ok := a.AttrDocs[key]; ok {
		return lines
	}
	return nil
}

func classAddContent(d *Documenter, more *markup.Content) {
	if d.docAsAttr && d.modname != d.realModuleName() {
		// the assignment comment lives next to the alias, not the class
		if a, err := d.env.Analyzers.ForModule(d.modname); err == nil {
			d.analysis = a
		}
	}
	if d.docAsAttr && d.variableComment() == nil {
		more = aliasContent("alias of " + d.renderClassName(d.obj))
	} else if d.obj.Is(object.FlagTypeVarLike) && d.obj.Value != "" {
		more = aliasContent("alias of " + d.obj.Value)
	}
	d.addContentDefault(more)
}

func aliasContent(text string) *markup.Content {
	return markup.NewContent("", text, "")
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
