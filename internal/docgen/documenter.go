// Package docgen turns introspected objects into structured markup: a
// documenter variant per object kind, member discovery with filtering and
// ordering, signature reconstruction, and the recursive generation driver.
package docgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/turky/sphinx/internal/analyzer"
	"github.com/turky/sphinx/internal/docstring"
	"github.com/turky/sphinx/internal/introspect"
	"github.com/turky/sphinx/internal/markup"
	"github.com/turky/sphinx/internal/object"
)

// Documenter documents a single target. An instance is created per thing
// to document, resolves its name, imports its target and is discarded
// after generating output.
type Documenter struct {
	env    *Env
	opts   *Options
	kind   *Kind
	name   string
	indent string

	// set by parseName
	modname  string
	objpath  []string
	fullname string
	args     *string // explicit caller signature; nil when absent
	retann   string

	// set by importObject
	module     *object.Object
	obj        *object.Object
	objectName string
	parent     *object.Object

	analysis    *analyzer.Analysis
	realModname string

	// per-kind resolution state
	directiveType string
	docAsAttr     bool
	isClassMethod bool
	sigClass      *object.Object
	sigMethodName string

	// docstring-signature extraction results
	newDocstrings [][]string
	extraSigs     []string

	// module export list, loaded once
	exportList       []string
	exportListLoaded bool
}

// New creates a documenter for one target name. The name may carry an
// explicit module ("mod::path.name") and an explicit signature.
func New(env *Env, opts *Options, kind *Kind, name, indent string) *Documenter {
	if opts == nil {
		opts = &Options{}
	}
	d := &Documenter{env: env, opts: opts, kind: kind, name: name, indent: indent}
	if kind.InitOptions != nil {
		kind.InitOptions(d)
	}
	return d
}

// Name returns the directive name the documenter was created with.
func (d *Documenter) Name() string { return d.name }

// FullName returns the resolved dotted name, available after parseName.
func (d *Documenter) FullName() string { return d.fullname }

// Object returns the imported target.
func (d *Documenter) Object() *object.Object { return d.obj }

func (d *Documenter) addLine(line, source string) {
	if strings.TrimSpace(line) == "" {
		d.env.Result.Append("", source, 0)
		return
	}
	d.env.Result.Append(d.indent+line, source, 0)
}

// formatName is the name shown in the directive header: the object path
// for members, the module name for modules.
func (d *Documenter) formatName() string {
	if len(d.objpath) > 0 {
		return strings.Join(d.objpath, ".")
	}
	return d.modname
}

// parseName matches the requested name against the directive grammar and
// resolves the module and object path, falling back to the ambient scope
// when no explicit qualifier is present.
func (d *Documenter) parseName() bool {
	parsed, ok := parseDirectiveName(d.name)
	if !ok {
		d.env.Logger.Warn("invalid signature for directive",
			"kind", d.kind.Name, "name", d.name)
		return false
	}

	var parents []string
	if parsed.ExplicitModule != "" && parsed.Path != "" {
		parents = strings.Split(strings.TrimSuffix(parsed.Path, "."), ".")
	}

	modname, objpath := d.resolveName(parsed.ExplicitModule, parents, parsed.Path, parsed.Base)
	if modname == "" {
		d.env.Logger.Warn("don't know which module to import for documenting",
			"name", d.name,
			"hint", "place the target inside a module directive or give an explicit module name")
		return false
	}

	d.modname = modname
	d.objpath = objpath
	if parsed.HasArgs {
		args := parsed.Args
		d.args = &args
	}
	d.retann = parsed.Return
	d.fullname = strings.Join(append([]string{modname}, objpath...), ".")

	if d.kind.Scope == ScopeModule && (d.args != nil || d.retann != "") {
		d.env.Logger.Warn("signature arguments or return annotation given for module",
			"name", d.fullname)
	}
	return true
}

// resolveName turns the grammar parts into (module, object path) using the
// kind's scope level and the ambient context.
func (d *Documenter) resolveName(explicitMod string, parents []string, path, base string) (string, []string) {
	switch d.kind.Scope {
	case ScopeModule:
		if explicitMod != "" {
			d.env.Logger.Warn(`"::" in module directive name doesn't make sense`, "name", d.name)
		}
		return path + base, nil

	case ScopeModuleLevel:
		if explicitMod != "" {
			return explicitMod, append(parents, base)
		}
		if path != "" {
			return strings.TrimSuffix(path, "."), []string{base}
		}
		// a top-level object without explicit module can live inside an
		// enclosing module directive
		return d.env.Current.Module, []string{base}

	case ScopeClassLevel:
		if explicitMod != "" {
			return explicitMod, append(parents, base)
		}
		var modCls string
		if path != "" {
			modCls = strings.TrimSuffix(path, ".")
		} else {
			// without a path there must be an enclosing class
			modCls = d.env.Current.Class
			if modCls == "" {
				return "", nil
			}
		}
		modname, cls := rpartition(modCls, ".")
		if modname == "" {
			modname = d.env.Current.Module
		}
		return modname, []string{cls, base}
	}
	return "", nil
}

// importObject resolves the parsed name into a live object via the kind's
// import routine. A failed import warns and reports retry: the target may
// become importable after other build units are processed.
func (d *Documenter) importObject() (ok, retry bool) {
	importFn := d.kind.Import
	if importFn == nil {
		importFn = importDefault
	}
	found, err := importFn(d)
	if err != nil {
		d.env.Logger.Warn("failed to import object", "name", d.fullname, "err", err)
		return false, true
	}
	return found, false
}

func importDefault(d *Documenter) (bool, error) {
	im, err := object.Import(d.env.Importer, d.modname, d.objpath, d.env.Config.MockImports)
	if err != nil {
		return false, err
	}
	d.module = im.Module
	d.parent = im.Parent
	d.obj = im.Object
	d.objectName = im.ObjectName
	return true, nil
}

// realModuleName is the module the object is actually defined in, which
// can differ from the module it was imported through.
func (d *Documenter) realModuleName() string {
	if d.kind.RealModname != nil {
		return d.kind.RealModname(d)
	}
	if d.obj != nil && !object.IsSentinel(d.obj) && d.obj.Module != "" {
		return d.obj.Module
	}
	return d.modname
}

// checkModule reports whether the object really belongs to the module it
// was found through, used to drop re-exported names.
func (d *Documenter) checkModule() bool {
	if d.opts.ImportedMembers {
		return true
	}
	if d.obj == nil || object.IsSentinel(d.obj) {
		return true
	}
	return d.obj.Module == "" || d.obj.Module == d.modname
}

func (d *Documenter) stringifyOpts(showReturn bool) introspect.StringifyOptions {
	cfg := d.env.Config
	return introspect.StringifyOptions{
		ShowAnnotations: cfg.Typehints != TypehintsNone && cfg.Typehints != TypehintsDescription,
		ShowReturn:      showReturn,
		Unqualified:     cfg.TypehintsFormat == "short",
	}
}

// formatCallableArgs introspects a callable and renders its signature.
// Absent signatures render empty silently; structurally broken metadata
// surfaces as an error for the caller to warn about.
func (d *Documenter) formatCallableArgs(obj *object.Object, bound bool) (string, error) {
	d.env.Hooks.Emit(EventBeforeProcessSignature, obj, bound)
	sig, err := object.SignatureOf(obj, bound)
	if err != nil {
		if errors.Is(err, introspect.ErrNoSignature) {
			return "", nil
		}
		return "", err
	}
	sig = introspect.ApplyAliases(sig, d.env.Config.TypeAliases)
	return introspect.Stringify(sig, d.stringifyOpts(true)), nil
}

// findSignature scans the first docstring block for lines matching the
// signature grammar with the target's own name. The first match becomes
// the signature, later matches extra signature lines; matched lines are
// stripped from the displayed docstring.
func (d *Documenter) findSignature() (args, retann string, found bool) {
	validNames := map[string]bool{d.objpath[len(d.objpath)-1]: true}
	if d.kind.ClassLike {
		validNames["__init__"] = true
		for _, cls := range d.obj.Ancestry() {
			validNames[cls.Name] = true
		}
	}

	docs, present := d.getDoc()
	if !present {
		return "", "", false
	}
	d.newDocstrings = append([][]string{}, docs...)
	d.extraSigs = nil

	for i, lines := range docs {
		for j, line := range lines {
			if line == "" {
				break
			}
			if strings.HasSuffix(line, `\`) {
				line = strings.TrimRight(strings.TrimSuffix(line, `\`), " ")
			}
			m, ok := parseDirectiveName(line)
			if !ok || !m.HasArgs {
				break
			}
			if !validNames[m.Base] {
				break
			}

			// re-prepare the docstring without the signature lines
			rest := strings.Join(lines[j+1:], "\n")
			d.newDocstrings[i] = docstring.Prepare(rest, d.env.TabWidth)

			if !found {
				args, retann, found = m.Args, m.Return, true
			} else if m.Return != "" {
				d.extraSigs = append(d.extraSigs, fmt.Sprintf("(%s) -> %s", m.Args, m.Return))
			} else {
				d.extraSigs = append(d.extraSigs, fmt.Sprintf("(%s)", m.Args))
			}
		}
		if found {
			break
		}
	}

	if found && d.kind.StripDocstringReturn {
		// constructors shown on the class line carry no return annotation
		retann = ""
		for i, sig := range d.extraSigs {
			d.extraSigs[i] = strings.TrimSuffix(sig, " -> None")
		}
	}
	return args, retann, found
}

// formatSignature renders the target's signature, or dispatches to the
// kind's override.
func (d *Documenter) formatSignature() (string, error) {
	if d.kind.FormatSignature != nil {
		return d.kind.FormatSignature(d)
	}
	return d.formatSignatureDefault()
}

func (d *Documenter) formatSignatureDefault() (string, error) {
	if d.kind.DocstringSignature && d.args == nil && d.env.Config.DocstringSignature {
		// only act when no signature was explicitly given
		if args, retann, ok := d.findSignature(); ok {
			if d.kind.StripSignature {
				// the matched lines are stripped, the signature discarded
				d.retann = retann
			} else {
				d.args = &args
				d.retann = retann
			}
		}
	}

	var args, retann string
	if d.args != nil {
		// signature given explicitly, echoed verbatim
		args = "(" + *d.args + ")"
		retann = d.retann
	} else {
		formatArgs := d.kind.FormatArgs
		if formatArgs == nil {
			formatArgs = func(*Documenter) (string, error) { return "", nil }
		}
		formatted, err := formatArgs(d)
		if err != nil {
			d.env.Logger.Warn("error while formatting arguments",
				"name", d.fullname, "err", err)
			formatted = ""
		}
		args = formatted
		if m := argsReturnRe.FindStringSubmatch(args); m != nil {
			args, retann = m[1], m[2]
		}
	}

	result := d.env.Hooks.EmitFirstResult(EventProcessSignature,
		d.kind.Name, d.fullname, d.obj, d.opts, args, retann)
	if override, ok := result.(SignatureOverride); ok {
		args, retann = override.Args, override.Return
	}

	sig := args
	if retann != "" {
		sig += " -> " + retann
	}

	if d.kind.DocstringSignature && len(d.extraSigs) > 0 {
		sig = strings.Join(append([]string{sig}, d.extraSigs...), "\n")
	}
	return sig, nil
}

// header emits the directive header lines, one signature per line with
// continuation alignment, followed by option lines.
func (d *Documenter) header(sig string) {
	if d.kind.Header != nil {
		d.kind.Header(d, sig)
		return
	}
	d.headerDefault(sig)
}

func (d *Documenter) headerDefault(sig string) {
	directive := d.directiveType
	if directive == "" {
		directive = d.kind.Directive
	}
	name := d.formatName()
	src := d.sourceName()

	prefix := fmt.Sprintf(".. py:%s:: ", directive)
	for i, sigLine := range strings.Split(sig, "\n") {
		d.addLine(prefix+name+sigLine, src)
		if i == 0 {
			prefix = strings.Repeat(" ", len(prefix))
		}
	}
	if d.opts.NoIndex {
		d.addLine("   :no-index:", src)
	}
	if len(d.objpath) > 0 {
		// be explicit about the module; member directives do not accept a
		// prepended module name
		d.addLine("   :module: "+d.modname, src)
	}
}

// getDoc returns the docstring blocks. The second result distinguishes "no
// docstring processing at all" from an empty docstring.
func (d *Documenter) getDoc() ([][]string, bool) {
	if d.kind.GetDoc != nil {
		return d.kind.GetDoc(d)
	}
	return d.getDocDefault()
}

func (d *Documenter) getDocDefault() ([][]string, bool) {
	if d.obj == object.UninitializedAttr {
		return nil, true
	}
	if d.kind.DocstringSignature && d.newDocstrings != nil {
		return d.newDocstrings, true
	}
	doc := object.Doc(d.obj, d.parent, d.objectName, d.env.Config.InheritDocstrings)
	if doc != "" {
		return [][]string{docstring.Prepare(doc, d.env.TabWidth)}, true
	}
	return nil, true
}

// processDoc runs docstring blocks through the process-docstring hook and
// flattens them, blank-line terminated.
func (d *Documenter) processDoc(blocks [][]string) []string {
	var out []string
	for _, block := range blocks {
		lines := append([]string{}, block...)
		d.env.Hooks.Emit(EventProcessDocstring, d.kind.Name, d.fullname, d.obj, d.opts, &lines)
		if len(lines) > 0 && lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
		out = append(out, lines...)
	}
	return out
}

// sourceName locates the docstring for diagnostics, preferring the
// object's definition site over the import path.
func (d *Documenter) sourceName() string {
	fullname := d.fullname
	if d.obj != nil && !object.IsSentinel(d.obj) && d.obj.Module != "" && d.obj.QualName != "" {
		fullname = d.obj.Module + "." + d.obj.QualName
	}
	if d.analysis != nil {
		return d.analysis.SourceFile + ":docstring of " + fullname
	}
	return "docstring of " + fullname
}

// addContent emits the body: source-comment documentation when present,
// otherwise the docstring, then any extra caller-supplied content.
func (d *Documenter) addContent(more *markup.Content) {
	if d.kind.AddContent != nil {
		d.kind.AddContent(d, more)
		return
	}
	d.addContentDefault(more)
}

func (d *Documenter) addContentDefault(more *markup.Content) {
	useDocstring := true
	src := d.sourceName()

	if d.analysis != nil && len(d.objpath) > 0 {
		key := analyzer.Key{
			Namespace: strings.Join(d.objpath[:len(d.objpath)-1], "."),
			Name:      d.objpath[len(d.objpath)-1],
		}
		if lines, ok := d.analysis.AttrDocs[key]; ok {
			useDocstring = false
			block := append([]string{}, lines...)
			for _, line := range d.processDoc([][]string{block}) {
				d.addLine(line, src)
			}
		}
	}

	if useDocstring {
		docs, present := d.getDoc()
		if present {
			if len(docs) == 0 {
				// fire the docstring hook even for empty docstrings so
				// handlers can add content
				docs = [][]string{{}}
			}
			for _, line := range d.processDoc(docs) {
				d.addLine(line, src)
			}
		}
	}

	if more != nil {
		for _, line := range more.Lines() {
			d.addLine(line.Text, line.Source)
		}
	}
}

// Generate runs the full state machine for the target: parse the name,
// import the object, then emit it and its members. The result reports
// whether a whole-build retry should be scheduled.
func (d *Documenter) Generate(more *markup.Content, realModname string, checkModule, allMembers bool) (retry bool) {
	if !d.parseName() {
		return false
	}
	ok, retry := d.importObject()
	if !ok {
		return retry
	}
	return d.generateImported(more, realModname, checkModule, allMembers)
}

// generateImported emits the already-imported target. Split from Generate
// so member recursion can skip the re-parse and re-import.
func (d *Documenter) generateImported(more *markup.Content, realModname string, checkModule, allMembers bool) (retry bool) {
	if d.kind.IgnoreRealModname {
		// use the object's defining module so the analyzer finds its
		// source even when the object is re-exported elsewhere
		realModname = ""
	}
	guess := d.realModuleName()
	if realModname != "" {
		d.realModname = realModname
	} else {
		d.realModname = guess
	}

	// attach source analysis; absence is non-fatal, but the object's file
	// is still recorded as a dependency
	analysis, err := d.env.Analyzers.ForModule(d.realModname)
	if err != nil {
		d.env.Logger.Debug("module analysis failed", "module", d.realModname, "err", err)
		d.analysis = nil
		if d.module != nil && d.module.File != "" {
			d.env.Dependencies[d.module.File] = true
		}
	} else {
		d.analysis = analysis
		d.env.Dependencies[analysis.SourceFile] = true
	}
	if d.realModname != guess {
		if a, aerr := d.env.Analyzers.ForModule(guess); aerr == nil {
			d.env.Dependencies[a.SourceFile] = true
		}
	}

	if d.obj.Is(object.FlagMocked) {
		if docs, _ := d.getDoc(); len(docs) == 0 {
			d.env.Logger.Warn("a mocked object is detected", "name", d.name)
		}
	}

	if checkModule && !d.checkModule() {
		return false
	}

	src := d.sourceName()

	// the output must start with a blank line
	d.addLine("", src)

	sig, err := d.formatSignature()
	if err != nil {
		d.env.Logger.Warn("error while formatting signature",
			"name", d.fullname, "err", err)
		return false
	}

	d.header(sig)
	d.addLine("", src)

	d.indent += d.kind.ContentIndent
	d.addContent(more)

	return d.documentMembers(allMembers)
}

type memberDocumenter struct {
	doc    *Documenter
	isAttr bool
}

// documentMembers discovers, filters, sorts, and recursively documents the
// target's members. Every member is parsed and imported before any is
// sorted, so source-order keys are stable regardless of import effects.
func (d *Documenter) documentMembers(allMembers bool) (retry bool) {
	if d.kind.Leaf || d.docAsAttr {
		return false
	}

	// push the ambient scope; restored even if member generation fails
	saved := d.env.Current
	d.env.Current.Module = d.modname
	if len(d.objpath) > 0 {
		d.env.Current.Class = d.objpath[0]
	}
	defer func() { d.env.Current = saved }()

	wantAll := allMembers || d.opts.InheritedMembers != nil ||
		(d.opts.Members != nil && d.opts.Members.All)

	getMembers := d.kind.GetMembers
	if getMembers == nil {
		return false
	}
	checkModule, members := getMembers(d, wantAll)

	var docs []*memberDocumenter
	for _, m := range d.filterMembers(members, wantAll) {
		kind := d.env.Registry.Select(m.object, m.name, m.isAttr, d)
		if kind == nil {
			// don't know how to document this member
			continue
		}
		fullMname := d.modname + "::" +
			strings.Join(append(append([]string{}, d.objpath...), m.name), ".")
		docs = append(docs, &memberDocumenter{
			doc:    New(d.env, d.opts, kind, fullMname, d.indent),
			isAttr: m.isAttr,
		})
	}

	// import everything before sorting
	imported := docs[:0]
	for _, md := range docs {
		if !md.doc.parseName() {
			continue
		}
		ok, r := md.doc.importObject()
		retry = retry || r
		if ok {
			imported = append(imported, md)
		}
	}

	order := d.opts.MemberOrder
	if order == "" {
		order = d.env.Config.MemberOrder
	}
	if d.kind.SortMembers != nil {
		d.kind.SortMembers(d, imported, order)
	} else {
		d.sortMembersDefault(imported, order)
	}

	for _, md := range imported {
		r := md.doc.generateImported(nil, d.realModname, checkModule && !md.isAttr, true)
		retry = retry || r
	}
	return retry
}

// Document generates markup for one dotted name with the named documenter
// kind, appending to env.Result. It reports whether a retry pass should be
// scheduled (an import may succeed after other units are processed).
func Document(env *Env, opts *Options, kindName, name string) (bool, error) {
	kind := env.Registry.Get(kindName)
	if kind == nil {
		return false, fmt.Errorf("unknown documenter kind %q", kindName)
	}
	d := New(env, opts, kind, name, "")
	return d.Generate(nil, "", false, false), nil
}

func rpartition(s, sep string) (string, string) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):]
	}
	return "", s
}
