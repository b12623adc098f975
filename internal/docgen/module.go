package docgen

import (
	"sort"
	"strings"

	"github.com/turky/sphinx/internal/analyzer"
	"github.com/turky/sphinx/internal/markup"
	"github.com/turky/sphinx/internal/object"
)

func moduleKind() *Kind {
	return &Kind{
		Name:          "module",
		Scope:         ScopeModule,
		ContentIndent: "",
		InitOptions: func(d *Documenter) {
			d.opts = d.opts.mergeMemberOptions()
		},
		// submodules are never documented automatically
		CanDocument: func(*object.Object, string, bool, *Documenter) bool { return false },
		Header:      moduleHeader,
		AddContent:  moduleAddContent,
		GetMembers:  moduleMembers,
		SortMembers: moduleSortMembers,
	}
}

func moduleHeader(d *Documenter, sig string) {
	d.headerDefault(sig)

	src := d.sourceName()
	if d.opts.Synopsis != "" {
		d.addLine("   :synopsis: "+d.opts.Synopsis, src)
	}
	if d.opts.Platform != "" {
		d.addLine("   :platform: "+d.opts.Platform, src)
	}
	if d.opts.Deprecated {
		d.addLine("   :deprecated:", src)
	}
}

// moduleAddContent indents the module docstring one extra level under the
// directive while leaving caller-supplied content at the outer level.
func moduleAddContent(d *Documenter, more *markup.Content) {
	old := d.indent
	d.indent += "   "
	d.addContentDefault(nil)
	d.indent = old
	if more != nil {
		for _, line := range more.Lines() {
			d.addLine(line.Text, line.Source)
		}
	}
}

// moduleExports returns the module's export list, or nil when absent,
// disabled, or malformed.
func (d *Documenter) moduleExports() []string {
	if d.exportListLoaded {
		return d.exportList
	}
	d.exportListLoaded = true
	if d.obj == nil || d.opts.IgnoreModuleAll {
		return nil
	}
	exports, err := object.Exports(d.obj)
	if err != nil {
		d.env.Logger.Warn("invalid export list, ignoring it",
			"module", d.fullname, "err", err)
		return nil
	}
	d.exportList = exports
	return exports
}

// moduleMembers collects the module's attributes plus annotation-only
// names, attaching source comments as docstrings.
func moduleMembers(d *Documenter, wantAll bool) (bool, []*ObjectMember) {
	attrDocs := map[analyzer.Key][]string{}
	if d.analysis != nil {
		attrDocs = d.analysis.AttrDocs
	}

	byName := map[string]*ObjectMember{}
	for _, name := range d.obj.AttrNames() {
		value, _ := d.obj.OwnAttr(name)
		doc := strings.Join(attrDocs[analyzer.Key{Name: name}], "\n")
		byName[name] = &ObjectMember{Name: name, Object: value, Docstring: doc}
	}
	for name := range d.obj.Annotations {
		if _, ok := byName[name]; ok {
			continue
		}
		doc := strings.Join(attrDocs[analyzer.Key{Name: name}], "\n")
		byName[name] = &ObjectMember{Name: name, Object: object.InstanceAttr, Docstring: doc}
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	if wantAll {
		exports := d.moduleExports()
		var members []*ObjectMember
		if exports == nil {
			// without an export list, module membership decides what is
			// considered imported
			for _, name := range names {
				members = append(members, byName[name])
			}
			return true, members
		}
		exported := map[string]bool{}
		for _, name := range exports {
			exported[name] = true
		}
		for _, name := range names {
			m := byName[name]
			m.Skipped = !exported[name]
			members = append(members, m)
		}
		return false, members
	}

	var wanted []string
	if d.opts.Members != nil {
		wanted = d.opts.Members.Names
	}
	var members []*ObjectMember
	for _, name := range wanted {
		if m, ok := byName[name]; ok {
			members = append(members, m)
		} else {
			d.env.Logger.Warn("missing attribute mentioned in members option",
				"module", d.fullname, "attribute", name)
		}
	}
	return false, members
}

// moduleSortMembers honors the export list under source ordering: exported
// names keep their list position, the rest follow alphabetically.
func moduleSortMembers(d *Documenter, members []*memberDocumenter, order string) {
	exports := d.moduleExports()
	if order != OrderBySource || len(exports) == 0 {
		d.sortMembersDefault(members, order)
		return
	}

	index := map[string]int{}
	for i, name := range exports {
		index[name] = i
	}
	key := func(md *memberDocumenter) int {
		if pos, ok := index[memberPath(md)]; ok {
			return pos
		}
		return len(exports)
	}

	// alphabetical pre-pass orders the names outside the export list
	d.sortMembersDefault(members, OrderAlphabetical)
	sort.SliceStable(members, func(i, j int) bool {
		return key(members[i]) < key(members[j])
	})
}
