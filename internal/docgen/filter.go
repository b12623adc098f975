package docgen

import (
	"fmt"
	"strings"

	"github.com/turky/sphinx/internal/analyzer"
	"github.com/turky/sphinx/internal/docstring"
	"github.com/turky/sphinx/internal/object"
)

// candidate is a member that survived filtering, ready for documenter
// selection.
type candidate struct {
	name   string
	object *object.Object
	isAttr bool
}

// filterMembers drops members that should not be documented: mocked
// objects, excluded names, special and private members outside their
// allowlists, inherited members of filtered base classes, and
// undocumented members unless requested. The skip-member hook gets the
// final say.
func (d *Documenter) filterMembers(members []*ObjectMember, wantAll bool) []*candidate {
	namespace := strings.Join(d.objpath, ".")

	attrDocs := map[analyzer.Key][]string{}
	if d.analysis != nil {
		attrDocs = d.analysis.AttrDocs
	}

	var ret []*candidate
	for _, m := range members {
		keep, isAttr := d.filterOne(m, namespace, attrDocs, wantAll)
		if keep {
			ret = append(ret, &candidate{name: m.Name, object: m.Object, isAttr: isAttr})
		}
	}
	return ret
}

func (d *Documenter) filterOne(m *ObjectMember, namespace string, attrDocs map[analyzer.Key][]string, wantAll bool) (keep, isAttr bool) {
	// a broken member must not abort its siblings
	defer func() {
		if r := recover(); r != nil {
			d.env.Logger.Warn("failed to determine whether a member is documented",
				"name", d.name, "member", m.Name, "err", fmt.Sprint(r))
			keep = false
		}
	}()

	member := m.Object
	hasAttrDoc := false
	if _, ok := attrDocs[analyzer.Key{Namespace: namespace, Name: m.Name}]; ok {
		hasAttrDoc = true
	}
	// documented-as-attribute: instance attributes and members with a
	// source comment
	isAttr = member == object.InstanceAttr || hasAttrDoc

	doc := object.Doc(member, d.obj, m.Name, d.env.Config.InheritDocstrings)
	if m.Docstring != "" {
		// class member discovery can supply the effective docstring
		doc = m.Docstring
	}
	doc, metadata := docstring.SeparateMetadata(doc)
	hasDoc := doc != ""

	var isPrivate bool
	if _, ok := metadata["private"]; ok {
		isPrivate = true
	} else if _, ok := metadata["public"]; ok {
		isPrivate = false
	} else {
		isPrivate = strings.HasPrefix(m.Name, "_")
	}

	keep = false
	switch {
	case member != nil && member.Is(object.FlagMocked) && !hasAttrDoc:
		// mocked module or object

	case d.opts.ExcludeMembers[m.Name]:
		keep = false

	case wantAll && specialMemberRe.MatchString(m.Name):
		if d.opts.SpecialMembers != nil && d.opts.SpecialMembers.Has(m.Name) {
			switch {
			case m.Name == "__doc__":
				keep = false
			case d.isFilteredInheritedMember(m.Name, m):
				keep = false
			default:
				keep = hasDoc || d.opts.UndocMembers
			}
		} else {
			keep = false
		}

	case hasAttrDoc:
		if wantAll && isPrivate {
			keep = d.opts.PrivateMembers != nil && d.opts.PrivateMembers.Has(m.Name)
		} else {
			// keep documented attributes
			keep = true
		}

	case wantAll && isPrivate:
		if hasDoc || d.opts.UndocMembers {
			switch {
			case d.opts.PrivateMembers == nil:
				keep = false
			case d.isFilteredInheritedMember(m.Name, m):
				keep = false
			default:
				keep = d.opts.PrivateMembers.Has(m.Name)
			}
		} else {
			keep = false
		}

	default:
		if d.opts.Members != nil && d.opts.Members.All && d.isFilteredInheritedMember(m.Name, m) {
			keep = false
		} else {
			keep = hasDoc || d.opts.UndocMembers
		}
	}

	if m.Skipped {
		// forcedly skipped member, e.g. a module attribute absent from the
		// export list
		keep = false
	}

	result := d.env.Hooks.EmitFirstResult(EventSkipMember,
		d.kind.Name, m.Name, member, !keep, d.opts)
	if skip, ok := result.(bool); ok {
		keep = !skip
	}
	return keep, isAttr
}

// isFilteredInheritedMember reports whether the member is inherited from a
// base class named by the inherited-members option and should therefore be
// left to that class's own documentation.
func (d *Documenter) isFilteredInheritedMember(name string, m *ObjectMember) bool {
	if d.obj == nil || !d.obj.IsClass() {
		return false
	}
	var seen []*object.Object
	for _, cls := range d.obj.Ancestry() {
		_, owns := cls.OwnAttr(name)
		if owns {
			seen = append(seen, cls)
		}
		if d.opts.InheritedMembers[cls.Name] && cls != d.obj && anySubclassOf(seen, cls) {
			// the member belongs to a named super class
			return true
		}
		if owns {
			return false
		}
		if _, ok := cls.Annotations[name]; ok {
			return false
		}
		if m.Class == cls {
			return false
		}
	}
	return false
}

func anySubclassOf(classes []*object.Object, base *object.Object) bool {
	for _, c := range classes {
		for _, a := range c.Ancestry() {
			if a == base {
				return true
			}
		}
	}
	return false
}
