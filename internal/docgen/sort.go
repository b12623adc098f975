package docgen

import (
	"sort"
	"strings"
)

// OrderAlphabetical, OrderGroupwise and OrderBySource are the recognized
// member orderings.
const (
	OrderAlphabetical = "alphabetical"
	OrderGroupwise    = "groupwise"
	OrderBySource     = "bysource"
)

// sortMembersDefault orders member documenters alphabetically, by kind
// group, or by source position.
func (d *Documenter) sortMembersDefault(members []*memberDocumenter, order string) {
	switch order {
	case OrderGroupwise:
		sort.SliceStable(members, func(i, j int) bool {
			a, b := members[i].doc, members[j].doc
			if a.kind.MemberOrder != b.kind.MemberOrder {
				return a.kind.MemberOrder < b.kind.MemberOrder
			}
			return a.name < b.name
		})
	case OrderBySource:
		if d.analysis == nil {
			// no source information, alphabetical is the best we can do
			d.sortMembersDefault(members, OrderAlphabetical)
			return
		}
		tagOrder := d.analysis.TagOrder
		key := func(md *memberDocumenter) int {
			if pos, ok := tagOrder[memberPath(md)]; ok {
				return pos
			}
			return len(tagOrder)
		}
		sort.SliceStable(members, func(i, j int) bool {
			return key(members[i]) < key(members[j])
		})
	default: // alphabetical
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].doc.name < members[j].doc.name
		})
	}
}

// memberPath is the dotted path of a member documenter within its module,
// the key used by source-order and export-list sorting.
func memberPath(md *memberDocumenter) string {
	if _, after, ok := strings.Cut(md.doc.name, "::"); ok {
		return after
	}
	return md.doc.name
}
