package docgen

// MemberList is the value of a members-style option: either "all members"
// or an explicit name list.
type MemberList struct {
	All   bool
	Names []string
}

// AllMembers is the conventional "every member" value.
func AllMembers() *MemberList { return &MemberList{All: true} }

// MemberNames builds an explicit selection.
func MemberNames(names ...string) *MemberList { return &MemberList{Names: names} }

// Has reports whether name is selected. An All list selects everything.
func (m *MemberList) Has(name string) bool {
	if m == nil {
		return false
	}
	if m.All {
		return true
	}
	for _, n := range m.Names {
		if n == name {
			return true
		}
	}
	return false
}

// Options are the per-directive generation options. A nil pointer field
// means the option was not given, which several filter rules distinguish
// from an empty value.
type Options struct {
	Members *MemberList
	// UndocMembers keeps members without documentation.
	UndocMembers bool
	// InheritedMembers enables inherited members; the set names ancestor
	// classes whose members are excluded from the walk. Nil means the
	// option is off.
	InheritedMembers map[string]bool
	ShowInheritance  bool
	MemberOrder      string
	ExcludeMembers   map[string]bool
	// PrivateMembers and SpecialMembers are allowlists; nil means unset.
	PrivateMembers *MemberList
	SpecialMembers *MemberList
	// ImportedMembers disables the defining-module check for module
	// members.
	ImportedMembers bool
	IgnoreModuleAll bool
	NoIndex         bool

	// Data and attribute directives.
	Annotation         string
	SuppressAnnotation bool
	NoValue            bool

	// Module directives.
	Synopsis   string
	Platform   string
	Deprecated bool

	// Class directives.
	ClassDocFrom string
}

// mergeMemberOptions folds explicitly named special and private members
// into the member selection, so naming a member in either allowlist also
// requests it.
func (o *Options) mergeMemberOptions() *Options {
	merged := *o
	if merged.Members != nil && merged.Members.All {
		return &merged
	}
	var extra []string
	if merged.SpecialMembers != nil && !merged.SpecialMembers.All {
		extra = append(extra, merged.SpecialMembers.Names...)
	}
	if merged.PrivateMembers != nil && !merged.PrivateMembers.All {
		extra = append(extra, merged.PrivateMembers.Names...)
	}
	if len(extra) == 0 {
		return &merged
	}
	list := &MemberList{}
	if merged.Members != nil {
		list.Names = append(list.Names, merged.Members.Names...)
	}
	for _, name := range extra {
		if !list.Has(name) {
			list.Names = append(list.Names, name)
		}
	}
	merged.Members = list
	return &merged
}
