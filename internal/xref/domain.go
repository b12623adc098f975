// Package xref resolves symbolic cross-references against external
// documentation inventories: domain/role bookkeeping, the multi-stage
// lookup algorithm, and the dispatcher for explicit external-reference
// roles.
package xref

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrDomainNotRegistered reports use of an unknown domain name. This is a
// build-configuration error and propagates instead of being swallowed.
var ErrDomainNotRegistered = errors.New("domain is not registered")

// Scope is the lexical position a reference occurs in, used to expand
// unqualified targets.
type Scope struct {
	Module string
	Class  string
}

// PendingRef is an unresolved cross-reference awaiting resolution.
type PendingRef struct {
	// Target is the symbol being referenced.
	Target string
	// RefType is the role the reference was created with ("class",
	// "func", "term", or the wildcard "any").
	RefType string
	// Domain is the owning domain name; empty only for wildcard refs.
	Domain string
	// Content is the visible text; Explicit marks a caller-supplied title.
	Content  string
	Explicit bool
	// Doc and Line locate the reference in its source document.
	Doc  string
	Line int
	// External and Inventory tag references produced by the external-role
	// dispatcher: Inventory scopes resolution to one named inventory,
	// empty means any.
	External  bool
	Inventory string
	// SelfReferential marks targets rewritten by the self-resolution
	// prefix; they are handed back to local resolution.
	SelfReferential bool
	// Scope is the lexical scope for qualified-name expansion.
	Scope Scope
}

// ObjectType describes one documented object category of a domain and the
// roles that can reference it.
type ObjectType struct {
	Name  string
	Roles []string
}

// RoleRequest carries the arguments of one role invocation.
type RoleRequest struct {
	FullRole string // "domain:role"
	Text     string // role argument, possibly "title <target>"
	Doc      string
	Line     int
	Scope    Scope
}

// RoleFunc turns a role invocation into pending references.
type RoleFunc func(req RoleRequest) []*PendingRef

// Domain groups object types and reference roles under one name.
type Domain struct {
	Name        string
	ObjectTypes map[string]ObjectType
	Roles       map[string]RoleFunc
	// FullQualify expands an unqualified target using the lexical scope;
	// nil or an empty return means no expansion is possible.
	FullQualify func(ref *PendingRef) string
}

// TypesForRole returns object-type names referenceable through role, in
// deterministic sorted order.
func (d *Domain) TypesForRole(role string) []string {
	var out []string
	for _, name := range sortedTypeNames(d) {
		for _, r := range d.ObjectTypes[name].Roles {
			if r == role {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// TypeNames returns every object-type name of the domain, sorted.
func (d *Domain) TypeNames() []string {
	return sortedTypeNames(d)
}

func sortedTypeNames(d *Domain) []string {
	names := make([]string, 0, len(d.ObjectTypes))
	for name := range d.ObjectTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry holds the registered domains. Iteration order for wildcard
// resolution is sorted by domain name, explicitly, so lookup results do not
// depend on registration sequence.
type Registry struct {
	domains map[string]*Domain
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{domains: map[string]*Domain{}}
}

// Register adds a domain; duplicate names are rejected.
func (r *Registry) Register(d *Domain) error {
	if _, exists := r.domains[d.Name]; exists {
		return fmt.Errorf("domain %q already registered", d.Name)
	}
	r.domains[d.Name] = d
	return nil
}

// Get returns a domain or ErrDomainNotRegistered.
func (r *Registry) Get(name string) (*Domain, error) {
	d, ok := r.domains[name]
	if !ok {
		return nil, fmt.Errorf("domain %q: %w", name, ErrDomainNotRegistered)
	}
	return d, nil
}

// Has reports whether a domain exists.
func (r *Registry) Has(name string) bool {
	_, ok := r.domains[name]
	return ok
}

// Sorted returns all domains ordered by name.
func (r *Registry) Sorted() []*Domain {
	names := make([]string, 0, len(r.domains))
	for name := range r.domains {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Domain, len(names))
	for i, name := range names {
		out[i] = r.domains[name]
	}
	return out
}

// XRefRole builds the standard role function: it parses the optional
// "title <target>" explicit-title form and emits a single pending
// reference.
func XRefRole(domain, role string) RoleFunc {
	return func(req RoleRequest) []*PendingRef {
		title, target, explicit := SplitExplicitTitle(req.Text)
		return []*PendingRef{{
			Target:   target,
			RefType:  role,
			Domain:   domain,
			Content:  title,
			Explicit: explicit,
			Doc:      req.Doc,
			Line:     req.Line,
			Scope:    req.Scope,
		}}
	}
}

// SplitExplicitTitle parses "title <target>" role text.
func SplitExplicitTitle(text string) (title, target string, explicit bool) {
	if strings.HasSuffix(text, ">") {
		if i := strings.LastIndex(text, "<"); i >= 0 {
			title = strings.TrimSpace(text[:i])
			target = strings.TrimSpace(text[i+1 : len(text)-1])
			if title != "" && target != "" {
				return title, target, true
			}
		}
	}
	return text, text, false
}

// StandardRegistry builds the default domain set: the "std" domain of
// prose-level object types and the "py" domain of code objects.
func StandardRegistry() *Registry {
	r := NewRegistry()

	std := &Domain{
		Name: "std",
		ObjectTypes: map[string]ObjectType{
			"label":     {Name: "label", Roles: []string{"ref", "keyword"}},
			"term":      {Name: "term", Roles: []string{"term"}},
			"doc":       {Name: "doc", Roles: []string{"doc"}},
			"cmdoption": {Name: "cmdoption", Roles: []string{"option"}},
			"envvar":    {Name: "envvar", Roles: []string{"envvar"}},
		},
	}
	std.Roles = rolesFor(std)
	mustRegister(r, std)

	py := &Domain{
		Name: "py",
		ObjectTypes: map[string]ObjectType{
			"module":    {Name: "module", Roles: []string{"mod", "obj"}},
			"class":     {Name: "class", Roles: []string{"class", "exc", "obj"}},
			"exception": {Name: "exception", Roles: []string{"exc", "obj"}},
			"function":  {Name: "function", Roles: []string{"func", "obj"}},
			"method":    {Name: "method", Roles: []string{"meth", "obj"}},
			"attribute": {Name: "attribute", Roles: []string{"attr", "obj"}},
			"property":  {Name: "property", Roles: []string{"attr", "meth", "obj"}},
			"data":      {Name: "data", Roles: []string{"data", "obj"}},
		},
		FullQualify: func(ref *PendingRef) string {
			parts := make([]string, 0, 3)
			if ref.Scope.Module != "" {
				parts = append(parts, ref.Scope.Module)
			}
			if ref.Scope.Class != "" {
				parts = append(parts, ref.Scope.Class)
			}
			if len(parts) == 0 {
				return ""
			}
			parts = append(parts, ref.Target)
			return strings.Join(parts, ".")
		},
	}
	py.Roles = rolesFor(py)
	mustRegister(r, py)

	return r
}

// rolesFor derives the role table of a domain from its object types.
func rolesFor(d *Domain) map[string]RoleFunc {
	roles := map[string]RoleFunc{}
	for _, objType := range d.ObjectTypes {
		for _, role := range objType.Roles {
			if _, exists := roles[role]; !exists {
				roles[role] = XRefRole(d.Name, role)
			}
		}
	}
	return roles
}

func mustRegister(r *Registry, d *Domain) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}
