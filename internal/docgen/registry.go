package docgen

import (
	"sort"

	"github.com/turky/sphinx/internal/markup"
	"github.com/turky/sphinx/internal/object"
)

// ScopeLevel is how a documenter kind resolves unqualified names.
type ScopeLevel int

const (
	// ScopeModule targets are modules; the name is the module itself.
	ScopeModule ScopeLevel = iota
	// ScopeModuleLevel targets live directly in a module.
	ScopeModuleLevel
	// ScopeClassLevel targets live inside a class.
	ScopeClassLevel
)

// Kind describes a documenter variant. Behavior funcs may be nil, in which
// case the shared defaults apply.
type Kind struct {
	// Name is the directive suffix ("module", "class", ...).
	Name string
	// Directive is the emitted domain directive; defaults to Name.
	Directive string

	Scope ScopeLevel

	// Priority breaks ties when several kinds can document a member; the
	// highest wins. Equal priorities go to the latest registered.
	Priority int

	// MemberOrder ranks members of this kind under groupwise sorting.
	MemberOrder int

	// ContentIndent is added to the indent for body and member lines.
	ContentIndent string

	// Leaf kinds never recurse into members.
	Leaf bool
	// ClassLike widens docstring-signature matching to constructor and
	// base-class names.
	ClassLike bool
	// IgnoreRealModname forces the object's own defining module for
	// source analysis, ignoring the caller's suggestion.
	IgnoreRealModname bool
	// DocstringSignature enables signature extraction from docstrings.
	DocstringSignature bool
	// StripSignature drops an extracted docstring signature instead of
	// adopting it (the matched lines are still removed).
	StripSignature bool
	// StripDocstringReturn removes return annotations from extracted
	// docstring signatures.
	StripDocstringReturn bool
	// UninitializedGlobals admits annotation-only targets with no value.
	UninitializedGlobals bool

	InitOptions func(d *Documenter)
	CanDocument func(member *object.Object, name string, isAttr bool, parent *Documenter) bool
	// Import resolves the parsed name. false with a nil error skips the
	// target silently; an error warns and schedules a retry.
	Import      func(d *Documenter) (bool, error)
	RealModname func(d *Documenter) string
	FormatArgs  func(d *Documenter) (string, error)
	// FormatSignature overrides the whole signature pipeline.
	FormatSignature func(d *Documenter) (string, error)
	Header          func(d *Documenter, sig string)
	// GetDoc returns docstring blocks; false means no docstring
	// processing at all (as opposed to an empty docstring).
	GetDoc     func(d *Documenter) ([][]string, bool)
	AddContent func(d *Documenter, more *markup.Content)
	// GetMembers reports whether member module membership should be
	// checked, plus the candidate members.
	GetMembers  func(d *Documenter, wantAll bool) (bool, []*ObjectMember)
	SortMembers func(d *Documenter, members []*memberDocumenter, order string)
}

// Registry holds the documenter kinds in registration order.
type Registry struct {
	kinds  []*Kind
	byName map[string]*Kind
}

// StandardRegistry returns a registry with the built-in kinds. Later
// registrations win priority ties, so the specialized kinds come after the
// general ones they refine.
func StandardRegistry() *Registry {
	r := &Registry{byName: map[string]*Kind{}}
	r.Register(moduleKind())
	r.Register(classKind())
	r.Register(exceptionKind())
	r.Register(dataKind())
	r.Register(functionKind())
	r.Register(decoratorKind())
	r.Register(methodKind())
	r.Register(attributeKind())
	r.Register(propertyKind())
	return r
}

// Register adds a kind. Registering over an existing name replaces it in
// the lookup table but keeps both in selection order.
func (r *Registry) Register(k *Kind) {
	if k.Directive == "" {
		k.Directive = k.Name
	}
	r.kinds = append(r.kinds, k)
	r.byName[k.Name] = k
}

// Get returns the kind registered under name, or nil.
func (r *Registry) Get(name string) *Kind { return r.byName[name] }

// Select picks the documenter kind for a member: among the kinds that
// claim it, the highest priority wins, latest registration breaking ties.
func (r *Registry) Select(member *object.Object, name string, isAttr bool, parent *Documenter) *Kind {
	var claims []*Kind
	for _, k := range r.kinds {
		if k.CanDocument != nil && k.CanDocument(member, name, isAttr, parent) {
			claims = append(claims, k)
		}
	}
	if len(claims) == 0 {
		return nil
	}
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].Priority < claims[j].Priority
	})
	return claims[len(claims)-1]
}
