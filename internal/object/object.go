// Package object models the introspected object graph that documentation is
// generated from: modules, classes, callables, properties and plain values,
// together with the import service that resolves dotted paths into them.
//
// Graphs are loaded from a serialized description (see graph.go), the
// equivalent of attaching to a live interpreter session.
package object

import (
	"sort"

	"github.com/turky/sphinx/internal/introspect"
)

// Kind classifies a graph object.
type Kind string

const (
	KindModule   Kind = "module"
	KindClass    Kind = "class"
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
	KindProperty Kind = "property"
	// KindValue covers plain data: module globals, class attributes,
	// descriptors and other non-callable, non-type objects.
	KindValue Kind = "value"
)

// Flags carry orthogonal object properties.
type Flags uint32

const (
	// FlagException marks classes in the exception hierarchy.
	FlagException Flags = 1 << iota
	// FlagBuiltin marks callables without source (C-level etc).
	FlagBuiltin
	FlagAbstract
	FlagAsync
	FlagClassMethod
	FlagStaticMethod
	// FlagDataDescriptor marks attribute values implementing the data
	// descriptor protocol.
	FlagDataDescriptor
	// FlagGenericAlias marks instantiated generic aliases (List[int]).
	FlagGenericAlias
	// FlagTypeVarLike marks NewType/TypeVar style typing markers.
	FlagTypeVarLike
	// FlagMocked marks placeholder objects standing in for modules that
	// could not be imported.
	FlagMocked
	// FlagInvalidSignature makes signature retrieval fail structurally
	// instead of with the benign "no signature" condition.
	FlagInvalidSignature
)

// DispatchEntry is one registration of a dispatch-on-type callable.
type DispatchEntry struct {
	TypeName string
	Func     *Object
}

// Object is one node of the introspected graph.
type Object struct {
	Name     string
	Module   string // defining module name
	QualName string // qualified name inside the defining module
	Kind     Kind
	Flags    Flags
	Doc      string

	// Modules only.
	File           string
	Exports        []string // explicit export list; nil when absent
	ExportsInvalid bool     // export list present but malformed

	Attrs       map[string]*Object
	Annotations map[string]string // attribute name -> annotation text

	// Classes only.
	Bases     []*Object
	MRO       []*Object // linearized ancestry, self first
	Slots     map[string]string
	Metaclass *Object
	// RuntimeAttrs lists attribute names assigned on instances at runtime
	// (constructor body assignments), discoverable only through source
	// analysis or runtime inspection.
	RuntimeAttrs []string

	// Callables.
	Signature *introspect.Signature
	Dispatch  []DispatchEntry

	// Properties: the getter whose signature carries the value type.
	Getter *Object

	// Data values: rendered representation, when one exists.
	Value    string
	HasValue bool
}

// Sentinel placeholder values. Compared by identity.
var (
	// UninitializedAttr stands in for names declared by annotation only.
	UninitializedAttr = &Object{Name: "<uninitialized attribute>", Kind: KindValue}
	// InstanceAttr stands in for attributes that exist only on instances.
	InstanceAttr = &Object{Name: "<instance attribute>", Kind: KindValue}
	// SlotsAttr stands in for names declared via __slots__.
	SlotsAttr = &Object{Name: "<slots attribute>", Kind: KindValue}
	// RuntimeInstanceAttr stands in for attributes assigned at runtime.
	RuntimeInstanceAttr = &Object{Name: "<runtime instance attribute>", Kind: KindValue}
)

// IsSentinel reports whether o is one of the placeholder values.
func IsSentinel(o *Object) bool {
	return o == UninitializedAttr || o == InstanceAttr ||
		o == SlotsAttr || o == RuntimeInstanceAttr
}

func (o *Object) Is(f Flags) bool { return o != nil && o.Flags&f != 0 }

// IsRoutine reports whether o is callable machinery: a function, method or
// builtin callable.
func (o *Object) IsRoutine() bool {
	if o == nil {
		return false
	}
	return o.Kind == KindFunction || o.Kind == KindMethod ||
		(o.Kind == KindValue && o.Is(FlagBuiltin))
}

func (o *Object) IsClass() bool    { return o != nil && o.Kind == KindClass }
func (o *Object) IsModule() bool   { return o != nil && o.Kind == KindModule }
func (o *Object) IsProperty() bool { return o != nil && o.Kind == KindProperty }

// FullName is the dotted address of the object's definition site.
func (o *Object) FullName() string {
	if o == nil {
		return ""
	}
	if o.QualName == "" || o.Kind == KindModule {
		return o.Module
	}
	if o.Module == "" {
		return o.QualName
	}
	return o.Module + "." + o.QualName
}

// AttrNames lists attribute names in deterministic sorted order, the
// equivalent of a dir() listing.
func (o *Object) AttrNames() []string {
	names := make([]string, 0, len(o.Attrs))
	for name := range o.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get resolves an attribute on o. Classes consult their ancestry; mocked
// objects synthesize mocked children so traversal never fails on them.
func (o *Object) Get(name string) (*Object, bool) {
	if o == nil {
		return nil, false
	}
	if v, ok := o.Attrs[name]; ok {
		return v, true
	}
	if o.Kind == KindClass {
		for _, cls := range o.MRO[min(1, len(o.MRO)):] {
			if v, ok := cls.Attrs[name]; ok {
				return v, true
			}
		}
	}
	if o.Is(FlagMocked) {
		return NewMocked(o.Module, joinQual(o.QualName, name)), true
	}
	return nil, false
}

// OwnAttr resolves an attribute without consulting the ancestry.
func (o *Object) OwnAttr(name string) (*Object, bool) {
	v, ok := o.Attrs[name]
	return v, ok
}

// Ancestry returns the class's method resolution order, computing a
// depth-first linearization when none was supplied by the graph.
func (o *Object) Ancestry() []*Object {
	if o == nil || o.Kind != KindClass {
		return nil
	}
	if len(o.MRO) > 0 {
		return o.MRO
	}
	seen := map[*Object]bool{}
	var out []*Object
	var walk func(cls *Object)
	walk = func(cls *Object) {
		if cls == nil || seen[cls] {
			return
		}
		seen[cls] = true
		out = append(out, cls)
		for _, b := range cls.Bases {
			walk(b)
		}
	}
	walk(o)
	o.MRO = out
	return out
}

// NewMocked builds a placeholder object for an unimportable module path.
func NewMocked(module, qualName string) *Object {
	name := qualName
	if i := lastDot(qualName); i >= 0 {
		name = qualName[i+1:]
	}
	if name == "" {
		name = module
	}
	return &Object{
		Name:     name,
		Module:   module,
		QualName: qualName,
		Kind:     KindValue,
		Flags:    FlagMocked,
	}
}

func joinQual(qual, name string) string {
	if qual == "" {
		return name
	}
	return qual + "." + name
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// SignatureOf retrieves an object's callable signature. Bound callables
// hide their receiver parameter. The two failure modes are distinguishable:
// introspect.ErrInvalidSignature for structurally broken metadata and
// introspect.ErrNoSignature for objects that simply have none.
func SignatureOf(o *Object, bound bool) (*introspect.Signature, error) {
	if o == nil || IsSentinel(o) {
		return nil, introspect.ErrNoSignature
	}
	if o.Is(FlagInvalidSignature) {
		return nil, introspect.ErrInvalidSignature
	}
	if o.Signature == nil {
		return nil, introspect.ErrNoSignature
	}
	sig := o.Signature
	if bound {
		sig = sig.DropFirst()
	}
	return sig.Clone(), nil
}
