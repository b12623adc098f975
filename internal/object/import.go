package object

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports that a module or attribute chain cannot be resolved.
// Import failures are retryable: the target may become importable after
// other build units are processed.
var ErrNotFound = errors.New("object not found")

// Importer resolves a module name into its graph object.
type Importer interface {
	ImportModule(name string) (*Object, error)
}

// Imported is the result of resolving a dotted path: the module it was
// reached through, the object itself, its enclosing parent (nil for
// modules) and the attribute name it was found under.
type Imported struct {
	Module     *Object
	Parent     *Object
	Object     *Object
	ObjectName string
}

// Import resolves objPath inside module modname. Modules named in
// mockImports (or nested under one) yield mocked placeholders instead of
// failing, so documentation of optional dependencies can proceed.
func Import(imp Importer, modname string, objPath []string, mockImports []string) (*Imported, error) {
	module, err := imp.ImportModule(modname)
	if err != nil {
		if isMockedModule(modname, mockImports) {
			module = NewMocked(modname, "")
			module.Kind = KindModule
		} else {
			return nil, fmt.Errorf("could not import module %s: %w", modname, err)
		}
	}

	obj := module
	var parent *Object
	objectName := ""
	for i, attr := range objPath {
		next, ok := obj.Get(attr)
		if !ok {
			return nil, fmt.Errorf(
				"failed to resolve %s.%s (no attribute %q): %w",
				modname, strings.Join(objPath[:i+1], "."), attr, ErrNotFound)
		}
		parent = obj
		obj = next
		objectName = attr
	}
	return &Imported{Module: module, Parent: parent, Object: obj, ObjectName: objectName}, nil
}

func isMockedModule(modname string, mockImports []string) bool {
	for _, mock := range mockImports {
		if modname == mock || strings.HasPrefix(modname, mock+".") {
			return true
		}
	}
	return false
}

// ImportedClass augments Imported with alias information for class targets.
type ImportedClass struct {
	Imported
	// DocAsAttr is set when the target is reached through an alias name or
	// is a typing marker, and should be described as an attribute rather
	// than a full class.
	DocAsAttr bool
}

// ImportClass resolves a class target, detecting alias assignments.
func ImportClass(imp Importer, modname string, objPath []string, mockImports []string) (*ImportedClass, error) {
	im, err := Import(imp, modname, objPath, mockImports)
	if err != nil {
		return nil, err
	}
	res := &ImportedClass{Imported: *im}
	obj := im.Object
	if obj != nil && !IsSentinel(obj) {
		aliased := obj.Name != "" && im.ObjectName != "" && obj.Name != im.ObjectName
		if aliased || obj.Is(FlagGenericAlias) || (!obj.IsClass() && obj.Is(FlagTypeVarLike)) {
			res.DocAsAttr = true
		}
	}
	return res, nil
}

// ImportData resolves a module-level assignment. Names that exist only as
// type annotations resolve to the UninitializedAttr sentinel.
func ImportData(imp Importer, modname string, objPath []string, mockImports []string) (*Imported, error) {
	im, err := Import(imp, modname, objPath, mockImports)
	if err == nil {
		return im, nil
	}
	if len(objPath) != 1 {
		return nil, err
	}
	module, merr := imp.ImportModule(modname)
	if merr != nil {
		return nil, err
	}
	name := objPath[0]
	if _, ok := module.Annotations[name]; ok {
		return &Imported{
			Module:     module,
			Parent:     module,
			Object:     UninitializedAttr,
			ObjectName: name,
		}, nil
	}
	return nil, err
}

// ImportAttribute resolves a class-level assignment, falling back to the
// uninitialized, slots and runtime-instance sentinels for names declared
// without a concrete class attribute value.
func ImportAttribute(imp Importer, modname string, objPath []string, mockImports []string) (*Imported, error) {
	im, err := Import(imp, modname, objPath, mockImports)
	if err == nil {
		return im, nil
	}
	if len(objPath) < 2 {
		return nil, err
	}
	parentPath := objPath[:len(objPath)-1]
	name := objPath[len(objPath)-1]
	parentIm, perr := Import(imp, modname, parentPath, mockImports)
	if perr != nil || !parentIm.Object.IsClass() {
		return nil, err
	}
	cls := parentIm.Object
	sentinel := attributeSentinel(cls, name)
	if sentinel == nil {
		return nil, err
	}
	return &Imported{
		Module:     parentIm.Module,
		Parent:     cls,
		Object:     sentinel,
		ObjectName: name,
	}, nil
}

func attributeSentinel(cls *Object, name string) *Object {
	for _, ancestor := range cls.Ancestry() {
		if _, ok := ancestor.Slots[name]; ok {
			return SlotsAttr
		}
		if _, ok := ancestor.Annotations[name]; ok {
			return UninitializedAttr
		}
		for _, runtime := range ancestor.RuntimeAttrs {
			if runtime == name {
				return RuntimeInstanceAttr
			}
		}
	}
	return nil
}

// ImportedProperty augments Imported with the class-property marker.
type ImportedProperty struct {
	Imported
	IsClassMethod bool
}

// ImportProperty resolves a property target. A nil result with nil error
// means the target exists but is not a property, and another documenter
// should claim it.
func ImportProperty(imp Importer, modname string, objPath []string, mockImports []string) (*ImportedProperty, error) {
	im, err := Import(imp, modname, objPath, mockImports)
	if err != nil {
		return nil, err
	}
	if !im.Object.IsProperty() {
		return nil, nil
	}
	return &ImportedProperty{
		Imported:      *im,
		IsClassMethod: im.Object.Is(FlagClassMethod),
	}, nil
}

// Exports returns a module's explicit export list. The error reports a
// malformed declaration; a nil list with nil error means no list exists.
func Exports(module *Object) ([]string, error) {
	if module.ExportsInvalid {
		return nil, fmt.Errorf("export list of module %s is not a list of strings", module.Module)
	}
	return module.Exports, nil
}

// Doc returns the documentation string of obj, consulting parent's ancestry
// for an inherited docstring when inherit is set and obj itself has none.
func Doc(obj *Object, parent *Object, name string, inherit bool) string {
	if obj == nil {
		return ""
	}
	if obj.Doc != "" || !inherit || parent == nil || !parent.IsClass() || name == "" {
		return obj.Doc
	}
	for _, ancestor := range parent.Ancestry() {
		if member, ok := ancestor.OwnAttr(name); ok && member.Doc != "" {
			return member.Doc
		}
	}
	return ""
}
