package docgen

import "github.com/turky/sphinx/internal/object"

// ObjectMember is one candidate member discovered during enumeration,
// before filtering decides whether it is documented. Immutable once built
// except for Skipped, which the producer may set to force exclusion.
type ObjectMember struct {
	Name   string
	Object *object.Object
	// Docstring is a source-comment docstring attached at discovery time.
	Docstring string
	// Class is the class that defines the member, when discovered through
	// an ancestry walk.
	Class *object.Object
	// Skipped forces exclusion regardless of filter policy, e.g. a module
	// attribute absent from the export list. A skip-member hook may still
	// resurrect the member.
	Skipped bool
}
