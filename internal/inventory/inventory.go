// Package inventory models external documentation indexes: per-project
// mappings from object type and symbol name to a documented location. A Set
// aggregates the inventories of one build, exposing both per-name access
// and a merged view for unqualified lookup.
package inventory

// Entry locates one documented symbol.
type Entry struct {
	URI            string
	ProjectName    string
	ProjectVersion string
	DisplayName    string
}

// Inventory maps "domain:objtype" to symbol name to entry.
type Inventory map[string]map[string]Entry

// Add inserts an entry, creating the object-type bucket on demand. Existing
// entries win: the first loaded definition of a name is kept.
func (inv Inventory) Add(objType, name string, entry Entry) bool {
	bucket, ok := inv[objType]
	if !ok {
		bucket = map[string]Entry{}
		inv[objType] = bucket
	}
	if _, exists := bucket[name]; exists {
		return false
	}
	bucket[name] = entry
	return true
}

// Set is the full collection of inventories for a build.
type Set struct {
	names []string
	named map[string]Inventory
	main  Inventory
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{named: map[string]Inventory{}, main: Inventory{}}
}

// Add registers a named inventory and folds its entries into the merged
// view. Entries already present in the merged view are kept, so add order
// decides precedence.
func (s *Set) Add(name string, inv Inventory) {
	if _, exists := s.named[name]; !exists {
		s.names = append(s.names, name)
	}
	s.named[name] = inv
	for objType, bucket := range inv {
		for symbol, entry := range bucket {
			s.main.Add(objType, symbol, entry)
		}
	}
}

// Named returns the inventory registered under name.
func (s *Set) Named(name string) (Inventory, bool) {
	inv, ok := s.named[name]
	return inv, ok
}

// Has reports whether a named inventory exists.
func (s *Set) Has(name string) bool {
	_, ok := s.named[name]
	return ok
}

// Main returns the merged view across all inventories.
func (s *Set) Main() Inventory {
	return s.main
}

// Names lists registered inventories in registration order.
func (s *Set) Names() []string {
	return append([]string(nil), s.names...)
}
