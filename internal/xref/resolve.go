package xref

import (
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/turky/sphinx/internal/inventory"
	"github.com/turky/sphinx/internal/markup"
)

// relaxedTypes are object types that fall back to a case-insensitive match
// when the exact lookup fails. Glossary terms and section labels are
// routinely written with inconsistent casing; code objects are not.
var relaxedTypes = map[string]bool{
	"std:label": true,
	"std:term":  true,
}

// Resolver looks up pending references in loaded inventories.
type Resolver struct {
	Domains     *Registry
	Inventories *inventory.Set
	// DisabledTypes suppresses resolution of "domain:objtype" pairs.
	// "*" disables everything and "domain:*" a whole domain. Disabling
	// only applies to lookups that do not name an inventory.
	DisabledTypes []string
	// ResolveSelf is the inventory name the project knows itself by.
	// Prefixed targets naming it are unwrapped and handed back for local
	// resolution instead of an external lookup.
	ResolveSelf string
	Logger      *slog.Logger
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Resolver) isDisabled(refType string) bool {
	for _, t := range r.DisabledTypes {
		if t == refType {
			return true
		}
	}
	return false
}

// HasInventory reports whether a named inventory has been loaded.
func (r *Resolver) HasInventory(name string) bool {
	return r.Inventories.Has(name)
}

// ResolveInInventory resolves ref in one named inventory. Disabled
// reference types are ignored since the reference was explicit about
// where it wants to resolve.
func (r *Resolver) ResolveInInventory(invName string, ref *PendingRef) (*markup.Reference, error) {
	inv, ok := r.Inventories.Named(invName)
	if !ok {
		return nil, fmt.Errorf("inventory %q is not loaded", invName)
	}
	return r.resolve(invName, inv, false, ref)
}

// ResolveAnyInventory resolves ref against the merged inventory, where the
// earliest-added inventory wins for duplicate names.
func (r *Resolver) ResolveAnyInventory(honorDisabled bool, ref *PendingRef) (*markup.Reference, error) {
	return r.resolve("", r.Inventories.Main(), honorDisabled, ref)
}

// ResolveDetect first tries the merged inventory, then interprets a target
// of the form "inv:name" as naming a specific inventory. A prefix equal to
// ResolveSelf rewrites the target in place, marks the reference
// self-referential, and returns nil so the caller resolves it locally.
func (r *Resolver) ResolveDetect(ref *PendingRef) (*markup.Reference, error) {
	res, err := r.ResolveAnyInventory(true, ref)
	if err != nil || res != nil {
		return res, err
	}

	target := ref.Target
	invName, newTarget, ok := strings.Cut(target, ":")
	if !ok {
		return nil, nil
	}

	if r.ResolveSelf != "" && r.ResolveSelf == invName {
		ref.Target = newTarget
		ref.SelfReferential = true
		return nil, nil
	}

	if !r.Inventories.Has(invName) {
		return nil, nil
	}
	ref.Target = newTarget
	res, err = r.ResolveInInventory(invName, ref)
	ref.Target = target
	return res, err
}

// ResolveExternal resolves a reference produced by the external-role
// dispatcher, honoring its inventory tag.
func (r *Resolver) ResolveExternal(ref *PendingRef) (*markup.Reference, error) {
	if ref.Inventory != "" {
		return r.ResolveInInventory(ref.Inventory, ref)
	}
	return r.ResolveAnyInventory(false, ref)
}

func (r *Resolver) resolve(invName string, inv inventory.Inventory, honorDisabled bool, ref *PendingRef) (*markup.Reference, error) {
	// disabling should only be done if no inventory is given
	honorDisabled = honorDisabled && invName == ""
	if honorDisabled && r.isDisabled("*") {
		return nil, nil
	}

	if ref.RefType == "any" {
		for _, domain := range r.Domains.Sorted() {
			if honorDisabled && r.isDisabled(domain.Name+":*") {
				continue
			}
			if res := r.resolveInDomain(invName, inv, honorDisabled, domain, domain.TypeNames(), ref); res != nil {
				return res, nil
			}
		}
		return nil, nil
	}

	if ref.Domain == "" {
		// only objects in domains end up in inventories
		return nil, nil
	}
	if honorDisabled && r.isDisabled(ref.Domain+":*") {
		return nil, nil
	}
	domain, err := r.Domains.Get(ref.Domain)
	if err != nil {
		return nil, err
	}
	objtypes := domain.TypesForRole(ref.RefType)
	if len(objtypes) == 0 {
		return nil, nil
	}
	return r.resolveInDomain(invName, inv, honorDisabled, domain, objtypes, ref), nil
}

func (r *Resolver) resolveInDomain(invName string, inv inventory.Inventory, honorDisabled bool, domain *Domain, objtypes []string, ref *PendingRef) *markup.Reference {
	// adjust object types for entries recorded by older generators
	if domain.Name == "std" && contains(objtypes, "cmdoption") {
		objtypes = append(objtypes, "option")
	}
	if domain.Name == "py" && contains(objtypes, "attribute") {
		objtypes = append(objtypes, "method")
	}

	// inventory keys are "domain:objtype"
	prefixed := make([]string, 0, len(objtypes))
	seen := map[string]bool{}
	for _, t := range objtypes {
		full := domain.Name + ":" + t
		if seen[full] {
			continue
		}
		seen[full] = true
		if honorDisabled && r.isDisabled(full) {
			continue
		}
		prefixed = append(prefixed, full)
	}

	// the target as written, then qualified with the enclosing scope
	if res := r.resolveByTarget(invName, inv, domain.Name, prefixed, ref.Target, ref); res != nil {
		return res
	}
	if domain.FullQualify == nil {
		return nil
	}
	qualified := domain.FullQualify(ref)
	if qualified == "" {
		return nil
	}
	return r.resolveByTarget(invName, inv, domain.Name, prefixed, qualified, ref)
}

func (r *Resolver) resolveByTarget(invName string, inv inventory.Inventory, domainName string, objtypes []string, target string, ref *PendingRef) *markup.Reference {
	for _, objtype := range objtypes {
		bucket, ok := inv[objtype]
		if !ok {
			continue
		}

		var entry inventory.Entry
		if e, ok := bucket[target]; ok {
			entry = e
		} else if relaxedTypes[objtype] {
			matches := insensitiveMatches(bucket, target)
			if len(matches) > 1 {
				distinct := map[inventory.Entry]bool{}
				for _, m := range matches {
					distinct[bucket[m]] = true
				}
				descriptor := invName
				if descriptor == "" {
					descriptor = "main_inventory"
				}
				if len(distinct) == 1 {
					r.logger().Debug("duplicate inventory matches",
						"inventory", descriptor, "objtype", objtype, "target", target,
						"doc", ref.Doc, "line", ref.Line)
				} else {
					r.logger().Warn("multiple inventory matches",
						"inventory", descriptor, "objtype", objtype, "target", target,
						"doc", ref.Doc, "line", ref.Line)
				}
			}
			if len(matches) == 0 {
				continue
			}
			entry = bucket[matches[0]]
		} else {
			continue
		}

		return createReference(domainName, invName, entry, ref)
	}
	return nil
}

// insensitiveMatches returns the keys of bucket that equal target after
// case folding, sorted so the pick among duplicates is stable.
func insensitiveMatches(bucket map[string]inventory.Entry, target string) []string {
	lower := strings.ToLower(target)
	var matches []string
	for name := range bucket {
		if strings.ToLower(name) == lower {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches
}

func createReference(domainName, invName string, entry inventory.Entry, ref *PendingRef) *markup.Reference {
	uri := entry.URI
	if !strings.Contains(uri, "://") && ref.Doc != "" {
		// rewrite relative to the referring document's directory
		uri = relativePrefix(ref.Doc) + uri
	}

	var title string
	if entry.ProjectVersion != "" {
		version := entry.ProjectVersion
		if version[0] >= '0' && version[0] <= '9' {
			version = "v" + version
		}
		title = fmt.Sprintf("(in %s %s)", entry.ProjectName, version)
	} else {
		title = fmt.Sprintf("(in %s)", entry.ProjectName)
	}

	content := ref.Content
	if content == "" {
		content = ref.Target
	}

	var text string
	switch {
	case ref.Explicit:
		text = content
	case entry.DisplayName == "-" || (domainName == "std" && ref.RefType == "keyword"):
		// keep the written text, minus any inventory prefix
		text = content
		if invName != "" && strings.HasPrefix(text, invName+":") {
			text = text[len(invName)+1:]
		}
	default:
		text = entry.DisplayName
	}

	return &markup.Reference{Text: text, URI: uri, Title: title, Internal: false}
}

// relativePrefix returns the "../" chain that climbs from doc's directory
// back to the documentation root.
func relativePrefix(doc string) string {
	dir := path.Dir(doc)
	if dir == "." || dir == "/" || dir == "" {
		return ""
	}
	return strings.Repeat("../", strings.Count(dir, "/")+1)
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
