package xref

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Dispatcher handles the explicit external-reference role family:
//
//   - "external+inv:name"        explicit inventory and role, any domain
//   - "external+inv:domain:name" explicit inventory, domain and role
//   - "external:name"            any inventory and domain, explicit role
//   - "external:domain:name"     any inventory, explicit domain and role
type Dispatcher struct {
	Domains *Registry
	// DefaultDomain is consulted before "std" when the role names no
	// domain.
	DefaultDomain string
	// ResolveSelf is the project's own inventory name; roles naming it
	// produce ordinary local references.
	ResolveSelf string
	// HasInventory reports whether a named inventory is loaded. A nil
	// func skips the existence check.
	HasInventory func(name string) bool
	Logger       *slog.Logger
}

// Matches reports whether roleName belongs to the dispatcher.
func Matches(roleName string) bool {
	return len(roleName) > 9 &&
		(strings.HasPrefix(roleName, "external:") || strings.HasPrefix(roleName, "external+"))
}

// Invoke runs the role and returns its pending references, tagged for
// external resolution unless the role is self-referential. Problems are
// logged as warnings and yield no references.
func (d *Dispatcher) Invoke(roleName string, req RoleRequest) []*PendingRef {
	invName, suffix, err := splitInventory(roleName)
	if err != nil {
		d.warn(req, "malformed external cross-reference role", "role", roleName)
		return nil
	}

	selfReferential := d.ResolveSelf != "" && d.ResolveSelf == invName
	if !selfReferential && invName != "" && d.HasInventory != nil && !d.HasInventory(invName) {
		d.warn(req, "inventory for external cross-reference not found", "inventory", invName)
		return nil
	}

	domainName, role := splitDomainRole(suffix)
	if role == "" {
		d.warn(req, "invalid external cross-reference suffix", "suffix", suffix)
		return nil
	}

	var roleFunc RoleFunc
	if domainName != "" {
		domain, err := d.Domains.Get(domainName)
		if err != nil {
			d.warn(req, "domain for external cross-reference not found", "domain", domainName)
			return nil
		}
		roleFunc = domain.Roles[role]
		if roleFunc == nil {
			// the role may actually be an object-type name; suggest its roles
			if objType, ok := domain.ObjectTypes[role]; ok && len(objType.Roles) > 0 {
				d.warn(req, "role for external cross-reference not found in domain",
					"domain", domainName, "role", role,
					"suggestions", concatStrings(objType.Roles))
			} else {
				d.warn(req, "role for external cross-reference not found in domain",
					"domain", domainName, "role", role)
			}
			return nil
		}
	} else {
		// no domain given: try the default domain, then std
		var candidates []*Domain
		if d.DefaultDomain != "" && d.DefaultDomain != "std" {
			if domain, err := d.Domains.Get(d.DefaultDomain); err == nil {
				candidates = append(candidates, domain)
			}
		}
		if std, err := d.Domains.Get("std"); err == nil {
			candidates = append(candidates, std)
		}

		for _, domain := range candidates {
			if fn, ok := domain.Roles[role]; ok {
				roleFunc = fn
				domainName = domain.Name
				break
			}
		}
		if roleFunc == nil {
			names := make([]string, len(candidates))
			var possible []string
			for i, domain := range candidates {
				names[i] = domain.Name
				if objType, ok := domain.ObjectTypes[role]; ok {
					for _, r := range objType.Roles {
						possible = append(possible, domain.Name+":"+r)
					}
				}
			}
			if len(possible) > 0 {
				d.warn(req, "role for external cross-reference not found in domains",
					"domains", concatStrings(names), "role", role,
					"suggestions", concatStrings(possible))
			} else {
				d.warn(req, "role for external cross-reference not found in domains",
					"domains", concatStrings(names), "role", role)
			}
			return nil
		}
	}

	req.FullRole = domainName + ":" + role
	refs := roleFunc(req)
	if !selfReferential {
		for _, ref := range refs {
			ref.External = true
			ref.Inventory = invName
		}
	}
	return refs
}

// splitInventory extracts the optional inventory name and the remaining
// "domain:role" or "role" suffix from a role name accepted by Matches.
func splitInventory(roleName string) (invName, suffix string, err error) {
	suffix = roleName[9:]
	switch roleName[8] {
	case '+':
		invName, suffix, _ = strings.Cut(suffix, ":")
		return invName, suffix, nil
	case ':':
		return "", suffix, nil
	default:
		return "", "", fmt.Errorf("malformed external role name: %s", roleName)
	}
}

// splitDomainRole splits "domain:role" or "role"; more than one colon is
// invalid and returns an empty role.
func splitDomainRole(suffix string) (domainName, role string) {
	parts := strings.Split(suffix, ":")
	switch len(parts) {
	case 1:
		return "", parts[0]
	case 2:
		return parts[0], parts[1]
	default:
		return "", ""
	}
}

func (d *Dispatcher) warn(req RoleRequest, msg string, args ...any) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	args = append(args, "doc", req.Doc, "line", req.Line)
	logger.Warn(msg, args...)
}

func concatStrings(values []string) string {
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	quoted := make([]string, len(sorted))
	for i, v := range sorted {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}
