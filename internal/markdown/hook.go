package markdown

import (
	"strings"

	"github.com/turky/sphinx/internal/hooks"
	"github.com/turky/sphinx/internal/xref"
)

// ResolverHook returns a docstring-processing handler that rewrites
// markdown cross-reference links to the locations the resolver knows. The
// docstring lines arrive as the handler's last argument, a *[]string
// mutated in place; unresolved targets are left alone.
func ResolverHook(res *xref.Resolver) hooks.Handler {
	return func(args ...any) any {
		if len(args) == 0 {
			return nil
		}
		lines, ok := args[len(args)-1].(*[]string)
		if !ok || lines == nil || len(*lines) == 0 {
			return nil
		}
		name, _ := args[1].(string)

		src := strings.Join(*lines, "\n")
		linkMap := map[string]string{}
		for _, target := range LinkTargets(src) {
			ref := &xref.PendingRef{Target: target, RefType: "any", Doc: name}
			resolved, err := res.ResolveDetect(ref)
			if err != nil || resolved == nil {
				continue
			}
			linkMap[target] = resolved.URI
		}
		if len(linkMap) == 0 {
			return nil
		}
		*lines = strings.Split(RewriteLinks(src, linkMap), "\n")
		return nil
	}
}
