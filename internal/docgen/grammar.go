package docgen

import "regexp"

// nameRe is the extended directive-name grammar: an optional explicit
// module separated by "::", optional dotted qualifiers, the target name,
// optional type parameters, and an optional signature with return
// annotation.
var nameRe = regexp.MustCompile(
	`^([\w.]+::)?` + // explicit module name
		`([\w.]+\.)?` + // module and/or class name(s)
		`(\w+)\s*` + // target name
		`(?:\[\s*(.*?)\s*\])?` + // optional type parameter list
		`(?:\((.*)\)` + // optional arguments
		`(?:\s*->\s*(.*))?` + // optional return annotation
		`)?$`)

// specialMemberRe matches dunder names.
var specialMemberRe = regexp.MustCompile(`^__\S+__$`)

// argsReturnRe splits a formatted "(...) -> ret" signature.
var argsReturnRe = regexp.MustCompile(`^(\(.*\))\s+->\s+(.*)$`)

// parsedName is one successful grammar match. HasArgs distinguishes an
// explicit empty signature "()" from no signature at all.
type parsedName struct {
	ExplicitModule string // without the trailing "::"
	Path           string // dotted qualifiers with trailing "."
	Base           string
	TypeParams     string
	Args           string
	HasArgs        bool
	Return         string
}

// parseDirectiveName matches name against the directive grammar.
func parseDirectiveName(name string) (*parsedName, bool) {
	idx := nameRe.FindStringSubmatchIndex(name)
	if idx == nil {
		return nil, false
	}
	group := func(i int) string {
		if idx[2*i] < 0 {
			return ""
		}
		return name[idx[2*i]:idx[2*i+1]]
	}
	p := &parsedName{
		Path:       group(2),
		Base:       group(3),
		TypeParams: group(4),
		Args:       group(5),
		HasArgs:    idx[10] >= 0,
		Return:     group(6),
	}
	if mod := group(1); mod != "" {
		p.ExplicitModule = mod[:len(mod)-2]
	}
	return p, true
}
