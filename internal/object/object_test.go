package object

import (
	"errors"
	"testing"

	"github.com/turky/sphinx/internal/introspect"
)

func TestGetWalksAncestry(t *testing.T) {
	t.Parallel()

	base := &Object{Name: "Base", Kind: KindClass, Attrs: map[string]*Object{
		"inherited": {Name: "inherited", Kind: KindMethod},
	}}
	derived := &Object{Name: "Derived", Kind: KindClass, Bases: []*Object{base}, Attrs: map[string]*Object{
		"own": {Name: "own", Kind: KindMethod},
	}}
	derived.Ancestry()

	if _, ok := derived.Get("own"); !ok {
		t.Error("own attribute not found")
	}
	if m, ok := derived.Get("inherited"); !ok || m.Name != "inherited" {
		t.Error("inherited attribute not resolved through the ancestry")
	}
	if _, ok := derived.OwnAttr("inherited"); ok {
		t.Error("OwnAttr must not consult the ancestry")
	}
	if _, ok := derived.Get("missing"); ok {
		t.Error("missing attribute resolved")
	}
}

func TestGetOnMockedSynthesizesChildren(t *testing.T) {
	t.Parallel()

	mocked := NewMocked("missingpkg", "")
	child, ok := mocked.Get("anything")
	if !ok {
		t.Fatal("mocked object must resolve any attribute")
	}
	if !child.Is(FlagMocked) || child.Name != "anything" {
		t.Errorf("child = %+v", child)
	}
}

func TestAncestryLinearization(t *testing.T) {
	t.Parallel()

	root := &Object{Name: "object", Kind: KindClass}
	a := &Object{Name: "A", Kind: KindClass, Bases: []*Object{root}}
	b := &Object{Name: "B", Kind: KindClass, Bases: []*Object{root}}
	c := &Object{Name: "C", Kind: KindClass, Bases: []*Object{a, b}}

	mro := c.Ancestry()
	if len(mro) != 4 || mro[0] != c || mro[1] != a {
		t.Errorf("mro = %v", names(mro))
	}
	// the shared root appears once
	seen := map[*Object]int{}
	for _, cls := range mro {
		seen[cls]++
	}
	if seen[root] != 1 {
		t.Errorf("root appears %d times", seen[root])
	}
}

func names(objs []*Object) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.Name
	}
	return out
}

func TestDocInheritance(t *testing.T) {
	t.Parallel()

	base := &Object{Name: "Base", Kind: KindClass, Attrs: map[string]*Object{
		"run": {Name: "run", Kind: KindMethod, Doc: "Base doc."},
	}}
	derived := &Object{Name: "Derived", Kind: KindClass, Bases: []*Object{base}, Attrs: map[string]*Object{
		"run": {Name: "run", Kind: KindMethod},
	}}
	member, _ := derived.OwnAttr("run")

	if got := Doc(member, derived, "run", true); got != "Base doc." {
		t.Errorf("inherited doc = %q", got)
	}
	if got := Doc(member, derived, "run", false); got != "" {
		t.Errorf("doc without inheritance = %q", got)
	}

	own := &Object{Doc: "Own doc."}
	if got := Doc(own, derived, "run", true); got != "Own doc." {
		t.Errorf("own doc = %q", got)
	}
}

func testGraph() *Graph {
	g := NewGraph()
	fn := &Object{Name: "run", Module: "mypkg", QualName: "run", Kind: KindFunction, Doc: "Run."}
	cls := &Object{Name: "Widget", Module: "mypkg", QualName: "Widget", Kind: KindClass,
		Annotations: map[string]string{"declared": "int"},
		Slots:       map[string]string{"slot": "slot doc"},
		RuntimeAttrs: []string{"runtime"},
		Attrs: map[string]*Object{
			"value": {Name: "value", Module: "mypkg", QualName: "Widget.value", Kind: KindValue},
		},
	}
	module := &Object{
		Name: "mypkg", Module: "mypkg", Kind: KindModule,
		Annotations: map[string]string{"declared_global": "str"},
		Attrs:       map[string]*Object{"run": fn, "Widget": cls},
	}
	g.AddModule(module, nil)
	return g
}

func TestImport(t *testing.T) {
	t.Parallel()

	g := testGraph()
	im, err := Import(g, "mypkg", []string{"Widget", "value"}, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if im.Object.QualName != "Widget.value" || im.Parent.Name != "Widget" || im.ObjectName != "value" {
		t.Errorf("im = %+v", im)
	}

	_, err = Import(g, "nope", nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v", err)
	}

	_, err = Import(g, "mypkg", []string{"missing"}, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestImportMocked(t *testing.T) {
	t.Parallel()

	g := testGraph()
	im, err := Import(g, "optionaldep.sub", []string{"Thing"}, []string{"optionaldep"})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !im.Object.Is(FlagMocked) {
		t.Errorf("object = %+v", im.Object)
	}
	if !im.Module.IsModule() {
		t.Error("mocked module should report as a module")
	}
}

func TestImportDataAnnotationOnly(t *testing.T) {
	t.Parallel()

	g := testGraph()
	im, err := ImportData(g, "mypkg", []string{"declared_global"}, nil)
	if err != nil {
		t.Fatalf("ImportData: %v", err)
	}
	if im.Object != UninitializedAttr {
		t.Errorf("object = %+v", im.Object)
	}

	_, err = ImportData(g, "mypkg", []string{"never_declared"}, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestImportAttributeSentinels(t *testing.T) {
	t.Parallel()

	g := testGraph()
	tests := []struct {
		attr string
		want *Object
	}{
		{"slot", SlotsAttr},
		{"declared", UninitializedAttr},
		{"runtime", RuntimeInstanceAttr},
	}
	for _, tt := range tests {
		im, err := ImportAttribute(g, "mypkg", []string{"Widget", tt.attr}, nil)
		if err != nil {
			t.Fatalf("ImportAttribute(%s): %v", tt.attr, err)
		}
		if im.Object != tt.want {
			t.Errorf("%s resolved to %v", tt.attr, im.Object)
		}
		if im.Parent.Name != "Widget" {
			t.Errorf("%s parent = %v", tt.attr, im.Parent)
		}
	}

	// a concrete class attribute resolves normally
	im, err := ImportAttribute(g, "mypkg", []string{"Widget", "value"}, nil)
	if err != nil || IsSentinel(im.Object) {
		t.Errorf("value: %v, %+v", err, im)
	}
}

func TestImportClassAlias(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	cls := &Object{Name: "Widget", Module: "mypkg", QualName: "Widget", Kind: KindClass}
	module := &Object{Name: "mypkg", Module: "mypkg", Kind: KindModule, Attrs: map[string]*Object{
		"Widget": cls,
		"Alias":  cls,
	}}
	g.AddModule(module, nil)

	direct, err := ImportClass(g, "mypkg", []string{"Widget"}, nil)
	if err != nil || direct.DocAsAttr {
		t.Errorf("direct: %v, %+v", err, direct)
	}
	aliased, err := ImportClass(g, "mypkg", []string{"Alias"}, nil)
	if err != nil || !aliased.DocAsAttr {
		t.Errorf("aliased: %v, %+v", err, aliased)
	}
}

func TestImportProperty(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	prop := &Object{Name: "size", Module: "mypkg", QualName: "Widget.size", Kind: KindProperty}
	notProp := &Object{Name: "run", Module: "mypkg", QualName: "Widget.run", Kind: KindMethod}
	cls := &Object{Name: "Widget", Module: "mypkg", QualName: "Widget", Kind: KindClass,
		Attrs: map[string]*Object{"size": prop, "run": notProp}}
	module := &Object{Name: "mypkg", Module: "mypkg", Kind: KindModule,
		Attrs: map[string]*Object{"Widget": cls}}
	g.AddModule(module, nil)

	im, err := ImportProperty(g, "mypkg", []string{"Widget", "size"}, nil)
	if err != nil || im == nil || !im.Object.IsProperty() {
		t.Fatalf("property: %v, %+v", err, im)
	}

	// a non-property resolves to nil so another documenter can claim it
	im, err = ImportProperty(g, "mypkg", []string{"Widget", "run"}, nil)
	if err != nil || im != nil {
		t.Errorf("method: %v, %+v", err, im)
	}
}

func TestExports(t *testing.T) {
	t.Parallel()

	m := &Object{Module: "mypkg", Exports: []string{"a", "b"}}
	exports, err := Exports(m)
	if err != nil || len(exports) != 2 {
		t.Errorf("exports = %v, %v", exports, err)
	}

	if exports, err := Exports(&Object{Module: "mypkg"}); err != nil || exports != nil {
		t.Errorf("absent list: %v, %v", exports, err)
	}

	if _, err := Exports(&Object{Module: "mypkg", ExportsInvalid: true}); err == nil {
		t.Error("malformed export list must error")
	}
}

func TestSignatureOf(t *testing.T) {
	t.Parallel()

	sig := &introspect.Signature{Params: []introspect.Param{{Name: "self"}, {Name: "x"}}}
	method := &Object{Name: "run", Kind: KindMethod, Signature: sig}

	bound, err := SignatureOf(method, true)
	if err != nil || len(bound.Params) != 1 || bound.Params[0].Name != "x" {
		t.Errorf("bound = %+v, %v", bound, err)
	}
	unbound, err := SignatureOf(method, false)
	if err != nil || len(unbound.Params) != 2 {
		t.Errorf("unbound = %+v, %v", unbound, err)
	}
	// the graph's signature is never aliased
	bound.Params[0].Name = "changed"
	if sig.Params[1].Name != "x" {
		t.Error("graph signature mutated")
	}

	if _, err := SignatureOf(&Object{Kind: KindValue}, false); !errors.Is(err, introspect.ErrNoSignature) {
		t.Errorf("err = %v", err)
	}
	broken := &Object{Kind: KindFunction, Flags: FlagInvalidSignature, Signature: sig}
	if _, err := SignatureOf(broken, false); !errors.Is(err, introspect.ErrInvalidSignature) {
		t.Errorf("err = %v", err)
	}
	if _, err := SignatureOf(UninitializedAttr, false); !errors.Is(err, introspect.ErrNoSignature) {
		t.Errorf("sentinel err = %v", err)
	}
}

func TestClassMembersKeepsMostDerived(t *testing.T) {
	t.Parallel()

	baseRun := &Object{Name: "run", Kind: KindMethod, Doc: "base"}
	base := &Object{Name: "Base", Kind: KindClass,
		Attrs:       map[string]*Object{"run": baseRun, "only_base": {Name: "only_base", Kind: KindMethod}},
		Annotations: map[string]string{"declared": "int"},
	}
	derivedRun := &Object{Name: "run", Kind: KindMethod, Doc: "derived"}
	derived := &Object{Name: "Derived", Kind: KindClass, Bases: []*Object{base},
		Attrs: map[string]*Object{"run": derivedRun},
		Slots: map[string]string{"slot": ""},
	}
	derived.Ancestry()

	members := ClassMembers(derived)
	if members["run"].Object != derivedRun || members["run"].Class != derived {
		t.Errorf("run = %+v", members["run"])
	}
	if members["only_base"].Class != base {
		t.Errorf("only_base = %+v", members["only_base"])
	}
	if members["declared"].Object != InstanceAttr {
		t.Errorf("declared = %+v", members["declared"])
	}
	if members["slot"].Object != SlotsAttr {
		t.Errorf("slot = %+v", members["slot"])
	}
}
