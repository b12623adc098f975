package docgen

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/turky/sphinx/internal/analyzer"
	"github.com/turky/sphinx/internal/hooks"
	"github.com/turky/sphinx/internal/introspect"
	"github.com/turky/sphinx/internal/object"
)

// logRecorder captures log records so tests can assert on warnings.
type logRecorder struct {
	mu      sync.Mutex
	records []slog.Record
}

func (r *logRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *logRecorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *logRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *logRecorder) WithGroup(string) slog.Handler      { return r }

func (r *logRecorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Message
	}
	return out
}

func (r *logRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}

func testEnv(graph *object.Graph) *Env {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEnv(nil, graph, analyzer.NewCache(graph), hooks.NewManager(), logger)
}

// newModule fills in the bookkeeping fields attribute objects need so test
// fixtures can stay terse.
func newModule(name, doc string, attrs map[string]*object.Object) *object.Object {
	for attrName, attr := range attrs {
		if attr.Name == "" {
			attr.Name = attrName
		}
		if attr.Module == "" {
			attr.Module = name
		}
		if attr.QualName == "" {
			attr.QualName = attrName
		}
	}
	return &object.Object{
		Name:   name,
		Module: name,
		Kind:   object.KindModule,
		Doc:    doc,
		Attrs:  attrs,
	}
}

func function(doc string) *object.Object {
	return &object.Object{Kind: object.KindFunction, Doc: doc}
}

// functionHeaders extracts the names of the emitted function directives, in
// output order.
func functionHeaders(lines []string) []string {
	var out []string
	for _, l := range lines {
		if rest, ok := strings.CutPrefix(l, ".. py:function:: "); ok {
			out = append(out, rest)
		}
	}
	return out
}

func TestSelectDocumenterKind(t *testing.T) {
	t.Parallel()

	graph := object.NewGraph()
	env := testEnv(graph)
	moduleParent := New(env, nil, env.Registry.Get("module"), "mypkg", "")
	classParent := New(env, nil, env.Registry.Get("class"), "mypkg.Widget", "")

	tests := []struct {
		name   string
		member *object.Object
		isAttr bool
		parent *Documenter
		want   string
	}{
		{
			name:   "exception beats class",
			member: &object.Object{Kind: object.KindClass, Flags: object.FlagException},
			parent: moduleParent,
			want:   "exception",
		},
		{
			name:   "plain class",
			member: &object.Object{Kind: object.KindClass},
			parent: moduleParent,
			want:   "class",
		},
		{
			name:   "property beats attribute",
			member: &object.Object{Kind: object.KindProperty},
			parent: classParent,
			want:   "property",
		},
		{
			name:   "routine in class",
			member: &object.Object{Kind: object.KindMethod},
			parent: classParent,
			want:   "method",
		},
		{
			name:   "function in module",
			member: &object.Object{Kind: object.KindFunction},
			parent: moduleParent,
			want:   "function",
		},
		{
			name:   "commented module value",
			member: &object.Object{Kind: object.KindValue},
			isAttr: true,
			parent: moduleParent,
			want:   "data",
		},
		{
			name:   "instance attribute placeholder",
			member: object.InstanceAttr,
			parent: classParent,
			want:   "attribute",
		},
		{
			name:   "unclaimed module value",
			member: &object.Object{Kind: object.KindValue},
			parent: moduleParent,
			want:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind := env.Registry.Select(tt.member, "x", tt.isAttr, tt.parent)
			got := ""
			if kind != nil {
				got = kind.Name
			}
			if got != tt.want {
				t.Errorf("Select = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateFunctionExplicitSignature(t *testing.T) {
	t.Parallel()

	graph := object.NewGraph()
	bar := function("Bar does things.")
	bar.Signature = &introspect.Signature{
		Params: []introspect.Param{{Name: "a"}},
		Return: "int",
	}
	graph.AddModule(newModule("mypkg", "", map[string]*object.Object{"bar": bar}), nil)
	env := testEnv(graph)

	retry, err := Document(env, nil, "function", "mypkg.bar(x, y=1) -> str")
	if err != nil {
		t.Fatal(err)
	}
	if retry {
		t.Error("unexpected retry")
	}

	want := []string{
		"",
		".. py:function:: bar(x, y=1) -> str",
		"   :module: mypkg",
		"",
		"   Bar does things.",
		"",
	}
	if got := env.Result.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestGenerateFunctionDocstringSignature(t *testing.T) {
	t.Parallel()

	graph := object.NewGraph()
	foo := function("foo(a, b) -> int\n\nAdds two numbers.")
	graph.AddModule(newModule("mypkg", "", map[string]*object.Object{"foo": foo}), nil)
	env := testEnv(graph)

	if _, err := Document(env, nil, "function", "mypkg.foo"); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"",
		".. py:function:: foo(a, b) -> int",
		"   :module: mypkg",
		"",
		"",
		"   Adds two numbers.",
		"",
	}
	if got := env.Result.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestGenerateClassDocstringSignatureDropsReturn(t *testing.T) {
	t.Parallel()

	graph := object.NewGraph()
	widget := &object.Object{Kind: object.KindClass, Doc: "Widget(size) -> None\n\nA widget."}
	graph.AddModule(newModule("mypkg", "", map[string]*object.Object{"Widget": widget}), nil)
	env := testEnv(graph)

	if _, err := Document(env, nil, "class", "mypkg.Widget"); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"",
		".. py:class:: Widget(size)",
		"   :module: mypkg",
		"",
		"",
		"   A widget.",
		"",
	}
	if got := env.Result.Texts(); !reflect.DeepEqual(got, want) {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestModuleMembersSourceOrder(t *testing.T) {
	t.Parallel()

	graph := object.NewGraph()
	module := newModule("mypkg", "Module docstring.", map[string]*object.Object{
		"a": function("a does things."),
		"b": function("b does things."),
		"c": function("c does things."),
	})
	graph.AddModule(module, &analyzer.Analysis{
		SourceFile: "mypkg.py",
		TagOrder:   map[string]int{"c": 0, "a": 1, "b": 2},
	})
	env := testEnv(graph)

	opts := &Options{Members: AllMembers(), MemberOrder: OrderBySource}
	if _, err := Document(env, opts, "module", "mypkg"); err != nil {
		t.Fatal(err)
	}

	want := []string{"c", "a", "b"}
	if got := functionHeaders(env.Result.Texts()); !reflect.DeepEqual(got, want) {
		t.Errorf("member order = %v, want %v", got, want)
	}
}

func TestModuleExportList(t *testing.T) {
	t.Parallel()

	graph := object.NewGraph()
	module := newModule("mypkg", "", map[string]*object.Object{
		"a": function("a does things."),
		"b": function("b does things."),
		"c": function("c does things."),
	})
	module.Exports = []string{"b", "a"}
	graph.AddModule(module, nil)
	env := testEnv(graph)

	// under source ordering the export list positions win; names outside
	// the list are dropped entirely
	opts := &Options{Members: AllMembers(), MemberOrder: OrderBySource}
	if _, err := Document(env, opts, "module", "mypkg"); err != nil {
		t.Fatal(err)
	}

	want := []string{"b", "a"}
	if got := functionHeaders(env.Result.Texts()); !reflect.DeepEqual(got, want) {
		t.Errorf("member order = %v, want %v", got, want)
	}
}

func TestPrivateMemberFiltering(t *testing.T) {
	t.Parallel()

	build := func() *Env {
		graph := object.NewGraph()
		graph.AddModule(newModule("mypkg", "", map[string]*object.Object{
			"visible": function("Visible."),
			"_hidden": function("Hidden."),
		}), nil)
		return testEnv(graph)
	}

	env := build()
	if _, err := Document(env, &Options{Members: AllMembers()}, "module", "mypkg"); err != nil {
		t.Fatal(err)
	}
	if got := functionHeaders(env.Result.Texts()); !reflect.DeepEqual(got, []string{"visible"}) {
		t.Errorf("default members = %v, want [visible]", got)
	}

	env = build()
	opts := &Options{Members: AllMembers(), PrivateMembers: MemberNames("_hidden")}
	if _, err := Document(env, opts, "module", "mypkg"); err != nil {
		t.Fatal(err)
	}
	want := []string{"_hidden", "visible"}
	if got := functionHeaders(env.Result.Texts()); !reflect.DeepEqual(got, want) {
		t.Errorf("with private allowlist = %v, want %v", got, want)
	}
}

func TestSkipMemberHook(t *testing.T) {
	t.Parallel()

	build := func() *Env {
		graph := object.NewGraph()
		graph.AddModule(newModule("mypkg", "", map[string]*object.Object{
			"a":       function("A."),
			"b":       function("B."),
			"_hidden": function("Hidden."),
		}), nil)
		return testEnv(graph)
	}

	// a handler can veto a member that would be documented
	env := build()
	env.Hooks.Connect(EventSkipMember, func(args ...any) any {
		if args[1].(string) == "b" {
			return true
		}
		return nil
	})
	if _, err := Document(env, &Options{Members: AllMembers()}, "module", "mypkg"); err != nil {
		t.Fatal(err)
	}
	if got := functionHeaders(env.Result.Texts()); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("with veto = %v, want [a]", got)
	}

	// and resurrect one that would be skipped: false is a decision, not a pass
	env = build()
	env.Hooks.Connect(EventSkipMember, func(args ...any) any {
		if args[1].(string) == "_hidden" {
			return false
		}
		return nil
	})
	if _, err := Document(env, &Options{Members: AllMembers()}, "module", "mypkg"); err != nil {
		t.Fatal(err)
	}
	want := []string{"_hidden", "a", "b"}
	if got := functionHeaders(env.Result.Texts()); !reflect.DeepEqual(got, want) {
		t.Errorf("with resurrection = %v, want %v", got, want)
	}
}

func TestUndocMembersOption(t *testing.T) {
	t.Parallel()

	build := func() *Env {
		graph := object.NewGraph()
		graph.AddModule(newModule("mypkg", "", map[string]*object.Object{
			"a": function("Documented."),
			"b": function(""),
		}), nil)
		return testEnv(graph)
	}

	env := build()
	if _, err := Document(env, &Options{Members: AllMembers()}, "module", "mypkg"); err != nil {
		t.Fatal(err)
	}
	if got := functionHeaders(env.Result.Texts()); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("without undoc = %v, want [a]", got)
	}

	env = build()
	opts := &Options{Members: AllMembers(), UndocMembers: true}
	if _, err := Document(env, opts, "module", "mypkg"); err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b"}
	if got := functionHeaders(env.Result.Texts()); !reflect.DeepEqual(got, want) {
		t.Errorf("with undoc = %v, want %v", got, want)
	}
}

func TestDecoratorSignatureSuppression(t *testing.T) {
	t.Parallel()

	decoratorHeaders := func(lines []string) []string {
		var out []string
		for _, l := range lines {
			if rest, ok := strings.CutPrefix(l, ".. py:decorator:: "); ok {
				out = append(out, rest)
			}
		}
		return out
	}

	// a decorator taking only the decorated callable shows a bare name,
	// even when the parameter annotation itself contains commas
	wraps := function("Wraps a callable.")
	wraps.Signature = &introspect.Signature{Params: []introspect.Param{
		{Name: "fn", Annotation: "Callable[[int, str], int]", Kind: introspect.PositionalOrKeyword},
	}}
	graph := object.NewGraph()
	graph.AddModule(newModule("mypkg", "", map[string]*object.Object{"wraps": wraps}), nil)
	env := testEnv(graph)
	if _, err := Document(env, nil, "decorator", "mypkg.wraps"); err != nil {
		t.Fatal(err)
	}
	if got := decoratorHeaders(env.Result.Texts()); !reflect.DeepEqual(got, []string{"wraps"}) {
		t.Errorf("single-param decorator headers = %v, want [wraps]", got)
	}

	// a decorator factory with further parameters keeps its signature
	flagged := function("Wraps a callable with a flag.")
	flagged.Signature = &introspect.Signature{Params: []introspect.Param{
		{Name: "fn", Annotation: "Callable[[int, str], int]", Kind: introspect.PositionalOrKeyword},
		{Name: "flag", Default: "False", Kind: introspect.PositionalOrKeyword},
	}}
	graph = object.NewGraph()
	graph.AddModule(newModule("mypkg", "", map[string]*object.Object{"flagged": flagged}), nil)
	env = testEnv(graph)
	if _, err := Document(env, nil, "decorator", "mypkg.flagged"); err != nil {
		t.Fatal(err)
	}
	want := []string{"flagged(fn: Callable[[int, str], int], flag=False)"}
	if got := decoratorHeaders(env.Result.Texts()); !reflect.DeepEqual(got, want) {
		t.Errorf("factory decorator headers = %v, want %v", got, want)
	}
}

func TestParseNameWarnings(t *testing.T) {
	t.Parallel()

	graph := object.NewGraph()
	graph.AddModule(newModule("mypkg", "", map[string]*object.Object{
		"run": function("Runs."),
	}), nil)
	env := testEnv(graph)
	rec := &logRecorder{}
	env.Logger = slog.New(rec)

	// a name that fails the directive grammar warns once, without the
	// missing-module hint
	if _, err := Document(env, nil, "function", "foo bar"); err != nil {
		t.Fatal(err)
	}
	want := []string{"invalid signature for directive"}
	if got := rec.messages(); !reflect.DeepEqual(got, want) {
		t.Errorf("grammar mismatch warnings = %v, want %v", got, want)
	}

	// a valid name with no resolvable module context warns with the hint
	rec.reset()
	if _, err := Document(env, nil, "method", "run"); err != nil {
		t.Fatal(err)
	}
	want = []string{"don't know which module to import for documenting"}
	if got := rec.messages(); !reflect.DeepEqual(got, want) {
		t.Errorf("missing module warnings = %v, want %v", got, want)
	}
}

func TestExplicitMemberSelection(t *testing.T) {
	t.Parallel()

	graph := object.NewGraph()
	graph.AddModule(newModule("mypkg", "", map[string]*object.Object{
		"a": function("A."),
		"b": function("B."),
		"c": function("C."),
	}), nil)
	env := testEnv(graph)

	opts := &Options{Members: MemberNames("c", "a")}
	if _, err := Document(env, opts, "module", "mypkg"); err != nil {
		t.Fatal(err)
	}

	// explicit selections are still sorted by the member order
	want := []string{"a", "c"}
	if got := functionHeaders(env.Result.Texts()); !reflect.DeepEqual(got, want) {
		t.Errorf("members = %v, want %v", got, want)
	}
}
