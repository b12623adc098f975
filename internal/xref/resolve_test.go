package xref

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/turky/sphinx/internal/inventory"
)

// logRecorder captures log records so tests can assert on levels.
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

func (r *logRecorder) levels() []slog.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]slog.Level, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Level
	}
	return out
}

func (r *logRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
}

func testSet() *inventory.Set {
	pkg := inventory.Inventory{}
	pkg.Add("py:class", "pkg.Foo", inventory.Entry{
		URI: "api/foo.html#pkg.Foo", ProjectName: "Pkg", ProjectVersion: "2.0", DisplayName: "-",
	})
	pkg.Add("py:method", "pkg.Foo.run", inventory.Entry{
		URI: "api/foo.html#pkg.Foo.run", ProjectName: "Pkg", ProjectVersion: "2.0", DisplayName: "-",
	})
	pkg.Add("std:term", "Builder", inventory.Entry{
		URI: "glossary.html#term-Builder", ProjectName: "Pkg", ProjectVersion: "2.0", DisplayName: "-",
	})
	pkg.Add("std:term", "builder", inventory.Entry{
		URI: "glossary.html#term-builder", ProjectName: "Pkg", ProjectVersion: "2.0", DisplayName: "-",
	})
	pkg.Add("std:label", "Getting Started", inventory.Entry{
		URI: "intro.html#getting-started", ProjectName: "Pkg", ProjectVersion: "2.0", DisplayName: "Getting Started",
	})

	other := inventory.Inventory{}
	other.Add("py:class", "other.Bar", inventory.Entry{
		URI: "https://other.example/bar.html", ProjectName: "Other", ProjectVersion: "snapshot", DisplayName: "-",
	})

	s := inventory.NewSet()
	s.Add("pkg", pkg)
	s.Add("other", other)
	return s
}

func testResolver() *Resolver {
	return &Resolver{Domains: StandardRegistry(), Inventories: testSet()}
}

func TestResolveClassReference(t *testing.T) {
	t.Parallel()

	r := testResolver()
	ref := &PendingRef{Target: "pkg.Foo", RefType: "class", Domain: "py", Doc: "api/widgets"}
	res, err := r.ResolveDetect(ref)
	if err != nil || res == nil {
		t.Fatalf("resolve: %v, %v", res, err)
	}
	// relative URIs are rewritten to climb out of the referring document
	if res.URI != "../api/foo.html#pkg.Foo" {
		t.Errorf("URI = %q", res.URI)
	}
	if res.Title != "(in Pkg v2.0)" {
		t.Errorf("Title = %q", res.Title)
	}
	if res.Text != "pkg.Foo" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Internal {
		t.Error("inventory references are external")
	}
}

func TestResolveAbsoluteURIUntouched(t *testing.T) {
	t.Parallel()

	r := testResolver()
	ref := &PendingRef{Target: "other.Bar", RefType: "class", Domain: "py", Doc: "deep/nested/page"}
	res, err := r.ResolveDetect(ref)
	if err != nil || res == nil {
		t.Fatalf("resolve: %v, %v", res, err)
	}
	if res.URI != "https://other.example/bar.html" {
		t.Errorf("URI = %q", res.URI)
	}
	// a non-numeric version is shown as-is
	if res.Title != "(in Other snapshot)" {
		t.Errorf("Title = %q", res.Title)
	}
}

func TestResolveAnyRole(t *testing.T) {
	t.Parallel()

	r := testResolver()
	res, err := r.ResolveDetect(&PendingRef{Target: "pkg.Foo.run", RefType: "any"})
	if err != nil || res == nil {
		t.Fatalf("resolve: %v, %v", res, err)
	}
	if res.URI != "api/foo.html#pkg.Foo.run" {
		t.Errorf("URI = %q", res.URI)
	}
}

func TestResolveTermCaseInsensitive(t *testing.T) {
	t.Parallel()

	r := testResolver()
	res, err := r.ResolveDetect(&PendingRef{Target: "BUILDER", RefType: "term", Domain: "std"})
	if err != nil || res == nil {
		t.Fatalf("resolve: %v, %v", res, err)
	}
	// among case-folded duplicates the lexicographically first name wins
	if res.URI != "glossary.html#term-Builder" {
		t.Errorf("URI = %q", res.URI)
	}

	// exact matches are not relaxed for code objects
	none, err := r.ResolveDetect(&PendingRef{Target: "PKG.FOO", RefType: "class", Domain: "py"})
	if err != nil || none != nil {
		t.Errorf("class lookup should be case sensitive: %v, %v", none, err)
	}
}

func TestResolveDuplicateTermLogging(t *testing.T) {
	t.Parallel()

	inv := inventory.Inventory{}
	beta := inventory.Entry{
		URI: "glossary.html#term-beta", ProjectName: "Pkg", ProjectVersion: "2.0", DisplayName: "-",
	}
	inv.Add("std:term", "Beta", beta)
	inv.Add("std:term", "beta", beta)
	inv.Add("std:term", "Alpha", inventory.Entry{
		URI: "glossary.html#term-Alpha", ProjectName: "Pkg", ProjectVersion: "2.0", DisplayName: "-",
	})
	inv.Add("std:term", "alpha", inventory.Entry{
		URI: "glossary.html#term-alpha", ProjectName: "Pkg", ProjectVersion: "2.0", DisplayName: "-",
	})
	s := inventory.NewSet()
	s.Add("pkg", inv)

	rec := &logRecorder{}
	r := &Resolver{Domains: StandardRegistry(), Inventories: s, Logger: slog.New(rec)}

	// case-folded duplicates pointing at different targets are ambiguous
	res, err := r.ResolveDetect(&PendingRef{Target: "ALPHA", RefType: "term", Domain: "std"})
	if err != nil || res == nil {
		t.Fatalf("resolve: %v, %v", res, err)
	}
	if got := rec.levels(); len(got) != 1 || got[0] != slog.LevelWarn {
		t.Errorf("levels = %v, want a single warning", got)
	}

	// identical duplicate entries only merit a debug note
	rec.reset()
	res, err = r.ResolveDetect(&PendingRef{Target: "BETA", RefType: "term", Domain: "std"})
	if err != nil || res == nil {
		t.Fatalf("resolve: %v, %v", res, err)
	}
	if got := rec.levels(); len(got) != 1 || got[0] != slog.LevelDebug {
		t.Errorf("levels = %v, want a single debug note", got)
	}
}

func TestResolveLabelWithSpaces(t *testing.T) {
	t.Parallel()

	r := testResolver()
	res, err := r.ResolveDetect(&PendingRef{Target: "getting started", RefType: "ref", Domain: "std"})
	if err != nil || res == nil {
		t.Fatalf("resolve: %v, %v", res, err)
	}
	if res.Text != "Getting Started" {
		t.Errorf("Text = %q", res.Text)
	}
}

func TestResolveScopeQualification(t *testing.T) {
	t.Parallel()

	r := testResolver()
	ref := &PendingRef{
		Target: "run", RefType: "meth", Domain: "py",
		Scope: Scope{Module: "pkg", Class: "Foo"},
	}
	res, err := r.ResolveDetect(ref)
	if err != nil || res == nil {
		t.Fatalf("resolve: %v, %v", res, err)
	}
	if res.URI != "api/foo.html#pkg.Foo.run" {
		t.Errorf("URI = %q", res.URI)
	}
}

func TestResolveDisabledTypes(t *testing.T) {
	t.Parallel()

	r := testResolver()
	r.DisabledTypes = []string{"py:class"}

	ref := &PendingRef{Target: "pkg.Foo", RefType: "class", Domain: "py"}
	if res, _ := r.ResolveDetect(ref); res != nil {
		t.Errorf("disabled type resolved: %v", res)
	}
	// an explicit inventory bypasses disabling
	if res, err := r.ResolveInInventory("pkg", ref); err != nil || res == nil {
		t.Errorf("explicit inventory: %v, %v", res, err)
	}

	r.DisabledTypes = []string{"*"}
	if res, _ := r.ResolveDetect(&PendingRef{Target: "pkg.Foo.run", RefType: "any"}); res != nil {
		t.Errorf("wildcard disable resolved: %v", res)
	}
}

func TestResolveDetectInventoryPrefix(t *testing.T) {
	t.Parallel()

	r := testResolver()
	ref := &PendingRef{Target: "other:other.Bar", RefType: "class", Domain: "py"}
	res, err := r.ResolveDetect(ref)
	if err != nil || res == nil {
		t.Fatalf("resolve: %v, %v", res, err)
	}
	if res.URI != "https://other.example/bar.html" {
		t.Errorf("URI = %q", res.URI)
	}
	// the reference keeps its written target
	if ref.Target != "other:other.Bar" {
		t.Errorf("Target = %q", ref.Target)
	}
}

func TestResolveSelfPrefix(t *testing.T) {
	t.Parallel()

	r := testResolver()
	r.ResolveSelf = "myproj"

	ref := &PendingRef{Target: "myproj:Widget", RefType: "class", Domain: "py"}
	res, err := r.ResolveDetect(ref)
	if err != nil || res != nil {
		t.Fatalf("self reference must be handed back: %v, %v", res, err)
	}
	if !ref.SelfReferential || ref.Target != "Widget" {
		t.Errorf("ref = %+v", ref)
	}
}

func TestResolveUnknownInventoryName(t *testing.T) {
	t.Parallel()

	r := testResolver()
	if _, err := r.ResolveInInventory("missing", &PendingRef{Target: "x", RefType: "class", Domain: "py"}); err == nil {
		t.Error("expected an error for an unknown inventory")
	}

	// an unknown prefix in the target is not an error, just no match
	res, err := r.ResolveDetect(&PendingRef{Target: "missing:x", RefType: "class", Domain: "py"})
	if err != nil || res != nil {
		t.Errorf("got %v, %v", res, err)
	}
}
