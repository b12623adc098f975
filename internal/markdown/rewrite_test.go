package markdown

import (
	"reflect"
	"strings"
	"testing"
)

func TestLinkTargets(t *testing.T) {
	t.Parallel()
	src := "See [ndarray](numpy:ndarray) and [docs](https://example.org/x) " +
		"plus [local](#anchor), [abs](/root), and [again](numpy:ndarray). " +
		"Also [term](myproj:Frobnicator)."
	got := LinkTargets(src)
	want := []string{"numpy:ndarray", "myproj:Frobnicator"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LinkTargets() = %v, want %v", got, want)
	}
}

func TestRewriteLinks_InlineLinks(t *testing.T) {
	t.Parallel()
	src := "See [ndarray](numpy:ndarray) for details."
	got := RewriteLinks(src, map[string]string{"numpy:ndarray": "https://numpy.org/doc/ref.html#ndarray"})
	want := "See [ndarray](https://numpy.org/doc/ref.html#ndarray) for details."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewriteLinks_ReferenceStyleLinks(t *testing.T) {
	t.Parallel()
	src := "See [ndarray][ref] for details.\n\n[ref]: numpy:ndarray"
	got := RewriteLinks(src, map[string]string{"numpy:ndarray": "https://numpy.org/ndarray.html"})
	if !strings.Contains(got, "[ref]: https://numpy.org/ndarray.html") {
		t.Errorf("reference link not rewritten: %q", got)
	}
}

func TestRewriteLinks_EmptyMap(t *testing.T) {
	t.Parallel()
	src := "Hello [world](url)."
	got := RewriteLinks(src, nil)
	if got != src {
		t.Errorf("expected unchanged, got %q", got)
	}
	got = RewriteLinks(src, map[string]string{})
	if got != src {
		t.Errorf("expected unchanged for empty map, got %q", got)
	}
}

func TestRewriteLinks_NoMatchingLinks(t *testing.T) {
	t.Parallel()
	src := "Check [this](keep-me) out."
	got := RewriteLinks(src, map[string]string{"other": "https://example.org/x"})
	if got != src {
		t.Errorf("expected unchanged, got %q", got)
	}
}

func TestRewriteLinks_MultipleLinks(t *testing.T) {
	t.Parallel()
	src := "[A](a-dest) and [B](b-dest) together."
	got := RewriteLinks(src, map[string]string{
		"a-dest": "https://example.org/a",
		"b-dest": "https://example.org/b",
	})
	if !strings.Contains(got, "(https://example.org/a)") {
		t.Error("link A not rewritten")
	}
	if !strings.Contains(got, "(https://example.org/b)") {
		t.Error("link B not rewritten")
	}
}

func TestAddFrontMatter(t *testing.T) {
	t.Parallel()

	t.Run("basic", func(t *testing.T) {
		got := AddFrontMatter("# Doc", map[string]string{"module": "mypkg.sub"})
		if !strings.HasPrefix(got, "---\n") {
			t.Error("missing opening ---")
		}
		if !strings.Contains(got, "module: mypkg.sub") {
			t.Error("missing metadata entry")
		}
		if !strings.HasSuffix(got, "# Doc") {
			t.Error("original content missing")
		}
	})

	t.Run("sorted_keys", func(t *testing.T) {
		got := AddFrontMatter("body", map[string]string{
			"version": "2.0",
			"module":  "mypkg",
		})
		mIdx := strings.Index(got, "module")
		vIdx := strings.Index(got, "version")
		if mIdx > vIdx {
			t.Error("keys not sorted alphabetically")
		}
	})

	t.Run("empty_map", func(t *testing.T) {
		got := AddFrontMatter("body", nil)
		if got != "body" {
			t.Errorf("expected unchanged for empty map, got %q", got)
		}
	})
}
