package docgen

import "testing"

func TestParseDirectiveName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want parsedName
	}{
		{
			name: "bare name",
			in:   "run",
			want: parsedName{Base: "run"},
		},
		{
			name: "dotted path",
			in:   "pkg.sub.run",
			want: parsedName{Path: "pkg.sub.", Base: "run"},
		},
		{
			name: "explicit module",
			in:   "pkg.sub::Widget.run",
			want: parsedName{ExplicitModule: "pkg.sub", Path: "Widget.", Base: "run"},
		},
		{
			name: "arguments and return",
			in:   "foo(a, b) -> int",
			want: parsedName{Base: "foo", Args: "a, b", HasArgs: true, Return: "int"},
		},
		{
			name: "empty arguments",
			in:   "foo()",
			want: parsedName{Base: "foo", HasArgs: true},
		},
		{
			name: "type parameters",
			in:   "Seq[T]",
			want: parsedName{Base: "Seq", TypeParams: "T"},
		},
		{
			name: "type parameters with signature",
			in:   "pkg.first(it: Seq[T]) -> T",
			want: parsedName{
				Path: "pkg.", Base: "first",
				Args: "it: Seq[T]", HasArgs: true, Return: "T",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := parseDirectiveName(tt.in)
			if !ok {
				t.Fatalf("parseDirectiveName(%q) did not match", tt.in)
			}
			if *got != tt.want {
				t.Errorf("parseDirectiveName(%q) = %+v, want %+v", tt.in, *got, tt.want)
			}
		})
	}
}

func TestParseDirectiveNameRejectsInvalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "foo bar", "foo(a"} {
		if _, ok := parseDirectiveName(in); ok {
			t.Errorf("parseDirectiveName(%q) matched, want reject", in)
		}
	}
}
