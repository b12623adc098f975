package docstring

import (
	"reflect"
	"testing"
)

func TestPrepare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "single line",
			doc:  "Do the thing.",
			want: []string{"Do the thing.", ""},
		},
		{
			name: "common indentation removed",
			doc:  "Summary.\n\n    Detail one.\n    Detail two.",
			want: []string{"Summary.", "", "Detail one.", "Detail two.", ""},
		},
		{
			name: "first line keeps its indentation",
			doc:  "  Summary.\n      Detail.",
			want: []string{"  Summary.", "Detail.", ""},
		},
		{
			name: "uneven indentation uses the minimum",
			doc:  "Summary.\n    a\n  b",
			want: []string{"Summary.", "  a", "b", ""},
		},
		{
			name: "trailing blank lines collapse to one",
			doc:  "Summary.\n\n\n\n",
			want: []string{"Summary.", ""},
		},
		{
			name: "empty docstring",
			doc:  "",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Prepare(tt.doc, 8)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Prepare(%q) = %q, want %q", tt.doc, got, tt.want)
			}
		})
	}
}

func TestPrepareExpandsTabs(t *testing.T) {
	t.Parallel()

	got := Prepare("Summary.\n\tIndented.", 4)
	want := []string{"Summary.", "Indented.", ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Prepare = %q, want %q", got, want)
	}
}

func TestSeparateMetadata(t *testing.T) {
	t.Parallel()

	doc := "Summary.\n\n:meta private:\n:meta category: internal\nTail."
	kept, metadata := SeparateMetadata(doc)

	if kept != "Summary.\n\nTail." {
		t.Errorf("kept = %q", kept)
	}
	if v, ok := metadata["private"]; !ok || v != "" {
		// a bare field is present with an empty value
		t.Errorf("metadata[private] = %q, %v", v, ok)
	}
	if metadata["category"] != "internal" {
		t.Errorf("metadata[category] = %q", metadata["category"])
	}
}

func TestSeparateMetadataNoFields(t *testing.T) {
	t.Parallel()

	kept, metadata := SeparateMetadata("Just text.")
	if kept != "Just text." || len(metadata) != 0 {
		t.Errorf("got %q, %v", kept, metadata)
	}
}
