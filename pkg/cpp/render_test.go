package cpp

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func markersMode(m MarkerMode) func(*Config) {
	return func(cfg *Config) { cfg.Markers = m }
}

func TestRenderLineMarkers(t *testing.T) {
	files := map[string]string{"a.h": "int x;\n"}
	src := "int a;\n#include \"a.h\"\nint y;\n"

	t.Run("Full", func(t *testing.T) {
		got := mustPreprocess(t, src, files, markersMode(MarkersFull))
		want := "# 1 \"main.c\"\n" +
			"int a;\n" +
			"# 1 \"a.h\" 1\n" +
			"int x;\n" +
			"# 3 \"main.c\" 2\n" +
			"int y;\n"
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Output mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Line", func(t *testing.T) {
		got := mustPreprocess(t, src, files, markersMode(MarkersLine))
		want := "#line 1 \"main.c\"\n" +
			"int a;\n" +
			"#line 1 \"a.h\"\n" +
			"int x;\n" +
			"#line 3 \"main.c\"\n" +
			"int y;\n"
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Output mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("None", func(t *testing.T) {
		got := mustPreprocess(t, src, files, markersMode(MarkersNone))
		want := "int a;\nint x;\nint y;\n"
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Output mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestRenderFirstMarkerUnflagged(t *testing.T) {
	// When the first rendered token already comes from an include, the
	// opening marker still carries no enter flag.
	files := map[string]string{"a.h": "int x;\n"}
	src := "#include \"a.h\"\nint y;\n"
	got := mustPreprocess(t, src, files, markersMode(MarkersFull))
	want := "# 1 \"a.h\"\n" +
		"int x;\n" +
		"# 2 \"main.c\" 2\n" +
		"int y;\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Output mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderLineGaps(t *testing.T) {
	t.Run("Small Gap Becomes Blank Lines", func(t *testing.T) {
		got := mustPreprocess(t, "a\n\n\nb\n", nil, markersMode(MarkersFull))
		want := "# 1 \"main.c\"\na\n\n\nb\n"
		if got != want {
			t.Errorf("Output = %q, want %q", got, want)
		}
	})

	t.Run("Seven Line Gap Still Blank Lines", func(t *testing.T) {
		src := "a" + strings.Repeat("\n", 7) + "b\n"
		got := mustPreprocess(t, src, nil, markersMode(MarkersNone))
		if got != src {
			t.Errorf("Output = %q, want %q", got, src)
		}
	})

	t.Run("Large Gap Becomes Marker", func(t *testing.T) {
		src := "a" + strings.Repeat("\n", 19) + "b\n"
		got := mustPreprocess(t, src, nil, markersMode(MarkersFull))
		want := "# 1 \"main.c\"\na\n# 20 \"main.c\"\nb\n"
		if got != want {
			t.Errorf("Output = %q, want %q", got, want)
		}
	})

	t.Run("Large Gap Without Markers Is One Newline", func(t *testing.T) {
		src := "a" + strings.Repeat("\n", 19) + "b\n"
		got := mustPreprocess(t, src, nil, markersMode(MarkersNone))
		if got != "a\nb\n" {
			t.Errorf("Output = %q, want %q", got, "a\nb\n")
		}
	})

	t.Run("Backward Jump Becomes Marker", func(t *testing.T) {
		got := mustPreprocess(t, "x\n#line 1\ny\n", nil, markersMode(MarkersFull))
		want := "# 1 \"main.c\"\nx\n# 1 \"main.c\"\ny\n"
		if got != want {
			t.Errorf("Output = %q, want %q", got, want)
		}
	})
}

func TestRenderTokenSpacing(t *testing.T) {
	// Tokens that became adjacent through expansion must not merge into
	// a different token when printed.
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "Plus Plus Would Merge",
			src:  "#define E\n+E+\n",
			want: "+ +\n",
		},
		{
			name: "Exponent Would Swallow Sign",
			src:  "#define E\n1e E+5\n",
			want: "1e +5\n",
		},
		{
			name: "Slash Star Would Open Comment",
			src:  "#define E\n/E*\n",
			want: "/ *\n",
		},
		{
			name: "Slash Slash Would Open Comment",
			src:  "#define E\n/E/\n",
			want: "/ /\n",
		},
		{
			name: "Less Less Would Merge",
			src:  "#define E\n<E<\n",
			want: "< <\n",
		},
		{
			name: "Arrow Would Form",
			src:  "#define E\n-E>\n",
			want: "- >\n",
		},
		{
			name: "Identifiers Would Join",
			src:  "#define ID(x) x\nID(a)b\n",
			want: "a b\n",
		},
		{
			name: "Wide Literal Would Form",
			src:  "#define ID(x) x\nID(L)\"s\"\n",
			want: "L \"s\"\n",
		},
		{
			name: "Parens Stay Adjacent",
			src:  "#define E\n)E(\n",
			want: ")(\n",
		},
		{
			name: "Plus Minus Stays Adjacent",
			src:  "#define E\n+E-\n",
			want: "+-\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustPreprocess(t, tt.src, nil, nil)
			if got != tt.want {
				t.Errorf("Output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderPlainSource(t *testing.T) {
	// Code with no preprocessing keeps its token spacing; leading
	// indentation is not reproduced.
	src := "int main(void) {\n  return 0;\n}\n"
	got := mustPreprocess(t, src, nil, nil)
	want := "int main(void) {\nreturn 0;\n}\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Output mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderLiteralsKeptRaw(t *testing.T) {
	// String spellings pass through undecoded.
	src := "const char *s = \"hi\\n\";\n"
	got := mustPreprocess(t, src, nil, nil)
	if got != src {
		t.Errorf("Output = %q, want %q", got, src)
	}
}

func TestRenderEmptyInput(t *testing.T) {
	if got := mustPreprocess(t, "", nil, nil); got != "" {
		t.Errorf("Empty input rendered %q", got)
	}
	if got := mustPreprocess(t, "/* only a comment */\n", nil, nil); got != "" {
		t.Errorf("Comment-only input rendered %q", got)
	}
	if got := mustPreprocess(t, "#define UNUSED 1\n", nil, markersMode(MarkersFull)); got != "" {
		t.Errorf("Directive-only input rendered %q", got)
	}
}
