package cpp

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gocpp/pkg/vfs"
)

// countFS wraps an FS and counts ReadFile calls per path, so tests can
// tell a cache hit from a reopen.
type countFS struct {
	inner vfs.FS
	reads map[string]int
}

func (c *countFS) ReadFile(path string) ([]byte, error) {
	c.reads[path]++
	return c.inner.ReadFile(path)
}

func (c *countFS) Exists(path string) bool { return c.inner.Exists(path) }

func TestIncludeResolution(t *testing.T) {
	files := map[string]string{
		"h.h":      "root\n",
		"a.h":      "int x;\n",
		"sub/a.h":  "#include \"b.h\"\n",
		"sub/b.h":  "nested\n",
		"one/h.h":  "one\n",
		"two/h.h":  "two\n",
		"sys/s.h":  "system\n",
		"/abs/a.h": "absolute\n",
	}
	mod := func(cfg *Config) {
		cfg.IncludePaths = []string{"one", "two"}
		cfg.SysIncludePaths = []string{"sys"}
	}
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "Quoted From Including Directory",
			src:  "#include \"a.h\"\nint y;\n",
			want: "int x;\nint y;\n",
		},
		{
			name: "Quoted Relative To Nested Includer",
			src:  "#include \"sub/a.h\"\ndone\n",
			want: "nested\ndone\n",
		},
		{
			name: "Quoted Prefers Including Directory",
			src:  "#include \"h.h\"\n",
			want: "root\n",
		},
		{
			name: "Angled Searches Include Paths In Order",
			src:  "#include <h.h>\n",
			want: "one\n",
		},
		{
			name: "Angled Falls Through To System Paths",
			src:  "#include <s.h>\n",
			want: "system\n",
		},
		{
			name: "Absolute Path",
			src:  "#include \"/abs/a.h\"\n",
			want: "absolute\n",
		},
		{
			name: "Computed Quoted Name",
			src:  "#define HDR \"a.h\"\n#include HDR\n",
			want: "int x;\n",
		},
		{
			name: "Computed Angled Name",
			src:  "#define SYS <s.h>\n#include SYS\n",
			want: "system\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustPreprocess(t, tt.src, files, mod)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAngledIncludeSkipsIncluderDirectory(t *testing.T) {
	// h.h exists only next to main.c; <...> must not find it there.
	files := map[string]string{"h.h": "root\n"}
	_, sink, err := preprocessString(t, "#include <h.h>\n", files, nil)
	if err == nil {
		t.Fatal("Expected an error")
	}
	errs := sink.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Msg, `include file "h.h" not found`) {
		t.Errorf("Expected a not-found error, got %v", sink.All)
	}
}

func TestIncludeNext(t *testing.T) {
	files := map[string]string{
		"inc1/wrap.h": "before\n#include_next <wrap.h>\nafter\n",
		"inc2/wrap.h": "core\n",
	}
	mod := func(cfg *Config) {
		cfg.IncludePaths = []string{"inc1", "inc2"}
	}
	got := mustPreprocess(t, "#include <wrap.h>\n", files, mod)
	want := "before\ncore\nafter\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Output mismatch (-want +got):\n%s", diff)
	}
}

func TestIncludeNextInPrimaryFileWarns(t *testing.T) {
	files := map[string]string{"one/h.h": "content\n"}
	mod := func(cfg *Config) {
		cfg.IncludePaths = []string{"one"}
	}
	out, sink, err := preprocessString(t, "#include_next <h.h>\n", files, mod)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	warns := sink.Warnings()
	if len(warns) != 1 || !strings.Contains(warns[0].Msg, "#include_next in primary source file") {
		t.Fatalf("Expected the primary-file warning, got %v", sink.All)
	}
	// It still resolves, from the start of the search order.
	if out != "content\n" {
		t.Errorf("Output = %q, want %q", out, "content\n")
	}
}

func TestIncludeGuardCaching(t *testing.T) {
	files := map[string]string{
		"guarded.h": "#ifndef G_H\n#define G_H\nbody\n#endif\n",
	}
	var counter *countFS
	mod := func(cfg *Config) {
		counter = &countFS{inner: cfg.FS, reads: map[string]int{}}
		cfg.FS = counter
	}
	src := "#include \"guarded.h\"\n#include \"guarded.h\"\nend\n"
	out := mustPreprocess(t, src, files, mod)
	if strings.Count(out, "body") != 1 {
		t.Errorf("Guarded body should appear once, output %q", out)
	}
	if counter.reads["guarded.h"] != 1 {
		t.Errorf("Guarded file read %d times, want 1", counter.reads["guarded.h"])
	}
}

func TestIncludeGuardSurvivesComments(t *testing.T) {
	files := map[string]string{
		"g.h": "/* header */\n#ifndef G\n#define G\nbody\n#endif\n/* tail */\n",
	}
	out := mustPreprocess(t, "#include \"g.h\"\n#include \"g.h\"\n", files, nil)
	if strings.Count(out, "body") != 1 {
		t.Errorf("Comments must not break the guard, output %q", out)
	}
}

func TestBrokenGuardReincludes(t *testing.T) {
	files := map[string]string{
		"bad.h": "#ifndef G\n#define G\nbody\n#endif\nextra\n",
	}
	var counter *countFS
	mod := func(cfg *Config) {
		counter = &countFS{inner: cfg.FS, reads: map[string]int{}}
		cfg.FS = counter
	}
	out := mustPreprocess(t, "#include \"bad.h\"\n#include \"bad.h\"\n", files, mod)
	if strings.Count(out, "extra") != 2 {
		t.Errorf("Text after #endif breaks the guard, output %q", out)
	}
	// The content cache still serves the second read.
	if counter.reads["bad.h"] != 1 {
		t.Errorf("File read %d times, want 1 via content cache", counter.reads["bad.h"])
	}
}

func TestGuardWithElseBranchReincludes(t *testing.T) {
	// A guard conditional with an #else arm selects a branch per include,
	// so the header is not idempotent and must not be cached as guarded.
	files := map[string]string{
		"sel.h": "#ifndef S\n#define S\nfirst\n#else\nsecond\n#endif\n",
	}
	out := mustPreprocess(t, "#include \"sel.h\"\n#include \"sel.h\"\n", files, nil)
	if strings.Count(out, "first") != 1 || strings.Count(out, "second") != 1 {
		t.Errorf("Expected one token per branch, output %q", out)
	}

	// Same for an #elif arm.
	files = map[string]string{
		"eli.h": "#ifndef E\n#define E\nfirst\n#elif 1\nsecond\n#endif\n",
	}
	out = mustPreprocess(t, "#include \"eli.h\"\n#include \"eli.h\"\n", files, nil)
	if strings.Count(out, "first") != 1 || strings.Count(out, "second") != 1 {
		t.Errorf("Expected one token per branch, output %q", out)
	}
}

func TestGuardRespectsUndef(t *testing.T) {
	files := map[string]string{
		"guarded.h": "#ifndef G_H\n#define G_H\nbody\n#endif\n",
	}
	src := "#include \"guarded.h\"\n#undef G_H\n#include \"guarded.h\"\n"
	out := mustPreprocess(t, src, files, nil)
	if strings.Count(out, "body") != 2 {
		t.Errorf("Undefined guard macro should reopen the file, output %q", out)
	}
}

func TestPragmaOnce(t *testing.T) {
	files := map[string]string{
		"once.h": "#pragma once\nbody\n",
	}
	var counter *countFS
	mod := func(cfg *Config) {
		counter = &countFS{inner: cfg.FS, reads: map[string]int{}}
		cfg.FS = counter
	}
	out := mustPreprocess(t, "#include \"once.h\"\n#include \"once.h\"\n", files, mod)
	if strings.Count(out, "body") != 1 {
		t.Errorf("#pragma once body should appear once, output %q", out)
	}
	if counter.reads["once.h"] != 1 {
		t.Errorf("File read %d times, want 1", counter.reads["once.h"])
	}
}

func TestUnguardedFileReincludes(t *testing.T) {
	files := map[string]string{"plain.h": "p\n"}
	var counter *countFS
	mod := func(cfg *Config) {
		counter = &countFS{inner: cfg.FS, reads: map[string]int{}}
		cfg.FS = counter
	}
	out := mustPreprocess(t, "#include \"plain.h\"\n#include \"plain.h\"\nend\n", files, mod)
	if diff := cmp.Diff("p\np\nend\n", out); diff != "" {
		t.Errorf("Output mismatch (-want +got):\n%s", diff)
	}
	if counter.reads["plain.h"] != 1 {
		t.Errorf("File read %d times, want 1 via content cache", counter.reads["plain.h"])
	}
}

func TestIncludeDepthLimit(t *testing.T) {
	files := map[string]string{"rec.h": "#include \"rec.h\"\n"}
	mod := func(cfg *Config) {
		cfg.MaxIncludeDepth = 10
	}
	_, sink, err := preprocessString(t, "#include \"rec.h\"\n", files, mod)
	if err == nil {
		t.Fatal("Expected an error")
	}
	errs := sink.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Msg, "#include recursion too deep") {
		t.Errorf("Expected a recursion error, got %v", sink.All)
	}
}

func TestIncludeMissing(t *testing.T) {
	_, sink, err := preprocessString(t, "#include \"nope.h\"\n", nil, nil)
	if err == nil {
		t.Fatal("Expected an error")
	}
	errs := sink.Errors()
	if len(errs) != 1 || !strings.Contains(errs[0].Msg, `include file "nope.h" not found`) {
		t.Errorf("Expected a not-found error, got %v", sink.All)
	}
}

func TestHeaderNameFromTokens(t *testing.T) {
	lt := Token{Kind: LESS}
	gt := Token{Kind: GREATER}
	id := func(s string, space bool) Token { return Token{Kind: IDENT, Text: s, Space: space} }

	tests := []struct {
		name       string
		toks       TokenString
		wantName   string
		wantQuoted bool
		wantOK     bool
	}{
		{
			name:       "String Literal",
			toks:       TokenString{{Kind: STRING, Text: `"a.h"`}},
			wantName:   "a.h",
			wantQuoted: true,
			wantOK:     true,
		},
		{
			name:     "Angle Run",
			toks:     TokenString{lt, id("sys", false), {Kind: SLASH}, id("io", false), {Kind: DOT}, id("h", false), gt},
			wantName: "sys/io.h",
			wantOK:   true,
		},
		{
			name:   "Empty Angles",
			toks:   TokenString{lt, gt},
			wantOK: false,
		},
		{
			name:   "Bare Identifier",
			toks:   TokenString{id("x", false)},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, quoted, ok := headerNameFromTokens(tt.toks)
			if ok != tt.wantOK || name != tt.wantName || quoted != tt.wantQuoted {
				t.Errorf("headerNameFromTokens = (%q, %v, %v), want (%q, %v, %v)",
					name, quoted, ok, tt.wantName, tt.wantQuoted, tt.wantOK)
			}
		})
	}
}
