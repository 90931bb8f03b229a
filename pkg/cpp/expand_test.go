package cpp

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExpandBasics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "Object Macro",
			src:  "#define A 1\nA x\n",
			want: "1 x\n",
		},
		{
			name: "Object Macro Rehomed To Use Site",
			src:  "#define M 1 2\nM\nM\n",
			want: "1 2\n1 2\n",
		},
		{
			name: "Function Macro",
			src:  "#define ADD(a, b) ((a) + (b))\nADD(1, 2)\n",
			want: "((1) + (2))\n",
		},
		{
			name: "Object Macro Naming Function Macro",
			src:  "#define ADD(a, b) ((a) + (b))\n#define PLUS ADD\nPLUS(1, 2)\n",
			want: "((1) + (2))\n",
		},
		{
			name: "Zero Parameter Call",
			src:  "#define NIL() end\nNIL()\n",
			want: "end\n",
		},
		{
			name: "Function Macro Name Without Parens",
			src:  "#define f(a) x\nf + 1\nf\n",
			want: "f + 1\nf\n",
		},
		{
			name: "Commas Nested In Parens Do Not Split",
			src:  "#define FIRST(a, b) a\nFIRST((1, 2), 3)\n",
			want: "(1, 2)\n",
		},
		{
			name: "Argument Expanded Before Substitution",
			src:  "#define ONE 1\n#define ID(x) x\nID(ONE)\n",
			want: "1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustPreprocess(t, tt.src, nil, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandRecursionStops(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "Direct Self Reference",
			src:  "#define a a b\n#define b b a\na\n",
			want: "a b a\n",
		},
		{
			name: "Self Reference In Function Macro",
			src:  "#define f(a) a+f(a)\nf(1)\n",
			want: "1+f(1)\n",
		},
		{
			name: "Paint Survives Argument Collection",
			src:  "#define f(a) a\n#define g f(g)\ng\n",
			want: "g\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustPreprocess(t, tt.src, nil, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandStringize(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "Internal Spacing Collapses",
			src:  "#define S(x) #x\nS( a   b )\n",
			want: "\"a b\"\n",
		},
		{
			name: "Quotes And Backslashes Escaped",
			src:  "#define S(x) #x\nS(\"q\")\n",
			want: "\"\\\"q\\\"\"\n",
		},
		{
			name: "Empty Argument",
			src:  "#define S(x) #x\nS()\n",
			want: "\"\"\n",
		},
		{
			name: "Argument Not Pre Expanded",
			src:  "#define V 42\n#define S(x) #x\nS(V)\n",
			want: "\"V\"\n",
		},
		{
			name: "Indirection Expands First",
			src:  "#define V 42\n#define S(x) #x\n#define XS(x) S(x)\nXS(V)\n",
			want: "\"42\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustPreprocess(t, tt.src, nil, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandPaste(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "Identifier Paste",
			src:  "#define CAT(a, b) a ## b\nCAT(x, 1)\n",
			want: "x1\n",
		},
		{
			name: "Number Paste",
			src:  "#define CAT(a, b) a ## b\nCAT(1, 2)\n",
			want: "12\n",
		},
		{
			name: "Chained Paste Associates Left",
			src:  "#define J(a, b, c) a ## b ## c\nJ(x, y, z)\n",
			want: "xyz\n",
		},
		{
			name: "Empty Left Operand",
			src:  "#define CAT(a, b) a ## b\nCAT(, w)\n",
			want: "w\n",
		},
		{
			name: "Empty Right Operand",
			src:  "#define CAT(a, b) a ## b\nCAT(v,)\n",
			want: "v\n",
		},
		{
			name: "Paste Operands Not Pre Expanded",
			src:  "#define ONE 1\n#define CAT(a, b) a ## b\nCAT(ONE, 2)\n",
			want: "ONE2\n",
		},
		{
			name: "Pasted Token Rescanned For Expansion",
			src:  "#define AB done\n#define CAT(a, b) a ## b\nCAT(A, B)\n",
			want: "done\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustPreprocess(t, tt.src, nil, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandPasteInvalidWarns(t *testing.T) {
	out, sink, err := preprocessString(t, "#define CAT(a, b) a ## b\nCAT(+, -)\n", nil, nil)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	warns := sink.Warnings()
	if len(warns) != 1 || !strings.Contains(warns[0].Msg, "does not give a valid preprocessing token") {
		t.Fatalf("Expected one paste warning, got %v", sink.All)
	}
	// Both pieces survive.
	if out != "+-\n" {
		t.Errorf("Output = %q, want %q", out, "+-\n")
	}
}

func TestExpandVariadic(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "Va Args Substituted",
			src:  "#define P(fmt, ...) f(fmt, __VA_ARGS__)\nP(\"x\", 1, 2)\n",
			want: "f(\"x\", 1, 2)\n",
		},
		{
			name: "Comma Elided When Tail Empty",
			src:  "#define E(fmt, ...) f(fmt, ## __VA_ARGS__)\nE(\"x\")\n",
			want: "f(\"x\")\n",
		},
		{
			name: "Comma Kept When Tail Present",
			src:  "#define E(fmt, ...) f(fmt, ## __VA_ARGS__)\nE(\"x\", 1, 2)\n",
			want: "f(\"x\", 1, 2)\n",
		},
		{
			name: "Named Variadic",
			src:  "#define LOG(args...) log(args)\nLOG(1, 2)\n",
			want: "log(1, 2)\n",
		},
		{
			name: "Stringized Tail",
			src:  "#define S(...) #__VA_ARGS__\nS(a, b)\n",
			want: "\"a, b\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustPreprocess(t, tt.src, nil, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExpandArgumentCachedOnce(t *testing.T) {
	// The argument is pre-expanded once and reused, so a side-effecting
	// builtin yields the same value at both references.
	src := "#define twice(x) x x\ntwice(__COUNTER__)\n__COUNTER__\n"
	got := mustPreprocess(t, src, nil, nil)
	want := "0 0\n1\n"
	if got != want {
		t.Errorf("Output = %q, want %q", got, want)
	}
}

func TestExpandBuiltins(t *testing.T) {
	src := "int a;\n__LINE__ __FILE__\n"
	got := mustPreprocess(t, src, nil, nil)
	want := "int a;\n2 \"main.c\"\n"
	if got != want {
		t.Errorf("Output = %q, want %q", got, want)
	}
}

func TestExpandArgumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{
			name:    "Too Few Arguments",
			src:     "#define F(a, b) a\nF(1)\n",
			wantMsg: `macro "F" expects 2 arguments, got 1`,
		},
		{
			name:    "Too Many Arguments",
			src:     "#define F(a) a\nF(1, 2)\n",
			wantMsg: `macro "F" expects 1 arguments, got 2`,
		},
		{
			name:    "Variadic Minimum",
			src:     "#define V(a, b, ...) a\nV(1)\n",
			wantMsg: `macro "V" expects at least 2 arguments, got 1`,
		},
		{
			name:    "Unterminated Invocation",
			src:     "#define F(a) a\nF(1\n",
			wantMsg: `unterminated argument list invoking macro "F"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, sink, err := preprocessString(t, tt.src, nil, nil)
			if err == nil {
				t.Fatal("Expected an error")
			}
			errs := sink.Errors()
			if len(errs) != 1 || !strings.Contains(errs[0].Msg, tt.wantMsg) {
				t.Errorf("Expected error containing %q, got %v", tt.wantMsg, sink.All)
			}
		})
	}
}
