package cpp

import (
	"fmt"
	"reflect"
	"testing"
)

// lexed is the slice of token state the scanner tests compare: kind,
// canonical spelling, and position.
type lexed struct {
	kind TokenKind
	text string
	line int
	col  int
}

// lexAll scans src to EOF with a fresh symbol table, collecting scanner
// diagnostics instead of reporting them.
func lexAll(t *testing.T, src string) ([]lexed, []string) {
	t.Helper()
	var errs []string
	syms := NewSymbolTable()
	s := newScanner(syms, "t.c", "t.c", 0, []byte(src), nil,
		func(kind ErrKind, line, col int, format string, args ...any) {
			errs = append(errs, fmt.Sprintf(format, args...))
		})
	var out []lexed
	for {
		tok := s.next()
		if tok.Kind == EOF {
			return out, errs
		}
		out = append(out, lexed{kind: tok.Kind, text: tok.Spelling(), line: tok.Line, col: tok.Col})
	}
}

func TestScanTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []lexed
		wantErrs int
	}{
		{
			name:     "Empty",
			input:    "",
			expected: nil,
		},
		{
			name:  "Identifiers",
			input: "int x42 _y $d",
			expected: []lexed{
				{IDENT, "int", 1, 1},
				{IDENT, "x42", 1, 5},
				{IDENT, "_y", 1, 9},
				{IDENT, "$d", 1, 12},
			},
		},
		{
			name:  "Maximal Munch Punctuators",
			input: "<<= >>= ... -> ## ++ -- && || == != <= >=",
			expected: []lexed{
				{SHL_ASSIGN, "<<=", 1, 1},
				{SHR_ASSIGN, ">>=", 1, 5},
				{ELLIPSIS, "...", 1, 9},
				{ARROW, "->", 1, 13},
				{HASH_HASH, "##", 1, 16},
				{PLUS_PLUS, "++", 1, 19},
				{MINUS_MINUS, "--", 1, 22},
				{AND_LOGICAL, "&&", 1, 25},
				{OR_LOGICAL, "||", 1, 28},
				{EQUALS, "==", 1, 31},
				{NOT_EQ, "!=", 1, 34},
				{LESS_EQ, "<=", 1, 37},
				{GREATER_EQ, ">=", 1, 40},
			},
		},
		{
			name:  "Plus Plus Plus",
			input: "a+++b",
			expected: []lexed{
				{IDENT, "a", 1, 1},
				{PLUS_PLUS, "++", 1, 2},
				{PLUS, "+", 1, 4},
				{IDENT, "b", 1, 5},
			},
		},
		{
			name:  "Adjacent Dots",
			input: ".. ...",
			expected: []lexed{
				{DOT, ".", 1, 1},
				{DOT, ".", 1, 2},
				{ELLIPSIS, "...", 1, 4},
			},
		},
		{
			name:  "PP Numbers",
			input: "1e+5 0x1p-3 1.5f .5 1ul 0b1010",
			expected: []lexed{
				{PPNUM, "1e+5", 1, 1},
				{PPNUM, "0x1p-3", 1, 6},
				{PPNUM, "1.5f", 1, 13},
				{PPNUM, ".5", 1, 18},
				{PPNUM, "1ul", 1, 21},
				{PPNUM, "0b1010", 1, 25},
			},
		},
		{
			name:  "Plus After Number Is Not Exponent",
			input: "a+5 1+2",
			expected: []lexed{
				{IDENT, "a", 1, 1},
				{PLUS, "+", 1, 2},
				{PPNUM, "5", 1, 3},
				{PPNUM, "1", 1, 5},
				{PLUS, "+", 1, 6},
				{PPNUM, "2", 1, 7},
			},
		},
		{
			name:  "String With Escaped Quote",
			input: `"a\"b" 'x' L"w" L'c'`,
			expected: []lexed{
				{STRING, `"a\"b"`, 1, 1},
				{CHARCONST, "'x'", 1, 8},
				{STRING, `L"w"`, 1, 12},
				{CHARCONST, "L'c'", 1, 17},
			},
		},
		{
			name:  "Line Comment",
			input: "x // rest of the line\ny",
			expected: []lexed{
				{IDENT, "x", 1, 1},
				{IDENT, "y", 2, 1},
			},
		},
		{
			name:  "Block Comment Across Lines",
			input: "a/*x\ny*/b",
			expected: []lexed{
				{IDENT, "a", 1, 1},
				{IDENT, "b", 2, 4},
			},
		},
		{
			name:  "Splice Joins Identifier",
			input: "ab\\\ncd ef",
			expected: []lexed{
				{IDENT, "abcd", 1, 1},
				{IDENT, "ef", 1, 6},
			},
		},
		{
			name:  "Splice Preserves Later Line Numbers",
			input: "a\\\nb\nc",
			expected: []lexed{
				{IDENT, "ab", 1, 1},
				{IDENT, "c", 3, 1},
			},
		},
		{
			name:  "CRLF And Lone CR",
			input: "a\r\nb\rc",
			expected: []lexed{
				{IDENT, "a", 1, 1},
				{IDENT, "b", 2, 1},
				{IDENT, "c", 3, 1},
			},
		},
		{
			name:  "BOM Dropped",
			input: "\xEF\xBB\xBFz",
			expected: []lexed{
				{IDENT, "z", 1, 1},
			},
		},
		{
			name:  "Stray Backslash",
			input: "a \\ b",
			expected: []lexed{
				{IDENT, "a", 1, 1},
				{IDENT, "b", 1, 5},
			},
			wantErrs: 1,
		},
		{
			name:  "Unterminated String",
			input: `"abc`,
			expected: []lexed{
				{STRING, `"abc`, 1, 1},
			},
			wantErrs: 1,
		},
		{
			name:     "Unterminated Block Comment",
			input:    "/*x",
			expected: nil,
			wantErrs: 1,
		},
		{
			name:     "Unrecognized Byte",
			input:    "@",
			expected: nil,
			wantErrs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errs := lexAll(t, tt.input)
			if len(errs) != tt.wantErrs {
				t.Errorf("Expected %d scan errors, got %v", tt.wantErrs, errs)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tokens = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestScannerWhitespaceFlags(t *testing.T) {
	syms := NewSymbolTable()
	s := newScanner(syms, "t.c", "t.c", 0, []byte("a b\n c\nd"), nil, nil)

	a := s.next()
	if !a.BOL || a.Space {
		t.Errorf("a: expected BOL and no space, got BOL=%v Space=%v", a.BOL, a.Space)
	}
	b := s.next()
	if b.BOL || !b.Space {
		t.Errorf("b: expected space and no BOL, got BOL=%v Space=%v", b.BOL, b.Space)
	}
	c := s.next()
	if !c.BOL || !c.Space {
		t.Errorf("c: indented line start should be BOL with space, got BOL=%v Space=%v", c.BOL, c.Space)
	}
	d := s.next()
	if !d.BOL || d.Space {
		t.Errorf("d: expected BOL and no space, got BOL=%v Space=%v", d.BOL, d.Space)
	}
}

func TestScannerKeepNL(t *testing.T) {
	syms := NewSymbolTable()
	s := newScanner(syms, "t.c", "t.c", 0, []byte("a\nb"), nil, nil)
	s.keepNL = true

	if tok := s.next(); tok.Kind != IDENT {
		t.Fatalf("Expected IDENT, got %v", tok.Kind)
	}
	nl := s.next()
	if nl.Kind != NEWLINE {
		t.Fatalf("Expected NEWLINE, got %v", nl.Kind)
	}
	// The newline belongs to the line it ends.
	if nl.Line != 1 {
		t.Errorf("Expected newline on line 1, got %d", nl.Line)
	}
	if tok := s.next(); tok.Kind != IDENT || tok.Line != 2 {
		t.Errorf("Expected IDENT on line 2, got %v on line %d", tok.Kind, tok.Line)
	}
}

func TestSkipShebang(t *testing.T) {
	syms := NewSymbolTable()
	s := newScanner(syms, "t.c", "t.c", 0, []byte("#!/usr/bin/env tcc\nint"), nil, nil)
	s.skipShebang()
	tok := s.next()
	if tok.Kind != IDENT || tok.Text != "int" || tok.Line != 2 {
		t.Errorf("Expected int on line 2 after shebang, got %q on line %d", tok.Text, tok.Line)
	}

	// Not at offset zero: a #! later in the file is ordinary tokens.
	s2 := newScanner(syms, "t.c", "t.c", 0, []byte("x\n#!y"), nil, nil)
	if tok := s2.next(); tok.Kind != IDENT {
		t.Fatalf("Expected IDENT, got %v", tok.Kind)
	}
	s2.skipShebang()
	if tok := s2.next(); tok.Kind != HASH {
		t.Errorf("Expected HASH, got %v", tok.Kind)
	}
}

func TestNormalizeSource(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Trailing Splice Pays Newline", "a\\\n", "a\n"},
		{"CRLF Splice", "a\\\r\nb", "ab\n"},
		{"Owed Newlines Reinserted", "a\\\nb\\\nc\nd", "abc\n\n\nd"},
		{"CR Normalized", "a\rb\r\nc", "a\nb\nc"},
		{"Plain Text Untouched", "ab cd", "ab cd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(normalizeSource(nil, []byte(tt.input)))
			if got != tt.want {
				t.Errorf("normalizeSource(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
