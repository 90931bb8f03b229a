package cpp

import "fmt"

// TokenKind identifies the category of a preprocessing token.
type TokenKind int

const (
	EOF TokenKind = iota // sentinel: end of the translation unit

	NEWLINE     // end of a directive line (directive mode only)
	IDENT       // identifier or keyword, interned
	PPNUM       // uninterpreted preprocessing number
	STRING      // string literal, raw spelling incl. quotes
	CHARCONST   // character constant, raw spelling incl. quotes
	INTLIT      // integer literal after conversion
	FLOATLIT    // floating literal after conversion
	PLACEHOLDER // empty macro argument marker, never emitted to consumers

	// Paired delimiters
	LBRACE   // {
	RBRACE   // }
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]

	// Punctuation
	DOT       // .
	ELLIPSIS  // ...
	SEMICOLON // ;
	COMMA     // ,
	COLON     // :
	QUESTION  // ?
	ARROW     // ->
	HASH      // #
	HASH_HASH // ##

	// Arithmetic / bitwise operators
	PLUS        // +
	MINUS       // -
	STAR        // *
	SLASH       // /
	PERCENT     // %
	AND         // &
	PIPE        // |
	CARET       // ^
	TILDE       // ~
	SHL_OP      // <<
	SHR_OP      // >>
	AND_LOGICAL // &&
	OR_LOGICAL  // ||
	NOT         // !

	PLUS_PLUS   // ++
	MINUS_MINUS // --

	// Assignment / comparison
	ASSIGN         // =
	PLUS_ASSIGN    // +=
	MINUS_ASSIGN   // -=
	STAR_ASSIGN    // *=
	SLASH_ASSIGN   // /=
	PERCENT_ASSIGN // %=
	AND_ASSIGN     // &=
	PIPE_ASSIGN    // |=
	CARET_ASSIGN   // ^=
	SHL_ASSIGN     // <<=
	SHR_ASSIGN     // >>=

	EQUALS     // ==
	NOT_EQ     // !=
	LESS       // <
	GREATER    // >
	LESS_EQ    // <=
	GREATER_EQ // >=
)

// tokenNames is indexed by TokenKind.
var tokenNames = [...]string{
	EOF:            "EOF",
	NEWLINE:        "NEWLINE",
	IDENT:          "IDENT",
	PPNUM:          "PPNUM",
	STRING:         "STRING",
	CHARCONST:      "CHARCONST",
	INTLIT:         "INTLIT",
	FLOATLIT:       "FLOATLIT",
	PLACEHOLDER:    "PLACEHOLDER",
	LBRACE:         "LBRACE",
	RBRACE:         "RBRACE",
	LPAREN:         "LPAREN",
	RPAREN:         "RPAREN",
	LBRACKET:       "LBRACKET",
	RBRACKET:       "RBRACKET",
	DOT:            "DOT",
	ELLIPSIS:       "ELLIPSIS",
	SEMICOLON:      "SEMICOLON",
	COMMA:          "COMMA",
	COLON:          "COLON",
	QUESTION:       "QUESTION",
	ARROW:          "ARROW",
	HASH:           "HASH",
	HASH_HASH:      "HASH_HASH",
	PLUS:           "PLUS",
	MINUS:          "MINUS",
	STAR:           "STAR",
	SLASH:          "SLASH",
	PERCENT:        "PERCENT",
	AND:            "AND",
	PIPE:           "PIPE",
	CARET:          "CARET",
	TILDE:          "TILDE",
	SHL_OP:         "SHL_OP",
	SHR_OP:         "SHR_OP",
	AND_LOGICAL:    "AND_LOGICAL",
	OR_LOGICAL:     "OR_LOGICAL",
	NOT:            "NOT",
	PLUS_PLUS:      "PLUS_PLUS",
	MINUS_MINUS:    "MINUS_MINUS",
	ASSIGN:         "ASSIGN",
	PLUS_ASSIGN:    "PLUS_ASSIGN",
	MINUS_ASSIGN:   "MINUS_ASSIGN",
	STAR_ASSIGN:    "STAR_ASSIGN",
	SLASH_ASSIGN:   "SLASH_ASSIGN",
	PERCENT_ASSIGN: "PERCENT_ASSIGN",
	AND_ASSIGN:     "AND_ASSIGN",
	PIPE_ASSIGN:    "PIPE_ASSIGN",
	CARET_ASSIGN:   "CARET_ASSIGN",
	SHL_ASSIGN:     "SHL_ASSIGN",
	SHR_ASSIGN:     "SHR_ASSIGN",
	EQUALS:         "EQUALS",
	NOT_EQ:         "NOT_EQ",
	LESS:           "LESS",
	GREATER:        "GREATER",
	LESS_EQ:        "LESS_EQ",
	GREATER_EQ:     "GREATER_EQ",
}

func (tk TokenKind) String() string {
	if int(tk) >= 0 && int(tk) < len(tokenNames) {
		return tokenNames[tk]
	}
	return fmt.Sprintf("TokenKind(%d)", int(tk))
}

// punctText maps punctuator kinds to their canonical spelling.
var punctText = map[TokenKind]string{
	LBRACE: "{", RBRACE: "}", LPAREN: "(", RPAREN: ")",
	LBRACKET: "[", RBRACKET: "]",
	DOT: ".", ELLIPSIS: "...", SEMICOLON: ";", COMMA: ",",
	COLON: ":", QUESTION: "?", ARROW: "->", HASH: "#", HASH_HASH: "##",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	AND: "&", PIPE: "|", CARET: "^", TILDE: "~",
	SHL_OP: "<<", SHR_OP: ">>", AND_LOGICAL: "&&", OR_LOGICAL: "||",
	NOT: "!", PLUS_PLUS: "++", MINUS_MINUS: "--",
	ASSIGN: "=", PLUS_ASSIGN: "+=", MINUS_ASSIGN: "-=",
	STAR_ASSIGN: "*=", SLASH_ASSIGN: "/=", PERCENT_ASSIGN: "%=",
	AND_ASSIGN: "&=", PIPE_ASSIGN: "|=", CARET_ASSIGN: "^=",
	SHL_ASSIGN: "<<=", SHR_ASSIGN: ">>=",
	EQUALS: "==", NOT_EQ: "!=", LESS: "<", GREATER: ">",
	LESS_EQ: "<=", GREATER_EQ: ">=",
}

// Token is a single preprocessing token. Identifier equality is symbol-id
// equality; Text carries the canonical spelling for identifiers and
// literal-like kinds.
type Token struct {
	Kind TokenKind
	ID   SymID  // interned symbol, IDENT only
	Text string // spelling for IDENT, PPNUM, STRING, CHARCONST, INTLIT, FLOATLIT

	IVal     uint64  // INTLIT value; CHARCONST value after conversion
	Unsigned bool    // INTLIT carries a u/U suffix or does not fit int64
	FVal     float64 // FLOATLIT value
	Str      []byte  // decoded contents of a converted STRING

	File  string
	Line  int // 1-based source line
	Col   int // 1-based starting column, 0 when synthesized
	Depth int // include-stack depth at scan time, for line markers

	BOL      bool // first token on its source line
	Space    bool // preceded by whitespace or a comment
	NoExpand bool // hidden-set paint: never a macro invocation again
}

// Spelling returns the canonical source text of the token.
func (t Token) Spelling() string {
	if s, ok := punctText[t.Kind]; ok {
		return s
	}
	switch t.Kind {
	case NEWLINE:
		return "\n"
	case EOF, PLACEHOLDER:
		return ""
	}
	return t.Text
}

func (t Token) String() string {
	return fmt.Sprintf("%-10s %-14q  line %d", t.Kind, t.Spelling(), t.Line)
}

// isIdentLike reports whether a rendered token ends or starts like an
// identifier or number, which decides separating-space insertion.
func isIdentLike(k TokenKind) bool {
	switch k {
	case IDENT, PPNUM, INTLIT, FLOATLIT:
		return true
	}
	return false
}
