package cpp

// Scanner turns one source buffer into preprocessing tokens. The driver
// owns one Scanner per open file; popping the include stack discards it.
//
// The raw buffer is normalized up front: a UTF-8 BOM is dropped, \r\n and
// lone \r become \n, and backslash-newline splices are removed with their
// newlines re-inserted after the next real line break so every token keeps
// its physical line number.
type Scanner struct {
	syms *SymbolTable
	src  []byte
	pos  int

	name  string // display name, remappable by #line
	path  string // resolved path that was opened
	depth int    // include-stack depth at open

	line      int // current 1-based line
	lineStart int // buffer offset of the current line, for columns
	bol       bool
	space     bool

	// keepNL makes '\n' come back as a NEWLINE token instead of being
	// swallowed; the driver sets it while reading a directive line.
	keepNL bool

	errfn func(kind ErrKind, line, col int, format string, args ...any)
}

func newScanner(syms *SymbolTable, name, path string, depth int, src []byte, arena *Arena,
	errfn func(kind ErrKind, line, col int, format string, args ...any)) *Scanner {
	s := &Scanner{
		syms:  syms,
		src:   normalizeSource(arena, src),
		name:  name,
		path:  path,
		depth: depth,
		line:  1,
		bol:   true,
		errfn: errfn,
	}
	return s
}

// skipShebang discards a leading "#!" line: tool invocation syntax, not
// source. Only the top-level file of a run gets this treatment.
func (s *Scanner) skipShebang() {
	if s.pos == 0 && len(s.src) >= 2 && s.src[0] == '#' && s.src[1] == '!' {
		for s.pos < len(s.src) && s.src[s.pos] != '\n' {
			s.pos++
		}
	}
}

// normalizeSource rewrites the buffer so the token loop never sees a
// carriage return or a backslash-newline splice. Newlines removed by a
// splice are owed to the line count and paid back after the next real
// newline, keeping later lines at their physical numbers. The output never
// outgrows the input, so one arena block of the input size holds it.
func normalizeSource(arena *Arena, src []byte) []byte {
	if len(src) >= 3 && src[0] == 0xEF && src[1] == 0xBB && src[2] == 0xBF {
		src = src[3:]
	}
	var out []byte
	if arena != nil {
		out = arena.Alloc(len(src))[:0]
	} else {
		out = make([]byte, 0, len(src))
	}
	owed := 0
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src) && src[i+1] == '\n':
			owed++
			i += 2
		case c == '\\' && i+2 < len(src) && src[i+1] == '\r' && src[i+2] == '\n':
			owed++
			i += 3
		case c == '\r':
			if i+1 < len(src) && src[i+1] == '\n' {
				i++
			}
			out = append(out, '\n')
			for ; owed > 0; owed-- {
				out = append(out, '\n')
			}
			i++
		case c == '\n':
			out = append(out, '\n')
			for ; owed > 0; owed-- {
				out = append(out, '\n')
			}
			i++
		default:
			out = append(out, c)
			i++
		}
	}
	// A splice on the last line still owes its newlines.
	for ; owed > 0; owed-- {
		out = append(out, '\n')
	}
	return out
}

func (s *Scanner) peek() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

func (s *Scanner) peek2() byte {
	if s.pos+1 >= len(s.src) {
		return 0
	}
	return s.src[s.pos+1]
}

func (s *Scanner) advance() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
		s.lineStart = s.pos
	}
	return c
}

func (s *Scanner) col() int { return s.pos - s.lineStart + 1 }

func (s *Scanner) atEOF() bool { return s.pos >= len(s.src) }

func (s *Scanner) err(kind ErrKind, format string, args ...any) {
	if s.errfn != nil {
		s.errfn(kind, s.line, s.col(), format, args...)
	}
}

// skipLineComment discards everything up to, but not including, end-of-line.
func (s *Scanner) skipLineComment() {
	for s.pos < len(s.src) && s.peek() != '\n' {
		s.pos++
	}
}

// skipBlockComment discards everything up to and including the closing "*/".
func (s *Scanner) skipBlockComment() {
	startLine := s.line
	for s.pos < len(s.src) {
		if s.peek() == '*' && s.peek2() == '/' {
			s.advance()
			s.advance()
			return
		}
		s.advance()
	}
	if s.errfn != nil {
		s.errfn(ErrLex, startLine, 0, "unterminated block comment")
	}
}

// next returns the next preprocessing token. At end of buffer it returns an
// EOF token; the driver decides whether that pops an include level.
func (s *Scanner) next() Token {
	for {
		c := s.peek()
		switch {
		case c == 0 && s.atEOF():
			return s.newTok(EOF)
		case c == '\n':
			s.advance()
			s.bol = true
			s.space = false
			if s.keepNL {
				return Token{Kind: NEWLINE, File: s.name, Line: s.line - 1, Depth: s.depth}
			}
			continue
		case isSpaceByte(c):
			s.advance()
			s.space = true
			continue
		case c == '/' && s.peek2() == '/':
			s.advance()
			s.advance()
			s.skipLineComment()
			s.space = true
			continue
		case c == '/' && s.peek2() == '*':
			s.advance()
			s.advance()
			s.skipBlockComment()
			s.space = true
			continue
		}
		break
	}

	tok := s.newTok(EOF)
	s.bol = false
	s.space = false

	c := s.peek()
	switch {
	case isIdentStart(c):
		// L"..." and L'...' are single wide-literal pp-tokens.
		if c == 'L' && (s.peek2() == '"' || s.peek2() == '\'') {
			s.advance()
			return s.scanLiteral(tok, s.peek(), true)
		}
		return s.scanIdent(tok)
	case isDigitByte(c):
		return s.scanPPNum(tok)
	case c == '.':
		if isDigitByte(s.peek2()) {
			return s.scanPPNum(tok)
		}
		return s.scanPunct(tok)
	case c == '"' || c == '\'':
		return s.scanLiteral(tok, c, false)
	case c == '\\':
		s.advance()
		s.err(ErrLex, "stray '\\' in program")
		return s.next()
	default:
		return s.scanPunct(tok)
	}
}

// newTok seeds a token with the position and whitespace state at the
// current scan point.
func (s *Scanner) newTok(kind TokenKind) Token {
	return Token{
		Kind:  kind,
		File:  s.name,
		Line:  s.line,
		Col:   s.col(),
		Depth: s.depth,
		BOL:   s.bol,
		Space: s.space,
	}
}

// scanIdent collects an identifier and interns it in the same pass.
// The first character must still be at s.peek().
func (s *Scanner) scanIdent(tok Token) Token {
	start := s.pos
	for s.pos < len(s.src) && isIdentByte(s.src[s.pos]) {
		s.pos++
	}
	tok.Kind = IDENT
	tok.ID = s.syms.InternBytes(s.src[start:s.pos])
	tok.Text = s.syms.Name(tok.ID)
	return tok
}

// scanPPNum collects a preprocessing number: digits, identifier characters,
// '.', and a sign when it directly follows an exponent marker, so 1e+5 is
// one token while a+5 is three.
func (s *Scanner) scanPPNum(tok Token) Token {
	start := s.pos
	s.pos++ // first digit, or '.' with a digit behind it
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '+' || c == '-' {
			prev := s.src[s.pos-1]
			if prev != 'e' && prev != 'E' && prev != 'p' && prev != 'P' {
				break
			}
		} else if !isIdentByte(c) && c != '.' {
			break
		}
		s.pos++
	}
	tok.Kind = PPNUM
	tok.Text = string(s.src[start:s.pos])
	return tok
}

// scanLiteral collects a raw string or character pp-token, quotes included.
// Escape sequences are carried through uninterpreted; a backslash only
// shields the delimiter from ending the literal here.
func (s *Scanner) scanLiteral(tok Token, quote byte, wide bool) Token {
	start := s.pos
	if wide {
		start-- // include the L prefix in the spelling
	}
	s.advance() // opening quote
	for {
		c := s.peek()
		if c == '\n' || s.atEOF() {
			s.err(ErrLex, "missing terminating %c character", quote)
			break
		}
		if c == '\\' {
			s.advance()
			if s.peek() != '\n' && !s.atEOF() {
				s.advance()
			}
			continue
		}
		s.advance()
		if c == quote {
			break
		}
	}
	if quote == '"' {
		tok.Kind = STRING
	} else {
		tok.Kind = CHARCONST
	}
	tok.Text = string(s.src[start:s.pos])
	return tok
}

// scanHeaderName collects the body of a <...> include name; the '<' must
// already be consumed. Returns false when the line ends first.
func (s *Scanner) scanHeaderName() (string, bool) {
	start := s.pos
	for s.pos < len(s.src) && s.peek() != '>' && s.peek() != '\n' {
		s.advance()
	}
	if s.peek() != '>' {
		return "", false
	}
	name := string(s.src[start:s.pos])
	s.advance() // '>'
	return name, true
}

// skipBlanksInLine advances over spaces, tabs and comments without leaving
// the current logical line. It reports whether anything other than a line
// comment remains before the newline.
func (s *Scanner) skipBlanksInLine() bool {
	for {
		c := s.peek()
		switch {
		case isSpaceByte(c):
			s.advance()
		case c == '/' && s.peek2() == '*':
			s.advance()
			s.advance()
			s.skipBlockComment()
		case c == '/' && s.peek2() == '/':
			return false
		default:
			return c != '\n' && !s.atEOF()
		}
	}
}

// restOfLine returns the raw text from the current position to end-of-line,
// uninterpreted: the payload of #error and #warning, where quote characters
// must not start literals. The newline itself is left in place.
func (s *Scanner) restOfLine() string {
	start := s.pos
	for s.pos < len(s.src) && s.src[s.pos] != '\n' {
		s.pos++
	}
	return string(trimSpaceBytes(s.src[start:s.pos]))
}

func trimSpaceBytes(b []byte) []byte {
	for len(b) > 0 && isSpaceByte(b[0]) {
		b = b[1:]
	}
	for len(b) > 0 && isSpaceByte(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	return b
}

// scanIncludeName reads the filename of an include directive in one of its
// two literal forms, "name" or <name>, without escape interpretation.
// ok is false when neither delimiter is next; the caller then falls back to
// assembling a macro-expanded name from tokens.
func (s *Scanner) scanIncludeName() (name string, quoted, ok bool) {
	if !s.skipBlanksInLine() {
		return "", false, false
	}
	switch s.peek() {
	case '"':
		s.advance()
		start := s.pos
		for s.pos < len(s.src) && s.peek() != '"' && s.peek() != '\n' {
			s.advance()
		}
		if s.peek() != '"' {
			return "", false, false
		}
		name = string(s.src[start:s.pos])
		s.advance()
		return name, true, true
	case '<':
		s.advance()
		name, got := s.scanHeaderName()
		return name, false, got
	}
	return "", false, false
}

// skipResult identifies the directive that ended a skipped branch.
type skipResult int

const (
	skipElif skipResult = iota
	skipElse
	skipEndif
	skipEOF
)

// skipConditional is the fast path through a false conditional branch. It
// advances character by character, not by tokens, tracking just enough
// structure to find the branch boundary: string and character literals,
// comments, and nested conditional directives. It stops with the boundary
// directive's name consumed and the rest of that line untouched. atBOL
// tells it whether it starts at the beginning of a line or in the middle
// of a rejected #elif line.
//
// Line counting must stay exact here: the tokens after the skipped branch
// carry the same line numbers they would have had without the #if.
func (s *Scanner) skipConditional(atBOL bool) skipResult {
	depth := 0
	bol := atBOL
	for s.pos < len(s.src) {
		c := s.peek()
		switch c {
		case '\n':
			s.advance()
			bol = true
			continue
		case ' ', '\t', '\v', '\f':
			s.advance()
			continue
		case '/':
			if s.peek2() == '*' {
				s.advance()
				s.advance()
				s.skipSkippedComment()
			} else if s.peek2() == '/' {
				s.skipLineComment()
			} else {
				s.advance()
			}
			bol = false
			continue
		case '\'', '"':
			s.skipSkippedLiteral(c)
			bol = false
			continue
		case '#':
			if !bol {
				s.advance()
				continue
			}
			s.advance()
			word := s.directiveWord()
			switch word {
			case "if", "ifdef", "ifndef":
				depth++
			case "endif":
				if depth == 0 {
					return skipEndif
				}
				depth--
			case "elif":
				if depth == 0 {
					return skipElif
				}
			case "else":
				if depth == 0 {
					return skipElse
				}
			case "error", "warning":
				// Quotes in the message must not open literals.
				for s.pos < len(s.src) && s.peek() != '\n' {
					s.pos++
				}
			}
			bol = false
			continue
		default:
			s.advance()
			bol = false
		}
	}
	return skipEOF
}

// directiveWord reads the identifier after a '#' at line start, skipping
// horizontal blanks. It returns "" for a null directive.
func (s *Scanner) directiveWord() string {
	for isSpaceByte(s.peek()) {
		s.advance()
	}
	start := s.pos
	for s.pos < len(s.src) && isIdentByte(s.src[s.pos]) {
		s.pos++
	}
	return string(s.src[start:s.pos])
}

// skipSkippedComment is skipBlockComment without the unterminated-comment
// diagnostic; inside a skipped branch nothing is reported.
func (s *Scanner) skipSkippedComment() {
	for s.pos < len(s.src) {
		if s.peek() == '*' && s.peek2() == '/' {
			s.advance()
			s.advance()
			return
		}
		s.advance()
	}
}

// skipSkippedLiteral advances past a quoted literal inside a skipped
// branch. A quote with no closer on its line is treated as plain text so
// that prose like a stray apostrophe raises nothing; the rest of the line
// is consumed either way.
func (s *Scanner) skipSkippedLiteral(quote byte) {
	s.advance()
	for s.pos < len(s.src) {
		c := s.peek()
		if c == '\n' {
			return
		}
		if c == '\\' {
			s.advance()
			if !s.atEOF() && s.peek() != '\n' {
				s.advance()
			}
			continue
		}
		s.advance()
		if c == quote {
			return
		}
	}
}

// scanPunct matches the longest punctuator at the current position.
func (s *Scanner) scanPunct(tok Token) Token {
	c := s.advance()
	kind := TokenKind(-1)
	switch c {
	case '{':
		kind = LBRACE
	case '}':
		kind = RBRACE
	case '(':
		kind = LPAREN
	case ')':
		kind = RPAREN
	case '[':
		kind = LBRACKET
	case ']':
		kind = RBRACKET
	case ';':
		kind = SEMICOLON
	case ',':
		kind = COMMA
	case '?':
		kind = QUESTION
	case '~':
		kind = TILDE
	case ':':
		kind = COLON
	case '.':
		kind = DOT
		if s.peek() == '.' && s.peek2() == '.' {
			s.advance()
			s.advance()
			kind = ELLIPSIS
		}
	case '#':
		kind = HASH
		if s.peek() == '#' {
			s.advance()
			kind = HASH_HASH
		}
	case '+':
		kind = PLUS
		if s.peek() == '+' {
			s.advance()
			kind = PLUS_PLUS
		} else if s.peek() == '=' {
			s.advance()
			kind = PLUS_ASSIGN
		}
	case '-':
		kind = MINUS
		switch s.peek() {
		case '-':
			s.advance()
			kind = MINUS_MINUS
		case '=':
			s.advance()
			kind = MINUS_ASSIGN
		case '>':
			s.advance()
			kind = ARROW
		}
	case '*':
		kind = STAR
		if s.peek() == '=' {
			s.advance()
			kind = STAR_ASSIGN
		}
	case '/':
		kind = SLASH
		if s.peek() == '=' {
			s.advance()
			kind = SLASH_ASSIGN
		}
	case '%':
		kind = PERCENT
		if s.peek() == '=' {
			s.advance()
			kind = PERCENT_ASSIGN
		}
	case '&':
		kind = AND
		if s.peek() == '&' {
			s.advance()
			kind = AND_LOGICAL
		} else if s.peek() == '=' {
			s.advance()
			kind = AND_ASSIGN
		}
	case '|':
		kind = PIPE
		if s.peek() == '|' {
			s.advance()
			kind = OR_LOGICAL
		} else if s.peek() == '=' {
			s.advance()
			kind = PIPE_ASSIGN
		}
	case '^':
		kind = CARET
		if s.peek() == '=' {
			s.advance()
			kind = CARET_ASSIGN
		}
	case '!':
		kind = NOT
		if s.peek() == '=' {
			s.advance()
			kind = NOT_EQ
		}
	case '=':
		kind = ASSIGN
		if s.peek() == '=' {
			s.advance()
			kind = EQUALS
		}
	case '<':
		kind = LESS
		if s.peek() == '<' {
			s.advance()
			kind = SHL_OP
			if s.peek() == '=' {
				s.advance()
				kind = SHL_ASSIGN
			}
		} else if s.peek() == '=' {
			s.advance()
			kind = LESS_EQ
		}
	case '>':
		kind = GREATER
		if s.peek() == '>' {
			s.advance()
			kind = SHR_OP
			if s.peek() == '=' {
				s.advance()
				kind = SHR_ASSIGN
			}
		} else if s.peek() == '=' {
			s.advance()
			kind = GREATER_EQ
		}
	}
	if kind < 0 {
		s.err(ErrLex, "unrecognized character 0x%02x", c)
		return s.next()
	}
	tok.Kind = kind
	return tok
}
