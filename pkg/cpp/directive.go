package cpp

import "strconv"

// lineTok returns the next token of the current directive line, with
// newline delivery switched on so the line's end is visible.
func (pp *Preprocessor) lineTok() Token {
	s := pp.curScanner()
	s.keepNL = true
	t := s.next()
	s.keepNL = false
	return t
}

// readDirectiveLine collects the remaining tokens of the current directive
// line, consuming the terminating newline.
func (pp *Preprocessor) readDirectiveLine() TokenString {
	var line TokenString
	for {
		t := pp.lineTok()
		if t.Kind == NEWLINE || t.Kind == EOF {
			return line
		}
		line.add(t)
	}
}

// handleDirective processes one directive line. The introducing '#' has
// been consumed and was the first token on its line in the file stream;
// directives never come out of macro expansions.
func (pp *Preprocessor) handleDirective(hash Token) {
	t := pp.lineTok()
	if t.Kind == NEWLINE || t.Kind == EOF {
		return // null directive
	}
	if t.Kind == PPNUM {
		// Line marker from earlier preprocessing: # 42 "file.c" flags...
		pp.applyLineDirective(hash, append(TokenString{t}, pp.readDirectiveLine()...), true)
		return
	}
	if t.Kind != IDENT {
		pp.errorAt(ErrDirective, t, "invalid preprocessing directive")
		return
	}

	// Anything but the opening #ifndef ends a file's include-guard
	// candidacy; a directive after the guard's #endif ends it too.
	if f := pp.stack; f != nil {
		switch f.guardState {
		case guardArmed:
			f.guardState = guardDead
		case guardFresh:
			if t.ID != symIfndef {
				f.guardState = guardDead
			}
		}
	}

	switch t.ID {
	case symDefine:
		pp.handleDefine(t)
	case symUndef:
		pp.handleUndef(t)
	case symInclude:
		pp.handleInclude(t, false)
	case symIncludeNext:
		pp.handleInclude(t, true)
	case symIf, symIfdef, symIfndef:
		pp.handleIf(t.ID, t)
	case symElif:
		pp.handleElif(t)
	case symElse:
		pp.handleElse(t)
	case symEndif:
		pp.handleEndif(t)
	case symLine:
		pp.applyLineDirective(t, pp.readDirectiveLine(), false)
	case symError:
		pp.handleErrorDirective(t, true)
	case symWarning:
		pp.handleErrorDirective(t, false)
	case symPragma:
		pp.handlePragma(t)
	default:
		pp.errorAt(ErrDirective, t, "invalid preprocessing directive #%s", t.Text)
	}
}

func (pp *Preprocessor) handleDefine(at Token) {
	nameTok := pp.lineTok()
	if nameTok.Kind == NEWLINE || nameTok.Kind == EOF {
		pp.errorAt(ErrDirective, at, "macro name missing after #define")
		return
	}
	if nameTok.Kind != IDENT {
		pp.errorAt(ErrDirective, nameTok, "macro names must be identifiers")
		return
	}
	if nameTok.ID == symDefined {
		pp.errorAt(ErrDirective, nameTok, "%q cannot be used as a macro name", nameTok.Text)
		return
	}

	m := &Macro{Name: nameTok.ID, Kind: ObjectMacro, VaName: NoSym}
	t := pp.lineTok()
	switch {
	case t.Kind == LPAREN && !t.Space:
		// '(' directly after the name opens a parameter list; with a
		// space between, it is just the first body token.
		m.Kind = FunctionMacro
		if !pp.parseMacroParams(m) {
			return
		}
		m.Body = pp.readDirectiveLine().trimSpace()
	case t.Kind == NEWLINE || t.Kind == EOF:
		// empty replacement list
	default:
		m.Body = append(TokenString{t}, pp.readDirectiveLine()...).trimSpace()
	}
	if !pp.checkMacroBody(m) {
		return
	}

	prev := pp.macros.Define(m)
	if prev != nil && !prev.equal(m) {
		pp.warnAt(ErrDirective, nameTok, "%q redefined", nameTok.Text)
	}
}

// parseMacroParams reads a function-like macro's parameter list; the
// opening '(' has been consumed. A bare ellipsis makes the macro variadic
// under the name __VA_ARGS__, the GNU args... form names the tail instead.
func (pp *Preprocessor) parseMacroParams(m *Macro) bool {
	t := pp.lineTok()
	if t.Kind == RPAREN {
		return true
	}
	for {
		switch t.Kind {
		case IDENT:
			if t.ID == symVaArgs {
				pp.errorAt(ErrDirective, t, "%q may not appear in a macro parameter list", t.Text)
				return false
			}
			for _, p := range m.Params {
				if p == t.ID {
					pp.errorAt(ErrDirective, t, "duplicate macro parameter %q", t.Text)
					return false
				}
			}
			nxt := pp.lineTok()
			if nxt.Kind == ELLIPSIS {
				m.Variadic = true
				m.VaName = t.ID
				end := pp.lineTok()
				if end.Kind != RPAREN {
					pp.errorAt(ErrDirective, end, "missing ')' in macro parameter list")
					return false
				}
				return true
			}
			m.Params = append(m.Params, t.ID)
			if nxt.Kind == RPAREN {
				return true
			}
			if nxt.Kind != COMMA {
				pp.errorAt(ErrDirective, nxt, "macro parameters must be comma-separated")
				return false
			}
		case ELLIPSIS:
			m.Variadic = true
			m.VaName = symVaArgs
			end := pp.lineTok()
			if end.Kind != RPAREN {
				pp.errorAt(ErrDirective, end, "missing ')' in macro parameter list")
				return false
			}
			return true
		case NEWLINE, EOF:
			pp.errorAt(ErrDirective, t, "missing ')' in macro parameter list")
			return false
		default:
			pp.errorAt(ErrDirective, t, "%q may not appear in a macro parameter list", t.Spelling())
			return false
		}
		t = pp.lineTok()
	}
}

// checkMacroBody validates operator placement in a replacement list and
// notes whether expansion will need a paste pass.
func (pp *Preprocessor) checkMacroBody(m *Macro) bool {
	body := m.Body
	if len(body) > 0 && (body[0].Kind == HASH_HASH || body[len(body)-1].Kind == HASH_HASH) {
		pp.errorAt(ErrDirective, body[0], "'##' cannot appear at either end of a macro expansion")
		return false
	}
	vaOK := m.Variadic && m.VaName == symVaArgs
	for i := range body {
		t := body[i]
		switch {
		case t.Kind == HASH_HASH:
			m.HasPaste = true
		case t.Kind == HASH && m.Kind == FunctionMacro:
			ok := false
			if i+1 < len(body) && body[i+1].Kind == IDENT {
				_, ok = m.isParam(body[i+1].ID)
			}
			if !ok {
				pp.errorAt(ErrDirective, t, "'#' is not followed by a macro parameter")
				return false
			}
		case t.Kind == IDENT && t.ID == symVaArgs && !vaOK:
			pp.errorAt(ErrDirective, t, "__VA_ARGS__ can only appear in the expansion of a variadic macro")
			return false
		}
	}
	return true
}

func (pp *Preprocessor) handleUndef(at Token) {
	nameTok := pp.lineTok()
	if nameTok.Kind == NEWLINE || nameTok.Kind == EOF {
		pp.errorAt(ErrDirective, at, "macro name missing after #undef")
		return
	}
	if nameTok.Kind != IDENT {
		pp.errorAt(ErrDirective, nameTok, "macro names must be identifiers")
		return
	}
	pp.readDirectiveLine()
	pp.macros.Undef(nameTok.ID)
}

func (pp *Preprocessor) handleInclude(at Token, next bool) {
	if next && pp.depth == 0 {
		pp.warnAt(ErrInclude, at, "#include_next in primary source file")
	}
	s := pp.curScanner()
	if name, quoted, ok := s.scanIncludeName(); ok {
		s.restOfLine()
		if name == "" {
			pp.errorAt(ErrInclude, at, "empty filename in #include")
			return
		}
		pp.pushInclude(name, quoted, next, at)
		return
	}

	// Computed include: the rest of the line is macro-expanded and must
	// come out as "name" or a < ... > run.
	line := pp.readDirectiveLine()
	if len(line) == 0 {
		pp.errorAt(ErrInclude, at, `#include expects "FILENAME" or <FILENAME>`)
		return
	}
	expanded := pp.expandList(line)
	if pp.err != nil {
		return
	}
	name, quoted, ok := headerNameFromTokens(expanded)
	if !ok || name == "" {
		pp.errorAt(ErrInclude, at, `#include expects "FILENAME" or <FILENAME>`)
		return
	}
	pp.pushInclude(name, quoted, next, at)
}

// applyLineDirective handles #line and the # 42 "file.c" marker form.
// The marker form takes the tokens as they are; #line macro-expands its
// operands first unless they already match a direct form.
func (pp *Preprocessor) applyLineDirective(at Token, line TokenString, marker bool) {
	if !marker {
		direct := len(line) > 0 && line[0].Kind == PPNUM &&
			(len(line) == 1 || line[1].Kind == STRING)
		if !direct {
			line = pp.expandList(line)
			if pp.err != nil {
				return
			}
		}
	}
	if len(line) == 0 || line[0].Kind != PPNUM {
		pp.errorAt(ErrDirective, at, "#line directive requires a line number")
		return
	}
	n, ok := parseLineNumber(line[0].Text)
	if !ok {
		pp.errorAt(ErrDirective, line[0], "%q after #line is not a positive integer", line[0].Text)
		return
	}

	name := ""
	haveName := false
	rest := line[1:]
	if len(rest) > 0 {
		if rest[0].Kind != STRING || rest[0].Text[0] != '"' {
			if !marker {
				pp.errorAt(ErrDirective, rest[0], "invalid filename for #line")
				return
			}
		} else {
			decoded, err := interpretString(rest[0].Text)
			if err != nil {
				pp.errorAt(ErrDirective, rest[0], "invalid filename for #line")
				return
			}
			name = string(decoded)
			haveName = true
			rest = rest[1:]
		}
	}
	if len(rest) > 0 && !marker {
		pp.warnAt(ErrDirective, rest[0], "extra tokens at end of #line directive")
	}
	// Marker flags (1 enter, 2 return, 3 system) carry no information the
	// include stack does not already have; they are accepted and dropped.

	s := pp.curScanner()
	s.line = n
	s.lineStart = s.pos
	if haveName {
		s.name = name
	}
}

// parseLineNumber accepts the digit-sequence form required after #line,
// read as decimal whatever its leading digits look like.
func parseLineNumber(text string) (int, bool) {
	if text == "" {
		return 0, false
	}
	for i := 0; i < len(text); i++ {
		if !isDigitByte(text[i]) {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(text, 10, 31)
	if err != nil || n == 0 {
		return 0, false
	}
	return int(n), true
}

// handleErrorDirective reports #error and #warning with their raw message
// text; the payload is never tokenized, so unmatched quotes are fine.
func (pp *Preprocessor) handleErrorDirective(at Token, isErr bool) {
	text := pp.curScanner().restOfLine()
	msg := "#error"
	sev := SevFatal
	if !isErr {
		msg = "#warning"
		sev = SevWarning
	}
	if text != "" {
		msg += " " + text
	}
	pp.report(ErrDirective, sev, at.File, at.Line, at.Col, "%s", msg)
}

func (pp *Preprocessor) handlePragma(at Token) {
	line := pp.readDirectiveLine()
	if len(line) == 0 {
		return
	}
	if line[0].Kind != IDENT {
		pp.warnAt(ErrDirective, at, "ignoring unrecognized #pragma")
		return
	}
	switch line[0].ID {
	case symOnce:
		if f := pp.stack; f != nil && f.cacheEnt != nil {
			f.cacheEnt.once = true
		}
	case symPushMacro, symPopMacro:
		name, ok := pragmaMacroArg(line[1:])
		if !ok {
			pp.warnAt(ErrDirective, at, "malformed #pragma %s, expected a quoted macro name", line[0].Text)
			return
		}
		id := pp.syms.Intern(name)
		if line[0].ID == symPushMacro {
			pp.macros.Shelve(id)
		} else if !pp.macros.Unshelve(id) {
			pp.warnAt(ErrDirective, at, "no matching push_macro for #pragma pop_macro(%q)", name)
		}
	default:
		pp.warnAt(ErrDirective, at, "ignoring unrecognized #pragma %q", line[0].Text)
	}
}

// pragmaMacroArg extracts NAME from the ("NAME") argument form of
// #pragma push_macro and pop_macro.
func pragmaMacroArg(ts TokenString) (string, bool) {
	if len(ts) != 3 || ts[0].Kind != LPAREN || ts[1].Kind != STRING || ts[2].Kind != RPAREN {
		return "", false
	}
	text := ts[1].Text
	if len(text) < 3 || text[0] != '"' {
		return "", false
	}
	return text[1 : len(text)-1], true
}
