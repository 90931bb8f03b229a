package cpp

import "strconv"

// macroFrame is one level of the expansion stack. The replacement stream
// of an invoked macro is delivered token by token from its frame; while
// the frame is live, its macro name is ineligible for further expansion
// anywhere downstream, which is what guarantees termination. Unnamed
// frames carry pushed-back lookahead and pre-expansion work lists.
type macroFrame struct {
	name    SymID // macro being delivered, NoSym for pushback frames
	toks    TokenString
	pos     int
	barrier bool // expansion must not read past the end of this frame
	prev    *macroFrame
}

// macroArg is one collected invocation argument. The expanded form is
// computed on first use and cached, so a parameter referenced five times
// costs one expansion.
type macroArg struct {
	raw      TokenString
	expanded TokenString
	done     bool
}

func (pp *Preprocessor) pushFrame(name SymID, toks TokenString, barrier bool) {
	pp.mstack = &macroFrame{name: name, toks: toks, barrier: barrier, prev: pp.mstack}
}

// paint applies the hidden-set mark: an identifier delivered while a frame
// with its own name is live must never be expanded again. The mark is
// sticky; it survives argument collection and re-push.
func (pp *Preprocessor) paint(t *Token) {
	if t.Kind != IDENT || t.NoExpand {
		return
	}
	for f := pp.mstack; f != nil; f = f.prev {
		if f.name == t.ID {
			t.NoExpand = true
			return
		}
	}
}

// nextPP delivers the next pp-token: expansion frames first, then the file
// stack. Placeholders are consumed silently. ok is false only when the
// newest barrier frame is exhausted, which ends a closed-list expansion.
func (pp *Preprocessor) nextPP() (Token, bool) {
	for {
		if pp.err != nil {
			return Token{Kind: EOF}, true
		}
		f := pp.mstack
		if f == nil {
			break
		}
		if f.pos >= len(f.toks) {
			if f.barrier {
				return Token{Kind: EOF}, false
			}
			pp.mstack = f.prev
			continue
		}
		t := f.toks[f.pos]
		f.pos++
		if t.Kind == PLACEHOLDER {
			continue
		}
		pp.paint(&t)
		return t, true
	}
	t := pp.fileTok()
	pp.paint(&t)
	return t, true
}

// expandNext is nextPP with macro replacement applied: identifiers that
// name macros are replaced until something that is not an eligible macro
// invocation comes out.
func (pp *Preprocessor) expandNext() (Token, bool) {
	for {
		t, ok := pp.nextPP()
		if !ok {
			return t, false
		}
		if t.Kind != IDENT || t.NoExpand {
			return t, true
		}
		m := pp.macros.Lookup(t.ID)
		if m == nil {
			return t, true
		}
		if !pp.expandMacro(m, t) {
			return t, true
		}
	}
}

// expandMacro replaces one macro reference, pushing the replacement as a
// new frame. It reports false when t turns out not to be an invocation:
// a function macro name with no ( after it, which the caller then passes
// through unchanged.
func (pp *Preprocessor) expandMacro(m *Macro, t Token) bool {
	if m.builtin != builtinNone {
		pp.pushFrame(NoSym, TokenString{pp.builtinToken(m, t)}, false)
		return true
	}
	if m.Kind == ObjectMacro {
		pp.pushExpansion(m, t, nil)
		return true
	}
	// A function macro expands only when ( follows; peeking may cross
	// macro and include boundaries, and a miss pushes the token back
	// with its whitespace intact.
	nt, ok := pp.nextPP()
	if !ok || nt.Kind != LPAREN {
		if ok {
			pp.pushFrame(NoSym, TokenString{nt}, false)
		}
		return false
	}
	args, collected := pp.collectArgs(m, t)
	if !collected {
		return true
	}
	pp.pushExpansion(m, t, args)
	return true
}

// pushExpansion computes the replacement stream of one invocation and
// pushes it. Every token of the result is re-homed to the invocation
// site: expanded tokens report the line of the macro reference, not the
// line of the #define.
func (pp *Preprocessor) pushExpansion(m *Macro, inv Token, args []macroArg) {
	var out TokenString
	if args != nil {
		out = pp.substitute(m, inv, args)
	} else {
		out = append(out, m.Body...)
		if m.HasPaste {
			out = pp.pasteList(out, inv)
		}
	}
	for i := range out {
		out[i].File = inv.File
		out[i].Line = inv.Line
		out[i].Col = 0
		out[i].Depth = inv.Depth
		out[i].BOL = false
	}
	if len(out) > 0 {
		out[0].Space = inv.Space
	}
	pp.pushFrame(m.Name, out, false)
}

// collectArgs gathers the argument token sequences of an invocation whose
// ( is already consumed. Top-level commas separate arguments; commas
// nested in parentheses do not, and neither do commas once the variadic
// tail has begun.
func (pp *Preprocessor) collectArgs(m *Macro, inv Token) ([]macroArg, bool) {
	depth := 1
	var args []macroArg
	var cur TokenString
	for {
		t, ok := pp.nextPP()
		if !ok || t.Kind == EOF {
			pp.errorAt(ErrExpansion, inv, "unterminated argument list invoking macro %q", pp.syms.Name(m.Name))
			return nil, false
		}
		switch t.Kind {
		case LPAREN:
			depth++
		case RPAREN:
			depth--
			if depth == 0 {
				args = append(args, macroArg{raw: cur.trimSpace()})
				return pp.checkArgCount(m, inv, args)
			}
		case COMMA:
			if depth == 1 && !(m.Variadic && len(args) >= len(m.Params)) {
				args = append(args, macroArg{raw: cur.trimSpace()})
				cur = nil
				continue
			}
		}
		cur.add(t)
	}
}

// checkArgCount normalizes and validates the collected argument list:
// f() invoking a zero-parameter macro is zero arguments, and a variadic
// invocation that stops at the named parameters gets an empty tail.
func (pp *Preprocessor) checkArgCount(m *Macro, inv Token, args []macroArg) ([]macroArg, bool) {
	if len(m.Params) == 0 && !m.Variadic && len(args) == 1 && len(args[0].raw) == 0 {
		args = args[:0]
	}
	want := len(m.Params)
	switch {
	case m.Variadic && len(args) == want:
		args = append(args, macroArg{})
	case m.Variadic && len(args) < want:
		pp.errorAt(ErrExpansion, inv, "macro %q expects at least %d arguments, got %d",
			pp.syms.Name(m.Name), want, len(args))
		return nil, false
	case !m.Variadic && len(args) != want:
		pp.errorAt(ErrExpansion, inv, "macro %q expects %d arguments, got %d",
			pp.syms.Name(m.Name), want, len(args))
		return nil, false
	}
	return args, true
}

// substitute builds the replacement list of a function-macro invocation:
// parameter references become argument tokens, # stringizes, ## pastes,
// and the GNU comma elision drops the comma before an empty variadic tail.
func (pp *Preprocessor) substitute(m *Macro, inv Token, args []macroArg) TokenString {
	body := m.Body
	var out TokenString
	for i := 0; i < len(body); i++ {
		t := body[i]

		if t.Kind == HASH && i+1 < len(body) && body[i+1].Kind == IDENT {
			if ai, ok := m.isParam(body[i+1].ID); ok {
				out.add(pp.stringizeArg(args[ai], t))
				i++
				continue
			}
		}

		if t.Kind == HASH_HASH && pp.cfg.GNUExt && m.Variadic &&
			i+1 < len(body) && body[i+1].Kind == IDENT && body[i+1].ID == m.VaName &&
			len(out) > 0 && out[len(out)-1].Kind == COMMA {
			va := &args[len(m.Params)]
			if len(va.raw) == 0 {
				out = out[:len(out)-1] // elide the comma as well
			} else {
				// arguments present: the ## has no effect
				out = append(out, pp.expandedArg(va, t)...)
			}
			i++
			continue
		}

		if t.Kind == IDENT {
			if ai, ok := m.isParam(t.ID); ok {
				prevPaste := len(out) > 0 && out[len(out)-1].Kind == HASH_HASH
				nextPaste := i+1 < len(body) && body[i+1].Kind == HASH_HASH
				if prevPaste || nextPaste {
					out = append(out, rawArg(args[ai], t)...)
				} else {
					out = append(out, pp.expandedArg(&args[ai], t)...)
				}
				continue
			}
		}

		out.add(t)
	}
	if m.HasPaste {
		out = pp.pasteList(out, inv)
	}
	return out
}

// rawArg substitutes an argument verbatim, as the operands of # and ##
// require. An empty argument leaves a placeholder so the paste operator
// always has something to hold on to.
func rawArg(a macroArg, ref Token) TokenString {
	if len(a.raw) == 0 {
		return TokenString{{Kind: PLACEHOLDER}}
	}
	return copyArg(a.raw, ref)
}

// expandedArg substitutes the macro-expanded form of an argument,
// computing it on first reference and reusing it afterwards.
func (pp *Preprocessor) expandedArg(a *macroArg, ref Token) TokenString {
	if !a.done {
		a.expanded = pp.expandList(a.raw)
		a.done = true
	}
	return copyArg(a.expanded, ref)
}

func copyArg(ts TokenString, ref Token) TokenString {
	out := append(TokenString(nil), ts...)
	if len(out) > 0 {
		out[0].Space = ref.Space
	}
	return out
}

// stringizeArg converts the raw argument spelling into one string literal
// token, escaping embedded quotes and backslashes.
func (pp *Preprocessor) stringizeArg(a macroArg, hash Token) Token {
	return Token{
		Kind:  STRING,
		Text:  quoteString(a.raw.spell()),
		Space: hash.Space,
	}
}

// pasteList resolves every ## in a substituted replacement list. The left
// operand is the most recently emitted token, so chained pastes associate
// left to right.
func (pp *Preprocessor) pasteList(ts TokenString, inv Token) TokenString {
	var out TokenString
	for i := 0; i < len(ts); i++ {
		t := ts[i]
		if t.Kind != HASH_HASH || len(out) == 0 || i+1 >= len(ts) {
			out.add(t)
			continue
		}
		left := out[len(out)-1]
		right := ts[i+1]
		i++
		out = out[:len(out)-1]
		out = append(out, pp.pasteTokens(left, right, inv)...)
	}
	return out
}

// pasteTokens concatenates the spellings of two tokens and re-lexes the
// result. Not lexing back to exactly one token is a warning, and the
// partial result is kept.
func (pp *Preprocessor) pasteTokens(left, right, inv Token) TokenString {
	if left.Kind == PLACEHOLDER {
		return TokenString{right}
	}
	if right.Kind == PLACEHOLDER {
		return TokenString{left}
	}
	text := left.Spelling() + right.Spelling()
	lexed := pp.relex(text)
	switch len(lexed) {
	case 0:
		return TokenString{{Kind: PLACEHOLDER}}
	case 1:
		lexed[0].Space = left.Space
		return lexed
	default:
		pp.warnAt(ErrExpansion, inv, "pasting %q and %q does not give a valid preprocessing token",
			left.Spelling(), right.Spelling())
		lexed[0].Space = left.Space
		return lexed
	}
}

// relex runs the scanner over synthesized text: pasted spellings and
// rendered adjacency checks. Diagnostics are suppressed; the callers have
// their own reporting.
func (pp *Preprocessor) relex(text string) TokenString {
	s := newScanner(pp.syms, "<paste>", "", 0, []byte(text), pp.arena, nil)
	var out TokenString
	for {
		t := s.next()
		if t.Kind == EOF {
			return out
		}
		out.add(t)
	}
}

// expandList macro-expands a complete token sequence in place: collected
// macro arguments, computed includes and #line operands. The list is
// closed off by a barrier frame, so an invocation cannot swallow tokens
// that come after the list, and a trailing function-macro name simply
// stays itself.
func (pp *Preprocessor) expandList(ts TokenString) TokenString {
	return pp.expandListMode(ts, false)
}

// expandIfLine is expandList for #if controlling lines: a defined
// operator delivered by expansion keeps its operand unexpanded, so
// #define HAS defined(X) tests X itself rather than X's replacement.
func (pp *Preprocessor) expandIfLine(ts TokenString) TokenString {
	return pp.expandListMode(ts, true)
}

func (pp *Preprocessor) expandListMode(ts TokenString, keepDefined bool) TokenString {
	if len(ts) == 0 {
		return nil
	}
	pp.pushFrame(NoSym, ts, true)
	frame := pp.mstack
	var out TokenString
	for {
		t, ok := pp.expandNext()
		if !ok || t.Kind == EOF {
			break
		}
		out.add(t)
		if keepDefined && t.Kind == IDENT && t.ID == symDefined {
			// Operand read without substitution: IDENT or ( IDENT ).
			op, more := pp.nextPP()
			if !more || op.Kind == EOF {
				break
			}
			out.add(op)
			if op.Kind == LPAREN {
				for i := 0; i < 2; i++ {
					op, more = pp.nextPP()
					if !more || op.Kind == EOF {
						break
					}
					out.add(op)
				}
			}
		}
	}
	// Unwind to below the barrier even when an error cut expansion short
	// with frames still stacked above it.
	for f := pp.mstack; f != nil; f = f.prev {
		if f == frame {
			pp.mstack = frame.prev
			break
		}
	}
	return out
}

// builtinToken computes the value of a builtin macro at its point of
// expansion.
func (pp *Preprocessor) builtinToken(m *Macro, inv Token) Token {
	t := Token{Kind: PPNUM, File: inv.File, Line: inv.Line, Depth: inv.Depth, Space: inv.Space, BOL: inv.BOL}
	switch m.builtin {
	case builtinLine:
		t.Text = strconv.Itoa(inv.Line)
	case builtinFile:
		t.Kind = STRING
		t.Text = quoteString(inv.File)
	case builtinDate:
		t.Kind = STRING
		t.Text = quoteString(pp.dateText)
	case builtinTime:
		t.Kind = STRING
		t.Text = quoteString(pp.timeText)
	case builtinCounter:
		t.Text = strconv.Itoa(pp.counter)
		pp.counter++
	}
	return t
}
