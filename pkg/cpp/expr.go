package cpp

import "fmt"

// ppValue is an intermediate value in a #if controlling expression.
// Arithmetic follows C's widest integer types: every operand is 64-bit,
// and an operation is unsigned as soon as either side is.
type ppValue struct {
	v        uint64
	unsigned bool
}

func boolValue(b bool) ppValue {
	if b {
		return ppValue{v: 1}
	}
	return ppValue{}
}

// evalCondition decides a #if or #elif directive. line holds the raw
// tokens after the directive name. The defined operator and the
// __has_include forms are folded before macro expansion, then the
// expanded list is parsed as a C conditional expression. Identifiers
// that survive expansion evaluate to zero. The second result is false
// when a hard error aborted evaluation.
func (pp *Preprocessor) evalCondition(line TokenString, at Token) (bool, bool) {
	if pp.err != nil {
		return false, false
	}
	if len(line) == 0 {
		pp.errorAt(ErrExpr, at, "#if with no expression")
		return false, false
	}
	pre := pp.foldDefined(line, at)
	if pp.err != nil {
		return false, false
	}
	expanded := pp.expandIfLine(pre)
	if pp.err != nil {
		return false, false
	}
	p := &exprParser{pp: pp, toks: expanded, at: at}
	v, err := p.parseTernary()
	if err != nil {
		pp.emitError(err)
		return false, false
	}
	if p.pos < len(p.toks) {
		t := p.toks[p.pos]
		pp.emitError(p.errf(t, "extra tokens after expression"))
		return false, false
	}
	return v.v != 0, true
}

// foldDefined rewrites defined, __has_include and __has_include_next
// uses into 0/1 number tokens so that macro expansion never touches
// their operands.
func (pp *Preprocessor) foldDefined(line TokenString, at Token) TokenString {
	out := make(TokenString, 0, len(line))
	for i := 0; i < len(line); {
		t := line[i]
		if t.Kind != IDENT || (t.ID != symDefined && t.ID != symHasInclude && t.ID != symHasIncludeNext) {
			out = append(out, t)
			i++
			continue
		}
		name := pp.syms.Name(t.ID)
		if t.ID == symDefined {
			j := i + 1
			paren := j < len(line) && line[j].Kind == LPAREN
			if paren {
				j++
			}
			if j >= len(line) || line[j].Kind != IDENT {
				pp.errorAt(ErrExpr, t, "operator %q requires an identifier", name)
				return nil
			}
			val := pp.macros.IsDefined(line[j].ID)
			j++
			if paren {
				if j >= len(line) || line[j].Kind != RPAREN {
					pp.errorAt(ErrExpr, t, "missing ')' after %q", name)
					return nil
				}
				j++
			}
			out = append(out, foldedNumber(val, t))
			i = j
			continue
		}

		// __has_include / __has_include_next
		j := i + 1
		if j >= len(line) || line[j].Kind != LPAREN {
			pp.errorAt(ErrExpr, t, "missing '(' after %q", name)
			return nil
		}
		j++
		depth := 1
		start := j
		for j < len(line) && depth > 0 {
			switch line[j].Kind {
			case LPAREN:
				depth++
			case RPAREN:
				depth--
			}
			j++
		}
		if depth != 0 {
			pp.errorAt(ErrExpr, t, "missing ')' after %q", name)
			return nil
		}
		inner := line[start : j-1]
		hname, quoted, ok := headerNameFromTokens(inner)
		if !ok {
			expanded := pp.expandList(inner)
			if pp.err != nil {
				return nil
			}
			hname, quoted, ok = headerNameFromTokens(expanded)
		}
		if !ok {
			pp.errorAt(ErrExpr, t, "missing header name in %q", name)
			return nil
		}
		found := pp.hasInclude(hname, quoted, t.ID == symHasIncludeNext)
		out = append(out, foldedNumber(found, t))
		i = j
	}
	return out
}

func foldedNumber(v bool, ref Token) Token {
	text := "0"
	if v {
		text = "1"
	}
	return Token{
		Kind:  PPNUM,
		Text:  text,
		File:  ref.File,
		Line:  ref.Line,
		Col:   ref.Col,
		Space: ref.Space,
	}
}

// exprParser evaluates an expanded #if expression. noEval is raised
// while parsing operands that short-circuiting has already discarded,
// so their arithmetic faults are ignored.
type exprParser struct {
	pp     *Preprocessor
	toks   TokenString
	pos    int
	at     Token
	noEval int
}

func (p *exprParser) peek() Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return Token{Kind: EOF}
}

func (p *exprParser) advance() Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *exprParser) errf(tok Token, format string, args ...any) error {
	file, line, col := tok.File, tok.Line, tok.Col
	if file == "" {
		file, line, col = p.at.File, p.at.Line, p.at.Col
	}
	return &Error{
		Kind: ErrExpr,
		Sev:  SevError,
		File: file,
		Line: line,
		Col:  col,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// parseTernary handles cond ? a : b.
func (p *exprParser) parseTernary() (ppValue, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return ppValue{}, err
	}
	if p.peek().Kind != QUESTION {
		return cond, nil
	}
	p.advance()
	if cond.v == 0 {
		p.noEval++
	}
	thenV, err := p.parseTernary()
	if cond.v == 0 {
		p.noEval--
	}
	if err != nil {
		return ppValue{}, err
	}
	if p.peek().Kind != COLON {
		return ppValue{}, p.errf(p.peek(), "expected ':' in conditional expression")
	}
	p.advance()
	if cond.v != 0 {
		p.noEval++
	}
	elseV, err := p.parseTernary()
	if cond.v != 0 {
		p.noEval--
	}
	if err != nil {
		return ppValue{}, err
	}
	out := elseV
	if cond.v != 0 {
		out = thenV
	}
	out.unsigned = thenV.unsigned || elseV.unsigned
	return out, nil
}

// parseLogicalOr handles ||
func (p *exprParser) parseLogicalOr() (ppValue, error) {
	expr, err := p.parseLogicalAnd()
	if err != nil {
		return ppValue{}, err
	}
	for p.peek().Kind == OR_LOGICAL {
		p.advance()
		if expr.v != 0 {
			p.noEval++
		}
		right, err := p.parseLogicalAnd()
		if expr.v != 0 {
			p.noEval--
		}
		if err != nil {
			return ppValue{}, err
		}
		expr = boolValue(expr.v != 0 || right.v != 0)
	}
	return expr, nil
}

// parseLogicalAnd handles &&
func (p *exprParser) parseLogicalAnd() (ppValue, error) {
	expr, err := p.parseBitwiseOr()
	if err != nil {
		return ppValue{}, err
	}
	for p.peek().Kind == AND_LOGICAL {
		p.advance()
		if expr.v == 0 {
			p.noEval++
		}
		right, err := p.parseBitwiseOr()
		if expr.v == 0 {
			p.noEval--
		}
		if err != nil {
			return ppValue{}, err
		}
		expr = boolValue(expr.v != 0 && right.v != 0)
	}
	return expr, nil
}

// parseBitwiseOr handles | (lowest precedence among bitwise ops)
func (p *exprParser) parseBitwiseOr() (ppValue, error) {
	expr, err := p.parseBitwiseXor()
	if err != nil {
		return ppValue{}, err
	}
	for p.peek().Kind == PIPE {
		p.advance()
		right, err := p.parseBitwiseXor()
		if err != nil {
			return ppValue{}, err
		}
		expr = ppValue{v: expr.v | right.v, unsigned: expr.unsigned || right.unsigned}
	}
	return expr, nil
}

// parseBitwiseXor handles ^
func (p *exprParser) parseBitwiseXor() (ppValue, error) {
	expr, err := p.parseBitwiseAnd()
	if err != nil {
		return ppValue{}, err
	}
	for p.peek().Kind == CARET {
		p.advance()
		right, err := p.parseBitwiseAnd()
		if err != nil {
			return ppValue{}, err
		}
		expr = ppValue{v: expr.v ^ right.v, unsigned: expr.unsigned || right.unsigned}
	}
	return expr, nil
}

// parseBitwiseAnd handles binary &
func (p *exprParser) parseBitwiseAnd() (ppValue, error) {
	expr, err := p.parseEquality()
	if err != nil {
		return ppValue{}, err
	}
	for p.peek().Kind == AND {
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return ppValue{}, err
		}
		expr = ppValue{v: expr.v & right.v, unsigned: expr.unsigned || right.unsigned}
	}
	return expr, nil
}

// parseEquality handles == and !=
func (p *exprParser) parseEquality() (ppValue, error) {
	expr, err := p.parseRelational()
	if err != nil {
		return ppValue{}, err
	}
	for p.peek().Kind == EQUALS || p.peek().Kind == NOT_EQ {
		op := p.advance().Kind
		right, err := p.parseRelational()
		if err != nil {
			return ppValue{}, err
		}
		eq := expr.v == right.v
		if op == NOT_EQ {
			eq = !eq
		}
		expr = boolValue(eq)
	}
	return expr, nil
}

// parseRelational handles <, >, <= and >=
func (p *exprParser) parseRelational() (ppValue, error) {
	expr, err := p.parseShift()
	if err != nil {
		return ppValue{}, err
	}
	for p.peek().Kind == LESS || p.peek().Kind == GREATER ||
		p.peek().Kind == LESS_EQ || p.peek().Kind == GREATER_EQ {
		op := p.advance().Kind
		right, err := p.parseShift()
		if err != nil {
			return ppValue{}, err
		}
		var lt, eq bool
		if expr.unsigned || right.unsigned {
			lt = expr.v < right.v
		} else {
			lt = int64(expr.v) < int64(right.v)
		}
		eq = expr.v == right.v
		switch op {
		case LESS:
			expr = boolValue(lt)
		case GREATER:
			expr = boolValue(!lt && !eq)
		case LESS_EQ:
			expr = boolValue(lt || eq)
		case GREATER_EQ:
			expr = boolValue(!lt)
		}
	}
	return expr, nil
}

// parseShift handles << and >>
func (p *exprParser) parseShift() (ppValue, error) {
	expr, err := p.parseAdditive()
	if err != nil {
		return ppValue{}, err
	}
	for p.peek().Kind == SHL_OP || p.peek().Kind == SHR_OP {
		opTok := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return ppValue{}, err
		}
		if !right.unsigned && int64(right.v) < 0 {
			if p.noEval == 0 {
				return ppValue{}, p.errf(opTok, "shift count is negative")
			}
			expr = ppValue{unsigned: expr.unsigned}
			continue
		}
		n := uint(right.v)
		if right.v > 64 {
			n = 64
		}
		if opTok.Kind == SHL_OP {
			expr = ppValue{v: expr.v << n, unsigned: expr.unsigned}
		} else if expr.unsigned {
			expr = ppValue{v: expr.v >> n, unsigned: true}
		} else {
			expr = ppValue{v: uint64(int64(expr.v) >> n)}
		}
	}
	return expr, nil
}

// parseAdditive handles + and -
func (p *exprParser) parseAdditive() (ppValue, error) {
	expr, err := p.parseMultiplicative()
	if err != nil {
		return ppValue{}, err
	}
	for p.peek().Kind == PLUS || p.peek().Kind == MINUS {
		op := p.advance().Kind
		right, err := p.parseMultiplicative()
		if err != nil {
			return ppValue{}, err
		}
		v := expr.v + right.v
		if op == MINUS {
			v = expr.v - right.v
		}
		expr = ppValue{v: v, unsigned: expr.unsigned || right.unsigned}
	}
	return expr, nil
}

// parseMultiplicative handles *, / and %
func (p *exprParser) parseMultiplicative() (ppValue, error) {
	expr, err := p.parseUnary()
	if err != nil {
		return ppValue{}, err
	}
	for p.peek().Kind == STAR || p.peek().Kind == SLASH || p.peek().Kind == PERCENT {
		opTok := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return ppValue{}, err
		}
		uns := expr.unsigned || right.unsigned
		switch opTok.Kind {
		case STAR:
			expr = ppValue{v: expr.v * right.v, unsigned: uns}
		default:
			if right.v == 0 {
				if p.noEval == 0 {
					return ppValue{}, p.errf(opTok, "division by zero in #if")
				}
				expr = ppValue{unsigned: uns}
				continue
			}
			var v uint64
			if uns {
				if opTok.Kind == SLASH {
					v = expr.v / right.v
				} else {
					v = expr.v % right.v
				}
			} else {
				if opTok.Kind == SLASH {
					v = uint64(int64(expr.v) / int64(right.v))
				} else {
					v = uint64(int64(expr.v) % int64(right.v))
				}
			}
			expr = ppValue{v: v, unsigned: uns}
		}
	}
	return expr, nil
}

// parseUnary handles prefix +, -, ! and ~
func (p *exprParser) parseUnary() (ppValue, error) {
	switch p.peek().Kind {
	case PLUS:
		p.advance()
		return p.parseUnary()
	case MINUS:
		p.advance()
		v, err := p.parseUnary()
		if err != nil {
			return ppValue{}, err
		}
		return ppValue{v: -v.v, unsigned: v.unsigned}, nil
	case NOT:
		p.advance()
		v, err := p.parseUnary()
		if err != nil {
			return ppValue{}, err
		}
		return boolValue(v.v == 0), nil
	case TILDE:
		p.advance()
		v, err := p.parseUnary()
		if err != nil {
			return ppValue{}, err
		}
		return ppValue{v: ^v.v, unsigned: v.unsigned}, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (ppValue, error) {
	t := p.advance()
	switch t.Kind {
	case PPNUM:
		nv, err := interpretNumber(t.Text)
		if err != nil {
			return ppValue{}, p.errf(t, "%v", err)
		}
		if nv.isFloat {
			return ppValue{}, p.errf(t, "floating constant in preprocessor expression")
		}
		return ppValue{v: nv.ival, unsigned: nv.unsigned}, nil
	case CHARCONST:
		v, _, err := interpretCharConst(t.Text)
		if err != nil {
			return ppValue{}, p.errf(t, "%v", err)
		}
		return ppValue{v: v}, nil
	case IDENT:
		// A defined operator produced by macro expansion is still
		// honored, the way most compilers do.
		if t.ID == symDefined {
			return p.parseDefinedOperand(t)
		}
		return ppValue{}, nil
	case STRING:
		return ppValue{}, p.errf(t, "token %s is not valid in a preprocessor expression", t.Spelling())
	case LPAREN:
		v, err := p.parseTernary()
		if err != nil {
			return ppValue{}, err
		}
		if p.peek().Kind != RPAREN {
			return ppValue{}, p.errf(p.peek(), "expected ')' in preprocessor expression")
		}
		p.advance()
		return v, nil
	case EOF:
		return ppValue{}, p.errf(t, "expression expected")
	}
	return ppValue{}, p.errf(t, "token %q is not valid in a preprocessor expression", t.Spelling())
}

func (p *exprParser) parseDefinedOperand(kw Token) (ppValue, error) {
	paren := false
	if p.peek().Kind == LPAREN {
		paren = true
		p.advance()
	}
	t := p.advance()
	if t.Kind != IDENT {
		return ppValue{}, p.errf(kw, "operator \"defined\" requires an identifier")
	}
	if paren {
		if p.peek().Kind != RPAREN {
			return ppValue{}, p.errf(p.peek(), "missing ')' after \"defined\"")
		}
		p.advance()
	}
	return boolValue(p.pp.macros.IsDefined(t.ID)), nil
}
