package cpp

// condFrame is one open conditional. Only conditionals whose controlling
// line has been reached in normal flow live on the stack; nesting inside a
// skipped branch is counted by the skip scanner and never materializes.
type condFrame struct {
	taken    bool // some branch of this conditional has been entered
	seenElse bool
	file     string
	line     int
}

func (pp *Preprocessor) condPush(taken bool, at Token) {
	pp.conds = append(pp.conds, condFrame{taken: taken, file: at.File, line: at.Line})
}

// condPop closes the innermost conditional. When it brings the current
// file back to the depth it was opened at, a pending include-guard
// candidate is armed: if nothing but whitespace follows, the file records
// its guard macro at EOF.
func (pp *Preprocessor) condPop() {
	pp.conds = pp.conds[:len(pp.conds)-1]
	if f := pp.stack; f != nil && f.guardState == guardOpen && len(pp.conds) == f.condBase {
		f.guardState = guardArmed
	}
}

// guardBreak cancels include-guard candidacy when a branch boundary shows
// up at the guard conditional's own level: a header whose opening #ifndef
// has an #elif or #else arm does not include idempotently.
func (pp *Preprocessor) guardBreak() {
	if f := pp.stack; f != nil && f.guardState == guardOpen && len(pp.conds) == f.condBase+1 {
		f.guardState = guardDead
	}
}

// handleIf processes #if, #ifdef and #ifndef arriving in normal flow.
func (pp *Preprocessor) handleIf(dir SymID, at Token) {
	taken := false
	switch dir {
	case symIf:
		line := pp.readDirectiveLine()
		v, ok := pp.evalCondition(line, at)
		if !ok {
			return // hard error; the unit is aborted
		}
		taken = v
	case symIfdef, symIfndef:
		line := pp.readDirectiveLine()
		if len(line) == 0 || line[0].Kind != IDENT {
			pp.errorAt(ErrDirective, at, "macro name missing after #%s", pp.syms.Name(dir))
			return
		}
		taken = pp.macros.IsDefined(line[0].ID)
		if dir == symIfndef {
			taken = !taken
			// A file opening with #ifndef at its outermost level is an
			// include-guard candidate until proven otherwise.
			if f := pp.stack; f != nil && f.guardState == guardFresh && len(pp.conds) == f.condBase {
				f.guardState = guardOpen
				f.guardSym = line[0].ID
			}
		}
	}
	pp.condPush(taken, at)
	if !taken {
		pp.skipBranches(true)
	}
}

// handleElif processes an #elif reached in normal flow, which means the
// branch above it was taken; everything down to #endif is skipped.
func (pp *Preprocessor) handleElif(at Token) {
	if len(pp.conds) == 0 {
		pp.errorAt(ErrDirective, at, "#elif without #if")
		return
	}
	if pp.conds[len(pp.conds)-1].seenElse {
		pp.errorAt(ErrDirective, at, "#elif after #else")
		return
	}
	pp.guardBreak()
	pp.curScanner().restOfLine()
	pp.skipBranches(false)
}

// handleElse processes an #else reached in normal flow.
func (pp *Preprocessor) handleElse(at Token) {
	if len(pp.conds) == 0 {
		pp.errorAt(ErrDirective, at, "#else without #if")
		return
	}
	frame := &pp.conds[len(pp.conds)-1]
	if frame.seenElse {
		pp.errorAt(ErrDirective, at, "#else after #else")
		return
	}
	pp.guardBreak()
	frame.seenElse = true
	pp.curScanner().restOfLine()
	if frame.taken {
		pp.skipBranches(false)
		return
	}
	frame.taken = true
}

// handleEndif processes an #endif reached in normal flow.
func (pp *Preprocessor) handleEndif(at Token) {
	if len(pp.conds) == 0 || len(pp.conds) <= pp.stack.condBase {
		pp.errorAt(ErrDirective, at, "#endif without #if")
		return
	}
	pp.curScanner().restOfLine()
	pp.condPop()
}

// skipBranches drives the fast skip scanner from just after a false or
// exhausted branch head until a branch is entered or the conditional
// closes. atBOL is false when the rejected directive's line has not been
// fully consumed yet.
func (pp *Preprocessor) skipBranches(atBOL bool) {
	for {
		s := pp.curScanner()
		switch s.skipConditional(atBOL) {
		case skipEOF:
			frame := pp.conds[len(pp.conds)-1]
			pp.report(ErrDirective, SevError, frame.file, frame.line, 0, "missing #endif")
			return
		case skipEndif:
			s.restOfLine()
			pp.condPop()
			return
		case skipElse:
			frame := &pp.conds[len(pp.conds)-1]
			if frame.seenElse {
				pp.report(ErrDirective, SevError, s.name, s.line, 0, "#else after #else")
				return
			}
			pp.guardBreak()
			frame.seenElse = true
			s.restOfLine()
			if !frame.taken {
				frame.taken = true
				return
			}
			atBOL = false
		case skipElif:
			frame := &pp.conds[len(pp.conds)-1]
			if frame.seenElse {
				pp.report(ErrDirective, SevError, s.name, s.line, 0, "#elif after #else")
				return
			}
			pp.guardBreak()
			if frame.taken {
				atBOL = false
				continue
			}
			at := Token{File: s.name, Line: s.line}
			line := pp.readDirectiveLine()
			v, ok := pp.evalCondition(line, at)
			if !ok {
				return
			}
			if v {
				frame.taken = true
				return
			}
			atBOL = true
		}
	}
}
