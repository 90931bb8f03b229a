// Package cpp implements a C preprocessor: a character-level tokenizer
// producing preprocessing tokens, object/function macro expansion with
// stringize, paste and variadic support, conditional compilation, include
// resolution with guard caching, and constant-expression evaluation.
//
// Pipeline: source bytes → pp-tokens → directives + macro expansion → tokens,
// pulled one at a time through Preprocessor.NextToken, or rendered back to
// text with Preprocessor.Preprocess.
package cpp

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gocpp/pkg/vfs"
)

// guardPhase tracks include-guard detection across one file's life.
type guardPhase int8

const (
	guardFresh guardPhase = iota // nothing but blanks seen yet
	guardOpen                    // inside the opening #ifndef block
	guardArmed                   // block closed, nothing after it so far
	guardDead                    // pattern broken, no guard
)

// sourceFile is one open level of the include stack.
type sourceFile struct {
	scan   *Scanner
	parent *sourceFile
	path   string

	searchIdx  int // search slot this file resolved from, for include_next
	condBase   int // conditional depth on entry; #endif may not cross it
	guardState guardPhase
	guardSym   SymID
	cacheEnt   *cachedInclude // cache entry to annotate, nil for the main file
}

// Preprocessor drives scanning, directive handling and macro expansion
// over a stack of source files and hands out the resulting token stream.
// One Preprocessor processes one translation unit; it is not safe for
// concurrent use.
type Preprocessor struct {
	cfg      Config
	fs       vfs.FS
	sink     DiagSink
	syms     *SymbolTable
	macros   *MacroTable
	arena    *Arena
	includes *includeCache

	stack  *sourceFile
	depth  int // include depth of the current file, 0 in the main file
	mstack *macroFrame
	conds  []condFrame

	counter  int
	dateText string
	timeText string

	warnings int
	err      *Error
}

// predefinedMacros are installed before any configured define.
var predefinedMacros = []string{
	"__STDC__=1",
	"__STDC_VERSION__=199901L",
	"__STDC_HOSTED__=1",
}

// New builds a Preprocessor for one translation unit. The configured
// defines and undefines are applied immediately; a malformed define is
// the only way New fails in practice.
func New(cfg Config) (*Preprocessor, error) {
	if cfg.FS == nil {
		cfg.FS = vfs.OSFS{}
	}
	if cfg.Diags == nil {
		cfg.Diags = &WriterSink{W: os.Stderr}
	}
	if cfg.MaxIncludeDepth <= 0 {
		cfg.MaxIncludeDepth = defaultIncludeDepth
	}
	syms := NewSymbolTable()
	pp := &Preprocessor{
		cfg:     cfg,
		fs:      cfg.FS,
		sink:    cfg.Diags,
		syms:    syms,
		macros:  NewMacroTable(syms),
		arena:   NewArena(1024, 8192),
		counter: cfg.CounterStart,
	}
	includes, err := newIncludeCache(0)
	if err != nil {
		return nil, err
	}
	pp.includes = includes

	now := time.Now()
	pp.dateText = now.Format("Jan _2 2006")
	pp.timeText = now.Format("15:04:05")

	for _, spec := range predefinedMacros {
		if err := pp.DefineText(spec); err != nil {
			return nil, err
		}
	}
	for _, spec := range cfg.Defines {
		if err := pp.DefineText(spec); err != nil {
			return nil, err
		}
	}
	for _, name := range cfg.Undefines {
		pp.UndefineText(name)
	}
	return pp, nil
}

// DefineText installs a macro from its -D spelling: NAME, NAME=VALUE or
// NAME(params)=VALUE. A bare NAME defines it as 1.
func (pp *Preprocessor) DefineText(spec string) error {
	name, val := spec, "1"
	if i := strings.IndexByte(spec, '='); i >= 0 {
		name, val = spec[:i], spec[i+1:]
	}
	src := name + " " + val + "\n"

	saved := pp.stack
	s := newScanner(pp.syms, "<command line>", "", 0, []byte(src), pp.arena, nil)
	pp.stack = &sourceFile{
		scan:       s,
		path:       "<command line>",
		searchIdx:  -1,
		condBase:   len(pp.conds),
		guardState: guardDead,
		guardSym:   NoSym,
	}
	pp.handleDefine(Token{Kind: IDENT, ID: symDefine, Text: "define", File: "<command line>", Line: 1})
	pp.stack = saved

	if pp.err != nil {
		err := pp.err
		pp.err = nil
		return err
	}
	return nil
}

// UndefineText removes a macro by name, the -U form.
func (pp *Preprocessor) UndefineText(name string) {
	if id, ok := pp.syms.Lookup(name); ok {
		pp.macros.Undef(id)
	}
}

// Open begins preprocessing the file at path through the configured file
// system. Call it once, before the first NextToken.
func (pp *Preprocessor) Open(path string) error {
	data, err := pp.fs.ReadFile(path)
	if err != nil {
		e := &Error{Kind: ErrInclude, Sev: SevFatal, Msg: fmt.Sprintf("cannot open %s", path)}
		pp.emit(e)
		return e
	}
	pp.pushSource(path, data, -1, nil)
	pp.curScanner().skipShebang()
	return nil
}

// OpenSource begins preprocessing name with the given contents, without
// consulting the file system.
func (pp *Preprocessor) OpenSource(name, src string) {
	pp.pushSource(name, []byte(src), -1, nil)
	pp.curScanner().skipShebang()
}

func (pp *Preprocessor) pushSource(path string, data []byte, slot int, ent *cachedInclude) {
	depth := 0
	if pp.stack != nil {
		depth = pp.depth + 1
	}
	s := newScanner(pp.syms, path, path, depth, data, pp.arena, nil)
	s.errfn = func(kind ErrKind, line, col int, format string, args ...any) {
		pp.report(kind, SevError, s.name, line, col, format, args...)
	}
	pp.stack = &sourceFile{
		scan:       s,
		parent:     pp.stack,
		path:       path,
		searchIdx:  slot,
		condBase:   len(pp.conds),
		guardState: guardFresh,
		guardSym:   NoSym,
		cacheEnt:   ent,
	}
	pp.depth = depth
}

// popSource closes the current file: conditionals left open are an
// error, and a file whose guard pattern held to the end records its
// guard macro for the include cache.
func (pp *Preprocessor) popSource(f *sourceFile) {
	if len(pp.conds) > f.condBase {
		open := pp.conds[len(pp.conds)-1]
		pp.report(ErrDirective, SevError, open.file, open.line, 0, "missing #endif")
		pp.conds = pp.conds[:f.condBase]
	}
	if f.guardState == guardArmed && f.guardSym != NoSym && f.cacheEnt != nil {
		f.cacheEnt.guard = f.guardSym
	}
	pp.stack = f.parent
	if pp.depth > 0 {
		pp.depth--
	}
}

func (pp *Preprocessor) curScanner() *Scanner { return pp.stack.scan }

// fileTok returns the next token of the file stream. Directives are
// recognized and consumed here, which is also what makes them invisible
// to macro expansion: expansion only ever pulls from fileTok once its
// own frames are drained, so a '#' inside a replacement list is plain
// text. At end of file the include stack pops; at end of the last file,
// or after a hard error, every call returns EOF.
func (pp *Preprocessor) fileTok() Token {
	for {
		if pp.err != nil || pp.stack == nil {
			return Token{Kind: EOF}
		}
		f := pp.stack
		t := f.scan.next()
		switch {
		case t.Kind == EOF:
			pp.popSource(f)
			if pp.stack == nil {
				return t
			}
			continue
		case t.Kind == HASH && t.BOL:
			pp.handleDirective(t)
			continue
		}
		// Delivered text outside the guarded block breaks a file's
		// include-guard candidacy.
		if f.guardState == guardFresh || f.guardState == guardArmed {
			f.guardState = guardDead
		}
		return t
	}
}

// NextToken returns the next fully preprocessed token: directives
// executed, macros expanded, literals converted. The stream ends with an
// EOF token; after a hard error every call returns EOF and the error.
func (pp *Preprocessor) NextToken() (Token, error) {
	t, _ := pp.expandNext()
	if pp.err == nil && t.Kind != EOF {
		pp.convertToken(&t)
	}
	if pp.err != nil {
		return Token{Kind: EOF, File: t.File, Line: t.Line}, pp.err
	}
	return t, nil
}

// NextTokenRaw returns the next preprocessing token with directives
// executed but no macro expansion and no literal conversion: the stream
// a -fdirectives-only run would see. Mixing it with NextToken on the
// same Preprocessor is not meaningful.
func (pp *Preprocessor) NextTokenRaw() (Token, error) {
	t := pp.fileTok()
	if pp.err != nil {
		return Token{Kind: EOF, File: t.File, Line: t.Line}, pp.err
	}
	return t, nil
}

// convertToken turns a pp-token into its consumer form: numbers get
// values, character constants become ints, strings decode their escapes.
func (pp *Preprocessor) convertToken(t *Token) {
	switch t.Kind {
	case PPNUM:
		nv, err := interpretNumber(t.Text)
		if err != nil {
			pp.errorAt(ErrLex, *t, "%v", err)
			return
		}
		if nv.isFloat {
			t.Kind = FLOATLIT
			t.FVal = nv.fval
		} else {
			t.Kind = INTLIT
			t.IVal = nv.ival
			t.Unsigned = nv.unsigned
		}
	case CHARCONST:
		v, multi, err := interpretCharConst(t.Text)
		if err != nil {
			pp.errorAt(ErrLex, *t, "%v", err)
			return
		}
		if multi {
			pp.warnAt(ErrLex, *t, "multi-character character constant")
		}
		t.Kind = INTLIT
		t.IVal = v
	case STRING:
		decoded, err := interpretString(t.Text)
		if err != nil {
			pp.errorAt(ErrLex, *t, "%v", err)
			return
		}
		t.Str = decoded
	}
}

// emit hands a diagnostic to the sink and latches the first hard error.
// Once latched, nothing further is reported: the stream is winding down
// and later diagnostics would only describe the unwinding itself.
func (pp *Preprocessor) emit(d *Error) {
	if pp.err != nil {
		return
	}
	if pp.sink != nil {
		pp.sink.Emit(d)
	}
	if d.Sev >= SevError {
		pp.err = d
	} else {
		pp.warnings++
	}
}

func (pp *Preprocessor) emitError(err error) {
	if e, ok := err.(*Error); ok {
		pp.emit(e)
		return
	}
	pp.emit(&Error{Kind: ErrExpr, Sev: SevError, Msg: err.Error()})
}

func (pp *Preprocessor) report(kind ErrKind, sev Severity, file string, line, col int, format string, args ...any) {
	pp.emit(&Error{
		Kind: kind,
		Sev:  sev,
		File: file,
		Line: line,
		Col:  col,
		Msg:  fmt.Sprintf(format, args...),
	})
}

func (pp *Preprocessor) errorAt(kind ErrKind, at Token, format string, args ...any) {
	pp.report(kind, SevError, at.File, at.Line, at.Col, format, args...)
}

func (pp *Preprocessor) warnAt(kind ErrKind, at Token, format string, args ...any) {
	pp.report(kind, SevWarning, at.File, at.Line, at.Col, format, args...)
}

// Err returns the error that stopped the run, nil after a clean one.
func (pp *Preprocessor) Err() error {
	if pp.err == nil {
		return nil
	}
	return pp.err
}

// Warnings reports how many warnings were emitted.
func (pp *Preprocessor) Warnings() int { return pp.warnings }

// Symbols exposes the interning table; token IDs resolve through it.
func (pp *Preprocessor) Symbols() *SymbolTable { return pp.syms }

// Macros exposes the macro table, mostly so tools can inspect the final
// definition state.
func (pp *Preprocessor) Macros() *MacroTable { return pp.macros }

// ArenaStats reports scratch-memory usage for the run so far.
func (pp *Preprocessor) ArenaStats() ArenaStats { return pp.arena.Stats() }
