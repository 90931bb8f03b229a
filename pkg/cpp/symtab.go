package cpp

// SymID is the canonical identity of an interned identifier spelling.
// Identifier tokens compare by SymID everywhere downstream, never by text.
type SymID int32

// NoSym is the zero SymID; no interned symbol ever has it.
const NoSym SymID = 0

// Fixed symbols are interned first, in declaration order, so directive
// dispatch and builtin recognition compare against constants.
const (
	symDefine SymID = iota + 1
	symUndef
	symInclude
	symIncludeNext
	symIfdef
	symIfndef
	symIf
	symElif
	symElse
	symEndif
	symLine
	symError
	symWarning
	symPragma
	symDefined
	symHasInclude
	symHasIncludeNext
	symVaArgs
	symLINE
	symFILE
	symDATE
	symTIME
	symCOUNTER
	symOnce
	symPushMacro
	symPopMacro
	symFirstDynamic // keep last
)

var fixedSpellings = [...]string{
	symDefine:         "define",
	symUndef:          "undef",
	symInclude:        "include",
	symIncludeNext:    "include_next",
	symIfdef:          "ifdef",
	symIfndef:         "ifndef",
	symIf:             "if",
	symElif:           "elif",
	symElse:           "else",
	symEndif:          "endif",
	symLine:           "line",
	symError:          "error",
	symWarning:        "warning",
	symPragma:         "pragma",
	symDefined:        "defined",
	symHasInclude:     "__has_include",
	symHasIncludeNext: "__has_include_next",
	symVaArgs:         "__VA_ARGS__",
	symLINE:           "__LINE__",
	symFILE:           "__FILE__",
	symDATE:           "__DATE__",
	symTIME:           "__TIME__",
	symCOUNTER:        "__COUNTER__",
	symOnce:           "once",
	symPushMacro:      "push_macro",
	symPopMacro:       "pop_macro",
}

// cKeywords are interned after the fixed symbols so their ids are stable
// for downstream parsers; the preprocessor itself treats them as ordinary
// identifiers.
var cKeywords = []string{
	"auto", "break", "case", "char", "const", "continue", "default", "do",
	"double", "enum", "extern", "float", "for", "goto", "inline", "int",
	"long", "register", "restrict", "return", "short", "signed", "sizeof",
	"static", "struct", "switch", "typedef", "union", "unsigned", "void",
	"volatile", "while", "_Bool", "_Complex", "_Imaginary",
}

// Symbol is one interned identifier.
type Symbol struct {
	ID   SymID
	Name string
}

// SymbolTable interns identifier spellings into dense SymIDs. It is owned
// by one Preprocessor and never shared.
type SymbolTable struct {
	byName map[string]SymID
	syms   []Symbol // syms[0] unused so that SymID indexes directly
}

// NewSymbolTable returns a table with the fixed symbols and C keywords
// pre-interned.
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{
		byName: make(map[string]SymID, 128),
		syms:   make([]Symbol, 1, 128),
	}
	for id := symDefine; id < symFirstDynamic; id++ {
		if got := st.Intern(fixedSpellings[id]); got != id {
			panic("cpp: fixed symbol order broken: " + fixedSpellings[id])
		}
	}
	for _, kw := range cKeywords {
		st.Intern(kw)
	}
	return st
}

// Intern returns the SymID for name, creating it on first sight.
func (st *SymbolTable) Intern(name string) SymID {
	if id, ok := st.byName[name]; ok {
		return id
	}
	id := SymID(len(st.syms))
	st.syms = append(st.syms, Symbol{ID: id, Name: name})
	st.byName[name] = id
	return id
}

// InternBytes is Intern for a scanner-owned byte buffer. The map lookup on
// the converted key does not allocate on the hit path, so identifiers that
// were seen before cost no copy.
func (st *SymbolTable) InternBytes(b []byte) SymID {
	if id, ok := st.byName[string(b)]; ok {
		return id
	}
	return st.Intern(string(b))
}

// Lookup returns the SymID for name without interning.
func (st *SymbolTable) Lookup(name string) (SymID, bool) {
	id, ok := st.byName[name]
	return id, ok
}

// Name returns the spelling of an interned symbol.
func (st *SymbolTable) Name(id SymID) string {
	if id <= 0 || int(id) >= len(st.syms) {
		return ""
	}
	return st.syms[id].Name
}

// Len reports the number of interned symbols.
func (st *SymbolTable) Len() int {
	return len(st.syms) - 1
}
