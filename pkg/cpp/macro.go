package cpp

// MacroKind distinguishes object macros from function macros.
type MacroKind int

const (
	ObjectMacro   MacroKind = iota // #define NAME body
	FunctionMacro                  // #define NAME(params) body
)

func (k MacroKind) String() string {
	if k == ObjectMacro {
		return "object"
	}
	return "function"
}

// builtinKind marks the macros whose replacement is computed at expansion
// time instead of being stored as tokens.
type builtinKind int

const (
	builtinNone builtinKind = iota
	builtinLine
	builtinFile
	builtinDate
	builtinTime
	builtinCounter
)

// Macro is one #define. For function macros Params holds the named
// parameters in declaration order; a variadic macro additionally binds the
// trailing arguments to VaName (__VA_ARGS__, or the GNU-style name written
// before "...").
type Macro struct {
	Name     SymID
	Kind     MacroKind
	Params   []SymID
	Variadic bool
	VaName   SymID
	Body     TokenString
	HasPaste bool // body contains ##, needs a paste pass

	builtin builtinKind
}

// isParam maps a symbol to its parameter position, with the variadic name
// counted as the position after the named parameters.
func (m *Macro) isParam(id SymID) (int, bool) {
	for i, p := range m.Params {
		if p == id {
			return i, true
		}
	}
	if m.Variadic && id == m.VaName {
		return len(m.Params), true
	}
	return 0, false
}

// equal reports whether two definitions spell the same macro: same shape,
// same parameters, same replacement list. Redefining a macro with an equal
// definition is silent; anything else warns.
func (m *Macro) equal(o *Macro) bool {
	if m.Kind != o.Kind || m.Variadic != o.Variadic || m.VaName != o.VaName {
		return false
	}
	if len(m.Params) != len(o.Params) {
		return false
	}
	for i := range m.Params {
		if m.Params[i] != o.Params[i] {
			return false
		}
	}
	return sameSpelling(m.Body, o.Body)
}

// MacroTable maps interned names to their current definition. One table is
// owned by one Preprocessor; #pragma push_macro stacks shelved definitions
// per name.
type MacroTable struct {
	syms  *SymbolTable
	defs  map[SymID]*Macro
	saved map[SymID][]*Macro
}

func NewMacroTable(syms *SymbolTable) *MacroTable {
	mt := &MacroTable{
		syms: syms,
		defs: make(map[SymID]*Macro, 64),
	}
	// Builtins occupy table slots so defined() sees them, but their
	// replacement is synthesized per expansion.
	for id, bk := range map[SymID]builtinKind{
		symLINE:    builtinLine,
		symFILE:    builtinFile,
		symDATE:    builtinDate,
		symTIME:    builtinTime,
		symCOUNTER: builtinCounter,
	} {
		mt.defs[id] = &Macro{Name: id, Kind: ObjectMacro, builtin: bk}
	}
	return mt
}

// Define installs m, returning the definition it replaced, if any.
func (mt *MacroTable) Define(m *Macro) *Macro {
	prev := mt.defs[m.Name]
	mt.defs[m.Name] = m
	return prev
}

// Lookup returns the current definition of id, or nil.
func (mt *MacroTable) Lookup(id SymID) *Macro {
	return mt.defs[id]
}

// IsDefined reports whether id currently names a macro, builtins included.
func (mt *MacroTable) IsDefined(id SymID) bool {
	_, ok := mt.defs[id]
	return ok
}

// Undef removes the definition of id, builtins included; expansion of
// __LINE__ and friends stops once they are undefined. Undefining an
// unknown name is a no-op.
func (mt *MacroTable) Undef(id SymID) {
	delete(mt.defs, id)
}

// Shelve saves the current definition of id for a later Unshelve; the
// #pragma push_macro half. A name with no current definition is recorded
// as nil so pop restores "undefined".
func (mt *MacroTable) Shelve(id SymID) {
	if mt.saved == nil {
		mt.saved = make(map[SymID][]*Macro)
	}
	mt.saved[id] = append(mt.saved[id], mt.defs[id])
}

// Unshelve restores the most recently shelved definition of id; the
// #pragma pop_macro half. It reports whether anything was shelved.
func (mt *MacroTable) Unshelve(id SymID) bool {
	stack := mt.saved[id]
	if len(stack) == 0 {
		return false
	}
	m := stack[len(stack)-1]
	mt.saved[id] = stack[:len(stack)-1]
	if m == nil {
		delete(mt.defs, id)
	} else {
		mt.defs[id] = m
	}
	return true
}

// Len reports the number of live definitions, builtins included.
func (mt *MacroTable) Len() int {
	return len(mt.defs)
}
