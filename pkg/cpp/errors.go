package cpp

import "fmt"

// Severity ranks a diagnostic. Warnings never stop preprocessing; errors
// abort the current translation unit after open include files and macro
// expansions are unwound; fatal is reserved for #error, which always stops.
type Severity int

const (
	SevWarning Severity = iota
	SevError
	SevFatal
)

var severityNames = [...]string{
	SevWarning: "warning",
	SevError:   "error",
	SevFatal:   "fatal error",
}

func (s Severity) String() string {
	if int(s) >= 0 && int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ErrKind classifies a diagnostic by the stage that produced it.
type ErrKind int

const (
	ErrLex       ErrKind = iota // bad literals, stray bytes, unterminated comments
	ErrDirective                // malformed directives, #if nesting, #error
	ErrExpansion                // macro argument counts, ## placement, bad paste
	ErrInclude                  // unresolved includes, depth exceeded
	ErrExpr                     // #if expression evaluation
)

var errKindNames = [...]string{
	ErrLex:       "lex",
	ErrDirective: "directive",
	ErrExpansion: "expansion",
	ErrInclude:   "include",
	ErrExpr:      "expr",
}

func (k ErrKind) String() string {
	if int(k) >= 0 && int(k) < len(errKindNames) {
		return errKindNames[k]
	}
	return fmt.Sprintf("ErrKind(%d)", int(k))
}

// Error is a single positioned diagnostic. It doubles as the error value
// returned by the driver, so callers can recover the classification with
// errors.As.
type Error struct {
	Kind ErrKind
	Sev  Severity
	File string
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	switch {
	case e.File == "":
		return fmt.Sprintf("%s: %s", e.Sev, e.Msg)
	case e.Col > 0:
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Col, e.Sev, e.Msg)
	default:
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Sev, e.Msg)
	}
}
