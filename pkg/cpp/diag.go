package cpp

import (
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
)

// DiagSink receives every diagnostic the preprocessor produces, warnings
// included. Errors additionally surface through the driver's return values.
type DiagSink interface {
	Emit(d *Error)
}

// WriterSink formats diagnostics as compiler-style text, one per line.
// With Color set, the severity word is wrapped in ANSI color codes.
type WriterSink struct {
	W     io.Writer
	Color bool
}

func (s *WriterSink) Emit(d *Error) {
	if !s.Color {
		fmt.Fprintln(s.W, d.Error())
		return
	}
	color := "\x1b[31;1m" // red for errors
	if d.Sev == SevWarning {
		color = "\x1b[35;1m" // magenta for warnings
	}
	pos := ""
	switch {
	case d.File == "":
	case d.Col > 0:
		pos = fmt.Sprintf("%s:%d:%d: ", d.File, d.Line, d.Col)
	default:
		pos = fmt.Sprintf("%s:%d: ", d.File, d.Line)
	}
	fmt.Fprintf(s.W, "%s%s%s:\x1b[0m %s\n", pos, color, d.Sev, d.Msg)
}

var diagJSON = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonDiag struct {
	Severity string `json:"severity"`
	Kind     string `json:"kind"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Message  string `json:"message"`
}

// JSONSink emits diagnostics as JSON objects, one per line, for tooling
// that consumes machine-readable compiler output.
type JSONSink struct {
	W io.Writer

	mu  sync.Mutex
	enc *jsoniter.Encoder
}

func (s *JSONSink) Emit(d *Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enc == nil {
		s.enc = diagJSON.NewEncoder(s.W)
	}
	// Encode appends a newline after every object.
	_ = s.enc.Encode(jsonDiag{
		Severity: d.Sev.String(),
		Kind:     d.Kind.String(),
		File:     d.File,
		Line:     d.Line,
		Column:   d.Col,
		Message:  d.Msg,
	})
}

// CollectSink records diagnostics in order; test helper and library default.
type CollectSink struct {
	All []*Error
}

func (s *CollectSink) Emit(d *Error) {
	s.All = append(s.All, d)
}

// Warnings returns only the warning-severity diagnostics.
func (s *CollectSink) Warnings() []*Error {
	var out []*Error
	for _, d := range s.All {
		if d.Sev == SevWarning {
			out = append(out, d)
		}
	}
	return out
}

// Errors returns diagnostics of error severity or worse.
func (s *CollectSink) Errors() []*Error {
	var out []*Error
	for _, d := range s.All {
		if d.Sev >= SevError {
			out = append(out, d)
		}
	}
	return out
}
