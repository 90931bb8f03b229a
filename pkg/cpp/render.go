package cpp

import (
	"bufio"
	"fmt"
	"io"
)

// Preprocess runs the whole translation unit and writes the expanded
// source to w: macro-expanded pp-tokens with line markers recording
// every transition, so a compiler consuming the output attributes
// diagnostics to the original files. Open or OpenSource must have been
// called first.
func (pp *Preprocessor) Preprocess(w io.Writer) error {
	bw := bufio.NewWriter(w)
	r := renderer{pp: pp, w: bw, atBOL: true}
	r.run()
	if pp.err != nil {
		bw.Flush()
		return pp.err
	}
	return bw.Flush()
}

// renderer tracks the output position: which file and line the text
// written so far claims to be at, and whether the pen sits at the start
// of a line.
type renderer struct {
	pp *Preprocessor
	w  *bufio.Writer

	started bool
	atBOL   bool
	wrote   bool
	file    string
	line    int
	depth   int
	prev    Token
}

func (r *renderer) run() {
	for {
		t, _ := r.pp.expandNext()
		if r.pp.err != nil || t.Kind == EOF {
			break
		}
		r.syncLoc(t)
		r.emitTok(t)
	}
	if r.wrote && !r.atBOL {
		r.w.WriteByte('\n')
	}
}

// syncLoc moves the output position to the token's source position:
// small forward gaps in the same file become blank lines, everything
// else becomes a marker. With markers off, any transition is just a
// line break and resynchronization is the reader's problem.
func (r *renderer) syncLoc(t Token) {
	switch {
	case !r.started:
		r.started = true
		if r.pp.cfg.Markers != MarkersNone {
			r.writeMarker(t, "")
		}
	case t.File != r.file:
		if r.pp.cfg.Markers == MarkersNone {
			r.newline()
		} else {
			flag := ""
			if r.pp.cfg.Markers == MarkersFull {
				if t.Depth > r.depth {
					flag = " 1"
				} else if t.Depth < r.depth {
					flag = " 2"
				}
			}
			r.writeMarker(t, flag)
		}
	case t.Line != r.line || (t.BOL && !r.atBOL):
		// A token that started a physical line must start an output line
		// even when #line or a re-include left the reported line number
		// where it already was.
		d := t.Line - r.line
		if d > 0 && d < 8 {
			for ; d > 0; d-- {
				r.newline()
			}
		} else if r.pp.cfg.Markers == MarkersNone {
			r.newline()
		} else {
			r.writeMarker(t, "")
		}
	}
	r.file, r.line, r.depth = t.File, t.Line, t.Depth
}

func (r *renderer) newline() {
	r.w.WriteByte('\n')
	r.atBOL = true
}

func (r *renderer) writeMarker(t Token, flag string) {
	if !r.atBOL && r.wrote {
		r.w.WriteByte('\n')
	}
	if r.pp.cfg.Markers == MarkersLine {
		fmt.Fprintf(r.w, "#line %d %s\n", t.Line, quoteString(t.File))
	} else {
		fmt.Fprintf(r.w, "# %d %s%s\n", t.Line, quoteString(t.File), flag)
	}
	r.atBOL = true
	r.wrote = true
}

func (r *renderer) emitTok(t Token) {
	text := t.Spelling()
	if text == "" {
		return
	}
	if !r.atBOL && (t.Space || r.needSpace(r.prev, t)) {
		r.w.WriteByte(' ')
	}
	r.w.WriteString(text)
	r.atBOL = false
	r.wrote = true
	r.prev = t
}

// needSpace decides whether two adjacent tokens must be separated to
// keep their boundary: the concatenated spellings are re-lexed, and if
// the first token that comes back is not the left operand anymore, the
// pair would merge. This is the same check pasting uses in reverse, so
// "+ +" never prints as "++" and "L" before a string never builds a
// wide literal.
func (r *renderer) needSpace(prev, cur Token) bool {
	a := prev.Spelling()
	b := cur.Spelling()
	if a == "" || b == "" {
		return false
	}
	lexed := r.pp.relex(a + b)
	if len(lexed) == 0 {
		// The pair merged into a comment: "/" then "/" or "*".
		return true
	}
	return lexed[0].Spelling() != a
}
