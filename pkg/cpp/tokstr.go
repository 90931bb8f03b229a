package cpp

import "strings"

// TokenString is an owned, growable sequence of tokens: macro replacement
// lists, collected invocation arguments, directive lines.
type TokenString []Token

func (ts *TokenString) add(t Token) {
	*ts = append(*ts, t)
}

func (ts TokenString) len() int { return len(ts) }

// trimSpace drops leading placeholder whitespace state: the first token of
// a collected macro argument must not remember the space that separated it
// from '(' or ','.
func (ts TokenString) trimSpace() TokenString {
	if len(ts) > 0 {
		ts[0].Space = false
	}
	return ts
}

// spell renders the sequence the way the stringize operator sees it:
// canonical spellings with a single space wherever the source had
// whitespace between tokens.
func (ts TokenString) spell() string {
	var sb strings.Builder
	for i, t := range ts {
		if i > 0 && t.Space {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Spelling())
	}
	return sb.String()
}

// sameSpelling reports whether two replacement lists are identical token
// for token, including spacing, which decides whether a redefinition is
// silent or warned about.
func sameSpelling(a, b TokenString) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind {
			return false
		}
		if i > 0 && a[i].Space != b[i].Space {
			return false
		}
		switch a[i].Kind {
		case IDENT:
			if a[i].ID != b[i].ID {
				return false
			}
		default:
			if a[i].Spelling() != b[i].Spelling() {
				return false
			}
		}
	}
	return true
}
