package cpp

// Byte classification for the scanner. One table lookup per byte keeps the
// hot loop branch-light. Bytes 0x80-0xFF count as identifier characters so
// UTF-8 encoded identifiers pass through untouched.
const (
	classSpace = 1 << iota // ' ', '\t', '\v', '\f', '\r'
	classIdent             // A-Z a-z _ $ and all bytes >= 0x80
	classDigit             // 0-9
	classHex               // 0-9 a-f A-F
)

var charClass [256]uint8

func init() {
	for _, c := range []byte{' ', '\t', '\v', '\f', '\r'} {
		charClass[c] |= classSpace
	}
	for c := 'a'; c <= 'z'; c++ {
		charClass[c] |= classIdent
	}
	for c := 'A'; c <= 'Z'; c++ {
		charClass[c] |= classIdent
	}
	charClass['_'] |= classIdent
	charClass['$'] |= classIdent
	for c := 0x80; c <= 0xFF; c++ {
		charClass[c] |= classIdent
	}
	for c := '0'; c <= '9'; c++ {
		charClass[c] |= classDigit | classHex
	}
	for c := 'a'; c <= 'f'; c++ {
		charClass[c] |= classHex
	}
	for c := 'A'; c <= 'F'; c++ {
		charClass[c] |= classHex
	}
}

func isSpaceByte(c byte) bool  { return charClass[c]&classSpace != 0 }
func isIdentByte(c byte) bool  { return charClass[c]&(classIdent|classDigit) != 0 }
func isIdentStart(c byte) bool { return charClass[c]&classIdent != 0 }
func isDigitByte(c byte) bool  { return charClass[c]&classDigit != 0 }
func isHexByte(c byte) bool    { return charClass[c]&classHex != 0 }

// octalValue returns the value of an octal digit, or -1.
func octalValue(c byte) int {
	if c >= '0' && c <= '7' {
		return int(c - '0')
	}
	return -1
}

// hexValue returns the value of a hex digit, or -1.
func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
