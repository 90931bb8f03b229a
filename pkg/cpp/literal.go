package cpp

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// numberValue is the interpreted form of a pp-number. A pp-number is
// carried as opaque text through directives and macro expansion and only
// takes a value when the consumer asks for a real token.
type numberValue struct {
	isFloat  bool
	ival     uint64
	unsigned bool
	fval     float64
}

// interpretNumber converts the spelling of a pp-number into a value.
// Integer spellings cover decimal, octal, hex and binary with u/U and
// l/L/ll/LL suffixes in either order; float spellings cover decimal
// fractions with e-exponents, hex fractions with mandatory p-exponents,
// and f/F or l/L suffixes.
func interpretNumber(text string) (numberValue, error) {
	s := text
	isHex := false
	isBin := false
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		isHex = true
		s = s[2:]
	} else if len(s) > 2 && s[0] == '0' && (s[1] == 'b' || s[1] == 'B') {
		isBin = true
		s = s[2:]
	}

	// Split the digit body from the trailing suffix letters. An exponent
	// sign belongs to the body, so walk from the front.
	body := len(s)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isDigitByte(c) || c == '.' {
			continue
		}
		if isHex && isHexByte(c) {
			continue
		}
		if !isHex && (c == 'e' || c == 'E') && i+1 <= len(s) {
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-' || isDigitByte(s[i+1])) {
				i++ // sign or first exponent digit
				continue
			}
		}
		if isHex && (c == 'p' || c == 'P') {
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-' || isDigitByte(s[i+1])) {
				i++
				continue
			}
		}
		body = i
		break
	}
	digits, suffix := s[:body], s[body:]

	hasDot := strings.ContainsRune(digits, '.')
	hasExp := !isHex && strings.ContainsAny(digits, "eE")
	hasPExp := isHex && strings.ContainsAny(digits, "pP")
	floatSuffix := suffix == "f" || suffix == "F"

	if hasDot || hasExp || hasPExp || (!isHex && !isBin && floatSuffix) {
		return interpretFloat(text, digits, suffix, isHex, hasPExp)
	}

	var unsigned, seenLong bool
	for i := 0; i < len(suffix); i++ {
		switch suffix[i] {
		case 'u', 'U':
			if unsigned {
				return numberValue{}, fmt.Errorf("invalid suffix %q on integer constant", suffix)
			}
			unsigned = true
		case 'l', 'L':
			if seenLong {
				return numberValue{}, fmt.Errorf("invalid suffix %q on integer constant", suffix)
			}
			seenLong = true
			if i+1 < len(suffix) && suffix[i+1] == suffix[i] {
				i++ // ll / LL
			}
		default:
			return numberValue{}, fmt.Errorf("invalid suffix %q on integer constant", suffix)
		}
	}

	base := 10
	switch {
	case isHex:
		base = 16
	case isBin:
		base = 2
	case len(digits) > 1 && digits[0] == '0':
		base = 8
		digits = digits[1:]
	}
	if digits == "" {
		return numberValue{}, fmt.Errorf("invalid integer constant %q", text)
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		if strings.Contains(err.Error(), "range") {
			return numberValue{}, fmt.Errorf("integer constant %q out of range", text)
		}
		return numberValue{}, fmt.Errorf("invalid integer constant %q", text)
	}
	return numberValue{ival: v, unsigned: unsigned || v > math.MaxInt64}, nil
}

func interpretFloat(text, digits, suffix string, isHex, hasPExp bool) (numberValue, error) {
	if isHex && !hasPExp {
		return numberValue{}, fmt.Errorf("hex float %q requires a p exponent", text)
	}
	switch suffix {
	case "", "f", "F", "l", "L":
	default:
		return numberValue{}, fmt.Errorf("invalid suffix %q on floating constant", suffix)
	}
	s := digits
	if isHex {
		s = "0x" + s
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return numberValue{}, fmt.Errorf("invalid floating constant %q", text)
	}
	return numberValue{isFloat: true, fval: v}, nil
}

// interpretCharConst converts a character constant spelling, quotes and
// optional L prefix included, into its integer value. A constant with more
// than one character keeps the historical packing, each new character
// shifting the value left by eight bits; multi reports it so the caller
// can warn.
func interpretCharConst(text string) (val uint64, multi bool, err error) {
	body := strings.TrimPrefix(text, "L")
	if len(body) < 2 || body[0] != '\'' || body[len(body)-1] != '\'' {
		return 0, false, fmt.Errorf("malformed character constant %s", text)
	}
	decoded, err := decodeEscapes(body[1 : len(body)-1])
	if err != nil {
		return 0, false, err
	}
	if len(decoded) == 0 {
		return 0, false, fmt.Errorf("empty character constant")
	}
	for _, c := range decoded {
		val = val<<8 | uint64(c)
	}
	return val, len(decoded) > 1, nil
}

// interpretString converts a string literal spelling, quotes and optional
// L prefix included, into its decoded byte contents.
func interpretString(text string) ([]byte, error) {
	body := strings.TrimPrefix(text, "L")
	if len(body) < 2 || body[0] != '"' || body[len(body)-1] != '"' {
		return nil, fmt.Errorf("malformed string literal %s", text)
	}
	return decodeEscapes(body[1 : len(body)-1])
}

// decodeEscapes interprets the escape sequences of a literal body.
func decodeEscapes(body string) ([]byte, error) {
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(body) {
			return nil, fmt.Errorf("trailing backslash in literal")
		}
		switch e := body[i]; e {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case 'v':
			out = append(out, '\v')
		case 'f':
			out = append(out, '\f')
		case 'a':
			out = append(out, '\a')
		case 'b':
			out = append(out, '\b')
		case 'e': // GNU: ESC
			out = append(out, 0x1b)
		case '\\', '\'', '"', '?':
			out = append(out, e)
		case 'x':
			v, n := 0, 0
			for i+1 < len(body) && isHexByte(body[i+1]) {
				i++
				v = v<<4 | hexValue(body[i])
				n++
			}
			if n == 0 {
				return nil, fmt.Errorf("\\x used with no following hex digits")
			}
			out = append(out, byte(v))
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := octalValue(e)
			for n := 1; n < 3 && i+1 < len(body); n++ {
				d := octalValue(body[i+1])
				if d < 0 {
					break
				}
				i++
				v = v<<3 | d
			}
			out = append(out, byte(v))
		default:
			return nil, fmt.Errorf("unknown escape sequence '\\%c'", e)
		}
	}
	return out, nil
}

// quoteString renders raw bytes as a C string literal, escaping the
// characters that would break or change the literal. Nonprinting bytes
// come out as octal escapes.
func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&sb, "\\%03o", c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
