package lexer

import (
	"strconv"
	"strings"

	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/lang/token"
)

var validSuffixes = map[string]bool{
	"i32": true, "i64": true, "u32": true, "u64": true, "f64": true,
}

// number scans an integer or float literal, adapted from the teacher
// scanner's digit-separator handling (lang/scanner/number.go), generalized
// to accept an adjacent numeric type suffix.
func (l *Lexer) number(pos token.Pos) Token {
	start := l.off
	isFloat := false

	if l.cur == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		l.advance()
		l.hexDigits(pos)
	} else {
		l.digits(pos, 10)
		if l.cur == '.' && isDigit(l.peek()) {
			isFloat = true
			l.advance()
			l.digits(pos, 10)
		}
		if l.cur == 'e' || l.cur == 'E' {
			isFloat = true
			l.advance()
			if l.cur == '+' || l.cur == '-' {
				l.advance()
			}
			if !isDigit(l.cur) {
				l.errorf(pos, diag.ErrMalformedNumber, "exponent has no digits")
			}
			l.digits(pos, 10)
		}
	}

	lit := string(l.src[start:l.off])
	clean := strings.ReplaceAll(lit, "_", "")

	suffix := ""
	hasSuffix := false
	if isLetter(l.cur) {
		sstart := l.off
		for isLetter(l.cur) || isDigit(l.cur) {
			l.advance()
		}
		suffix = string(l.src[sstart:l.off])
		hasSuffix = true
		if !validSuffixes[suffix] {
			l.errorf(pos, diag.ErrMalformedNumber, "invalid numeric suffix %q", suffix)
		}
	}

	tok := Token{Kind: token.NUMBER, Lit: lit, Pos: pos, Suffix: suffix, HasSuffix: hasSuffix}
	if isFloat {
		tok.IsFloat = true
		v, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			l.errorf(pos, diag.ErrMalformedNumber, "invalid float literal %q", lit)
		}
		tok.FloatValue = v
		if hasSuffix && suffix != "f64" {
			l.errorf(pos, diag.ErrMalformedNumber, "float literal cannot use suffix %q", suffix)
		}
		return tok
	}

	base := 10
	digits := clean
	if strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		base = 16
		digits = clean[2:]
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		if strings.Contains(err.Error(), "value out of range") {
			l.errorf(pos, diag.ErrMalformedNumber, "integer literal %q out of range", lit)
		} else {
			l.errorf(pos, diag.ErrMalformedNumber, "invalid integer literal %q", lit)
		}
	}
	if hasSuffix {
		if overflowsSuffix(v, suffix) {
			l.errorf(pos, diag.ErrMalformedNumber, "integer literal %q overflows suffix %q", lit, suffix)
		}
	}
	tok.IntValue = int64(v)
	return tok
}

// overflowsSuffix reports whether the unsigned literal value v cannot be
// represented losslessly in the numeric type named by suffix.
func overflowsSuffix(v uint64, suffix string) bool {
	switch suffix {
	case "i32":
		return v > 1<<31-1
	case "i64":
		return v > 1<<63-1
	case "u32":
		return v > 1<<32-1
	case "u64":
		return false
	case "f64":
		return v > 1<<53 // exact-integer mantissa bound
	}
	return false
}

// digits consumes a run of { digit | '_' } in the given base, flagging
// misplaced separators (leading, trailing or doubled) as they're found.
func (l *Lexer) digits(pos token.Pos, base int) {
	lastWasSep := true // leading underscore is invalid
	sawDigit := false
	for isDigit(l.cur) || l.cur == '_' {
		if l.cur == '_' {
			if lastWasSep {
				l.errorf(l.pos(), diag.ErrMisplacedUnderscore, "'_' must separate digits")
			}
			lastWasSep = true
		} else {
			lastWasSep = false
			sawDigit = true
		}
		l.advance()
	}
	if lastWasSep && sawDigit {
		l.errorf(pos, diag.ErrMisplacedUnderscore, "'_' must separate digits")
	}
}

func (l *Lexer) hexDigits(pos token.Pos) {
	lastWasSep := true
	sawDigit := false
	for isHex(l.cur) || l.cur == '_' {
		if l.cur == '_' {
			if lastWasSep {
				l.errorf(l.pos(), diag.ErrMisplacedUnderscore, "'_' must separate digits")
			}
			lastWasSep = true
		} else {
			lastWasSep = false
			sawDigit = true
		}
		l.advance()
	}
	if !sawDigit {
		l.errorf(pos, diag.ErrMalformedNumber, "hexadecimal literal has no digits")
	}
	if lastWasSep {
		l.errorf(pos, diag.ErrMisplacedUnderscore, "'_' must separate digits")
	}
}

func isHex(r rune) bool {
	return isDigit(r) || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F'
}
