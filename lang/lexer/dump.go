package lexer

import (
	"fmt"
	"io"

	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/lang/token"
)

// ScanAll tokenizes the entire source buffer and returns every token,
// including the trailing EOF. It stops early if an ERROR token is produced.
func ScanAll(src []byte) ([]Token, *diag.List) {
	var errs diag.List
	var l Lexer
	l.Init(src, &errs)

	var toks []Token
	for {
		tok := l.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF || tok.Kind == token.ILLEGAL {
			break
		}
	}
	return toks, &errs
}

// Dump writes one line per token to w, in the form:
//
//	KIND 'lexeme' (line L, col C)
//
// matching spec.md §6.2's debug token-stream format. It stops after EOF or
// the first ILLEGAL token.
func Dump(w io.Writer, src []byte) error {
	var errs diag.List
	var l Lexer
	l.Init(src, &errs)

	for {
		tok := l.Scan()
		lit := tok.Lit
		if lit == "" {
			lit = tok.Kind.String()
		}
		if _, err := fmt.Fprintf(w, "%s '%s' (line %d, col %d)\n", tok.Kind, lit, tok.Pos.Line, tok.Pos.Column); err != nil {
			return err
		}
		if tok.Kind == token.EOF || tok.Kind == token.ILLEGAL {
			break
		}
	}
	return nil
}
