package lexer_test

import (
	"testing"

	"github.com/mna/orus/lang/lexer"
	"github.com/mna/orus/lang/token"
	"github.com/stretchr/testify/require"
)

func kinds(toks []lexer.Token) []token.Token {
	ks := make([]token.Token, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestIndentDedentBalance(t *testing.T) {
	src := []byte("if true:\n    x = 1\n    if true:\n        y = 2\nz = 3\n")
	toks, errs := lexer.ScanAll(src)
	require.False(t, errs.HasErrors(), errs.Err())
	require.Equal(t, token.EOF, toks[len(toks)-1].Kind)

	depth := 0
	for _, tok := range toks {
		switch tok.Kind {
		case token.INDENT:
			depth++
		case token.DEDENT:
			depth--
		}
	}
	require.Zero(t, depth, "every INDENT must be matched by a DEDENT before EOF")
}

func TestInconsistentIndentIsAnError(t *testing.T) {
	src := []byte("if true:\n   x = 1\n  y = 2\n")
	_, errs := lexer.ScanAll(src)
	require.True(t, errs.HasErrors())
}

func TestBlankAndCommentLinesDoNotAffectIndent(t *testing.T) {
	src := []byte("if true:\n    x = 1\n\n    // a comment\n    y = 2\n")
	toks, errs := lexer.ScanAll(src)
	require.False(t, errs.HasErrors())

	n := 0
	for _, tok := range toks {
		if tok.Kind == token.INDENT {
			n++
		}
	}
	require.Equal(t, 1, n)
}

func TestNumberSuffixAndUnderscore(t *testing.T) {
	toks, errs := lexer.ScanAll([]byte("10_000i64"))
	require.False(t, errs.HasErrors())
	require.Equal(t, token.NUMBER, toks[0].Kind)
	require.Equal(t, int64(10000), toks[0].IntValue)
	require.Equal(t, "i64", toks[0].Suffix)
}

func TestMisplacedUnderscoreIsAnError(t *testing.T) {
	_, errs := lexer.ScanAll([]byte("1__0"))
	require.True(t, errs.HasErrors())

	_, errs = lexer.ScanAll([]byte("_10"))
	// leading underscore makes this an identifier, not a number: no error
	require.False(t, errs.HasErrors())

	_, errs = lexer.ScanAll([]byte("10_"))
	require.True(t, errs.HasErrors())
}

func TestUnterminatedStringIsAnError(t *testing.T) {
	_, errs := lexer.ScanAll([]byte(`"abc`))
	require.True(t, errs.HasErrors())
}

func TestStringEscapes(t *testing.T) {
	toks, errs := lexer.ScanAll([]byte(`"a\nb\tc"`))
	require.False(t, errs.HasErrors())
	require.Equal(t, "a\nb\tc", toks[0].Lit)
}

func TestRangeAndInclusiveRangeOperators(t *testing.T) {
	toks, errs := lexer.ScanAll([]byte("1..3 1..=3"))
	require.False(t, errs.HasErrors())
	require.Equal(t, []token.Token{
		token.NUMBER, token.DOTDOT, token.NUMBER,
		token.NUMBER, token.DOTDOTEQ, token.NUMBER,
		token.EOF,
	}, kinds(toks))
}

func TestCompoundAssignOperators(t *testing.T) {
	toks, errs := lexer.ScanAll([]byte("x += 1"))
	require.False(t, errs.HasErrors())
	require.Equal(t, token.PLUS_EQ, toks[1].Kind)
}

func TestLexIdempotence(t *testing.T) {
	src := []byte("for i in 1..=3:\n    print(i)\n")
	toks1, _ := lexer.ScanAll(src)
	toks2, _ := lexer.ScanAll(src)
	require.Equal(t, kinds(toks1), kinds(toks2))
}
