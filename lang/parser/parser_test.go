package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/parser"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, errs := parser.Parse([]byte(src), "test")
	require.False(t, errs.HasErrors(), "unexpected diagnostics: %v", errs.All())
	return prog
}

func TestVarDeclAssignAndConst(t *testing.T) {
	prog := mustParse(t, "x = 1\nY := 2\nmut z = 3\n")
	require.Len(t, prog.Stmts, 3)

	v1 := prog.Stmts[0].(*ast.VarDecl)
	require.Equal(t, []string{"x"}, v1.Names)

	v2 := prog.Stmts[1].(*ast.VarDecl)
	require.Equal(t, []string{"Y"}, v2.Names)

	v3 := prog.Stmts[2].(*ast.VarDecl)
	require.Equal(t, []string{"z"}, v3.Names)
}

func TestConstNamingRule(t *testing.T) {
	_, errs := parser.Parse([]byte("lowercase := 1\n"), "test")
	require.True(t, errs.HasErrors())
}

func TestCompoundAssignDesugars(t *testing.T) {
	prog := mustParse(t, "x = 1\nx += 2\n")
	a := prog.Stmts[1].(*ast.Assign)
	bin := a.Value.(*ast.Binary)
	require.Equal(t, "+", bin.Op.String())
}

func TestChainedCastRejectedUnlessParenthesized(t *testing.T) {
	_, errs := parser.Parse([]byte("x = 1\ny = x as i64 as f64\n"), "test")
	require.True(t, errs.HasErrors())

	prog := mustParse(t, "x = 1\ny = ((x as i64) as f64)\n")
	vd := prog.Stmts[1].(*ast.VarDecl)
	outer := vd.Values[0].(*ast.Cast)
	require.Equal(t, "f64", outer.TargetName)
	inner := outer.Operand.(*ast.Cast)
	require.True(t, inner.Parenthesized)
}

func TestIfElifElse(t *testing.T) {
	src := "if a:\n    pass\nelif b:\n    pass\nelse:\n    pass\n"
	prog := mustParse(t, src)
	ifStmt := prog.Stmts[0].(*ast.If)
	require.NotNil(t, ifStmt.Then)
	elif, ok := ifStmt.Else.(*ast.If)
	require.True(t, ok)
	require.NotNil(t, elif.Else)
}

func TestInclusiveRange(t *testing.T) {
	prog := mustParse(t, "for i in 1..=3:\n    print(i)\n")
	fr := prog.Stmts[0].(*ast.ForRange)
	require.True(t, fr.Inclusive)
}

func TestLabeledLoopBreak(t *testing.T) {
	src := "'outer: while true:\n    break 'outer\n"
	prog := mustParse(t, src)
	w := prog.Stmts[0].(*ast.While)
	require.Equal(t, "outer", w.Label)
	brk := w.Body.Stmts[0].(*ast.Break)
	require.Equal(t, "outer", brk.Label)
}

func TestBreakOutsideLoopIsError(t *testing.T) {
	_, errs := parser.Parse([]byte("break\n"), "test")
	require.True(t, errs.HasErrors())
}

func TestFunctionDecl(t *testing.T) {
	src := "fn add(a: i32, b: i32) -> i32:\n    return a + b\n"
	prog := mustParse(t, src)
	fn := prog.Stmts[0].(*ast.Function)
	require.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	require.Equal(t, "i32", fn.ReturnType)
}

func TestStructDecl(t *testing.T) {
	src := "struct Point:\n    x: i32\n    y: i32\n"
	prog := mustParse(t, src)
	st := prog.Stmts[0].(*ast.Struct)
	require.Equal(t, "Point", st.Name)
	require.Len(t, st.Fields, 2)
}

func TestEnumDeclSingleLine(t *testing.T) {
	prog := mustParse(t, "enum Color: Red, Green, Blue\n")
	en := prog.Stmts[0].(*ast.Enum)
	require.Len(t, en.Variants, 3)
}

func TestMatchArms(t *testing.T) {
	src := "match c:\n    Color.Red -> 1\n    Color.Green -> 2\n    _ -> 3\n"
	prog := mustParse(t, src)
	m := prog.Stmts[0].(*ast.Match)
	require.Len(t, m.Arms, 3)
	require.True(t, m.Arms[2].IsWildcard)
}

func TestDestructuring(t *testing.T) {
	prog := mustParse(t, "a, b = f()\n")
	blk := prog.Stmts[0].(*ast.Block)
	require.Len(t, blk.Stmts, 3) // tmp decl + a + b
}

func TestRecoveryContinuesAfterFatalStatementError(t *testing.T) {
	src := "x = \ny = 2\n"
	prog, errs := parser.Parse([]byte(src), "test")
	require.True(t, errs.HasErrors())
	// the second, well-formed statement is still parsed.
	found := false
	for _, s := range prog.Stmts {
		if vd, ok := s.(*ast.VarDecl); ok && len(vd.Names) == 1 && vd.Names[0] == "y" {
			found = true
		}
	}
	require.True(t, found, "parser should recover and still parse the following statement")
}

func TestTernaryBothForms(t *testing.T) {
	prog := mustParse(t, "x = a ? 1 : 2\ny = 1 if a else 2\n")
	t1 := prog.Stmts[0].(*ast.VarDecl).Values[0].(*ast.Ternary)
	require.False(t, t1.Python)
	t2 := prog.Stmts[1].(*ast.VarDecl).Values[0].(*ast.Ternary)
	require.True(t, t2.Python)
}
