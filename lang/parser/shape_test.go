package parser_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mna/orus/lang/ast"
)

// stmtShape flattens a statement list down to its node-type sequence, the
// same "ignore the leaves, compare the tree shape" idea the opal-lang
// parser tests apply to their token-event streams.
func stmtShape(stmts []ast.Stmt) []string {
	shape := make([]string, len(stmts))
	for i, s := range stmts {
		shape[i] = fmt.Sprintf("%T", s)
	}
	return shape
}

// TestTernaryFormsProduceSameShape checks that the C-style (a ? b : c) and
// Python-style (b if a else c) ternary spellings desugar to the same
// surrounding statement shape; only the Ternary node's own Python flag
// should differ (covered separately by TestTernaryBothForms).
func TestTernaryFormsProduceSameShape(t *testing.T) {
	cForm := mustParse(t, "x = a ? 1 : 2\n")
	pyForm := mustParse(t, "x = 1 if a else 2\n")

	if diff := cmp.Diff(stmtShape(cForm.Stmts), stmtShape(pyForm.Stmts)); diff != "" {
		t.Errorf("ternary forms produced different statement shapes (-c +py):\n%s", diff)
	}
}

// TestDestructuringShapeMatchesExpansion checks that destructuring
// assignment lowers to the documented shape (a temporary declaration
// followed by one "name = tmp[i]" VarDecl per destructured name) regardless
// of how many names are on the left-hand side.
func TestDestructuringShapeMatchesExpansion(t *testing.T) {
	two := mustParse(t, "a, b = f()\n")
	three := mustParse(t, "a, b, c = g()\n")

	wantTwo := []string{"*ast.VarDecl", "*ast.VarDecl", "*ast.VarDecl"}
	wantThree := []string{"*ast.VarDecl", "*ast.VarDecl", "*ast.VarDecl", "*ast.VarDecl"}

	blkTwo := two.Stmts[0].(*ast.Block)
	blkThree := three.Stmts[0].(*ast.Block)

	if diff := cmp.Diff(wantTwo, stmtShape(blkTwo.Stmts)); diff != "" {
		t.Errorf("two-name destructuring shape mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantThree, stmtShape(blkThree.Stmts)); diff != "" {
		t.Errorf("three-name destructuring shape mismatch (-want +got):\n%s", diff)
	}
}
