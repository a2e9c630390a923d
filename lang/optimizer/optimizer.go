// Package optimizer implements the multi-pass AST optimizer of spec.md
// §4.6: constant folding, dead-branch elimination, and loop-invariant code
// motion (LICM). All three passes rewrite the AST in place and run once per
// compilation, after scope analysis and register allocation and before
// emission (spec.md §2): the passes move or remove existing statements but
// never introduce a name that would need a fresh register assignment, so
// the register allocator's Variable-to-register map stays valid across the
// rewrite.
package optimizer

import "github.com/mna/orus/lang/ast"

// Stats reports what one run of Optimize changed, mirroring the counters
// spec.md §4.6.3 requires LICM to report.
type Stats struct {
	InvariantsHoisted      int
	LoopsOptimized         int
	GuardFusions           int
	RedundantGuardFusions  int
	Changed                bool
}

// Optimize runs constant folding, dead-branch elimination and LICM over
// prog, in place, and returns the combined statistics.
func Optimize(prog *ast.Program) *Stats {
	st := &Stats{}
	prog.Stmts = optimizeStmts(prog.Stmts, st)
	return st
}

// optimizeStmts rewrites one statement list: it folds every expression it
// can reach, recurses into nested blocks, splices dead-branch results in
// place of their containing If, and runs LICM on every loop it finds.
func optimizeStmts(stmts []ast.Stmt, st *Stats) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, optimizeStmt(s, st)...)
	}
	return out
}

// optimizeStmt returns the zero-or-more statements that replace s.
func optimizeStmt(s ast.Stmt, st *Stats) []ast.Stmt {
	switch n := s.(type) {
	case *ast.VarDecl:
		for i, v := range n.Values {
			n.Values[i] = foldExprTree(v)
		}
		return []ast.Stmt{n}

	case *ast.Assign:
		n.Value = foldExprTree(n.Value)
		return []ast.Stmt{n}

	case *ast.ExprStmt:
		n.X = foldExprTree(n.X)
		return []ast.Stmt{n}

	case *ast.Print:
		for i, a := range n.Args {
			n.Args[i] = foldExprTree(a)
		}
		return []ast.Stmt{n}

	case *ast.Return:
		if n.Value != nil {
			n.Value = foldExprTree(n.Value)
		}
		return []ast.Stmt{n}

	case *ast.Throw:
		if n.Value != nil {
			n.Value = foldExprTree(n.Value)
		}
		return []ast.Stmt{n}

	case *ast.If:
		return optimizeIf(n, st)

	case *ast.While:
		n.Cond = foldExprTree(n.Cond)
		n.Body.Stmts = optimizeStmts(n.Body.Stmts, st)
		pre := runLICM(n, n.Cond, n.Body, st)
		return append(pre, n)

	case *ast.ForRange:
		n.RangeStart = foldExprTree(n.RangeStart)
		n.RangeEnd = foldExprTree(n.RangeEnd)
		if n.RangeStep != nil {
			n.RangeStep = foldExprTree(n.RangeStep)
		}
		n.Body.Stmts = optimizeStmts(n.Body.Stmts, st)
		pre := runLICM(n, nil, n.Body, st)
		return append(pre, n)

	case *ast.ForIter:
		n.Iterable = foldExprTree(n.Iterable)
		n.Body.Stmts = optimizeStmts(n.Body.Stmts, st)
		pre := runLICM(n, nil, n.Body, st)
		return append(pre, n)

	case *ast.Function:
		n.Body.Stmts = optimizeStmts(n.Body.Stmts, st)
		return []ast.Stmt{n}

	case *ast.Impl:
		for _, m := range n.Methods {
			m.Body.Stmts = optimizeStmts(m.Body.Stmts, st)
		}
		return []ast.Stmt{n}

	case *ast.Match:
		n.Subject = foldExprTree(n.Subject)
		for i := range n.Arms {
			if n.Arms[i].Literal != nil {
				n.Arms[i].Literal = foldExprTree(n.Arms[i].Literal)
			}
			n.Arms[i].Body.Stmts = optimizeStmts(n.Arms[i].Body.Stmts, st)
		}
		return []ast.Stmt{n}

	case *ast.Try:
		n.Body.Stmts = optimizeStmts(n.Body.Stmts, st)
		n.Catch.Stmts = optimizeStmts(n.Catch.Stmts, st)
		return []ast.Stmt{n}

	case *ast.Block:
		n.Stmts = optimizeStmts(n.Stmts, st)
		return []ast.Stmt{n}

	default:
		return []ast.Stmt{s}
	}
}

// optimizeIf folds the condition and, if it resolves to a constant boolean,
// splices the chosen branch's statements in place of the If node
// (spec.md §4.6.2, §8 scenario 2: "no conditional jump remains").
func optimizeIf(n *ast.If, st *Stats) []ast.Stmt {
	n.Cond = foldExprTree(n.Cond)
	n.Then.Stmts = optimizeStmts(n.Then.Stmts, st)
	if n.Else != nil {
		switch e := n.Else.(type) {
		case *ast.Block:
			e.Stmts = optimizeStmts(e.Stmts, st)
		case *ast.If:
			spliced := optimizeIf(e, st)
			if len(spliced) == 1 {
				n.Else = spliced[0]
			} else {
				blk := &ast.Block{Stmts: spliced}
				blk.Start, blk.End = e.Span()
				n.Else = blk
			}
		}
	}

	if b, ok := constBool(n.Cond); ok {
		st.Changed = true
		if b {
			return n.Then.Stmts
		}
		if n.Else == nil {
			return nil
		}
		if blk, ok := n.Else.(*ast.Block); ok {
			return blk.Stmts
		}
		return []ast.Stmt{n.Else}
	}
	return []ast.Stmt{n}
}
