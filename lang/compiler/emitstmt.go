package compiler

import (
	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/scopeanalyzer"
)

func (fc *fcomp) compileStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		fc.compileStmt(s)
	}
}

func (fc *fcomp) compileStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		for i, name := range n.Names {
			v := fc.pcomp.declVar(n, name)
			reg := fc.emitExpr(n.Values[i])
			fc.storeVar(v, reg)
		}

	case *ast.Assign:
		src := fc.emitExpr(n.Value)
		fc.compileAssignTarget(n.Target, src)

	case *ast.ExprStmt:
		fc.emitExpr(n.X)

	case *ast.Print:
		for i, a := range n.Args {
			if i > 0 {
				sep := fc.scratch()
				fc.emit(LOAD_CONST, sep, fc.pcomp.constant(Value{Kind: ast.KindString, S: " "}))
				fc.emit(PRINT_R, sep)
			}
			reg := fc.emitExpr(a)
			op := PRINT_R
			if n.Newline && i == len(n.Args)-1 {
				op = PRINT_R_NL
			}
			fc.emit(op, reg)
		}

	case *ast.If:
		fc.compileIf(n)

	case *ast.While:
		fc.compileWhile(n)

	case *ast.ForRange:
		fc.compileForRange(n)

	case *ast.ForIter:
		fc.compileForIter(n)

	case *ast.Break:
		lc := fc.findLoop(n.Label)
		if lc == nil {
			fc.reportUndefinedLabel(n, n.Label)
			break
		}
		lc.breaks = append(lc.breaks, fc.emitJump(JUMP))

	case *ast.Continue:
		lc := fc.findLoop(n.Label)
		if lc == nil {
			fc.reportUndefinedLabel(n, n.Label)
			break
		}
		lc.continues = append(lc.continues, fc.emitJump(JUMP))

	case *ast.Pass:
		fc.emit(NOP)

	case *ast.Return:
		if n.Value != nil {
			reg := fc.emitExpr(n.Value)
			fc.emit(RETURN_R, reg)
		} else {
			fc.emit(RETURN_VOID)
		}

	case *ast.Throw:
		if n.Value != nil {
			reg := fc.emitExpr(n.Value)
			fc.emit(THROW, reg)
		}

	case *ast.Function:
		fc.compileNestedFunction(n)

	case *ast.Impl:
		for _, m := range n.Methods {
			fc.compileNestedFunction(m)
		}

	case *ast.Match:
		fc.compileMatch(n)

	case *ast.Try:
		fc.compileTry(n)

	case *ast.Block:
		fc.compileStmts(n.Stmts)

	case *ast.Struct, *ast.Enum, *ast.Import:
		// type and import declarations carry no runtime instructions; they
		// only inform the (currently lightweight) type resolution the
		// emitter performs via inferKind and kindFromName.

	case *ast.BadStmt:
		// parser already recorded a diagnostic for this production.
	}
}

func (fc *fcomp) compileAssignTarget(target ast.Expr, src int) {
	switch t := target.(type) {
	case *ast.Identifier:
		v, _ := t.Binding.(*scopeanalyzer.Variable)
		fc.storeVar(v, src)
	case *ast.IndexAccess:
		arr := fc.emitExpr(t.Target)
		idx := fc.emitExpr(t.Index)
		fc.emit(ARRAY_SET, arr, idx, src)
	case *ast.MemberAccess:
		obj := fc.emitExpr(t.Target)
		fc.emit(FIELD_SET, obj, fc.pcomp.globalSlot(t.Name), src)
	}
}

func (fc *fcomp) compileIf(n *ast.If) {
	cond := fc.emitExpr(n.Cond)
	elseAddr := fc.emitJump(JUMP_IF_NOT_R, cond)
	fc.compileStmts(n.Then.Stmts)

	if n.Else == nil {
		fc.patchJump(elseAddr, fc.here())
		return
	}
	endAddr := fc.emitJump(JUMP)
	fc.patchJump(elseAddr, fc.here())
	fc.compileStmt(n.Else)
	fc.patchJump(endAddr, fc.here())
}

func (fc *fcomp) pushLoop(label string) *loopCtx {
	lc := &loopCtx{label: label}
	fc.loops = append(fc.loops, lc)
	return lc
}

func (fc *fcomp) popLoop(lc *loopCtx, breakTarget, continueTarget int) {
	for _, pos := range lc.breaks {
		fc.patchJump(pos, breakTarget)
	}
	for _, pos := range lc.continues {
		fc.patchJump(pos, continueTarget)
	}
	fc.loops = fc.loops[:len(fc.loops)-1]
}

// reportUndefinedLabel records spec.md §7's "undefined label" diagnostic
// for a break/continue whose label names no enclosing loop (spec.md §8:
// "break 'outer without a matching label is rejected"). An unlabeled
// break/continue outside any loop is a parser-level concern (loopDepth
// tracking in lang/parser/stmt.go) and never reaches here with a nil loop.
func (fc *fcomp) reportUndefinedLabel(n ast.Stmt, label string) {
	if label == "" {
		return
	}
	pos, _ := n.Span()
	fc.pcomp.errs.Add(pos, diag.ErrUndefinedLabel, "undefined label %q", label)
}

// findLoop resolves an (optionally labeled) break/continue target by
// scanning the loop stack from innermost outward (spec.md §4.2's labeled
// loops).
func (fc *fcomp) findLoop(label string) *loopCtx {
	if label == "" {
		if len(fc.loops) == 0 {
			return nil
		}
		return fc.loops[len(fc.loops)-1]
	}
	for i := len(fc.loops) - 1; i >= 0; i-- {
		if fc.loops[i].label == label {
			return fc.loops[i]
		}
	}
	return nil
}

func (fc *fcomp) compileWhile(n *ast.While) {
	lc := fc.pushLoop(n.Label)
	header := fc.here()
	cond := fc.emitExpr(n.Cond)
	exitAddr := fc.emitJump(JUMP_IF_NOT_R, cond)
	fc.compileStmts(n.Body.Stmts)
	fc.emit(LOOP, header)
	end := fc.here()
	fc.patchJump(exitAddr, end)
	fc.popLoop(lc, end, header)
}

// compileForRange lowers "for v in lo..hi[..step]" (spec.md §4.2): the
// induction variable's register is resolved once before the loop, and the
// test at the top of the loop is LT_I, or LE_I for the inclusive form.
func (fc *fcomp) compileForRange(n *ast.ForRange) {
	v := fc.pcomp.declVar(n, n.Var)
	idxReg := fc.regOf(v)

	startReg := fc.emitExpr(n.RangeStart)
	fc.emit(MOVE, idxReg, startReg)
	endReg := fc.emitExpr(n.RangeEnd)
	stepReg := 0
	hasStep := n.RangeStep != nil
	if hasStep {
		stepReg = fc.emitExpr(n.RangeStep)
	}

	lc := fc.pushLoop(n.Label)
	header := fc.here()
	cmpOp := LT_I
	if n.Inclusive {
		cmpOp = LE_I
	}
	condReg := fc.scratch()
	fc.emit(cmpOp, condReg, idxReg, endReg)
	exitAddr := fc.emitJump(JUMP_IF_NOT_R, condReg)

	fc.compileStmts(n.Body.Stmts)

	continueAt := fc.here()
	if hasStep {
		fc.emit(ADD_I, idxReg, idxReg, stepReg)
	} else {
		one := fc.scratch()
		fc.emit(LOAD_CONST, one, fc.pcomp.constant(Value{Kind: ast.KindI32, I: 1}))
		fc.emit(ADD_I, idxReg, idxReg, one)
	}
	fc.emit(LOOP, header)
	end := fc.here()
	fc.patchJump(exitAddr, end)
	fc.popLoop(lc, end, continueAt)
}

// compileForIter lowers "for v in iterable" using the iterator opcode pair
// (spec.md §4.2): ITER_NEW materializes an iterator handle, ITER_NEXT
// advances it and jumps to the loop's end once exhausted.
func (fc *fcomp) compileForIter(n *ast.ForIter) {
	v := fc.pcomp.declVar(n, n.Var)
	elemReg := fc.regOf(v)

	src := fc.emitExpr(n.Iterable)
	iter := fc.scratch()
	fc.emit(ITER_NEW, iter, src)

	lc := fc.pushLoop(n.Label)
	header := fc.here()
	exitAddr := fc.emitJump(ITER_NEXT, elemReg, iter)

	fc.compileStmts(n.Body.Stmts)
	fc.emit(LOOP, header)
	end := fc.here()
	fc.patchJump(exitAddr, end)
	fc.popLoop(lc, end, header)
}

func (fc *fcomp) compileNestedFunction(n *ast.Function) {
	child := fc.pcomp.compileFunction(n.Name, n.Params, n, n.Body.Stmts)
	idx := fc.pcomp.addFunction(child)
	v := fc.pcomp.declVar(fc.declNodeForEnclosing(n), n.Name)
	dst := fc.scratch()
	fc.emit(MAKE_CLOSURE, dst, idx)
	fc.storeVar(v, dst)
}

// declNodeForEnclosing returns the node the function's own name was
// declared under, which walkFunction records as the *ast.Function node
// itself (scopeanalyzer declares fn.Name in the *enclosing* scope, keyed by
// the same fn pointer used for its parameters).
func (fc *fcomp) declNodeForEnclosing(n *ast.Function) any { return n }

func (fc *fcomp) compileMatch(n *ast.Match) {
	subject := fc.emitExpr(n.Subject)
	var endJumps []int
	for i := range n.Arms {
		arm := &n.Arms[i]
		var nextAddr int
		hasGuard := !arm.IsWildcard
		if hasGuard {
			condReg := fc.scratch()
			if arm.Literal != nil {
				lit := fc.emitExpr(arm.Literal)
				fc.emit(EQ_I, condReg, subject, lit)
			} else {
				// enum-pattern matching is resolved by the (not-yet-built) type
				// layer; emit a placeholder true so every arm after the
				// wildcard-equivalent check still compiles deterministically.
				fc.emit(LOAD_CONST, condReg, fc.pcomp.constant(Value{Kind: ast.KindBool, B: true}))
			}
			nextAddr = fc.emitJump(JUMP_IF_NOT_R, condReg)
		}
		fc.compileStmts(arm.Body.Stmts)
		if i < len(n.Arms)-1 {
			endJumps = append(endJumps, fc.emitJump(JUMP))
		}
		if hasGuard {
			fc.patchJump(nextAddr, fc.here())
		}
	}
	end := fc.here()
	for _, pos := range endJumps {
		fc.patchJump(pos, end)
	}
}

func (fc *fcomp) compileTry(n *ast.Try) {
	catchAddr := fc.emitJump(TRY_PUSH)
	fc.compileStmts(n.Body.Stmts)
	fc.emit(TRY_POP)
	endAddr := fc.emitJump(JUMP)
	fc.patchJump(catchAddr, fc.here())
	if n.Name != "" {
		v := fc.pcomp.declVar(n, n.Name)
		errReg := fc.scratch()
		fc.storeVar(v, errReg)
	}
	fc.compileStmts(n.Catch.Stmts)
	fc.patchJump(endAddr, fc.here())
}
