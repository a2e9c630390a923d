package compiler

import (
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/scopeanalyzer"
	"github.com/mna/orus/lang/token"
)

// emitExpr evaluates e and returns the register holding its result.
func (fc *fcomp) emitExpr(e ast.Expr) int {
	switch n := e.(type) {
	case *ast.Literal:
		return fc.emitLiteral(n)

	case *ast.Identifier:
		v, _ := n.Binding.(*scopeanalyzer.Variable)
		return fc.regOf(v)

	case *ast.Binary:
		return fc.emitBinary(n)

	case *ast.Unary:
		return fc.emitUnary(n)

	case *ast.Cast:
		src := fc.emitExpr(n.Operand)
		dst := fc.scratch()
		fc.emit(CAST, dst, src, int(fc.inferKind(n.Operand)), int(kindFromName(n.TargetName)))
		return dst

	case *ast.Ternary:
		return fc.emitTernary(n)

	case *ast.Call:
		return fc.emitCall(n)

	case *ast.MemberAccess:
		obj := fc.emitExpr(n.Target)
		dst := fc.scratch()
		fc.emit(FIELD_GET, dst, obj, fc.pcomp.globalSlot(n.Name))
		return dst

	case *ast.IndexAccess:
		arr := fc.emitExpr(n.Target)
		idx := fc.emitExpr(n.Index)
		dst := fc.scratch()
		fc.emit(ARRAY_GET, dst, arr, idx)
		return dst

	case *ast.ArraySlice:
		arr := fc.emitExpr(n.Target)
		lo := fc.zeroOr(n.Lo)
		var hi int
		if n.Hi != nil {
			hi = fc.emitExpr(n.Hi)
		} else {
			hi = fc.scratch()
			fc.emit(ARRAY_LEN, hi, arr)
		}
		dst := fc.scratch()
		fc.emit(ARRAY_SLICE, dst, arr, lo, hi)
		return dst

	case *ast.ArrayLiteral:
		base := fc.scratchRange(len(n.Elems))
		for i, el := range n.Elems {
			fc.emitExprInto(el, base+i)
		}
		dst := fc.scratch()
		fc.emit(MAKE_ARRAY, dst, base, len(n.Elems))
		return dst

	case *ast.ArrayFill:
		val := fc.emitExpr(n.Value)
		cnt := fc.emitExpr(n.Count)
		dst := fc.scratch()
		fc.emit(ARRAY_FILL, dst, val, cnt)
		return dst

	case *ast.StructLiteral:
		base := fc.scratchRange(len(n.Fields))
		for i, f := range n.Fields {
			fc.emitExprInto(f.Value, base+i)
		}
		dst := fc.scratch()
		fc.emit(STRUCT_NEW, dst, fc.pcomp.globalSlot(n.TypeName), base, len(n.Fields))
		return dst

	default:
		return fc.scratch()
	}
}

// emitExprInto evaluates e and ensures its result ends up in reg.
func (fc *fcomp) emitExprInto(e ast.Expr, reg int) {
	got := fc.emitExpr(e)
	if got != reg {
		fc.emit(MOVE, reg, got)
	}
}

// zeroOr evaluates e if non-nil, or loads the integer literal 0 otherwise
// (an omitted lower slice bound defaults to the start of the array; an
// omitted upper bound is loaded with ARRAY_LEN by the ArraySlice case).
func (fc *fcomp) zeroOr(e ast.Expr) int {
	if e == nil {
		dst := fc.scratch()
		fc.emit(LOAD_CONST, dst, fc.pcomp.constant(Value{Kind: ast.KindI32}))
		return dst
	}
	return fc.emitExpr(e)
}

func (fc *fcomp) emitLiteral(n *ast.Literal) int {
	var v Value
	switch {
	case n.TokKind == token.STRING:
		v = Value{Kind: ast.KindString, S: n.StringValue}
	case n.TokKind == token.TRUE || n.TokKind == token.FALSE:
		v = Value{Kind: ast.KindBool, B: n.BoolValue}
	case n.IsFloat:
		v = Value{Kind: ast.KindF64, F: n.FloatValue}
	default:
		k := ast.KindI32
		if n.Suffix != "" {
			k = kindFromName(n.Suffix)
		}
		v = Value{Kind: k, I: n.IntValue}
	}
	dst := fc.scratch()
	fc.emit(LOAD_CONST, dst, fc.pcomp.constant(v))
	return dst
}

func (fc *fcomp) emitBinary(n *ast.Binary) int {
	if n.Op == token.AND || n.Op == token.OR {
		return fc.emitShortCircuit(n)
	}

	left := fc.emitExpr(n.Left)
	right := fc.emitExpr(n.Right)
	dst := fc.scratch()
	kind := fc.inferKind(n.Left)

	op, ok := binaryOpcode(n.Op, kind)
	if !ok {
		// fall back to the integer family; an upstream type-checking pass is
		// expected to have already rejected genuinely invalid operand kinds.
		op, _ = binaryOpcode(n.Op, ast.KindI32)
	}
	fc.emit(op, dst, left, right)
	return dst
}

// emitShortCircuit lowers "and"/"or" with real short-circuit control flow
// rather than evaluating both operands unconditionally.
func (fc *fcomp) emitShortCircuit(n *ast.Binary) int {
	dst := fc.scratch()
	left := fc.emitExpr(n.Left)
	fc.emit(MOVE, dst, left)

	var skip int
	if n.Op == token.AND {
		skip = fc.emitJump(JUMP_IF_NOT_R, dst)
	} else {
		notDst := fc.scratch()
		fc.emit(NOT_BOOL, notDst, dst)
		skip = fc.emitJump(JUMP_IF_NOT_R, notDst)
	}
	right := fc.emitExpr(n.Right)
	fc.emit(MOVE, dst, right)
	fc.patchJump(skip, fc.here())
	return dst
}

func binaryOpcode(op token.Token, kind ast.Kind) (Opcode, bool) {
	if kind == ast.KindString {
		switch op {
		case token.PLUS:
			return CONCAT_STR, true
		case token.EQ:
			return EQ_STR, true
		case token.NE:
			return NE_STR, true
		case token.LT:
			return LT_STR, true
		case token.LE:
			return LE_STR, true
		case token.GT:
			return GT_STR, true
		case token.GE:
			return GE_STR, true
		}
		return 0, false
	}
	if kind == ast.KindBool {
		switch op {
		case token.EQ:
			return EQ_BOOL, true
		case token.NE:
			return NE_BOOL, true
		}
		return 0, false
	}
	if kind == ast.KindF64 {
		switch op {
		case token.PLUS:
			return ADD_F, true
		case token.MINUS:
			return SUB_F, true
		case token.STAR:
			return MUL_F, true
		case token.SLASH:
			return DIV_F, true
		case token.EQ:
			return EQ_F, true
		case token.NE:
			return NE_F, true
		case token.LT:
			return LT_F, true
		case token.LE:
			return LE_F, true
		case token.GT:
			return GT_F, true
		case token.GE:
			return GE_F, true
		}
		return 0, false
	}
	// integer family (i32/i64/u32/u64)
	switch op {
	case token.PLUS:
		return ADD_I, true
	case token.MINUS:
		return SUB_I, true
	case token.STAR:
		return MUL_I, true
	case token.SLASH:
		return DIV_I, true
	case token.PERCENT:
		return MOD_I, true
	case token.EQ:
		return EQ_I, true
	case token.NE:
		return NE_I, true
	case token.LT:
		return LT_I, true
	case token.LE:
		return LE_I, true
	case token.GT:
		return GT_I, true
	case token.GE:
		return GE_I, true
	case token.AMPERSAND:
		return BAND, true
	case token.PIPE:
		return BOR, true
	case token.CIRCUMFLEX:
		return BXOR, true
	case token.LTLT:
		return SHL, true
	case token.GTGT:
		return SHR, true
	}
	return 0, false
}

func (fc *fcomp) emitUnary(n *ast.Unary) int {
	src := fc.emitExpr(n.Operand)
	dst := fc.scratch()
	kind := fc.inferKind(n.Operand)
	switch n.Op {
	case token.MINUS:
		if kind == ast.KindF64 {
			fc.emit(NEG_F, dst, src)
		} else {
			fc.emit(NEG_I, dst, src)
		}
	case token.NOT:
		fc.emit(NOT_BOOL, dst, src)
	case token.TILDE:
		fc.emit(BNOT, dst, src)
	}
	return dst
}

func (fc *fcomp) emitTernary(n *ast.Ternary) int {
	dst := fc.scratch()
	cond := fc.emitExpr(n.Cond)
	elseAddr := fc.emitJump(JUMP_IF_NOT_R, cond)
	fc.emitExprInto(n.Then, dst)
	endAddr := fc.emitJump(JUMP)
	fc.patchJump(elseAddr, fc.here())
	fc.emitExprInto(n.Else, dst)
	fc.patchJump(endAddr, fc.here())
	return dst
}

func (fc *fcomp) emitCall(n *ast.Call) int {
	callee := fc.emitExpr(n.Callee)
	base := fc.scratchRange(len(n.Args))
	for i, a := range n.Args {
		fc.emitExprInto(a, base+i)
	}
	dst := fc.scratch()
	fc.emit(CALL_R, dst, callee, base, len(n.Args))
	return dst
}
