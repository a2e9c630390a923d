package optimizer

import (
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/token"
)

// foldExprTree recursively folds every foldable subexpression of e,
// bottom-up, and returns the (possibly replaced) root. Folding never
// crosses a function boundary and never folds a division or modulo whose
// divisor is a literal zero (spec.md §4.6.1).
func foldExprTree(e ast.Expr) ast.Expr {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ast.Binary:
		n.Left = foldExprTree(n.Left)
		n.Right = foldExprTree(n.Right)
		if lit, ok := foldBinary(n); ok {
			return lit
		}
		return n

	case *ast.Unary:
		n.Operand = foldExprTree(n.Operand)
		if lit, ok := foldUnary(n); ok {
			return lit
		}
		return n

	case *ast.Cast:
		n.Operand = foldExprTree(n.Operand)
		if lit, ok := foldCast(n); ok {
			return lit
		}
		return n

	case *ast.Ternary:
		n.Cond = foldExprTree(n.Cond)
		n.Then = foldExprTree(n.Then)
		n.Else = foldExprTree(n.Else)
		if b, ok := constBool(n.Cond); ok {
			if b {
				return n.Then
			}
			return n.Else
		}
		return n

	case *ast.Call:
		for i, a := range n.Args {
			n.Args[i] = foldExprTree(a)
		}
		return n

	case *ast.MemberAccess:
		n.Target = foldExprTree(n.Target)
		return n

	case *ast.IndexAccess:
		n.Target = foldExprTree(n.Target)
		n.Index = foldExprTree(n.Index)
		return n

	case *ast.ArraySlice:
		n.Target = foldExprTree(n.Target)
		n.Lo = foldExprTree(n.Lo)
		n.Hi = foldExprTree(n.Hi)
		return n

	case *ast.ArrayLiteral:
		for i, el := range n.Elems {
			n.Elems[i] = foldExprTree(el)
		}
		return n

	case *ast.ArrayFill:
		n.Value = foldExprTree(n.Value)
		n.Count = foldExprTree(n.Count)
		return n

	case *ast.StructLiteral:
		for i := range n.Fields {
			n.Fields[i].Value = foldExprTree(n.Fields[i].Value)
		}
		return n

	default:
		return e
	}
}

func asLiteral(e ast.Expr) (*ast.Literal, bool) {
	lit, ok := e.(*ast.Literal)
	return lit, ok
}

func constBool(e ast.Expr) (bool, bool) {
	lit, ok := asLiteral(e)
	if !ok || lit.TokKind != token.TRUE && lit.TokKind != token.FALSE {
		return false, false
	}
	return lit.BoolValue, true
}

func intLit(v int64, hasSuffix bool, suffix string) *ast.Literal {
	return &ast.Literal{TokKind: token.NUMBER, IntValue: v, HasExplicitSuffix: hasSuffix, Suffix: suffix}
}

func floatLit(v float64, suffix string) *ast.Literal {
	return &ast.Literal{TokKind: token.NUMBER, FloatValue: v, IsFloat: true, HasExplicitSuffix: suffix != "", Suffix: suffix}
}

func boolLit(v bool) *ast.Literal {
	tk := token.FALSE
	if v {
		tk = token.TRUE
	}
	return &ast.Literal{TokKind: tk, BoolValue: v}
}

func stringLit(v string) *ast.Literal {
	return &ast.Literal{TokKind: token.STRING, StringValue: v}
}

// foldBinary folds n if both operands are literals of a type combination
// the operator supports. It never folds / or % when the right operand is
// a literal zero (spec.md §4.6.1).
func foldBinary(n *ast.Binary) (*ast.Literal, bool) {
	left, lok := asLiteral(n.Left)
	right, rok := asLiteral(n.Right)

	// spec.md §4.6.1: boolean and/or fold with strict semantics — both sides
	// must be constant to fold, even when the left side alone already
	// determines the result (a constant-false left and a non-constant right
	// is not folded here; emitShortCircuit still generates the real
	// short-circuit jump at emission time regardless).
	if n.Op == token.AND || n.Op == token.OR {
		lb, lbok := constBool(n.Left)
		rb, rbok := constBool(n.Right)
		if !lbok || !rbok {
			return nil, false
		}
		if n.Op == token.AND {
			return boolLit(lb && rb), true
		}
		return boolLit(lb || rb), true
	}

	if !lok || !rok {
		return nil, false
	}

	if left.TokKind == token.STRING && right.TokKind == token.STRING {
		return foldStringBinary(n.Op, left, right)
	}
	if isNumericLit(left) && isNumericLit(right) {
		if left.IsFloat || right.IsFloat {
			return foldFloatBinary(n.Op, numericFloat(left), numericFloat(right), left.Suffix)
		}
		return foldIntBinary(n.Op, left.IntValue, right.IntValue, left.Suffix)
	}
	return nil, false
}

func isNumericLit(l *ast.Literal) bool { return l.TokKind == token.NUMBER }

// numericFloat returns l's value widened to float64, whether it was
// originally an integer or floating-point literal.
func numericFloat(l *ast.Literal) float64 {
	if l.IsFloat {
		return l.FloatValue
	}
	return float64(l.IntValue)
}

func foldStringBinary(op token.Token, a, b *ast.Literal) (*ast.Literal, bool) {
	switch op {
	case token.PLUS:
		return stringLit(a.StringValue + b.StringValue), true
	case token.EQ:
		return boolLit(a.StringValue == b.StringValue), true
	case token.NE:
		return boolLit(a.StringValue != b.StringValue), true
	case token.LT:
		return boolLit(a.StringValue < b.StringValue), true
	case token.LE:
		return boolLit(a.StringValue <= b.StringValue), true
	case token.GT:
		return boolLit(a.StringValue > b.StringValue), true
	case token.GE:
		return boolLit(a.StringValue >= b.StringValue), true
	}
	return nil, false
}

func foldIntBinary(op token.Token, a, b int64, suffix string) (*ast.Literal, bool) {
	switch op {
	case token.PLUS:
		return intLit(a+b, suffix != "", suffix), true
	case token.MINUS:
		return intLit(a-b, suffix != "", suffix), true
	case token.STAR:
		return intLit(a*b, suffix != "", suffix), true
	case token.SLASH:
		if b == 0 {
			return nil, false
		}
		return intLit(a/b, suffix != "", suffix), true
	case token.PERCENT:
		if b == 0 {
			return nil, false
		}
		return intLit(a%b, suffix != "", suffix), true
	case token.EQ:
		return boolLit(a == b), true
	case token.NE:
		return boolLit(a != b), true
	case token.LT:
		return boolLit(a < b), true
	case token.LE:
		return boolLit(a <= b), true
	case token.GT:
		return boolLit(a > b), true
	case token.GE:
		return boolLit(a >= b), true
	case token.AMPERSAND:
		return intLit(a&b, suffix != "", suffix), true
	case token.PIPE:
		return intLit(a|b, suffix != "", suffix), true
	case token.CIRCUMFLEX:
		return intLit(a^b, suffix != "", suffix), true
	case token.LTLT:
		if b < 0 || b >= 64 {
			return nil, false
		}
		return intLit(a<<uint(b), suffix != "", suffix), true
	case token.GTGT:
		if b < 0 || b >= 64 {
			return nil, false
		}
		return intLit(a>>uint(b), suffix != "", suffix), true
	}
	return nil, false
}

func foldFloatBinary(op token.Token, a, b float64, suffix string) (*ast.Literal, bool) {
	switch op {
	case token.PLUS:
		return floatLit(a+b, suffix), true
	case token.MINUS:
		return floatLit(a-b, suffix), true
	case token.STAR:
		return floatLit(a*b, suffix), true
	case token.SLASH:
		if b == 0 {
			return nil, false
		}
		return floatLit(a/b, suffix), true
	case token.EQ:
		return boolLit(a == b), true
	case token.NE:
		return boolLit(a != b), true
	case token.LT:
		return boolLit(a < b), true
	case token.LE:
		return boolLit(a <= b), true
	case token.GT:
		return boolLit(a > b), true
	case token.GE:
		return boolLit(a >= b), true
	}
	return nil, false
}

func foldUnary(n *ast.Unary) (*ast.Literal, bool) {
	lit, ok := asLiteral(n.Operand)
	if !ok {
		return nil, false
	}
	switch n.Op {
	case token.MINUS:
		if lit.TokKind != token.NUMBER {
			return nil, false
		}
		if lit.IsFloat {
			return floatLit(-lit.FloatValue, lit.Suffix), true
		}
		return intLit(-lit.IntValue, lit.Suffix != "", lit.Suffix), true
	case token.NOT:
		b, ok := constBool(n.Operand)
		if !ok {
			return nil, false
		}
		return boolLit(!b), true
	case token.TILDE:
		if lit.TokKind != token.NUMBER || lit.IsFloat {
			return nil, false
		}
		return intLit(^lit.IntValue, lit.Suffix != "", lit.Suffix), true
	}
	return nil, false
}

// foldCast folds an "as" cast over a literal operand for the primitive
// target types; string<->other conversions are never folded (left for the
// compiler's runtime cast handlers, spec.md §4.7).
func foldCast(n *ast.Cast) (*ast.Literal, bool) {
	lit, ok := asLiteral(n.Operand)
	if !ok || lit.TokKind != token.NUMBER {
		return nil, false
	}
	switch n.TargetName {
	case "i32", "i64", "u32", "u64":
		if lit.IsFloat {
			return intLit(int64(lit.FloatValue), true, n.TargetName), true
		}
		return intLit(lit.IntValue, true, n.TargetName), true
	case "f64":
		if lit.IsFloat {
			return floatLit(lit.FloatValue, n.TargetName), true
		}
		return floatLit(float64(lit.IntValue), n.TargetName), true
	}
	return nil, false
}
