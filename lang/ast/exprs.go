package ast

import "github.com/mna/orus/lang/token"

// Identifier is a reference to a named variable, constant or function.
type Identifier struct {
	typedBase
	Name string
	// Binding is filled in by the scope analyzer; it is opaque to the ast
	// package to avoid an import cycle with the symtab package.
	Binding any
}

func (n *Identifier) exprNode() {}

// Literal is a NUMBER, STRING or boolean literal.
type Literal struct {
	typedBase
	TokKind           token.Token // token.NUMBER, token.STRING, token.TRUE, token.FALSE
	Raw               string
	IntValue          int64
	FloatValue        float64
	IsFloat           bool
	StringValue       string
	BoolValue         bool
	HasExplicitSuffix bool
	Suffix            string
}

func (n *Literal) exprNode() {}

// Binary is a binary operator expression.
type Binary struct {
	typedBase
	Op          token.Token
	Left, Right Expr
}

func (n *Binary) exprNode() {}

// Unary is a prefix unary operator expression (- not ~).
type Unary struct {
	typedBase
	Op      token.Token
	Operand Expr
}

func (n *Unary) exprNode() {}

// Cast is an "expr as Type" expression.
type Cast struct {
	typedBase
	Operand       Expr
	TargetName    string
	Parenthesized bool
}

func (n *Cast) exprNode() {}

// Ternary covers both "cond ? a : b" and "a if cond else b" surface forms;
// Python is true when parsed from the latter (needed only for printing).
type Ternary struct {
	typedBase
	Cond, Then, Else Expr
	Python           bool
}

func (n *Ternary) exprNode() {}

// Call is a function call expression.
type Call struct {
	typedBase
	Callee Expr
	Args   []Expr
}

func (n *Call) exprNode() {}

// MemberAccess is "expr.name".
type MemberAccess struct {
	typedBase
	Target Expr
	Name   string
}

func (n *MemberAccess) exprNode() {}

// IndexAccess is "expr[index]".
type IndexAccess struct {
	typedBase
	Target Expr
	Index  Expr
}

func (n *IndexAccess) exprNode() {}

// ArrayLiteral is "[e1, e2, ...]".
type ArrayLiteral struct {
	typedBase
	Elems []Expr
}

func (n *ArrayLiteral) exprNode() {}

// ArrayFill is "[value; count]".
type ArrayFill struct {
	typedBase
	Value, Count Expr
}

func (n *ArrayFill) exprNode() {}

// ArraySlice is "expr[lo..hi]".
type ArraySlice struct {
	typedBase
	Target, Lo, Hi Expr
}

func (n *ArraySlice) exprNode() {}

// StructLiteral is "Type{field: value, ...}".
type StructLiteral struct {
	typedBase
	TypeName string
	Fields   []StructFieldInit
}

// StructFieldInit is one "name: value" pair in a StructLiteral.
type StructFieldInit struct {
	Name  string
	Value Expr
}

func (n *StructLiteral) exprNode() {}

// BadExpr stands in for a production the parser could not recover from.
type BadExpr struct {
	typedBase
}

func (n *BadExpr) exprNode() {}
