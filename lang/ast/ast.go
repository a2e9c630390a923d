// Package ast defines the abstract syntax tree produced by the parser and
// consumed by the scope analyzer, optimizer and bytecode emitter.
//
// The parser allocates nodes through an Arena, in the place of the teacher
// parser's arena-backed Chunk; here the Arena only counts allocations, each
// node is an ordinary Go heap value never freed individually, and Go's
// garbage collector reclaims the nodes once the compilation that owns them
// is dropped. Parent/child references are ordinary pointers, so cycles
// cannot occur by construction: the parser never stores a pointer to a
// node before that node exists.
package ast

import "github.com/mna/orus/lang/token"

// Arena owns every node allocated during one compilation. Its only purpose
// is to document and centralize node lifetime; nodes are otherwise ordinary
// Go values.
type Arena struct {
	count int
}

// NewNode allocates a zero-valued T from the arena and returns a pointer to
// it. The parser creates every node it builds through this function; the
// optimizer allocates the literals and blocks it synthesizes directly, so
// Count does not include them.
func NewNode[T any](a *Arena) *T {
	a.count++
	return new(T)
}

// Count returns the number of nodes allocated from a so far.
func (a *Arena) Count() int { return a.count }

// DataType describes the resolved static type of an expression (spec.md
// §3.3's "Typed AST Node"). No pass of this core calls SetType, so
// ResolvedType stays nil; the emitter estimates kinds itself (inferKind in
// lang/compiler).
// Rather than keep a second, parallel typed tree, resolved-type information
// is carried directly on the same Expr node (Design Notes §9 explicitly
// allows keeping Match as a single node instead of two trees; the same
// reasoning extends to typed vs. untyped nodes here).
type DataType struct {
	Kind Kind
	Name string // for Struct/Enum/Function named types
}

// Kind enumerates the primitive and structural type kinds the compiler core
// reasons about.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindI32
	KindI64
	KindU32
	KindU64
	KindF64
	KindBool
	KindString
	KindVoid
	KindArray
	KindStruct
	KindEnum
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindF64:
		return "f64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindVoid:
		return "void"
	case KindArray:
		return "array"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindFunction:
		return "function"
	}
	return "unknown"
}

// IsInteger reports whether k is one of the fixed-width integer kinds.
func (k Kind) IsInteger() bool {
	switch k {
	case KindI32, KindI64, KindU32, KindU64:
		return true
	}
	return false
}

// IsSigned reports whether k is a signed integer kind.
func (k Kind) IsSigned() bool { return k == KindI32 || k == KindI64 }

// IsNumeric reports whether k is an integer or floating-point kind.
func (k Kind) IsNumeric() bool { return k.IsInteger() || k == KindF64 }

// base carries the fields every node has: its source span.
type base struct {
	Start, End token.Pos
}

func (b base) Span() (token.Pos, token.Pos) { return b.Start, b.End }

// typedBase extends base with the typed-AST metadata of spec.md §3.3.
type typedBase struct {
	base
	ResolvedType *DataType
	TypeResolved bool
	HasTypeError bool
}

// Type returns the node's resolved type, or nil if not yet resolved.
func (t *typedBase) Type() *DataType { return t.ResolvedType }

// SetType records a resolved type and marks the node as successfully typed.
func (t *typedBase) SetType(dt DataType) {
	t.ResolvedType = &dt
	t.TypeResolved = true
	t.HasTypeError = false
}

// SetTypeError marks the node as having failed type resolution.
func (t *typedBase) SetTypeError() {
	t.TypeResolved = false
	t.HasTypeError = true
}

// Node is implemented by every AST node.
type Node interface {
	Span() (start, end token.Pos)
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	Type() *DataType
	exprNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of a compiled unit: a sequence of top-level
// statements plus the module name it was compiled under.
type Program struct {
	base
	Name  string
	Stmts []Stmt
}

func (n *Program) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}

// Block is a sequence of statements sharing one lexical scope.
type Block struct {
	base
	Stmts []Stmt
}

func (n *Block) stmtNode() {}
func (n *Block) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}
