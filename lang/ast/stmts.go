package ast

import "github.com/mna/orus/lang/token"

// VarDecl declares one or more names: "x = expr" (mutable re/declare),
// ":=" (immutable constant) or "mut x = expr" (explicit mutable). DeclTok
// distinguishes them; it is token.ASSIGN, token.WALRUS or token.MUT.
type VarDecl struct {
	base
	DeclTok     token.Token
	Names       []string
	Annotations []string // optional type annotation per name, "" if absent
	Values      []Expr
	IsGlobal    bool // true when declared at module (depth 0) scope
}

func (n *VarDecl) stmtNode() {}

// Assign stores into a member or index target ("a.f = expr", "a[i] = expr")
// or is a desugared compound assignment: the parser rewrites "x op= y" to
// "x = x op y". A plain "x = expr" with a bare name is a VarDecl instead.
type Assign struct {
	base
	Target Expr
	Value  Expr
}

func (n *Assign) stmtNode() {}

// ExprStmt wraps an expression used as a statement (almost always a Call).
type ExprStmt struct {
	base
	X Expr
}

func (n *ExprStmt) stmtNode() {}

// If is an if/elif/else chain; Else may be another *If (elif) or a *Block,
// or nil.
type If struct {
	base
	Cond Expr
	Then *Block
	Else Stmt // *If, *Block, or nil
}

func (n *If) stmtNode() {}

// While is a condition-checked loop, optionally labeled.
type While struct {
	base
	Label string
	Cond  Expr
	Body  *Block

	// LICM metadata, populated by the optimizer (spec.md §4.6.3).
	TypedGuardWitness    bool
	TypedMetadataStable  bool
	EscapeMask           uint32
	HoistedInvariants    int
	RedundantGuardFusions int
}

func (n *While) stmtNode() {}
func (n *While) IsLoop() bool { return true }

// ForRange is "for NAME in start..end[..step]" (or the "..=" inclusive
// form).
type ForRange struct {
	base
	Label                  string
	Var                    string
	RangeStart, RangeEnd, RangeStep Expr
	Inclusive              bool
	Body                   *Block

	TypedGuardWitness    bool
	TypedMetadataStable  bool
	EscapeMask           uint32
	HoistedInvariants    int
	RedundantGuardFusions int
}

func (n *ForRange) stmtNode()  {}
func (n *ForRange) IsLoop() bool { return true }

// ForIter is "for NAME in iterable".
type ForIter struct {
	base
	Label    string
	Var      string
	Iterable Expr
	Body     *Block

	TypedGuardWitness    bool
	TypedMetadataStable  bool
	EscapeMask           uint32
	HoistedInvariants    int
	RedundantGuardFusions int
}

func (n *ForIter) stmtNode()  {}
func (n *ForIter) IsLoop() bool { return true }

// Break exits the innermost loop, or the loop named by Label.
type Break struct {
	base
	Label string
}

func (n *Break) stmtNode() {}

// Continue restarts the innermost loop, or the loop named by Label.
type Continue struct {
	base
	Label string
}

func (n *Continue) stmtNode() {}

// Pass is an explicit no-op statement.
type Pass struct {
	base
}

func (n *Pass) stmtNode() {}

// Return exits the current function, optionally with a value.
type Return struct {
	base
	Value Expr // nil for a value-less return
}

func (n *Return) stmtNode() {}

// Print is the built-in print statement; Args are printed space-separated,
// Newline controls whether a trailing newline is emitted.
type Print struct {
	base
	Args    []Expr
	Newline bool
}

func (n *Print) stmtNode() {}

// FuncParam is one function parameter.
type FuncParam struct {
	Name       string
	Annotation string
}

// Function declares a named function.
type Function struct {
	base
	Pub        bool
	Name       string
	Params     []FuncParam
	ReturnType string // "" for a value-less function
	Body       *Block
}

func (n *Function) stmtNode() {}

// StructField is one field declaration in a Struct.
type StructField struct {
	Name       string
	Annotation string
}

// Struct declares a struct type.
type Struct struct {
	base
	Pub    bool
	Name   string
	Fields []StructField
}

func (n *Struct) stmtNode() {}

// EnumVariant is one variant of an Enum, optionally carrying payload types.
type EnumVariant struct {
	Name    string
	Payload []string // annotation per payload field, empty for a unit variant
}

// Enum declares an enum type.
type Enum struct {
	base
	Pub      bool
	Name     string
	Variants []EnumVariant
}

func (n *Enum) stmtNode() {}

// Impl attaches a set of methods (Functions) to a named type.
type Impl struct {
	base
	TypeName string
	Methods  []*Function
}

func (n *Impl) stmtNode() {}

// MatchArm is one arm of a Match statement. A literal pattern sets Literal;
// an enum pattern sets EnumType/EnumVariant/Binds; the wildcard arm sets
// IsWildcard.
type MatchArm struct {
	IsWildcard  bool
	Literal     Expr
	EnumType    string
	EnumVariant string
	Binds       []string
	Body        *Block
}

// Match is a pattern-matching statement. Exhaustiveness and duplicate-arm
// checks run in the scope analyzer; see spec.md §4.4 and §8 scenario 6.
type Match struct {
	base
	Subject Expr
	Arms    []MatchArm
}

func (n *Match) stmtNode() {}

// Try runs Body and, on a thrown error, binds it (if Name != "") and runs
// Catch.
type Try struct {
	base
	Body      *Block
	Name      string
	Catch     *Block
}

func (n *Try) stmtNode() {}

// Throw raises an error value.
type Throw struct {
	base
	Value Expr
}

func (n *Throw) stmtNode() {}

// ImportSymbol is one imported name, with an optional alias.
type ImportSymbol struct {
	Name  string
	Alias string
}

// Import is a "use a.b.c [as alias] [: * | sym, sym as alias, ...]"
// statement, valid only at module scope.
type Import struct {
	base
	Path    []string
	Alias   string
	Star    bool
	Symbols []ImportSymbol
}

func (n *Import) stmtNode() {}

// TypeAnnotation is a standalone type reference, used where the parser
// needs an Expr-shaped placeholder for a type name (e.g. as Cast's target
// before it is resolved to a concrete DataType).
type TypeAnnotation struct {
	typedBase
	Name string
}

func (n *TypeAnnotation) exprNode() {}

// BadStmt stands in for a production the parser could not recover from.
type BadStmt struct {
	base
}

func (n *BadStmt) stmtNode() {}
