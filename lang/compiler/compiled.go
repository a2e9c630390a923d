package compiler

import "github.com/mna/orus/lang/ast"

// Program is one compiled module: a constant pool and global table shared
// by every function it defines, plus the compiled functions themselves.
// Functions[0] is always the module's top-level body.
type Program struct {
	Name      string
	Constants []Value
	Globals   []string // global slot index -> declared name
	Functions []*Funcode
}

// Value is one constant-pool entry. A register machine needs a tagged
// union here because LOAD_CONST loads a typed value directly into a
// register, unlike a stack machine that can defer typing to the operand
// stack (spec.md §4.7).
type Value struct {
	Kind ast.Kind
	I    int64
	F    float64
	S    string
	B    bool
}

// Equal reports structural equality, the same comparison == makes on two
// Values; the constant pool's deduplication uses Value directly as a map
// key rather than calling Equal (spec.md §4.7: "structural-equality dedup").
func (v Value) Equal(o Value) bool {
	return v.Kind == o.Kind && v.I == o.I && v.F == o.F && v.S == o.S && v.B == o.B
}

// UpvalueDesc describes one upvalue a closure captures: either a register
// in the immediately enclosing function's frame, or an upvalue already
// captured by that enclosing function (for upvalues nested more than one
// function deep).
type UpvalueDesc struct {
	Name            string
	FromParentLocal bool
	Index           int
}

// Funcode is one compiled function (or the module top-level, at index 0 of
// Program.Functions).
type Funcode struct {
	Name      string
	NumParams int
	NumRegs   int // size of the register window this function needs
	Code      []byte
	Lines     []uint32 // source line per instruction; the emitter does not fill it, so it stays empty
	Upvalues  []UpvalueDesc
}
