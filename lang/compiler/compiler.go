// Package compiler lowers an optimized, register-allocated AST into the
// register-based bytecode of spec.md §4.7: a constant pool with
// structural-equality dedup, 16-bit big-endian jump patch sites, and one
// Funcode per named function plus the module top-level body.
package compiler

import (
	"github.com/dolthub/swiss"

	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/regalloc"
	"github.com/mna/orus/lang/scopeanalyzer"
	"github.com/mna/orus/lang/token"
)

// internTableSize is the initial capacity hint passed to the constant-pool
// and name-interning SwissTables; both grow past it without issue, it just
// avoids a few early rehashes for typical module sizes.
const internTableSize = 64

// scratchBase is the first register of the scratch pool fcomp hands out for
// subexpression temporaries; registers below it are reserved for named
// variables the register allocator assigned (spec.md §4.5's 256-register
// file, split here so the emitter never needs a full liveness re-derivation
// of its own intermediate values).
const scratchBase = 192

// Compile lowers prog into a Program. prog must already have been through
// the scope analyzer, register allocator and optimizer; res and alloc are
// those phases' outputs.
func Compile(prog *ast.Program, res *scopeanalyzer.Result, alloc *regalloc.Allocation, errs *diag.List) *Program {
	pc := &pcomp{
		prog:        &Program{Name: prog.Name},
		constIndex:  swiss.NewMap[Value, int](internTableSize),
		globalIndex: swiss.NewMap[string, int](internTableSize),
		alloc:       alloc,
		errs:        errs,
		byDeclNode:  indexByDeclNode(res),
	}
	pc.prog.Functions = append(pc.prog.Functions, nil) // reserve slot 0 for top-level
	top := pc.compileFunction("<module>", nil, nil, prog.Stmts)
	pc.prog.Functions[0] = top
	return pc.prog
}

// indexByDeclNode groups every scope-analyzer variable by the AST node that
// declared it, then by name, so the emitter can recover which register a
// given VarDecl/ForRange/ForIter/Function/MatchArm/Try bound a name to
// without re-deriving scope resolution.
func indexByDeclNode(res *scopeanalyzer.Result) map[any]map[string]*scopeanalyzer.Variable {
	idx := make(map[any]map[string]*scopeanalyzer.Variable)
	for _, v := range res.AllVariables() {
		if v.DeclNode == nil {
			continue
		}
		m := idx[v.DeclNode]
		if m == nil {
			m = make(map[string]*scopeanalyzer.Variable)
			idx[v.DeclNode] = m
		}
		m[v.Name] = v
	}
	return idx
}

// pcomp holds state shared across every function compiled for one Program.
// The constant pool and global-name tables are SwissTables rather than
// built-in maps: both are probed once per literal/identifier the whole
// module over, the write-then-read-heavy pattern swiss.Map is tuned for.
type pcomp struct {
	prog        *Program
	constIndex  *swiss.Map[Value, int]
	globalIndex *swiss.Map[string, int]
	alloc       *regalloc.Allocation
	errs        *diag.List
	byDeclNode  map[any]map[string]*scopeanalyzer.Variable
}

// constant interns v into the program's constant pool, by structural
// equality (spec.md §4.7).
func (pc *pcomp) constant(v Value) int {
	if idx, ok := pc.constIndex.Get(v); ok {
		return idx
	}
	idx := len(pc.prog.Constants)
	pc.prog.Constants = append(pc.prog.Constants, v)
	pc.constIndex.Put(v, idx)
	return idx
}

// globalSlot returns the global slot index for name, allocating one if
// this is the first reference (spilled variables and module-level
// functions both live in the global table).
func (pc *pcomp) globalSlot(name string) int {
	if idx, ok := pc.globalIndex.Get(name); ok {
		return idx
	}
	idx := len(pc.prog.Globals)
	pc.prog.Globals = append(pc.prog.Globals, name)
	pc.globalIndex.Put(name, idx)
	return idx
}

// addFunction appends fn to the program and returns its index.
func (pc *pcomp) addFunction(fn *Funcode) int {
	pc.prog.Functions = append(pc.prog.Functions, fn)
	return len(pc.prog.Functions) - 1
}

// declVar looks up the register-allocator variable that node (and, for
// multi-name sites, name) declared.
func (pc *pcomp) declVar(node any, name string) *scopeanalyzer.Variable {
	return pc.byDeclNode[node][name]
}

// regOf returns the register v was assigned, loading it from its global
// slot into a fresh scratch register first if it was spilled.
func (fc *fcomp) regOf(v *scopeanalyzer.Variable) int {
	if v == nil {
		return fc.scratch()
	}
	reg, ok := fc.pcomp.alloc.Register[v]
	if ok && reg >= 0 {
		return reg
	}
	dst := fc.scratch()
	slot := fc.pcomp.globalSlot(v.Name)
	fc.emit(LOAD_GLOBAL, dst, slot)
	return dst
}

// storeVar writes src into v's home: its register, or its global slot if
// spilled.
func (fc *fcomp) storeVar(v *scopeanalyzer.Variable, src int) {
	if v == nil {
		return
	}
	if reg, ok := fc.pcomp.alloc.Register[v]; ok && reg >= 0 {
		if reg != src {
			fc.emit(MOVE, reg, src)
		}
		return
	}
	slot := fc.pcomp.globalSlot(v.Name)
	fc.emit(STORE_GLOBAL, slot, src)
}

// loopCtx tracks one enclosing loop's break/continue backpatch targets.
type loopCtx struct {
	label     string
	breaks    []int // code offsets of the jump's address operand
	continues []int
}

// fcomp holds state for compiling a single function body.
type fcomp struct {
	pcomp         *pcomp
	fn            *Funcode
	loops         []*loopCtx
	temp          int // next scratch register to hand out
	lastWasReturn bool
}

// compileFunction compiles one function body (or the module top-level, when
// name == "<module>") into a Funcode.
func (pc *pcomp) compileFunction(name string, params []ast.FuncParam, declNode any, stmts []ast.Stmt) *Funcode {
	fc := &fcomp{
		pcomp: pc,
		fn: &Funcode{
			Name:      name,
			NumParams: len(params),
		},
		temp: scratchBase,
	}
	for _, p := range params {
		v := pc.declVar(declNode, p.Name)
		if v != nil {
			if reg, ok := pc.alloc.Register[v]; ok && reg >= 0 {
				if reg+1 > fc.fn.NumRegs {
					fc.fn.NumRegs = reg + 1
				}
			}
		}
	}
	fc.compileStmts(stmts)
	fc.ensureReturn()
	if fc.temp-1 > fc.fn.NumRegs {
		fc.fn.NumRegs = fc.temp
	}
	return fc.fn
}

// ensureReturn appends an implicit RETURN_VOID unless the function already
// ends with a return (spec.md §4.7's "implicit RETURN_VOID insertion").
func (fc *fcomp) ensureReturn() {
	if fc.lastWasReturn {
		return
	}
	fc.emit(RETURN_VOID)
}

// scratch hands out the next temporary register, wrapping back to
// scratchBase; see the doc comment on scratchBase for the simplification
// this entails.
func (fc *fcomp) scratch() int {
	r := fc.temp
	fc.temp++
	if fc.temp >= 256 {
		fc.temp = scratchBase
	}
	if r+1 > fc.fn.NumRegs {
		fc.fn.NumRegs = r + 1
	}
	return r
}

// scratchRange reserves n consecutive scratch registers, for call
// arguments, array/struct literals, which the VM expects contiguous.
func (fc *fcomp) scratchRange(n int) int {
	base := fc.temp
	for i := 0; i < n; i++ {
		fc.scratch()
	}
	return base
}

// emit appends one instruction and its operands, returning the instruction's
// start offset.
func (fc *fcomp) emit(op Opcode, operands ...int) int {
	start := len(fc.fn.Code)
	fc.fn.Code = append(fc.fn.Code, byte(op))
	kinds := operandKinds[op]
	for i, kind := range kinds {
		v := 0
		if i < len(operands) {
			v = operands[i]
		}
		switch kind {
		case opReg, opU8:
			fc.fn.Code = append(fc.fn.Code, byte(v))
		case opU16:
			fc.fn.Code = append(fc.fn.Code, byte(v>>8), byte(v))
		}
	}
	fc.lastWasReturn = op == RETURN_R || op == RETURN_VOID
	return start
}

// emitJump emits a jump-family opcode with a placeholder address and
// returns the code offset of that address's first byte, for patchJump.
func (fc *fcomp) emitJump(op Opcode, operands ...int) int {
	start := fc.emit(op, append(operands, 0)...)
	return start + instrSize(op) - 2
}

// patchJump overwrites the address operand at addrPos with target, failing
// with diag.ErrTooComplexJump if target does not fit the 16-bit field
// (spec.md §4.7: "never silently truncated").
func (fc *fcomp) patchJump(addrPos, target int) {
	if target > 0xFFFF {
		fc.pcomp.errs.Add(token.Pos{}, diag.ErrTooComplexJump, "jump target %d exceeds the 16-bit patch site", target)
		return
	}
	fc.fn.Code[addrPos] = byte(target >> 8)
	fc.fn.Code[addrPos+1] = byte(target)
}

// here returns the current end-of-code program counter, the address a jump
// emitted right now would need to target to land here.
func (fc *fcomp) here() int { return len(fc.fn.Code) }

// kindFromName maps a type annotation string to its ast.Kind, defaulting to
// KindI32 for an absent or unrecognized annotation (spec.md §6.4's default
// integer width).
func kindFromName(name string) ast.Kind {
	switch name {
	case "i32":
		return ast.KindI32
	case "i64":
		return ast.KindI64
	case "u32":
		return ast.KindU32
	case "u64":
		return ast.KindU64
	case "f64":
		return ast.KindF64
	case "bool":
		return ast.KindBool
	case "string":
		return ast.KindString
	}
	return ast.KindI32
}

// inferKind estimates e's runtime kind well enough to pick a typed opcode
// family (spec.md §4.7's per-type arithmetic). It does not implement a full
// type checker: identifiers use their declared annotation, or else the kind
// of the value their declaring VarDecl initialized them with, and an
// unresolved expression defaults to KindI32.
func (fc *fcomp) inferKind(e ast.Expr) ast.Kind {
	switch n := e.(type) {
	case *ast.Literal:
		switch {
		case n.TokKind == token.STRING:
			return ast.KindString
		case n.TokKind == token.TRUE || n.TokKind == token.FALSE:
			return ast.KindBool
		case n.IsFloat:
			return ast.KindF64
		case n.Suffix != "":
			return kindFromName(n.Suffix)
		}
		return ast.KindI32
	case *ast.Identifier:
		v, ok := n.Binding.(*scopeanalyzer.Variable)
		if !ok {
			return ast.KindI32
		}
		if v.DeclaredType != "" {
			return kindFromName(v.DeclaredType)
		}
		if vd, ok := v.DeclNode.(*ast.VarDecl); ok {
			for i, name := range vd.Names {
				if name == v.Name && i < len(vd.Annotations) && vd.Annotations[i] != "" {
					return kindFromName(vd.Annotations[i])
				}
				if name == v.Name && i < len(vd.Values) {
					return fc.inferKind(vd.Values[i])
				}
			}
		}
		return ast.KindI32
	case *ast.Binary:
		lk := fc.inferKind(n.Left)
		if lk == ast.KindString || lk == ast.KindF64 {
			return lk
		}
		return fc.inferKind(n.Right)
	case *ast.Unary:
		return fc.inferKind(n.Operand)
	case *ast.Cast:
		return kindFromName(n.TargetName)
	case *ast.Ternary:
		return fc.inferKind(n.Then)
	}
	return ast.KindI32
}
