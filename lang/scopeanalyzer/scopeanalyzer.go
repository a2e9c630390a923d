// Package scopeanalyzer implements the scope tree construction, lifetime
// classification, capture analysis and dead-variable elimination of
// spec.md §4.4. It runs after parsing and before the optimizer/emitter, so
// that LICM and the register allocator can trust its variable records.
//
// Emitted-instruction offsets do not exist yet at this point in the
// pipeline (the emitter runs afterwards); first_use/last_use are instead
// measured against a synthetic, monotonically increasing position counter
// advanced once per variable declaration and once per variable reference,
// in source order. This preserves
// every ordering property the rest of the pipeline needs (first_use <=
// last_use, interval overlap for interference) without requiring a
// throwaway pre-emission pass, grounded in the same "position counter
// rather than byte offset" shortcut the teacher resolver's block-index
// numbering (github.com/mna/nenuphar/lang/resolver) uses for its own
// non-byte-addressed bindings.
package scopeanalyzer

import (
	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/symtab"
)

// Priority classifies a variable's lifetime length for register allocation
// ordering (spec.md §4.4).
type Priority int

const (
	PriorityShort  Priority = 3 // lifespan < 10
	PriorityMedium Priority = 2 // 10 <= lifespan < 100
	PriorityLong   Priority = 1 // >= 100
)

// Variable is one scope-tree variable record (spec.md §3.5).
type Variable struct {
	Name             string
	DeclaredType     string
	DeclarationPoint int
	FirstUse         int
	LastUse          int
	Reg              int // assigned by the register allocator; -1 until then
	Priority         Priority
	Escapes          bool
	IsLoopVar        bool
	IsCaptured       bool
	CaptureDepth     int
	NeedsHeapAlloc   bool
	IsDead           bool
	UseCount         int
	WriteCount       int
	CrossesLoop      bool

	// DeclNode is the AST node that declared this variable (a *ast.VarDecl,
	// *ast.ForRange, *ast.ForIter, *ast.Function, *ast.MatchArm or *ast.Try),
	// opaque to this package's callers beyond identity comparison. The
	// compiler groups AllVariables() by (DeclNode, Name) to recover, at
	// emission time, which register a given declaration site was assigned
	// without re-deriving scope resolution from scratch.
	DeclNode any

	scope         *Scope
	declLoopDepth int
}

// Scope is one node of the scope tree (spec.md §3.5).
type Scope struct {
	Depth       int
	StartInstr  int
	EndInstr    int
	IsLoopScope bool
	Variables   []*Variable
	Children    []*Scope
	Parent      *Scope

	funcDepth int // function-nesting depth this scope belongs to
	table     *symtab.Table
}

// Result is the output of Analyze.
type Result struct {
	Root *Scope

	TotalVariables    int
	DeadVariables     int
	CapturedVariables int
	SavedRegisters    int

	// Interfering holds every pair of variables whose
	// [DeclarationPoint,LastUse] intervals overlap (a variable holds its
	// value from its declaration, not only from its first read), lifted
	// globally across all scopes per spec.md §4.4's "interference matrix
	// ... built per scope and then lifted globally". The register allocator
	// consumes this directly.
	Interfering [][2]*Variable
}

// AllVariables returns every variable in the scope tree, depth-first, live
// or dead. The register allocator uses this as its working set.
func (r *Result) AllVariables() []*Variable {
	var out []*Variable
	var walk func(s *Scope)
	walk = func(s *Scope) {
		out = append(out, s.Variables...)
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(r.Root)
	return out
}

type analyzer struct {
	errs    *diag.List
	table   *symtab.Table
	pos     int // synthetic instruction-position counter
	funcDep int
	loopDep int

	allVars []*Variable
}

// Analyze walks prog, builds the scope tree and computes every variable's
// lifetime, capture and deadness classification.
func Analyze(prog *ast.Program, errs *diag.List) *Result {
	a := &analyzer{errs: errs, table: symtab.New()}
	a.table.PushScope(0)

	root := &Scope{Depth: 0, table: a.table}
	a.walkBlockStmts(root, prog.Stmts)
	root.EndInstr = a.pos

	res := &Result{Root: root}
	a.classifyAndCollect(root, res)
	a.computeInterference(res)
	a.eliminateDead(res)
	a.validate(res)
	checkMatches(prog, errs)
	return res
}

func (a *analyzer) tick() int {
	p := a.pos
	a.pos++
	return p
}

func (a *analyzer) declare(scope *Scope, name, declaredType string, isLoopVar bool, node any) *Variable {
	v := &Variable{
		Name:             name,
		DeclaredType:     declaredType,
		DeclarationPoint: a.tick(),
		FirstUse:         -1,
		LastUse:          -1,
		Reg:              -1,
		Priority:         PriorityShort,
		IsLoopVar:        isLoopVar,
		DeclNode:         node,
		scope:            scope,
		declLoopDepth:    a.loopDep,
	}
	scope.Variables = append(scope.Variables, v)
	a.table.Set(name, len(a.allVars), scope.Depth)
	a.allVars = append(a.allVars, v)
	return v
}

// findDecl resolves name visible from scope (any depth <= scope.Depth).
func (a *analyzer) findDecl(scope *Scope, name string) *Variable {
	entry, ok := a.table.GetInScope(name, scope.Depth)
	if !ok {
		return nil
	}
	return a.allVars[entry.Index]
}

// reference records a use of v from within the scope currently being
// walked, at the current function-nesting depth, updating first/last use,
// use count, capture status and loop-crossing.
func (a *analyzer) reference(v *Variable, write bool) {
	pos := a.tick()
	if v.FirstUse == -1 {
		v.FirstUse = pos
	}
	v.LastUse = pos
	if write {
		v.WriteCount++
	} else {
		v.UseCount++
	}
	if a.loopDep != v.declLoopDepth {
		v.CrossesLoop = true
	}
	if a.funcDep > v.scope.funcDepth {
		delta := a.funcDep - v.scope.funcDepth
		if !v.IsCaptured || delta != v.CaptureDepth {
			if v.IsCaptured {
				v.NeedsHeapAlloc = true // captured across more than one distinct depth
			}
			v.CaptureDepth = delta
		}
		if v.IsCaptured {
			v.NeedsHeapAlloc = true // captured multiple times
		}
		v.IsCaptured = true
		v.Escapes = true
	}
}

func (a *analyzer) childScope(parent *Scope, isLoop bool) *Scope {
	c := &Scope{
		Depth:       parent.Depth + 1,
		StartInstr:  a.pos,
		IsLoopScope: isLoop,
		Parent:      parent,
		funcDepth:   a.funcDep,
	}
	parent.Children = append(parent.Children, c)
	a.table.PushScope(c.Depth)
	return c
}

func (a *analyzer) closeScope(s *Scope) {
	s.EndInstr = a.pos
	a.table.PopScope()
}
