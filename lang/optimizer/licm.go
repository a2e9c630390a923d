package optimizer

import (
	"golang.org/x/exp/slices"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/token"
)

// loopMeta is the LICM metadata every loop kind carries (spec.md §4.6.3);
// While, ForRange and ForIter each declare these fields directly so the
// emitter can read them without an extra lookup table.
type loopMeta struct {
	typedGuardWitness     *bool
	typedMetadataStable   *bool
	escapeMask            *uint32
	hoistedInvariants     *int
	redundantGuardFusions *int
}

func metaOf(loop ast.Stmt) loopMeta {
	switch n := loop.(type) {
	case *ast.While:
		return loopMeta{&n.TypedGuardWitness, &n.TypedMetadataStable, &n.EscapeMask, &n.HoistedInvariants, &n.RedundantGuardFusions}
	case *ast.ForRange:
		return loopMeta{&n.TypedGuardWitness, &n.TypedMetadataStable, &n.EscapeMask, &n.HoistedInvariants, &n.RedundantGuardFusions}
	case *ast.ForIter:
		return loopMeta{&n.TypedGuardWitness, &n.TypedMetadataStable, &n.EscapeMask, &n.HoistedInvariants, &n.RedundantGuardFusions}
	}
	return loopMeta{}
}

// runLICM hoists loop-invariant top-level VarDecls out of body and fuses
// chained boolean guards within it (spec.md §4.6.3). It returns the
// statements to prepend immediately before loop.
func runLICM(loop ast.Stmt, cond ast.Expr, body *ast.Block, st *Stats) []ast.Stmt {
	meta := metaOf(loop)
	mutated := collectMutated(body.Stmts)
	// the loop's own induction variable changes on every iteration.
	switch n := loop.(type) {
	case *ast.ForRange:
		mutated[n.Var] = true
	case *ast.ForIter:
		mutated[n.Var] = true
	}
	if cond != nil {
		markGuardNames(cond, mutated)
	}

	var pre []ast.Stmt
	var hoistedNames []string
	kept := body.Stmts[:0:0]
	hoisted := 0
	for _, s := range body.Stmts {
		vd, ok := s.(*ast.VarDecl)
		// a name already hoisted earlier in this same pass would shadow
		// itself if hoisted twice; skip the duplicate candidate rather than
		// re-declare it above the loop.
		if ok && isHoistable(vd, mutated) && !slices.ContainsFunc(hoistedNames, func(n string) bool { return hoistDeclares(vd, n) }) {
			pre = append(pre, vd)
			hoistedNames = append(hoistedNames, vd.Names...)
			// vd's own name is no longer considered loop-varying once it has
			// been hoisted, so a later declaration built on top of it (the
			// "g2 := g1 and base" guard-chain shape) can be recognized as
			// invariant too and hoisted alongside it.
			delete(mutated, vd.Names[0])
			for _, n := range vd.Names[1:] {
				delete(mutated, n)
			}
			hoisted++
			continue
		}
		kept = append(kept, s)
	}
	body.Stmts = kept

	// guard fusion collapses chains among the statements that were actually
	// hoisted together (spec.md §4.6.3: "two consecutive hoisted statements
	// ... of the shape g2 := g1 and base"); a guard still referenced from
	// the remaining loop body or the loop condition is not "redundant" even
	// once fused into the next guard, so usage is scanned across all three.
	usedElsewhere := make(map[string]bool)
	for _, s := range kept {
		markGuardUses(s, usedElsewhere)
	}
	if cond != nil {
		markGuardUsesExpr(cond, usedElsewhere)
	}
	fused, redundant := fuseGuards(pre, usedElsewhere)

	if hoisted > 0 || fused > 0 {
		st.Changed = true
		st.LoopsOptimized++
	}
	st.InvariantsHoisted += hoisted
	st.GuardFusions += fused
	st.RedundantGuardFusions += redundant

	if meta.hoistedInvariants != nil {
		*meta.hoistedInvariants = hoisted
		*meta.redundantGuardFusions = redundant
		*meta.typedMetadataStable = hoisted > 0 || fused > 0
		*meta.typedGuardWitness = fused > 0
		*meta.escapeMask = computeEscapeMask(mutated)
	}
	return pre
}

// hoistDeclares reports whether vd declares name among its Names.
func hoistDeclares(vd *ast.VarDecl, name string) bool {
	return slices.Contains(vd.Names, name)
}

// collectMutated returns the set of names assigned to, declared, or used as
// a loop variable anywhere in stmts (not descending into nested function
// bodies, per spec.md §4.6.3's "function bodies are not traversed").
func collectMutated(stmts []ast.Stmt) map[string]bool {
	m := make(map[string]bool)
	var walk func(ast.Stmt)
	walk = func(s ast.Stmt) {
		switch n := s.(type) {
		case *ast.VarDecl:
			for _, name := range n.Names {
				m[name] = true
			}
		case *ast.Assign:
			if id, ok := n.Target.(*ast.Identifier); ok {
				m[id.Name] = true
			}
		case *ast.If:
			walkBlock(n.Then, walk)
			if n.Else != nil {
				walk(n.Else)
			}
		case *ast.While:
			m[n.Label] = true
			walkBlock(n.Body, walk)
		case *ast.ForRange:
			m[n.Var] = true
			walkBlock(n.Body, walk)
		case *ast.ForIter:
			m[n.Var] = true
			walkBlock(n.Body, walk)
		case *ast.Block:
			walkBlock(n, walk)
		case *ast.Match:
			for _, arm := range n.Arms {
				for _, b := range arm.Binds {
					m[b] = true
				}
				walkBlock(arm.Body, walk)
			}
		case *ast.Try:
			walkBlock(n.Body, walk)
			walkBlock(n.Catch, walk)
		}
	}
	for _, s := range stmts {
		walk(s)
	}
	return m
}

func walkBlock(b *ast.Block, walk func(ast.Stmt)) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		walk(s)
	}
}

func markGuardNames(e ast.Expr, mutated map[string]bool) {
	// the condition's own free variables are read-only from the hoist
	// candidate's point of view; nothing to mark here beyond what
	// collectMutated already found inside the body.
	_ = e
	_ = mutated
}

// isHoistable reports whether vd's value(s) reference nothing mutated
// inside the loop body, so moving it above the loop cannot change meaning
// (spec.md §4.6.3's invariance rule). Declarations with annotations are
// still eligible: the annotation does not affect the computed value.
func isHoistable(vd *ast.VarDecl, mutated map[string]bool) bool {
	if vd.IsGlobal {
		return false
	}
	for _, v := range vd.Values {
		if !isInvariantExpr(v, mutated) {
			return false
		}
	}
	return true
}

// isInvariantExpr reports whether e's value cannot change across loop
// iterations: it is built entirely from literals and identifiers not in
// mutated, with no call expressions (calls may have side effects or
// observe mutable state, so they are never hoisted).
func isInvariantExpr(e ast.Expr, mutated map[string]bool) bool {
	switch n := e.(type) {
	case *ast.Literal:
		return true
	case *ast.Identifier:
		return !mutated[n.Name]
	case *ast.Binary:
		return isInvariantExpr(n.Left, mutated) && isInvariantExpr(n.Right, mutated)
	case *ast.Unary:
		return isInvariantExpr(n.Operand, mutated)
	case *ast.Cast:
		return isInvariantExpr(n.Operand, mutated)
	case *ast.MemberAccess:
		return isInvariantExpr(n.Target, mutated)
	default:
		return false
	}
}

// fuseGuards collapses the "g2 := g1 and base" pattern (spec.md §4.6.3,
// Glossary "Guard fusion"): given g1 := a and base followed by
// g2 := g1 and base with the *same* base, g2's initializer rewrites to the
// bare identifier g1 — not a new conjunction — and the original g1/base
// nodes of the now-redundant initializer are dropped. The base operand
// must match structurally; a mere name collision between two unrelated
// guards must never fuse.
func fuseGuards(stmts []ast.Stmt, guardUsedElsewhere map[string]bool) (fused, redundant int) {
	guardValue := make(map[string]ast.Expr)

	for _, s := range stmts {
		if vd, ok := s.(*ast.VarDecl); ok && len(vd.Names) == 1 && len(vd.Values) == 1 {
			if bin, ok := vd.Values[0].(*ast.Binary); ok && bin.Op == token.AND {
				if id, ok := bin.Left.(*ast.Identifier); ok {
					if prevBin, known := guardValue[id.Name].(*ast.Binary); known && prevBin.Op == token.AND && exprEqual(prevBin.Right, bin.Right) {
						// bin.Left (id) already is a complete, correctly bound
						// reference to g1; reuse it as the fused value rather than
						// building a second conjunction.
						vd.Values[0] = id
						fused++
						if !guardUsedElsewhere[id.Name] {
							redundant++
						}
					}
				}
			}
			guardValue[vd.Names[0]] = vd.Values[0]
		}
		markGuardUses(s, guardUsedElsewhere)
	}
	return fused, redundant
}

// exprEqual reports whether a and b are structurally identical expressions,
// the "same base" precondition fuseGuards requires before collapsing two
// guards (spec.md §4.6.3).
func exprEqual(a, b ast.Expr) bool {
	switch an := a.(type) {
	case *ast.Identifier:
		bn, ok := b.(*ast.Identifier)
		return ok && an.Name == bn.Name
	case *ast.Literal:
		bn, ok := b.(*ast.Literal)
		return ok && an.TokKind == bn.TokKind && an.IntValue == bn.IntValue &&
			an.FloatValue == bn.FloatValue && an.StringValue == bn.StringValue &&
			an.BoolValue == bn.BoolValue && an.Raw == bn.Raw
	case *ast.Binary:
		bn, ok := b.(*ast.Binary)
		return ok && an.Op == bn.Op && exprEqual(an.Left, bn.Left) && exprEqual(an.Right, bn.Right)
	case *ast.Unary:
		bn, ok := b.(*ast.Unary)
		return ok && an.Op == bn.Op && exprEqual(an.Operand, bn.Operand)
	case *ast.Cast:
		bn, ok := b.(*ast.Cast)
		return ok && an.TargetName == bn.TargetName && exprEqual(an.Operand, bn.Operand)
	case *ast.MemberAccess:
		bn, ok := b.(*ast.MemberAccess)
		return ok && an.Name == bn.Name && exprEqual(an.Target, bn.Target)
	default:
		return false
	}
}

// markGuardUsesExpr records every identifier referenced anywhere within e.
func markGuardUsesExpr(e ast.Expr, used map[string]bool) {
	switch n := e.(type) {
	case *ast.Identifier:
		used[n.Name] = true
	case *ast.Binary:
		markGuardUsesExpr(n.Left, used)
		markGuardUsesExpr(n.Right, used)
	case *ast.Unary:
		markGuardUsesExpr(n.Operand, used)
	case *ast.Cast:
		markGuardUsesExpr(n.Operand, used)
	case *ast.MemberAccess:
		markGuardUsesExpr(n.Target, used)
	case *ast.IndexAccess:
		markGuardUsesExpr(n.Target, used)
		markGuardUsesExpr(n.Index, used)
	case *ast.Ternary:
		markGuardUsesExpr(n.Cond, used)
		markGuardUsesExpr(n.Then, used)
		markGuardUsesExpr(n.Else, used)
	case *ast.Call:
		markGuardUsesExpr(n.Callee, used)
		for _, a := range n.Args {
			markGuardUsesExpr(a, used)
		}
	}
}

// markGuardUses records every identifier referenced by s's own expressions,
// so a guard still read from the surviving loop body is never mistaken for
// one that became fully redundant after fusion.
func markGuardUses(s ast.Stmt, used map[string]bool) {
	switch n := s.(type) {
	case *ast.If:
		markGuardUsesExpr(n.Cond, used)
	case *ast.ExprStmt:
		markGuardUsesExpr(n.X, used)
	case *ast.Print:
		for _, a := range n.Args {
			markGuardUsesExpr(a, used)
		}
	case *ast.VarDecl:
		for _, v := range n.Values {
			markGuardUsesExpr(v, used)
		}
	case *ast.Assign:
		markGuardUsesExpr(n.Value, used)
	case *ast.Return:
		if n.Value != nil {
			markGuardUsesExpr(n.Value, used)
		}
	}
}

// computeEscapeMask packs up to 32 mutated-name bits into the loop's
// escape_mask (spec.md §4.6.3); names beyond the 32nd are conservatively
// folded into bit 31 so the mask never under-reports mutation.
func computeEscapeMask(mutated map[string]bool) uint32 {
	var mask uint32
	i := 0
	for range mutated {
		bit := i
		if bit > 31 {
			bit = 31
		}
		mask |= 1 << uint(bit)
		i++
	}
	return mask
}
