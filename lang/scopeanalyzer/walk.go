package scopeanalyzer

import (
	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/token"
)

func (a *analyzer) walkBlockStmts(scope *Scope, stmts []ast.Stmt) {
	for _, s := range stmts {
		a.walkStmt(scope, s)
	}
}

func (a *analyzer) walkStmt(scope *Scope, s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		for _, v := range n.Values {
			a.walkExpr(scope, v, false)
		}
		for _, name := range n.Names {
			existing := a.findDeclExactOrShadow(scope, name)
			if existing != nil && n.DeclTok == token.WALRUS {
				start, _ := n.Span()
				a.errs.Add(start, diag.ErrDuplicateGlobal, "%q is already declared in this scope", name)
				continue
			}
			if existing == nil {
				a.declare(scope, name, "", false, n)
			}
		}
	case *ast.Assign:
		a.walkExpr(scope, n.Value, false)
		a.walkAssignTarget(scope, n.Target)
	case *ast.ExprStmt:
		a.walkExpr(scope, n.X, false)
	case *ast.If:
		a.walkExpr(scope, n.Cond, false)
		a.walkChildBlock(scope, n.Then, false)
		if n.Else != nil {
			a.walkStmt(scope, n.Else)
		}
	case *ast.While:
		a.walkExpr(scope, n.Cond, false)
		a.loopDep++
		a.walkChildBlock(scope, n.Body, true)
		a.loopDep--
	case *ast.ForRange:
		a.walkExpr(scope, n.RangeStart, false)
		a.walkExpr(scope, n.RangeEnd, false)
		if n.RangeStep != nil {
			a.walkExpr(scope, n.RangeStep, false)
		}
		a.loopDep++
		child := a.childScope(scope, true)
		a.declare(child, n.Var, "", true, n)
		a.walkBlockStmts(child, n.Body.Stmts)
		a.closeScope(child)
		a.loopDep--
	case *ast.ForIter:
		a.walkExpr(scope, n.Iterable, false)
		a.loopDep++
		child := a.childScope(scope, true)
		a.declare(child, n.Var, "", true, n)
		a.walkBlockStmts(child, n.Body.Stmts)
		a.closeScope(child)
		a.loopDep--
	case *ast.Return:
		if n.Value != nil {
			a.walkExpr(scope, n.Value, false)
		}
	case *ast.Print:
		for _, arg := range n.Args {
			a.walkExpr(scope, arg, false)
		}
	case *ast.Function:
		a.walkFunction(scope, n)
	case *ast.Impl:
		for _, m := range n.Methods {
			a.walkFunction(scope, m)
		}
	case *ast.Match:
		a.walkExpr(scope, n.Subject, false)
		for i, arm := range n.Arms {
			if arm.Literal != nil {
				a.walkExpr(scope, arm.Literal, false)
			}
			child := a.childScope(scope, false)
			for _, bind := range arm.Binds {
				a.declare(child, bind, "", false, &n.Arms[i])
			}
			a.walkBlockStmts(child, arm.Body.Stmts)
			a.closeScope(child)
		}
	case *ast.Try:
		a.walkChildBlock(scope, n.Body, false)
		child := a.childScope(scope, false)
		if n.Name != "" {
			a.declare(child, n.Name, "", false, n)
		}
		a.walkBlockStmts(child, n.Catch.Stmts)
		a.closeScope(child)
	case *ast.Throw:
		if n.Value != nil {
			a.walkExpr(scope, n.Value, false)
		}
	case *ast.Break, *ast.Continue, *ast.Pass, *ast.Struct, *ast.Enum, *ast.Import:
		// no expressions, no new bindings in the current scope.
	}
}

func (a *analyzer) findDeclExactOrShadow(scope *Scope, name string) *Variable {
	if entry, ok := a.table.GetExactScope(name, scope.Depth); ok {
		return a.allVars[entry.Index]
	}
	return nil
}

func (a *analyzer) walkChildBlock(scope *Scope, blk *ast.Block, isLoop bool) {
	child := a.childScope(scope, isLoop)
	a.walkBlockStmts(child, blk.Stmts)
	a.closeScope(child)
}

func (a *analyzer) walkAssignTarget(scope *Scope, target ast.Expr) {
	switch t := target.(type) {
	case *ast.Identifier:
		if v := a.findDecl(scope, t.Name); v != nil {
			a.reference(v, true)
			t.Binding = v
		} else {
			start, _ := t.Span()
			a.errs.Add(start, diag.ErrUndefinedVariable, "undefined variable %q", t.Name)
		}
	default:
		a.walkExpr(scope, target, false)
	}
}

func (a *analyzer) walkFunction(scope *Scope, fn *ast.Function) {
	// the function's own name is bound in the enclosing scope, its
	// parameters and body form a strictly nested function scope.
	a.declare(scope, fn.Name, fn.ReturnType, false, fn)

	a.funcDep++
	child := a.childScope(scope, false)
	for _, param := range fn.Params {
		a.declare(child, param.Name, param.Annotation, false, fn)
	}
	a.walkBlockStmts(child, fn.Body.Stmts)
	a.closeScope(child)
	a.funcDep--
}

func (a *analyzer) walkExpr(scope *Scope, e ast.Expr, write bool) {
	switch n := e.(type) {
	case *ast.Identifier:
		if v := a.findDecl(scope, n.Name); v != nil {
			a.reference(v, write)
			n.Binding = v
		} else {
			start, _ := n.Span()
			a.errs.Add(start, diag.ErrUndefinedVariable, "undefined variable %q", n.Name)
		}
	case *ast.Literal:
		// leaf, nothing to resolve.
	case *ast.Binary:
		a.walkExpr(scope, n.Left, false)
		a.walkExpr(scope, n.Right, false)
	case *ast.Unary:
		a.walkExpr(scope, n.Operand, false)
	case *ast.Cast:
		a.walkExpr(scope, n.Operand, false)
	case *ast.Ternary:
		a.walkExpr(scope, n.Cond, false)
		a.walkExpr(scope, n.Then, false)
		a.walkExpr(scope, n.Else, false)
	case *ast.Call:
		a.walkExpr(scope, n.Callee, false)
		for _, arg := range n.Args {
			a.walkExpr(scope, arg, false)
		}
	case *ast.MemberAccess:
		a.walkExpr(scope, n.Target, false)
	case *ast.IndexAccess:
		a.walkExpr(scope, n.Target, false)
		a.walkExpr(scope, n.Index, false)
	case *ast.ArrayLiteral:
		for _, el := range n.Elems {
			a.walkExpr(scope, el, false)
		}
	case *ast.ArrayFill:
		a.walkExpr(scope, n.Value, false)
		a.walkExpr(scope, n.Count, false)
	case *ast.ArraySlice:
		a.walkExpr(scope, n.Target, false)
		if n.Lo != nil {
			a.walkExpr(scope, n.Lo, false)
		}
		if n.Hi != nil {
			a.walkExpr(scope, n.Hi, false)
		}
	case *ast.StructLiteral:
		for _, f := range n.Fields {
			a.walkExpr(scope, f.Value, false)
		}
	}
}
