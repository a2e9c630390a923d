package parser

import (
	"fmt"
	"strings"

	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/token"
)

func (p *parser) parseStmt() ast.Stmt {
	p.enter()
	defer p.leave()

	switch p.tok.Kind {
	case token.LABEL:
		return p.parseLabeledLoop()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile("")
	case token.FOR:
		return p.parseFor("")
	case token.BREAK:
		return p.parseBreak()
	case token.CONTINUE:
		return p.parseContinue()
	case token.PASS:
		pos := p.tok.Pos
		p.advance()
		n := ast.NewNode[ast.Pass](p.arena)
		n.Start, n.End = pos, pos
		return n
	case token.RETURN:
		return p.parseReturn()
	case token.PRINT:
		return p.parsePrint()
	case token.FN:
		return p.parseFunction(false)
	case token.PUB:
		return p.parsePub()
	case token.STRUCT:
		return p.parseStruct(false)
	case token.ENUM:
		return p.parseEnum(false)
	case token.IMPL:
		return p.parseImpl()
	case token.MATCH:
		return p.parseMatch()
	case token.TRY:
		return p.parseTry()
	case token.THROW:
		return p.parseThrow()
	case token.USE:
		return p.parseUse()
	case token.MUT:
		return p.parseVarDecl()
	default:
		return p.parseSimpleStmt()
	}
}

func (p *parser) parsePub() ast.Stmt {
	p.expect(token.PUB)
	if p.blockDepth > 0 {
		p.errorf(p.tok.Pos, diag.ErrUnexpectedToken, "'pub' is only valid at module scope")
	}
	switch p.tok.Kind {
	case token.FN:
		return p.parseFunction(true)
	case token.STRUCT:
		return p.parseStruct(true)
	case token.ENUM:
		return p.parseEnum(true)
	default:
		p.fail(p.tok.Pos, diag.ErrUnexpectedToken, "expected a function, struct or enum declaration after 'pub'")
		return nil
	}
}

func (p *parser) parseLabeledLoop() ast.Stmt {
	label := p.tok.Lit
	p.advance()
	p.expect(token.COLON)
	switch p.tok.Kind {
	case token.WHILE:
		return p.parseWhile(label)
	case token.FOR:
		return p.parseFor(label)
	default:
		p.fail(p.tok.Pos, diag.ErrUnexpectedToken, "expected 'while' or 'for' after loop label")
		return nil
	}
}

func (p *parser) parseIf() ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.IF)
	n := ast.NewNode[ast.If](p.arena)
	n.Start = pos
	n.Cond = p.parseExpr()
	n.Then = p.parseBlock()
	n.End = n.Then.End

	switch p.tok.Kind {
	case token.ELIF:
		elifPos := p.tok.Pos
		p.advance()
		elif := ast.NewNode[ast.If](p.arena)
		elif.Start = elifPos
		elif.Cond = p.parseExpr()
		elif.Then = p.parseBlock()
		elif.End = elif.Then.End
		// remaining elif/else chain parsed recursively by reusing the same
		// chain logic on the synthesized elif node.
		n.Else = p.parseElseChain(elif)
		n.End = elif.End
	case token.ELSE:
		p.advance()
		n.Else = p.parseBlock()
		n.End = n.Else.(*ast.Block).End
	}
	return n
}

// parseElseChain continues an elif/else chain already positioned right
// after parsing `elif`'s own condition and block: it checks whether another
// elif/else follows and attaches it, returning elif itself as the Stmt to
// assign to the parent's Else field.
func (p *parser) parseElseChain(elif *ast.If) ast.Stmt {
	switch p.tok.Kind {
	case token.ELIF:
		pos := p.tok.Pos
		p.advance()
		next := ast.NewNode[ast.If](p.arena)
		next.Start = pos
		next.Cond = p.parseExpr()
		next.Then = p.parseBlock()
		next.End = next.Then.End
		elif.Else = p.parseElseChain(next)
	case token.ELSE:
		p.advance()
		elif.Else = p.parseBlock()
	}
	return elif
}

func (p *parser) parseWhile(label string) ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.WHILE)
	n := ast.NewNode[ast.While](p.arena)
	n.Start, n.Label = pos, label
	n.Cond = p.parseExpr()
	p.loopDepth++
	n.Body = p.parseBlock()
	p.loopDepth--
	n.End = n.Body.End
	return n
}

func (p *parser) parseFor(label string) ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.FOR)
	name := p.expect(token.IDENT)
	p.expect(token.IN)

	first := p.parseExpr()
	if p.at(token.DOTDOT) || p.at(token.DOTDOTEQ) {
		inclusive := p.at(token.DOTDOTEQ)
		p.advance()
		end := p.parseExpr()
		var step ast.Expr
		if p.accept(token.DOTDOT) {
			step = p.parseExpr()
		}
		n := ast.NewNode[ast.ForRange](p.arena)
		n.Start, n.Label, n.Var = pos, label, name.Lit
		n.RangeStart, n.RangeEnd, n.RangeStep, n.Inclusive = first, end, step, inclusive
		return p.finishForRange(n)
	}

	n := ast.NewNode[ast.ForIter](p.arena)
	n.Start, n.Label, n.Var, n.Iterable = pos, label, name.Lit, first
	p.loopDepth++
	n.Body = p.parseBlock()
	p.loopDepth--
	n.End = n.Body.End
	return n
}

func (p *parser) finishForRange(n *ast.ForRange) ast.Stmt {
	p.loopDepth++
	n.Body = p.parseBlock()
	p.loopDepth--
	n.End = n.Body.End
	return n
}

func (p *parser) parseBreak() ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.BREAK)
	n := ast.NewNode[ast.Break](p.arena)
	n.Start, n.End = pos, pos
	if p.at(token.LABEL) {
		n.Label = p.tok.Lit
		n.End = p.tok.Pos
		p.advance()
	}
	if p.loopDepth == 0 {
		p.errorf(pos, diag.ErrBreakOutsideLoop, "'break' outside a loop")
	}
	return n
}

func (p *parser) parseContinue() ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.CONTINUE)
	n := ast.NewNode[ast.Continue](p.arena)
	n.Start, n.End = pos, pos
	if p.at(token.LABEL) {
		n.Label = p.tok.Lit
		n.End = p.tok.Pos
		p.advance()
	}
	if p.loopDepth == 0 {
		p.errorf(pos, diag.ErrContinueOutsideLoop, "'continue' outside a loop")
	}
	return n
}

func (p *parser) parseReturn() ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.RETURN)
	n := ast.NewNode[ast.Return](p.arena)
	n.Start, n.End = pos, pos
	if !p.at(token.NEWLINE) && !p.at(token.DEDENT) && !p.at(token.EOF) {
		n.Value = p.parseExpr()
		_, n.End = n.Value.Span()
	}
	return n
}

func (p *parser) parsePrint() ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.PRINT)
	p.expect(token.LPAREN)
	n := ast.NewNode[ast.Print](p.arena)
	n.Start, n.Newline = pos, true
	for !p.at(token.RPAREN) {
		n.Args = append(n.Args, p.parseExpr())
		if !p.at(token.RPAREN) {
			if !p.accept(token.COMMA) {
				p.fail(p.tok.Pos, diag.ErrMissingComma, "expected ',' between print arguments")
			}
		}
	}
	n.End = p.tok.Pos
	p.expect(token.RPAREN)
	return n
}

func (p *parser) parseFunction(pub bool) ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.FN)
	name := p.expect(token.IDENT)
	n := ast.NewNode[ast.Function](p.arena)
	n.Start, n.Pub, n.Name = pos, pub, name.Lit

	p.expect(token.LPAREN)
	for !p.at(token.RPAREN) {
		pname := p.expect(token.IDENT)
		param := ast.FuncParam{Name: pname.Lit}
		if p.accept(token.COLON) {
			param.Annotation = p.expect(token.IDENT).Lit
		}
		n.Params = append(n.Params, param)
		if !p.at(token.RPAREN) {
			if !p.accept(token.COMMA) {
				p.fail(p.tok.Pos, diag.ErrMissingComma, "expected ',' between parameters")
			}
		}
	}
	p.expect(token.RPAREN)
	if p.accept(token.ARROW) {
		n.ReturnType = p.expect(token.IDENT).Lit
	}
	n.Body = p.parseBlock()
	n.End = n.Body.End
	return n
}

func (p *parser) parseStruct(pub bool) ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.STRUCT)
	name := p.expect(token.IDENT)
	n := ast.NewNode[ast.Struct](p.arena)
	n.Start, n.Pub, n.Name = pos, pub, name.Lit

	p.expect(token.COLON)
	p.expect(token.NEWLINE)
	p.expect(token.INDENT)
	for !p.at(token.DEDENT) && !p.at(token.EOF) {
		fname := p.expect(token.IDENT)
		p.expect(token.COLON)
		ftype := p.expect(token.IDENT)
		n.Fields = append(n.Fields, ast.StructField{Name: fname.Lit, Annotation: ftype.Lit})
		p.skipNewlines()
	}
	n.End = p.tok.Pos
	p.expect(token.DEDENT)
	return n
}

func (p *parser) parseEnum(pub bool) ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.ENUM)
	name := p.expect(token.IDENT)
	n := ast.NewNode[ast.Enum](p.arena)
	n.Start, n.Pub, n.Name = pos, pub, name.Lit

	p.expect(token.COLON)
	if p.at(token.NEWLINE) {
		p.expect(token.NEWLINE)
		p.expect(token.INDENT)
		for !p.at(token.DEDENT) && !p.at(token.EOF) {
			n.Variants = append(n.Variants, p.parseEnumVariant())
			p.skipNewlines()
		}
		n.End = p.tok.Pos
		p.expect(token.DEDENT)
		return n
	}
	// single-line form: enum Color: Red, Green, Blue
	n.Variants = append(n.Variants, p.parseEnumVariant())
	for p.accept(token.COMMA) {
		n.Variants = append(n.Variants, p.parseEnumVariant())
	}
	n.End = p.tok.Pos
	return n
}

func (p *parser) parseEnumVariant() ast.EnumVariant {
	name := p.expect(token.IDENT)
	v := ast.EnumVariant{Name: name.Lit}
	if p.accept(token.LPAREN) {
		for !p.at(token.RPAREN) {
			v.Payload = append(v.Payload, p.expect(token.IDENT).Lit)
			if !p.at(token.RPAREN) {
				p.accept(token.COMMA)
			}
		}
		p.expect(token.RPAREN)
	}
	return v
}

func (p *parser) parseImpl() ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.IMPL)
	name := p.expect(token.IDENT)
	n := ast.NewNode[ast.Impl](p.arena)
	n.Start, n.TypeName = pos, name.Lit

	p.expect(token.COLON)
	p.expect(token.NEWLINE)
	p.expect(token.INDENT)
	for !p.at(token.DEDENT) && !p.at(token.EOF) {
		if p.at(token.FN) {
			if m, ok := p.parseFunction(false).(*ast.Function); ok {
				n.Methods = append(n.Methods, m)
			}
		} else {
			p.fail(p.tok.Pos, diag.ErrUnexpectedToken, "expected a method declaration inside 'impl'")
		}
		p.skipNewlines()
	}
	n.End = p.tok.Pos
	p.expect(token.DEDENT)
	return n
}

func (p *parser) parseMatch() ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.MATCH)
	n := ast.NewNode[ast.Match](p.arena)
	n.Start = pos
	n.Subject = p.parseExpr()

	p.expect(token.COLON)
	p.expect(token.NEWLINE)
	p.expect(token.INDENT)
	for !p.at(token.DEDENT) && !p.at(token.EOF) {
		n.Arms = append(n.Arms, p.parseMatchArm())
		p.skipNewlines()
	}
	n.End = p.tok.Pos
	p.expect(token.DEDENT)
	return n
}

func (p *parser) parseMatchArm() ast.MatchArm {
	var arm ast.MatchArm

	if p.at(token.IDENT) && p.tok.Lit == "_" {
		arm.IsWildcard = true
		p.advance()
	} else if p.at(token.IDENT) && p.next.Kind == token.DOT {
		typeName := p.tok.Lit
		p.advance()
		p.expect(token.DOT)
		variant := p.expect(token.IDENT)
		arm.EnumType, arm.EnumVariant = typeName, variant.Lit
		if p.accept(token.LPAREN) {
			for !p.at(token.RPAREN) {
				arm.Binds = append(arm.Binds, p.expect(token.IDENT).Lit)
				if !p.at(token.RPAREN) {
					p.accept(token.COMMA)
				}
			}
			p.expect(token.RPAREN)
		}
	} else {
		arm.Literal = p.parseExpr()
	}

	switch p.tok.Kind {
	case token.ARROW:
		p.advance()
		blk := ast.NewNode[ast.Block](p.arena)
		blk.Start = p.tok.Pos
		expr := p.parseExpr()
		es := ast.NewNode[ast.ExprStmt](p.arena)
		es.X = expr
		es.Start, es.End = expr.Span()
		blk.Stmts = append(blk.Stmts, es)
		blk.End = es.End
		arm.Body = blk
	case token.COLON:
		arm.Body = p.parseBlock()
	default:
		p.fail(p.tok.Pos, diag.ErrUnexpectedToken, "expected '->' or ':' after match pattern")
	}
	return arm
}

func (p *parser) parseTry() ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.TRY)
	n := ast.NewNode[ast.Try](p.arena)
	n.Start = pos
	n.Body = p.parseBlock()

	p.skipNewlines()
	p.expect(token.CATCH)
	if p.at(token.IDENT) {
		n.Name = p.tok.Lit
		p.advance()
	}
	n.Catch = p.parseBlock()
	n.End = n.Catch.End
	return n
}

func (p *parser) parseThrow() ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.THROW)
	n := ast.NewNode[ast.Throw](p.arena)
	n.Start, n.End = pos, pos
	if !p.at(token.NEWLINE) {
		n.Value = p.parseExpr()
		_, n.End = n.Value.Span()
	}
	return n
}

func (p *parser) parseUse() ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.USE)
	if p.blockDepth > 0 {
		p.errorf(pos, diag.ErrUnexpectedToken, "'use' is only valid at module scope")
	}
	n := ast.NewNode[ast.Import](p.arena)
	n.Start = pos
	n.Path = append(n.Path, p.expect(token.IDENT).Lit)
	for p.accept(token.DOT) {
		n.Path = append(n.Path, p.expect(token.IDENT).Lit)
	}
	if p.accept(token.AS) {
		n.Alias = p.expect(token.IDENT).Lit
	}
	if p.accept(token.COLON) {
		if p.accept(token.STAR) {
			n.Star = true
		} else {
			for {
				sym := ast.ImportSymbol{Name: p.expect(token.IDENT).Lit}
				if p.accept(token.AS) {
					sym.Alias = p.expect(token.IDENT).Lit
				}
				n.Symbols = append(n.Symbols, sym)
				if !p.accept(token.COMMA) {
					break
				}
			}
		}
	}
	n.End = p.tok.Pos
	return n
}

// parseVarDecl parses an explicit "mut name[:Type] = expr[, name2 = expr2]"
// declaration.
func (p *parser) parseVarDecl() ast.Stmt {
	pos := p.tok.Pos
	p.expect(token.MUT)
	n := ast.NewNode[ast.VarDecl](p.arena)
	n.Start, n.DeclTok = pos, token.MUT
	n.IsGlobal = p.blockDepth == 0

	for {
		name := p.expect(token.IDENT)
		ann := ""
		if p.accept(token.COLON) {
			ann = p.expect(token.IDENT).Lit
		}
		n.Names = append(n.Names, name.Lit)
		n.Annotations = append(n.Annotations, ann)
		if !p.accept(token.COMMA) {
			break
		}
	}
	if p.at(token.WALRUS) {
		p.fail(p.tok.Pos, diag.ErrWalrusWithMut, "':=' cannot be combined with 'mut'")
	}
	p.expect(token.ASSIGN)
	for {
		n.Values = append(n.Values, p.parseExpr())
		if !p.accept(token.COMMA) {
			break
		}
	}
	n.End = p.tok.Pos
	return n
}

// parseSimpleStmt dispatches the remaining statement forms that start with
// an expression: plain declarations/re-assignments, destructuring, compound
// assignment, and bare expression statements.
func (p *parser) parseSimpleStmt() ast.Stmt {
	pos := p.tok.Pos

	// name := expr  (immutable module/local constant)
	if p.at(token.IDENT) && p.next.Kind == token.WALRUS {
		name := p.tok
		p.advance()
		p.expect(token.WALRUS)
		if p.blockDepth == 0 && !isScreamingSnakeCase(name.Lit) {
			p.errorf(name.Pos, diag.ErrInvalidConstName, "module-scope constant %q must be SCREAMING_SNAKE_CASE", name.Lit)
		}
		n := ast.NewNode[ast.VarDecl](p.arena)
		n.Start, n.DeclTok, n.IsGlobal = pos, token.WALRUS, p.blockDepth == 0
		n.Names = []string{name.Lit}
		n.Annotations = []string{""}
		n.Values = []ast.Expr{p.parseExpr()}
		n.End = p.tok.Pos
		return n
	}

	// destructuring: a, b = expr  (two or more bare names ahead of '=').
	// A bare identifier directly followed by ',' cannot start any other
	// statement-level expression, so this commits without backtracking
	// (the lexer has no snapshot/restore and the lookahead is only 2 tokens
	// deep, so speculative parsing is not an option here).
	if p.at(token.IDENT) && p.next.Kind == token.COMMA {
		names := p.parseNameList()
		return p.finishDestructure(pos, names)
	}

	lhs := p.parseExpr()

	switch {
	case p.at(token.ASSIGN):
		p.advance()
		if id, ok := lhs.(*ast.Identifier); ok {
			n := ast.NewNode[ast.VarDecl](p.arena)
			n.Start, n.DeclTok, n.IsGlobal = pos, token.ASSIGN, p.blockDepth == 0
			n.Names = []string{id.Name}
			n.Annotations = []string{""}
			n.Values = []ast.Expr{p.parseExpr()}
			n.End = p.tok.Pos
			return n
		}
		a := ast.NewNode[ast.Assign](p.arena)
		a.Target = lhs
		a.Value = p.parseExpr()
		a.Start, _ = lhs.Span()
		a.End = p.tok.Pos
		return a

	case p.tok.Kind.IsAssignOp():
		op := token.BinOpForAssign(p.tok.Kind)
		p.advance()
		rhs := p.parseExpr()
		bin := ast.NewNode[ast.Binary](p.arena)
		bin.Op, bin.Left, bin.Right = op, lhs, rhs
		bin.Start, _ = lhs.Span()
		_, bin.End = rhs.Span()
		a := ast.NewNode[ast.Assign](p.arena)
		a.Target, a.Value = lhs, bin
		a.Start, a.End = bin.Start, bin.End
		return a

	default:
		es := ast.NewNode[ast.ExprStmt](p.arena)
		es.X = lhs
		es.Start, es.End = lhs.Span()
		return es
	}
}

// parseNameList consumes a comma-separated list of bare identifiers, used
// only for destructuring assignment targets (spec.md §4.2: destructuring is
// restricted to plain names, never member/index targets).
func (p *parser) parseNameList() []string {
	var names []string
	for {
		names = append(names, p.expect(token.IDENT).Lit)
		if !p.accept(token.COMMA) {
			break
		}
	}
	return names
}

func (p *parser) finishDestructure(pos token.Pos, names []string) ast.Stmt {
	p.expect(token.ASSIGN)
	rhs := p.parseExpr()

	tmp := fmt.Sprintf("_tuple_tmp%d", p.tupleTmpCount)
	p.tupleTmpCount++
	block := ast.NewNode[ast.VarDecl](p.arena)
	block.Start, block.DeclTok, block.IsGlobal = pos, token.ASSIGN, p.blockDepth == 0
	block.Names = []string{tmp}
	block.Annotations = []string{""}
	block.Values = []ast.Expr{rhs}

	// parseStmt returns a single Stmt, so the temporary VarDecl and one
	// "name = tmp[i]" VarDecl per destructured name are wrapped in a
	// synthetic Block (ast.Block implements Stmt). Each per-name VarDecl
	// declares or re-assigns its name like any other "name = expr".
	wrap := ast.NewNode[ast.Block](p.arena)
	wrap.Start = pos
	wrap.Stmts = append(wrap.Stmts, block)
	for i, name := range names {
		idx := ast.NewNode[ast.Literal](p.arena)
		idx.TokKind = token.NUMBER
		idx.IntValue = int64(i)
		idx.Raw = name

		tmpID := ast.NewNode[ast.Identifier](p.arena)
		tmpID.Name = tmp

		indexed := ast.NewNode[ast.IndexAccess](p.arena)
		indexed.Target, indexed.Index = tmpID, idx

		target := ast.NewNode[ast.VarDecl](p.arena)
		target.DeclTok, target.IsGlobal = token.ASSIGN, p.blockDepth == 0
		target.Names = []string{name}
		target.Annotations = []string{""}
		target.Values = []ast.Expr{indexed}
		wrap.Stmts = append(wrap.Stmts, target)
	}
	wrap.End = p.tok.Pos
	return wrap
}

func isScreamingSnakeCase(s string) bool {
	if s == "" {
		return false
	}
	return strings.ToUpper(s) == s
}
