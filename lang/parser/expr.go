package parser

import (
	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/token"
)

// binPrec returns the left-binding power of a binary operator token, per the
// precedence table of spec.md §4.2 (low to high): or(1) and(2) equality and
// relational and "as"(3) bitwise-or(4) bitwise-xor(5) bitwise-and(6)
// shift(7) additive(8) multiplicative(9). The bitwise/shift operators are
// part of spec.md §3.1's closed token set ("shifts, bitwise") but sat
// unparseable here until this fix, leaving fold.go's and emitexpr.go's
// handling for them dead. 0 means t does not start a binary operator at
// all.
func binPrec(t token.Token) int {
	switch {
	case t == token.OR:
		return 1
	case t == token.AND:
		return 2
	case t.IsComparison(), t == token.AS:
		return 3
	case t == token.PIPE:
		return 4
	case t == token.CIRCUMFLEX:
		return 5
	case t == token.AMPERSAND:
		return 6
	case t == token.LTLT || t == token.GTGT:
		return 7
	case t == token.PLUS || t == token.MINUS:
		return 8
	case t == token.STAR || t == token.SLASH || t == token.PERCENT:
		return 9
	}
	return 0
}

func (p *parser) parseExpr() ast.Expr {
	p.enter()
	defer p.leave()

	x := p.parseBinary(1)

	if p.accept(token.QUESTION) {
		then := p.parseExpr()
		p.expect(token.COLON)
		els := p.parseExpr()
		t := ast.NewNode[ast.Ternary](p.arena)
		t.Cond, t.Then, t.Else = x, then, els
		t.Start, t.End = x.Span()
		return t
	}
	if p.accept(token.IF) {
		cond := p.parseBinary(1)
		p.expect(token.ELSE)
		els := p.parseExpr()
		t := ast.NewNode[ast.Ternary](p.arena)
		t.Cond, t.Then, t.Else, t.Python = cond, x, els, true
		t.Start, t.End = x.Span()
		return t
	}
	return x
}

func (p *parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()

	for {
		if p.at(token.AS) {
			left = p.parseCast(left)
			continue
		}
		prec := binPrec(p.tok.Kind)
		if prec == 0 || prec < minPrec {
			return left
		}
		op := p.tok.Kind
		p.advance()
		right := p.parseBinary(prec + 1)
		b := ast.NewNode[ast.Binary](p.arena)
		b.Op, b.Left, b.Right = op, left, right
		b.Start, _ = left.Span()
		_, b.End = right.Span()
		left = b
	}
}

// parseCast consumes "as TYPENAME" after operand. Chained casts without an
// intervening explicit parenthesization are rejected (spec.md §4.2, §8
// scenario 5).
func (p *parser) parseCast(operand ast.Expr) ast.Expr {
	asPos := p.tok.Pos
	p.expect(token.AS)
	if prev, ok := operand.(*ast.Cast); ok && !prev.Parenthesized {
		p.fail(asPos, diag.ErrChainedCast, "chained cast without parentheses; write ((x as T) as U)")
	}
	name := p.expect(token.IDENT)
	c := ast.NewNode[ast.Cast](p.arena)
	c.Operand, c.TargetName = operand, name.Lit
	c.Start, _ = operand.Span()
	c.End = name.Pos
	return c
}

func (p *parser) parseUnary() ast.Expr {
	p.enter()
	defer p.leave()

	switch p.tok.Kind {
	case token.MINUS, token.NOT, token.TILDE:
		op := p.tok.Kind
		pos := p.tok.Pos
		p.advance()
		operand := p.parseUnary()
		u := ast.NewNode[ast.Unary](p.arena)
		u.Op, u.Operand = op, operand
		u.Start = pos
		_, u.End = operand.Span()
		return u
	default:
		return p.parsePostfix()
	}
}

func (p *parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	for {
		switch p.tok.Kind {
		case token.LPAREN:
			x = p.parseCall(x)
		case token.DOT:
			x = p.parseMember(x)
		case token.LBRACK:
			x = p.parseIndexOrSlice(x)
		case token.LBRACE:
			if name, ok := structTypeName(x); ok {
				x = p.parseStructLiteral(name, x)
			} else {
				return x
			}
		default:
			return x
		}
	}
}

// structTypeName reports whether x is a bare identifier eligible to be
// followed by a struct literal body; qualified (member-access) type names
// are not supported as struct literal heads.
func structTypeName(x ast.Expr) (string, bool) {
	if id, ok := x.(*ast.Identifier); ok {
		return id.Name, true
	}
	return "", false
}

func (p *parser) parseCall(callee ast.Expr) ast.Expr {
	p.expect(token.LPAREN)
	c := ast.NewNode[ast.Call](p.arena)
	c.Callee = callee
	c.Start, _ = callee.Span()
	for !p.at(token.RPAREN) {
		c.Args = append(c.Args, p.parseExpr())
		if !p.at(token.RPAREN) {
			if !p.accept(token.COMMA) {
				p.fail(p.tok.Pos, diag.ErrMissingComma, "expected ',' between call arguments")
			}
		}
	}
	c.End = p.tok.Pos
	p.expect(token.RPAREN)
	return c
}

func (p *parser) parseMember(target ast.Expr) ast.Expr {
	p.expect(token.DOT)
	name := p.expect(token.IDENT)
	m := ast.NewNode[ast.MemberAccess](p.arena)
	m.Target, m.Name = target, name.Lit
	m.Start, _ = target.Span()
	m.End = name.Pos
	return m
}

func (p *parser) parseIndexOrSlice(target ast.Expr) ast.Expr {
	p.expect(token.LBRACK)
	var lo ast.Expr
	if !p.at(token.DOTDOT) {
		lo = p.parseExpr()
	}
	if p.accept(token.DOTDOT) {
		s := ast.NewNode[ast.ArraySlice](p.arena)
		s.Target, s.Lo = target, lo
		if !p.at(token.RBRACK) {
			s.Hi = p.parseExpr()
		}
		s.Start, _ = target.Span()
		s.End = p.tok.Pos
		p.expect(token.RBRACK)
		return s
	}
	idx := ast.NewNode[ast.IndexAccess](p.arena)
	idx.Target, idx.Index = target, lo
	idx.Start, _ = target.Span()
	idx.End = p.tok.Pos
	p.expect(token.RBRACK)
	return idx
}

func (p *parser) parseStructLiteral(typeName string, head ast.Expr) ast.Expr {
	p.expect(token.LBRACE)
	s := ast.NewNode[ast.StructLiteral](p.arena)
	s.TypeName = typeName
	s.Start, _ = head.Span()
	for !p.at(token.RBRACE) {
		name := p.expect(token.IDENT)
		p.expect(token.COLON)
		val := p.parseExpr()
		s.Fields = append(s.Fields, ast.StructFieldInit{Name: name.Lit, Value: val})
		if !p.at(token.RBRACE) {
			if !p.accept(token.COMMA) {
				p.fail(p.tok.Pos, diag.ErrMissingComma, "expected ',' between struct fields")
			}
		}
	}
	s.End = p.tok.Pos
	p.expect(token.RBRACE)
	return s
}

func (p *parser) parsePrimary() ast.Expr {
	pos := p.tok.Pos
	switch p.tok.Kind {
	case token.NUMBER:
		return p.parseNumberLiteral()
	case token.STRING:
		s := ast.NewNode[ast.Literal](p.arena)
		s.TokKind, s.Raw, s.StringValue = token.STRING, p.tok.Lit, p.tok.Lit
		s.Start, s.End = pos, pos
		p.advance()
		return s
	case token.TRUE, token.FALSE:
		b := ast.NewNode[ast.Literal](p.arena)
		b.TokKind, b.BoolValue = p.tok.Kind, p.tok.Kind == token.TRUE
		b.Raw = p.tok.Kind.String()
		b.Start, b.End = pos, pos
		p.advance()
		return b
	case token.IDENT:
		id := ast.NewNode[ast.Identifier](p.arena)
		id.Name = p.tok.Lit
		id.Start, id.End = pos, pos
		p.advance()
		return id
	case token.LPAREN:
		p.advance()
		x := p.parseExpr()
		p.expect(token.RPAREN)
		if c, ok := x.(*ast.Cast); ok {
			c.Parenthesized = true
		}
		return x
	case token.LBRACK:
		return p.parseArrayExpr()
	default:
		p.fail(pos, diag.ErrUnexpectedToken, "expected an expression, found %s", describeTok(p.tok))
		bad := ast.NewNode[ast.BadExpr](p.arena)
		bad.Start, bad.End = pos, pos
		return bad
	}
}

func (p *parser) parseArrayExpr() ast.Expr {
	start := p.tok.Pos
	p.expect(token.LBRACK)
	if p.at(token.RBRACK) {
		lit := ast.NewNode[ast.ArrayLiteral](p.arena)
		lit.Start, lit.End = start, p.tok.Pos
		p.advance()
		return lit
	}
	first := p.parseExpr()
	if p.accept(token.SEMI) {
		count := p.parseExpr()
		fill := ast.NewNode[ast.ArrayFill](p.arena)
		fill.Value, fill.Count = first, count
		fill.Start = start
		fill.End = p.tok.Pos
		p.expect(token.RBRACK)
		return fill
	}
	lit := ast.NewNode[ast.ArrayLiteral](p.arena)
	lit.Elems = append(lit.Elems, first)
	for p.accept(token.COMMA) {
		if p.at(token.RBRACK) {
			break
		}
		lit.Elems = append(lit.Elems, p.parseExpr())
	}
	lit.Start = start
	lit.End = p.tok.Pos
	p.expect(token.RBRACK)
	return lit
}

// parseNumberLiteral converts the lexer's pre-scanned numeric token into a
// Literal node, recording any explicit type suffix (spec.md §4.1, §8
// boundary case: a literal exactly INT32_MAX types as i32, overflow widens
// to i64).
func (p *parser) parseNumberLiteral() ast.Expr {
	tok := p.tok
	pos := tok.Pos
	p.advance()

	lit := ast.NewNode[ast.Literal](p.arena)
	lit.TokKind = token.NUMBER
	lit.Raw = tok.Lit
	lit.IsFloat = tok.IsFloat
	lit.IntValue = tok.IntValue
	lit.FloatValue = tok.FloatValue
	lit.HasExplicitSuffix = tok.HasSuffix
	lit.Suffix = tok.Suffix
	lit.Start, lit.End = pos, pos

	if !tok.IsFloat && !tok.HasSuffix {
		// a bare integer literal exceeding i32 range widens to i64 (spec.md §6.4).
		if tok.IntValue > int64(1)<<31-1 || tok.IntValue < -(int64(1)<<31) {
			lit.Suffix = "i64"
		}
	}
	return lit
}
