// Package parser implements the recursive-descent, Pratt-precedence parser
// that turns a token stream into an arena-allocated AST (spec.md §4.2). It
// follows the same reentrant-context shape as the teacher parser
// (github.com/mna/nenuphar/lang/parser): one parser value holds all mutable
// state and is never reused across compilations.
package parser

import (
	"fmt"

	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/lexer"
	"github.com/mna/orus/lang/token"
)

const maxRecursionDepth = 1000

// Parse lexes and parses src into a Program, under the given module name.
// It always returns a non-nil *ast.Program (possibly containing BadExpr /
// BadStmt placeholders); errs reports whatever diagnostics were recorded.
func Parse(src []byte, moduleName string) (*ast.Program, *diag.List) {
	errs := &diag.List{File: moduleName}
	var lx lexer.Lexer
	lx.Init(src, errs)

	p := &parser{lex: &lx, errs: errs, arena: &ast.Arena{}}
	p.advance()
	p.advance()
	return p.parseProgram(moduleName), errs
}

// parser holds all mutable parsing state. It is never copied or reused.
type parser struct {
	lex   *lexer.Lexer
	errs  *diag.List
	arena *ast.Arena

	tok, next lexer.Token // 2-token lookahead

	depth      int // recursion depth, capped at maxRecursionDepth
	loopDepth  int
	blockDepth int

	tupleTmpCount int
}

// recoverable is panicked by fail() to unwind to the nearest statement
// boundary; parseStmt recovers it, matching the "fatal errors abort the
// current statement, not the whole parse" contract of spec.md §4.2.
type recoverable struct{}

func (p *parser) advance() {
	p.tok = p.next
	p.next = p.lex.Scan()
}

func (p *parser) errorf(pos token.Pos, code diag.Code, format string, args ...any) {
	p.errs.Add(pos, code, format, args...)
}

// fail records a diagnostic and aborts the current statement via panic,
// recovered in parseStmt.
func (p *parser) fail(pos token.Pos, code diag.Code, format string, args ...any) {
	p.errorf(pos, code, format, args...)
	panic(recoverable{})
}

func (p *parser) enter() {
	p.depth++
	if p.depth > maxRecursionDepth {
		p.fail(p.tok.Pos, diag.ErrExpressionTooComplex, "expression too complex (recursion depth exceeds %d)", maxRecursionDepth)
	}
}

func (p *parser) leave() { p.depth-- }

func (p *parser) at(k token.Token) bool { return p.tok.Kind == k }

func (p *parser) accept(k token.Token) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(k token.Token) lexer.Token {
	if !p.at(k) {
		p.fail(p.tok.Pos, diag.ErrUnexpectedToken, "expected %s, found %s", k.GoString(), describeTok(p.tok))
	}
	tok := p.tok
	p.advance()
	return tok
}

func describeTok(t lexer.Token) string {
	if t.Lit != "" {
		return fmt.Sprintf("%s %q", t.Kind.String(), t.Lit)
	}
	return t.Kind.String()
}

// skipNewlines consumes any number of NEWLINE tokens, which may appear
// between statements or before a block's first statement.
func (p *parser) skipNewlines() {
	for p.accept(token.NEWLINE) {
	}
}

func (p *parser) parseProgram(name string) *ast.Program {
	prog := ast.NewNode[ast.Program](p.arena)
	prog.Name = name
	start := p.tok.Pos
	p.skipNewlines()
	for !p.at(token.EOF) {
		if s := p.parseTopLevelStmt(); s != nil {
			prog.Stmts = append(prog.Stmts, s)
		}
		p.skipNewlines()
	}
	prog.Start = start
	prog.End = p.tok.Pos
	return prog
}

// parseBlock parses an indented block introduced by ':' NEWLINE INDENT and
// closed by DEDENT, or a single same-line statement after ':' (e.g.
// "if x: pass").
func (p *parser) parseBlock() *ast.Block {
	blk := ast.NewNode[ast.Block](p.arena)
	blk.Start = p.tok.Pos
	p.expect(token.COLON)

	if !p.at(token.NEWLINE) {
		// single-line block: one statement on the same line.
		if s := p.parseStmtRecovered(); s != nil {
			blk.Stmts = append(blk.Stmts, s)
		}
		blk.End = p.tok.Pos
		return blk
	}

	p.expect(token.NEWLINE)
	if !p.accept(token.INDENT) {
		p.fail(p.tok.Pos, diag.ErrEmptyBlock, "expected an indented block")
	}
	p.blockDepth++
	for !p.at(token.DEDENT) && !p.at(token.EOF) {
		if s := p.parseStmtRecovered(); s != nil {
			blk.Stmts = append(blk.Stmts, s)
		}
		p.skipNewlines()
	}
	p.blockDepth--
	p.expect(token.DEDENT)
	blk.End = p.tok.Pos
	return blk
}

// parseStmtRecovered parses one statement, recovering to the next NEWLINE
// (or DEDENT/EOF) if a fatal error aborts it, so later statements in the
// same block are still attempted (spec.md §7 propagation policy).
func (p *parser) parseStmtRecovered() (s ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(recoverable); !ok {
				panic(r)
			}
			p.syncToStmtBoundary()
			s = nil
		}
	}()
	return p.parseStmt()
}

func (p *parser) syncToStmtBoundary() {
	for !p.at(token.NEWLINE) && !p.at(token.DEDENT) && !p.at(token.EOF) {
		p.advance()
	}
	p.accept(token.NEWLINE)
}

// parseTopLevelStmt wraps parseStmtRecovered with the same recovery but also
// resets recursion depth between top-level statements.
func (p *parser) parseTopLevelStmt() ast.Stmt {
	p.depth = 0
	return p.parseStmtRecovered()
}
