package ast

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes an indented, one-node-per-line dump of node to w, in the
// style of the teacher's ast.Printer (lang/ast/printer.go) but simplified
// to plain nesting depth rather than a configurable fmt.Formatter verb,
// since the compiler core only needs it for golden-file tests and the CLI's
// `parse`/`resolve` commands, not for general-purpose pretty-printing.
func Fprint(w io.Writer, node Node) error {
	p := &printer{w: w}
	Walk(p, node)
	return p.err
}

// printer implements Visitor, reusing itself at every depth so that Walk's
// recursion into children keeps printing with the same indentation logic.
type printer struct {
	w     io.Writer
	depth int
	err   error
}

func (p *printer) Visit(n Node, dir VisitDirection) Visitor {
	if p.err != nil {
		return nil
	}
	if dir == VisitExit {
		p.depth--
		return nil
	}
	if _, err := fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", p.depth), describe(n)); err != nil {
		p.err = err
		return nil
	}
	p.depth++
	return p
}

func describe(n Node) string {
	switch v := n.(type) {
	case *Program:
		return fmt.Sprintf("Program %q", v.Name)
	case *Block:
		return fmt.Sprintf("Block (%d stmts)", len(v.Stmts))
	case *Identifier:
		return "Identifier " + v.Name
	case *Literal:
		return fmt.Sprintf("Literal %s", v.Raw)
	case *Binary:
		return "Binary " + v.Op.GoString()
	case *Unary:
		return "Unary " + v.Op.GoString()
	case *Cast:
		return "Cast as " + v.TargetName
	case *Ternary:
		return "Ternary"
	case *Call:
		return "Call"
	case *MemberAccess:
		return "MemberAccess ." + v.Name
	case *IndexAccess:
		return "IndexAccess"
	case *ArrayLiteral:
		return "ArrayLiteral"
	case *ArrayFill:
		return "ArrayFill"
	case *ArraySlice:
		return "ArraySlice"
	case *StructLiteral:
		return "StructLiteral " + v.TypeName
	case *VarDecl:
		return fmt.Sprintf("VarDecl %v", v.Names)
	case *Assign:
		return "Assign"
	case *ExprStmt:
		return "ExprStmt"
	case *If:
		return "If"
	case *While:
		return "While"
	case *ForRange:
		return "ForRange " + v.Var
	case *ForIter:
		return "ForIter " + v.Var
	case *Break:
		return "Break " + v.Label
	case *Continue:
		return "Continue " + v.Label
	case *Pass:
		return "Pass"
	case *Return:
		return "Return"
	case *Print:
		return "Print"
	case *Function:
		return "Function " + v.Name
	case *Struct:
		return "Struct " + v.Name
	case *Enum:
		return "Enum " + v.Name
	case *Impl:
		return "Impl " + v.TypeName
	case *Match:
		return "Match"
	case *Try:
		return "Try"
	case *Throw:
		return "Throw"
	case *Import:
		return "Import " + strings.Join(v.Path, ".")
	case *TypeAnnotation:
		return "TypeAnnotation " + v.Name
	case *BadExpr:
		return "BadExpr"
	case *BadStmt:
		return "BadStmt"
	}
	return fmt.Sprintf("%T", n)
}
