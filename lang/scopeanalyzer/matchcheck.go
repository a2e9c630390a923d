package scopeanalyzer

import (
	"fmt"

	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/token"
)

// checkMatches enforces spec.md §8 scenario 6: a match over an enum subject
// must name every declared variant or carry a wildcard arm, and no two arms
// of the same match may test the same case twice. This is a purely
// AST-level check (declared variant names vs. covered arms, or literal
// value equality) that does not depend on the out-of-scope runtime's enum
// tag representation, so it runs here rather than waiting on dispatch.
func checkMatches(prog *ast.Program, errs *diag.List) {
	enums := collectEnums(prog)

	var visit ast.VisitorFunc
	visit = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir == ast.VisitEnter {
			if m, ok := n.(*ast.Match); ok {
				checkMatch(m, enums, errs)
			}
		}
		return visit
	}
	ast.Walk(visit, prog)
}

// collectEnums maps every declared enum name to its variant names, found
// anywhere in prog (module scope, inside a function, ...).
func collectEnums(prog *ast.Program) map[string][]string {
	enums := make(map[string][]string)

	var visit ast.VisitorFunc
	visit = func(n ast.Node, dir ast.VisitDirection) ast.Visitor {
		if dir == ast.VisitEnter {
			if en, ok := n.(*ast.Enum); ok {
				names := make([]string, len(en.Variants))
				for i, v := range en.Variants {
					names[i] = v.Name
				}
				enums[en.Name] = names
			}
		}
		return visit
	}
	ast.Walk(visit, prog)
	return enums
}

// checkMatch validates one match statement's arms for duplicates and, if it
// matches on an enum subject without a wildcard arm, exhaustiveness.
func checkMatch(m *ast.Match, enums map[string][]string, errs *diag.List) {
	hasWildcard := false
	enumType := ""
	seenVariants := make(map[string]bool)
	seenLiterals := make(map[string]bool)

	for i := range m.Arms {
		arm := &m.Arms[i]
		pos, _ := arm.Body.Span()

		switch {
		case arm.IsWildcard:
			hasWildcard = true

		case arm.EnumType != "":
			if enumType == "" {
				enumType = arm.EnumType
			}
			key := arm.EnumType + "." + arm.EnumVariant
			if seenVariants[key] {
				errs.Add(pos, diag.ErrDuplicateMatchArm, "duplicate match arm %q", key)
			}
			seenVariants[key] = true

		case arm.Literal != nil:
			key := literalKey(arm.Literal)
			if seenLiterals[key] {
				errs.Add(pos, diag.ErrDuplicateMatchArm, "duplicate match arm %s", key)
			}
			seenLiterals[key] = true
		}
	}

	if enumType == "" || hasWildcard {
		return
	}
	variants, known := enums[enumType]
	if !known {
		return
	}
	for _, variant := range variants {
		if !seenVariants[enumType+"."+variant] {
			start, _ := m.Span()
			errs.Add(start, diag.ErrNonExhaustiveMatch, "match over %q is not exhaustive: missing variant %q", enumType, variant)
		}
	}
}

// literalKey builds a comparison key for a match arm's literal pattern, so
// two arms testing the same value (e.g. two "2 -> ..." arms) are recognized
// as duplicates regardless of which AST node instance carries the value.
func literalKey(e ast.Expr) string {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return fmt.Sprintf("%p", e)
	}
	switch lit.TokKind {
	case token.STRING:
		return "s:" + lit.StringValue
	case token.TRUE, token.FALSE:
		return fmt.Sprintf("b:%t", lit.BoolValue)
	default:
		if lit.IsFloat {
			return fmt.Sprintf("f:%g", lit.FloatValue)
		}
		return fmt.Sprintf("i:%d", lit.IntValue)
	}
}
