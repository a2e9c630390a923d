// Package diag implements the compiler's diagnostic taxonomy: stable error
// codes, source positions and a positioned error list, in the spirit of
// go/scanner.ErrorList but carrying the Exxxx codes spec.md §6.5 requires.
package diag

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/mna/orus/lang/token"
)

// Code is a stable diagnostic identifier. The leading digit groups codes by
// phase: 1xxx lexical/syntactic, 2xxx type, 3xxx scope/name, 4xxx control
// flow and match.
type Code string

//nolint:revive
const (
	// Lexical / syntactic (E1xxx)
	ErrUnterminatedString   Code = "E1001"
	ErrUnknownEscape        Code = "E1002"
	ErrMisplacedUnderscore  Code = "E1003"
	ErrMalformedNumber      Code = "E1004"
	ErrInconsistentIndent   Code = "E1005"
	ErrUnexpectedChar       Code = "E1006"
	ErrUnterminatedComment  Code = "E1007"
	ErrUnexpectedToken      Code = "E1008"
	ErrExpressionTooComplex Code = "E1009"
	ErrChainedCast          Code = "E1010"
	ErrMissingComma         Code = "E1011"
	ErrReservedKeyword      Code = "E1012"
	ErrWalrusWithMut        Code = "E1013"
	ErrTooComplexJump       Code = "E1014"

	// Type (E2xxx)
	ErrTypeMismatch  Code = "E2001"
	ErrInvalidCast   Code = "E2002"
	ErrMixedArith    Code = "E2003"
	ErrUndefinedType Code = "E2004"

	// Scope / name (E3xxx)
	ErrUndefinedVariable  Code = "E3001"
	ErrDuplicateGlobal    Code = "E3002"
	ErrInvalidVarName     Code = "E3003"
	ErrInvalidConstName   Code = "E3004"
	ErrAssignToImmutable  Code = "E3005"

	// Control flow / match (E4xxx)
	ErrBreakOutsideLoop    Code = "E4001"
	ErrContinueOutsideLoop Code = "E4002"
	ErrUndefinedLabel      Code = "E4003"
	ErrEmptyBlock          Code = "E4004"
	ErrAssignInCondition   Code = "E4005"
	ErrDuplicateMatchArm   Code = "E4006"
	ErrNonExhaustiveMatch  Code = "E4007"
)

// Diagnostic is a single (code, location, message) compiler error.
type Diagnostic struct {
	Code    Code
	Pos     token.Pos
	File    string
	Message string
}

func (d Diagnostic) String() string {
	loc := d.Pos.String()
	if d.File != "" {
		loc = d.File + ":" + loc
	}
	return fmt.Sprintf("%s: %s: %s", loc, d.Code, d.Message)
}

// List accumulates diagnostics across a phase. Every phase of the pipeline
// keeps a *List and propagates it: a list with len(l) > 0 marks the
// compilation as failed, but phases may still attempt further statements.
type List struct {
	File string
	items []Diagnostic
}

// Add appends a new diagnostic at pos with the given code and message.
func (l *List) Add(pos token.Pos, code Code, format string, args ...any) {
	l.items = append(l.items, Diagnostic{
		Code:    code,
		Pos:     pos,
		File:    l.File,
		Message: fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any diagnostic was recorded.
func (l *List) HasErrors() bool { return len(l.items) > 0 }

// Len returns the number of recorded diagnostics.
func (l *List) Len() int { return len(l.items) }

// All returns the recorded diagnostics in insertion order.
func (l *List) All() []Diagnostic { return l.items }

// Sort orders diagnostics by source position, matching the "printed in
// source order" requirement of spec.md §7.
func (l *List) Sort() {
	slices.SortStableFunc(l.items, func(a, b Diagnostic) int {
		switch {
		case a.Pos.Before(b.Pos):
			return -1
		case b.Pos.Before(a.Pos):
			return 1
		default:
			return 0
		}
	})
}

// Err returns an error wrapping all diagnostics, or nil if there are none.
// The returned error implements Unwrap() []error.
func (l *List) Err() error {
	if len(l.items) == 0 {
		return nil
	}
	return listError(l.items)
}

type listError []Diagnostic

func (e listError) Error() string {
	var sb strings.Builder
	for i, d := range e {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(d.String())
	}
	return sb.String()
}

func (e listError) Unwrap() []error {
	errs := make([]error, len(e))
	for i, d := range e {
		errs[i] = fmt.Errorf("%s", d.String())
	}
	return errs
}
