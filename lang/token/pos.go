package token

import "fmt"

// Pos is a 1-based source position. The zero value means "unknown".
type Pos struct {
	Line, Column int
}

// NoPos is the zero value of Pos, meaning an unknown position.
var NoPos = Pos{}

// IsValid reports whether p has a known line and column.
func (p Pos) IsValid() bool { return p.Line > 0 && p.Column > 0 }

func (p Pos) String() string {
	if !p.IsValid() {
		return "-:-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before reports whether p occurs strictly before q in source order.
func (p Pos) Before(q Pos) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}
