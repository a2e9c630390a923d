package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/parser"
)

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFiles(ctx, stdio, args...)
}

// ParseFiles runs the parser over each file and prints the resulting AST.
func ParseFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
	var firstErr error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		prog, errs := parser.Parse(src, f)
		fmt.Fprintf(stdio.Stdout, "-- %s --\n", f)
		if err := ast.Fprint(stdio.Stdout, prog); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			if firstErr == nil {
				firstErr = err
			}
		}
		if errs.HasErrors() {
			errs.Sort()
			fmt.Fprintln(stdio.Stderr, errs.Err())
			if firstErr == nil {
				firstErr = errs.Err()
			}
		}
	}
	return firstErr
}
