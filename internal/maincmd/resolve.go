package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/parser"
	"github.com/mna/orus/lang/scopeanalyzer"
)

func (c *Cmd) Resolve(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ResolveFiles(ctx, stdio, args...)
}

// ResolveFiles parses each file and runs the scope analyzer over it,
// printing the AST and reporting any scope/lifetime diagnostics (spec.md
// §4.4).
func ResolveFiles(ctx context.Context, stdio mainer.Stdio, files ...string) error {
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

		prog, perrs := parser.Parse(src, f)
		if perrs.HasErrors() {
			perrs.Sort()
			fmt.Fprintln(stdio.Stderr, perrs.Err())
			if firstErr == nil {
				firstErr = perrs.Err()
			}
			continue
		}

		d := &diag.List{File: f}
		scopeanalyzer.Analyze(prog, d)

		fmt.Fprintf(stdio.Stdout, "-- %s --\n", f)
		if err := ast.Fprint(stdio.Stdout, prog); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			if firstErr == nil {
				firstErr = err
			}
		}
		if d.HasErrors() {
			d.Sort()
			fmt.Fprintln(stdio.Stderr, d.Err())
			if firstErr == nil {
				firstErr = d.Err()
			}
		}
	}
	return firstErr
}
