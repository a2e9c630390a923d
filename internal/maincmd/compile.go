package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/internal/perf"
	"github.com/mna/orus/lang/compiler"
	"github.com/mna/orus/lang/optimizer"
	"github.com/mna/orus/lang/parser"
	"github.com/mna/orus/lang/regalloc"
	"github.com/mna/orus/lang/scopeanalyzer"
)

func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return CompileFiles(ctx, stdio, !c.NoOptimize, args...)
}

// CompileFiles runs the full pipeline over each file — parse, scope
// analysis, register allocation, optionally the AST optimizer, emission —
// and prints the resulting bytecode's disassembly.
func CompileFiles(ctx context.Context, stdio mainer.Stdio, optimize bool, files ...string) error {
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

		stats := perf.Start()

		prog, perrs := parser.Parse(src, f)
		stats.Log("parse", f)
		if perrs.HasErrors() {
			perrs.Sort()
			fmt.Fprintln(stdio.Stderr, perrs.Err())
			if firstErr == nil {
				firstErr = perrs.Err()
			}
			continue
		}

		d := &diag.List{File: f}
		res := scopeanalyzer.Analyze(prog, d)
		stats.Log("scope-analyze", f)
		if d.HasErrors() {
			d.Sort()
			fmt.Fprintln(stdio.Stderr, d.Err())
			if firstErr == nil {
				firstErr = d.Err()
			}
			continue
		}

		alloc := regalloc.Allocate(res)
		stats.Log("regalloc", f)
		if optimize {
			optimizer.Optimize(prog)
			stats.Log("optimize", f)
		}

		emitErrs := &diag.List{File: f}
		out := compiler.Compile(prog, res, alloc, emitErrs)
		stats.Log("emit", f)
		if emitErrs.HasErrors() {
			emitErrs.Sort()
			fmt.Fprintln(stdio.Stderr, emitErrs.Err())
			if firstErr == nil {
				firstErr = emitErrs.Err()
			}
			continue
		}

		fmt.Fprintf(stdio.Stdout, "-- %s --\n", f)
		if err := compiler.Disassemble(stdio.Stdout, out); err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
