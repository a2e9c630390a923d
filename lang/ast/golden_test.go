package ast_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/orus/internal/filetest"
	"github.com/mna/orus/lang/ast"
	"github.com/mna/orus/lang/parser"
)

var testUpdateASTTests = flag.Bool("test.update-ast-tests", false, "If set, replace expected AST dump results with actual results.")

// TestASTDump runs Fprint over every testdata/in/*.orus source file and
// diffs the dump against its golden testdata/out/*.orus.want file, the way
// the teacher's own lang/parser golden tests exercise its AST printer.
func TestASTDump(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".orus") {
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			require.NoError(t, err)

			name := strings.TrimSuffix(fi.Name(), filepath.Ext(fi.Name()))
			prog, errs := parser.Parse(src, name)
			require.False(t, errs.HasErrors(), "%v", errs.All())

			var buf bytes.Buffer
			require.NoError(t, ast.Fprint(&buf, prog))
			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateASTTests)
		})
	}
}
