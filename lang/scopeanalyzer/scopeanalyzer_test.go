package scopeanalyzer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/lang/parser"
	"github.com/mna/orus/lang/scopeanalyzer"
)

func analyze(t *testing.T, src string) *scopeanalyzer.Result {
	t.Helper()
	prog, errs := parser.Parse([]byte(src), "test")
	require.False(t, errs.HasErrors())
	d := &diag.List{File: "test"}
	res := scopeanalyzer.Analyze(prog, d)
	require.False(t, d.HasErrors(), "%v", d.All())
	return res
}

func TestFirstUseLastUseOrdering(t *testing.T) {
	res := analyze(t, "x = 1\ny = x + x\n")
	for _, v := range res.Root.Variables {
		if v.FirstUse >= 0 {
			require.LessOrEqual(t, v.FirstUse, v.LastUse)
		}
	}
}

func TestUndefinedVariableReported(t *testing.T) {
	prog, errs := parser.Parse([]byte("y = x\n"), "test")
	require.False(t, errs.HasErrors())
	d := &diag.List{}
	scopeanalyzer.Analyze(prog, d)
	require.True(t, d.HasErrors())
}

func TestDeadVariableDetected(t *testing.T) {
	res := analyze(t, "x = 1\ny = 2\nprint(y)\n")
	found := false
	for _, v := range res.Root.Variables {
		if v.Name == "x" {
			require.True(t, v.IsDead)
			found = true
		}
		if v.Name == "y" {
			require.False(t, v.IsDead)
		}
	}
	require.True(t, found)
}

func TestCaptureAcrossFunctionBoundary(t *testing.T) {
	res := analyze(t, "x = 1\nfn f():\n    print(x)\n")
	for _, v := range res.Root.Variables {
		if v.Name == "x" {
			require.True(t, v.IsCaptured)
			require.True(t, v.Escapes)
		}
	}
}

func TestLoopInductionVariableNeverDead(t *testing.T) {
	res := analyze(t, "for i in 0..10:\n    pass\n")
	child := res.Root.Children[0]
	require.Len(t, child.Variables, 1)
	require.False(t, child.Variables[0].IsDead)
	require.True(t, child.Variables[0].IsLoopVar)
}

func TestInterferenceOverlap(t *testing.T) {
	res := analyze(t, "a = 1\nb = a + 1\nc = a + b\n")
	require.NotEmpty(t, res.Interfering)
}

// TestNonExhaustiveEnumMatchIsError reproduces spec.md §8 scenario 6: a
// match over every declared Color variant except Blue, with no wildcard
// arm, must fail to compile.
func TestNonExhaustiveEnumMatchIsError(t *testing.T) {
	src := "enum Color: Red, Green, Blue\nc = 1\nmatch c:\n    Color.Red -> 1\n    Color.Green -> 2\n"
	prog, perrs := parser.Parse([]byte(src), "test")
	require.False(t, perrs.HasErrors())

	d := &diag.List{File: "test"}
	scopeanalyzer.Analyze(prog, d)
	require.True(t, d.HasErrors())
	found := false
	for _, diagnostic := range d.All() {
		if diagnostic.Code == diag.ErrNonExhaustiveMatch {
			found = true
		}
	}
	require.True(t, found, "expected E4007 non-exhaustive match diagnostic, got %v", d.All())
}

// TestWildcardArmMakesEnumMatchExhaustive covers the other half of scenario
// 6: adding a wildcard arm to the same match makes it compile cleanly.
func TestWildcardArmMakesEnumMatchExhaustive(t *testing.T) {
	src := "enum Color: Red, Green, Blue\nc = 1\nmatch c:\n    Color.Red -> 1\n    Color.Green -> 2\n    _ -> 3\n"
	res := analyze(t, src)
	require.NotNil(t, res)
}

// TestMissingVariantArmMakesEnumMatchExhaustive covers scenario 6's "adding
// ... Color.Blue compiles" alternative: naming the missing variant directly,
// without a wildcard, is equally sufficient.
func TestMissingVariantArmMakesEnumMatchExhaustive(t *testing.T) {
	src := "enum Color: Red, Green, Blue\nc = 1\nmatch c:\n    Color.Red -> 1\n    Color.Green -> 2\n    Color.Blue -> 3\n"
	res := analyze(t, src)
	require.NotNil(t, res)
}

func TestDuplicateEnumMatchArmIsError(t *testing.T) {
	src := "enum Color: Red, Green, Blue\nc = 1\nmatch c:\n    Color.Red -> 1\n    Color.Red -> 2\n    _ -> 3\n"
	prog, perrs := parser.Parse([]byte(src), "test")
	require.False(t, perrs.HasErrors())

	d := &diag.List{File: "test"}
	scopeanalyzer.Analyze(prog, d)
	require.True(t, d.HasErrors())
	found := false
	for _, diagnostic := range d.All() {
		if diagnostic.Code == diag.ErrDuplicateMatchArm {
			found = true
		}
	}
	require.True(t, found, "expected E4006 duplicate match arm diagnostic, got %v", d.All())
}

func TestDuplicateLiteralMatchArmIsError(t *testing.T) {
	src := "c = 1\nmatch c:\n    1 -> 1\n    1 -> 2\n    _ -> 3\n"
	prog, perrs := parser.Parse([]byte(src), "test")
	require.False(t, perrs.HasErrors())

	d := &diag.List{File: "test"}
	scopeanalyzer.Analyze(prog, d)
	require.True(t, d.HasErrors())
	found := false
	for _, diagnostic := range d.All() {
		if diagnostic.Code == diag.ErrDuplicateMatchArm {
			found = true
		}
	}
	require.True(t, found, "expected E4006 duplicate match arm diagnostic, got %v", d.All())
}
