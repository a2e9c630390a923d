package compiler_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/orus/internal/diag"
	"github.com/mna/orus/lang/compiler"
	"github.com/mna/orus/lang/optimizer"
	"github.com/mna/orus/lang/parser"
	"github.com/mna/orus/lang/regalloc"
	"github.com/mna/orus/lang/scopeanalyzer"
)

// build runs the full pipeline — parse, scope analysis, register
// allocation, AST optimization, emission — the way internal/maincmd wires
// them, and fails the test on any diagnostic.
func build(t *testing.T, src string) *compiler.Program {
	t.Helper()
	prog, errs := parser.Parse([]byte(src), "test")
	require.False(t, errs.HasErrors(), "%v", errs.All())

	d := &diag.List{File: "test"}
	res := scopeanalyzer.Analyze(prog, d)
	require.False(t, d.HasErrors(), "%v", d.All())

	alloc := regalloc.Allocate(res)
	optimizer.Optimize(prog)

	d2 := &diag.List{File: "test"}
	out := compiler.Compile(prog, res, alloc, d2)
	require.False(t, d2.HasErrors(), "%v", d2.All())
	return out
}

func TestCompilesModuleTopLevel(t *testing.T) {
	out := build(t, "a = 1\nb = a + 2\nprint(b)\n")
	require.Len(t, out.Functions, 1)
	require.NotNil(t, out.Functions[0])
	require.NotEmpty(t, out.Functions[0].Code)
}

func TestConstantPoolDedupsEqualValues(t *testing.T) {
	out := build(t, "a = 1\nb = 1\nc = 1\nprint(a)\nprint(b)\nprint(c)\n")
	count := 0
	for _, k := range out.Constants {
		if k.I == 1 {
			count++
		}
	}
	require.Equal(t, 1, count, "the literal 1 should be interned once")
}

func TestArithmeticSelectsIntegerOpcodes(t *testing.T) {
	out := build(t, "a = 1\nb = 2\nc = a + b\nprint(c)\n")
	require.Contains(t, disasm(t, out), "add_i")
}

func TestArithmeticSelectsFloatOpcodes(t *testing.T) {
	out := build(t, "a = 1.5\nb = 2.5\nc = a + b\nprint(c)\n")
	require.Contains(t, disasm(t, out), "add_f")
}

func TestStringConcatSelectsConcatOpcode(t *testing.T) {
	out := build(t, `a = "x"
b = "y"
c = a + b
print(c)
`)
	require.Contains(t, disasm(t, out), "concat_str")
}

// TestBitwiseOperatorsSelectBitwiseOpcodes exercises binPrec's bitwise/
// shift precedence wiring end to end, down to the dedicated opcodes
// lang/compiler already implemented for these operators.
func TestBitwiseOperatorsSelectBitwiseOpcodes(t *testing.T) {
	out := build(t, "a = 6\nb = 3\nc = a & b\nd = a | b\ne = a ^ b\nf = a << b\ng = a >> b\nprint(c)\nprint(d)\nprint(e)\nprint(f)\nprint(g)\n")
	text := disasm(t, out)
	require.Contains(t, text, "band")
	require.Contains(t, text, "bor")
	require.Contains(t, text, "bxor")
	require.Contains(t, text, "shl")
	require.Contains(t, text, "shr")
}

func TestIfEmitsBalancedJump(t *testing.T) {
	out := build(t, "a = 1\nif a > 0:\n    print(a)\nelse:\n    print(0)\n")
	text := disasm(t, out)
	require.Contains(t, text, "jump_if_not_r")
	require.Contains(t, text, "jump ")
}

func TestWhileLoopEmitsLoopOpcode(t *testing.T) {
	out := build(t, "a = 0\nwhile a < 10:\n    a = a + 1\n")
	require.Contains(t, disasm(t, out), "loop")
}

func TestForRangeEmitsComparisonAndLoop(t *testing.T) {
	out := build(t, "for i in 0..10:\n    print(i)\n")
	text := disasm(t, out)
	require.Contains(t, text, "lt_i")
	require.Contains(t, text, "loop")
}

func TestForRangeInclusiveUsesLE(t *testing.T) {
	out := build(t, "for i in 0..=10:\n    print(i)\n")
	require.Contains(t, disasm(t, out), "le_i")
}

func TestFunctionDeclarationAddsFuncode(t *testing.T) {
	out := build(t, "fn add(x, y):\n    return x + y\n\nprint(add(1, 2))\n")
	require.Greater(t, len(out.Functions), 1)
}

func TestDisassembleProducesOneLinePerInstruction(t *testing.T) {
	out := build(t, "a = 1\nb = a + 2\nprint(b)\n")
	var buf bytes.Buffer
	require.NoError(t, compiler.Disassemble(&buf, out))
	require.NotEmpty(t, buf.String())
	require.Contains(t, buf.String(), "load_const")
}

// TestBreakWithUndefinedLabelIsError covers spec.md §8's "break 'outer
// without a matching label is rejected": a break naming a label no
// enclosing loop carries must fail compilation with E4003, not silently
// compile to a no-op jump.
func TestBreakWithUndefinedLabelIsError(t *testing.T) {
	prog, errs := parser.Parse([]byte("'inner: while true:\n    break 'outer\n"), "test")
	require.False(t, errs.HasErrors(), "%v", errs.All())

	d := &diag.List{File: "test"}
	res := scopeanalyzer.Analyze(prog, d)
	require.False(t, d.HasErrors(), "%v", d.All())
	alloc := regalloc.Allocate(res)
	optimizer.Optimize(prog)

	d2 := &diag.List{File: "test"}
	compiler.Compile(prog, res, alloc, d2)
	require.True(t, d2.HasErrors())
	found := false
	for _, diagnostic := range d2.All() {
		if diagnostic.Code == diag.ErrUndefinedLabel {
			found = true
		}
	}
	require.True(t, found, "expected E4003 undefined label diagnostic, got %v", d2.All())
}

// TestContinueWithUndefinedLabelIsError mirrors the break case for continue.
func TestContinueWithUndefinedLabelIsError(t *testing.T) {
	prog, errs := parser.Parse([]byte("'inner: while true:\n    continue 'outer\n"), "test")
	require.False(t, errs.HasErrors(), "%v", errs.All())

	d := &diag.List{File: "test"}
	res := scopeanalyzer.Analyze(prog, d)
	require.False(t, d.HasErrors(), "%v", d.All())
	alloc := regalloc.Allocate(res)
	optimizer.Optimize(prog)

	d2 := &diag.List{File: "test"}
	compiler.Compile(prog, res, alloc, d2)
	require.True(t, d2.HasErrors())
	found := false
	for _, diagnostic := range d2.All() {
		if diagnostic.Code == diag.ErrUndefinedLabel {
			found = true
		}
	}
	require.True(t, found, "expected E4003 undefined label diagnostic, got %v", d2.All())
}

func TestImplicitReturnVoidInserted(t *testing.T) {
	out := build(t, "fn noop():\n    a = 1\n\nnoop()\n")
	require.True(t, funcEndsWith(out, "noop", "return_void"))
}

func TestExplicitReturnSkipsImplicitVoid(t *testing.T) {
	out := build(t, "fn one():\n    return 1\n\nprint(one())\n")
	require.True(t, funcEndsWith(out, "one", "return_r"))
}

func disasm(t *testing.T, out *compiler.Program) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, compiler.Disassemble(&buf, out))
	return buf.String()
}

// funcEndsWith reports whether the last instruction line of the named
// function's disassembly mentions op, used here to check the last
// statement of a small test function lowered to the expected return opcode.
func funcEndsWith(out *compiler.Program, name, op string) bool {
	for _, fn := range out.Functions {
		if fn == nil || fn.Name != name {
			continue
		}
		var buf bytes.Buffer
		if err := compiler.Disassemble(&buf, &compiler.Program{Functions: []*compiler.Funcode{fn}, Constants: out.Constants, Globals: out.Globals}); err != nil {
			return false
		}
		b := bytes.TrimRight(buf.Bytes(), "\n")
		last := b[bytes.LastIndexByte(b, '\n')+1:]
		return bytes.Contains(last, []byte(op))
	}
	return false
}
