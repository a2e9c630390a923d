package compiler

import (
	"fmt"
	"io"
	"strings"
)

// Disassemble writes a human-readable listing of every function in prog to
// w: a "function #i name(n params, m regs)" header per function, then one
// instruction per line as its pc, its opcode name and its comma-separated
// operands (spec.md §4.7's debugging pseudo-assembly).
func Disassemble(w io.Writer, prog *Program) error {
	for i, fn := range prog.Functions {
		if fn == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "function #%d %s(%d params, %d regs)\n", i, fn.Name, fn.NumParams, fn.NumRegs); err != nil {
			return err
		}
		if err := disassembleFunc(w, prog, fn); err != nil {
			return err
		}
	}
	return nil
}

func disassembleFunc(w io.Writer, prog *Program, fn *Funcode) error {
	code := fn.Code
	pc := 0
	for pc < len(code) {
		op := Opcode(code[pc])
		kinds := operandKinds[op]
		size := instrSize(op)
		if pc+size > len(code) {
			size = len(code) - pc
		}

		var parts []string
		off := pc + 1
		for _, k := range kinds {
			switch k {
			case opReg:
				parts = append(parts, fmt.Sprintf("r%d", code[off]))
				off++
			case opU8:
				parts = append(parts, fmt.Sprintf("%d", code[off]))
				off++
			case opU16:
				v := int(code[off])<<8 | int(code[off+1])
				parts = append(parts, describeU16Operand(prog, op, v))
				off += 2
			}
		}

		line := fmt.Sprintf("%6d  %-16s %s", pc, op.String(), strings.Join(parts, ", "))
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
		pc += size
	}
	return nil
}

// describeU16Operand annotates a u16 operand with the constant/global
// value it names, where that adds useful context to the listing.
func describeU16Operand(prog *Program, op Opcode, v int) string {
	switch op {
	case LOAD_CONST:
		if v < len(prog.Constants) {
			return fmt.Sprintf("k%d(%s)", v, formatValue(prog.Constants[v]))
		}
	case LOAD_GLOBAL, STORE_GLOBAL:
		if v < len(prog.Globals) {
			return fmt.Sprintf("g%d(%s)", v, prog.Globals[v])
		}
	case MAKE_CLOSURE:
		if v < len(prog.Functions) && prog.Functions[v] != nil {
			return fmt.Sprintf("f%d(%s)", v, prog.Functions[v].Name)
		}
	case JUMP, JUMP_IF_NOT_R, LOOP, ITER_NEXT, TRY_PUSH:
		return fmt.Sprintf("->%d", v)
	case STRUCT_NEW, FIELD_GET, FIELD_SET:
		if v < len(prog.Globals) {
			return fmt.Sprintf("n%d(%s)", v, prog.Globals[v])
		}
	}
	return fmt.Sprintf("%d", v)
}

func formatValue(v Value) string {
	switch v.Kind.String() {
	case "string":
		return fmt.Sprintf("%q", v.S)
	case "bool":
		return fmt.Sprintf("%t", v.B)
	case "f64":
		return fmt.Sprintf("%g", v.F)
	default:
		return fmt.Sprintf("%d", v.I)
	}
}
