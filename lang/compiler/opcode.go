package compiler

import "fmt"

// Increment this to force recompilation of saved bytecode files.
const Version = 0

// Opcode identifies one register-machine instruction (spec.md §4.7). Unlike
// a stack machine's uniform single-operand encoding, register instructions
// take a variable number of operands (destination/source registers,
// constant-pool or global indices, jump targets); operandKinds below
// describes the shape of each opcode so the encoder and disassembler share
// one table instead of duplicating per-op logic.
type Opcode uint8

//nolint:revive
const (
	NOP Opcode = iota

	LOAD_CONST   // Rd, Kidx(u16)        Rd = constants[Kidx]
	LOAD_GLOBAL  // Rd, Gidx(u16)        Rd = globals[Gidx]
	STORE_GLOBAL // Gidx(u16), Rs        globals[Gidx] = Rs
	MOVE         // Rd, Rs               Rd = Rs

	ADD_I // Rd, Ra, Rb   integer family (i32/i64/u32/u64)
	SUB_I
	MUL_I
	DIV_I
	MOD_I
	NEG_I // Rd, Rs
	BAND
	BOR
	BXOR
	BNOT // Rd, Rs
	SHL
	SHR

	ADD_F // Rd, Ra, Rb   float family (f64)
	SUB_F
	MUL_F
	DIV_F
	NEG_F // Rd, Rs

	CONCAT_STR // Rd, Ra, Rb

	EQ_I
	NE_I
	LT_I
	LE_I
	GT_I
	GE_I

	EQ_F
	NE_F
	LT_F
	LE_F
	GT_F
	GE_F

	EQ_STR
	NE_STR
	LT_STR
	LE_STR
	GT_STR
	GE_STR

	EQ_BOOL
	NE_BOOL
	NOT_BOOL // Rd, Rs

	CAST // Rd, Rs, fromKind(u8), toKind(u8)

	JUMP         // addr(u16)            absolute jump
	JUMP_IF_NOT_R // Rcond, addr(u16)    jump if Rcond is false
	LOOP         // addr(u16)            backward jump to loop header

	CALL_R      // Rdst, Rfn, Rargs0, argc(u8)
	RETURN_R    // Rsrc
	RETURN_VOID //

	PRINT_R    // Rsrc                  print without trailing newline
	PRINT_R_NL // Rsrc                  print with trailing newline

	MAKE_ARRAY  // Rdst, Rbase, count(u16)
	ARRAY_FILL  // Rdst, Rvalue, Rcount         [value; count]
	ARRAY_GET   // Rdst, Rarr, Ridx
	ARRAY_SET   // Rarr, Ridx, Rval
	ARRAY_SLICE // Rdst, Rarr, Rlo, Rhi
	ARRAY_LEN   // Rdst, Rarr

	STRUCT_NEW // Rdst, TypeIdx(u16), Rbase, fieldCount(u8)
	FIELD_GET  // Rdst, Robj, NameIdx(u16)
	FIELD_SET  // Robj, NameIdx(u16), Rval

	ITER_NEW  // Rdst, Rsrc
	ITER_NEXT // Rdst, Riter, addrIfDone(u16)

	GET_UPVAL    // Rdst, idx(u8)
	SET_UPVAL    // idx(u8), Rsrc
	MAKE_CLOSURE // Rdst, FuncIdx(u16)

	THROW    // Rsrc
	TRY_PUSH // catchAddr(u16)
	TRY_POP  //

	OpcodeMax
)

// operand describes one instruction operand's encoding width.
type operand uint8

const (
	opReg  operand = iota // one byte, a register index
	opU16                 // two bytes, big-endian (constant/global index or jump address)
	opU8                  // one byte, a small immediate (arg count, upvalue index, type kind)
)

func (o operand) size() int {
	switch o {
	case opReg, opU8:
		return 1
	case opU16:
		return 2
	}
	return 0
}

// operandKinds is the shared operand-shape table the encoder and
// disassembler both read from, so a new opcode's shape is declared once.
var operandKinds = map[Opcode][]operand{
	LOAD_CONST:    {opReg, opU16},
	LOAD_GLOBAL:   {opReg, opU16},
	STORE_GLOBAL:  {opU16, opReg},
	MOVE:          {opReg, opReg},

	ADD_I: {opReg, opReg, opReg},
	SUB_I: {opReg, opReg, opReg},
	MUL_I: {opReg, opReg, opReg},
	DIV_I: {opReg, opReg, opReg},
	MOD_I: {opReg, opReg, opReg},
	NEG_I: {opReg, opReg},
	BAND:  {opReg, opReg, opReg},
	BOR:   {opReg, opReg, opReg},
	BXOR:  {opReg, opReg, opReg},
	BNOT:  {opReg, opReg},
	SHL:   {opReg, opReg, opReg},
	SHR:   {opReg, opReg, opReg},

	ADD_F: {opReg, opReg, opReg},
	SUB_F: {opReg, opReg, opReg},
	MUL_F: {opReg, opReg, opReg},
	DIV_F: {opReg, opReg, opReg},
	NEG_F: {opReg, opReg},

	CONCAT_STR: {opReg, opReg, opReg},

	EQ_I: {opReg, opReg, opReg},
	NE_I: {opReg, opReg, opReg},
	LT_I: {opReg, opReg, opReg},
	LE_I: {opReg, opReg, opReg},
	GT_I: {opReg, opReg, opReg},
	GE_I: {opReg, opReg, opReg},

	EQ_F: {opReg, opReg, opReg},
	NE_F: {opReg, opReg, opReg},
	LT_F: {opReg, opReg, opReg},
	LE_F: {opReg, opReg, opReg},
	GT_F: {opReg, opReg, opReg},
	GE_F: {opReg, opReg, opReg},

	EQ_STR: {opReg, opReg, opReg},
	NE_STR: {opReg, opReg, opReg},
	LT_STR: {opReg, opReg, opReg},
	LE_STR: {opReg, opReg, opReg},
	GT_STR: {opReg, opReg, opReg},
	GE_STR: {opReg, opReg, opReg},

	EQ_BOOL:  {opReg, opReg, opReg},
	NE_BOOL:  {opReg, opReg, opReg},
	NOT_BOOL: {opReg, opReg},

	CAST: {opReg, opReg, opU8, opU8},

	JUMP:          {opU16},
	JUMP_IF_NOT_R: {opReg, opU16},
	LOOP:          {opU16},

	CALL_R:      {opReg, opReg, opReg, opU8},
	RETURN_R:    {opReg},
	RETURN_VOID: {},

	PRINT_R:    {opReg},
	PRINT_R_NL: {opReg},

	MAKE_ARRAY:  {opReg, opReg, opU16},
	ARRAY_FILL:  {opReg, opReg, opReg},
	ARRAY_GET:   {opReg, opReg, opReg},
	ARRAY_SET:   {opReg, opReg, opReg},
	ARRAY_SLICE: {opReg, opReg, opReg, opReg},
	ARRAY_LEN:   {opReg, opReg},

	STRUCT_NEW: {opReg, opU16, opReg, opU8},
	FIELD_GET:  {opReg, opReg, opU16},
	FIELD_SET:  {opReg, opU16, opReg},

	ITER_NEW:  {opReg, opReg},
	ITER_NEXT: {opReg, opReg, opU16},

	GET_UPVAL:    {opReg, opU8},
	SET_UPVAL:    {opU8, opReg},
	MAKE_CLOSURE: {opReg, opU16},

	THROW:    {opReg},
	TRY_PUSH: {opU16},
	TRY_POP:  {},
}

// jumpOpcodes is the set of opcodes whose last operand is a patchable
// absolute address (spec.md §4.7's "16-bit big-endian jump patch sites").
// fcomp does not consult it: emitJump returns each patch site's offset to
// its caller directly.
var jumpOpcodes = map[Opcode]bool{
	JUMP:          true,
	JUMP_IF_NOT_R: true,
	LOOP:          true,
	ITER_NEXT:     true,
	TRY_PUSH:      true,
}

// instrSize returns the total encoded size, in bytes, of op and its
// operands (1 opcode byte plus each operand's width).
func instrSize(op Opcode) int {
	size := 1
	for _, o := range operandKinds[op] {
		size += o.size()
	}
	return size
}

var opcodeNames = [...]string{
	NOP:           "nop",
	LOAD_CONST:    "load_const",
	LOAD_GLOBAL:   "load_global",
	STORE_GLOBAL:  "store_global",
	MOVE:          "move",
	ADD_I:         "add_i",
	SUB_I:         "sub_i",
	MUL_I:         "mul_i",
	DIV_I:         "div_i",
	MOD_I:         "mod_i",
	NEG_I:         "neg_i",
	BAND:          "band",
	BOR:           "bor",
	BXOR:          "bxor",
	BNOT:          "bnot",
	SHL:           "shl",
	SHR:           "shr",
	ADD_F:         "add_f",
	SUB_F:         "sub_f",
	MUL_F:         "mul_f",
	DIV_F:         "div_f",
	NEG_F:         "neg_f",
	CONCAT_STR:    "concat_str",
	EQ_I:          "eq_i",
	NE_I:          "ne_i",
	LT_I:          "lt_i",
	LE_I:          "le_i",
	GT_I:          "gt_i",
	GE_I:          "ge_i",
	EQ_F:          "eq_f",
	NE_F:          "ne_f",
	LT_F:          "lt_f",
	LE_F:          "le_f",
	GT_F:          "gt_f",
	GE_F:          "ge_f",
	EQ_STR:        "eq_str",
	NE_STR:        "ne_str",
	LT_STR:        "lt_str",
	LE_STR:        "le_str",
	GT_STR:        "gt_str",
	GE_STR:        "ge_str",
	EQ_BOOL:       "eq_bool",
	NE_BOOL:       "ne_bool",
	NOT_BOOL:      "not_bool",
	CAST:          "cast",
	JUMP:          "jump",
	JUMP_IF_NOT_R: "jump_if_not_r",
	LOOP:          "loop",
	CALL_R:        "call_r",
	RETURN_R:      "return_r",
	RETURN_VOID:   "return_void",
	PRINT_R:       "print_r",
	PRINT_R_NL:    "print_r_nl",
	MAKE_ARRAY:    "make_array",
	ARRAY_FILL:    "array_fill",
	ARRAY_GET:     "array_get",
	ARRAY_SET:     "array_set",
	ARRAY_SLICE:   "array_slice",
	ARRAY_LEN:     "array_len",
	STRUCT_NEW:    "struct_new",
	FIELD_GET:     "field_get",
	FIELD_SET:     "field_set",
	ITER_NEW:      "iter_new",
	ITER_NEXT:     "iter_next",
	GET_UPVAL:     "get_upval",
	SET_UPVAL:     "set_upval",
	MAKE_CLOSURE:  "make_closure",
	THROW:         "throw",
	TRY_PUSH:      "try_push",
	TRY_POP:       "try_pop",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return fmt.Sprintf("illegal op (%d)", op)
}
