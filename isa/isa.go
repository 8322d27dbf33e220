// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

import (
	"strings"
)

// Format describes the operand layout of an instruction word.
type Format int

const (
	FORMAT_3R         = Format(iota) // name rd, rs1, rs2
	FORMAT_RI8                       // name rd, simm8
	FORMAT_MEM_LOAD                  // name rd, off(rs1), func-coded offset
	FORMAT_MEM_STORE                 // name off(rs1), rs2
	FORMAT_MEMB_LOAD                 // name rd, (rs1)
	FORMAT_MEMB_STORE                // name (rs1), rs2
	FORMAT_LUI                       // name rd, imm4; rd = imm4 << 8
	FORMAT_BRANCH                    // name target, simm8 word offset
	FORMAT_JUMP                      // name target, simm12 word offset
	FORMAT_JR                        // name rs1
	FORMAT_JALR                      // name rd, rs1
	FORMAT_2R                        // name rd, rs1
	FORMAT_RD                        // name rd
	FORMAT_RS                        // name rs1
	FORMAT_NONE                      // name
	FORMAT_SYS                       // name, func in bits 11:8
	FORMAT_SYS_IMM                   // name imm8, func in bits 11:8
	FORMAT_IO_IN                     // name rd, (rs1)
	FORMAT_IO_OUT                    // name (rd), rs1
	FORMAT_EXT_RRI                   // name rd, rs1, imm16
	FORMAT_EXT_RI                    // name rd, imm16
	FORMAT_EXT_MEM                   // name rd, imm16(rs1)
	FORMAT_EXT_JUMP                  // name addr16
	FORMAT_EXT_JAL                   // name addr16, linking rd
	FORMAT_EXT_PORT_IN               // name rd, port8
	FORMAT_EXT_PORT_OUT              // name port8, rs1
	FORMAT_EXT_SHIFT                 // name rd, rs1, imm4
)

// Entry is one row of the instruction table: a mnemonic bound to its
// opcode, sub-opcode, operand format, the flags it may touch, and the
// predicate that claims its bit patterns during decode.
//
// Entries sharing a primary opcode are tried in table order; the first
// matching predicate wins. Layout ambiguities (the JUMP region) are
// resolved by this ordering, never by fallthrough.
type Entry struct {
	Name   string
	Opcode Opcode
	Func   uint8 // function nibble / sub-opcode, where the format has one
	Format Format
	Flags  uint8 // flag bits the instruction may change

	match func(word uint16) bool // nil: match on the format's func field
}

// Extended reports whether the entry uses the 32-bit 0xF-prefixed form.
func (e *Entry) Extended() bool {
	return e.Opcode == OP_EXTENDED
}

// Width returns the instruction width in bytes.
func (e *Entry) Width() uint16 {
	if e.Extended() {
		return 4
	}
	return 2
}

const flagsNZCV = FLAG_N | FLAG_Z | FLAG_C | FLAG_V
const flagsNZ = FLAG_N | FLAG_Z

// loadOffsetFunc maps word-load byte offsets to LOAD function nibbles.
var loadOffsetFunc = map[int32]LoadFunc{
	0: LOAD_LW0, 2: LOAD_LW2, 4: LOAD_LW4, 6: LOAD_LW6,
	-2: LOAD_LWM2, -4: LOAD_LWM4,
}

// storeOffsetFunc maps word-store byte offsets to STORE function nibbles.
var storeOffsetFunc = map[int32]StoreFunc{
	0: STORE_SW0, 2: STORE_SW2, 4: STORE_SW4, 6: STORE_SW6,
	-2: STORE_SWM2, -4: STORE_SWM4,
}

var loadFuncOffset = map[LoadFunc]int32{}
var storeFuncOffset = map[StoreFunc]int32{}

func init() {
	for off, fn := range loadOffsetFunc {
		loadFuncOffset[fn] = off
	}
	for off, fn := range storeOffsetFunc {
		storeFuncOffset[fn] = off
	}
}

// LoadOffset returns the function nibble encoding a LW byte offset.
func LoadOffset(off int32) (fn LoadFunc, ok bool) {
	fn, ok = loadOffsetFunc[off]
	return
}

// StoreOffset returns the function nibble encoding a SW byte offset.
func StoreOffset(off int32) (fn StoreFunc, ok bool) {
	fn, ok = storeOffsetFunc[off]
	return
}

// matchFuncSet matches any of a set of low function nibbles.
func matchFuncSet(funcs ...uint8) func(word uint16) bool {
	set := map[uint8]bool{}
	for _, fn := range funcs {
		set[fn] = true
	}
	return func(word uint16) bool { return set[uint8(word&0xF)] }
}

// The instruction table. Order within a primary opcode is decode priority.
var table = []Entry{
	{Name: "add", Opcode: OP_ADD, Format: FORMAT_3R, Flags: flagsNZCV},
	{Name: "sub", Opcode: OP_SUB, Format: FORMAT_3R, Flags: flagsNZCV},
	{Name: "and", Opcode: OP_AND, Format: FORMAT_3R, Flags: flagsNZCV},
	{Name: "or", Opcode: OP_OR, Format: FORMAT_3R, Flags: flagsNZCV},
	{Name: "xor", Opcode: OP_XOR, Format: FORMAT_3R, Flags: flagsNZCV},

	{Name: "addi", Opcode: OP_ADDI, Format: FORMAT_RI8, Flags: flagsNZCV,
		match: func(word uint16) bool { return true }},

	{Name: "lw", Opcode: OP_LOAD, Format: FORMAT_MEM_LOAD,
		match: matchFuncSet(uint8(LOAD_LW0), uint8(LOAD_LW2), uint8(LOAD_LW4),
			uint8(LOAD_LW6), uint8(LOAD_LWM2), uint8(LOAD_LWM4))},
	{Name: "lb", Opcode: OP_LOAD, Func: uint8(LOAD_LB), Format: FORMAT_MEMB_LOAD},
	{Name: "lbu", Opcode: OP_LOAD, Func: uint8(LOAD_LBU), Format: FORMAT_MEMB_LOAD},
	{Name: "lui", Opcode: OP_LOAD, Func: uint8(LOAD_LUI), Format: FORMAT_LUI},

	{Name: "sw", Opcode: OP_STORE, Format: FORMAT_MEM_STORE,
		match: matchFuncSet(uint8(STORE_SW0), uint8(STORE_SW2), uint8(STORE_SW4),
			uint8(STORE_SW6), uint8(STORE_SWM2), uint8(STORE_SWM4))},
	{Name: "sb", Opcode: OP_STORE, Func: uint8(STORE_SB), Format: FORMAT_MEMB_STORE},

	{Name: "beq", Opcode: OP_BRANCH, Func: uint8(COND_EQ), Format: FORMAT_BRANCH},
	{Name: "bne", Opcode: OP_BRANCH, Func: uint8(COND_NE), Format: FORMAT_BRANCH},
	{Name: "blt", Opcode: OP_BRANCH, Func: uint8(COND_LT), Format: FORMAT_BRANCH},
	{Name: "bge", Opcode: OP_BRANCH, Func: uint8(COND_GE), Format: FORMAT_BRANCH},
	{Name: "bltu", Opcode: OP_BRANCH, Func: uint8(COND_LU), Format: FORMAT_BRANCH},
	{Name: "bgeu", Opcode: OP_BRANCH, Func: uint8(COND_GU), Format: FORMAT_BRANCH},
	{Name: "bmi", Opcode: OP_BRANCH, Func: uint8(COND_MI), Format: FORMAT_BRANCH},
	{Name: "bpl", Opcode: OP_BRANCH, Func: uint8(COND_PL), Format: FORMAT_BRANCH},
	{Name: "bvs", Opcode: OP_BRANCH, Func: uint8(COND_VS), Format: FORMAT_BRANCH},
	{Name: "bvc", Opcode: OP_BRANCH, Func: uint8(COND_VC), Format: FORMAT_BRANCH},
	{Name: "bcs", Opcode: OP_BRANCH, Func: uint8(COND_CS), Format: FORMAT_BRANCH},
	{Name: "bcc", Opcode: OP_BRANCH, Func: uint8(COND_CC), Format: FORMAT_BRANCH},
	{Name: "bgt", Opcode: OP_BRANCH, Func: uint8(COND_GT), Format: FORMAT_BRANCH},
	{Name: "ble", Opcode: OP_BRANCH, Func: uint8(COND_LE), Format: FORMAT_BRANCH},
	{Name: "bhi", Opcode: OP_BRANCH, Func: uint8(COND_HI), Format: FORMAT_BRANCH},
	{Name: "bls", Opcode: OP_BRANCH, Func: uint8(COND_LS), Format: FORMAT_BRANCH},

	// The JUMP region is layout-ambiguous; the predicates below are the
	// canonical priority-ordered discrimination.
	{Name: "jr", Opcode: OP_JUMP, Format: FORMAT_JR,
		match: func(word uint16) bool { return word&0x0F0F == 0x0F00 }},
	{Name: "jalr", Opcode: OP_JUMP, Func: 0x1, Format: FORMAT_JALR,
		match: func(word uint16) bool { return word&0xF == 0x1 && (word>>8)&0xF != 0 }},
	{Name: "j", Opcode: OP_JUMP, Format: FORMAT_JUMP,
		match: func(word uint16) bool { return true }},

	{Name: "sll", Opcode: OP_SHIFT, Func: uint8(SHIFT_SLL1), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "srl", Opcode: OP_SHIFT, Func: uint8(SHIFT_SRL1), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "sra", Opcode: OP_SHIFT, Func: uint8(SHIFT_SRA1), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "rol", Opcode: OP_SHIFT, Func: uint8(SHIFT_ROL1), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "ror", Opcode: OP_SHIFT, Func: uint8(SHIFT_ROR1), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "rcl", Opcode: OP_SHIFT, Func: uint8(SHIFT_RCL1), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "rcr", Opcode: OP_SHIFT, Func: uint8(SHIFT_RCR1), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "swap", Opcode: OP_SHIFT, Func: uint8(SHIFT_SWAP), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "sll4", Opcode: OP_SHIFT, Func: uint8(SHIFT_SLL4), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "srl4", Opcode: OP_SHIFT, Func: uint8(SHIFT_SRL4), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "sra4", Opcode: OP_SHIFT, Func: uint8(SHIFT_SRA4), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "rol4", Opcode: OP_SHIFT, Func: uint8(SHIFT_ROL4), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "sll8", Opcode: OP_SHIFT, Func: uint8(SHIFT_SLL8), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "srl8", Opcode: OP_SHIFT, Func: uint8(SHIFT_SRL8), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "sra8", Opcode: OP_SHIFT, Func: uint8(SHIFT_SRA8), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "rol8", Opcode: OP_SHIFT, Func: uint8(SHIFT_ROL8), Format: FORMAT_2R, Flags: flagsNZCV},

	{Name: "mul", Opcode: OP_MULDIV, Func: uint8(MULDIV_MUL), Format: FORMAT_2R},
	{Name: "mulh", Opcode: OP_MULDIV, Func: uint8(MULDIV_MULH), Format: FORMAT_2R},
	{Name: "mulhu", Opcode: OP_MULDIV, Func: uint8(MULDIV_MULHU), Format: FORMAT_2R},
	{Name: "div", Opcode: OP_MULDIV, Func: uint8(MULDIV_DIV), Format: FORMAT_2R},
	{Name: "divu", Opcode: OP_MULDIV, Func: uint8(MULDIV_DIVU), Format: FORMAT_2R},
	{Name: "rem", Opcode: OP_MULDIV, Func: uint8(MULDIV_REM), Format: FORMAT_2R},
	{Name: "remu", Opcode: OP_MULDIV, Func: uint8(MULDIV_REMU), Format: FORMAT_2R},
	{Name: "daa", Opcode: OP_MULDIV, Func: uint8(MULDIV_DAA), Format: FORMAT_RD,
		Flags: flagsNZCV | FLAG_H},

	{Name: "push", Opcode: OP_MISC, Func: uint8(MISC_PUSH), Format: FORMAT_RS},
	{Name: "pop", Opcode: OP_MISC, Func: uint8(MISC_POP), Format: FORMAT_RD},
	{Name: "cmp", Opcode: OP_MISC, Func: uint8(MISC_CMP), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "test", Opcode: OP_MISC, Func: uint8(MISC_TEST), Format: FORMAT_2R, Flags: flagsNZCV},
	{Name: "mov", Opcode: OP_MISC, Func: uint8(MISC_MOV), Format: FORMAT_2R},
	{Name: "ldi", Opcode: OP_MISC, Func: uint8(MISC_LDI), Format: FORMAT_NONE, Flags: FLAG_Z},
	{Name: "ldd", Opcode: OP_MISC, Func: uint8(MISC_LDD), Format: FORMAT_NONE, Flags: FLAG_Z},
	{Name: "ldir", Opcode: OP_MISC, Func: uint8(MISC_LDIR), Format: FORMAT_NONE, Flags: FLAG_Z},
	{Name: "lddr", Opcode: OP_MISC, Func: uint8(MISC_LDDR), Format: FORMAT_NONE, Flags: FLAG_Z},
	{Name: "cpir", Opcode: OP_MISC, Func: uint8(MISC_CPIR), Format: FORMAT_NONE, Flags: FLAG_Z},
	{Name: "fill", Opcode: OP_MISC, Func: uint8(MISC_FILL), Format: FORMAT_NONE},
	{Name: "exx", Opcode: OP_MISC, Func: uint8(MISC_EXX), Format: FORMAT_NONE},
	{Name: "getf", Opcode: OP_MISC, Func: uint8(MISC_GETF), Format: FORMAT_RD},
	{Name: "setf", Opcode: OP_MISC, Func: uint8(MISC_SETF), Format: FORMAT_RS,
		Flags: flagsNZCV | FLAG_H | FLAG_I},

	{Name: "in", Opcode: OP_IO, Func: uint8(IO_IN), Format: FORMAT_IO_IN},
	{Name: "out", Opcode: OP_IO, Func: uint8(IO_OUT), Format: FORMAT_IO_OUT},

	{Name: "nop", Opcode: OP_SYSTEM, Func: uint8(SYS_NOP), Format: FORMAT_SYS},
	{Name: "halt", Opcode: OP_SYSTEM, Func: uint8(SYS_HALT), Format: FORMAT_SYS},
	{Name: "di", Opcode: OP_SYSTEM, Func: uint8(SYS_DI), Format: FORMAT_SYS, Flags: FLAG_I},
	{Name: "ei", Opcode: OP_SYSTEM, Func: uint8(SYS_EI), Format: FORMAT_SYS, Flags: FLAG_I},
	{Name: "reti", Opcode: OP_SYSTEM, Func: uint8(SYS_RETI), Format: FORMAT_SYS, Flags: FLAG_I},
	{Name: "swi", Opcode: OP_SYSTEM, Func: uint8(SYS_SWI), Format: FORMAT_SYS_IMM, Flags: FLAG_I},
	{Name: "scf", Opcode: OP_SYSTEM, Func: uint8(SYS_SCF), Format: FORMAT_SYS, Flags: FLAG_C},
	{Name: "ccf", Opcode: OP_SYSTEM, Func: uint8(SYS_CCF), Format: FORMAT_SYS, Flags: FLAG_C},

	{Name: "addix", Opcode: OP_EXTENDED, Func: uint8(EXT_ADDIX), Format: FORMAT_EXT_RRI, Flags: flagsNZCV},
	{Name: "subix", Opcode: OP_EXTENDED, Func: uint8(EXT_SUBIX), Format: FORMAT_EXT_RRI, Flags: flagsNZCV},
	{Name: "andix", Opcode: OP_EXTENDED, Func: uint8(EXT_ANDIX), Format: FORMAT_EXT_RRI, Flags: flagsNZCV},
	{Name: "orix", Opcode: OP_EXTENDED, Func: uint8(EXT_ORIX), Format: FORMAT_EXT_RRI, Flags: flagsNZCV},
	{Name: "xorix", Opcode: OP_EXTENDED, Func: uint8(EXT_XORIX), Format: FORMAT_EXT_RRI, Flags: flagsNZCV},
	{Name: "lwx", Opcode: OP_EXTENDED, Func: uint8(EXT_LWX), Format: FORMAT_EXT_MEM},
	{Name: "swx", Opcode: OP_EXTENDED, Func: uint8(EXT_SWX), Format: FORMAT_EXT_MEM},
	{Name: "lix", Opcode: OP_EXTENDED, Func: uint8(EXT_LIX), Format: FORMAT_EXT_RI},
	{Name: "jx", Opcode: OP_EXTENDED, Func: uint8(EXT_JX), Format: FORMAT_EXT_JUMP},
	{Name: "jalx", Opcode: OP_EXTENDED, Func: uint8(EXT_JALX), Format: FORMAT_EXT_JAL},
	{Name: "cmpix", Opcode: OP_EXTENDED, Func: uint8(EXT_CMPIX), Format: FORMAT_EXT_RI, Flags: flagsNZCV},
	{Name: "inx", Opcode: OP_EXTENDED, Func: uint8(EXT_INX), Format: FORMAT_EXT_PORT_IN},
	{Name: "outx", Opcode: OP_EXTENDED, Func: uint8(EXT_OUTX), Format: FORMAT_EXT_PORT_OUT},
	{Name: "sllx", Opcode: OP_EXTENDED, Func: uint8(EXT_SLLX), Format: FORMAT_EXT_SHIFT, Flags: flagsNZCV},
	{Name: "srlx", Opcode: OP_EXTENDED, Func: uint8(EXT_SRLX), Format: FORMAT_EXT_SHIFT, Flags: flagsNZCV},
	{Name: "srax", Opcode: OP_EXTENDED, Func: uint8(EXT_SRAX), Format: FORMAT_EXT_SHIFT, Flags: flagsNZCV},
}

var byName map[string]*Entry
var byOpcode [16][]*Entry

func init() {
	byName = make(map[string]*Entry, len(table))
	for n := range table {
		entry := &table[n]
		byName[entry.Name] = entry
		byOpcode[entry.Opcode] = append(byOpcode[entry.Opcode], entry)
	}
}

// Lookup finds a table entry by mnemonic, case-insensitively.
func Lookup(name string) (entry *Entry, ok bool) {
	entry, ok = byName[strings.ToLower(name)]
	return
}

// Entries returns the full instruction table, in decode priority order.
func Entries() []*Entry {
	all := make([]*Entry, 0, len(table))
	for n := range table {
		all = append(all, &table[n])
	}
	return all
}

// matches reports whether the entry claims the instruction word. The word
// must already carry the entry's primary opcode.
func (e *Entry) matches(word uint16) bool {
	if e.match != nil {
		return e.match(word)
	}

	switch e.Format {
	case FORMAT_3R:
		// The entry owns the whole primary opcode.
		return true
	case FORMAT_BRANCH, FORMAT_SYS, FORMAT_SYS_IMM:
		// Function nibble above the 8-bit immediate.
		return uint8((word>>8)&0xF) == e.Func
	}

	return uint8(word&0xF) == e.Func
}

// find returns the highest-priority entry claiming the word.
func find(word uint16) (entry *Entry, ok bool) {
	for _, e := range byOpcode[(word>>12)&0xF] {
		if e.matches(word) {
			return e, true
		}
	}
	return nil, false
}
