// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

import (
	"fmt"
)

// Inst is a decoded instruction: a table entry plus its operand values.
//
// Field meaning depends on the entry's format. For stores, Rs2 is the value
// register and Rs1 the base. Imm carries the semantic immediate: a word
// offset for branches and jumps, a byte offset for memory forms, the raw
// 16-bit immediate for extended forms.
type Inst struct {
	Entry *Entry

	Rd  Reg
	Rs1 Reg
	Rs2 Reg
	Imm int32
}

// Width returns the instruction width in bytes.
func (inst Inst) Width() uint16 {
	return inst.Entry.Width()
}

// String returns the assembly text of the instruction. Branch and jump
// offsets are printed in words, relative to the next instruction.
func (inst Inst) String() (out string) {
	name := inst.Entry.Name

	switch inst.Entry.Format {
	case FORMAT_3R:
		out = fmt.Sprintf("%s %v, %v, %v", name, inst.Rd, inst.Rs1, inst.Rs2)
	case FORMAT_RI8, FORMAT_LUI:
		out = fmt.Sprintf("%s %v, %d", name, inst.Rd, inst.Imm)
	case FORMAT_MEM_LOAD:
		out = fmt.Sprintf("%s %v, %d(%v)", name, inst.Rd, inst.Imm, inst.Rs1)
	case FORMAT_MEM_STORE:
		out = fmt.Sprintf("%s %d(%v), %v", name, inst.Imm, inst.Rs1, inst.Rs2)
	case FORMAT_MEMB_LOAD:
		out = fmt.Sprintf("%s %v, (%v)", name, inst.Rd, inst.Rs1)
	case FORMAT_MEMB_STORE:
		out = fmt.Sprintf("%s (%v), %v", name, inst.Rs1, inst.Rs2)
	case FORMAT_BRANCH, FORMAT_JUMP:
		out = fmt.Sprintf("%s .%+d", name, inst.Imm)
	case FORMAT_JR, FORMAT_RS:
		out = fmt.Sprintf("%s %v", name, inst.Rs1)
	case FORMAT_JALR, FORMAT_2R:
		out = fmt.Sprintf("%s %v, %v", name, inst.Rd, inst.Rs1)
	case FORMAT_RD:
		out = fmt.Sprintf("%s %v", name, inst.Rd)
	case FORMAT_NONE, FORMAT_SYS:
		out = name
	case FORMAT_SYS_IMM:
		out = fmt.Sprintf("%s %d", name, inst.Imm)
	case FORMAT_IO_IN:
		out = fmt.Sprintf("%s %v, (%v)", name, inst.Rd, inst.Rs1)
	case FORMAT_IO_OUT:
		out = fmt.Sprintf("%s (%v), %v", name, inst.Rd, inst.Rs1)
	case FORMAT_EXT_RRI, FORMAT_EXT_SHIFT:
		out = fmt.Sprintf("%s %v, %v, %d", name, inst.Rd, inst.Rs1, inst.Imm)
	case FORMAT_EXT_RI:
		out = fmt.Sprintf("%s %v, 0x%04X", name, inst.Rd, uint16(inst.Imm))
	case FORMAT_EXT_MEM:
		out = fmt.Sprintf("%s %v, 0x%04X(%v)", name, inst.Rd, uint16(inst.Imm), inst.Rs1)
	case FORMAT_EXT_JUMP:
		out = fmt.Sprintf("%s 0x%04X", name, uint16(inst.Imm))
	case FORMAT_EXT_JAL:
		out = fmt.Sprintf("%s %v, 0x%04X", name, inst.Rd, uint16(inst.Imm))
	case FORMAT_EXT_PORT_IN:
		out = fmt.Sprintf("%s %v, %d", name, inst.Rd, inst.Imm)
	case FORMAT_EXT_PORT_OUT:
		out = fmt.Sprintf("%s %d, %v", name, inst.Imm, inst.Rs1)
	default:
		out = name
	}

	return
}
