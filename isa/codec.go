// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

import (
	"encoding/binary"
	"fmt"
)

// Width returns the byte width of the instruction beginning with word.
func Width(word uint16) uint16 {
	if Opcode(word>>12) == OP_EXTENDED {
		return 4
	}
	return 2
}

// checkImm validates a signed immediate against its field range.
func checkImm(name string, value, min, max int32) (err error) {
	if value < min || value > max {
		err = ErrImmRange{Name: name, Value: value, Min: min, Max: max}
	}
	return
}

// Encode packs a decoded instruction back into one or two words. It is the
// exact inverse of Decode for every table entry.
func Encode(inst Inst) (words []uint16, err error) {
	e := inst.Entry
	base := uint16(e.Opcode) << 12
	rd := uint16(inst.Rd) & 0xF
	rs1 := uint16(inst.Rs1) & 0xF
	rs2 := uint16(inst.Rs2) & 0xF
	fn := uint16(e.Func)
	imm := inst.Imm

	switch e.Format {
	case FORMAT_3R:
		words = []uint16{base | rd<<8 | rs1<<4 | rs2}
	case FORMAT_RI8:
		err = checkImm(e.Name, imm, -128, 127)
		if err != nil {
			return
		}
		words = []uint16{base | rd<<8 | uint16(uint8(imm))}
	case FORMAT_MEM_LOAD:
		lfn, ok := LoadOffset(imm)
		if !ok {
			err = ErrOffset(imm)
			return
		}
		words = []uint16{base | rd<<8 | rs1<<4 | uint16(lfn)}
	case FORMAT_MEM_STORE:
		sfn, ok := StoreOffset(imm)
		if !ok {
			err = ErrOffset(imm)
			return
		}
		words = []uint16{base | rs2<<8 | rs1<<4 | uint16(sfn)}
	case FORMAT_MEMB_LOAD:
		words = []uint16{base | rd<<8 | rs1<<4 | fn}
	case FORMAT_MEMB_STORE:
		words = []uint16{base | rs2<<8 | rs1<<4 | fn}
	case FORMAT_LUI:
		err = checkImm(e.Name, imm, 0, 15)
		if err != nil {
			return
		}
		words = []uint16{base | rd<<8 | uint16(imm)<<4 | fn}
	case FORMAT_BRANCH:
		err = checkImm(e.Name, imm, -128, 127)
		if err != nil {
			return
		}
		words = []uint16{base | fn<<8 | uint16(uint8(imm))}
	case FORMAT_JUMP:
		err = checkImm(e.Name, imm, -2048, 2047)
		if err != nil {
			return
		}
		word := base | uint16(imm)&0x0FFF
		// Offsets whose bits look like a register jump decode as one;
		// they have no compact encoding.
		if jr, _ := find(word); jr.Format != FORMAT_JUMP {
			err = ErrJumpShape(imm)
			return
		}
		words = []uint16{word}
	case FORMAT_JR:
		words = []uint16{base | 0xF00 | rs1<<4}
	case FORMAT_JALR:
		if inst.Rd == REG_ZERO {
			// rd=0 is the J encoding; the link would be discarded anyway.
			err = ErrImmRange{Name: e.Name, Value: 0, Min: 1, Max: 15}
			return
		}
		words = []uint16{base | rd<<8 | rs1<<4 | fn}
	case FORMAT_2R:
		words = []uint16{base | rd<<8 | rs1<<4 | fn}
	case FORMAT_RD:
		words = []uint16{base | rd<<8 | fn}
	case FORMAT_RS:
		words = []uint16{base | rs1<<4 | fn}
	case FORMAT_NONE:
		words = []uint16{base | fn}
	case FORMAT_SYS:
		words = []uint16{base | fn<<8}
	case FORMAT_SYS_IMM:
		err = checkImm(e.Name, imm, 0, 255)
		if err != nil {
			return
		}
		words = []uint16{base | fn<<8 | uint16(imm)}
	case FORMAT_IO_IN, FORMAT_IO_OUT:
		words = []uint16{base | rd<<8 | rs1<<4 | fn}
	case FORMAT_EXT_RRI, FORMAT_EXT_MEM:
		err = checkImm(e.Name, imm, -32768, 65535)
		if err != nil {
			return
		}
		words = []uint16{base | rd<<8 | rs1<<4 | fn, uint16(imm)}
	case FORMAT_EXT_RI:
		err = checkImm(e.Name, imm, -32768, 65535)
		if err != nil {
			return
		}
		words = []uint16{base | rd<<8 | fn, uint16(imm)}
	case FORMAT_EXT_JUMP:
		err = checkImm(e.Name, imm, 0, 65535)
		if err != nil {
			return
		}
		words = []uint16{base | fn, uint16(imm)}
	case FORMAT_EXT_JAL:
		err = checkImm(e.Name, imm, 0, 65535)
		if err != nil {
			return
		}
		words = []uint16{base | rd<<8 | fn, uint16(imm)}
	case FORMAT_EXT_PORT_IN:
		err = checkImm(e.Name, imm, 0, 255)
		if err != nil {
			return
		}
		words = []uint16{base | rd<<8 | fn, uint16(imm)}
	case FORMAT_EXT_PORT_OUT:
		err = checkImm(e.Name, imm, 0, 255)
		if err != nil {
			return
		}
		words = []uint16{base | rs1<<4 | fn, uint16(imm)}
	case FORMAT_EXT_SHIFT:
		err = checkImm(e.Name, imm, 0, 15)
		if err != nil {
			return
		}
		words = []uint16{base | rd<<8 | rs1<<4 | fn, uint16(imm)}
	default:
		err = ErrOpcode(base)
	}

	return
}

// signExtend8 sign-extends the low byte of a word.
func signExtend8(word uint16) int32 {
	return int32(int8(word))
}

// signExtend12 sign-extends the low 12 bits of a word.
func signExtend12(word uint16) int32 {
	value := int32(word & 0x0FFF)
	if value&0x800 != 0 {
		value -= 0x1000
	}
	return value
}

// Decode resolves one instruction word, plus its trailing immediate word
// for extended forms, into an Inst. imm16 is only consulted when the first
// word carries the extended prefix.
func Decode(word uint16, imm16 uint16) (inst Inst, err error) {
	entry, ok := find(word)
	if !ok {
		err = ErrOpcode(word)
		return
	}

	inst.Entry = entry
	rd := Reg((word >> 8) & 0xF)
	rs1 := Reg((word >> 4) & 0xF)
	rs2 := Reg(word & 0xF)

	switch entry.Format {
	case FORMAT_3R:
		inst.Rd, inst.Rs1, inst.Rs2 = rd, rs1, rs2
	case FORMAT_RI8:
		inst.Rd, inst.Imm = rd, signExtend8(word)
	case FORMAT_MEM_LOAD:
		inst.Rd, inst.Rs1 = rd, rs1
		inst.Imm = loadFuncOffset[LoadFunc(word&0xF)]
	case FORMAT_MEM_STORE:
		inst.Rs2, inst.Rs1 = rd, rs1
		inst.Imm = storeFuncOffset[StoreFunc(word&0xF)]
	case FORMAT_MEMB_LOAD:
		inst.Rd, inst.Rs1 = rd, rs1
	case FORMAT_MEMB_STORE:
		inst.Rs2, inst.Rs1 = rd, rs1
	case FORMAT_LUI:
		inst.Rd, inst.Imm = rd, int32(rs1)
	case FORMAT_BRANCH:
		inst.Imm = signExtend8(word)
	case FORMAT_JUMP:
		inst.Imm = signExtend12(word)
	case FORMAT_JR:
		inst.Rs1 = rs1
	case FORMAT_JALR, FORMAT_2R:
		inst.Rd, inst.Rs1 = rd, rs1
	case FORMAT_RD:
		inst.Rd = rd
	case FORMAT_RS:
		inst.Rs1 = rs1
	case FORMAT_NONE, FORMAT_SYS:
		// no operands
	case FORMAT_SYS_IMM:
		inst.Imm = int32(word & 0xFF)
	case FORMAT_IO_IN, FORMAT_IO_OUT:
		inst.Rd, inst.Rs1 = rd, rs1
	case FORMAT_EXT_RRI, FORMAT_EXT_MEM, FORMAT_EXT_SHIFT:
		inst.Rd, inst.Rs1, inst.Imm = rd, rs1, int32(imm16)
		if entry.Format == FORMAT_EXT_SHIFT {
			inst.Imm = int32(imm16 & 0xF)
		}
	case FORMAT_EXT_RI, FORMAT_EXT_JAL, FORMAT_EXT_PORT_IN:
		inst.Rd, inst.Imm = rd, int32(imm16)
	case FORMAT_EXT_JUMP:
		inst.Imm = int32(imm16)
	case FORMAT_EXT_PORT_OUT:
		inst.Rs1, inst.Imm = rs1, int32(imm16)
	}

	return
}

// Disassemble decodes the instruction at addr in mem and renders it as
// text, for traces and standalone listing. It never mutates anything.
func Disassemble(mem []byte, addr uint16) (text string, width uint16, err error) {
	if int(addr)+1 >= len(mem) {
		err = ErrTruncated
		return
	}
	word := binary.LittleEndian.Uint16(mem[addr:])

	width = Width(word)
	var imm16 uint16
	if width == 4 {
		if int(addr)+3 >= len(mem) {
			err = ErrTruncated
			return
		}
		imm16 = binary.LittleEndian.Uint16(mem[addr+2:])
	}

	inst, err := Decode(word, imm16)
	if err != nil {
		return
	}

	switch inst.Entry.Format {
	case FORMAT_BRANCH, FORMAT_JUMP:
		// Resolve the word offset to a target address.
		target := uint16(int32(addr) + int32(width) + inst.Imm*2)
		text = fmt.Sprintf("%s 0x%04X", inst.Entry.Name, target)
	default:
		text = inst.String()
	}

	return
}
