// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"github.com/ezrec/sampo/isa"
)

// execute applies one decoded instruction to the machine state. The
// program counter already points past the instruction; control transfers
// simply overwrite it.
func (m *Machine) execute(inst isa.Inst) (err error) {
	entry := inst.Entry

	switch entry.Opcode {
	case isa.OP_ADD:
		a := m.Reg(inst.Rs1)
		b := m.Reg(inst.Rs2)
		result := a + b
		m.SetReg(inst.Rd, result)
		m.addFlags(a, b, result)
	case isa.OP_SUB:
		a := m.Reg(inst.Rs1)
		b := m.Reg(inst.Rs2)
		result := a - b
		m.SetReg(inst.Rd, result)
		m.subFlags(a, b, result)
	case isa.OP_AND:
		result := m.Reg(inst.Rs1) & m.Reg(inst.Rs2)
		m.SetReg(inst.Rd, result)
		m.logicFlags(result)
	case isa.OP_OR:
		result := m.Reg(inst.Rs1) | m.Reg(inst.Rs2)
		m.SetReg(inst.Rd, result)
		m.logicFlags(result)
	case isa.OP_XOR:
		result := m.Reg(inst.Rs1) ^ m.Reg(inst.Rs2)
		m.SetReg(inst.Rd, result)
		m.logicFlags(result)
	case isa.OP_ADDI:
		a := m.Reg(inst.Rd)
		b := uint16(int16(inst.Imm))
		result := a + b
		m.SetReg(inst.Rd, result)
		m.addFlags(a, b, result)
	case isa.OP_LOAD:
		m.executeLoad(inst)
	case isa.OP_STORE:
		m.executeStore(inst)
	case isa.OP_BRANCH:
		if m.condition(isa.Cond(entry.Func)) {
			m.pc += uint16(int16(inst.Imm)) * 2
		}
	case isa.OP_JUMP:
		switch entry.Format {
		case isa.FORMAT_JR:
			m.pc = m.Reg(inst.Rs1)
		case isa.FORMAT_JALR:
			ret := m.pc
			m.pc = m.Reg(inst.Rs1)
			m.SetReg(inst.Rd, ret)
		default:
			m.pc += uint16(int16(inst.Imm)) * 2
		}
	case isa.OP_SHIFT:
		m.executeShift(inst)
	case isa.OP_MULDIV:
		err = m.executeMulDiv(inst)
	case isa.OP_MISC:
		m.executeMisc(inst)
	case isa.OP_IO:
		switch isa.IoFunc(entry.Func) {
		case isa.IO_IN:
			port := uint8(m.Reg(inst.Rs1))
			m.SetReg(inst.Rd, uint16(m.Ports.Read(port)))
		case isa.IO_OUT:
			port := uint8(m.Reg(inst.Rd))
			m.Ports.Write(port, uint8(m.Reg(inst.Rs1)))
		}
	case isa.OP_SYSTEM:
		m.executeSystem(inst)
	case isa.OP_EXTENDED:
		m.executeExtended(inst)
	}

	return
}

func (m *Machine) executeLoad(inst isa.Inst) {
	switch isa.LoadFunc(inst.Entry.Func) {
	case isa.LOAD_LB:
		addr := m.Reg(inst.Rs1)
		m.SetReg(inst.Rd, uint16(int16(int8(m.ReadByte(addr)))))
	case isa.LOAD_LBU:
		addr := m.Reg(inst.Rs1)
		m.SetReg(inst.Rd, uint16(m.ReadByte(addr)))
	case isa.LOAD_LUI:
		m.SetReg(inst.Rd, uint16(inst.Imm)<<8)
	default:
		addr := m.Reg(inst.Rs1) + uint16(int16(inst.Imm))
		m.SetReg(inst.Rd, m.ReadWord(addr))
	}
}

func (m *Machine) executeStore(inst isa.Inst) {
	addr := m.Reg(inst.Rs1) + uint16(int16(inst.Imm))
	if isa.StoreFunc(inst.Entry.Func) == isa.STORE_SB {
		m.WriteByte(addr, uint8(m.Reg(inst.Rs2)))
	} else {
		m.WriteWord(addr, m.Reg(inst.Rs2))
	}
}

func (m *Machine) executeShift(inst isa.Inst) {
	val := m.Reg(inst.Rs1)

	var result uint16
	var carry, withCarry bool
	switch isa.ShiftFunc(inst.Entry.Func) {
	case isa.SHIFT_SLL1:
		result = val << 1
	case isa.SHIFT_SRL1:
		result = val >> 1
	case isa.SHIFT_SRA1:
		result = uint16(int16(val) >> 1)
	case isa.SHIFT_ROL1:
		result = val<<1 | val>>15
	case isa.SHIFT_ROR1:
		result = val>>1 | val<<15
	case isa.SHIFT_RCL1:
		result = val << 1
		if m.flags&isa.FLAG_C != 0 {
			result |= 1
		}
		carry = val&0x8000 != 0
		withCarry = true
	case isa.SHIFT_RCR1:
		result = val >> 1
		if m.flags&isa.FLAG_C != 0 {
			result |= 0x8000
		}
		carry = val&1 != 0
		withCarry = true
	case isa.SHIFT_SWAP:
		result = val<<8 | val>>8
	case isa.SHIFT_SLL4:
		result = val << 4
	case isa.SHIFT_SRL4:
		result = val >> 4
	case isa.SHIFT_SRA4:
		result = uint16(int16(val) >> 4)
	case isa.SHIFT_ROL4:
		result = val<<4 | val>>12
	case isa.SHIFT_SLL8:
		result = val << 8
	case isa.SHIFT_SRL8:
		result = val >> 8
	case isa.SHIFT_SRA8:
		result = uint16(int16(val) >> 8)
	case isa.SHIFT_ROL8:
		result = val<<8 | val>>8
	}

	m.SetReg(inst.Rd, result)
	m.logicFlags(result)
	if withCarry && carry {
		m.flags |= isa.FLAG_C
	}
}

func (m *Machine) executeMulDiv(inst isa.Inst) (err error) {
	a := m.Reg(inst.Rd)
	b := m.Reg(inst.Rs1)

	switch isa.MulDivFunc(inst.Entry.Func) {
	case isa.MULDIV_MUL:
		m.SetReg(inst.Rd, uint16(uint32(a)*uint32(b)))
	case isa.MULDIV_MULH:
		m.SetReg(inst.Rd, uint16(uint32(int32(int16(a))*int32(int16(b)))>>16))
	case isa.MULDIV_MULHU:
		m.SetReg(inst.Rd, uint16(uint32(a)*uint32(b)>>16))
	case isa.MULDIV_DIV:
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		m.SetReg(inst.Rd, uint16(int16(a)/int16(b)))
	case isa.MULDIV_DIVU:
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		m.SetReg(inst.Rd, a/b)
	case isa.MULDIV_REM:
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		m.SetReg(inst.Rd, uint16(int16(a)%int16(b)))
	case isa.MULDIV_REMU:
		if b == 0 {
			err = ErrDivideByZero
			return
		}
		m.SetReg(inst.Rd, a%b)
	case isa.MULDIV_DAA:
		m.executeDaa(inst.Rd)
	}

	return
}

// executeDaa adjusts the low byte of rd after a packed-BCD addition, using
// the half-carry flag for the low nibble and carry for the high.
func (m *Machine) executeDaa(rd isa.Reg) {
	val := m.Reg(rd)
	carry := false

	if val&0x0F > 9 || m.flags&isa.FLAG_H != 0 {
		val += 6
		if val > 0xFF {
			carry = true
		}
	}
	if (val>>4)&0x0F > 9 || m.flags&isa.FLAG_C != 0 {
		val += 0x60
		carry = true
	}

	m.SetReg(rd, val&0xFF)
	m.logicFlags(val)
	if carry {
		m.flags |= isa.FLAG_C
	}
}

func (m *Machine) executeMisc(inst isa.Inst) {
	switch isa.MiscFunc(inst.Entry.Func) {
	case isa.MISC_PUSH:
		m.push(m.Reg(inst.Rs1))
	case isa.MISC_POP:
		m.SetReg(inst.Rd, m.pop())
	case isa.MISC_CMP:
		a := m.Reg(inst.Rd)
		b := m.Reg(inst.Rs1)
		m.subFlags(a, b, a-b)
	case isa.MISC_TEST:
		m.logicFlags(m.Reg(inst.Rd) & m.Reg(inst.Rs1))
	case isa.MISC_MOV:
		m.SetReg(inst.Rd, m.Reg(inst.Rs1))
	case isa.MISC_LDI:
		m.blockMove(1)
	case isa.MISC_LDD:
		m.blockMove(-1)
	case isa.MISC_LDIR:
		m.blockMoveRepeat(1)
	case isa.MISC_LDDR:
		m.blockMoveRepeat(-1)
	case isa.MISC_CPIR:
		m.blockSearch()
	case isa.MISC_FILL:
		m.blockFill()
	case isa.MISC_EXX:
		m.altSel = !m.altSel
	case isa.MISC_GETF:
		m.SetReg(inst.Rd, uint16(m.flags))
	case isa.MISC_SETF:
		m.flags = uint8(m.Reg(inst.Rs1))
	}
}

// blockMove copies a single byte from the source pointer to the
// destination pointer, advances both by step, and decrements the count.
// The zero flag tracks the count reaching zero.
func (m *Machine) blockMove(step int16) {
	src := m.Reg(isa.REG_SRC)
	dst := m.Reg(isa.REG_DST)
	count := m.Reg(isa.REG_COUNT) - 1

	m.WriteByte(dst, m.ReadByte(src))

	m.SetReg(isa.REG_SRC, src+uint16(step))
	m.SetReg(isa.REG_DST, dst+uint16(step))
	m.SetReg(isa.REG_COUNT, count)
	m.setZero(count == 0)
}

// blockMoveRepeat copies count bytes in one atomic step. A zero count on
// entry performs no memory access. The zero flag is always set on exit.
func (m *Machine) blockMoveRepeat(step int16) {
	src := m.Reg(isa.REG_SRC)
	dst := m.Reg(isa.REG_DST)
	count := m.Reg(isa.REG_COUNT)

	for ; count > 0; count-- {
		m.WriteByte(dst, m.ReadByte(src))
		src += uint16(step)
		dst += uint16(step)
	}

	m.SetReg(isa.REG_SRC, src)
	m.SetReg(isa.REG_DST, dst)
	m.SetReg(isa.REG_COUNT, 0)
	m.setZero(true)
}

// blockSearch scans forward for the needle byte in r4. On a match the
// zero flag is set, r5 points at the match and r6 holds the remaining
// count; otherwise the zero flag is clear, r5 points past the region and
// r6 is zero.
func (m *Machine) blockSearch() {
	needle := uint8(m.Reg(isa.REG_COUNT))
	addr := m.Reg(isa.REG_SRC)
	count := m.Reg(isa.REG_DST)

	for ; count > 0; count-- {
		if m.ReadByte(addr) == needle {
			m.SetReg(isa.REG_SRC, addr)
			m.SetReg(isa.REG_DST, count)
			m.setZero(true)
			return
		}
		addr++
	}

	m.SetReg(isa.REG_SRC, addr)
	m.SetReg(isa.REG_DST, 0)
	m.setZero(false)
}

// blockFill writes the low byte of r5 to count bytes starting at the
// destination pointer, atomically.
func (m *Machine) blockFill() {
	value := uint8(m.Reg(isa.REG_SRC))
	dst := m.Reg(isa.REG_DST)
	count := m.Reg(isa.REG_COUNT)

	for ; count > 0; count-- {
		m.WriteByte(dst, value)
		dst++
	}

	m.SetReg(isa.REG_DST, dst)
	m.SetReg(isa.REG_COUNT, 0)
}

func (m *Machine) executeSystem(inst isa.Inst) {
	switch isa.SysFunc(inst.Entry.Func) {
	case isa.SYS_NOP:
		// pass
	case isa.SYS_HALT:
		m.halted = true
	case isa.SYS_DI:
		m.flags &^= isa.FLAG_I
	case isa.SYS_EI:
		m.flags |= isa.FLAG_I
	case isa.SYS_RETI:
		m.pc = m.pop()
		m.flags |= isa.FLAG_I
	case isa.SYS_SWI:
		// Software interrupt: same entry sequence as a hardware
		// interrupt, but through the imm8 vector slot.
		m.push(m.pc)
		m.flags &^= isa.FLAG_I
		m.pc = uint16(inst.Imm) * 2
	case isa.SYS_SCF:
		m.flags |= isa.FLAG_C
	case isa.SYS_CCF:
		m.flags ^= isa.FLAG_C
	}
}

func (m *Machine) executeExtended(inst isa.Inst) {
	imm16 := uint16(inst.Imm)

	switch isa.ExtFunc(inst.Entry.Func) {
	case isa.EXT_ADDIX:
		a := m.Reg(inst.Rs1)
		result := a + imm16
		m.SetReg(inst.Rd, result)
		m.addFlags(a, imm16, result)
	case isa.EXT_SUBIX:
		a := m.Reg(inst.Rs1)
		result := a - imm16
		m.SetReg(inst.Rd, result)
		m.subFlags(a, imm16, result)
	case isa.EXT_ANDIX:
		result := m.Reg(inst.Rs1) & imm16
		m.SetReg(inst.Rd, result)
		m.logicFlags(result)
	case isa.EXT_ORIX:
		result := m.Reg(inst.Rs1) | imm16
		m.SetReg(inst.Rd, result)
		m.logicFlags(result)
	case isa.EXT_XORIX:
		result := m.Reg(inst.Rs1) ^ imm16
		m.SetReg(inst.Rd, result)
		m.logicFlags(result)
	case isa.EXT_LWX:
		m.SetReg(inst.Rd, m.ReadWord(m.Reg(inst.Rs1)+imm16))
	case isa.EXT_SWX:
		m.WriteWord(m.Reg(inst.Rs1)+imm16, m.Reg(inst.Rd))
	case isa.EXT_LIX:
		m.SetReg(inst.Rd, imm16)
	case isa.EXT_JX:
		m.pc = imm16
	case isa.EXT_JALX:
		m.SetReg(inst.Rd, m.pc)
		m.pc = imm16
	case isa.EXT_CMPIX:
		a := m.Reg(inst.Rd)
		m.subFlags(a, imm16, a-imm16)
	case isa.EXT_INX:
		m.SetReg(inst.Rd, uint16(m.Ports.Read(uint8(imm16))))
	case isa.EXT_OUTX:
		m.Ports.Write(uint8(imm16), uint8(m.Reg(inst.Rs1)))
	case isa.EXT_SLLX:
		result := m.Reg(inst.Rs1) << (imm16 & 0xF)
		m.SetReg(inst.Rd, result)
		m.logicFlags(result)
	case isa.EXT_SRLX:
		result := m.Reg(inst.Rs1) >> (imm16 & 0xF)
		m.SetReg(inst.Rd, result)
		m.logicFlags(result)
	case isa.EXT_SRAX:
		result := uint16(int16(m.Reg(inst.Rs1)) >> (imm16 & 0xF))
		m.SetReg(inst.Rd, result)
		m.logicFlags(result)
	}
}
