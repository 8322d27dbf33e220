// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"encoding/binary"
	"strings"

	"github.com/ezrec/sampo/isa"
)

type operandKind int

const (
	opReg = operandKind(iota) // register
	opNum                     // numeric literal
	opSym                     // symbol reference
	opMem                     // offset(base) memory reference
)

// operand is one parsed instruction operand. The shape (kind, and whether
// a memory offset is compact) is fixed in the sizing pass; symbol values
// are only consulted during encoding.
type operand struct {
	text string
	kind operandKind

	reg    isa.Reg // opReg
	num    int64   // opNum
	sym    string  // opSym
	base   isa.Reg // opMem
	offNum int64   // opMem, literal offset
	offSym string  // opMem, symbolic offset ("" when literal)
}

// parseOperand classifies one operand token.
func (asm *Assembler) parseOperand(text string) (op operand, err error) {
	op.text = text

	if len(text) == 0 {
		err = ErrOperandMissing
		return
	}

	if text[len(text)-1] == ')' {
		idx := -1
		for n := range text {
			if text[n] == '(' {
				idx = n
				break
			}
		}
		if idx < 0 {
			err = ErrOperandShape(text)
			return
		}

		op.kind = opMem
		base := asm.substitute(text[idx+1 : len(text)-1])
		var ok bool
		op.base, ok = isa.RegByName(base)
		if !ok {
			err = ErrOperandShape(text)
			return
		}

		off := asm.substitute(text[:idx])
		if len(off) == 0 {
			return
		}
		op.offNum, err = asm.valueOf(off)
		if err != nil {
			err = nil
			op.offSym = off
		}
		return
	}

	if reg, ok := isa.RegByName(text); ok {
		op.kind = opReg
		op.reg = reg
		return
	}

	if value, verr := asm.valueOf(text); verr == nil {
		op.kind = opNum
		op.num = value
		return
	}

	op.kind = opSym
	op.sym = text

	return
}

// substitute applies equates to a sub-token of an operand.
func (asm *Assembler) substitute(word string) string {
	if equ, ok := asm.Equate[word]; ok {
		return equ
	}
	return word
}

// expandOperand applies equates inside a parenthesized memory operand.
// Scoped equates (macro arguments) are gone by the time a recorded
// statement is encoded, so the expansion has to happen when it is sized.
func (asm *Assembler) expandOperand(text string) string {
	idx := strings.IndexByte(text, '(')
	if idx < 0 || !strings.HasSuffix(text, ")") {
		return text
	}

	off := asm.substitute(text[:idx])
	base := asm.substitute(text[idx+1 : len(text)-1])

	return off + "(" + base + ")"
}

// parseOperands classifies every operand of a statement.
func (asm *Assembler) parseOperands(args []string) (ops []operand, err error) {
	for _, arg := range args {
		var op operand
		op, err = asm.parseOperand(arg)
		if err != nil {
			return
		}
		ops = append(ops, op)
	}

	return
}

// compactOffset reports whether a word load/store byte offset has a
// 16-bit encoding.
func compactOffset(load bool, off int64) (ok bool) {
	if load {
		_, ok = isa.LoadOffset(int32(off))
	} else {
		_, ok = isa.StoreOffset(int32(off))
	}

	return
}

// widthOf determines the byte width of an instruction from its mnemonic
// and operand shapes alone. Symbolic branch and jump targets always take
// the compact form; a symbolic memory offset or out-of-range literal
// promotes to the extended form.
func (asm *Assembler) widthOf(name string, args []string) (width uint16, err error) {
	ops, err := asm.parseOperands(args)
	if err != nil {
		return
	}

	switch name {
	case "neg":
		width = 2
		return
	case "not", "jal", "ini", "outi":
		width = 4
		return
	}

	entry, ok := isa.Lookup(name)
	if !ok {
		err = ErrMnemonicUnknown(name)
		return
	}

	width = entry.Width()

	switch entry.Format {
	case isa.FORMAT_RI8:
		// Literals beyond simm8 promote to the extended immediate form.
		if len(ops) == 2 && ops[1].kind == opNum &&
			(ops[1].num < -128 || ops[1].num > 127) {
			width = 4
		}
	case isa.FORMAT_MEM_LOAD, isa.FORMAT_MEM_STORE:
		idx := 1
		if entry.Format == isa.FORMAT_MEM_STORE {
			idx = 0
		}
		if len(ops) > idx && ops[idx].kind == opMem {
			mem := ops[idx]
			if mem.offSym != "" ||
				!compactOffset(entry.Format == isa.FORMAT_MEM_LOAD, mem.offNum) {
				width = 4
			}
		}
	}

	return
}

// resolve returns the value of a numeric or symbolic operand.
func (asm *Assembler) resolve(op operand) (value int64, err error) {
	switch op.kind {
	case opNum:
		value = op.num
	case opSym:
		addr, ok := asm.Symbol[op.sym]
		if !ok {
			err = ErrSymbolMissing(op.sym)
			return
		}
		value = int64(addr)
	default:
		err = ErrOperandShape(op.text)
	}

	return
}

// resolveOffset returns the value of a memory operand's offset.
func (asm *Assembler) resolveOffset(op operand) (value int64, err error) {
	if op.offSym == "" {
		value = op.offNum
		return
	}

	addr, ok := asm.Symbol[op.offSym]
	if !ok {
		err = ErrSymbolMissing(op.offSym)
		return
	}
	value = int64(addr)

	return
}

// wantOps checks the operand count of a statement.
func wantOps(name string, ops []operand, count int) (err error) {
	if len(ops) < count {
		err = ErrOperandMissing
	} else if len(ops) > count {
		err = ErrOperandExtra
	}

	return
}

// wantReg checks that an operand is a plain register.
func wantReg(op operand) (reg isa.Reg, err error) {
	if op.kind != opReg {
		err = ErrOperandShape(op.text)
		return
	}
	reg = op.reg

	return
}

// wantMem checks that an operand is a memory reference.
func wantMem(op operand) (mem operand, err error) {
	if op.kind != opMem {
		err = ErrOperandShape(op.text)
		return
	}
	mem = op

	return
}

// relative converts an absolute target address into a word offset from
// the end of the instruction.
func relative(name string, addr, width, target uint16, limit int32) (words int32, err error) {
	delta := int32(target) - int32(addr) - int32(width)
	if delta&1 != 0 {
		err = ErrOddTarget
		return
	}

	words = delta / 2
	if words < -limit-1 || words > limit {
		err = ErrRange{Name: name, Target: target, Limit: limit}
	}

	return
}

// mustLookup fetches a table entry known to exist.
func mustLookup(name string) *isa.Entry {
	entry, ok := isa.Lookup(name)
	if !ok {
		panic("missing table entry " + name)
	}

	return entry
}

// encodeStatement resolves symbols and produces the statement's bytes.
func (asm *Assembler) encodeStatement(stmt *Statement) (err error) {
	if len(stmt.Bytes) != 0 {
		// Literal data resolved in the sizing pass.
		return
	}

	switch stmt.Name {
	case ".db", ".dw":
		err = asm.encodeData(stmt)
		return
	}

	inst, err := asm.buildInst(stmt)
	if err != nil {
		return
	}

	words, err := isa.Encode(inst)
	if err != nil {
		return
	}

	for _, word := range words {
		stmt.Bytes = binary.LittleEndian.AppendUint16(stmt.Bytes, word)
	}

	if uint16(len(stmt.Bytes)) != stmt.width {
		err = ErrWidthUnstable
	}

	return
}

// encodeData emits .db and .dw literal values, with symbols allowed.
func (asm *Assembler) encodeData(stmt *Statement) (err error) {
	ops, err := asm.parseOperands(stmt.Args)
	if err != nil {
		return
	}

	for _, op := range ops {
		var value int64
		value, err = asm.resolve(op)
		if err != nil {
			return
		}

		if stmt.Name == ".db" {
			stmt.Bytes = append(stmt.Bytes, uint8(value))
		} else {
			stmt.Bytes = binary.LittleEndian.AppendUint16(stmt.Bytes, uint16(value))
		}
	}

	return
}

// buildInst assembles a statement into a decoded instruction, choosing
// the extended form where the sizing pass reserved one.
func (asm *Assembler) buildInst(stmt *Statement) (inst isa.Inst, err error) {
	ops, err := asm.parseOperands(stmt.Args)
	if err != nil {
		return
	}

	name := stmt.Name

	// Pseudo-instructions lower onto table entries.
	switch name {
	case "neg":
		// neg rd, rs => sub rd, r0, rs
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		inst.Entry = mustLookup("sub")
		inst.Rd, err = wantReg(ops[0])
		if err != nil {
			return
		}
		inst.Rs1 = isa.REG_ZERO
		inst.Rs2, err = wantReg(ops[1])
		return
	case "not":
		// not rd, rs => xorix rd, rs, 0xFFFF
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		inst.Entry = mustLookup("xorix")
		inst.Rd, err = wantReg(ops[0])
		if err != nil {
			return
		}
		inst.Rs1, err = wantReg(ops[1])
		inst.Imm = 0xFFFF
		return
	case "jal":
		// jal target => jalx ra, target
		err = wantOps(name, ops, 1)
		if err != nil {
			return
		}
		inst.Entry = mustLookup("jalx")
		inst.Rd = isa.REG_RA
		var target int64
		target, err = asm.resolve(ops[0])
		inst.Imm = int32(target)
		return
	case "ini":
		// ini rd, port => inx rd, port
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		inst.Entry = mustLookup("inx")
		inst.Rd, err = wantReg(ops[0])
		if err != nil {
			return
		}
		var port int64
		port, err = asm.resolve(ops[1])
		inst.Imm = int32(port)
		return
	case "outi":
		// outi port, rs => outx port, rs
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		inst.Entry = mustLookup("outx")
		var port int64
		port, err = asm.resolve(ops[0])
		if err != nil {
			return
		}
		inst.Imm = int32(port)
		inst.Rs1, err = wantReg(ops[1])
		return
	}

	entry, ok := isa.Lookup(name)
	if !ok {
		err = ErrMnemonicUnknown(name)
		return
	}
	inst.Entry = entry

	switch entry.Format {
	case isa.FORMAT_3R:
		err = wantOps(name, ops, 3)
		if err != nil {
			return
		}
		inst.Rd, err = wantReg(ops[0])
		if err != nil {
			return
		}
		inst.Rs1, err = wantReg(ops[1])
		if err != nil {
			return
		}
		inst.Rs2, err = wantReg(ops[2])
	case isa.FORMAT_RI8:
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		inst.Rd, err = wantReg(ops[0])
		if err != nil {
			return
		}
		var value int64
		value, err = asm.resolve(ops[1])
		if err != nil {
			return
		}
		inst.Imm = int32(value)
		if stmt.width == 4 {
			// Promoted to the extended immediate form.
			inst.Entry = mustLookup("addix")
			inst.Rs1 = inst.Rd
		}
	case isa.FORMAT_MEM_LOAD:
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		inst.Rd, err = wantReg(ops[0])
		if err != nil {
			return
		}
		var mem operand
		mem, err = wantMem(ops[1])
		if err != nil {
			return
		}
		inst.Rs1 = mem.base
		var off int64
		off, err = asm.resolveOffset(mem)
		if err != nil {
			return
		}
		inst.Imm = int32(off)
		if stmt.width == 4 {
			inst.Entry = mustLookup("lwx")
		}
	case isa.FORMAT_MEM_STORE:
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		var mem operand
		mem, err = wantMem(ops[0])
		if err != nil {
			return
		}
		inst.Rs1 = mem.base
		var off int64
		off, err = asm.resolveOffset(mem)
		if err != nil {
			return
		}
		inst.Imm = int32(off)
		inst.Rs2, err = wantReg(ops[1])
		if err != nil {
			return
		}
		if stmt.width == 4 {
			// swx carries the value register in the rd field.
			inst.Entry = mustLookup("swx")
			inst.Rd = inst.Rs2
			inst.Rs2 = 0
		}
	case isa.FORMAT_MEMB_LOAD, isa.FORMAT_IO_IN:
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		inst.Rd, err = wantReg(ops[0])
		if err != nil {
			return
		}
		var mem operand
		mem, err = wantMem(ops[1])
		if err != nil {
			return
		}
		if mem.offSym != "" || mem.offNum != 0 {
			err = ErrOperandShape(mem.text)
			return
		}
		inst.Rs1 = mem.base
	case isa.FORMAT_MEMB_STORE:
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		var mem operand
		mem, err = wantMem(ops[0])
		if err != nil {
			return
		}
		if mem.offSym != "" || mem.offNum != 0 {
			err = ErrOperandShape(mem.text)
			return
		}
		inst.Rs1 = mem.base
		inst.Rs2, err = wantReg(ops[1])
	case isa.FORMAT_IO_OUT:
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		var mem operand
		mem, err = wantMem(ops[0])
		if err != nil {
			return
		}
		if mem.offSym != "" || mem.offNum != 0 {
			err = ErrOperandShape(mem.text)
			return
		}
		inst.Rd = mem.base
		inst.Rs1, err = wantReg(ops[1])
	case isa.FORMAT_LUI:
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		inst.Rd, err = wantReg(ops[0])
		if err != nil {
			return
		}
		var value int64
		value, err = asm.resolve(ops[1])
		inst.Imm = int32(value)
	case isa.FORMAT_BRANCH, isa.FORMAT_JUMP:
		err = wantOps(name, ops, 1)
		if err != nil {
			return
		}
		var target int64
		target, err = asm.resolve(ops[0])
		if err != nil {
			return
		}
		limit := int32(127)
		if entry.Format == isa.FORMAT_JUMP {
			limit = 2047
		}
		inst.Imm, err = relative(name, stmt.Addr, stmt.width, uint16(target), limit)
	case isa.FORMAT_JR, isa.FORMAT_RS:
		err = wantOps(name, ops, 1)
		if err != nil {
			return
		}
		inst.Rs1, err = wantReg(ops[0])
	case isa.FORMAT_JALR, isa.FORMAT_2R:
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		inst.Rd, err = wantReg(ops[0])
		if err != nil {
			return
		}
		inst.Rs1, err = wantReg(ops[1])
	case isa.FORMAT_RD:
		err = wantOps(name, ops, 1)
		if err != nil {
			return
		}
		inst.Rd, err = wantReg(ops[0])
	case isa.FORMAT_NONE, isa.FORMAT_SYS:
		err = wantOps(name, ops, 0)
	case isa.FORMAT_SYS_IMM:
		err = wantOps(name, ops, 1)
		if err != nil {
			return
		}
		var value int64
		value, err = asm.resolve(ops[0])
		inst.Imm = int32(value)
	case isa.FORMAT_EXT_RRI, isa.FORMAT_EXT_SHIFT:
		err = wantOps(name, ops, 3)
		if err != nil {
			return
		}
		inst.Rd, err = wantReg(ops[0])
		if err != nil {
			return
		}
		inst.Rs1, err = wantReg(ops[1])
		if err != nil {
			return
		}
		var value int64
		value, err = asm.resolve(ops[2])
		inst.Imm = int32(value)
	case isa.FORMAT_EXT_RI, isa.FORMAT_EXT_JAL, isa.FORMAT_EXT_PORT_IN:
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		inst.Rd, err = wantReg(ops[0])
		if err != nil {
			return
		}
		var value int64
		value, err = asm.resolve(ops[1])
		inst.Imm = int32(value)
	case isa.FORMAT_EXT_MEM:
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		inst.Rd, err = wantReg(ops[0])
		if err != nil {
			return
		}
		var mem operand
		mem, err = wantMem(ops[1])
		if err != nil {
			return
		}
		inst.Rs1 = mem.base
		var off int64
		off, err = asm.resolveOffset(mem)
		inst.Imm = int32(off)
	case isa.FORMAT_EXT_JUMP:
		err = wantOps(name, ops, 1)
		if err != nil {
			return
		}
		var target int64
		target, err = asm.resolve(ops[0])
		inst.Imm = int32(target)
	case isa.FORMAT_EXT_PORT_OUT:
		err = wantOps(name, ops, 2)
		if err != nil {
			return
		}
		var port int64
		port, err = asm.resolve(ops[0])
		if err != nil {
			return
		}
		inst.Imm = int32(port)
		inst.Rs1, err = wantReg(ops[1])
	}

	return
}
