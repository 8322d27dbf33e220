// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

// Opcode is the 4-bit primary opcode in bits 15:12.
type Opcode uint8

//go:generate go tool stringer -linecomment -type=Opcode
const (
	OP_ADD      = Opcode(0x0) // add
	OP_SUB      = Opcode(0x1) // sub
	OP_AND      = Opcode(0x2) // and
	OP_OR       = Opcode(0x3) // or
	OP_XOR      = Opcode(0x4) // xor
	OP_ADDI     = Opcode(0x5) // addi
	OP_LOAD     = Opcode(0x6) // load
	OP_STORE    = Opcode(0x7) // store
	OP_BRANCH   = Opcode(0x8) // branch
	OP_JUMP     = Opcode(0x9) // jump
	OP_SHIFT    = Opcode(0xA) // shift
	OP_MULDIV   = Opcode(0xB) // muldiv
	OP_MISC     = Opcode(0xC) // misc
	OP_IO       = Opcode(0xD) // io
	OP_SYSTEM   = Opcode(0xE) // system
	OP_EXTENDED = Opcode(0xF) // extended
)

// LoadFunc is the function nibble of the LOAD group.
type LoadFunc uint8

//go:generate go tool stringer -linecomment -type=LoadFunc
const (
	LOAD_LW0  = LoadFunc(0x0) // lw
	LOAD_LB   = LoadFunc(0x1) // lb
	LOAD_LBU  = LoadFunc(0x2) // lbu
	LOAD_LW2  = LoadFunc(0x3) // lw+2
	LOAD_LW4  = LoadFunc(0x4) // lw+4
	LOAD_LW6  = LoadFunc(0x5) // lw+6
	LOAD_LWM2 = LoadFunc(0x6) // lw-2
	LOAD_LWM4 = LoadFunc(0x7) // lw-4
	LOAD_LUI  = LoadFunc(0x8) // lui
)

// StoreFunc is the function nibble of the STORE group.
type StoreFunc uint8

//go:generate go tool stringer -linecomment -type=StoreFunc
const (
	STORE_SW0  = StoreFunc(0x0) // sw
	STORE_SB   = StoreFunc(0x1) // sb
	STORE_SW2  = StoreFunc(0x2) // sw+2
	STORE_SW4  = StoreFunc(0x3) // sw+4
	STORE_SW6  = StoreFunc(0x4) // sw+6
	STORE_SWM2 = StoreFunc(0x5) // sw-2
	STORE_SWM4 = StoreFunc(0x6) // sw-4
)

// Cond is a branch condition, encoded in bits 11:8 of a BRANCH word.
type Cond uint8

//go:generate go tool stringer -linecomment -type=Cond
const (
	COND_EQ = Cond(0x0) // beq
	COND_NE = Cond(0x1) // bne
	COND_LT = Cond(0x2) // blt
	COND_GE = Cond(0x3) // bge
	COND_LU = Cond(0x4) // bltu
	COND_GU = Cond(0x5) // bgeu
	COND_MI = Cond(0x6) // bmi
	COND_PL = Cond(0x7) // bpl
	COND_VS = Cond(0x8) // bvs
	COND_VC = Cond(0x9) // bvc
	COND_CS = Cond(0xA) // bcs
	COND_CC = Cond(0xB) // bcc
	COND_GT = Cond(0xC) // bgt
	COND_LE = Cond(0xD) // ble
	COND_HI = Cond(0xE) // bhi
	COND_LS = Cond(0xF) // bls
)

// ShiftFunc is the function nibble of the SHIFT group.
type ShiftFunc uint8

//go:generate go tool stringer -linecomment -type=ShiftFunc
const (
	SHIFT_SLL1 = ShiftFunc(0x0) // sll
	SHIFT_SRL1 = ShiftFunc(0x1) // srl
	SHIFT_SRA1 = ShiftFunc(0x2) // sra
	SHIFT_ROL1 = ShiftFunc(0x3) // rol
	SHIFT_ROR1 = ShiftFunc(0x4) // ror
	SHIFT_RCL1 = ShiftFunc(0x5) // rcl
	SHIFT_RCR1 = ShiftFunc(0x6) // rcr
	SHIFT_SWAP = ShiftFunc(0x7) // swap
	SHIFT_SLL4 = ShiftFunc(0x8) // sll4
	SHIFT_SRL4 = ShiftFunc(0x9) // srl4
	SHIFT_SRA4 = ShiftFunc(0xA) // sra4
	SHIFT_ROL4 = ShiftFunc(0xB) // rol4
	SHIFT_SLL8 = ShiftFunc(0xC) // sll8
	SHIFT_SRL8 = ShiftFunc(0xD) // srl8
	SHIFT_SRA8 = ShiftFunc(0xE) // sra8
	SHIFT_ROL8 = ShiftFunc(0xF) // rol8
)

// MulDivFunc is the function nibble of the MULDIV group.
type MulDivFunc uint8

//go:generate go tool stringer -linecomment -type=MulDivFunc
const (
	MULDIV_MUL   = MulDivFunc(0x0) // mul
	MULDIV_MULH  = MulDivFunc(0x1) // mulh
	MULDIV_MULHU = MulDivFunc(0x2) // mulhu
	MULDIV_DIV   = MulDivFunc(0x3) // div
	MULDIV_DIVU  = MulDivFunc(0x4) // divu
	MULDIV_REM   = MulDivFunc(0x5) // rem
	MULDIV_REMU  = MulDivFunc(0x6) // remu
	MULDIV_DAA   = MulDivFunc(0x7) // daa
)

// MiscFunc is the function nibble of the MISC group.
type MiscFunc uint8

//go:generate go tool stringer -linecomment -type=MiscFunc
const (
	MISC_PUSH = MiscFunc(0x0) // push
	MISC_POP  = MiscFunc(0x1) // pop
	MISC_CMP  = MiscFunc(0x2) // cmp
	MISC_TEST = MiscFunc(0x3) // test
	MISC_MOV  = MiscFunc(0x4) // mov
	MISC_LDI  = MiscFunc(0x5) // ldi
	MISC_LDD  = MiscFunc(0x6) // ldd
	MISC_LDIR = MiscFunc(0x7) // ldir
	MISC_LDDR = MiscFunc(0x8) // lddr
	MISC_CPIR = MiscFunc(0x9) // cpir
	MISC_FILL = MiscFunc(0xA) // fill
	MISC_EXX  = MiscFunc(0xB) // exx
	MISC_GETF = MiscFunc(0xC) // getf
	MISC_SETF = MiscFunc(0xD) // setf
)

// IoFunc is the function nibble of the IO group.
type IoFunc uint8

//go:generate go tool stringer -linecomment -type=IoFunc
const (
	IO_IN  = IoFunc(0x2) // in
	IO_OUT = IoFunc(0x3) // out
)

// SysFunc is the function code of the SYSTEM group, in bits 11:8.
type SysFunc uint8

//go:generate go tool stringer -linecomment -type=SysFunc
const (
	SYS_NOP  = SysFunc(0x0) // nop
	SYS_HALT = SysFunc(0x1) // halt
	SYS_DI   = SysFunc(0x2) // di
	SYS_EI   = SysFunc(0x3) // ei
	SYS_RETI = SysFunc(0x4) // reti
	SYS_SWI  = SysFunc(0x5) // swi
	SYS_SCF  = SysFunc(0x6) // scf
	SYS_CCF  = SysFunc(0x7) // ccf
)

// ExtFunc is the extended sub-opcode, in the low nibble of the 0xF prefix
// word.
type ExtFunc uint8

//go:generate go tool stringer -linecomment -type=ExtFunc
const (
	EXT_ADDIX = ExtFunc(0x0) // addix
	EXT_SUBIX = ExtFunc(0x1) // subix
	EXT_ANDIX = ExtFunc(0x2) // andix
	EXT_ORIX  = ExtFunc(0x3) // orix
	EXT_XORIX = ExtFunc(0x4) // xorix
	EXT_LWX   = ExtFunc(0x5) // lwx
	EXT_SWX   = ExtFunc(0x6) // swx
	EXT_LIX   = ExtFunc(0x7) // lix
	EXT_JX    = ExtFunc(0x8) // jx
	EXT_JALX  = ExtFunc(0x9) // jalx
	EXT_CMPIX = ExtFunc(0xA) // cmpix
	EXT_INX   = ExtFunc(0xB) // inx
	EXT_OUTX  = ExtFunc(0xC) // outx
	EXT_SLLX  = ExtFunc(0xD) // sllx
	EXT_SRLX  = ExtFunc(0xE) // srlx
	EXT_SRAX  = ExtFunc(0xF) // srax
)

// Flag bits of the status register.
const (
	FLAG_N = uint8(0x80) // Negative
	FLAG_Z = uint8(0x40) // Zero
	FLAG_C = uint8(0x20) // Carry
	FLAG_V = uint8(0x10) // Overflow
	FLAG_H = uint8(0x08) // Half-carry (BCD)
	FLAG_I = uint8(0x04) // Interrupt enable
)
