package machine

import (
	"encoding/binary"
	"testing"

	"github.com/ezrec/sampo/isa"
	"github.com/stretchr/testify/assert"
)

// inst builds a decoded instruction for a mnemonic.
func inst(t *testing.T, name string, rd, rs1, rs2 isa.Reg, imm int32) isa.Inst {
	t.Helper()

	entry, ok := isa.Lookup(name)
	if !ok {
		t.Fatalf("unknown mnemonic %q", name)
	}

	return isa.Inst{Entry: entry, Rd: rd, Rs1: rs1, Rs2: rs2, Imm: imm}
}

// loadProgram encodes instructions and loads the image at base.
func loadProgram(t *testing.T, m *Machine, base uint16, insts ...isa.Inst) {
	t.Helper()

	var image []byte
	for _, in := range insts {
		words, err := isa.Encode(in)
		if err != nil {
			t.Fatalf("encode %v: %v", in, err)
		}
		for _, word := range words {
			image = binary.LittleEndian.AppendUint16(image, word)
		}
	}

	err := m.Load(image, base)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
}

// run steps the machine to completion.
func run(t *testing.T, m *Machine) (err error) {
	t.Helper()

	for range 10000 {
		var done bool
		done, err = m.Step()
		if done || err != nil {
			return
		}
	}
	t.Fatal("no HALT within step limit")

	return
}

func TestAddFlags(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		a, b   uint16
		result uint16
		flags  uint8
	}){
		{"small", 1, 2, 3, 0},
		{"carry_zero", 0xFFFF, 1, 0, isa.FLAG_Z | isa.FLAG_C},
		{"carry_overflow", 0x8000, 0x8000, 0, isa.FLAG_Z | isa.FLAG_C | isa.FLAG_V},
		{"overflow", 0x7FFF, 1, 0x8000, isa.FLAG_N | isa.FLAG_V},
		{"negative", 0x8000, 1, 0x8001, isa.FLAG_N},
	}

	for _, entry := range table {
		m := New()
		loadProgram(t, m, DefaultBase,
			inst(t, "lix", isa.REG_T0, 0, 0, int32(entry.a)),
			inst(t, "lix", isa.REG_T1, 0, 0, int32(entry.b)),
			inst(t, "add", isa.REG_T2, isa.REG_T0, isa.REG_T1, 0),
			inst(t, "halt", 0, 0, 0, 0),
		)

		assert.NoError(run(t, m), entry.name)
		assert.Equal(entry.result, m.Reg(isa.REG_T2), entry.name)
		assert.Equal(entry.flags, m.Flags(), entry.name)
	}
}

func TestSubFlags(t *testing.T) {
	assert := assert.New(t)

	// Carry means no borrow occurred.
	table := [](struct {
		name  string
		a, b  uint16
		flags uint8
	}){
		{"greater", 7, 5, isa.FLAG_C},
		{"equal", 5, 5, isa.FLAG_Z | isa.FLAG_C},
		{"borrow", 5, 7, isa.FLAG_N},
		{"signed_overflow", 0x8000, 1, isa.FLAG_C | isa.FLAG_V},
	}

	for _, entry := range table {
		m := New()
		loadProgram(t, m, DefaultBase,
			inst(t, "lix", isa.REG_T0, 0, 0, int32(entry.a)),
			inst(t, "lix", isa.REG_T1, 0, 0, int32(entry.b)),
			inst(t, "cmp", isa.REG_T0, isa.REG_T1, 0, 0),
			inst(t, "halt", 0, 0, 0, 0),
		)

		assert.NoError(run(t, m), entry.name)
		assert.Equal(entry.flags, m.Flags(), entry.name)
	}
}

func TestLogicClearsCarry(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_T0, 0, 0, 0x0FF0),
		inst(t, "lix", isa.REG_T1, 0, 0, 0x00FF),
		inst(t, "scf", 0, 0, 0, 0),
		inst(t, "and", isa.REG_T2, isa.REG_T0, isa.REG_T1, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Equal(uint16(0x00F0), m.Reg(isa.REG_T2))
	assert.Zero(m.Flags() & (isa.FLAG_C | isa.FLAG_V))
}

func TestRegisterZero(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_ZERO, 0, 0, 0x1234),
		inst(t, "addi", isa.REG_ZERO, 0, 0, 5),
		inst(t, "add", isa.REG_T0, isa.REG_ZERO, isa.REG_ZERO, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Zero(m.Reg(isa.REG_ZERO))
	assert.Zero(m.Reg(isa.REG_T0))
}

func TestLoadStore(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_T0, 0, 0, 0x2000),
		inst(t, "lix", isa.REG_T1, 0, 0, 0xBEEF),
		inst(t, "sw", 0, isa.REG_T0, isa.REG_T1, 4),
		inst(t, "lw", isa.REG_T2, isa.REG_T0, 0, 4),
		inst(t, "sb", 0, isa.REG_T0, isa.REG_T1, 0),
		inst(t, "lb", isa.REG_T3, isa.REG_T0, 0, 0),
		inst(t, "lbu", isa.REG_S0, isa.REG_T0, 0, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Equal(uint16(0xBEEF), m.ReadWord(0x2004))
	assert.Equal(uint16(0xBEEF), m.Reg(isa.REG_T2))
	// 0xEF sign-extends through lb, zero-extends through lbu.
	assert.Equal(uint16(0xFFEF), m.Reg(isa.REG_T3))
	assert.Equal(uint16(0x00EF), m.Reg(isa.REG_S0))
}

func TestLui(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "lui", isa.REG_T0, 0, 0, 0xA),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Equal(uint16(0x0A00), m.Reg(isa.REG_T0))
}

func TestBranchTaken(t *testing.T) {
	assert := assert.New(t)

	// cmp r0, r0 sets Z; beq skips the first lix.
	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "cmp", isa.REG_ZERO, isa.REG_ZERO, 0, 0),
		inst(t, "beq", 0, 0, 0, 2),
		inst(t, "lix", isa.REG_T0, 0, 0, 1),
		inst(t, "lix", isa.REG_T1, 0, 0, 2),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Zero(m.Reg(isa.REG_T0))
	assert.Equal(uint16(2), m.Reg(isa.REG_T1))
}

func TestBranchNotTaken(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "cmp", isa.REG_ZERO, isa.REG_ZERO, 0, 0),
		inst(t, "bne", 0, 0, 0, 2),
		inst(t, "lix", isa.REG_T0, 0, 0, 1),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Equal(uint16(1), m.Reg(isa.REG_T0))
}

func TestJumpAndLink(t *testing.T) {
	assert := assert.New(t)

	// jalx to a subroutine that returns through jr.
	m := New()
	loadProgram(t, m, 0x0200,
		inst(t, "lix", isa.REG_T0, 0, 0, 7),
		inst(t, "jr", 0, isa.REG_RA, 0, 0),
	)
	loadProgram(t, m, DefaultBase,
		inst(t, "jalx", isa.REG_RA, 0, 0, 0x0200),
		inst(t, "lix", isa.REG_T1, 0, 0, 9),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Equal(uint16(7), m.Reg(isa.REG_T0))
	assert.Equal(uint16(9), m.Reg(isa.REG_T1))
}

func TestStack(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_T0, 0, 0, 0x1111),
		inst(t, "lix", isa.REG_T1, 0, 0, 0x2222),
		inst(t, "push", 0, isa.REG_T0, 0, 0),
		inst(t, "push", 0, isa.REG_T1, 0, 0),
		inst(t, "pop", isa.REG_S0, 0, 0, 0),
		inst(t, "pop", isa.REG_S1, 0, 0, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Equal(uint16(0x2222), m.Reg(isa.REG_S0))
	assert.Equal(uint16(0x1111), m.Reg(isa.REG_S1))
	assert.Equal(StackTop, m.Reg(isa.REG_SP))
}

func TestBlockCopy(t *testing.T) {
	assert := assert.New(t)

	m := New()
	for n := range 8 {
		m.WriteByte(uint16(0x2000+n), uint8('A'+n))
	}

	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_COUNT, 0, 0, 8),
		inst(t, "lix", isa.REG_SRC, 0, 0, 0x2000),
		inst(t, "lix", isa.REG_DST, 0, 0, 0x3000),
		inst(t, "ldir", 0, 0, 0, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	for n := range 8 {
		assert.Equal(uint8('A'+n), m.ReadByte(uint16(0x3000+n)))
	}
	assert.Zero(m.Reg(isa.REG_COUNT))
	assert.Equal(uint16(0x2008), m.Reg(isa.REG_SRC))
	assert.Equal(uint16(0x3008), m.Reg(isa.REG_DST))
	assert.NotZero(m.Flags() & isa.FLAG_Z)
}

func TestBlockCopyZeroCount(t *testing.T) {
	assert := assert.New(t)

	m := New()
	m.WriteByte(0x3000, 0xAA)

	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_SRC, 0, 0, 0x2000),
		inst(t, "lix", isa.REG_DST, 0, 0, 0x3000),
		inst(t, "ldir", 0, 0, 0, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	// No memory access, pointers unchanged, zero flag set.
	assert.Equal(uint8(0xAA), m.ReadByte(0x3000))
	assert.Equal(uint16(0x2000), m.Reg(isa.REG_SRC))
	assert.Equal(uint16(0x3000), m.Reg(isa.REG_DST))
	assert.NotZero(m.Flags() & isa.FLAG_Z)
}

func TestBlockSearch(t *testing.T) {
	assert := assert.New(t)

	m := New()
	copy(m.mem[0x2000:], []byte("finding"))

	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_COUNT, 0, 0, int32('d')),
		inst(t, "lix", isa.REG_SRC, 0, 0, 0x2000),
		inst(t, "lix", isa.REG_DST, 0, 0, 7),
		inst(t, "cpir", 0, 0, 0, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.NotZero(m.Flags() & isa.FLAG_Z)
	assert.Equal(uint16(0x2003), m.Reg(isa.REG_SRC))
	assert.Equal(uint16(4), m.Reg(isa.REG_DST))
}

func TestBlockSearchMiss(t *testing.T) {
	assert := assert.New(t)

	m := New()
	copy(m.mem[0x2000:], []byte("finding"))

	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_COUNT, 0, 0, int32('z')),
		inst(t, "lix", isa.REG_SRC, 0, 0, 0x2000),
		inst(t, "lix", isa.REG_DST, 0, 0, 7),
		inst(t, "cpir", 0, 0, 0, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Zero(m.Flags() & isa.FLAG_Z)
	assert.Equal(uint16(0x2007), m.Reg(isa.REG_SRC))
	assert.Zero(m.Reg(isa.REG_DST))
}

func TestBlockFill(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_COUNT, 0, 0, 4),
		inst(t, "lix", isa.REG_SRC, 0, 0, 0x5A),
		inst(t, "lix", isa.REG_DST, 0, 0, 0x4000),
		inst(t, "fill", 0, 0, 0, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	for n := range 4 {
		assert.Equal(uint8(0x5A), m.ReadByte(uint16(0x4000+n)))
	}
	assert.Zero(m.ReadByte(0x4004))
}

func TestAlternateBank(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_A0, 0, 0, 0x1111),
		inst(t, "exx", 0, 0, 0, 0),
		inst(t, "lix", isa.REG_A0, 0, 0, 0x2222),
		inst(t, "mov", isa.REG_S0, isa.REG_A0, 0, 0),
		inst(t, "exx", 0, 0, 0, 0),
		inst(t, "mov", isa.REG_S1, isa.REG_A0, 0, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Equal(uint16(0x2222), m.Reg(isa.REG_S0))
	assert.Equal(uint16(0x1111), m.Reg(isa.REG_S1))
	// s0/s1 are outside the banked range and survive the swaps.
	assert.Equal(uint16(0x2222), m.regs[isa.REG_S0])
}

func TestDivideByZero(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_T0, 0, 0, 42),
		inst(t, "div", isa.REG_T0, isa.REG_ZERO, 0, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	err := run(t, m)
	assert.ErrorIs(err, ErrDivideByZero)

	var fault *ErrFault
	assert.ErrorAs(err, &fault)
	assert.Equal(DefaultBase+4, fault.Addr)
}

func TestUndefinedOpcode(t *testing.T) {
	assert := assert.New(t)

	m := New()
	// MISC func 0xE has no table entry.
	err := m.Load([]byte{0x0E, 0xC0}, DefaultBase)
	assert.NoError(err)

	_, err = m.Step()
	assert.ErrorIs(err, isa.ErrOpcode(0))
}

func TestDaa(t *testing.T) {
	assert := assert.New(t)

	// 0x15 + 0x27 = 0x3C binary, adjusts to 0x42 BCD.
	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_T0, 0, 0, 0x15),
		inst(t, "lix", isa.REG_T1, 0, 0, 0x27),
		inst(t, "add", isa.REG_T0, isa.REG_T0, isa.REG_T1, 0),
		inst(t, "daa", isa.REG_T0, 0, 0, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Equal(uint16(0x42), m.Reg(isa.REG_T0))
}

type testDevice struct {
	value  uint8
	writes []uint8
}

func (dev *testDevice) PortRead(port uint8) uint8 {
	return dev.value
}

func (dev *testDevice) PortWrite(port uint8, value uint8) {
	dev.writes = append(dev.writes, value)
}

func TestPortBus(t *testing.T) {
	assert := assert.New(t)

	dev := &testDevice{value: 0x37}

	m := New()
	m.Ports.Map(0x80, dev)

	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_T0, 0, 0, 0x80),
		inst(t, "in", isa.REG_T1, isa.REG_T0, 0, 0),
		inst(t, "lix", isa.REG_T2, 0, 0, 0x41),
		inst(t, "out", isa.REG_T0, isa.REG_T2, 0, 0),
		inst(t, "inx", isa.REG_T3, 0, 0, 0x42),
		inst(t, "outx", 0, isa.REG_T1, 0, 0x80),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Equal(uint16(0x37), m.Reg(isa.REG_T1))
	// Unmapped ports read as zero.
	assert.Zero(m.Reg(isa.REG_T3))
	assert.Equal([]uint8{0x41, 0x37}, dev.writes)
}

func TestInterrupt(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, DefaultVector,
		inst(t, "lix", isa.REG_T0, 0, 0, 0x1234),
		inst(t, "reti", 0, 0, 0, 0),
	)
	loadProgram(t, m, DefaultBase,
		inst(t, "ei", 0, 0, 0, 0),
		inst(t, "lix", isa.REG_T1, 0, 0, 0x5678),
		inst(t, "halt", 0, 0, 0, 0),
	)

	done, err := m.Step() // ei
	assert.NoError(err)
	assert.False(done)

	m.RequestInterrupt()

	// Acceptance pushes the return address, disables interrupts, and
	// runs the handler's first instruction in the same step.
	_, err = m.Step()
	assert.NoError(err)
	assert.Equal(uint16(0x1234), m.Reg(isa.REG_T0))
	assert.Zero(m.Flags() & isa.FLAG_I)

	_, err = m.Step() // reti
	assert.NoError(err)
	assert.NotZero(m.Flags() & isa.FLAG_I)

	assert.NoError(run(t, m))
	assert.Equal(uint16(0x5678), m.Reg(isa.REG_T1))
}

func TestInterruptMasked(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_T0, 0, 0, 1),
		inst(t, "halt", 0, 0, 0, 0),
	)

	m.RequestInterrupt()

	// Interrupts are disabled at reset; the request stays latched.
	assert.NoError(run(t, m))
	assert.Equal(uint16(1), m.Reg(isa.REG_T0))
	assert.True(m.pending)
}

func TestSoftwareInterrupt(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, 0x0020,
		inst(t, "lix", isa.REG_T0, 0, 0, 0xAB),
		inst(t, "reti", 0, 0, 0, 0),
	)
	loadProgram(t, m, DefaultBase,
		inst(t, "swi", 0, 0, 0, 0x10),
		inst(t, "lix", isa.REG_T1, 0, 0, 0xCD),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Equal(uint16(0xAB), m.Reg(isa.REG_T0))
	assert.Equal(uint16(0xCD), m.Reg(isa.REG_T1))
	assert.Equal(StackTop, m.Reg(isa.REG_SP))
}

func TestHaltIsTerminal(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "halt", 0, 0, 0, 0),
	)

	done, err := m.Step()
	assert.NoError(err)
	assert.True(done)

	done, err = m.Step()
	assert.NoError(err)
	assert.True(done)
	assert.Equal(uint64(1), m.Cycles())
}

func TestShifts(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		value  uint16
		result uint16
	}){
		{"sll", 0x0101, 0x0202},
		{"srl", 0x8001, 0x4000},
		{"sra", 0x8002, 0xC001},
		{"rol", 0x8001, 0x0003},
		{"ror", 0x8001, 0xC000},
		{"swap", 0x12AB, 0xAB12},
		{"sll4", 0x0FFF, 0xFFF0},
		{"srl8", 0xAB12, 0x00AB},
	}

	for _, entry := range table {
		m := New()
		loadProgram(t, m, DefaultBase,
			inst(t, "lix", isa.REG_T0, 0, 0, int32(entry.value)),
			inst(t, entry.name, isa.REG_T1, isa.REG_T0, 0, 0),
			inst(t, "halt", 0, 0, 0, 0),
		)

		assert.NoError(run(t, m), entry.name)
		assert.Equal(entry.result, m.Reg(isa.REG_T1), entry.name)
	}
}

func TestRotateCarry(t *testing.T) {
	assert := assert.New(t)

	// rcl shifts the old carry in at bit 0 and the old bit 15 out.
	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "scf", 0, 0, 0, 0),
		inst(t, "lix", isa.REG_T0, 0, 0, 0x8000),
		inst(t, "rcl", isa.REG_T1, isa.REG_T0, 0, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Equal(uint16(0x0001), m.Reg(isa.REG_T1))
	assert.NotZero(m.Flags() & isa.FLAG_C)
}

func TestMulDiv(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		a, b   uint16
		result uint16
	}){
		{"mul", 300, 300, uint16(90000 & 0xFFFF)},
		{"mulhu", 0x8000, 4, 2},
		{"mulh", 0xFFFF, 2, 0xFFFF}, // -1 * 2 = -2, high word all ones
		{"div", 0xFFF9, 2, 0xFFFD},  // -7 / 2 = -3
		{"divu", 100, 7, 14},
		{"rem", 0xFFF9, 2, 0xFFFF}, // -7 % 2 = -1
		{"remu", 100, 7, 2},
	}

	for _, entry := range table {
		m := New()
		loadProgram(t, m, DefaultBase,
			inst(t, "lix", isa.REG_T0, 0, 0, int32(entry.a)),
			inst(t, "lix", isa.REG_T1, 0, 0, int32(entry.b)),
			inst(t, entry.name, isa.REG_T0, isa.REG_T1, 0, 0),
			inst(t, "halt", 0, 0, 0, 0),
		)

		assert.NoError(run(t, m), entry.name)
		assert.Equal(entry.result, m.Reg(isa.REG_T0), entry.name)
	}
}

func TestFlagTransfer(t *testing.T) {
	assert := assert.New(t)

	m := New()
	loadProgram(t, m, DefaultBase,
		inst(t, "lix", isa.REG_T0, 0, 0, int32(isa.FLAG_C|isa.FLAG_Z)),
		inst(t, "setf", 0, isa.REG_T0, 0, 0),
		inst(t, "getf", isa.REG_T1, 0, 0, 0),
		inst(t, "halt", 0, 0, 0, 0),
	)

	assert.NoError(run(t, m))
	assert.Equal(uint16(isa.FLAG_C|isa.FLAG_Z), m.Reg(isa.REG_T1))
}
