// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"encoding/binary"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/sampo/isa"
)

const (
	// MemSize is the size of the byte-addressable memory space.
	MemSize = 0x10000

	// DefaultBase is the load address and reset program counter.
	DefaultBase = uint16(0x0100)

	// DefaultVector is the reset value of the interrupt vector register.
	DefaultVector = uint16(0x0008)

	// StackTop is the reset value of the stack pointer (r2).
	StackTop = uint16(0xFFFE)
)

var _machine_defines = map[string]string{
	"MEM_SIZE":  fmt.Sprintf("0x%x", MemSize),
	"BASE":      fmt.Sprintf("0x%x", DefaultBase),
	"VECTOR":    fmt.Sprintf("0x%x", DefaultVector),
	"STACK_TOP": fmt.Sprintf("0x%x", StackTop),
}

// Machine is a single Sampo machine instance. Instances share nothing and
// may be stepped concurrently with one another.
type Machine struct {
	Verbose bool // Set to enable instruction tracing.

	Ports *PortBus // Port space routing.

	regs   [16]uint16
	alt    [8]uint16 // Alternate bank backing r4-r11.
	altSel bool      // Alternate bank selected.

	pc     uint16
	flags  uint8
	vector uint16
	mem    []byte

	pending bool // Interrupt requested, not yet accepted.
	halted  bool
	cycles  uint64
}

// New creates a machine in the reset state: program counter at the default
// base, stack pointer at the top of memory, interrupts disabled.
func New() (m *Machine) {
	m = &Machine{
		Ports:  &PortBus{},
		pc:     DefaultBase,
		vector: DefaultVector,
		mem:    make([]byte, MemSize),
	}
	m.regs[isa.REG_SP] = StackTop

	return
}

// Defines for the machine
func (m *Machine) Defines() iter.Seq2[string, string] {
	return maps.All(_machine_defines)
}

// Load copies a binary image into memory at base and sets the program
// counter to base.
func (m *Machine) Load(image []byte, base uint16) (err error) {
	if len(image) > MemSize-int(base) {
		err = ErrImageSize
		return
	}

	copy(m.mem[base:], image)
	m.pc = base

	if m.Verbose {
		log.Printf("machine: loaded %d bytes at 0x%04X", len(image), base)
	}

	return
}

// Reg reads a register. Register 0 always reads as zero; while the
// alternate bank is selected, registers 4 through 11 read from it.
func (m *Machine) Reg(reg isa.Reg) (value uint16) {
	if reg == isa.REG_ZERO {
		return
	}
	if m.altSel && reg >= 4 && reg <= 11 {
		value = m.alt[reg-4]
		return
	}
	value = m.regs[reg]

	return
}

// SetReg writes a register. Writes to register 0 are ignored; while the
// alternate bank is selected, writes to registers 4 through 11 land there.
func (m *Machine) SetReg(reg isa.Reg, value uint16) {
	if reg == isa.REG_ZERO {
		return
	}
	if m.altSel && reg >= 4 && reg <= 11 {
		m.alt[reg-4] = value
		return
	}
	m.regs[reg] = value
}

// Pc returns the current program counter.
func (m *Machine) Pc() uint16 {
	return m.pc
}

// Flags returns the current flag byte.
func (m *Machine) Flags() uint8 {
	return m.flags
}

// Halted reports whether a HALT instruction has been executed.
func (m *Machine) Halted() bool {
	return m.halted
}

// Cycles returns the number of instructions executed so far.
func (m *Machine) Cycles() uint64 {
	return m.cycles
}

// SetVector sets the interrupt vector register.
func (m *Machine) SetVector(vector uint16) {
	m.vector = vector
}

// RequestInterrupt latches an interrupt request. The request is sampled at
// the next instruction boundary, and only accepted while the interrupt
// enable flag is set.
func (m *Machine) RequestInterrupt() {
	m.pending = true
}

// ReadByte reads a byte of memory.
func (m *Machine) ReadByte(addr uint16) uint8 {
	return m.mem[addr]
}

// WriteByte writes a byte of memory.
func (m *Machine) WriteByte(addr uint16, value uint8) {
	m.mem[addr] = value
}

// ReadWord reads a little-endian word; the high byte wraps at the top of
// memory.
func (m *Machine) ReadWord(addr uint16) uint16 {
	return uint16(m.mem[addr]) | uint16(m.mem[addr+1])<<8
}

// WriteWord writes a little-endian word; the high byte wraps at the top of
// memory.
func (m *Machine) WriteWord(addr uint16, value uint16) {
	m.mem[addr] = uint8(value)
	m.mem[addr+1] = uint8(value >> 8)
}

// push pushes a word onto the r2 stack.
func (m *Machine) push(value uint16) {
	sp := m.Reg(isa.REG_SP) - 2
	m.SetReg(isa.REG_SP, sp)
	m.WriteWord(sp, value)
}

// pop pops a word from the r2 stack.
func (m *Machine) pop() (value uint16) {
	sp := m.Reg(isa.REG_SP)
	value = m.ReadWord(sp)
	m.SetReg(isa.REG_SP, sp+2)

	return
}

// fetch reads the instruction word at the program counter and advances
// past it.
func (m *Machine) fetch() (word uint16, err error) {
	if m.pc == 0xFFFF {
		err = ErrPcBounds
		return
	}

	word = binary.LittleEndian.Uint16(m.mem[m.pc:])
	m.pc += 2

	return
}

// Step executes one instruction: sample pending interrupt, fetch, decode,
// execute, commit. Block operations complete entirely within the step.
// done is true once the machine has executed HALT; err is the fatal fault
// that terminated execution, if any.
func (m *Machine) Step() (done bool, err error) {
	if m.halted {
		done = true
		return
	}

	if m.pending && m.flags&isa.FLAG_I != 0 {
		// Accept: save the return address, disable interrupts, and
		// transfer to the vector.
		m.pending = false
		m.push(m.pc)
		m.flags &^= isa.FLAG_I
		m.pc = m.vector
		if m.Verbose {
			log.Printf("machine: interrupt to 0x%04X", m.pc)
		}
	}

	addr := m.pc

	defer func() {
		if err != nil {
			err = &ErrFault{Addr: addr, Err: err}
		}
	}()

	word, err := m.fetch()
	if err != nil {
		return
	}

	var imm16 uint16
	if isa.Width(word) == 4 {
		if m.pc == 0xFFFF {
			err = isa.ErrTruncated
			return
		}
		imm16, err = m.fetch()
		if err != nil {
			return
		}
	}

	inst, err := isa.Decode(word, imm16)
	if err != nil {
		return
	}

	if m.Verbose {
		log.Printf("%04X: %v", addr, inst)
	}

	err = m.execute(inst)
	if err != nil {
		return
	}

	m.cycles++
	done = m.halted

	return
}

// Run steps the machine until HALT or a fatal fault.
func (m *Machine) Run() (err error) {
	for {
		var done bool
		done, err = m.Step()
		if done || err != nil {
			return
		}
	}
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	text = fmt.Sprintf("   pc: %04X\nflags: %02X [%s]\n", m.pc, m.flags, m.flagText())
	for n := range 16 {
		text += fmt.Sprintf("  r%-2d: %04X\n", n, m.Reg(isa.Reg(n)))
	}

	return
}

func (m *Machine) flagText() (text string) {
	names := "NZCVHI"
	masks := []uint8{
		isa.FLAG_N, isa.FLAG_Z, isa.FLAG_C,
		isa.FLAG_V, isa.FLAG_H, isa.FLAG_I,
	}
	for n, mask := range masks {
		if m.flags&mask != 0 {
			text += names[n : n+1]
		} else {
			text += "-"
		}
	}

	return
}
