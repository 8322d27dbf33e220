// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"github.com/ezrec/sampo/isa"
)

// addFlags computes the flag byte after a 16-bit addition. Only N, Z, C,
// and V change; H and I are preserved.
func (m *Machine) addFlags(a, b, result uint16) {
	m.flags &^= isa.FLAG_N | isa.FLAG_Z | isa.FLAG_C | isa.FLAG_V

	if result == 0 {
		m.flags |= isa.FLAG_Z
	}
	if result&0x8000 != 0 {
		m.flags |= isa.FLAG_N
	}
	if uint32(a)+uint32(b) > 0xFFFF {
		m.flags |= isa.FLAG_C
	}
	// Overflow: both operands share a sign the result does not.
	if (a^b)&0x8000 == 0 && (a^result)&0x8000 != 0 {
		m.flags |= isa.FLAG_V
	}
}

// subFlags computes the flag byte after a 16-bit subtraction of b from a.
// Carry is set when no borrow occurred. Only N, Z, C, and V change.
func (m *Machine) subFlags(a, b, result uint16) {
	m.flags &^= isa.FLAG_N | isa.FLAG_Z | isa.FLAG_C | isa.FLAG_V

	if result == 0 {
		m.flags |= isa.FLAG_Z
	}
	if result&0x8000 != 0 {
		m.flags |= isa.FLAG_N
	}
	if a >= b {
		m.flags |= isa.FLAG_C
	}
	// Overflow: operand signs differ and the result took b's sign.
	if (a^b)&0x8000 != 0 && (b^result)&0x8000 == 0 {
		m.flags |= isa.FLAG_V
	}
}

// logicFlags computes the flag byte after a bitwise or shift result:
// N and Z from the result, C and V cleared.
func (m *Machine) logicFlags(result uint16) {
	m.flags &^= isa.FLAG_N | isa.FLAG_Z | isa.FLAG_C | isa.FLAG_V

	if result == 0 {
		m.flags |= isa.FLAG_Z
	}
	if result&0x8000 != 0 {
		m.flags |= isa.FLAG_N
	}
}

// setZero sets or clears the zero flag alone.
func (m *Machine) setZero(zero bool) {
	if zero {
		m.flags |= isa.FLAG_Z
	} else {
		m.flags &^= isa.FLAG_Z
	}
}

// condition evaluates a branch condition against the current flags.
// Unsigned comparisons read carry as no-borrow, so below-unsigned is a
// clear carry.
func (m *Machine) condition(cond isa.Cond) (taken bool) {
	n := m.flags&isa.FLAG_N != 0
	z := m.flags&isa.FLAG_Z != 0
	c := m.flags&isa.FLAG_C != 0
	v := m.flags&isa.FLAG_V != 0

	switch cond {
	case isa.COND_EQ:
		taken = z
	case isa.COND_NE:
		taken = !z
	case isa.COND_LT:
		taken = n != v
	case isa.COND_GE:
		taken = n == v
	case isa.COND_LU:
		taken = !c
	case isa.COND_GU:
		taken = c
	case isa.COND_MI:
		taken = n
	case isa.COND_PL:
		taken = !n
	case isa.COND_VS:
		taken = v
	case isa.COND_VC:
		taken = !v
	case isa.COND_CS:
		taken = c
	case isa.COND_CC:
		taken = !c
	case isa.COND_GT:
		taken = !z && n == v
	case isa.COND_LE:
		taken = z || n != v
	case isa.COND_HI:
		taken = c && !z
	case isa.COND_LS:
		taken = !c || z
	}

	return
}
