// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

import (
	"fmt"
	"strings"
)

// Reg is a register index, 0 through 15.
//
// Register 0 always reads as zero and ignores writes. Register 2 is the
// stack pointer by convention, and register 1 the return address.
type Reg uint8

// ABI register assignments.
const (
	REG_ZERO = Reg(0)  // Always zero
	REG_RA   = Reg(1)  // Return address
	REG_SP   = Reg(2)  // Stack pointer
	REG_GP   = Reg(3)  // Global pointer
	REG_A0   = Reg(4)  // Argument 0
	REG_A1   = Reg(5)  // Argument 1
	REG_A2   = Reg(6)  // Argument 2
	REG_A3   = Reg(7)  // Argument 3
	REG_T0   = Reg(8)  // Temporary 0
	REG_T1   = Reg(9)  // Temporary 1
	REG_T2   = Reg(10) // Temporary 2
	REG_T3   = Reg(11) // Temporary 3
	REG_S0   = Reg(12) // Saved 0
	REG_S1   = Reg(13) // Saved 1
	REG_S2   = Reg(14) // Saved 2
	REG_S3   = Reg(15) // Saved 3
)

// Block operation register convention.
const (
	REG_COUNT = REG_A0 // Byte count (CPIR: needle)
	REG_SRC   = REG_A1 // Source pointer (CPIR: search pointer)
	REG_DST   = REG_A2 // Destination pointer (CPIR: count)
)

// regAlias maps assembly register names, aliases included, to indexes.
var regAlias = map[string]Reg{
	"zero": REG_ZERO,
	"ra":   REG_RA,
	"sp":   REG_SP,
	"gp":   REG_GP,
	"a0":   REG_A0,
	"a1":   REG_A1,
	"a2":   REG_A2,
	"a3":   REG_A3,
	"t0":   REG_T0,
	"t1":   REG_T1,
	"t2":   REG_T2,
	"t3":   REG_T3,
	"s0":   REG_S0,
	"s1":   REG_S1,
	"s2":   REG_S2,
	"s3":   REG_S3,
}

func init() {
	for n := range 16 {
		regAlias[fmt.Sprintf("r%d", n)] = Reg(n)
	}
}

// RegByName looks up a register by name or alias, case-insensitively.
func RegByName(name string) (reg Reg, ok bool) {
	reg, ok = regAlias[strings.ToLower(name)]
	return
}

// String returns the canonical name of the register.
func (reg Reg) String() string {
	return fmt.Sprintf("r%d", uint8(reg))
}
