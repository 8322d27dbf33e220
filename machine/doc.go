// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package machine implements the Sampo machine state and executor.
//
// A Machine owns the register file (16 primary registers plus the
// alternate bank backing r4-r11), the flag byte, the program counter,
// the interrupt vector, 64KB of byte-addressable little-endian memory,
// and a 256-entry port bus. Step executes exactly one instruction: fetch,
// decode through the shared instruction table, execute, commit. Block
// operations run to completion within a single Step and interrupts are
// only sampled between steps.
//
// Machines share nothing; independent instances may run concurrently.
package machine
