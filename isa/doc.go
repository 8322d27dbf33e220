// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package isa defines the Sampo instruction set: the opcode and function
// code assignments, the instruction format table, and the decoder.
//
// The instruction table is the single source of truth for instruction
// layout. The assembler encodes through it and the machine decodes through
// it, so the two can not drift apart.
//
// Instructions are 16-bit little-endian words. The top nibble selects the
// primary opcode; opcode 0xF is the extended prefix and consumes a second
// word carrying a 16-bit immediate, with the sub-opcode in the low nibble
// of the first word.
package isa
