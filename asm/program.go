// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"fmt"
	"strings"
)

// Statement is one assembled source statement: its source position, the
// address it was placed at, and the bytes it produced. Instruction
// statements also carry the parsed mnemonic and operands for listings.
type Statement struct {
	LineNo int
	Line   string
	Addr   uint16
	Name   string
	Args   []string
	Bytes  []byte

	width uint16 // reserved in the sizing pass
}

// Program is the result of assembling a source stream.
type Program struct {
	Origin     uint16
	Statements []Statement
	Symbol     map[string]uint16
}

// End returns the first address past the assembled image.
func (prog *Program) End() (end uint16) {
	for _, stmt := range prog.Statements {
		past := stmt.Addr + uint16(len(stmt.Bytes))
		if past > end {
			end = past
		}
	}

	return
}

// Image renders the program as a loadable binary image, starting at
// Origin. Gaps between statements are zero-filled.
func (prog *Program) Image() (image []byte) {
	end := prog.End()
	if end <= prog.Origin {
		return
	}

	image = make([]byte, end-prog.Origin)
	for _, stmt := range prog.Statements {
		copy(image[stmt.Addr-prog.Origin:], stmt.Bytes)
	}

	return
}

// Debug finds the statement covering an address, for run-time
// diagnostics and trace back-mapping.
func (prog *Program) Debug(addr uint16) (stmt *Statement) {
	for n := range prog.Statements {
		s := &prog.Statements[n]
		if addr >= s.Addr && addr < s.Addr+uint16(len(s.Bytes)) {
			stmt = s
			break
		}
	}

	return
}

// String returns an address-annotated listing of the program.
func (prog *Program) String() (text string) {
	var sb strings.Builder
	for _, stmt := range prog.Statements {
		if len(stmt.Bytes) == 0 {
			continue
		}
		hex := fmt.Sprintf("% X", stmt.Bytes)
		fmt.Fprintf(&sb, "%04X: %-12s %s\n", stmt.Addr, hex, strings.TrimSpace(stmt.Line))
	}
	text = sb.String()

	return
}
