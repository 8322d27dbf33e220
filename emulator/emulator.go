// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package emulator wires a machine to its peripherals and a program listing.
package emulator

import (
	stdio "io"
	"iter"

	"github.com/ezrec/sampo/asm"
	"github.com/ezrec/sampo/device"
	"github.com/ezrec/sampo/internal"
	"github.com/ezrec/sampo/machine"
)

// Emulator state. Machine + serial device + program listing.
type Emulator struct {
	Verbose          bool          // If set, enables verbose logging.
	*machine.Machine               // Reference to the machine simulation.
	Program          *asm.Program  // Reference to the currently loaded program listing.
	Serial           device.Serial // Serial IO device on the status/data port pair.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Machine: machine.New(),
		Program: &asm.Program{},
	}

	emu.Machine.Ports.MapRange(device.SERIAL_PORT_STATUS, device.SERIAL_PORT_DATA, &emu.Serial)

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(
		emu.Machine.Defines(),
		emu.Serial.Defines(),
	)
}

// Assemble parses source into the emulator's program listing, with the
// system defines predefined as equates.
func (emu *Emulator) Assemble(input stdio.Reader) (err error) {
	a := &asm.Assembler{Verbose: emu.Verbose}
	for name, value := range emu.Defines() {
		a.Predefine(name, value)
	}

	prog, err := a.Parse(input)
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// Reset loads the program image at its origin and restarts the machine.
func (emu *Emulator) Reset() (err error) {
	m := machine.New()
	m.Verbose = emu.Verbose
	m.Ports = emu.Machine.Ports
	emu.Machine = m

	return emu.Machine.Load(emu.Program.Image(), emu.Program.Origin)
}

// LineNo returns the source line number for the instruction at the pc.
func (emu *Emulator) LineNo() int {
	stmt := emu.Program.Debug(emu.Machine.Pc())
	if stmt == nil {
		return 0
	}

	return stmt.LineNo
}

// Step performs a single instruction step of the emulator.
func (emu *Emulator) Step() (done bool, err error) {
	emu.Machine.Verbose = emu.Verbose

	lineno := 0
	line := ""
	if stmt := emu.Program.Debug(emu.Machine.Pc()); stmt != nil {
		lineno = stmt.LineNo
		line = stmt.Line
	}
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Line: line, Err: err}
		}
	}()

	return emu.Machine.Step()
}

// Run steps the emulator until the machine halts or faults.
func (emu *Emulator) Run() (err error) {
	for {
		done, err := emu.Step()
		if err != nil || done {
			return err
		}
	}
}
