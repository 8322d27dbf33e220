// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package device provides port-mapped peripherals for the machine.
package device

import (
	"fmt"
	"io"
	"iter"
	"maps"
)

const (
	SERIAL_PORT_STATUS = 0x80 // ACIA status register port.
	SERIAL_PORT_DATA   = 0x81 // ACIA data register port.

	SERIAL_STATUS_RX_READY = 0x01 // A received byte is waiting.
	SERIAL_STATUS_TX_READY = 0x02 // A byte may be transmitted.
)

var _serial_defines = map[string]string{
	"SERIAL_PORT_STATUS":     fmt.Sprintf("%v", SERIAL_PORT_STATUS),
	"SERIAL_PORT_DATA":       fmt.Sprintf("%v", SERIAL_PORT_DATA),
	"SERIAL_STATUS_RX_READY": fmt.Sprintf("%v", SERIAL_STATUS_RX_READY),
	"SERIAL_STATUS_TX_READY": fmt.Sprintf("%v", SERIAL_STATUS_TX_READY),
}

// Serial is an ACIA style serial device on a status/data port pair.
// It wraps an io.Reader for received data and an io.Writer for
// transmitted data. A nil Input reads as never ready; a nil Output
// discards transmitted bytes but stays ready.
type Serial struct {
	Input  io.Reader
	Output io.Writer

	hasInput  bool
	lastInput byte
	exhausted bool
}

// Defines returns an iter of defines for the device.
func (sd *Serial) Defines() iter.Seq2[string, string] {
	return maps.All(_serial_defines)
}

// fill buffers one byte from the input when none is held.
func (sd *Serial) fill() {
	if sd.hasInput || sd.exhausted || sd.Input == nil {
		return
	}

	var one [1]byte
	n, err := sd.Input.Read(one[:])
	if n > 0 {
		sd.lastInput = one[0]
		sd.hasInput = true
	}
	if err != nil {
		sd.exhausted = true
	}
}

// PortRead implements machine.PortDevice.
func (sd *Serial) PortRead(port uint8) (value uint8) {
	switch port {
	case SERIAL_PORT_STATUS:
		sd.fill()
		value = SERIAL_STATUS_TX_READY
		if sd.hasInput {
			value |= SERIAL_STATUS_RX_READY
		}
	case SERIAL_PORT_DATA:
		sd.fill()
		if sd.hasInput {
			value = sd.lastInput
			sd.hasInput = false
		}
	}

	return
}

// PortWrite implements machine.PortDevice.
func (sd *Serial) PortWrite(port uint8, value uint8) {
	if port != SERIAL_PORT_DATA {
		return
	}

	if sd.Output != nil {
		sd.Output.Write([]byte{value})
	}
}
