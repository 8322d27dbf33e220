// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

// PortDevice is the host side of the port I/O space. The executor calls
// it synchronously during IN/OUT instructions and never models device
// behavior itself.
type PortDevice interface {
	// PortRead returns the current value of the port.
	PortRead(port uint8) (value uint8)
	// PortWrite presents a value to the port.
	PortWrite(port uint8, value uint8)
}

// PortBus routes the 256-entry port space to attached devices.
// Unmapped ports read as zero and discard writes.
type PortBus struct {
	device [256]PortDevice
}

// Map attaches a device to a port. A nil device unmaps the port.
func (bus *PortBus) Map(port uint8, device PortDevice) {
	bus.device[port] = device
}

// MapRange attaches a device to each port in [first, last].
func (bus *PortBus) MapRange(first, last uint8, device PortDevice) {
	for port := int(first); port <= int(last); port++ {
		bus.device[port] = device
	}
}

// Read reads from a port, or zero if the port is unmapped.
func (bus *PortBus) Read(port uint8) (value uint8) {
	if dev := bus.device[port]; dev != nil {
		value = dev.PortRead(port)
	}
	return
}

// Write writes to a port; writes to unmapped ports are discarded.
func (bus *PortBus) Write(port uint8, value uint8) {
	if dev := bus.device[port]; dev != nil {
		dev.PortWrite(port, value)
	}
}
