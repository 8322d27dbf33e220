// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package machine

import (
	"errors"

	"github.com/ezrec/sampo/translate"
)

var f = translate.From

var (
	ErrPcBounds     = errors.New(f("program counter out of bounds"))
	ErrDivideByZero = errors.New(f("divide by zero"))
	ErrImageSize    = errors.New(f("image exceeds memory"))
)

// ErrFault carries the address of a fatal decode or execution fault.
// The run loop terminates on the first fault; faults are never recovered
// within the same run.
type ErrFault struct {
	Addr uint16
	Err  error
}

func (err *ErrFault) Error() string {
	return f("fault at 0x%04X: %v", err.Addr, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}
