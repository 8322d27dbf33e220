// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package isa

import (
	"errors"

	"github.com/ezrec/sampo/translate"
)

var f = translate.From

var (
	// ErrTruncated indicates an extended instruction whose second word
	// lies beyond the end of addressable memory.
	ErrTruncated = errors.New(f("extended instruction truncated"))
)

// ErrOpcode indicates an instruction word no table entry claims.
type ErrOpcode uint16

func (eo ErrOpcode) Error() string {
	return f("undefined opcode 0x%04X", uint16(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrImmRange indicates an operand value that does not fit its field.
type ErrImmRange struct {
	Name  string
	Value int32
	Min   int32
	Max   int32
}

func (err ErrImmRange) Error() string {
	return f("%v: value %d outside field range %d..%d",
		err.Name, err.Value, err.Min, err.Max)
}

func (err ErrImmRange) Is(target error) (ok bool) {
	_, ok = target.(ErrImmRange)
	return
}

// ErrOffset indicates a memory-form byte offset with no function encoding.
type ErrOffset int32

func (err ErrOffset) Error() string {
	return f("unencodable load/store offset %d", int32(err))
}

func (err ErrOffset) Is(target error) (ok bool) {
	_, ok = target.(ErrOffset)
	return
}

// ErrJumpShape indicates a PC-relative jump offset whose bit pattern would
// decode as a register jump. Such offsets must use the extended form.
type ErrJumpShape int32

func (err ErrJumpShape) Error() string {
	return f("jump offset %d collides with register-jump encoding", int32(err))
}

func (err ErrJumpShape) Is(target error) (ok bool) {
	_, ok = target.(ErrJumpShape)
	return
}
