// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"github.com/ezrec/sampo/translate"
)

var f = translate.From

// ErrRuntime indicates the source location of a runtime fault.
type ErrRuntime struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return err.Err.Error()
	}
	return f("line %d (%v): %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
