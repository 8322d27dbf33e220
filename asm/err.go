// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"errors"

	"github.com/ezrec/sampo/translate"
)

var f = translate.From

var (
	// Directive errors
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrOrgSyntax       = errors.New(f(".org syntax"))
	ErrStringSyntax    = errors.New(f("string literal syntax"))
	ErrMacroSyntax     = errors.New(f(".macro syntax"))
	ErrMacroNesting    = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate  = errors.New(f(".macro duplicated"))
	ErrMacroLonely     = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm = errors.New(f(".endm without .macro"))

	// Statement errors
	ErrOperandMissing = errors.New(f("operand missing"))
	ErrOperandExtra   = errors.New(f("excessive operands"))
	ErrOddTarget      = errors.New(f("branch target not word-aligned"))
	ErrWidthUnstable  = errors.New(f("instruction width changed between passes"))
)

// ErrSymbolDuplicate indicates a label defined more than once.
type ErrSymbolDuplicate string

func (err ErrSymbolDuplicate) Error() string {
	return f("label %v duplicated", string(err))
}

func (err ErrSymbolDuplicate) Is(target error) (ok bool) {
	_, ok = target.(ErrSymbolDuplicate)
	return
}

// ErrSymbolMissing indicates a reference to a label never defined.
type ErrSymbolMissing string

func (err ErrSymbolMissing) Error() string {
	return f("label %v missing", string(err))
}

func (err ErrSymbolMissing) Is(target error) (ok bool) {
	_, ok = target.(ErrSymbolMissing)
	return
}

// ErrMnemonicUnknown indicates an unrecognized mnemonic.
type ErrMnemonicUnknown string

func (err ErrMnemonicUnknown) Error() string {
	return f("unknown mnemonic %v", string(err))
}

func (err ErrMnemonicUnknown) Is(target error) (ok bool) {
	_, ok = target.(ErrMnemonicUnknown)
	return
}

// ErrOperandShape indicates operands that do not fit the mnemonic's
// expected form.
type ErrOperandShape string

func (err ErrOperandShape) Error() string {
	return f("operand %v does not fit the instruction form", string(err))
}

func (err ErrOperandShape) Is(target error) (ok bool) {
	_, ok = target.(ErrOperandShape)
	return
}

// ErrRange indicates a branch or jump target outside the reach of the
// chosen encoding.
type ErrRange struct {
	Name   string
	Target uint16
	Limit  int32
}

func (err ErrRange) Error() string {
	return f("%v: target 0x%04X beyond reach of %d words", err.Name, err.Target, err.Limit)
}

func (err ErrRange) Is(target error) (ok bool) {
	_, ok = target.(ErrRange)
	return
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrSyntax wraps any assembly error with its originating source position.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
