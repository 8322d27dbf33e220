package asm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assemble(t *testing.T, source string) *Program {
	t.Helper()

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	return prog
}

func TestEncodingVectors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		source string
		image  []byte
	}){
		{"add", "add r4, r5, r6", []byte{0x56, 0x04}},
		{"addi", "addi r4, 10", []byte{0x0A, 0x54}},
		{"sub", "sub r1, r2, r3", []byte{0x23, 0x11}},
		{"lw", "lw r1, 4(r2)", []byte{0x24, 0x61}},
		{"lw_neg", "lw r1, -2(r2)", []byte{0x26, 0x61}},
		{"sw", "sw 2(r2), r3", []byte{0x22, 0x73}},
		{"lb", "lb r1, (r2)", []byte{0x21, 0x61}},
		{"sb", "sb (r2), r3", []byte{0x21, 0x73}},
		{"lui", "lui r1, 10", []byte{0xA8, 0x61}},
		{"jr", "jr r1", []byte{0x10, 0x9F}},
		{"jalr", "jalr r1, r2", []byte{0x21, 0x91}},
		{"nop", "nop", []byte{0x00, 0xE0}},
		{"halt", "halt", []byte{0x00, 0xE1}},
		{"swi", "swi 4", []byte{0x04, 0xE5}},
		{"in", "in r1, (r2)", []byte{0x22, 0xD1}},
		{"out", "out (r1), r2", []byte{0x23, 0xD1}},
		{"push", "push r5", []byte{0x50, 0xC0}},
		{"pop", "pop r5", []byte{0x01, 0xC5}},
		{"exx", "exx", []byte{0x0B, 0xC0}},
		{"lix", "lix r1, 0x1234", []byte{0x07, 0xF1, 0x34, 0x12}},
		{"jx", "jx 0x0200", []byte{0x08, 0xF0, 0x00, 0x02}},
		{"sllx", "sllx r1, r2, 3", []byte{0x2D, 0xF1, 0x03, 0x00}},
	}

	for _, entry := range table {
		prog := assemble(t, entry.source)
		assert.Equal(entry.image, prog.Image(), entry.name)
	}
}

func TestJumpBackward(t *testing.T) {
	assert := assert.New(t)

	// The jump lands 100 bytes behind its own address plus width.
	prog := assemble(t, `
.org 0x0200
target:
.org 0x0262
	j target
`)

	assert.Equal([]byte{0xCE, 0x9F}, prog.Image())
}

func TestForwardReference(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, `
start:
	beq done
	addi r4, 1
done:
	halt
`)

	// beq skips one 16-bit instruction: offset +1 word.
	assert.Equal(uint16(0x0100), prog.Symbol["start"])
	assert.Equal(uint16(0x0104), prog.Symbol["done"])
	assert.Equal([]byte{0x01, 0x80}, prog.Statements[0].Bytes)
}

func TestImmediatePromotion(t *testing.T) {
	assert := assert.New(t)

	// Small immediates stay compact; larger ones take the extended form.
	prog := assemble(t, "addi r4, 100")
	assert.Len(prog.Image(), 2)

	prog = assemble(t, "addi r4, 1000")
	assert.Equal([]byte{0x40, 0xF4, 0xE8, 0x03}, prog.Image())
}

func TestOffsetPromotion(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, "lw r1, 6(r2)")
	assert.Len(prog.Image(), 2)

	// 8 has no compact function encoding.
	prog = assemble(t, "lw r1, 8(r2)")
	assert.Equal([]byte{0x25, 0xF1, 0x08, 0x00}, prog.Image())

	prog = assemble(t, "sw 8(r2), r3")
	assert.Equal([]byte{0x26, 0xF3, 0x08, 0x00}, prog.Image())
}

func TestPseudoInstructions(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		source string
		image  []byte
	}){
		{"neg", "neg r1, r2", []byte{0x02, 0x11}},
		{"not", "not r1, r2", []byte{0x24, 0xF1, 0xFF, 0xFF}},
		{"ini", "ini r1, 0x80", []byte{0x1B, 0xF1, 0x80, 0x00}},
		{"outi", "outi 0x81, r2", []byte{0x2C, 0xF0, 0x81, 0x00}},
	}

	for _, entry := range table {
		prog := assemble(t, entry.source)
		assert.Equal(entry.image, prog.Image(), entry.name)
	}
}

func TestJalPseudo(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, `
	jal func
	halt
func:
	jr ra
`)

	// jal links through ra to an absolute 16-bit target.
	assert.Equal(uint16(0x0106), prog.Symbol["func"])
	assert.Equal([]byte{0x19, 0xF1, 0x06, 0x01}, prog.Statements[0].Bytes)
}

func TestDirectives(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, `
.org 0x0200
.equ GREETING 0x42
bytes: .db 1, 2, GREETING
words: .dw 0x1234, bytes
text:  .ascii "Hi"
ztext: .asciz "Ok"
`)

	assert.Equal(uint16(0x0200), prog.Origin)
	assert.Equal([]byte{
		1, 2, 0x42,
		0x34, 0x12, 0x00, 0x02,
		'H', 'i',
		'O', 'k', 0,
	}, prog.Image())
	assert.Equal(uint16(0x0203), prog.Symbol["words"])
}

func TestCharacterLiteral(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, "addi r4, 'A'")
	assert.Equal([]byte{0x41, 0x54}, prog.Image())
}

func TestParenExpression(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, `
.equ BASE 0x40
	addi r4, $(BASE + 2)
`)
	assert.Equal([]byte{0x42, 0x54}, prog.Image())
}

func TestMacro(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, `
.macro inc2 REG
	addi REG, 1
	addi REG, 1
.endm
	inc2 r4
	halt
`)

	assert.Equal([]byte{0x01, 0x54, 0x01, 0x54, 0x00, 0xE1}, prog.Image())
}

func TestMacroMemoryOperand(t *testing.T) {
	assert := assert.New(t)

	// A macro argument used as the base register of a memory operand
	// must survive to encoding, even though the argument equate is
	// scoped to the expansion.
	prog := assemble(t, `
.macro storew BASEREG
	sw 0(BASEREG), r3
.endm
	storew r2
`)

	assert.Equal([]byte{0x20, 0x73}, prog.Image())
}

func TestDuplicateLabel(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("dup:\ndup:\n"))
	assert.ErrorIs(err, ErrSymbolDuplicate(""))

	var syntax *ErrSyntax
	assert.ErrorAs(err, &syntax)
	assert.Equal(2, syntax.LineNo)
}

func TestMissingLabel(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("\tj nowhere\n"))
	assert.ErrorIs(err, ErrSymbolMissing(""))
}

func TestUnknownMnemonic(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader("\tfrobnicate r1\n"))
	assert.ErrorIs(err, ErrMnemonicUnknown(""))
}

func TestBranchRange(t *testing.T) {
	assert := assert.New(t)

	// +127 words of reach: 254 bytes past the branch end.
	prog := assemble(t, `
	beq far
.org 0x0200
far:	halt
`)
	assert.Equal([]byte{0x7F, 0x80}, prog.Statements[0].Bytes)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader(`
	beq far
.org 0x0202
far:	halt
`))
	assert.ErrorIs(err, ErrRange{})
}

func TestBranchOddTarget(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader(`
	beq odd
.db 1
odd:	halt
`))
	assert.ErrorIs(err, ErrOddTarget)
}

func TestComment(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, `
; full line comment
	halt ; trailing comment
`)
	assert.Equal([]byte{0x00, 0xE1}, prog.Image())
}

func TestPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("PORT", "0x80")
	prog, err := asm.Parse(strings.NewReader("\tini r1, PORT\n"))
	assert.NoError(err)
	assert.Equal([]byte{0x1B, 0xF1, 0x80, 0x00}, prog.Image())
}
