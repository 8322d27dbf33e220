// Copyright 2026, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// DefaultOrigin is the assembly address used before any .org directive.
const DefaultOrigin = uint16(0x0100)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a two pass macro assembler for the Sampo instruction set.
// The first pass sizes every statement and collects labels; the second
// resolves symbols and encodes. Statement widths depend only on the
// mnemonic and operand shapes, never on symbol values, so label addresses
// are fixed after the first pass.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	predefine map[string]string   // Predefines
	Symbol    map[string]uint16   // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	stmts []Statement
	addr  uint16
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple numeric word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}

	invert := false
	if word[0] == '~' {
		invert = true
		word = word[1:]
	}

	value, err = strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = int64(^uint16(value))
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var v int64
		v, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(v))
	}
	for key, addr := range asm.Symbol {
		pred[key] = starlark.MakeInt(int(addr))
	}
	err = nil

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}

	return
}

// stripComment removes a trailing ; comment, honoring double quotes.
func stripComment(line string) string {
	quoted := false
	for n, c := range line {
		switch {
		case c == '"':
			quoted = !quoted
		case c == ';' && !quoted:
			return line[:n]
		}
	}

	return line
}

// fields splits a statement into tokens on spaces and commas, keeping
// double-quoted strings intact.
func fields(line string) (words []string) {
	var sb strings.Builder
	quoted := false

	flush := func() {
		if sb.Len() > 0 {
			words = append(words, sb.String())
			sb.Reset()
		}
	}

	for _, c := range line {
		switch {
		case c == '"':
			quoted = !quoted
			sb.WriteRune(c)
		case quoted:
			sb.WriteRune(c)
		case c == ' ' || c == '\t' || c == ',':
			flush()
		default:
			sb.WriteRune(c)
		}
	}
	flush()

	return
}

// parseLine parses a single line into statement tokens, applying
// character literals, $() expressions, equates, labels, and macros.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1:] {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\x00"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	words = fields(line)
	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Symbol[label]
		if ok {
			err = ErrSymbolDuplicate(label)
			return
		}

		asm.Symbol[label] = asm.addr
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro expansion
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		for n, text := range macro.Lines {
			mline := macro.LineNo + n

			text = strings.ReplaceAll(text, "@", fmt.Sprintf("%v_%v_", name, mline))
			words, err = asm.parseLine(text, mline)
			if err == nil {
				err = asm.parseWords(words, mline, text)
			}
			if err != nil {
				err = &ErrMacro{Macro: name, Line: mline, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// parseWords sizes and records one statement from its tokens.
func (asm *Assembler) parseWords(words []string, lineno int, line string) (err error) {
	if len(words) == 0 {
		return
	}

	name := strings.ToLower(words[0])
	args := slices.Clone(words[1:])
	if name[0] != '.' {
		for n := range args {
			args[n] = asm.expandOperand(args[n])
		}
	}

	stmt := Statement{
		LineNo: lineno,
		Line:   line,
		Addr:   asm.addr,
		Name:   name,
		Args:   args,
	}

	switch name {
	case ".org":
		if len(args) != 1 {
			err = ErrOrgSyntax
			return
		}
		var value int64
		value, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		asm.addr = uint16(value)
		return
	case ".db":
		stmt.width = uint16(len(args))
	case ".dw":
		stmt.width = uint16(len(args)) * 2
	case ".ascii", ".asciz":
		var data []byte
		data, err = parseString(args)
		if err != nil {
			return
		}
		if name == ".asciz" {
			data = append(data, 0)
		}
		stmt.width = uint16(len(data))
		stmt.Bytes = data
	default:
		stmt.width, err = asm.widthOf(name, args)
		if err != nil {
			return
		}
	}

	asm.stmts = append(asm.stmts, stmt)
	asm.addr += stmt.width

	return
}

// parseString decodes a double-quoted string literal token.
func parseString(args []string) (data []byte, err error) {
	if len(args) != 1 {
		err = ErrStringSyntax
		return
	}

	text := args[0]
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		err = ErrStringSyntax
		return
	}
	text = text[1 : len(text)-1]

	escaped := false
	for n := 0; n < len(text); n++ {
		c := text[n]
		if !escaped {
			if c == '\\' {
				escaped = true
				continue
			}
			data = append(data, c)
			continue
		}

		escaped = false
		switch c {
		case 'n':
			data = append(data, '\n')
		case 'r':
			data = append(data, '\r')
		case 't':
			data = append(data, '\t')
		case '0':
			data = append(data, 0)
		case 'e':
			data = append(data, 033)
		case '\\', '"':
			data = append(data, c)
		default:
			err = ErrStringSyntax
			return
		}
	}
	if escaped {
		err = ErrStringSyntax
	}

	return
}

// Parse assembles an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Symbol = make(map[string]uint16, 16)
	asm.stmts = asm.stmts[:0]
	asm.addr = DefaultOrigin
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))
		words := fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno, line)
		if err != nil {
			return
		}
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Second pass: resolve symbols and encode.
	for n := range asm.stmts {
		stmt := &asm.stmts[n]
		line = stmt.Line
		lineno = stmt.LineNo

		err = asm.encodeStatement(stmt)
		if err != nil {
			return
		}
	}

	origin := uint16(0xFFFF)
	for _, stmt := range asm.stmts {
		if len(stmt.Bytes) > 0 && stmt.Addr < origin {
			origin = stmt.Addr
		}
	}
	if origin == 0xFFFF {
		origin = DefaultOrigin
	}

	prog = &Program{
		Origin:     origin,
		Statements: slices.Clone(asm.stmts),
		Symbol:     maps.Clone(asm.Symbol),
	}

	return
}
