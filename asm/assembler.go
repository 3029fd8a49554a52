// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

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

	"github.com/ezrec/synvm/vm"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%d", vm.MEMORY_SIZE),
	"WORD_MAX":    fmt.Sprintf("%d", vm.WORD_MAX),
}

// Maximum depth of equates referring to other equates.
const equateDepth = 16

// Assembler is a two pass macro assembler for synvm programs.
//
// The first pass expands macros and equates, records labels, and lays out
// the addresses of every line. The second pass evaluates the operands, so
// labels may be used before they are defined.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// tokenize splits a line into words. Character literals and $(...)
// expressions are kept whole, and ';' starts a comment.
func tokenize(line string) (words []string, err error) {
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			words = append(words, word.String())
			word.Reset()
		}
	}

	for n := 0; n < len(line); n++ {
		ch := line[n]
		switch {
		case ch == ';':
			flush()
			return
		case ch == ' ' || ch == '\t' || ch == ',':
			flush()
		case ch == '\'':
			start := n + 2
			if start < len(line) && line[n+1] == '\\' {
				start++
			}
			if start > len(line) {
				err = ErrQuoteUnclosed
				return
			}
			end := strings.IndexByte(line[start:], '\'')
			if end < 0 {
				err = ErrQuoteUnclosed
				return
			}
			end += start
			word.WriteString(line[n : end+1])
			n = end
		case ch == '$' && n+1 < len(line) && line[n+1] == '(':
			depth := 0
			end := -1
			for m := n + 1; m < len(line) && end < 0; m++ {
				switch line[m] {
				case '(':
					depth++
				case ')':
					depth--
					if depth == 0 {
						end = m
					}
				}
			}
			if end < 0 {
				err = ErrParenUnclosed
				return
			}
			word.WriteString(line[n : end+1])
			n = end
		default:
			word.WriteByte(ch)
		}
	}

	flush()
	return
}

// charValue returns the value of a quoted character literal.
func charValue(word string) (value vm.Word, err error) {
	str := word[1 : len(word)-1]
	if len(str) == 2 && str[0] == '\\' {
		switch str[1] {
		case 'n':
			value = '\n'
		case 'r':
			value = '\r'
		case 't':
			value = '\t'
		case 'e':
			value = '\033'
		case '0':
			value = 0
		case '\\', '\'':
			value = vm.Word(str[1])
		default:
			err = ErrParseValue(word)
		}
		return
	}

	if len(str) != 1 {
		err = ErrParseValue(word)
		return
	}

	value = vm.Word(str[0])
	return
}

// register returns the encoding of a register name, r0-r7 in any case.
func register(word string) (value vm.Word, ok bool) {
	if len(word) != 2 || (word[0] != 'r' && word[0] != 'R') {
		return
	}
	if word[1] < '0' || word[1] >= '0'+vm.REGISTER_LIMIT {
		return
	}

	return vm.Reg(int(word[1] - '0')), true
}

// number parses a numeric literal. Negative values are taken modulo 32768.
func number(word string) (value vm.Word, err error) {
	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseValue(word)
		return
	}

	switch {
	case v64 < 0 && v64 >= -vm.WORD_MODULUS:
		value = vm.Word(v64 + vm.WORD_MODULUS)
	case v64 >= 0 && v64 <= 0xffff:
		value = vm.Word(v64)
	default:
		err = ErrValueRange
	}

	return
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// valueOf returns the memory word for an operand.
func (asm *Assembler) valueOf(word string, depth int) (value vm.Word, err error) {
	if depth > equateDepth {
		err = ErrEquateLoop
		return
	}

	if reg, ok := register(word); ok {
		value = reg
		return
	}

	switch {
	case strings.HasPrefix(word, "$("):
		value, err = asm.parenEval(word[2 : len(word)-1])
		return
	case strings.HasPrefix(word, "'"):
		value, err = charValue(word)
		return
	case word == `\n`:
		value = '\n'
		return
	}

	if equate, ok := asm.Equate[word]; ok {
		return asm.valueOf(equate, depth+1)
	}

	if addr, ok := asm.Label[word]; ok {
		value = vm.Word(addr)
		return
	}

	if identifier.MatchString(word) {
		err = ErrLabelMissing(word)
		return
	}

	return number(word)
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value vm.Word, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key := range asm.Equate {
		word, _err := asm.valueOf(key, 0)
		if _err != nil {
			// Ignore equates that are not values.
			continue
		}
		pred[key] = starlark.MakeInt(int(word))
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}
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
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return number(strconv.FormatInt(st_int64, 10))
}

// currentAddr gets the address of the next generated word.
func (asm *Assembler) currentAddr() int {
	if len(asm.Opcode) == 0 {
		return 0
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + len(last.Codes)
}

// parseLine lays out a single line: equates, labels, macros and opcodes.
func (asm *Assembler) parseLine(line string, lineno int) (err error) {
	words, err := tokenize(line)
	if err != nil || len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 || !identifier.MatchString(words[1]) {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		return
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok || !identifier.MatchString(label) {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrOperandCount
			return
		}

		unique := fmt.Sprintf("_%v_%v_", name, lineno)
		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", unique)
			for m, arg := range macro.Args {
				re := regexp.MustCompile(`\b` + regexp.QuoteMeta(arg) + `\b`)
				line = re.ReplaceAllLiteralString(line, args[m])
			}
			err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}
		return
	}

	var size int
	if words[0] == ".word" {
		size = len(words) - 1
	} else {
		op, ok := vm.ParseOpcode(strings.ToLower(words[0]))
		if !ok {
			err = ErrOpcodeInvalid
			return
		}
		if len(words)-1 != op.Operands() {
			err = ErrOperandCount
			return
		}
		size = op.Width()
	}

	asm.Opcode = append(asm.Opcode, Opcode{
		LineNo: lineno,
		Addr:   asm.currentAddr(),
		Words:  words,
		Codes:  make([]vm.Word, size),
	})

	return
}

// link evaluates the operands of an opcode laid out by parseLine.
func (asm *Assembler) link(op *Opcode) (err error) {
	args := op.Words[1:]
	codes := op.Codes[:0]
	if op.Words[0] != ".word" {
		code, _ := vm.ParseOpcode(strings.ToLower(op.Words[0]))
		codes = append(codes, vm.Word(code))
	}

	for _, arg := range args {
		var value vm.Word
		value, err = asm.valueOf(arg, 0)
		if err != nil {
			return
		}
		codes = append(codes, value)
	}

	return
}

// Parse parses an input stream into a Program.
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

	asm.Label = make(map[string]int)
	asm.Opcode = asm.Opcode[:0]
	asm.Macro = make(map[string](*Macro))
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		lineno += 1
		line = strings.TrimSpace(scanner.Text())

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, line)
		}

		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 1 && words[0] == ".macro" {
			if macro != nil {
				err = ErrOpcodeInvalid
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrLabelDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
				Args:   words[2:],
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrOpcodeInvalid
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrOpcodeInvalid
		return
	}

	// Second pass: all labels are known.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]
		err = asm.link(op)
		if err != nil {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			return
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}
