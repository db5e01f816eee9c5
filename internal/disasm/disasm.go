// Package disasm renders a tune's bytes as KickAssembler-style
// text: one line per instruction or data run, grounded on the teacher's
// printInstruction/printData column layout (mnemonic column, then a
// comment holding the address and raw bytes, then a printable-byte
// column), adapted from beebasm's backslash-comment convention to
// KickAssembler's "//" and from &-prefixed hex to $-prefixed hex.
package disasm

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/sidreloc/sidreloc/internal/cpu6502"
)

const (
	commentColumn   = 24
	printableColumn = 44
)

// disasmHeader is the banner written before the first instruction,
// grounded on the teacher's own `disasmHeader` template in
// disassemble.go: a fixed comment block followed by an origin
// directive for the load address.
var disasmHeader = template.Must(template.New("disasm").Parse(
	"//\n" +
		"// generated disassembly, do not edit by hand\n" +
		"//\n\n" +
		"* = ${{ printf \"%04X\" .LoadAddr }}\n\n",
))

// Write disassembles bytes (loaded at base, with entries as scanner entry
// points) to w. Bytes classified as code by cpu6502.Scan are printed as
// one instruction per line; everything else is printed in runs of up to
// 8 bytes as a KickAssembler ".byte" statement.
func Write(w io.Writer, program []byte, base uint16, entries []uint16) error {
	scan := cpu6502.Scan(program, base, entries)
	labels := findLabels(program, base, scan)

	data := struct{ LoadAddr uint16 }{base}
	if err := disasmHeader.Execute(w, data); err != nil {
		return err
	}

	n := len(program)
	cursor := 0
	for cursor < n {
		addr := base + uint16(cursor)
		if idx, ok := labels[addr]; ok {
			if _, err := fmt.Fprintf(w, "L%d:\n", idx); err != nil {
				return err
			}
		}

		var sb strings.Builder
		if scan.InstructionStarts[cursor] {
			in, _ := cpu6502.Lookup(program[cursor])
			length := cpu6502.Length(in.Mode)
			instr := program[cursor : cursor+length]
			printInstruction(&sb, in, instr, addr, labels)
			cursor += length
		} else {
			run := cursor + 1
			for run < n && run < cursor+8 && !scan.CodeOffsets[run] {
				run++
			}
			data := program[cursor:run]
			printData(&sb, data, addr)
			cursor = run
		}
		sb.WriteByte('\n')
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func printInstruction(sb *strings.Builder, in cpu6502.Instruction, instr []byte, addr uint16, labels map[uint16]int) {
	sb.WriteString(in.DisplayMnemonic())
	sb.WriteByte(' ')
	sb.WriteString(operandText(in, instr, addr, labels))

	appendSpaces(sb, max(commentColumn-sb.Len(), 1))
	sb.WriteString("// ")

	out := []string{fmt.Sprintf("$%04X", addr)}
	for _, b := range instr {
		out = append(out, fmt.Sprintf("%02X", b))
	}
	sb.WriteString(strings.Join(out, " "))

	appendPrintableBytes(sb, instr)
}

// printData prints data in hex as a comma-delimited .byte statement.
func printData(sb *strings.Builder, data []byte, addr uint16) {
	var out []string
	for _, b := range data {
		out = append(out, fmt.Sprintf("$%02X", b))
	}
	sb.WriteString(".byte ")
	sb.WriteString(strings.Join(out, ","))

	appendSpaces(sb, max(commentColumn-sb.Len(), 1))
	sb.WriteString("// ")
	sb.WriteString(fmt.Sprintf("$%04X", addr))
	appendPrintableBytes(sb, data)
}

func operandText(in cpu6502.Instruction, instr []byte, addr uint16, labels map[uint16]int) string {
	switch in.Mode {
	case cpu6502.Implied, cpu6502.Accumulator:
		return ""
	case cpu6502.Immediate:
		return fmt.Sprintf("#$%02X", instr[1])
	case cpu6502.ZeroPage:
		return fmt.Sprintf("$%02X", instr[1])
	case cpu6502.ZeroPageX:
		return fmt.Sprintf("$%02X,X", instr[1])
	case cpu6502.ZeroPageY:
		return fmt.Sprintf("$%02X,Y", instr[1])
	case cpu6502.IndirectX:
		return fmt.Sprintf("($%02X,X)", instr[1])
	case cpu6502.IndirectY:
		return fmt.Sprintf("($%02X),Y", instr[1])
	case cpu6502.Relative:
		disp := int(int8(instr[1]))
		target := uint16(int(addr) + 2 + disp)
		return labelOrAddr(target, labels)
	case cpu6502.Absolute:
		target := uint16(instr[1]) | uint16(instr[2])<<8
		return labelOrAddr(target, labels)
	case cpu6502.AbsoluteX:
		target := uint16(instr[1]) | uint16(instr[2])<<8
		return labelOrAddr(target, labels) + ",X"
	case cpu6502.AbsoluteY:
		target := uint16(instr[1]) | uint16(instr[2])<<8
		return labelOrAddr(target, labels) + ",Y"
	case cpu6502.Indirect:
		target := uint16(instr[1]) | uint16(instr[2])<<8
		return "(" + labelOrAddr(target, labels) + ")"
	default:
		return ""
	}
}

func labelOrAddr(addr uint16, labels map[uint16]int) string {
	if idx, ok := labels[addr]; ok {
		return fmt.Sprintf("L%d", idx)
	}
	return fmt.Sprintf("$%04X", addr)
}

func appendSpaces(sb *strings.Builder, n int) {
	sb.Write(bytes.Repeat([]byte{' '}, n))
}

func appendPrintableBytes(sb *strings.Builder, b []byte) {
	appendSpaces(sb, max(printableColumn-sb.Len(), 1))
	for _, c := range b {
		sb.WriteByte(toChar(c))
	}
}

func toChar(b byte) byte {
	if b < 32 || b > 126 {
		return '.'
	}
	return b
}

func max(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// findLabels assigns a sequential, address-ordered label index to every
// branch/jump/call target that lands on a confirmed instruction start,
// the same "collect then renumber in address order" shape as the
// teacher's findBranchTargets pass.
func findLabels(program []byte, base uint16, scan cpu6502.ScanResult) map[uint16]int {
	targets := make(map[uint16]bool)
	n := len(program)
	for off := range scan.InstructionStarts {
		in, _ := cpu6502.Lookup(program[off])
		switch cpu6502.Flow(in.Mnemonic) {
		case cpu6502.FlowBranch:
			disp := int(int8(program[off+1]))
			target := off + 2 + disp
			if target >= 0 && target < n && scan.InstructionStarts[target] {
				targets[base+uint16(target)] = true
			}
		case cpu6502.FlowJumpAbsolute, cpu6502.FlowCall:
			addr := uint16(program[off+1]) | uint16(program[off+2])<<8
			targetOff := int(addr) - int(base)
			if targetOff >= 0 && targetOff < n && scan.InstructionStarts[targetOff] {
				targets[addr] = true
			}
		}
	}

	addrs := make([]int, 0, len(targets))
	for a := range targets {
		addrs = append(addrs, int(a))
	}
	sort.Ints(addrs)

	labels := make(map[uint16]int, len(addrs))
	for i, a := range addrs {
		labels[uint16(a)] = i
	}
	return labels
}
