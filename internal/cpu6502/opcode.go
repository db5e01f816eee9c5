// Package cpu6502 provides a static 6502 instruction decoder and a
// recursive-descent control-flow scanner used to classify the bytes of a
// binary image as code or data prior to relocation.
package cpu6502

import "fmt"

// AddrMode is one of the 13 6502 addressing modes.
type AddrMode int

const (
	Implied AddrMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndirectX
	IndirectY
	Relative
)

// modeLength maps an addressing mode to its fixed instruction length in
// bytes, per the closed set spec.md defines.
var modeLength = [...]int{
	Implied:     1,
	Accumulator: 1,
	Immediate:   2,
	ZeroPage:    2,
	ZeroPageX:   2,
	ZeroPageY:   2,
	Absolute:    3,
	AbsoluteX:   3,
	AbsoluteY:   3,
	Indirect:    3,
	IndirectX:   2,
	IndirectY:   2,
	Relative:    2,
}

// Length returns the fixed instruction length, in bytes, for mode.
func Length(mode AddrMode) int {
	return modeLength[mode]
}

// AbsoluteOperand reports whether mode carries a 16-bit absolute address
// operand and is therefore a candidate for relocation rewriting.
func AbsoluteOperand(mode AddrMode) bool {
	switch mode {
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return true
	default:
		return false
	}
}

// Instruction is the (mnemonic, addressing-mode) pair for a single opcode
// byte.
type Instruction struct {
	Mnemonic string
	Mode     AddrMode
}

// ControlFlow classifies the effect an instruction has on the scanner's
// descent through the image.
type ControlFlow int

const (
	// FlowSequential instructions fall through to the next instruction.
	FlowSequential ControlFlow = iota
	// FlowBranch is a relative branch (BCC, BEQ, ...).
	FlowBranch
	// FlowJumpAbsolute is JMP with an absolute operand.
	FlowJumpAbsolute
	// FlowJumpIndirect is JMP (indirect) - target unknowable statically.
	FlowJumpIndirect
	// FlowCall is JSR.
	FlowCall
	// FlowTerminate is RTS, RTI, BRK, or a halting opcode (JAM/KIL).
	FlowTerminate
)

// Flow returns the control-flow classification for mnemonic, used by the
// scanner to decide how to continue a descent path.
func Flow(mnemonic string) ControlFlow {
	switch mnemonic {
	case "BPL", "BMI", "BVC", "BVS", "BCC", "BCS", "BNE", "BEQ":
		return FlowBranch
	case "JMPA":
		return FlowJumpAbsolute
	case "JMPI":
		return FlowJumpIndirect
	case "JSR":
		return FlowCall
	case "RTS", "RTI", "BRK", "JAM":
		return FlowTerminate
	default:
		return FlowSequential
	}
}

// table is the dense 256-entry constant opcode table. Index by opcode byte
// value. A zero-value Instruction (empty Mnemonic) marks an undefined
// opcode. Built once in init() from the opcode literal list below, the same
// "flat list of facts, populated once" shape the teacher uses for its
// OpCodesMap, but backed by an array rather than a map so lookup never
// branches on a hash.
var table [256]Instruction

var defined [256]bool

var undocumented [256]bool

type opcodeEntry struct {
	value    byte
	mnemonic string
	mode     AddrMode
}

// opcodes is the full set of 256 opcode definitions: all documented 6502
// instructions, every illegal/unofficial opcode named in spec.md (SLO, RLA,
// SRE, RRA, SAX, LAX, DCP, ISC, ANC, ALR, ARR, ANE, LXA, SBX, the
// unofficial SBC duplicate, SHA, SHY, SHX, TAS, LAS), every NOP variant
// (1-, 2- and 3-byte forms), and the JAM/KIL halt family.
//
// JMP absolute and JMP indirect are split into distinct internal mnemonics
// (JMPA / JMPI) purely so Flow() can tell them apart; Mnemonic as printed
// to a caller should still read "JMP" - see Instruction.DisplayMnemonic.
var opcodes = []opcodeEntry{
	// ADC
	{0x69, "ADC", Immediate}, {0x65, "ADC", ZeroPage}, {0x75, "ADC", ZeroPageX},
	{0x6D, "ADC", Absolute}, {0x7D, "ADC", AbsoluteX}, {0x79, "ADC", AbsoluteY},
	{0x61, "ADC", IndirectX}, {0x71, "ADC", IndirectY},

	// AND
	{0x29, "AND", Immediate}, {0x25, "AND", ZeroPage}, {0x35, "AND", ZeroPageX},
	{0x2D, "AND", Absolute}, {0x3D, "AND", AbsoluteX}, {0x39, "AND", AbsoluteY},
	{0x21, "AND", IndirectX}, {0x31, "AND", IndirectY},

	// ASL
	{0x0A, "ASL", Accumulator}, {0x06, "ASL", ZeroPage}, {0x16, "ASL", ZeroPageX},
	{0x0E, "ASL", Absolute}, {0x1E, "ASL", AbsoluteX},

	// Branches
	{0x10, "BPL", Relative}, {0x30, "BMI", Relative}, {0x50, "BVC", Relative},
	{0x70, "BVS", Relative}, {0x90, "BCC", Relative}, {0xB0, "BCS", Relative},
	{0xD0, "BNE", Relative}, {0xF0, "BEQ", Relative},

	{0x24, "BIT", ZeroPage}, {0x2C, "BIT", Absolute},

	{0x00, "BRK", Implied},

	// Compare
	{0xC9, "CMP", Immediate}, {0xC5, "CMP", ZeroPage}, {0xD5, "CMP", ZeroPageX},
	{0xCD, "CMP", Absolute}, {0xDD, "CMP", AbsoluteX}, {0xD9, "CMP", AbsoluteY},
	{0xC1, "CMP", IndirectX}, {0xD1, "CMP", IndirectY},
	{0xE0, "CPX", Immediate}, {0xE4, "CPX", ZeroPage}, {0xEC, "CPX", Absolute},
	{0xC0, "CPY", Immediate}, {0xC4, "CPY", ZeroPage}, {0xCC, "CPY", Absolute},

	// Flags
	{0x18, "CLC", Implied}, {0x38, "SEC", Implied}, {0x58, "CLI", Implied},
	{0x78, "SEI", Implied}, {0xB8, "CLV", Implied}, {0xD8, "CLD", Implied},
	{0xF8, "SED", Implied},

	// DEC/INC
	{0xC6, "DEC", ZeroPage}, {0xD6, "DEC", ZeroPageX}, {0xCE, "DEC", Absolute}, {0xDE, "DEC", AbsoluteX},
	{0xCA, "DEX", Implied}, {0x88, "DEY", Implied},
	{0xE6, "INC", ZeroPage}, {0xF6, "INC", ZeroPageX}, {0xEE, "INC", Absolute}, {0xFE, "INC", AbsoluteX},
	{0xE8, "INX", Implied}, {0xC8, "INY", Implied},

	// EOR
	{0x49, "EOR", Immediate}, {0x45, "EOR", ZeroPage}, {0x55, "EOR", ZeroPageX},
	{0x4D, "EOR", Absolute}, {0x5D, "EOR", AbsoluteX}, {0x59, "EOR", AbsoluteY},
	{0x41, "EOR", IndirectX}, {0x51, "EOR", IndirectY},

	// JMP / JSR
	{0x4C, "JMPA", Absolute}, {0x6C, "JMPI", Indirect}, {0x20, "JSR", Absolute},

	// LDA/LDX/LDY
	{0xA9, "LDA", Immediate}, {0xA5, "LDA", ZeroPage}, {0xB5, "LDA", ZeroPageX},
	{0xAD, "LDA", Absolute}, {0xBD, "LDA", AbsoluteX}, {0xB9, "LDA", AbsoluteY},
	{0xA1, "LDA", IndirectX}, {0xB1, "LDA", IndirectY},
	{0xA2, "LDX", Immediate}, {0xA6, "LDX", ZeroPage}, {0xB6, "LDX", ZeroPageY},
	{0xAE, "LDX", Absolute}, {0xBE, "LDX", AbsoluteY},
	{0xA0, "LDY", Immediate}, {0xA4, "LDY", ZeroPage}, {0xB4, "LDY", ZeroPageX},
	{0xAC, "LDY", Absolute}, {0xBC, "LDY", AbsoluteX},

	// LSR
	{0x4A, "LSR", Accumulator}, {0x46, "LSR", ZeroPage}, {0x56, "LSR", ZeroPageX},
	{0x4E, "LSR", Absolute}, {0x5E, "LSR", AbsoluteX},

	{0xEA, "NOP", Implied},

	// ORA
	{0x09, "ORA", Immediate}, {0x05, "ORA", ZeroPage}, {0x15, "ORA", ZeroPageX},
	{0x0D, "ORA", Absolute}, {0x1D, "ORA", AbsoluteX}, {0x19, "ORA", AbsoluteY},
	{0x01, "ORA", IndirectX}, {0x11, "ORA", IndirectY},

	// Register / stack transfers
	{0xAA, "TAX", Implied}, {0x8A, "TXA", Implied}, {0xA8, "TAY", Implied}, {0x98, "TYA", Implied},
	{0x9A, "TXS", Implied}, {0xBA, "TSX", Implied},
	{0x48, "PHA", Implied}, {0x68, "PLA", Implied}, {0x08, "PHP", Implied}, {0x28, "PLP", Implied},

	// ROL/ROR
	{0x2A, "ROL", Accumulator}, {0x26, "ROL", ZeroPage}, {0x36, "ROL", ZeroPageX},
	{0x2E, "ROL", Absolute}, {0x3E, "ROL", AbsoluteX},
	{0x6A, "ROR", Accumulator}, {0x66, "ROR", ZeroPage}, {0x76, "ROR", ZeroPageX},
	{0x6E, "ROR", Absolute}, {0x7E, "ROR", AbsoluteX},

	{0x40, "RTI", Implied}, {0x60, "RTS", Implied},

	// SBC
	{0xE9, "SBC", Immediate}, {0xE5, "SBC", ZeroPage}, {0xF5, "SBC", ZeroPageX},
	{0xED, "SBC", Absolute}, {0xFD, "SBC", AbsoluteX}, {0xF9, "SBC", AbsoluteY},
	{0xE1, "SBC", IndirectX}, {0xF1, "SBC", IndirectY},

	// STA/STX/STY
	{0x85, "STA", ZeroPage}, {0x95, "STA", ZeroPageX}, {0x8D, "STA", Absolute},
	{0x9D, "STA", AbsoluteX}, {0x99, "STA", AbsoluteY}, {0x81, "STA", IndirectX}, {0x91, "STA", IndirectY},
	{0x86, "STX", ZeroPage}, {0x96, "STX", ZeroPageY}, {0x8E, "STX", Absolute},
	{0x84, "STY", ZeroPage}, {0x94, "STY", ZeroPageX}, {0x8C, "STY", Absolute},

	// --- Illegal / unofficial opcodes ---

	{0x07, "SLO", ZeroPage}, {0x17, "SLO", ZeroPageX}, {0x0F, "SLO", Absolute},
	{0x1F, "SLO", AbsoluteX}, {0x1B, "SLO", AbsoluteY}, {0x03, "SLO", IndirectX}, {0x13, "SLO", IndirectY},

	{0x27, "RLA", ZeroPage}, {0x37, "RLA", ZeroPageX}, {0x2F, "RLA", Absolute},
	{0x3F, "RLA", AbsoluteX}, {0x3B, "RLA", AbsoluteY}, {0x23, "RLA", IndirectX}, {0x33, "RLA", IndirectY},

	{0x47, "SRE", ZeroPage}, {0x57, "SRE", ZeroPageX}, {0x4F, "SRE", Absolute},
	{0x5F, "SRE", AbsoluteX}, {0x5B, "SRE", AbsoluteY}, {0x43, "SRE", IndirectX}, {0x53, "SRE", IndirectY},

	{0x67, "RRA", ZeroPage}, {0x77, "RRA", ZeroPageX}, {0x6F, "RRA", Absolute},
	{0x7F, "RRA", AbsoluteX}, {0x7B, "RRA", AbsoluteY}, {0x63, "RRA", IndirectX}, {0x73, "RRA", IndirectY},

	{0x87, "SAX", ZeroPage}, {0x97, "SAX", ZeroPageY}, {0x8F, "SAX", Absolute}, {0x83, "SAX", IndirectX},

	{0xA7, "LAX", ZeroPage}, {0xB7, "LAX", ZeroPageY}, {0xAF, "LAX", Absolute},
	{0xBF, "LAX", AbsoluteY}, {0xA3, "LAX", IndirectX}, {0xB3, "LAX", IndirectY},

	{0xC7, "DCP", ZeroPage}, {0xD7, "DCP", ZeroPageX}, {0xCF, "DCP", Absolute},
	{0xDF, "DCP", AbsoluteX}, {0xDB, "DCP", AbsoluteY}, {0xC3, "DCP", IndirectX}, {0xD3, "DCP", IndirectY},

	{0xE7, "ISC", ZeroPage}, {0xF7, "ISC", ZeroPageX}, {0xEF, "ISC", Absolute},
	{0xFF, "ISC", AbsoluteX}, {0xFB, "ISC", AbsoluteY}, {0xE3, "ISC", IndirectX}, {0xF3, "ISC", IndirectY},

	{0x0B, "ANC", Immediate}, {0x2B, "ANC", Immediate},
	{0x4B, "ALR", Immediate},
	{0x6B, "ARR", Immediate},
	{0x8B, "ANE", Immediate},
	{0xAB, "LXA", Immediate},
	{0xCB, "SBX", Immediate},
	{0xEB, "USBC", Immediate}, // unofficial duplicate of SBC #imm

	{0x93, "SHA", IndirectY}, {0x9F, "SHA", AbsoluteY},
	{0x9C, "SHY", AbsoluteX},
	{0x9E, "SHX", AbsoluteY},
	{0x9B, "TAS", AbsoluteY},
	{0xBB, "LAS", AbsoluteY},

	// NOP variants
	{0x1A, "NOP", Implied}, {0x3A, "NOP", Implied}, {0x5A, "NOP", Implied},
	{0x7A, "NOP", Implied}, {0xDA, "NOP", Implied}, {0xFA, "NOP", Implied},

	{0x80, "NOP", Immediate}, {0x82, "NOP", Immediate}, {0x89, "NOP", Immediate},
	{0xC2, "NOP", Immediate}, {0xE2, "NOP", Immediate},

	{0x04, "NOP", ZeroPage}, {0x44, "NOP", ZeroPage}, {0x64, "NOP", ZeroPage},

	{0x14, "NOP", ZeroPageX}, {0x34, "NOP", ZeroPageX}, {0x54, "NOP", ZeroPageX},
	{0x74, "NOP", ZeroPageX}, {0xD4, "NOP", ZeroPageX}, {0xF4, "NOP", ZeroPageX},

	{0x0C, "NOP", Absolute},

	{0x1C, "NOP", AbsoluteX}, {0x3C, "NOP", AbsoluteX}, {0x5C, "NOP", AbsoluteX},
	{0x7C, "NOP", AbsoluteX}, {0xDC, "NOP", AbsoluteX}, {0xFC, "NOP", AbsoluteX},

	// CPU-halt family (JAM/KIL/HLT). Any execution reaching one of these
	// locks the CPU; the scanner treats JAM exactly like RTS/RTI/BRK and
	// terminates the descent path.
	{0x02, "JAM", Implied}, {0x12, "JAM", Implied}, {0x22, "JAM", Implied}, {0x32, "JAM", Implied},
	{0x42, "JAM", Implied}, {0x52, "JAM", Implied}, {0x62, "JAM", Implied}, {0x72, "JAM", Implied},
	{0x92, "JAM", Implied}, {0xB2, "JAM", Implied}, {0xD2, "JAM", Implied}, {0xF2, "JAM", Implied},
}

// undocumentedOpcodes lists every opcode byte that is illegal/unofficial:
// the SLO/RLA/SRE/RRA/SAX/LAX/DCP/ISC families, the single-byte-operand
// oddities (ANC, ALR, ARR, ANE, LXA, SBX, the SBC duplicate), SHA/SHY/SHX/
// TAS/LAS, every unofficial NOP encoding, and the JAM/KIL halt family.
var undocumentedOpcodes = []byte{
	0x07, 0x17, 0x0F, 0x1F, 0x1B, 0x03, 0x13, // SLO
	0x27, 0x37, 0x2F, 0x3F, 0x3B, 0x23, 0x33, // RLA
	0x47, 0x57, 0x4F, 0x5F, 0x5B, 0x43, 0x53, // SRE
	0x67, 0x77, 0x6F, 0x7F, 0x7B, 0x63, 0x73, // RRA
	0x87, 0x97, 0x8F, 0x83, // SAX
	0xA7, 0xB7, 0xAF, 0xBF, 0xA3, 0xB3, // LAX
	0xC7, 0xD7, 0xCF, 0xDF, 0xDB, 0xC3, 0xD3, // DCP
	0xE7, 0xF7, 0xEF, 0xFF, 0xFB, 0xE3, 0xF3, // ISC
	0x0B, 0x2B, // ANC
	0x4B, // ALR
	0x6B, // ARR
	0x8B, // ANE
	0xAB, // LXA
	0xCB, // SBX
	0xEB, // USBC (unofficial SBC duplicate)
	0x93, 0x9F, // SHA
	0x9C, // SHY
	0x9E, // SHX
	0x9B, // TAS
	0xBB, // LAS
	0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA, // unofficial 1-byte NOPs
	0x80, 0x82, 0x89, 0xC2, 0xE2, // unofficial 2-byte immediate NOPs
	0x04, 0x44, 0x64, // unofficial zero-page NOPs
	0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4, // unofficial zero-page,X NOPs
	0x0C, // unofficial absolute NOP
	0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC, // unofficial absolute,X NOPs
	0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2, // JAM
}

func init() {
	for _, e := range opcodes {
		if defined[e.value] {
			panic(fmt.Sprintf("cpu6502: duplicate opcode definition for 0x%02X", e.value))
		}
		table[e.value] = Instruction{Mnemonic: e.mnemonic, Mode: e.mode}
		defined[e.value] = true
	}
	for _, b := range undocumentedOpcodes {
		undocumented[b] = true
	}
}

// Lookup returns the instruction record for opcode byte b, or ok=false if
// b has no decoder entry (cannot happen for a complete 256-entry table,
// but the contract is kept explicit per spec.md §4.1).
func Lookup(b byte) (Instruction, bool) {
	return table[b], defined[b]
}

// DisplayMnemonic returns the mnemonic as it should be shown to a human
// reader: the internal JMPA/JMPI split collapses back to "JMP".
func (in Instruction) DisplayMnemonic() string {
	switch in.Mnemonic {
	case "JMPA", "JMPI":
		return "JMP"
	default:
		return in.Mnemonic
	}
}

// Undocumented reports whether opcode byte b is an illegal/unofficial
// 6502 instruction (including unofficial NOP and JAM/KIL encodings).
func Undocumented(b byte) bool {
	return undocumented[b]
}
