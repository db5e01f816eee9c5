package cpu6502

import "testing"

func TestLookupCoversAllOpcodes(t *testing.T) {
	for i := 0; i < 256; i++ {
		if _, ok := Lookup(byte(i)); !ok {
			t.Fatalf("opcode 0x%02X has no decoder entry", i)
		}
	}
}

func TestLengthByMode(t *testing.T) {
	cases := []struct {
		mode AddrMode
		want int
	}{
		{Implied, 1}, {Accumulator, 1}, {Immediate, 2}, {ZeroPage, 2},
		{ZeroPageX, 2}, {ZeroPageY, 2}, {Absolute, 3}, {AbsoluteX, 3},
		{AbsoluteY, 3}, {Indirect, 3}, {IndirectX, 2}, {IndirectY, 2}, {Relative, 2},
	}
	for _, c := range cases {
		if got := Length(c.mode); got != c.want {
			t.Errorf("Length(%v) = %d, want %d", c.mode, got, c.want)
		}
	}
}

func TestAbsoluteOperandModes(t *testing.T) {
	want := map[AddrMode]bool{Absolute: true, AbsoluteX: true, AbsoluteY: true, Indirect: true}
	for m := Implied; m <= Relative; m++ {
		if got := AbsoluteOperand(m); got != want[m] {
			t.Errorf("AbsoluteOperand(%v) = %v, want %v", m, got, want[m])
		}
	}
}

func TestIllegalOpcodesPresent(t *testing.T) {
	cases := map[byte]string{
		0x07: "SLO", 0x27: "RLA", 0x47: "SRE", 0x67: "RRA",
		0x87: "SAX", 0xA7: "LAX", 0xC7: "DCP", 0xE7: "ISC",
		0x0B: "ANC", 0x4B: "ALR", 0x6B: "ARR", 0x8B: "ANE",
		0xAB: "LXA", 0xCB: "SBX", 0x93: "SHA", 0x9C: "SHY",
		0x9E: "SHX", 0x9B: "TAS", 0xBB: "LAS",
	}
	for b, want := range cases {
		in, ok := Lookup(b)
		if !ok || in.Mnemonic != want {
			t.Errorf("Lookup(0x%02X) = %+v, ok=%v, want %s", b, in, ok, want)
		}
		if !Undocumented(b) {
			t.Errorf("Undocumented(0x%02X) = false, want true for %s", b, want)
		}
	}
}

func TestDocumentedNOPNotUndocumented(t *testing.T) {
	if Undocumented(0xEA) {
		t.Error("0xEA (documented NOP) should not be flagged undocumented")
	}
	if !Undocumented(0x1A) {
		t.Error("0x1A (unofficial 1-byte NOP) should be flagged undocumented")
	}
}

func TestJAMFamilyTerminates(t *testing.T) {
	jams := []byte{0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2}
	for _, b := range jams {
		in, ok := Lookup(b)
		if !ok || in.Mnemonic != "JAM" {
			t.Fatalf("Lookup(0x%02X) = %+v, want JAM", b, in)
		}
		if Flow(in.Mnemonic) != FlowTerminate {
			t.Errorf("Flow(JAM) = %v, want FlowTerminate", Flow(in.Mnemonic))
		}
		if Length(in.Mode) != 1 {
			t.Errorf("JAM 0x%02X length = %d, want 1", b, Length(in.Mode))
		}
	}
}

func TestDisplayMnemonicCollapsesJMP(t *testing.T) {
	abs, _ := Lookup(0x4C)
	ind, _ := Lookup(0x6C)
	if abs.DisplayMnemonic() != "JMP" || ind.DisplayMnemonic() != "JMP" {
		t.Errorf("DisplayMnemonic: got %q / %q, want JMP / JMP", abs.DisplayMnemonic(), ind.DisplayMnemonic())
	}
	if Flow(abs.Mnemonic) != FlowJumpAbsolute {
		t.Errorf("Flow(JMPA) = %v, want FlowJumpAbsolute", Flow(abs.Mnemonic))
	}
	if Flow(ind.Mnemonic) != FlowJumpIndirect {
		t.Errorf("Flow(JMPI) = %v, want FlowJumpIndirect", Flow(ind.Mnemonic))
	}
}
