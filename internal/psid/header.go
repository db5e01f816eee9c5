// Package psid reads PSID/RSID container files and produces the
// relocation job record the relocate package's core consumes. Layout
// parsing here mirrors the fixed-field extraction style of the legacy
// Acorn DFS catalog reader this project's disassembler ancestor used:
// named offsets, big-endian multi-byte fields, no generic deserializer.
package psid

import (
	"encoding/binary"
	"fmt"
)

const (
	headerMagicPSID = "PSID"
	headerMagicRSID = "RSID"
	minHeaderLen    = 0x76
)

// Header is the subset of PSID/RSID header fields the relocator cares
// about. Name/Author/Released are kept for diagnostics and the
// generated assembler include file; none of it crosses into the core.
type Header struct {
	Magic         string
	Version       uint16
	DataOffset    uint16
	LoadAddress   uint16
	InitAddress   uint16
	PlayAddress   uint16
	Songs         uint16
	StartSong     uint16
	Name          string
	Author        string
	Released      string
	SecondSIDAddr byte // 0 if absent (v1)
	ThirdSIDAddr  byte // 0 if absent (pre-v3)
}

// RelocationJob is the record handed to relocate.Relocate, per the data
// flow of a multi-tune build: one job per source tune.
type RelocationJob struct {
	Base        uint16
	DataEnd     uint16
	EntryPoints []uint16
	Bytes       []byte
	Header      Header
}

// Parse reads a PSID or RSID file and returns the job the core needs to
// relocate it. It subtracts the embedded load-address prefix when the
// header's load field is zero (PSID v1 convention, still honored by
// later versions when the field is left at zero).
func Parse(raw []byte) (RelocationJob, error) {
	if len(raw) < minHeaderLen {
		return RelocationJob{}, fmt.Errorf("psid: file too short for a header (%d bytes)", len(raw))
	}

	magic := string(raw[0:4])
	if magic != headerMagicPSID && magic != headerMagicRSID {
		return RelocationJob{}, fmt.Errorf("psid: bad magic %q, want PSID or RSID", magic)
	}

	h := Header{
		Magic:       magic,
		Version:     binary.BigEndian.Uint16(raw[4:6]),
		DataOffset:  binary.BigEndian.Uint16(raw[6:8]),
		LoadAddress: binary.BigEndian.Uint16(raw[8:10]),
		InitAddress: binary.BigEndian.Uint16(raw[10:12]),
		PlayAddress: binary.BigEndian.Uint16(raw[12:14]),
		Songs:       binary.BigEndian.Uint16(raw[14:16]),
		StartSong:   binary.BigEndian.Uint16(raw[16:18]),
		Name:        readFixedString(raw, 0x16, 32),
		Author:      readFixedString(raw, 0x36, 32),
		Released:    readFixedString(raw, 0x56, 32),
	}

	if h.Version >= 2 && len(raw) > 0x7B {
		h.SecondSIDAddr = raw[0x7A]
		if h.Version >= 3 {
			h.ThirdSIDAddr = raw[0x7B]
		}
	}

	dataOff := int(h.DataOffset)
	if dataOff == 0 || dataOff > len(raw) {
		dataOff = minHeaderLen
	}
	if dataOff > len(raw) {
		return RelocationJob{}, fmt.Errorf("psid: data offset %#x past end of file (%d bytes)", dataOff, len(raw))
	}
	body := raw[dataOff:]

	base := h.LoadAddress
	if base == 0 {
		if len(body) < 2 {
			return RelocationJob{}, fmt.Errorf("psid: load_address is 0 but body has no embedded address prefix")
		}
		base = binary.LittleEndian.Uint16(body[0:2])
		body = body[2:]
	}

	entries := entryPoints(h)
	if len(entries) == 0 {
		return RelocationJob{}, fmt.Errorf("psid: header names no init or play address")
	}

	return RelocationJob{
		Base:        base,
		DataEnd:     base + uint16(len(body)),
		EntryPoints: entries,
		Bytes:       body,
		Header:      h,
	}, nil
}

func entryPoints(h Header) []uint16 {
	var out []uint16
	seen := make(map[uint16]bool)
	for _, a := range []uint16{h.InitAddress, h.PlayAddress} {
		if a == 0 || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

func readFixedString(raw []byte, off, length int) string {
	if off+length > len(raw) {
		return ""
	}
	field := raw[off : off+length]
	n := 0
	for n < len(field) && field[n] != 0 {
		n++
	}
	return string(field[:n])
}
