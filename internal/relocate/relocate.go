// Package relocate implements the three-stage 6502 binary relocator: code
// operand rewriting, pointer-table discovery, and data-byte rewriting. It
// is the exclusive subject of spec.md §4.3 and consumes the cpu6502
// package's scanner output.
package relocate

import (
	"fmt"
	"sort"

	"github.com/sidreloc/sidreloc/internal/cpu6502"
)

// SID register window, fixed per spec.md §6.3.
const (
	sidBase = 0xD400
	sidTop  = 0xD41F // inclusive
)

// Plan is the relocation plan record of spec.md §3.
type Plan struct {
	OriginalBase uint16
	NewBase      uint16
	SIDOffset    uint8 // one of 0x00, 0x20, 0x40, 0x60
	DataEnd      uint16
	EntryPoints  []uint16
}

// Delta returns the signed relocation delta, new_base - original_base.
func (p Plan) Delta() int { return int(p.NewBase) - int(p.OriginalBase) }

// HiDelta returns the hi-byte delta: the high 8 bits of Delta, used to
// adjust the high byte of an internal pointer in Stage C.
func (p Plan) HiDelta() byte { return byte((p.Delta() >> 8) & 0xFF) }

// Stats is the statistics record of spec.md §6.2.
type Stats struct {
	CodeBytes      int
	DataBytes      int
	RelocCount     int
	SIDPatchCount  int
	DataHiBPatches int
	SIDRefs        map[uint16]uint32
}

// Result is the RelocationResult of spec.md §6.2.
type Result struct {
	Bytes []byte
	Log   []string
	Stats Stats
}

// Relocate runs the three-stage patcher over bytes per plan and returns the
// patched image, a human-readable patch log, and statistics. bytes is
// never mutated; Result.Bytes is always len(bytes) long.
//
// The only fatal condition is a malformed input image (spec.md §4.4):
// DataEnd <= OriginalBase, an empty entry-point set, or an empty byte
// slice.
func Relocate(bytes []byte, plan Plan) (Result, error) {
	if len(bytes) == 0 {
		return Result{}, fmt.Errorf("relocate: empty image")
	}
	if len(plan.EntryPoints) == 0 {
		return Result{}, fmt.Errorf("relocate: no entry points")
	}
	if plan.DataEnd <= plan.OriginalBase {
		return Result{}, fmt.Errorf("relocate: data_end (0x%04X) <= original_base (0x%04X)", plan.DataEnd, plan.OriginalBase)
	}

	orig := append([]byte(nil), bytes...)
	out := append([]byte(nil), bytes...)

	scan := cpu6502.Scan(bytes, plan.OriginalBase, plan.EntryPoints)

	stats := Stats{SIDRefs: make(map[uint16]uint32)}
	var log []string

	delta := plan.Delta()

	starts := sortedOffsets(scan.InstructionStarts)

	// --- Stage A: code operand rewriting ---
	for _, off := range starts {
		in, ok := cpu6502.Lookup(orig[off])
		if !ok || !cpu6502.AbsoluteOperand(in.Mode) {
			continue
		}
		if off+3 > len(orig) {
			continue // scanner never confirms a truncated instruction, but guard anyway
		}
		a := uint16(orig[off+1]) | uint16(orig[off+2])<<8

		switch {
		case a >= sidBase && a <= sidTop && plan.SIDOffset != 0:
			newA := a + uint16(plan.SIDOffset)
			writeLE(out, off+1, newA)
			stats.SIDPatchCount++
			stats.SIDRefs[a]++
			log = append(log, fmt.Sprintf("stageA sid offset=%#04x: $%04X -> $%04X", off, a, newA))
		case a >= plan.OriginalBase && a < plan.DataEnd && delta != 0:
			newA := uint16(int(a) + delta)
			writeLE(out, off+1, newA)
			stats.RelocCount++
			log = append(log, fmt.Sprintf("stageA reloc offset=%#04x: $%04X -> $%04X", off, a, newA))
		default:
			// external I/O, KERNAL/BASIC ROM, zero page, etc: leave unchanged
		}
	}

	// --- Stage B: data pointer table discovery (only when delta != 0) ---
	var hiTables []hiTable
	var interleaved []interleavedPair
	var fallback []fallbackTable
	if delta != 0 {
		accesses := collectTableAccesses(orig, plan.OriginalBase, scan, starts)
		imgEnd := plan.OriginalBase + uint16(len(orig))
		hiTables, interleaved, fallback = classifyTables(accesses, plan.OriginalBase, imgEnd)
	}

	// --- Stage C: data byte rewriting ---
	hiDelta := plan.HiDelta()
	loHi := int(plan.OriginalBase >> 8)
	hiHi := int((plan.DataEnd - 1) >> 8)

	patchByte := func(off int) bool {
		if off < 0 || off >= len(out) {
			return false
		}
		if scan.CodeOffsets[off] {
			return false
		}
		cur := out[off]
		if cur != orig[off] {
			return false // already patched; idempotence guard
		}
		if int(cur) < loHi || int(cur) > hiHi {
			return false
		}
		next := cur + hiDelta
		if next == cur {
			return false
		}
		out[off] = next
		return true
	}

	if delta != 0 {
		// Category 1: confirmed split hi-byte tables.
		for _, tbl := range hiTables {
			for off := int(tbl.base); off < int(tbl.base)+tbl.size && off-int(plan.OriginalBase) < len(out); off++ {
				imgOff := off - int(plan.OriginalBase)
				if patchByte(imgOff) {
					stats.DataHiBPatches++
					log = append(log, fmt.Sprintf("stageC hibyte table base=$%04X offset=%#04x", tbl.base, imgOff))
				}
			}
		}

		// Category 2: interleaved pairs.
		for _, p := range interleaved {
			n := patchInterleavedPair(out, orig, p, plan, scan.CodeOffsets, loHi, hiHi, hiDelta)
			stats.DataHiBPatches += n
			if n > 0 {
				log = append(log, fmt.Sprintf("stageC interleaved lo=$%04X hi=$%04X patched=%d", p.loBase, p.hiBase, n))
			}
		}

		// Category 3: heuristic fallback.
		for _, f := range fallback {
			n := patchHeuristicFallback(out, orig, f, plan, scan.CodeOffsets, loHi, hiHi, hiDelta)
			stats.DataHiBPatches += n
			if n > 0 {
				log = append(log, fmt.Sprintf("stageC heuristic base=$%04X patched=%d", f.base, n))
			}
		}
	}

	stats.CodeBytes = len(scan.CodeOffsets)
	stats.DataBytes = len(out) - stats.CodeBytes

	return Result{Bytes: out, Log: log, Stats: stats}, nil
}

func writeLE(out []byte, off int, v uint16) {
	out[off] = byte(v)
	out[off+1] = byte(v >> 8)
}

func sortedOffsets(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
