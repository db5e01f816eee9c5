package relocate

import (
	"sort"

	"github.com/sidreloc/sidreloc/internal/cpu6502"
)

// tableAccess is a single observed table-indexed load, spec.md §4.3.2
// Phase 1's (table_base, dest_zp) record. destZP is nil when the forward
// scan could not determine a destination zero-page address ("unknown").
type tableAccess struct {
	base   uint16
	destZP *byte
}

type hiTable struct {
	base uint16
	size int
}

type interleavedPair struct {
	loBase uint16
	hiBase uint16
	size   int
}

type fallbackTable struct {
	base uint16
	size int
}

// collectTableAccesses implements Phase 1: for every decoded LDA/LDX/LDY
// instruction addressed absolute,X or absolute,Y whose address points into
// a data byte of the image, record the access and the result of a bounded
// forward scan for the following STA zp.
func collectTableAccesses(orig []byte, base uint16, scan cpu6502.ScanResult, starts []int) []tableAccess {
	var accesses []tableAccess
	for i, off := range starts {
		in, ok := cpu6502.Lookup(orig[off])
		if !ok || !isLoad(in.Mnemonic) {
			continue
		}
		if in.Mode != cpu6502.AbsoluteX && in.Mode != cpu6502.AbsoluteY {
			continue
		}
		if off+3 > len(orig) {
			continue
		}
		addr := uint16(orig[off+1]) | uint16(orig[off+2])<<8
		imgOff := int(addr) - int(base)
		if imgOff < 0 || imgOff >= len(orig) || scan.CodeOffsets[imgOff] {
			continue // table_base must point into a data byte
		}

		access := tableAccess{base: addr}
		if zp, ok := forwardScanForStore(orig, starts, i+1); ok {
			v := zp
			access.destZP = &v
		}
		accesses = append(accesses, access)
	}
	return accesses
}

// forwardScanForStore looks at up to three confirmed instruction-starts,
// beginning at index from of starts, per spec.md §4.3.2 Phase 1: a
// bounded tagged search (design note §9), not recursion. Returns the zero
// page address of a qualifying "STA zp" and ok=true, or ok=false if the
// scan hits any other store, a second load, a control-flow change, or runs
// out of budget.
func forwardScanForStore(orig []byte, starts []int, from int) (zp byte, ok bool) {
	const budget = 3
	for i, steps := from, 0; i < len(starts) && steps < budget; i, steps = i+1, steps+1 {
		off := starts[i]
		in, decOK := cpu6502.Lookup(orig[off])
		if !decOK {
			return 0, false
		}
		switch {
		case in.Mnemonic == "STA" && in.Mode == cpu6502.ZeroPage:
			return orig[off+1], true
		case isStore(in.Mnemonic):
			return 0, false // a different store
		case isLoad(in.Mnemonic):
			return 0, false // a second load before any store
		case cpu6502.Flow(in.Mnemonic) != cpu6502.FlowSequential:
			return 0, false // any control-flow change
		}
	}
	return 0, false
}

func isLoad(mnemonic string) bool {
	return mnemonic == "LDA" || mnemonic == "LDX" || mnemonic == "LDY"
}

func isStore(mnemonic string) bool {
	return mnemonic == "STA" || mnemonic == "STX" || mnemonic == "STY"
}

// classifyTables implements spec.md §4.3.2 Phases 2-4: split-table
// confirmation, interleaved-pair detection, and size inference. base is
// the image's original load address; imgEnd is its logical end
// (base + length).
func classifyTables(accesses []tableAccess, base uint16, imgEnd uint16) ([]hiTable, []interleavedPair, []fallbackTable) {
	type info struct {
		sawOdd, sawEven bool
	}
	byBase := make(map[uint16]*info)
	var order []uint16
	for _, a := range accesses {
		in, ok := byBase[a.base]
		if !ok {
			in = &info{}
			byBase[a.base] = in
			order = append(order, a.base)
		}
		if a.destZP != nil {
			if *a.destZP%2 == 1 {
				in.sawOdd = true
			} else {
				in.sawEven = true
			}
		}
	}

	bases := append([]uint16(nil), order...)
	sort.Slice(bases, func(i, j int) bool { return bases[i] < bases[j] })

	isHi := make(map[uint16]bool)
	isLo := make(map[uint16]bool)
	for _, b := range bases {
		in := byBase[b]
		switch {
		case in.sawOdd:
			isHi[b] = true
		case in.sawEven:
			isLo[b] = true
		}
	}

	baseSet := make(map[uint16]bool, len(bases))
	for _, b := range bases {
		baseSet[b] = true
	}

	// Phase 3: each base belongs to at most one interleaved pair; scan
	// ascending so the lowest candidate claims a pair first.
	pairedLo := make(map[uint16]bool)
	pairedHi := make(map[uint16]bool)
	var rawPairs []interleavedPair
	for _, b := range bases {
		if pairedLo[b] || pairedHi[b] {
			continue
		}
		hi := b + 1
		if baseSet[hi] && !pairedLo[hi] && !pairedHi[hi] {
			pairedLo[b] = true
			pairedHi[hi] = true
			rawPairs = append(rawPairs, interleavedPair{loBase: b, hiBase: hi})
		}
	}

	nextHigher := func(b uint16) (uint16, bool) {
		for _, c := range bases {
			if c > b {
				return c, true
			}
		}
		return 0, false
	}
	// nextNonPaired is nextHigher but skips over any base that itself
	// belongs to an interleaved pair (its own or another one), per
	// spec.md:104 - an interleaved pair's size extends past a paired
	// hi-base to the next base that isn't part of any pair.
	nextNonPaired := func(b uint16) (uint16, bool) {
		for _, c := range bases {
			if c > b && !pairedLo[c] && !pairedHi[c] {
				return c, true
			}
		}
		return 0, false
	}
	nearestLower := func(b uint16) (uint16, bool) {
		var best uint16
		found := false
		for _, c := range bases {
			if c >= b {
				break
			}
			best, found = c, true
		}
		return best, found
	}
	sizeTo := func(b uint16, cap int) int {
		var gap int
		if nh, ok := nextHigher(b); ok {
			gap = int(nh) - int(b)
		} else {
			gap = int(imgEnd) - int(b)
		}
		if gap > cap {
			gap = cap
		}
		if gap < 0 {
			gap = 0
		}
		return gap
	}

	var hiTables []hiTable
	for _, b := range bases {
		if !isHi[b] {
			continue
		}
		size := sizeTo(b, 64)
		if lower, ok := nearestLower(b); ok && isLo[lower] {
			d := int(b) - int(lower)
			if d >= 1 && d <= 64 {
				size = d
			}
		}
		if size > 0 {
			hiTables = append(hiTables, hiTable{base: b, size: size})
		}
	}

	var interleaved []interleavedPair
	for _, p := range rawPairs {
		var size int
		if nh, ok := nextNonPaired(p.hiBase); ok {
			size = int(nh) - int(p.loBase)
		} else {
			size = int(imgEnd) - int(p.loBase)
		}
		if size > 128 {
			size = 128
		}
		if size < 2 {
			size = 2
		}
		interleaved = append(interleaved, interleavedPair{loBase: p.loBase, hiBase: p.hiBase, size: size})
	}

	var fallback []fallbackTable
	for _, b := range bases {
		if isHi[b] || isLo[b] || pairedLo[b] || pairedHi[b] {
			continue
		}
		size := sizeTo(b, 64)
		if size > 0 {
			fallback = append(fallback, fallbackTable{base: b, size: size})
		}
	}

	return hiTables, interleaved, fallback
}

// patchInterleavedPair implements Stage C category 2. Returns the number
// of hi-bytes actually rewritten.
func patchInterleavedPair(out, orig []byte, p interleavedPair, plan Plan, codeOffsets map[int]bool, loHi, hiHi int, hiDelta byte) int {
	loBaseOff := int(p.loBase) - int(plan.OriginalBase)

	var validHiOffsets []int
	for rel := 0; rel+1 < p.size; rel += 2 {
		loOff := loBaseOff + rel
		hiOff := loOff + 1
		if loOff < 0 || hiOff >= len(orig) {
			break
		}
		if codeOffsets[loOff] || codeOffsets[hiOff] {
			continue
		}
		word := uint16(orig[loOff]) | uint16(orig[hiOff])<<8
		if word < plan.OriginalBase || word >= plan.DataEnd {
			continue
		}
		validHiOffsets = append(validHiOffsets, hiOff)
	}

	if len(validHiOffsets) < 2 {
		return 0
	}

	n := 0
	for _, hiOff := range validHiOffsets {
		cur := out[hiOff]
		if cur != orig[hiOff] {
			continue
		}
		if int(cur) < loHi || int(cur) > hiHi {
			continue
		}
		next := cur + hiDelta
		if next == cur {
			continue
		}
		out[hiOff] = next
		n++
	}
	return n
}

// patchHeuristicFallback implements Stage C category 3. Returns the
// number of bytes actually rewritten.
func patchHeuristicFallback(out, orig []byte, f fallbackTable, plan Plan, codeOffsets map[int]bool, loHi, hiHi int, hiDelta byte) int {
	baseOff := int(f.base) - int(plan.OriginalBase)

	var collected []int
	for i := 0; i < f.size; i++ {
		off := baseOff + i
		if off < 0 || off >= len(orig) {
			break
		}
		if codeOffsets[off] {
			break
		}
		collected = append(collected, off)
	}
	if len(collected) < 3 {
		return 0
	}

	var inRange []int
	for _, off := range collected {
		v := int(orig[off])
		if v >= loHi && v <= hiHi {
			inRange = append(inRange, off)
		}
	}
	if len(inRange) < 3 {
		return 0
	}
	if float64(len(inRange))/float64(len(collected)) < 0.30 {
		return 0
	}

	distinct := make(map[byte]bool, len(inRange))
	for _, off := range inRange {
		distinct[orig[off]] = true
	}
	if len(distinct) < 2 {
		return 0
	}
	if monotonic(orig, inRange) {
		return 0
	}

	n := 0
	for _, off := range inRange {
		cur := out[off]
		if cur != orig[off] {
			continue
		}
		next := cur + hiDelta
		if next == cur {
			continue
		}
		out[off] = next
		n++
	}
	return n
}

// monotonic reports whether the bytes at offs (in order) are
// non-decreasing or non-increasing.
func monotonic(orig []byte, offs []int) bool {
	if len(offs) < 2 {
		return false
	}
	inc, dec := true, true
	for i := 1; i < len(offs); i++ {
		a, b := orig[offs[i-1]], orig[offs[i]]
		if b < a {
			inc = false
		}
		if b > a {
			dec = false
		}
	}
	return inc || dec
}
