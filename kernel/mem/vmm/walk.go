package vmm

import (
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel/mem"
)

// ptePtrFn converts an entry's virtual address into a pointer. Tests
// override this so walk can be exercised against a plain byte slice
// instead of real recursively-mapped memory.
var ptePtrFn = func(entryAddr uintptr) unsafe.Pointer {
	return unsafe.Pointer(entryAddr)
}

// pageTableWalker receives the page-table entry at each level of a walk.
// Returning false aborts the walk after the current level.
type pageTableWalker func(pteLevel uint8, pte *pageTableEntry) bool

// walk performs a page-table walk for virtAddr against the currently
// active table, invoking walkFn once per level via the recursive
// self-map. This only inspects the table that is active right now;
// callers that need to edit a different PageTable must first make it
// active (see PageTable.withActive).
func walk(virtAddr uintptr, walkFn pageTableWalker) {
	var (
		level                            uint8
		tableAddr, entryAddr, entryIndex uintptr
		ok                               bool
	)

	for level, tableAddr = uint8(0), pdtVirtualAddr; level < pageLevels; level, tableAddr = level+1, entryAddr {
		entryIndex = (virtAddr >> pageLevelShifts[level]) & ((1 << pageLevelBits[level]) - 1)
		entryAddr = tableAddr + (entryIndex << mem.PointerShift)

		if ok = walkFn(level, (*pageTableEntry)(ptePtrFn(entryAddr))); !ok {
			return
		}

		entryAddr <<= pageLevelBits[level]
	}
}
