package vmm

import (
	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/mem"
	"github.com/rainkernel/rainkernel/kernel/mem/pmm"
)

// ErrInvalidMapping is returned when looking up a virtual address that is
// not currently mapped.
var ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "virtual address does not point to a mapped physical page"}

// pageTableEntry is a single page-table entry. Its bit layout is
// architecture-specific; the flag and frame accessors below hide that
// behind a uniform API.
type pageTableEntry uintptr

// HasFlags returns true if every bit in flags is set.
func (pte pageTableEntry) HasFlags(flags PageTableEntryFlag) bool {
	return (uintptr(pte) & uintptr(flags)) == uintptr(flags)
}

// HasAnyFlag returns true if at least one bit in flags is set.
func (pte pageTableEntry) HasAnyFlag(flags PageTableEntryFlag) bool {
	return (uintptr(pte) & uintptr(flags)) != 0
}

// SetFlags ORs flags into the entry.
func (pte *pageTableEntry) SetFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uintptr(*pte) | uintptr(flags))
}

// ClearFlags clears flags from the entry.
func (pte *pageTableEntry) ClearFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uintptr(*pte) &^ uintptr(flags))
}

// Frame returns the physical frame this entry points to.
func (pte pageTableEntry) Frame() pmm.Frame {
	return pmm.Frame((uintptr(pte) & ptePhysPageMask) >> mem.PageShift)
}

// SetFrame updates the entry to point at frame, leaving its flags intact.
func (pte *pageTableEntry) SetFrame(frame pmm.Frame) {
	*pte = pageTableEntry((uintptr(*pte) &^ ptePhysPageMask) | frame.Address())
}

// pteForAddress walks the currently active table and returns the leaf
// entry for virtAddr, or ErrInvalidMapping if any level along the walk is
// not present.
func pteForAddress(virtAddr uintptr) (*pageTableEntry, *kernel.Error) {
	var (
		err   *kernel.Error
		entry *pageTableEntry
	)

	walk(virtAddr, func(pteLevel uint8, pte *pageTableEntry) bool {
		if !pte.HasFlags(FlagPresent) {
			entry = nil
			err = ErrInvalidMapping
			return false
		}
		entry = pte
		return true
	})

	return entry, err
}
