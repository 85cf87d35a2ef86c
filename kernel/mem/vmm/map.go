package vmm

import (
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/cpu"
	"github.com/rainkernel/rainkernel/kernel/mem"
	"github.com/rainkernel/rainkernel/kernel/mem/pmm"
)

var (
	// flushTLBEntryFn is overridden by tests; it faults if called outside ring 0.
	flushTLBEntryFn = cpu.FlushTLBEntry

	// earlyReserveRegionFn and mapRegionMapFn are overridden by tests.
	earlyReserveRegionFn = EarlyReserveRegion
	mapRegionMapFn       = Map

	// nextAddrFn computes the virtual address of the table a freshly
	// allocated intermediate-level frame now occupies, so it can be
	// zeroed before use. It is overridden by tests, since the real
	// formula only resolves to a valid address once the recursive
	// self-map is actually active.
	nextAddrFn = func(entryAddr uintptr) uintptr {
		return entryAddr
	}
)

// Map establishes a mapping from page to frame in the currently active
// table, allocating and clearing any missing intermediate level along
// the way.
func Map(page Page, frame pmm.Frame, flags PageTableEntryFlag) *kernel.Error {
	var err *kernel.Error

	walk(page.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		if pteLevel == pageLevels-1 {
			*pte = 0
			pte.SetFrame(frame)
			pte.SetFlags(flags)
			flushTLBEntryFn(page.Address())
			return true
		}

		if pte.HasFlags(FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}

		if !pte.HasFlags(FlagPresent) {
			var newTableFrame pmm.Frame
			newTableFrame, err = frameAllocator()
			if err != nil {
				return false
			}

			*pte = 0
			pte.SetFrame(newTableFrame)
			pte.SetFlags(FlagPresent | FlagRW)

			nextTableAddr := uintptr(unsafe.Pointer(pte)) << pageLevelBits[pteLevel+1]
			kernel.Memset(nextAddrFn(nextTableAddr), 0, uintptr(mem.PageSize))
		}

		return true
	})

	return err
}

// Unmap clears the mapping previously installed by Map at page in the
// currently active table.
func Unmap(page Page) *kernel.Error {
	var err *kernel.Error

	walk(page.Address(), func(pteLevel uint8, pte *pageTableEntry) bool {
		if pteLevel == pageLevels-1 {
			pte.ClearFlags(FlagPresent)
			flushTLBEntryFn(page.Address())
			return true
		}

		if !pte.HasFlags(FlagPresent) {
			err = ErrInvalidMapping
			return false
		}
		if pte.HasFlags(FlagHugePage) {
			err = errNoHugePageSupport
			return false
		}
		return true
	})

	return err
}

// MapTemporary installs a RW mapping of frame at a fixed reserved virtual
// address, overwriting whatever was mapped there before. It is used to
// access a physical frame's contents (e.g. an inactive page table) before
// any permanent mapping exists for it.
func MapTemporary(frame pmm.Frame) (Page, *kernel.Error) {
	if err := Map(PageFromAddress(tempMappingAddr), frame, FlagPresent|FlagRW); err != nil {
		return 0, err
	}
	return PageFromAddress(tempMappingAddr), nil
}

// MapRegion reserves the next available region of kernel virtual address
// space and maps it to the physically contiguous range starting at frame.
// size is rounded up to the nearest page boundary.
func MapRegion(frame pmm.Frame, size mem.Size, flags PageTableEntryFlag) (Page, *kernel.Error) {
	size = (size + (mem.PageSize - 1)) &^ (mem.PageSize - 1)

	startAddr, err := earlyReserveRegionFn(size)
	if err != nil {
		return 0, err
	}

	pageCount := uint64(size) >> mem.PageShift
	startPage := PageFromAddress(startAddr)
	for page := startPage; pageCount > 0; pageCount, page, frame = pageCount-1, page+1, frame+1 {
		if err := mapRegionMapFn(page, frame, flags); err != nil {
			return 0, err
		}
	}

	return startPage, nil
}
