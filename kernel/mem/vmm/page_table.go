package vmm

import (
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/cpu"
	"github.com/rainkernel/rainkernel/kernel/mem"
	"github.com/rainkernel/rainkernel/kernel/mem/pmm"
)

var (
	// activePDTFn and switchPDTFn are used by tests to override the real
	// privileged instructions, which fault outside ring 0.
	activePDTFn = cpu.ActivePDT
	switchPDTFn = cpu.SwitchPDT

	// frameAllocator is registered via SetFrameAllocator and supplies
	// fresh frames for intermediate page-table levels and new tables.
	frameAllocator FrameAllocatorFn

	// mapFn, unmapFn, mapTemporaryFn are indirections used by tests.
	mapFn          = Map
	unmapFn        = Unmap
	mapTemporaryFn = MapTemporary

	errNoHugePageSupport = &kernel.Error{Module: "vmm", Message: "huge pages are not supported for this mapping"}
)

// FrameAllocatorFn allocates a single physical frame.
type FrameAllocatorFn func() (pmm.Frame, *kernel.Error)

// SetFrameAllocator registers the frame allocator used to back new
// page-table levels.
func SetFrameAllocator(fn FrameAllocatorFn) {
	frameAllocator = fn
}

func recursiveSlotAddr(tableFrameAddr uintptr) uintptr {
	return tableFrameAddr + (uintptr(recursiveSlot) << mem.PointerShift)
}

// PageTable is one task's or the kernel's virtual address space: a
// top-level table plus the recursive self-map that lets Map/Unmap/
// Translate address every intermediate level as ordinary memory.
//
// A PageTable need not be the currently active one: walk()'s recursive
// trick only ever exposes whichever table the root register currently
// names, so Map, Unmap and Translate make pt active for the duration of
// the call when it is not already, then restore the previous table.
type PageTable struct {
	topFrame pmm.Frame
}

// Init sets up a brand-new top-level table in frame: zeroes it and
// installs the recursive self-map entry. If frame is already the active
// table (the bootstrap case), only the self-map entry is installed.
func (pt *PageTable) Init(frame pmm.Frame) *kernel.Error {
	pt.topFrame = frame

	if frame.Address() == activePDTFn() {
		return pt.installSelfMap(pdtVirtualAddr)
	}

	page, err := mapTemporaryFn(frame)
	if err != nil {
		return err
	}
	kernel.Memset(page.Address(), 0, uintptr(mem.PageSize))
	if err := pt.installSelfMap(page.Address()); err != nil {
		_ = unmapFn(page)
		return err
	}
	return unmapFn(page)
}

func (pt *PageTable) installSelfMap(tableVirtAddr uintptr) *kernel.Error {
	entry := (*pageTableEntry)(unsafe.Pointer(recursiveSlotAddr(tableVirtAddr)))
	*entry = 0
	entry.SetFlags(FlagPresent | FlagRW)
	entry.SetFrame(pt.topFrame)
	return nil
}

// withActive runs fn with pt as the active table, switching back to
// whatever was active before on return. The walk() trick always follows
// the root register's own table, so editing a table that is not current
// requires making it current first; this core is single-CPU only, so a
// transient switch here cannot race another CPU's in-flight walk.
func (pt *PageTable) withActive(fn func() *kernel.Error) *kernel.Error {
	previous := activePDTFn()
	if previous == pt.topFrame.Address() {
		return fn()
	}

	switchPDTFn(pt.topFrame.Address())
	err := fn()
	switchPDTFn(previous)

	return err
}

// WithActive runs fn with pt as the active table for its whole
// duration, restoring whatever was active before once fn returns. A
// caller that needs several Map calls plus direct virtual-address
// reads or writes (e.g. zero-filling freshly mapped BSS pages) to all
// see the same active table should wrap the whole sequence in one
// WithActive call rather than letting each Map call activate and
// restore pt on its own, which would leave pt inactive again by the
// time a direct VA access runs.
func (pt *PageTable) WithActive(fn func() *kernel.Error) *kernel.Error {
	return pt.withActive(fn)
}

// Map installs a mapping from page to frame in this table.
func (pt *PageTable) Map(page Page, frame pmm.Frame, flags PageTableEntryFlag) *kernel.Error {
	return pt.withActive(func() *kernel.Error { return mapFn(page, frame, flags) })
}

// Unmap removes a mapping previously installed by Map in this table.
func (pt *PageTable) Unmap(page Page) *kernel.Error {
	return pt.withActive(func() *kernel.Error { return unmapFn(page) })
}

// Translate resolves a virtual address in this table to its physical
// address.
func (pt *PageTable) Translate(virtAddr uintptr) (uintptr, *kernel.Error) {
	var (
		physAddr uintptr
		err      *kernel.Error
	)
	pt.withActive(func() *kernel.Error {
		physAddr, err = Translate(virtAddr)
		return err
	})
	return physAddr, err
}

// Activate installs this table as the CPU's current address space.
func (pt *PageTable) Activate() {
	switchPDTFn(pt.topFrame.Address())
}

// TopFrame returns the physical frame backing this table's top level.
func (pt *PageTable) TopFrame() pmm.Frame {
	return pt.topFrame
}

// KernelHalfStart is the first virtual address of the half of the
// layout shared by every address space: the direct map, the recursive
// windows and the kernel image/heap. Any attempt to map user content at
// or above this address is a programming error.
const KernelHalfStart = uintptr(0xFFFF800000000000)

// CloneKernelSpace allocates a new top-level table that shares this
// table's kernel-half entries (by pointer-equal leaf frame, not by
// copying their contents) and starts with an empty user half. The two
// tables' kernel-half top-level entries are set to point at the same
// next-level frames, so any future kernel-half edit performed through
// either table is visible to both without additional propagation.
func (pt *PageTable) CloneKernelSpace(newTopFrame pmm.Frame) (*PageTable, *kernel.Error) {
	var clone PageTable
	if err := clone.Init(newTopFrame); err != nil {
		return nil, err
	}

	entriesPerTable := uintptr(1) << pageLevelBits[0]
	firstKernelSlot := (KernelHalfStart >> pageLevelShifts[0]) & (entriesPerTable - 1)

	// MapTemporary always reuses one virtual page, so the source entries
	// are copied out before the destination table is mapped over it.
	var kernelEntries [1 << 9]pageTableEntry
	srcPage, err := mapTemporaryFn(pt.topFrame)
	if err != nil {
		return nil, err
	}
	for slot := firstKernelSlot; slot < entriesPerTable; slot++ {
		kernelEntries[slot] = *(*pageTableEntry)(unsafe.Pointer(srcPage.Address() + (slot << mem.PointerShift)))
	}
	_ = unmapFn(srcPage)

	dstPage, err := mapTemporaryFn(newTopFrame)
	if err != nil {
		return nil, err
	}
	defer unmapFn(dstPage)

	for slot := firstKernelSlot; slot < entriesPerTable; slot++ {
		if slot == recursiveSlot {
			continue // each table keeps its own self-map entry
		}
		dstEntry := (*pageTableEntry)(unsafe.Pointer(dstPage.Address() + (slot << mem.PointerShift)))
		*dstEntry = kernelEntries[slot]
	}

	return &clone, nil
}
