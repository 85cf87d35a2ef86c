package syscall

import (
	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/mem"
	"github.com/rainkernel/rainkernel/kernel/mem/pmm"
	"github.com/rainkernel/rainkernel/kernel/mem/vmm"
	"github.com/rainkernel/rainkernel/kernel/task"
)

// allocFrameFn supplies fresh physical frames for mmap. Wired once
// during boot to the real PMM allocator; tests override it to avoid
// touching a live one.
var allocFrameFn vmm.FrameAllocatorFn

// SetFrameAllocator registers the frame source mmap draws from.
func SetFrameAllocator(fn vmm.FrameAllocatorFn) {
	allocFrameFn = fn
}

// mapPageFn, unmapPageFn and translatePageFn indirect *vmm.PageTable's
// methods, the same way package task's pageTableMapFn does, so mmap's
// argument validation and page-walking loops can be tested without a
// real recursively-mapped table to edit.
var (
	mapPageFn = func(pt *vmm.PageTable, page vmm.Page, frame pmm.Frame, flags vmm.PageTableEntryFlag) *kernel.Error {
		return pt.Map(page, frame, flags)
	}
	unmapPageFn = func(pt *vmm.PageTable, page vmm.Page) *kernel.Error {
		return pt.Unmap(page)
	}
	translatePageFn = func(pt *vmm.PageTable, addr uintptr) (uintptr, *kernel.Error) {
		return pt.Translate(addr)
	}
)

// sysMmap implements function 2 (mmap): hint_address, length. Per the
// original core's own TODO-laden implementation, hint_address is taken
// as the literal target address, not merely advisory: this core has no
// VMA bookkeeping, so the caller is trusted to pick a free range of its
// own address space.
func sysMmap(t *task.Task, a Args) uintptr {
	addr := a.A1
	length := a.A2

	if vmm.PageFromAddress(addr).Address() != addr {
		return Fail
	}
	if addr >= vmm.KernelHalfStart || addr+uintptr(length) > vmm.KernelHalfStart {
		return Fail
	}

	pageCount := (uint64(length) + uint64(mem.PageSize) - 1) >> mem.PageShift
	startPage := vmm.PageFromAddress(addr)

	for i := uint64(0); i < pageCount; i++ {
		frame, err := allocFrameFn()
		if err != nil {
			return Fail
		}
		if err := mapPageFn(t.PageTable, startPage+vmm.Page(i), frame, vmm.UserDataRW.Flags()); err != nil {
			return Fail
		}
		kernel.Memset((startPage + vmm.Page(i)).Address(), 0, uintptr(mem.PageSize))
	}

	return addr
}

// sysMunmap implements function 3 (munmap): address, length. Every
// mapped page in range is unmapped and its backing frame returned to
// the PMM; an unmapped page in the middle of the range is skipped
// rather than treated as an error, since partial unmaps (e.g. of a
// range spanning a mmap call the caller never fully completed) are not
// a fault condition here.
func sysMunmap(t *task.Task, a Args) uintptr {
	addr := a.A1
	length := a.A2

	pageCount := (uint64(length) + uint64(mem.PageSize) - 1) >> mem.PageShift
	startPage := vmm.PageFromAddress(addr)

	for i := uint64(0); i < pageCount; i++ {
		page := startPage + vmm.Page(i)
		phys, err := translatePageFn(t.PageTable, page.Address())
		if err != nil {
			continue
		}
		if err := unmapPageFn(t.PageTable, page); err != nil {
			continue
		}
		freeFrameFn(pmm.FrameFromAddress(phys), 1)
	}

	return 0
}

// freeFrameFn returns frames unmapped by munmap to the PMM. A separate
// indirection from allocFrameFn since freeing takes a count, not the
// single-frame FrameAllocatorFn shape.
var freeFrameFn = func(pmm.Frame, uint64) {}

// SetFrameFree registers the function munmap uses to release frames
// back to the PMM.
func SetFrameFree(fn func(pmm.Frame, uint64)) {
	freeFrameFn = fn
}
