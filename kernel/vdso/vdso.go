// Package vdso builds the single read-execute page (§6) every task's
// address space gets mapped at a fixed user-space virtual address: two
// stable-offset call stubs, syscall(n, ...) and syscall_exit(status),
// that trap into the kernel without the caller needing to know whether
// amd64's SYSCALL or arm64's SVC is behind it. Grounded on gopher-os's
// per-arch bodyless asm stubs (kernel/cpu's Halt/Pause intrinsics),
// generalized from a single fixed stub to a page assembled once at
// init and mapped read-execute into every task.
package vdso

import (
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/mem"
	"github.com/rainkernel/rainkernel/kernel/mem/pmm"
	"github.com/rainkernel/rainkernel/kernel/mem/vmm"
)

// VirtBase is the fixed virtual address the vDSO page is mapped at in
// every task's address space, just below the canonical-address hole's
// user-space ceiling.
const VirtBase = uintptr(0x0000_7fff_ffff_f000)

// Stub offsets inside the page are stable per §6: a caller resolves
// them once (or hardcodes them) rather than looking them up per call.
const (
	SyscallStubOffset     = 0
	SyscallExitStubOffset = 16
)

var page [mem.PageSize]byte

func init() {
	emitStubs(&page)
}

// mapTemporaryFn indirects vmm.MapTemporary so Populate can be tested
// without a real recursively-mapped active table to borrow a slot
// from.
var mapTemporaryFn = vmm.MapTemporary

// mapPageFn indirects (*vmm.PageTable).Map, mirroring package
// syscall's mmap.go, so MapInto's argument handling can be tested
// without a real PageTable.
var mapPageFn = func(pt *vmm.PageTable, p vmm.Page, frame pmm.Frame, flags vmm.PageTableEntryFlag) *kernel.Error {
	return pt.Map(p, frame, flags)
}

// stubFlags marks the page present, user-accessible and executable:
// FlagRW and FlagNoExecute are both left clear, since user code must
// be able to execute it but never write it.
const stubFlags = vmm.FlagPresent | vmm.FlagUserAccessible

// MapInto allocates a fresh frame, writes the stub page's contents
// into it through a temporary mapping in the currently active table
// (frame is not yet part of pt, which may not even be active), then
// maps that frame read-execute into pt at VirtBase. Called once per
// task, at creation.
func MapInto(pt *vmm.PageTable, allocFrame vmm.FrameAllocatorFn) *kernel.Error {
	frame, err := allocFrame()
	if err != nil {
		return err
	}

	tmp, err := mapTemporaryFn(frame)
	if err != nil {
		return err
	}
	dst := (*[mem.PageSize]byte)(unsafe.Pointer(tmp.Address()))
	*dst = page

	return mapPageFn(pt, vmm.PageFromAddress(VirtBase), frame, stubFlags)
}
