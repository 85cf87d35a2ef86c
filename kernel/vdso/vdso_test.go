package vdso

import (
	"testing"
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/mem"
	"github.com/rainkernel/rainkernel/kernel/mem/pmm"
	"github.com/rainkernel/rainkernel/kernel/mem/vmm"
)

func TestStubOffsetsStayWithinThePage(t *testing.T) {
	if SyscallStubOffset >= int(mem.PageSize) || SyscallExitStubOffset >= int(mem.PageSize) {
		t.Fatal("expected both stub offsets to fall inside the page")
	}
	if SyscallStubOffset == SyscallExitStubOffset {
		t.Fatal("expected the two stubs to live at distinct offsets")
	}
}

func TestMapIntoFailsWhenAllocationFails(t *testing.T) {
	wantErr := &kernel.Error{Module: "vdso", Message: "out of frames"}
	allocFrame := func() (pmm.Frame, *kernel.Error) { return pmm.InvalidFrame, wantErr }

	if err := MapInto(nil, allocFrame); err != wantErr {
		t.Fatalf("expected the allocator's error to propagate, got %v", err)
	}
}

func TestMapIntoWritesThePageThenMapsItReadExecute(t *testing.T) {
	var scratch [mem.PageSize]byte
	scratchAddr := uintptr(unsafe.Pointer(&scratch[0]))

	prevTmp := mapTemporaryFn
	mapTemporaryFn = func(frame pmm.Frame) (vmm.Page, *kernel.Error) {
		return vmm.PageFromAddress(scratchAddr), nil
	}
	t.Cleanup(func() { mapTemporaryFn = prevTmp })

	var (
		gotPage  vmm.Page
		gotFrame pmm.Frame
		gotFlags vmm.PageTableEntryFlag
	)
	prevMap := mapPageFn
	mapPageFn = func(pt *vmm.PageTable, p vmm.Page, frame pmm.Frame, flags vmm.PageTableEntryFlag) *kernel.Error {
		gotPage, gotFrame, gotFlags = p, frame, flags
		return nil
	}
	t.Cleanup(func() { mapPageFn = prevMap })

	wantFrame := pmm.Frame(7)
	allocFrame := func() (pmm.Frame, *kernel.Error) { return wantFrame, nil }

	if err := MapInto(nil, allocFrame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if scratch != page {
		t.Fatal("expected the stub page's bytes to be copied into the temporary mapping")
	}
	if gotPage != vmm.PageFromAddress(VirtBase) {
		t.Fatalf("expected the frame mapped at VirtBase, got page %#x", gotPage.Address())
	}
	if gotFrame != wantFrame {
		t.Fatalf("expected the allocated frame to be the one mapped, got %v", gotFrame)
	}
	if gotFlags != stubFlags {
		t.Fatalf("expected stubFlags (present|user, no write, no execute-disable), got %v", gotFlags)
	}
}

func TestMapIntoPropagatesTemporaryMappingFailure(t *testing.T) {
	wantErr := &kernel.Error{Module: "vdso", Message: "no temporary slot"}

	prevTmp := mapTemporaryFn
	mapTemporaryFn = func(frame pmm.Frame) (vmm.Page, *kernel.Error) { return 0, wantErr }
	t.Cleanup(func() { mapTemporaryFn = prevTmp })

	allocFrame := func() (pmm.Frame, *kernel.Error) { return pmm.Frame(1), nil }

	if err := MapInto(nil, allocFrame); err != wantErr {
		t.Fatalf("expected the temporary-mapping error to propagate, got %v", err)
	}
}
