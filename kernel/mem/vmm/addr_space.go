package vmm

import (
	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/mem"
)

// earlyReserveLastUsed tracks the next address to hand out, decreasing
// after each reservation. It starts just below tempMappingAddr, the last
// page of the kernel's half of the address space.
var earlyReserveLastUsed = tempMappingAddr

var errEarlyReserveNoSpace = &kernel.Error{Module: "vmm", Message: "remaining kernel virtual address space too small for reservation"}

// EarlyReserveRegion reserves a page-aligned range of size bytes (rounded
// up to a page boundary) from the top of the kernel's virtual address
// space and returns its starting address. It hands out addresses from
// high to low and never reuses one, so it is only suitable for the
// handful of long-lived regions established during kernel init (e.g.
// MapRegion's backing reservations).
func EarlyReserveRegion(size mem.Size) (uintptr, *kernel.Error) {
	size = (size + (mem.PageSize - 1)) &^ (mem.PageSize - 1)

	if uintptr(size) > earlyReserveLastUsed {
		return 0, errEarlyReserveNoSpace
	}

	earlyReserveLastUsed -= uintptr(size)
	return earlyReserveLastUsed, nil
}
