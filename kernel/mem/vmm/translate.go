package vmm

import "github.com/rainkernel/rainkernel/kernel"

// Translate resolves a virtual address in the currently active table to
// its physical address, or ErrInvalidMapping if it is not mapped.
func Translate(virtAddr uintptr) (uintptr, *kernel.Error) {
	pte, err := pteForAddress(virtAddr)
	if err != nil {
		return 0, err
	}
	return pte.Frame().Address() + PageOffset(virtAddr), nil
}

// PageOffset returns the byte offset of virtAddr within its containing
// page.
func PageOffset(virtAddr uintptr) uintptr {
	return virtAddr & ((1 << pageLevelShifts[pageLevels-1]) - 1)
}
