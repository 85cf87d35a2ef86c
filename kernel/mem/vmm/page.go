package vmm

import "github.com/rainkernel/rainkernel/kernel/mem"

// Page is a virtual memory page index.
type Page uintptr

// Address returns the virtual address at the start of this page.
func (p Page) Address() uintptr {
	return uintptr(p) << mem.PageShift
}

// PageFromAddress rounds virtAddr down to the page that contains it.
func PageFromAddress(virtAddr uintptr) Page {
	return Page((virtAddr & ^(uintptr(mem.PageSize) - 1)) >> mem.PageShift)
}
