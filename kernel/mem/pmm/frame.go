// Package pmm owns the set of free physical memory frames and serves
// contiguous-frame allocation requests on behalf of every other kernel
// subsystem that needs backing memory (page tables, task stacks, IPC
// buffers).
package pmm

import (
	"math"

	"github.com/rainkernel/rainkernel/kernel/mem"
)

// Frame is a physical page index; multiplying by mem.PageSize yields a
// physical address.
type Frame uintptr

// InvalidFrame is returned by allocators that fail to reserve a frame.
const InvalidFrame = Frame(math.MaxUint64)

// Valid reports whether f is a real, allocated frame.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// Address returns the physical address of the start of this frame.
func (f Frame) Address() uintptr {
	return uintptr(f) << mem.PageShift
}

// FrameFromAddress truncates a physical address down to its containing
// frame number.
func FrameFromAddress(addr uintptr) Frame {
	return Frame(addr >> mem.PageShift)
}
