package task

import (
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel/mem/elf"
)

// AlignUserStackPointer rounds sp down to the 16-byte boundary the
// x86_64 System V ABI requires a stack pointer to hold before the
// first instruction at any entry point — a freshly loaded process or
// a newly spawned thread — executes.
func AlignUserStackPointer(sp uintptr) uintptr {
	return sp &^ 0xf
}

// initialStackFrame is the fixed portion of the frame a freshly loaded
// image expects below its entry stack pointer (§4.3): argc, then the
// sole NULL terminator of an empty argv, then the sole NULL terminator
// of an empty envp. This core never hands a process arguments or an
// environment.
type initialStackFrame struct {
	argc     uint64
	argvNull uint64
	envpNull uint64
}

// PushInitialUserStack writes the argc/argv/envp/auxv frame §4.3
// requires below stackBottom — an empty argument vector, an empty
// environment, then aux verbatim (already AT_NULL-terminated by
// elf.Load) — and returns the 16-byte-aligned stack pointer the task
// should enter user mode with. t.PageTable must already be the active
// table, as it is by the time a task's first-resume trampoline runs.
func PushInitialUserStack(stackBottom uintptr, aux []elf.AuxEntry) uintptr {
	auxSize := uintptr(len(aux)) * unsafe.Sizeof(elf.AuxEntry{})
	frameSize := unsafe.Sizeof(initialStackFrame{}) + auxSize

	sp := AlignUserStackPointer(stackBottom - frameSize)

	frame := (*initialStackFrame)(unsafe.Pointer(sp))
	*frame = initialStackFrame{}

	auxBase := sp + unsafe.Sizeof(initialStackFrame{})
	for i, e := range aux {
		entry := (*elf.AuxEntry)(unsafe.Pointer(auxBase + uintptr(i)*unsafe.Sizeof(elf.AuxEntry{})))
		*entry = e
	}

	return sp
}
