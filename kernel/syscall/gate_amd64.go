//go:build amd64

package syscall

import "github.com/rainkernel/rainkernel/kernel/task"

// installSyscallMSRs programs STAR/LSTAR/SFMASK so the SYSCALL
// instruction issued from ring 3 transfers control straight to
// syscallEntryTrampoline, bypassing the IDT entirely — the standard
// amd64 fast syscall path, distinct from the interrupt-gate mechanism
// package irq builds exception/IRQ dispatch on. Declared without a
// body: MSR access and the trampoline are not part of this retrieval.
func installSyscallMSRs()

// Init installs the SYSCALL/SYSRET fast path. Must run after the GDT's
// ring-3 code/data selectors and the per-CPU TSS are in place, since
// STAR encodes those selectors.
func Init() {
	installSyscallMSRs()
}

// syscallEntryTrampoline is SYSCALL's landing site: it switches onto
// the current task's kernel stack, saves the caller's registers,
// decodes fn and the six argument registers per §4.8's entry
// convention, and calls dispatchSyscall before SYSRET-ing back with
// the result in RAX. Declared without a body, same as irq's
// dispatchInterrupt.
func syscallEntryTrampoline()

// dispatchSyscall is syscallEntryTrampoline's Go-level landing site.
func dispatchSyscall(t *task.Task, fn uint64, a1, a2, a3, a4, a5, a6 uintptr) uintptr {
	return Handle(t, fn, Args{a1, a2, a3, a4, a5, a6})
}
