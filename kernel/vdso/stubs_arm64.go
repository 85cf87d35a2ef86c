//go:build arm64

package vdso

import "github.com/rainkernel/rainkernel/kernel/mem"

// emitStubs assembles the page's two call stubs in place: an SVC #0
// instruction immediately followed by RET at each of SyscallStubOffset
// and SyscallExitStubOffset. Declared without a body, same as package
// irq's installGate and package syscall's handleSVC wiring.
func emitStubs(page *[mem.PageSize]byte)
