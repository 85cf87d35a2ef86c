//go:build amd64

package vdso

import "github.com/rainkernel/rainkernel/kernel/mem"

// emitStubs assembles the page's two call stubs in place: a SYSCALL
// instruction immediately followed by RET at SyscallStubOffset, and
// the same sequence at SyscallExitStubOffset — the distinction
// between a syscall and syscall_exit is carried entirely in the
// function-number register (§4.8), not in the stub's own code, so
// both offsets hold byte-identical code. Declared without a body: the
// machine code itself is not part of this retrieval, the same way
// package syscall's installSyscallMSRs and syscallEntryTrampoline are.
func emitStubs(page *[mem.PageSize]byte)
