//go:build amd64

package irq

import (
	"io"

	"github.com/rainkernel/rainkernel/kernel/kfmt"
)

// Registers is a snapshot of every general-purpose register plus the
// IRETQ return frame, captured by the entry stub before it calls into
// dispatchInterrupt.
type Registers struct {
	RAX uint64
	RBX uint64
	RCX uint64
	RDX uint64
	RSI uint64
	RDI uint64
	RBP uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64

	// Info carries the exception's error code, the syscall number on a
	// syscall entry, or the IRQ number on a hardware interrupt.
	Info uint64

	// CR2 is the faulting linear address, read by the entry stub before
	// dispatch; only meaningful for PageFaultException.
	CR2 uint64

	RIP    uint64
	CS     uint64
	RFlags uint64
	RSP    uint64
	SS     uint64
}

// DumpTo prints r in a fixed register-dump layout, used by the default
// unhandled-exception handler (see Init in dispatch.go).
func (r *Registers) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "RAX = %16x RBX = %16x\n", r.RAX, r.RBX)
	kfmt.Fprintf(w, "RCX = %16x RDX = %16x\n", r.RCX, r.RDX)
	kfmt.Fprintf(w, "RSI = %16x RDI = %16x\n", r.RSI, r.RDI)
	kfmt.Fprintf(w, "RBP = %16x\n", r.RBP)
	kfmt.Fprintf(w, "R8  = %16x R9  = %16x\n", r.R8, r.R9)
	kfmt.Fprintf(w, "R10 = %16x R11 = %16x\n", r.R10, r.R11)
	kfmt.Fprintf(w, "R12 = %16x R13 = %16x\n", r.R12, r.R13)
	kfmt.Fprintf(w, "R14 = %16x R15 = %16x\n", r.R14, r.R15)
	kfmt.Fprintf(w, "\n")
	kfmt.Fprintf(w, "RIP = %16x CS  = %16x\n", r.RIP, r.CS)
	kfmt.Fprintf(w, "RSP = %16x SS  = %16x\n", r.RSP, r.SS)
	kfmt.Fprintf(w, "RFL = %16x CR2 = %16x\n", r.RFlags, r.CR2)
}

// FaultAddress returns the faulting linear address, valid only for
// PageFaultException.
func (r *Registers) FaultAddress() uintptr {
	return uintptr(r.CR2)
}

// FromUserMode reports whether the interrupted context was running at
// ring 3, per CS's requested-privilege-level bits.
func (r *Registers) FromUserMode() bool {
	return r.CS&3 == 3
}

// vectorCount is the full IA-32e vector space: 32 architectural
// exceptions plus 224 vectors available for IRQs and the syscall gate.
const vectorCount = 256

// handlerTableSize is the dispatch table's size; on amd64 the table is
// indexed by vector number, so it is the same as vectorCount.
const handlerTableSize = vectorCount

const (
	// DivideByZero fires on DIV/IDIV by zero.
	DivideByZero = InterruptNumber(0)
	// NMI is raised by hardware RAM/bus faults or an enabled watchdog.
	NMI = InterruptNumber(2)
	// Overflow fires on INTO when RFlags.OF is set.
	Overflow = InterruptNumber(4)
	// BoundRangeExceeded fires on BOUND with an out-of-range index.
	BoundRangeExceeded = InterruptNumber(5)
	// InvalidOpcode fires on an undefined or reserved instruction encoding.
	InvalidOpcode = InterruptNumber(6)
	// DeviceNotAvailable fires on an FPU/SSE instruction while CR0.TS is set.
	DeviceNotAvailable = InterruptNumber(7)
	// DoubleFault fires when a second exception occurs while delivering the first.
	DoubleFault = InterruptNumber(8)
	// InvalidTSS fires when a task switch references a malformed TSS selector.
	InvalidTSS = InterruptNumber(10)
	// SegmentNotPresent fires on a gate whose segment is marked not-present.
	SegmentNotPresent = InterruptNumber(11)
	// StackSegmentFault fires on a non-canonical stack access or a failed SS limit check.
	StackSegmentFault = InterruptNumber(12)
	// GPFException is the general protection fault.
	GPFException = InterruptNumber(13)
	// PageFaultException fires on a failed paging walk; Info carries the
	// hardware error code and CR2 carries the faulting linear address.
	PageFaultException = InterruptNumber(14)
	// FloatingPointException fires on an unmasked pending x87 exception with CR0.NE set.
	FloatingPointException = InterruptNumber(16)
	// AlignmentCheck fires on a misaligned access with alignment checking enabled.
	AlignmentCheck = InterruptNumber(17)
	// MachineCheck signals an internal CPU, bus, or cache error.
	MachineCheck = InterruptNumber(18)
	// SIMDFloatingPointException fires on an unmasked SSE exception with CR4.OSXMMEXCPT set.
	SIMDFloatingPointException = InterruptNumber(19)
)

// defaultHandledVectors lists the exceptions Init wires to the
// register-dump handler before any driver or scheduler registers its
// own. IRQ and syscall vectors are left unhandled until something calls
// HandleInterrupt for them.
var defaultHandledVectors = []InterruptNumber{
	DivideByZero, NMI, Overflow, BoundRangeExceeded, InvalidOpcode,
	DeviceNotAvailable, DoubleFault, InvalidTSS, SegmentNotPresent,
	StackSegmentFault, GPFException, PageFaultException,
	FloatingPointException, AlignmentCheck, MachineCheck,
	SIMDFloatingPointException,
}

// installIDT builds the 256-entry IDT from the registered gate handlers
// and loads it via LIDT. Declared without a body: the gate stubs and
// their addresses are not part of this retrieval.
func installIDT()

// interruptGateEntries returns the generated entry trampoline for every
// vector, each of which pushes Info (synthesizing 0 for vectors with no
// hardware error code), builds a Registers frame, and calls
// dispatchInterrupt.
func interruptGateEntries()
