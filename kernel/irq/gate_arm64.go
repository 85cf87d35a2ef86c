//go:build arm64

package irq

import (
	"io"

	"github.com/rainkernel/rainkernel/kernel/kfmt"
)

// Registers is a snapshot of the general-purpose register file plus the
// exception syndrome taken at entry, captured by the vector stub before
// it calls into dispatchInterrupt.
type Registers struct {
	X [31]uint64 // X0-X30; X30 is the link register

	// Info carries ESR_EL1 (the exception syndrome) for a synchronous
	// exception, the syscall number for an SVC entry, or the interrupt
	// ID acknowledged from the GIC for an IRQ.
	Info uint64

	ELR  uint64 // saved PC, restored by ERET
	SPSR uint64 // saved PSTATE, restored by ERET
	SP   uint64
	FAR  uint64 // fault address, valid for data/instruction aborts
}

// DumpTo prints r in a fixed register-dump layout, used by the default
// unhandled-exception handler (see Init in dispatch.go).
func (r *Registers) DumpTo(w io.Writer) {
	for i := 0; i < len(r.X); i += 2 {
		if i+1 < len(r.X) {
			kfmt.Fprintf(w, "X%-2d = %16x X%-2d = %16x\n", i, r.X[i], i+1, r.X[i+1])
		} else {
			kfmt.Fprintf(w, "X%-2d = %16x\n", i, r.X[i])
		}
	}
	kfmt.Fprintf(w, "\n")
	kfmt.Fprintf(w, "ELR  = %16x SPSR = %16x\n", r.ELR, r.SPSR)
	kfmt.Fprintf(w, "SP   = %16x FAR  = %16x\n", r.SP, r.FAR)
	kfmt.Fprintf(w, "ESR  = %16x\n", r.Info)
}

// FaultAddress returns the faulting address recorded in FAR_EL1, valid
// only for a data/instruction abort.
func (r *Registers) FaultAddress() uintptr {
	return uintptr(r.FAR)
}

// FromUserMode reports whether the interrupted context was running at
// EL0, per SPSR_EL1's saved mode field (M[3:0] == 0 is EL0t).
func (r *Registers) FromUserMode() bool {
	return r.SPSR&0xf == 0
}

// vectorCount is the 16-entry AArch64 exception vector table (4
// exception classes x 4 sources), indexed the same way VBAR_EL1 is.
const vectorCount = 16

// handlerTableSize covers the full 6-bit ESR_EL1.EC exception-class
// space that Info is decoded into, which is unrelated to vectorCount:
// many different EC values land on the same one of the 16 hardware
// vector table slots.
const handlerTableSize = 64

// Exception classes extracted from ESR_EL1[31:26] for a synchronous
// exception taken at the current or a lower exception level using
// AArch64. These double as Info's discriminant and are not vector
// table slots the way the amd64 InterruptNumber constants are.
const (
	// InvalidOpcode covers an unknown or unallocated instruction encoding.
	InvalidOpcode = InterruptNumber(0x00)
	// SVCException is a supervisor call (the AArch64 syscall instruction).
	SVCException = InterruptNumber(0x15)
	// InstructionAbortLowerEL is an instruction fetch abort taken from a lower EL.
	InstructionAbortLowerEL = InterruptNumber(0x20)
	// InstructionAbortSameEL is an instruction fetch abort taken from the current EL.
	InstructionAbortSameEL = InterruptNumber(0x21)
	// PCAlignmentFault fires when ELR is not 4-byte aligned on exception return.
	PCAlignmentFault = InterruptNumber(0x22)
	// DataAbortLowerEL is a load/store abort taken from a lower EL; PageFaultException
	// aliases it so code shared with amd64 can use one name for a paging fault.
	DataAbortLowerEL = InterruptNumber(0x24)
	// DataAbortSameEL is a load/store abort taken from the current EL.
	DataAbortSameEL = InterruptNumber(0x25)
	// PageFaultException fires on a failed stage-1 translation; Info/FAR carry the detail.
	PageFaultException = DataAbortLowerEL
	// SPAlignmentFault fires when SP is not 16-byte aligned at a load/store or exception entry.
	SPAlignmentFault = InterruptNumber(0x26)
	// SIMDFloatingPointException fires on a trapped floating-point exception.
	SIMDFloatingPointException = InterruptNumber(0x2C)
	// SErrorException is an asynchronous SError interrupt (the aarch64 analogue of MachineCheck).
	SErrorException = InterruptNumber(0x2F)
)

// defaultHandledVectors lists the exception classes Init wires to the
// register-dump handler before anything registers its own. SVCException
// and IRQ sources are left unhandled until the syscall/scheduler code
// calls HandleInterrupt for them.
var defaultHandledVectors = []InterruptNumber{
	InvalidOpcode, InstructionAbortLowerEL, InstructionAbortSameEL,
	PCAlignmentFault, DataAbortLowerEL, DataAbortSameEL,
	SPAlignmentFault, SIMDFloatingPointException, SErrorException,
}

// installIDT writes the 16 branch-to-handler stubs into the exception
// vector table and loads its base into VBAR_EL1. Declared without a
// body: the vector stubs are not part of this retrieval.
func installIDT()

// interruptGateEntries returns the generated entry trampoline for every
// vector slot, each of which saves the general-purpose registers, reads
// ESR_EL1/FAR_EL1/ELR_EL1/SPSR_EL1 into a Registers frame, and calls
// dispatchInterrupt.
func interruptGateEntries()
