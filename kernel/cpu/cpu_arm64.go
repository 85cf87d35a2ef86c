//go:build arm64

package cpu

// EnableInterrupts unmasks IRQs (clears PSTATE.I).
func EnableInterrupts()

// DisableInterrupts masks IRQs (sets PSTATE.I).
func DisableInterrupts()

// Halt stops instruction execution until the next interrupt (WFI).
func Halt()

// FlushTLBEntry invalidates the Stage 1 TLB entry for virtAddr.
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT loads pdtPhysAddr into TTBR0_EL1, flushing the entire TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address currently loaded in TTBR0_EL1.
func ActivePDT() uintptr

// ReadCR2 returns the faulting address recorded by the last Stage 1
// translation fault (FAR_EL1). The name matches the amd64 core's
// register for a uniform fault-handling API across architectures.
func ReadCR2() uint64

// SetTLSBase loads addr into TPIDR_EL0.
func SetTLSBase(addr uintptr)
