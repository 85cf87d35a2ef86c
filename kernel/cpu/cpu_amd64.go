//go:build amd64

package cpu

var cpuidFn = ID

// EnableInterrupts enables interrupt handling on this CPU.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling on this CPU.
func DisableInterrupts()

// Halt stops instruction execution until the next interrupt.
func Halt()

// FlushTLBEntry invalidates the TLB entry for virtAddr (INVLPG).
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT loads pdtPhysAddr into CR3, flushing the entire TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address currently loaded in CR3.
func ActivePDT() uintptr

// ReadCR2 returns the faulting address recorded by the last page fault.
func ReadCR2() uint64

// ID executes CPUID with EAX=leaf and returns EAX, EBX, ECX, EDX.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// SetTLSBase loads addr into the FS segment base (WRFSBASE, or the
// MSR_FS_BASE write on parts without FSGSBASE).
func SetTLSBase(addr uintptr)

// IsIntel reports whether this CPU identifies as a GenuineIntel part.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0)
	return ebx == 0x756e6547 && edx == 0x49656e69 && ecx == 0x6c65746e
}
