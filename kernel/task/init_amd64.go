//go:build amd64

package task

// InitBootCPU builds cpu's GDT, IDT and TSS in place and loads them
// (LGDT/LIDT/LTR), then programs FS/GS base MSRs so TLS and per-CPU
// addressing both work before any task is dispatched on it. Declared
// without a body, same as package irq's installIDT and package
// syscall's installSyscallMSRs: none of these are part of this
// retrieval.
func InitBootCPU(cpu *Cpu)
