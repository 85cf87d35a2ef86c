//go:build arm64

package task

// InitBootCPU stashes cpu's address in TPIDR_EL1 so CurrentCPU and TLS
// addressing both work before any task is dispatched on it. aarch64
// has no GDT/TSS equivalent (cpu_arm64.go's archGDT/archTSS are both
// empty), so there is nothing else to load.
func InitBootCPU(cpu *Cpu)
