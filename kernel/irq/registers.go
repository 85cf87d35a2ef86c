// Package irq installs and dispatches the architecture's interrupt and
// exception gates: CPU exceptions, the periodic scheduler tick, and
// (see package syscall) the fast syscall entry. Handlers are plain Go
// functions; the architecture-specific entry stub (not carried in this
// retrieval, declared without a body below) builds a *Registers
// snapshot on the kernel stack and calls dispatchInterrupt.
package irq

// InterruptNumber identifies one exception or interrupt vector.
type InterruptNumber uint8

// Handler processes one interrupt; it runs with interrupts disabled on
// this CPU and the kernel lock held.
type Handler func(*Registers)
