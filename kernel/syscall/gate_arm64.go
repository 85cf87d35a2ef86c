//go:build arm64

package syscall

import (
	"github.com/rainkernel/rainkernel/kernel/irq"
	"github.com/rainkernel/rainkernel/kernel/sched"
)

// Init wires the SVC exception class to handleSVC, reusing the shared
// arm64 exception vector table irq.Init already installed rather than
// building a second one: SVC is just another synchronous exception
// class on this architecture, unlike amd64's dedicated SYSCALL gate.
func Init() {
	irq.HandleInterrupt(irq.SVCException, 0, handleSVC)
}

// handleSVC adapts an SVC exception's register snapshot to
// syscall.Handle, following AArch64's syscall register convention: X8
// carries the function number, X0-X5 the six arguments. The result is
// written back into X0 for the ERET'd caller to see.
func handleSVC(regs *irq.Registers) {
	t := sched.CurrentTask()
	fn := regs.X[8]
	a := Args{
		A1: uintptr(regs.X[0]),
		A2: uintptr(regs.X[1]),
		A3: uintptr(regs.X[2]),
		A4: uintptr(regs.X[3]),
		A5: uintptr(regs.X[4]),
		A6: uintptr(regs.X[5]),
	}
	regs.X[0] = uint64(Handle(t, fn, a))
}
