package kernel

import (
	"github.com/rainkernel/rainkernel/kernel/irq"
	"github.com/rainkernel/rainkernel/kernel/kfmt"
	"github.com/rainkernel/rainkernel/kernel/mem/vmm"
	"github.com/rainkernel/rainkernel/kernel/sched"
	"github.com/rainkernel/rainkernel/kernel/task"
)

var errKernelPageFault = &Error{Module: "kmain", Message: "page fault in kernel mode"}

// installPageFaultHandler registers handlePageFault for PageFaultException,
// replacing the register-dump-and-halt default irq.Init wires for it.
func installPageFaultHandler() {
	irq.HandleInterrupt(irq.PageFaultException, 0, handlePageFault)
}

// handlePageFault implements §4.8's two legitimate outcomes of a
// user-space page fault: a fault one page or more above a task's
// user_stack_top grows the stack by one frame; everything else kills
// just the faulting task, leaving every other task running (§7). A
// fault taken while the kernel itself was executing is never
// recoverable and takes the same path as any other unhandled
// exception.
func handlePageFault(regs *irq.Registers) {
	if !regs.FromUserMode() {
		regs.DumpTo(kfmt.GetOutputSink())
		Panic(errKernelPageFault)
	}

	t := sched.CurrentTask()
	addr := regs.FaultAddress()

	if growsUserStack(t, addr) {
		frame, err := allocOneFrame()
		if err == nil {
			page := vmm.PageFromAddress(addr)
			if mapErr := t.PageTable.Map(page, frame, vmm.UserDataRW.Flags()); mapErr == nil {
				return
			}
		}
	}

	kfmt.Printf("task %d: fatal page fault at %x\n", t.ID, addr)
	sched.Die(-1)
}

// growsUserStack reports whether addr is a legitimate stack-growth
// fault for t: strictly within [user_stack_top, user_stack_bottom),
// not on the guard page at user_stack_top itself, and not already
// mapped (a fault on an already-mapped page is some other protection
// violation, not growth).
func growsUserStack(t *task.Task, addr uintptr) bool {
	if t.UserStackTop == 0 {
		return false
	}
	if addr < t.UserStackTop || addr >= t.UserStackBottom {
		return false
	}
	if vmm.PageFromAddress(addr) == vmm.PageFromAddress(t.UserStackTop) {
		return false
	}

	_, err := t.PageTable.Translate(addr)
	return err != nil
}
