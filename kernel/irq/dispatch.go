package irq

import (
	"github.com/rainkernel/rainkernel/kernel/cpu"
	"github.com/rainkernel/rainkernel/kernel/kfmt"
)

var handlers [handlerTableSize]Handler

// haltFn is overridden in tests so the unhandled-exception path never
// actually executes HLT/WFI.
var haltFn = cpu.Halt

// installIDTFn and installGateFn indirect the real (bodyless,
// asm-backed) gate installers so tests can exercise Init/HandleInterrupt
// without a real IDT/vector table to write into.
var (
	installIDTFn  = installIDT
	installGateFn = installGate
)

// Init installs the IDT/vector table and wires a default handler for
// each exception in defaultHandledVectors so an unhandled fault prints a
// register dump instead of silently triple-faulting.
func Init() {
	installIDTFn()
	installDefaultHandlers()
}

// HandleInterrupt registers handler for intNumber, replacing whatever
// was previously installed (including a default handler from Init).
// istOffset selects an interrupt-stack-table slot to run the handler on
// (amd64 only; ignored elsewhere) so exceptions that can be taken with a
// corrupt kernel stack, such as DoubleFault, still land on a known-good
// stack. A value of 0 means "use the current stack".
func HandleInterrupt(intNumber InterruptNumber, istOffset uint8, handler Handler) {
	handlers[intNumber] = handler
	installGateFn(intNumber, istOffset)
}

// installGate is invoked after a handler is registered so the
// architecture-specific gate can be marked present (amd64) or left
// alone (arm64, where every vector dispatches in software). Declared
// without a body alongside installIDT.
func installGate(intNumber InterruptNumber, istOffset uint8)

// dispatchInterrupt is the landing site every interruptGateEntries stub
// branches to once it has built a Registers frame on the kernel stack.
// Declared without a body: its job is to call route(vector, regs) and
// then IRETQ/ERET back to the interrupted context, neither of which is
// expressible in Go.
func dispatchInterrupt()

// route looks up the handler registered for vec and invokes it with
// regs. Exists so Init/HandleInterrupt/the default handler can be
// written and tested in Go even though dispatchInterrupt itself is not.
func route(vec InterruptNumber, regs *Registers) {
	h := handlers[vec]
	if h == nil {
		h = unhandled
	}
	h(regs)
}

func unhandled(regs *Registers) {
	kfmt.Printf("unhandled interrupt, Info = %x\n", regs.Info)
	regs.DumpTo(kfmt.GetOutputSink())
	for {
		haltFn()
	}
}

func installDefaultHandlers() {
	for _, vec := range defaultHandledVectors {
		handlers[vec] = unhandled
		installGateFn(vec, 0)
	}
}
