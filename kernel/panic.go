package kernel

import "github.com/rainkernel/rainkernel/kernel/kfmt"

// HaltFn halts the CPU. Kmain sets it to cpu.Halt at boot; while it is
// nil (as in tests), Panic spins in a loop instead of halting.
var HaltFn func()

var errRuntimePanic = &Error{Module: "rt", Message: "unknown cause"}

// Panic prints the supplied error (if any) and halts the machine. It never
// returns. This is the only path for an unrecoverable kernel fault (§7):
// a full diagnostic dump followed by a halt, never a resume.
func Panic(e interface{}) {
	var err *Error

	switch t := e.(type) {
	case *Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	kfmt.Printf("\n-----------------------------------\n")
	if err != nil {
		kfmt.Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	kfmt.Printf("*** kernel panic: system halted ***")
	kfmt.Printf("\n-----------------------------------\n")

	if HaltFn != nil {
		HaltFn()
	}

	for {
	}
}
