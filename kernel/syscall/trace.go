package syscall

import (
	"github.com/rainkernel/rainkernel/kernel/config"
	"github.com/rainkernel/rainkernel/kernel/kfmt"
	"github.com/rainkernel/rainkernel/kernel/task"
)

// traceEnabled gates Trace's output; set once at boot from the kernel
// command line's "synctrace" flag (a supplemental debug aid, not part
// of any module the spec names).
var traceEnabled bool

// SetTrace enables or disables per-call tracing, reading the decision
// out of the parsed boot command line.
func SetTrace(cmdLine config.CmdLine) {
	traceEnabled = cmdLine.Has("synctrace")
}

// names gives each function number a short label for Trace's output.
var names = [numFunctions]string{
	Exit:      "exit",
	Mmap:      "mmap",
	Munmap:    "munmap",
	Thread:    "thread",
	Ipc:       "ipc",
	Log:       "log",
	Yield:     "yield",
	FutexWait: "futex_wait",
	FutexWake: "futex_wake",
}

// Trace logs a single syscall invocation when tracing is enabled. It is
// called unconditionally from Handle so the gate is purely a runtime
// check, never a build-time one.
func Trace(t *task.Task, fn uint64, a1, a2 uintptr) {
	if !traceEnabled {
		return
	}
	name := "?"
	if fn < numFunctions {
		name = names[fn]
	}
	kfmt.Printf("syscall: task=%d fn=%s a1=%x a2=%x\n", t.ID, name, a1, a2)
}
