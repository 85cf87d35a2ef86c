// Package syscall implements the fixed nine-entry syscall table and
// the fast-path entry/exit sequence described in §4.8: a mandatory FPU
// save/restore guard around every call, dispatch through an immutable
// function-number-indexed table, and the whole body serialized by the
// single coarse kernel lock (§5). Grounded on the original core's
// kernel/syscall.cpp, generalized from its switch statement to the
// table-driven dispatch style gopher-os uses for its own interrupt
// vectors.
package syscall

import (
	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/task"
)

// Function numbers, per §4.8's entry vector layout.
const (
	Exit = uint64(iota + 1)
	Mmap
	Munmap
	Thread
	Ipc
	Log
	Yield
	FutexWait
	FutexWake
)

const numFunctions = FutexWake + 1

// Fail is the sentinel failure result, matching the original core's
// convention of returning -1 (reinterpreted as an unsigned result
// register) for a failed or unknown call.
const Fail = ^uintptr(0)

// Args holds a syscall's argument registers, already pulled out of the
// architecture's Registers frame by the entry stub. Six covers the
// widest entry, ipc's (send_to, receive_from, s_buf, s_len, r_buf,
// r_len); every other function simply leaves the unused tail zeroed.
type Args struct {
	A1, A2, A3, A4, A5, A6 uintptr
}

// Handler implements one syscall function. It receives the calling
// task (already current, already FPU-guarded, already holding the
// kernel lock) and returns the value to place in the result register.
type Handler func(t *task.Task, a Args) uintptr

var handlers [numFunctions]Handler

// saveFPUFn and restoreFPUFn indirect the mandatory FPU guard so Handle's
// lock/trace/dispatch bookkeeping can be tested without the real
// architecture FPU save/restore intrinsics.
var (
	saveFPUFn    = task.SaveFPU
	restoreFPUFn = task.RestoreFPU
)

func init() {
	handlers[Exit] = sysExit
	handlers[Mmap] = sysMmap
	handlers[Munmap] = sysMunmap
	handlers[Thread] = sysThread
	handlers[Ipc] = sysIpc
	handlers[Log] = sysLog
	handlers[Yield] = sysYield
	handlers[FutexWait] = sysFutexWait
	handlers[FutexWake] = sysFutexWake
}

// Handle is the Go-level landing site for every syscall, called by the
// architecture's fast-path entry stub once it has switched to the
// task's kernel stack and decoded fn/a1..a6 out of the user's
// registers. It applies the mandatory FPU guard, takes the coarse
// kernel lock for the duration of the call (draining any preemption
// the scheduler tick deferred while it was held), traces the call if
// enabled, and dispatches to fn's handler.
func Handle(t *task.Task, fn uint64, a Args) uintptr {
	saveFPUFn(t)
	defer restoreFPUFn(t)

	owner := int64(t.ID)
	kernel.Lock(owner)
	defer unlockAndDrain(owner)

	Trace(t, fn, a.A1, a.A2)

	if fn == 0 || fn >= numFunctions || handlers[fn] == nil {
		return Fail
	}
	return handlers[fn](t, a)
}

// unlockAndDrainFn indirects the scheduler hook so tests can exercise
// Handle's lock bookkeeping without a real scheduler.
var unlockAndDrainFn = func() { drainPendingYieldFn() }

func unlockAndDrain(owner int64) {
	if kernel.Unlock(owner) {
		unlockAndDrainFn()
	}
}
