package syscall

import (
	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/sched"
)

// The scheduler calls below are indirected through package vars,
// consistent with every other suspension-point boundary in this core
// (sched.switchToFn, ipc's currentTaskFn/suspendFn/...): it lets a
// handler's own logic be exercised in a test without a real CPU to
// context-switch on.
var (
	yieldFn             = sched.Yield
	drainPendingYieldFn = sched.DrainPendingYield
)

// releaseLockAroundSuspend drops the kernel lock t holds (per §5's
// named suspension points: yield, suspend, futex_wait, IPC rendezvous)
// before calling blocking, and reacquires it to the same single level
// once blocking returns and t is running again. Every syscall handler
// that can suspend the current task calls this around the call that
// does so, rather than suspending while still holding the lock — the
// scheduler tick's deferred-yield mechanism (§5/§9) only has to reason
// about one task's lock, never about a lock a different, now-suspended
// task still owns.
func releaseLockAroundSuspend(owner int64, blocking func()) {
	held := kernel.LockHeldBy(owner)
	if held && kernel.Unlock(owner) {
		drainPendingYieldFn()
	}
	blocking()
	if held {
		kernel.Lock(owner)
	}
}
