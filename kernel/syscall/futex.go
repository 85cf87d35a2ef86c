package syscall

import (
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel/sched"
	"github.com/rainkernel/rainkernel/kernel/task"
)

// futexQueues holds one WaitQueue per distinct address currently being
// waited on. Entries are never removed once created; an empty queue
// left behind after the last waiter wakes is harmless and keeps
// futex_wake from having to special-case "nobody has ever waited
// here".
var futexQueues = map[uintptr]*task.WaitQueue{}

func futexQueue(addr uintptr) *task.WaitQueue {
	q, ok := futexQueues[addr]
	if !ok {
		q = &task.WaitQueue{}
		futexQueues[addr] = q
	}
	return q
}

// loadFutexWord reads the 32-bit user-space value a futex call tests,
// indirected so tests can drive futex_wait without a mapped page.
var loadFutexWord = func(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

// suspendFn and wakeFn indirect the two scheduler calls futex_wait/
// futex_wake make, the same way package ipc does for its own
// suspend/wake pair, so the queue bookkeeping above can be tested
// without a live scheduler to dispatch into.
var (
	suspendFn = sched.Suspend
	wakeFn    = sched.Wake
)

// sysFutexWait implements function 8 (futex_wait): addr, expected. The
// comparison against the live value and the suspend must happen as one
// atomic step under the kernel lock (§5), otherwise a wake racing in
// between would be missed entirely; that atomicity is exactly what
// holding the single coarse lock across this handler already gives us.
func sysFutexWait(t *task.Task, a Args) uintptr {
	addr := a.A1
	expected := uint32(a.A2)

	if loadFutexWord(addr) != expected {
		return Fail
	}

	q := futexQueue(addr)
	releaseLockAroundSuspend(int64(t.ID), func() {
		suspendFn(task.Sleeping, q)
	})
	return 0
}

// sysFutexWake implements function 9 (futex_wake): addr, count. It
// wakes up to count waiters queued on addr and returns how many were
// actually woken.
func sysFutexWake(t *task.Task, a Args) uintptr {
	addr := a.A1
	count := a.A2

	q, ok := futexQueues[addr]
	if !ok {
		return 0
	}

	woken := uintptr(0)
	for woken < count {
		waiter := q.Front()
		if waiter == nil {
			break
		}
		wakeFn(q, waiter)
		woken++
	}
	return woken
}
