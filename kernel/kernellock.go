package kernel

import "github.com/rainkernel/rainkernel/kernel/sync"

// lock is the single coarse kernel lock described in §5 and §9: it
// serializes syscalls, page-table edits, the scheduler, and every
// interrupt handler except the preemption tick itself. It lives here,
// not in package sched or package sync, because every package on both
// sides of the lock (mem/vmm, task, sched, syscall) already imports
// kernel for its Error type, so this is the one place reachable from
// all of them without an import cycle.
var lock sync.RecursiveLock

// Lock acquires the kernel lock on behalf of ownerID (a task id in
// practice; 0 is reserved for contexts with no current task, such as
// early boot). It reports whether this call was the outermost
// acquisition, matching sync.RecursiveLock.Acquire.
func Lock(ownerID int64) bool {
	return lock.Acquire(ownerID)
}

// Unlock releases one level of ownerID's acquisition, reporting whether
// the lock is now fully free.
func Unlock(ownerID int64) bool {
	return lock.Release(ownerID)
}

// LockHeldBy reports whether ownerID currently holds the kernel lock at
// any nesting depth.
func LockHeldBy(ownerID int64) bool {
	return lock.HeldBy(ownerID)
}

// LockDepth returns the kernel lock's current nesting depth.
func LockDepth() uint32 {
	return lock.Depth()
}
