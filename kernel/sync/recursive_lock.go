package sync

import "sync/atomic"

// noOwner is the sentinel stored in RecursiveLock.owner while the lock is
// free. Owner identifiers are expected to be task ids, which are assigned
// starting at 1 (the idle task is 0 but never competes for the kernel
// lock), so 0 doubles as "nobody holds this".
const noOwner = 0

// RecursiveLock is the kernel's single coarse lock (§5, §9): it serializes
// syscalls, page-table edits and every interrupt handler except the
// scheduler tick, and it is re-entrant by the owning task. The scheduler
// tick does not acquire it: it checks HeldBy, and if the interrupted task
// holds the lock the tick's yield is deferred until the outermost Release.
//
// The owner is identified by an opaque id (a task id in practice) rather
// than a *cpu.Cpu, so this package does not need to import cpu and cpu can
// freely import sync.
type RecursiveLock struct {
	state uint32
	owner int64
	depth uint32
}

// Acquire takes the lock on behalf of ownerID, blocking if a different
// owner currently holds it. It returns true if this call performed the
// outermost acquisition (depth went 0->1), false if it was a nested
// re-acquisition by the same owner. Callers that defer work until the lock
// is fully released (e.g. a pending yield) should check this return value.
func (l *RecursiveLock) Acquire(ownerID int64) bool {
	if atomic.LoadInt64(&l.owner) == ownerID && l.depth > 0 {
		l.depth++
		return false
	}

	for !atomic.CompareAndSwapUint32(&l.state, 0, 1) {
		archPause()
	}

	atomic.StoreInt64(&l.owner, ownerID)
	l.depth = 1
	return true
}

// Release relinquishes one level of acquisition. It returns true once the
// outermost Release has run (depth dropped to 0) and the lock is actually
// free; callers use this to know when deferred yields may proceed.
func (l *RecursiveLock) Release(ownerID int64) bool {
	if atomic.LoadInt64(&l.owner) != ownerID || l.depth == 0 {
		// Releasing a lock this owner does not hold is a programming
		// error; in a debug build this would assert. In the core it
		// is a no-op so a misbehaving handler cannot corrupt state
		// held by someone else.
		return false
	}

	l.depth--
	if l.depth > 0 {
		return false
	}

	atomic.StoreInt64(&l.owner, noOwner)
	atomic.StoreUint32(&l.state, 0)
	return true
}

// HeldBy reports whether ownerID currently holds the lock, at any nesting
// depth. The scheduler tick uses this to decide whether it may proceed
// with an immediate yield or must defer to the next Release.
func (l *RecursiveLock) HeldBy(ownerID int64) bool {
	return atomic.LoadInt64(&l.owner) == ownerID && l.depth > 0
}

// Depth returns the current nesting depth (0 if free).
func (l *RecursiveLock) Depth() uint32 {
	return l.depth
}
