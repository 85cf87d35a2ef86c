package sched

import (
	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/kfmt"
	"github.com/rainkernel/rainkernel/kernel/task"
)

// ready holds every task in the Ready state, in the order it becomes
// eligible to run. There is exactly one of these for the whole core:
// this is a single-CPU scheduler (§5).
var ready task.WaitQueue

// cpu is the boot processor's per-CPU state, installed by Init.
var cpu *task.Cpu

// idle is dispatched whenever ready is empty; it is never itself placed
// on ready (§4.6: "the idle task is only chosen when no other task is
// ready").
var idle *task.Task

// unmapStackFn tears down a dying task's kernel stack. It is a package
// var, not a direct vmm.Unmap call, purely so tests can run Die without
// a real MMU; production wiring sets it once during boot.
var unmapStackFn func(top, bottom uintptr)

// switchToFn indirects task.SwitchTo (itself backed by the bodyless,
// asm-only task.switchTo) so unit tests can exercise the ready-queue and
// state-machine logic in dispatch/Die without a real register/page
// table switch.
var switchToFn = task.SwitchTo

// Init installs the boot CPU and its idle task. It must run before any
// other scheduler operation.
func Init(bootCPU *task.Cpu, idleTask *task.Task) {
	cpu = bootCPU
	idle = idleTask
	idle.State = task.Running
	cpu.SetCurrentTask(idle)
}

// SetUnmapStackFn wires the function Die/Destroy use to release a dead
// task's kernel stack mapping. Kept separate from Init so the early boot
// path can bring up the scheduler before the full vmm wiring exists.
func SetUnmapStackFn(fn func(top, bottom uintptr)) {
	unmapStackFn = fn
}

// CurrentTask returns the task presently running on this CPU.
func CurrentTask() *task.Task {
	return cpu.CurrentTask()
}

// registry maps task ids to their *task.Task so IPC's send phase can
// resolve an endpoint id to a task (§4.7's "look up receiver").
var registry = map[uint64]*task.Task{}

// AddTask places t into the ready set (§4.6's add_task). t must not
// already be linked into another queue.
func AddTask(t *task.Task) {
	t.State = task.Ready
	ready.PushBack(t)
	registry[t.ID] = t
}

// Lookup resolves a task id to its *task.Task, or nil if no live task
// has that id.
func Lookup(id uint64) *task.Task {
	return registry[id]
}

// pickNext selects the next task to run: the head of the ready queue,
// or idle if nothing is ready.
func pickNext() *task.Task {
	if next := ready.PopFront(); next != nil {
		return next
	}
	return idle
}

// dispatch makes next the running task and performs the register/page
// table switch away from prev, unless they are the same task.
func dispatch(prev, next *task.Task) {
	next.State = task.Running
	cpu.SetCurrentTask(next)
	if prev == next {
		return
	}
	switchToFn(prev, next)
}

// Yield moves the current task from Running back to Ready (at the tail
// of the queue, unless it is idle, which never re-enters ready), picks
// the next ready task, and context-switches to it. This is both the
// cooperative yield syscall and the body the preemption tick interrupt
// handler calls when the running task's quantum has expired.
func Yield() {
	prev := cpu.CurrentTask()
	if prev != idle {
		prev.State = task.Ready
		ready.PushBack(prev)
	}
	dispatch(prev, pickNext())
}

// Suspend moves the current task into newState, enqueues it on q, and
// switches to the next ready task. newState must be one of IpcSend,
// IpcReceive or Sleeping; Ready and Running are not valid wait states
// and passing either is a caller bug.
func Suspend(newState task.State, q *task.WaitQueue) {
	if newState == task.Ready || newState == task.Running {
		panic("sched: Suspend called with a non-wait state")
	}
	prev := cpu.CurrentTask()
	prev.State = newState
	q.PushBack(prev)
	dispatch(prev, pickNext())
}

// Wake removes t from q (wherever in it t currently sits) and places it
// back on the ready set. It is a no-op if t is already Ready or
// Running, matching §4.6's wake(task).
func Wake(q *task.WaitQueue, t *task.Task) {
	if t.State == task.Ready || t.State == task.Running {
		return
	}
	q.Remove(t)
	AddTask(t)
}

// Die transitions the current task Running -> Dead, tears down its
// kernel stack, and switches to the next ready task. Per §4.6 it never
// returns to its caller: the task that called Die is never scheduled
// again, so control only continues in whatever task is dispatched next.
func Die(status int) {
	prev := cpu.CurrentTask()
	kfmt.Printf("task %d exited with status %d\n", prev.ID, status)
	delete(registry, prev.ID)

	next := pickNext()
	next.State = task.Running
	cpu.SetCurrentTask(next)
	prev.Destroy(unmapStackFn, func() { switchToFn(prev, next) })
}

// Tick is the periodic timer interrupt handler: under the default
// single-tick-quantum scheduler (§4.6), every tick preempts the current
// task exactly like a voluntary yield.
func Tick() {
	owner := int64(cpu.CurrentTask().ID)
	if !kernel.LockHeldBy(owner) {
		// A tick that lands while the interrupted task does not hold
		// the kernel lock is free to reschedule immediately.
		Yield()
		return
	}
	// The interrupted task holds the coarse kernel lock re-entrantly
	// (e.g. it took the tick while already inside a syscall); deferring
	// the yield to its outermost Unlock avoids preempting it mid
	// critical section, per §5/§9.
	pendingYield = true
}

// pendingYield records a tick's deferred preemption; DrainPendingYield
// is called once the kernel lock's outermost Unlock has released it.
var pendingYield bool

// DrainPendingYield performs a yield deferred by Tick, if one is
// pending. Call this immediately after an outermost kernel.Unlock.
func DrainPendingYield() {
	if pendingYield {
		pendingYield = false
		Yield()
	}
}
