package syscall

import (
	"github.com/rainkernel/rainkernel/kernel/sched"
	"github.com/rainkernel/rainkernel/kernel/task"
)

// newTaskFn and addTaskFn indirect task creation and scheduling so the
// thread syscall's argument plumbing can be tested without allocating a
// real kernel stack or touching the live scheduler.
var (
	newTaskFn = task.New
	addTaskFn = sched.AddTask
)

// sysThread implements function 4 (thread): fn, arg, flags,
// user_stack, user_stack_size. It spawns a new task sharing the
// calling task's address space and TLS template — the user-visible
// "thread" primitive this core exposes, grounded on the original
// core's usermode_clone. flags is accepted but unused, matching the
// original (it never defined a meaning for it either).
func sysThread(t *task.Task, a Args) uintptr {
	entry, arg, userStack, userStackSize := a.A1, a.A2, a.A4, a.A5
	tmpl := t.TLSTemplate()

	child, err := newTaskFn(childEntry(entry, arg, tmpl), 0, t.PageTable, allocFrameFn)
	if err != nil {
		return Fail
	}

	child.UserStackTop = userStack - userStackSize
	child.UserStackBottom = userStack

	addTaskFn(child)
	return child.ID
}

// childEntry builds the kernel-level EntryFn a cloned task's trampoline
// calls on its first resume. Closing over entry/arg/tmpl here plays the
// role the original's UserCloneContext struct does — Go's closures make
// the extra indirection struct unnecessary. TLS is installed here,
// inside the child's own first resume, not by the parent in sysThread:
// installing the TLS base register only makes sense for whichever task
// is actually running, and that is the child the first time this runs.
func childEntry(entry, arg uintptr, tmpl task.TLSTemplate) task.EntryFn {
	return func(child *task.Task, _ uintptr) {
		child.InitUserTLS(tmpl, task.TLSVirtBaseFor(child.ID), allocFrameFn)
		sp := task.AlignUserStackPointer(child.UserStackBottom)
		task.EnterUserMode(entry, arg, sp)
	}
}
