//go:build amd64

package task

import "unsafe"

// Context holds the callee-saved registers switchTo swaps on a context
// switch, per the System V AMD64 ABI: the caller-saved registers are
// already on the stack by the time contextSwitch runs. SP points at the
// top of whatever this task's stack looks like right now; on the very
// first switch it points just below the trampoline frame built by
// initContext.
type Context struct {
	RBX uintptr
	RBP uintptr
	R12 uintptr
	R13 uintptr
	R14 uintptr
	R15 uintptr
	SP  uintptr
}

// trampolineFrame is laid out at the top of a fresh kernel stack so
// that the first contextSwitch into a task "returns" into trampoline,
// which then calls entry(task, argument) per §4.4.
type trampolineFrame struct {
	entry    EntryFn
	task     *Task
	argument uintptr
}

// trampoline is the landing site seeded by initContext. It is declared
// without a body: the architecture-specific stub (not carried in this
// retrieval) reads the *trampolineFrame left just below the saved
// Context on the new stack, calls entry(task, argument), and on return
// falls through to die(0) rather than ever executing a real ret.
func trampoline()

// initContext prepares ctx so that the first switchTo(ctx) resumes
// execution in trampoline with fn(t, argument) queued to run.
func initContext(ctx *Context, stackBottom uintptr, fn EntryFn, t *Task, argument uintptr) {
	frameAddr := stackBottom - unsafe.Sizeof(trampolineFrame{})
	frame := (*trampolineFrame)(unsafe.Pointer(frameAddr))
	frame.entry = fn
	frame.task = t
	frame.argument = argument

	*ctx = Context{SP: frameAddr}
}

// switchTo saves the currently running task's callee-saved registers
// into prev and loads next's, including next's stack pointer and page
// table if it differs from prev's. It is asm-backed per §4.6's context
// switch description.
func switchTo(prev, next *Context, nextPDTPhysAddr uintptr)

// SwitchTo performs a full task switch from prev to next: it saves
// prev's register context, loads next's, and swaps the page-table root
// to next's if next runs in a different address space. It returns when
// prev is scheduled to run again, not when next starts running.
func SwitchTo(prev, next *Task) {
	var nextPDT uintptr
	if next.PageTable != nil {
		nextPDT = next.PageTable.TopFrame().Address()
	}
	switchTo(&prev.Context, &next.Context, nextPDT)
}
