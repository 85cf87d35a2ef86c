//go:build arm64

package task

import "unsafe"

// Context holds the callee-saved registers (x19-x29, SP, LR) a context
// switch swaps per the AAPCS64 ABI.
type Context struct {
	X19 uintptr
	X20 uintptr
	X21 uintptr
	X22 uintptr
	X23 uintptr
	X24 uintptr
	X25 uintptr
	X26 uintptr
	X27 uintptr
	X28 uintptr
	X29 uintptr // frame pointer
	LR  uintptr
	SP  uintptr
}

// trampolineFrame is laid out at the top of a fresh kernel stack so the
// first switchTo into a task lands in trampoline with entry(task,
// argument) queued to run, per §4.4.
type trampolineFrame struct {
	entry    EntryFn
	task     *Task
	argument uintptr
}

// trampoline is the landing site seeded by initContext; its
// architecture-specific body (not carried in this retrieval) reads the
// *trampolineFrame below the saved Context, calls entry(task,
// argument), and falls through to die(0) on return.
func trampoline()

func initContext(ctx *Context, stackBottom uintptr, fn EntryFn, t *Task, argument uintptr) {
	frameAddr := stackBottom - unsafe.Sizeof(trampolineFrame{})
	frame := (*trampolineFrame)(unsafe.Pointer(frameAddr))
	frame.entry = fn
	frame.task = t
	frame.argument = argument

	*ctx = Context{SP: frameAddr}
}

// switchTo saves the currently running task's callee-saved registers
// into prev and loads next's, including SP and the page-table root if
// it differs from prev's.
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
