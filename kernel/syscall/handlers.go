package syscall

import (
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel/kfmt"
	"github.com/rainkernel/rainkernel/kernel/sched"
	"github.com/rainkernel/rainkernel/kernel/task"
)

// dieFn indirects sched.Die so sysExit's argument decoding can be
// tested without tearing down a real task.
var dieFn = sched.Die

// sysExit implements function 1 (exit): never returns to the caller on
// real hardware, since sched.Die switches away from the dying task for
// good.
func sysExit(t *task.Task, a Args) uintptr {
	dieFn(int(int32(a.A1)))
	return 0
}

// sysYield implements function 7 (yield): the voluntary counterpart of
// the preemption tick, one of §5's named suspension points.
func sysYield(t *task.Task, a Args) uintptr {
	releaseLockAroundSuspend(int64(t.ID), yieldFn)
	return 0
}

// logBufferCap bounds how many bytes sysLog copies out of user memory
// in one call, independent of the length the caller claims; the
// original simply trusted text, but an unvalidated length read
// straight into kfmt would let user space crash the kernel trying to
// read past the end of its own buffer.
const logBufferCap = 4096

// sysLog implements function 6 (log): text_pointer, length. The caller
// is in the same address space (the syscall ran with the task's own
// page table active), so the pointer can be read directly once its
// length is clamped.
func sysLog(t *task.Task, a Args) uintptr {
	length := a.A2
	if length > logBufferCap {
		length = logBufferCap
	}
	text := unsafe.Slice((*byte)(unsafe.Pointer(a.A1)), length)
	kfmt.Printf("%s", text)
	return 0
}
