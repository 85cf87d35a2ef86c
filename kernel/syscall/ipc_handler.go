package syscall

import (
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel/ipc"
	"github.com/rainkernel/rainkernel/kernel/task"
)

// messageBytes is the size in bytes of a Task's fixed 16-word message
// register block; send/receive lengths beyond it are silently clipped
// (§4.7).
const messageBytes = 16 * unsafe.Sizeof(uintptr(0))

// ipcCallFn indirects ipc.Call so sysIpc's argument/copy plumbing can
// be exercised without a live scheduler backing a real rendezvous.
var ipcCallFn = ipc.Call

// sysIpc implements function 5 (ipc): send_to, receive_from, s_buf,
// s_len, r_buf, r_len. It copies the user send buffer into the task's
// message registers, performs the rendezvous (which may suspend the
// task — one of §5's named suspension points), and copies the message
// registers back out to the user receive buffer.
func sysIpc(t *task.Task, a Args) uintptr {
	sendTo, receiveFrom := uint64(a.A1), uint64(a.A2)
	sBuf, sLen := a.A3, a.A4
	rBuf, rLen := a.A5, a.A6

	if sendTo != ipc.NONE {
		copyIn(t, sBuf, sLen)
	}

	var (
		partner uint64
		ok      bool
	)
	releaseLockAroundSuspend(int64(t.ID), func() {
		partner, ok = ipcCallFn(sendTo, receiveFrom)
	})
	if !ok {
		return Fail
	}

	if receiveFrom != ipc.NONE {
		copyOut(t, rBuf, rLen)
	}
	return uintptr(partner)
}

func copyIn(t *task.Task, userBuf, length uintptr) {
	if length > uintptr(messageBytes) {
		length = uintptr(messageBytes)
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(userBuf)), length)
	dst := unsafe.Slice((*byte)(unsafe.Pointer(&t.Message[0])), length)
	copy(dst, src)
}

func copyOut(t *task.Task, userBuf, length uintptr) {
	if length > uintptr(messageBytes) {
		length = uintptr(messageBytes)
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(userBuf)), length)
	src := unsafe.Slice((*byte)(unsafe.Pointer(&t.Message[0])), length)
	copy(dst, src)
}
