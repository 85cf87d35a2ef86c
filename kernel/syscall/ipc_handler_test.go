package syscall

import (
	"testing"
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel/task"
)

func withIpcCallStub(t *testing.T, fn func(sendTo, receiveFrom uint64) (uint64, bool)) {
	t.Helper()
	prev := ipcCallFn
	ipcCallFn = fn
	t.Cleanup(func() { ipcCallFn = prev })
}

func withReleaseAroundSuspendStub(t *testing.T) {
	t.Helper()
	prevYield, prevDrain := yieldFn, drainPendingYieldFn
	yieldFn = func() {}
	drainPendingYieldFn = func() {}
	t.Cleanup(func() { yieldFn, drainPendingYieldFn = prevYield, prevDrain })
}

func TestSysIpcCopiesSendBufferThenCallsAndCopiesBackReceiveBuffer(t *testing.T) {
	withReleaseAroundSuspendStub(t)

	var gotSendTo, gotReceiveFrom uint64
	withIpcCallStub(t, func(sendTo, receiveFrom uint64) (uint64, bool) {
		gotSendTo, gotReceiveFrom = sendTo, receiveFrom
		return 7, true
	})

	tsk := &task.Task{ID: 1}
	tsk.Message[0] = 0xdeadbeef

	sendBuf := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	var recvBuf [8]byte

	got := sysIpc(tsk, Args{
		A1: 2, A2: 3,
		A3: uintptr(unsafe.Pointer(&sendBuf[0])), A4: uintptr(len(sendBuf)),
		A5: uintptr(unsafe.Pointer(&recvBuf[0])), A6: uintptr(len(recvBuf)),
	})

	if got != 7 {
		t.Fatalf("expected partner id 7, got %d", got)
	}
	if gotSendTo != 2 || gotReceiveFrom != 3 {
		t.Fatalf("unexpected ipc.Call arguments: sendTo=%d receiveFrom=%d", gotSendTo, gotReceiveFrom)
	}
	for i, b := range sendBuf {
		if (*(*[16]byte)(unsafe.Pointer(&tsk.Message[0])))[i] != b {
			t.Fatalf("send buffer byte %d not copied into task message", i)
		}
	}
	if recvBuf != sendBuf {
		t.Fatalf("expected the task message copied back into the receive buffer, got %v", recvBuf)
	}
}

func TestSysIpcReturnsFailWhenCallFails(t *testing.T) {
	withReleaseAroundSuspendStub(t)
	withIpcCallStub(t, func(uint64, uint64) (uint64, bool) { return 0, false })

	got := sysIpc(&task.Task{ID: 1}, Args{A1: 2})
	if got != Fail {
		t.Fatalf("expected Fail, got %x", got)
	}
}

func TestSysIpcSkipsSendCopyWhenSendToIsNone(t *testing.T) {
	withReleaseAroundSuspendStub(t)
	withIpcCallStub(t, func(uint64, uint64) (uint64, bool) { return 0, true })

	tsk := &task.Task{ID: 1}
	tsk.Message[0] = 0x42

	sysIpc(tsk, Args{A1: 0, A2: 0})
	if tsk.Message[0] != 0x42 {
		t.Fatal("expected the task's message block to be left untouched")
	}
}
