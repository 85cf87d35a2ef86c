package syscall

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel/kfmt"
	"github.com/rainkernel/rainkernel/kernel/task"
)

func TestSysExitCallsDieWithStatus(t *testing.T) {
	prev := dieFn
	defer func() { dieFn = prev }()

	var got int
	dieFn = func(status int) { got = status }

	sysExit(&task.Task{ID: 1}, Args{A1: uintptr(42)})
	if got != 42 {
		t.Fatalf("expected Die(42), got Die(%d)", got)
	}
}

func TestSysYieldReleasesLockAroundYield(t *testing.T) {
	prevYield, prevDrain := yieldFn, drainPendingYieldFn
	defer func() { yieldFn, drainPendingYieldFn = prevYield, prevDrain }()

	called := false
	yieldFn = func() { called = true }
	drainPendingYieldFn = func() {}

	sysYield(&task.Task{ID: 7}, Args{})
	if !called {
		t.Fatal("expected sysYield to invoke the scheduler's yield")
	}
}

func TestSysLogWritesThroughOutputSink(t *testing.T) {
	text := []byte("hello")
	ptr := uintptr(unsafe.Pointer(&text[0]))

	var out bytes.Buffer
	kfmt.SetOutputSink(&out)
	defer kfmt.SetOutputSink(nil)
	out.Reset()

	result := sysLog(&task.Task{}, Args{A1: ptr, A2: uintptr(len(text))})
	if result != 0 {
		t.Fatalf("expected sysLog to return 0, got %d", result)
	}
	if out.String() != "hello" {
		t.Fatalf("expected %q written to the output sink, got %q", "hello", out.String())
	}
}

func TestSysLogClampsOversizedLength(t *testing.T) {
	text := make([]byte, logBufferCap)
	ptr := uintptr(unsafe.Pointer(&text[0]))

	// A claimed length far past logBufferCap must not make sysLog read
	// past the buffer actually backing it; clamping happens before the
	// unsafe.Slice call.
	result := sysLog(&task.Task{}, Args{A1: ptr, A2: uintptr(1 << 30)})
	if result != 0 {
		t.Fatalf("expected sysLog to return 0, got %d", result)
	}
}
