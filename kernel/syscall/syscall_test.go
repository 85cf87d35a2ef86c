package syscall

import (
	"testing"

	"github.com/rainkernel/rainkernel/kernel/task"
)

func withHandleMocks(t *testing.T) *task.Task {
	t.Helper()
	tsk := &task.Task{ID: 3}

	prevSave, prevRestore := saveFPUFn, restoreFPUFn
	saveFPUFn, restoreFPUFn = func(*task.Task) {}, func(*task.Task) {}
	t.Cleanup(func() { saveFPUFn, restoreFPUFn = prevSave, prevRestore })

	prevUnlockDrain := unlockAndDrainFn
	unlockAndDrainFn = func() {}
	t.Cleanup(func() { unlockAndDrainFn = prevUnlockDrain })

	prevTrace := traceEnabled
	traceEnabled = false
	t.Cleanup(func() { traceEnabled = prevTrace })

	return tsk
}

func TestHandleDispatchesToRegisteredHandler(t *testing.T) {
	tsk := withHandleMocks(t)

	prevHandlers := handlers
	t.Cleanup(func() { handlers = prevHandlers })

	called := false
	var gotArgs Args
	handlers[Log] = func(t *task.Task, a Args) uintptr {
		called = true
		gotArgs = a
		return 55
	}

	got := Handle(tsk, Log, Args{A1: 1, A2: 2})
	if !called {
		t.Fatal("expected the registered handler to run")
	}
	if got != 55 {
		t.Fatalf("expected 55, got %d", got)
	}
	if gotArgs.A1 != 1 || gotArgs.A2 != 2 {
		t.Fatalf("unexpected args forwarded: %+v", gotArgs)
	}
}

func TestHandleReturnsFailForUnknownFunctionNumber(t *testing.T) {
	tsk := withHandleMocks(t)

	got := Handle(tsk, numFunctions+5, Args{})
	if got != Fail {
		t.Fatalf("expected Fail for an out-of-range function number, got %x", got)
	}
}

func TestHandleReturnsFailForFunctionZero(t *testing.T) {
	tsk := withHandleMocks(t)

	got := Handle(tsk, 0, Args{})
	if got != Fail {
		t.Fatalf("expected Fail for function 0, got %x", got)
	}
}

func TestHandleUnlocksAfterDispatch(t *testing.T) {
	tsk := withHandleMocks(t)

	prevHandlers := handlers
	t.Cleanup(func() { handlers = prevHandlers })
	handlers[Log] = func(*task.Task, Args) uintptr { return 0 }

	drainCalls := 0
	prevDrain := unlockAndDrainFn
	unlockAndDrainFn = func() { drainCalls++ }
	t.Cleanup(func() { unlockAndDrainFn = prevDrain })

	Handle(tsk, Log, Args{})
	if drainCalls != 1 {
		t.Fatalf("expected unlockAndDrainFn called once, got %d", drainCalls)
	}
}
