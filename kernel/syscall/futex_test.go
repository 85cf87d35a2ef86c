package syscall

import (
	"testing"

	"github.com/rainkernel/rainkernel/kernel/task"
)

func resetFutexQueues(t *testing.T) {
	t.Helper()
	prev := futexQueues
	futexQueues = map[uintptr]*task.WaitQueue{}
	t.Cleanup(func() { futexQueues = prev })
}

func TestSysFutexWaitFailsWhenValueDoesNotMatch(t *testing.T) {
	resetFutexQueues(t)
	prevLoad := loadFutexWord
	defer func() { loadFutexWord = prevLoad }()
	loadFutexWord = func(uintptr) uint32 { return 99 }

	got := sysFutexWait(&task.Task{ID: 1}, Args{A1: 0x1000, A2: 5})
	if got != Fail {
		t.Fatalf("expected Fail on a value mismatch, got %x", got)
	}
	if futexQueues[0x1000] != nil {
		t.Fatal("expected no wait queue to be created on a failed wait")
	}
}

func TestSysFutexWaitSuspendsOnAMatchingValue(t *testing.T) {
	resetFutexQueues(t)
	prevLoad := loadFutexWord
	defer func() { loadFutexWord = prevLoad }()
	loadFutexWord = func(uintptr) uint32 { return 5 }

	prevDrain := drainPendingYieldFn
	defer func() { drainPendingYieldFn = prevDrain }()
	drainPendingYieldFn = func() {}

	suspended := false
	prevSuspend := suspendFn
	defer func() { suspendFn = prevSuspend }()
	suspendFn = func(newState task.State, q *task.WaitQueue) {
		suspended = true
		if newState != task.Sleeping {
			t.Fatalf("expected Sleeping state, got %v", newState)
		}
	}

	got := sysFutexWait(&task.Task{ID: 1}, Args{A1: 0x1000, A2: 5})
	if got != 0 {
		t.Fatalf("expected 0, got %x", got)
	}
	if !suspended {
		t.Fatal("expected sysFutexWait to suspend the caller")
	}
}

func TestSysFutexWakeWakesUpToCount(t *testing.T) {
	resetFutexQueues(t)

	q := futexQueue(0x2000)
	a := &task.Task{ID: 10, State: task.Sleeping}
	b := &task.Task{ID: 11, State: task.Sleeping}
	c := &task.Task{ID: 12, State: task.Sleeping}
	q.PushBack(a)
	q.PushBack(b)
	q.PushBack(c)

	prevWake := wakeFn
	defer func() { wakeFn = prevWake }()
	wakeFn = func(q *task.WaitQueue, woken *task.Task) {
		q.Remove(woken)
		woken.State = task.Ready
	}

	got := sysFutexWake(&task.Task{}, Args{A1: 0x2000, A2: 2})
	if got != 2 {
		t.Fatalf("expected 2 woken, got %d", got)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 task left queued, got %d", q.Len())
	}
}

func TestSysFutexWakeOnUnknownAddressIsANoop(t *testing.T) {
	resetFutexQueues(t)
	got := sysFutexWake(&task.Task{}, Args{A1: 0x3000, A2: 4})
	if got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
