package task

import "testing"

func TestWaitQueuePushBackPreservesFIFOOrder(t *testing.T) {
	var q WaitQueue
	t1, t2, t3 := &Task{ID: 1}, &Task{ID: 2}, &Task{ID: 3}
	q.PushBack(t1)
	q.PushBack(t2)
	q.PushBack(t3)

	if q.Len() != 3 {
		t.Fatalf("expected len 3, got %d", q.Len())
	}
	for _, want := range []*Task{t1, t2, t3} {
		if got := q.PopFront(); got != want {
			t.Fatalf("expected task %d, got %v", want.ID, got)
		}
	}
	if q.Len() != 0 || q.PopFront() != nil {
		t.Fatal("expected an empty queue after draining all pushes")
	}
}

func TestWaitQueueRemoveFromMiddle(t *testing.T) {
	var q WaitQueue
	t1, t2, t3 := &Task{ID: 1}, &Task{ID: 2}, &Task{ID: 3}
	q.PushBack(t1)
	q.PushBack(t2)
	q.PushBack(t3)

	q.Remove(t2)
	if q.Len() != 2 {
		t.Fatalf("expected len 2 after removing the middle entry, got %d", q.Len())
	}
	if got := q.PopFront(); got != t1 {
		t.Fatalf("expected t1 first, got %v", got)
	}
	if got := q.PopFront(); got != t3 {
		t.Fatalf("expected t3 second, got %v", got)
	}
}

func TestWaitQueueRemoveHeadAndTail(t *testing.T) {
	var q WaitQueue
	t1, t2 := &Task{ID: 1}, &Task{ID: 2}
	q.PushBack(t1)
	q.PushBack(t2)

	q.Remove(t1)
	if q.Front() != t2 {
		t.Fatal("expected t2 to become the new head after removing t1")
	}

	q.Remove(t2)
	if q.Len() != 0 || q.Front() != nil {
		t.Fatal("expected an empty queue after removing both entries")
	}
}

func TestWaitQueueRemoveUnlinkedTaskIsNoOp(t *testing.T) {
	var q WaitQueue
	t1 := &Task{ID: 1}
	q.PushBack(t1)

	unrelated := &Task{ID: 99}
	q.Remove(unrelated)
	if q.Len() != 1 {
		t.Fatalf("expected removing an unlinked task to be a no-op, len=%d", q.Len())
	}
}
