package task

// WaitQueue is an intrusive, ordered, FIFO sequence of tasks (§3),
// built directly out of each Task's own WaitLink so enqueueing never
// allocates. A task belongs to at most one WaitQueue at a time; pushing
// a task already linked elsewhere would corrupt both lists, so callers
// must dequeue first.
type WaitQueue struct {
	head *Task
	tail *Task
	len  int
}

// Len reports how many tasks are currently queued.
func (q *WaitQueue) Len() int {
	return q.len
}

// Front returns the task at the head of the queue without removing it,
// or nil if the queue is empty.
func (q *WaitQueue) Front() *Task {
	return q.head
}

// PushBack appends t to the tail of the queue.
func (q *WaitQueue) PushBack(t *Task) {
	t.WaitLink.Prev = q.tail
	t.WaitLink.Next = nil

	if q.tail != nil {
		q.tail.WaitLink.Next = t
	} else {
		q.head = t
	}
	q.tail = t
	q.len++
}

// PopFront removes and returns the task at the head of the queue, or
// nil if the queue is empty.
func (q *WaitQueue) PopFront() *Task {
	t := q.head
	if t == nil {
		return nil
	}
	q.remove(t)
	return t
}

// Remove detaches t from the queue. It is a no-op if t is not linked
// into any queue. Membership in this particular queue is not checked:
// passing a task that is linked into a different queue corrupts both.
func (q *WaitQueue) Remove(t *Task) {
	if q.head != t && q.tail != t && t.WaitLink.Prev == nil && t.WaitLink.Next == nil {
		return
	}
	q.remove(t)
}

func (q *WaitQueue) remove(t *Task) {
	if t.WaitLink.Prev != nil {
		t.WaitLink.Prev.WaitLink.Next = t.WaitLink.Next
	} else {
		q.head = t.WaitLink.Next
	}
	if t.WaitLink.Next != nil {
		t.WaitLink.Next.WaitLink.Prev = t.WaitLink.Prev
	} else {
		q.tail = t.WaitLink.Prev
	}
	t.WaitLink.Next = nil
	t.WaitLink.Prev = nil
	q.len--
}
