// Package ipc implements the synchronous cross-address-space rendezvous
// described in §4.7: a single syscall performs an optional send followed
// by an optional receive over a fixed-size virtual message register
// block. Grounded on the blocking send/receive pair in the original
// core's ipc.cpp, generalized to the explicit IpcSend/IpcReceive task
// states and the ANY/NONE endpoint values this spec names.
package ipc

import (
	"github.com/rainkernel/rainkernel/kernel/sched"
	"github.com/rainkernel/rainkernel/kernel/task"
)

// NONE means "no send phase" or "no receive phase" depending on which
// argument it is passed as. It doubles as "invalid endpoint" since no
// task is ever assigned id 0 (that id is reserved for the per-CPU idle
// task, which never participates in IPC).
const NONE = uint64(0)

// ANY, used only as a receive_from value, means an open wait: accept a
// message from whichever sender arrives first.
const ANY = ^uint64(0)

// waitingReceivers holds every task presently blocked in the receive
// phase, whether waiting on ANY or on a specific partner. Mirrors the
// original core's single static ipc-waiters list: a receiver's specific
// partner filter is reapplied by the sender at wake time (via the
// compatibility check in Send), not by the queue it sits on.
var waitingReceivers task.WaitQueue

// currentTaskFn, lookupFn, suspendFn and wakeFn indirect the scheduler
// calls send/receive make. Production wiring always leaves these at
// their sched.* defaults; tests override them so a blocked rendezvous
// can be driven without a real CPU to context-switch on.
var (
	currentTaskFn = sched.CurrentTask
	lookupFn      = sched.Lookup
	suspendFn     = sched.Suspend
	wakeFn        = sched.Wake
)

// Call performs the send phase (if sendTo != NONE) followed by the
// receive phase (if receiveFrom != NONE) for the currently running
// task. The caller is responsible for copying the user-space send
// buffer into self.Message before calling, and self.Message out to the
// user-space receive buffer afterwards (§4.8's syscall entry does
// this); Call only moves the fixed message array between tasks.
//
// It returns the id of the partner paired during the receive phase (0
// if no receive phase ran), and false if the send phase failed (no such
// receiver, or receiver == self).
func Call(sendTo, receiveFrom uint64) (partner uint64, ok bool) {
	self := currentTaskFn()

	if sendTo != NONE {
		if !send(self, sendTo) {
			return 0, false
		}
	}

	if receiveFrom == NONE {
		return 0, true
	}
	return receive(self, receiveFrom), true
}

// send implements §4.7's send phase. It always enqueues self on the
// receiver's Senders queue and suspends in IpcSend; if the receiver
// happens to already be waiting with a compatible partner filter, it is
// woken first so the scheduler will run its receive phase and drain the
// queue. This mirrors ipc.cpp's syscall_ipc: delivery itself only ever
// happens inside receive, never here.
func send(self *task.Task, sendTo uint64) bool {
	receiver := lookupFn(sendTo)
	if receiver == nil || receiver == self {
		return false
	}

	self.Partner = sendTo
	if receiverWaitingFor(receiver, self.ID) {
		wakeFn(&waitingReceivers, receiver)
	}

	suspendFn(task.IpcSend, &receiver.Senders)
	// Resumed once some receive() call has popped us off receiver.Senders,
	// copied our Message, and woken us back to Ready.
	return true
}

// receiverWaitingFor reports whether receiver is parked in the receive
// phase with a partner filter that accepts a send from senderID.
func receiverWaitingFor(receiver *task.Task, senderID uint64) bool {
	return receiver.State == task.IpcReceive &&
		(receiver.Partner == ANY || receiver.Partner == senderID)
}

// receive implements §4.7's receive phase: repeatedly look for a
// compatible queued sender, and suspend in IpcReceive when none is
// available yet.
func receive(self *task.Task, receiveFrom uint64) uint64 {
	for {
		if sender := pickSender(self, receiveFrom); sender != nil {
			self.Message = sender.Message
			self.Partner = sender.ID
			wakeFn(&self.Senders, sender)
			return sender.ID
		}

		self.Partner = receiveFrom
		suspendFn(task.IpcReceive, &waitingReceivers)
		// Resumed once a send() targeting us woke waitingReceivers; loop
		// back around to actually pop and consume the sender that did it.
	}
}

// pickSender finds, without removing, a task on self.Senders compatible
// with receiveFrom: the queue head for an open (ANY) wait, or a
// specific sender for a closed wait. Ordering within the queue is FIFO
// (§4.7); a closed wait still only ever looks for one exact id, so
// ordering among the others is immaterial.
func pickSender(self *task.Task, receiveFrom uint64) *task.Task {
	if receiveFrom == ANY {
		return self.Senders.Front()
	}
	for s := self.Senders.Front(); s != nil; s = s.WaitLink.Next {
		if s.ID == receiveFrom {
			return s
		}
	}
	return nil
}
