package task

import (
	"sync/atomic"

	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/cpu"
	"github.com/rainkernel/rainkernel/kernel/mem"
	"github.com/rainkernel/rainkernel/kernel/mem/pmm"
	"github.com/rainkernel/rainkernel/kernel/mem/vmm"
)

// ErrOutOfMemory is returned when a frame cannot be obtained for a new
// task's kernel stack, FPU area or TLS block.
var ErrOutOfMemory = &kernel.Error{Module: "task", Message: kernel.ClassOutOfMemory}

// lastTaskID hands out monotonically increasing task ids; id 0 is
// reserved for the immortal idle task created once per CPU.
var lastTaskID uint64

// earlyReserveRegionFn and mapFn are overridden by tests; the real
// vmm.Map faults outside ring 0 and EarlyReserveRegion draws from
// genuine kernel address space that only exists once.
var (
	earlyReserveRegionFn = vmm.EarlyReserveRegion
	mapFn                = vmm.Map
	pageTableMapFn       = func(pt *vmm.PageTable, page vmm.Page, frame pmm.Frame, flags vmm.PageTableEntryFlag) *kernel.Error {
		return pt.Map(page, frame, flags)
	}
)

// EntryFn is the Go-level signature a Task's trampoline invokes on its
// very first resume.
type EntryFn func(t *Task, argument uintptr)

// TLSTemplate describes the image's thread-local storage initializer,
// copied into a fresh user block by InitUserTLS.
type TLSTemplate struct {
	// Base is the virtual address, within the already-mapped image, that
	// TemplateSize bytes are copied from.
	Base uintptr
	// TemplateSize is the number of initialized bytes to copy.
	TemplateSize uintptr
	// TotalSize is the full block size; bytes past TemplateSize are
	// zero-filled.
	TotalSize uintptr
}

// WaitLink is the intrusive list node used to place a Task on exactly
// one WaitQueue at a time (§3's WaitQueue definition).
type WaitLink struct {
	Next *Task
	Prev *Task
}

// Task is the schedulable entity described in §4.4.
type Task struct {
	ID    uint64
	State State

	kernelStackTop    uintptr
	kernelStackBottom uintptr

	UserStackTop    uintptr
	UserStackBottom uintptr

	Context Context
	FPU     FPUArea

	PageTable *vmm.PageTable

	// IPC state (§4.7): the 16-word message register block, the
	// endpoint id of the task this one is rendezvousing with, the queue
	// link used while waiting on some queue, and (receiver side only)
	// the queue of tasks blocked trying to send to this one.
	Message  [16]uintptr
	Partner  uint64
	WaitLink WaitLink
	Senders  WaitQueue

	tls TLSTemplate
}

// kernelStackPages is the number of pages backing a task's kernel
// stack, not counting the guard page below it.
const kernelStackPages = 1

// New allocates a kernel stack with a guard page, installs a fresh FPU
// area in its default state, seeds the register context so the first
// resume calls entry(t, argument) via a small trampoline, and assigns a
// unique id. pt is the address space this task will run in; it is not
// activated here.
func New(entry EntryFn, argument uintptr, pt *vmm.PageTable, allocFrame vmm.FrameAllocatorFn) (*Task, *kernel.Error) {
	t := &Task{
		ID:        atomic.AddUint64(&lastTaskID, 1),
		State:     Ready,
		PageTable: pt,
	}
	if err := t.allocKernelStack(allocFrame); err != nil {
		return nil, err
	}

	t.FPU = newFPUArea()
	initContext(&t.Context, t.kernelStackBottom, entry, t, argument)

	return t, nil
}

// NewIdle builds the immortal id-0 idle task for one CPU. It never runs
// user code, so it has no user stack and no TLS.
func NewIdle(pt *vmm.PageTable, allocFrame vmm.FrameAllocatorFn) (*Task, *kernel.Error) {
	t := &Task{
		ID:        0,
		State:     Ready,
		PageTable: pt,
	}
	if err := t.allocKernelStack(allocFrame); err != nil {
		return nil, err
	}
	t.FPU = newFPUArea()
	initContext(&t.Context, t.kernelStackBottom, idleEntry, t, 0)
	return t, nil
}

func idleEntry(*Task, uintptr) {
	for {
		cpu.Halt()
	}
}

func (t *Task) allocKernelStack(allocFrame vmm.FrameAllocatorFn) *kernel.Error {
	// Reserve guard-page-plus-stack virtual space as one block so the
	// guard page always immediately precedes the stack; only the stack
	// pages are ever mapped; the guard page stays permanently absent.
	base, err := earlyReserveRegionFn(mem.PageSize * (kernelStackPages + 1))
	if err != nil {
		return err
	}

	stackBase := base + uintptr(mem.PageSize)
	for i := 0; i < kernelStackPages; i++ {
		frame, err := allocFrame()
		if err != nil {
			return err
		}
		page := vmm.PageFromAddress(stackBase + uintptr(i)*uintptr(mem.PageSize))
		if err := mapFn(page, frame, vmm.KernelDataRW.Flags()); err != nil {
			return err
		}
	}

	t.kernelStackTop = base
	t.kernelStackBottom = stackBase + uintptr(kernelStackPages)*uintptr(mem.PageSize)
	return nil
}

// InitUserTLS allocates a user-space TLS block sized tmpl.TotalSize,
// copies tmpl.TemplateSize bytes from tmpl.Base, zero-fills the rest,
// and installs the per-architecture TLS base register. t.PageTable must
// already be the active table.
func (t *Task) InitUserTLS(tmpl TLSTemplate, virtBase uintptr, allocFrame vmm.FrameAllocatorFn) *kernel.Error {
	t.tls = tmpl

	pageCount := uint64((tmpl.TotalSize + uintptr(mem.PageSize) - 1) / uintptr(mem.PageSize))
	if pageCount == 0 {
		pageCount = 1
	}

	startPage := vmm.PageFromAddress(virtBase)
	for i := uint64(0); i < pageCount; i++ {
		frame, err := allocFrame()
		if err != nil {
			return err
		}
		if err := pageTableMapFn(t.PageTable, startPage+vmm.Page(i), frame, vmm.UserDataRW.Flags()); err != nil {
			return err
		}
	}

	kernel.Memset(virtBase, 0, uintptr(pageCount)*uintptr(mem.PageSize))
	if tmpl.TemplateSize > 0 {
		kernel.Memcopy(tmpl.Base, virtBase, tmpl.TemplateSize)
	}

	installTLSBase(virtBase)
	return nil
}

// Destroy runs on the dying task: it unmaps the kernel stack (including
// its guard page reservation) and drops this task's page-table
// reference, then yields to the scheduler. unmapStack and yieldFn are
// injected so this package never has to import sched or depend on a
// live frame allocator for the unmap path.
func (t *Task) Destroy(unmapStack func(top, bottom uintptr), yieldFn func()) {
	t.State = Dead
	if unmapStack != nil {
		unmapStack(t.kernelStackTop, t.kernelStackBottom)
	}
	t.PageTable = nil
	if yieldFn != nil {
		yieldFn()
	}
}

// KernelStackRange returns the task's kernel stack bounds, [top, bottom),
// where the page at top is the unmapped guard page.
func (t *Task) KernelStackRange() (top, bottom uintptr) {
	return t.kernelStackTop, t.kernelStackBottom
}

// TLSTemplate returns the thread-local-storage template t was installed
// with, so a sibling task created in the same address space (the
// `thread` syscall) can reuse it without re-deriving it from the image.
func (t *Task) TLSTemplate() TLSTemplate {
	return t.tls
}

// userTLSWindowBase and userTLSSlotStride carve out a per-task TLS
// block window in the user half of the address space. Tasks created by
// the `thread` syscall share their parent's PageTable, so unlike a
// fresh process's TLS block (placed by whatever loads its image) each
// sibling thread's block needs its own address within that same
// table; task id is already a small dense integer, so it doubles as a
// slot index.
const (
	userTLSWindowBase = uintptr(0x0000_7000_0000_0000)
	userTLSSlotStride = uintptr(64 * 1024)
)

// TLSVirtBaseFor returns the virtual address a task with this id's TLS
// block is placed at within a shared address space.
func TLSVirtBaseFor(id uint64) uintptr {
	return userTLSWindowBase + uintptr(id)*userTLSSlotStride
}
