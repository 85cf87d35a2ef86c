package kernel

import (
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel/config"
	"github.com/rainkernel/rainkernel/kernel/cpu"
	"github.com/rainkernel/rainkernel/kernel/hal"
	"github.com/rainkernel/rainkernel/kernel/irq"
	"github.com/rainkernel/rainkernel/kernel/kfmt"
	"github.com/rainkernel/rainkernel/kernel/mem"
	"github.com/rainkernel/rainkernel/kernel/mem/elf"
	"github.com/rainkernel/rainkernel/kernel/mem/pmm"
	"github.com/rainkernel/rainkernel/kernel/mem/vmm"
	"github.com/rainkernel/rainkernel/kernel/sched"
	"github.com/rainkernel/rainkernel/kernel/syscall"
	"github.com/rainkernel/rainkernel/kernel/task"
	"github.com/rainkernel/rainkernel/kernel/vdso"
)

var errKmainReturned = &Error{Module: "kmain", Message: "Kmain returned"}

// frames is the whole-system physical frame allocator, seeded from the
// handoff's sanitized memory map. One per boot, same as gopher-os's own
// package-level allocator.
var frames pmm.Allocator

// kernelPT is the kernel-half table cloned into every task's own
// address space by CloneKernelSpace; kernel stacks and every other
// kernel-half mapping are made through it directly, never through a
// task's own table, since kernel-half entries are shared by every
// clone.
var kernelPT vmm.PageTable

// initialUserStackTop is the guard page's own address: per §3/§4.8 it
// is reserved and never mapped, so the usable stack occupies the
// initialUserStackPages pages immediately above it.
const (
	initialUserStackTop    = uintptr(0x0000_7f00_0000_0000)
	initialUserStackPages  = 4
	initialUserStackBottom = initialUserStackTop + uintptr(1+initialUserStackPages)*uintptr(mem.PageSize)
)

// Kmain is the only Go symbol the architecture's rt0 stub calls, once it
// has parked a minimal g0 and a small bootstrap stack. bootInfoAddr is
// the physical address of the bit-exact BootInfo handoff block (§6);
// cmdLineAddr is a NUL-terminated kernel command line, passed alongside
// it rather than through BootInfo's own fixed layout.
//
// Kmain is not expected to return. If it does, rt0 halts the CPU.
//
//go:noinline
func Kmain(bootInfoAddr, cmdLineAddr uintptr) {
	HaltFn = cpu.Halt

	info, err := hal.Decode(bootInfoAddr)
	if err != nil {
		Panic(err)
	}

	frames.Init(mem.Sanitize(info.Regions()))
	vmm.SetFrameAllocator(allocOneFrame)
	syscall.SetFrameAllocator(allocOneFrame)
	syscall.SetFrameFree(freeFrames)

	if err := kernelPT.Init(pmm.FrameFromAddress(cpu.ActivePDT())); err != nil {
		Panic(err)
	}

	bootCPU := &task.Cpu{ID: 0, Bootstrap: true, Enabled: true}
	task.InitBootCPU(bootCPU)

	idleTask, err := task.NewIdle(&kernelPT, allocOneFrame)
	if err != nil {
		Panic(err)
	}
	sched.Init(bootCPU, idleTask)
	sched.SetUnmapStackFn(unmapStackRange)

	irq.Init()
	installPageFaultHandler()
	syscall.Init()
	syscall.SetTrace(config.Parse(readCString(cmdLineAddr)))

	if err := spawnModule(info.Go); err != nil {
		Panic(err)
	}
	if rsdp, ok := info.AcpiRSDPPhysAddr(); ok {
		kfmt.Printf("acpi rsdp at frame %x\n", uint64(rsdp))
	}
	if info.Logger.SizeBytes != 0 {
		if err := spawnModule(info.Logger); err != nil {
			Panic(err)
		}
	}

	cpu.EnableInterrupts()

	// Use kernel.Panic instead of panic so the compiler cannot treat it
	// as dead code and eliminate it.
	Panic(errKmainReturned)
}

func allocOneFrame() (pmm.Frame, *Error) {
	return frames.Allocate(1)
}

func freeFrames(frame pmm.Frame, count uint64) {
	frames.Free(frame, count)
}

// unmapStackRange tears down a dying task's kernel stack. Kernel stack
// virtual addresses are always taken from the kernel half, which every
// task's table shares with kernelPT via CloneKernelSpace, so unmapping
// always happens through kernelPT regardless of which table the dying
// task was actually running under.
func unmapStackRange(top, bottom uintptr) {
	for addr := top; addr < bottom; addr += uintptr(mem.PageSize) {
		_ = kernelPT.Unmap(vmm.PageFromAddress(addr))
	}
}

// physToVirt maps a single physical frame into kernel space through the
// shared temporary-mapping slot, just long enough for elf.Load to read
// an ELF header and program header table out of it; both are well
// within the first page of any image this loader accepts.
func physToVirt(frame pmm.Frame) uintptr {
	page, err := vmm.MapTemporary(frame)
	if err != nil {
		Panic(err)
	}
	return page.Address()
}

// spawnModule loads one bootloader-provided ELF64 image into a fresh
// address space cloned from the kernel half, maps in a user stack and
// the vDSO page, and schedules the result. Used once per handoff
// module (the bootstrap services image and, if present, the logger).
func spawnModule(mod hal.Module) *Error {
	topFrame, err := allocOneFrame()
	if err != nil {
		return err
	}
	pt, err := kernelPT.CloneKernelSpace(topFrame)
	if err != nil {
		return err
	}

	result, err := elf.Load(elf.Module{
		PhysicalBase: pmm.FrameFromAddress(uintptr(mod.PhysicalBase)),
		Size:         mem.Size(mod.SizeBytes),
	}, pt, physToVirt, allocOneFrame)
	if err != nil {
		return err
	}

	if err := vdso.MapInto(pt, allocOneFrame); err != nil {
		return err
	}

	// The page at initialUserStackTop is the guard page (§3, §4.8) and
	// is deliberately left unmapped; the mapped range starts one page
	// above it.
	for i := 0; i < initialUserStackPages; i++ {
		frame, err := allocOneFrame()
		if err != nil {
			return err
		}
		page := vmm.PageFromAddress(initialUserStackTop + uintptr(1+i)*uintptr(mem.PageSize))
		if err := pt.Map(page, frame, vmm.UserDataRW.Flags()); err != nil {
			return err
		}
	}

	child, err := task.New(bootstrapEntry(result.EntryPoint, result.AuxVector), 0, pt, allocOneFrame)
	if err != nil {
		return err
	}
	child.UserStackTop = initialUserStackTop
	child.UserStackBottom = initialUserStackBottom

	sched.AddTask(child)
	return nil
}

// bootstrapEntry builds the kernel-level EntryFn a freshly loaded
// module's task runs on its first resume: push the argc/argv/envp/auxv
// frame §4.3 requires (by the time this runs, the child's own page
// table is active, since SwitchTo already installed it) and drop into
// the image's entry point with a properly aligned stack pointer.
// Unlike the thread syscall's childEntry, there is no TLS template to
// install yet — the image installs its own if it needs one.
func bootstrapEntry(entryPoint uintptr, aux []elf.AuxEntry) task.EntryFn {
	return func(child *task.Task, _ uintptr) {
		sp := task.PushInitialUserStack(child.UserStackBottom, aux)
		task.EnterUserMode(entryPoint, 0, sp)
	}
}

// readCString decodes a NUL-terminated ASCII string starting at addr.
// Used once, at boot, to read the kernel command line; not a general
// string-from-memory helper, so it lives here rather than in the
// shared kernel package.
func readCString(addr uintptr) string {
	if addr == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(addr + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(addr)), n))
}
