// Package elf loads a freestanding ELF64 EXEC image already resident in
// physical memory into a task's address space. Unlike the host-side
// debug/elf package used by cmd/elfcheck, this loader never touches a
// file: it walks the raw ELF64 header and program header table directly
// out of physical memory, since the kernel has no filesystem underneath
// it at this point in boot.
package elf

import (
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/mem"
	"github.com/rainkernel/rainkernel/kernel/mem/pmm"
	"github.com/rainkernel/rainkernel/kernel/mem/vmm"
)

func ptrAt(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr)
}

// FrameAllocatorFn allocates a single zero-initialized-on-use physical frame.
type FrameAllocatorFn func() (pmm.Frame, *kernel.Error)

var (
	// ErrNotELF64 is returned when the e_ident class/encoding/version
	// fields don't describe a 64-bit little-endian current-version ELF.
	ErrNotELF64 = &kernel.Error{Module: "elf", Message: "not a 64-bit little-endian ELF image"}

	// ErrWrongMachine is returned when e_machine doesn't match the host.
	ErrWrongMachine = &kernel.Error{Module: "elf", Message: "ELF machine does not match host architecture"}

	// ErrNotExec is returned when e_type isn't ET_EXEC.
	ErrNotExec = &kernel.Error{Module: "elf", Message: "ELF image is not an executable (ET_EXEC)"}

	// ErrKernelAddress is returned when a LOAD segment targets the
	// kernel half of the address space.
	ErrKernelAddress = &kernel.Error{Module: "elf", Message: kernel.ClassInvalidArguments}
)

const (
	ident0Mag0   = 0x7f
	ident1Mag1   = 'E'
	ident2Mag2   = 'L'
	ident3Mag3   = 'F'
	identClass64 = 2
	identData2LSB = 1
	evCurrent    = 1

	etExec = 2

	ptLoad = 1

	pfX = 1 << 0
	pfW = 1 << 1
)

// elfHeader mirrors Elf64_Ehdr. Field order and sizes match the on-disk
// layout exactly so it can be read with a single pointer cast.
type elfHeader struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

// programHeader mirrors Elf64_Phdr.
type programHeader struct {
	Type   uint32
	Flags  uint32
	Offset uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

// Module describes an ELF image already present in physical memory, as
// handed off by the bootloader (§6's Module descriptor).
type Module struct {
	PhysicalBase pmm.Frame
	Size         mem.Size
}

// AuxEntry is one (type, value) auxiliary-vector pair.
type AuxEntry struct {
	Type  uint64
	Value uint64
}

const (
	AtNull   = 0
	AtPhdr   = 3
	AtPhent  = 4
	AtPhnum  = 5
	AtPagesz = 6
	AtEntry  = 9
)

// LoadResult carries everything Task.new needs to resume into the
// freshly loaded image.
type LoadResult struct {
	EntryPoint uintptr
	AuxVector  []AuxEntry
}

// hostMachine is set per architecture build to the e_machine value this
// kernel accepts.
var hostMachine uint16

// Load validates mod as a 64-bit little-endian ET_EXEC image for the
// host architecture, maps every PT_LOAD segment into pt, zero-fills BSS
// tails, and returns the entry point plus the auxiliary vector described
// in spec §4.3. physToVirt must return a virtual address through which
// the physical range [mod.PhysicalBase, mod.PhysicalBase+mod.Size) can
// currently be read (e.g. a direct physical map or a temporary mapping).
//
// The whole pass runs with pt made the active table for its duration
// (vmm.PageTable.WithActive): loadSegment's BSS zero-fill writes
// straight through the mapped virtual address rather than through a
// temporary mapping, so pt has to still be the active table at the
// point each write happens, not just at the moment it was mapped.
func Load(mod Module, pt *vmm.PageTable, physToVirt func(pmm.Frame) uintptr, allocFrame FrameAllocatorFn) (LoadResult, *kernel.Error) {
	var result LoadResult

	err := pt.WithActive(func() *kernel.Error {
		base := physToVirt(mod.PhysicalBase)

		hdr := (*elfHeader)(ptrAt(base))
		if err := validateHeader(hdr); err != nil {
			return err
		}

		phdrs := programHeaders(base, hdr)

		for i := range phdrs {
			ph := &phdrs[i]
			if ph.Type != ptLoad || ph.Memsz == 0 {
				continue
			}
			if err := loadSegment(mod, ph, pt, allocFrame); err != nil {
				return err
			}
		}

		result = LoadResult{
			EntryPoint: uintptr(hdr.Entry),
			AuxVector: []AuxEntry{
				{Type: AtPhdr, Value: uint64(phdrVirtualAddr(phdrs, hdr))},
				{Type: AtPhent, Value: uint64(hdr.Phentsize)},
				{Type: AtPhnum, Value: uint64(hdr.Phnum)},
				{Type: AtEntry, Value: hdr.Entry},
				{Type: AtPagesz, Value: uint64(mem.PageSize)},
				{Type: AtNull, Value: 0},
			},
		}
		return nil
	})

	return result, err
}

func validateHeader(hdr *elfHeader) *kernel.Error {
	if hdr.Ident[0] != ident0Mag0 || hdr.Ident[1] != ident1Mag1 ||
		hdr.Ident[2] != ident2Mag2 || hdr.Ident[3] != ident3Mag3 {
		return ErrNotELF64
	}
	if hdr.Ident[4] != identClass64 {
		return ErrNotELF64
	}
	if hdr.Ident[5] != identData2LSB {
		return ErrNotELF64
	}
	if hdr.Ident[6] != evCurrent {
		return ErrNotELF64
	}
	if hdr.Machine != hostMachine {
		return ErrWrongMachine
	}
	if hdr.Version != evCurrent {
		return ErrNotELF64
	}
	if hdr.Type != etExec {
		return ErrNotExec
	}
	return nil
}

// phdrVirtualAddr locates the LOAD segment that covers e_phoff in the
// file and returns the virtual address the program header table is
// mapped at. ET_EXEC images are not relocated, so the table's file
// offset and its p_vaddr share the same bias within that segment.
func phdrVirtualAddr(phdrs []programHeader, hdr *elfHeader) uintptr {
	for i := range phdrs {
		ph := &phdrs[i]
		if ph.Type != ptLoad {
			continue
		}
		if hdr.Phoff >= ph.Offset && hdr.Phoff < ph.Offset+ph.Filesz {
			return uintptr(ph.Vaddr + (hdr.Phoff - ph.Offset))
		}
	}
	return uintptr(hdr.Phoff)
}

func programHeaders(base uintptr, hdr *elfHeader) []programHeader {
	phdrs := make([]programHeader, hdr.Phnum)
	for i := range phdrs {
		entryAddr := base + uintptr(hdr.Phoff) + uintptr(i)*uintptr(hdr.Phentsize)
		phdrs[i] = *(*programHeader)(ptrAt(entryAddr))
	}
	return phdrs
}

func pageTypeForFlags(flags uint32) vmm.PageType {
	switch {
	case flags&pfX != 0:
		return vmm.UserCode
	case flags&pfW != 0:
		return vmm.UserDataRW
	default:
		return vmm.UserDataRO
	}
}

func loadSegment(mod Module, ph *programHeader, pt *vmm.PageTable, allocFrame FrameAllocatorFn) *kernel.Error {
	vaddr := uintptr(ph.Vaddr)
	if isKernelHalf(vaddr) {
		return ErrKernelAddress
	}

	fileSizePages := pagesFor(mem.Size(ph.Filesz))
	memSizePages := pagesFor(mem.Size(ph.Memsz))

	segPhysBase := mod.PhysicalBase + pmm.Frame(ph.Offset>>mem.PageShift)
	virtPage := vmm.PageFromAddress(alignDown(vaddr))

	for i := uint64(0); i < fileSizePages; i++ {
		frame := segPhysBase + pmm.Frame(i)
		if err := pt.Map(virtPage+vmm.Page(i), frame, pageTypeForFlags(ph.Flags).Flags()); err != nil {
			return err
		}
	}

	if memSizePages > fileSizePages {
		bssPages := memSizePages - fileSizePages
		for i := uint64(0); i < bssPages; i++ {
			frame, err := allocFrame()
			if err != nil {
				return err
			}
			page := virtPage + vmm.Page(fileSizePages+i)
			if err := pt.Map(page, frame, pageTypeForFlags(ph.Flags).Flags()); err != nil {
				return err
			}
			kernel.Memset(page.Address(), 0, uintptr(mem.PageSize))
		}
	}

	if tailStart := ph.Filesz % uint64(mem.PageSize); ph.Memsz > ph.Filesz && tailStart != 0 && fileSizePages > 0 {
		lastFilePage := virtPage + vmm.Page(fileSizePages-1)
		tailLen := uintptr(mem.PageSize) - uintptr(tailStart)
		kernel.Memset(lastFilePage.Address()+uintptr(tailStart), 0, tailLen)
	}

	return nil
}

// isKernelHalf reports whether virtAddr falls in the portion of the
// address space shared by every task rather than private to one.
func isKernelHalf(virtAddr uintptr) bool {
	return virtAddr >= vmm.KernelHalfStart
}

func pagesFor(size mem.Size) uint64 {
	return (uint64(size) + uint64(mem.PageSize) - 1) >> mem.PageShift
}

func alignDown(v uintptr) uintptr {
	return v &^ (uintptr(mem.PageSize) - 1)
}
