// Package hal defines the bit-exact boot handoff structure (§3, §6):
// the 256-byte BootInfo block the bootloader builds and the kernel's
// very first instructions read before any Go runtime facility beyond
// raw memory access is available. Grounded on gopher-os's
// kernel/hal/multiboot tag-reader (itself reading a bootloader-owned
// memory block via unsafe pointer arithmetic), generalized from
// multiboot's self-describing tag stream to this spec's fixed-layout
// struct, since the handoff contract here is a single flat record
// rather than a variable tag list.
package hal

import (
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/mem"
	"github.com/rainkernel/rainkernel/kernel/mem/pmm"
)

// CurrentVersion is the only BootInfo.Version this kernel accepts.
const CurrentVersion = uint32(1)

var (
	errBadVersion = &kernel.Error{Module: "hal", Message: kernel.ClassInvalidArguments}
)

// PixelFormat enumerates the framebuffer pixel layouts this kernel
// understands; the rest are treated as opaque and left to whatever
// driver eventually wants to interpret them.
type PixelFormat int32

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatX8R8G8B8
	PixelFormatX8B8G8R8
	PixelFormatR8G8B8
)

const maxFramebuffers = 8

// MemoryDescriptor is one raw memory-map entry as the bootloader
// reports it, 24 bytes, read directly out of physical memory at
// DescriptorsAddr.
type MemoryDescriptor struct {
	Type      uint32
	Flags     uint32
	Address   uint64
	SizeBytes uint64
}

// Framebuffer describes one initialized display surface, 24 bytes.
type Framebuffer struct {
	Width               int32
	Height              int32
	PitchBytes          int32
	PixelFormat         PixelFormat
	PixelBufferPhysical uint64
}

// Module describes a bootloader-loaded blob (the bootstrap services
// image or the logging module), 16 bytes.
type Module struct {
	PhysicalBase uint64
	SizeBytes    uint64
}

// BootInfo is the bit-exact 256-byte handoff block (§6). Field order
// and widths are load-bearing: this struct is never constructed by
// value in the kernel, only overlaid onto a physical address the
// bootloader already wrote.
type BootInfo struct {
	Version          uint32
	DescriptorCount  uint32
	DescriptorsAddr  uint64
	FramebufferCount uint32
	reserved         uint32
	Framebuffers     [maxFramebuffers]Framebuffer
	AcpiRSDP         uint64
	Go               Module
	Logger           Module
}

// bootInfoSize is asserted against unsafe.Sizeof by an init-time check
// rather than trusted blindly, since a single misaligned field here
// would silently desynchronize every offset after it.
const bootInfoSize = 256

func init() {
	if unsafe.Sizeof(BootInfo{}) != bootInfoSize {
		panic("hal: BootInfo layout does not match the 256-byte handoff contract")
	}
}

// Decode overlays a BootInfo onto the physical memory the bootloader
// left at addr. The caller is responsible for addr being mapped
// (identity or otherwise) by the time this runs; Decode itself never
// allocates or touches paging.
func Decode(addr uintptr) (*BootInfo, *kernel.Error) {
	info := (*BootInfo)(unsafe.Pointer(addr))
	if info.Version != CurrentVersion {
		return nil, errBadVersion
	}
	return info, nil
}

// Descriptors returns the raw memory-map entries DescriptorsAddr
// points to, reinterpreted in place (no copy): descriptor_count
// contiguous 24-byte MemoryDescriptor records.
func (b *BootInfo) Descriptors() []MemoryDescriptor {
	if b.DescriptorCount == 0 {
		return nil
	}
	return unsafe.Slice((*MemoryDescriptor)(unsafe.Pointer(uintptr(b.DescriptorsAddr))), b.DescriptorCount)
}

// Regions converts the raw descriptor list into mem.Region values
// ready for mem.Sanitize, translating the wire-format type ordinal
// (identical to mem.RegionType's own ordering, per §3) directly.
func (b *BootInfo) Regions() []mem.Region {
	descs := b.Descriptors()
	if descs == nil {
		return nil
	}
	regions := make([]mem.Region, len(descs))
	for i, d := range descs {
		regions[i] = mem.Region{
			Type:  mem.RegionType(d.Type),
			Flags: d.Flags,
			Start: uintptr(d.Address),
			Size:  mem.Size(d.SizeBytes),
		}
	}
	return regions
}

// ActiveFramebuffers returns the FramebufferCount populated entries
// out of the fixed 8-slot array; the rest are left zero by the
// bootloader and are never meaningful.
func (b *BootInfo) ActiveFramebuffers() []Framebuffer {
	n := b.FramebufferCount
	if n > maxFramebuffers {
		n = maxFramebuffers
	}
	return b.Framebuffers[:n]
}

// AcpiRSDPPhysAddr exposes the handoff's acpi_rsdp field as a Frame,
// reporting false if the bootloader found no RSDP (the field is 0).
// This is read-only plumbing: no ACPI table parsing happens here or
// anywhere else in this kernel (§1 Non-goals).
func (b *BootInfo) AcpiRSDPPhysAddr() (pmm.Frame, bool) {
	if b.AcpiRSDP == 0 {
		return pmm.InvalidFrame, false
	}
	return pmm.FrameFromAddress(uintptr(b.AcpiRSDP)), true
}
