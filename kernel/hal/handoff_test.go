package hal

import (
	"testing"
	"unsafe"

	"github.com/rainkernel/rainkernel/kernel/mem"
)

func TestBootInfoIsExactly256Bytes(t *testing.T) {
	if unsafe.Sizeof(BootInfo{}) != 256 {
		t.Fatalf("expected 256 bytes, got %d", unsafe.Sizeof(BootInfo{}))
	}
}

func TestMemoryDescriptorIs24Bytes(t *testing.T) {
	if unsafe.Sizeof(MemoryDescriptor{}) != 24 {
		t.Fatalf("expected 24 bytes, got %d", unsafe.Sizeof(MemoryDescriptor{}))
	}
}

func TestFramebufferIs24Bytes(t *testing.T) {
	if unsafe.Sizeof(Framebuffer{}) != 24 {
		t.Fatalf("expected 24 bytes, got %d", unsafe.Sizeof(Framebuffer{}))
	}
}

func TestModuleIs16Bytes(t *testing.T) {
	if unsafe.Sizeof(Module{}) != 16 {
		t.Fatalf("expected 16 bytes, got %d", unsafe.Sizeof(Module{}))
	}
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	var raw BootInfo
	raw.Version = 2
	addr := uintptr(unsafe.Pointer(&raw))

	if _, err := Decode(addr); err == nil {
		t.Fatal("expected an error for an unsupported version")
	}
}

func TestDecodeAcceptsCurrentVersion(t *testing.T) {
	var raw BootInfo
	raw.Version = CurrentVersion
	addr := uintptr(unsafe.Pointer(&raw))

	info, err := Decode(addr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info != &raw {
		t.Fatal("expected Decode to overlay the same memory, not copy it")
	}
}

func TestDescriptorsReinterpretsBackingMemory(t *testing.T) {
	descs := [2]MemoryDescriptor{
		{Type: uint32(mem.RegionAvailable), Address: 0, SizeBytes: 0x1000},
		{Type: uint32(mem.RegionKernel), Address: 0x1000, SizeBytes: 0x2000},
	}

	var raw BootInfo
	raw.Version = CurrentVersion
	raw.DescriptorCount = uint32(len(descs))
	raw.DescriptorsAddr = uint64(uintptr(unsafe.Pointer(&descs[0])))

	got := raw.Descriptors()
	if len(got) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(got))
	}
	if got[1].SizeBytes != 0x2000 {
		t.Fatalf("unexpected descriptor contents: %+v", got[1])
	}
}

func TestRegionsTranslatesDescriptorsToMemRegions(t *testing.T) {
	descs := [1]MemoryDescriptor{
		{Type: uint32(mem.RegionAvailable), Address: 0x4000, SizeBytes: 0x1000},
	}
	var raw BootInfo
	raw.Version = CurrentVersion
	raw.DescriptorCount = 1
	raw.DescriptorsAddr = uint64(uintptr(unsafe.Pointer(&descs[0])))

	regions := raw.Regions()
	if len(regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(regions))
	}
	if regions[0].Type != mem.RegionAvailable || regions[0].Start != 0x4000 || regions[0].Size != 0x1000 {
		t.Fatalf("unexpected region: %+v", regions[0])
	}
}

func TestActiveFramebuffersClampsToPopulatedCount(t *testing.T) {
	var raw BootInfo
	raw.FramebufferCount = 2
	raw.Framebuffers[0].Width = 800
	raw.Framebuffers[1].Width = 1024
	raw.Framebuffers[2].Width = 9999 // beyond the active count; must be ignored

	fbs := raw.ActiveFramebuffers()
	if len(fbs) != 2 {
		t.Fatalf("expected 2 active framebuffers, got %d", len(fbs))
	}
	if fbs[0].Width != 800 || fbs[1].Width != 1024 {
		t.Fatalf("unexpected framebuffer contents: %+v", fbs)
	}
}

func TestActiveFramebuffersClampsAnOverReportedCount(t *testing.T) {
	var raw BootInfo
	raw.FramebufferCount = maxFramebuffers + 5

	fbs := raw.ActiveFramebuffers()
	if len(fbs) != maxFramebuffers {
		t.Fatalf("expected clamping to %d, got %d", maxFramebuffers, len(fbs))
	}
}

func TestAcpiRSDPPhysAddrReportsAbsence(t *testing.T) {
	var raw BootInfo
	if _, ok := raw.AcpiRSDPPhysAddr(); ok {
		t.Fatal("expected no RSDP when the field is zero")
	}
}

func TestAcpiRSDPPhysAddrTruncatesToFrame(t *testing.T) {
	var raw BootInfo
	raw.AcpiRSDP = 0x123456 * uint64(mem.Kb) // arbitrary non-zero physical address

	frame, ok := raw.AcpiRSDPPhysAddr()
	if !ok {
		t.Fatal("expected the RSDP to be reported present")
	}
	if frame.Address() > uintptr(raw.AcpiRSDP) || frame.Address()+uintptr(mem.PageSize) <= uintptr(raw.AcpiRSDP) {
		t.Fatalf("expected frame to contain the RSDP address, got frame=%x rsdp=%x", frame.Address(), raw.AcpiRSDP)
	}
}
