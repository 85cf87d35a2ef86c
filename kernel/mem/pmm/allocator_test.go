package pmm

import (
	"testing"

	"github.com/rainkernel/rainkernel/kernel/mem"
)

func newTestAllocator(t *testing.T) *Allocator {
	t.Helper()
	var a Allocator
	a.Init([]mem.Region{
		{Type: mem.RegionAvailable, Start: 0, Size: mem.Size(16 * uint64(mem.PageSize))},
	})
	return &a
}

func TestAllocatorRoundTrip(t *testing.T) {
	for count := uint64(1); count <= 16; count++ {
		a := newTestAllocator(t)
		f, err := a.Allocate(count)
		if err != nil {
			t.Fatalf("count=%d: unexpected error: %v", count, err)
		}
		total, used := a.Stats()
		if used != count {
			t.Fatalf("count=%d: expected used=%d, got %d", count, count, used)
		}
		a.Free(f, count)
		total2, used2 := a.Stats()
		if used2 != 0 {
			t.Fatalf("count=%d: expected used=0 after free, got %d", count, used2)
		}
		if total != total2 {
			t.Fatalf("count=%d: total frame count changed across alloc/free", count)
		}
	}
}

func TestAllocatorPrefersHighestAddress(t *testing.T) {
	a := newTestAllocator(t)

	f, err := a.Allocate(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != 12 {
		t.Fatalf("expected allocation to start at the top of the donated range (frame 12), got %d", f)
	}
}

func TestAllocatorNoDoubleAllocate(t *testing.T) {
	a := newTestAllocator(t)

	f1, err := a.Allocate(8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f2, err := a.Allocate(8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f1 == f2 {
		t.Fatalf("two successive allocations returned overlapping frames")
	}
	// ranges must not overlap
	lo1, hi1 := f1, f1+8
	lo2, hi2 := f2, f2+8
	if lo1 < hi2 && lo2 < hi1 {
		t.Fatalf("allocated ranges overlap: [%d,%d) and [%d,%d)", lo1, hi1, lo2, hi2)
	}
}

func TestAllocatorOutOfMemory(t *testing.T) {
	a := newTestAllocator(t)

	if _, err := a.Allocate(17); err == nil {
		t.Fatal("expected OutOfMemory error for a request exceeding total capacity")
	}
}

func TestAllocatorZeroCountIsInvalidArgument(t *testing.T) {
	a := newTestAllocator(t)

	if _, err := a.Allocate(0); err != errInvalidArguments {
		t.Fatalf("expected errInvalidArguments, got %v", err)
	}
}

func TestAllocatorBelowCeiling(t *testing.T) {
	var a Allocator
	a.Init([]mem.Region{
		{Type: mem.RegionAvailable, Start: 0, Size: mem.Size(8 * uint64(mem.PageSize))},
		{Type: mem.RegionAvailable, Start: uintptr(1) << 32, Size: mem.Size(8 * uint64(mem.PageSize))},
	})

	f, err := a.AllocateBelow(4, DefaultBelow4G)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Address() >= DefaultBelow4G {
		t.Fatalf("allocation violated the 4 GiB ceiling: address 0x%x", f.Address())
	}
}

func TestAllocatorFreeCoalesces(t *testing.T) {
	a := newTestAllocator(t)

	f1, _ := a.Allocate(4) // frames [12,16)
	f2, _ := a.Allocate(4) // frames [8,12)

	a.Free(f1, 4)
	a.Free(f2, 4)

	// The full 16-frame range should be available again as one run.
	f, err := a.Allocate(16)
	if err != nil {
		t.Fatalf("expected coalesced free range to satisfy a full-capacity allocation: %v", err)
	}
	if f != 0 {
		t.Fatalf("expected allocation to start at frame 0 after full coalesce, got %d", f)
	}
}
