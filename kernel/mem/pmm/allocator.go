package pmm

import (
	"math"
	"sort"

	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/mem"
	"github.com/rainkernel/rainkernel/kernel/sync"
)

var (
	errOutOfMemory      = &kernel.Error{Module: "pmm", Message: kernel.ClassOutOfMemory}
	errInvalidArguments = &kernel.Error{Module: "pmm", Message: kernel.ClassInvalidArguments}
)

// run describes one maximal contiguous range of free frames.
type run struct {
	start Frame
	count uint64
}

func (r run) end() Frame { return r.start + Frame(r.count) }

// Allocator owns the free-frame set and serves contiguous allocations. The
// free set is kept as a sorted, coalesced list of runs; allocation prefers
// the highest-addressed run that satisfies the request, so that low memory
// (needed by callers constrained to 32-bit physical addresses, such as an
// SMP trampoline's CR3) is preserved for as long as possible.
//
// Allocator is process-wide and is always accessed while holding the big
// kernel lock, so its own mutex only guards against the rare caller that
// reaches it directly (e.g. diagnostics) without already holding that lock.
type Allocator struct {
	mu    sync.Spinlock
	runs  []run // sorted ascending by start
	total uint64
	used  uint64

	// highestFrame is the highest frame number ever donated, used to
	// size "below 4 GiB" and similar ceiling requests.
	highestFrame Frame
}

// DefaultBelow4G is the ceiling used by allocate_below callers that do not
// supply an explicit maximum, matching the historical "below 4 GiB" SMP
// trampoline requirement.
const DefaultBelow4G = uintptr(4) * uintptr(1<<30)

// Init seeds the allocator from the sanitized memory map: every Available
// region donates its full span of frames. Init is not safe to call more
// than once.
func (a *Allocator) Init(regions []mem.Region) {
	a.runs = a.runs[:0]
	a.total = 0
	a.used = 0
	a.highestFrame = 0

	for _, r := range regions {
		if r.Type != mem.RegionAvailable {
			continue
		}
		startFrame := Frame(r.Start >> mem.PageShift)
		frameCount := uint64(r.Size) >> mem.PageShift
		if frameCount == 0 {
			continue
		}
		a.runs = append(a.runs, run{start: startFrame, count: frameCount})
		a.total += frameCount
		if end := startFrame + Frame(frameCount); end > a.highestFrame {
			a.highestFrame = end - 1
		}
	}

	sort.Slice(a.runs, func(i, j int) bool { return a.runs[i].start < a.runs[j].start })
}

// HighestFrame returns the highest physical frame number ever donated to
// the allocator.
func (a *Allocator) HighestFrame() Frame {
	return a.highestFrame
}

// Allocate reserves a physically contiguous run of count frames, preferring
// the highest suitable address range.
func (a *Allocator) Allocate(count uint64) (Frame, *kernel.Error) {
	return a.AllocateBelow(count, math.MaxUint64)
}

// AllocateBelow reserves a physically contiguous run of count frames whose
// entire extent lies below maxAddress.
func (a *Allocator) AllocateBelow(count uint64, maxAddress uintptr) (Frame, *kernel.Error) {
	if count == 0 {
		return InvalidFrame, errInvalidArguments
	}

	a.mu.Acquire()
	defer a.mu.Release()

	ceilingFrame := Frame(maxAddress >> mem.PageShift)

	// Scan from the highest-addressed run down, since the allocation
	// policy prefers the highest suitable range. Within a run that
	// straddles the ceiling, only the portion below the ceiling is
	// eligible; carve from the top of that eligible portion so any
	// remainder stays available for a future request.
	best := -1
	var allocStart Frame
	for i := len(a.runs) - 1; i >= 0; i-- {
		r := a.runs[i]

		eligibleEnd := r.end()
		if eligibleEnd > ceilingFrame {
			eligibleEnd = ceilingFrame
		}
		if eligibleEnd <= r.start {
			continue // entire run is at or above the ceiling
		}
		eligibleCount := uint64(eligibleEnd - r.start)
		if eligibleCount < count {
			continue
		}

		best = i
		allocStart = eligibleEnd - Frame(count)
		break
	}

	if best < 0 {
		return InvalidFrame, errOutOfMemory
	}

	a.carve(best, allocStart, count)
	a.used += count
	return allocStart, nil
}

// carve removes [start, start+count) from runs[idx], splitting it into up
// to two remaining runs.
func (a *Allocator) carve(idx int, start Frame, count uint64) {
	r := a.runs[idx]
	before := uint64(start - r.start)
	after := r.count - before - count

	replacement := make([]run, 0, 2)
	if before > 0 {
		replacement = append(replacement, run{start: r.start, count: before})
	}
	if after > 0 {
		replacement = append(replacement, run{start: start + Frame(count), count: after})
	}

	a.runs = append(a.runs[:idx], append(replacement, a.runs[idx+1:]...)...)
}

// Free returns count frames starting at frame to the free set, merging
// with adjacent runs where possible. Freeing frames outside any known
// allocation or freeing the same frame twice is a programming error.
// Free does not check for either: a range that overlaps an existing free
// run is inserted without being detected.
func (a *Allocator) Free(frame Frame, count uint64) {
	if count == 0 {
		return
	}

	a.mu.Acquire()
	defer a.mu.Release()

	newRun := run{start: frame, count: count}
	idx := sort.Search(len(a.runs), func(i int) bool { return a.runs[i].start >= frame })
	a.runs = append(a.runs, run{})
	copy(a.runs[idx+1:], a.runs[idx:])
	a.runs[idx] = newRun

	// Coalesce with the neighbor on either side.
	if idx+1 < len(a.runs) && a.runs[idx].end() == a.runs[idx+1].start {
		a.runs[idx].count += a.runs[idx+1].count
		a.runs = append(a.runs[:idx+1], a.runs[idx+2:]...)
	}
	if idx > 0 && a.runs[idx-1].end() == a.runs[idx].start {
		a.runs[idx-1].count += a.runs[idx].count
		a.runs = append(a.runs[:idx], a.runs[idx+1:]...)
	}

	if count <= a.used {
		a.used -= count
	} else {
		a.used = 0
	}
}

// Stats reports the current total donated frame count and the number
// presently allocated, for boot-time logging and diagnostics.
func (a *Allocator) Stats() (total, used uint64) {
	a.mu.Acquire()
	defer a.mu.Release()
	return a.total, a.used
}
