package mem

import "sort"

// RegionType classifies a MemoryRegion. The ordering is significant: when
// two raw regions reported by the bootloader overlap, Sanitize keeps the
// higher-valued type for the overlapping bytes (§3).
type RegionType uint8

const (
	RegionAvailable RegionType = iota
	RegionPersistent
	RegionUnusable
	RegionBootloader
	RegionKernel
	RegionAcpiReclaimable
	RegionAcpiNvs
	RegionFirmware
	RegionReserved
)

// String returns a short human-readable name, used by boot-time logging.
func (t RegionType) String() string {
	switch t {
	case RegionAvailable:
		return "available"
	case RegionPersistent:
		return "persistent"
	case RegionUnusable:
		return "unusable"
	case RegionBootloader:
		return "bootloader"
	case RegionKernel:
		return "kernel"
	case RegionAcpiReclaimable:
		return "acpi-reclaimable"
	case RegionAcpiNvs:
		return "acpi-nvs"
	case RegionFirmware:
		return "firmware"
	case RegionReserved:
		return "reserved"
	default:
		return "unknown"
	}
}

// Region describes a single physical memory extent as reported by the
// handoff structure: a type, a set of firmware-defined flags, and a
// byte range [Start, Start+Size).
type Region struct {
	Type  RegionType
	Flags uint32
	Start uintptr
	Size  Size
}

// End returns the exclusive end address of the region.
func (r Region) End() uintptr {
	return r.Start + uintptr(r.Size)
}

func alignDown(v uintptr) uintptr {
	return v &^ (uintptr(PageSize) - 1)
}

func alignUp(v uintptr) uintptr {
	return alignDown(v+uintptr(PageSize)-1) | 0 // already masked by alignDown
}

// Sanitize normalizes a raw region list reported by the bootloader into
// the canonical form required by §3: sorted by start, non-empty,
// page-aligned at both endpoints for every non-Available type, free of
// overlaps (the higher-ranked RegionType wins any overlap), and with
// adjacent same-(type,flags) regions coalesced.
//
// Sanitize is idempotent: feeding it its own output returns an identical
// list, since the output already satisfies every invariant the algorithm
// establishes.
func Sanitize(regions []Region) []Region {
	if len(regions) == 0 {
		return nil
	}

	// Step 1: align non-Available regions outward so that reserved
	// memory is never under-protected by a partial page. Available
	// regions are left as reported; a later overlap with a
	// page-aligned reserved region will trim them back to a page
	// boundary anyway.
	aligned := make([]Region, 0, len(regions))
	for _, r := range regions {
		if r.Size == 0 {
			continue
		}
		if r.Type != RegionAvailable {
			start := alignDown(r.Start)
			end := alignUp(r.End())
			r.Start = start
			r.Size = Size(end - start)
		}
		aligned = append(aligned, r)
	}
	if len(aligned) == 0 {
		return nil
	}

	// Step 2: collect the sorted set of distinct boundary points. Every
	// sub-interval between two consecutive boundaries is covered by a
	// fixed set of input regions, so its winning type cannot change
	// partway through.
	boundSet := make(map[uintptr]struct{}, len(aligned)*2)
	for _, r := range aligned {
		boundSet[r.Start] = struct{}{}
		boundSet[r.End()] = struct{}{}
	}
	bounds := make([]uintptr, 0, len(boundSet))
	for b := range boundSet {
		bounds = append(bounds, b)
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i] < bounds[j] })

	// Step 3: for each sub-interval, pick the region with the
	// highest-ranked type among those covering it (ties broken by
	// reporting order, which keeps the result deterministic for
	// identical inputs).
	var out []Region
	for i := 0; i+1 < len(bounds); i++ {
		lo, hi := bounds[i], bounds[i+1]

		var winner *Region
		for idx := range aligned {
			r := &aligned[idx]
			if r.Start <= lo && r.End() >= hi {
				if winner == nil || r.Type > winner.Type {
					winner = r
				}
			}
		}
		if winner == nil {
			continue // gap: no region covers this sub-interval
		}

		if len(out) > 0 {
			last := &out[len(out)-1]
			if last.End() == lo && last.Type == winner.Type && last.Flags == winner.Flags {
				last.Size = Size(hi - last.Start)
				continue
			}
		}

		out = append(out, Region{Type: winner.Type, Flags: winner.Flags, Start: lo, Size: Size(hi - lo)})
	}

	return out
}
