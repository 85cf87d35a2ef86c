//go:build arm64

package vmm

const (
	// pageLevels is the number of Stage 1 translation table levels
	// walked for a 4 KiB granule: level 0 through level 3.
	pageLevels = 4

	// recursiveSlot is the fixed level-0 table index that points back to
	// the top-level table itself, mirroring the amd64 core's recursive
	// self-map (§4.2).
	recursiveSlot = 510

	// ptePhysPageMask extracts bits 12-47, the output address field of a
	// Stage 1 block/page descriptor.
	ptePhysPageMask = uintptr(0x0000fffffffff000)

	// tempMappingAddr is a reserved page used for short-lived mappings
	// while a page table that is not yet active is being populated.
	tempMappingAddr = uintptr(0xFFFFFFFFFFFFF000)
)

var (
	// pdtVirtualAddr is the self-referenced level-0 table page, reached
	// by walking recursiveSlot pageLevels times; numerically identical
	// to the amd64 core's self-map address since both cores fix the
	// recursive slot at 510 and use a 4-level, 9-bit-per-level walk.
	pdtVirtualAddr = uintptr(0xFFFFFF7FBFDFE000)

	pageLevelBits   = [pageLevels]uint8{9, 9, 9, 9}
	pageLevelShifts = [pageLevels]uint8{39, 30, 21, 12}
)

// PageTableEntryFlag describes a flag applied to a Stage 1 translation
// table descriptor.
type PageTableEntryFlag uintptr

const (
	// FlagPresent marks a descriptor valid (the Stage 1 "Valid" bit).
	FlagPresent PageTableEntryFlag = 1 << iota

	// FlagRW is synthesized from the absence of the AP[2] read-only bit;
	// kept as a flag here so callers share the amd64 core's Map/Unmap
	// API regardless of the underlying AP encoding.
	FlagRW

	FlagUserAccessible
	FlagWriteThroughCaching
	FlagDoNotCache
	FlagAccessed
	FlagDirty
	FlagHugePage
	FlagGlobal

	// FlagNoExecute marks a page non-executable (the Stage 1 UXN/PXN
	// bits, collapsed into a single flag for this core).
	FlagNoExecute = 1 << 63
)
