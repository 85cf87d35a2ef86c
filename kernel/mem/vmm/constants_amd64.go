//go:build amd64

package vmm

const (
	// pageLevels is the number of page-table levels walked on amd64:
	// PML4, PDPT, PD and PT.
	pageLevels = 4

	// recursiveSlot is the fixed top-level table index that points back
	// to the top-level table itself, exposing every intermediate
	// page-table level as ordinary addressable memory (§4.2).
	recursiveSlot = 510

	// ptePhysPageMask extracts bits 12-51, the physical frame address
	// encoded in a page table entry.
	ptePhysPageMask = uintptr(0x000ffffffffff000)

	// tempMappingAddr is a reserved page used for short-lived mappings,
	// e.g. while initializing a page table that is not yet active. It
	// sits at the very top of the kernel's half of the address space.
	tempMappingAddr = uintptr(0xFFFFFFFFFFFFF000)
)

var (
	// pdtVirtualAddr is the virtual address of the top-level table's
	// self-referenced page: walking the recursive slot pageLevels times
	// from a zero offset lands back on the top-level table itself. This
	// is the "Self-referenced PML4 page" from the address space layout
	// (0xFFFF_FF7F_BFDF_E000), produced by setting every table index in
	// the walk to recursiveSlot.
	pdtVirtualAddr = uintptr(0xFFFFFF7FBFDFE000)

	// pageLevelBits is the number of address bits consumed by each
	// level's table index (512 entries per level).
	pageLevelBits = [pageLevels]uint8{9, 9, 9, 9}

	// pageLevelShifts is the bit offset of each level's index field
	// within a virtual address.
	pageLevelShifts = [pageLevels]uint8{39, 30, 21, 12}
)

// PageTableEntryFlag describes a flag that can be applied to a page table
// entry. The bit layout matches the amd64 PTE format.
type PageTableEntryFlag uintptr

const (
	FlagPresent PageTableEntryFlag = 1 << iota
	FlagRW
	FlagUserAccessible
	FlagWriteThroughCaching
	FlagDoNotCache
	FlagAccessed
	FlagDirty
	FlagHugePage
	FlagGlobal

	// FlagNoExecute marks a page as non-executable (the NX bit, bit 63).
	FlagNoExecute = 1 << 63
)
