package vmm

import (
	"github.com/rainkernel/rainkernel/kernel"
	"github.com/rainkernel/rainkernel/kernel/mem/pmm"
)

// PageType is the closed set of page purposes the rest of the kernel
// reasons about; Flags translates each one to its native PTE mask.
type PageType uint8

const (
	KernelCode PageType = iota
	KernelDataRO
	KernelDataRW
	UserCode
	UserDataRO
	UserDataRW
	MMIO
	VideoFramebuffer
)

// Flags returns the architecture-native PageTableEntryFlag mask for t.
func (t PageType) Flags() PageTableEntryFlag {
	switch t {
	case KernelCode:
		return FlagPresent | FlagGlobal
	case KernelDataRO:
		return FlagPresent | FlagGlobal | FlagNoExecute
	case KernelDataRW:
		return FlagPresent | FlagRW | FlagGlobal | FlagNoExecute
	case UserCode:
		return FlagPresent | FlagUserAccessible
	case UserDataRO:
		return FlagPresent | FlagUserAccessible | FlagNoExecute
	case UserDataRW:
		return FlagPresent | FlagRW | FlagUserAccessible | FlagNoExecute
	case MMIO:
		return FlagPresent | FlagRW | FlagGlobal | FlagDoNotCache | FlagNoExecute
	case VideoFramebuffer:
		return FlagPresent | FlagRW | FlagGlobal | FlagWriteThroughCaching | FlagNoExecute
	default:
		return FlagPresent
	}
}

type mappingConflictError struct{}

func (*mappingConflictError) Error() string {
	return "vmm: overlapping mapping of a different frame"
}

var errMappingConflict = &mappingConflictError{}

// MapPages maps pageCount consecutive pages starting at virtPage to the
// physically contiguous frames starting at physFrame, using the native
// flags for pageType. A page that is already present and maps the same
// frame is skipped; one that maps a different frame panics with
// errMappingConflict. The existing entry's flags are not compared with
// pageType's, so re-mapping the same frame with other flags keeps the
// flags already in place.
func (pt *PageTable) MapPages(physFrame pmm.Frame, virtPage Page, pageCount uint64, pageType PageType) *kernel.Error {
	flags := pageType.Flags()

	for i := uint64(0); i < pageCount; i++ {
		page := virtPage + Page(i)
		frame := physFrame + pmm.Frame(i)

		if existing, err := pt.Translate(page.Address()); err == nil {
			if existing == frame.Address() {
				continue
			}
			panic(errMappingConflict)
		}

		if err := pt.Map(page, frame, flags); err != nil {
			return err
		}
	}
	return nil
}

// UnmapPages clears pageCount consecutive mappings starting at virtPage.
func (pt *PageTable) UnmapPages(virtPage Page, pageCount uint64) *kernel.Error {
	for i := uint64(0); i < pageCount; i++ {
		if err := pt.Unmap(virtPage + Page(i)); err != nil {
			return err
		}
	}
	return nil
}
