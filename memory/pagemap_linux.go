package memory

import (
	"fmt"
	"os"

	"github.com/ixy-go/ixy/ixerr"
)

const (
	pagemapEntryBytes = 8
	pfnMask           = (uint64(1) << 54) - 1
	presentBit        = uint64(1) << 63
)

// TranslatePhysical resolves the physical address of virt by reading this
// process's /proc/self/pagemap. Unlike Region.Physical (valid only for a
// Region's base page, or for its whole extent when Contiguous was
// requested), this is safe to call for any address inside a non-contiguous
// multi-huge-page Region — each huge page translates independently.
func TranslatePhysical(virt uintptr) (uintptr, error) {
	return virtToPhys(virt)
}

// virtToPhys resolves the physical address backing the page containing
// virt by reading this process's /proc/self/pagemap, as specified for the
// huge-page allocator's physical translation step.
func virtToPhys(virt uintptr) (uintptr, error) {
	f, err := os.Open("/proc/self/pagemap")
	if err != nil {
		if os.IsPermission(err) {
			return 0, fmt.Errorf("open pagemap: %w", ixerr.ErrPermissionDenied)
		}
		return 0, fmt.Errorf("open pagemap: %w", err)
	}
	defer f.Close()

	pageIndex := int64(virt/PageSize) * pagemapEntryBytes

	buf := make([]byte, pagemapEntryBytes)
	if _, err := f.ReadAt(buf, pageIndex); err != nil {
		if os.IsPermission(err) {
			return 0, fmt.Errorf("read pagemap: %w", ixerr.ErrPermissionDenied)
		}
		return 0, fmt.Errorf("read pagemap: %w", err)
	}

	entry := uint64(0)
	for i := 7; i >= 0; i-- {
		entry = entry<<8 | uint64(buf[i])
	}

	if entry&presentBit == 0 {
		return 0, fmt.Errorf("page not present in memory: %w", ixerr.ErrResourceExhausted)
	}

	pfn := entry & pfnMask
	offset := uintptr(virt % PageSize)

	return uintptr(pfn)*PageSize + offset, nil
}
