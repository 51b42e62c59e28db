package memory

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/ixy-go/ixy/ixerr"
)

// DefaultHugepageDir is the hugetlbfs mount point used when no override is
// configured (see internal/config).
const DefaultHugepageDir = "/mnt/huge"

var (
	hugepageDir  atomic.Value // string
	hugepageOnce sync.Once
	hugepageSz   uintptr
)

func init() {
	hugepageDir.Store(DefaultHugepageDir)
}

// SetHugepageDir overrides the hugetlbfs mount point used by future calls to
// Allocate. Must be called before the first huge allocation.
func SetHugepageDir(path string) {
	hugepageDir.Store(path)
}

// HugepageSize returns the system-reported huge page size, read once from
// /proc/meminfo ("Hugepagesize:"), falling back to 2 MiB if unavailable.
func HugepageSize() uintptr {
	hugepageOnce.Do(func() {
		hugepageSz = readHugepageSize()
	})

	return hugepageSz
}

func readHugepageSize() uintptr {
	const fallback = 2 * 1024 * 1024

	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return fallback
	}
	defer f.Close()

	if sz, ok := parseHugepageSize(f); ok {
		return sz
	}

	return fallback
}

// parseHugepageSize scans meminfo-formatted text for the "Hugepagesize:"
// line and returns its value in bytes.
func parseHugepageSize(r io.Reader) (uintptr, bool) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if !strings.HasPrefix(line, "Hugepagesize:") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, false
		}

		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, false
		}

		return uintptr(kb) * 1024, true
	}

	return 0, false
}

var hugepageCounter atomic.Uint64

// Allocate acquires a DMA-capable memory region per opts. With Huge=false
// the region is backed by anonymous, locked pages from the system
// allocator. With Huge=true it is backed by a file created under the
// hugetlbfs mount, mmap'd MAP_SHARED|MAP_LOCKED and then unlinked so the
// backing file does not outlive the process.
func Allocate(size uintptr, opts AllocOptions) (Region, error) {
	if size == 0 {
		return Region{}, fmt.Errorf("size must be positive: %w", ixerr.ErrInvalidArgument)
	}

	if opts.Huge {
		return allocateHuge(size, opts.Contiguous)
	}

	return allocateAnonymous(size)
}

func allocateHuge(size uintptr, contiguous bool) (Region, error) {
	hugeSize := HugepageSize()

	if contiguous && size > hugeSize {
		return Region{}, fmt.Errorf("contiguous region of %d bytes exceeds huge page size %d: %w", size, hugeSize, ixerr.ErrResourceExhausted)
	}

	size = alignUp(size, hugeSize)

	id := hugepageCounter.Add(1)
	path := fmt.Sprintf("%s/ixy-%d-%d", hugepageDir.Load().(string), os.Getpid(), id)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_EXCL, 0600)
	if err != nil {
		if os.IsPermission(err) {
			return Region{}, fmt.Errorf("create hugepage file: %w", ixerr.ErrPermissionDenied)
		}
		return Region{}, fmt.Errorf("create hugepage file: %w", ixerr.ErrResourceExhausted)
	}

	// the file is unlinked immediately: the mapping keeps the pages alive
	// for the lifetime of the process, with no name left behind.
	removeErr := os.Remove(path)

	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return Region{}, fmt.Errorf("truncate hugepage file: %w", ixerr.ErrResourceExhausted)
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_LOCKED)
	f.Close()

	if err != nil {
		return Region{}, fmt.Errorf("mmap hugepage file: %w", ixerr.ErrResourceExhausted)
	}

	virt := uintptr(unsafeSliceAddr(mem))

	phys, err := virtToPhys(virt)
	if err != nil {
		unix.Munmap(mem)
		return Region{}, err
	}

	if removeErr != nil {
		unix.Munmap(mem)
		return Region{}, fmt.Errorf("unlink hugepage file: %w", removeErr)
	}

	return Region{
		Virtual:  virt,
		Physical: phys,
		Size:     size,
		unmap: func() error {
			return unix.Munmap(mem)
		},
	}, nil
}

func allocateAnonymous(size uintptr) (Region, error) {
	size = alignUp(size, PageSize)

	mem, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return Region{}, fmt.Errorf("mmap anonymous pages: %w", ixerr.ErrResourceExhausted)
	}

	if err := unix.Mlock(mem); err != nil {
		unix.Munmap(mem)
		return Region{}, fmt.Errorf("mlock anonymous pages: %w", ixerr.ErrPermissionDenied)
	}

	virt := uintptr(unsafeSliceAddr(mem))

	phys, err := virtToPhys(virt)
	if err != nil {
		unix.Munlock(mem)
		unix.Munmap(mem)
		return Region{}, err
	}

	return Region{
		Virtual:  virt,
		Physical: phys,
		Size:     size,
		unmap: func() error {
			unix.Munlock(mem)
			return unix.Munmap(mem)
		},
	}, nil
}

// Free releases the mapping described by r; it is the function form of
// r.Free. To release a mapping by an interior address, see FreeAt.
func Free(r Region) error {
	return r.Free()
}

// FreeAt frees the page whose mapping contains addr by rounding addr down
// to the page boundary (the huge-page boundary when huge is set) and
// unmapping exactly that one page. This supports callers that only retain
// an interior pointer (e.g. a packet buffer's virtual address) rather than
// the Region returned by Allocate.
func FreeAt(addr uintptr, huge bool) error {
	align := uintptr(PageSize)
	if huge {
		align = HugepageSize()
	}

	base := alignDown(addr, align)

	// unix.Munmap only accepts slices returned by unix.Mmap, so the page is
	// unmapped by address with the raw system call.
	if _, _, errno := unix.Syscall(unix.SYS_MUNMAP, base, align, 0); errno != 0 {
		return errno
	}

	return nil
}
