package pci

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/ixy-go/ixy/ixerr"
)

// MapResource mmaps the device's BAR0 (resource0) for MMIO access and
// registers the device with the process-wide shutdown hook. Call Unbind
// first so the kernel driver releases the resource file.
func (d *Device) MapResource() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := os.OpenFile(resourcePath(d.Address), os.O_RDWR, 0)
	if err != nil {
		return wrapSysfsErr("open resource0", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return wrapSysfsErr("stat resource0", err)
	}

	size := info.Size()
	if size <= 0 {
		return fmt.Errorf("resource0 has size %d: %w", size, ixerr.ErrUnsupportedDevice)
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("mmap resource0: %w", err)
	}

	d.bar0 = mem
	registerForShutdown(d)

	return nil
}

func (d *Device) unmapResourceLocked() error {
	if d.bar0 == nil {
		return nil
	}

	mem := d.bar0
	d.bar0 = nil

	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("munmap resource0: %w", err)
	}

	return nil
}
