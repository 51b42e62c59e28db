package pci

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/ixy-go/ixy/ixerr"
)

// sysfsRoot is overridden in tests to point at a fake tree instead of the
// real /sys, so bind/unbind/config/resource behavior can be exercised
// without root privileges or real hardware.
var sysfsRoot = "/sys/bus/pci"

func sysfsDir(addr string) string {
	return fmt.Sprintf("%s/devices/%s", sysfsRoot, addr)
}

func configPath(addr string) string {
	return sysfsDir(addr) + "/config"
}

func resourcePath(addr string) string {
	return sysfsDir(addr) + "/resource0"
}

func unbindPath(addr string) string {
	return sysfsDir(addr) + "/driver/unbind"
}

func driverLinkPath(addr string) string {
	return sysfsDir(addr) + "/driver"
}

func bindPath() string {
	return sysfsRoot + "/drivers/ixgbe/bind"
}

func readConfigU32(addr string, off int64) (uint32, error) {
	f, err := os.Open(configPath(addr))
	if err != nil {
		return 0, wrapSysfsErr("open config space", err)
	}
	defer f.Close()

	buf := make([]byte, 4)
	if _, err := f.ReadAt(buf, off); err != nil {
		return 0, wrapSysfsErr("read config space", err)
	}

	return binary.LittleEndian.Uint32(buf), nil
}

func writeSysfs(path string, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			// already unbound, or the ixgbe driver module isn't loaded:
			// treat as a no-op for idempotency.
			return nil
		}
		return wrapSysfsErr("open sysfs control file", err)
	}
	defer f.Close()

	if _, err := f.WriteString(value); err != nil {
		return wrapSysfsErr("write sysfs control file", err)
	}

	return nil
}

// isBound reports whether the kernel currently has a driver bound to addr.
func isBound(addr string) bool {
	_, err := os.Lstat(driverLinkPath(addr))
	return err == nil
}

func wrapSysfsErr(op string, err error) error {
	if os.IsPermission(err) {
		return fmt.Errorf("%s: %w", op, ixerr.ErrPermissionDenied)
	}

	return fmt.Errorf("%s: %w", op, err)
}
