// Package pci implements PCI device discovery, bind/unbind, and BAR0
// mapping for the Intel ixgbe family, using the Linux sysfs driver
// interface (/sys/bus/pci/devices, resourceN files, driver bind/unbind).
package pci

import (
	"fmt"
	"sync"

	"github.com/ixy-go/ixy/internal/reg"
	"github.com/ixy-go/ixy/ixerr"
)

// Device represents a probed, supported PCI device.
type Device struct {
	// Address is the device's bus address, "dddd:bb:dd.f".
	Address string
	// Vendor is the PCI vendor id (always IntelVendorID after Probe).
	Vendor uint16
	// DeviceID is the PCI device id.
	DeviceID uint16
	// Name is a human-readable family name for DeviceID, from the
	// supported device table.
	Name string

	mu    sync.Mutex
	bar0  []byte
	bound bool // whether the kernel had a driver bound at Probe time
}

// Probe opens addr's configuration space and reports whether it is a
// supported ixgbe controller. Probe does not bind, unbind, or map the
// device; call Unbind and MapResource afterward.
func Probe(addr string) (*Device, error) {
	idReg, err := readConfigU32(addr, 0x00)
	if err != nil {
		return nil, err
	}

	vendor := uint16(idReg)
	device := uint16(idReg >> 16)

	if vendor != IntelVendorID {
		return nil, fmt.Errorf("vendor %#04x is not Intel: %w", vendor, ixerr.ErrUnsupportedDevice)
	}

	name, ok := supportedDevices[device]
	if !ok {
		return nil, fmt.Errorf("device %#04x is not a supported ixgbe controller: %w", device, ixerr.ErrUnsupportedDevice)
	}

	classReg, err := readConfigU32(addr, 0x08)
	if err != nil {
		return nil, err
	}

	if baseClass := byte(classReg >> 24); baseClass != networkControllerClass {
		return nil, fmt.Errorf("class %#02x is not a network controller: %w", baseClass, ixerr.ErrUnsupportedDevice)
	}

	return &Device{
		Address:  addr,
		Vendor:   vendor,
		DeviceID: device,
		Name:     name,
		bound:    isBound(addr),
	}, nil
}

// Unbind detaches the kernel driver from the device. Idempotent: unbinding
// an already-unbound device succeeds.
func (d *Device) Unbind() error {
	return writeSysfs(unbindPath(d.Address), d.Address)
}

// Bind re-attaches the ixgbe kernel driver to the device.
func (d *Device) Bind() error {
	return writeSysfs(bindPath(), d.Address)
}

// GetReg performs a 32-bit volatile load from the mapped BAR0 at the given
// byte offset.
func (d *Device) GetReg(offset uint32) uint32 {
	return reg.Read(d.bar0, offset)
}

// SetReg performs a 32-bit volatile store to the mapped BAR0 at the given
// byte offset.
func (d *Device) SetReg(offset uint32, value uint32) {
	reg.Write(d.bar0, offset, value)
}

// Registers exposes the raw mapped BAR0, for packages (ixgbe) that need to
// pass it to the lower-level reg helpers directly.
func (d *Device) Registers() []byte {
	return d.bar0
}

// NewFake returns a Device backed by an in-memory register file instead of
// a real mmap'd BAR0, for exercising register-consuming code (package
// ixgbe) without PCI hardware or sysfs. Bind and Unbind write to sysfs
// paths for the address "fake", which normally do not exist. Close is not
// usable on a fake: the register file was not mmap'd, so unmapping it fails.
func NewFake(bar0 []byte) *Device {
	return &Device{Address: "fake", bar0: bar0}
}

// Close unmaps BAR0, unbinds the device from this process, and — if the
// device was bound to a kernel driver before Probe — rebinds it, so the
// kernel regains control on shutdown.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.unmapResourceLocked(); err != nil {
		return err
	}

	if err := d.Unbind(); err != nil {
		return err
	}

	if d.bound {
		if err := d.Bind(); err != nil {
			return err
		}
	}

	unregisterForShutdown(d)

	return nil
}
