// Package ixerr defines the sentinel errors shared by the driver's core
// packages (memory, mempool, pci, ixgbe). Callers use errors.Is against
// these values; call sites wrap them with fmt.Errorf("...: %w", ...) to add
// context without losing the sentinel.
package ixerr

import "errors"

var (
	// ErrUnsupportedDevice is returned by pci.Probe when the vendor/device
	// ID pair is not in the supported ixgbe table.
	ErrUnsupportedDevice = errors.New("ixy: unsupported device")

	// ErrPermissionDenied is returned when a huge-page mount, pagemap read,
	// or sysfs bind/unbind write is denied by the kernel (non-root).
	ErrPermissionDenied = errors.New("ixy: permission denied")

	// ErrResourceExhausted is returned when a huge-page allocation fails,
	// or when a memory pool cannot supply a buffer during RX refill.
	ErrResourceExhausted = errors.New("ixy: resource exhausted")

	// ErrUnsupportedMultiSegment is returned when an RX descriptor arrives
	// with DD set but EOP clear; this driver does not reassemble segments.
	ErrUnsupportedMultiSegment = errors.New("ixy: unsupported multi-segment packet")

	// ErrInvalidArgument is returned for bad sizes, offsets, or nil buffers
	// at an API boundary, before any side effect occurs.
	ErrInvalidArgument = errors.New("ixy: invalid argument")

	// ErrLinkTimeout is returned when a bounded hardware wait during device
	// initialization (reset completion, EEPROM auto-read, DMA init, queue
	// enable) exceeds its deadline. A timed-out wait for link-up is not
	// returned as an error: it is logged as a warning and init proceeds
	// with speed 0.
	ErrLinkTimeout = errors.New("ixy: link wait timed out")
)
