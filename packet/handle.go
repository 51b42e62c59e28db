// Package packet implements the packet buffer handle: a cheap, copyable
// reference to a fixed-size DMA buffer whose first 64 bytes are a
// device-consumable header.
package packet

import (
	"encoding/binary"
	"unsafe"
)

// HeaderSize is the fixed header layout size at the start of every buffer.
const HeaderSize = 64

// DefaultStride is the conventional total buffer size (header + payload
// room), chosen so that it evenly divides a huge page.
const DefaultStride = 2048

// Header byte offsets within the first HeaderSize bytes of a buffer.
const (
	offPhysicalAddress = 0  // u64
	offMemoryPoolID    = 8  // u32
	offReserved12      = 12 // u32, reserved
	offSize            = 16 // u32
	// offsets 20-63 are reserved/head-room.
)

// Handle is a reference to a packet buffer: the virtual address of its
// 64-byte header. It is intentionally a plain integer type so that it is
// cheap to copy and to use as a map/slice element; handles compare and sort
// by virtual address.
type Handle uintptr

// Nil is the zero handle, used to signal "no buffer" (e.g. an empty pool).
const Nil Handle = 0

// VirtualAddress returns the handle's virtual address (the header start).
func (h Handle) VirtualAddress() uintptr {
	return uintptr(h)
}

func (h Handle) header() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(h))), HeaderSize)
}

// PhysicalAddress returns the physical address of the buffer's payload
// (header physical address + HeaderSize), as recorded in the header by the
// owning pool at initialization time.
func (h Handle) PhysicalAddress() uint64 {
	return binary.LittleEndian.Uint64(h.header()[offPhysicalAddress:])
}

// PoolID returns the identifier of the pool that owns this buffer.
func (h Handle) PoolID() uint32 {
	return binary.LittleEndian.Uint32(h.header()[offMemoryPoolID:])
}

// InitHeader writes the fixed header fields for a freshly carved buffer:
// the payload's physical address (the header's physical address plus
// HeaderSize), the owning pool id, a zero size, and zeroed reserved bytes.
// Called once per buffer by the owning pool at pool creation time.
func (h Handle) InitHeader(headerPhysicalAddress uint64, poolID uint32) {
	hdr := h.header()

	for i := range hdr {
		hdr[i] = 0
	}

	binary.LittleEndian.PutUint64(hdr[offPhysicalAddress:], headerPhysicalAddress+HeaderSize)
	binary.LittleEndian.PutUint32(hdr[offMemoryPoolID:], poolID)
}

// Size returns the payload length in bytes.
func (h Handle) Size() uint32 {
	return binary.LittleEndian.Uint32(h.header()[offSize:])
}

// SetSize updates the payload length in bytes.
func (h Handle) SetSize(size uint32) {
	binary.LittleEndian.PutUint32(h.header()[offSize:], size)
}

// payloadBase returns a pointer to the first payload byte.
func (h Handle) payloadBase() uintptr {
	return uintptr(h) + HeaderSize
}

// Payload returns a zero-copy slice over the buffer's current payload
// (length Size()).
func (h Handle) Payload() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(h.payloadBase())), h.Size())
}

// PayloadN returns a zero-copy slice of n bytes over the buffer's payload
// region, regardless of the currently recorded Size(). Used by callers that
// need to write a frame before calling SetSize.
func (h Handle) PayloadN(n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(h.payloadBase())), n)
}

// Get reads len(dst) bytes from the payload at offset off into dst.
func (h Handle) Get(off int, dst []byte) {
	copy(dst, h.PayloadN(off+len(dst))[off:])
}

// Put writes src into the payload at offset off.
func (h Handle) Put(off int, src []byte) {
	copy(h.PayloadN(off+len(src))[off:], src)
}

// ReadByte reads a single byte from the payload at offset off.
func (h Handle) ReadByte(off int) byte {
	return h.PayloadN(off + 1)[off]
}

// WriteByte writes a single byte to the payload at offset off.
func (h Handle) WriteByte(off int, v byte) {
	h.PayloadN(off + 1)[off] = v
}

// ReadUint16 reads a little-endian uint16 from the payload at offset off.
func (h Handle) ReadUint16(off int) uint16 {
	return binary.LittleEndian.Uint16(h.PayloadN(off + 2)[off:])
}

// WriteUint16 writes a little-endian uint16 to the payload at offset off.
func (h Handle) WriteUint16(off int, v uint16) {
	binary.LittleEndian.PutUint16(h.PayloadN(off+2)[off:], v)
}

// ReadUint32 reads a little-endian uint32 from the payload at offset off.
func (h Handle) ReadUint32(off int) uint32 {
	return binary.LittleEndian.Uint32(h.PayloadN(off + 4)[off:])
}

// WriteUint32 writes a little-endian uint32 to the payload at offset off.
func (h Handle) WriteUint32(off int, v uint32) {
	binary.LittleEndian.PutUint32(h.PayloadN(off+4)[off:], v)
}

// ReadUint64 reads a little-endian uint64 from the payload at offset off.
func (h Handle) ReadUint64(off int) uint64 {
	return binary.LittleEndian.Uint64(h.PayloadN(off + 8)[off:])
}

// WriteUint64 writes a little-endian uint64 to the payload at offset off.
func (h Handle) WriteUint64(off int, v uint64) {
	binary.LittleEndian.PutUint64(h.PayloadN(off+8)[off:], v)
}
