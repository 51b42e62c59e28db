package ixgbe

import (
	"encoding/binary"
	"unsafe"
)

// descriptorSize is the fixed size of one RX or TX descriptor slot.
const descriptorSize = 16

// descriptorRing is a contiguous, huge-page backed array of 16-byte
// descriptor slots, shared with the NIC via DMA. It is a thin view over a
// memory.Region's virtual address; the region itself is owned by the
// rxQueue/txQueue that allocated it.
type descriptorRing struct {
	base     uintptr
	capacity uint16
}

func (r descriptorRing) slot(i uint16) []byte {
	off := uintptr(i) * descriptorSize
	return unsafe.Slice((*byte)(unsafe.Pointer(r.base+off)), descriptorSize)
}

// fillFF writes 0xFF to every byte of every slot, guarding against a stale
// DD bit being observed before the device has written anything back.
func (r descriptorRing) fillFF() {
	for i := uint16(0); i < r.capacity; i++ {
		s := r.slot(i)
		for j := range s {
			s[j] = 0xFF
		}
	}
}

// rxSetBufferAddr writes the driver-to-NIC form of an RX descriptor:
// packet buffer physical address at offset 0, header buffer address
// (unused, always 0) at offset 8.
func (r descriptorRing) rxSetBufferAddr(i uint16, phys uint64) {
	s := r.slot(i)
	binary.LittleEndian.PutUint64(s[0:], phys)
	binary.LittleEndian.PutUint64(s[8:], 0)
}

// rxWriteback reads back the NIC-to-driver form: the extended status word
// (low 32 bits of the second quad word) and the writeback length (low 16
// bits of the upper half of that same word pair, per the advanced
// one-buffer receive descriptor layout).
func (r descriptorRing) rxWriteback(i uint16) (status uint32, length uint16) {
	s := r.slot(i)
	word := binary.LittleEndian.Uint64(s[8:])
	status = uint32(word)
	length = uint16(word >> 32)
	return status, length
}

// txSetDescriptor writes the driver form of an advanced TX data descriptor:
// buffer physical address, cmd_type_length, and olinfo_status.
func (r descriptorRing) txSetDescriptor(i uint16, phys uint64, cmdTypeLen uint32, olinfoStatus uint32) {
	s := r.slot(i)
	binary.LittleEndian.PutUint64(s[0:], phys)
	binary.LittleEndian.PutUint32(s[8:], cmdTypeLen)
	binary.LittleEndian.PutUint32(s[12:], olinfoStatus)
}

// txOlinfoStatus reads back the olinfo_status writeback word, whose low bit
// is the DD (descriptor done) flag.
func (r descriptorRing) txOlinfoStatus(i uint16) uint32 {
	s := r.slot(i)
	return binary.LittleEndian.Uint32(s[12:])
}
