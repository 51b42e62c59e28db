package memory

import "unsafe"

// unsafeSliceAddr returns the virtual address of a slice's backing array.
func unsafeSliceAddr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// unsafeSliceAt reinterprets the memory at addr as a byte slice of length
// size, without copying. The caller is responsible for addr/size validity.
func unsafeSliceAt(addr uintptr, size int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}
