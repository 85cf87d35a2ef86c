package kernel

import (
	"reflect"
	"unsafe"
)

// Memset sets size bytes starting at addr to value. The implementation
// mirrors bytes.Repeat: after setting the first byte it doubles the
// written region on each iteration instead of looping byte-by-byte, which
// matters because this function runs on the hot path of every fresh page
// table and every freshly allocated frame.
func Memset(addr uintptr, value byte, size uintptr) {
	if size == 0 {
		return
	}

	target := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: addr,
	}))

	target[0] = value
	for index := uintptr(1); index < size; index *= 2 {
		copy(target[index:], target[:index])
	}
}

// Memcopy copies size bytes from src to dst. Both addresses are raw
// virtual addresses rather than Go pointers because its caller
// (task.InitUserTLS, copying a TLS template into a fresh user block)
// operates on memory that has no Go type attached to it.
func Memcopy(src, dst uintptr, size uintptr) {
	if size == 0 {
		return
	}

	srcSlice := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{Len: int(size), Cap: int(size), Data: src}))
	dstSlice := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{Len: int(size), Cap: int(size), Data: dst}))
	copy(dstSlice, srcSlice)
}
