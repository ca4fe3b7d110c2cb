//go:build tinygo

package spider

import (
	"runtime/volatile"
	"unsafe"
)

// Direct accesses the physical address space in place.
type Direct struct{}

func (Direct) Load8(addr uintptr) uint8 {
	return volatile.LoadUint8((*uint8)(unsafe.Pointer(addr)))
}

func (Direct) Store8(addr uintptr, v uint8) {
	volatile.StoreUint8((*uint8)(unsafe.Pointer(addr)), v)
}
