//go:build windows

package vmem

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

func osPageSize() int { return os.Getpagesize() }

func reserve(size uintptr) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, size, windows.MEM_RESERVE, windows.PAGE_NOACCESS)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func commit(b []byte) error {
	_, err := windows.VirtualAlloc(
		uintptr(unsafe.Pointer(&b[0])), uintptr(len(b)), windows.MEM_COMMIT, windows.PAGE_READWRITE)
	return err
}

func decommit(b []byte) error {
	return windows.VirtualFree(uintptr(unsafe.Pointer(&b[0])), uintptr(len(b)), windows.MEM_DECOMMIT)
}

// release frees the whole reservation; MEM_RELEASE requires a zero size.
func release(b []byte) error {
	return windows.VirtualFree(uintptr(unsafe.Pointer(&b[0])), 0, windows.MEM_RELEASE)
}
