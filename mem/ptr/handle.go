package ptr

import "unsafe"

// Handle is the type-erased layout shared by SharedPtr, StrongPtr and WeakPtr.
// A weak handle caches no payload pointer; that is how Release tells it apart
// from a strong handle to the same block.
type Handle struct {
	cb  unsafe.Pointer
	ptr unsafe.Pointer
}

// HandleSize is the size of every handle type.
const HandleSize = unsafe.Sizeof(Handle{})

const wordSize = unsafe.Sizeof(uintptr(0))

// Handles are exactly two words whatever their payload.
var (
	_ [HandleSize - 2*wordSize]struct{}
	_ [2*wordSize - HandleSize]struct{}
	_ [unsafe.Sizeof(SharedPtr[[64]byte]{}) - HandleSize]struct{}
	_ [unsafe.Sizeof(StrongPtr[[64]byte]{}) - HandleSize]struct{}
	_ [unsafe.Sizeof(WeakPtr[[64]byte]{}) - HandleSize]struct{}
)

// Kind classifies a handle.
type Kind uint8

const (
	KindNil Kind = iota
	KindShared
	KindStrong
	KindWeak
)

func (k Kind) String() string {
	switch k {
	case KindShared:
		return "shared"
	case KindStrong:
		return "strong"
	case KindWeak:
		return "weak"
	default:
		return "nil"
	}
}

// IsNil reports whether the handle refers to nothing.
func (h *Handle) IsNil() bool { return h.cb == nil }

// Kind reports which pointer type the handle was created as.
func (h *Handle) Kind() Kind {
	if h.cb == nil {
		return KindNil
	}
	if (*header)(h.cb).kind == kindShared {
		return KindShared
	}
	if h.ptr == nil {
		return KindWeak
	}
	return KindStrong
}

// Release drops the handle's reference and leaves it nil. It dispatches on the
// control block, so it works through a Handle of any pointer type.
func (h *Handle) Release() {
	cb, weak := h.cb, h.ptr == nil
	if cb == nil {
		return
	}
	*h = Handle{}

	switch (*header)(cb).kind {
	case kindShared:
		releaseShared(cb)
	case kindDual:
		if weak {
			releaseWeak(cb)
		} else {
			releaseStrong(cb)
		}
	}
}

// Move transfers the reference to the returned handle and leaves h nil.
func (h *Handle) Move() Handle {
	out := *h
	*h = Handle{}
	return out
}
