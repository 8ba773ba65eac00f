package alloc

import "unsafe"

// Tracker is the diagnostics policy of a FixedBlock. It is chosen at compile
// time through the FixedBlock type parameter.
type Tracker interface {
	// HeaderSize is the number of bytes reserved in front of every slot.
	HeaderSize() uintptr

	// OnAlloc is called with the slot header before the slot is handed out.
	OnAlloc(hdr unsafe.Pointer)

	// OnFree is called with the slot header when the slot is returned. A
	// non-nil error keeps the slot from being recycled.
	OnFree(hdr unsafe.Pointer) error
}

// NoTracking performs no bookkeeping.
type NoTracking struct{}

func (*NoTracking) HeaderSize() uintptr { return 0 }
func (*NoTracking) OnAlloc(unsafe.Pointer) {}
func (*NoTracking) OnFree(unsafe.Pointer) error { return nil }

// CountTracking counts allocations minus deallocations.
type CountTracking struct {
	diff int64
}

func (*CountTracking) HeaderSize() uintptr { return 0 }

func (c *CountTracking) OnAlloc(unsafe.Pointer) { c.diff++ }

func (c *CountTracking) OnFree(unsafe.Pointer) error {
	c.diff--
	return nil
}

// AllocationDifference returns #allocate - #deallocate.
func (c *CountTracking) AllocationDifference() int64 { return c.diff }

// Leaked reports whether allocations and deallocations are unbalanced.
func (c *CountTracking) Leaked() bool { return c.diff != 0 }

// DoubleFreeTracking keeps one counter word in front of every slot and counts
// how often each slot was deallocated since it was last handed out.
type DoubleFreeTracking struct {
	multiple uint64
	double   uint64
}

func (*DoubleFreeTracking) HeaderSize() uintptr { return wordSize }

func (*DoubleFreeTracking) OnAlloc(hdr unsafe.Pointer) {
	*(*uintptr)(hdr) = 0
}

func (d *DoubleFreeTracking) OnFree(hdr unsafe.Pointer) error {
	n := (*uintptr)(hdr)
	*n++
	if *n <= 1 {
		return nil
	}
	d.multiple++
	if *n == 2 {
		d.double++
	}
	return ErrDoubleFree
}

// MultipleDeleteCount counts every deallocation of an already free slot.
func (d *DoubleFreeTracking) MultipleDeleteCount() uint64 { return d.multiple }

// DoubleDeleteCount counts slots that were deallocated twice, once per slot.
func (d *DoubleFreeTracking) DoubleDeleteCount() uint64 { return d.double }

var (
	_ Tracker = (*NoTracking)(nil)
	_ Tracker = (*CountTracking)(nil)
	_ Tracker = (*DoubleFreeTracking)(nil)
)
