package alloc

import (
	"fmt"
	"log/slog"
	"unsafe"
)

// FixedBlock allocates same-size blocks out of one reservation.
//
// Slots are laid out back to back with a stride of HeaderSize+blockSize.
// Slots below the bump cursor are either used or linked into the free list;
// slots above it have never been handed out since the cursor last passed them.
//
// A free slot's first word holds the offset (plus one) of the next free slot,
// so callers must not rely on the first word surviving a free/alloc cycle.
type FixedBlock[T Tracker] struct {
	tracker T
	r       *region

	blockSize uintptr
	header    uintptr
	stride    uintptr

	// allocIndex is the offset of the next never-used slot's header.
	allocIndex uintptr

	// freeHead is the offset+1 of the first free slot, 0 when the list is empty.
	freeHead uintptr
	freeLen  int
	live     int

	log *slog.Logger
}

// NewFixedBlock creates a FixedBlock handing out blockSize-byte blocks.
// blockSize is raised to at least one machine word and rounded up to word
// alignment so a free slot can always hold the next-free link.
//
// The tracker's type selects the diagnostics policy:
//
//	fb, err := alloc.NewFixedBlock(&alloc.DoubleFreeTracking{}, 48, alloc.WithMaxElements(1000))
func NewFixedBlock[T Tracker](tracker T, blockSize uintptr, opts ...Option) (*FixedBlock[T], error) {
	if blockSize == 0 {
		return nil, ErrBadBlockSize
	}
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}

	blockSize = alignUp(max(blockSize, wordSize), wordSize)
	header := alignUp(tracker.HeaderSize(), wordSize)
	stride := header + blockSize

	r, err := newRegion(cfg.reservedPages(stride, pageSize()), cfg.granularity, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("alloc: fixed block %d bytes: %w", blockSize, err)
	}

	return &FixedBlock[T]{
		tracker:   tracker,
		r:         r,
		blockSize: blockSize,
		header:    header,
		stride:    stride,
		log:       cfg.logger,
	}, nil
}

// Alloc returns a block. It reuses the most recently freed block if there is
// one, otherwise it bumps the cursor, committing another chunk if needed.
func (f *FixedBlock[T]) Alloc() (unsafe.Pointer, error) {
	if f.r.base == nil {
		return nil, ErrClosed
	}

	if f.freeHead != 0 {
		slot := f.at(f.freeHead - 1)
		f.freeHead = *(*uintptr)(slot)
		f.freeLen--
		f.tracker.OnAlloc(unsafe.Add(slot, -int(f.header)))
		f.live++
		return slot, nil
	}

	end := f.allocIndex + f.stride
	if end > f.r.committedBytes() {
		if err := f.r.growFor(end); err != nil {
			return nil, err
		}
	}

	hdr := f.at(f.allocIndex)
	f.allocIndex = end
	f.tracker.OnAlloc(hdr)
	f.live++
	return unsafe.Add(hdr, f.header), nil
}

// Allocate implements Allocator. It returns nil when size exceeds the block
// size or when the reservation is exhausted.
func (f *FixedBlock[T]) Allocate(size uintptr) unsafe.Pointer {
	if size > f.blockSize {
		return nil
	}
	p, err := f.Alloc()
	if err != nil {
		return nil
	}
	return p
}

// Free returns a block.
//
// Freeing the most recently bumped block rewinds the cursor instead of
// touching the free list, so stack-ordered callers reclaim space without
// fragmentation; the trailing chunk is then decommitted once a full chunk of
// slack sits behind the cursor.
//
// Under DoubleFreeTracking a repeated free is counted and reported as
// ErrDoubleFree; the slot is not linked into the free list again.
func (f *FixedBlock[T]) Free(p unsafe.Pointer) error {
	off, ok := f.r.offsetOf(p)
	if !ok || off < f.header || (off-f.header)%f.stride != 0 {
		return fmt.Errorf("%w: %p", ErrBadPointer, p)
	}
	slotOff := off - f.header
	hdr := f.at(slotOff)

	if slotOff >= f.allocIndex {
		// Above the cursor only a per-slot header can tell a repeated free
		// of a rewound slot from a wild pointer.
		if f.header > 0 {
			if err := f.tracker.OnFree(hdr); err != nil {
				return err
			}
		}
		return fmt.Errorf("%w: %p above cursor", ErrBadPointer, p)
	}

	if err := f.tracker.OnFree(hdr); err != nil {
		return err
	}
	f.live--

	if slotOff+f.stride == f.allocIndex {
		f.allocIndex = slotOff
		f.r.shrink(f.allocIndex)
		return nil
	}

	*(*uintptr)(p) = f.freeHead
	f.freeHead = off + 1
	f.freeLen++
	return nil
}

// Deallocate implements Allocator. Errors are logged and otherwise ignored.
func (f *FixedBlock[T]) Deallocate(p unsafe.Pointer) {
	if p == nil {
		return
	}
	if err := f.Free(p); err != nil {
		f.log.Debug("alloc: deallocate", slog.Any("err", err))
	}
}

// Owns reports whether p is a slot address inside this allocator's bump range.
func (f *FixedBlock[T]) Owns(p unsafe.Pointer) bool {
	off, ok := f.r.offsetOf(p)
	return ok && off >= f.header && (off-f.header)%f.stride == 0 && off-f.header < f.allocIndex
}

// Tracker returns the diagnostics policy.
func (f *FixedBlock[T]) Tracker() T { return f.tracker }

// BlockSize returns the usable size of every block.
func (f *FixedBlock[T]) BlockSize() uintptr { return f.blockSize }

// Close releases the reservation and unregisters the allocator. A non-zero
// CountTracking difference is logged as a leak.
func (f *FixedBlock[T]) Close() error {
	if f.r.base == nil {
		return nil
	}
	if ct, ok := any(f.tracker).(*CountTracking); ok && ct.Leaked() {
		f.log.Warn("alloc: fixed block closed with live allocations",
			slog.Int64("allocation_difference", ct.AllocationDifference()),
			slog.Uint64("block_size", uint64(f.blockSize)))
	}
	Unregister(f)
	f.allocIndex = 0
	f.freeHead = 0
	f.freeLen = 0
	f.live = 0
	return f.r.release()
}

func (f *FixedBlock[T]) at(off uintptr) unsafe.Pointer {
	return unsafe.Add(f.r.base, off)
}

var _ Allocator = (*FixedBlock[*NoTracking])(nil)
