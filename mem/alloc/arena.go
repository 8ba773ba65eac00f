package alloc

import (
	"fmt"
	"log/slog"
	"unsafe"
)

// Arena is a bump allocator over one reservation. Blocks are never freed
// individually; Reset reclaims everything at once.
type Arena struct {
	r    *region
	off  uintptr
	peak uintptr
	log  *slog.Logger
}

// NewArena reserves an arena. WithMaxElements is interpreted as a byte count.
func NewArena(opts ...Option) (*Arena, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	r, err := newRegion(cfg.reservedPages(1, pageSize()), cfg.granularity, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("alloc: arena: %w", err)
	}
	return &Arena{r: r, log: cfg.logger}, nil
}

// Alloc returns size bytes aligned to align, which must be a power of two.
func (a *Arena) Alloc(size, align uintptr) (unsafe.Pointer, error) {
	if a.r.base == nil {
		return nil, ErrClosed
	}
	if align == 0 || align&(align-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadAlign, align)
	}
	if size == 0 {
		size = 1
	}

	start := alignUp(a.off, align)
	end := start + size
	if end < start {
		return nil, ErrNoSpace
	}
	if err := a.r.growFor(end); err != nil {
		return nil, err
	}
	a.off = end
	a.peak = max(a.peak, end)
	return unsafe.Add(a.r.base, start), nil
}

// Allocate implements Allocator with word alignment.
func (a *Arena) Allocate(size uintptr) unsafe.Pointer {
	p, err := a.Alloc(size, wordSize)
	if err != nil {
		return nil
	}
	return p
}

// Deallocate implements Allocator. Arena blocks live until Reset.
func (a *Arena) Deallocate(unsafe.Pointer) {}

// Reset rewinds the arena. With releasePages, every chunk past the first is
// decommitted. All pointers previously returned become invalid.
func (a *Arena) Reset(releasePages bool) {
	a.off = 0
	if releasePages && a.r.base != nil {
		a.r.trim()
	}
}

// Len returns the number of bytes handed out since the last Reset.
func (a *Arena) Len() int { return int(a.off) }

// Cap returns the reservation size in bytes.
func (a *Arena) Cap() int {
	if a.r.vm == nil {
		return 0
	}
	return int(a.r.vm.Len())
}

// Peak returns the high-water mark of Len. It survives Reset.
func (a *Arena) Peak() int { return int(a.peak) }

// Stats returns a snapshot of the arena.
func (a *Arena) Stats() Stats {
	s := Stats{
		Kind:     "arena",
		PageSize: pageSize(),
		Cursor:   a.off,
		Peak:     a.peak,
	}
	a.r.fill(&s)
	return s
}

// Close releases the reservation and unregisters the arena.
func (a *Arena) Close() error {
	Unregister(a)
	a.off = 0
	return a.r.release()
}

var _ Allocator = (*Arena)(nil)
