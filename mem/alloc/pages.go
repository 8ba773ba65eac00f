package alloc

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/joshuapare/memkit/internal/vmem"
)

// region is one reservation plus its commit state. Pages [0, committed) are
// committed; committed never drops below minPages.
type region struct {
	vm          *vmem.Region
	base        unsafe.Pointer
	pageSize    uintptr
	granularity int
	committed   int
	minPages    int
	log         *slog.Logger
}

// newRegion reserves pages pages and commits the first granularity chunk.
func newRegion(pages, granularity int, log *slog.Logger) (*region, error) {
	vm, err := vmem.Reserve(pages)
	if err != nil {
		return nil, err
	}
	r := &region{
		vm:          vm,
		base:        vm.Base(),
		pageSize:    vmem.PageSize(),
		granularity: granularity,
		minPages:    min(granularity, pages),
		log:         log,
	}
	if err := r.growByPages(r.minPages); err != nil {
		_ = vm.Release()
		return nil, err
	}
	return r, nil
}

func (r *region) reservedPages() int { return r.vm.ReservedPages() }

func (r *region) committedBytes() uintptr { return uintptr(r.committed) * r.pageSize }

func (r *region) chunkBytes() uintptr { return uintptr(r.granularity) * r.pageSize }

// grow commits the next granularity chunk, or whatever remains of the
// reservation if that is smaller.
func (r *region) grow() error {
	n := min(r.granularity, r.reservedPages()-r.committed)
	if n <= 0 {
		r.log.Debug("alloc: reservation exhausted",
			slog.Int("reserved_pages", r.reservedPages()))
		return ErrNoSpace
	}
	return r.growByPages(n)
}

// growFor commits chunks until end bytes are backed.
func (r *region) growFor(end uintptr) error {
	for end > r.committedBytes() {
		if err := r.grow(); err != nil {
			return err
		}
	}
	return nil
}

func (r *region) growByPages(n int) error {
	if _, err := r.vm.CommitRange(r.committed, n); err != nil {
		r.log.Warn("alloc: commit failed", slog.Int("page", r.committed), slog.Int("count", n), slog.Any("err", err))
		return fmt.Errorf("%w: %w", ErrNoSpace, err)
	}
	r.committed += n
	r.log.Debug("alloc: committed pages",
		slog.Int("count", n), slog.Int("committed_pages", r.committed))
	return nil
}

// tailPages is the size of the trailing chunk. It is smaller than the
// granularity only when the reservation is not a multiple of it.
func (r *region) tailPages() int {
	if t := r.committed % r.granularity; t != 0 {
		return t
	}
	return r.granularity
}

// shrink decommits trailing chunks for as long as at least one full chunk of
// committed slack would remain after doing so.
func (r *region) shrink(used uintptr) {
	for {
		tail := r.tailPages()
		keep := r.committed - tail
		if keep < r.minPages || uintptr(keep)*r.pageSize < used+r.chunkBytes() {
			return
		}
		if !r.truncatePages(tail) {
			return
		}
	}
}

// truncatePages decommits the last n committed pages. It reports false when
// the OS refused and the pages stay committed.
func (r *region) truncatePages(n int) bool {
	if err := r.vm.DecommitRange(r.committed-n, n); err != nil {
		r.log.Warn("alloc: decommit failed", slog.Int("page", r.committed-n), slog.Int("count", n), slog.Any("err", err))
		return false
	}
	r.committed -= n
	r.log.Debug("alloc: decommitted pages",
		slog.Int("count", n), slog.Int("committed_pages", r.committed))
	return true
}

// trim decommits everything past the first chunk.
func (r *region) trim() {
	if extra := r.committed - r.minPages; extra > 0 {
		r.truncatePages(extra)
	}
}

func (r *region) release() error {
	if r.vm == nil {
		return nil
	}
	err := r.vm.Release()
	r.vm = nil
	r.base = nil
	r.committed = 0
	return err
}

// offsetOf returns the offset of p when it points into the committed part of
// the region.
func (r *region) offsetOf(p unsafe.Pointer) (uintptr, bool) {
	if r.base == nil || p == nil {
		return 0, false
	}
	off := uintptr(p) - uintptr(r.base)
	if uintptr(p) < uintptr(r.base) || off >= r.committedBytes() {
		return 0, false
	}
	return off, true
}

func pageSize() uintptr { return vmem.PageSize() }
