// Package vmem provides platform-specific helpers for reserving and committing
// virtual memory pages.
//
// A Region is one address-space reservation. Pages inside it are either
// committed (readable and writable) or not; touching an uncommitted page
// faults. Callers track which pages they committed: the package does not guard
// against committing twice or against ranges the caller never reserved beyond
// the slice bounds checks Go performs anyway.
package vmem

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

var (
	// ErrReserve indicates the OS refused to reserve address space.
	ErrReserve = errors.New("vmem: reserve failed")

	// ErrCommit indicates the OS refused to attach backing to a page range.
	ErrCommit = errors.New("vmem: commit failed")

	// ErrDecommit indicates the OS refused to detach backing from a page range.
	ErrDecommit = errors.New("vmem: decommit failed")

	// ErrRange indicates a page range outside the reservation.
	ErrRange = errors.New("vmem: page range outside reservation")
)

var (
	pageSizeOnce sync.Once
	pageSize     uintptr
)

// PageSize returns the OS page size. It is queried once per process.
func PageSize() uintptr {
	pageSizeOnce.Do(func() {
		pageSize = uintptr(osPageSize())
	})
	return pageSize
}

// Region is one virtual memory reservation.
type Region struct {
	mem   []byte
	pages int
}

// Reserve claims address space for pages pages without committing any of them.
func Reserve(pages int) (*Region, error) {
	if pages <= 0 {
		return nil, fmt.Errorf("%w: page count %d", ErrReserve, pages)
	}
	size := uintptr(pages) * PageSize()
	mem, err := reserve(size)
	if err != nil {
		return nil, fmt.Errorf("%w: %d pages: %w", ErrReserve, pages, err)
	}
	return &Region{mem: mem, pages: pages}, nil
}

// Base returns the address of the first byte of the reservation.
func (r *Region) Base() unsafe.Pointer {
	if len(r.mem) == 0 {
		return nil
	}
	return unsafe.Pointer(&r.mem[0])
}

// ReservedPages returns the number of pages in the reservation.
func (r *Region) ReservedPages() int { return r.pages }

// Len returns the reservation size in bytes.
func (r *Region) Len() uintptr { return uintptr(len(r.mem)) }

// Bytes returns the whole reservation. Only committed pages may be touched.
func (r *Region) Bytes() []byte { return r.mem }

// Commit commits a single page.
func (r *Region) Commit(page int) (unsafe.Pointer, error) {
	return r.CommitRange(page, 1)
}

// CommitRange attaches backing to count pages starting at page and returns the
// address of the first committed byte.
func (r *Region) CommitRange(page, count int) (unsafe.Pointer, error) {
	b, err := r.span(page, count)
	if err != nil {
		return nil, err
	}
	if err := commit(b); err != nil {
		return nil, fmt.Errorf("%w: pages [%d,%d): %w", ErrCommit, page, page+count, err)
	}
	return unsafe.Pointer(&b[0]), nil
}

// Decommit decommits a single page.
func (r *Region) Decommit(page int) error {
	return r.DecommitRange(page, 1)
}

// DecommitRange detaches backing from count pages starting at page. The
// contents of the pages are unspecified if they are committed again.
func (r *Region) DecommitRange(page, count int) error {
	b, err := r.span(page, count)
	if err != nil {
		return err
	}
	if err := decommit(b); err != nil {
		return fmt.Errorf("%w: pages [%d,%d): %w", ErrDecommit, page, page+count, err)
	}
	return nil
}

// Release returns the whole reservation to the OS. Calling it twice is a no-op.
func (r *Region) Release() error {
	if r.mem == nil {
		return nil
	}
	err := release(r.mem)
	r.mem = nil
	return err
}

func (r *Region) span(page, count int) ([]byte, error) {
	if r.mem == nil || page < 0 || count <= 0 || page+count > r.pages {
		return nil, fmt.Errorf("%w: pages [%d,%d) of %d", ErrRange, page, page+count, r.pages)
	}
	ps := int(PageSize())
	return r.mem[page*ps : (page+count)*ps], nil
}
