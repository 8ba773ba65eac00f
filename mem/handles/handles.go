// Package handles packs ownership handles of mixed payload types into one
// bump-allocated buffer and tears them all down together.
//
// Every handle type in mem/ptr has the layout of ptr.Handle, so a slot can be
// reinterpreted as a SharedPtr, StrongPtr or WeakPtr of any payload and later
// released through the type-erased base. Slots are never freed one at a time;
// Reset releases every handle in insertion order.
//
// Slots live in ordinary Go memory rather than a vmem region: handles to
// alloc.Heap control blocks are the only thing keeping those blocks
// reachable, so the collector has to see them.
package handles

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/joshuapare/memkit/internal/logger"
	"github.com/joshuapare/memkit/internal/vmem"
	"github.com/joshuapare/memkit/mem/alloc"
	"github.com/joshuapare/memkit/mem/ptr"
)

// Allocator hands out handle slots.
type Allocator struct {
	chunks   [][]ptr.Handle
	perChunk int
	n        int
	maxSlots int
	log      *slog.Logger
}

// Option configures an Allocator.
type Option func(*Allocator) error

// WithChunkSlots sets how many slots each chunk holds. The default fills one
// page.
func WithChunkSlots(n int) Option {
	return func(a *Allocator) error {
		if n <= 0 {
			return fmt.Errorf("%w: chunk slots %d", ErrBadOption, n)
		}
		a.perChunk = n
		return nil
	}
}

// WithMaxSlots caps the total number of slots. Without it the allocator grows
// without bound.
func WithMaxSlots(n int) Option {
	return func(a *Allocator) error {
		if n <= 0 {
			return fmt.Errorf("%w: max slots %d", ErrBadOption, n)
		}
		a.maxSlots = n
		return nil
	}
}

// WithLogger sets the logger used by Reset.
func WithLogger(l *slog.Logger) Option {
	return func(a *Allocator) error {
		if l == nil {
			return fmt.Errorf("%w: nil logger", ErrBadOption)
		}
		a.log = l
		return nil
	}
}

// New creates an empty handle allocator.
func New(opts ...Option) (*Allocator, error) {
	a := &Allocator{
		perChunk: int(vmem.PageSize() / ptr.HandleSize),
		log:      logger.L(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// slot returns the next free slot, or nil when the cap is reached.
func (a *Allocator) slot() *ptr.Handle {
	if a.maxSlots > 0 && a.n == a.maxSlots {
		return nil
	}
	ci, si := a.n/a.perChunk, a.n%a.perChunk
	if ci == len(a.chunks) {
		a.chunks = append(a.chunks, make([]ptr.Handle, a.perChunk))
	}
	a.n++
	return &a.chunks[ci][si]
}

// Adopt moves h into the next slot and returns the slot. h is left nil. When
// the allocator is full, h is left untouched and nil is returned.
func (a *Allocator) Adopt(h *ptr.Handle) *ptr.Handle {
	s := a.slot()
	if s == nil {
		return nil
	}
	*s = h.Move()
	return s
}

// Shared constructs a SharedPtr in the next slot. The control block comes
// from src.
func Shared[T any](a *Allocator, src alloc.Allocator, v T) (*ptr.SharedPtr[T], error) {
	sp, err := ptr.MakeShared(src, v)
	if err != nil {
		return nil, err
	}
	s := a.Adopt(sp.Handle())
	if s == nil {
		sp.Release()
		return nil, ErrFull
	}
	return (*ptr.SharedPtr[T])(unsafe.Pointer(s)), nil
}

// Strong constructs a StrongPtr in the next slot.
func Strong[T any](a *Allocator, src alloc.Allocator, v T) (*ptr.StrongPtr[T], error) {
	sp, err := ptr.MakeStrong(src, v)
	if err != nil {
		return nil, err
	}
	s := a.Adopt(sp.Handle())
	if s == nil {
		sp.Release()
		return nil, ErrFull
	}
	return (*ptr.StrongPtr[T])(unsafe.Pointer(s)), nil
}

// Weak stores a new weak handle to s's payload in the next slot. A nil s is
// rejected with ErrNilHandle.
func Weak[T any](a *Allocator, s *ptr.StrongPtr[T]) (*ptr.WeakPtr[T], error) {
	if s == nil || s.IsNil() {
		return nil, ErrNilHandle
	}
	wp := s.Weak()
	slot := a.Adopt(wp.Handle())
	if slot == nil {
		wp.Release()
		return nil, ErrFull
	}
	return (*ptr.WeakPtr[T])(unsafe.Pointer(slot)), nil
}

// Len returns the number of slots handed out since the last Reset.
func (a *Allocator) Len() int { return a.n }

// Cap returns the number of slots available without growing.
func (a *Allocator) Cap() int { return len(a.chunks) * a.perChunk }

// Reset releases every handle in insertion order and rewinds the allocator.
// Chunks are kept for reuse. Pointers returned earlier become invalid.
func (a *Allocator) Reset() {
	released := 0
	for i := range a.n {
		h := &a.chunks[i/a.perChunk][i%a.perChunk]
		if !h.IsNil() {
			released++
		}
		h.Release()
	}
	if a.n > 0 {
		a.log.Debug("handles: reset", slog.Int("slots", a.n), slog.Int("released", released))
	}
	a.n = 0
}

// Close releases every handle and drops the chunks.
func (a *Allocator) Close() {
	a.Reset()
	a.chunks = nil
}
