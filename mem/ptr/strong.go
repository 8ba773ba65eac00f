package ptr

import (
	"unsafe"

	"github.com/joshuapare/memkit/mem/alloc"
)

// StrongPtr owns a payload in a dual-count control block. When the last
// strong handle goes away the payload is destroyed, whatever the weak count.
type StrongPtr[T any] struct {
	h Handle
}

// WeakPtr observes a StrongPtr's payload without keeping it alive.
type WeakPtr[T any] struct {
	h Handle
}

// MakeStrong allocates a dual-count control block from a and stores v in it.
func MakeStrong[T any](a alloc.Allocator, v T) (StrongPtr[T], error) {
	cb, id, err := newBlock[dualBlock[T], T](a)
	if err != nil {
		return StrongPtr[T]{}, err
	}
	b := (*dualBlock[T])(cb)
	b.kind = kindDual
	b.alloc = id
	b.ops = opsIndex[T]()
	b.strong = 1
	b.weak = 0
	b.val = v
	return StrongPtr[T]{h: Handle{cb: cb, ptr: unsafe.Pointer(&b.val)}}, nil
}

// Get returns the payload, or nil for a nil handle.
func (p *StrongPtr[T]) Get() *T { return (*T)(p.h.ptr) }

// IsNil reports whether the handle refers to nothing.
func (p *StrongPtr[T]) IsNil() bool { return p.h.cb == nil }

// UseCount returns the strong count.
func (p *StrongPtr[T]) UseCount() uint {
	if p.h.cb == nil {
		return 0
	}
	return (*dualHeader)(p.h.cb).strong
}

// WeakCount returns the weak count.
func (p *StrongPtr[T]) WeakCount() uint {
	if p.h.cb == nil {
		return 0
	}
	return (*dualHeader)(p.h.cb).weak
}

// Clone returns another strong handle.
func (p *StrongPtr[T]) Clone() StrongPtr[T] {
	if p.h.cb != nil {
		(*dualHeader)(p.h.cb).strong++
	}
	return *p
}

// Weak returns a weak handle to the same payload.
func (p *StrongPtr[T]) Weak() WeakPtr[T] {
	if p.h.cb == nil {
		return WeakPtr[T]{}
	}
	(*dualHeader)(p.h.cb).weak++
	return WeakPtr[T]{h: Handle{cb: p.h.cb}}
}

// Move transfers ownership to the returned handle and leaves p nil.
func (p *StrongPtr[T]) Move() StrongPtr[T] {
	return StrongPtr[T]{h: p.h.Move()}
}

// Assign makes p share q's payload, releasing what p held before.
func (p *StrongPtr[T]) Assign(q *StrongPtr[T]) {
	if p.h.cb == q.h.cb {
		return
	}
	next := q.Clone()
	p.h.Release()
	*p = next
}

// Swap exchanges the payloads of p and q.
func (p *StrongPtr[T]) Swap(q *StrongPtr[T]) { *p, *q = *q, *p }

// Release drops this strong reference and leaves p nil.
func (p *StrongPtr[T]) Release() { p.h.Release() }

// Handle returns the type-erased view of p.
func (p *StrongPtr[T]) Handle() *Handle { return &p.h }

// IsNil reports whether the handle refers to nothing. An expired handle is
// not nil until released.
func (w *WeakPtr[T]) IsNil() bool { return w.h.cb == nil }

// Expired reports whether the payload has been destroyed.
func (w *WeakPtr[T]) Expired() bool {
	return w.h.cb == nil || (*dualHeader)(w.h.cb).strong == 0
}

// Get returns the payload while at least one strong handle exists, nil
// otherwise. The pointer is only valid while a strong handle keeps it alive.
func (w *WeakPtr[T]) Get() *T {
	if w.Expired() {
		return nil
	}
	return &(*dualBlock[T])(w.h.cb).val
}

// Lock promotes w to a strong handle, or returns a nil handle if expired.
func (w *WeakPtr[T]) Lock() StrongPtr[T] {
	if w.Expired() {
		return StrongPtr[T]{}
	}
	b := (*dualBlock[T])(w.h.cb)
	b.strong++
	return StrongPtr[T]{h: Handle{cb: w.h.cb, ptr: unsafe.Pointer(&b.val)}}
}

// UseCount returns the strong count of the observed block.
func (w *WeakPtr[T]) UseCount() uint {
	if w.h.cb == nil {
		return 0
	}
	return (*dualHeader)(w.h.cb).strong
}

// Clone returns another weak handle.
func (w *WeakPtr[T]) Clone() WeakPtr[T] {
	if w.h.cb != nil {
		(*dualHeader)(w.h.cb).weak++
	}
	return *w
}

// Move transfers the weak reference to the returned handle and leaves w nil.
func (w *WeakPtr[T]) Move() WeakPtr[T] {
	return WeakPtr[T]{h: w.h.Move()}
}

// Release drops this weak reference and leaves w nil.
func (w *WeakPtr[T]) Release() { w.h.Release() }

// Handle returns the type-erased view of w.
func (w *WeakPtr[T]) Handle() *Handle { return &w.h }
