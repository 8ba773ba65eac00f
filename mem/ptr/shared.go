package ptr

import (
	"unsafe"

	"github.com/joshuapare/memkit/mem/alloc"
)

// SharedPtr is a single-count owning handle. The payload is destroyed and its
// control block returned to the allocator when the last handle is released.
type SharedPtr[T any] struct {
	h Handle
}

// MakeShared allocates a control block from a, stores v in it and returns the
// first handle. On failure the handle is nil and the error says why.
func MakeShared[T any](a alloc.Allocator, v T) (SharedPtr[T], error) {
	cb, id, err := newBlock[sharedBlock[T], T](a)
	if err != nil {
		return SharedPtr[T]{}, err
	}
	b := (*sharedBlock[T])(cb)
	b.kind = kindShared
	b.alloc = id
	b.ops = opsIndex[T]()
	b.strong = 1
	b.val = v
	return SharedPtr[T]{h: Handle{cb: cb, ptr: unsafe.Pointer(&b.val)}}, nil
}

// Get returns the payload, or nil for a nil handle.
func (p *SharedPtr[T]) Get() *T { return (*T)(p.h.ptr) }

// IsNil reports whether the handle refers to nothing.
func (p *SharedPtr[T]) IsNil() bool { return p.h.cb == nil }

// UseCount returns the number of handles sharing the payload.
func (p *SharedPtr[T]) UseCount() uint {
	if p.h.cb == nil {
		return 0
	}
	return (*header)(p.h.cb).strong
}

// Clone returns another handle to the same payload.
func (p *SharedPtr[T]) Clone() SharedPtr[T] {
	if p.h.cb != nil {
		(*header)(p.h.cb).strong++
	}
	return *p
}

// Move transfers ownership to the returned handle and leaves p nil.
func (p *SharedPtr[T]) Move() SharedPtr[T] {
	return SharedPtr[T]{h: p.h.Move()}
}

// Assign makes p share q's payload, releasing what p held before.
func (p *SharedPtr[T]) Assign(q *SharedPtr[T]) {
	if p.h.cb == q.h.cb {
		return
	}
	next := q.Clone()
	p.h.Release()
	*p = next
}

// Swap exchanges the payloads of p and q.
func (p *SharedPtr[T]) Swap(q *SharedPtr[T]) { *p, *q = *q, *p }

// Release drops this handle's reference and leaves p nil.
func (p *SharedPtr[T]) Release() { p.h.Release() }

// Handle returns the type-erased view of p.
func (p *SharedPtr[T]) Handle() *Handle { return &p.h }
