package ptr

import "errors"

var (
	// ErrNilAllocator indicates a constructor was given no allocator.
	ErrNilAllocator = errors.New("ptr: nil allocator")

	// ErrAllocation indicates the allocator could not provide a control block.
	ErrAllocation = errors.New("ptr: control block allocation failed")

	// ErrPointerPayload indicates a payload holding Go pointers was placed in
	// memory the garbage collector does not scan.
	ErrPointerPayload = errors.New("ptr: payload contains Go pointers; use alloc.Heap")
)
