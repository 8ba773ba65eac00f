package alloc

import "errors"

var (
	// ErrNoSpace indicates the reservation is exhausted and no more pages can be committed.
	ErrNoSpace = errors.New("alloc: reservation exhausted")

	// ErrBadPointer indicates a pointer that is not a live block of this allocator.
	ErrBadPointer = errors.New("alloc: pointer not owned by allocator")

	// ErrDoubleFree indicates a block was deallocated more than once.
	ErrDoubleFree = errors.New("alloc: double deallocation detected")

	// ErrBadBlockSize indicates a zero block size.
	ErrBadBlockSize = errors.New("alloc: block size must be positive")

	// ErrBadOption indicates an invalid constructor option.
	ErrBadOption = errors.New("alloc: invalid option")

	// ErrBadAlign indicates an alignment that is not a power of two.
	ErrBadAlign = errors.New("alloc: alignment must be a power of two")

	// ErrClosed indicates use of an allocator after Close.
	ErrClosed = errors.New("alloc: allocator closed")
)
