package alloc

import (
	"sync"
	"unsafe"
)

// HeapAllocator hands out Go heap memory and keeps it reachable until
// Deallocate. Blocks obtained through Allocate are untyped and must not hold
// Go pointers; New and the ownership pointers allocate typed values instead.
// The zero value is ready to use.
type HeapAllocator struct {
	mu   sync.Mutex
	live map[unsafe.Pointer][]uint64
}

// Heap is the process-heap allocator.
var Heap = &HeapAllocator{}

// Allocate returns size zeroed bytes, word aligned.
func (h *HeapAllocator) Allocate(size uintptr) unsafe.Pointer {
	if size == 0 {
		size = 1
	}
	words := make([]uint64, (size+wordSize-1)/wordSize)
	p := unsafe.Pointer(&words[0])

	h.mu.Lock()
	if h.live == nil {
		h.live = map[unsafe.Pointer][]uint64{}
	}
	h.live[p] = words
	h.mu.Unlock()
	return p
}

// Deallocate drops the reference that kept p reachable.
func (h *HeapAllocator) Deallocate(p unsafe.Pointer) {
	if p == nil {
		return
	}
	h.mu.Lock()
	delete(h.live, p)
	h.mu.Unlock()
}

// Live returns the number of blocks allocated and not yet deallocated.
func (h *HeapAllocator) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}
